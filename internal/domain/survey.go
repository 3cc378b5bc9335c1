package domain

import "time"

// Survey es la plantilla de preguntas de un estudio.
type Survey struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Name      string     `json:"name"`
	Objective string     `json:"objective,omitempty"`
	Questions []Question `json:"questions"`
	CreatedAt time.Time  `json:"created_at"`
}
