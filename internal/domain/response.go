package domain

import "time"

// AnswerKind discrimina el registro Answer.
type AnswerKind string

const (
	AnswerNone   AnswerKind = "none"
	AnswerText   AnswerKind = "text"
	AnswerNumber AnswerKind = "number"
	AnswerItems  AnswerKind = "items"
	AnswerGrid   AnswerKind = "grid"
)

// Answer es la respuesta tipada de una persona a una pregunta. Un solo campo
// de payload es válido según Kind; AnswerNone marca el placeholder de una
// generación fallida.
type Answer struct {
	Kind   AnswerKind     `json:"kind"`
	Text   string         `json:"text,omitempty"`
	Number float64        `json:"number,omitempty"`
	Items  []string       `json:"items,omitempty"`
	Grid   map[string]int `json:"grid,omitempty"`
}

// IsNone reporta si la respuesta es un placeholder sin contenido.
func (a Answer) IsNone() bool {
	return a.Kind == AnswerNone || a.Kind == ""
}

// TextAnswer construye una respuesta de texto.
func TextAnswer(s string) Answer { return Answer{Kind: AnswerText, Text: s} }

// NumberAnswer construye una respuesta numérica.
func NumberAnswer(n float64) Answer { return Answer{Kind: AnswerNumber, Number: n} }

// ItemsAnswer construye una respuesta de lista ordenada (ranking).
func ItemsAnswer(items []string) Answer { return Answer{Kind: AnswerItems, Items: items} }

// GridAnswer construye una respuesta de grilla fila→puntaje (matrix).
func GridAnswer(grid map[string]int) Answer { return Answer{Kind: AnswerGrid, Grid: grid} }

// Response es una respuesta generada. Pertenece a la corrida y es inmutable
// una vez producida; Error queda seteado cuando la generación individual falló
// y la respuesta es un placeholder con confianza 0.
type Response struct {
	QuestionID     string    `json:"question_id"`
	PersonaID      string    `json:"persona_id"`
	Answer         Answer    `json:"answer"`
	AnswerLabel    string    `json:"answer_label,omitempty"`
	Thinking       string    `json:"thinking"`
	Confidence     int       `json:"confidence"`
	ResponseTimeMs int       `json:"response_time_ms"`
	Timestamp      time.Time `json:"timestamp"`
	Error          string    `json:"error,omitempty"`
}
