package domain

// QuestionType discrimina el registro Question; toda la lógica específica por
// tipo en el pipeline hace switch exhaustivo sobre este valor.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionLikert         QuestionType = "likert"
	QuestionOpenEnded      QuestionType = "open_ended"
	QuestionRanking        QuestionType = "ranking"
	QuestionMatrix         QuestionType = "matrix"
	QuestionNPS            QuestionType = "nps"
	QuestionYesNo          QuestionType = "yes_no"
)

// Scale configura una escala numérica (likert, matrix).
type Scale struct {
	Min    int      `json:"min"`
	Max    int      `json:"max"`
	Labels []string `json:"labels,omitempty"`
}

// Midpoint devuelve el punto medio de la escala.
func (s Scale) Midpoint() float64 {
	return float64(s.Min+s.Max) / 2
}

// Range devuelve la amplitud de la escala.
func (s Scale) Range() int {
	return s.Max - s.Min
}

// Question es una pregunta de encuesta. Los campos extra aplican según Type:
// Options para multiple_choice/ranking/yes_no, Scale para likert/matrix,
// Rows para matrix, límites de largo y ejemplo para open_ended.
type Question struct {
	ID              string       `json:"id"`
	Type            QuestionType `json:"type"`
	Text            string       `json:"text"`
	Options         []string     `json:"options,omitempty"`
	Scale           *Scale       `json:"scale,omitempty"`
	Rows            []string     `json:"rows,omitempty"`
	MinLength       int          `json:"min_length,omitempty"`
	MaxLength       int          `json:"max_length,omitempty"`
	ExampleResponse string       `json:"example_response,omitempty"`
	Topic           string       `json:"topic,omitempty"`
}

// EffectiveScale resuelve la escala aplicable con defaults por tipo:
// likert/matrix 1-5, nps 0-10.
func (q Question) EffectiveScale() Scale {
	if q.Scale != nil && q.Scale.Max > q.Scale.Min {
		return *q.Scale
	}
	if q.Type == QuestionNPS {
		return Scale{Min: 0, Max: 10}
	}
	return Scale{
		Min:    1,
		Max:    5,
		Labels: []string{"Strongly Disagree", "Disagree", "Neutral", "Agree", "Strongly Agree"},
	}
}

// IsNumeric indica si las respuestas del tipo son comparables numéricamente
// (para correlaciones, outliers y comparaciones entre segmentos).
func (t QuestionType) IsNumeric() bool {
	switch t {
	case QuestionLikert, QuestionNPS:
		return true
	default:
		return false
	}
}
