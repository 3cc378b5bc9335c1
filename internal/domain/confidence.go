package domain

// ConfidenceBreakdown son los cuatro componentes ponderados del puntaje.
type ConfidenceBreakdown struct {
	DataSourceRelevance int `json:"data_source_relevance"`
	QuestionTypeClarity int `json:"question_type_clarity"`
	SegmentDefinition   int `json:"segment_definition"`
	PersonaCoherence    int `json:"persona_coherence"`
}

// ConfidenceScore es el estimado 0-100 de confiabilidad de una respuesta.
type ConfidenceScore struct {
	Score       int                 `json:"score"`
	Breakdown   ConfidenceBreakdown `json:"breakdown"`
	Explanation string              `json:"explanation"`
	Factors     []string            `json:"factors"`
}

// ResponseConfidence asocia un puntaje con la respuesta evaluada. Error queda
// seteado (y Score en 0) cuando la referencia a pregunta o persona no resuelve.
type ResponseConfidence struct {
	ResponseID string `json:"response_id"`
	QuestionID string `json:"question_id"`
	PersonaID  string `json:"persona_id"`
	ConfidenceScore
	Error string `json:"error,omitempty"`
}

// ConfidenceSummary agrega los puntajes de una corrida en buckets.
type ConfidenceSummary struct {
	TotalResponses     int            `json:"total_responses"`
	ScoredResponses    int            `json:"scored_responses"`
	AverageConfidence  int            `json:"average_confidence"`
	HighConfidence     int            `json:"high_confidence"`
	ModerateConfidence int            `json:"moderate_confidence"`
	LowConfidence      int            `json:"low_confidence"`
	Distribution       map[string]int `json:"confidence_distribution"`
}

// ConfidenceReport cubre todas las respuestas de una corrida.
type ConfidenceReport struct {
	Results []ResponseConfidence `json:"results"`
	Summary ConfidenceSummary    `json:"summary"`
}
