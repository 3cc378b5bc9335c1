package domain

import "time"

// Niveles de severidad de un hallazgo.
const (
	InsightLevelHigh   = "high"
	InsightLevelMedium = "medium"
	InsightLevelLow    = "low"
)

// StudySummary es el resumen ejecutivo de una corrida.
type StudySummary struct {
	TotalRespondents  int            `json:"total_respondents"`
	TotalQuestions    int            `json:"total_questions"`
	SegmentsAnalyzed  int            `json:"segments_analyzed"`
	SegmentBreakdown  map[string]int `json:"segment_breakdown"`
	CompletionRate    float64        `json:"completion_rate"`
	AverageConfidence float64        `json:"average_confidence"`
}

// OptionCount es la frecuencia y proporción de una opción o valor de escala.
type OptionCount struct {
	Count      int `json:"count"`
	Percentage int `json:"percentage"`
}

// TopAnswer es la opción más elegida de una pregunta categórica.
type TopAnswer struct {
	Option     string `json:"option"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// NPSResult desglosa un Net Promoter Score.
type NPSResult struct {
	NPS            int    `json:"nps"`
	Promoters      int    `json:"promoters"`
	Detractors     int    `json:"detractors"`
	Passives       int    `json:"passives"`
	PromotersPct   int    `json:"promoters_pct"`
	DetractorsPct  int    `json:"detractors_pct"`
	PassivesPct    int    `json:"passives_pct"`
	Interpretation string `json:"interpretation"`
}

// RankingStat es la posición promedio de un ítem en un ranking.
type RankingStat struct {
	Item          string  `json:"item"`
	AverageRank   float64 `json:"average_rank"`
	ResponseCount int     `json:"response_count"`
}

// SegmentStat resume la respuesta de un segmento a una pregunta.
type SegmentStat struct {
	SegmentID   string  `json:"segment_id"`
	SegmentName string  `json:"segment_name"`
	Count       int     `json:"count"`
	Mean        float64 `json:"mean,omitempty"`
	TopAnswer   string  `json:"top_answer,omitempty"`
	Percentage  int     `json:"percentage,omitempty"`
}

// QuestionAnalysis es el análisis por pregunta del agregador.
type QuestionAnalysis struct {
	QuestionID   string       `json:"question_id"`
	QuestionText string       `json:"question_text"`
	QuestionType QuestionType `json:"question_type"`
	N            int          `json:"n"`

	Distribution map[string]OptionCount `json:"distribution,omitempty"`
	TopAnswer    *TopAnswer             `json:"top_answer,omitempty"`

	Mean   float64 `json:"mean,omitempty"`
	StdDev float64 `json:"std_dev,omitempty"`
	Median float64 `json:"median,omitempty"`

	NPS      *NPSResult    `json:"nps,omitempty"`
	Rankings []RankingStat `json:"rankings,omitempty"`

	AvgWordCount    int      `json:"avg_word_count,omitempty"`
	SampleResponses []string `json:"sample_responses,omitempty"`

	BySegment      []SegmentStat `json:"by_segment,omitempty"`
	Interpretation string        `json:"interpretation,omitempty"`
}

// Finding es un hallazgo clave rankeado por severidad.
type Finding struct {
	Level      string `json:"level"`
	Type       string `json:"type"`
	QuestionID string `json:"question_id,omitempty"`
	Finding    string `json:"finding"`
}

// SegmentComparison es una diferencia notable entre segmentos en una pregunta.
type SegmentComparison struct {
	QuestionID   string        `json:"question_id"`
	QuestionText string        `json:"question_text"`
	Type         string        `json:"type"`
	Difference   float64       `json:"difference,omitempty"`
	Results      []SegmentStat `json:"results"`
	Insight      string        `json:"insight"`
}

// SegmentComparisons agrupa las comparaciones; Available es false con <2 segmentos.
type SegmentComparisons struct {
	Available   bool                `json:"available"`
	Message     string              `json:"message,omitempty"`
	Comparisons []SegmentComparison `json:"comparisons,omitempty"`
}

// Pattern es una correlación entre pares de preguntas numéricas.
type Pattern struct {
	Type          string   `json:"type"`
	Strength      string   `json:"strength"`
	Direction     string   `json:"direction"`
	QuestionIDs   []string `json:"question_ids"`
	QuestionTexts []string `json:"question_texts"`
	Correlation   float64  `json:"correlation"`
	Description   string   `json:"description"`
}

// Outlier reporta respuestas a más de 2 desviaciones estándar de la media.
type Outlier struct {
	QuestionID   string  `json:"question_id"`
	QuestionText string  `json:"question_text"`
	Mean         float64 `json:"mean"`
	StdDev       float64 `json:"std_dev"`
	OutlierCount int     `json:"outlier_count"`
	OutlierPct   float64 `json:"outlier_pct"`
}

// Recommendation es una acción sugerida con prioridad.
type Recommendation struct {
	Priority       string `json:"priority"`
	Area           string `json:"area"`
	Recommendation string `json:"recommendation"`
	Rationale      string `json:"rationale"`
}

// StudyInsights es la salida del agregador para toda la corrida.
type StudyInsights struct {
	Summary            StudySummary                `json:"summary"`
	KeyFindings        []Finding                   `json:"key_findings"`
	QuestionInsights   map[string]QuestionAnalysis `json:"question_insights"`
	SegmentComparisons SegmentComparisons          `json:"segment_comparisons"`
	Patterns           []Pattern                   `json:"patterns"`
	Outliers           []Outlier                   `json:"outliers"`
	Recommendations    []Recommendation            `json:"recommendations"`
	GeneratedAt        time.Time                   `json:"generated_at"`
}
