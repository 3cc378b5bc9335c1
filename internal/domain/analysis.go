package domain

// DistributionStats describe la forma observada de un conjunto de respuestas.
// Los campos poblados dependen del tipo de pregunta.
type DistributionStats struct {
	Count int `json:"count"`

	// Numéricas (likert, nps, matrix por fila)
	Mean      float64     `json:"mean,omitempty"`
	StdDev    float64     `json:"std_dev,omitempty"`
	Min       int         `json:"min,omitempty"`
	Max       int         `json:"max,omitempty"`
	Histogram map[int]int `json:"histogram,omitempty"`

	// Categóricas (multiple_choice, yes_no)
	Frequencies       map[string]int     `json:"frequencies,omitempty"`
	Proportions       map[string]float64 `json:"proportions,omitempty"`
	Entropy           float64            `json:"entropy,omitempty"`
	NormalizedEntropy float64            `json:"normalized_entropy,omitempty"`

	// Ranking
	PositionVariances []float64          `json:"position_variances,omitempty"`
	AverageVariance   float64            `json:"average_variance,omitempty"`
	AveragePositions  map[string]float64 `json:"average_positions,omitempty"`
}

// ExpectedDistribution parametriza la forma estadística esperada. Los campos
// nil caen a los defaults por tipo del calibrador.
type ExpectedDistribution struct {
	Mean             *float64           `json:"mean,omitempty"`
	StdDev           *float64           `json:"std_dev,omitempty"`
	Frequencies      map[string]float64 `json:"frequencies,omitempty"`
	EntropyTarget    *float64           `json:"entropy_target,omitempty"`
	PositionVariance *float64           `json:"position_variance,omitempty"`
	Tolerance        *float64           `json:"tolerance,omitempty"`
}

// DistributionAnalysis es el veredicto por pregunta del calibrador.
// LowConfidence marca análisis degradados por falta de datos (n<10).
type DistributionAnalysis struct {
	QuestionID      string            `json:"question_id"`
	QuestionType    QuestionType      `json:"question_type"`
	Actual          DistributionStats `json:"actual"`
	Expected        DistributionStats `json:"expected"`
	Deviation       float64           `json:"deviation"`
	WithinTolerance bool              `json:"within_tolerance"`
	LowConfidence   bool              `json:"low_confidence"`
	Recommendations []string          `json:"recommendations"`
}

// CalibrationSettings ajusta la selección ponderada de generaciones futuras.
// Temperature > 1 aumenta varianza, < 1 la reduce; BiasFactor corre los pesos
// hacia el inicio (negativo) o el final (positivo) de la lista de opciones;
// TargetMean, si está presente, corre respuestas de escala hacia esa media.
type CalibrationSettings struct {
	Temperature float64  `json:"temperature"`
	BiasFactor  float64  `json:"bias_factor"`
	TargetMean  *float64 `json:"target_mean,omitempty"`
}

// NeutralCalibration devuelve los valores que no alteran la generación.
func NeutralCalibration() CalibrationSettings {
	return CalibrationSettings{Temperature: 1.0, BiasFactor: 0}
}

// QuestionRecommendation asocia una recomendación con su pregunta.
type QuestionRecommendation struct {
	QuestionID     string `json:"question_id"`
	Recommendation string `json:"recommendation"`
}

// DistributionReportSummary agrega los resultados por pregunta.
type DistributionReportSummary struct {
	QuestionsAnalyzed        int     `json:"questions_analyzed"`
	AverageDeviation         float64 `json:"average_deviation"`
	QuestionsWithinTolerance int     `json:"questions_within_tolerance"`
	TotalRecommendations     int     `json:"total_recommendations"`
}

// DistributionReport cubre todas las preguntas de una corrida.
// OverallHealth es "good", "fair" o "poor" según la desviación promedio.
type DistributionReport struct {
	QuestionAnalyses map[string]DistributionAnalysis `json:"question_analyses"`
	OverallHealth    string                          `json:"overall_health"`
	Recommendations  []QuestionRecommendation        `json:"recommendations"`
	Summary          DistributionReportSummary       `json:"summary"`
}
