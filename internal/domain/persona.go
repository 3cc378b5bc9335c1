package domain

import "time"

// Demographics son los valores concretos muestreados para una persona.
type Demographics struct {
	Age           int    `json:"age"`
	Gender        string `json:"gender"`
	Location      string `json:"location"`
	Education     string `json:"education"`
	Occupation    string `json:"occupation"`
	IncomeRange   string `json:"income_range"`
	HouseholdSize int    `json:"household_size"`
	MaritalStatus string `json:"marital_status"`
}

// Big5Profile son puntajes 0-100 por rasgo del modelo Big Five.
type Big5Profile struct {
	Openness          int `json:"openness"`
	Conscientiousness int `json:"conscientiousness"`
	Extraversion      int `json:"extraversion"`
	Agreeableness     int `json:"agreeableness"`
	Neuroticism       int `json:"neuroticism"`
}

// Psychographics combina valores, intereses y perfil de personalidad muestreados.
type Psychographics struct {
	Values      []string    `json:"values"`
	Interests   []string    `json:"interests"`
	Personality string      `json:"personality"`
	Lifestyle   string      `json:"lifestyle"`
	BigFive     Big5Profile `json:"big_five"`
}

// Behaviors son las tendencias conductuales muestreadas.
type Behaviors struct {
	DecisionStyle    string   `json:"decision_style"`
	RiskTolerance    string   `json:"risk_tolerance"`
	BrandLoyalty     string   `json:"brand_loyalty"`
	MediaConsumption []string `json:"media_consumption"`
	ShoppingBehavior string   `json:"shopping_behavior"`
	TechAdoption     string   `json:"tech_adoption"`
}

// DataSourceInsight anota a una persona con hallazgos de una fuente de datos.
// Relevance siempre cae en [0.7, 1.0].
type DataSourceInsight struct {
	SourceID   string   `json:"source_id"`
	SourceType string   `json:"source_type,omitempty"`
	Relevance  float64  `json:"relevance"`
	Insights   []string `json:"insights"`
}

// PersonaContext guarda el resumen narrativo y los insights incorporados.
type PersonaContext struct {
	Summary            string              `json:"summary"`
	DataSourceInsights []DataSourceInsight `json:"data_source_insights"`
}

// Persona es un individuo sintético instanciado desde un segmento.
// Pertenece exclusivamente a una corrida de simulación y es de solo lectura
// después de creada.
type Persona struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	SegmentID      string         `json:"segment_id"`
	Demographics   Demographics   `json:"demographics"`
	Psychographics Psychographics `json:"psychographics"`
	Behaviors      Behaviors      `json:"behaviors"`
	Context        PersonaContext `json:"context"`
	CreatedAt      time.Time      `json:"created_at"`
}
