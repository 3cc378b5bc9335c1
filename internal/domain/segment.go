package domain

import "time"

// WeightedOption es un valor categórico con peso relativo de muestreo.
// Los pesos no necesitan sumar 1; se normalizan al momento de elegir.
type WeightedOption struct {
	Value  string  `json:"value"`
	Weight float64 `json:"weight"`
}

// SegmentDemographics define los rangos y distribuciones objetivo de un segmento.
// Campos vacíos caen a los defaults del generador.
type SegmentDemographics struct {
	AgeRange        [2]int           `json:"age_range,omitempty"`
	Genders         []WeightedOption `json:"genders,omitempty"`
	LocationTypes   []WeightedOption `json:"location_types,omitempty"`
	EducationLevels []WeightedOption `json:"education_levels,omitempty"`
	IncomeRanges    []WeightedOption `json:"income_ranges,omitempty"`
}

// SegmentPsychographics declara valores e intereses prioritarios y pistas de
// personalidad (ej: "adventurous", "anxious") que ajustan el Big Five.
type SegmentPsychographics struct {
	CoreValues       []string `json:"core_values,omitempty"`
	Interests        []string `json:"interests,omitempty"`
	PersonalityHints []string `json:"personality_hints,omitempty"`
}

// SegmentBehaviors restringe los conjuntos de opciones conductuales.
type SegmentBehaviors struct {
	DecisionStyles []string `json:"decision_styles,omitempty"`
	RiskTolerances []string `json:"risk_tolerances,omitempty"`
	TechAdoptions  []string `json:"tech_adoptions,omitempty"`
}

// Segment es una sub-población de audiencia con peso relativo de muestreo.
// Inmutable una vez usado en una corrida de simulación.
type Segment struct {
	ID             string                `json:"id"`
	UserID         string                `json:"user_id,omitempty"`
	Name           string                `json:"name"`
	Weight         float64               `json:"weight"`
	Demographics   SegmentDemographics   `json:"demographics"`
	Psychographics SegmentPsychographics `json:"psychographics"`
	Behaviors      SegmentBehaviors      `json:"behaviors"`
	CreatedAt      time.Time             `json:"created_at"`
}

// EffectiveWeight devuelve el peso a usar en la asignación (default 1).
func (s Segment) EffectiveWeight() float64 {
	if s.Weight <= 0 {
		return 1
	}
	return s.Weight
}

// DemographicFieldCount cuenta cuántos criterios demográficos están definidos.
func (s Segment) DemographicFieldCount() int {
	n := 0
	if s.Demographics.AgeRange[1] > 0 {
		n++
	}
	if len(s.Demographics.Genders) > 0 {
		n++
	}
	if len(s.Demographics.LocationTypes) > 0 {
		n++
	}
	if len(s.Demographics.EducationLevels) > 0 {
		n++
	}
	if len(s.Demographics.IncomeRanges) > 0 {
		n++
	}
	return n
}

// PsychographicFieldCount cuenta criterios psicográficos definidos.
func (s Segment) PsychographicFieldCount() int {
	n := 0
	if len(s.Psychographics.CoreValues) > 0 {
		n++
	}
	if len(s.Psychographics.Interests) > 0 {
		n++
	}
	if len(s.Psychographics.PersonalityHints) > 0 {
		n++
	}
	return n
}

// BehaviorFieldCount cuenta criterios conductuales definidos.
func (s Segment) BehaviorFieldCount() int {
	n := 0
	if len(s.Behaviors.DecisionStyles) > 0 {
		n++
	}
	if len(s.Behaviors.RiskTolerances) > 0 {
		n++
	}
	if len(s.Behaviors.TechAdoptions) > 0 {
		n++
	}
	return n
}
