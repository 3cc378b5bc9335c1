package simulation

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"crowd-sim/internal/domain"
)

// Rango etario default cuando el segmento no declara uno.
var defaultAgeRange = [2]int{18, 65}

// PersonaGenerator instancia personas sintéticas a partir de segmentos de
// audiencia. Es determinista para una misma semilla: cada persona se muestrea
// desde su propio stream, así que el resultado no depende del orden de
// generación.
type PersonaGenerator struct {
	log *zap.Logger
}

// NewPersonaGenerator crea el generador.
func NewPersonaGenerator(log *zap.Logger) *PersonaGenerator {
	if log == nil {
		log = zap.NewNop()
	}
	return &PersonaGenerator{log: log}
}

// GenerateParams son las entradas de una generación de personas.
type GenerateParams struct {
	Segments    []domain.Segment
	SampleSize  int
	DataSources []domain.DataSource
	Seed        uint64
}

// Generate produce exactamente SampleSize personas repartidas entre los
// segmentos en proporción a sus pesos. Devuelve también el desglose
// objetivo/generado por segmento.
func (g *PersonaGenerator) Generate(ctx context.Context, p GenerateParams) ([]domain.Persona, map[string]domain.SegmentCount, error) {
	if len(p.Segments) == 0 {
		return nil, nil, fmt.Errorf("%w: at least one segment is required", ErrInvalidInput)
	}
	if p.SampleSize <= 0 {
		return nil, nil, fmt.Errorf("%w: sample size must be positive, got %d", ErrInvalidInput, p.SampleSize)
	}

	counts := allocate(p.Segments, p.SampleSize)
	breakdown := make(map[string]domain.SegmentCount, len(p.Segments))
	personas := make([]domain.Persona, 0, p.SampleSize)

	stream := uint64(0)
	for i, seg := range p.Segments {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		sources := applicableSources(p.DataSources, seg.ID)
		generated := 0
		for j := 0; j < counts[i]; j++ {
			stream++
			rng := NewRand(p.Seed, stream)
			personas = append(personas, g.buildPersona(seg, sources, rng))
			generated++
		}
		breakdown[seg.ID] = domain.SegmentCount{Target: counts[i], Generated: generated}
		g.log.Debug("segment personas generated",
			zap.String("segment_id", seg.ID),
			zap.Int("count", generated),
		)
	}
	return personas, breakdown, nil
}

// allocate reparte n entre los segmentos por peso, redondeando al entero más
// cercano. El residuo del redondeo se corrige hasta que la suma sea
// exactamente n: los faltantes van al segmento de mayor peso (primero en orden
// de entrada ante empate) y los sobrantes se descuentan de los segmentos de
// menor peso que todavía tienen asignación (último ante empate).
func allocate(segments []domain.Segment, n int) []int {
	var total float64
	for _, s := range segments {
		total += s.EffectiveWeight()
	}
	counts := make([]int, len(segments))
	sum := 0
	largest := 0
	for i, s := range segments {
		counts[i] = int(math.Round(s.EffectiveWeight() / total * float64(n)))
		sum += counts[i]
		if s.EffectiveWeight() > segments[largest].EffectiveWeight() {
			largest = i
		}
	}
	for sum < n {
		counts[largest]++
		sum++
	}
	for sum > n {
		idx := -1
		for i := len(segments) - 1; i >= 0; i-- {
			if counts[i] == 0 {
				continue
			}
			if idx < 0 || segments[i].EffectiveWeight() < segments[idx].EffectiveWeight() {
				idx = i
			}
		}
		counts[idx]--
		sum--
	}
	return counts
}

func applicableSources(sources []domain.DataSource, segmentID string) []domain.DataSource {
	var out []domain.DataSource
	for _, ds := range sources {
		if ds.AppliesTo(segmentID) && len(ds.Insights) > 0 {
			out = append(out, ds)
		}
	}
	return out
}

func (g *PersonaGenerator) buildPersona(seg domain.Segment, sources []domain.DataSource, rng *randSource) domain.Persona {
	demo := sampleDemographics(seg, rng)
	psycho := samplePsychographics(seg, rng)
	behav := sampleBehaviors(seg, psycho.BigFive, rng)

	persona := domain.Persona{
		ID:             uuid.NewString(),
		Name:           sampleName(demo.Gender, rng),
		SegmentID:      seg.ID,
		Demographics:   demo,
		Psychographics: psycho,
		Behaviors:      behav,
		CreatedAt:      time.Now().UTC(),
	}
	persona.Context = domain.PersonaContext{
		Summary:            summarize(persona),
		DataSourceInsights: enrichFromSources(sources, rng),
	}
	return persona
}

func sampleName(gender string, rng *randSource) string {
	firsts, ok := firstNamePool[gender]
	if !ok {
		firsts = firstNamePool["nonbinary"]
	}
	return pick(rng, firsts) + " " + pick(rng, lastNamePool)
}

func sampleDemographics(seg domain.Segment, rng *randSource) domain.Demographics {
	ageRange := seg.Demographics.AgeRange
	if ageRange[1] <= ageRange[0] {
		ageRange = defaultAgeRange
	}
	gender := sampleWeighted(rng, seg.Demographics.Genders, defaultGenders)
	locationType := sampleWeighted(rng, seg.Demographics.LocationTypes, defaultLocationTypes)
	occupationType := sampleWeighted(rng, nil, defaultOccupationTypes)
	marital := sampleWeighted(rng, nil, defaultMaritalStatuses)

	household := uniformInRange(rng, 1, 3)
	if marital == "Married" || marital == "Partnered" {
		household = uniformInRange(rng, 2, 5)
	}

	return domain.Demographics{
		Age:           normalInRange(rng, ageRange[0], ageRange[1]),
		Gender:        gender,
		Location:      pick(rng, locationPool[locationType]),
		Education:     sampleWeighted(rng, seg.Demographics.EducationLevels, defaultEducationLevels),
		Occupation:    pick(rng, occupationPool[occupationType]),
		IncomeRange:   sampleWeighted(rng, seg.Demographics.IncomeRanges, defaultIncomeRanges),
		HouseholdSize: household,
		MaritalStatus: marital,
	}
}

// sampleWeighted elige de las opciones del segmento si existen, si no de las
// default.
func sampleWeighted(rng *randSource, declared, fallback []domain.WeightedOption) string {
	opts := declared
	if len(opts) == 0 {
		opts = fallback
	}
	values := make([]string, len(opts))
	weights := make([]float64, len(opts))
	for i, o := range opts {
		values[i] = o.Value
		weights[i] = o.Weight
	}
	return weightedOption(rng, values, weights)
}

func samplePsychographics(seg domain.Segment, rng *randSource) domain.Psychographics {
	return domain.Psychographics{
		Values:      fillFromPool(rng, seg.Psychographics.CoreValues, valuePool, maxPersonaValues),
		Interests:   fillFromPool(rng, seg.Psychographics.Interests, interestPool, uniformInRange(rng, 3, maxPersonaInterests)),
		Personality: pick(rng, personalityPool),
		Lifestyle:   pick(rng, lifestylePool),
		BigFive:     sampleBigFive(seg.Psychographics.PersonalityHints, rng),
	}
}

// fillFromPool arranca con los valores declarados por el segmento y completa
// hasta n con elementos del pool sin duplicados.
func fillFromPool(rng *randSource, declared, pool []string, n int) []string {
	out := make([]string, 0, n)
	seen := make(map[string]bool, n)
	for _, v := range declared {
		if len(out) >= n {
			break
		}
		if !seen[v] {
			out = append(out, v)
			seen[v] = true
		}
	}
	for _, v := range sample(rng, pool, len(pool)) {
		if len(out) >= n {
			break
		}
		if !seen[v] {
			out = append(out, v)
			seen[v] = true
		}
	}
	return out
}

// sampleBigFive muestrea cada rasgo de una normal acotada en [30,70], aplica
// los ajustes por pista de personalidad del segmento y un jitter individual
// de ±10, recortando a [0,100].
func sampleBigFive(hints []string, rng *randSource) domain.Big5Profile {
	traits := map[string]int{
		"openness":          normalInRange(rng, 30, 70),
		"conscientiousness": normalInRange(rng, 30, 70),
		"extraversion":      normalInRange(rng, 30, 70),
		"agreeableness":     normalInRange(rng, 30, 70),
		"neuroticism":       normalInRange(rng, 30, 70),
	}
	for _, h := range hints {
		if adj, ok := personalityHintAdjustments[strings.ToLower(h)]; ok {
			traits[adj.trait] += adj.delta
		}
	}
	for name, v := range traits {
		traits[name] = clampInt(v+uniformInRange(rng, -10, 10), 0, 100)
	}
	return domain.Big5Profile{
		Openness:          traits["openness"],
		Conscientiousness: traits["conscientiousness"],
		Extraversion:      traits["extraversion"],
		Agreeableness:     traits["agreeableness"],
		Neuroticism:       traits["neuroticism"],
	}
}

func sampleBehaviors(seg domain.Segment, big5 domain.Big5Profile, rng *randSource) domain.Behaviors {
	styles := seg.Behaviors.DecisionStyles
	if len(styles) == 0 {
		styles = defaultDecisionStyles
	}
	tolerances := seg.Behaviors.RiskTolerances
	if len(tolerances) == 0 {
		tolerances = defaultRiskTolerances
	}
	adoptions := seg.Behaviors.TechAdoptions
	if len(adoptions) == 0 {
		adoptions = defaultTechAdoptions
	}
	return domain.Behaviors{
		DecisionStyle:    pick(rng, styles),
		RiskTolerance:    sampleRiskTolerance(rng, tolerances, big5.Openness),
		BrandLoyalty:     pick(rng, brandLoyaltyPool),
		MediaConsumption: sample(rng, mediaChannelPool, uniformInRange(rng, 2, 4)),
		ShoppingBehavior: pick(rng, shoppingBehaviorPool),
		TechAdoption:     pick(rng, adoptions),
	}
}

// sampleRiskTolerance elige tolerancia al riesgo con sesgo por apertura:
// openness > 70 corre 0.2 de masa hacia "high", < 30 hacia "low".
func sampleRiskTolerance(rng *randSource, options []string, openness int) string {
	weights := make([]float64, len(options))
	for i := range weights {
		weights[i] = 1.0 / float64(len(options))
	}
	const bias = 0.2
	shift := func(from, to string) {
		fi, ti := -1, -1
		for i, o := range options {
			if o == from {
				fi = i
			}
			if o == to {
				ti = i
			}
		}
		if fi >= 0 && ti >= 0 {
			moved := math.Min(bias, weights[fi])
			weights[fi] -= moved
			weights[ti] += moved
		}
	}
	if openness > 70 {
		shift("low", "high")
	} else if openness < 30 {
		shift("high", "low")
	}
	return weightedOption(rng, options, weights)
}

// summarize arma el resumen narrativo con una plantilla determinista.
func summarize(p domain.Persona) string {
	values := strings.Join(p.Psychographics.Values, ", ")
	interests := strings.Join(p.Psychographics.Interests, ", ")
	return fmt.Sprintf(
		"%s is a %d-year-old %s from %s. Values %s. Interested in %s. Makes decisions in a %s way with %s risk tolerance.",
		p.Name, p.Demographics.Age, p.Demographics.Occupation, p.Demographics.Location,
		values, interests, p.Behaviors.DecisionStyle, p.Behaviors.RiskTolerance,
	)
}

// enrichFromSources incorpora 1-3 insights de cada fuente aplicable, con una
// relevancia muestreada en [0.7, 1.0].
func enrichFromSources(sources []domain.DataSource, rng *randSource) []domain.DataSourceInsight {
	out := make([]domain.DataSourceInsight, 0, len(sources))
	for _, ds := range sources {
		n := uniformInRange(rng, 1, 3)
		out = append(out, domain.DataSourceInsight{
			SourceID:   ds.ID,
			SourceType: ds.Type,
			Relevance:  math.Round((0.7+rng.Float64()*0.3)*100) / 100,
			Insights:   sample(rng, ds.Insights, n),
		})
	}
	return out
}
