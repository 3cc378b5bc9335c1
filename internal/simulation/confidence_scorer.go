package simulation

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"crowd-sim/internal/domain"
)

// Pesos de los cuatro componentes del puntaje de confianza.
const (
	weightDataSourceRelevance = 0.30
	weightQuestionTypeClarity = 0.20
	weightSegmentDefinition   = 0.25
	weightPersonaCoherence    = 0.25
)

// Puntaje base de relevancia cuando la corrida no tiene fuentes de datos.
const noDataSourceScore = 40

// Una fuente se considera fresca dentro de esta ventana.
const sourceFreshnessWindow = 90 * 24 * time.Hour

// Buckets del resumen de confianza.
const (
	highConfidenceFloor     = 80
	moderateConfidenceFloor = 60
)

// ConfidenceScorer estima qué tan confiable es cada respuesta simulada a
// partir de cuatro señales: respaldo en fuentes de datos, claridad del tipo de
// pregunta, definición del segmento y coherencia interna de la persona.
type ConfidenceScorer struct {
	log *zap.Logger
}

// NewConfidenceScorer crea el scorer.
func NewConfidenceScorer(log *zap.Logger) *ConfidenceScorer {
	if log == nil {
		log = zap.NewNop()
	}
	return &ConfidenceScorer{log: log}
}

// Score evalúa una respuesta individual.
func (s *ConfidenceScorer) Score(q domain.Question, persona domain.Persona, segment domain.Segment, sources []domain.DataSource) domain.ConfidenceScore {
	breakdown := domain.ConfidenceBreakdown{
		DataSourceRelevance: scoreDataSources(q, persona, sources),
		QuestionTypeClarity: scoreQuestionClarity(q),
		SegmentDefinition:   scoreSegmentDefinition(segment),
		PersonaCoherence:    scorePersonaCoherence(persona),
	}

	total := weightDataSourceRelevance*float64(breakdown.DataSourceRelevance) +
		weightQuestionTypeClarity*float64(breakdown.QuestionTypeClarity) +
		weightSegmentDefinition*float64(breakdown.SegmentDefinition) +
		weightPersonaCoherence*float64(breakdown.PersonaCoherence)

	score := domain.ConfidenceScore{
		Score:     clampInt(int(math.Round(total)), 0, 100),
		Breakdown: breakdown,
		Factors:   confidenceFactors(breakdown, persona),
	}
	score.Explanation = explainScore(breakdown)
	return score
}

// scoreDataSources puntúa el respaldo en investigación: relevancia al
// segmento, frescura, calidad y conflictos de las fuentes, más un extra si la
// persona ya incorporó insights. Sin fuentes el puntaje cae a un piso bajo.
func scoreDataSources(q domain.Question, p domain.Persona, sources []domain.DataSource) int {
	if len(sources) == 0 {
		return noDataSourceScore
	}

	questionText := strings.ToLower(q.Text + " " + q.Topic)
	score := 50
	var relevant, fresh, trusted, conflicted bool
	for _, src := range sources {
		if src.AppliesTo(p.SegmentID) || keywordMatch(src.Keywords, questionText) {
			relevant = true
		}
		if !src.CreatedAt.IsZero() && time.Since(src.CreatedAt) < sourceFreshnessWindow {
			fresh = true
		}
		if src.Verified || src.Quality == "high" {
			trusted = true
		}
		if len(src.Conflicts) > 0 {
			conflicted = true
		}
	}
	if relevant {
		score += 20
	}
	if fresh {
		score += 10
	}
	if trusted {
		score += 15
	}
	if conflicted {
		score -= 10
	}
	if len(p.Context.DataSourceInsights) > 0 {
		score += 5
	}
	return clampInt(score, 0, 100)
}

func keywordMatch(keywords []string, text string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// scoreQuestionClarity parte del puntaje base del tipo y ajusta por señales de
// la pregunta: un ejemplo guía mejora las abiertas, demasiadas opciones
// degradan las de selección.
func scoreQuestionClarity(q domain.Question) int {
	base, ok := questionTypeBaseScores[q.Type]
	if !ok {
		base = defaultQuestionTypeBaseScore
	}
	if q.Type == domain.QuestionOpenEnded && q.ExampleResponse != "" {
		base += 10
	}
	if n := len(q.Options); n > 6 {
		base -= 10
	} else if n >= 2 && n <= 5 {
		base += 5
	}
	if q.Type.IsNumeric() || q.Type == domain.QuestionMatrix {
		if r := q.EffectiveScale().Range(); r >= 4 && r <= 6 {
			base += 5
		}
	}
	return clampInt(base, 0, 100)
}

// scoreSegmentDefinition puntúa qué tan especificado está el segmento de
// origen: más criterios declarados producen personas menos genéricas, y un
// segmento casi sin criterios se penaliza por amplio.
func scoreSegmentDefinition(seg domain.Segment) int {
	score := 50

	demo := seg.DemographicFieldCount()
	if demo >= 3 {
		score += 15
	} else if demo > 0 {
		score += 5
	}
	if seg.Demographics.AgeRange[1] > seg.Demographics.AgeRange[0] &&
		seg.Demographics.AgeRange[1]-seg.Demographics.AgeRange[0] <= 20 {
		score += 5
	}

	psych := seg.PsychographicFieldCount()
	if psych >= 2 {
		score += 15
	}
	if len(seg.Psychographics.CoreValues) > 0 {
		score += 5
	}

	behav := seg.BehaviorFieldCount()
	if behav >= 2 {
		score += 10
	}

	if seg.Weight > 0 {
		score += 5
	}
	if len(seg.Name) > 3 {
		score += 5
	}
	if demo+psych+behav < 3 {
		score -= 15
	}
	return clampInt(score, 0, 100)
}

// scorePersonaCoherence puntúa la completitud del perfil muestreado y la
// consistencia entre estilo de vida y estilo de decisión. Una persona sin ID
// no es puntuable.
func scorePersonaCoherence(p domain.Persona) int {
	if p.ID == "" {
		return 0
	}
	score := 60

	if personaDemographicFieldCount(p.Demographics) >= 5 {
		score += 10
	}
	if len(p.Psychographics.Values) >= 2 {
		score += 5
	}
	if p.Psychographics.BigFive != (domain.Big5Profile{}) {
		score += 10
	}
	if personaBehaviorFieldCount(p.Behaviors) >= 3 {
		score += 5
	}
	if len(p.Context.Summary) > 50 {
		score += 5
	}
	if len(p.Context.DataSourceInsights) > 0 {
		score += 10
	}
	for _, pair := range coherencePairs {
		if p.Psychographics.Lifestyle == pair[0] && p.Behaviors.DecisionStyle == pair[1] {
			score += 5
			break
		}
	}
	return clampInt(score, 0, 100)
}

func personaDemographicFieldCount(d domain.Demographics) int {
	n := 0
	if d.Age > 0 {
		n++
	}
	for _, s := range []string{d.Gender, d.Location, d.Education, d.Occupation, d.IncomeRange, d.MaritalStatus} {
		if s != "" {
			n++
		}
	}
	if d.HouseholdSize > 0 {
		n++
	}
	return n
}

func personaBehaviorFieldCount(b domain.Behaviors) int {
	n := 0
	for _, s := range []string{b.DecisionStyle, b.RiskTolerance, b.BrandLoyalty, b.ShoppingBehavior, b.TechAdoption} {
		if s != "" {
			n++
		}
	}
	if len(b.MediaConsumption) > 0 {
		n++
	}
	return n
}

type componentScore struct {
	name  string
	value int
}

func sortedComponents(b domain.ConfidenceBreakdown) []componentScore {
	components := []componentScore{
		{"data source backing", b.DataSourceRelevance},
		{"question type clarity", b.QuestionTypeClarity},
		{"segment definition", b.SegmentDefinition},
		{"persona coherence", b.PersonaCoherence},
	}
	sort.SliceStable(components, func(i, j int) bool {
		return components[i].value > components[j].value
	})
	return components
}

// explainScore siempre menciona el componente más fuerte y agrega el más débil
// cuando está por debajo de 60.
func explainScore(b domain.ConfidenceBreakdown) string {
	components := sortedComponents(b)
	strongest := components[0]
	weakest := components[len(components)-1]

	explanation := fmt.Sprintf("Strongest signal: %s (%d).", strongest.name, strongest.value)
	if weakest.value < 60 {
		explanation += fmt.Sprintf(" Weakest signal: %s (%d).", weakest.name, weakest.value)
	}
	return explanation
}

func confidenceFactors(b domain.ConfidenceBreakdown, p domain.Persona) []string {
	var factors []string
	if len(p.Context.DataSourceInsights) == 0 {
		factors = append(factors, "no data sources backing this persona")
	} else {
		factors = append(factors, fmt.Sprintf("%d data source(s) informed this persona", len(p.Context.DataSourceInsights)))
	}
	if b.SegmentDefinition < 60 {
		factors = append(factors, "segment is loosely defined")
	}
	if b.QuestionTypeClarity < 70 {
		factors = append(factors, "question type is harder to simulate reliably")
	}
	if b.PersonaCoherence >= 80 {
		factors = append(factors, "persona traits are internally consistent")
	}
	return factors
}

// BatchParams del scorer.
type ScoreBatchParams struct {
	Questions   []domain.Question
	Personas    []domain.Persona
	Segments    []domain.Segment
	DataSources []domain.DataSource
	Responses   []domain.Response
}

// BatchScore evalúa todas las respuestas de una corrida. Las referencias que
// no resuelven y los placeholders quedan con puntaje 0 y error registrado,
// sin abortar el batch.
func (s *ConfidenceScorer) BatchScore(p ScoreBatchParams) domain.ConfidenceReport {
	questions := make(map[string]domain.Question, len(p.Questions))
	for _, q := range p.Questions {
		questions[q.ID] = q
	}
	personas := make(map[string]domain.Persona, len(p.Personas))
	for _, per := range p.Personas {
		personas[per.ID] = per
	}
	segments := make(map[string]domain.Segment, len(p.Segments))
	for _, seg := range p.Segments {
		segments[seg.ID] = seg
	}

	report := domain.ConfidenceReport{
		Results: make([]domain.ResponseConfidence, 0, len(p.Responses)),
	}
	report.Summary.Distribution = map[string]int{
		"0-19": 0, "20-39": 0, "40-59": 0, "60-79": 0, "80-100": 0,
	}

	var sum int
	for i, r := range p.Responses {
		rc := domain.ResponseConfidence{
			ResponseID: fmt.Sprintf("%s:%s", r.QuestionID, r.PersonaID),
			QuestionID: r.QuestionID,
			PersonaID:  r.PersonaID,
		}

		q, qok := questions[r.QuestionID]
		persona, pok := personas[r.PersonaID]
		switch {
		case !qok || !pok:
			rc.Error = ErrMissingReference.Error()
			s.log.Warn("confidence scoring skipped",
				zap.Int("response_index", i),
				zap.String("question_id", r.QuestionID),
				zap.String("persona_id", r.PersonaID),
			)
		case r.Answer.IsNone():
			rc.Error = "response is a failed-generation placeholder"
		default:
			rc.ConfidenceScore = s.Score(q, persona, segments[persona.SegmentID], p.DataSources)
			report.Summary.ScoredResponses++
			sum += rc.Score

			switch {
			case rc.Score >= highConfidenceFloor:
				report.Summary.HighConfidence++
			case rc.Score >= moderateConfidenceFloor:
				report.Summary.ModerateConfidence++
			default:
				report.Summary.LowConfidence++
			}
			report.Summary.Distribution[bucketLabel(rc.Score)]++
		}

		report.Results = append(report.Results, rc)
	}

	report.Summary.TotalResponses = len(p.Responses)
	if report.Summary.ScoredResponses > 0 {
		report.Summary.AverageConfidence = int(math.Round(float64(sum) / float64(report.Summary.ScoredResponses)))
	}
	return report
}

func bucketLabel(score int) string {
	switch {
	case score >= 80:
		return "80-100"
	case score >= 60:
		return "60-79"
	case score >= 40:
		return "40-59"
	case score >= 20:
		return "20-39"
	default:
		return "0-19"
	}
}
