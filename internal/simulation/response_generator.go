package simulation

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"crowd-sim/internal/domain"
)

// Los streams de respuesta viven en un rango separado de los de personas para
// que ambas etapas puedan derivarse de la misma semilla sin colisionar.
const responseStreamOffset uint64 = 1 << 32

var yesNoOptions = []string{"Yes", "No"}

// ResponseGenerator produce respuestas sintéticas pregunta por pregunta,
// condicionadas al perfil de la persona y a la calibración vigente. Una falla
// individual nunca aborta el batch: la respuesta queda como placeholder con
// confianza 0 y el error registrado.
type ResponseGenerator struct {
	log     *zap.Logger
	workers int
}

// NewResponseGenerator crea el generador; workers <= 0 usa el default.
func NewResponseGenerator(log *zap.Logger, workers int) *ResponseGenerator {
	if log == nil {
		log = zap.NewNop()
	}
	if workers <= 0 {
		workers = 8
	}
	return &ResponseGenerator{log: log, workers: workers}
}

// BatchParams son las entradas de una generación masiva de respuestas.
type BatchParams struct {
	Questions   []domain.Question
	Personas    []domain.Persona
	Calibration map[string]domain.CalibrationSettings
	Seed        uint64
}

// BatchGenerate genera las respuestas de todas las personas a todas las
// preguntas en paralelo, una goroutine-tarea por persona con su propio stream
// de aleatoriedad. El orden de salida es persona-mayor y es estable entre
// corridas con la misma semilla.
func (g *ResponseGenerator) BatchGenerate(ctx context.Context, p BatchParams) ([]domain.Response, error) {
	if len(p.Questions) == 0 {
		return nil, fmt.Errorf("%w: at least one question is required", ErrInvalidInput)
	}
	if len(p.Personas) == 0 {
		return nil, fmt.Errorf("%w: at least one persona is required", ErrInvalidInput)
	}

	perPersona := make([][]domain.Response, len(p.Personas))
	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < g.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				rng := NewRand(p.Seed, responseStreamOffset+uint64(idx))
				perPersona[idx] = g.generateForPersona(p.Questions, p.Personas[idx], p.Calibration, rng)
			}
		}()
	}

	cancelled := false
dispatch:
	for i := range p.Personas {
		if ctx.Err() != nil {
			cancelled = true
			break
		}
		select {
		case <-ctx.Done():
			cancelled = true
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if cancelled {
		return nil, ctx.Err()
	}

	out := make([]domain.Response, 0, len(p.Personas)*len(p.Questions))
	for _, rs := range perPersona {
		out = append(out, rs...)
	}
	return out, nil
}

func (g *ResponseGenerator) generateForPersona(questions []domain.Question, persona domain.Persona, calibration map[string]domain.CalibrationSettings, rng *randSource) []domain.Response {
	out := make([]domain.Response, 0, len(questions))
	for _, q := range questions {
		cal, ok := calibration[q.ID]
		if !ok {
			cal = domain.NeutralCalibration()
		}
		resp, err := g.Generate(q, persona, cal, rng)
		if err != nil {
			g.log.Warn("response generation failed",
				zap.String("question_id", q.ID),
				zap.String("persona_id", persona.ID),
				zap.Error(err),
			)
			resp = placeholderResponse(q, persona, err)
		}
		out = append(out, resp)
	}
	return out
}

// Generate produce una respuesta individual según el tipo de pregunta.
func (g *ResponseGenerator) Generate(q domain.Question, persona domain.Persona, cal domain.CalibrationSettings, rng *randSource) (domain.Response, error) {
	resp := domain.Response{
		QuestionID: q.ID,
		PersonaID:  persona.ID,
		Timestamp:  time.Now().UTC(),
	}

	var err error
	switch q.Type {
	case domain.QuestionMultipleChoice:
		err = g.answerMultipleChoice(&resp, q, q.Options, persona, cal, rng)
	case domain.QuestionYesNo:
		options := q.Options
		if len(options) != 2 {
			options = yesNoOptions
		}
		err = g.answerMultipleChoice(&resp, q, options, persona, cal, rng)
	case domain.QuestionLikert, domain.QuestionNPS:
		g.answerScale(&resp, q, persona, cal, rng)
	case domain.QuestionOpenEnded:
		g.answerOpenEnded(&resp, q, persona, rng)
	case domain.QuestionRanking:
		err = g.answerRanking(&resp, q, persona, rng)
	case domain.QuestionMatrix:
		err = g.answerMatrix(&resp, q, persona, cal, rng)
	default:
		return domain.Response{}, fmt.Errorf("%w: %q", ErrUnsupportedQuestionType, q.Type)
	}
	if err != nil {
		return domain.Response{}, err
	}

	resp.ResponseTimeMs = simulatedResponseTime(q.Type, rng)
	return resp, nil
}

func placeholderResponse(q domain.Question, persona domain.Persona, err error) domain.Response {
	return domain.Response{
		QuestionID: q.ID,
		PersonaID:  persona.ID,
		Answer:     domain.Answer{Kind: domain.AnswerNone},
		Confidence: 0,
		Timestamp:  time.Now().UTC(),
		Error:      err.Error(),
	}
}

// answerMultipleChoice hace una selección ponderada sobre las opciones. Los
// pesos parten uniformes y se sesgan por perfil: tolerancia al riesgo baja
// favorece la primera opción y castiga la última (alta invierte), y el estilo
// analítico favorece las opciones del medio. La calibración re-templa y corre
// los pesos después del sesgo de perfil.
func (g *ResponseGenerator) answerMultipleChoice(resp *domain.Response, q domain.Question, options []string, persona domain.Persona, cal domain.CalibrationSettings, rng *randSource) error {
	if len(options) == 0 {
		return fmt.Errorf("%w: question %s has no options", ErrInvalidInput, q.ID)
	}
	weights := optionWeights(options, persona)
	weights = applyCalibrationWeights(weights, cal)

	idx := weightedIndex(rng, weights)
	choice := options[idx]
	resp.Answer = domain.TextAnswer(choice)
	resp.AnswerLabel = choice
	resp.Thinking = fmt.Sprintf("As someone with a %s decision style, %q fits best.", persona.Behaviors.DecisionStyle, choice)
	// Una elección que concentraba más peso se responde con más seguridad.
	resp.Confidence = clampInt(int(math.Round(50+weights[idx]*100+rng.Float64()*20)), 0, 100)
	return nil
}

func optionWeights(options []string, persona domain.Persona) []float64 {
	weights := make([]float64, len(options))
	for i := range weights {
		weights[i] = 1
	}
	last := len(options) - 1
	switch persona.Behaviors.RiskTolerance {
	case "low":
		weights[0] *= 1.3
		weights[last] *= 0.7
	case "high":
		weights[0] *= 0.7
		weights[last] *= 1.3
	}
	if persona.Behaviors.DecisionStyle == "analytical" && len(options) > 2 {
		weights[len(options)/2] *= 1.4
	}
	return weights
}

// applyCalibrationWeights re-templa (w^(1/T)) y aplica el sesgo posicional
// de la calibración, devolviendo pesos renormalizados.
func applyCalibrationWeights(weights []float64, cal domain.CalibrationSettings) []float64 {
	out := make([]float64, len(weights))
	copy(out, weights)

	if cal.Temperature > 0 && cal.Temperature != 1.0 {
		for i, w := range out {
			if w > 0 {
				out[i] = math.Pow(w, 1.0/cal.Temperature)
			}
		}
	}
	if cal.BiasFactor != 0 && len(out) > 1 {
		span := float64(len(out) - 1)
		for i := range out {
			// position en [-1, 1]: -1 primera opción, 1 última.
			position := 2*float64(i)/span - 1
			out[i] *= 1 + cal.BiasFactor*position
			if out[i] < 0 {
				out[i] = 0
			}
		}
	}

	var total float64
	for _, w := range out {
		total += w
	}
	if total <= 0 {
		for i := range out {
			out[i] = 1
		}
		return out
	}
	for i := range out {
		out[i] /= total
	}
	return out
}

// answerScale responde likert/nps posicionando a la persona en la escala:
// la amabilidad corre la tendencia central, el neuroticismo amplifica la
// extremosidad y la calibración empuja hacia la media objetivo.
func (g *ResponseGenerator) answerScale(resp *domain.Response, q domain.Question, persona domain.Persona, cal domain.CalibrationSettings, rng *randSource) {
	scale := q.EffectiveScale()
	value := scaleValue(scale, persona, cal, rng)

	resp.Answer = domain.NumberAnswer(float64(value))
	if idx := value - scale.Min; idx >= 0 && idx < len(scale.Labels) {
		resp.AnswerLabel = scale.Labels[idx]
	}
	resp.Thinking = fmt.Sprintf("Leaning towards %d on a %d-%d scale given how I feel about this.", value, scale.Min, scale.Max)
	resp.Confidence = scaleConfidence(scale, float64(value), persona, rng)
}

// scaleConfidence crece con la extremosidad de la respuesta; los perfiles
// analíticos reportan más seguridad.
func scaleConfidence(scale domain.Scale, value float64, persona domain.Persona, rng *randSource) int {
	extremity := 0.0
	if maxDist := float64(scale.Range()) / 2; maxDist > 0 {
		extremity = math.Abs(value-scale.Midpoint()) / maxDist * 20
	}
	conf := 60 + extremity + rng.Float64()*15
	if persona.Psychographics.Personality == "analytical" {
		conf += 10
	}
	return clampInt(int(math.Round(conf)), 0, 100)
}

func scaleValue(scale domain.Scale, persona domain.Persona, cal domain.CalibrationSettings, rng *randSource) int {
	tendency := 0.5
	if persona.Psychographics.BigFive.Agreeableness > 70 {
		tendency += 0.15
	} else if persona.Psychographics.BigFive.Agreeableness < 30 {
		tendency -= 0.1
	}
	extremity := 1.0
	if persona.Psychographics.BigFive.Neuroticism > 60 {
		extremity = 1.3
	}

	position := tendency + (rng.Float64()*0.4-0.2)*extremity
	value := float64(scale.Min) + position*float64(scale.Range())
	if cal.TargetMean != nil {
		value += 0.3 * (*cal.TargetMean - scale.Midpoint())
	}
	return clampInt(int(math.Round(value)), scale.Min, scale.Max)
}

// answerOpenEnded compone texto libre con plantillas por personalidad y
// estilo de decisión, anclado en los valores de la persona.
func (g *ResponseGenerator) answerOpenEnded(resp *domain.Response, q domain.Question, persona domain.Persona, rng *randSource) {
	opening := openingsByPersonality[persona.Psychographics.Personality]
	if opening == "" {
		opening = "I think"
	}
	opinion := opinionsByDecisionStyle[persona.Behaviors.DecisionStyle]
	if opinion == "" {
		opinion = "it really depends on the situation."
	}

	var b strings.Builder
	b.WriteString(opening)
	if q.Topic != "" {
		fmt.Fprintf(&b, " when it comes to %s,", q.Topic)
	}
	b.WriteString(" ")
	b.WriteString(opinion)
	if len(persona.Psychographics.Values) > 0 && rng.Float64() < 0.6 {
		fmt.Fprintf(&b, " For me it comes down to %s.", pick(rng, persona.Psychographics.Values))
	}
	if len(persona.Context.DataSourceInsights) > 0 {
		if insights := persona.Context.DataSourceInsights[0].Insights; len(insights) > 0 {
			fmt.Fprintf(&b, " This aligns with what I know about %s.", insights[0])
		}
	}
	text := b.String()
	if q.MaxLength > 0 {
		if runes := []rune(text); len(runes) > q.MaxLength {
			cut := q.MaxLength - 3
			if cut < 0 {
				cut = 0
			}
			text = string(runes[:cut]) + "..."
		}
	}

	resp.Answer = domain.TextAnswer(text)
	resp.Thinking = fmt.Sprintf("Answering from my %s perspective.", persona.Psychographics.Personality)
	resp.Confidence = clampInt(int(math.Round(55+rng.Float64()*30)), 0, 100)
}

// answerRanking puntúa cada opción con ruido uniforme más bonus posicionales
// y de afinidad con valores e intereses, y ordena descendente de forma
// estable.
func (g *ResponseGenerator) answerRanking(resp *domain.Response, q domain.Question, persona domain.Persona, rng *randSource) error {
	if len(q.Options) == 0 {
		return fmt.Errorf("%w: question %s has no options to rank", ErrInvalidInput, q.ID)
	}

	type scored struct {
		option string
		score  float64
	}
	items := make([]scored, len(q.Options))
	n := len(q.Options)
	for i, opt := range q.Options {
		score := rng.Float64()
		switch persona.Behaviors.RiskTolerance {
		case "low":
			score += 0.1 * float64(n-i)
		case "high":
			score += 0.05 * float64(i)
		}
		if matchesAny(opt, persona.Psychographics.Values) {
			score += 0.3
		}
		if matchesAny(opt, persona.Psychographics.Interests) {
			score += 0.2
		}
		items[i] = scored{option: opt, score: score}
	}
	sort.SliceStable(items, func(a, b int) bool { return items[a].score > items[b].score })

	ranked := make([]string, n)
	for i, it := range items {
		ranked[i] = it.option
	}
	resp.Answer = domain.ItemsAnswer(ranked)
	resp.AnswerLabel = ranked[0]
	resp.Thinking = fmt.Sprintf("%q matters most to me here.", ranked[0])
	resp.Confidence = clampInt(int(math.Round(60+rng.Float64()*25)), 0, 100)
	return nil
}

func matchesAny(option string, terms []string) bool {
	lower := strings.ToLower(option)
	for _, t := range terms {
		if t != "" && strings.Contains(lower, strings.ToLower(t)) {
			return true
		}
	}
	return false
}

// answerMatrix responde cada fila como un likert independiente sobre la misma
// escala.
func (g *ResponseGenerator) answerMatrix(resp *domain.Response, q domain.Question, persona domain.Persona, cal domain.CalibrationSettings, rng *randSource) error {
	if len(q.Rows) == 0 {
		return fmt.Errorf("%w: question %s has no rows", ErrInvalidInput, q.ID)
	}
	scale := q.EffectiveScale()
	grid := make(map[string]int, len(q.Rows))
	sum := 0
	for _, row := range q.Rows {
		v := scaleValue(scale, persona, cal, rng)
		grid[row] = v
		sum += v
	}
	resp.Answer = domain.GridAnswer(grid)
	resp.Thinking = "Rated each aspect on its own merits."
	resp.Confidence = scaleConfidence(scale, float64(sum)/float64(len(q.Rows)), persona, rng)
	return nil
}

// simulatedResponseTime devuelve un tiempo plausible por tipo, con un
// multiplicador uniforme en [0.7, 1.3].
func simulatedResponseTime(t domain.QuestionType, rng *randSource) int {
	base := responseTimeBases[t]
	if base == 0 {
		base = defaultResponseTimeBase
	}
	return int(float64(base) * (0.7 + rng.Float64()*0.6))
}
