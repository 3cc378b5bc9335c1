package simulation

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"crowd-sim/internal/domain"
)

// Defaults estadísticos del calibrador.
const (
	entropyTargetDefault          = 0.7
	entropyTolerance              = 0.25
	scaleTolerance                = 0.2
	rankingTolerance              = 0.2
	rankingPositionVarianceTarget = 0.3
	lowConfidenceSampleSize       = 10
)

// Umbrales de forma que disparan recomendaciones.
const (
	edgeClusterShare    = 0.4
	optionDominantShare = 0.6
	optionStarvedShare  = 0.05
	optionStarvedMinN   = 10
	nearUniformEntropy  = 0.95
)

// Umbrales de salud global por desviación promedio.
const (
	healthGoodThreshold = 0.2
	healthFairThreshold = 0.4
)

// DistributionCalibrator compara la forma de las respuestas generadas contra
// la distribución esperada y produce ajustes para la siguiente generación.
// Es un análisis best-effort: con menos de 10 respuestas el veredicto se marca
// como de baja confianza pero nunca falla.
type DistributionCalibrator struct {
	log *zap.Logger
}

// NewDistributionCalibrator crea el calibrador.
func NewDistributionCalibrator(log *zap.Logger) *DistributionCalibrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &DistributionCalibrator{log: log}
}

// Analyze evalúa una pregunta contra su distribución esperada (nil usa los
// defaults por tipo).
func (c *DistributionCalibrator) Analyze(q domain.Question, responses []domain.Response, expected *domain.ExpectedDistribution) domain.DistributionAnalysis {
	analysis := domain.DistributionAnalysis{
		QuestionID:   q.ID,
		QuestionType: q.Type,
	}

	valid := validAnswers(q.ID, responses)
	analysis.Actual.Count = len(valid)
	analysis.LowConfidence = len(valid) < lowConfidenceSampleSize

	if len(valid) == 0 {
		analysis.WithinTolerance = true
		return analysis
	}

	switch q.Type {
	case domain.QuestionLikert, domain.QuestionNPS:
		c.analyzeScale(&analysis, q, numericValues(valid), expected)
	case domain.QuestionMatrix:
		c.analyzeScale(&analysis, q, gridValues(valid), expected)
	case domain.QuestionMultipleChoice, domain.QuestionYesNo:
		options := q.Options
		if q.Type == domain.QuestionYesNo && len(options) != 2 {
			options = yesNoOptions
		}
		c.analyzeCategorical(&analysis, choiceValues(valid), options, expected)
	case domain.QuestionRanking:
		c.analyzeRanking(&analysis, q, valid, expected)
	default:
		// open_ended y tipos desconocidos no tienen forma que calibrar.
		analysis.WithinTolerance = true
	}
	return analysis
}

func validAnswers(questionID string, responses []domain.Response) []domain.Response {
	var out []domain.Response
	for _, r := range responses {
		if r.QuestionID == questionID && !r.Answer.IsNone() {
			out = append(out, r)
		}
	}
	return out
}

func numericValues(responses []domain.Response) []float64 {
	var out []float64
	for _, r := range responses {
		if r.Answer.Kind == domain.AnswerNumber {
			out = append(out, r.Answer.Number)
		}
	}
	return out
}

func gridValues(responses []domain.Response) []float64 {
	var out []float64
	for _, r := range responses {
		for _, v := range r.Answer.Grid {
			out = append(out, float64(v))
		}
	}
	return out
}

func choiceValues(responses []domain.Response) []string {
	var out []string
	for _, r := range responses {
		if r.Answer.Kind == domain.AnswerText {
			out = append(out, r.Answer.Text)
		}
	}
	return out
}

// analyzeScale compara media y dispersión contra la esperada. La desviación se
// normaliza por la amplitud de la escala para que la tolerancia sea comparable
// entre escalas distintas.
func (c *DistributionCalibrator) analyzeScale(a *domain.DistributionAnalysis, q domain.Question, values []float64, expected *domain.ExpectedDistribution) {
	if len(values) == 0 {
		a.WithinTolerance = true
		return
	}
	scale := q.EffectiveScale()
	mean, stdDev := meanStdDev(values)

	a.Actual.Mean = round2(mean)
	a.Actual.StdDev = round2(stdDev)
	a.Actual.Min = int(minOf(values))
	a.Actual.Max = int(maxOf(values))
	a.Actual.Histogram = histogram(values)

	expMean := scale.Midpoint()
	expStdDev := float64(scale.Range()) / 4
	tolerance := scaleTolerance
	if expected != nil {
		if expected.Mean != nil {
			expMean = *expected.Mean
		}
		if expected.StdDev != nil {
			expStdDev = *expected.StdDev
		}
		if expected.Tolerance != nil {
			tolerance = *expected.Tolerance
		}
	}
	a.Expected.Mean = round2(expMean)
	a.Expected.StdDev = round2(expStdDev)

	// La desviación promedia el corrimiento de la media y el de la dispersión,
	// ambos normalizados por la amplitud de la escala.
	meanDev := math.Abs(mean-expMean) / float64(scale.Range())
	stdDevDev := math.Abs(stdDev-expStdDev) / float64(scale.Range())
	a.Deviation = round3((meanDev + stdDevDev) / 2)
	a.WithinTolerance = a.Deviation <= tolerance

	if meanDev > tolerance {
		direction := "higher"
		if mean > expMean {
			direction = "lower"
		}
		a.Recommendations = append(a.Recommendations,
			fmt.Sprintf("mean %.2f is far from expected %.2f; shift responses %s", mean, expMean, direction))
	}
	if stdDev == 0 && len(values) > 1 {
		a.Recommendations = append(a.Recommendations,
			"every response is identical; the generation looks deterministic")
	} else if stdDev < expStdDev*0.5 {
		a.Recommendations = append(a.Recommendations,
			"responses cluster too tightly; increase variance")
	} else if stdDev > expStdDev*1.5 {
		a.Recommendations = append(a.Recommendations,
			"responses are more spread out than expected; check if segments are too broad")
	}

	edges := 0
	for _, v := range values {
		iv := int(math.Round(v))
		if iv == scale.Min || iv == scale.Max {
			edges++
		}
	}
	if float64(edges)/float64(len(values)) > edgeClusterShare {
		a.Recommendations = append(a.Recommendations,
			"responses pile up at the scale extremes; soften the extremity push or review the segments")
	}
}

// analyzeCategorical compara las frecuencias observadas contra las esperadas
// cuando están declaradas; si no, mide la entropía normalizada por la cantidad
// de opciones y la contrasta con el objetivo de diversidad.
func (c *DistributionCalibrator) analyzeCategorical(a *domain.DistributionAnalysis, choices, options []string, expected *domain.ExpectedDistribution) {
	if len(choices) == 0 {
		a.WithinTolerance = true
		return
	}
	freq := make(map[string]int, 8)
	for _, ch := range choices {
		freq[ch]++
	}
	total := float64(len(choices))
	props := make(map[string]float64, len(freq))
	raw := make(map[string]float64, len(freq))
	entropy := 0.0
	for k, n := range freq {
		p := float64(n) / total
		raw[k] = p
		props[k] = round3(p)
		entropy -= p * math.Log2(p)
	}
	optionCount := len(options)
	if optionCount < len(freq) {
		optionCount = len(freq)
	}
	normalized := 0.0
	if optionCount > 1 {
		normalized = entropy / math.Log2(float64(optionCount))
	}

	a.Actual.Frequencies = freq
	a.Actual.Proportions = props
	a.Actual.Entropy = round3(entropy)
	a.Actual.NormalizedEntropy = round3(normalized)

	target := entropyTargetDefault
	tolerance := entropyTolerance
	if expected != nil {
		if expected.EntropyTarget != nil {
			target = *expected.EntropyTarget
		}
		if expected.Tolerance != nil {
			tolerance = *expected.Tolerance
		}
	}
	a.Expected.NormalizedEntropy = target

	if expected != nil && len(expected.Frequencies) > 0 && len(options) > 0 {
		var expTotal float64
		for _, f := range expected.Frequencies {
			expTotal += f
		}
		var dev float64
		for _, opt := range options {
			expProp := 0.0
			if expTotal > 0 {
				expProp = expected.Frequencies[opt] / expTotal
			}
			dev += math.Abs(expProp - raw[opt])
		}
		a.Deviation = round3(dev / float64(len(options)))
	} else {
		a.Deviation = round3(math.Abs(normalized - target))
	}
	a.WithinTolerance = a.Deviation <= tolerance

	for _, opt := range options {
		p := raw[opt]
		if p > optionDominantShare {
			a.Recommendations = append(a.Recommendations,
				fmt.Sprintf("option %q dominates with %.0f%% of responses; increase variance or check segment diversity", opt, p*100))
		} else if p < optionStarvedShare && len(choices) > optionStarvedMinN {
			a.Recommendations = append(a.Recommendations,
				fmt.Sprintf("option %q is underrepresented (%.1f%%); check if that reflects the audience", opt, p*100))
		}
	}
	if normalized < 0.5 {
		a.Recommendations = append(a.Recommendations,
			"responses concentrate on few options; raise temperature to diversify")
	} else if normalized > nearUniformEntropy && optionCount > 2 {
		a.Recommendations = append(a.Recommendations,
			"responses are nearly uniform; persona traits barely influence the choice")
	}
}

// analyzeRanking mide cuánta variedad hay en cada posición del ranking: para
// cada posición toma los conteos por ítem y calcula su desviación estándar
// muestral normalizada por el total de rankings. El promedio se compara
// directo contra el objetivo por posición.
func (c *DistributionCalibrator) analyzeRanking(a *domain.DistributionAnalysis, q domain.Question, responses []domain.Response, expected *domain.ExpectedDistribution) {
	n := len(q.Options)
	if n == 0 {
		a.WithinTolerance = true
		return
	}

	posCounts := make(map[string][]int, n)
	for _, opt := range q.Options {
		posCounts[opt] = make([]int, n)
	}
	total := 0
	for _, r := range responses {
		if r.Answer.Kind != domain.AnswerItems {
			continue
		}
		total++
		for pos, item := range r.Answer.Items {
			if counts, ok := posCounts[item]; ok && pos < n {
				counts[pos]++
			}
		}
	}
	if total == 0 {
		a.WithinTolerance = true
		return
	}

	avgPositions := make(map[string]float64, n)
	for _, opt := range q.Options {
		sum, cnt := 0.0, 0
		for pos, count := range posCounts[opt] {
			sum += float64(pos+1) * float64(count)
			cnt += count
		}
		if cnt > 0 {
			avgPositions[opt] = round2(sum / float64(cnt))
		}
	}

	variances := make([]float64, 0, n)
	sumVar := 0.0
	for pos := 0; pos < n; pos++ {
		counts := make([]float64, 0, n)
		for _, opt := range q.Options {
			counts = append(counts, float64(posCounts[opt][pos]))
		}
		v := sampleStdDev(counts) / float64(total)
		variances = append(variances, round3(v))
		sumVar += v
	}
	avgVar := sumVar / float64(n)

	a.Actual.PositionVariances = variances
	a.Actual.AverageVariance = round3(avgVar)
	a.Actual.AveragePositions = avgPositions

	target := rankingPositionVarianceTarget
	tolerance := rankingTolerance
	if expected != nil {
		if expected.PositionVariance != nil {
			target = *expected.PositionVariance
		}
		if expected.Tolerance != nil {
			tolerance = *expected.Tolerance
		}
	}
	a.Expected.AverageVariance = round3(target)

	a.Deviation = round3(math.Abs(avgVar - target))
	a.WithinTolerance = a.Deviation <= tolerance

	if avgVar < target*0.5 {
		a.Recommendations = append(a.Recommendations,
			"rankings are too consistent across personas; diversify the segments")
	}
	for _, opt := range q.Options {
		if first := float64(posCounts[opt][0]) / float64(total); first > optionDominantShare {
			a.Recommendations = append(a.Recommendations,
				fmt.Sprintf("%q ranks first in %.0f%% of responses; check if that is realistic", opt, first*100))
		}
		if last := float64(posCounts[opt][n-1]) / float64(total); last > optionDominantShare {
			a.Recommendations = append(a.Recommendations,
				fmt.Sprintf("%q ranks last in %.0f%% of responses; check if that is realistic", opt, last*100))
		}
	}
}

// GenerateCalibrationSettings traduce un análisis en ajustes para la próxima
// generación. Un análisis dentro de tolerancia devuelve calibración neutra.
func (c *DistributionCalibrator) GenerateCalibrationSettings(a domain.DistributionAnalysis) domain.CalibrationSettings {
	settings := domain.NeutralCalibration()
	if a.WithinTolerance {
		return settings
	}

	switch a.QuestionType {
	case domain.QuestionMultipleChoice, domain.QuestionYesNo:
		if a.Actual.NormalizedEntropy < 0.5 {
			settings.Temperature = 1.5
		} else if a.Actual.NormalizedEntropy > nearUniformEntropy {
			settings.Temperature = 0.8
		}
	case domain.QuestionLikert, domain.QuestionNPS, domain.QuestionMatrix:
		target := a.Expected.Mean
		settings.TargetMean = &target
		if a.Actual.StdDev < a.Expected.StdDev*0.7 {
			settings.Temperature = 1.3
		} else if a.Actual.StdDev > a.Expected.StdDev*1.3 {
			settings.Temperature = 0.7
		}
		if a.Actual.Mean < a.Expected.Mean {
			settings.BiasFactor = 0.2
		} else if a.Actual.Mean > a.Expected.Mean {
			settings.BiasFactor = -0.2
		}
	case domain.QuestionRanking:
		if a.Actual.AverageVariance < a.Expected.AverageVariance {
			settings.Temperature = 1.3
		} else {
			settings.Temperature = 0.8
		}
	}
	return settings
}

// Report analiza todas las preguntas de una corrida y agrega el veredicto
// global de salud de la distribución.
func (c *DistributionCalibrator) Report(questions []domain.Question, responses []domain.Response, expected map[string]domain.ExpectedDistribution) domain.DistributionReport {
	report := domain.DistributionReport{
		QuestionAnalyses: make(map[string]domain.DistributionAnalysis, len(questions)),
	}

	var sumDeviation float64
	analyzed := 0
	for _, q := range questions {
		var exp *domain.ExpectedDistribution
		if e, ok := expected[q.ID]; ok {
			exp = &e
		}
		a := c.Analyze(q, responses, exp)
		report.QuestionAnalyses[q.ID] = a

		if a.Actual.Count > 0 && q.Type != domain.QuestionOpenEnded {
			analyzed++
			sumDeviation += a.Deviation
			if a.WithinTolerance {
				report.Summary.QuestionsWithinTolerance++
			}
		}
		for _, rec := range a.Recommendations {
			report.Recommendations = append(report.Recommendations, domain.QuestionRecommendation{
				QuestionID:     q.ID,
				Recommendation: rec,
			})
		}
	}

	report.Summary.QuestionsAnalyzed = analyzed
	report.Summary.TotalRecommendations = len(report.Recommendations)
	if analyzed > 0 {
		report.Summary.AverageDeviation = round3(sumDeviation / float64(analyzed))
	}

	switch {
	case report.Summary.AverageDeviation < healthGoodThreshold:
		report.OverallHealth = "good"
	case report.Summary.AverageDeviation < healthFairThreshold:
		report.OverallHealth = "fair"
	default:
		report.OverallHealth = "poor"
	}

	c.log.Debug("distribution report built",
		zap.Int("questions_analyzed", analyzed),
		zap.Float64("average_deviation", report.Summary.AverageDeviation),
		zap.String("overall_health", report.OverallHealth),
	)
	return report
}

// meanStdDev devuelve media y desviación estándar poblacional.
func meanStdDev(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}

// sampleStdDev usa el denominador n-1; con menos de dos valores devuelve 0.
func sampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)-1))
}

func histogram(values []float64) map[int]int {
	h := make(map[int]int, 11)
	for _, v := range values {
		h[int(math.Round(v))]++
	}
	return h
}

func minOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
