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

// Umbrales del agregador.
const (
	minCorrelationPairs   = 10
	correlationModerate   = 0.5
	correlationStrong     = 0.7
	outlierMinSample      = 10
	outlierStdDevs        = 2.0
	consensusThresholdPct = 70
	segmentMeanDiffMin    = 0.5
	maxKeyFindings        = 10
	minRecommendedSample  = 100
	minCompletionRate     = 0.9
	minAvgConfidence      = 70
)

// InsightsAggregator convierte las respuestas crudas de una corrida en el
// reporte final del estudio: análisis por pregunta, comparaciones entre
// segmentos, correlaciones, outliers y recomendaciones accionables.
type InsightsAggregator struct {
	log *zap.Logger
}

// NewInsightsAggregator crea el agregador.
func NewInsightsAggregator(log *zap.Logger) *InsightsAggregator {
	if log == nil {
		log = zap.NewNop()
	}
	return &InsightsAggregator{log: log}
}

// AggregateParams son las entradas del reporte de insights.
type AggregateParams struct {
	Questions         []domain.Question
	Personas          []domain.Persona
	Segments          []domain.Segment
	Responses         []domain.Response
	AverageConfidence float64
}

// Aggregate arma el reporte completo del estudio.
func (a *InsightsAggregator) Aggregate(p AggregateParams) (domain.StudyInsights, error) {
	if len(p.Questions) == 0 {
		return domain.StudyInsights{}, fmt.Errorf("%w: at least one question is required", ErrInvalidInput)
	}
	if len(p.Personas) == 0 {
		return domain.StudyInsights{}, fmt.Errorf("%w: at least one persona is required", ErrInvalidInput)
	}
	successful := 0
	for _, r := range p.Responses {
		if !r.Answer.IsNone() {
			successful++
		}
	}
	if successful == 0 {
		return domain.StudyInsights{}, fmt.Errorf("%w: no successful responses to aggregate", ErrInsufficientData)
	}

	personaSegment := make(map[string]string, len(p.Personas))
	for _, per := range p.Personas {
		personaSegment[per.ID] = per.SegmentID
	}
	segmentNames := make(map[string]string, len(p.Segments))
	for _, seg := range p.Segments {
		segmentNames[seg.ID] = seg.Name
	}

	insights := domain.StudyInsights{
		Summary:          a.buildSummary(p, personaSegment, segmentNames),
		QuestionInsights: make(map[string]domain.QuestionAnalysis, len(p.Questions)),
		GeneratedAt:      time.Now().UTC(),
	}

	for _, q := range p.Questions {
		qa := a.analyzeQuestion(q, p.Responses, p.Segments, personaSegment)
		insights.QuestionInsights[q.ID] = qa
	}

	insights.SegmentComparisons = a.compareSegments(p.Questions, insights.QuestionInsights, len(p.Segments))
	insights.Patterns = a.findPatterns(p.Questions, p.Responses)
	insights.Outliers = a.findOutliers(p.Questions, p.Responses)
	insights.KeyFindings = a.keyFindings(p.Questions, insights)
	insights.Recommendations = a.recommend(insights.Summary)

	a.log.Debug("study insights aggregated",
		zap.Int("questions", len(p.Questions)),
		zap.Int("patterns", len(insights.Patterns)),
		zap.Int("key_findings", len(insights.KeyFindings)),
	)
	return insights, nil
}

func (a *InsightsAggregator) buildSummary(p AggregateParams, personaSegment, segmentNames map[string]string) domain.StudySummary {
	breakdown := make(map[string]int, len(p.Segments))
	for _, per := range p.Personas {
		name := segmentNames[per.SegmentID]
		if name == "" {
			name = per.SegmentID
		}
		breakdown[name]++
	}

	successful := 0
	for _, r := range p.Responses {
		if !r.Answer.IsNone() {
			successful++
		}
	}
	completion := 0.0
	if expected := len(p.Personas) * len(p.Questions); expected > 0 {
		completion = round3(float64(successful) / float64(expected))
	}

	return domain.StudySummary{
		TotalRespondents:  len(p.Personas),
		TotalQuestions:    len(p.Questions),
		SegmentsAnalyzed:  len(p.Segments),
		SegmentBreakdown:  breakdown,
		CompletionRate:    completion,
		AverageConfidence: round2(p.AverageConfidence),
	}
}

func (a *InsightsAggregator) analyzeQuestion(q domain.Question, responses []domain.Response, segments []domain.Segment, personaSegment map[string]string) domain.QuestionAnalysis {
	qa := domain.QuestionAnalysis{
		QuestionID:   q.ID,
		QuestionText: q.Text,
		QuestionType: q.Type,
	}
	valid := validAnswers(q.ID, responses)
	qa.N = len(valid)
	if len(valid) == 0 {
		qa.Interpretation = "No valid responses were generated for this question."
		return qa
	}

	switch q.Type {
	case domain.QuestionMultipleChoice, domain.QuestionYesNo:
		a.analyzeCategoricalQuestion(&qa, valid)
	case domain.QuestionLikert:
		a.analyzeScaleQuestion(&qa, q, numericValues(valid))
	case domain.QuestionNPS:
		a.analyzeNPSQuestion(&qa, numericValues(valid))
	case domain.QuestionMatrix:
		a.analyzeScaleQuestion(&qa, q, gridValues(valid))
	case domain.QuestionRanking:
		a.analyzeRankingQuestion(&qa, valid)
	case domain.QuestionOpenEnded:
		a.analyzeOpenEndedQuestion(&qa, valid)
	}

	qa.BySegment = a.segmentStats(q, valid, segments, personaSegment)
	return qa
}

func (a *InsightsAggregator) analyzeCategoricalQuestion(qa *domain.QuestionAnalysis, valid []domain.Response) {
	freq := make(map[string]int)
	for _, r := range valid {
		freq[r.Answer.Text]++
	}
	qa.Distribution = make(map[string]domain.OptionCount, len(freq))
	top := domain.TopAnswer{}
	for opt, n := range freq {
		pct := int(math.Round(float64(n) / float64(qa.N) * 100))
		qa.Distribution[opt] = domain.OptionCount{Count: n, Percentage: pct}
		if n > top.Count || (n == top.Count && opt < top.Option) {
			top = domain.TopAnswer{Option: opt, Count: n, Percentage: pct}
		}
	}
	qa.TopAnswer = &top

	switch {
	case top.Percentage > consensusThresholdPct:
		qa.Interpretation = fmt.Sprintf("Strong consensus: %d%% chose %q.", top.Percentage, top.Option)
	case top.Percentage >= 50:
		qa.Interpretation = fmt.Sprintf("Majority preference for %q (%d%%).", top.Option, top.Percentage)
	default:
		qa.Interpretation = fmt.Sprintf("Opinions are split; %q leads with %d%%.", top.Option, top.Percentage)
	}
}

func (a *InsightsAggregator) analyzeScaleQuestion(qa *domain.QuestionAnalysis, q domain.Question, values []float64) {
	if len(values) == 0 {
		return
	}
	mean, stdDev := meanStdDev(values)
	qa.Mean = round2(mean)
	qa.StdDev = round2(stdDev)
	qa.Median = round2(median(values))

	scale := q.EffectiveScale()
	qa.Distribution = make(map[string]domain.OptionCount)
	for v, n := range histogram(values) {
		qa.Distribution[fmt.Sprintf("%d", v)] = domain.OptionCount{
			Count:      n,
			Percentage: int(math.Round(float64(n) / float64(len(values)) * 100)),
		}
	}

	mid := scale.Midpoint()
	switch {
	case mean > mid+0.5:
		qa.Interpretation = fmt.Sprintf("Respondents lean positive (mean %.2f on a %d-%d scale).", mean, scale.Min, scale.Max)
	case mean < mid-0.5:
		qa.Interpretation = fmt.Sprintf("Respondents lean negative (mean %.2f on a %d-%d scale).", mean, scale.Min, scale.Max)
	default:
		qa.Interpretation = fmt.Sprintf("Responses are broadly neutral (mean %.2f).", mean)
	}
	if stdDev > float64(scale.Range())/3 {
		qa.Interpretation += " Opinions are notably polarized."
	}
}

// analyzeNPSQuestion clasifica promotores (9-10), pasivos (7-8) y detractores
// (0-6) y calcula el Net Promoter Score.
func (a *InsightsAggregator) analyzeNPSQuestion(qa *domain.QuestionAnalysis, values []float64) {
	if len(values) == 0 {
		return
	}
	mean, stdDev := meanStdDev(values)
	qa.Mean = round2(mean)
	qa.StdDev = round2(stdDev)
	qa.Median = round2(median(values))

	var promoters, passives, detractors int
	for _, v := range values {
		switch {
		case v >= 9:
			promoters++
		case v >= 7:
			passives++
		default:
			detractors++
		}
	}
	n := float64(len(values))
	nps := int(math.Round((float64(promoters) - float64(detractors)) / n * 100))

	result := &domain.NPSResult{
		NPS:           nps,
		Promoters:     promoters,
		Passives:      passives,
		Detractors:    detractors,
		PromotersPct:  int(math.Round(float64(promoters) / n * 100)),
		PassivesPct:   int(math.Round(float64(passives) / n * 100)),
		DetractorsPct: int(math.Round(float64(detractors) / n * 100)),
	}
	switch {
	case nps > 50:
		result.Interpretation = "Excellent: promoters far outweigh detractors."
	case nps > 0:
		result.Interpretation = "Good: more promoters than detractors."
	default:
		result.Interpretation = "Needs improvement: detractors outweigh promoters."
	}
	qa.NPS = result
	qa.Interpretation = fmt.Sprintf("NPS of %d. %s", nps, result.Interpretation)
}

func (a *InsightsAggregator) analyzeRankingQuestion(qa *domain.QuestionAnalysis, valid []domain.Response) {
	positions := make(map[string][]float64)
	for _, r := range valid {
		for pos, item := range r.Answer.Items {
			positions[item] = append(positions[item], float64(pos+1))
		}
	}
	for item, ps := range positions {
		mean, _ := meanStdDev(ps)
		qa.Rankings = append(qa.Rankings, domain.RankingStat{
			Item:          item,
			AverageRank:   round2(mean),
			ResponseCount: len(ps),
		})
	}
	sort.Slice(qa.Rankings, func(i, j int) bool {
		if qa.Rankings[i].AverageRank != qa.Rankings[j].AverageRank {
			return qa.Rankings[i].AverageRank < qa.Rankings[j].AverageRank
		}
		return qa.Rankings[i].Item < qa.Rankings[j].Item
	})
	if len(qa.Rankings) > 0 {
		qa.Interpretation = fmt.Sprintf("%q ranks first on average (%.2f).",
			qa.Rankings[0].Item, qa.Rankings[0].AverageRank)
	}
}

func (a *InsightsAggregator) analyzeOpenEndedQuestion(qa *domain.QuestionAnalysis, valid []domain.Response) {
	totalWords := 0
	for _, r := range valid {
		totalWords += len(strings.Fields(r.Answer.Text))
		if len(qa.SampleResponses) < 3 {
			qa.SampleResponses = append(qa.SampleResponses, r.Answer.Text)
		}
	}
	qa.AvgWordCount = int(math.Round(float64(totalWords) / float64(len(valid))))
	qa.Interpretation = fmt.Sprintf("Collected %d free-text responses averaging %d words.", len(valid), qa.AvgWordCount)
}

func (a *InsightsAggregator) segmentStats(q domain.Question, valid []domain.Response, segments []domain.Segment, personaSegment map[string]string) []domain.SegmentStat {
	if len(segments) < 2 {
		return nil
	}
	bySegment := make(map[string][]domain.Response)
	for _, r := range valid {
		segID := personaSegment[r.PersonaID]
		bySegment[segID] = append(bySegment[segID], r)
	}

	var stats []domain.SegmentStat
	for _, seg := range segments {
		rs := bySegment[seg.ID]
		if len(rs) == 0 {
			continue
		}
		stat := domain.SegmentStat{
			SegmentID:   seg.ID,
			SegmentName: seg.Name,
			Count:       len(rs),
		}
		if q.Type.IsNumeric() || q.Type == domain.QuestionMatrix {
			var values []float64
			if q.Type == domain.QuestionMatrix {
				values = gridValues(rs)
			} else {
				values = numericValues(rs)
			}
			mean, _ := meanStdDev(values)
			stat.Mean = round2(mean)
		} else if q.Type == domain.QuestionMultipleChoice || q.Type == domain.QuestionYesNo {
			freq := make(map[string]int)
			for _, r := range rs {
				freq[r.Answer.Text]++
			}
			for opt, n := range freq {
				best := freq[stat.TopAnswer]
				if stat.TopAnswer == "" || n > best || (n == best && opt < stat.TopAnswer) {
					stat.TopAnswer = opt
				}
			}
			stat.Percentage = int(math.Round(float64(freq[stat.TopAnswer]) / float64(len(rs)) * 100))
		}
		stats = append(stats, stat)
	}
	return stats
}

// compareSegments busca preguntas donde los segmentos divergen de forma
// notable: medias numéricas a más de 0.5 puntos o respuestas top distintas.
func (a *InsightsAggregator) compareSegments(questions []domain.Question, analyses map[string]domain.QuestionAnalysis, segmentCount int) domain.SegmentComparisons {
	if segmentCount < 2 {
		return domain.SegmentComparisons{
			Available: false,
			Message:   "Segment comparison requires at least two segments.",
		}
	}

	out := domain.SegmentComparisons{Available: true}
	for _, q := range questions {
		qa := analyses[q.ID]
		if len(qa.BySegment) < 2 {
			continue
		}
		if q.Type.IsNumeric() || q.Type == domain.QuestionMatrix {
			lo, hi := qa.BySegment[0], qa.BySegment[0]
			for _, s := range qa.BySegment[1:] {
				if s.Mean < lo.Mean {
					lo = s
				}
				if s.Mean > hi.Mean {
					hi = s
				}
			}
			diff := hi.Mean - lo.Mean
			if diff > segmentMeanDiffMin {
				out.Comparisons = append(out.Comparisons, domain.SegmentComparison{
					QuestionID:   q.ID,
					QuestionText: q.Text,
					Type:         "mean_difference",
					Difference:   round2(diff),
					Results:      qa.BySegment,
					Insight: fmt.Sprintf("%s scores %.2f points higher than %s.",
						hi.SegmentName, diff, lo.SegmentName),
				})
			}
		} else if q.Type == domain.QuestionMultipleChoice || q.Type == domain.QuestionYesNo {
			tops := make(map[string]bool)
			for _, s := range qa.BySegment {
				tops[s.TopAnswer] = true
			}
			if len(tops) > 1 {
				out.Comparisons = append(out.Comparisons, domain.SegmentComparison{
					QuestionID:   q.ID,
					QuestionText: q.Text,
					Type:         "divergent_preference",
					Results:      qa.BySegment,
					Insight:      "Segments prefer different options for this question.",
				})
			}
		}
	}
	return out
}

// findPatterns calcula correlaciones de Pearson entre pares de preguntas
// numéricas con al menos 10 respuestas apareadas por persona.
func (a *InsightsAggregator) findPatterns(questions []domain.Question, responses []domain.Response) []domain.Pattern {
	numeric := make([]domain.Question, 0, len(questions))
	for _, q := range questions {
		if q.Type.IsNumeric() {
			numeric = append(numeric, q)
		}
	}
	if len(numeric) < 2 {
		return nil
	}

	byQuestion := make(map[string]map[string]float64, len(numeric))
	for _, q := range numeric {
		byQuestion[q.ID] = make(map[string]float64)
	}
	for _, r := range responses {
		if m, ok := byQuestion[r.QuestionID]; ok && r.Answer.Kind == domain.AnswerNumber {
			m[r.PersonaID] = r.Answer.Number
		}
	}

	var patterns []domain.Pattern
	for i := 0; i < len(numeric); i++ {
		for j := i + 1; j < len(numeric); j++ {
			qa, qb := numeric[i], numeric[j]
			var xs, ys []float64
			for personaID, x := range byQuestion[qa.ID] {
				if y, ok := byQuestion[qb.ID][personaID]; ok {
					xs = append(xs, x)
					ys = append(ys, y)
				}
			}
			if len(xs) < minCorrelationPairs {
				continue
			}
			r := pearson(xs, ys)
			if math.Abs(r) <= correlationModerate {
				continue
			}

			strength, label := "moderate", "Moderate"
			if math.Abs(r) > correlationStrong {
				strength, label = "strong", "Strong"
			}
			direction := "positive"
			if r < 0 {
				direction = "negative"
			}
			patterns = append(patterns, domain.Pattern{
				Type:          "correlation",
				Strength:      strength,
				Direction:     direction,
				QuestionIDs:   []string{qa.ID, qb.ID},
				QuestionTexts: []string{qa.Text, qb.Text},
				Correlation:   round3(r),
				Description: fmt.Sprintf("%s %s correlation (r=%.2f) between %q and %q.",
					label, direction, r, qa.Text, qb.Text),
			})
		}
	}
	return patterns
}

// findOutliers reporta preguntas numéricas con respuestas a más de 2
// desviaciones estándar de la media. Requiere al menos 10 respuestas.
func (a *InsightsAggregator) findOutliers(questions []domain.Question, responses []domain.Response) []domain.Outlier {
	var outliers []domain.Outlier
	for _, q := range questions {
		if !q.Type.IsNumeric() {
			continue
		}
		values := numericValues(validAnswers(q.ID, responses))
		if len(values) < outlierMinSample {
			continue
		}
		mean, stdDev := meanStdDev(values)
		if stdDev == 0 {
			continue
		}
		count := 0
		for _, v := range values {
			if math.Abs(v-mean) > outlierStdDevs*stdDev {
				count++
			}
		}
		if count == 0 {
			continue
		}
		outliers = append(outliers, domain.Outlier{
			QuestionID:   q.ID,
			QuestionText: q.Text,
			Mean:         round2(mean),
			StdDev:       round2(stdDev),
			OutlierCount: count,
			OutlierPct:   round2(float64(count) / float64(len(values)) * 100),
		})
	}
	return outliers
}

// keyFindings destila los hallazgos más relevantes, ordenados por severidad,
// con un tope de 10.
func (a *InsightsAggregator) keyFindings(questions []domain.Question, insights domain.StudyInsights) []domain.Finding {
	var findings []domain.Finding

	for _, q := range questions {
		qa := insights.QuestionInsights[q.ID]
		if qa.TopAnswer != nil && qa.TopAnswer.Percentage > consensusThresholdPct {
			findings = append(findings, domain.Finding{
				Level:      domain.InsightLevelHigh,
				Type:       "consensus",
				QuestionID: q.ID,
				Finding:    fmt.Sprintf("%d%% of respondents chose %q for %q.", qa.TopAnswer.Percentage, qa.TopAnswer.Option, q.Text),
			})
		}
		if qa.NPS != nil && (qa.NPS.NPS > 50 || qa.NPS.NPS < 0) {
			findings = append(findings, domain.Finding{
				Level:      domain.InsightLevelHigh,
				Type:       "nps",
				QuestionID: q.ID,
				Finding:    fmt.Sprintf("NPS of %d for %q. %s", qa.NPS.NPS, q.Text, qa.NPS.Interpretation),
			})
		}
		if q.Type.IsNumeric() && qa.N > 0 {
			scale := q.EffectiveScale()
			if qa.StdDev > float64(scale.Range())/3 {
				findings = append(findings, domain.Finding{
					Level:      domain.InsightLevelMedium,
					Type:       "polarization",
					QuestionID: q.ID,
					Finding:    fmt.Sprintf("Responses to %q are polarized (std dev %.2f).", q.Text, qa.StdDev),
				})
			}
		}
		if q.Type == domain.QuestionLikert && qa.N > 0 {
			scale := q.EffectiveScale()
			if diff := qa.Mean - scale.Midpoint(); math.Abs(diff) > segmentMeanDiffMin {
				sentiment := "positive"
				if diff < 0 {
					sentiment = "negative"
				}
				findings = append(findings, domain.Finding{
					Level:      domain.InsightLevelMedium,
					Type:       "likert_sentiment",
					QuestionID: q.ID,
					Finding:    fmt.Sprintf("Sentiment on %q leans %s (mean %.2f on a %d-%d scale).", q.Text, sentiment, qa.Mean, scale.Min, scale.Max),
				})
			}
		}
	}

	for _, c := range insights.SegmentComparisons.Comparisons {
		findings = append(findings, domain.Finding{
			Level:      domain.InsightLevelMedium,
			Type:       "segment_divergence",
			QuestionID: c.QuestionID,
			Finding:    c.Insight,
		})
	}
	for _, p := range insights.Patterns {
		findings = append(findings, domain.Finding{
			Level:   domain.InsightLevelMedium,
			Type:    "pattern",
			Finding: p.Description,
		})
	}
	for _, o := range insights.Outliers {
		findings = append(findings, domain.Finding{
			Level:      domain.InsightLevelLow,
			Type:       "outliers",
			QuestionID: o.QuestionID,
			Finding:    fmt.Sprintf("%d outlier responses (%.1f%%) on %q.", o.OutlierCount, o.OutlierPct, o.QuestionText),
		})
	}

	rank := map[string]int{
		domain.InsightLevelHigh:   0,
		domain.InsightLevelMedium: 1,
		domain.InsightLevelLow:    2,
	}
	sort.SliceStable(findings, func(i, j int) bool {
		return rank[findings[i].Level] < rank[findings[j].Level]
	})
	if len(findings) > maxKeyFindings {
		findings = findings[:maxKeyFindings]
	}
	return findings
}

// recommend produce acciones sobre la calidad del estudio en sí.
func (a *InsightsAggregator) recommend(summary domain.StudySummary) []domain.Recommendation {
	var recs []domain.Recommendation
	if summary.TotalRespondents < minRecommendedSample {
		recs = append(recs, domain.Recommendation{
			Priority:       domain.InsightLevelHigh,
			Area:           "sample_size",
			Recommendation: fmt.Sprintf("Increase the sample to at least %d respondents.", minRecommendedSample),
			Rationale:      fmt.Sprintf("Only %d respondents were simulated; small samples inflate noise.", summary.TotalRespondents),
		})
	}
	if summary.CompletionRate < minCompletionRate {
		recs = append(recs, domain.Recommendation{
			Priority:       domain.InsightLevelMedium,
			Area:           "completion",
			Recommendation: "Investigate failed response generations.",
			Rationale:      fmt.Sprintf("Completion rate is %.0f%%, below the %.0f%% threshold.", summary.CompletionRate*100, minCompletionRate*100),
		})
	}
	if summary.AverageConfidence < minAvgConfidence {
		recs = append(recs, domain.Recommendation{
			Priority:       domain.InsightLevelHigh,
			Area:           "confidence",
			Recommendation: "Attach more data sources or tighten segment definitions.",
			Rationale:      fmt.Sprintf("Average response confidence is %.0f, below %d.", summary.AverageConfidence, minAvgConfidence),
		})
	}
	return recs
}

// pearson calcula el coeficiente de correlación de Pearson.
func pearson(xs, ys []float64) float64 {
	n := float64(len(xs))
	if n == 0 {
		return 0
	}
	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX, meanY := sumX/n, sumY/n

	var cov, varX, varY float64
	for i := range xs {
		dx, dy := xs[i]-meanX, ys[i]-meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0
	}
	return cov / math.Sqrt(varX*varY)
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
