package simulation

import (
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"crowd-sim/internal/domain"
)

func TestScoreComponents(t *testing.T) {
	s := NewConfidenceScorer(zap.NewNop())

	persona := testPersona("p1")
	persona.Context.DataSourceInsights = []domain.DataSourceInsight{
		{SourceID: "ds-1", Relevance: 0.9},
		{SourceID: "ds-2", Relevance: 0.7},
	}
	sources := []domain.DataSource{{
		ID:        "ds-1",
		Type:      "survey_data",
		Verified:  true,
		CreatedAt: time.Now().Add(-24 * time.Hour),
	}}

	score := s.Score(likertQuestion("q1"), persona, testSegment("seg-a", 1), sources)

	// 50 base, +20 relevante, +10 fresca, +15 verificada, +5 insights.
	if score.Breakdown.DataSourceRelevance != 100 {
		t.Errorf("fuente relevante, fresca y verificada debería dar 100, obtuve %d", score.Breakdown.DataSourceRelevance)
	}
	if score.Breakdown.QuestionTypeClarity != 85 {
		t.Errorf("likert con escala default debería dar claridad 85, obtuve %d", score.Breakdown.QuestionTypeClarity)
	}
	// 50 base, +5 peso, +5 nombre, -15 por amplio.
	if score.Breakdown.SegmentDefinition != 45 {
		t.Errorf("segmento sin criterios debería dar 45, obtuve %d", score.Breakdown.SegmentDefinition)
	}
	if score.Score < 0 || score.Score > 100 {
		t.Errorf("puntaje total %d fuera de [0,100]", score.Score)
	}
	if score.Explanation == "" {
		t.Error("el puntaje debería llevar explicación")
	}
}

func TestScoreDataSourcePenalties(t *testing.T) {
	s := NewConfidenceScorer(zap.NewNop())

	sources := []domain.DataSource{{
		ID:        "ds-1",
		Type:      "report",
		Conflicts: []string{"contradicts ds-2"},
		CreatedAt: time.Now().Add(-120 * 24 * time.Hour),
	}}

	score := s.Score(likertQuestion("q1"), testPersona("p1"), testSegment("seg-a", 1), sources)

	// 50 base, +20 relevante, -10 conflictos; ni fresca ni verificada.
	if score.Breakdown.DataSourceRelevance != 60 {
		t.Errorf("fuente vieja y conflictiva debería dar 60, obtuve %d", score.Breakdown.DataSourceRelevance)
	}
}

func TestScoreWithoutDataSources(t *testing.T) {
	s := NewConfidenceScorer(zap.NewNop())

	score := s.Score(likertQuestion("q1"), testPersona("p1"), testSegment("seg-a", 1), nil)
	if score.Breakdown.DataSourceRelevance != noDataSourceScore {
		t.Errorf("sin fuentes debería dar %d, obtuve %d", noDataSourceScore, score.Breakdown.DataSourceRelevance)
	}

	found := false
	for _, f := range score.Factors {
		if strings.Contains(f, "no data sources") {
			found = true
		}
	}
	if !found {
		t.Error("los factores deberían mencionar la falta de fuentes de datos")
	}
}

func TestScoreSegmentDefinitionScales(t *testing.T) {
	s := NewConfidenceScorer(zap.NewNop())

	full := testSegment("seg-a", 1)
	full.Demographics = domain.SegmentDemographics{
		AgeRange:        [2]int{25, 45},
		Genders:         []domain.WeightedOption{{Value: "female", Weight: 1}},
		LocationTypes:   []domain.WeightedOption{{Value: "urban", Weight: 1}},
		EducationLevels: []domain.WeightedOption{{Value: "Bachelor's", Weight: 1}},
		IncomeRanges:    []domain.WeightedOption{{Value: "$50k-$75k", Weight: 1}},
	}
	full.Psychographics = domain.SegmentPsychographics{
		CoreValues:       []string{"health"},
		Interests:        []string{"fitness"},
		PersonalityHints: []string{"organized"},
	}
	full.Behaviors = domain.SegmentBehaviors{
		DecisionStyles: []string{"analytical"},
		RiskTolerances: []string{"low"},
		TechAdoptions:  []string{"early_adopter"},
	}

	fullScore := s.Score(likertQuestion("q1"), testPersona("p1"), full, nil)
	emptyScore := s.Score(likertQuestion("q1"), testPersona("p1"), testSegment("seg-b", 1), nil)

	if fullScore.Breakdown.SegmentDefinition != 100 {
		t.Errorf("segmento completo debería dar 100, obtuve %d", fullScore.Breakdown.SegmentDefinition)
	}
	// Penalizado por amplio: solo peso y nombre suman sobre la base.
	if emptyScore.Breakdown.SegmentDefinition != 45 {
		t.Errorf("segmento vacío debería dar 45, obtuve %d", emptyScore.Breakdown.SegmentDefinition)
	}
}

func TestScoreCoherenceRewardsConsistency(t *testing.T) {
	s := NewConfidenceScorer(zap.NewNop())

	coherent := testPersona("p1")
	coherent.Psychographics.Lifestyle = "health-conscious"
	coherent.Behaviors.DecisionStyle = "deliberate"
	coherent.Behaviors.RiskTolerance = "high"
	coherent.Psychographics.BigFive.Openness = 80

	incoherent := testPersona("p2")
	incoherent.Psychographics.Lifestyle = "luxury-seeking"
	incoherent.Behaviors.DecisionStyle = "impulsive"
	incoherent.Behaviors.RiskTolerance = "high"
	incoherent.Psychographics.BigFive.Openness = 20

	seg := testSegment("seg-a", 1)
	a := s.Score(likertQuestion("q1"), coherent, seg, nil)
	b := s.Score(likertQuestion("q1"), incoherent, seg, nil)
	if a.Breakdown.PersonaCoherence <= b.Breakdown.PersonaCoherence {
		t.Errorf("la persona coherente debería puntuar más: %d vs %d",
			a.Breakdown.PersonaCoherence, b.Breakdown.PersonaCoherence)
	}
}

func TestScoreCoherenceInvalidPersona(t *testing.T) {
	s := NewConfidenceScorer(zap.NewNop())

	invalid := testPersona("")
	score := s.Score(likertQuestion("q1"), invalid, testSegment("seg-a", 1), nil)
	if score.Breakdown.PersonaCoherence != 0 {
		t.Errorf("una persona sin ID debería dar coherencia 0, obtuve %d", score.Breakdown.PersonaCoherence)
	}

	valid := s.Score(likertQuestion("q1"), testPersona("p1"), testSegment("seg-a", 1), nil)
	// 60 base, +5 valores, +10 Big Five.
	if valid.Breakdown.PersonaCoherence <= 60 {
		t.Errorf("una persona completa debería sumar sobre la base 60, obtuve %d", valid.Breakdown.PersonaCoherence)
	}
}

func TestExplanationMentionsWeakSignal(t *testing.T) {
	explanation := explainScore(domain.ConfidenceBreakdown{
		DataSourceRelevance: 40,
		QuestionTypeClarity: 85,
		SegmentDefinition:   70,
		PersonaCoherence:    75,
	})
	if !strings.Contains(explanation, "Strongest signal: question type clarity") {
		t.Errorf("debería nombrar la señal más fuerte: %q", explanation)
	}
	if !strings.Contains(explanation, "Weakest signal: data source backing") {
		t.Errorf("debería nombrar la señal débil bajo 60: %q", explanation)
	}

	strong := explainScore(domain.ConfidenceBreakdown{
		DataSourceRelevance: 90,
		QuestionTypeClarity: 85,
		SegmentDefinition:   80,
		PersonaCoherence:    75,
	})
	if strings.Contains(strong, "Weakest") {
		t.Errorf("sin señales bajo 60 no debería mencionar la débil: %q", strong)
	}
}

func TestBatchScoreSummaryAndErrors(t *testing.T) {
	s := NewConfidenceScorer(zap.NewNop())
	persona := testPersona("p1")
	seg := testSegment("seg-a", 1)
	q := likertQuestion("q1")

	responses := []domain.Response{
		{QuestionID: "q1", PersonaID: "p1", Answer: domain.NumberAnswer(4)},
		{QuestionID: "q1", PersonaID: "ghost", Answer: domain.NumberAnswer(3)},
		{QuestionID: "q1", PersonaID: "p1", Answer: domain.Answer{Kind: domain.AnswerNone}, Error: "boom"},
	}

	report := s.BatchScore(ScoreBatchParams{
		Questions: []domain.Question{q},
		Personas:  []domain.Persona{persona},
		Segments:  []domain.Segment{seg},
		Responses: responses,
	})

	if report.Summary.TotalResponses != 3 {
		t.Errorf("total %d, esperaba 3", report.Summary.TotalResponses)
	}
	if report.Summary.ScoredResponses != 1 {
		t.Errorf("puntuadas %d, esperaba 1", report.Summary.ScoredResponses)
	}
	if len(report.Results) != 3 {
		t.Fatalf("resultados %d, esperaba 3", len(report.Results))
	}

	missing := report.Results[1]
	if missing.Error == "" || missing.Score != 0 {
		t.Errorf("referencia faltante debería dar error y puntaje 0: %+v", missing)
	}
	placeholder := report.Results[2]
	if placeholder.Error == "" || placeholder.Score != 0 {
		t.Errorf("placeholder debería dar error y puntaje 0: %+v", placeholder)
	}

	scored := report.Results[0]
	if scored.Error != "" || scored.Score == 0 {
		t.Errorf("respuesta válida debería puntuar sin error: %+v", scored)
	}
	if report.Summary.AverageConfidence != scored.Score {
		t.Errorf("promedio %d debería igualar el único puntaje %d",
			report.Summary.AverageConfidence, scored.Score)
	}

	total := 0
	for _, n := range report.Summary.Distribution {
		total += n
	}
	if total != 1 {
		t.Errorf("la distribución debería contar solo respuestas puntuadas, suma %d", total)
	}
}
