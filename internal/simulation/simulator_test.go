package simulation

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"crowd-sim/internal/domain"
)

func testSurvey() domain.Survey {
	return domain.Survey{
		ID:   "sv-1",
		Name: "Brand perception",
		Questions: []domain.Question{
			likertQuestion("q1"),
			mcQuestion("q2", "A", "B", "C"),
			{ID: "q3", Type: domain.QuestionOpenEnded, Text: "What matters to you?", Topic: "shopping"},
		},
	}
}

func TestRunValidation(t *testing.T) {
	s := NewSimulator(zap.NewNop(), 2)
	base := RunParams{
		Survey:     testSurvey(),
		Segments:   []domain.Segment{testSegment("seg-a", 1)},
		SampleSize: 10,
		Seed:       1,
	}

	cases := []struct {
		name   string
		mutate func(*RunParams)
	}{
		{"sin preguntas", func(p *RunParams) { p.Survey.Questions = nil }},
		{"sin segmentos", func(p *RunParams) { p.Segments = nil }},
		{"tamaño cero", func(p *RunParams) { p.SampleSize = 0 }},
		{"tamaño negativo", func(p *RunParams) { p.SampleSize = -5 }},
		{"tamaño excesivo", func(p *RunParams) { p.SampleSize = MaxSampleSize + 1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := base
			tc.mutate(&p)
			_, err := s.Run(context.Background(), p)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("esperaba ErrInvalidInput, obtuve %v", err)
			}
		})
	}
}

func TestRunEndToEnd(t *testing.T) {
	s := NewSimulator(zap.NewNop(), 4)
	segments := []domain.Segment{testSegment("seg-a", 2), testSegment("seg-b", 1)}

	result, err := s.Run(context.Background(), RunParams{
		Survey:     testSurvey(),
		Segments:   segments,
		SampleSize: 30,
		Seed:       1234,
		DataSources: []domain.DataSource{
			{ID: "ds-1", Type: "report", Insights: []string{"values convenience", "price sensitive"}},
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(result.Personas) != 30 {
		t.Errorf("personas %d, esperaba 30", len(result.Personas))
	}
	if len(result.Responses) != 90 {
		t.Errorf("respuestas %d, esperaba 90", len(result.Responses))
	}

	m := result.Metadata
	if m.RequestedSize != 30 || m.TotalGenerated != 30 {
		t.Errorf("metadata de tamaños inesperada: %+v", m)
	}
	if m.SuccessfulResponses+m.FailedResponses != m.TotalResponses {
		t.Errorf("exitosas %d + fallidas %d != total %d",
			m.SuccessfulResponses, m.FailedResponses, m.TotalResponses)
	}
	if m.DataSourcesUsed != 1 || m.Seed != 1234 {
		t.Errorf("metadata inesperada: %+v", m)
	}

	total := 0
	for _, c := range m.SegmentBreakdown {
		if c.Target != c.Generated {
			t.Errorf("target %d != generated %d", c.Target, c.Generated)
		}
		total += c.Generated
	}
	if total != 30 {
		t.Errorf("desglose suma %d, esperaba 30", total)
	}

	if len(result.DistributionReport.QuestionAnalyses) != 3 {
		t.Errorf("análisis de distribución %d, esperaba 3", len(result.DistributionReport.QuestionAnalyses))
	}
	if result.ConfidenceReport.Summary.TotalResponses != 90 {
		t.Errorf("confianza sobre %d respuestas, esperaba 90", result.ConfidenceReport.Summary.TotalResponses)
	}
	if result.Insights.Summary.TotalRespondents != 30 {
		t.Errorf("insights sobre %d respondentes, esperaba 30", result.Insights.Summary.TotalRespondents)
	}
}

func TestRunReproducible(t *testing.T) {
	s := NewSimulator(zap.NewNop(), 4)
	params := RunParams{
		Survey:     testSurvey(),
		Segments:   []domain.Segment{testSegment("seg-a", 1)},
		SampleSize: 15,
		Seed:       777,
	}

	first, err := s.Run(context.Background(), params)
	if err != nil {
		t.Fatalf("primera corrida: %v", err)
	}
	second, err := s.Run(context.Background(), params)
	if err != nil {
		t.Fatalf("segunda corrida: %v", err)
	}

	for i := range first.Personas {
		if first.Personas[i].Name != second.Personas[i].Name {
			t.Errorf("persona %d difiere entre corridas con la misma semilla", i)
		}
	}
	for i := range first.Responses {
		if first.Responses[i].Answer.Text != second.Responses[i].Answer.Text ||
			first.Responses[i].Answer.Number != second.Responses[i].Answer.Number {
			t.Errorf("respuesta %d difiere entre corridas con la misma semilla", i)
		}
	}
	if first.Insights.Summary.CompletionRate != second.Insights.Summary.CompletionRate {
		t.Error("la tasa de completitud debería ser idéntica entre corridas")
	}
}

func TestRunCancelled(t *testing.T) {
	s := NewSimulator(zap.NewNop(), 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Run(ctx, RunParams{
		Survey:     testSurvey(),
		Segments:   []domain.Segment{testSegment("seg-a", 1)},
		SampleSize: 10,
		Seed:       1,
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("esperaba context.Canceled, obtuve %v", err)
	}
}
