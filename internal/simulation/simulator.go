package simulation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"crowd-sim/internal/domain"
)

// Tope de respondentes por corrida.
const MaxSampleSize = 10000

// Simulator orquesta el pipeline completo de una corrida: personas,
// respuestas, calibración, confianza e insights.
type Simulator struct {
	log        *zap.Logger
	personas   *PersonaGenerator
	responses  *ResponseGenerator
	calibrator *DistributionCalibrator
	scorer     *ConfidenceScorer
	aggregator *InsightsAggregator
}

// NewSimulator arma el pipeline; workers controla el paralelismo de la
// generación de respuestas.
func NewSimulator(log *zap.Logger, workers int) *Simulator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Simulator{
		log:        log,
		personas:   NewPersonaGenerator(log),
		responses:  NewResponseGenerator(log, workers),
		calibrator: NewDistributionCalibrator(log),
		scorer:     NewConfidenceScorer(log),
		aggregator: NewInsightsAggregator(log),
	}
}

// RunParams son las entradas de una corrida completa.
type RunParams struct {
	Survey      domain.Survey
	Segments    []domain.Segment
	DataSources []domain.DataSource
	SampleSize  int
	Seed        uint64
	Calibration map[string]domain.CalibrationSettings
	Expected    map[string]domain.ExpectedDistribution
}

func (p RunParams) validate() error {
	if len(p.Survey.Questions) == 0 {
		return fmt.Errorf("%w: survey has no questions", ErrInvalidInput)
	}
	if len(p.Segments) == 0 {
		return fmt.Errorf("%w: at least one segment is required", ErrInvalidInput)
	}
	if p.SampleSize <= 0 {
		return fmt.Errorf("%w: sample size must be positive, got %d", ErrInvalidInput, p.SampleSize)
	}
	if p.SampleSize > MaxSampleSize {
		return fmt.Errorf("%w: sample size %d exceeds the maximum of %d", ErrInvalidInput, p.SampleSize, MaxSampleSize)
	}
	return nil
}

// Run ejecuta la corrida de punta a punta. La misma semilla con las mismas
// entradas produce el mismo resultado; la cancelación del contexto corta
// entre etapas y entre batches de personas.
func (s *Simulator) Run(ctx context.Context, p RunParams) (domain.SimulationResult, error) {
	if err := p.validate(); err != nil {
		return domain.SimulationResult{}, err
	}
	start := time.Now()

	s.log.Info("simulation run started",
		zap.String("survey_id", p.Survey.ID),
		zap.Int("sample_size", p.SampleSize),
		zap.Int("segments", len(p.Segments)),
		zap.Uint64("seed", p.Seed),
	)

	personas, breakdown, err := s.personas.Generate(ctx, GenerateParams{
		Segments:    p.Segments,
		SampleSize:  p.SampleSize,
		DataSources: p.DataSources,
		Seed:        p.Seed,
	})
	if err != nil {
		return domain.SimulationResult{}, fmt.Errorf("generating personas: %w", err)
	}

	responses, err := s.responses.BatchGenerate(ctx, BatchParams{
		Questions:   p.Survey.Questions,
		Personas:    personas,
		Calibration: p.Calibration,
		Seed:        p.Seed,
	})
	if err != nil {
		return domain.SimulationResult{}, fmt.Errorf("generating responses: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return domain.SimulationResult{}, err
	}

	distribution := s.calibrator.Report(p.Survey.Questions, responses, p.Expected)
	confidence := s.scorer.BatchScore(ScoreBatchParams{
		Questions:   p.Survey.Questions,
		Personas:    personas,
		Segments:    p.Segments,
		DataSources: p.DataSources,
		Responses:   responses,
	})

	insights, err := s.aggregator.Aggregate(AggregateParams{
		Questions:         p.Survey.Questions,
		Personas:          personas,
		Segments:          p.Segments,
		Responses:         responses,
		AverageConfidence: float64(confidence.Summary.AverageConfidence),
	})
	if err != nil {
		return domain.SimulationResult{}, fmt.Errorf("aggregating insights: %w", err)
	}

	successful := 0
	for _, r := range responses {
		if !r.Answer.IsNone() {
			successful++
		}
	}

	result := domain.SimulationResult{
		Personas:           personas,
		Responses:          responses,
		DistributionReport: distribution,
		ConfidenceReport:   confidence,
		Insights:           insights,
		Metadata: domain.RunMetadata{
			RequestedSize:       p.SampleSize,
			TotalGenerated:      len(personas),
			TotalResponses:      len(responses),
			SuccessfulResponses: successful,
			FailedResponses:     len(responses) - successful,
			SegmentBreakdown:    breakdown,
			DataSourcesUsed:     len(p.DataSources),
			Seed:                p.Seed,
			GenerationTimeMs:    time.Since(start).Milliseconds(),
			GeneratedAt:         time.Now().UTC(),
		},
	}

	s.log.Info("simulation run finished",
		zap.String("survey_id", p.Survey.ID),
		zap.Int("personas", len(personas)),
		zap.Int("responses", len(responses)),
		zap.Int("failed_responses", result.Metadata.FailedResponses),
		zap.String("distribution_health", distribution.OverallHealth),
		zap.Int64("elapsed_ms", result.Metadata.GenerationTimeMs),
	)
	return result, nil
}
