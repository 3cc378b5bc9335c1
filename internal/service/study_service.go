package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"crowd-sim/internal/domain"
	"crowd-sim/internal/email"
	"crowd-sim/internal/repository"
	"crowd-sim/internal/simulation"
)

var (
	ErrRateLimited      = errors.New("rate limited")
	ErrSurveyNotFound   = errors.New("survey not found")
	ErrSegmentsNotFound = errors.New("one or more segments not found")
	ErrRunNotFound      = errors.New("run not found")
	ErrForbidden        = errors.New("resource belongs to another user")
)

// StudyService coordina el ciclo de vida de las corridas de simulación:
// lanzamiento, ejecución asíncrona, consulta de estado y resultados.
type StudyService struct {
	logger        *zap.Logger
	surveys       repository.SurveyRepository
	segments      repository.SegmentRepository
	sources       repository.DataSourceRepository
	runs          repository.RunRepository
	users         repository.UserRepository
	simulator     *simulation.Simulator
	statusStore   RunStatusStore
	launchLimiter LaunchRateLimiter
	emailSender   email.Sender

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

func NewStudyService(
	logger *zap.Logger,
	surveys repository.SurveyRepository,
	segments repository.SegmentRepository,
	sources repository.DataSourceRepository,
	runs repository.RunRepository,
	users repository.UserRepository,
	simulator *simulation.Simulator,
	statusStore RunStatusStore,
	launchLimiter LaunchRateLimiter,
	emailSender email.Sender,
) *StudyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if statusStore == nil {
		statusStore = NewMemoryRunStatusStore()
	}
	return &StudyService{
		logger:        logger,
		surveys:       surveys,
		segments:      segments,
		sources:       sources,
		runs:          runs,
		users:         users,
		simulator:     simulator,
		statusStore:   statusStore,
		launchLimiter: launchLimiter,
		emailSender:   emailSender,
		cancels:       make(map[string]context.CancelFunc),
	}
}

type LaunchInput struct {
	UserID     string
	SurveyID   string
	SegmentIDs []string
	SampleSize int
	Seed       uint64
}

// Launch valida las entradas, registra la corrida y la ejecuta en segundo
// plano. Seed en 0 sortea una semilla nueva; la semilla usada queda en el
// registro para poder reproducir la corrida.
func (s *StudyService) Launch(ctx context.Context, input LaunchInput) (domain.SimulationRun, error) {
	if s.launchLimiter != nil && !s.launchLimiter.Allow(input.UserID) {
		return domain.SimulationRun{}, ErrRateLimited
	}

	survey, err := s.surveys.GetByID(ctx, input.SurveyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.SimulationRun{}, ErrSurveyNotFound
		}
		return domain.SimulationRun{}, err
	}
	if survey.UserID != input.UserID {
		return domain.SimulationRun{}, ErrForbidden
	}

	segments, err := s.segments.GetByIDs(ctx, input.SegmentIDs)
	if err != nil {
		return domain.SimulationRun{}, err
	}
	if len(segments) != len(input.SegmentIDs) || len(segments) == 0 {
		return domain.SimulationRun{}, ErrSegmentsNotFound
	}
	for _, seg := range segments {
		if seg.UserID != input.UserID {
			return domain.SimulationRun{}, ErrForbidden
		}
	}

	if input.SampleSize <= 0 || input.SampleSize > simulation.MaxSampleSize {
		return domain.SimulationRun{}, fmt.Errorf("%w: sample size %d out of range", simulation.ErrInvalidInput, input.SampleSize)
	}

	seed := input.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	run := domain.SimulationRun{
		ID:            uuid.NewString(),
		UserID:        input.UserID,
		SurveyID:      input.SurveyID,
		SegmentIDs:    input.SegmentIDs,
		RequestedSize: input.SampleSize,
		Seed:          seed,
		Status:        domain.RunPending,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.runs.Create(ctx, run); err != nil {
		return domain.SimulationRun{}, err
	}
	s.setStatus(run.ID, domain.RunPending)

	go func() {
		if err := s.ExecuteRun(context.WithoutCancel(ctx), run.ID); err != nil {
			s.logger.Error("simulation run failed",
				zap.String("run_id", run.ID),
				zap.Error(err),
			)
		}
	}()
	return run, nil
}

// ExecuteRun carga la corrida y sus insumos, ejecuta el pipeline y persiste
// estado y resultado. El correo de aviso es best-effort.
func (s *StudyService) ExecuteRun(ctx context.Context, runID string) error {
	run, err := s.runs.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrRunNotFound
		}
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.registerCancel(run.ID, cancel)
	defer s.unregisterCancel(run.ID)

	survey, err := s.surveys.GetByID(runCtx, run.SurveyID)
	if err != nil {
		return s.failRun(ctx, run.ID, fmt.Errorf("loading survey: %w", err))
	}
	segments, err := s.segments.GetByIDs(runCtx, run.SegmentIDs)
	if err != nil {
		return s.failRun(ctx, run.ID, fmt.Errorf("loading segments: %w", err))
	}
	sources, err := s.sources.ListByUser(runCtx, run.UserID)
	if err != nil {
		return s.failRun(ctx, run.ID, fmt.Errorf("loading data sources: %w", err))
	}

	if err := s.runs.UpdateStatus(ctx, run.ID, domain.RunRunning, "", nil); err != nil {
		return err
	}
	s.setStatus(run.ID, domain.RunRunning)

	result, err := s.simulator.Run(runCtx, simulation.RunParams{
		Survey:      survey,
		Segments:    segments,
		DataSources: sources,
		SampleSize:  run.RequestedSize,
		Seed:        run.Seed,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			now := time.Now().UTC()
			if uerr := s.runs.UpdateStatus(ctx, run.ID, domain.RunCancelled, "", &now); uerr != nil {
				return uerr
			}
			s.setStatus(run.ID, domain.RunCancelled)
			return err
		}
		return s.failRun(ctx, run.ID, err)
	}

	if err := s.runs.SaveResult(ctx, run.ID, result); err != nil {
		return s.failRun(ctx, run.ID, fmt.Errorf("saving result: %w", err))
	}
	now := time.Now().UTC()
	if err := s.runs.UpdateStatus(ctx, run.ID, domain.RunCompleted, "", &now); err != nil {
		return err
	}
	s.setStatus(run.ID, domain.RunCompleted)

	s.notifyCompleted(ctx, run, survey)
	return nil
}

// CancelRun corta la ejecución en curso de una corrida del usuario.
func (s *StudyService) CancelRun(ctx context.Context, userID, runID string) error {
	run, err := s.GetRun(ctx, userID, runID)
	if err != nil {
		return err
	}
	if run.Status != domain.RunPending && run.Status != domain.RunRunning {
		return fmt.Errorf("run %s is already %s", runID, run.Status)
	}

	s.mu.Lock()
	cancel, ok := s.cancels[runID]
	s.mu.Unlock()
	if ok {
		cancel()
		return nil
	}

	// La corrida no está ejecutándose en este proceso; se marca directamente.
	now := time.Now().UTC()
	if err := s.runs.UpdateStatus(ctx, runID, domain.RunCancelled, "", &now); err != nil {
		return err
	}
	s.setStatus(runID, domain.RunCancelled)
	return nil
}

// GetRun devuelve la corrida validando pertenencia; el estado vivo del cache
// pisa al persistido si es más nuevo.
func (s *StudyService) GetRun(ctx context.Context, userID, runID string) (domain.SimulationRun, error) {
	run, err := s.runs.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.SimulationRun{}, ErrRunNotFound
		}
		return domain.SimulationRun{}, err
	}
	if run.UserID != userID {
		return domain.SimulationRun{}, ErrForbidden
	}
	if status, ok, err := s.statusStore.Get(runID); err == nil && ok {
		run.Status = status
	}
	return run, nil
}

func (s *StudyService) ListRuns(ctx context.Context, userID string) ([]domain.SimulationRun, error) {
	return s.runs.ListByUser(ctx, userID)
}

// GetResult devuelve el resultado completo de una corrida terminada.
func (s *StudyService) GetResult(ctx context.Context, userID, runID string) (domain.SimulationResult, error) {
	if _, err := s.GetRun(ctx, userID, runID); err != nil {
		return domain.SimulationResult{}, err
	}
	result, err := s.runs.GetResult(ctx, runID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.SimulationResult{}, ErrRunNotFound
		}
		return domain.SimulationResult{}, err
	}
	return result, nil
}

func (s *StudyService) failRun(ctx context.Context, runID string, cause error) error {
	now := time.Now().UTC()
	if err := s.runs.UpdateStatus(ctx, runID, domain.RunFailed, cause.Error(), &now); err != nil {
		s.logger.Error("marking run as failed",
			zap.String("run_id", runID),
			zap.Error(err),
		)
	}
	s.setStatus(runID, domain.RunFailed)
	return cause
}

func (s *StudyService) notifyCompleted(ctx context.Context, run domain.SimulationRun, survey domain.Survey) {
	if s.emailSender == nil || s.users == nil {
		return
	}
	user, err := s.users.GetByID(ctx, run.UserID)
	if err != nil {
		s.logger.Warn("loading user for completion email", zap.Error(err))
		return
	}
	if err := s.emailSender.SendRunCompleted(ctx, user.Email, survey.Name, run.ID); err != nil {
		s.logger.Warn("run completion email failed",
			zap.String("run_id", run.ID),
			zap.Error(err),
		)
	}
}

func (s *StudyService) setStatus(runID string, status domain.RunStatus) {
	if err := s.statusStore.Set(runID, status); err != nil {
		s.logger.Warn("updating run status cache",
			zap.String("run_id", runID),
			zap.Error(err),
		)
	}
}

func (s *StudyService) registerCancel(runID string, cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancels[runID] = cancel
}

func (s *StudyService) unregisterCancel(runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cancels, runID)
}
