package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"crowd-sim/internal/domain"
	"crowd-sim/internal/simulation"
)

type mockSurveyRepo struct {
	surveys map[string]domain.Survey
}

func (m *mockSurveyRepo) Create(_ context.Context, survey domain.Survey) error {
	m.surveys[survey.ID] = survey
	return nil
}

func (m *mockSurveyRepo) GetByID(_ context.Context, id string) (domain.Survey, error) {
	survey, ok := m.surveys[id]
	if !ok {
		return domain.Survey{}, pgx.ErrNoRows
	}
	return survey, nil
}

func (m *mockSurveyRepo) ListByUser(_ context.Context, userID string) ([]domain.Survey, error) {
	var out []domain.Survey
	for _, s := range m.surveys {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

type mockSegmentRepo struct {
	segments map[string]domain.Segment
}

func (m *mockSegmentRepo) Create(_ context.Context, segment domain.Segment) error {
	m.segments[segment.ID] = segment
	return nil
}

func (m *mockSegmentRepo) GetByID(_ context.Context, id string) (domain.Segment, error) {
	seg, ok := m.segments[id]
	if !ok {
		return domain.Segment{}, pgx.ErrNoRows
	}
	return seg, nil
}

func (m *mockSegmentRepo) GetByIDs(_ context.Context, ids []string) ([]domain.Segment, error) {
	var out []domain.Segment
	for _, id := range ids {
		if seg, ok := m.segments[id]; ok {
			out = append(out, seg)
		}
	}
	return out, nil
}

func (m *mockSegmentRepo) ListByUser(_ context.Context, userID string) ([]domain.Segment, error) {
	var out []domain.Segment
	for _, seg := range m.segments {
		if seg.UserID == userID {
			out = append(out, seg)
		}
	}
	return out, nil
}

type mockSourceRepo struct {
	sources []domain.DataSource
}

func (m *mockSourceRepo) Create(_ context.Context, source domain.DataSource) error {
	m.sources = append(m.sources, source)
	return nil
}

func (m *mockSourceRepo) GetByID(_ context.Context, id string) (domain.DataSource, error) {
	for _, s := range m.sources {
		if s.ID == id {
			return s, nil
		}
	}
	return domain.DataSource{}, pgx.ErrNoRows
}

func (m *mockSourceRepo) ListByUser(_ context.Context, userID string) ([]domain.DataSource, error) {
	var out []domain.DataSource
	for _, s := range m.sources {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockSourceRepo) CreateEmbedding(_ context.Context, _ domain.InsightEmbedding) error {
	return nil
}

func (m *mockSourceRepo) SearchInsights(_ context.Context, _ string, _ pgvector.Vector, _ int) ([]domain.InsightEmbedding, error) {
	return nil, nil
}

type mockRunRepo struct {
	mu      sync.Mutex
	runs    map[string]domain.SimulationRun
	results map[string]domain.SimulationResult
}

func newMockRunRepo() *mockRunRepo {
	return &mockRunRepo{
		runs:    make(map[string]domain.SimulationRun),
		results: make(map[string]domain.SimulationResult),
	}
}

func (m *mockRunRepo) Create(_ context.Context, run domain.SimulationRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = run
	return nil
}

func (m *mockRunRepo) GetByID(_ context.Context, id string) (domain.SimulationRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return domain.SimulationRun{}, pgx.ErrNoRows
	}
	return run, nil
}

func (m *mockRunRepo) ListByUser(_ context.Context, userID string) ([]domain.SimulationRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.SimulationRun
	for _, run := range m.runs {
		if run.UserID == userID {
			out = append(out, run)
		}
	}
	return out, nil
}

func (m *mockRunRepo) UpdateStatus(_ context.Context, id string, status domain.RunStatus, errMsg string, completedAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return pgx.ErrNoRows
	}
	run.Status = status
	run.Error = errMsg
	run.CompletedAt = completedAt
	m.runs[id] = run
	return nil
}

func (m *mockRunRepo) SaveResult(_ context.Context, runID string, result domain.SimulationResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[runID] = result
	return nil
}

func (m *mockRunRepo) GetResult(_ context.Context, runID string) (domain.SimulationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result, ok := m.results[runID]
	if !ok {
		return domain.SimulationResult{}, pgx.ErrNoRows
	}
	return result, nil
}

type mockUserRepo struct {
	users map[string]domain.User
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	user, ok := m.users[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, pgx.ErrNoRows
}

type recordingEmailSender struct {
	mu   sync.Mutex
	sent []string
	done chan struct{}
}

func newRecordingEmailSender() *recordingEmailSender {
	return &recordingEmailSender{done: make(chan struct{}, 4)}
}

func (s *recordingEmailSender) SendRunCompleted(_ context.Context, toEmail, _, _ string) error {
	s.mu.Lock()
	s.sent = append(s.sent, toEmail)
	s.mu.Unlock()
	s.done <- struct{}{}
	return nil
}

func (s *recordingEmailSender) recipients() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...)
}

type denyAllLimiter struct{}

func (denyAllLimiter) Allow(string) bool { return false }

type studyFixture struct {
	svc     *StudyService
	runs    *mockRunRepo
	emails  *recordingEmailSender
	user    domain.User
	survey  domain.Survey
	segment domain.Segment
}

func newStudyFixture(t *testing.T, limiter LaunchRateLimiter) *studyFixture {
	t.Helper()

	user := domain.User{ID: "user-1", Email: "ana@example.com", DisplayName: "Ana"}
	survey := domain.Survey{
		ID:     "survey-1",
		UserID: user.ID,
		Name:   "Snack habits",
		Questions: []domain.Question{
			{ID: "q1", Type: domain.QuestionLikert, Text: "I enjoy trying new snacks"},
			{ID: "q2", Type: domain.QuestionMultipleChoice, Text: "Preferred flavor", Options: []string{"Sweet", "Salty", "Spicy"}},
		},
	}
	segment := domain.Segment{ID: "seg-1", UserID: user.ID, Name: "Urban adults", Weight: 1}

	runs := newMockRunRepo()
	emails := newRecordingEmailSender()
	svc := NewStudyService(
		zap.NewNop(),
		&mockSurveyRepo{surveys: map[string]domain.Survey{survey.ID: survey}},
		&mockSegmentRepo{segments: map[string]domain.Segment{segment.ID: segment}},
		&mockSourceRepo{},
		runs,
		&mockUserRepo{users: map[string]domain.User{user.ID: user}},
		simulation.NewSimulator(zap.NewNop(), 2),
		NewMemoryRunStatusStore(),
		limiter,
		emails,
	)
	return &studyFixture{
		svc:     svc,
		runs:    runs,
		emails:  emails,
		user:    user,
		survey:  survey,
		segment: segment,
	}
}

func TestLaunchRejectsWhenRateLimited(t *testing.T) {
	fx := newStudyFixture(t, denyAllLimiter{})

	_, err := fx.svc.Launch(context.Background(), LaunchInput{
		UserID:     fx.user.ID,
		SurveyID:   fx.survey.ID,
		SegmentIDs: []string{fx.segment.ID},
		SampleSize: 10,
	})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("esperaba ErrRateLimited, obtuve %v", err)
	}
}

func TestLaunchValidatesInputs(t *testing.T) {
	fx := newStudyFixture(t, nil)
	ctx := context.Background()

	cases := []struct {
		name    string
		input   LaunchInput
		wantErr error
	}{
		{
			name:    "encuesta inexistente",
			input:   LaunchInput{UserID: fx.user.ID, SurveyID: "ghost", SegmentIDs: []string{fx.segment.ID}, SampleSize: 10},
			wantErr: ErrSurveyNotFound,
		},
		{
			name:    "encuesta de otro usuario",
			input:   LaunchInput{UserID: "intruder", SurveyID: fx.survey.ID, SegmentIDs: []string{fx.segment.ID}, SampleSize: 10},
			wantErr: ErrForbidden,
		},
		{
			name:    "segmento inexistente",
			input:   LaunchInput{UserID: fx.user.ID, SurveyID: fx.survey.ID, SegmentIDs: []string{"ghost"}, SampleSize: 10},
			wantErr: ErrSegmentsNotFound,
		},
		{
			name:    "sin segmentos",
			input:   LaunchInput{UserID: fx.user.ID, SurveyID: fx.survey.ID, SampleSize: 10},
			wantErr: ErrSegmentsNotFound,
		},
		{
			name:    "sample size invalido",
			input:   LaunchInput{UserID: fx.user.ID, SurveyID: fx.survey.ID, SegmentIDs: []string{fx.segment.ID}, SampleSize: 0},
			wantErr: simulation.ErrInvalidInput,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := fx.svc.Launch(ctx, tc.input)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("esperaba %v, obtuve %v", tc.wantErr, err)
			}
		})
	}
}

func TestLaunchCompletesRunAndNotifies(t *testing.T) {
	fx := newStudyFixture(t, nil)

	run, err := fx.svc.Launch(context.Background(), LaunchInput{
		UserID:     fx.user.ID,
		SurveyID:   fx.survey.ID,
		SegmentIDs: []string{fx.segment.ID},
		SampleSize: 12,
		Seed:       42,
	})
	if err != nil {
		t.Fatalf("Launch fallo: %v", err)
	}
	if run.Status != domain.RunPending {
		t.Fatalf("estado inicial %q, esperaba pending", run.Status)
	}
	if run.Seed != 42 {
		t.Fatalf("seed %d, esperaba 42", run.Seed)
	}

	select {
	case <-fx.emails.done:
	case <-time.After(10 * time.Second):
		t.Fatal("la corrida no termino a tiempo")
	}

	stored, err := fx.svc.GetRun(context.Background(), fx.user.ID, run.ID)
	if err != nil {
		t.Fatalf("GetRun fallo: %v", err)
	}
	if stored.Status != domain.RunCompleted {
		t.Fatalf("estado final %q, esperaba completed", stored.Status)
	}

	result, err := fx.svc.GetResult(context.Background(), fx.user.ID, run.ID)
	if err != nil {
		t.Fatalf("GetResult fallo: %v", err)
	}
	if len(result.Personas) != 12 {
		t.Fatalf("personas generadas %d, esperaba 12", len(result.Personas))
	}
	if result.Metadata.Seed != 42 {
		t.Fatalf("seed en metadata %d, esperaba 42", result.Metadata.Seed)
	}

	recipients := fx.emails.recipients()
	if len(recipients) != 1 || recipients[0] != fx.user.Email {
		t.Fatalf("correos enviados %v, esperaba uno a %s", recipients, fx.user.Email)
	}
}

func TestExecuteRunMarksFailureOnBadInputs(t *testing.T) {
	fx := newStudyFixture(t, nil)

	// Corrida registrada con una encuesta que ya no existe.
	run := domain.SimulationRun{
		ID:            "run-broken",
		UserID:        fx.user.ID,
		SurveyID:      "deleted-survey",
		SegmentIDs:    []string{fx.segment.ID},
		RequestedSize: 5,
		Seed:          1,
		Status:        domain.RunPending,
		CreatedAt:     time.Now().UTC(),
	}
	if err := fx.runs.Create(context.Background(), run); err != nil {
		t.Fatalf("Create fallo: %v", err)
	}

	if err := fx.svc.ExecuteRun(context.Background(), run.ID); err == nil {
		t.Fatal("esperaba error al ejecutar con encuesta borrada")
	}

	stored, err := fx.runs.GetByID(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("GetByID fallo: %v", err)
	}
	if stored.Status != domain.RunFailed {
		t.Fatalf("estado %q, esperaba failed", stored.Status)
	}
	if stored.Error == "" {
		t.Fatal("esperaba mensaje de error en la corrida fallida")
	}
}

func TestGetRunEnforcesOwnership(t *testing.T) {
	fx := newStudyFixture(t, nil)

	run := domain.SimulationRun{
		ID:        "run-1",
		UserID:    fx.user.ID,
		SurveyID:  fx.survey.ID,
		Status:    domain.RunCompleted,
		CreatedAt: time.Now().UTC(),
	}
	if err := fx.runs.Create(context.Background(), run); err != nil {
		t.Fatalf("Create fallo: %v", err)
	}

	if _, err := fx.svc.GetRun(context.Background(), "intruder", run.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("esperaba ErrForbidden, obtuve %v", err)
	}
	if _, err := fx.svc.GetRun(context.Background(), fx.user.ID, "ghost"); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("esperaba ErrRunNotFound, obtuve %v", err)
	}
	if _, err := fx.svc.GetRun(context.Background(), fx.user.ID, run.ID); err != nil {
		t.Fatalf("GetRun fallo: %v", err)
	}
}

func TestCancelRunWithoutLocalExecution(t *testing.T) {
	fx := newStudyFixture(t, nil)

	run := domain.SimulationRun{
		ID:        "run-stale",
		UserID:    fx.user.ID,
		SurveyID:  fx.survey.ID,
		Status:    domain.RunPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := fx.runs.Create(context.Background(), run); err != nil {
		t.Fatalf("Create fallo: %v", err)
	}

	if err := fx.svc.CancelRun(context.Background(), fx.user.ID, run.ID); err != nil {
		t.Fatalf("CancelRun fallo: %v", err)
	}
	stored, err := fx.runs.GetByID(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("GetByID fallo: %v", err)
	}
	if stored.Status != domain.RunCancelled {
		t.Fatalf("estado %q, esperaba cancelled", stored.Status)
	}

	if err := fx.svc.CancelRun(context.Background(), fx.user.ID, run.ID); err == nil {
		t.Fatal("esperaba error al cancelar una corrida ya cancelada")
	}
}
