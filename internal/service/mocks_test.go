package service

import (
	"context"
	"time"

	"contribution-scout/internal/domain"
	"contribution-scout/internal/port"

	"github.com/stretchr/testify/mock"
)

// MockAnalyzer mocks port.ProfileAnalyzer.
type MockAnalyzer struct {
	mock.Mock
}

func (m *MockAnalyzer) Analyze(ctx context.Context, repoURL, repoType string) domain.RepositoryProfile {
	return m.Called(ctx, repoURL, repoType).Get(0).(domain.RepositoryProfile)
}

func (m *MockAnalyzer) AnalyzeAll(ctx context.Context, repos []port.RepoRef) []domain.RepositoryProfile {
	return m.Called(ctx, repos).Get(0).([]domain.RepositoryProfile)
}

// MockSynthesizer mocks port.Synthesizer.
type MockSynthesizer struct {
	mock.Mock
}

func (m *MockSynthesizer) Synthesize(ctx context.Context, answers *domain.SurveyAnswers, profiles []domain.RepositoryProfile) port.SynthesisResult {
	return m.Called(ctx, answers, profiles).Get(0).(port.SynthesisResult)
}

// MockAuditor mocks port.Auditor.
type MockAuditor struct {
	mock.Mock
}

func (m *MockAuditor) Audit(recs []domain.Recommendation, ceiling domain.SkillLevel) []domain.Finding {
	f, _ := m.Called(recs, ceiling).Get(0).([]domain.Finding)
	return f
}

// MockGenerator mocks port.Generator.
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) GenerateText(ctx context.Context, prompt string, opts port.GenerateOptions) (string, error) {
	args := m.Called(ctx, prompt, opts)
	return args.String(0), args.Error(1)
}

func (m *MockGenerator) Chat(ctx context.Context, message string, opts port.ChatOptions) (string, error) {
	args := m.Called(ctx, message, opts)
	return args.String(0), args.Error(1)
}

// MockStore mocks port.Store.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateEmptySurvey(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockStore) UpsertSurvey(ctx context.Context, answers *domain.SurveyAnswers) error {
	return m.Called(ctx, answers).Error(0)
}

func (m *MockStore) GetSurvey(ctx context.Context, userID string) (*domain.SurveyAnswers, error) {
	args := m.Called(ctx, userID)
	s, _ := args.Get(0).(*domain.SurveyAnswers)
	return s, args.Error(1)
}

func (m *MockStore) UpsertRepositoryProfiles(ctx context.Context, userID string, profiles []domain.RepositoryProfile) error {
	return m.Called(ctx, userID, profiles).Error(0)
}

func (m *MockStore) ListRepositoryProfiles(ctx context.Context, userID string) ([]domain.RepositoryProfile, error) {
	args := m.Called(ctx, userID)
	p, _ := args.Get(0).([]domain.RepositoryProfile)
	return p, args.Error(1)
}

func (m *MockStore) UpsertRecommendations(ctx context.Context, userID string, recs []domain.Recommendation) error {
	return m.Called(ctx, userID, recs).Error(0)
}

func (m *MockStore) GetRecommendationByRank(ctx context.Context, userID string, rank int) (*domain.Recommendation, error) {
	args := m.Called(ctx, userID, rank)
	r, _ := args.Get(0).(*domain.Recommendation)
	return r, args.Error(1)
}

func (m *MockStore) ListRecommendations(ctx context.Context, userID string) ([]domain.Recommendation, error) {
	args := m.Called(ctx, userID)
	r, _ := args.Get(0).([]domain.Recommendation)
	return r, args.Error(1)
}

func (m *MockStore) SaveSession(ctx context.Context, s *domain.ClientSession) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockStore) FindSession(ctx context.Context, clientID string) (*domain.ClientSession, error) {
	args := m.Called(ctx, clientID)
	s, _ := args.Get(0).(*domain.ClientSession)
	return s, args.Error(1)
}

func (m *MockStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}
