package port

import (
	"context"
	"time"

	"contribution-scout/internal/domain"
)

// GenerateOptions tunes a single text-generation call.
type GenerateOptions struct {
	Temperature *float32
	// JSON asks the provider to answer with a JSON document only, where it
	// supports that.
	JSON bool
}

// ChatOptions tunes a single chat turn.
type ChatOptions struct {
	MaxOutputTokens int32
}

// Generator is the generative-AI service. Implementations make exactly one
// upstream call per invocation and never retry. A call that yields no text
// returns an error wrapping common.ErrEmptyResponse.
type Generator interface {
	GenerateText(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// Chat sends one message with an empty history; nothing is retained
	// between calls.
	Chat(ctx context.Context, message string, opts ChatOptions) (string, error)
}

// RepoRef is a declared public repository and its category label.
type RepoRef struct {
	URL  string
	Type string
}

// ProfileAnalyzer turns repositories into profiles. It never fails: problems
// are reported inside the returned profile.
type ProfileAnalyzer interface {
	Analyze(ctx context.Context, repoURL, repoType string) domain.RepositoryProfile
	AnalyzeAll(ctx context.Context, repos []RepoRef) []domain.RepositoryProfile
}

// SynthesisResult is either a successful set of recommendations or an error
// object; callers branch on Error.
type SynthesisResult struct {
	Success                  bool                    `json:"success"`
	Recommendations          []domain.Recommendation `json:"recommendations,omitempty"`
	MaxRecommendedDifficulty domain.SkillLevel       `json:"-"`
	Error                    string                  `json:"error,omitempty"`
	Detail                   string                  `json:"detail,omitempty"`
	RawResponse              string                  `json:"rawResponse,omitempty"`
}

// Synthesizer produces recommendations from a survey and repository profiles.
type Synthesizer interface {
	Synthesize(ctx context.Context, answers *domain.SurveyAnswers, profiles []domain.RepositoryProfile) SynthesisResult
}

// SurveyStore persists survey answers keyed by user id. Lookups return
// nil, nil when nothing is stored.
type SurveyStore interface {
	CreateEmptySurvey(ctx context.Context, userID string) error
	UpsertSurvey(ctx context.Context, answers *domain.SurveyAnswers) error
	GetSurvey(ctx context.Context, userID string) (*domain.SurveyAnswers, error)
}

// ProfileStore persists repository profiles keyed by (user id, repo url).
type ProfileStore interface {
	UpsertRepositoryProfiles(ctx context.Context, userID string, profiles []domain.RepositoryProfile) error
	ListRepositoryProfiles(ctx context.Context, userID string) ([]domain.RepositoryProfile, error)
}

// RecommendationStore persists recommendations keyed by (user id, rank).
type RecommendationStore interface {
	UpsertRecommendations(ctx context.Context, userID string, recs []domain.Recommendation) error
	GetRecommendationByRank(ctx context.Context, userID string, rank int) (*domain.Recommendation, error)
	ListRecommendations(ctx context.Context, userID string) ([]domain.Recommendation, error)
}

// SessionStore is the durable side of client sessions.
type SessionStore interface {
	SaveSession(ctx context.Context, s *domain.ClientSession) error
	FindSession(ctx context.Context, clientID string) (*domain.ClientSession, error)
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// Store is everything the application persists.
type Store interface {
	SurveyStore
	ProfileStore
	RecommendationStore
	SessionStore
}

// Auditor reports recommendations that ignore the difficulty ceiling or the
// freshness rule. It never alters them.
type Auditor interface {
	Audit(recs []domain.Recommendation, ceiling domain.SkillLevel) []domain.Finding
}
