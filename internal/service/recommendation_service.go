package service

import (
	"context"

	"contribution-scout/internal/common"
	"contribution-scout/internal/domain"
	"contribution-scout/internal/logging"
	"contribution-scout/internal/port"

	"github.com/google/uuid"
)

// RecommendationService runs the survey → analysis → recommendation pipeline.
type RecommendationService struct {
	analyzer    port.ProfileAnalyzer
	synthesizer port.Synthesizer
	auditor     port.Auditor
	store       port.Store
	log         *logging.Logger
}

func NewRecommendationService(
	analyzer port.ProfileAnalyzer,
	synthesizer port.Synthesizer,
	auditor port.Auditor,
	store port.Store,
	log *logging.Logger,
) *RecommendationService {
	if log == nil {
		log = logging.NewNop()
	}
	return &RecommendationService{
		analyzer:    analyzer,
		synthesizer: synthesizer,
		auditor:     auditor,
		store:       store,
		log:         log,
	}
}

// IssueUserID creates a new user with an empty survey.
func (s *RecommendationService) IssueUserID(ctx context.Context) (string, error) {
	userID := uuid.NewString()
	if err := s.store.CreateEmptySurvey(ctx, userID); err != nil {
		s.log.Error("failed to create empty survey", "userId", userID, "error", err)
		return "", err
	}
	s.log.Info("issued user id", "userId", userID)
	return userID, nil
}

// Generate analyzes every declared repository, then synthesizes
// recommendations from the survey and the profiles. Persistence is best
// effort: failures are logged and never change the result.
func (s *RecommendationService) Generate(ctx context.Context, answers *domain.SurveyAnswers) (port.SynthesisResult, error) {
	if answers == nil || answers.UserID == "" {
		return port.SynthesisResult{}, common.NewError(common.ErrCodeInvalidInput, "Missing userId in body")
	}
	log := s.log.With("userId", answers.UserID)

	refs := make([]port.RepoRef, len(answers.PublicRepos))
	for i, url := range answers.PublicRepos {
		refs[i] = port.RepoRef{URL: url, Type: answers.RepoTypeAt(i)}
	}
	profiles := s.analyzer.AnalyzeAll(ctx, refs)

	result := s.synthesizer.Synthesize(ctx, answers, profiles)
	if result.Success {
		log.Info("recommendations generated", "count", len(result.Recommendations), "ceiling", result.MaxRecommendedDifficulty)
		s.audit(log, result)
	} else {
		log.Error("recommendation synthesis failed", "error", result.Error, "detail", result.Detail)
	}

	s.persist(ctx, log, answers, profiles, result)
	return result, nil
}

func (s *RecommendationService) audit(log *logging.Logger, result port.SynthesisResult) {
	if s.auditor == nil {
		return
	}
	for _, f := range s.auditor.Audit(result.Recommendations, result.MaxRecommendedDifficulty) {
		log.Warn("recommendation ignores prompt rule", "rank", f.Rank, "repo", f.RepoName, "kind", f.Kind, "message", f.Message)
	}
}

func (s *RecommendationService) persist(ctx context.Context, log *logging.Logger, answers *domain.SurveyAnswers, profiles []domain.RepositoryProfile, result port.SynthesisResult) {
	if err := s.store.UpsertSurvey(ctx, answers); err != nil {
		log.Error("failed to save survey", "error", err)
	}

	if len(profiles) > 0 {
		if err := s.store.UpsertRepositoryProfiles(ctx, answers.UserID, profiles); err != nil {
			log.Error("failed to save repository profiles", "error", err)
		}
	}

	if result.Success {
		if err := s.store.UpsertRecommendations(ctx, answers.UserID, result.Recommendations); err != nil {
			log.Error("failed to save recommendations", "error", err)
		}
	}
}

// ListRecommendations returns what was stored for userID, ordered by rank.
func (s *RecommendationService) ListRecommendations(ctx context.Context, userID string) ([]domain.Recommendation, error) {
	if userID == "" {
		return nil, common.NewError(common.ErrCodeInvalidInput, "Missing userId")
	}
	return s.store.ListRecommendations(ctx, userID)
}
