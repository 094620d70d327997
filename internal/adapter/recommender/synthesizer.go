package recommender

import (
	"context"
	"errors"
	"fmt"
	"time"

	"contribution-scout/internal/adapter/parser"
	"contribution-scout/internal/common"
	"contribution-scout/internal/domain"
	"contribution-scout/internal/logging"
	"contribution-scout/internal/port"
)

const (
	errAnalyze = "Failed to analyze with Gemini"
	errParse   = "Failed to parse Gemini response"
	errSchema  = "Gemini response violated schema"

	detailNoKey      = "API Key not configured."
	detailNoResponse = "Invalid response from Gemini API"

	temperature = float32(0.7)
)

// Synthesizer implements port.Synthesizer.
type Synthesizer struct {
	generator port.Generator
	log       *logging.Logger
	nowFunc   func() time.Time
}

// NewSynthesizer returns a synthesizer. A nil generator means no AI
// credential is configured.
func NewSynthesizer(generator port.Generator, log *logging.Logger) *Synthesizer {
	if log == nil {
		log = logging.NewNop()
	}
	return &Synthesizer{
		generator: generator,
		log:       log,
		nowFunc:   time.Now,
	}
}

func failure(errMsg, detail, raw string) port.SynthesisResult {
	return port.SynthesisResult{Error: errMsg, Detail: detail, RawResponse: raw}
}

// Synthesize never fails; problems are reported in the result's Error.
func (s *Synthesizer) Synthesize(ctx context.Context, answers *domain.SurveyAnswers, profiles []domain.RepositoryProfile) (result port.SynthesisResult) {
	if s.generator == nil {
		s.log.Error("recommendation skipped, AI credential not configured")
		return failure(errAnalyze, detailNoKey, "")
	}

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("recommendation synthesis panicked", "panic", r)
			result = failure(errAnalyze, fmt.Sprint(r), "")
		}
	}()

	ceiling := domain.MaxRecommendedDifficulty(profiles, answers.NumOfExperience)
	if answers.NumOfExperience == 0 {
		s.log.Info("first-time contributor, difficulty ceiling lowered", "userId", answers.UserID, "ceiling", ceiling)
	}

	prompt, err := buildRecommendationPrompt(answers, profiles, ceiling, s.nowFunc().Format("2006-01-02"))
	if err != nil {
		return failure(errAnalyze, err.Error(), "")
	}

	temp := temperature
	text, err := s.generator.GenerateText(ctx, prompt, port.GenerateOptions{Temperature: &temp, JSON: true})
	switch {
	case errors.Is(err, common.ErrEmptyResponse):
		s.log.Error("AI returned no text for recommendations", "userId", answers.UserID)
		return failure(errAnalyze, detailNoResponse, "")
	case common.HasCode(err, common.ErrCodeConfiguration):
		return failure(errAnalyze, detailNoKey, "")
	case err != nil:
		s.log.Error("AI call failed for recommendations", "userId", answers.UserID, "error", err)
		return failure(errAnalyze, rootMessage(err), "")
	}
	s.log.Debug("AI response for recommendations", "userId", answers.UserID, "text", text)

	recs, err := parser.DecodeRecommendations(text)
	if err != nil {
		s.log.Error("could not decode recommendations", "userId", answers.UserID, "error", err)
		if common.HasCode(err, common.ErrCodeSchemaViolation) {
			return failure(errSchema, rootMessage(err), text)
		}
		return failure(errParse, rootMessage(err), text)
	}

	return port.SynthesisResult{
		Success:                  true,
		Recommendations:          recs,
		MaxRecommendedDifficulty: ceiling,
	}
}

func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
