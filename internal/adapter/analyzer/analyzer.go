package analyzer

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

	"golang.org/x/sync/errgroup"
)

const (
	errAnalyze = "Failed to analyze with Gemini"
	errParse   = "Failed to parse Gemini response"
	errSchema  = "Gemini response violated schema"

	detailNoKey       = "API Key not configured."
	detailNoResponse  = "Invalid response from Gemini API"
	rawNoResponseText = "No text in response"
)

// RepoAnalyzer implements port.ProfileAnalyzer.
type RepoAnalyzer struct {
	generator     port.Generator
	log           *logging.Logger
	maxGoroutines int
	timeout       time.Duration
}

// NewRepoAnalyzer returns an analyzer. A nil generator means no AI
// credential is configured; every analysis then yields the configuration
// fallback.
func NewRepoAnalyzer(generator port.Generator, log *logging.Logger) *RepoAnalyzer {
	if log == nil {
		log = logging.NewNop()
	}
	return &RepoAnalyzer{
		generator:     generator,
		log:           log,
		maxGoroutines: 3,
		timeout:       60 * time.Second,
	}
}

// SetMaxGoroutines bounds how many analyses AnalyzeAll runs at once.
func (a *RepoAnalyzer) SetMaxGoroutines(max int) {
	if max > 0 {
		a.maxGoroutines = max
	}
}

// SetTimeout bounds each single analysis.
func (a *RepoAnalyzer) SetTimeout(d time.Duration) {
	if d > 0 {
		a.timeout = d
	}
}

// Analyze never fails; every problem is reported inside the returned profile.
func (a *RepoAnalyzer) Analyze(ctx context.Context, repoURL, repoType string) (profile domain.RepositoryProfile) {
	if repoType == "" {
		repoType = "N/A"
	}
	log := a.log.With("repo", repoURL)

	if a.generator == nil {
		log.Error("repo analysis skipped, AI credential not configured")
		return domain.NewFallbackProfile(repoURL, repoType, errAnalyze, detailNoKey, "")
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("repo analysis panicked", "panic", r)
			profile = domain.NewFallbackProfile(repoURL, repoType, errAnalyze, fmt.Sprint(r), "")
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	text, err := a.generator.GenerateText(ctx, buildProfilePrompt(repoURL, repoType), port.GenerateOptions{JSON: true})
	switch {
	case errors.Is(err, common.ErrEmptyResponse):
		log.Error("AI returned no text for repo analysis")
		return domain.NewFallbackProfile(repoURL, repoType, errAnalyze, detailNoResponse, rawNoResponseText)
	case common.HasCode(err, common.ErrCodeConfiguration):
		return domain.NewFallbackProfile(repoURL, repoType, errAnalyze, detailNoKey, "")
	case err != nil:
		log.Error("AI call failed for repo analysis", "error", err)
		return domain.NewFallbackProfile(repoURL, repoType, errAnalyze, rootMessage(err), "")
	}
	log.Debug("AI response for repo analysis", "text", text)

	parsed, err := parser.DecodeProfile(text)
	if err != nil {
		log.Error("could not decode repo analysis", "error", err)
		if common.HasCode(err, common.ErrCodeSchemaViolation) {
			return domain.NewFallbackProfile(repoURL, repoType, errSchema, rootMessage(err), text)
		}
		return domain.NewFallbackProfile(repoURL, repoType, errParse, rootMessage(err), text)
	}

	parsed.RepoURL = repoURL
	parsed.RepoType = repoType
	return parsed
}

// AnalyzeAll runs Analyze once per distinct non-empty URL with bounded
// concurrency and returns the profiles in first-seen order.
func (a *RepoAnalyzer) AnalyzeAll(ctx context.Context, repos []port.RepoRef) []domain.RepositoryProfile {
	todo := make([]port.RepoRef, 0, len(repos))
	seen := make(map[string]struct{}, len(repos))
	for _, r := range repos {
		if r.URL == "" {
			continue
		}
		if _, dup := seen[r.URL]; dup {
			a.log.Warn("skipping repeated repository", "repo", r.URL)
			continue
		}
		seen[r.URL] = struct{}{}
		todo = append(todo, r)
	}
	a.log.Info("analyzing repositories", "count", len(todo), "concurrency", a.maxGoroutines)

	results := make([]domain.RepositoryProfile, len(todo))
	var g errgroup.Group
	g.SetLimit(a.maxGoroutines)
	for i, r := range todo {
		g.Go(func() error {
			results[i] = a.Analyze(ctx, r.URL, r.Type)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for i := range results {
		if results[i].Failed() {
			failed++
		}
	}
	a.log.Info("repository analysis finished", "count", len(results), "failed", failed)
	return results
}

// rootMessage is the innermost error text, without code prefixes.
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
