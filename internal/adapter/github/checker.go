package github

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"contribution-scout/internal/common"

	"github.com/google/go-github/v53/github"
	"golang.org/x/oauth2"
)

// Validation is the outcome of checking a repository URL.
type Validation struct {
	Valid  bool   `json:"valid"`
	Public bool   `json:"public"`
	Reason string `json:"reason,omitempty"`
}

// Checker verifies that a URL names an existing public GitHub repository.
type Checker struct {
	client    *github.Client
	retryOpts []common.Option
}

// NewChecker initializes the GitHub client; an empty token means
// unauthenticated requests.
func NewChecker(token string) *Checker {
	var client *github.Client

	if token == "" {
		client = github.NewClient(nil)
	} else {
		ctx := context.Background()
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		tc := oauth2.NewClient(ctx, ts)
		client = github.NewClient(tc)
	}

	return &Checker{
		client: client,
		retryOpts: []common.Option{
			common.WithMaxRetries(2),
			common.WithInitialDelay(500 * time.Millisecond),
			common.WithRetryIf(retryable),
		},
	}
}

// ParseRepoURL extracts owner and name from https://github.com/owner/repo[/...].
// On failure reason says why.
func ParseRepoURL(raw string) (owner, repo, reason string) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", "Invalid URL: " + err.Error()
	}
	if u.Hostname() != "github.com" {
		return "", "", "Not a github.com URL"
	}
	parts := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	if len(parts) < 2 {
		return "", "", "URL does not match /owner/repo structure"
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), ""
}

// Validate never returns an error; failures are explained in Reason.
func (c *Checker) Validate(ctx context.Context, repoURL string) Validation {
	owner, name, reason := ParseRepoURL(repoURL)
	if reason != "" {
		return Validation{Reason: reason}
	}

	var repo *github.Repository
	err := common.Do(ctx, func() error {
		var apiErr error
		repo, _, apiErr = c.client.Repositories.Get(ctx, owner, name)
		return apiErr
	}, c.retryOpts...)

	if err != nil {
		if statusOf(err) == http.StatusNotFound {
			return Validation{Reason: "Repository not found"}
		}
		return Validation{Reason: "GitHub API error: " + err.Error()}
	}
	if repo.GetPrivate() {
		return Validation{Valid: true, Reason: "Repository is private"}
	}
	return Validation{Valid: true, Public: true}
}

func statusOf(err error) int {
	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		return respErr.Response.StatusCode
	}
	return 0
}

// retryable reports whether a GitHub error is worth another attempt:
// transport failures and 5xx responses.
func retryable(err error) bool {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return false
	}
	status := statusOf(err)
	return status == 0 || status >= http.StatusInternalServerError
}
