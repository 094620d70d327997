package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"contribution-scout/internal/adapter/github"
	"contribution-scout/internal/common"
	"contribution-scout/internal/domain"
	"contribution-scout/internal/logging"
	"contribution-scout/internal/port"
	"contribution-scout/internal/service"

	"github.com/labstack/echo/v4"
)

// Recommender is the recommendation pipeline as seen by the HTTP layer.
type Recommender interface {
	IssueUserID(ctx context.Context) (string, error)
	Generate(ctx context.Context, answers *domain.SurveyAnswers) (port.SynthesisResult, error)
	ListRecommendations(ctx context.Context, userID string) ([]domain.Recommendation, error)
}

type Chatter interface {
	Reply(ctx context.Context, req service.ChatRequest) (string, error)
}

type RepoValidator interface {
	Validate(ctx context.Context, repoURL string) github.Validation
}

type Sessions interface {
	Issue(ctx context.Context) domain.ClientSession
	Verify(ctx context.Context, clientID string) error
}

// requiredSurveyFields are checked for presence before anything else runs.
var requiredSurveyFields = []string{
	"reason",
	"publicRepos",
	"repoTypes",
	"well",
	"like",
	"wishToLearn",
	"numOfExperience",
	"experiencedUrls",
}

type Handler struct {
	recommender Recommender
	chat        Chatter
	validator   RepoValidator
	sessions    Sessions
	log         *logging.Logger
}

func NewHandler(recommender Recommender, chat Chatter, validator RepoValidator, sessions Sessions, log *logging.Logger) *Handler {
	if log == nil {
		log = logging.NewNop()
	}
	return &Handler{
		recommender: recommender,
		chat:        chat,
		validator:   validator,
		sessions:    sessions,
		log:         log,
	}
}

type errorBody struct {
	Success       bool     `json:"success"`
	Error         string   `json:"error"`
	Detail        string   `json:"detail,omitempty"`
	MissingFields []string `json:"missingFields,omitempty"`
	InvalidFields []string `json:"invalidFields,omitempty"`
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "contribution-scout",
	})
}

// IssueUserID handles GET /api/generate/userId.
func (h *Handler) IssueUserID(c echo.Context) error {
	userID, err := h.recommender.IssueUserID(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error":  "Failed to generate userId",
			"detail": err.Error(),
		})
	}
	return c.JSON(http.StatusCreated, map[string]string{"userId": userID})
}

// IssueClientID handles GET /api/generate/clientId.
func (h *Handler) IssueClientID(c echo.Context) error {
	return c.JSON(http.StatusOK, h.sessions.Issue(c.Request().Context()))
}

// GenerateRecommendations handles POST /api/generate/recommendations.
func (h *Handler) GenerateRecommendations(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "Invalid JSON body", Detail: err.Error()})
	}

	var userID string
	if raw, ok := fields["userId"]; ok {
		_ = json.Unmarshal(raw, &userID)
	}
	if userID == "" {
		h.log.Warn("missing userId in body")
		return c.JSON(http.StatusBadRequest, errorBody{Error: "Missing userId in body"})
	}

	if missing := missingFields(fields); len(missing) > 0 {
		h.log.Warn("missing required survey fields", "userId", userID, "fields", missing)
		return c.JSON(http.StatusBadRequest, errorBody{Error: "Missing required fields", MissingFields: missing})
	}

	answers := domain.NewEmptySurvey(userID)
	if err := json.Unmarshal(body, answers); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "Invalid survey body", Detail: err.Error()})
	}
	answers.UserID = userID

	if invalid := answers.InvalidFields(); len(invalid) > 0 {
		h.log.Warn("survey fields out of range", "userId", userID, "fields", invalid)
		return c.JSON(http.StatusBadRequest, errorBody{Error: "Invalid survey fields", InvalidFields: invalid})
	}

	result, err := h.recommender.Generate(c.Request().Context(), answers)
	if err != nil {
		return err
	}
	if !result.Success {
		return c.JSON(http.StatusInternalServerError, result)
	}
	return c.JSON(http.StatusOK, result)
}

// missingFields lists required fields that are absent or null.
func missingFields(fields map[string]json.RawMessage) []string {
	var missing []string
	for _, name := range requiredSurveyFields {
		raw, ok := fields[name]
		if !ok || strings.TrimSpace(string(raw)) == "null" {
			missing = append(missing, name)
		}
	}
	return missing
}

// ListRecommendations handles GET /api/recommendations/:userId.
func (h *Handler) ListRecommendations(c echo.Context) error {
	recs, err := h.recommender.ListRecommendations(c.Request().Context(), c.Param("userId"))
	if err != nil {
		if common.HasCode(err, common.ErrCodeInvalidInput) {
			return c.JSON(http.StatusBadRequest, errorBody{Error: messageOf(err)})
		}
		return err
	}
	if recs == nil {
		recs = []domain.Recommendation{}
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "recommendations": recs})
}

// rankParam accepts a rank sent either as a number or as a numeric string.
type rankParam struct {
	value *int
}

func (r *rankParam) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	r.value = &n
	return nil
}

type chatRequest struct {
	Message string    `json:"message"`
	UserID  string    `json:"userId"`
	Rank    rankParam `json:"rank"`
}

// ChatMessage handles POST /api/chatbot/message.
func (h *Handler) ChatMessage(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "Invalid request format"})
	}

	reply, err := h.chat.Reply(c.Request().Context(), service.ChatRequest{
		Message: req.Message,
		UserID:  req.UserID,
		Rank:    req.Rank.value,
	})
	if err != nil {
		switch common.CodeOf(err) {
		case common.ErrCodeInvalidInput:
			return c.JSON(http.StatusBadRequest, errorBody{Error: messageOf(err)})
		case common.ErrCodeConfiguration:
			return c.JSON(http.StatusInternalServerError, errorBody{Error: messageOf(err)})
		default:
			return c.JSON(http.StatusInternalServerError, errorBody{Error: messageOf(err), Detail: detailOf(err)})
		}
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "response": reply})
}

// ValidateRepo handles GET /api/repos/validate?url=.
func (h *Handler) ValidateRepo(c echo.Context) error {
	repoURL := c.QueryParam("url")
	if repoURL == "" {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "Missing url query parameter"})
	}
	return c.JSON(http.StatusOK, h.validator.Validate(c.Request().Context(), repoURL))
}

func messageOf(err error) string {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// detailOf is the message of the innermost cause.
func detailOf(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return messageOf(err)
		}
		err = next
	}
}
