package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"contribution-scout/internal/common"
	"contribution-scout/internal/logging"
	"contribution-scout/internal/port"
)

// ChatMaxOutputTokens bounds each assistant reply.
const ChatMaxOutputTokens = 200

// ChatRequest is one user message. Context is attached only when both UserID
// and Rank are set.
type ChatRequest struct {
	Message string
	UserID  string
	Rank    *int
}

// ChatService answers single, stateless chat messages.
type ChatService struct {
	generator port.Generator
	store     port.Store
	log       *logging.Logger
}

// NewChatService returns a chat service. A nil generator means no AI
// credential is configured.
func NewChatService(generator port.Generator, store port.Store, log *logging.Logger) *ChatService {
	if log == nil {
		log = logging.NewNop()
	}
	return &ChatService{generator: generator, store: store, log: log}
}

func (s *ChatService) Reply(ctx context.Context, req ChatRequest) (string, error) {
	if strings.TrimSpace(req.Message) == "" {
		return "", common.NewError(common.ErrCodeInvalidInput, "Message is required.")
	}
	if s.generator == nil {
		return "", common.NewError(common.ErrCodeConfiguration, "Chatbot service not configured due to missing API key.")
	}

	message := req.Message
	if req.UserID != "" && req.Rank != nil {
		if preamble := s.contextPreamble(ctx, req.UserID, *req.Rank); preamble != "" {
			message = preamble + "\nUser message: " + req.Message
		}
	}

	reply, err := s.generator.Chat(ctx, message, port.ChatOptions{MaxOutputTokens: ChatMaxOutputTokens})
	if errors.Is(err, common.ErrEmptyResponse) {
		// An empty answer is passed through as-is.
		s.log.Warn("chat reply had no text", "userId", req.UserID)
		return "", nil
	}
	if err != nil {
		s.log.Error("chat call failed", "userId", req.UserID, "error", err)
		return "", common.WrapError(common.CodeOf(err), "Failed to get response from AI.", err)
	}
	return reply, nil
}

// contextPreamble gathers the stored recommendation, profiles and survey.
// Lookup failures are logged and the missing piece is left out.
func (s *ChatService) contextPreamble(ctx context.Context, userID string, rank int) string {
	if s.store == nil {
		return ""
	}
	log := s.log.With("userId", userID, "rank", rank)

	var parts []string
	add := func(label string, v any) {
		b, err := json.Marshal(v)
		if err != nil {
			log.Warn("could not encode chat context", "part", label, "error", err)
			return
		}
		parts = append(parts, label+": "+string(b))
	}

	if rec, err := s.store.GetRecommendationByRank(ctx, userID, rank); err != nil {
		log.Warn("recommendation lookup failed", "error", err)
	} else if rec != nil {
		add("Recommended project", rec)
	}

	if profiles, err := s.store.ListRepositoryProfiles(ctx, userID); err != nil {
		log.Warn("repository profile lookup failed", "error", err)
	} else if len(profiles) > 0 {
		add("User repository analysis", profiles)
	}

	if survey, err := s.store.GetSurvey(ctx, userID); err != nil {
		log.Warn("survey lookup failed", "error", err)
	} else if survey != nil {
		add("User survey", survey)
	}

	if len(parts) == 0 {
		return ""
	}
	return "Context about the user and the project they are asking about:\n" + strings.Join(parts, "\n") + "\n"
}
