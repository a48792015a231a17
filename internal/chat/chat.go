package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cleared-dev/fidash/internal/model"
)

// ErrEmptyPrompt is returned by Send for a blank prompt.
var ErrEmptyPrompt = errors.New("prompt is empty")

// Agent answers chat prompts.
type Agent interface {
	Send(ctx context.Context, message, userID string) (string, error)
}

// HistoryStore persists the conversation and the identity it is held for.
type HistoryStore interface {
	ChatHistory(ctx context.Context) ([]model.Message, bool, error)
	SetChatHistory(ctx context.Context, msgs []model.Message) error
	ClearChatHistory(ctx context.Context) error
	PhoneNumber(ctx context.Context) (string, error)
	User(ctx context.Context) (*model.User, error)
}

// Service keeps a single persisted conversation with the agent.
type Service struct {
	agent  Agent
	store  HistoryStore
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// NewService creates a chat Service.
func NewService(agent Agent, store HistoryStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		agent:  agent,
		store:  store,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// WelcomeMessage is the greeting shown when there is no history.
func WelcomeMessage(name string) string {
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf("Hi %s! I'm your Fi financial assistant. I can help you with information about your accounts, investments, and financial status. What would you like to know?", name)
}

// History returns the stored conversation, or a welcome message when none exists.
func (s *Service) History(ctx context.Context) ([]model.Message, error) {
	msgs, ok, err := s.store.ChatHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading chat history: %w", err)
	}
	if ok && len(msgs) > 0 {
		return msgs, nil
	}
	return s.welcome(ctx)
}

func (s *Service) welcome(ctx context.Context) ([]model.Message, error) {
	u, err := s.store.User(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	var name string
	if u != nil {
		name = u.DisplayName
	}
	return []model.Message{s.message(model.RoleAssistant, WelcomeMessage(name))}, nil
}

// Send appends prompt to the conversation, asks the agent, appends its reply
// and persists the result. An agent failure is recorded as the reply text;
// Send only fails when the prompt is blank or storage fails.
func (s *Service) Send(ctx context.Context, prompt string) (model.Message, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return model.Message{}, ErrEmptyPrompt
	}

	history, err := s.History(ctx)
	if err != nil {
		return model.Message{}, err
	}
	phone, err := s.store.PhoneNumber(ctx)
	if err != nil {
		return model.Message{}, fmt.Errorf("loading phone number: %w", err)
	}

	history = append(history, s.message(model.RoleUser, prompt))

	start := s.now()
	reply, err := s.agent.Send(ctx, prompt, phone)
	if err != nil {
		s.logger.Warn("agent request failed", zap.String("user_id", phone), zap.Error(err))
		reply = err.Error()
	} else {
		s.logger.Info("agent replied",
			zap.String("user_id", phone),
			zap.Duration("elapsed", s.now().Sub(start)))
	}

	answer := s.message(model.RoleAssistant, reply)
	history = append(history, answer)
	if err := s.store.SetChatHistory(ctx, history); err != nil {
		return model.Message{}, fmt.Errorf("saving chat history: %w", err)
	}
	return answer, nil
}

// Clear forgets the conversation.
func (s *Service) Clear(ctx context.Context) error {
	if err := s.store.ClearChatHistory(ctx); err != nil {
		return fmt.Errorf("clearing chat history: %w", err)
	}
	return nil
}

func (s *Service) message(role model.Role, content string) model.Message {
	return model.Message{ID: s.newID(), Role: role, Content: content, CreatedAt: s.now().UTC()}
}
