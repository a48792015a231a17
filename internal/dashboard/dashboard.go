package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cleared-dev/fidash/internal/aggregate"
	"github.com/cleared-dev/fidash/internal/model"
	"github.com/cleared-dev/fidash/internal/payload"
	"github.com/cleared-dev/fidash/internal/toolclient"
)

// LoginRequiredError means the user has no valid session and must log in at RedirectURL.
type LoginRequiredError struct {
	RedirectURL string
	Err         error
}

func (e *LoginRequiredError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("login required (%v): visit %s", e.Err, e.RedirectURL)
	}
	return "login required: visit " + e.RedirectURL
}

func (e *LoginRequiredError) Unwrap() error { return e.Err }

// Backend is the session and tool surface of the data backend.
type Backend interface {
	CheckSession(ctx context.Context, sessionID string) (toolclient.Session, error)
	FetchAll(ctx context.Context, sessionID string) model.RawToolResult
	LoginURL(placeholderSessionID string) string
}

// SessionStore remembers the session and profile across runs.
type SessionStore interface {
	SessionID(ctx context.Context) (string, error)
	SetSessionID(ctx context.Context, id string) error
	SetPhoneNumber(ctx context.Context, number string) error
}

// Snapshot is one loaded dashboard.
type Snapshot struct {
	PhoneNumber string                    `json:"phoneNumber,omitempty"`
	View        model.DashboardView       `json:"view"`
	Charts      model.Charts              `json:"charts"`
	Issues      []payload.ValidationError `json:"issues,omitempty"`
	LoadedAt    time.Time                 `json:"loadedAt"`
}

// Service loads dashboards.
type Service struct {
	backend          Backend
	prefs            SessionStore
	loginPlaceholder string
	logger           *zap.Logger
	clock            func() time.Time
}

// NewService creates a dashboard Service. loginPlaceholder is the session id carried
// by the login redirect.
func NewService(backend Backend, prefs SessionStore, loginPlaceholder string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		backend:          backend,
		prefs:            prefs,
		loginPlaceholder: loginPlaceholder,
		logger:           logger,
		clock:            time.Now,
	}
}

// Load validates sessionID (or the remembered one when empty), fetches every tool
// and aggregates the result. Tools are only fetched for a valid session.
func (s *Service) Load(ctx context.Context, sessionID string) (*Snapshot, error) {
	if sessionID == "" {
		stored, err := s.prefs.SessionID(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading session id: %w", err)
		}
		sessionID = stored
	}

	sess, err := s.backend.CheckSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, toolclient.ErrMissingSession) || errors.Is(err, toolclient.ErrInvalidSession) {
			s.logger.Info("session rejected", zap.String("session_id", sessionID), zap.Error(err))
		} else {
			s.logger.Warn("session check failed", zap.String("session_id", sessionID), zap.Error(err))
		}
		return nil, &LoginRequiredError{RedirectURL: s.backend.LoginURL(s.loginPlaceholder), Err: err}
	}

	if err := s.prefs.SetSessionID(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("saving session id: %w", err)
	}
	if sess.PhoneNumber != "" {
		if err := s.prefs.SetPhoneNumber(ctx, sess.PhoneNumber); err != nil {
			s.logger.Warn("not remembering session phone number",
				zap.String("phone_number", sess.PhoneNumber), zap.Error(err))
		}
	}

	raw := s.backend.FetchAll(ctx, sessionID)
	now := s.clock()
	res := aggregate.Build(raw, now)

	if failed := raw.FailedTools(); len(failed) > 0 {
		names := make([]string, len(failed))
		for i, t := range failed {
			names[i] = string(t)
		}
		s.logger.Warn("tools unavailable", zap.Strings("tools", names))
	}
	for _, issue := range res.Issues {
		s.logger.Warn("payload left out of dashboard",
			zap.String("tool", string(issue.Tool)),
			zap.String("path", issue.Path),
			zap.String("reason", issue.Reason))
	}
	s.logger.Info("dashboard loaded",
		zap.Int("transactions", len(res.View.Transactions)),
		zap.String("net_worth", res.View.NetWorth.String()),
		zap.Int("issues", len(res.Issues)))

	return &Snapshot{
		PhoneNumber: sess.PhoneNumber,
		View:        res.View,
		Charts:      res.Charts,
		Issues:      res.Issues,
		LoadedAt:    now,
	}, nil
}

// Refresh reloads the dashboard from scratch.
func (s *Service) Refresh(ctx context.Context, sessionID string) (*Snapshot, error) {
	return s.Load(ctx, sessionID)
}
