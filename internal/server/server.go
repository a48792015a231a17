package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/cleared-dev/fidash/internal/chat"
	"github.com/cleared-dev/fidash/internal/dashboard"
	"github.com/cleared-dev/fidash/internal/model"
	"github.com/cleared-dev/fidash/internal/store"
)

const maxRequestBytes = 1 << 20

// DashboardLoader loads a dashboard snapshot for a session.
type DashboardLoader interface {
	Load(ctx context.Context, sessionID string) (*dashboard.Snapshot, error)
}

// Chatter is the conversation surface.
type Chatter interface {
	History(ctx context.Context) ([]model.Message, error)
	Send(ctx context.Context, prompt string) (model.Message, error)
	Clear(ctx context.Context) error
}

// Handler serves the JSON API.
type Handler struct {
	dashboard DashboardLoader
	chat      Chatter
	prefs     *store.Prefs
	profiles  *store.Profiles
	logger    *zap.Logger
}

// NewHandler creates a Handler.
func NewHandler(d DashboardLoader, c Chatter, prefs *store.Prefs, profiles *store.Profiles, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{dashboard: d, chat: c, prefs: prefs, profiles: profiles, logger: logger}
}

// Router returns the API routes.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(h.logRequests)

	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/dashboard", h.Dashboard).Methods(http.MethodGet)
	api.HandleFunc("/chat", h.ChatHistory).Methods(http.MethodGet)
	api.HandleFunc("/chat", h.ChatSend).Methods(http.MethodPost)
	api.HandleFunc("/chat", h.ChatClear).Methods(http.MethodDelete)
	api.HandleFunc("/prefs", h.Prefs).Methods(http.MethodGet)
	api.HandleFunc("/prefs/theme", h.SetTheme).Methods(http.MethodPut)
	api.HandleFunc("/prefs/phone", h.SetPhone).Methods(http.MethodPut)
	api.HandleFunc("/prefs/user", h.SetUser).Methods(http.MethodPut)
	api.HandleFunc("/prefs/user", h.ClearUser).Methods(http.MethodDelete)
	api.HandleFunc("/profiles/{userID}", h.GetProfile).Methods(http.MethodGet)
	api.HandleFunc("/profiles/{userID}", h.SaveProfile).Methods(http.MethodPut)
	api.HandleFunc("/profiles/{userID}", h.UpdateProfile).Methods(http.MethodPatch)
	return r
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Dashboard loads the dashboard for ?sessionId=, falling back to the stored session.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	snap, err := h.dashboard.Load(r.Context(), r.URL.Query().Get("sessionId"))
	var lre *dashboard.LoginRequiredError
	switch {
	case errors.As(err, &lre):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "login required", "redirect": lre.RedirectURL})
	case err != nil:
		h.fail(w, r, http.StatusInternalServerError, err)
	default:
		writeJSON(w, http.StatusOK, snap)
	}
}

// ChatHistory returns the conversation.
func (h *Handler) ChatHistory(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.chat.History(r.Context())
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

// ChatSend posts a prompt and returns the assistant reply.
func (h *Handler) ChatSend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	answer, err := h.chat.Send(r.Context(), req.Message)
	if errors.Is(err, chat.ErrEmptyPrompt) {
		h.fail(w, r, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

// ChatClear forgets the conversation.
func (h *Handler) ChatClear(w http.ResponseWriter, r *http.Request) {
	if err := h.chat.Clear(r.Context()); err != nil {
		h.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Prefs returns every preference.
func (h *Handler) Prefs(w http.ResponseWriter, r *http.Request) {
	snap, err := h.prefs.Snapshot(r.Context())
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// SetTheme sets {"theme": "light"|"dark"}; an empty body toggles.
func (h *Handler) SetTheme(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Theme string `json:"theme"`
	}
	if !h.decodeOptional(w, r, &req) {
		return
	}

	theme := req.Theme
	if theme == "" {
		next, err := h.prefs.ToggleTheme(r.Context())
		if err != nil {
			h.fail(w, r, http.StatusInternalServerError, err)
			return
		}
		theme = next
	} else if err := h.prefs.SetTheme(r.Context(), theme); err != nil {
		h.fail(w, r, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"theme": theme})
}

// SetPhone selects the test profile.
func (h *Handler) SetPhone(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PhoneNumber string `json:"phoneNumber"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	err := h.prefs.SetPhoneNumber(r.Context(), req.PhoneNumber)
	if errors.Is(err, store.ErrUnknownPhoneNumber) {
		h.fail(w, r, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"phoneNumber": req.PhoneNumber})
}

// SetUser records the signed-in user shown in the chat greeting.
func (h *Handler) SetUser(w http.ResponseWriter, r *http.Request) {
	var u model.User
	if !h.decode(w, r, &u) {
		return
	}
	if u.UID == "" {
		h.fail(w, r, http.StatusBadRequest, errors.New("uid is required"))
		return
	}
	if err := h.prefs.SetUser(r.Context(), &u); err != nil {
		h.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// ClearUser forgets the signed-in user.
func (h *Handler) ClearUser(w http.ResponseWriter, r *http.Request) {
	if err := h.prefs.SetUser(r.Context(), nil); err != nil {
		h.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetProfile returns the onboarding profile.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.profiles.Fetch(r.Context(), mux.Vars(r)["userID"])
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	if p == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "profile not found"})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// SaveProfile stores a full onboarding profile.
func (h *Handler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	var p model.Profile
	if !h.decode(w, r, &p) {
		return
	}
	saved, err := h.profiles.Save(r.Context(), mux.Vars(r)["userID"], p)
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// UpdateProfile merges fields into an existing profile.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if !h.decode(w, r, &fields) {
		return
	}
	p, err := h.profiles.UpdateProgress(r.Context(), mux.Vars(r)["userID"], fields)
	if errors.Is(err, store.ErrProfileNotFound) {
		h.fail(w, r, http.StatusNotFound, err)
		return
	}
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(v); err != nil {
		h.fail(w, r, http.StatusBadRequest, fmt.Errorf("decoding request body: %w", err))
		return false
	}
	return true
}

// decodeOptional is decode for handlers where an empty body is meaningful.
// Content-Length is not consulted since chunked bodies report -1.
func (h *Handler) decodeOptional(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		h.fail(w, r, http.StatusBadRequest, fmt.Errorf("decoding request body: %w", err))
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Serve runs the API on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, h http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		// Chat requests wait on the agent.
		WriteTimeout: 2 * time.Minute,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("serving", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
