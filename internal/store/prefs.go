package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/cleared-dev/fidash/internal/model"
)

// Preference keys.
const (
	KeyPhoneNumber = "phoneNumber"
	KeyChatHistory = "chatHistory"
	KeyUser        = "user"
	KeySessionID   = "sessionId"
	KeyDarkMode    = "darkMode"
	KeyTheme       = "fimcp_theme"
)

// DefaultPhoneNumber is the test profile selected when none is stored.
const DefaultPhoneNumber = "2222222222"

// Themes.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// ErrUnknownPhoneNumber is returned when a phone number is not one of PhoneNumbers.
var ErrUnknownPhoneNumber = errors.New("phone number is not an available test profile")

var phoneNumbers = []string{
	"1111111111", "2222222222", "3333333333", "4444444444",
	"5555555555", "6666666666", "7777777777", "8888888888",
	"9999999999", "1010101010", "1212121212", "1313131313",
	"1414141414", "2020202020", "2121212121", "2525252525",
}

// PhoneNumbers returns the selectable test profiles.
func PhoneNumbers() []string {
	return slices.Clone(phoneNumbers)
}

// Prefs is a typed view over the key/value preference table. Every getter
// returns its default when the key is absent or its value does not parse.
type Prefs struct {
	db     *sql.DB
	logger *zap.Logger
}

// Snapshot is every preference at once.
type Snapshot struct {
	PhoneNumber string      `json:"phoneNumber"`
	SessionID   string      `json:"sessionId"`
	DarkMode    bool        `json:"darkMode"`
	Theme       string      `json:"theme"`
	User        *model.User `json:"user,omitempty"`
}

func (p *Prefs) get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := p.db.QueryRowContext(ctx, `SELECT value FROM prefs WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %s: %w", key, err)
	}
	return v, true, nil
}

func (p *Prefs) set(ctx context.Context, key, value string) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO prefs (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (p *Prefs) remove(ctx context.Context, key string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM prefs WHERE key = ?`, key); err != nil {
		return fmt.Errorf("removing %s: %w", key, err)
	}
	return nil
}

func (p *Prefs) corrupt(key string, err error) {
	p.logger.Warn("ignoring unreadable preference", zap.String("key", key), zap.Error(err))
}

// PhoneNumber returns the selected test profile.
func (p *Prefs) PhoneNumber(ctx context.Context) (string, error) {
	v, ok, err := p.get(ctx, KeyPhoneNumber)
	if err != nil || !ok {
		return DefaultPhoneNumber, err
	}
	if !slices.Contains(phoneNumbers, v) {
		p.corrupt(KeyPhoneNumber, fmt.Errorf("%w: %q", ErrUnknownPhoneNumber, v))
		return DefaultPhoneNumber, nil
	}
	return v, nil
}

// SetPhoneNumber selects a test profile.
func (p *Prefs) SetPhoneNumber(ctx context.Context, number string) error {
	if !slices.Contains(phoneNumbers, number) {
		return fmt.Errorf("%w: %q", ErrUnknownPhoneNumber, number)
	}
	return p.set(ctx, KeyPhoneNumber, number)
}

// SessionID returns the last session id that passed validation, or "".
func (p *Prefs) SessionID(ctx context.Context) (string, error) {
	v, _, err := p.get(ctx, KeySessionID)
	return v, err
}

// SetSessionID stores the session id.
func (p *Prefs) SetSessionID(ctx context.Context, id string) error {
	return p.set(ctx, KeySessionID, id)
}

// ChatHistory returns the stored conversation. ok is false when there is none
// or it cannot be decoded.
func (p *Prefs) ChatHistory(ctx context.Context) (msgs []model.Message, ok bool, err error) {
	v, found, err := p.get(ctx, KeyChatHistory)
	if err != nil || !found {
		return nil, false, err
	}
	if err := json.Unmarshal([]byte(v), &msgs); err != nil {
		p.corrupt(KeyChatHistory, err)
		return nil, false, nil
	}
	return msgs, true, nil
}

// SetChatHistory replaces the stored conversation.
func (p *Prefs) SetChatHistory(ctx context.Context, msgs []model.Message) error {
	data, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("encoding chat history: %w", err)
	}
	return p.set(ctx, KeyChatHistory, string(data))
}

// ClearChatHistory removes the stored conversation.
func (p *Prefs) ClearChatHistory(ctx context.Context) error {
	return p.remove(ctx, KeyChatHistory)
}

// User returns the signed-in user, or nil.
func (p *Prefs) User(ctx context.Context) (*model.User, error) {
	v, ok, err := p.get(ctx, KeyUser)
	if err != nil || !ok {
		return nil, err
	}
	var u model.User
	if err := json.Unmarshal([]byte(v), &u); err != nil {
		p.corrupt(KeyUser, err)
		return nil, nil
	}
	return &u, nil
}

// SetUser stores the signed-in user; nil signs out.
func (p *Prefs) SetUser(ctx context.Context, u *model.User) error {
	if u == nil {
		return p.remove(ctx, KeyUser)
	}
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encoding user: %w", err)
	}
	return p.set(ctx, KeyUser, string(data))
}

// DarkMode reports the dark mode flag.
func (p *Prefs) DarkMode(ctx context.Context) (bool, error) {
	v, ok, err := p.get(ctx, KeyDarkMode)
	if err != nil || !ok {
		return false, err
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.corrupt(KeyDarkMode, err)
		return false, nil
	}
	return b, nil
}

// Theme returns "light" or "dark".
func (p *Prefs) Theme(ctx context.Context) (string, error) {
	v, ok, err := p.get(ctx, KeyTheme)
	if err != nil || !ok {
		return ThemeLight, err
	}
	if v != ThemeLight && v != ThemeDark {
		p.corrupt(KeyTheme, fmt.Errorf("unknown theme %q", v))
		return ThemeLight, nil
	}
	return v, nil
}

// SetTheme stores theme and keeps the dark mode flag in step with it.
func (p *Prefs) SetTheme(ctx context.Context, theme string) error {
	if theme != ThemeLight && theme != ThemeDark {
		return fmt.Errorf("unknown theme %q: want %s or %s", theme, ThemeLight, ThemeDark)
	}
	if err := p.set(ctx, KeyTheme, theme); err != nil {
		return err
	}
	return p.set(ctx, KeyDarkMode, strconv.FormatBool(theme == ThemeDark))
}

// ToggleTheme flips between light and dark and returns the new theme.
func (p *Prefs) ToggleTheme(ctx context.Context) (string, error) {
	cur, err := p.Theme(ctx)
	if err != nil {
		return "", err
	}
	next := ThemeDark
	if cur == ThemeDark {
		next = ThemeLight
	}
	if err := p.SetTheme(ctx, next); err != nil {
		return "", err
	}
	return next, nil
}

// Snapshot reads every preference.
func (p *Prefs) Snapshot(ctx context.Context) (Snapshot, error) {
	var s Snapshot
	var err error
	if s.PhoneNumber, err = p.PhoneNumber(ctx); err != nil {
		return Snapshot{}, err
	}
	if s.SessionID, err = p.SessionID(ctx); err != nil {
		return Snapshot{}, err
	}
	if s.DarkMode, err = p.DarkMode(ctx); err != nil {
		return Snapshot{}, err
	}
	if s.Theme, err = p.Theme(ctx); err != nil {
		return Snapshot{}, err
	}
	if s.User, err = p.User(ctx); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}
