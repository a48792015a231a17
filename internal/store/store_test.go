package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/fidash/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "state", "fidash.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestOpen_ReopenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fidash.db")
	ctx := context.Background()

	st, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, st.Prefs().SetSessionID(ctx, "abc"))
	require.NoError(t, st.Close())

	st, err = Open(path, nil)
	require.NoError(t, err)
	defer st.Close()

	got, err := st.Prefs().SessionID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", got)
}

func TestPrefs_Defaults(t *testing.T) {
	p := openTestStore(t).Prefs()
	ctx := context.Background()

	snap, err := p.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, Snapshot{PhoneNumber: DefaultPhoneNumber, Theme: ThemeLight}, snap)

	msgs, ok, err := p.ChatHistory(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, msgs)
}

func TestPrefs_PhoneNumber(t *testing.T) {
	p := openTestStore(t).Prefs()
	ctx := context.Background()

	require.NoError(t, p.SetPhoneNumber(ctx, "7777777777"))
	got, err := p.PhoneNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "7777777777", got)

	err = p.SetPhoneNumber(ctx, "0000000000")
	assert.ErrorIs(t, err, ErrUnknownPhoneNumber)

	assert.Len(t, PhoneNumbers(), 16)
}

func TestPrefs_CorruptValuesFallBackToDefaults(t *testing.T) {
	p := openTestStore(t).Prefs()
	ctx := context.Background()

	require.NoError(t, p.set(ctx, KeyPhoneNumber, "not-a-profile"))
	require.NoError(t, p.set(ctx, KeyChatHistory, "{broken"))
	require.NoError(t, p.set(ctx, KeyUser, "[]"))
	require.NoError(t, p.set(ctx, KeyDarkMode, "maybe"))
	require.NoError(t, p.set(ctx, KeyTheme, "sepia"))

	phone, err := p.PhoneNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultPhoneNumber, phone)

	_, ok, err := p.ChatHistory(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	u, err := p.User(ctx)
	require.NoError(t, err)
	assert.Nil(t, u)

	dark, err := p.DarkMode(ctx)
	require.NoError(t, err)
	assert.False(t, dark)

	theme, err := p.Theme(ctx)
	require.NoError(t, err)
	assert.Equal(t, ThemeLight, theme)
}

func TestPrefs_ChatHistoryRoundTrip(t *testing.T) {
	p := openTestStore(t).Prefs()
	ctx := context.Background()
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	msgs := []model.Message{
		{ID: "1", Role: model.RoleUser, Content: "hi", CreatedAt: at},
		{ID: "2", Role: model.RoleAssistant, Content: "hello", CreatedAt: at},
	}
	require.NoError(t, p.SetChatHistory(ctx, msgs))

	got, ok, err := p.ChatHistory(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, msgs, got)

	require.NoError(t, p.ClearChatHistory(ctx))
	_, ok, err = p.ChatHistory(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPrefs_User(t *testing.T) {
	p := openTestStore(t).Prefs()
	ctx := context.Background()

	u := &model.User{UID: "u1", DisplayName: "Asha Rao", Email: "asha@example.com"}
	require.NoError(t, p.SetUser(ctx, u))
	got, err := p.User(ctx)
	require.NoError(t, err)
	assert.Equal(t, u, got)

	require.NoError(t, p.SetUser(ctx, nil))
	got, err = p.User(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPrefs_ToggleTheme(t *testing.T) {
	p := openTestStore(t).Prefs()
	ctx := context.Background()

	theme, err := p.ToggleTheme(ctx)
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, theme)
	dark, err := p.DarkMode(ctx)
	require.NoError(t, err)
	assert.True(t, dark)

	theme, err = p.ToggleTheme(ctx)
	require.NoError(t, err)
	assert.Equal(t, ThemeLight, theme)
	dark, err = p.DarkMode(ctx)
	require.NoError(t, err)
	assert.False(t, dark)

	assert.Error(t, p.SetTheme(ctx, "sepia"))
}

func TestProfiles_SaveFetch(t *testing.T) {
	profiles := openTestStore(t).Profiles()
	created := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	profiles.now = func() time.Time { return created }
	ctx := context.Background()

	got, err := profiles.Fetch(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)

	saved, err := profiles.Save(ctx, "u1", model.Profile{
		FullName:       "Asha Rao",
		Age:            "31",
		RiskTolerance:  "moderate",
		FinancialGoals: []model.FinancialGoal{{Type: "house", Details: "2BHK in 5 years"}},
	})
	require.NoError(t, err)
	assert.Equal(t, created, saved.CreatedAt)

	got, err = profiles.Fetch(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Asha Rao", got.FullName)
	assert.Equal(t, created, got.CreatedAt)
	assert.Nil(t, got.UpdatedAt)
	require.Len(t, got.FinancialGoals, 1)
	assert.Equal(t, "house", got.FinancialGoals[0].Type)

	_, err = profiles.Save(ctx, "  ", model.Profile{})
	assert.Error(t, err)
}

func TestProfiles_UpdateProgress(t *testing.T) {
	profiles := openTestStore(t).Profiles()
	created := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	updated := created.Add(48 * time.Hour)
	ctx := context.Background()

	profiles.now = func() time.Time { return created }
	_, err := profiles.Save(ctx, "u1", model.Profile{FullName: "Asha Rao", MonthlyBudget: "40000"})
	require.NoError(t, err)

	profiles.now = func() time.Time { return updated }
	got, err := profiles.UpdateProgress(ctx, "u1", map[string]any{
		"monthlyGoal": "save 10000",
		"createdAt":   "1999-01-01T00:00:00Z",
	})
	require.NoError(t, err)
	assert.Equal(t, "save 10000", got.MonthlyGoal)
	assert.Equal(t, "40000", got.MonthlyBudget)
	assert.Equal(t, created, got.CreatedAt)
	require.NotNil(t, got.UpdatedAt)
	assert.Equal(t, updated, *got.UpdatedAt)

	fetched, err := profiles.Fetch(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, got, fetched)
}

func TestProfiles_UpdateProgressMissing(t *testing.T) {
	profiles := openTestStore(t).Profiles()
	_, err := profiles.UpdateProgress(context.Background(), "ghost", map[string]any{"age": "40"})
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestProfiles_UpdateProgressRejectsWrongTypes(t *testing.T) {
	profiles := openTestStore(t).Profiles()
	ctx := context.Background()
	_, err := profiles.Save(ctx, "u1", model.Profile{FullName: "Asha"})
	require.NoError(t, err)

	_, err = profiles.UpdateProgress(ctx, "u1", map[string]any{"financialGoals": "not a list"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "applying profile update")
}
