package chat

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/fidash/internal/model"
	"github.com/cleared-dev/fidash/internal/store"
)

type stubAgent struct {
	reply   string
	err     error
	prompts []string
	users   []string
}

func (a *stubAgent) Send(_ context.Context, message, userID string) (string, error) {
	a.prompts = append(a.prompts, message)
	a.users = append(a.users, userID)
	return a.reply, a.err
}

func newTestService(t *testing.T, agent Agent) (*Service, *store.Prefs) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "fidash.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	prefs := st.Prefs()
	svc := NewService(agent, prefs, nil)
	at := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return at }
	n := 0
	svc.newID = func() string { n++; return fmt.Sprintf("m%d", n) }
	return svc, prefs
}

func TestWelcomeMessage(t *testing.T) {
	assert.Contains(t, WelcomeMessage(""), "Hi there!")
	assert.Contains(t, WelcomeMessage("Asha"), "Hi Asha! I'm your Fi financial assistant.")
}

func TestHistory_WelcomeWhenEmpty(t *testing.T) {
	svc, prefs := newTestService(t, &stubAgent{})
	ctx := context.Background()

	msgs, err := svc.History(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, model.RoleAssistant, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "Hi there!")

	require.NoError(t, prefs.SetUser(ctx, &model.User{UID: "u1", DisplayName: "Asha"}))
	msgs, err = svc.History(ctx)
	require.NoError(t, err)
	assert.Contains(t, msgs[0].Content, "Hi Asha!")
}

func TestSend_PersistsConversation(t *testing.T) {
	agent := &stubAgent{reply: "Your net worth is 50000."}
	svc, prefs := newTestService(t, agent)
	ctx := context.Background()
	require.NoError(t, prefs.SetPhoneNumber(ctx, "5555555555"))

	answer, err := svc.Send(ctx, "  what is my net worth?  ")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAssistant, answer.Role)
	assert.Equal(t, "Your net worth is 50000.", answer.Content)

	assert.Equal(t, []string{"what is my net worth?"}, agent.prompts)
	assert.Equal(t, []string{"5555555555"}, agent.users)

	history, ok, err := prefs.ChatHistory(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, history, 3)
	assert.Equal(t, model.RoleAssistant, history[0].Role)
	assert.Equal(t, model.RoleUser, history[1].Role)
	assert.Equal(t, "what is my net worth?", history[1].Content)
	assert.Equal(t, answer, history[2])
}

func TestSend_AgentErrorBecomesReply(t *testing.T) {
	agent := &stubAgent{err: errors.New("API error: 503 - Service Unavailable")}
	svc, prefs := newTestService(t, agent)
	ctx := context.Background()

	answer, err := svc.Send(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, "API error: 503 - Service Unavailable", answer.Content)
	assert.Len(t, agent.prompts, 1, "no retry")

	history, _, err := prefs.ChatHistory(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 3)
}

func TestSend_EmptyPrompt(t *testing.T) {
	agent := &stubAgent{}
	svc, _ := newTestService(t, agent)

	_, err := svc.Send(context.Background(), " \n\t")
	assert.ErrorIs(t, err, ErrEmptyPrompt)
	assert.Empty(t, agent.prompts)
}

func TestClear(t *testing.T) {
	svc, prefs := newTestService(t, &stubAgent{reply: "ok"})
	ctx := context.Background()

	_, err := svc.Send(ctx, "hi")
	require.NoError(t, err)
	require.NoError(t, svc.Clear(ctx))

	_, ok, err := prefs.ChatHistory(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	msgs, err := svc.History(ctx)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestNewService_UsesUUIDs(t *testing.T) {
	svc := NewService(&stubAgent{}, nil, nil)
	m := svc.message(model.RoleUser, "x")
	_, err := uuid.Parse(m.ID)
	assert.NoError(t, err)
}
