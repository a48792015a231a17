package toolclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cleared-dev/fidash/internal/model"
	"github.com/cleared-dev/fidash/internal/payload"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeBackend mimics /check-session and /tool for a single valid session.
type fakeBackend struct {
	session string
	phone   string
	payload map[model.Tool]string
	fail    map[model.Tool]int

	mu        sync.Mutex
	toolCalls []string
	inFlight  atomic.Int32
	maxFlight atomic.Int32
	delay     time.Duration
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sid := r.URL.Query().Get("sessionId")
	switch r.URL.Path {
	case "/check-session":
		w.Header().Set("Content-Type", "application/json")
		if sid != f.session {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"valid": false, "message": "Invalid or expired session"}`))
			return
		}
		_, _ = w.Write([]byte(`{"valid": true, "phoneNumber": "` + f.phone + `"}`))
	case "/tool":
		n := f.inFlight.Add(1)
		defer f.inFlight.Add(-1)
		for {
			cur := f.maxFlight.Load()
			if n <= cur || f.maxFlight.CompareAndSwap(cur, n) {
				break
			}
		}
		time.Sleep(f.delay)

		tool := model.Tool(r.URL.Query().Get("tool"))
		f.mu.Lock()
		f.toolCalls = append(f.toolCalls, string(tool))
		f.mu.Unlock()

		if sid != f.session {
			http.Error(w, "Invalid or expired session", http.StatusUnauthorized)
			return
		}
		if code, ok := f.fail[tool]; ok {
			http.Error(w, "boom", code)
			return
		}
		body, ok := f.payload[tool]
		if !ok {
			body = `{}`
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeBackend) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.toolCalls...)
}

func newTestClient(t *testing.T, f *fakeBackend, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return New(srv.URL, 5*time.Second, append([]Option{WithHTTPClient(srv.Client())}, opts...)...)
}

func TestCheckSession_Valid(t *testing.T) {
	c := newTestClient(t, &fakeBackend{session: "abc", phone: "2222222222"})

	s, err := c.CheckSession(context.Background(), "abc")
	require.NoError(t, err)
	assert.True(t, s.Valid)
	assert.Equal(t, "2222222222", s.PhoneNumber)
}

func TestCheckSession_Invalid(t *testing.T) {
	f := &fakeBackend{session: "abc"}
	c := newTestClient(t, f)

	_, err := c.CheckSession(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrInvalidSession)
	assert.Empty(t, f.calls())
}

func TestCheckSession_ValidFalseWith200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"valid": false}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, WithHTTPClient(srv.Client()))
	_, err := c.CheckSession(context.Background(), "abc")
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestCheckSession_Missing(t *testing.T) {
	c := New("http://127.0.0.1:1", time.Second)
	_, err := c.CheckSession(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingSession)
}

func TestCheckSession_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, WithHTTPClient(srv.Client()))
	_, err := c.CheckSession(context.Background(), "abc")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidSession)
	assert.Contains(t, err.Error(), "unexpected status 502")
}

func TestFetchTool(t *testing.T) {
	c := newTestClient(t, &fakeBackend{
		session: "abc",
		payload: map[model.Tool]string{model.ToolNetWorth: `{"netWorthResponse":{}}`},
	})

	raw, err := c.FetchTool(context.Background(), "abc", model.ToolNetWorth)
	require.NoError(t, err)
	assert.JSONEq(t, `{"netWorthResponse":{}}`, string(raw))
}

func TestFetchTool_Errors(t *testing.T) {
	c := newTestClient(t, &fakeBackend{
		session: "abc",
		payload: map[model.Tool]string{model.ToolEPFDetails: `not json`},
		fail:    map[model.Tool]int{model.ToolCreditReport: http.StatusInternalServerError},
	})

	_, err := c.FetchTool(context.Background(), "abc", model.ToolCreditReport)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")

	_, err = c.FetchTool(context.Background(), "abc", model.ToolEPFDetails)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid JSON")
}

func TestFetchAll_SequentialInOrder(t *testing.T) {
	f := &fakeBackend{
		session: "abc",
		fail:    map[model.Tool]int{model.ToolMFTransactions: http.StatusInternalServerError},
	}
	c := newTestClient(t, f)

	raw := c.FetchAll(context.Background(), "abc")
	require.Len(t, raw, 6)

	var want []string
	for _, tool := range model.AllTools() {
		want = append(want, string(tool))
	}
	assert.Equal(t, want, f.calls())
	assert.Equal(t, int32(1), f.maxFlight.Load())

	assert.True(t, raw[model.ToolMFTransactions].Failed())
	assert.JSONEq(t, `{"error":"Failed to fetch"}`, string(raw[model.ToolMFTransactions]))
	assert.Equal(t, []model.Tool{model.ToolMFTransactions}, raw.FailedTools())
}

func TestFetchAll_Concurrent(t *testing.T) {
	f := &fakeBackend{
		session: "abc",
		delay:   50 * time.Millisecond,
		payload: map[model.Tool]string{model.ToolStockTransactions: `{"x":1}`},
		fail:    map[model.Tool]int{model.ToolNetWorth: http.StatusNotFound},
	}
	c := newTestClient(t, f, WithConcurrentFetch(true))

	raw := c.FetchAll(context.Background(), "abc")
	require.Len(t, raw, 6)
	assert.ElementsMatch(t, func() []string {
		var all []string
		for _, tool := range model.AllTools() {
			all = append(all, string(tool))
		}
		return all
	}(), f.calls())
	assert.Greater(t, f.maxFlight.Load(), int32(1))
	assert.True(t, raw[model.ToolNetWorth].Failed())
	assert.JSONEq(t, `{"x":1}`, string(raw[model.ToolStockTransactions]))
}

func TestFetchAll_UnreachableMarksEveryTool(t *testing.T) {
	c := New("http://127.0.0.1:1", 200*time.Millisecond)
	raw := c.FetchAll(context.Background(), "abc")
	require.Len(t, raw, 6)
	assert.Len(t, raw.FailedTools(), 6)
	c.http.CloseIdleConnections()
}

func TestFetchAll_LogsSchemaViolations(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	f := &fakeBackend{
		session: "abc",
		payload: map[model.Tool]string{model.ToolNetWorth: `[1,2]`},
	}
	c := newTestClient(t, f, WithSchemas(payload.DefaultRegistry()), WithLogger(zap.New(core)))

	raw := c.FetchAll(context.Background(), "abc")
	assert.False(t, raw[model.ToolNetWorth].Failed(), "schema violations do not mark the tool failed")

	entries := logs.FilterMessage("tool payload does not match schema").All()
	require.Len(t, entries, 1)
	assert.Equal(t, string(model.ToolNetWorth), entries[0].ContextMap()["tool"])
}

func TestLoginURL(t *testing.T) {
	c := New("http://localhost:8080/", time.Second)
	assert.Equal(t, "http://localhost:8080/mockWebPage?sessionId=temp1", c.LoginURL("temp1"))
}
