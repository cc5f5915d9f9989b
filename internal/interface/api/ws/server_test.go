package ws

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pladderBot/internal/app/events"
	"pladderBot/internal/domain"
	"pladderBot/internal/script"
)

type fakeDispatcher struct {
	mu   sync.Mutex
	seen []domain.Message
}

func (f *fakeDispatcher) RunCommand(_ context.Context, msg domain.Message) domain.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, msg)
	return domain.Result{Text: strings.ToUpper(msg.Text), Command: "upper"}
}

func (f *fakeDispatcher) LastContext(network, channel string) (script.Context, bool) {
	if network != "twitch" || channel != "#c" {
		return script.Context{}, false
	}
	return script.Context{Metadata: script.Metadata{
		Datetime: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Network:  network,
		Channel:  channel,
		Nick:     "nick",
		Text:     "echo hi",
	}}, true
}

type fakeLister struct {
	names []string
	err   error
}

func (f fakeLister) ListCommands(context.Context) ([]string, error) {
	return f.names, f.err
}

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(NewServer(cfg).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func dial(t *testing.T, ts *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, req any) domain.Result {
	t.Helper()
	require.NoError(t, conn.WriteJSON(req))
	var res domain.Result
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&res))
	return res
}

func TestCommandWS(t *testing.T) {
	t.Run("runs commands", func(t *testing.T) {
		d := &fakeDispatcher{}
		ts := newTestServer(t, Config{Dispatcher: d, Rate: 100})
		conn := dial(t, ts, "/ws/command")

		res := roundTrip(t, conn, commandRequest{Timestamp: 1772366400, Network: "Twitch", Channel: "#c", Nick: "n", Text: "echo hi"})
		assert.Equal(t, domain.Result{Text: "ECHO HI", Command: "upper"}, res)

		res = roundTrip(t, conn, map[string]string{"text": "x"})
		assert.Equal(t, "X", res.Text)

		d.mu.Lock()
		defer d.mu.Unlock()
		require.Len(t, d.seen, 2)
		assert.Equal(t, domain.PlatformTwitch, d.seen[0].Network)
		assert.Equal(t, time.Unix(1772366400, 0).UTC(), d.seen[0].Timestamp)
		assert.Equal(t, domain.PlatformAPI, d.seen[1].Network)
		assert.Equal(t, "web-user", d.seen[1].Nick)
	})

	t.Run("invalid frames", func(t *testing.T) {
		ts := newTestServer(t, Config{Dispatcher: &fakeDispatcher{}, Rate: 100})
		conn := dial(t, ts, "/ws/command")

		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
		var res domain.Result
		require.NoError(t, conn.ReadJSON(&res))
		assert.Equal(t, invalidRequest, res)

		assert.Equal(t, invalidRequest, roundTrip(t, conn, commandRequest{Text: "   "}))
	})

	t.Run("oversized frames close the connection", func(t *testing.T) {
		d := &fakeDispatcher{}
		ts := newTestServer(t, Config{Dispatcher: d, Rate: 100})
		conn := dial(t, ts, "/ws/command")

		require.NoError(t, conn.WriteJSON(commandRequest{Text: strings.Repeat("[", maxFrameSize)}))
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		_, _, err := conn.ReadMessage()
		require.Error(t, err)

		d.mu.Lock()
		defer d.mu.Unlock()
		assert.Empty(t, d.seen)
	})

	t.Run("throttles per connection", func(t *testing.T) {
		ts := newTestServer(t, Config{Dispatcher: &fakeDispatcher{}, Rate: 0.001})
		conn := dial(t, ts, "/ws/command")

		assert.Equal(t, "A", roundTrip(t, conn, commandRequest{Text: "a"}).Text)
		assert.Equal(t, throttled, roundTrip(t, conn, commandRequest{Text: "b"}))

		other := dial(t, ts, "/ws/command")
		assert.Equal(t, "C", roundTrip(t, other, commandRequest{Text: "c"}).Text)
	})
}

func TestEventsWS(t *testing.T) {
	bus := events.NewBus(nil)
	defer bus.Close()
	ts := newTestServer(t, Config{Events: bus})
	conn := dial(t, ts, "/ws/events")

	bus.Publish(events.TopicCommandResult, events.CommandResultDTO{Text: "hi", Command: "echo"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var got struct {
		Type string                  `json:"type"`
		Data events.CommandResultDTO `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, events.TopicCommandResult, got.Type)
	assert.Equal(t, "hi", got.Data.Text)
	assert.Equal(t, "echo", got.Data.Command)
}

func get(t *testing.T, url string) (int, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func TestAPI(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pladder_commands_total 0\n"))
	})
	ts := newTestServer(t, Config{
		Dispatcher: &fakeDispatcher{},
		Commands:   fakeLister{names: []string{"echo", "hello"}},
		Metrics:    metrics,
	})

	status, body := get(t, ts.URL+"/healthz")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", string(body))

	status, body = get(t, ts.URL+"/api/commands")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"commands":["echo","hello"]}`, string(body))

	status, body = get(t, ts.URL+"/api/last-context?network=twitch&channel=%23c")
	assert.Equal(t, http.StatusOK, status)
	var lc lastContextResponse
	require.NoError(t, json.Unmarshal(body, &lc))
	assert.Equal(t, "2026-03-01T12:00:00Z", lc.Datetime)
	assert.Equal(t, "nick", lc.Nick)
	assert.Equal(t, map[string]string{}, lc.Environment)

	status, _ = get(t, ts.URL+"/api/last-context?network=kick&channel=1")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = get(t, ts.URL+"/api/last-context")
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = get(t, ts.URL+"/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "pladder_commands_total")
}

func TestAPICommandsError(t *testing.T) {
	ts := newTestServer(t, Config{Commands: fakeLister{err: errors.New("db down")}})

	status, body := get(t, ts.URL+"/api/commands")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.JSONEq(t, `{"error":"could not list commands"}`, string(body))

	status, _ = get(t, ts.URL+"/ws/command")
	assert.Equal(t, http.StatusNotFound, status)
}
