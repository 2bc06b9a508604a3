package server_test

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Tyrowin/relaychat/internal/relay"
	"github.com/Tyrowin/relaychat/internal/server"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

const readTimeout = 2 * time.Second

type testServer struct {
	hub    *server.Hub
	http   *httptest.Server
	wsURL  string
	config server.Config
}

// startTestServer runs a hub and an httptest server around it. Both are
// shut down when the test ends.
func startTestServer(t *testing.T, customize func(cfg *server.Config)) *testServer {
	t.Helper()

	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	cfg := server.NewConfig()
	if customize != nil {
		customize(&cfg)
	}

	hub := server.NewHub(log, relay.NewEngine(log))
	go hub.Run()

	httpServer := httptest.NewServer(server.SetupRoutes(log, hub, cfg))
	t.Cleanup(func() {
		_ = hub.Shutdown(5 * time.Second)
		httpServer.Close()
	})

	return &testServer{
		hub:    hub,
		http:   httpServer,
		wsURL:  "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/ws",
		config: cfg,
	}
}

// connect dials the relay with the given Origin header (none if empty).
func (s *testServer) connect(t *testing.T, origin string) *websocket.Conn {
	t.Helper()

	conn, err := s.dial(origin)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func (s *testServer) dial(origin string) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	headers := http.Header{}
	if origin != "" {
		headers.Set("Origin", origin)
	}

	conn, resp, err := dialer.Dial(s.wsURL, headers)
	if resp != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

// connectAndSettle connects a client and consumes its welcome and the user
// count it triggered. It returns the connection and its session id.
func (s *testServer) connectAndSettle(t *testing.T, expectedCount int) (*websocket.Conn, string) {
	t.Helper()

	conn := s.connect(t, "")
	welcome := readMessage(t, conn)
	require.Equal(t, relay.TypeSystem, welcome["type"])
	require.Equal(t, "Connected to chat server", welcome["message"])
	clientID, ok := welcome["clientId"].(string)
	require.True(t, ok)
	require.NotEmpty(t, clientID)

	count := readMessage(t, conn)
	require.Equal(t, relay.TypeUserCount, count["type"])
	require.Equal(t, float64(expectedCount), count["count"])
	return conn, clientID
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(readTimeout)))
	var msg map[string]any
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func sendJSON(t *testing.T, conn *websocket.Conn, payload any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(payload))
}

// expectNoMessage asserts nothing arrives within timeout. A timed out read
// leaves the gorilla connection unusable, so call it last.
func expectNoMessage(t *testing.T, conn *websocket.Conn, timeout time.Duration) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(timeout)))
	_, data, err := conn.ReadMessage()
	if err == nil {
		t.Fatalf("expected no message, got %s", data)
	}
}

func closeGracefully(t *testing.T, conn *websocket.Conn) {
	t.Helper()

	err := conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	require.NoError(t, err)
	_ = conn.Close()
}
