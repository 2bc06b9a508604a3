package relay_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/Tyrowin/relaychat/internal/relay"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, time.January, 2, 3, 4, 5, 6_000_000, time.UTC)

const fixedTimestamp = "2025-01-02T03:04:05.006Z"

var errSendFailed = errors.New("send failed")

// fakeConn records every frame it is handed.
type fakeConn struct {
	open     bool
	failSend bool
	frames   [][]byte
}

func newFakeConn() *fakeConn {
	return &fakeConn{open: true}
}

func (c *fakeConn) Send(payload []byte) error {
	if c.failSend {
		return errSendFailed
	}
	c.frames = append(c.frames, append([]byte(nil), payload...))
	return nil
}

func (c *fakeConn) IsOpen() bool {
	return c.open
}

func (c *fakeConn) messages(t *testing.T) []map[string]any {
	t.Helper()
	out := make([]map[string]any, 0, len(c.frames))
	for _, frame := range c.frames {
		var msg map[string]any
		require.NoError(t, json.Unmarshal(frame, &msg))
		out = append(out, msg)
	}
	return out
}

func (c *fakeConn) ofType(t *testing.T, typ string) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, msg := range c.messages(t) {
		if msg["type"] == typ {
			out = append(out, msg)
		}
	}
	return out
}

func (c *fakeConn) reset() {
	c.frames = nil
}

func newTestEngine() *relay.Engine {
	seq := 0
	return relay.NewEngine(
		logs.GetLoggerFromLevel(slog.LevelDebug),
		relay.WithClock(func() time.Time { return fixedNow }),
		relay.WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("client-%d", seq)
		}),
	)
}

func connectAll(t *testing.T, engine *relay.Engine, conns ...*fakeConn) {
	t.Helper()
	for _, conn := range conns {
		_, err := engine.Connect(conn)
		require.NoError(t, err)
	}
}

func resetAll(conns ...*fakeConn) {
	for _, conn := range conns {
		conn.reset()
	}
}
