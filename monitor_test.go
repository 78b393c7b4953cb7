package rcard

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mdouchement/logger"
	"github.com/mdouchement/rcard/rcar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T) context.Context {
	t.Helper()

	h := logger.NewSlogTextHandler(io.Discard, &logger.SlogTextOption{
		Level:            slog.LevelDebug,
		DisableTimestamp: true,
	})
	ctx, cancel := context.WithCancel(logger.WithLogger(context.Background(), logger.WrapSlogHandler(h)))
	t.Cleanup(cancel)
	return ctx
}

func unixClient(socket string) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, "unix", socket)
			},
		},
	}
}

func nextState(t *testing.T, r *bufio.Reader) MotorState {
	t.Helper()

	data, err := ReadSSE(r)
	require.NoError(t, err)

	var s MotorState
	require.NoError(t, json.Unmarshal(data, &s))
	return s
}

func TestMonitor(t *testing.T) {
	ctx := testContext(t)
	socket := filepath.Join(t.TempDir(), "rcard.sock")

	m, err := NewMonitor(socket)
	require.NoError(t, err)
	m.Launch(ctx)

	c, hw, _ := newTestController(t)
	c.OnChange(m.Observe)
	require.NoError(t, c.HandleCommand('b'))
	hw.Calls()

	resp, err := unixClient(socket).Get("http://unix/monitor")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)

	s := nextState(t, r)
	assert.Equal(t, rcar.CommandForward, s.Command)
	assert.Equal(t, "forward", s.Motion)
	assert.Equal(t, uint16(219), s.LeftDuty)
	assert.Equal(t, rcar.DirectionForward, s.Direction)

	require.NoError(t, c.HandleCommand('s'))
	s = nextState(t, r)
	assert.True(t, s.Stopped())
	assert.Equal(t, rcar.CommandStop, s.Command)
}

func TestMonitorShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(testContext(t))
	socket := filepath.Join(t.TempDir(), "rcard.sock")

	// A stale socket file is replaced.
	require.NoError(t, os.WriteFile(socket, nil, 0o600))

	m, err := NewMonitor(socket)
	require.NoError(t, err)
	m.Launch(ctx)

	cancel()
	m.Observe(MotorState{}) // Must not block once stopped

	require.Eventually(t, func() bool {
		_, err := os.Stat(socket)
		return os.IsNotExist(err)
	}, time.Second, 10*time.Millisecond)
}
