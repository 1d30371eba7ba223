package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/phytocast/internal/infra/config"
	"github.com/yanqian/phytocast/internal/infra/scheduler"
)

func newTestApp(addr string) *App {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{HTTP: config.HTTPConfig{Address: addr, ShutdownTimeout: time.Second}}
	server := &http.Server{Addr: addr, Handler: http.NotFoundHandler()}
	return NewApp(cfg, logger, server, scheduler.New(0, nil, logger))
}

func TestRunStopsOnContextCancel(t *testing.T) {
	app := newTestApp("127.0.0.1:0")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}

func TestRunFailsWhenAddressIsTaken(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	app := newTestApp(ln.Addr().String())
	err = app.Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "listen on")
}
