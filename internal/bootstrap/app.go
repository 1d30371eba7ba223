package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/yanqian/phytocast/internal/infra/config"
	"github.com/yanqian/phytocast/internal/infra/scheduler"
)

// App owns the API server and the background export schedule.
type App struct {
	cfg       *config.Config
	logger    *slog.Logger
	server    *http.Server
	scheduler *scheduler.Scheduler
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, sched *scheduler.Scheduler) *App {
	return &App{cfg: cfg, logger: logger.With("component", "bootstrap"), server: server, scheduler: sched}
}

// Run binds the listener, starts serving and the export schedule, and blocks
// until ctx is cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.server.Addr, err)
	}

	if a.scheduler != nil {
		if err := a.scheduler.Start(); err != nil {
			_ = ln.Close()
			return fmt.Errorf("start scheduler: %w", err)
		}
		defer a.scheduler.Stop()
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening",
			"address", ln.Addr().String(),
			"forecast_timezone", a.cfg.Forecast.Timezone,
			"prediction_endpoint", a.cfg.Prediction.Endpoint,
		)
		serveErr <- a.server.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := a.cfg.HTTP.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	a.logger.Info("shutting down", "timeout", timeout.String())
	return a.server.Shutdown(shutdownCtx)
}
