package commands

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	foundationerrors "git.home.luguber.info/inful/twbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/twbuilder/internal/logfields"
	"git.home.luguber.info/inful/twbuilder/internal/metrics"
	"git.home.luguber.info/inful/twbuilder/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Debounce time.Duration `help:"Quiet period before a change triggers a run (overrides watch.debounce)"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reg := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(reg)

	e, err := root.setup(ctx, g, recorder, true)
	if err != nil {
		return err
	}

	if e.cfg.Metrics.Enabled {
		srv := &http.Server{
			Addr:              e.cfg.Metrics.Address,
			Handler:           metricsMux(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			e.logger.Info("Serving metrics", slog.String("address", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				e.logger.Error("Metrics server failed", logfields.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	debounce := e.cfg.Watch.Debounce
	if w.Debounce > 0 {
		debounce = w.Debounce
	}
	driver := watch.New(watch.Options{
		Root:     e.cfg.SourceDir,
		Graph:    e.builder.WatchRun(),
		Executor: e.executor,
		Server:   e.server,
		Debounce: debounce,
		Logger:   e.logger,
		Recorder: recorder,
	})
	if err := driver.Run(ctx); err != nil {
		if _, ok := foundationerrors.AsClassified(err); ok {
			return err
		}
		return foundationerrors.WrapError(err, foundationerrors.CategoryRuntime, "watch failed").Build()
	}
	return nil
}

func metricsMux(reg *prom.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(reg))
	return mux
}
