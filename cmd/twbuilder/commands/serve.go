package commands

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	foundationerrors "git.home.luguber.info/inful/twbuilder/internal/foundation/errors"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct{}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	e, err := root.setup(ctx, g, nil, false)
	if err != nil {
		return err
	}
	if err := e.server.Serve(ctx); err != nil {
		return err
	}
	exited := e.server.Done()

	select {
	case <-ctx.Done():
		e.logger.Info("Shutdown signal received, stopping server...")
	case <-exited:
		return foundationerrors.ServerError("server exited unexpectedly").Build()
	}

	stopCtx, stop := context.WithTimeout(context.Background(), 30*time.Second)
	defer stop()
	return e.server.StopAnyRunningServer(stopCtx)
}
