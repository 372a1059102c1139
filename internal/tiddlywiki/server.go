package tiddlywiki

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	foundationerrors "git.home.luguber.info/inful/twbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/twbuilder/internal/logfields"
)

// Server owns at most one running development server process.
type Server struct {
	opts Options

	mu   sync.Mutex
	proc *process
	// last is the most recently started process, kept after it exits.
	last *process
}

type process struct {
	id   string
	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

// NewServer returns a Server that has not started anything yet.
func NewServer(opts Options) *Server {
	return &Server{opts: opts.withDefaults()}
}

// Args returns the arguments passed after the command when serving.
func (s *Server) Args() []string {
	return s.opts.args("--listen", s.opts.ServeOptions)
}

// Serve starts the server in the background. The process outlives ctx; it ends only
// through StopAnyRunningServer or on its own.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.proc != nil {
		return foundationerrors.ServerError("server already running").
			WithContext("process_id", s.proc.id).
			Build()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	id := uuid.NewString()
	log := s.opts.Logger.With(slog.String("process_id", id))

	cmd := exec.Command(s.opts.Command[0], s.Args()...) //nolint:gosec // command comes from configuration
	stdout, stderr := s.opts.Stdout, s.opts.Stderr
	var lines []*lineLogger
	if stdout == nil {
		l := newLineLogger(log, slog.LevelInfo, slog.String("stream", "stdout"))
		lines, stdout = append(lines, l), l
	}
	if stderr == nil {
		l := newLineLogger(log, slog.LevelWarn, slog.String("stream", "stderr"))
		lines, stderr = append(lines, l), l
	}
	cmd.Stdout, cmd.Stderr = stdout, stderr
	cmd.WaitDelay = s.opts.StopGrace

	if err := cmd.Start(); err != nil {
		return foundationerrors.ServerError("failed to start server").
			WithCause(err).
			WithContext("command", s.opts.Command[0]).
			Build()
	}

	p := &process{id: id, cmd: cmd, done: make(chan struct{})}
	s.proc, s.last = p, p
	log.Info("Started server", slog.Int("pid", cmd.Process.Pid), slog.Any("options", s.opts.ServeOptions))

	go func() {
		p.err = cmd.Wait()
		for _, l := range lines {
			l.Flush()
		}
		s.mu.Lock()
		if s.proc == p {
			s.proc = nil
		}
		s.mu.Unlock()
		log.Info("Server exited", logfields.Error(p.err))
		close(p.done)
	}()
	return nil
}

// Running reports whether a server process is alive.
func (s *Server) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.proc != nil
}

// Done returns a channel closed when the most recently started process exits. It is
// already closed when that process has exited. Nil when nothing was ever started.
func (s *Server) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	return s.last.done
}

// StopAnyRunningServer terminates the running server and waits for it to exit.
// Without a running server it does nothing.
func (s *Server) StopAnyRunningServer(ctx context.Context) error {
	s.mu.Lock()
	p := s.proc
	s.mu.Unlock()
	if p == nil {
		return nil
	}

	log := s.opts.Logger.With(slog.String("process_id", p.id))
	if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
		log.Debug("SIGTERM failed, killing server", logfields.Error(err))
		_ = p.cmd.Process.Kill()
	}

	grace := time.NewTimer(s.opts.StopGrace)
	defer grace.Stop()
	select {
	case <-p.done:
	case <-grace.C:
		log.Warn("Server did not exit in time, killing it")
		if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			return foundationerrors.ServerError("failed to kill server").WithCause(err).Build()
		}
		<-p.done
	case <-ctx.Done():
		return ctx.Err()
	}
	log.Info("Stopped server")
	return nil
}
