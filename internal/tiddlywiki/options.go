// Package tiddlywiki drives the TiddlyWiki command line: the development server and
// the wiki build used to assemble a plugin into an edition.
package tiddlywiki

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Options configure every TiddlyWiki invocation.
type Options struct {
	WikiDir      string
	ServeOptions []string
	BuildOptions []string
	// Command is the executable followed by fixed leading arguments.
	Command []string
	// Stdout and Stderr receive child output. Nil forwards lines to the logger.
	Stdout io.Writer
	Stderr io.Writer
	// StopGrace is how long a server gets to exit after SIGTERM before it is killed.
	StopGrace time.Duration
	Logger    *slog.Logger
}

func (o Options) withDefaults() Options {
	if len(o.Command) == 0 {
		o.Command = []string{"tiddlywiki"}
	}
	if o.WikiDir == "" {
		o.WikiDir = "."
	}
	if o.StopGrace <= 0 {
		o.StopGrace = 5 * time.Second
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

func (o Options) args(mode string, params []string) []string {
	args := append([]string(nil), o.Command[1:]...)
	args = append(args, o.WikiDir, mode)
	return append(args, params...)
}

// lineLogger writes each complete line it receives as one log record.
type lineLogger struct {
	mu     sync.Mutex
	logger *slog.Logger
	level  slog.Level
	buf    bytes.Buffer
}

func newLineLogger(logger *slog.Logger, level slog.Level, attrs ...any) *lineLogger {
	return &lineLogger{logger: logger.With(attrs...), level: level}
}

func (l *lineLogger) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf.Write(p)
	for {
		line, err := l.buf.ReadString('\n')
		if err != nil {
			// Incomplete line; keep it for the next write.
			l.buf.Reset()
			l.buf.WriteString(line)
			return len(p), nil
		}
		l.emit(line)
	}
}

// Flush logs a trailing partial line.
func (l *lineLogger) Flush() {
	l.mu.Lock()
	defer l.mu.Unlock()
	sc := bufio.NewScanner(&l.buf)
	for sc.Scan() {
		l.emit(sc.Text())
	}
	l.buf.Reset()
}

func (l *lineLogger) emit(line string) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return
	}
	l.logger.Log(context.Background(), l.level, line)
}
