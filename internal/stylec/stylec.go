// Package stylec compiles SCSS sources to CSS through an external compiler.
package stylec

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// OutputStyle selects minified or readable CSS.
type OutputStyle string

const (
	StyleCompressed OutputStyle = "compressed"
	StyleExpanded   OutputStyle = "expanded"
)

// Compiler turns one stylesheet into CSS. loadPath is the directory imports resolve against.
type Compiler interface {
	Compile(ctx context.Context, src []byte, loadPath string) ([]byte, error)
}

// SassCLI runs the Dart Sass command line compiler reading from stdin.
type SassCLI struct {
	// Command is the executable followed by fixed leading arguments.
	Command []string
	Style   OutputStyle
}

// NewSassCLI returns a compiler invoking command with the given output style.
func NewSassCLI(command []string, style OutputStyle) *SassCLI {
	if len(command) == 0 {
		command = []string{"sass"}
	}
	if style == "" {
		style = StyleCompressed
	}
	return &SassCLI{Command: command, Style: style}
}

// Args returns the arguments passed after the command for loadPath.
func (s *SassCLI) Args(loadPath string) []string {
	args := append([]string(nil), s.Command[1:]...)
	return append(args,
		"--stdin",
		"--no-source-map",
		"--style="+string(s.Style),
		"--load-path="+loadPath,
	)
}

// Compile feeds src to the compiler and returns its stdout.
func (s *SassCLI) Compile(ctx context.Context, src []byte, loadPath string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, s.Command[0], s.Args(loadPath)...)
	cmd.Stdin = bytes.NewReader(src)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s failed: %w: %s", s.Command[0], err, msg)
		}
		return nil, fmt.Errorf("%s failed: %w", s.Command[0], err)
	}
	return stdout.Bytes(), nil
}
