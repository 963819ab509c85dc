package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/five82/stylefix/internal/config"
)

// newLogger returns a slog text logger. With the console up, stderr belongs
// to the terminal UI, so logs go to the log file the console tails.
func newLogger(cfg config.Config, console bool, stderr io.Writer) (*slog.Logger, func() error, error) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if !console {
		return slog.New(slog.NewTextHandler(stderr, opts)), func() error { return nil }, nil
	}

	path := cfg.LogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return slog.New(slog.NewTextHandler(f, opts)), f.Close, nil
}
