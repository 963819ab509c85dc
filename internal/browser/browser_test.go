package browser

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestOpen_RequiresPageURL(t *testing.T) {
	_, err := Open(context.Background(), Config{PageURL: "   "})
	if !errors.Is(err, ErrNoPageURL) {
		t.Fatalf("Open error = %v, want ErrNoPageURL", err)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{PageURL: " http://localhost:3000 ", RemoteURL: " ws://x "}
	cfg.defaults()

	if cfg.PageURL != "http://localhost:3000" || cfg.RemoteURL != "ws://x" {
		t.Fatalf("urls not trimmed: %+v", cfg)
	}
	if cfg.NavigateTimeout != 30*time.Second {
		t.Fatalf("NavigateTimeout = %v, want 30s", cfg.NavigateTimeout)
	}
	if cfg.Logger == nil {
		t.Fatalf("Logger = nil, want default")
	}
}

func TestClose_Idempotent(t *testing.T) {
	s := &Session{}
	if err := s.Close(); err != nil {
		t.Fatalf("Close = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close = %v", err)
	}
}
