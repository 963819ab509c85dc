// Package browser opens the page fixes are injected into, either in a
// locally launched Chrome or through a remote DevTools endpoint.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/five82/stylefix/internal/dom"
)

// ErrNoPageURL is returned by Open when no page is configured.
var ErrNoPageURL = errors.New("browser: page url is empty")

// Config configures a Session.
type Config struct {
	PageURL string
	// RemoteURL is the DevTools WebSocket URL of a running Chrome. Empty
	// launches a local one.
	RemoteURL string
	Headless  bool
	// NavigateTimeout bounds navigation and load. Default: 30s.
	NavigateTimeout time.Duration
	Logger          *slog.Logger
}

func (c *Config) defaults() {
	c.PageURL = strings.TrimSpace(c.PageURL)
	c.RemoteURL = strings.TrimSpace(c.RemoteURL)
	if c.NavigateTimeout <= 0 {
		c.NavigateTimeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Session owns one browser connection and the page under control.
type Session struct {
	cfg     Config
	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	page    *rod.Page
	closed  bool
}

// Open connects to Chrome and navigates to cfg.PageURL.
func Open(ctx context.Context, cfg Config) (*Session, error) {
	cfg.defaults()
	if cfg.PageURL == "" {
		return nil, ErrNoPageURL
	}

	s := &Session{cfg: cfg}
	if err := s.connect(); err != nil {
		return nil, err
	}
	if err := s.navigate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Session) connect() error {
	log := s.cfg.Logger

	wsURL := s.cfg.RemoteURL
	if wsURL != "" {
		log.Info("browser: connecting to remote", "url", wsURL)
	} else {
		l := launcher.New().Headless(s.cfg.Headless)
		u, err := l.Launch()
		if err != nil {
			return fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		s.lnch = l
		log.Info("browser: launched local chrome", "url", wsURL, "headless", s.cfg.Headless)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		s.cleanupLauncher()
		return fmt.Errorf("browser: connect: %w", err)
	}
	if err := b.IgnoreCertErrors(true); err != nil {
		log.Warn("browser: ignore cert errors failed", "error", err)
	}
	s.browser = b
	return nil
}

func (s *Session) navigate(ctx context.Context) error {
	page, err := s.browser.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		return fmt.Errorf("browser: create tab: %w", err)
	}

	navCtx, cancel := context.WithTimeout(ctx, s.cfg.NavigateTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(s.cfg.PageURL); err != nil {
		_ = page.Close()
		return fmt.Errorf("browser: navigate %s: %w", s.cfg.PageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		s.cfg.Logger.Warn("browser: wait load timeout", "url", s.cfg.PageURL, "error", err)
	}

	s.mu.Lock()
	s.page = page
	s.mu.Unlock()
	s.cfg.Logger.Info("browser: page ready", "url", s.cfg.PageURL)
	return nil
}

// Document returns the page's shared style node as a dom.Document.
func (s *Session) Document() dom.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return dom.NewPage(s.page, dom.StyleID)
}

// PageURL returns the page under control.
func (s *Session) PageURL() string { return s.cfg.PageURL }

// Close closes the page and the browser, and kills a launched Chrome.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if s.page != nil {
		if err := s.page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close page: %w", err))
		}
		s.page = nil
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
		s.browser = nil
	}
	s.cleanupLauncher()
	return errors.Join(errs...)
}

func (s *Session) cleanupLauncher() {
	if s.lnch != nil {
		s.lnch.Cleanup()
		s.lnch = nil
	}
}
