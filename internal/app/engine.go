package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/five82/stylefix/internal/applier"
	"github.com/five82/stylefix/internal/bridge"
	"github.com/five82/stylefix/internal/browser"
	"github.com/five82/stylefix/internal/config"
	"github.com/five82/stylefix/internal/dom"
	"github.com/five82/stylefix/internal/fixsource"
	"github.com/five82/stylefix/internal/injector"
	"github.com/five82/stylefix/internal/metrics"
	"github.com/five82/stylefix/internal/server"
	"github.com/five82/stylefix/internal/state"
)

// Engine is the wired object graph for one run.
type Engine struct {
	Config   config.Config
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Session  *browser.Session // nil when no page is configured
	Document dom.Document
	Applier  *applier.Applier
	Injector *injector.Injector
	Handle   *bridge.Handle
	Server   *server.Server
}

// Build wires the engine from cfg. Nothing is started: the injector is
// stopped and the server is not listening. Without a page URL fixes go to
// an in-memory document, still served at /fixes.css.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	eng := &Engine{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
	}

	if cfg.Browser.PageURL != "" {
		session, err := browser.Open(ctx, browser.Config{
			PageURL:   cfg.Browser.PageURL,
			RemoteURL: cfg.Browser.RemoteURL,
			Headless:  cfg.Browser.Headless,
			Logger:    logger.With("component", "browser"),
		})
		if err != nil {
			return nil, fmt.Errorf("open page: %w", err)
		}
		eng.Session = session
		eng.Document = session.Document()
	} else {
		eng.Document = dom.NewMemory()
	}

	eng.Applier = applier.New(applier.Options{
		Document: eng.Document,
		Logger:   logger.With("component", "applier"),
		Metrics:  eng.Metrics,
	})

	client, err := fixsource.NewClient(fixsource.Options{
		APIURL:        cfg.APIURL,
		ApplicationID: cfg.ApplicationID,
		Limit:         cfg.Limit,
	})
	if err != nil {
		_ = eng.Close()
		return nil, fmt.Errorf("init fix source: %w", err)
	}

	eng.Injector = injector.New(injector.Options{
		Config: injector.Config{
			ApplicationID: cfg.ApplicationID,
			AutoApply:     cfg.AutoApply,
			PollInterval:  cfg.PollInterval,
			ReportStatus:  cfg.ReportStatus,
		},
		Source:   client,
		Reporter: client,
		Applier:  eng.Applier,
		Store:    &state.Store{},
		Metrics:  eng.Metrics,
		Logger:   logger.With("component", "injector"),
	})
	eng.Handle = bridge.New(eng.Injector)

	eng.Server = server.New(server.Options{
		Addr:    cfg.Server.Listen,
		Handle:  eng.Handle,
		Sheet:   eng.Applier,
		Metrics: eng.Metrics,
		Logger:  logger.With("component", "server"),
		Context: ctx,
	})
	return eng, nil
}

// Close stops the injector and releases the browser.
func (e *Engine) Close() error {
	if e.Injector != nil {
		e.Injector.Stop()
	}
	var errs []error
	if e.Session != nil {
		errs = append(errs, e.Session.Close())
	}
	return errors.Join(errs...)
}
