package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/five82/stylefix/internal/bridge"
	"github.com/five82/stylefix/internal/config"
	"github.com/five82/stylefix/internal/prefs"
	"github.com/five82/stylefix/internal/ui"
)

// Options configure a stylefix run. Zero values defer to the config file.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/stylefix/prefs.toml
	Listen     string
	PageURL    string
	// PollInterval overrides the configured poll interval when positive.
	PollInterval time.Duration
	// Console runs the terminal console and sends logs to the log file.
	Console bool
	// Stderr receives logs when the console is off. Default: os.Stderr.
	Stderr io.Writer
}

// Run boots the engine and blocks until ctx is cancelled or the console
// exits.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyOverrides(&cfg, opts)

	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	logger, closeLog, err := newLogger(cfg, opts.Console, stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	eng, err := Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer eng.Close()

	if err := bridge.Register(eng.Handle); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		return eng.Server.Run(gctx)
	})
	g.Go(func() error {
		eng.Injector.Start(gctx)
		<-gctx.Done()
		eng.Injector.Stop()
		return nil
	})
	if opts.Console {
		userPrefs := prefs.Load(opts.PrefsPath)
		g.Go(func() error {
			// Quitting the console ends the run.
			defer cancel()
			return ui.Run(ui.Options{
				Context:       gctx,
				Engine:        eng.Handle,
				Store:         eng.Injector.Store(),
				ApplicationID: cfg.ApplicationID,
				PageURL:       cfg.Browser.PageURL,
				BridgeAddr:    eng.Server.Addr(),
				LogPath:       cfg.LogPath(),
				ThemeName:     userPrefs.Theme,
				View:          userPrefs.View,
				PrefsPath:     opts.PrefsPath,
			})
		})
	}

	return g.Wait()
}

func applyOverrides(cfg *config.Config, opts Options) {
	if opts.Listen != "" {
		cfg.Server.Listen = opts.Listen
	}
	if opts.PageURL != "" {
		cfg.Browser.PageURL = opts.PageURL
	}
	if opts.PollInterval > 0 {
		cfg.PollInterval = opts.PollInterval
	}
}
