package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/five82/portfolio-finder/internal/config"
	"github.com/five82/portfolio-finder/internal/finder"
	"github.com/five82/portfolio-finder/internal/logging"
	"github.com/five82/portfolio-finder/internal/pam"
	"github.com/five82/portfolio-finder/internal/prefs"
	"github.com/five82/portfolio-finder/internal/session"
	"github.com/five82/portfolio-finder/internal/state"
	"github.com/five82/portfolio-finder/internal/ui"
)

// Options configure the Portfolio Finder application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/portfolio-finder/prefs.toml
}

// Run boots the Portfolio Finder TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		return fmt.Errorf("load preferences: %w", err)
	}

	logger, logFile, err := logging.OpenFile(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer func() { _ = logFile.Close() }()

	logger.Info().
		Str("endpoint", cfg.Search.Endpoint).
		Str("token_url", cfg.Session.TokenURL).
		Dur("timeout", cfg.Session.Timeout).
		Msg("portfolio finder starting")
	if !cfg.Session.HasCredentials() {
		logger.Warn().Msg("no session credentials configured; searches will fail to connect")
	}

	controller := newController(cfg, nil, logger)

	err = ui.Run(ui.Options{
		Context:   ctx,
		Finder:    controller,
		Logger:    logger.With().Str("component", "ui").Logger(),
		LogPath:   cfg.LogFile,
		ThemeName: userPrefs.Theme,
		MaxCount:  userPrefs.MaxCount,
		PrefsPath: opts.PrefsPath,
	})
	logger.Info().Err(err).Msg("portfolio finder stopped")
	return err
}

// sessionDefinition maps the session config section to a session definition.
func sessionDefinition(c config.SessionConfig) session.Definition {
	return session.Definition{
		AppKey:       c.AppKey,
		Username:     c.Username,
		Password:     c.Password,
		ClientSecret: c.ClientSecret,
		TokenURL:     c.TokenURL,
		Scopes:       c.Scopes,
		Timeout:      c.Timeout,
	}
}

// newController wires the session, search client and controller state.
// A nil httpClient uses one built from the configured timeout.
func newController(cfg config.Config, httpClient *http.Client, logger zerolog.Logger) *finder.Controller {
	sessOpts := []session.Option{session.WithLogger(logger.With().Str("component", "session").Logger())}
	if httpClient != nil {
		sessOpts = append(sessOpts, session.WithHTTPClient(httpClient))
	}
	sess := session.New(sessionDefinition(cfg.Session), sessOpts...)

	client := pam.NewClient(sess,
		pam.WithEndpoint(cfg.Search.Endpoint),
		pam.WithRateLimit(cfg.Search.RateLimit),
		pam.WithLogger(logger.With().Str("component", "pam").Logger()),
	)

	return finder.New(sess, client, &state.Store{},
		finder.WithLogger(logger.With().Str("component", "finder").Logger()),
		finder.WithOnConnected(func() { session.SetDefault(sess) }),
	)
}
