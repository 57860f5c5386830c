package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gh-notifier/gh-notifier/internal/api"
	"github.com/gh-notifier/gh-notifier/internal/auth"
	"github.com/gh-notifier/gh-notifier/internal/config"
	"github.com/gh-notifier/gh-notifier/internal/engine"
	"github.com/gh-notifier/gh-notifier/internal/github"
	"github.com/gh-notifier/gh-notifier/internal/metrics"
	"github.com/gh-notifier/gh-notifier/internal/notify"
	"github.com/gh-notifier/gh-notifier/internal/state"
	"github.com/gh-notifier/gh-notifier/internal/ws"
)

// shutdownGrace bounds how long in-flight control API requests may run after
// a termination signal.
const shutdownGrace = 5 * time.Second

func newStartCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Run the notification daemon",
		Long: `Start authenticates with GitHub, recovers notifications missed while the
daemon was down, and then polls the inbox until interrupted. New items are
filtered, stored, and dispatched to the configured sink.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// A .env next to the binary may carry GITHUB_TOKEN for unattended
			// setups; absence is the normal case.
			_ = godotenv.Load()
			return runDaemon(cmd.Context(), flags)
		},
	}
}

func runDaemon(ctx context.Context, flags *rootFlags) error {
	a, err := newApp(flags)
	if err != nil {
		return err
	}
	defer a.close()

	logger := a.logger
	logger.Info("starting gh-notifier",
		zap.String("version", version),
		zap.Uint64("poll_interval_sec", a.cfg.PollIntervalSec),
		zap.String("sink", a.cfg.Sink),
		zap.Bool("api_enabled", a.cfg.APIEnabled),
	)

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	configDir, err := config.Dir()
	if err != nil {
		return err
	}

	// Credential resolution: env seed, stored credential, interactive prompt.
	store, err := auth.NewStore(configDir, logger)
	if err != nil {
		return err
	}
	remote := github.New(auth.Credential{}, github.Options{
		Version:       version,
		RetryCount:    a.cfg.RetryCount,
		RetryInterval: a.cfg.RetryInterval(),
	}, logger)

	cred, err := engine.Authenticate(ctx, store,
		func(ctx context.Context, c auth.Credential) (bool, error) {
			remote.SetCredential(c)
			return remote.ValidateCredential(ctx)
		},
		func(ctx context.Context) (auth.Credential, error) {
			return auth.Prompt(ctx, os.Stdin, os.Stdout)
		},
		logger,
	)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("authentication failed: %w", err)
	}
	remote.SetCredential(cred)

	syncState, err := state.Load(configDir)
	if err != nil {
		return err
	}

	sink, err := notify.NewSink(a.cfg.Sink, logger)
	if err != nil {
		return err
	}
	dispatcher := notify.NewDispatcher(sink, a.cfg.PersistentNotifs, logger)

	var m *metrics.Metrics
	if a.cfg.MetricsEnabled {
		m = metrics.New()
	}

	hub := ws.NewHub()
	go hub.Run(ctx)

	eng, err := engine.New(engine.Config{
		Runtime:    a.cfg,
		Remote:     remote,
		Repo:       a.repo,
		State:      syncState,
		Dispatcher: dispatcher,
		Logger:     logger,
		Hub:        hub,
		Metrics:    m,
	})
	if err != nil {
		return err
	}

	apiErr := make(chan error, 1)
	var server *api.Server
	if a.cfg.APIEnabled {
		handler := api.NewRouter(api.RouterConfig{
			Notifications: a.repo,
			Logger:        logger,
			Hub:           hub,
			Metrics:       m,
		})
		server, err = api.NewServer(a.cfg.APIBind, a.cfg.APIPort, handler, logger)
		if err != nil {
			return err
		}
		go func() { apiErr <- server.Start() }()
	}

	runErr := make(chan error, 1)
	go func() { runErr <- eng.Run(ctx) }()

	var engErr error
	select {
	case err := <-apiErr:
		// The control API dying (port collision, most likely) is fatal: a
		// half-alive daemon that silently lost its API is worse than exiting.
		cancel()
		_ = waitWithGrace(runErr, shutdownGrace, logger)
		return fmt.Errorf("control API failed: %w", err)

	case engErr = <-runErr:
		// Engine exited, on a signal or on its own.

	case <-ctx.Done():
		// Termination signal: the engine gets the grace period to unwind,
		// then the process exits regardless.
		engErr = waitWithGrace(runErr, shutdownGrace, logger)
	}

	if server != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownGrace)
		defer done()
		if sdErr := server.Shutdown(shutdownCtx); sdErr != nil {
			logger.Warn("control API shutdown error", zap.Error(sdErr))
		}
	}
	if engErr != nil && !errors.Is(engErr, context.Canceled) {
		return engErr
	}
	logger.Info("gh-notifier stopped")
	return nil
}

// waitWithGrace waits for the engine result, giving up after the grace
// period so a stuck shutdown cannot hang the process.
func waitWithGrace(runErr <-chan error, grace time.Duration, logger *zap.Logger) error {
	select {
	case err := <-runErr:
		return err
	case <-time.After(grace):
		logger.Warn("sync engine did not stop within the grace period",
			zap.Duration("grace", grace))
		return nil
	}
}
