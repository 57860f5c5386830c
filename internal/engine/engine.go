// Package engine implements the notification synchronization loop: it
// authenticates with the stored credential, polls the remote inbox under
// conditional-request and retry discipline, filters and deduplicates what
// comes back, persists new items, dispatches them to the sink, recovers
// missed unread items on startup, and shuts down cleanly on signal.
//
// The engine owns the sync state exclusively; the notification store is
// shared with the control API and the CLI through the repository's single
// serialized connection.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/gh-notifier/gh-notifier/internal/auth"
	"github.com/gh-notifier/gh-notifier/internal/config"
	"github.com/gh-notifier/gh-notifier/internal/db"
	"github.com/gh-notifier/gh-notifier/internal/filter"
	"github.com/gh-notifier/gh-notifier/internal/github"
	"github.com/gh-notifier/gh-notifier/internal/metrics"
	"github.com/gh-notifier/gh-notifier/internal/notify"
	"github.com/gh-notifier/gh-notifier/internal/repositories"
	"github.com/gh-notifier/gh-notifier/internal/state"
	"github.com/gh-notifier/gh-notifier/internal/ws"
)

// notificationsResource is the sync-state key for the inbox listing's cache
// validator.
const notificationsResource = "/notifications"

// RemoteClient is the slice of the remote API the engine consumes.
// *github.Client satisfies it; tests substitute a fake.
type RemoteClient interface {
	ListInbox(ctx context.Context, ifModifiedSince, etag string) (github.InboxResult, error)
	MarkRead(ctx context.Context, id string) error
	ValidateCredential(ctx context.Context) (bool, error)
}

// Config holds the engine's dependencies, populated by the start command.
type Config struct {
	Runtime    config.Config
	Remote     RemoteClient
	Repo       repositories.NotificationRepository
	State      *state.SyncState
	Dispatcher *notify.Dispatcher
	Logger     *zap.Logger

	// Hub, when non-nil, receives a broadcast for every newly stored item.
	Hub *ws.Hub

	// Metrics, when non-nil, is updated on every tick.
	Metrics *metrics.Metrics

	// Now is the clock, swappable for tests. Defaults to time.Now.
	Now func() time.Time
}

// Engine is the synchronization state machine.
type Engine struct {
	cfg        config.Config
	remote     RemoteClient
	repo       repositories.NotificationRepository
	state      *state.SyncState
	dispatcher *notify.Dispatcher
	hub        *ws.Hub
	metrics    *metrics.Metrics
	logger     *zap.Logger
	now        func() time.Time

	// consecutiveFailures counts transient poll failures in a row; a run of
	// retry_count triggers a warning, never an exit.
	consecutiveFailures uint32
}

// New validates cfg and builds an Engine.
func New(cfg Config) (*Engine, error) {
	interval := cfg.Runtime.PollIntervalSec
	if interval < config.MinPollIntervalSec || interval > config.MaxPollIntervalSec {
		return nil, fmt.Errorf("%w: %d seconds", ErrInvalidInterval, interval)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		cfg:        cfg.Runtime,
		remote:     cfg.Remote,
		repo:       cfg.Repo,
		state:      cfg.State,
		dispatcher: cfg.Dispatcher,
		hub:        cfg.Hub,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger.Named("engine"),
		now:        now,
	}, nil
}

// Run executes startup recovery and then polls until ctx is cancelled.
// The first poll happens immediately; subsequent ticks follow the
// configured cadence, with a shortened delay after a transient failure.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.Recover(ctx); err != nil {
		// Recovery failures are not fatal: the poll loop will still pick up
		// anything the remote reports as unread.
		e.logger.Error("startup recovery failed", zap.Error(err))
	}

	retention, err := e.startRetentionJob(ctx)
	if err != nil {
		e.logger.Error("failed to start retention job", zap.Error(err))
	}
	if retention != nil {
		defer func() {
			if err := retention.Shutdown(); err != nil {
				e.logger.Warn("retention scheduler shutdown error", zap.Error(err))
			}
		}()
	}

	e.logger.Info("polling started",
		zap.Duration("interval", e.cfg.PollInterval()),
		zap.Bool("mark_as_read_on_notify", e.cfg.MarkAsReadOnNotify),
	)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("shutdown requested, persisting sync state")
			if err := e.state.Persist(); err != nil {
				e.logger.Error("failed to persist sync state on shutdown", zap.Error(err))
			}
			return ctx.Err()

		case <-timer.C:
			delay := e.cfg.PollInterval()
			if err := e.PollOnce(ctx); err != nil {
				if ctx.Err() != nil {
					continue // shutdown raced the poll; the Done branch fires next
				}
				delay = e.handlePollError(err)
			} else {
				e.consecutiveFailures = 0
			}
			timer.Reset(delay)
		}
	}
}

// handlePollError logs the failure and returns the delay before the next
// tick: transient failures shorten it to the retry interval so recovery is
// probed promptly, everything else keeps the normal cadence.
func (e *Engine) handlePollError(err error) time.Duration {
	e.consecutiveFailures++
	if e.metrics != nil {
		e.metrics.PollsTotal.WithLabelValues("error").Inc()
		e.metrics.RemoteErrorsTotal.WithLabelValues(remoteKind(err)).Inc()
	}

	e.logger.Error("poll failed",
		zap.Uint32("consecutive_failures", e.consecutiveFailures),
		zap.Error(err),
	)

	if e.consecutiveFailures >= e.cfg.RetryCount && e.cfg.RetryCount > 0 {
		e.logger.Warn("poll retries exhausted, continuing anyway",
			zap.Error(&RetryExhaustedError{Attempts: e.consecutiveFailures, Err: err}))
	}

	if github.IsTransient(err) {
		return e.cfg.RetryInterval()
	}
	return e.cfg.PollInterval()
}

// PollOnce performs one poll tick: conditional list, filter, dedup-insert,
// dispatch, optional mark-as-read, cursor advance.
func (e *Engine) PollOnce(ctx context.Context) error {
	result, err := e.remote.ListInbox(ctx,
		e.state.LastCheckedAt(),
		e.state.ETag(notificationsResource),
	)
	if err != nil {
		return err
	}

	if result.NotModified {
		e.logger.Debug("inbox not modified")
		if e.metrics != nil {
			e.metrics.PollsTotal.WithLabelValues("not_modified").Inc()
		}
		return nil
	}

	if result.ETag != "" {
		e.state.SetETag(notificationsResource, result.ETag)
	}

	if len(result.Items) == 0 {
		if e.metrics != nil {
			e.metrics.PollsTotal.WithLabelValues("empty").Inc()
		}
		return nil
	}

	now := e.now()

	// Filter in stable order, then insert and dispatch in arrival order.
	var fresh []db.Notification
	for _, raw := range result.Items {
		if !filter.Keep(raw, e.cfg.Filter, now) {
			continue
		}
		stored := translate(raw, now)
		inserted, err := e.repo.UpsertIfNew(ctx, &stored)
		if err != nil {
			e.logger.Error("failed to store notification",
				zap.String("id", stored.ID), zap.Error(err))
			continue
		}
		if inserted {
			fresh = append(fresh, stored)
		}
	}

	e.dispatchBatched(ctx, fresh)

	// Advance the cursor to the max updated_at across everything received
	// this tick. Lexicographic comparison is valid: the wire timestamps are
	// UTC-normalized RFC3339.
	maxUpdated := e.state.LastCheckedAt()
	for _, raw := range result.Items {
		if raw.UpdatedAt > maxUpdated {
			maxUpdated = raw.UpdatedAt
		}
	}
	e.state.SetLastCheckedAt(maxUpdated)

	// Persist only when this poll produced new rows; a crash before the next
	// persistence point re-delivers at most duplicates, which UpsertIfNew
	// suppresses.
	if len(fresh) > 0 {
		if err := e.state.Persist(); err != nil {
			e.logger.Error("failed to persist sync state", zap.Error(err))
		}
	}

	if e.metrics != nil {
		e.metrics.PollsTotal.WithLabelValues("items").Inc()
		e.updateUnreadGauge(ctx)
	}

	e.logger.Info("poll completed",
		zap.Int("received", len(result.Items)),
		zap.Int("new", len(fresh)),
	)
	return nil
}

// dispatchBatched hands fresh items to the sink in arrival order. When
// batch_size is configured, dispatch pauses batch_interval_sec between
// chunks so a burst of items does not flood the desktop.
func (e *Engine) dispatchBatched(ctx context.Context, fresh []db.Notification) {
	batch := e.cfg.BatchSize
	if batch <= 0 {
		batch = len(fresh)
	}

	for i := range fresh {
		if i > 0 && batch > 0 && i%batch == 0 && e.cfg.BatchIntervalSec > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Duration(e.cfg.BatchIntervalSec) * time.Second):
			}
		}
		e.dispatchOne(ctx, &fresh[i], false)
	}
}

// dispatchOne sends a single notification and applies the optional
// mark-as-read-on-notify behavior. Sink and mark-read failures are logged
// and never interrupt the loop.
func (e *Engine) dispatchOne(ctx context.Context, n *db.Notification, recovery bool) {
	var err error
	if recovery {
		err = e.dispatcher.DispatchRecovery(n)
	} else {
		err = e.dispatcher.Dispatch(n)
	}
	if err != nil {
		e.logger.Error("dispatch failed", zap.String("id", n.ID), zap.Error(err))
		if e.metrics != nil {
			e.metrics.DispatchErrorsTotal.Inc()
		}
		return
	}

	if e.metrics != nil {
		origin := "poll"
		if recovery {
			origin = "recovery"
		}
		e.metrics.DispatchedTotal.WithLabelValues(origin).Inc()
	}

	if e.hub != nil && !recovery {
		e.hub.Broadcast(ws.Message{Type: ws.MsgNotification, Payload: n})
	}

	if e.cfg.MarkAsReadOnNotify {
		if !recovery {
			if err := e.remote.MarkRead(ctx, n.ID); err != nil {
				e.logger.Warn("remote mark-as-read failed",
					zap.String("id", n.ID), zap.Error(err))
			}
		}
		if err := e.repo.MarkAsRead(ctx, n.ID); err != nil &&
			!errors.Is(err, repositories.ErrNotFound) {
			e.logger.Warn("local mark-as-read failed",
				zap.String("id", n.ID), zap.Error(err))
		}
	}
}

// Recover re-surfaces unread items observed within the recovery window that
// were never marked read after observation. Runs once, before polling.
// Individual dispatch failures are logged and do not abort recovery.
func (e *Engine) Recover(ctx context.Context) error {
	window := e.cfg.RecoveryWindow()
	if window == 0 {
		return nil
	}

	unread, err := e.repo.ListUnread(ctx)
	if err != nil {
		return fmt.Errorf("recovery: list unread: %w", err)
	}

	cutoff := e.now().Add(-window).UTC().Format(time.RFC3339)
	recovered := 0
	for i := range unread {
		n := &unread[i]
		if n.ReceivedAt < cutoff {
			continue
		}
		if n.MarkedReadAt != nil && *n.MarkedReadAt > n.ReceivedAt {
			continue
		}
		e.dispatchOne(ctx, n, true)
		recovered++
	}

	if recovered > 0 {
		e.logger.Info("startup recovery dispatched missed notifications",
			zap.Int("count", recovered),
			zap.Duration("window", window),
		)
	}
	return nil
}

// startRetentionJob schedules the periodic purge of read rows older than
// retention_days. Returns nil when retention is disabled.
func (e *Engine) startRetentionJob(ctx context.Context) (gocron.Scheduler, error) {
	if e.cfg.RetentionDays == 0 {
		return nil, nil
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("retention: create scheduler: %w", err)
	}

	window := time.Duration(e.cfg.RetentionDays) * 24 * time.Hour
	_, err = sched.NewJob(
		gocron.DurationJob(time.Hour),
		gocron.NewTask(func() {
			purged, err := e.repo.DeleteReadOlderThan(ctx, e.now().Add(-window))
			if err != nil {
				e.logger.Error("retention purge failed", zap.Error(err))
				return
			}
			if purged > 0 {
				e.logger.Info("retention purge removed read notifications",
					zap.Int64("count", purged))
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("retention: schedule job: %w", err)
	}

	sched.Start()
	return sched, nil
}

func (e *Engine) updateUnreadGauge(ctx context.Context) {
	unread, err := e.repo.ListUnread(ctx)
	if err != nil {
		return
	}
	e.metrics.UnreadNotifications.Set(float64(len(unread)))
}

func remoteKind(err error) string {
	var re *github.RemoteError
	if errors.As(err, &re) {
		return string(re.Kind)
	}
	return "unknown"
}

// Authenticate resolves the credential for the remote client: environment
// seed, then the stored credential, then the interactive prompt. The loaded
// credential is validated; an auth-classified failure deletes it and
// re-prompts, while a transient network failure keeps the credential —
// an outage is not evidence the token is bad.
func Authenticate(
	ctx context.Context,
	store *auth.Store,
	validate func(context.Context, auth.Credential) (bool, error),
	prompt func(context.Context) (auth.Credential, error),
	logger *zap.Logger,
) (auth.Credential, error) {
	log := logger.Named("auth")

	cred, seeded, err := store.SeedFromEnv()
	if errors.Is(err, auth.ErrNoCredential) {
		cred, err = prompt(ctx)
		if err != nil {
			return auth.Credential{}, err
		}
		if saveErr := store.Save(cred); saveErr != nil {
			// Not fatal: the daemon runs with the in-memory credential, but
			// the next start will prompt again.
			log.Warn("failed to save credential, next start will re-prompt",
				zap.Error(saveErr))
		}
	} else if err != nil {
		return auth.Credential{}, err
	} else if seeded {
		log.Info("using credential from environment")
	}

	for {
		ok, err := validate(ctx, cred)
		if err != nil {
			if github.IsAuth(err) {
				ok = false
			} else {
				// Transient failure: proceed with the existing credential
				// rather than conflating an outage with an invalid token.
				log.Warn("credential validation inconclusive, proceeding",
					zap.Error(err))
				return cred, nil
			}
		}
		if ok {
			return cred, nil
		}

		log.Warn("stored credential rejected by remote, re-authenticating")
		if err := store.Delete(); err != nil {
			log.Warn("failed to delete rejected credential", zap.Error(err))
		}

		cred, err = prompt(ctx)
		if err != nil {
			return auth.Credential{}, err
		}
		if err := store.Save(cred); err != nil {
			log.Warn("failed to save credential, next start will re-prompt",
				zap.Error(err))
		}
	}
}
