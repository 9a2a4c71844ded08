// Package publisher runs the background schedule: future-dated drafts
// get flipped live once their `published` timestamp passes, and dead
// login tokens get purged. Every flip goes through the store with the
// sha from its own read, so a concurrent manual edit wins and the sweep
// simply retries next tick.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/repstack/repstack/internal/content"
	"github.com/repstack/repstack/internal/logfields"
	"github.com/repstack/repstack/internal/metrics"
	"github.com/repstack/repstack/internal/notify"
	"github.com/repstack/repstack/internal/store"
)

// ContentService is the slice of the content layer the sweep needs.
type ContentService interface {
	ListPosts(ctx context.Context) ([]content.Summary, error)
	GetPost(ctx context.Context, slug string) (content.Post, error)
	SavePost(ctx context.Context, post content.Post) (content.Post, error)
	StoreName() string
}

// TokenPurger removes expired login tokens.
type TokenPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Options tunes the schedule cadence.
type Options struct {
	SweepInterval time.Duration
	PurgeInterval time.Duration
}

// Publisher owns the gocron scheduler and the sweep logic.
type Publisher struct {
	scheduler gocron.Scheduler
	svc       ContentService
	notifier  notify.Notifier
	purger    TokenPurger
	rec       metrics.Recorder
	opts      Options
	now       func() time.Time
}

// New builds a publisher. The purger is optional; nil notifier and
// recorder degrade to their noop implementations.
func New(svc ContentService, notifier notify.Notifier, purger TokenPurger, rec metrics.Recorder, opts Options) (*Publisher, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	if notifier == nil {
		notifier = notify.NoopNotifier{}
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = 5 * time.Minute
	}
	if opts.PurgeInterval <= 0 {
		opts.PurgeInterval = time.Hour
	}
	return &Publisher{
		scheduler: scheduler,
		svc:       svc,
		notifier:  notifier,
		purger:    purger,
		rec:       rec,
		opts:      opts,
		now:       time.Now,
	}, nil
}

// Start registers the jobs and begins the schedule.
func (p *Publisher) Start() error {
	_, err := p.scheduler.NewJob(
		gocron.DurationJob(p.opts.SweepInterval),
		gocron.NewTask(p.sweep),
		gocron.WithName("publish-sweep"),
	)
	if err != nil {
		return fmt.Errorf("schedule publish sweep: %w", err)
	}

	if p.purger != nil {
		_, err = p.scheduler.NewJob(
			gocron.DurationJob(p.opts.PurgeInterval),
			gocron.NewTask(p.purge),
			gocron.WithName("token-purge"),
		)
		if err != nil {
			return fmt.Errorf("schedule token purge: %w", err)
		}
	}

	slog.Info("scheduler started",
		slog.Duration("sweep_interval", p.opts.SweepInterval),
		slog.Duration("purge_interval", p.opts.PurgeInterval))
	p.scheduler.Start()
	return nil
}

// Stop shuts the scheduler down, waiting for a running sweep.
func (p *Publisher) Stop() error {
	slog.Info("scheduler stopping")
	return p.scheduler.Shutdown()
}

func (p *Publisher) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if _, err := p.RunOnce(ctx); err != nil {
		slog.Error("publish sweep failed", logfields.Job("publish-sweep"), logfields.Error(err))
	}
}

func (p *Publisher) purge() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	n, err := p.purger.PurgeExpired(ctx)
	if err != nil {
		slog.Error("token purge failed", logfields.Job("token-purge"), logfields.Error(err))
		return
	}
	if n > 0 {
		slog.Info("login tokens purged", logfields.Job("token-purge"), slog.Int64("removed", n))
	}
}

// RunOnce executes a single sweep and reports how many posts went live.
// The CLI's publish-now path calls this directly.
func (p *Publisher) RunOnce(ctx context.Context) (int, error) {
	start := p.now()
	published := 0
	pending := 0

	summaries, err := p.svc.ListPosts(ctx)
	if err != nil {
		p.rec.ObservePublishRunDuration(time.Since(start), false)
		return 0, err
	}

	for _, summary := range summaries {
		if !summary.Draft {
			continue
		}
		due, ok := summary.PublishAt()
		if !ok {
			continue
		}
		if due.After(start) {
			pending++
			continue
		}
		if p.publishOne(ctx, summary.Slug, start) {
			published++
		}
	}

	p.rec.SetScheduledPosts(pending)
	p.rec.ObservePublishRunDuration(time.Since(start), true)
	if published > 0 {
		slog.Info("publish sweep done", logfields.Job("publish-sweep"),
			slog.Int("published", published), slog.Int("pending", pending))
	}
	return published, nil
}

// publishOne re-reads the post and flips it live. The listing snapshot
// may be stale, so draft and due-time are checked again on the fresh
// read before writing.
func (p *Publisher) publishOne(ctx context.Context, slug string, now time.Time) bool {
	post, err := p.svc.GetPost(ctx, slug)
	if err != nil {
		slog.Warn("scheduled post unreadable", logfields.Slug(slug), logfields.Error(err))
		p.rec.IncPublishOutcome(metrics.ResultFailed)
		return false
	}
	due, ok := post.PublishAt()
	if !post.Draft || !ok || due.After(now) {
		return false
	}

	post.Draft = false
	if _, err := p.svc.SavePost(ctx, post); err != nil {
		if errors.Is(err, store.ErrSHAMismatch) {
			slog.Warn("publish skipped, post changed underneath", logfields.Slug(slug))
			p.rec.IncPublishOutcome(metrics.ResultConflict)
			return false
		}
		slog.Error("publish failed", logfields.Slug(slug), logfields.Error(err))
		p.rec.IncPublishOutcome(metrics.ResultFailed)
		return false
	}

	slog.Info("post published", logfields.Slug(slug))
	p.rec.IncPublishOutcome(metrics.ResultSuccess)
	p.notifier.ContentChanged(ctx, notify.Event{
		Slug:   slug,
		Kind:   notify.KindPost,
		Action: notify.ActionPublished,
		Actor:  "scheduler",
		Store:  p.svc.StoreName(),
	})
	return true
}
