package publisher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/repstack/repstack/internal/content"
	"github.com/repstack/repstack/internal/notify"
	"github.com/repstack/repstack/internal/store"
	"github.com/repstack/repstack/internal/store/storetest"
)

type captureNotifier struct {
	events []notify.Event
}

func (c *captureNotifier) ContentChanged(_ context.Context, e notify.Event) {
	c.events = append(c.events, e)
}

func (c *captureNotifier) Close() {}

func seedPost(t *testing.T, svc *content.Service, title string, draft bool, published string) content.Post {
	t.Helper()
	post, err := svc.SavePost(context.Background(), content.Post{
		Title:     title,
		Draft:     draft,
		Published: published,
		Body:      "body",
	})
	require.NoError(t, err)
	return post
}

func TestRunOnce_PublishesDuePosts_LeavesOthers(t *testing.T) {
	mem := storetest.New()
	svc := content.NewService(mem, "", "")
	notifier := &captureNotifier{}

	seedPost(t, svc, "Due Post", true, "2000-01-01")
	seedPost(t, svc, "Future Post", true, "2099-01-01")
	seedPost(t, svc, "Already Live", false, "")
	seedPost(t, svc, "Unscheduled Draft", true, "")

	pub, err := New(svc, notifier, nil, nil, Options{})
	require.NoError(t, err)

	published, err := pub.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, published)

	ctx := context.Background()
	due, err := svc.GetPost(ctx, "due-post")
	require.NoError(t, err)
	require.False(t, due.Draft)

	future, err := svc.GetPost(ctx, "future-post")
	require.NoError(t, err)
	require.True(t, future.Draft)

	unscheduled, err := svc.GetPost(ctx, "unscheduled-draft")
	require.NoError(t, err)
	require.True(t, unscheduled.Draft)

	require.Len(t, notifier.events, 1)
	require.Equal(t, "due-post", notifier.events[0].Slug)
	require.Equal(t, notify.ActionPublished, notifier.events[0].Action)
	require.Equal(t, "scheduler", notifier.events[0].Actor)
}

func TestRunOnce_SecondSweepIsIdle(t *testing.T) {
	mem := storetest.New()
	svc := content.NewService(mem, "", "")

	seedPost(t, svc, "Due Post", true, "2000-01-01")

	pub, err := New(svc, nil, nil, nil, Options{})
	require.NoError(t, err)

	first, err := pub.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, first)

	second, err := pub.RunOnce(context.Background())
	require.NoError(t, err)
	require.Zero(t, second)
}

type conflictingService struct {
	*content.Service
}

func (c *conflictingService) SavePost(context.Context, content.Post) (content.Post, error) {
	return content.Post{}, store.ErrSHAMismatch
}

func TestRunOnce_ConflictSkipsAndKeepsSweepHealthy(t *testing.T) {
	mem := storetest.New()
	svc := content.NewService(mem, "", "")
	seedPost(t, svc, "Due Post", true, "2000-01-01")

	pub, err := New(&conflictingService{Service: svc}, nil, nil, nil, Options{})
	require.NoError(t, err)

	published, err := pub.RunOnce(context.Background())
	require.NoError(t, err)
	require.Zero(t, published)

	// Unchanged in the store; next tick will retry.
	post, err := svc.GetPost(context.Background(), "due-post")
	require.NoError(t, err)
	require.True(t, post.Draft)
}

func TestStartStop_SchedulesAndShutsDown(t *testing.T) {
	mem := storetest.New()
	svc := content.NewService(mem, "", "")

	pub, err := New(svc, nil, nil, nil, Options{SweepInterval: time.Hour})
	require.NoError(t, err)
	require.NoError(t, pub.Start())
	require.NoError(t, pub.Stop())
}
