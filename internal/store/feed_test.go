package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ysa-registration/internal/model"
)

func TestFeedDeliversSnapshot(t *testing.T) {
	feed := NewFeed()
	defer feed.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := feed.Subscribe(ctx)
	feed.Publish([]model.Registration{{ID: "r1"}})

	select {
	case snapshot := <-ch:
		require.Len(t, snapshot, 1)
		require.Equal(t, "r1", snapshot[0].ID)
	case <-time.After(100 * time.Millisecond):
		require.Fail(t, "timeout waiting for snapshot")
	}
}

// A consumer that falls behind sees only the newest snapshot: emissions
// replace, they do not queue.
func TestFeedLatestSnapshotWins(t *testing.T) {
	feed := NewFeed()
	defer feed.Close()

	ch := feed.Subscribe(context.Background())

	feed.Publish([]model.Registration{{ID: "old"}})
	feed.Publish([]model.Registration{{ID: "new"}})

	select {
	case snapshot := <-ch:
		require.Equal(t, "new", snapshot[0].ID)
	case <-time.After(100 * time.Millisecond):
		require.Fail(t, "timeout waiting for snapshot")
	}
}

func TestFeedUnsubscribeOnCancel(t *testing.T) {
	feed := NewFeed()
	defer feed.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch := feed.Subscribe(ctx)
	require.Equal(t, 1, feed.SubscriberCount())

	cancel()
	require.Eventually(t, func() bool {
		return feed.SubscriberCount() == 0
	}, time.Second, 10*time.Millisecond)

	// Channel closes once the subscription is released.
	select {
	case _, ok := <-ch:
		require.False(t, ok)
	case <-time.After(100 * time.Millisecond):
		require.Fail(t, "channel not closed after cancel")
	}
}

func TestFeedCloseClosesSubscribers(t *testing.T) {
	feed := NewFeed()
	ch := feed.Subscribe(context.Background())

	feed.Close()

	_, ok := <-ch
	require.False(t, ok)
	require.Equal(t, 0, feed.SubscriberCount())

	// Publish after close is a no-op.
	feed.Publish([]model.Registration{{ID: "x"}})

	// Subscribing after close yields a closed channel.
	ch2 := feed.Subscribe(context.Background())
	_, ok = <-ch2
	require.False(t, ok)
}
