package store

import (
	"context"
	"sync"

	"ysa-registration/internal/model"
)

// Feed fans full-replacement snapshots of the registration list out to
// dashboard sessions. Each emission is the complete, authoritative list;
// consumers replace their view rather than merge. A subscription is released
// by cancelling its context.
type Feed struct {
	mu   sync.Mutex
	subs map[chan []model.Registration]struct{}
	done chan struct{}
}

func NewFeed() *Feed {
	return &Feed{
		subs: make(map[chan []model.Registration]struct{}),
		done: make(chan struct{}),
	}
}

// Subscribe registers a consumer. The channel closes when ctx is cancelled
// or the feed shuts down.
func (f *Feed) Subscribe(ctx context.Context) <-chan []model.Registration {
	f.mu.Lock()
	defer f.mu.Unlock()

	select {
	case <-f.done:
		ch := make(chan []model.Registration)
		close(ch)
		return ch
	default:
	}

	// Buffer of one: a slow consumer holds at most the latest snapshot.
	sub := make(chan []model.Registration, 1)
	f.subs[sub] = struct{}{}

	go func() {
		select {
		case <-ctx.Done():
		case <-f.done:
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.subs[sub]; ok {
			delete(f.subs, sub)
			close(sub)
		}
	}()

	return sub
}

// Publish delivers a snapshot to every subscriber. A pending stale snapshot
// is discarded first: only the newest full list matters.
func (f *Feed) Publish(snapshot []model.Registration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	select {
	case <-f.done:
		return
	default:
	}

	for sub := range f.subs {
		select {
		case <-sub:
		default:
		}
		select {
		case sub <- snapshot:
		default:
		}
	}
}

// SubscriberCount returns the number of live subscriptions.
func (f *Feed) SubscriberCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Close shuts the feed down and closes every subscriber channel.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	select {
	case <-f.done:
		return
	default:
	}
	close(f.done)
	for sub := range f.subs {
		delete(f.subs, sub)
		close(sub)
	}
}
