// Package repository routes persistence between the remote document store
// and the local fallback cache. A write goes to the remote store first; on a
// configuration or permission failure it degrades to the local snapshot, and
// on any other failure it surfaces a retry-later error with no mutation.
// There is no automatic retry of the remote path.
package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ysa-registration/internal/model"
	"ysa-registration/internal/store"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrRemoteUnavailable is returned when the remote store failed for a reason
// that does not permit the local fallback. The caller shows a generic
// retry-later message.
var ErrRemoteUnavailable = errors.New("store unavailable")

// ErrDuplicateNamePair is returned when the trimmed (fullName, englishName)
// pair already exists among non-deleted registrations.
var ErrDuplicateNamePair = errors.New("name pair already registered")

// ErrDuplicateRecordNumber is returned when a non-empty membership code
// already exists among non-deleted registrations.
var ErrDuplicateRecordNumber = errors.New("record number already registered")

// Registrations is the persistence router for registration records.
type Registrations struct {
	remote store.RemoteStore
	local  store.SnapshotStore
	feed   *store.Feed
	logger *zap.Logger

	mu       sync.Mutex
	degraded bool
}

// NewRegistrations constructs the router.
func NewRegistrations(remote store.RemoteStore, local store.SnapshotStore, logger *zap.Logger) *Registrations {
	return &Registrations{
		remote: remote,
		local:  local,
		feed:   store.NewFeed(),
		logger: logger,
	}
}

// Degraded reports whether the read path has switched to the local cache
// for the remainder of the session. The switch is one-way and happens on a
// permission or configuration failure of a remote read.
func (r *Registrations) Degraded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.degraded
}

func (r *Registrations) markDegraded(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.degraded {
		r.degraded = true
		r.logger.Warn("remote read path lost, serving from local cache for the rest of the session",
			zap.Error(err))
	}
}

// Create persists a new registration. The remote attempt resolves to one of
// success, local fallback, or a fatal retry-later error.
func (r *Registrations) Create(ctx context.Context, reg model.Registration) (model.Registration, error) {
	created, err := r.remote.InsertRegistration(ctx, reg)
	if err == nil {
		return created, nil
	}
	if !store.Fallbackable(err) {
		return model.Registration{}, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	r.logger.Warn("remote write degraded to local cache", zap.Error(err))
	return r.createLocal(ctx, reg)
}

// createLocal writes into the snapshot slot, re-applying the uniqueness
// precautions: a permission-degraded deployment must not accept duplicates.
func (r *Registrations) createLocal(ctx context.Context, reg model.Registration) (model.Registration, error) {
	regs, err := r.local.Read(ctx)
	if err != nil {
		return model.Registration{}, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	for _, existing := range regs {
		if existing.SameNamePair(reg) {
			return model.Registration{}, ErrDuplicateNamePair
		}
		if reg.RecordNumber != "" && existing.RecordNumber == reg.RecordNumber {
			return model.Registration{}, ErrDuplicateRecordNumber
		}
	}
	reg.ID = "local_" + uuid.New().String()
	regs = append(regs, reg)
	if err := r.local.Write(ctx, regs); err != nil {
		return model.Registration{}, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	return reg, nil
}

// Update replaces a record in place, routing like Create.
func (r *Registrations) Update(ctx context.Context, reg model.Registration) error {
	err := r.remote.UpdateRegistration(ctx, reg)
	if err == nil {
		return nil
	}
	if !store.Fallbackable(err) {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	r.logger.Warn("remote update degraded to local cache", zap.Error(err), zap.String("id", reg.ID))
	return r.mutateLocal(ctx, func(regs []model.Registration) ([]model.Registration, error) {
		for i := range regs {
			if regs[i].ID == reg.ID {
				regs[i] = reg
				return regs, nil
			}
		}
		return nil, ErrNotFound
	})
}

// Delete removes a record permanently. There is no soft-delete state.
func (r *Registrations) Delete(ctx context.Context, id string) error {
	err := r.remote.DeleteRegistration(ctx, id)
	if err == nil {
		return nil
	}
	if !store.Fallbackable(err) {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	r.logger.Warn("remote delete degraded to local cache", zap.Error(err), zap.String("id", id))
	return r.mutateLocal(ctx, func(regs []model.Registration) ([]model.Registration, error) {
		for i := range regs {
			if regs[i].ID == id {
				return append(regs[:i], regs[i+1:]...), nil
			}
		}
		return nil, ErrNotFound
	})
}

func (r *Registrations) mutateLocal(ctx context.Context, mutate func([]model.Registration) ([]model.Registration, error)) error {
	regs, err := r.local.Read(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	regs, err = mutate(regs)
	if err != nil {
		return err
	}
	if err := r.local.Write(ctx, regs); err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	return nil
}

// List returns all registrations newest first from whichever store is
// authoritative for this session.
func (r *Registrations) List(ctx context.Context) ([]model.Registration, error) {
	if !r.Degraded() {
		regs, err := r.remote.ListRegistrations(ctx)
		if err == nil {
			return regs, nil
		}
		if !store.Fallbackable(err) {
			return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
		}
		r.markDegraded(err)
	}
	regs, err := r.local.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	sortNewestFirst(regs)
	return regs, nil
}

// Count returns the current number of accepted registrations.
func (r *Registrations) Count(ctx context.Context) (int, error) {
	regs, err := r.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(regs), nil
}

// RemoteFindByNamePair queries only the remote store for an exact match on
// the trimmed name pair. Callers decide what a remote failure means.
func (r *Registrations) RemoteFindByNamePair(ctx context.Context, fullName, englishName string) (*model.Registration, error) {
	return r.remote.FindByNamePair(ctx, fullName, englishName)
}

// RemoteFindByRecordNumber queries only the remote store for an exact match
// on a normalized membership code.
func (r *Registrations) RemoteFindByRecordNumber(ctx context.Context, recordNumber string) (*model.Registration, error) {
	return r.remote.FindByRecordNumber(ctx, recordNumber)
}

// LocalSnapshot reads the fallback slot. Used by the duplicate check, which
// must cover the local cache even when the remote store is healthy.
func (r *Registrations) LocalSnapshot(ctx context.Context) ([]model.Registration, error) {
	return r.local.Read(ctx)
}

func sortNewestFirst(regs []model.Registration) {
	sort.SliceStable(regs, func(i, j int) bool {
		return regs[i].Timestamp.After(regs[j].Timestamp)
	})
}

// ── Snapshot feed ────────────────────────────────────────────────────────────

// Subscribe attaches a dashboard session to the snapshot feed. Cancelling
// the context releases the subscription.
func (r *Registrations) Subscribe(ctx context.Context) <-chan []model.Registration {
	return r.feed.Subscribe(ctx)
}

// Refresh reads the authoritative list and publishes it to every
// subscriber. Write handlers call it so edits show up without waiting for
// the next poll tick.
func (r *Registrations) Refresh(ctx context.Context) {
	regs, err := r.List(ctx)
	if err != nil {
		r.logger.Warn("feed refresh failed", zap.Error(err))
		return
	}
	r.feed.Publish(regs)
}

// StartFeed polls the authoritative list on the given interval and publishes
// each result as a full snapshot, until ctx is cancelled.
func (r *Registrations) StartFeed(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		defer r.feed.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Refresh(ctx)
			}
		}
	}()
}
