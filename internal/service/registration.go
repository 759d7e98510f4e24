// Package service implements the business logic between the HTTP handlers
// and the persistence router: the intake gate, the duplicate resolver,
// dashboard operations, authentication, filtering, and export.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ysa-registration/internal/model"
	"ysa-registration/internal/repository"
	"ysa-registration/internal/validate"
)

// User-facing messages for non-validation failures.
const (
	// MsgCapacityClosed renders the closed-registration state.
	MsgCapacityClosed = "ការចុះឈ្មោះត្រូវបានបិទ ដោយសារចំនួនអ្នកចូលរួមពេញហើយ"
	// MsgRetryLater is the generic message for remote failures that permit
	// no fallback.
	MsgRetryLater = "មានបញ្ហាក្នុងការរក្សាទុកទិន្នន័យ។ សូមព្យាយាមម្តងទៀត ឬពិនិត្យមើលការភ្ជាប់អ៊ីនធឺណិត។"
)

// ErrCapacityReached is returned when a submission arrives after the event
// filled up. Terminal for the session, not a transient error.
var ErrCapacityReached = errors.New("registration closed: capacity reached")

// DuplicateError rejects a submission that collides with an existing
// registration, naming the colliding field and its value.
type DuplicateError struct {
	Field string // "namePair" or "recordNumber"
	Value string
}

func (e *DuplicateError) Error() string {
	if e.Field == "recordNumber" {
		return fmt.Sprintf("លេខកូដសមាជិក %s ត្រូវបានប្រើរួចហើយ", e.Value)
	}
	return fmt.Sprintf("ឈ្មោះ %s បានចុះឈ្មោះរួចហើយ", e.Value)
}

// Registration orchestrates the public intake path and the admin dashboard
// operations over registration records.
type Registration struct {
	repo     *repository.Registrations
	bounds   validate.Bounds
	capacity int
	logger   *zap.Logger
}

// NewRegistration constructs the service. capacity is the fixed maximum
// number of accepted registrations.
func NewRegistration(repo *repository.Registrations, bounds validate.Bounds, capacity int, logger *zap.Logger) *Registration {
	return &Registration{repo: repo, bounds: bounds, capacity: capacity, logger: logger}
}

// Status implements the intake gate for a page load: compare the current
// count against capacity. An unreachable store fails OPEN so legitimate
// registrants are never blocked by an outage; the condition is logged, not
// surfaced.
func (s *Registration) Status(ctx context.Context) model.StatusResponse {
	count, err := s.repo.Count(ctx)
	if err != nil {
		s.logger.Warn("capacity check failed, keeping registration open", zap.Error(err))
		return model.StatusResponse{Open: true, Count: -1, Capacity: s.capacity}
	}
	return model.StatusResponse{
		Open:     count < s.capacity,
		Count:    count,
		Capacity: s.capacity,
	}
}

// Submit runs a submission through the full intake pipeline: capacity gate,
// field validation, duplicate resolution, then persistence. It
// short-circuits with the first failing stage's error.
func (s *Registration) Submit(ctx context.Context, req model.SubmitRequest) (model.Registration, error) {
	// Capacity gate. Best-effort: two concurrent submissions can both pass
	// before either writes, which the deployment accepts.
	count, err := s.repo.Count(ctx)
	if err != nil {
		s.logger.Warn("capacity check failed at submit, failing open", zap.Error(err))
	} else if count >= s.capacity {
		return model.Registration{}, ErrCapacityReached
	}

	reg, verr := validate.Registration(req, s.bounds)
	if verr != nil {
		return model.Registration{}, verr
	}

	if dup := s.findDuplicate(ctx, reg, ""); dup != nil {
		return model.Registration{}, dup
	}

	reg.Timestamp = time.Now().UTC()
	created, err := s.repo.Create(ctx, reg)
	if err != nil {
		return model.Registration{}, mapRepoError(err, reg)
	}
	s.repo.Refresh(ctx)
	return created, nil
}

// findDuplicate checks the candidate against existing records: the remote
// store first (name pair, then membership code), then the local fallback
// cache in the same order. A remote query failure is swallowed and logged,
// never surfaced, because the local cache may still hold the collision on a
// permission-degraded deployment. excludeID skips the record being edited.
func (s *Registration) findDuplicate(ctx context.Context, reg model.Registration, excludeID string) *DuplicateError {
	match, err := s.repo.RemoteFindByNamePair(ctx, reg.FullName, reg.EnglishName)
	if err != nil {
		s.logger.Warn("remote name-pair check failed", zap.Error(err))
	} else if match != nil && match.ID != excludeID {
		return &DuplicateError{Field: "namePair", Value: namePairValue(reg)}
	}

	if reg.RecordNumber != "" {
		match, err = s.repo.RemoteFindByRecordNumber(ctx, reg.RecordNumber)
		if err != nil {
			s.logger.Warn("remote record-number check failed", zap.Error(err))
		} else if match != nil && match.ID != excludeID {
			return &DuplicateError{Field: "recordNumber", Value: reg.RecordNumber}
		}
	}

	snap, err := s.repo.LocalSnapshot(ctx)
	if err != nil {
		s.logger.Warn("local duplicate check failed", zap.Error(err))
		return nil
	}
	for _, existing := range snap {
		if existing.ID == excludeID {
			continue
		}
		if existing.SameNamePair(reg) {
			return &DuplicateError{Field: "namePair", Value: namePairValue(reg)}
		}
	}
	if reg.RecordNumber != "" {
		for _, existing := range snap {
			if existing.ID != excludeID && existing.RecordNumber == reg.RecordNumber {
				return &DuplicateError{Field: "recordNumber", Value: reg.RecordNumber}
			}
		}
	}
	return nil
}

func namePairValue(reg model.Registration) string {
	return fmt.Sprintf("%s (%s)", reg.FullName, reg.EnglishName)
}

// mapRepoError converts the router's duplicate sentinels, hit when the
// fallback write re-applied the uniqueness precautions, into the same
// user-facing rejection the resolver produces.
func mapRepoError(err error, reg model.Registration) error {
	switch {
	case errors.Is(err, repository.ErrDuplicateNamePair):
		return &DuplicateError{Field: "namePair", Value: namePairValue(reg)}
	case errors.Is(err, repository.ErrDuplicateRecordNumber):
		return &DuplicateError{Field: "recordNumber", Value: reg.RecordNumber}
	default:
		return err
	}
}

// List returns all registrations newest first.
func (s *Registration) List(ctx context.Context) ([]model.Registration, error) {
	return s.repo.List(ctx)
}

// Edit replaces a record wholesale. The id and creation timestamp are
// preserved, and isPaid can only change through TogglePaid.
func (s *Registration) Edit(ctx context.Context, id string, req model.SubmitRequest) (model.Registration, error) {
	existing, err := s.find(ctx, id)
	if err != nil {
		return model.Registration{}, err
	}

	reg, verr := validate.Registration(req, s.bounds)
	if verr != nil {
		return model.Registration{}, verr
	}
	if dup := s.findDuplicate(ctx, reg, id); dup != nil {
		return model.Registration{}, dup
	}

	reg.ID = existing.ID
	reg.Timestamp = existing.Timestamp
	reg.IsPaid = existing.IsPaid
	if err := s.repo.Update(ctx, reg); err != nil {
		return model.Registration{}, mapRepoError(err, reg)
	}
	s.repo.Refresh(ctx)
	return reg, nil
}

// Delete removes a record immediately and irreversibly.
func (s *Registration) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.repo.Refresh(ctx)
	return nil
}

// TogglePaid flips only the isPaid flag; every other field is untouched.
func (s *Registration) TogglePaid(ctx context.Context, id string) (model.Registration, error) {
	existing, err := s.find(ctx, id)
	if err != nil {
		return model.Registration{}, err
	}
	existing.IsPaid = !existing.IsPaid
	if err := s.repo.Update(ctx, existing); err != nil {
		return model.Registration{}, err
	}
	s.repo.Refresh(ctx)
	return existing, nil
}

func (s *Registration) find(ctx context.Context, id string) (model.Registration, error) {
	regs, err := s.repo.List(ctx)
	if err != nil {
		return model.Registration{}, err
	}
	for _, reg := range regs {
		if reg.ID == id {
			return reg, nil
		}
	}
	return model.Registration{}, repository.ErrNotFound
}

// Subscribe attaches a dashboard session to the live snapshot feed.
func (s *Registration) Subscribe(ctx context.Context) <-chan []model.Registration {
	return s.repo.Subscribe(ctx)
}

// Refresh pushes the current list to every feed subscriber.
func (s *Registration) Refresh(ctx context.Context) {
	s.repo.Refresh(ctx)
}
