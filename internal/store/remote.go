// Package store provides the two persistence backends of the registration
// system: the hosted document database (Firestore over REST) and the local
// single-slot fallback cache, plus the snapshot feed the dashboard consumes.
package store

import (
	"context"
	"errors"

	"ysa-registration/internal/model"
)

// Error classes for failed remote operations. The persistence router falls
// back to the local cache on ErrNotConfigured and ErrPermissionDenied; any
// other failure is surfaced as a retry-later condition with no mutation.
var (
	ErrNotConfigured    = errors.New("remote store not configured")
	ErrPermissionDenied = errors.New("remote store permission denied")
	ErrNotFound         = errors.New("not found")
)

// RemoteStore is the slice of the hosted document database this system
// depends on: insert, update and delete by id, exact-match filtered queries,
// and a list ordered by timestamp.
//
// Find methods return (nil, nil) when no document matches.
type RemoteStore interface {
	InsertRegistration(ctx context.Context, reg model.Registration) (model.Registration, error)
	UpdateRegistration(ctx context.Context, reg model.Registration) error
	DeleteRegistration(ctx context.Context, id string) error

	// ListRegistrations returns every registration ordered by timestamp
	// descending (newest first).
	ListRegistrations(ctx context.Context) ([]model.Registration, error)

	FindByNamePair(ctx context.Context, fullName, englishName string) (*model.Registration, error)
	FindByRecordNumber(ctx context.Context, recordNumber string) (*model.Registration, error)

	InsertUser(ctx context.Context, u model.SystemUser) (model.SystemUser, error)
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context) ([]model.SystemUser, error)
	FindUserByUsername(ctx context.Context, username string) (*model.SystemUser, error)
	FindUserByCredentials(ctx context.Context, username, password string) (*model.SystemUser, error)
}

// Fallbackable reports whether a remote failure should degrade the
// operation to the local snapshot store rather than abort.
func Fallbackable(err error) bool {
	return errors.Is(err, ErrNotConfigured) || errors.Is(err, ErrPermissionDenied)
}
