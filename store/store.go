// Package store persists enrollment records.
package store

import (
	"biometria/models"
	"context"
	"errors"
)

var ErrNotFound = errors.New("enrollment not found")

// Store keeps at most one complete record per identity.
type Store interface {
	// Upsert creates or fully replaces the record for rec.IdentityID.
	Upsert(ctx context.Context, rec *models.Enrollment) error
	// Get returns ErrNotFound when the identity has no record.
	Get(ctx context.Context, identityID string) (*models.Enrollment, error)
	// Delete returns the number of removed records, 0 or 1.
	Delete(ctx context.Context, identityID string) (int64, error)
	// Snapshot returns every record as seen by one consistent read.
	Snapshot(ctx context.Context) ([]models.Enrollment, error)
	Close() error
}
