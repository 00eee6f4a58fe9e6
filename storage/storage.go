// Package storage keeps backup artifacts in append-only locations.
package storage

import (
	"context"
	"errors"
	"io"
)

var (
	ErrExists     = errors.New("object already exists")
	ErrNoSpace    = errors.New("not enough free space")
	ErrInvalidKey = errors.New("invalid object name")
)

// Destination stores named objects and never replaces an existing one.
type Destination interface {
	// Save writes size bytes from reader under name and returns where it
	// ended up. ErrExists is returned if the name is taken.
	Save(ctx context.Context, name string, reader io.Reader, size int64) (string, error)
	// Location describes the destination, e.g. for logs.
	Location() string
}

func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	for _, r := range name {
		if r == '/' || r == '\\' || r == 0 {
			return false
		}
	}
	return true
}
