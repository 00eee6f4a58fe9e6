// Package faces turns a photo into a face descriptor.
package faces

import (
	"context"
	"errors"
)

// ErrNoFace is returned by an Extractor when the photo holds no usable face.
var ErrNoFace = errors.New("no face detected")

// Extractor computes one descriptor per photo. Descriptors from the same
// Extractor always have the same length.
type Extractor interface {
	Extract(ctx context.Context, jpeg []byte) (*Detection, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(ctx context.Context, jpeg []byte) (*Detection, error)

func (f ExtractorFunc) Extract(ctx context.Context, jpeg []byte) (*Detection, error) {
	return f(ctx, jpeg)
}
