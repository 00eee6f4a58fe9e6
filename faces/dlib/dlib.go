// Package dlib extracts descriptors with the dlib models shipped for go-face.
package dlib

import (
	"biometria/faces"
	"context"
	"fmt"
	"sync"

	"github.com/Kagami/go-face"
)

type Extractor struct {
	mu         sync.Mutex
	recognizer *face.Recognizer
	cnn        bool
}

// New loads the models from modelsDir. cnn selects the slower but more
// accurate CNN detector.
func New(modelsDir string, cnn bool) (*Extractor, error) {
	recognizer, err := face.NewRecognizer(modelsDir)
	if err != nil {
		return nil, fmt.Errorf("load models from %s: %w", modelsDir, err)
	}
	return &Extractor{recognizer: recognizer, cnn: cnn}, nil
}

// Extract returns the descriptor of the largest face.
func (e *Extractor) Extract(ctx context.Context, jpeg []byte) (*faces.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	var found []face.Face
	var err error
	if e.cnn {
		found, err = e.recognizer.RecognizeCNN(jpeg)
	} else {
		found, err = e.recognizer.Recognize(jpeg)
	}
	e.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("recognize: %w", err)
	}
	if len(found) == 0 {
		return nil, faces.ErrNoFace
	}

	list := make([]faces.Detection, len(found))
	for i, cur := range found {
		desc := [128]float32(cur.Descriptor)
		list[i] = faces.Detection{
			Descriptor: desc[:],
			Score:      1,
			Rect:       cur.Rectangle,
		}
	}
	return faces.Largest(list), nil
}

func (e *Extractor) Close() {
	e.recognizer.Close()
}
