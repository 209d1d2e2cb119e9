// Package storage keeps the uploaded homework images that sessions refer
// to. Sessions store only the returned reference.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when an image reference does not exist.
var ErrNotFound = errors.New("image not found")

// ImageStore persists homework images.
type ImageStore interface {
	// Put stores data and returns a reference that Get accepts.
	Put(ctx context.Context, data []byte, contentType string) (string, error)

	// Get returns the image bytes and content type for ref.
	Get(ctx context.Context, ref string) ([]byte, string, error)

	// Delete removes the image. Deleting a missing ref is not an error.
	Delete(ctx context.Context, ref string) error
}
