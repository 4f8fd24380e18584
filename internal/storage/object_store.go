package storage

import (
	"context"
	"io"
)

// ObjectStore holds uploaded audio files. Keys are flat names of the form
// <user>_<source>_<timestamp>_<filename>.
type ObjectStore interface {
	PutObject(ctx context.Context, key string, data io.Reader) error

	GetObject(ctx context.Context, key string) (io.ReadCloser, error)

	DeleteObject(ctx context.Context, key string) error

	// PublicURL returns the browser-reachable URL for a stored object.
	PublicURL(key string) string
}
