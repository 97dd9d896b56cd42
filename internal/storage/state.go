// Package storage persists the link of the last published article.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownBackend is returned by Open for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown state backend")

// StateStore keeps a single value: the link of the most recently published
// article.
type StateStore interface {
	// LastLink returns the stored link. ok is false when nothing has been
	// stored yet.
	LastLink(ctx context.Context) (link string, ok bool, err error)
	// SaveLink overwrites the stored link.
	SaveLink(ctx context.Context, link string) error
	// Close releases any resources held by the store.
	Close() error
}

// Options selects and configures a StateStore backend.
type Options struct {
	Backend     string // file | postgres | redis
	FilePath    string
	Key         string
	DatabaseURL string
	RedisURL    string
}

// Open returns the StateStore selected by opts.Backend.
func Open(ctx context.Context, opts Options) (StateStore, error) {
	switch opts.Backend {
	case "", "file":
		return NewFileStore(opts.FilePath), nil
	case "postgres":
		return NewPostgresStore(ctx, opts.DatabaseURL, opts.Key)
	case "redis":
		return NewRedisStore(ctx, opts.RedisURL, opts.Key)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}
