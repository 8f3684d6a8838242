// Package metadata is the durable key/value store of the client. It backs the
// long-lived token slot and any other small value that must survive restarts.
package metadata

import (
	"context"
)

// Well-known keys.
const (
	KeyRefreshToken = "refresh_token"
)

// Repository is a flat key/value store. Get returns (nil, nil) for a
// missing key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
