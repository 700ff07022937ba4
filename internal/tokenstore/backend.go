// ABOUTME: Storage contract behind the token store
// ABOUTME: Backends persist string keys and report changes tagged with the writer's origin

package tokenstore

import (
	"context"
	"errors"
)

// Keys persisted by the store. Clear removes all of them.
const (
	KeyAccessToken  = "calendar.access_token"
	KeyRefreshToken = "calendar.refresh_token"
	KeyExpiresAt    = "calendar.expires_at_ms"
	KeyUsernames    = "profiles.usernames"
)

// AllKeys lists every key the store owns.
var AllKeys = []string{KeyAccessToken, KeyRefreshToken, KeyExpiresAt, KeyUsernames}

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("token backend closed")

// ChangeFunc receives the origin of the context that changed the backend.
type ChangeFunc func(origin string)

// Backend is a small persistent key-value store with change notification.
//
// Set writes only the given keys. Delete removes the given keys in one
// operation. Both tag the change with origin so that watchers can tell their
// own writes apart from writes made by other contexts.
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, origin string, values map[string]string) error
	Delete(ctx context.Context, origin string, keys ...string) error
	// Watch calls fn for every change until ctx is done.
	Watch(ctx context.Context, fn ChangeFunc) error
	Close() error
}
