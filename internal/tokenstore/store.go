// ABOUTME: Session-lifetime holder of the calendar access/refresh token pair
// ABOUTME: Selective-field writes, atomic clear, and cross-context connection notifications

package tokenstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// TokenPair is the calendar credential set. Empty fields are absent.
type TokenPair struct {
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
}

// Authenticated reports whether calendar calls can carry a credential.
func (p TokenPair) Authenticated() bool {
	return p.AccessToken != ""
}

// Connected reports whether both tokens are present.
func (p TokenPair) Connected() bool {
	return p.AccessToken != "" && p.RefreshToken != ""
}

// OAuth2 converts the pair to an oauth2 token for header construction.
func (p TokenPair) OAuth2() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  p.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: p.RefreshToken,
		Expiry:       p.ExpiresAt,
	}
}

// Store wraps a Backend with the token semantics used by the rest of the client.
type Store struct {
	backend Backend
	origin  string

	mu     sync.Mutex
	nextID int
	subs   map[int]func(connected bool)
}

// New creates a store bound to backend with a fresh origin id.
func New(backend Backend) *Store {
	return &Store{
		backend: backend,
		origin:  uuid.NewString(),
		subs:    make(map[int]func(bool)),
	}
}

// Origin identifies this store's writes on the shared backend.
func (s *Store) Origin() string {
	return s.origin
}

// Read returns the current pair. Backend failures are logged and read as absent.
func (s *Store) Read(ctx context.Context) TokenPair {
	var p TokenPair
	p.AccessToken = s.get(ctx, KeyAccessToken)
	p.RefreshToken = s.get(ctx, KeyRefreshToken)
	if raw := s.get(ctx, KeyExpiresAt); raw != "" {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			slog.Warn("Ignoring malformed token expiry", "value", raw)
		} else {
			p.ExpiresAt = time.UnixMilli(ms)
		}
	}
	return p
}

func (s *Store) get(ctx context.Context, key string) string {
	v, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		slog.Warn("Token store read failed", "key", key, "error", err)
		return ""
	}
	if !ok {
		return ""
	}
	return v
}

// Write persists every non-empty field of p. Fields left empty are untouched.
func (s *Store) Write(ctx context.Context, p TokenPair) error {
	values := make(map[string]string, 3)
	if p.AccessToken != "" {
		values[KeyAccessToken] = p.AccessToken
	}
	if p.RefreshToken != "" {
		values[KeyRefreshToken] = p.RefreshToken
	}
	if !p.ExpiresAt.IsZero() {
		values[KeyExpiresAt] = strconv.FormatInt(p.ExpiresAt.UnixMilli(), 10)
	}
	if len(values) == 0 {
		return nil
	}
	if err := s.backend.Set(ctx, s.origin, values); err != nil {
		return fmt.Errorf("failed to persist tokens: %w", err)
	}
	slog.Debug("Tokens written", "fields", len(values))
	return nil
}

// Clear removes the token pair, its expiry and the cached profile usernames.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.backend.Delete(ctx, s.origin, AllKeys...); err != nil {
		return fmt.Errorf("failed to clear tokens: %w", err)
	}
	slog.Debug("Tokens cleared")
	return nil
}

// IsConnected is true iff access and refresh tokens are both present.
func (s *Store) IsConnected(ctx context.Context) bool {
	return s.Read(ctx).Connected()
}

// SaveUsernames caches coding-profile usernames keyed by platform.
func (s *Store) SaveUsernames(ctx context.Context, names map[string]string) error {
	data, err := json.Marshal(names)
	if err != nil {
		return fmt.Errorf("failed to encode usernames: %w", err)
	}
	return s.backend.Set(ctx, s.origin, map[string]string{KeyUsernames: string(data)})
}

// Usernames returns the cached coding-profile usernames, or an empty map.
func (s *Store) Usernames(ctx context.Context) map[string]string {
	names := map[string]string{}
	raw := s.get(ctx, KeyUsernames)
	if raw == "" {
		return names
	}
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		slog.Warn("Ignoring malformed cached usernames", "error", err)
		return map[string]string{}
	}
	return names
}

// Subscribe registers fn to receive the re-evaluated connection state whenever
// another context changes the backend. The returned func unregisters it.
func (s *Store) Subscribe(fn func(connected bool)) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Watch relays foreign backend changes to subscribers until ctx is done.
// Changes made through this store are ignored.
func (s *Store) Watch(ctx context.Context) error {
	return s.backend.Watch(ctx, func(origin string) {
		if origin == s.origin {
			return
		}
		connected := s.IsConnected(ctx)
		slog.Debug("Token store changed elsewhere", "origin", origin, "connected", connected)

		s.mu.Lock()
		fns := make([]func(bool), 0, len(s.subs))
		for _, fn := range s.subs {
			fns = append(fns, fn)
		}
		s.mu.Unlock()

		for _, fn := range fns {
			fn(connected)
		}
	})
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
