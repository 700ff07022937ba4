// ABOUTME: Attaches calendar credentials to outgoing requests and adopts refreshed tokens
// ABOUTME: The single point where HTTP calls read from or write to the token store

package envelope

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/academix/academix-cli/internal/tokenstore"
)

// RefreshTokenHeader carries the refresh token next to the bearer credential.
const RefreshTokenHeader = "X-Refresh-Token"

// RefreshedTokens is the "tokens" object the backend returns after it refreshed
// the calendar credential. Any field may be missing.
type RefreshedTokens struct {
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
}

// Empty reports whether no field is present.
func (t *RefreshedTokens) Empty() bool {
	return t == nil || (t.AccessToken == "" && t.RefreshToken == "" && t.ExpiresIn <= 0)
}

// Builder decorates requests from the token store.
type Builder struct {
	store *tokenstore.Store
	now   func() time.Time
}

// New returns a builder over store using the wall clock.
func New(store *tokenstore.Store) *Builder {
	return &Builder{store: store, now: time.Now}
}

// WithClock replaces the clock used to compute expiry instants.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Apply sets Authorization when an access token is stored and X-Refresh-Token
// when a refresh token is stored. Missing tokens leave the header unset.
func (b *Builder) Apply(ctx context.Context, req *http.Request) {
	pair := b.store.Read(ctx)
	if pair.AccessToken != "" {
		pair.OAuth2().SetAuthHeader(req)
	}
	if pair.RefreshToken != "" {
		req.Header.Set(RefreshTokenHeader, pair.RefreshToken)
	}
}

// Adopt writes every present field of t to the store. It reports whether
// anything was written.
func (b *Builder) Adopt(ctx context.Context, t *RefreshedTokens) (bool, error) {
	if t.Empty() {
		return false, nil
	}
	pair := tokenstore.TokenPair{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
	}
	if t.ExpiresIn > 0 {
		pair.ExpiresAt = b.now().Add(time.Duration(t.ExpiresIn) * time.Second)
	}
	if err := b.store.Write(ctx, pair); err != nil {
		return false, err
	}
	slog.Info("Adopted refreshed calendar tokens",
		"access", t.AccessToken != "",
		"refresh", t.RefreshToken != "",
		"expires_in", t.ExpiresIn)
	return true, nil
}

// Invalidate drops the stored credentials after the backend reported them expired.
func (b *Builder) Invalidate(ctx context.Context) error {
	slog.Warn("Calendar token expired, clearing stored credentials")
	return b.store.Clear(ctx)
}
