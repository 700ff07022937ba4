// ABOUTME: Builds the token store, envelope and API client shared by commands
// ABOUTME: Selects the file, redis or memory backend from configuration

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/academix/academix-cli/internal/client"
	"github.com/academix/academix-cli/internal/config"
	"github.com/academix/academix-cli/internal/envelope"
	"github.com/academix/academix-cli/internal/schedule"
	"github.com/academix/academix-cli/internal/tokenstore"
)

type session struct {
	cfg    *config.Config
	store  *tokenstore.Store
	env    *envelope.Builder
	client *client.Client
}

func openBackend(ctx context.Context, cfg *config.Config) (tokenstore.Backend, error) {
	switch cfg.Store {
	case config.StoreRedis:
		return tokenstore.DialRedis(ctx, cfg.RedisURL, cfg.RedisPrefix)
	case config.StoreMemory:
		return tokenstore.NewMemoryBackend(), nil
	default:
		return tokenstore.NewFileBackend(cfg.StoreDir), nil
	}
}

// openStore opens only the token store, for commands that never call the backend.
func openStore(ctx context.Context) (*tokenstore.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return tokenstore.New(backend), nil
}

// openSession wires the store, envelope and client for one command run.
func openSession(ctx context.Context) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store := tokenstore.New(backend)
	env := envelope.New(store)

	c, err := client.New(cfg.APIURL,
		client.WithTimeout(cfg.Timeout),
		client.WithAuthorizer(env),
		client.WithSessionCookie(cfg.SessionCookie),
	)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &session{cfg: cfg, store: store, env: env, client: c}, nil
}

func (s *session) Close() error {
	return s.store.Close()
}

// Logout ends the backend session and clears local credentials only if the
// backend accepted it.
func (s *session) Logout(ctx context.Context) error {
	if err := s.client.Logout(ctx); err != nil {
		return err
	}
	return s.store.Clear(ctx)
}

func (s *session) workflow(opts ...schedule.Option) (*schedule.Workflow, error) {
	loc, err := s.cfg.Location()
	if err != nil {
		return nil, err
	}
	return schedule.New(s.client, s.env, append([]schedule.Option{schedule.WithLocation(loc)}, opts...)...), nil
}

// exitCodeFor maps an error to the CLI exit code: 1 when the backend rejected
// the request, 2 for transport and local failures.
func exitCodeFor(err error) int {
	if client.IsRejected(err) {
		return 1
	}
	return 2
}

func printJSON(w io.Writer, v any) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(w, string(data))
}
