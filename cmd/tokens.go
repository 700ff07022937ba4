// ABOUTME: Token commands for the academix CLI
// ABOUTME: Inspects, seeds, clears and watches the stored calendar credentials

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/academix/academix-cli/internal/tokenstore"
)

var (
	setAccess    string
	setRefresh   string
	setExpiresIn int64
)

var tokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "Inspect and manage calendar credentials",
}

var tokensStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether calendar credentials are stored",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if code := runTokensStatus(ctx, os.Stdout); code != 0 {
			os.Exit(code)
		}
	},
}

var tokensSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store calendar credentials",
	Long: `Store calendar credentials obtained elsewhere, for example from the OAuth
redirect. Only the given fields are written; others keep their value.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if code := runTokensSet(ctx, os.Stdout, setAccess, setRefresh, setExpiresIn); code != 0 {
			os.Exit(code)
		}
	},
}

var tokensClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove stored calendar credentials",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if code := runTokensClear(ctx, os.Stdout); code != 0 {
			os.Exit(code)
		}
	},
}

var tokensWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print connection changes made by other terminals",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if code := runTokensWatch(ctx, os.Stdout); code != 0 {
			os.Exit(code)
		}
	},
}

func init() {
	tokensSetCmd.Flags().StringVar(&setAccess, "access", "", "Access token")
	tokensSetCmd.Flags().StringVar(&setRefresh, "refresh", "", "Refresh token")
	tokensSetCmd.Flags().Int64Var(&setExpiresIn, "expires-in", 0, "Seconds until the access token expires")

	tokensCmd.AddCommand(tokensStatusCmd, tokensSetCmd, tokensClearCmd, tokensWatchCmd)
	rootCmd.AddCommand(tokensCmd)
}

type tokenStatus struct {
	Connected       bool       `json:"connected"`
	HasAccessToken  bool       `json:"has_access_token"`
	HasRefreshToken bool       `json:"has_refresh_token"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	Expired         bool       `json:"expired"`
}

func newTokenStatus(p tokenstore.TokenPair, now time.Time) tokenStatus {
	st := tokenStatus{
		Connected:       p.Connected(),
		HasAccessToken:  p.AccessToken != "",
		HasRefreshToken: p.RefreshToken != "",
	}
	if !p.ExpiresAt.IsZero() {
		exp := p.ExpiresAt
		st.ExpiresAt = &exp
		st.Expired = !now.Before(exp)
	}
	return st
}

// mask hides all but the last four characters of a token.
func mask(token string) string {
	if token == "" {
		return "(none)"
	}
	if len(token) <= 4 {
		return "****"
	}
	return "****" + token[len(token)-4:]
}

func formatTokensHuman(p tokenstore.TokenPair, now time.Time) string {
	st := newTokenStatus(p, now)
	connected := "no"
	if st.Connected {
		connected = "yes"
	}
	expiry := "unknown"
	if st.ExpiresAt != nil {
		expiry = st.ExpiresAt.Local().Format(time.RFC1123)
		if st.Expired {
			expiry += " (expired)"
		}
	}
	return fmt.Sprintf(`Connected:      %s
Access token:   %s
Refresh token:  %s
Expires:        %s
`, connected, mask(p.AccessToken), mask(p.RefreshToken), expiry)
}

func runTokensStatus(ctx context.Context, w io.Writer) int {
	store, err := openStore(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer store.Close()

	pair := store.Read(ctx)
	if IsJSONOutput() {
		printJSON(w, newTokenStatus(pair, time.Now()))
	} else {
		fmt.Fprint(w, formatTokensHuman(pair, time.Now()))
	}
	if !pair.Connected() {
		return 1
	}
	return 0
}

func runTokensSet(ctx context.Context, w io.Writer, access, refresh string, expiresIn int64) int {
	pair := tokenstore.TokenPair{AccessToken: access, RefreshToken: refresh}
	if expiresIn > 0 {
		pair.ExpiresAt = time.Now().Add(time.Duration(expiresIn) * time.Second)
	}
	if pair == (tokenstore.TokenPair{}) {
		fmt.Fprintln(w, "Error: nothing to store; pass --access, --refresh or --expires-in")
		return 2
	}

	store, err := openStore(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer store.Close()

	if err := store.Write(ctx, pair); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	if store.IsConnected(ctx) {
		fmt.Fprintln(w, "Calendar connected")
	} else {
		fmt.Fprintln(w, "Tokens stored; calendar not connected yet")
	}
	return 0
}

func runTokensClear(ctx context.Context, w io.Writer) int {
	store, err := openStore(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer store.Close()

	if err := store.Clear(ctx); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	fmt.Fprintln(w, "Calendar credentials cleared")
	return 0
}

func runTokensWatch(ctx context.Context, w io.Writer) int {
	store, err := openStore(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer store.Close()

	unsubscribe := store.Subscribe(func(connected bool) {
		state := "disconnected"
		if connected {
			state = "connected"
		}
		fmt.Fprintf(w, "%s calendar %s\n", time.Now().Format("15:04:05"), state)
	})
	defer unsubscribe()

	fmt.Fprintf(w, "Watching for credential changes (connected: %v). Press Ctrl+C to stop.\n", store.IsConnected(ctx))
	if err := store.Watch(ctx); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	return 0
}
