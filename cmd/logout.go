// ABOUTME: Logout command for the academix CLI
// ABOUTME: Ends the backend session and clears local calendar credentials

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out of the student dashboard",
	Long: `End the backend session. Local calendar credentials are cleared only after
the backend confirms the logout.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if code := runLogout(ctx, os.Stdout); code != 0 {
			os.Exit(code)
		}
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}

func runLogout(ctx context.Context, w io.Writer) int {
	s, err := openSession(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer s.Close()

	if err := s.Logout(ctx); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitCodeFor(err)
	}
	fmt.Fprintln(w, "Logged out")
	return 0
}
