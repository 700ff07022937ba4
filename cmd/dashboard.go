// ABOUTME: Interactive dashboard command for the academix CLI
// ABOUTME: Launches the terminal UI over the shared store, synchronizer and workflow

package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/academix/academix-cli/internal/config"
	"github.com/academix/academix-cli/internal/documents"
	"github.com/academix/academix-cli/internal/schedule"
	"github.com/academix/academix-cli/internal/tui"
	"github.com/academix/academix-cli/internal/tui/debuglog"
)

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"ui"},
	Short:   "Open the interactive dashboard",
	Long: `Open the terminal dashboard to browse and upload documents, add classes and
log out. Connection changes made from other terminals show up live.

Logs are written to debug.log in the config directory while the dashboard runs.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if code := runDashboard(ctx, os.Stdout); code != 0 {
			os.Exit(code)
		}
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(ctx context.Context, w io.Writer) int {
	s, err := openSession(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer s.Close()

	dir := config.DefaultDir()
	log, err := debuglog.Init(dir, s.cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(w, "Warning: debug log unavailable: %v\n", err)
	}
	defer debuglog.Close()
	prev := slog.Default()
	slog.SetDefault(log)
	defer slog.SetDefault(prev)

	notify, expired := tui.ExpiryHook()
	wf, err := s.workflow(schedule.WithTokenExpired(notify))
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	err = tui.Run(ctx, tui.Options{
		Store:     s.store,
		Documents: documents.New(s.client),
		Workflow:  wf,
		Session:   s,
		ConfigDir: dir,
		Backend:   s.cfg.Store,
		Expired:   expired,
	})
	if err != nil && ctx.Err() == nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	return 0
}
