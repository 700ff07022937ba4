// ABOUTME: Profile commands for the academix CLI
// ABOUTME: Caches the student's usernames on coding platforms next to the credentials

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Manage cached platform usernames",
}

var profilesSetCmd = &cobra.Command{
	Use:   "set <platform=username>...",
	Short: "Save platform usernames",
	Long: `Save usernames for coding platforms. Existing entries for other platforms
are kept; an empty username removes the platform.

Example:
  academix profiles set LeetCode=lee Codeforces=tourist`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if code := runProfilesSet(ctx, os.Stdout, args); code != 0 {
			os.Exit(code)
		}
	},
}

var profilesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show cached platform usernames",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if code := runProfilesShow(ctx, os.Stdout); code != 0 {
			os.Exit(code)
		}
	},
}

func init() {
	profilesCmd.AddCommand(profilesSetCmd, profilesShowCmd)
	rootCmd.AddCommand(profilesCmd)
}

// parseProfiles splits platform=username pairs.
func parseProfiles(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, arg := range args {
		platform, user, ok := strings.Cut(arg, "=")
		platform = strings.TrimSpace(platform)
		if !ok || platform == "" {
			return nil, fmt.Errorf("invalid profile %q, expected platform=username", arg)
		}
		out[platform] = strings.TrimSpace(user)
	}
	return out, nil
}

func runProfilesSet(ctx context.Context, w io.Writer, args []string) int {
	updates, err := parseProfiles(args)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	store, err := openStore(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer store.Close()

	names := store.Usernames(ctx)
	if names == nil {
		names = make(map[string]string)
	}
	for platform, user := range updates {
		if user == "" {
			delete(names, platform)
			continue
		}
		names[platform] = user
	}

	if err := store.SaveUsernames(ctx, names); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	fmt.Fprint(w, formatProfiles(names))
	return 0
}

func runProfilesShow(ctx context.Context, w io.Writer) int {
	store, err := openStore(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer store.Close()

	names := store.Usernames(ctx)
	if IsJSONOutput() {
		if names == nil {
			names = map[string]string{}
		}
		printJSON(w, names)
		return 0
	}
	fmt.Fprint(w, formatProfiles(names))
	return 0
}

func formatProfiles(names map[string]string) string {
	if len(names) == 0 {
		return "No platform usernames saved.\n"
	}
	platforms := make([]string, 0, len(names))
	for p := range names {
		platforms = append(platforms, p)
	}
	sort.Strings(platforms)

	var sb strings.Builder
	for _, p := range platforms {
		fmt.Fprintf(&sb, "%-12s %s\n", p+":", names[p])
	}
	return sb.String()
}
