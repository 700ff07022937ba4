// ABOUTME: Config commands for the academix CLI
// ABOUTME: Writes a starter config file and prints the effective settings

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/academix/academix-cli/internal/config"
)

var (
	forceInit  bool
	revealShow bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default settings",
	Run: func(cmd *cobra.Command, args []string) {
		if code := runConfigInit(os.Stdout, forceInit); code != 0 {
			os.Exit(code)
		}
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings as YAML",
	Run: func(cmd *cobra.Command, args []string) {
		if code := runConfigShow(os.Stdout, revealShow); code != 0 {
			os.Exit(code)
		}
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing config file")
	configShowCmd.Flags().BoolVar(&revealShow, "reveal", false, "Show the session cookie instead of redacting it")

	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func configPath() string {
	if configFile != "" {
		return configFile
	}
	return config.DefaultFile()
}

func runConfigInit(w io.Writer, force bool) int {
	path := configPath()
	if err := config.WriteDefault(path, force); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	fmt.Fprintf(w, "Wrote %s\n", path)
	return 0
}

func runConfigShow(w io.Writer, reveal bool) int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	data, err := cfg.YAML(reveal)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	fmt.Fprint(w, string(data))
	return 0
}
