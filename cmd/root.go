// ABOUTME: Root command for the academix CLI
// ABOUTME: Handles global flags, layered configuration and logging setup

package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/academix/academix-cli/internal/config"
	"github.com/academix/academix-cli/internal/logger"
)

var (
	apiURL     string
	jsonOutput bool
	configFile string
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "academix",
	Short: "CLI for the AcademiX student dashboard",
	Long: `academix is a terminal client for the AcademiX student dashboard.

It manages your uploaded documents, adds weekly classes to Google Calendar and
keeps calendar credentials in sync between terminals.

Configuration is read from flags, ACADEMIX_* environment variables (a .env file
in the working directory is honored), then $XDG_CONFIG_HOME/academix/config.yaml.

Environment Variables:
  ACADEMIX_API_URL         Backend API URL (default: http://localhost:8000)
  ACADEMIX_STORE           Token store: file, redis or memory (default: file)
  ACADEMIX_SESSION_COOKIE  Student session cookie as name=value`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Assigned here rather than in the literal to avoid an initialization
	// cycle (rootCmd -> loadConfig -> newViper -> rootCmd).
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger.Init(cfg.LogLevel, cfg.LogFormat)
		return nil
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&apiURL, "api-url", "", "Backend API URL (overrides ACADEMIX_API_URL)")
	pf.BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
	pf.StringVar(&configFile, "config", "", "Config file (default $XDG_CONFIG_HOME/academix/config.yaml)")
	pf.String("store", "", "Token store: file, redis or memory")
	pf.String("store-dir", "", "Directory for the file token store")
	pf.String("redis-url", "", "Redis URL for the redis token store")
	pf.String("timezone", "", "IANA timezone used to resolve class times (default local)")
	pf.String("session-cookie", "", "Student session cookie as name=value")
	pf.Duration("timeout", 0, "Per-request timeout")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
}

// flagKeys maps persistent flags onto config keys.
var flagKeys = map[string]string{
	"store":          config.KeyStore,
	"store-dir":      config.KeyStoreDir,
	"redis-url":      config.KeyRedisURL,
	"timezone":       config.KeyTimezone,
	"session-cookie": config.KeySessionCookie,
	"timeout":        config.KeyTimeout,
	"log-level":      config.KeyLogLevel,
}

func newViper() *viper.Viper {
	file := configFile
	if file == "" {
		file = config.DefaultFile()
	}
	v := config.NewViper(file)
	for flag, key := range flagKeys {
		_ = v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag))
	}
	return v
}

// loadConfig returns the effective settings with the --api-url override applied.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(newViper())
	if err != nil {
		return nil, err
	}
	if apiURL != "" {
		cfg.APIURL = apiURL
	}
	return cfg, nil
}

// GetAPIURL returns the API URL from flag, env, config file or default (in priority order)
func GetAPIURL() string {
	if apiURL != "" {
		return apiURL
	}
	cfg, err := loadConfig()
	if err != nil {
		return config.DefaultAPIURL
	}
	return cfg.APIURL
}

// IsJSONOutput returns whether JSON output is requested
func IsJSONOutput() bool {
	return jsonOutput
}
