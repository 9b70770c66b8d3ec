package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/reasongraph/internal/model"
)

// version is overridden at build time with -ldflags "-X ...cli.version=..."
var version = "v0.1.0"

var (
	cfgFile string
	verbose bool
	noCache bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "reasongraph",
	Short: "ReasonGraph - dependency-graph scoring for structured debates",
	Long: `ReasonGraph scores claims, arguments and evidence in a structured debate.

Arguments support or attack claims and each other; evidence anchors
arguments to verifiable sources. Every mutation (linking an argument,
falsifying a source, marking two arguments as duplicates) re-scores exactly
the ancestors that depend on it and returns a trace of every change.

A falsified source drives every argument citing it to zero, and the
claims above them fall back toward the neutral prior.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "reasongraph %s\n", version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.reasongraph/config.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	flags.BoolVar(&noCache, "no-cache", false, "disable the score breakdown cache")
	flags.Float64("epsilon", 0, "minimum score change that keeps propagating (0 = config value)")
	flags.Int("max-depth", 0, "hard bound on propagation depth (0 = config value)")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("log-format", "", "log format: text, json")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", flags.Lookup("verbose"))
	_ = viper.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", flags.Lookup("log-format"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	setDefaults(viper.GetViper(), model.DefaultConfig())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".reasongraph"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// REASONGRAPH_PROPAGATION_EPSILON overrides propagation.epsilon
	viper.SetEnvPrefix("REASONGRAPH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every config key so env variables and Unmarshal
// see the full tree even without a config file.
func setDefaults(v *viper.Viper, cfg *model.Config) {
	v.SetDefault("propagation.epsilon", cfg.Propagation.Epsilon)
	v.SetDefault("propagation.max_depth", cfg.Propagation.MaxDepth)
	v.SetDefault("scoring.unverified_evidence_score", cfg.Scoring.UnverifiedEvidenceScore)
	v.SetDefault("scoring.debunked_threshold", cfg.Scoring.DebunkedThreshold)
	v.SetDefault("cache.enabled", cfg.Cache.Enabled)
	v.SetDefault("cache.ttl", cfg.Cache.TTL)
	v.SetDefault("cache.cleanup_interval", cfg.Cache.CleanupInterval)
	v.SetDefault("concurrency.workers", cfg.Concurrency.Workers)
	v.SetDefault("rate_limiting.mutations_per_second", cfg.RateLimiting.MutationsPerSecond)
	v.SetDefault("rate_limiting.burst_size", cfg.RateLimiting.BurstSize)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("output.verbose", cfg.Output.Verbose)
	v.SetDefault("output.include_trace", cfg.Output.IncludeTrace)
}

// loadConfig merges defaults, config file, env and flags into a validated
// Config.
func loadConfig(cmd *cobra.Command) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// Zero-valued overrides mean "not set" and are applied by hand
	flags := cmd.Flags()
	if eps, err := flags.GetFloat64("epsilon"); err == nil && eps > 0 {
		cfg.Propagation.Epsilon = eps
	}
	if depth, err := flags.GetInt("max-depth"); err == nil && depth > 0 {
		cfg.Propagation.MaxDepth = depth
	}
	if noCache {
		cfg.Cache.Enabled = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the slog logger described by the logging config
func newLogger(cfg model.LoggingConfig) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("logging.level: %w", err)
	}

	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	default:
		return nil, fmt.Errorf("logging.format: unknown format %q", cfg.Format)
	}
}

// setup loads the config and logger shared by every graph command
func setup(cmd *cobra.Command) (*model.Config, *slog.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
