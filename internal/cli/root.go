package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sitesmith/sitesmith/internal/config"
	"github.com/sitesmith/sitesmith/internal/llm/configbuilder"
	"github.com/sitesmith/sitesmith/internal/version"
)

// Options holds global CLI options.
type Options struct {
	ConfigPath string
	LogLevel   string
}

// buildRegistry is swapped out in tests to avoid real backends.
var buildRegistry = configbuilder.BuildRegistryFromConfig

// NewRootCmd constructs the base CLI command tree.
func NewRootCmd() *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:           "sitesmith",
		Short:         "sitesmith generates website tests and a site that satisfies them",
		Version:       version.Full(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "Path to config file (default: sitesmith.yaml in . or configs/)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")

	cmd.AddCommand(NewGenerateCmd(opts))
	cmd.AddCommand(NewSchemaCmd())
	cmd.AddCommand(NewDoctorCmd(opts))
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// ExecuteContext runs the root command under ctx and returns the process exit code.
// Cancelling ctx aborts an in-flight generation.
func ExecuteContext(ctx context.Context) int {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// loadConfig wraps config loading with shared options.
func loadConfig(opts *Options) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}
	return cfg, nil
}
