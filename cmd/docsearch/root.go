package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/config"
	logpkg "github.com/kailas-cloud/docsearch/internal/logger"
)

// rootOptions is shared by every subcommand. cfg and logger are filled in PersistentPreRunE.
type rootOptions struct {
	env        string
	configPath string

	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "docsearch",
		Short:         "Document ingestion and semantic search",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return opts.load()
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&opts.env, "env", config.GetEnv(), "environment: selects config/<env>.yaml and the log format")
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "explicit config file, overrides --env lookup")

	cmd.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newIngestCmd(opts),
		newSearchCmd(opts),
		newEmbedPendingCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

func (o *rootOptions) load() error {
	var (
		cfg config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFile(o.configPath)
	} else {
		cfg, err = config.Load(o.env)
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(o.env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	o.cfg = cfg
	o.logger = logger
	return nil
}
