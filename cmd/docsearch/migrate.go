package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/db/postgres"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the schema and the vector index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := opts.cfg

			store, err := openStore(ctx, cfg, opts.logger)
			if err != nil {
				return err
			}
			defer store.Close()

			schema := postgres.Schema{
				Dimensions:     cfg.Embedding.Dimensions,
				M:              cfg.Index.HNSWM,
				EfConstruction: cfg.Index.HNSWEFConstruct,
			}
			if err := store.Migrate(ctx, schema); err != nil {
				return err //nolint:wrapcheck // already carries the failing step
			}

			opts.logger.Info("Schema migrated", zap.Int("dimensions", schema.Dimensions))
			cmd.Printf("Schema ready (vector(%d), hnsw m=%d ef_construction=%d)\n",
				schema.Dimensions, schema.M, schema.EfConstruction)
			return nil
		},
	}
}
