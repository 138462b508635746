package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/docsearch/internal/domain"
)

func newEmbedPendingCmd(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "embed-pending",
		Short: "Embed stored chunks that have no vector yet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, usage := domain.NewContextWithUsage(cmd.Context())
			a, err := newApp(ctx, opts.cfg, opts.logger)
			if err != nil {
				return err
			}
			defer a.close()

			n, err := a.documents.EmbedPending(ctx, limit)
			if err != nil {
				return fmt.Errorf("embed pending: %w", err)
			}
			cmd.Printf("Embedded %d chunks (%d tokens)\n", n, usage.TotalTokens)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum chunks to embed (default: ingestion.backfill_limit)")
	return cmd
}
