package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/docsearch/internal/domain/search/query"
	searchuc "github.com/kailas-cloud/docsearch/internal/usecase/search"
)

type searchOptions struct {
	limit         int
	minSimilarity float64
	json          bool
}

type searchHit struct {
	ChunkID           int64   `json:"chunk_id"`
	DocumentID        int64   `json:"document_id"`
	DocumentTitle     string  `json:"document_title"`
	Content           string  `json:"content"`
	Similarity        float64 `json:"similarity"`
	SimilarityPercent string  `json:"similarity_percent"`
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	so := &searchOptions{}

	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Semantic search over ingested documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, opts.cfg, opts.logger)
			if err != nil {
				return err
			}
			defer a.close()

			resp, err := a.search.Search(ctx, strings.Join(args, " "), so.limit, so.minSimilarity)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}
			if so.json {
				return outputSearchJSON(cmd, resp)
			}
			outputSearchTable(cmd, resp)
			return nil
		},
	}

	cmd.Flags().IntVarP(&so.limit, "limit", "n", query.DefaultLimit, "maximum number of results")
	cmd.Flags().Float64Var(&so.minSimilarity, "min-similarity", query.DefaultMinSimilarity, "similarity floor in [0,1]")
	cmd.Flags().BoolVar(&so.json, "json", false, "output results as JSON")
	return cmd
}

func toHits(resp searchuc.Response) []searchHit {
	hits := make([]searchHit, len(resp.Results))
	for i := range resp.Results {
		r := &resp.Results[i]
		hits[i] = searchHit{
			ChunkID:           r.ChunkID(),
			DocumentID:        r.DocumentID(),
			DocumentTitle:     r.DocumentTitle(),
			Content:           r.Content(),
			Similarity:        r.Similarity(),
			SimilarityPercent: r.SimilarityPercent(),
		}
	}
	return hits
}

func outputSearchJSON(cmd *cobra.Command, resp searchuc.Response) error {
	data, err := json.MarshalIndent(map[string]any{
		"query":         resp.Query,
		"results":       toHits(resp),
		"total_results": resp.TotalResults,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, resp searchuc.Response) {
	hits := toHits(resp)
	if len(hits) == 0 {
		cmd.Println("No results found.")
		return
	}

	cmd.Printf("Results for %q:\n\n", resp.Query)
	for i, h := range hits {
		cmd.Printf("  [%d] %s (%s)\n", i+1, h.DocumentTitle, h.SimilarityPercent)
		cmd.Printf("      %s\n\n", h.Content)
	}
}
