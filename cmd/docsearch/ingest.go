package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/docsearch/internal/domain"
	"github.com/kailas-cloud/docsearch/internal/logger"
)

type ingestOptions struct {
	title       string
	concurrency int
}

func newIngestCmd(opts *rootOptions) *cobra.Command {
	io := &ingestOptions{}

	cmd := &cobra.Command{
		Use:   "ingest FILE...",
		Short: "Ingest text files as documents",
		Long: `Reads each file, splits it into chunks, embeds the chunks and stores everything.
Files are processed concurrently. The document title is the file name unless --title is given.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.MinimumNArgs(1)(cmd, args); err != nil {
				return err //nolint:wrapcheck // cobra message
			}
			if io.title != "" && len(args) > 1 {
				return errors.New("--title can only be used with a single file")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, opts, io, args)
		},
	}

	cmd.Flags().StringVarP(&io.title, "title", "t", "", "document title (single file only)")
	cmd.Flags().IntVarP(&io.concurrency, "concurrency", "j", 0, "parallel ingestions (default: ingestion.concurrency)")
	return cmd
}

func runIngest(cmd *cobra.Command, opts *rootOptions, io *ingestOptions, files []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, opts.cfg, opts.logger)
	if err != nil {
		return err
	}
	defer a.close()

	limit := io.concurrency
	if limit <= 0 {
		limit = opts.cfg.Ingestion.Concurrency
	}

	var (
		mu     sync.Mutex
		failed []error
	)
	report := func(format string, args ...any) {
		mu.Lock()
		defer mu.Unlock()
		cmd.Printf(format, args...)
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for _, path := range files {
		g.Go(func() error {
			fileCtx, usage := domain.NewContextWithUsage(ctx)
			fileCtx = logger.ContextWithLogger(fileCtx, opts.logger.With(zap.String("file", path)))

			content, err := os.ReadFile(filepath.Clean(path))
			if err != nil {
				err = fmt.Errorf("%s: %w", path, err)
			} else {
				var d documentDetails
				d, err = ingestOne(fileCtx, a, titleFor(path, io.title), string(content))
				if err == nil {
					report("%s: document %d, %d chunks (%d embedded), %d tokens\n",
						path, d.id, d.chunks, d.embedded, usage.TotalTokens)
					return nil
				}
				err = fmt.Errorf("%s: %w", path, err)
			}

			mu.Lock()
			failed = append(failed, err)
			mu.Unlock()
			report("%s: failed: %v\n", path, err)
			return nil
		})
	}
	_ = g.Wait()

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d files failed: %w", len(failed), len(files), errors.Join(failed...))
	}
	return nil
}

// titleFor returns the explicit title or the file name without its extension.
func titleFor(path, explicit string) string {
	if explicit != "" {
		return explicit
	}
	base := filepath.Base(path)
	if t := strings.TrimSuffix(base, filepath.Ext(base)); t != "" {
		return t
	}
	return base
}

type documentDetails struct {
	id       int64
	chunks   int
	embedded int
}

func ingestOne(ctx context.Context, a *app, title, content string) (documentDetails, error) {
	d, err := a.documents.Create(ctx, title, content)
	if err != nil {
		return documentDetails{}, err //nolint:wrapcheck // caller adds the file name
	}
	return documentDetails{
		id:       d.Document.ID(),
		chunks:   d.Status.TotalChunks,
		embedded: d.Status.ChunksWithEmbeddings,
	}, nil
}
