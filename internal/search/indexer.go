package search

import (
	"context"
	"log/slog"

	"github.com/gstroy/search-service/internal/domain"
)

// Lifecycle is the slice of the search service the indexer drives.
type Lifecycle interface {
	Enabled() bool
	Ping(ctx context.Context) bool
	EnsureIndex(ctx context.Context) bool
	MappingHasFields(ctx context.Context, fields []string) bool
	RebuildIndex(ctx context.Context) bool
	CountDocuments(ctx context.Context) (int, bool)
	BulkIndex(ctx context.Context, products []domain.Product) int
	BatchSize() int
	ForceReindex() bool
}

// ProductSource supplies catalog rows for indexing.
type ProductSource interface {
	CountProducts(ctx context.Context) (int, error)
	ListProductsAfter(ctx context.Context, lastID int64, limit int) ([]domain.Product, error)
}

// Indexer runs the index maintenance pass: verify the index, detect
// mapping drift or document-count divergence, rebuild when needed, and
// stream the catalog into the engine in batches. Safe to run on a
// background goroutine while request paths query concurrently; a query
// issued mid-rebuild may transiently see partial results, which is
// accepted.
type Indexer struct {
	svc    Lifecycle
	source ProductSource
	logger *slog.Logger
}

// NewIndexer creates an indexer over the given service and product source.
func NewIndexer(svc Lifecycle, source ProductSource, logger *slog.Logger) *Indexer {
	return &Indexer{svc: svc, source: source, logger: logger}
}

// Run executes one maintenance pass. Every step is individually
// recoverable; a failed step ends the pass quietly and the next pass
// starts from scratch.
func (ix *Indexer) Run(ctx context.Context) {
	ix.run(ctx, ix.svc.ForceReindex())
}

// RunForced executes one pass with an unconditional rebuild, regardless
// of drift or count checks.
func (ix *Indexer) RunForced(ctx context.Context) {
	ix.run(ctx, true)
}

func (ix *Indexer) run(ctx context.Context, force bool) {
	if !ix.svc.Enabled() {
		return
	}
	if !ix.svc.Ping(ctx) {
		ix.logger.WarnContext(ctx, "search engine unreachable, product search falls back to SQL")
		return
	}
	if !ix.svc.EnsureIndex(ctx) {
		return
	}

	if !ix.svc.MappingHasFields(ctx, RequiredFields) {
		ix.logger.InfoContext(ctx, "search index mapping drift detected, rebuilding")
		if !ix.svc.RebuildIndex(ctx) {
			return
		}
	}

	productCount, err := ix.source.CountProducts(ctx)
	if err != nil {
		ix.logger.WarnContext(ctx, "product count failed, skipping index pass",
			slog.String("error", err.Error()))
		return
	}
	if productCount == 0 {
		return
	}

	docCount, _ := ix.svc.CountDocuments(ctx)
	if !force && docCount == productCount {
		return
	}

	if !ix.svc.RebuildIndex(ctx) {
		return
	}

	batchSize := ix.svc.BatchSize()
	indexed := 0
	var lastID int64
	for {
		batch, err := ix.source.ListProductsAfter(ctx, lastID, batchSize)
		if err != nil {
			ix.logger.WarnContext(ctx, "product batch read failed, aborting index pass",
				slog.Int64("last_id", lastID),
				slog.String("error", err.Error()),
			)
			return
		}
		if len(batch) == 0 {
			break
		}
		indexed += ix.svc.BulkIndex(ctx, batch)
		lastID = batch[len(batch)-1].ID
	}

	ix.logger.InfoContext(ctx, "search index pass complete",
		slog.Int("products", productCount),
		slog.Int("indexed", indexed),
	)
}
