package search

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gstroy/search-service/internal/domain"
)

// stubLifecycle scripts the engine-side answers and records rebuilds and
// indexed batches.
type stubLifecycle struct {
	enabled   bool
	pingOK    bool
	ensureOK  bool
	mappingOK bool
	rebuildOK bool
	docCount  int
	force     bool
	batchSize int
	rebuilds  int
	indexed   [][]int64
}

func (s *stubLifecycle) Enabled() bool { return s.enabled }
func (s *stubLifecycle) Ping(context.Context) bool { return s.pingOK }
func (s *stubLifecycle) EnsureIndex(context.Context) bool { return s.ensureOK }
func (s *stubLifecycle) MappingHasFields(context.Context, []string) bool { return s.mappingOK }
func (s *stubLifecycle) CountDocuments(context.Context) (int, bool) { return s.docCount, true }
func (s *stubLifecycle) ForceReindex() bool { return s.force }

func (s *stubLifecycle) RebuildIndex(context.Context) bool {
	s.rebuilds++
	return s.rebuildOK
}

func (s *stubLifecycle) BulkIndex(_ context.Context, products []domain.Product) int {
	ids := make([]int64, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	s.indexed = append(s.indexed, ids)
	return len(products)
}

func (s *stubLifecycle) BatchSize() int {
	if s.batchSize > 0 {
		return s.batchSize
	}
	return 1000
}

// stubSource serves a fixed id-ordered catalog.
type stubSource struct {
	ids      []int64
	countErr error
	listErr  error
}

func (s *stubSource) CountProducts(context.Context) (int, error) {
	return len(s.ids), s.countErr
}

func (s *stubSource) ListProductsAfter(_ context.Context, lastID int64, limit int) ([]domain.Product, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var batch []domain.Product
	for _, id := range s.ids {
		if id > lastID && len(batch) < limit {
			batch = append(batch, domain.Product{ID: id, Name: "Продукт", IsActive: true})
		}
	}
	return batch, nil
}

func healthyLifecycle() *stubLifecycle {
	return &stubLifecycle{
		enabled:   true,
		pingOK:    true,
		ensureOK:  true,
		mappingOK: true,
		rebuildOK: true,
	}
}

func testIndexer(svc Lifecycle, source ProductSource) *Indexer {
	return NewIndexer(svc, source, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestIndexer_DisabledDoesNothing(t *testing.T) {
	svc := healthyLifecycle()
	svc.enabled = false
	testIndexer(svc, &stubSource{ids: []int64{1, 2}}).Run(context.Background())

	assert.Zero(t, svc.rebuilds)
	assert.Empty(t, svc.indexed)
}

func TestIndexer_UnreachableEngineEndsPass(t *testing.T) {
	svc := healthyLifecycle()
	svc.pingOK = false
	testIndexer(svc, &stubSource{ids: []int64{1, 2}}).Run(context.Background())

	assert.Zero(t, svc.rebuilds)
	assert.Empty(t, svc.indexed)
}

func TestIndexer_MappingDriftTriggersRebuild(t *testing.T) {
	svc := healthyLifecycle()
	svc.mappingOK = false
	svc.docCount = 3
	testIndexer(svc, &stubSource{ids: []int64{1, 2, 3}}).Run(context.Background())

	// One rebuild for the drift, one before the full re-stream.
	assert.Equal(t, 2, svc.rebuilds)
	assert.NotEmpty(t, svc.indexed)
}

func TestIndexer_MatchingCountsSkipReindex(t *testing.T) {
	svc := healthyLifecycle()
	svc.docCount = 3
	testIndexer(svc, &stubSource{ids: []int64{1, 2, 3}}).Run(context.Background())

	assert.Zero(t, svc.rebuilds)
	assert.Empty(t, svc.indexed)
}

func TestIndexer_CountDivergenceReindexesInBatches(t *testing.T) {
	svc := healthyLifecycle()
	svc.docCount = 1
	svc.batchSize = 2
	testIndexer(svc, &stubSource{ids: []int64{1, 2, 3, 4, 5}}).Run(context.Background())

	assert.Equal(t, 1, svc.rebuilds)
	assert.Equal(t, [][]int64{{1, 2}, {3, 4}, {5}}, svc.indexed)
}

func TestIndexer_ForceRebuildsDespiteMatchingCounts(t *testing.T) {
	svc := healthyLifecycle()
	svc.docCount = 2
	svc.force = true
	testIndexer(svc, &stubSource{ids: []int64{1, 2}}).Run(context.Background())

	assert.Equal(t, 1, svc.rebuilds)
	assert.Equal(t, [][]int64{{1, 2}}, svc.indexed)
}

func TestIndexer_RunForcedOverridesCountCheck(t *testing.T) {
	svc := healthyLifecycle()
	svc.docCount = 2
	testIndexer(svc, &stubSource{ids: []int64{1, 2}}).RunForced(context.Background())

	assert.Equal(t, 1, svc.rebuilds)
	assert.Equal(t, [][]int64{{1, 2}}, svc.indexed)
}

func TestIndexer_EmptyCatalogSkipsReindex(t *testing.T) {
	svc := healthyLifecycle()
	svc.docCount = 5
	testIndexer(svc, &stubSource{}).Run(context.Background())

	assert.Zero(t, svc.rebuilds)
	assert.Empty(t, svc.indexed)
}

func TestIndexer_SourceErrorsEndPassQuietly(t *testing.T) {
	svc := healthyLifecycle()
	testIndexer(svc, &stubSource{ids: []int64{1}, countErr: errors.New("db down")}).Run(context.Background())
	assert.Zero(t, svc.rebuilds)

	svc = healthyLifecycle()
	svc.docCount = 0
	testIndexer(svc, &stubSource{ids: []int64{1, 2}, listErr: errors.New("db down")}).Run(context.Background())
	assert.Equal(t, 1, svc.rebuilds)
	assert.Empty(t, svc.indexed)
}
