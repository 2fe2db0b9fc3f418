package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gstroy/search-service/internal/domain"
	"github.com/gstroy/search-service/internal/search"
	apperrors "github.com/gstroy/search-service/pkg/errors"
	"github.com/gstroy/search-service/pkg/health"
	"github.com/gstroy/search-service/pkg/httputil"
)

type stubEngine struct {
	enabled     bool
	result      *domain.SearchResult
	suggestions []domain.Suggestion

	searchCalls int
	lastRequest *domain.SearchRequest
	lastPrefix  string
	lastLimit   int
}

func (e *stubEngine) Enabled() bool { return e.enabled }

func (e *stubEngine) Search(_ context.Context, req *domain.SearchRequest) *domain.SearchResult {
	e.searchCalls++
	e.lastRequest = req
	return e.result
}

func (e *stubEngine) Suggest(_ context.Context, query string, limit int) []domain.Suggestion {
	e.lastPrefix = query
	e.lastLimit = limit
	return e.suggestions
}

type stubCatalog struct {
	products []domain.Product
	total    int
	byID     map[int64]domain.Product
	byIDs    []domain.Product
	brands   []string
	groups   []string
	err      error

	fallbackCalls int
	lastFallback  *domain.SearchRequest
	lastIDs       []int64
}

func (c *stubCatalog) FallbackSearch(_ context.Context, req *domain.SearchRequest) ([]domain.Product, int, error) {
	c.fallbackCalls++
	c.lastFallback = req
	return c.products, c.total, c.err
}

func (c *stubCatalog) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	if c.err != nil {
		return nil, c.err
	}
	p, ok := c.byID[id]
	if !ok {
		return nil, apperrors.NotFound("product", strconv.FormatInt(id, 10))
	}
	return &p, nil
}

func (c *stubCatalog) GetByIDs(_ context.Context, ids []int64) ([]domain.Product, error) {
	c.lastIDs = ids
	return c.byIDs, c.err
}

func (c *stubCatalog) ListBrands(context.Context) ([]string, error) { return c.brands, c.err }

func (c *stubCatalog) ListMainGroups(context.Context) ([]string, error) { return c.groups, c.err }

type stubIndexer struct {
	ran chan struct{}
}

func (ix *stubIndexer) RunForced(context.Context) {
	select {
	case ix.ran <- struct{}{}:
	default:
	}
}

func newTestRouter(engine *stubEngine, store *stubCatalog, indexer *stubIndexer) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewProductHandler(engine, store, indexer, logger)
	return NewRouter(h, health.NewHandler(), logger)
}

// listEnvelope mirrors the paginated response wrapped in the standard envelope.
type listEnvelope struct {
	Data struct {
		Data       []ProductResponse `json:"data"`
		TotalCount int               `json:"total_count"`
		Page       int               `json:"page"`
		PerPage    int               `json:"per_page"`
		TotalPages int               `json:"total_pages"`
		HasNext    bool              `json:"has_next"`
	} `json:"data"`
	Error *httputil.ErrorResponse `json:"error"`
}

func doGet(t *testing.T, router http.Handler, target string) (*httptest.ResponseRecorder, listEnvelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env listEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&env))
	return w, env
}

func namedProduct(id int64, name string) domain.Product {
	return domain.Product{ID: id, Name: name, IsActive: true}
}

func TestList_NoFiltersSkipsEngine(t *testing.T) {
	engine := &stubEngine{enabled: true, result: &domain.SearchResult{IDs: []int64{1}, Total: 1}}
	store := &stubCatalog{products: []domain.Product{namedProduct(1, "Винт")}, total: 1}
	router := newTestRouter(engine, store, &stubIndexer{})

	w, env := doGet(t, router, "/api/v1/products")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, engine.searchCalls)
	assert.Equal(t, 1, store.fallbackCalls)
	require.Len(t, env.Data.Data, 1)
	assert.Equal(t, "Винт", env.Data.Data[0].Name)
}

func TestList_EngineDisabledUsesFallback(t *testing.T) {
	engine := &stubEngine{enabled: false}
	store := &stubCatalog{products: []domain.Product{namedProduct(3, "Гипсокартон")}, total: 1}
	router := newTestRouter(engine, store, &stubIndexer{})

	w, env := doGet(t, router, "/api/v1/products?q=гипсокартон")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, engine.searchCalls)
	assert.Equal(t, 1, store.fallbackCalls)
	assert.Equal(t, "гипсокартон", store.lastFallback.Query)
	assert.Equal(t, 1, env.Data.TotalCount)
}

func TestList_EngineHitHydratesInRankOrder(t *testing.T) {
	engine := &stubEngine{enabled: true, result: &domain.SearchResult{IDs: []int64{9, 3, 5}, Total: 42}}
	store := &stubCatalog{byIDs: []domain.Product{
		namedProduct(9, "Кнауф плоскост"),
		namedProduct(3, "Кнауф лепило"),
		namedProduct(5, "Кнауф шпакловка"),
	}}
	router := newTestRouter(engine, store, &stubIndexer{})

	w, env := doGet(t, router, "/api/v1/products?q=кнауф&per_page=3")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, engine.searchCalls)
	assert.Equal(t, 0, store.fallbackCalls)
	assert.Equal(t, []int64{9, 3, 5}, store.lastIDs)

	assert.Equal(t, 42, env.Data.TotalCount)
	assert.Equal(t, 14, env.Data.TotalPages)
	assert.True(t, env.Data.HasNext)
	require.Len(t, env.Data.Data, 3)
	assert.Equal(t, int64(9), env.Data.Data[0].ID)
	assert.Equal(t, int64(3), env.Data.Data[1].ID)
	assert.Equal(t, int64(5), env.Data.Data[2].ID)
}

func TestList_EngineMissFallsBackSameRequest(t *testing.T) {
	engine := &stubEngine{enabled: true, result: nil}
	store := &stubCatalog{products: []domain.Product{namedProduct(7, "Бормашина")}, total: 1}
	router := newTestRouter(engine, store, &stubIndexer{})

	w, env := doGet(t, router, "/api/v1/products?q=бормашина")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, engine.searchCalls)
	assert.Equal(t, 1, store.fallbackCalls)
	require.Len(t, env.Data.Data, 1)
	assert.Equal(t, int64(7), env.Data.Data[0].ID)
}

func TestList_ParsesFilterParameters(t *testing.T) {
	engine := &stubEngine{enabled: true, result: &domain.SearchResult{IDs: nil, Total: 0}}
	store := &stubCatalog{}
	router := newTestRouter(engine, store, &stubIndexer{})

	target := "/api/v1/products?q=винт&item_number=32300&brand=Wurth&group=Крепежи" +
		"&category_ids=4,7&min_price=1.5&max_price=20&sort=price_asc&page=2&per_page=50"
	w, _ := doGet(t, router, target)

	assert.Equal(t, http.StatusOK, w.Code)
	req := engine.lastRequest
	require.NotNil(t, req)
	assert.Equal(t, "винт", req.Query)
	assert.Equal(t, "32300", req.ItemNumber)
	assert.Equal(t, "Wurth", req.Brand)
	assert.Equal(t, "Крепежи", req.MainGroup)
	assert.Equal(t, []int64{4, 7}, req.CategoryIDs)
	require.NotNil(t, req.PriceMin)
	assert.Equal(t, 1.5, *req.PriceMin)
	require.NotNil(t, req.PriceMax)
	assert.Equal(t, 20.0, *req.PriceMax)
	assert.Equal(t, domain.SortPriceAsc, req.Sort)
	assert.Equal(t, 2, req.Page)
	assert.Equal(t, 50, req.PerPage)
}

func TestList_InvalidParameters(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"unknown sort", "/api/v1/products?sort=alphabetical"},
		{"min_price not a number", "/api/v1/products?min_price=abc"},
		{"negative min_price", "/api/v1/products?min_price=-1"},
		{"negative max_price", "/api/v1/products?max_price=-0.5"},
		{"min above max", "/api/v1/products?min_price=10&max_price=5"},
		{"bad category id", "/api/v1/products?category_ids=4,abc"},
		{"zero category id", "/api/v1/products?category_ids=0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &stubCatalog{}
			router := newTestRouter(&stubEngine{}, store, &stubIndexer{})

			w, env := doGet(t, router, tt.target)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			require.NotNil(t, env.Error)
			assert.Equal(t, "INVALID_PARAMETER", env.Error.Code)
			assert.Equal(t, 0, store.fallbackCalls)
		})
	}
}

func TestList_ClampsPagination(t *testing.T) {
	store := &stubCatalog{}
	router := newTestRouter(&stubEngine{}, store, &stubIndexer{})

	w, _ := doGet(t, router, "/api/v1/products?page=0&per_page=500")

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, store.lastFallback)
	assert.Equal(t, 1, store.lastFallback.Page)
	assert.Equal(t, 20, store.lastFallback.PerPage)
}

func TestList_StoreErrorMapsTo500(t *testing.T) {
	store := &stubCatalog{err: assert.AnError}
	router := newTestRouter(&stubEngine{}, store, &stubIndexer{})

	w, env := doGet(t, router, "/api/v1/products")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INTERNAL_ERROR", env.Error.Code)
}

func TestGet_ReturnsProduct(t *testing.T) {
	price := 12.5
	store := &stubCatalog{byID: map[int64]domain.Product{
		5: {ID: 5, Name: "Гипсокартон GKB", PriceUnit1: &price, IsActive: true},
	}}
	router := newTestRouter(&stubEngine{}, store, &stubIndexer{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/5", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var env struct {
		Data ProductResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&env))
	assert.Equal(t, int64(5), env.Data.ID)
	assert.Equal(t, "Гипсокартон GKB", env.Data.Name)
	require.NotNil(t, env.Data.EffectivePrice)
	assert.Equal(t, 12.5, *env.Data.EffectivePrice)
}

func TestGet_InvalidID(t *testing.T) {
	router := newTestRouter(&stubEngine{}, &stubCatalog{}, &stubIndexer{})

	for _, raw := range []string{"abc", "0", "-3"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/products/"+raw, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, "id %q", raw)
		assert.Contains(t, w.Body.String(), "INVALID_PARAMETER", "id %q", raw)
	}
}

func TestGet_NotFound(t *testing.T) {
	router := newTestRouter(&stubEngine{}, &stubCatalog{}, &stubIndexer{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/404", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_FOUND")
}

func TestFilters_ReturnsBrandAndGroupLists(t *testing.T) {
	store := &stubCatalog{brands: []string{"Кнауф", "Wurth"}, groups: []string{"Инструменти", "Крепежи"}}
	router := newTestRouter(&stubEngine{}, store, &stubIndexer{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/filters", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var env struct {
		Data struct {
			Brands []string `json:"brands"`
			Groups []string `json:"groups"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&env))
	assert.Equal(t, []string{"Кнауф", "Wurth"}, env.Data.Brands)
	assert.Equal(t, []string{"Инструменти", "Крепежи"}, env.Data.Groups)
}

func TestSuggest_EmptyQueryShortCircuits(t *testing.T) {
	engine := &stubEngine{enabled: true, suggestions: []domain.Suggestion{{ID: 1, Name: "x"}}}
	router := newTestRouter(engine, &stubCatalog{}, &stubIndexer{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search/suggest?q=++", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, engine.lastPrefix)
	assert.JSONEq(t, `{"data":{"suggestions":[]}}`, w.Body.String())
}

func TestSuggest_ReturnsEngineRows(t *testing.T) {
	engine := &stubEngine{enabled: true, suggestions: []domain.Suggestion{
		{ID: 5, ItemNumber: "32300040065", Name: "Гипсокартон GKB", Brand: "Кнауф"},
	}}
	router := newTestRouter(engine, &stubCatalog{}, &stubIndexer{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search/suggest?q=гипс&limit=10", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "гипс", engine.lastPrefix)
	assert.Equal(t, 10, engine.lastLimit)

	var env struct {
		Data struct {
			Suggestions []domain.Suggestion `json:"suggestions"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&env))
	require.Len(t, env.Data.Suggestions, 1)
	assert.Equal(t, "Гипсокартон GKB", env.Data.Suggestions[0].Name)
}

func TestSuggest_DefaultsAndClampsLimit(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"no limit param", "/api/v1/search/suggest?q=гипс", search.DefaultSuggestLimit},
		{"limit too high", "/api/v1/search/suggest?q=гипс&limit=50", search.DefaultSuggestLimit},
		{"limit zero", "/api/v1/search/suggest?q=гипс&limit=0", search.DefaultSuggestLimit},
		{"limit in range", "/api/v1/search/suggest?q=гипс&limit=3", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &stubEngine{enabled: true}
			router := newTestRouter(engine, &stubCatalog{}, &stubIndexer{})

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, engine.lastLimit)
		})
	}
}

func TestReindex_StartsBackgroundRun(t *testing.T) {
	indexer := &stubIndexer{ran: make(chan struct{}, 1)}
	router := newTestRouter(&stubEngine{}, &stubCatalog{}, indexer)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/search/reindex", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), "reindex started")

	select {
	case <-indexer.ran:
	case <-time.After(time.Second):
		t.Fatal("reindex run was not triggered")
	}
}
