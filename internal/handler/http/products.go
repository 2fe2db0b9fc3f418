package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gstroy/search-service/internal/domain"
	"github.com/gstroy/search-service/pkg/httputil"
)

// Engine is the search-engine side of product listing. A nil search result
// signals the engine could not serve the request; the handler then falls
// back to the relational store within the same request.
type Engine interface {
	Enabled() bool
	Search(ctx context.Context, req *domain.SearchRequest) *domain.SearchResult
	Suggest(ctx context.Context, query string, limit int) []domain.Suggestion
}

// Catalog is the relational side: the fallback query plus row hydration
// for engine hits.
type Catalog interface {
	FallbackSearch(ctx context.Context, req *domain.SearchRequest) ([]domain.Product, int, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	GetByIDs(ctx context.Context, ids []int64) ([]domain.Product, error)
	ListBrands(ctx context.Context) ([]string, error)
	ListMainGroups(ctx context.Context) ([]string, error)
}

// Reindexer triggers a forced index rebuild pass.
type Reindexer interface {
	RunForced(ctx context.Context)
}

// ProductHandler handles HTTP requests for product search endpoints.
type ProductHandler struct {
	engine  Engine
	store   Catalog
	indexer Reindexer
	logger  *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(engine Engine, store Catalog, indexer Reindexer, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		engine:  engine,
		store:   store,
		indexer: indexer,
		logger:  logger,
	}
}

// ProductResponse is the JSON shape of a product row in list responses.
type ProductResponse struct {
	ID               int64    `json:"id"`
	ItemNumber       *string  `json:"item_number,omitempty"`
	Barcode          *string  `json:"barcode,omitempty"`
	CatalogNumber    *string  `json:"catalog_number,omitempty"`
	Name             string   `json:"name"`
	ShortDescription *string  `json:"short_description,omitempty"`
	Brand            *string  `json:"brand,omitempty"`
	BrandID          *int64   `json:"brand_id,omitempty"`
	Category         *string  `json:"category,omitempty"`
	CategoryID       *int64   `json:"category_id,omitempty"`
	PrimaryGroup     *string  `json:"primary_group,omitempty"`
	SecondaryGroup   *string  `json:"secondary_group,omitempty"`
	PriceUnit1       *float64 `json:"price_unit1,omitempty"`
	PromoPriceUnit1  *float64 `json:"promo_price_unit1,omitempty"`
	EffectivePrice   *float64 `json:"effective_price,omitempty"`
	IsActive         bool     `json:"is_active"`
}

func toProductResponse(p *domain.Product) ProductResponse {
	return ProductResponse{
		ID:               p.ID,
		ItemNumber:       p.ItemNumber,
		Barcode:          p.Barcode,
		CatalogNumber:    p.CatalogNumber,
		Name:             p.Name,
		ShortDescription: p.ShortDescription,
		Brand:            p.Brand,
		BrandID:          p.BrandID,
		Category:         p.Category,
		CategoryID:       p.CategoryID,
		PrimaryGroup:     p.PrimaryGroup,
		SecondaryGroup:   p.SecondaryGroup,
		PriceUnit1:       p.PriceUnit1,
		PromoPriceUnit1:  p.PromoPriceUnit1,
		EffectivePrice:   p.EffectivePrice(),
		IsActive:         p.IsActive,
	}
}

// parseSearchRequest parses and validates the list query parameters. On a
// bad parameter it writes a 400 response and returns nil.
func parseSearchRequest(w http.ResponseWriter, r *http.Request) *domain.SearchRequest {
	q := r.URL.Query()

	sortBy := q.Get("sort")
	if sortBy == "" {
		sortBy = domain.SortRelevance
	}
	if !domain.IsValidSort(sortBy) {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{
				Code:    "INVALID_PARAMETER",
				Message: "sort must be one of: " + strings.Join(domain.ValidSortOptions(), ", "),
			},
		})
		return nil
	}

	req := &domain.SearchRequest{
		Query:      strings.TrimSpace(q.Get("q")),
		ItemNumber: strings.TrimSpace(q.Get("item_number")),
		Brand:      strings.TrimSpace(q.Get("brand")),
		MainGroup:  strings.TrimSpace(q.Get("group")),
		Sort:       sortBy,
		Page:       1,
		PerPage:    20,
	}

	if v := q.Get("category_ids"); v != "" {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil || id < 1 {
				httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "category_ids must be a comma-separated list of positive integers"},
				})
				return nil
			}
			req.CategoryIDs = append(req.CategoryIDs, id)
		}
	}

	if v := q.Get("min_price"); v != "" {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "min_price must be a valid number"},
			})
			return nil
		}
		if price < 0 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "min_price must not be negative"},
			})
			return nil
		}
		req.PriceMin = &price
	}
	if v := q.Get("max_price"); v != "" {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "max_price must be a valid number"},
			})
			return nil
		}
		if price < 0 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "max_price must not be negative"},
			})
			return nil
		}
		req.PriceMax = &price
	}
	if req.PriceMin != nil && req.PriceMax != nil && *req.PriceMin > *req.PriceMax {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "min_price must not exceed max_price"},
		})
		return nil
	}

	if v := q.Get("page"); v != "" {
		if page, err := strconv.Atoi(v); err == nil && page > 0 {
			req.Page = page
		}
	}
	if v := q.Get("per_page"); v != "" {
		if perPage, err := strconv.Atoi(v); err == nil && perPage > 0 && perPage <= 100 {
			req.PerPage = perPage
		}
	}

	return req
}

// List handles GET /api/v1/products.
//
// When the engine is reachable and the request carries at least one filter,
// the engine ranks matching ids and the store hydrates them in that order.
// An unfiltered listing, a disabled engine, or any engine failure all take
// the relational path instead, so the endpoint keeps answering when the
// engine is down.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	req := parseSearchRequest(w, r)
	if req == nil {
		return
	}

	ctx := r.Context()

	if h.engine.Enabled() && req.HasFilters() {
		if result := h.engine.Search(ctx, req); result != nil {
			products, err := h.store.GetByIDs(ctx, result.IDs)
			if err != nil {
				httputil.WriteError(w, r, err, h.logger)
				return
			}
			h.writeProductPage(w, products, result.Total, req)
			return
		}
	}

	products, total, err := h.store.FallbackSearch(ctx, req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.writeProductPage(w, products, total, req)
}

func (h *ProductHandler) writeProductPage(w http.ResponseWriter, products []domain.Product, total int, req *domain.SearchRequest) {
	items := make([]ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, toProductResponse(&products[i]))
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: httputil.NewPaginatedResponse(items, total, req.Page, req.PerPage),
	})
}

// Get handles GET /api/v1/products/{id}.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	product, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: toProductResponse(product)})
}

// Filters handles GET /api/v1/products/filters. It returns the distinct
// brand and main-group lists the storefront renders as sidebar filters.
func (h *ProductHandler) Filters(w http.ResponseWriter, r *http.Request) {
	brands, err := h.store.ListBrands(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	groups, err := h.store.ListMainGroups(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]any{"brands": brands, "groups": groups},
	})
}
