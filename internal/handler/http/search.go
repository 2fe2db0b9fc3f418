package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gstroy/search-service/internal/domain"
	"github.com/gstroy/search-service/internal/search"
	"github.com/gstroy/search-service/pkg/httputil"
)

// Suggest handles GET /api/v1/search/suggest
func (h *ProductHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	prefix := strings.TrimSpace(r.URL.Query().Get("q"))
	if prefix == "" {
		httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{"suggestions": []any{}}})
		return
	}

	limit := search.DefaultSuggestLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil && l > 0 && l <= 20 {
			limit = l
		}
	}

	suggestions := h.engine.Suggest(r.Context(), prefix, limit)
	if suggestions == nil {
		suggestions = []domain.Suggestion{}
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{"suggestions": suggestions}})
}

// Reindex handles POST /api/v1/search/reindex. The rebuild runs in the
// background; the response only acknowledges that it started.
func (h *ProductHandler) Reindex(w http.ResponseWriter, r *http.Request) {
	go func() {
		ctx := context.Background()
		h.indexer.RunForced(ctx)
	}()

	httputil.WriteJSON(w, http.StatusAccepted, httputil.Response{Data: map[string]string{"status": "reindex started"}})
}
