package search

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/gstroy/search-service/internal/domain"
)

// Config holds the engine connection and indexing parameters.
type Config struct {
	Enabled      bool
	URL          string
	Username     string
	Password     string
	VerifyCerts  bool
	Timeout      time.Duration
	Index        string
	BatchSize    int
	AutoIndex    bool
	ForceReindex bool
}

const defaultTimeout = 5 * time.Second

// Service is the product search service: index lifecycle operations, the
// ranked search query, and autocomplete. Every engine-facing method is a
// never-throws boundary: engine and transport failures are logged, noted
// on the Status object, and surfaced as sentinel results (false/nil/0/empty),
// so a broken search cluster can never break product browsing.
type Service struct {
	cfg    Config
	client *elasticsearch.Client
	status *Status
	logger *slog.Logger
}

// Option customizes service construction.
type Option func(*options)

type options struct {
	transport http.RoundTripper
}

// WithTransport injects a custom HTTP transport into the engine client.
// Tests use it to simulate outages and canned responses.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// New creates the search service. The engine client is built once from the
// configuration snapshot; a disabled service or an empty URL yields a
// service whose every method returns its sentinel without network calls.
func New(cfg Config, logger *slog.Logger, opts ...Option) (*Service, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if cfg.Index == "" {
		cfg.Index = DefaultIndexName
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	svc := &Service{
		cfg:    cfg,
		status: &Status{},
		logger: logger,
	}

	if !cfg.Enabled || cfg.URL == "" {
		return svc, nil
	}

	esCfg := elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	}
	if o.transport != nil {
		esCfg.Transport = o.transport
	} else if !cfg.VerifyCerts {
		esCfg.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, // #nosec G402 -- controlled by ELASTICSEARCH_VERIFY_CERTS
		}
	}

	client, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("search: create engine client: %w", err)
	}
	svc.client = client
	return svc, nil
}

// Enabled reports whether the engine path is configured at all. Callers
// gate on this before attempting a search and fall back to SQL otherwise.
func (s *Service) Enabled() bool {
	return s.cfg.Enabled && s.client != nil
}

// Status exposes the advisory availability state for health checks.
func (s *Service) Status() *Status {
	return s.status
}

// BatchSize returns the configured bulk-index chunk size.
func (s *Service) BatchSize() int {
	if s.cfg.BatchSize > 0 {
		return s.cfg.BatchSize
	}
	return 1000
}

// ForceReindex reports whether the next maintenance pass must rebuild
// unconditionally.
func (s *Service) ForceReindex() bool {
	return s.cfg.ForceReindex
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.Timeout)
}

// resReason extracts a printable reason from an engine error response.
func resReason(body io.Reader) string {
	var errResp struct {
		Error struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	}
	if err := json.NewDecoder(body).Decode(&errResp); err != nil || errResp.Error.Type == "" {
		return "unexpected engine response"
	}
	return errResp.Error.Type + ": " + errResp.Error.Reason
}

// fail records an engine failure: warning log, availability cleared.
func (s *Service) fail(ctx context.Context, op string, detail string) {
	s.logger.WarnContext(ctx, "search engine call failed",
		slog.String("op", op),
		slog.String("error", detail),
	)
	s.status.markDown()
}

// Ping checks engine liveness. Failures are swallowed and recorded on the
// Status object, never raised.
func (s *Service) Ping(ctx context.Context) bool {
	if !s.Enabled() {
		return false
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.client.Ping(s.client.Ping.WithContext(ctx))
	if err != nil {
		s.fail(ctx, "ping", err.Error())
		return false
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		s.fail(ctx, "ping", res.Status())
		return false
	}
	s.status.markUp()
	return true
}

// EnsureIndex creates the index with the built configuration if it is
// absent; a present index is left untouched. Returns false, never an
// error, on any engine failure.
func (s *Service) EnsureIndex(ctx context.Context) bool {
	if !s.Enabled() {
		return false
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.client.Indices.Exists(
		[]string{s.cfg.Index},
		s.client.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		s.fail(ctx, "ensure_index", err.Error())
		return false
	}
	_ = res.Body.Close()

	if res.StatusCode == http.StatusOK {
		s.status.markUp()
		return true
	}
	return s.createIndex(ctx, "ensure_index")
}

// RebuildIndex deletes the index if present and recreates it from the
// current configuration. Used on mapping drift or an explicit force flag.
func (s *Service) RebuildIndex(ctx context.Context) bool {
	if !s.Enabled() {
		return false
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.client.Indices.Delete(
		[]string{s.cfg.Index},
		s.client.Indices.Delete.WithContext(ctx),
		s.client.Indices.Delete.WithIgnoreUnavailable(true),
	)
	if err != nil {
		s.fail(ctx, "rebuild_index", err.Error())
		return false
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		s.fail(ctx, "rebuild_index", resReason(res.Body))
		return false
	}
	return s.createIndex(ctx, "rebuild_index")
}

func (s *Service) createIndex(ctx context.Context, op string) bool {
	body, err := json.Marshal(IndexSettings())
	if err != nil {
		s.fail(ctx, op, err.Error())
		return false
	}

	res, err := s.client.Indices.Create(
		s.cfg.Index,
		s.client.Indices.Create.WithBody(bytes.NewReader(body)),
		s.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		s.fail(ctx, op, err.Error())
		return false
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		s.fail(ctx, op, resReason(res.Body))
		return false
	}

	s.logger.InfoContext(ctx, "search index created", slog.String("index", s.cfg.Index))
	s.status.markUp()
	return true
}

// MappingHasFields is the drift detector: it reports whether every named
// field exists in the live mapping's property set. A missing field is the
// signal to rebuild, not an error.
func (s *Service) MappingHasFields(ctx context.Context, fields []string) bool {
	if len(fields) == 0 {
		return true
	}
	if !s.Enabled() {
		return false
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.client.Indices.GetMapping(
		s.client.Indices.GetMapping.WithIndex(s.cfg.Index),
		s.client.Indices.GetMapping.WithContext(ctx),
	)
	if err != nil {
		s.fail(ctx, "get_mapping", err.Error())
		return false
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		s.fail(ctx, "get_mapping", resReason(res.Body))
		return false
	}

	var mapping map[string]struct {
		Mappings struct {
			Properties map[string]json.RawMessage `json:"properties"`
		} `json:"mappings"`
	}
	if err := json.NewDecoder(res.Body).Decode(&mapping); err != nil {
		s.fail(ctx, "get_mapping", err.Error())
		return false
	}
	s.status.markUp()

	properties := mapping[s.cfg.Index].Mappings.Properties
	for _, field := range fields {
		if _, ok := properties[field]; !ok {
			return false
		}
	}
	return true
}

// CountDocuments returns the number of indexed documents. The second
// return is false when the engine is disabled or unreachable.
func (s *Service) CountDocuments(ctx context.Context) (int, bool) {
	if !s.Enabled() {
		return 0, false
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.client.Count(
		s.client.Count.WithIndex(s.cfg.Index),
		s.client.Count.WithContext(ctx),
	)
	if err != nil {
		s.fail(ctx, "count", err.Error())
		return 0, false
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		s.fail(ctx, "count", resReason(res.Body))
		return 0, false
	}

	var countResp struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&countResp); err != nil {
		s.fail(ctx, "count", err.Error())
		return 0, false
	}
	s.status.markUp()
	return countResp.Count, true
}

// BulkIndex upserts documents by product id via the bulk NDJSON API and
// returns the number of rows written. A rejected document does not abort
// the batch; staleness is corrected by the next full reindex pass.
func (s *Service) BulkIndex(ctx context.Context, products []domain.Product) int {
	if !s.Enabled() || len(products) == 0 {
		return 0
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var buf bytes.Buffer
	for i := range products {
		doc := BuildDocument(&products[i])
		action := map[string]any{
			"index": map[string]any{
				"_index": s.cfg.Index,
				"_id":    strconv.FormatInt(doc.ID, 10),
			},
		}
		if err := json.NewEncoder(&buf).Encode(action); err != nil {
			s.fail(ctx, "bulk_index", err.Error())
			return 0
		}
		if err := json.NewEncoder(&buf).Encode(doc); err != nil {
			s.fail(ctx, "bulk_index", err.Error())
			return 0
		}
	}

	res, err := s.client.Bulk(
		bytes.NewReader(buf.Bytes()),
		s.client.Bulk.WithIndex(s.cfg.Index),
		s.client.Bulk.WithContext(ctx),
	)
	if err != nil {
		s.fail(ctx, "bulk_index", err.Error())
		return 0
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		s.fail(ctx, "bulk_index", resReason(res.Body))
		return 0
	}

	var bulkResp struct {
		Errors bool `json:"errors"`
		Items  []struct {
			Index struct {
				ID     string `json:"_id"`
				Status int    `json:"status"`
				Error  struct {
					Type   string `json:"type"`
					Reason string `json:"reason"`
				} `json:"error"`
			} `json:"index"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&bulkResp); err != nil {
		s.fail(ctx, "bulk_index", err.Error())
		return 0
	}
	s.status.markUp()

	success := 0
	for _, item := range bulkResp.Items {
		if item.Index.Status < 300 {
			success++
			continue
		}
		s.logger.WarnContext(ctx, "document rejected by engine",
			slog.String("id", item.Index.ID),
			slog.String("type", item.Index.Error.Type),
			slog.String("reason", item.Index.Error.Reason),
		)
	}
	return success
}

// Search executes the ranked product query and returns ids in rank order
// plus the total hit count. A nil result means the engine path is
// unavailable and the caller should fall back to SQL.
func (s *Service) Search(ctx context.Context, req *domain.SearchRequest) *domain.SearchResult {
	if !s.Enabled() {
		return nil
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	body, err := json.Marshal(buildSearchBody(req))
	if err != nil {
		s.fail(ctx, "search", err.Error())
		return nil
	}

	res, err := s.client.Search(
		s.client.Search.WithIndex(s.cfg.Index),
		s.client.Search.WithBody(bytes.NewReader(body)),
		s.client.Search.WithContext(ctx),
		s.client.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		s.fail(ctx, "search", err.Error())
		return nil
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		s.fail(ctx, "search", resReason(res.Body))
		return nil
	}

	var searchResp struct {
		Hits struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&searchResp); err != nil {
		s.fail(ctx, "search", err.Error())
		return nil
	}
	s.status.markUp()

	ids := make([]int64, 0, len(searchResp.Hits.Hits))
	for _, hit := range searchResp.Hits.Hits {
		id, err := strconv.ParseInt(hit.ID, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return &domain.SearchResult{IDs: ids, Total: searchResp.Hits.Total.Value}
}

// DefaultSuggestLimit bounds autocomplete responses.
const DefaultSuggestLimit = 8

// Suggest returns lightweight autocomplete summaries. It never errors: a
// disabled or failing engine yields an empty list.
func (s *Service) Suggest(ctx context.Context, query string, limit int) []domain.Suggestion {
	if !s.Enabled() {
		return nil
	}
	textQuery := strings.TrimSpace(query)
	if textQuery == "" {
		return nil
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	body, err := json.Marshal(buildSuggestBody(textQuery, limit))
	if err != nil {
		s.fail(ctx, "suggest", err.Error())
		return nil
	}

	res, err := s.client.Search(
		s.client.Search.WithIndex(s.cfg.Index),
		s.client.Search.WithBody(bytes.NewReader(body)),
		s.client.Search.WithContext(ctx),
	)
	if err != nil {
		s.fail(ctx, "suggest", err.Error())
		return nil
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		s.fail(ctx, "suggest", resReason(res.Body))
		return nil
	}

	var suggestResp struct {
		Hits struct {
			Hits []struct {
				Source struct {
					ID         int64  `json:"id"`
					ItemNumber string `json:"item_number"`
					Name       string `json:"name"`
					Brand      string `json:"brand"`
					Category   string `json:"category"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&suggestResp); err != nil {
		s.fail(ctx, "suggest", err.Error())
		return nil
	}
	s.status.markUp()

	suggestions := make([]domain.Suggestion, 0, len(suggestResp.Hits.Hits))
	for _, hit := range suggestResp.Hits.Hits {
		suggestions = append(suggestions, domain.Suggestion{
			ID:         hit.Source.ID,
			ItemNumber: hit.Source.ItemNumber,
			Name:       hit.Source.Name,
			Brand:      hit.Source.Brand,
			Category:   hit.Source.Category,
		})
	}
	return suggestions
}
