package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gstroy/search-service/internal/domain"
	apperrors "github.com/gstroy/search-service/pkg/errors"
	pkgkafka "github.com/gstroy/search-service/pkg/kafka"
	"github.com/gstroy/search-service/pkg/validator"
)

// Kafka topics for product domain events consumed by the search service.
var (
	TopicProductCreated  = pkgkafka.Topic("product", "created")
	TopicProductUpdated  = pkgkafka.Topic("product", "updated")
	TopicProductImported = pkgkafka.Topic("product", "imported")
)

// Topics returns the product topics the search service subscribes to.
func Topics() []string {
	return []string{TopicProductCreated, TopicProductUpdated, TopicProductImported}
}

// ProductEventData is the payload of a product.created or product.updated
// event. Only the id matters: the catalog row is re-read from the store so
// the indexed document always reflects current data, not the event snapshot.
type ProductEventData struct {
	ID int64 `json:"id" validate:"required,gt=0"`
}

// DocumentWriter is the engine side of event-driven indexing.
type DocumentWriter interface {
	Enabled() bool
	BulkIndex(ctx context.Context, products []domain.Product) int
}

// ProductReader reads single catalog rows for re-indexing.
type ProductReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
}

// CatalogIndexer runs a full index maintenance pass.
type CatalogIndexer interface {
	Run(ctx context.Context)
}

// Consumer handles Kafka events related to product changes for search indexing.
type Consumer struct {
	engine  DocumentWriter
	store   ProductReader
	indexer CatalogIndexer
	logger  *slog.Logger
}

// NewConsumer creates a new event consumer for the search service.
func NewConsumer(engine DocumentWriter, store ProductReader, indexer CatalogIndexer, logger *slog.Logger) *Consumer {
	return &Consumer{
		engine:  engine,
		store:   store,
		indexer: indexer,
		logger:  logger,
	}
}

// Handle processes a Kafka event based on its type.
func (c *Consumer) Handle(ctx context.Context, event *pkgkafka.Event) error {
	switch event.EventType {
	case TopicProductCreated, TopicProductUpdated:
		return c.handleProductChanged(ctx, event)
	case TopicProductImported:
		return c.handleProductsImported(ctx, event)
	default:
		c.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}

// handleProductChanged upserts the document for a created or updated product.
func (c *Consumer) handleProductChanged(ctx context.Context, event *pkgkafka.Event) error {
	if !c.engine.Enabled() {
		return nil
	}

	var data ProductEventData
	if err := event.UnmarshalData(&data); err != nil {
		return fmt.Errorf("unmarshal %s data: %w", event.EventType, err)
	}
	if err := validator.Validate(data); err != nil {
		return fmt.Errorf("invalid %s payload: %w", event.EventType, err)
	}

	product, err := c.store.GetByID(ctx, data.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Deleted between the event and now; nothing to index.
			c.logger.InfoContext(ctx, "product no longer exists, skipping",
				slog.Int64("product_id", data.ID),
			)
			return nil
		}
		return fmt.Errorf("read product %d: %w", data.ID, err)
	}

	if indexed := c.engine.BulkIndex(ctx, []domain.Product{*product}); indexed == 0 {
		return fmt.Errorf("product %d was not indexed", data.ID)
	}

	c.logger.InfoContext(ctx, "indexed product from event",
		slog.String("event_type", event.EventType),
		slog.Int64("product_id", data.ID),
	)

	return nil
}

// handleProductsImported runs a full maintenance pass after a bulk catalog
// import. The pass itself decides whether a rebuild is needed.
func (c *Consumer) handleProductsImported(ctx context.Context, event *pkgkafka.Event) error {
	c.logger.InfoContext(ctx, "catalog import event received, running index pass",
		slog.String("event_id", event.EventID),
	)
	c.indexer.Run(ctx)
	return nil
}
