package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/gstroy/search-service/internal/domain"
	"github.com/gstroy/search-service/pkg/database"
	apperrors "github.com/gstroy/search-service/pkg/errors"
)

// productColumns is the fixed column list read by every product query.
const productColumns = `id, item_number, barcode, catalog_number, name,
		short_description, long_description, meta_description,
		brand, brand_id, category, category_id,
		primary_group, secondary_group, tertiary_group, quaternary_group,
		price_unit1, price_unit2, visible_price_unit1, promo_price_unit1,
		is_active`

// effectivePriceExpr mirrors the document builder's price fallback chain so
// SQL filtering and sorting agree with the engine's effective_price field.
const effectivePriceExpr = `COALESCE(promo_price_unit1, visible_price_unit1, price_unit1, price_unit2)`

// ProductStore reads catalog rows from PostgreSQL. The catalog is owned by
// the ERP; this store never writes.
type ProductStore struct {
	pool database.DBTX
}

// NewProductStore creates a PostgreSQL-backed product store.
func NewProductStore(pool database.DBTX) *ProductStore {
	return &ProductStore{pool: pool}
}

func scanProduct(row interface{ Scan(dest ...any) error }, p *domain.Product) error {
	return row.Scan(
		&p.ID,
		&p.ItemNumber,
		&p.Barcode,
		&p.CatalogNumber,
		&p.Name,
		&p.ShortDescription,
		&p.LongDescription,
		&p.MetaDescription,
		&p.Brand,
		&p.BrandID,
		&p.Category,
		&p.CategoryID,
		&p.PrimaryGroup,
		&p.SecondaryGroup,
		&p.TertiaryGroup,
		&p.QuaternaryGroup,
		&p.PriceUnit1,
		&p.PriceUnit2,
		&p.VisiblePriceUnit1,
		&p.PromoPriceUnit1,
		&p.IsActive,
	)
}

// CountProducts returns the number of active catalog rows, the population
// the search index is expected to mirror.
func (s *ProductStore) CountProducts(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM products WHERE is_active = TRUE`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return count, nil
}

// ListProductsAfter returns up to limit active products with id > lastID in
// id order. The indexer pages through the catalog with it.
func (s *ProductStore) ListProductsAfter(ctx context.Context, lastID int64, limit int) ([]domain.Product, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		WHERE is_active = TRUE AND id > $1
		ORDER BY id
		LIMIT $2`, productColumns)

	rows, err := s.pool.Query(ctx, query, lastID, limit)
	if err != nil {
		return nil, fmt.Errorf("list products after %d: %w", lastID, err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	return products, nil
}

// GetByIDs fetches full rows for the given ids and returns them in the order
// of the ids slice, preserving the engine's ranking. Ids with no row are
// silently dropped.
func (s *ProductStore) GetByIDs(ctx context.Context, ids []int64) ([]domain.Product, error) {
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		WHERE id = ANY($1)`, productColumns)

	rows, err := s.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("get products by ids: %w", err)
	}
	defer rows.Close()

	byID := make(map[int64]domain.Product, len(ids))
	for rows.Next() {
		var p domain.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		byID[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	ordered := make([]domain.Product, 0, len(byID))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}

// FallbackSearch is the relational search path used when the engine is
// disabled or unavailable. It applies the same hard filters as the engine
// query but matches text with plain ILIKE, trading ranking quality for
// availability.
func (s *ProductStore) FallbackSearch(ctx context.Context, req *domain.SearchRequest) ([]domain.Product, int, error) {
	conditions := []string{"is_active = TRUE"}
	var args []any
	argIndex := 1

	term := strings.TrimSpace(strings.Join(strings.Fields(req.ItemNumber+" "+req.Query), " "))
	if term != "" {
		conditions = append(conditions,
			fmt.Sprintf("(name ILIKE $%d OR item_number ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+term+"%")
		argIndex++
	}

	if req.Brand != "" {
		conditions = append(conditions, fmt.Sprintf("brand = $%d", argIndex))
		args = append(args, req.Brand)
		argIndex++
	}

	if req.MainGroup != "" {
		conditions = append(conditions,
			fmt.Sprintf("COALESCE(primary_group, category) = $%d", argIndex))
		args = append(args, req.MainGroup)
		argIndex++
	}

	if len(req.CategoryIDs) > 0 {
		conditions = append(conditions, fmt.Sprintf("category_id = ANY($%d)", argIndex))
		args = append(args, req.CategoryIDs)
		argIndex++
	}

	if req.PriceMin != nil {
		conditions = append(conditions, fmt.Sprintf("%s >= $%d", effectivePriceExpr, argIndex))
		args = append(args, *req.PriceMin)
		argIndex++
	}

	if req.PriceMax != nil {
		conditions = append(conditions, fmt.Sprintf("%s <= $%d", effectivePriceExpr, argIndex))
		args = append(args, *req.PriceMax)
		argIndex++
	}

	orderBy := "name ASC"
	switch req.Sort {
	case domain.SortPriceAsc:
		orderBy = effectivePriceExpr + " ASC NULLS LAST"
	case domain.SortPriceDesc:
		orderBy = effectivePriceExpr + " DESC NULLS LAST"
	case domain.SortNewest:
		orderBy = "id DESC"
	}

	limit := req.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if req.Page > 1 {
		offset = (req.Page - 1) * limit
	}

	// count(*) OVER() folds the total into the page query.
	query := fmt.Sprintf(`
		SELECT %s,
			   count(*) OVER() AS total_count
		FROM products
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		productColumns, strings.Join(conditions, " AND "), orderBy, argIndex, argIndex+1,
	)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("fallback search: %w", err)
	}
	defer rows.Close()

	var (
		products   []domain.Product
		totalCount int
	)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID,
			&p.ItemNumber,
			&p.Barcode,
			&p.CatalogNumber,
			&p.Name,
			&p.ShortDescription,
			&p.LongDescription,
			&p.MetaDescription,
			&p.Brand,
			&p.BrandID,
			&p.Category,
			&p.CategoryID,
			&p.PrimaryGroup,
			&p.SecondaryGroup,
			&p.TertiaryGroup,
			&p.QuaternaryGroup,
			&p.PriceUnit1,
			&p.PriceUnit2,
			&p.VisiblePriceUnit1,
			&p.PromoPriceUnit1,
			&p.IsActive,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate product rows: %w", err)
	}

	if products == nil {
		products = []domain.Product{}
	}
	return products, totalCount, nil
}

// GetByID fetches a single product row.
func (s *ProductStore) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		WHERE id = $1`, productColumns)

	var p domain.Product
	if err := scanProduct(s.pool.QueryRow(ctx, query, id), &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	return &p, nil
}

// ListBrands returns the distinct brand names of active products, sorted.
// Feeds the storefront filter sidebar.
func (s *ProductStore) ListBrands(ctx context.Context) ([]string, error) {
	return s.listDistinct(ctx, `
		SELECT DISTINCT brand
		FROM products
		WHERE is_active = TRUE AND brand IS NOT NULL AND brand <> ''
		ORDER BY brand`)
}

// ListMainGroups returns the distinct top-level group names of active
// products, falling back to category where no group is set.
func (s *ProductStore) ListMainGroups(ctx context.Context) ([]string, error) {
	return s.listDistinct(ctx, `
		SELECT DISTINCT COALESCE(primary_group, category) AS main_group
		FROM products
		WHERE is_active = TRUE AND COALESCE(primary_group, category) IS NOT NULL
		ORDER BY main_group`)
}

func (s *ProductStore) listDistinct(ctx context.Context, query string) ([]string, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list distinct values: %w", err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan value: %w", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	if values == nil {
		values = []string{}
	}
	return values, nil
}
