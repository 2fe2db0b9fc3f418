package store

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gstroy/search-service/internal/domain"
	"github.com/gstroy/search-service/pkg/database"
	apperrors "github.com/gstroy/search-service/pkg/errors"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	return mock
}

func strPtr(s string) *string   { return &s }
func f64Ptr(f float64) *float64 { return &f }

var productColumnNames = []string{
	"id", "item_number", "barcode", "catalog_number", "name",
	"short_description", "long_description", "meta_description",
	"brand", "brand_id", "category", "category_id",
	"primary_group", "secondary_group", "tertiary_group", "quaternary_group",
	"price_unit1", "price_unit2", "visible_price_unit1", "promo_price_unit1",
	"is_active",
}

var productColumnNamesWithCount = append(append([]string{}, productColumnNames...), "total_count")

func sampleProduct(id int64) domain.Product {
	return domain.Product{
		ID:         id,
		ItemNumber: strPtr("32300040065"),
		Name:       "Гипсокартон GKB",
		Brand:      strPtr("Кнауф"),
		PriceUnit1: f64Ptr(12.40),
		IsActive:   true,
	}
}

func productRow(p domain.Product) []any {
	return []any{
		p.ID, p.ItemNumber, p.Barcode, p.CatalogNumber, p.Name,
		p.ShortDescription, p.LongDescription, p.MetaDescription,
		p.Brand, p.BrandID, p.Category, p.CategoryID,
		p.PrimaryGroup, p.SecondaryGroup, p.TertiaryGroup, p.QuaternaryGroup,
		p.PriceUnit1, p.PriceUnit2, p.VisiblePriceUnit1, p.PromoPriceUnit1,
		p.IsActive,
	}
}

func TestProductStore_CountProducts(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductStore(mock)

	mock.ExpectQuery(`SELECT count\(\*\) FROM products WHERE is_active = TRUE`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1250))

	count, err := repo.CountProducts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1250, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductStore_ListProductsAfter(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductStore(mock)

	mock.ExpectQuery(`SELECT .+ FROM products WHERE is_active = TRUE AND id > \$1 ORDER BY id LIMIT \$2`).
		WithArgs(int64(100), 2).
		WillReturnRows(pgxmock.NewRows(productColumnNames).
			AddRow(productRow(sampleProduct(101))...).
			AddRow(productRow(sampleProduct(102))...))

	batch, err := repo.ListProductsAfter(context.Background(), 100, 2)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, int64(101), batch[0].ID)
	assert.Equal(t, int64(102), batch[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductStore_GetByIDs_PreservesRequestedOrder(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductStore(mock)

	// Rows come back in table order; the store must restore rank order
	// and drop the id with no row.
	mock.ExpectQuery(`SELECT .+ FROM products WHERE id = ANY\(\$1\)`).
		WithArgs([]int64{9, 3, 5, 7}).
		WillReturnRows(pgxmock.NewRows(productColumnNames).
			AddRow(productRow(sampleProduct(3))...).
			AddRow(productRow(sampleProduct(5))...).
			AddRow(productRow(sampleProduct(9))...))

	products, err := repo.GetByIDs(context.Background(), []int64{9, 3, 5, 7})
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, int64(9), products[0].ID)
	assert.Equal(t, int64(3), products[1].ID)
	assert.Equal(t, int64(5), products[2].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductStore_GetByIDs_Empty(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductStore(mock)

	products, err := repo.GetByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, products)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductStore_FallbackSearch_TextAndFilters(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductStore(mock)

	min := 5.0
	req := &domain.SearchRequest{
		Query:    "гипсокартон",
		Brand:    "Кнауф",
		PriceMin: &min,
		Page:     2,
		PerPage:  20,
	}

	mock.ExpectQuery(`SELECT .+ count\(\*\) OVER\(\) AS total_count FROM products WHERE is_active = TRUE AND \(name ILIKE \$1 OR item_number ILIKE \$1\) AND brand = \$2 AND COALESCE\(promo_price_unit1, visible_price_unit1, price_unit1, price_unit2\) >= \$3 ORDER BY name ASC LIMIT \$4 OFFSET \$5`).
		WithArgs("%гипсокартон%", "Кнауф", 5.0, 20, 20).
		WillReturnRows(pgxmock.NewRows(productColumnNamesWithCount).
			AddRow(append(productRow(sampleProduct(21)), 41)...))

	products, total, err := repo.FallbackSearch(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, int64(21), products[0].ID)
	assert.Equal(t, 41, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductStore_FallbackSearch_JoinsItemNumberAndQuery(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductStore(mock)

	req := &domain.SearchRequest{ItemNumber: "32300", Query: "чугун", PerPage: 20}

	mock.ExpectQuery(`SELECT .+ FROM products WHERE is_active = TRUE AND \(name ILIKE \$1 OR item_number ILIKE \$1\) ORDER BY name ASC`).
		WithArgs("%32300 чугун%", 20, 0).
		WillReturnRows(pgxmock.NewRows(productColumnNamesWithCount))

	products, total, err := repo.FallbackSearch(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, products)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductStore_FallbackSearch_PriceSortPushesNullsLast(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductStore(mock)

	req := &domain.SearchRequest{Sort: domain.SortPriceAsc, PerPage: 20}

	mock.ExpectQuery(`ORDER BY COALESCE\(promo_price_unit1, visible_price_unit1, price_unit1, price_unit2\) ASC NULLS LAST`).
		WithArgs(20, 0).
		WillReturnRows(pgxmock.NewRows(productColumnNamesWithCount))

	_, _, err := repo.FallbackSearch(context.Background(), req)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductStore_GetByID_NotFound(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductStore(mock)

	mock.ExpectQuery(`SELECT .+ FROM products WHERE id = \$1`).
		WithArgs(int64(404)).
		WillReturnError(pgx.ErrNoRows)

	product, err := repo.GetByID(context.Background(), 404)
	assert.Nil(t, product)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductStore_ListBrands(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductStore(mock)

	mock.ExpectQuery(`SELECT DISTINCT brand FROM products`).
		WillReturnRows(pgxmock.NewRows([]string{"brand"}).
			AddRow("Кнауф").
			AddRow("Церезит"))

	brands, err := repo.ListBrands(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Кнауф", "Церезит"}, brands)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductStore_ListMainGroups_QueryError(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductStore(mock)

	mock.ExpectQuery(`SELECT DISTINCT COALESCE\(primary_group, category\)`).
		WillReturnError(errors.New("connection reset"))

	groups, err := repo.ListMainGroups(context.Background())
	assert.Nil(t, groups)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
