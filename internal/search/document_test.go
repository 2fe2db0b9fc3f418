package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gstroy/search-service/internal/domain"
)

func strPtr(s string) *string   { return &s }
func f64Ptr(f float64) *float64 { return &f }
func i64Ptr(i int64) *int64     { return &i }

func sampleProduct() *domain.Product {
	return &domain.Product{
		ID:               101,
		ItemNumber:       strPtr("32300040065"),
		Barcode:          strPtr("3800123456789"),
		Name:             "Гипсокартон GKB 12.5мм",
		ShortDescription: strPtr("Влагоустойчив"),
		Brand:            strPtr("Кнауф"),
		BrandID:          i64Ptr(7),
		Category:         strPtr("Сухо строителство"),
		CategoryID:       i64Ptr(4),
		PrimaryGroup:     strPtr("Строителни материали"),
		PriceUnit1:       f64Ptr(12.40),
		IsActive:         true,
	}
}

func TestBuildDocument_IDRoundTrip(t *testing.T) {
	p := sampleProduct()
	doc := BuildDocument(p)
	assert.Equal(t, p.ID, doc.ID)
}

func TestBuildDocument_TranslitFields(t *testing.T) {
	doc := BuildDocument(sampleProduct())

	require.NotNil(t, doc.NameTranslit)
	assert.Equal(t, "Gipsokarton GKB 12.5mm", *doc.NameTranslit)
	require.NotNil(t, doc.BrandTranslit)
	assert.Equal(t, "Knauf", *doc.BrandTranslit)
	require.NotNil(t, doc.CategoryTranslit)
	assert.Equal(t, "Suho stroitelstvo", *doc.CategoryTranslit)

	// Suggest twins mirror their source fields.
	assert.Equal(t, doc.Name, doc.NameSuggest)
	assert.Equal(t, doc.NameTranslit, doc.NameTranslitSuggest)
	assert.Equal(t, doc.Brand, doc.BrandSuggest)
}

func TestBuildDocument_EmptyStringsBecomeNil(t *testing.T) {
	p := sampleProduct()
	p.LongDescription = strPtr("   ")
	p.CatalogNumber = strPtr("")
	p.SecondaryGroup = nil

	doc := BuildDocument(p)
	assert.Nil(t, doc.LongDescription)
	assert.Nil(t, doc.CatalogNumber)
	assert.Nil(t, doc.SecondaryGroup)
	assert.Nil(t, doc.SecondaryGroupTranslit)
}

func TestBuildDocument_EffectivePriceChain(t *testing.T) {
	p := sampleProduct()
	p.PriceUnit1 = f64Ptr(10)
	p.PriceUnit2 = f64Ptr(11)
	p.VisiblePriceUnit1 = f64Ptr(12)
	p.PromoPriceUnit1 = f64Ptr(8)

	assert.Equal(t, 8.0, *BuildDocument(p).EffectivePrice, "promo price wins")

	p.PromoPriceUnit1 = nil
	assert.Equal(t, 12.0, *BuildDocument(p).EffectivePrice, "then visible price")

	p.VisiblePriceUnit1 = nil
	assert.Equal(t, 10.0, *BuildDocument(p).EffectivePrice, "then base price")

	p.PriceUnit1 = nil
	assert.Equal(t, 11.0, *BuildDocument(p).EffectivePrice, "then secondary unit price")

	p.PriceUnit2 = nil
	assert.Nil(t, BuildDocument(p).EffectivePrice)
}
