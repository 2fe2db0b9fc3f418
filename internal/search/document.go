package search

import (
	"strings"

	"github.com/gstroy/search-service/internal/domain"
	"github.com/gstroy/search-service/internal/textnorm"
)

// safeText trims the value and normalizes empty strings to nil so that
// "field exists" filters behave correctly on the engine side.
func safeText(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// translit returns the transliteration of an optional text field, nil when
// the source is absent or empty.
func translit(value *string) *string {
	if value == nil {
		return nil
	}
	result := textnorm.Transliterate(*value)
	if result == "" {
		return nil
	}
	return &result
}

// BuildDocument maps a product row to the flat document shape indexed by
// the engine, precomputing the Latin transliteration twins. Pure mapping,
// no engine I/O; the document id equals the product id.
func BuildDocument(p *domain.Product) *domain.ProductDocument {
	name := strings.TrimSpace(p.Name)
	nameTranslit := translit(&p.Name)

	return &domain.ProductDocument{
		ID:            p.ID,
		ItemNumber:    safeText(p.ItemNumber),
		Barcode:       safeText(p.Barcode),
		CatalogNumber: safeText(p.CatalogNumber),

		Name:                name,
		NameSuggest:         name,
		NameTranslit:        nameTranslit,
		NameTranslitSuggest: nameTranslit,

		ShortDescription: safeText(p.ShortDescription),
		LongDescription:  safeText(p.LongDescription),
		MetaDescription:  safeText(p.MetaDescription),

		Brand:                safeText(p.Brand),
		BrandSuggest:         safeText(p.Brand),
		BrandTranslit:        translit(p.Brand),
		BrandTranslitSuggest: translit(p.Brand),

		Category:                safeText(p.Category),
		CategorySuggest:         safeText(p.Category),
		CategoryTranslit:        translit(p.Category),
		CategoryTranslitSuggest: translit(p.Category),

		PrimaryGroup:                safeText(p.PrimaryGroup),
		PrimaryGroupSuggest:         safeText(p.PrimaryGroup),
		PrimaryGroupTranslit:        translit(p.PrimaryGroup),
		PrimaryGroupTranslitSuggest: translit(p.PrimaryGroup),

		SecondaryGroup:                safeText(p.SecondaryGroup),
		SecondaryGroupSuggest:         safeText(p.SecondaryGroup),
		SecondaryGroupTranslit:        translit(p.SecondaryGroup),
		SecondaryGroupTranslitSuggest: translit(p.SecondaryGroup),

		TertiaryGroup:         safeText(p.TertiaryGroup),
		TertiaryGroupTranslit: translit(p.TertiaryGroup),

		QuaternaryGroup:         safeText(p.QuaternaryGroup),
		QuaternaryGroupTranslit: translit(p.QuaternaryGroup),

		CategoryID:     p.CategoryID,
		BrandID:        p.BrandID,
		IsActive:       p.IsActive,
		EffectivePrice: p.EffectivePrice(),
	}
}
