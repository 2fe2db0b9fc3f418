package domain

// Product is a catalog row as read from the relational store. Only the
// columns the search subsystem consumes are represented; the store remains
// the system of record and is never written back to.
type Product struct {
	ID               int64
	ItemNumber       *string
	Barcode          *string
	CatalogNumber    *string
	Name             string
	ShortDescription *string
	LongDescription  *string
	MetaDescription  *string
	Brand            *string
	BrandID          *int64
	Category         *string
	CategoryID       *int64
	PrimaryGroup     *string
	SecondaryGroup   *string
	TertiaryGroup    *string
	QuaternaryGroup  *string

	// Unit prices in lev. The effective price used for filtering and
	// sorting is derived via the promo -> visible -> base -> secondary
	// unit fallback chain.
	PriceUnit1        *float64
	PriceUnit2        *float64
	VisiblePriceUnit1 *float64
	PromoPriceUnit1   *float64

	IsActive bool
}

// EffectivePrice resolves the price used for display, range filtering and
// sorting. The precedence is fixed: promo price, then visible price, then
// base price, then the secondary-unit price.
func (p *Product) EffectivePrice() *float64 {
	for _, candidate := range []*float64{
		p.PromoPriceUnit1,
		p.VisiblePriceUnit1,
		p.PriceUnit1,
		p.PriceUnit2,
	} {
		if candidate != nil {
			return candidate
		}
	}
	return nil
}

// ProductDocument is the flat document shape indexed by the search engine.
// Every transliteratable text field carries a precomputed Latin twin so
// that Latin-typed queries match Cyrillic content without query-time work.
type ProductDocument struct {
	ID            int64   `json:"id"`
	ItemNumber    *string `json:"item_number"`
	Barcode       *string `json:"barcode"`
	CatalogNumber *string `json:"catalog_number"`

	Name                string  `json:"name"`
	NameSuggest         string  `json:"name_suggest"`
	NameTranslit        *string `json:"name_translit"`
	NameTranslitSuggest *string `json:"name_translit_suggest"`

	ShortDescription *string `json:"short_description"`
	LongDescription  *string `json:"long_description"`
	MetaDescription  *string `json:"meta_description"`

	Brand                *string `json:"brand"`
	BrandSuggest         *string `json:"brand_suggest"`
	BrandTranslit        *string `json:"brand_translit"`
	BrandTranslitSuggest *string `json:"brand_translit_suggest"`

	Category                *string `json:"category"`
	CategorySuggest         *string `json:"category_suggest"`
	CategoryTranslit        *string `json:"category_translit"`
	CategoryTranslitSuggest *string `json:"category_translit_suggest"`

	PrimaryGroup                *string `json:"primary_group"`
	PrimaryGroupSuggest         *string `json:"primary_group_suggest"`
	PrimaryGroupTranslit        *string `json:"primary_group_translit"`
	PrimaryGroupTranslitSuggest *string `json:"primary_group_translit_suggest"`

	SecondaryGroup                *string `json:"secondary_group"`
	SecondaryGroupSuggest         *string `json:"secondary_group_suggest"`
	SecondaryGroupTranslit        *string `json:"secondary_group_translit"`
	SecondaryGroupTranslitSuggest *string `json:"secondary_group_translit_suggest"`

	TertiaryGroup         *string `json:"tertiary_group"`
	TertiaryGroupTranslit *string `json:"tertiary_group_translit"`

	QuaternaryGroup         *string `json:"quaternary_group"`
	QuaternaryGroupTranslit *string `json:"quaternary_group_translit"`

	CategoryID     *int64   `json:"category_id"`
	BrandID        *int64   `json:"brand_id"`
	IsActive       bool     `json:"is_active"`
	EffectivePrice *float64 `json:"effective_price"`
}

// Sort options for search results.
const (
	SortRelevance = "relevance"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortNewest    = "newest"
)

// ValidSortOptions returns the list of valid sort options.
func ValidSortOptions() []string {
	return []string{SortRelevance, SortPriceAsc, SortPriceDesc, SortNewest}
}

// IsValidSort checks whether the given sort string is a valid sort option.
func IsValidSort(sort string) bool {
	for _, s := range ValidSortOptions() {
		if s == sort {
			return true
		}
	}
	return false
}

// SearchRequest holds all parameters for a product search.
type SearchRequest struct {
	Query       string
	ItemNumber  string
	Brand       string
	MainGroup   string
	CategoryIDs []int64
	PriceMin    *float64
	PriceMax    *float64
	Sort        string
	Page        int
	PerPage     int
}

// HasFilters reports whether at least one engine-worthy filter is present.
// The fallback coordinator only routes a request through the search engine
// when this is true; an unfiltered listing goes straight to SQL.
func (r *SearchRequest) HasFilters() bool {
	return r.Query != "" || r.ItemNumber != "" || r.Brand != "" || r.MainGroup != "" ||
		len(r.CategoryIDs) > 0 || r.PriceMin != nil || r.PriceMax != nil
}

// SearchResult is the engine-side result shape: product ids in rank order
// plus the total match count for pagination math. Callers re-fetch full
// rows by id from the relational store, preserving this order.
type SearchResult struct {
	IDs   []int64
	Total int
}

// Suggestion is a lightweight product summary returned by autocomplete.
type Suggestion struct {
	ID         int64  `json:"id"`
	ItemNumber string `json:"item_number,omitempty"`
	Name       string `json:"name"`
	Brand      string `json:"brand,omitempty"`
	Category   string `json:"category,omitempty"`
}
