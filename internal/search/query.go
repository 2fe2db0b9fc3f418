package search

import (
	"strings"
	"unicode/utf8"

	"github.com/gstroy/search-service/internal/domain"
	"github.com/gstroy/search-service/internal/textnorm"
)

// bestFieldsMinLen is the query length at which the broad best_fields
// clause joins the autocomplete clauses; shorter queries are served well
// enough by the suggest sub-fields alone.
const bestFieldsMinLen = 4

// bestFields ranks full-text matches: name first, its transliteration
// next, then descriptions, codes, and classification text.
var bestFields = []string{
	"name^5",
	"name_translit^3",
	"short_description^2",
	"long_description",
	"meta_description",
	"item_number.edge^6",
	"barcode.edge^6",
	"catalog_number.edge^6",
	"brand.text^2",
	"brand_translit^2",
	"category.text",
	"category_translit",
	"primary_group.text",
	"primary_group_translit",
	"secondary_group_translit",
}

// variantClauses builds one bool_prefix autocomplete clause per expanded
// query variant. The verbatim first variant gets boost 3.0, the rest 1.0;
// this ordering is part of the ranking contract.
func variantClauses(textQuery string, limit int) []Clause {
	fields := ExpandSuggestFields(SuggestFields)
	variants := textnorm.ExpandQueryVariants(textQuery, limit)
	clauses := make([]Clause, 0, len(variants))
	for i, variant := range variants {
		boost := 1.0
		if i == 0 {
			boost = 3.0
		}
		clauses = append(clauses, MultiMatch(variant, fields, MultiMatchOptions{
			Type:  "bool_prefix",
			Boost: boost,
		}))
	}
	return clauses
}

// buildSearchBody constructs the full engine request body for a product
// search. Hard filters always apply; the text block is present only when
// the request carries a query.
func buildSearchBody(req *domain.SearchRequest) map[string]any {
	textQuery := strings.TrimSpace(req.Query)
	codeQuery := strings.TrimSpace(req.ItemNumber)
	if codeQuery == "" {
		codeQuery = textQuery
	}

	var must []Clause
	var filters []Clause

	if textQuery != "" {
		should := variantClauses(textQuery, textnorm.DefaultVariantLimit)

		if utf8.RuneCountInString(textQuery) >= bestFieldsMinLen {
			should = append(should, MultiMatch(textQuery, bestFields, MultiMatchOptions{
				Type:               "best_fields",
				TieBreaker:         0.3,
				Operator:           "and",
				MinimumShouldMatch: "2<75%",
				Fuzziness:          "AUTO:3,6",
			}))
		}

		// Exact and partial code hits must outrank fuzzy text hits.
		if codeQuery != "" && textnorm.IsCodePattern(codeQuery) {
			should = append(should,
				Term("item_number", codeQuery, 10.0),
				Term("barcode", codeQuery, 10.0),
				Term("catalog_number", codeQuery, 10.0),
				Match("item_number.edge", codeQuery, MatchOptions{Boost: 5.0}),
				Match("barcode.edge", codeQuery, MatchOptions{Boost: 5.0}),
				Match("catalog_number.edge", codeQuery, MatchOptions{Boost: 5.0}),
			)
		}

		should = append(should,
			MatchPhrase("name", textQuery, 6.0, 2),
			MatchPhrase("name_translit", textQuery, 4.0, 2),
			Match("name_translit", textQuery, MatchOptions{
				Fuzziness:    "AUTO:3,6",
				PrefixLength: 1,
				Boost:        2.5,
			}),
		)

		must = append(must, Bool{Should: should, MinimumShouldMatch: 1}.Build())
	}

	if req.Brand != "" {
		filters = append(filters, TermFilter("brand", req.Brand))
	}
	if req.MainGroup != "" {
		filters = append(filters, Bool{
			Should: []Clause{
				TermFilter("primary_group", req.MainGroup),
				TermFilter("category", req.MainGroup),
			},
			MinimumShouldMatch: 1,
		}.Build())
	}
	if len(req.CategoryIDs) > 0 {
		filters = append(filters, Terms("category_id", req.CategoryIDs))
	}
	if req.PriceMin != nil {
		filters = append(filters, Range("effective_price", RangeBounds{GTE: *req.PriceMin}))
	}
	if req.PriceMax != nil {
		filters = append(filters, Range("effective_price", RangeBounds{LTE: *req.PriceMax}))
	}
	filters = append(filters, TermFilter("is_active", true))

	if len(must) == 0 {
		must = []Clause{MatchAll()}
	}

	base := Bool{Must: must, Filter: filters}.Build()

	page := req.Page
	if page < 1 {
		page = 1
	}

	return map[string]any{
		"from": (page - 1) * req.PerPage,
		"size": req.PerPage,
		"query": FunctionScore(base, []map[string]any{
			WeightFunction(TermFilter("is_active", true), 1.1),
		}),
		"sort": buildSort(req.Sort, textQuery != ""),
	}
}

// buildSort resolves the sort policy: explicit sorts win; otherwise text
// queries rank by score with name as tie-break, and bare listings fall
// back to alphabetical order.
func buildSort(sort string, hasTextQuery bool) []map[string]any {
	switch sort {
	case domain.SortNewest:
		return []map[string]any{SortByField("id", "desc", "")}
	case domain.SortPriceAsc:
		return []map[string]any{SortByField("effective_price", "asc", "_last")}
	case domain.SortPriceDesc:
		return []map[string]any{SortByField("effective_price", "desc", "_last")}
	}
	if hasTextQuery {
		return []map[string]any{
			SortByField("_score", "desc", ""),
			SortByField("name.keyword", "asc", ""),
		}
	}
	return []map[string]any{SortByField("name.keyword", "asc", "")}
}

// suggestVariantLimit trims autocomplete to fewer variants than full
// search; suggest queries fire on every keystroke.
const suggestVariantLimit = 4

// buildSuggestBody constructs the autocomplete request: variant-boosted
// bool_prefix clauses plus literal prefix matches on the code fields.
func buildSuggestBody(textQuery string, limit int) map[string]any {
	should := variantClauses(textQuery, suggestVariantLimit)
	should = append(should,
		Prefix("item_number", textQuery),
		Prefix("barcode", textQuery),
		Prefix("catalog_number", textQuery),
	)

	if limit < 1 {
		limit = 1
	}
	if limit > 20 {
		limit = 20
	}

	return map[string]any{
		"size":    limit,
		"_source": []string{"id", "item_number", "name", "brand", "category"},
		"query":   Bool{Should: should, MinimumShouldMatch: 1}.Build(),
		"sort": []map[string]any{
			SortByField("_score", "desc", ""),
			SortByField("name.keyword", "asc", ""),
		},
	}
}
