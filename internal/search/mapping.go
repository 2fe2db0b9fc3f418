package search

import (
	"strings"
	"sync"

	"github.com/gstroy/search-service/internal/textnorm"
)

// DefaultIndexName is the default Elasticsearch index for product documents.
const DefaultIndexName = "gstroy-products"

// bgSynonyms is the curated construction-materials synonym table. Each line
// is a comma-separated synonym group in Elasticsearch synonym_graph format.
var bgSynonyms = []string{
	"гипсокартон, гк, гипс картон",
	"ламиниран паркет, ламинат",
	"бормашина, дрелка",
	"ъглошлайф, флекс",
	"винтоверт, шуруповерт, шурт",
	"перфоратор, къртач, къртачка",
	"верижен трион, моторен трион, резачка",
	"циркуляр, дисков трион",
	"стиропор, eps, експандиран полистирол",
	"фибран, xps, екструдиран полистирол",
	"минерална вата, каменна вата, стъклена вата",
	"ватерпас, нивелир",
	"грунд, праймер",
	"герметик, силикон",
	"лепило, туткал",
	"пвц, pvc",
}

var (
	synonymsOnce  sync.Once
	latinSynonyms []string
)

// synonymFilters returns the Bulgarian synonym table and its transliterated
// Latin twin. The Latin list is derived once: each group is transliterated,
// lowercased, and deduplicated by its normalized form.
func synonymFilters() (bg []string, latin []string) {
	synonymsOnce.Do(func() {
		seen := make(map[string]struct{}, len(bgSynonyms))
		for _, line := range bgSynonyms {
			translit := textnorm.Transliterate(line)
			if translit == "" {
				continue
			}
			normalized := strings.ToLower(translit)
			if _, dup := seen[normalized]; dup {
				continue
			}
			seen[normalized] = struct{}{}
			latinSynonyms = append(latinSynonyms, normalized)
		}
	})
	return bgSynonyms, latinSynonyms
}

// textField builds a text field mapping with index/search analyzers.
func textField(indexAnalyzer, searchAnalyzer string) map[string]any {
	return map[string]any{
		"type":            "text",
		"analyzer":        indexAnalyzer,
		"search_analyzer": searchAnalyzer,
	}
}

// suggestField builds a search_as_you_type field mapping.
func suggestField(indexAnalyzer, searchAnalyzer string) map[string]any {
	return map[string]any{
		"type":            "search_as_you_type",
		"analyzer":        indexAnalyzer,
		"search_analyzer": searchAnalyzer,
	}
}

// keywordWithText builds the dual keyword+text mapping used for brand,
// category, and group fields: exact filtering on the keyword, fuzzy
// matching on the .text sub-field.
func keywordWithText() map[string]any {
	return map[string]any{
		"type": "keyword",
		"fields": map[string]any{
			"text": textField("bg_index", "bg_search"),
		},
	}
}

// codeField builds the keyword+edge-n-gram mapping used for the exact
// identifier fields (item_number, barcode, catalog_number).
func codeField() map[string]any {
	return map[string]any{
		"type": "keyword",
		"fields": map[string]any{
			"edge": map[string]any{
				"type":            "text",
				"analyzer":        "code_edge",
				"search_analyzer": "code_search",
			},
		},
	}
}

// IndexSettings builds the full index configuration: char filters, token
// filters, analyzers, and field mappings. The build is deterministic and
// idempotent; the configuration is compared implicitly via the required
// field drift check, so two calls must describe the same index.
func IndexSettings() map[string]any {
	bg, latin := synonymFilters()

	return map[string]any{
		"settings": map[string]any{
			"analysis": map[string]any{
				"char_filter": map[string]any{
					"bg_leet_filter": map[string]any{
						"type": "mapping",
						"mappings": []string{
							"4 => ch",
							"6 => sh",
							"3 => z",
							"q => ya",
							"w => v",
						},
					},
				},
				"filter": map[string]any{
					"bg_stop":    map[string]any{"type": "stop", "stopwords": "_bulgarian_"},
					"bg_stemmer": map[string]any{"type": "stemmer", "language": "bulgarian"},
					"bg_synonyms": map[string]any{
						"type":     "synonym_graph",
						"synonyms": bg,
					},
					"latin_synonyms": map[string]any{
						"type":     "synonym_graph",
						"synonyms": latin,
					},
					"bg_shingle": map[string]any{
						"type":             "shingle",
						"min_shingle_size": 2,
						"max_shingle_size": 3,
						"output_unigrams":  true,
					},
					"code_edge_ngram": map[string]any{
						"type":     "edge_ngram",
						"min_gram": 2,
						"max_gram": 20,
					},
					"translit_edge_ngram": map[string]any{
						"type":     "edge_ngram",
						"min_gram": 3,
						"max_gram": 15,
					},
				},
				"analyzer": map[string]any{
					"bg_index": map[string]any{
						"tokenizer": "standard",
						"filter":    []string{"lowercase", "asciifolding", "bg_stop", "bg_stemmer", "bg_shingle"},
					},
					"bg_search": map[string]any{
						"char_filter": []string{"bg_leet_filter"},
						"tokenizer":   "standard",
						"filter":      []string{"lowercase", "asciifolding", "bg_synonyms", "bg_stop", "bg_stemmer"},
					},
					"latin_text": map[string]any{
						"tokenizer": "standard",
						"filter":    []string{"lowercase", "asciifolding"},
					},
					"latin_search": map[string]any{
						"tokenizer": "standard",
						"filter":    []string{"lowercase", "asciifolding", "latin_synonyms"},
					},
					"translit_index": map[string]any{
						"char_filter": []string{"bg_leet_filter"},
						"tokenizer":   "standard",
						"filter":      []string{"lowercase", "asciifolding", "translit_edge_ngram"},
					},
					"translit_search": map[string]any{
						"char_filter": []string{"bg_leet_filter"},
						"tokenizer":   "standard",
						"filter":      []string{"lowercase", "asciifolding", "latin_synonyms"},
					},
					"code_edge": map[string]any{
						"tokenizer": "keyword",
						"filter":    []string{"lowercase", "code_edge_ngram"},
					},
					"code_search": map[string]any{
						"tokenizer": "keyword",
						"filter":    []string{"lowercase"},
					},
				},
			},
		},
		"mappings": map[string]any{
			"properties": map[string]any{
				"id":             map[string]any{"type": "integer"},
				"item_number":    codeField(),
				"barcode":        codeField(),
				"catalog_number": codeField(),

				"name": map[string]any{
					"type":            "text",
					"analyzer":        "bg_index",
					"search_analyzer": "bg_search",
					"fields": map[string]any{
						"keyword": map[string]any{"type": "keyword", "ignore_above": 256},
					},
				},
				"name_suggest":          suggestField("bg_index", "bg_search"),
				"name_translit":         textField("translit_index", "translit_search"),
				"name_translit_suggest": suggestField("translit_index", "translit_search"),

				"short_description": textField("bg_index", "bg_search"),
				"long_description":  textField("bg_index", "bg_search"),
				"meta_description":  textField("bg_index", "bg_search"),

				"brand":                  keywordWithText(),
				"brand_suggest":          suggestField("bg_index", "bg_search"),
				"brand_translit":         textField("latin_text", "latin_search"),
				"brand_translit_suggest": suggestField("latin_text", "latin_search"),

				"category":                  keywordWithText(),
				"category_suggest":          suggestField("bg_index", "bg_search"),
				"category_translit":         textField("latin_text", "latin_search"),
				"category_translit_suggest": suggestField("latin_text", "latin_search"),

				"primary_group":                  keywordWithText(),
				"primary_group_suggest":          suggestField("bg_index", "bg_search"),
				"primary_group_translit":         textField("latin_text", "latin_search"),
				"primary_group_translit_suggest": suggestField("latin_text", "latin_search"),

				"secondary_group":                  keywordWithText(),
				"secondary_group_suggest":          suggestField("bg_index", "bg_search"),
				"secondary_group_translit":         textField("latin_text", "latin_search"),
				"secondary_group_translit_suggest": suggestField("latin_text", "latin_search"),

				"tertiary_group":          keywordWithText(),
				"tertiary_group_translit": textField("latin_text", "latin_search"),

				"quaternary_group":          keywordWithText(),
				"quaternary_group_translit": textField("latin_text", "latin_search"),

				"category_id":     map[string]any{"type": "integer"},
				"brand_id":        map[string]any{"type": "integer"},
				"is_active":       map[string]any{"type": "boolean"},
				"effective_price": map[string]any{"type": "float"},
			},
		},
	}
}

// RequiredFields is the drift-detection list: when any of these fields is
// missing from the live mapping, the index predates the transliteration
// and autocomplete pipeline and must be rebuilt.
var RequiredFields = []string{
	"name_translit",
	"brand_translit",
	"category_translit",
	"primary_group_translit",
	"secondary_group_translit",
	"name_suggest",
	"brand_suggest",
	"category_suggest",
	"primary_group_suggest",
	"secondary_group_suggest",
	"name_translit_suggest",
	"brand_translit_suggest",
	"category_translit_suggest",
	"primary_group_translit_suggest",
	"secondary_group_translit_suggest",
}

// SuggestFields are the search_as_you_type fields queried by autocomplete
// clauses, in boost-relevant order.
var SuggestFields = []string{
	"name_suggest",
	"brand_suggest",
	"category_suggest",
	"primary_group_suggest",
	"secondary_group_suggest",
	"name_translit_suggest",
	"brand_translit_suggest",
	"category_translit_suggest",
	"primary_group_translit_suggest",
	"secondary_group_translit_suggest",
}

// ExpandSuggestFields appends the _2gram and _3gram sub-fields that
// search_as_you_type maintains for each suggest field.
func ExpandSuggestFields(fields []string) []string {
	expanded := make([]string, 0, len(fields)*3)
	for _, field := range fields {
		expanded = append(expanded, field, field+"._2gram", field+"._3gram")
	}
	return expanded
}
