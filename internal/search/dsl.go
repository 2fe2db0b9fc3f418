package search

// Clause is one node of the engine query DSL. Clauses are built through
// the typed constructors below and serialized to JSON as-is; the boost and
// ordering semantics of the callers depend on constructors never reordering
// what they are given.
type Clause map[string]any

// Term builds an exact keyword match with an optional boost (0 = none).
func Term(field string, value any, boost float64) Clause {
	inner := map[string]any{"value": value}
	if boost > 0 {
		inner["boost"] = boost
	}
	return Clause{"term": map[string]any{field: inner}}
}

// TermFilter builds the short-form exact match used in filter context,
// where scoring (and therefore boost) does not apply.
func TermFilter(field string, value any) Clause {
	return Clause{"term": map[string]any{field: value}}
}

// Terms builds a set-membership filter.
func Terms(field string, values any) Clause {
	return Clause{"terms": map[string]any{field: values}}
}

// MatchOptions carries the optional parameters of a match clause.
type MatchOptions struct {
	Boost        float64
	Fuzziness    string
	PrefixLength int
}

// Match builds an analyzed full-text match.
func Match(field, query string, opts MatchOptions) Clause {
	inner := map[string]any{"query": query}
	if opts.Boost > 0 {
		inner["boost"] = opts.Boost
	}
	if opts.Fuzziness != "" {
		inner["fuzziness"] = opts.Fuzziness
	}
	if opts.PrefixLength > 0 {
		inner["prefix_length"] = opts.PrefixLength
	}
	return Clause{"match": map[string]any{field: inner}}
}

// MatchPhrase builds a phrase match with slop word-order tolerance.
func MatchPhrase(field, query string, boost float64, slop int) Clause {
	inner := map[string]any{"query": query, "boost": boost, "slop": slop}
	return Clause{"match_phrase": map[string]any{field: inner}}
}

// MultiMatchOptions carries the optional parameters of a multi_match clause.
type MultiMatchOptions struct {
	Type               string
	Boost              float64
	TieBreaker         float64
	Operator           string
	MinimumShouldMatch string
	Fuzziness          string
}

// MultiMatch builds a query across several fields (with ^boost suffixes).
func MultiMatch(query string, fields []string, opts MultiMatchOptions) Clause {
	inner := map[string]any{"query": query, "fields": fields}
	if opts.Type != "" {
		inner["type"] = opts.Type
	}
	if opts.Boost > 0 {
		inner["boost"] = opts.Boost
	}
	if opts.TieBreaker > 0 {
		inner["tie_breaker"] = opts.TieBreaker
	}
	if opts.Operator != "" {
		inner["operator"] = opts.Operator
	}
	if opts.MinimumShouldMatch != "" {
		inner["minimum_should_match"] = opts.MinimumShouldMatch
	}
	if opts.Fuzziness != "" {
		inner["fuzziness"] = opts.Fuzziness
	}
	return Clause{"multi_match": inner}
}

// Prefix builds a literal prefix match on a keyword field.
func Prefix(field, value string) Clause {
	return Clause{"prefix": map[string]any{field: value}}
}

// RangeBounds holds optional inclusive bounds for a range filter.
type RangeBounds struct {
	GTE any
	LTE any
}

// Range builds a range filter from the non-nil bounds.
func Range(field string, bounds RangeBounds) Clause {
	inner := map[string]any{}
	if bounds.GTE != nil {
		inner["gte"] = bounds.GTE
	}
	if bounds.LTE != nil {
		inner["lte"] = bounds.LTE
	}
	return Clause{"range": map[string]any{field: inner}}
}

// Bool combines sub-clauses. Zero-valued members are omitted from the
// serialized form; MinimumShouldMatch is emitted only when should clauses
// are present.
type Bool struct {
	Must               []Clause
	Should             []Clause
	Filter             []Clause
	MinimumShouldMatch int
}

// Build serializes the bool query.
func (b Bool) Build() Clause {
	inner := map[string]any{}
	if len(b.Must) > 0 {
		inner["must"] = b.Must
	}
	if len(b.Should) > 0 {
		inner["should"] = b.Should
		if b.MinimumShouldMatch > 0 {
			inner["minimum_should_match"] = b.MinimumShouldMatch
		}
	}
	if len(b.Filter) > 0 {
		inner["filter"] = b.Filter
	}
	return Clause{"bool": inner}
}

// MatchAll matches every document.
func MatchAll() Clause {
	return Clause{"match_all": map[string]any{}}
}

// FunctionScore wraps a query with additive weight functions.
func FunctionScore(query Clause, functions []map[string]any) Clause {
	return Clause{
		"function_score": map[string]any{
			"query":      query,
			"functions":  functions,
			"score_mode": "sum",
			"boost_mode": "sum",
		},
	}
}

// WeightFunction scores documents matching the filter with a flat weight.
func WeightFunction(filter Clause, weight float64) map[string]any {
	return map[string]any{"filter": filter, "weight": weight}
}

// SortByField builds one sort entry; missing controls placement of
// documents without the field ("_last"), empty means engine default.
func SortByField(field, order, missing string) map[string]any {
	if missing == "" {
		return map[string]any{field: order}
	}
	return map[string]any{field: map[string]any{"order": order, "missing": missing}}
}
