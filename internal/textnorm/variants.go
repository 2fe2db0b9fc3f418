package textnorm

import (
	"strings"
	"unicode/utf8"
)

// DefaultVariantLimit caps how many rewritten forms of a query are tried.
// The limit bounds engine-side query cost; raising it changes ranking.
const DefaultVariantLimit = 6

// maxExpandableLen guards the digraph and typo expansions against long
// free-text queries where variant explosion is useless.
const maxExpandableLen = 40

// digraphRule is a single substitution hypothesis: every occurrence of the
// pattern is rewritten to each replacement in turn, breadth-first.
type digraphRule struct {
	pattern      string
	noFollowH    bool // pattern matches only when not followed by 'h'
	replacements []string
}

// digraphRules captures the ch/ts/c/4 ambiguity in Latin-typed Bulgarian.
// Order matters: earlier rules produce earlier (higher-boost) variants.
var digraphRules = []digraphRule{
	{pattern: "ch", replacements: []string{"c", "4"}},
	{pattern: "ts", replacements: []string{"c", "tc"}},
	{pattern: "tc", replacements: []string{"ts", "c"}},
	{pattern: "4", replacements: []string{"ch", "c"}},
	{pattern: "c", noFollowH: true, replacements: []string{"ch", "ts"}},
}

// replaceAllFold replaces every case-insensitive occurrence of pattern.
// When noFollowH is set, occurrences directly followed by 'h' are skipped.
// Returns the input unchanged when there is nothing to replace.
func replaceAllFold(value, pattern string, noFollowH bool, replacement string) string {
	lower := strings.ToLower(value)
	pat := strings.ToLower(pattern)
	var b strings.Builder
	i := 0
	changed := false
	for i < len(lower) {
		j := strings.Index(lower[i:], pat)
		if j < 0 {
			b.WriteString(value[i:])
			break
		}
		at := i + j
		end := at + len(pat)
		if noFollowH && end < len(lower) && lower[end] == 'h' {
			b.WriteString(value[i:end])
			i = end
			continue
		}
		b.WriteString(value[i:at])
		b.WriteString(replacement)
		changed = true
		i = end
	}
	if !changed {
		return value
	}
	return b.String()
}

func (r digraphRule) matches(value string) bool {
	lower := strings.ToLower(value)
	if !r.noFollowH {
		return strings.Contains(lower, strings.ToLower(r.pattern))
	}
	for i := 0; i+1 <= len(lower); i++ {
		if lower[i] != 'c' {
			continue
		}
		if i+1 < len(lower) && lower[i+1] == 'h' {
			continue
		}
		return true
	}
	return false
}

// expandLatinDigraphVariants generates substitution variants of a Latin
// query breadth-first, so single-substitution hypotheses come before
// compound ones. Cyrillic input is not expanded.
func expandLatinDigraphVariants(value string, limit int) []string {
	if value == "" || ContainsCyrillic(value) {
		return nil
	}
	var variants []string
	seen := map[string]struct{}{value: {}}
	queue := []string{value}
	for len(queue) > 0 && len(variants) < limit {
		current := queue[0]
		queue = queue[1:]
		for _, rule := range digraphRules {
			if !rule.matches(current) {
				continue
			}
			for _, replacement := range rule.replacements {
				candidate := replaceAllFold(current, rule.pattern, rule.noFollowH, replacement)
				if _, dup := seen[candidate]; dup {
					continue
				}
				seen[candidate] = struct{}{}
				variants = append(variants, candidate)
				if len(variants) >= limit {
					break
				}
				queue = append(queue, candidate)
			}
			if len(variants) >= limit {
				break
			}
		}
	}
	return variants
}

func onlyDigitsAndSeparators(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r >= '0' && r <= '9' {
			continue
		}
		switch r {
		case '-', '_', '/', '.', ' ':
			continue
		}
		return false
	}
	return true
}

func shouldExpandDigraphs(value string) bool {
	if value == "" || utf8.RuneCountInString(value) > maxExpandableLen {
		return false
	}
	if LooksLikeCode(value) {
		return false
	}
	return letterCount(value) >= 2
}

func shouldExpandTypos(value string) bool {
	if value == "" || utf8.RuneCountInString(value) > maxExpandableLen {
		return false
	}
	if LooksLikeCode(value) {
		return false
	}
	return letterCount(value) >= 3
}

// ExpandQueryVariants turns one raw query into an ordered, de-duplicated
// list of hypotheses about what the user meant. The first element is always
// the verbatim trimmed query; order is part of the ranking contract (earlier
// variants receive higher boosts). The list is capped at limit.
func ExpandQueryVariants(value string, limit int) []string {
	text := strings.TrimSpace(value)
	if text == "" || limit < 1 {
		return nil
	}
	// A query of pure digits and separators is a code, not text. It keeps
	// its single verbatim form and relies on the exact/partial code clauses.
	if onlyDigitsAndSeparators(text) {
		return []string{text}
	}

	var variants []string
	add := func(variant string) {
		if variant == "" {
			return
		}
		for _, existing := range variants {
			if existing == variant {
				return
			}
		}
		variants = append(variants, variant)
	}

	add(text)
	if normalized := NormalizeQuery(text); normalized != "" && normalized != text {
		add(normalized)
	}
	translit := Transliterate(text)
	if translit != "" && translit != text {
		add(translit)
	}
	if leet := NormalizeLeet(text); leet != "" && leet != text {
		add(leet)
		add(LatinToCyrillicGuess(leet))
	}
	if !ContainsCyrillic(text) {
		add(LatinToCyrillicGuess(text))
	}
	if shouldExpandDigraphs(text) {
		for _, variant := range expandLatinDigraphVariants(text, limit) {
			add(variant)
		}
	}
	if shouldExpandTypos(text) {
		add(SwapConfusableLetters(text))
		leetSource := text
		if translit != "" && translit != text {
			leetSource = translit
		}
		add(replaceLeetDigits(leetSource))
	}

	if len(variants) > limit {
		variants = variants[:limit]
	}
	return variants
}
