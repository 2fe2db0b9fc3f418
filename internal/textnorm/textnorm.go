// Package textnorm contains the deterministic text rewriting rules behind
// query expansion: Bulgarian-to-Latin transliteration, leet-speak
// normalization, Cyrillic/Latin best-effort guessing and the code heuristic
// that protects SKUs and part numbers from text-oriented rewrites.
//
// Every function is pure. Malformed input degrades to an empty result,
// never to an error.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"
)

// codePattern matches strings that are strictly code-shaped: alphanumerics
// plus the separator characters used in part numbers, at least 3 runes.
var codePattern = regexp.MustCompile(`^[0-9A-Za-z\-_/.]{3,}$`)

// IsCodePattern reports whether the value matches the strict code shape
// used to gate exact-term clauses against item_number/barcode/catalog_number.
func IsCodePattern(value string) bool {
	return codePattern.MatchString(value)
}

// translitMap is the fixed Bulgarian-to-Latin digraph scheme. The hard and
// soft signs map to "A"/"a" and the empty string respectively.
var translitMap = map[rune]string{
	'А': "A", 'Б': "B", 'В': "V", 'Г': "G", 'Д': "D", 'Е': "E",
	'Ж': "Zh", 'З': "Z", 'И': "I", 'Й': "Y", 'К': "K", 'Л': "L",
	'М': "M", 'Н': "N", 'О': "O", 'П': "P", 'Р': "R", 'С': "S",
	'Т': "T", 'У': "U", 'Ф': "F", 'Х': "H", 'Ц': "Ts", 'Ч': "Ch",
	'Ш': "Sh", 'Щ': "Sht", 'Ъ': "A", 'Ь': "", 'Ю': "Yu", 'Я': "Ya",
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "y", 'к': "k", 'л': "l",
	'м': "m", 'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s",
	'т': "t", 'у': "u", 'ф': "f", 'х': "h", 'ц': "ts", 'ч': "ch",
	'ш': "sh", 'щ': "sht", 'ъ': "a", 'ь': "", 'ю': "yu", 'я': "ya",
}

// fvSwapTable swaps the f/v pair in both scripts, a common transliteration
// confusion (Latin v vs Cyrillic в vs ф).
var fvSwapTable = map[rune]rune{
	'f': 'v', 'v': 'f', 'F': 'V', 'V': 'F',
	'ф': 'в', 'в': 'ф', 'Ф': 'В', 'В': 'Ф',
}

// latinToCyrillic lists the phonetic back-mappings applied by
// LatinToCyrillicGuess. Digraphs must come first so "sht" does not decay
// into "сht" via the single-letter rules.
var latinToCyrillic = []struct {
	latin string
	cyr   string
}{
	{"sht", "щ"},
	{"zh", "ж"},
	{"ch", "ч"},
	{"sh", "ш"},
	{"ts", "ц"},
	{"yu", "ю"},
	{"ya", "я"},
	{"a", "а"},
	{"b", "б"},
	{"v", "в"},
	{"g", "г"},
	{"d", "д"},
	{"e", "е"},
	{"z", "з"},
	{"i", "и"},
	{"y", "й"},
	{"k", "к"},
	{"l", "л"},
	{"m", "м"},
	{"n", "н"},
	{"o", "о"},
	{"p", "п"},
	{"r", "р"},
	{"s", "с"},
	{"t", "т"},
	{"u", "у"},
	{"f", "ф"},
	{"h", "х"},
}

func isCyrillic(r rune) bool {
	return r >= 0x0400 && r <= 0x04FF
}

// ContainsCyrillic reports whether the value has at least one Cyrillic rune.
func ContainsCyrillic(value string) bool {
	for _, r := range value {
		if isCyrillic(r) {
			return true
		}
	}
	return false
}

func isLetter(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || isCyrillic(r)
}

func letterCount(value string) int {
	n := 0
	for _, r := range value {
		if isLetter(r) {
			n++
		}
	}
	return n
}

func digitCount(value string) int {
	n := 0
	for _, r := range value {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

func allDigits(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Transliterate converts Bulgarian Cyrillic text to its fixed Latin scheme.
// Non-Cyrillic runes pass through unchanged. Returns the empty string for
// empty or whitespace-only input.
func Transliterate(value string) string {
	if value == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if mapped, ok := translitMap[r]; ok {
			b.WriteString(mapped)
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// LooksLikeCode is the heuristic that keeps part numbers and SKUs away
// from text-oriented rewrites: all-digits, separator characters, three or
// more digits, or shouty tokens with at least one digit all count as codes.
func LooksLikeCode(value string) bool {
	if value == "" {
		return false
	}
	if allDigits(value) {
		return true
	}
	if strings.ContainsAny(value, "-_/.") {
		return true
	}
	digits := digitCount(value)
	if digits >= 3 {
		return true
	}
	if digits >= 1 && value == strings.ToUpper(value) && !strings.Contains(value, " ") {
		return true
	}
	return false
}

var whitespaceRun = regexp.MustCompile(`[\s\x{00A0}]+`)
var separatorRun = regexp.MustCompile(`[-_/.]+`)

// NormalizeQuery collapses whitespace and, unless the value looks like a
// code, replaces part-number separators with spaces. Code-shaped values
// keep their separators so exact matching still works.
func NormalizeQuery(value string) string {
	if value == "" {
		return ""
	}
	normalized := strings.TrimSpace(whitespaceRun.ReplaceAllString(value, " "))
	if normalized == "" || LooksLikeCode(normalized) {
		return normalized
	}
	normalized = separatorRun.ReplaceAllString(normalized, " ")
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(normalized, " "))
}

// SwapConfusableLetters swaps f and v in both alphabets. Returns the empty
// string when nothing changed, signalling that there is no variant to add.
func SwapConfusableLetters(value string) string {
	swapped := strings.Map(func(r rune) rune {
		if s, ok := fvSwapTable[r]; ok {
			return s
		}
		return r
	}, value)
	if swapped == value {
		return ""
	}
	return swapped
}

// leetTriggers are the characters whose presence makes a value worth
// de-leeting at all.
const leetTriggers = "463qwQW"

// NormalizeLeet lowercases the value and rewrites the common leet
// substitutions seen in Latin-typed Bulgarian (4=ч, 6=ш, 3=з, q=я, w=в).
// Returns the empty string when the input has no trigger characters or the
// rewrite is a no-op.
func NormalizeLeet(value string) string {
	if value == "" || !strings.ContainsAny(value, leetTriggers) {
		return ""
	}
	normalized := strings.ToLower(value)
	normalized = strings.ReplaceAll(normalized, "4", "ch")
	normalized = strings.ReplaceAll(normalized, "6", "sh")
	normalized = strings.ReplaceAll(normalized, "3", "z")
	normalized = strings.ReplaceAll(normalized, "q", "ya")
	normalized = strings.ReplaceAll(normalized, "w", "v")
	if normalized == value {
		return ""
	}
	return normalized
}

// replaceLeetDigits rewrites standalone 6 and 4 (not adjacent to other
// digits) into sh/ch. Used on transliterated text where a stray leet digit
// survived. Empty result means no change.
func replaceLeetDigits(value string) string {
	if !strings.ContainsAny(value, "46") {
		return ""
	}
	runes := []rune(value)
	var b strings.Builder
	for i, r := range runes {
		if r == '6' || r == '4' {
			prevDigit := i > 0 && unicode.IsDigit(runes[i-1])
			nextDigit := i+1 < len(runes) && unicode.IsDigit(runes[i+1])
			if !prevDigit && !nextDigit {
				if r == '6' {
					b.WriteString("sh")
				} else {
					b.WriteString("ch")
				}
				continue
			}
		}
		b.WriteRune(r)
	}
	replaced := b.String()
	if replaced == value {
		return ""
	}
	return replaced
}

// LatinToCyrillicGuess maps Latin text back to Cyrillic phonetically,
// digraphs first. It is a best-effort guess: input already containing
// Cyrillic, or input where no rune changed, yields the empty string.
func LatinToCyrillicGuess(value string) string {
	if value == "" {
		return ""
	}
	text := strings.ToLower(value)
	if ContainsCyrillic(text) {
		return ""
	}
	for _, pair := range latinToCyrillic {
		text = strings.ReplaceAll(text, pair.latin, pair.cyr)
	}
	if text == value {
		return ""
	}
	return text
}
