package textnorm

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandQueryVariants_FirstIsVerbatim(t *testing.T) {
	inputs := []string{
		"гипсокартон", "  перфоратор  ", "4ugun", "GKB-12.5",
		"32300040065", "Термолаб", "vint m8a",
	}
	for _, input := range inputs {
		variants := ExpandQueryVariants(input, DefaultVariantLimit)
		require.NotEmpty(t, variants, "input %q", input)
		assert.Equal(t, strings.TrimSpace(input), variants[0], "input %q", input)
	}
}

func TestExpandQueryVariants_Cap(t *testing.T) {
	for n := 1; n <= 8; n++ {
		for _, input := range []string{"4ugun", "гипсокартон", "chasovnik ts"} {
			variants := ExpandQueryVariants(input, n)
			assert.LessOrEqual(t, len(variants), n,
				fmt.Sprintf("input %q limit %d", input, n))
		}
	}
}

func TestExpandQueryVariants_Deduplicated(t *testing.T) {
	variants := ExpandQueryVariants("4ugun", DefaultVariantLimit)
	seen := make(map[string]struct{}, len(variants))
	for _, v := range variants {
		_, dup := seen[v]
		assert.False(t, dup, "duplicate variant %q", v)
		seen[v] = struct{}{}
	}
}

func TestExpandQueryVariants_LeetQuery(t *testing.T) {
	variants := ExpandQueryVariants("4ugun", DefaultVariantLimit)
	require.Equal(t, []string{
		"4ugun",  // verbatim
		"chugun", // de-leeted
		"чугун",  // Cyrillic guess of the de-leeted form
		"4угун",  // Cyrillic guess of the raw form
		"cugun",  // digraph substitution
		"tsugun", // digraph substitution
	}, variants)
}

func TestExpandQueryVariants_CyrillicQuery(t *testing.T) {
	variants := ExpandQueryVariants("Термолаб", DefaultVariantLimit)
	assert.Equal(t, []string{"Термолаб", "Termolab"}, variants)
}

func TestExpandQueryVariants_LatinQueryGetsCyrillicGuess(t *testing.T) {
	variants := ExpandQueryVariants("gipsokarton", DefaultVariantLimit)
	assert.Equal(t, []string{"gipsokarton", "гипсокартон"}, variants)
}

func TestExpandQueryVariants_DigitsOnlyShortCircuit(t *testing.T) {
	assert.Equal(t, []string{"32300040065"}, ExpandQueryVariants("32300040065", DefaultVariantLimit))
	assert.Equal(t, []string{"323-000/40"}, ExpandQueryVariants("323-000/40", DefaultVariantLimit))
}

func TestExpandQueryVariants_Empty(t *testing.T) {
	assert.Empty(t, ExpandQueryVariants("", DefaultVariantLimit))
	assert.Empty(t, ExpandQueryVariants("   ", DefaultVariantLimit))
	assert.Empty(t, ExpandQueryVariants("чук", 0))
}

func TestExpandQueryVariants_MidLengthCyrillicKeepsTypoVariants(t *testing.T) {
	// 22 letters but over 40 bytes in UTF-8; the expandability gate counts
	// runes, so the f/v swap must still fire.
	variants := ExpandQueryVariants("минерална вата каменна", DefaultVariantLimit)
	assert.Equal(t, []string{
		"минерална вата каменна",
		"mineralna vata kamenna",
		"минерална фата каменна",
	}, variants)
}

func TestExpandQueryVariants_LongQueryNotExpanded(t *testing.T) {
	long := "mnogo dalga zaqvka koyato nadvishava chetirideset simvola obshto"
	variants := ExpandQueryVariants(long, DefaultVariantLimit)
	// Too long for digraph/typo expansion; only the cheap rewrites apply.
	require.NotEmpty(t, variants)
	assert.Equal(t, long, variants[0])
	assert.LessOrEqual(t, len(variants), DefaultVariantLimit)
}
