package processing_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/intel-radar/backend/internal/processing"
)

func TestSimilarityRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{name: "both empty", a: "", b: "", want: 1},
		{name: "one empty", a: "abc", b: "", want: 0},
		{name: "identical", a: "market share", b: "market share", want: 1},
		{name: "shifted", a: "a b c d", b: "b c d e", want: 10.0 / 14.0},
		{name: "insertion", a: "a b x c d", b: "a b c d", want: 14.0 / 16.0},
		{name: "whitespace counts", a: "record  deliveries\n", b: "record deliveries", want: 34.0 / 36.0},
		{name: "disjoint", a: "aaaa", b: "bbbb", want: 0},
		{name: "runes not bytes", a: "café crème", b: "cafe creme", want: 16.0 / 20.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.InDelta(t, tt.want, processing.SimilarityRatio(tt.a, tt.b), 1e-9)
		})
	}
}

func TestSimilarityRatioIsSymmetricForSmallInputs(t *testing.T) {
	a := "Rivian unveils R2 crossover"
	b := "Rivian unveiled the R2 crossover"
	require.InDelta(t, 52.0/59.0, processing.SimilarityRatio(a, b), 1e-9)
	require.InDelta(t, processing.SimilarityRatio(a, b), processing.SimilarityRatio(b, a), 1e-9)
}

func TestSimilarityEditedSyndicatedCopy(t *testing.T) {
	a := "Rivian Automotive said on Tuesday it would cut about 1% of its workforce as the electric vehicle maker " +
		"looks to lower costs amid slowing demand. The layoffs affect salaried roles and come after the company " +
		"reported a wider quarterly loss than analysts had expected. Shares of the company fell 3% in premarket trading."
	b := strings.NewReplacer("on Tuesday", "Tuesday", "1%", "one percent", "fell 3%", "dropped 3%").Replace(a)

	require.InDelta(t, 616.0/643.0, processing.SimilarityRatio(a, b), 1e-9)
	require.True(t, processing.SimilarityExceeds(a, b, 0.9))
	require.False(t, processing.SimilarityExceeds(a, b, 0.96))
}

func TestSimilarityRatioLongTextsDropPopularCharacters(t *testing.T) {
	words := make([]string, 300)
	for i := range words {
		words[i] = fmt.Sprintf("token%d", i)
	}
	base := strings.Join(words, " ")
	words[100], words[200] = "changed", "edited"
	edited := strings.Join(words, " ")

	require.InDelta(t, 1, processing.SimilarityRatio(base, base), 1e-9)
	require.InDelta(t, 1580.0/5175.0, processing.SimilarityRatio(base, edited), 1e-9)
	require.False(t, processing.SimilarityExceeds(base, edited, 0.9))
}
