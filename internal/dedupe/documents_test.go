package dedupe_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/intel-radar/backend/internal/dedupe"
	"github.com/DeafMist/intel-radar/backend/internal/models"
)

func doc(url, text string) models.Document {
	return models.Document{URL: url, Topic: models.DefaultTopic, Text: text}
}

func urls(docs []models.Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.URL)
	}
	return out
}

func TestFilterFirstURLWins(t *testing.T) {
	docs := []models.Document{
		doc("https://a.example/1", "Rivian opens a new plant in Georgia"),
		doc("https://b.example/2", "Lucid cuts prices on the Air sedan"),
		doc("https://a.example/1", "completely different text for the same address"),
	}

	got := dedupe.Deduplicator{}.Filter(docs)
	require.Equal(t, []string{"https://a.example/1", "https://b.example/2"}, urls(got))
	require.Equal(t, "Rivian opens a new plant in Georgia", got[0].Text)
}

func TestFilterDropsNearCopies(t *testing.T) {
	base := strings.Repeat("Tesla reported record deliveries in the third quarter ", 5)
	docs := []models.Document{
		doc("https://a.example/tesla", base),
		doc("https://mirror.example/tesla", base+"today"),
		doc("https://c.example/byd", "BYD expands into European markets with three new models"),
	}

	got := dedupe.Deduplicator{}.Filter(docs)
	require.Equal(t, []string{"https://a.example/tesla", "https://c.example/byd"}, urls(got))
}

func TestFilterDropsLightlyEditedCopy(t *testing.T) {
	docs := []models.Document{
		doc("https://wire.example/tesla", "Tesla delivered 462,890 vehicles in the third quarter, up 6.4% from a year earlier, the electric carmaker said on Monday."),
		doc("https://daily.example/tesla", "Tesla delivered 462,890 vehicles in the 3rd quarter, up 6.4 percent from a year earlier, the electric carmaker said Monday."),
	}

	got := dedupe.Deduplicator{}.Filter(docs)
	require.Equal(t, []string{"https://wire.example/tesla"}, urls(got))
}

func TestFilterKeepsSimilarButDistinct(t *testing.T) {
	docs := []models.Document{
		doc("https://a.example/1", "Ford raises EV prices across the lineup"),
		doc("https://b.example/2", "Ford cuts EV prices across the lineup"),
	}

	got := dedupe.Deduplicator{Threshold: 0.95}.Filter(docs)
	require.Len(t, got, 2)
}

func TestFilterSkipsEmpty(t *testing.T) {
	docs := []models.Document{
		doc("", "text without an address"),
		doc("https://a.example/empty", "   "),
		doc("https://a.example/ok", "usable text"),
	}

	got := dedupe.Deduplicator{}.Filter(docs)
	require.Equal(t, []string{"https://a.example/ok"}, urls(got))
}

func TestFilterLimit(t *testing.T) {
	docs := make([]models.Document, 0, 15)
	for i := 0; i < 15; i++ {
		docs = append(docs, doc(fmt.Sprintf("https://n.example/%d", i), strings.Repeat(string(rune('a'+i)), 40)))
	}

	got := dedupe.Deduplicator{}.Filter(docs)
	require.Len(t, got, dedupe.DefaultLimit)
	require.Equal(t, "https://n.example/9", got[len(got)-1].URL)

	got = dedupe.Deduplicator{Limit: 3}.Filter(docs)
	require.Len(t, got, 3)
}

func TestFilterEmptyInput(t *testing.T) {
	require.Empty(t, dedupe.Deduplicator{}.Filter(nil))
}
