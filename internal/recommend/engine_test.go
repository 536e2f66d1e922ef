package recommend

import (
	"context"
	"testing"

	"papalote-market/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRecent struct {
	ids []string
}

func (s *stubRecent) IDsExcluding(_ context.Context, excludeID string) ([]string, error) {
	out := make([]string, 0, len(s.ids))
	for _, id := range s.ids {
		if id != excludeID {
			out = append(out, id)
		}
	}
	return out, nil
}

func newTestEngine(recentIDs ...string) *Engine {
	return NewEngine(&stubRecent{ids: recentIDs})
}

func reference() models.Product {
	return models.Product{
		ID:        "ref",
		Name:      "Alebrije de referencia",
		Price:     1000,
		Category:  "Arte popular",
		Maker:     "Pedro",
		State:     "Oaxaca",
		Materials: []string{"copal", "pintura"},
		InStock:   true,
	}
}

func TestSimilarityScoreWeights(t *testing.T) {
	ref := reference()

	tests := []struct {
		name      string
		candidate models.Product
		want      float64
	}{
		{
			name:      "no overlap at all",
			candidate: models.Product{ID: "c", Category: "Textiles", Price: 9000, InStock: true},
			want:      0,
		},
		{
			name:      "same category only",
			candidate: models.Product{ID: "c", Category: "Arte popular", Price: 9000, InStock: true},
			want:      10,
		},
		{
			name:      "same maker only",
			candidate: models.Product{ID: "c", Category: "Textiles", Maker: "Pedro", Price: 9000, InStock: true},
			want:      8,
		},
		{
			name:      "same state only",
			candidate: models.Product{ID: "c", Category: "Textiles", State: "Oaxaca", Price: 9000, InStock: true},
			want:      5,
		},
		{
			name:      "two shared materials",
			candidate: models.Product{ID: "c", Category: "Textiles", Materials: []string{"copal", "pintura", "lana"}, Price: 9000, InStock: true},
			want:      8,
		},
		{
			name:      "price within thirty percent",
			candidate: models.Product{ID: "c", Category: "Textiles", Price: 1300, InStock: true},
			want:      3,
		},
		{
			name:      "price just outside band",
			candidate: models.Product{ID: "c", Category: "Textiles", Price: 1301, InStock: true},
			want:      0,
		},
		{
			name:      "featured and verified",
			candidate: models.Product{ID: "c", Category: "Textiles", Price: 9000, Featured: true, Verified: true, InStock: true},
			want:      3,
		},
		{
			name: "everything matches",
			candidate: models.Product{
				ID: "c", Category: "Arte popular", Maker: "Pedro", State: "Oaxaca",
				Materials: []string{"copal", "pintura"}, Price: 1000,
				Featured: true, Verified: true, InStock: true,
			},
			want: 10 + 8 + 5 + 4*2 + 3 + 2 + 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, similarityScore(tt.candidate, ref))
		})
	}
}

func TestSimilarityScoreAbsentMakerNeverMatches(t *testing.T) {
	ref := reference()
	ref.Maker = ""
	ref.State = ""

	candidate := models.Product{ID: "c", Category: "Textiles", Price: 9000, InStock: true}
	assert.Equal(t, 0.0, similarityScore(candidate, ref),
		"two empty makers are not the same maker")
}

func TestSimilarExcludesReferenceAndOutOfStock(t *testing.T) {
	ref := reference()
	catalog := []models.Product{
		ref,
		{ID: "sold-out", Category: "Arte popular", Maker: "Pedro", State: "Oaxaca", Price: 1000, InStock: false},
		{ID: "other", Category: "Textiles", Price: 5000, InStock: true},
	}

	got := newTestEngine().Similar(ref, catalog, 4)
	require.Len(t, got, 1)
	assert.Equal(t, "other", got[0].ID,
		"out-of-stock excluded even when it would score highest")
}

func TestSimilarSortsByScoreThenRating(t *testing.T) {
	ref := reference()
	catalog := []models.Product{
		{ID: "low", Category: "Textiles", Price: 9000, InStock: true, Rating: 5},
		{ID: "mid-low-rating", Category: "Arte popular", Price: 9000, InStock: true, Rating: 3.5},
		{ID: "mid-high-rating", Category: "Arte popular", Price: 9000, InStock: true, Rating: 4.5},
		{ID: "top", Category: "Arte popular", Maker: "Pedro", Price: 9000, InStock: true},
	}

	got := newTestEngine().Similar(ref, catalog, 4)
	require.Len(t, got, 4)
	assert.Equal(t, "top", got[0].ID)
	assert.Equal(t, "mid-high-rating", got[1].ID)
	assert.Equal(t, "mid-low-rating", got[2].ID)
	assert.Equal(t, "low", got[3].ID)
}

func TestSimilarRespectsLimitAndDefaults(t *testing.T) {
	ref := reference()
	catalog := make([]models.Product, 0, 8)
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		catalog = append(catalog, models.Product{ID: id, Category: "Arte popular", Price: 1000, InStock: true})
	}

	engine := newTestEngine()
	assert.Len(t, engine.Similar(ref, catalog, 2), 2)
	assert.Len(t, engine.Similar(ref, catalog, 0), DefaultLimit)
	assert.Len(t, engine.Similar(ref, catalog, 100), 8)
}

func TestSimilarEmptyCatalog(t *testing.T) {
	got := newTestEngine().Similar(reference(), nil, 4)
	assert.Empty(t, got)
}

func TestSimilarDoesNotMutateCatalog(t *testing.T) {
	ref := reference()
	catalog := []models.Product{
		{ID: "a", Category: "Textiles", Price: 100, InStock: true, Rating: 1},
		{ID: "b", Category: "Arte popular", Price: 1000, InStock: true, Rating: 5},
	}

	newTestEngine().Similar(ref, catalog, 4)

	assert.Equal(t, "a", catalog[0].ID, "input order untouched")
	assert.Equal(t, "b", catalog[1].ID)
}

func TestCrossCategoryExcludesSameCategoryAndZeroScores(t *testing.T) {
	ref := reference()
	catalog := []models.Product{
		{ID: "same-cat", Category: "Arte popular", Maker: "Pedro", Price: 1000, InStock: true},
		{ID: "no-signal", Category: "Textiles", Price: 9000, InStock: true},
		{ID: "same-maker", Category: "Textiles", Maker: "Pedro", Price: 9000, InStock: true},
		{ID: "same-state", Category: "Cerámica", State: "Oaxaca", Price: 9000, InStock: true},
	}

	got := newTestEngine().CrossCategory(ref, catalog, 4)
	require.Len(t, got, 2)
	assert.Equal(t, "same-maker", got[0].ID, "maker carries weight 10 cross-category")
	assert.Equal(t, "same-state", got[1].ID)
}

func TestCrossCategoryScoreWeights(t *testing.T) {
	ref := reference()
	candidate := models.Product{
		ID: "c", Category: "Textiles", Maker: "Pedro", State: "Oaxaca",
		Materials: []string{"copal"}, Price: 1000, Featured: true, Verified: true,
		InStock: true,
	}

	assert.Equal(t, 10.0+5+3+2+2+1, crossCategoryScore(candidate, ref))
}

func TestRecentlyViewedFollowsHistoryOrder(t *testing.T) {
	catalog := []models.Product{
		{ID: "p1", InStock: true},
		{ID: "p2", InStock: true},
		{ID: "p3", InStock: false},
		{ID: "p4", InStock: true},
	}

	engine := newTestEngine("p3", "p4", "unknown", "p1", "p2")
	got := engine.RecentlyViewed(context.Background(), "current", catalog, 4)

	require.Len(t, got, 3)
	assert.Equal(t, "p4", got[0].ID, "out-of-stock p3 skipped")
	assert.Equal(t, "p1", got[1].ID, "unknown id skipped")
	assert.Equal(t, "p2", got[2].ID)
}

func TestRecentlyViewedExcludesCurrentProduct(t *testing.T) {
	catalog := []models.Product{
		{ID: "p1", InStock: true},
		{ID: "p2", InStock: true},
	}

	engine := newTestEngine("p1", "p2")
	got := engine.RecentlyViewed(context.Background(), "p1", catalog, 4)

	require.Len(t, got, 1)
	assert.Equal(t, "p2", got[0].ID)
}

func TestRecentlyViewedTruncatesToLimit(t *testing.T) {
	catalog := []models.Product{
		{ID: "p1", InStock: true},
		{ID: "p2", InStock: true},
		{ID: "p3", InStock: true},
	}

	engine := newTestEngine("p1", "p2", "p3")
	got := engine.RecentlyViewed(context.Background(), "current", catalog, 2)
	assert.Len(t, got, 2)
}

func TestCombinedIndependentLimitsAndNoDedup(t *testing.T) {
	ref := reference()
	// crossover scores in both similar (state) and cross-category (maker+state)
	// lists, and also sits in the view history.
	crossover := models.Product{
		ID: "crossover", Category: "Cerámica", Maker: "Pedro", State: "Oaxaca",
		Price: 1000, InStock: true,
	}
	catalog := []models.Product{
		ref,
		crossover,
		{ID: "same-cat", Category: "Arte popular", Price: 9000, InStock: true},
	}

	engine := newTestEngine("crossover")
	got := engine.Combined(context.Background(), ref, catalog, Options{
		SimilarLimit:        1,
		CrossCategoryLimit:  2,
		RecentlyViewedLimit: 3,
	})

	require.Len(t, got.Similar, 1)
	require.Len(t, got.CrossCategory, 1)
	require.Len(t, got.RecentlyViewed, 1)

	assert.Equal(t, "crossover", got.Similar[0].ID)
	assert.Equal(t, "crossover", got.CrossCategory[0].ID)
	assert.Equal(t, "crossover", got.RecentlyViewed[0].ID)
}

func TestCombinedDefaultsAllLimits(t *testing.T) {
	ref := reference()
	catalog := make([]models.Product, 0, 10)
	catalog = append(catalog, ref)
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		catalog = append(catalog, models.Product{ID: id, Category: "Arte popular", Price: 1000, InStock: true})
	}

	got := newTestEngine().Combined(context.Background(), ref, catalog, Options{})
	assert.Len(t, got.Similar, DefaultLimit)
}

func TestSharedMaterialsEmptySets(t *testing.T) {
	a := models.Product{Materials: []string{"copal"}}
	b := models.Product{}
	assert.Equal(t, 0, sharedMaterials(a, b))
	assert.Equal(t, 0, sharedMaterials(b, a))
	assert.Equal(t, 0, sharedMaterials(b, b))
}

func TestSimilarPriceZeroReference(t *testing.T) {
	assert.True(t, similarPrice(0, 0))
	assert.False(t, similarPrice(10, 0))
}
