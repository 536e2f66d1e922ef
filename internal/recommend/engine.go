package recommend

import (
	"context"
	"math"
	"sort"
	"time"

	"papalote-market/internal/models"
	"papalote-market/internal/util"

	"go.uber.org/zap"
)

// DefaultLimit is used whenever a caller passes a non-positive limit.
const DefaultLimit = 4

// Similarity weights for same-category recommendations.
const (
	weightSameCategory   = 10.0
	weightSameMaker      = 8.0
	weightSameState      = 5.0
	weightSharedMaterial = 4.0
	weightSimilarPrice   = 3.0
	weightFeatured       = 2.0
	weightVerified       = 1.0
)

// Cross-category weights drop the category term and lean on the maker.
const (
	crossWeightSameMaker      = 10.0
	crossWeightSameState      = 5.0
	crossWeightSharedMaterial = 3.0
	crossWeightSimilarPrice   = 2.0
	crossWeightFeatured       = 2.0
	crossWeightVerified       = 1.0
)

// priceBand is the relative distance within which two prices count as similar.
const priceBand = 0.30

// RecentSource supplies the ordered recently-viewed product ids,
// most recent first. Implemented by recent.Tracker.
type RecentSource interface {
	IDsExcluding(ctx context.Context, excludeID string) ([]string, error)
}

// Options carries the per-strategy limits for Combined.
type Options struct {
	SimilarLimit        int
	CrossCategoryLimit  int
	RecentlyViewedLimit int
}

// Set holds the three recommendation lists. A product may appear in more
// than one list; each list is a distinct rationale shown in its own
// storefront section, so no cross-list deduplication happens.
type Set struct {
	Similar        []models.Product `json:"similar"`
	CrossCategory  []models.Product `json:"cross_category"`
	RecentlyViewed []models.Product `json:"recently_viewed"`
}

// Engine computes recommendation lists over a catalog snapshot. Scoring is
// pure; the only external read is the recently-viewed id list.
type Engine struct {
	recent RecentSource
	logger *zap.Logger
}

// NewEngine creates a recommendation engine
func NewEngine(recent RecentSource) *Engine {
	return &Engine{
		recent: recent,
		logger: util.GetLogger(),
	}
}

// Similar returns up to limit in-stock products ranked by similarity to ref.
// The reference product itself and out-of-stock candidates are never included.
func (e *Engine) Similar(ref models.Product, catalog []models.Product, limit int) []models.Product {
	util.RecommendationRequestsTotal.WithLabelValues("similar").Inc()
	return rank(ref, catalog, limit, similarityScore, false)
}

// CrossCategory returns up to limit in-stock products from other categories.
// Candidates with no positive signal at all are excluded.
func (e *Engine) CrossCategory(ref models.Product, catalog []models.Product, limit int) []models.Product {
	util.RecommendationRequestsTotal.WithLabelValues("cross_category").Inc()
	return rank(ref, catalog, limit, crossCategoryScore, true)
}

// RecentlyViewed maps the persisted view history onto the catalog, most
// recently viewed first, skipping the current product, unknown ids and
// out-of-stock products.
func (e *Engine) RecentlyViewed(ctx context.Context, currentProductID string, catalog []models.Product, limit int) []models.Product {
	util.RecommendationRequestsTotal.WithLabelValues("recently_viewed").Inc()
	if limit <= 0 {
		limit = DefaultLimit
	}

	ids, err := e.recent.IDsExcluding(ctx, currentProductID)
	if err != nil {
		e.logger.Error("Failed to read recently viewed ids", zap.Error(err))
		return []models.Product{}
	}

	byID := make(map[string]models.Product, len(catalog))
	for _, p := range catalog {
		byID[p.ID] = p
	}

	out := make([]models.Product, 0, limit)
	for _, id := range ids {
		p, ok := byID[id]
		if !ok || !p.InStock {
			continue
		}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out
}

// Combined computes all three lists with independent limits.
func (e *Engine) Combined(ctx context.Context, ref models.Product, catalog []models.Product, opts Options) Set {
	ctx, span := util.StartSpan(ctx, "Engine.Combined")
	defer span.End()

	start := time.Now()
	defer func() {
		util.RecommendationLatency.Observe(time.Since(start).Seconds())
	}()

	return Set{
		Similar:        e.Similar(ref, catalog, opts.SimilarLimit),
		CrossCategory:  e.CrossCategory(ref, catalog, opts.CrossCategoryLimit),
		RecentlyViewed: e.RecentlyViewed(ctx, ref.ID, catalog, opts.RecentlyViewedLimit),
	}
}

type scoreFunc func(candidate, ref models.Product) float64

type scored struct {
	product models.Product
	score   float64
}

// rank filters, scores and sorts candidates. With requirePositive set,
// zero-scoring candidates are dropped (used by cross-category, where a score
// of zero means no affinity signal whatsoever).
func rank(ref models.Product, catalog []models.Product, limit int, score scoreFunc, requirePositive bool) []models.Product {
	if limit <= 0 {
		limit = DefaultLimit
	}

	candidates := make([]scored, 0, len(catalog))
	for _, p := range catalog {
		if p.ID == ref.ID || !p.InStock {
			continue
		}
		s := score(p, ref)
		if requirePositive && s == 0 {
			continue
		}
		candidates = append(candidates, scored{product: p, score: s})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].product.Rating > candidates[j].product.Rating
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out := make([]models.Product, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.product)
	}
	return out
}

// similarityScore is the additive same-category affinity score. Absent
// optional fields contribute zero, never an error.
func similarityScore(candidate, ref models.Product) float64 {
	var score float64

	if candidate.Category == ref.Category {
		score += weightSameCategory
	}
	if ref.Maker != "" && candidate.Maker == ref.Maker {
		score += weightSameMaker
	}
	if ref.State != "" && candidate.State == ref.State {
		score += weightSameState
	}
	score += weightSharedMaterial * float64(sharedMaterials(candidate, ref))
	if similarPrice(candidate.Price, ref.Price) {
		score += weightSimilarPrice
	}
	if candidate.Featured {
		score += weightFeatured
	}
	if candidate.Verified {
		score += weightVerified
	}
	return score
}

// crossCategoryScore scores candidates from other categories. Same-category
// candidates score zero so the positive-signal filter drops them.
func crossCategoryScore(candidate, ref models.Product) float64 {
	if candidate.Category == ref.Category {
		return 0
	}

	var score float64
	if ref.Maker != "" && candidate.Maker == ref.Maker {
		score += crossWeightSameMaker
	}
	if ref.State != "" && candidate.State == ref.State {
		score += crossWeightSameState
	}
	score += crossWeightSharedMaterial * float64(sharedMaterials(candidate, ref))
	if similarPrice(candidate.Price, ref.Price) {
		score += crossWeightSimilarPrice
	}
	if candidate.Featured {
		score += crossWeightFeatured
	}
	if candidate.Verified {
		score += crossWeightVerified
	}
	return score
}

func sharedMaterials(a, b models.Product) int {
	if len(a.Materials) == 0 || len(b.Materials) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(b.Materials))
	for _, m := range b.Materials {
		set[m] = struct{}{}
	}
	count := 0
	for _, m := range a.Materials {
		if _, ok := set[m]; ok {
			count++
		}
	}
	return count
}

func similarPrice(candidate, ref float64) bool {
	return math.Abs(candidate-ref) <= priceBand*ref
}
