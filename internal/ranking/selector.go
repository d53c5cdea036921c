package ranking

import (
	"cmp"
	"slices"

	"github.com/clipcraft/clipcraft-agent/internal/catalog"
)

const (
	// ShortFormMaxDuration is the longest clip, in seconds, that fits a
	// short-form feed.
	ShortFormMaxDuration = 60.0

	// RecommendationLimit caps each recommendation view.
	RecommendationLimit = 2
)

// ScoredClip pairs a clip with its viral potential at ranking time.
type ScoredClip struct {
	Clip    catalog.Clip `json:"clip"`
	Score   float64      `json:"viral_potential"`
	Notable bool         `json:"notable"`
}

// Recommendations holds the two named views over one clip set.
type Recommendations struct {
	ShortForm         []ScoredClip `json:"short_form"`
	HighestEngagement []ScoredClip `json:"highest_engagement"`
}

// Score pairs every clip with its score, keeping input order.
func Score(clips []catalog.Clip) []ScoredClip {
	out := make([]ScoredClip, len(clips))
	for i, c := range clips {
		s := ViralPotential(c)
		out[i] = ScoredClip{Clip: c, Score: s, Notable: IsNotable(s)}
	}
	return out
}

// Rank returns every clip ordered by descending score. Equal scores keep
// their input order. The input slice is not modified.
func Rank(clips []catalog.Clip) []ScoredClip {
	scored := Score(clips)
	slices.SortStableFunc(scored, func(a, b ScoredClip) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return scored
}

// ShortForm returns the top clips no longer than ShortFormMaxDuration.
func ShortForm(clips []catalog.Clip) []ScoredClip {
	eligible := make([]catalog.Clip, 0, len(clips))
	for _, c := range clips {
		if c.Duration <= ShortFormMaxDuration {
			eligible = append(eligible, c)
		}
	}
	return top(Rank(eligible), RecommendationLimit)
}

// HighestEngagement returns the top clips over the whole set.
func HighestEngagement(clips []catalog.Clip) []ScoredClip {
	return top(Rank(clips), RecommendationLimit)
}

// Recommend builds both views.
func Recommend(clips []catalog.Clip) Recommendations {
	return Recommendations{
		ShortForm:         ShortForm(clips),
		HighestEngagement: HighestEngagement(clips),
	}
}

func top(scored []ScoredClip, n int) []ScoredClip {
	if len(scored) > n {
		scored = scored[:n]
	}
	return scored
}
