// Package discovery provides discovery-candidate domain entities.
package discovery

// Category classifies how a candidate was surfaced.
type Category string

const (
	CategoryUnderrated          Category = "underrated"
	CategoryRareCollaboration   Category = "rare_collaboration"
	CategoryRemix               Category = "remix"
	CategoryHistoricalInfluence Category = "historical_influence"
	CategoryEmergingTrend       Category = "emerging_trend"
)

// Categories lists all supported categories in presentation order.
func Categories() []Category {
	return []Category{
		CategoryUnderrated,
		CategoryRareCollaboration,
		CategoryRemix,
		CategoryHistoricalInfluence,
		CategoryEmergingTrend,
	}
}

// Valid reports whether c is one of the supported categories.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// Ref is a raw catalog reference with pre-normalized signals.
// Affinity and Popularity are supplied by the catalog adapter already
// scaled to [0,1]; normalization of raw provider counts is the adapter's
// responsibility, not the engine's.
type Ref struct {
	ID         string
	Name       string
	Affinity   float64 // similarity signal, [0,1]
	Popularity float64 // listener-count signal, [0,1]
}

// Candidate is a scored discovery suggestion.
// Within a category, candidates are ordered by Similarity descending,
// then Popularity ascending to favor under-the-radar items.
type Candidate struct {
	ID         string
	Name       string
	Category   Category
	Similarity float64 // [0,1]
	Popularity float64 // [0,1], relative to the seed's own popularity
	Rationale  string
}
