package analytics

import (
	"fmt"
	"strings"

	"github.com/ottara/tunebox/internal/domain/profile"
)

const (
	lowDiversityThreshold = 40
	highSkipThreshold     = 0.5
	maxRecommendations    = 5
)

// recommendations derives suggestion strings from fixed heuristic rules.
// Rules trigger independently and compose; the list is capped at five.
func recommendations(p *profile.Listener, tables Tables) []string {
	var out []string

	if p.TotalTracksPlayed > 0 && p.GenreDiversityScore < lowDiversityThreshold {
		out = append(out, fmt.Sprintf(
			"Your genre diversity is low (%d/100): try exploring 3 new genres this month",
			p.GenreDiversityScore))
	}
	if p.TotalTracksPlayed > 0 && p.ArtistDiversityScore < lowDiversityThreshold {
		out = append(out, fmt.Sprintf(
			"You lean heavily on a few artists (%d/100): mix in some fresh names",
			p.ArtistDiversityScore))
	}
	if p.SkipRate > highSkipThreshold {
		out = append(out, fmt.Sprintf(
			"You skip %.0f%% of plays: a tighter rotation around your favorites could help",
			p.SkipRate*100))
	}
	if len(p.FavoriteArtists) > 0 {
		name := p.FavoriteArtists[0].Name
		out = append(out,
			fmt.Sprintf("Artists similar to %s", name),
			fmt.Sprintf("Collaborations with %s", name))
	}
	if len(p.FavoriteGenres) > 0 {
		out = append(out, fmt.Sprintf("Underrated artists in %s", p.FavoriteGenres[0]))
	}
	if insight := moodInsight(tables); insight != "" {
		out = append(out, insight)
	}

	if len(out) > maxRecommendations {
		out = out[:maxRecommendations]
	}
	return out
}

// moodInsight summarizes mood variability over the window.
func moodInsight(tables Tables) string {
	diversity := tables.Mood.Len()
	if diversity == 0 {
		return ""
	}

	top, _ := tables.Mood.Max()
	switch {
	case diversity > 5:
		return fmt.Sprintf(
			"Your mood is all over the place: %d different moods, lately mostly %s", diversity, top)
	case diversity <= 2:
		return fmt.Sprintf("Your mood has been consistently %s", top)
	default:
		names := make([]string, 0, 2)
		for _, r := range tables.Mood.Top(2) {
			names = append(names, r.Key)
		}
		return fmt.Sprintf("You mostly alternate between %s", strings.Join(names, " and "))
	}
}
