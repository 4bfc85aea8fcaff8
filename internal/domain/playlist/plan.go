// Package playlist provides the playlist-plan domain entity.
package playlist

import "time"

// Entry is a single slot in a planned playlist.
type Entry struct {
	TrackID   string
	TrackName string
	TargetBPM float64
	Phase     string // energy-arc phase the slot belongs to
}

// Plan is an ordered track sequence built for an activity.
// The entry order follows the activity's energy arc phase by phase.
type Plan struct {
	ID            string // plan UUID
	Activity      string
	Name          string // generated playlist name
	Entries       []Entry
	TotalDuration time.Duration // estimate from track durations
}

// TrackIDs returns all track IDs in plan order.
func (p *Plan) TrackIDs() []string {
	ids := make([]string, len(p.Entries))
	for i, e := range p.Entries {
		ids[i] = e.TrackID
	}
	return ids
}

// PhaseCounts returns the number of slots allocated to each phase.
func (p *Plan) PhaseCounts() map[string]int {
	counts := make(map[string]int)
	for _, e := range p.Entries {
		counts[e.Phase]++
	}
	return counts
}

// Len returns the number of planned slots.
func (p *Plan) Len() int {
	return len(p.Entries)
}
