// Package planner builds activity playlists along a BPM envelope and
// energy arc.
package planner

import (
	"math"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

// ErrUnknownActivity is returned when the activity tag matches no
// canonical activity profile.
var ErrUnknownActivity = errors.New("unknown activity")

// Phase is one step of an activity's energy arc.
type Phase struct {
	Name     string  // phase name, e.g. "warmup"
	Energy   float64 // target energy level, 0-1
	Fraction float64 // share of the playlist, fractions sum to 1
}

// Activity is a static policy entry describing how playlists for one
// activity are shaped. Read-only configuration, not per-user state.
type Activity struct {
	Tag    string
	BPMMin float64
	BPMMax float64
	Arc    []Phase  // ordered energy arc
	Genres []string // preferred genres
}

// TargetBPM interpolates the BPM envelope by energy level.
func (a Activity) TargetBPM(energy float64) float64 {
	return a.BPMMin + energy*(a.BPMMax-a.BPMMin)
}

// DefaultActivities returns the seven canonical activity profiles.
func DefaultActivities() map[string]Activity {
	activities := []Activity{
		{
			Tag: "workout", BPMMin: 130, BPMMax: 150,
			Genres: []string{"electronic", "hip hop", "power pop", "drum and bass"},
			Arc: []Phase{
				{Name: "warmup", Energy: 0.2, Fraction: 0.25},
				{Name: "push", Energy: 0.6, Fraction: 0.5},
				{Name: "peak", Energy: 1.0, Fraction: 0.25},
			},
		},
		{
			Tag: "work_focus", BPMMin: 70, BPMMax: 110,
			Genres: []string{"instrumental", "ambient", "jazz", "post-rock"},
			Arc: []Phase{
				{Name: "settle", Energy: 0.5, Fraction: 0.3},
				{Name: "flow", Energy: 0.35, Fraction: 0.5},
				{Name: "wind_down", Energy: 0.25, Fraction: 0.2},
			},
		},
		{
			Tag: "relax", BPMMin: 60, BPMMax: 90,
			Genres: []string{"acoustic", "chill", "bossa nova", "ambient"},
			Arc: []Phase{
				{Name: "ease", Energy: 0.5, Fraction: 0.4},
				{Name: "drift", Energy: 0.3, Fraction: 0.4},
				{Name: "still", Energy: 0.15, Fraction: 0.2},
			},
		},
		{
			Tag: "party", BPMMin: 115, BPMMax: 135,
			Genres: []string{"dance", "funk", "pop", "reggaeton"},
			Arc: []Phase{
				{Name: "ignite", Energy: 0.5, Fraction: 0.2},
				{Name: "lift", Energy: 0.8, Fraction: 0.3},
				{Name: "peak", Energy: 1.0, Fraction: 0.3},
				{Name: "afterglow", Energy: 0.6, Fraction: 0.2},
			},
		},
		{
			Tag: "driving", BPMMin: 100, BPMMax: 130,
			Genres: []string{"rock", "indie rock", "synthwave", "classic rock"},
			Arc: []Phase{
				{Name: "rollout", Energy: 0.5, Fraction: 0.3},
				{Name: "cruise", Energy: 0.7, Fraction: 0.4},
				{Name: "home_stretch", Energy: 0.9, Fraction: 0.3},
			},
		},
		{
			Tag: "study", BPMMin: 60, BPMMax: 80,
			Genres: []string{"lo-fi", "classical", "instrumental", "piano"},
			Arc: []Phase{
				{Name: "settle", Energy: 0.4, Fraction: 0.3},
				{Name: "deep", Energy: 0.25, Fraction: 0.5},
				{Name: "surface", Energy: 0.35, Fraction: 0.2},
			},
		},
		{
			Tag: "dinner_vibe", BPMMin: 85, BPMMax: 110,
			Genres: []string{"jazz", "soul", "bossa nova", "r&b"},
			Arc: []Phase{
				{Name: "aperitif", Energy: 0.4, Fraction: 0.3},
				{Name: "main", Energy: 0.6, Fraction: 0.4},
				{Name: "dessert", Energy: 0.3, Fraction: 0.3},
			},
		},
	}

	out := make(map[string]Activity, len(activities))
	for _, a := range activities {
		out[a.Tag] = a
	}
	return out
}

// phaseSettings mirrors Phase for configuration decoding.
type phaseSettings struct {
	Name     string  `mapstructure:"name" validate:"required"`
	Energy   float64 `mapstructure:"energy" validate:"gte=0,lte=1"`
	Fraction float64 `mapstructure:"fraction" validate:"gt=0,lte=1"`
}

// activitySettings is the configurable shape of one activity override.
type activitySettings struct {
	BPMMin float64         `mapstructure:"bpm_min" default:"90" validate:"gt=0"`
	BPMMax float64         `mapstructure:"bpm_max" default:"120" validate:"gt=0"`
	Genres []string        `mapstructure:"genres" validate:"required,min=1"`
	Phases []phaseSettings `mapstructure:"phases" validate:"required,min=1,dive"`
}

// ActivityFromSettings decodes an activity override from its raw config
// settings map, applying defaults and validation.
func ActivityFromSettings(tag string, settings map[string]any) (Activity, error) {
	var cfg activitySettings

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &cfg,
		TagName: "mapstructure",
	})
	if err != nil {
		return Activity{}, errors.Wrap(err, "failed to create decoder")
	}
	if err := decoder.Decode(settings); err != nil {
		return Activity{}, errors.Wrapf(err, "failed to decode settings for activity %q", tag)
	}
	if err := defaults.Set(&cfg); err != nil {
		return Activity{}, errors.Wrap(err, "failed to set defaults")
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return Activity{}, errors.Wrapf(err, "validation failed for activity %q", tag)
	}
	if cfg.BPMMin >= cfg.BPMMax {
		return Activity{}, errors.Newf("activity %q: bpm_min must be below bpm_max", tag)
	}

	total := 0.0
	arc := make([]Phase, 0, len(cfg.Phases))
	for _, p := range cfg.Phases {
		total += p.Fraction
		arc = append(arc, Phase{Name: p.Name, Energy: p.Energy, Fraction: p.Fraction})
	}
	if math.Abs(total-1) > 0.001 {
		return Activity{}, errors.Newf("activity %q: phase fractions sum to %.3f, want 1.0", tag, total)
	}

	return Activity{
		Tag:    strings.ToLower(tag),
		BPMMin: cfg.BPMMin,
		BPMMax: cfg.BPMMax,
		Arc:    arc,
		Genres: cfg.Genres,
	}, nil
}
