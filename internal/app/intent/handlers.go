package intent

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ottara/tunebox/internal/app/analytics"
	appdiscovery "github.com/ottara/tunebox/internal/app/discovery"
	"github.com/ottara/tunebox/internal/app/planner"
	"github.com/ottara/tunebox/internal/domain/discovery"
)

// Intent labels understood by this core. Labels outside this set are
// answered with the unhandled message.
const (
	LabelAnalyze          = "ANALYZE"
	LabelDiscovery        = "DISCOVERY"
	LabelActivityPlaylist = "ACTIVITY_PLAYLIST"
)

// Slot keys filled by the external classifier.
const (
	SlotWindowDays = "window_days"
	SlotCategories = "categories"
	SlotActivity   = "activity"
	SlotLength     = "length"
)

// AnalyzeHandler serves the ANALYZE intent with a listener profile.
type AnalyzeHandler struct {
	Builder           *analytics.Builder
	DefaultWindowDays int
}

func (h *AnalyzeHandler) Name() string { return LabelAnalyze }

func (h *AnalyzeHandler) Handle(ctx context.Context, slots map[string]string) (Reply, error) {
	window, err := windowDays(slots, h.DefaultWindowDays)
	if err != nil {
		return Reply{}, err
	}

	p, err := h.Builder.Build(ctx, window)
	if err != nil {
		return Reply{}, err
	}

	text := fmt.Sprintf("Over the last %d days you played %d tracks (%.1f hours).",
		p.WindowDays, p.TotalTracksPlayed, p.TotalHours)
	if p.TotalTracksPlayed == 0 {
		text = fmt.Sprintf("No plays recorded in the last %d days yet.", p.WindowDays)
	}
	return Reply{Text: text, Profile: p}, nil
}

// DiscoveryHandler serves the DISCOVERY intent with ranked candidates.
type DiscoveryHandler struct {
	Builder           *analytics.Builder
	Engine            *appdiscovery.Engine
	DefaultWindowDays int
}

func (h *DiscoveryHandler) Name() string { return LabelDiscovery }

func (h *DiscoveryHandler) Handle(ctx context.Context, slots map[string]string) (Reply, error) {
	window, err := windowDays(slots, h.DefaultWindowDays)
	if err != nil {
		return Reply{}, err
	}

	p, err := h.Builder.Build(ctx, window)
	if err != nil {
		return Reply{}, err
	}

	candidates, err := h.Engine.Discover(ctx, p, categories(slots))
	if err != nil {
		return Reply{}, err
	}

	return Reply{
		Text:       fmt.Sprintf("Found %d discoveries for you.", len(candidates)),
		Profile:    p,
		Candidates: candidates,
	}, nil
}

// ActivityPlaylistHandler serves the ACTIVITY_PLAYLIST intent.
type ActivityPlaylistHandler struct {
	Builder           *analytics.Builder
	Planner           *planner.Planner
	DefaultWindowDays int
	DefaultLength     int
}

func (h *ActivityPlaylistHandler) Name() string { return LabelActivityPlaylist }

func (h *ActivityPlaylistHandler) Handle(ctx context.Context, slots map[string]string) (Reply, error) {
	window, err := windowDays(slots, h.DefaultWindowDays)
	if err != nil {
		return Reply{}, err
	}

	p, err := h.Builder.Build(ctx, window)
	if err != nil {
		return Reply{}, err
	}

	length := h.DefaultLength
	if raw, ok := slots[SlotLength]; ok && raw != "" {
		parsed, perr := strconv.Atoi(strings.TrimSpace(raw))
		if perr == nil && parsed > 0 {
			length = parsed
		}
	}

	plan, err := h.Planner.Plan(ctx, slots[SlotActivity], p, length)
	if err != nil {
		return Reply{}, err
	}

	return Reply{
		Text: fmt.Sprintf("Built %q: %d tracks for %s.", plan.Name, plan.Len(), plan.Activity),
		Plan: plan,
	}, nil
}

// windowDays parses the lookback slot, delegating range validation to
// the analytics layer. A malformed value is a caller bug and maps to
// the invalid-window outcome.
func windowDays(slots map[string]string, fallback int) (int, error) {
	raw, ok := slots[SlotWindowDays]
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, analytics.ErrInvalidWindow
	}
	return parsed, nil
}

func categories(slots map[string]string) []discovery.Category {
	raw, ok := slots[SlotCategories]
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []discovery.Category
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(strings.ToLower(part))
		if part != "" {
			out = append(out, discovery.Category(part))
		}
	}
	return out
}
