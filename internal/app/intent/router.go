// Package intent routes classified user intents to the analytics,
// discovery and planning engines.
package intent

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/ottara/tunebox/internal/app/analytics"
	appdiscovery "github.com/ottara/tunebox/internal/app/discovery"
	"github.com/ottara/tunebox/internal/app/planner"
	"github.com/ottara/tunebox/internal/domain/discovery"
	"github.com/ottara/tunebox/internal/domain/playlist"
	"github.com/ottara/tunebox/internal/domain/profile"
)

// Result is what the external intent classifier produces for one user
// turn: a label plus free-form slot values.
type Result struct {
	Label string
	Slots map[string]string
}

// Reply is the structured outcome of one routed turn. Formatting to
// human text beyond Text is owned by the transport layer.
type Reply struct {
	Text       string
	Handled    bool
	Profile    *profile.Listener
	Candidates []discovery.Candidate
	Plan       *playlist.Plan
}

// Messages holds the user-facing texts for defined non-fatal outcomes.
type Messages struct {
	Unhandled           string
	DefaultError        string
	InvalidWindow       string
	NoSeedData          string
	UnknownActivity     string
	InsufficientCatalog string
}

// Handler processes one intent label.
type Handler interface {
	// Name returns the intent label this handler owns.
	Name() string
	// Handle executes the intent with the given slot values.
	Handle(ctx context.Context, slots map[string]string) (Reply, error)
}

// Router is a closed dispatch table from intent label to handler.
// Adding an intent means registering another handler; unknown labels
// produce a defined "unhandled" reply, never an error.
type Router struct {
	handlers map[string]Handler
	messages Messages
}

// NewRouter creates a router with the given outcome messages.
func NewRouter(messages Messages) *Router {
	return &Router{
		handlers: make(map[string]Handler),
		messages: messages,
	}
}

// Register adds a handler to the dispatch table.
func (r *Router) Register(h Handler) {
	r.handlers[h.Name()] = h
}

// Labels returns the registered intent labels.
func (r *Router) Labels() []string {
	labels := make([]string, 0, len(r.handlers))
	for label := range r.handlers {
		labels = append(labels, label)
	}
	return labels
}

// Route dispatches one classified turn. Engine-level precondition
// failures are translated into user-facing reply text; nothing routed
// through here terminates the session.
func (r *Router) Route(ctx context.Context, res Result) Reply {
	h, ok := r.handlers[res.Label]
	if !ok {
		zlog.Debug().Str("intent", res.Label).Msg("unhandled intent")
		return Reply{Text: r.messages.Unhandled}
	}

	reply, err := h.Handle(ctx, res.Slots)
	if err != nil {
		return r.translate(res.Label, err)
	}
	reply.Handled = true
	return reply
}

// translate maps engine sentinels to their configured reply text.
func (r *Router) translate(label string, err error) Reply {
	var text string
	switch {
	case errors.Is(err, analytics.ErrInvalidWindow):
		text = r.messages.InvalidWindow
	case errors.Is(err, appdiscovery.ErrNoSeedData):
		text = r.messages.NoSeedData
	case errors.Is(err, planner.ErrUnknownActivity):
		text = r.messages.UnknownActivity
	case errors.Is(err, planner.ErrInsufficientCatalog):
		text = r.messages.InsufficientCatalog
	default:
		zlog.Error().Err(err).Str("intent", label).Msg("intent handler failed")
		text = r.messages.DefaultError
	}
	return Reply{Text: text, Handled: true}
}
