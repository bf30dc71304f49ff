package coordinator

import (
	"context"
	"log"

	"github.com/eugenesvk/tabsave/internal/save"
	"github.com/eugenesvk/tabsave/internal/tab"
)

// State names the per-tab intent states.
type State int

const (
	StateAbsent State = iota
	StateClosedMarker
	StatePendingSave
)

// Event names the lifecycle events the reconciler consumes.
type Event int

const (
	EventContentUpdated Event = iota
	EventClosed
	EventSuspended
)

// Effect is the side effect a transition requests.
type Effect int

const (
	EffectNone Effect = iota
	// EffectFlush executes the save using the intent's captured snapshot.
	EffectFlush
)

// Transition is the pure state machine at the core of lifecycle handling.
// removeOnSave is the intent's flag; it only matters for EventClosed.
func Transition(s State, ev Event, removeOnSave bool) (State, Effect) {
	switch ev {
	case EventContentUpdated:
		// A newer document state supersedes any pending intent.
		return StateAbsent, EffectNone
	case EventClosed:
		switch s {
		case StateAbsent:
			return StateClosedMarker, EffectNone
		case StatePendingSave:
			if removeOnSave {
				return StateAbsent, EffectFlush
			}
			return StatePendingSave, EffectNone
		}
		return s, EffectNone
	case EventSuspended:
		if s == StatePendingSave {
			return StateAbsent, EffectFlush
		}
		return s, EffectNone
	}
	return s, EffectNone
}

// FlushFunc executes the save pipeline for a flushed intent.
type FlushFunc func(ctx context.Context, p *save.Payload, t *tab.Tab) error

// Reconciler applies lifecycle events to the registry and triggers flushes.
type Reconciler struct {
	reg   *Registry
	flush FlushFunc
}

// NewReconciler wires a reconciler to a registry and a flush function.
func NewReconciler(reg *Registry, flush FlushFunc) *Reconciler {
	return &Reconciler{reg: reg, flush: flush}
}

// stateOf derives the machine state from a registry entry.
func stateOf(in *Intent) State {
	switch {
	case in == nil:
		return StateAbsent
	case in.Kind == KindClosedMarker:
		return StateClosedMarker
	default:
		return StatePendingSave
	}
}

// OnContentUpdated discards any pending intent for the tab.
func (r *Reconciler) OnContentUpdated(id string) {
	r.reg.Clear(id)
}

// OnTabClosed handles a tab-closed event: remember early closes, flush
// intents that asked to run on removal, leave the rest untouched.
func (r *Reconciler) OnTabClosed(ctx context.Context, id string) {
	in := r.reg.Get(id)
	removeOnSave := in != nil && in.Payload != nil && in.Payload.RemoveOnSave

	next, effect := Transition(stateOf(in), EventClosed, removeOnSave)

	switch next {
	case StateClosedMarker:
		if stateOf(in) == StateAbsent {
			r.reg.Set(id, &Intent{Kind: KindClosedMarker})
		}
	case StateAbsent:
		r.reg.Clear(id)
	}

	if effect == EffectFlush {
		r.runFlush(ctx, in)
	}

	// The closed id can no longer be a redirect target.
	r.reg.DropRedirectsTo(id)
}

// OnTabSuspended handles a discard/sleep event: a pending save must run now,
// before the tab's data becomes unreachable.
func (r *Reconciler) OnTabSuspended(ctx context.Context, id string) {
	in := r.reg.Get(id)

	next, effect := Transition(stateOf(in), EventSuspended, false)
	if next == StateAbsent && stateOf(in) == StatePendingSave {
		r.reg.Clear(id)
	}
	if effect == EffectFlush {
		r.runFlush(ctx, in)
	}
}

// OnTabReplaced moves a pending intent to the tab's new identity.
// No flush is triggered.
func (r *Reconciler) OnTabReplaced(oldID, newID string) {
	r.reg.Redirect(oldID, newID)
}

func (r *Reconciler) runFlush(ctx context.Context, in *Intent) {
	if in == nil || in.Payload == nil || in.Snapshot == nil {
		return
	}
	if err := r.flush(ctx, in.Payload, in.Snapshot); err != nil {
		log.Printf("tabsave: flush tab %s: %v", in.Snapshot.ID, err)
	}
}
