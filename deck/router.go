package deck

import "cuedeck/input"

// Bindings are the global control keys, as normalized codes.
type Bindings struct {
	PauseAll    string
	VolumeDown  string
	VolumeUp    string
	FocusedUp   string
	FocusedDown string
	Step        float64
}

func DefaultBindings() Bindings {
	return Bindings{
		PauseAll:    "Space",
		VolumeDown:  "Minus",
		VolumeUp:    "Equal",
		FocusedUp:   "ArrowUp",
		FocusedDown: "ArrowDown",
		Step:        0.05,
	}
}

// Router turns normalized presses into transport actions.
type Router struct {
	deck     *Deck
	bindings Bindings
}

func NewRouter(d *Deck, b Bindings) *Router {
	if b.Step == 0 {
		b.Step = DefaultBindings().Step
	}
	return &Router{deck: d, bindings: b}
}

// Handle applies one press. Priority: the global pause key, then the
// global volume nudge of playing clips, then the focused-clip nudge,
// then the key-to-clip lookup. Global keys never fall through to
// lookup.
func (r *Router) Handle(p input.Press) {
	switch p.Code {
	case r.bindings.PauseAll:
		r.deck.PauseAllPlaying()
		return
	case r.bindings.VolumeDown:
		r.deck.NudgePlayingVolumes(-r.bindings.Step)
		return
	case r.bindings.VolumeUp:
		r.deck.NudgePlayingVolumes(r.bindings.Step)
		return
	}

	if focused := r.deck.Focused(); focused != "" {
		switch p.Code {
		case r.bindings.FocusedUp:
			r.deck.NudgeVolume(focused, r.bindings.Step)
			return
		case r.bindings.FocusedDown:
			r.deck.NudgeVolume(focused, -r.bindings.Step)
			return
		}
	}

	r.deck.Trigger(p.Code, p.Layered)
}
