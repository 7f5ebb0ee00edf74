package deck

import (
	"testing"

	"cuedeck/input"
)

func TestPauseAllShadowsAssignedClip(t *testing.T) {
	d, _ := newTestDeck()
	r := NewRouter(d, DefaultBindings())
	playing := addClip(d, "A", "Digit1", 10)
	shadowed := addClip(d, "B", "Space", 10)
	d.Play(playing)

	r.Handle(input.Press{Code: "Space"})

	ca, _ := d.Clip(playing)
	cb, _ := d.Clip(shadowed)
	if ca.State != StatePaused {
		t.Errorf("playing clip = %v, want paused by global key", ca.State)
	}
	if cb.State != StateStopped {
		t.Errorf("space-assigned clip = %v, want never triggered", cb.State)
	}
}

func TestGlobalVolumeNudgeTouchesPlayingOnly(t *testing.T) {
	d, _ := newTestDeck()
	r := NewRouter(d, DefaultBindings())
	a := addClip(d, "A", "", 10)
	b := addClip(d, "B", "", 10)
	d.SetVolume(a, 0.5)
	d.SetVolume(b, 0.5)
	d.Play(a)

	r.Handle(input.Press{Code: "Equal"})
	r.Handle(input.Press{Code: "Equal"})
	r.Handle(input.Press{Code: "Minus"})

	ca, _ := d.Clip(a)
	cb, _ := d.Clip(b)
	if ca.Volume != 0.55 {
		t.Errorf("playing volume = %v, want 0.55", ca.Volume)
	}
	if cb.Volume != 0.5 {
		t.Errorf("stopped volume = %v, want untouched 0.5", cb.Volume)
	}
}

func TestFocusedNudge(t *testing.T) {
	d, _ := newTestDeck()
	r := NewRouter(d, DefaultBindings())
	a := addClip(d, "A", "", 10)
	d.SetVolume(a, 0.5)
	d.SetFocused(a)

	r.Handle(input.Press{Code: "ArrowUp"})
	r.Handle(input.Press{Code: "ArrowUp"})
	r.Handle(input.Press{Code: "ArrowDown"})

	c, _ := d.Clip(a)
	if c.Volume != 0.55 {
		t.Errorf("volume = %v, want 0.55", c.Volume)
	}
}

func TestArrowsFallThroughWithoutFocus(t *testing.T) {
	d, _ := newTestDeck()
	r := NewRouter(d, DefaultBindings())
	a := addClip(d, "A", "ArrowUp", 10)

	r.Handle(input.Press{Code: "ArrowUp"})

	c, _ := d.Clip(a)
	if c.State != StatePlaying {
		t.Errorf("state = %v, want playing (no focus, arrow reaches lookup)", c.State)
	}
}

func TestLayeredPressReachesLookup(t *testing.T) {
	d, _ := newTestDeck()
	r := NewRouter(d, DefaultBindings())
	a := addClip(d, "A", "Digit1", 10)
	b := addClip(d, "B", "Digit2", 10)
	d.Play(a)

	r.Handle(input.Press{Code: "Digit2", Layered: true})

	ca, _ := d.Clip(a)
	cb, _ := d.Clip(b)
	if ca.State != StatePlaying || cb.State != StatePlaying {
		t.Errorf("states = %v/%v, want both playing", ca.State, cb.State)
	}
}

func TestRouterCustomStep(t *testing.T) {
	d, _ := newTestDeck()
	b := DefaultBindings()
	b.Step = 0.1
	r := NewRouter(d, b)
	a := addClip(d, "A", "", 10)
	d.SetVolume(a, 0.5)
	d.Play(a)

	r.Handle(input.Press{Code: "Equal"})

	c, _ := d.Clip(a)
	if c.Volume != 0.6 {
		t.Errorf("volume = %v, want 0.6 with step 0.1", c.Volume)
	}
}

func TestRouterZeroStepGetsDefault(t *testing.T) {
	d, _ := newTestDeck()
	r := NewRouter(d, Bindings{VolumeUp: "Equal"})
	a := addClip(d, "A", "", 10)
	d.SetVolume(a, 0.5)
	d.Play(a)

	r.Handle(input.Press{Code: "Equal"})

	c, _ := d.Clip(a)
	if c.Volume != 0.55 {
		t.Errorf("volume = %v, want 0.55 from default step", c.Volume)
	}
}
