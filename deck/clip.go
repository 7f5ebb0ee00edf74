// Package deck owns the clip registry, the per-clip transport state
// machine, and the trigger router that maps key presses onto it.
package deck

import "cuedeck/audio"

// DefaultVolume is what a freshly imported clip gets.
const DefaultVolume = 0.8

// PlayState is the transport state of one clip.
type PlayState int

const (
	StateStopped PlayState = iota
	StatePlaying
	StatePaused
)

func (s PlayState) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "stopped"
	}
}

// Clip is one playable unit: an audio source (possibly still decoding)
// plus its transport state. The transport methods expect the deck lock
// to be held; the Deck's exported operations take care of that.
type Clip struct {
	ID       string
	Name     string
	Path     string
	Key      string // normalized trigger code, "" = unassigned
	Volume   float64
	StartCue float64 // seconds
	Loop     bool

	State    PlayState
	Playhead float64 // seconds
	Duration float64 // seconds, 0 until decoded
	Energy   float64 // RMS loudness hint, 0 until decoded

	Asset     *audio.Asset
	DecodeErr string

	generation int  // stamps decode submissions so stale results get dropped
	voiceUp    bool // a sink voice exists for this clip
}

// Play starts or resumes the transport. From Playing it is a no-op;
// restart is the router's job (Stop then Play). A playhead behind the
// cue snaps forward to it.
func (c *Clip) Play() {
	if c.State == StatePlaying {
		return
	}
	if c.Playhead < c.StartCue {
		c.Playhead = c.StartCue
	}
	c.State = StatePlaying
}

// Pause freezes a playing clip. No-op in any other state.
func (c *Clip) Pause() {
	if c.State == StatePlaying {
		c.State = StatePaused
	}
}

// Stop hard-resets the transport: the playhead returns to the cue
// point. Valid from any state.
func (c *Clip) Stop() {
	c.State = StateStopped
	c.Playhead = c.StartCue
}

// Advance moves the playhead by dt seconds of wall-clock time. While
// the duration is unknown (decode pending) playback is deferred: the
// state stays Playing but the playhead holds. Reaching the end loops
// back to the cue or stops, per the loop flag.
func (c *Clip) Advance(dt float64) {
	if c.State != StatePlaying || c.Duration <= 0 {
		return
	}
	c.Playhead += dt
	if c.Playhead >= c.Duration {
		c.Playhead = c.StartCue
		if !c.Loop {
			c.State = StateStopped
		}
	}
}

// SetStartCue moves the cue point, clamped to the known duration.
// While stopped the playhead follows the cue. Clamping is silent.
func (c *Clip) SetStartCue(t float64) {
	if t < 0 {
		t = 0
	}
	if c.Duration > 0 && t > c.Duration {
		t = c.Duration
	}
	c.StartCue = t
	if c.State == StateStopped {
		c.Playhead = t
	}
}

// SetVolume clamps v into [0,1] and stores it. Independent of play
// state.
func (c *Clip) SetVolume(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	c.Volume = v
}

// attach installs a decoded asset and reconciles cue and playhead
// against the now-known duration.
func (c *Clip) attach(a *audio.Asset) {
	c.Asset = a
	c.Duration = a.Seconds()
	c.Energy = a.Energy()
	c.DecodeErr = ""
	if c.StartCue > c.Duration {
		c.StartCue = c.Duration
	}
	if c.State == StateStopped || c.Playhead > c.Duration {
		c.Playhead = c.StartCue
	}
}
