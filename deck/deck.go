package deck

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"cuedeck/audio"
	"cuedeck/debug"
	"cuedeck/input"
)

// Sink is the audio output the deck drives. A nil sink means silent
// operation; the transport runs regardless.
type Sink interface {
	Start(id string, asset *audio.Asset, offsetSeconds, volume float64, loop bool)
	Pause(id string)
	Resume(id string)
	Stop(id string)
	SetVolume(id string, volume float64)
}

// Playhead advancement cadence.
const tickPeriod = 25 * time.Millisecond

// Deck is the clip registry and control surface. One mutex serializes
// every transport mutation: UI keys, MIDI input, decode completions,
// and the tick loop all funnel through it.
type Deck struct {
	mu         sync.Mutex
	clips      map[string]*Clip
	order      []string // creation order
	focused    string
	genCounter int

	sink  Sink
	queue *audio.Queue

	stopChan chan struct{}

	// UpdateChan pulses when clip state changes; the TUI redraws on it.
	UpdateChan chan struct{}

	// OnClipRemoved runs after a clip is removed; scene links detach
	// through it. Set before StartRuntime.
	OnClipRemoved func(clipID string)
}

func New(sink Sink, queue *audio.Queue) *Deck {
	return &Deck{
		clips:      make(map[string]*Clip),
		sink:       sink,
		queue:      queue,
		stopChan:   make(chan struct{}),
		UpdateChan: make(chan struct{}, 1),
	}
}

// StartRuntime launches the tick loop (called once at startup).
func (d *Deck) StartRuntime() {
	go d.tickLoop()
}

// StopRuntime halts the tick loop.
func (d *Deck) StopRuntime() {
	close(d.stopChan)
}

// Import registers a new clip and submits its bytes for decoding.
// The duration stays 0 until the decode lands; playback requests in
// the meantime are deferred, not refused.
func (d *Deck) Import(path string, data []byte) string {
	c := &Clip{
		ID:     uuid.NewString(),
		Name:   filepath.Base(path),
		Path:   path,
		Volume: DefaultVolume,
	}

	d.mu.Lock()
	d.genCounter++
	c.generation = d.genCounter
	gen := c.generation
	d.clips[c.ID] = c
	d.order = append(d.order, c.ID)
	d.mu.Unlock()

	d.queue.Submit(c.Name, data, func(asset *audio.Asset, err error) {
		d.finishDecode(c.ID, gen, asset, err)
	})
	d.notify()
	return c.ID
}

// Add registers a clip from stored fields (session restore). The clip
// starts Stopped with the playhead on its cue; decoding is submitted
// separately via SubmitDecode.
func (d *Deck) Add(c Clip) string {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.SetVolume(c.Volume)
	if c.StartCue < 0 {
		c.StartCue = 0
	}
	c.Key = input.NormalizeCode(c.Key)
	c.State = StateStopped
	c.Playhead = c.StartCue
	c.Asset = nil
	c.Duration = 0
	c.Energy = 0
	c.DecodeErr = ""
	c.generation = 0
	c.voiceUp = false

	d.mu.Lock()
	if c.Key != "" {
		for _, id := range d.order {
			if other := d.clips[id]; other.Key == c.Key {
				other.Key = ""
			}
		}
	}
	clip := c
	d.clips[c.ID] = &clip
	d.order = append(d.order, c.ID)
	d.mu.Unlock()
	d.notify()
	return c.ID
}

// SubmitDecode queues raw source bytes for an existing clip. Any
// result from an earlier submission for the same clip is discarded.
func (d *Deck) SubmitDecode(id string, data []byte) {
	d.mu.Lock()
	c, ok := d.clips[id]
	if !ok {
		d.mu.Unlock()
		return
	}
	d.genCounter++
	c.generation = d.genCounter
	gen := c.generation
	name := c.Name
	d.mu.Unlock()

	d.queue.Submit(name, data, func(asset *audio.Asset, err error) {
		d.finishDecode(id, gen, asset, err)
	})
}

// finishDecode re-enters the deck with a decode result. Stale results
// (clip removed, or re-submitted since) are dropped.
func (d *Deck) finishDecode(id string, gen int, asset *audio.Asset, err error) {
	d.mu.Lock()
	c, ok := d.clips[id]
	if !ok || c.generation != gen {
		d.mu.Unlock()
		return
	}
	if err != nil {
		c.DecodeErr = err.Error()
		debug.Log("deck", "decode %s: %v", c.Name, err)
		d.mu.Unlock()
		d.notify()
		return
	}
	c.attach(asset)
	if c.State == StatePlaying && d.sink != nil {
		// playback was deferred on this clip; start its voice now
		d.sink.Start(c.ID, c.Asset, c.Playhead, c.Volume, c.Loop)
		c.voiceUp = true
	}
	debug.Log("deck", "decoded %s: %.2fs", c.Name, c.Duration)
	d.mu.Unlock()
	d.notify()
}

// Reset drops every clip (session load rebuilds the registry from
// scratch). Voices are released; OnClipRemoved does not fire.
func (d *Deck) Reset() {
	d.mu.Lock()
	for _, c := range d.clips {
		d.stopVoice(c)
	}
	d.clips = make(map[string]*Clip)
	d.order = nil
	d.focused = ""
	d.mu.Unlock()
	d.notify()
}

// Remove deletes a clip, releasing its voice. A decode still in
// flight for it lands on the floor.
func (d *Deck) Remove(id string) {
	d.mu.Lock()
	c, ok := d.clips[id]
	if !ok {
		d.mu.Unlock()
		return
	}
	d.stopVoice(c)
	delete(d.clips, id)
	for i, oid := range d.order {
		if oid == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	if d.focused == id {
		d.focused = ""
	}
	d.mu.Unlock()

	if d.OnClipRemoved != nil {
		d.OnClipRemoved(id)
	}
	d.notify()
}

// AssignKey binds a normalized key code to a clip. Last write wins:
// any other clip holding the code is silently detached, so lookup
// never sees duplicates. An empty code unbinds.
func (d *Deck) AssignKey(id, code string) {
	code = input.NormalizeCode(code)

	d.mu.Lock()
	c, ok := d.clips[id]
	if !ok {
		d.mu.Unlock()
		return
	}
	if code != "" {
		for _, oid := range d.order {
			if other := d.clips[oid]; other != c && other.Key == code {
				other.Key = ""
			}
		}
	}
	c.Key = code
	d.mu.Unlock()
	d.notify()
}

// Play starts or resumes a clip.
func (d *Deck) Play(id string) {
	d.mu.Lock()
	if c, ok := d.clips[id]; ok {
		d.playLocked(c)
	}
	d.mu.Unlock()
	d.notify()
}

// Pause freezes a playing clip.
func (d *Deck) Pause(id string) {
	d.mu.Lock()
	if c, ok := d.clips[id]; ok {
		d.pauseLocked(c)
	}
	d.mu.Unlock()
	d.notify()
}

// Stop hard-resets a clip to its cue point.
func (d *Deck) Stop(id string) {
	d.mu.Lock()
	if c, ok := d.clips[id]; ok {
		d.stopLocked(c)
	}
	d.mu.Unlock()
	d.notify()
}

// Restart stops and replays a clip from its cue point.
func (d *Deck) Restart(id string) {
	d.mu.Lock()
	if c, ok := d.clips[id]; ok {
		d.stopLocked(c)
		d.playLocked(c)
	}
	d.mu.Unlock()
	d.notify()
}

// PauseAllPlaying freezes every playing clip (the global pause key).
// Stopped and paused clips are untouched.
func (d *Deck) PauseAllPlaying() {
	d.mu.Lock()
	for _, id := range d.order {
		d.pauseLocked(d.clips[id])
	}
	d.mu.Unlock()
	d.notify()
}

// NudgePlayingVolumes steps every playing clip's volume, clamped.
func (d *Deck) NudgePlayingVolumes(delta float64) {
	d.mu.Lock()
	for _, id := range d.order {
		c := d.clips[id]
		if c.State == StatePlaying {
			d.setVolumeLocked(c, c.Volume+delta)
		}
	}
	d.mu.Unlock()
	d.notify()
}

// NudgeVolume steps one clip's volume, clamped.
func (d *Deck) NudgeVolume(id string, delta float64) {
	d.mu.Lock()
	if c, ok := d.clips[id]; ok {
		d.setVolumeLocked(c, c.Volume+delta)
	}
	d.mu.Unlock()
	d.notify()
}

// SetVolume sets one clip's volume, clamped.
func (d *Deck) SetVolume(id string, v float64) {
	d.mu.Lock()
	if c, ok := d.clips[id]; ok {
		d.setVolumeLocked(c, v)
	}
	d.mu.Unlock()
	d.notify()
}

// SetStartCue moves a clip's cue point, clamped to its duration.
func (d *Deck) SetStartCue(id string, t float64) {
	d.mu.Lock()
	if c, ok := d.clips[id]; ok {
		c.SetStartCue(t)
	}
	d.mu.Unlock()
	d.notify()
}

// SetLoop toggles looping. A live voice is restarted in place so the
// sink's loop behavior matches the flag.
func (d *Deck) SetLoop(id string, loop bool) {
	d.mu.Lock()
	if c, ok := d.clips[id]; ok && c.Loop != loop {
		c.Loop = loop
		if c.State == StatePlaying && c.voiceUp && d.sink != nil {
			d.sink.Start(c.ID, c.Asset, c.Playhead, c.Volume, c.Loop)
		}
	}
	d.mu.Unlock()
	d.notify()
}

// Rename sets a clip's display name.
func (d *Deck) Rename(id, name string) {
	d.mu.Lock()
	if c, ok := d.clips[id]; ok && name != "" {
		c.Name = name
	}
	d.mu.Unlock()
	d.notify()
}

// SetFocused marks the clip the focused-volume keys act on; "" clears.
func (d *Deck) SetFocused(id string) {
	d.mu.Lock()
	if _, ok := d.clips[id]; ok || id == "" {
		d.focused = id
	}
	d.mu.Unlock()
	d.notify()
}

// Focused returns the focused clip id, "" if none.
func (d *Deck) Focused() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.focused
}

// Clips returns a snapshot of all clips in creation order.
func (d *Deck) Clips() []Clip {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Clip, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, *d.clips[id])
	}
	return out
}

// Clip returns a snapshot of one clip.
func (d *Deck) Clip(id string) (Clip, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if c, ok := d.clips[id]; ok {
		return *c, true
	}
	return Clip{}, false
}

// Trigger fires the clip assigned to code, if any. A playing match
// restarts from its cue regardless of the modifier; otherwise layered
// plays it on top of whatever runs, and exclusive stops every other
// playing clip first.
func (d *Deck) Trigger(code string, layered bool) {
	code = input.NormalizeCode(code)
	if code == "" {
		return
	}

	d.mu.Lock()
	// Derived view over the clip set; uniqueness is enforced at
	// assignment time, so the first hit is the only hit.
	var match *Clip
	for _, id := range d.order {
		if c := d.clips[id]; c.Key == code {
			match = c
			break
		}
	}
	if match == nil {
		d.mu.Unlock()
		return
	}

	if match.State == StatePlaying {
		// retrigger: full reset-and-replay
		d.stopLocked(match)
		d.playLocked(match)
	} else {
		if !layered {
			for _, id := range d.order {
				if c := d.clips[id]; c != match && c.State == StatePlaying {
					d.stopLocked(c)
				}
			}
		}
		d.playLocked(match)
	}
	d.mu.Unlock()
	d.notify()
}

// locked transport helpers; all sink effects live here

func (d *Deck) playLocked(c *Clip) {
	if c.State == StatePlaying {
		return
	}
	prev := c.State
	c.Play()
	if d.sink == nil {
		return
	}
	if prev == StatePaused && c.voiceUp {
		d.sink.Resume(c.ID)
		return
	}
	if c.Asset != nil {
		d.sink.Start(c.ID, c.Asset, c.Playhead, c.Volume, c.Loop)
		c.voiceUp = true
	}
}

func (d *Deck) pauseLocked(c *Clip) {
	if c.State != StatePlaying {
		return
	}
	c.Pause()
	if c.voiceUp && d.sink != nil {
		d.sink.Pause(c.ID)
	}
}

func (d *Deck) stopLocked(c *Clip) {
	c.Stop()
	d.stopVoice(c)
}

func (d *Deck) stopVoice(c *Clip) {
	if c.voiceUp && d.sink != nil {
		d.sink.Stop(c.ID)
	}
	c.voiceUp = false
}

func (d *Deck) setVolumeLocked(c *Clip, v float64) {
	c.SetVolume(v)
	if c.voiceUp && d.sink != nil {
		d.sink.SetVolume(c.ID, c.Volume)
	}
}

func (d *Deck) tickLoop() {
	ticker := time.NewTicker(tickPeriod)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-d.stopChan:
			return
		case now := <-ticker.C:
			d.advance(now.Sub(last).Seconds())
			last = now
		}
	}
}

// advance moves every playing clip by dt and applies end-of-clip
// transitions.
func (d *Deck) advance(dt float64) {
	d.mu.Lock()
	playing := false
	for _, id := range d.order {
		c := d.clips[id]
		if c.State != StatePlaying {
			continue
		}
		playing = true
		c.Advance(dt)
		if c.State == StateStopped {
			// reached the end without loop; looping voices rewind
			// on their own
			d.stopVoice(c)
		}
	}
	d.mu.Unlock()
	if playing {
		d.notify()
	}
}

func (d *Deck) notify() {
	select {
	case d.UpdateChan <- struct{}{}:
	default:
	}
}
