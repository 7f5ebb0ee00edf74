package audio

import (
	"math"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/speaker"

	"cuedeck/debug"
)

// mixRate is the output rate every voice is resampled to.
const mixRate = beep.SampleRate(44100)

// Speaker plays decoded assets through the system mixer. Each clip id
// owns at most one voice; starting again replaces it.
type Speaker struct {
	mu      sync.Mutex
	voices  map[string]*voice
	enabled bool
}

type voice struct {
	volume *effects.Volume
	ctrl   *beep.Ctrl
}

// NewSpeaker initializes the mixer. When no output device is available
// the console keeps running silent.
func NewSpeaker() *Speaker {
	s := &Speaker{voices: make(map[string]*voice)}
	if err := speaker.Init(mixRate, mixRate.N(time.Second/10)); err != nil {
		debug.Log("audio", "speaker init failed, running silent: %v", err)
		return s
	}
	s.enabled = true
	return s
}

// Enabled reports whether an output device is up.
func (s *Speaker) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// Start begins playback of asset at offset seconds, replacing any
// voice this id already has. Looping voices rewind to the offset
// seamlessly; the transport handles loop state on its own clock.
func (s *Speaker) Start(id string, asset *Asset, offset, vol float64, loop bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled || asset == nil {
		return
	}

	st := newAssetStreamer(asset, offset, loop)
	var src beep.Streamer = st
	if beep.SampleRate(asset.SampleRate) != mixRate {
		src = beep.Resample(4, beep.SampleRate(asset.SampleRate), mixRate, st)
	}
	v := &voice{volume: &effects.Volume{Streamer: src, Base: 2}}
	setGain(v.volume, vol)
	v.ctrl = &beep.Ctrl{Streamer: v.volume}

	if old, ok := s.voices[id]; ok {
		speaker.Lock()
		old.ctrl.Streamer = nil // mixer drops it on the next pull
		speaker.Unlock()
	}

	s.voices[id] = v
	speaker.Play(v.ctrl)
}

// Pause freezes this id's voice, if it has one.
func (s *Speaker) Pause(id string) {
	s.setPaused(id, true)
}

// Resume unfreezes a paused voice. No-op when the voice never started
// (decode still pending); the deck restarts those explicitly.
func (s *Speaker) Resume(id string) {
	s.setPaused(id, false)
}

func (s *Speaker) setPaused(id string, paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.voices[id]; ok {
		speaker.Lock()
		v.ctrl.Paused = paused
		speaker.Unlock()
	}
}

// Stop removes this id's voice from the mixer.
func (s *Speaker) Stop(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.voices[id]; ok {
		speaker.Lock()
		v.ctrl.Streamer = nil
		speaker.Unlock()
		delete(s.voices, id)
	}
}

// SetVolume adjusts a live voice's gain.
func (s *Speaker) SetVolume(id string, vol float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.voices[id]; ok {
		speaker.Lock()
		setGain(v.volume, vol)
		speaker.Unlock()
	}
}

// setGain maps the linear [0,1] clip volume onto the mixer's
// exponential scale.
func setGain(v *effects.Volume, vol float64) {
	if vol <= 0 {
		v.Silent = true
		return
	}
	if vol > 1 {
		vol = 1
	}
	v.Silent = false
	v.Volume = math.Log2(vol)
}

// assetStreamer streams interleaved PCM out of an Asset, optionally
// looping back to its start offset.
type assetStreamer struct {
	asset     *Asset
	pos       int // frame index
	loopStart int
	loop      bool
}

func newAssetStreamer(asset *Asset, offsetSeconds float64, loop bool) *assetStreamer {
	start := int(offsetSeconds * float64(asset.SampleRate))
	frames := asset.Frames()
	if start < 0 {
		start = 0
	}
	if start > frames {
		start = frames
	}
	return &assetStreamer{asset: asset, pos: start, loopStart: start, loop: loop}
}

func (s *assetStreamer) Stream(out [][2]float64) (int, bool) {
	frames := s.asset.Frames()
	n := 0
	for n < len(out) {
		if s.pos >= frames {
			if !s.loop || s.loopStart >= frames {
				break
			}
			s.pos = s.loopStart
		}
		out[n][0], out[n][1] = s.asset.frameAt(s.pos)
		s.pos++
		n++
	}
	return n, n > 0
}

func (s *assetStreamer) Err() error { return nil }
