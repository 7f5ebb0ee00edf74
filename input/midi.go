package input

import (
	"context"
	"strings"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver

	"cuedeck/debug"
)

const sustainController = 64

// MIDISource turns NoteOn events from hot-plugged controllers into
// presses. Notes map through a note-to-code table; holding the sustain
// pedal (CC 64) makes presses layered, like the keyboard modifier.
type MIDISource struct {
	mu      sync.Mutex
	notes   map[uint8]string
	inputs  map[string]func()
	sustain bool

	presses  chan Press
	pollRate time.Duration
}

// DefaultNoteMap lays the ten digit triggers across the bottom pad row
// of a typical drum controller (C1 up).
func DefaultNoteMap() map[uint8]string {
	return map[uint8]string{
		36: "Digit1", 37: "Digit2", 38: "Digit3", 39: "Digit4", 40: "Digit5",
		41: "Digit6", 42: "Digit7", 43: "Digit8", 44: "Digit9", 45: "Digit0",
	}
}

// NewMIDISource creates a source with the given note map (config
// shape); nil or empty means the built-in pad layout.
func NewMIDISource(notes map[int]string) *MIDISource {
	table := DefaultNoteMap()
	if len(notes) > 0 {
		table = make(map[uint8]string, len(notes))
		for note, code := range notes {
			if note < 0 || note > 127 {
				continue
			}
			if code := NormalizeCode(code); code != "" {
				table[uint8(note)] = code
			}
		}
	}
	return &MIDISource{
		notes:    table,
		inputs:   make(map[string]func()),
		presses:  make(chan Press, 32),
		pollRate: time.Second,
	}
}

// Presses returns the channel of incoming trigger presses.
func (s *MIDISource) Presses() <-chan Press {
	return s.presses
}

// Run starts the polling loop (blocking - run in goroutine).
func (s *MIDISource) Run(ctx context.Context) {
	ticker := time.NewTicker(s.pollRate)
	defer ticker.Stop()

	// Initial scan
	s.scan()

	for {
		select {
		case <-ctx.Done():
			s.closeAll()
			close(s.presses)
			return
		case <-ticker.C:
			s.scan()
		}
	}
}

func (s *MIDISource) scan() {
	// Get current MIDI ports with timeout (CoreMIDI can hang)
	ch := make(chan []drivers.In, 1)
	go func() {
		ch <- gomidi.GetInPorts()
	}()

	var inPorts []drivers.In
	select {
	case inPorts = <-ch:
	case <-time.After(3 * time.Second):
		// MIDI server is hung - skip this scan
		return
	}

	seen := make(map[string]bool)
	for i, inPort := range inPorts {
		id := inPort.String()
		// ALSA's virtual through ports echo our own traffic back
		if strings.Contains(strings.ToLower(id), "through") {
			continue
		}
		seen[id] = true

		s.mu.Lock()
		_, open := s.inputs[id]
		s.mu.Unlock()
		if open {
			continue
		}

		stop, err := gomidi.ListenTo(inPorts[i], func(msg gomidi.Message, timestampms int32) {
			s.handle(msg)
		})
		if err != nil {
			debug.Log("midi", "open %s: %v", id, err)
			continue
		}

		s.mu.Lock()
		s.inputs[id] = stop
		s.mu.Unlock()
		debug.Log("midi", "listening on %s", id)
	}

	// Drop vanished controllers
	s.mu.Lock()
	var gone []string
	for id := range s.inputs {
		if !seen[id] {
			gone = append(gone, id)
		}
	}
	for _, id := range gone {
		s.inputs[id]()
		delete(s.inputs, id)
		debug.Log("midi", "lost %s", id)
	}
	s.mu.Unlock()
}

func (s *MIDISource) handle(msg gomidi.Message) {
	var channel, note, velocity uint8
	if msg.GetNoteOn(&channel, &note, &velocity) && velocity > 0 {
		s.mu.Lock()
		code, mapped := s.notes[note]
		layered := s.sustain
		s.mu.Unlock()
		if !mapped {
			return
		}
		select {
		case s.presses <- Press{Code: code, Layered: layered}:
		default:
		}
		return
	}

	var controller, value uint8
	if msg.GetControlChange(&channel, &controller, &value) && controller == sustainController {
		s.mu.Lock()
		s.sustain = value >= 64
		s.mu.Unlock()
	}
}

func (s *MIDISource) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, stop := range s.inputs {
		stop()
	}
	s.inputs = make(map[string]func())
}
