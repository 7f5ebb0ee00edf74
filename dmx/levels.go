// Package dmx holds the live 512-channel level buffer, the scene
// store, and the serial transmission loop that keeps fixtures fed.
package dmx

import "sync"

// ChannelCount is fixed by the DMX-512 standard.
const ChannelCount = 512

// Levels is the single live channel buffer. Every fixture edit lands
// here; the transmitter snapshots it and scenes copy in and out of it.
type Levels struct {
	mu      sync.Mutex
	values  [ChannelCount]byte
	changed chan struct{}
}

func NewLevels() *Levels {
	return &Levels{changed: make(chan struct{}, 1)}
}

// Set writes one channel. Out-of-range indexes are ignored; values
// clamp to [0,255].
func (l *Levels) Set(index, value int) {
	if index < 0 || index >= ChannelCount {
		return
	}
	if value < 0 {
		value = 0
	}
	if value > 255 {
		value = 255
	}
	l.mu.Lock()
	l.values[index] = byte(value)
	l.mu.Unlock()
	l.notify()
}

// Get returns one channel's level, 0 for out-of-range indexes.
func (l *Levels) Get(index int) int {
	if index < 0 || index >= ChannelCount {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return int(l.values[index])
}

// Blackout zeroes every channel.
func (l *Levels) Blackout() {
	l.mu.Lock()
	l.values = [ChannelCount]byte{}
	l.mu.Unlock()
	l.notify()
}

// Full drives every channel to 255.
func (l *Levels) Full() {
	l.mu.Lock()
	for i := range l.values {
		l.values[i] = 255
	}
	l.mu.Unlock()
	l.notify()
}

// Snapshot returns a copy of the current levels.
func (l *Levels) Snapshot() [ChannelCount]byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.values
}

// Load bulk-overwrites every channel (scene recall, session restore).
func (l *Levels) Load(values [ChannelCount]byte) {
	l.mu.Lock()
	l.values = values
	l.mu.Unlock()
	l.notify()
}

// Changed pulses after every mutation. Capacity 1: a slow consumer
// sees at most one pending pulse, never a backlog.
func (l *Levels) Changed() <-chan struct{} {
	return l.changed
}

func (l *Levels) notify() {
	select {
	case l.changed <- struct{}{}:
	default:
	}
}
