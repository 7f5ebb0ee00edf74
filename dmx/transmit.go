package dmx

import (
	"errors"
	"sync"
	"time"

	"go.bug.st/serial"

	"cuedeck/debug"
)

// ErrNoPort is returned by SendNow when no endpoint is selected.
var ErrNoPort = errors.New("no port selected")

// ErrStopped is returned by SendNow after the loop has shut down.
var ErrStopped = errors.New("transmitter stopped")

// Wire timing. Receivers black out without a continuous refresh, so
// the loop resends the published frame every cycle; break and
// mark-after-break precede each frame per DMX-512.
const (
	frameSize      = 1 + ChannelCount // start code + channels
	framePeriod    = 25 * time.Millisecond
	breakPeriod    = 110 * time.Microsecond
	markAfterBreak = 12 * time.Microsecond
)

// DefaultDebounce coalesces rapid fader edits before they reach the
// wire, so a continuous drag doesn't saturate the device buffer.
const DefaultDebounce = 200 * time.Millisecond

// State of the transmit loop.
type State int

const (
	StateWaiting State = iota // no endpoint selected
	StateStreaming
	StateError
)

func (s State) String() string {
	switch s {
	case StateStreaming:
		return "streaming"
	case StateError:
		return "error"
	default:
		return "waiting for selection"
	}
}

// Status is a snapshot of the loop for the UI.
type Status struct {
	State      State
	Port       string
	FramesSent uint64
	LastError  string
}

// Transmitter streams the live levels to a serial DMX interface at
// 40fps. The loop goroutine is the only owner of the port handle, so
// endpoint switches and foreground sends never tear a frame.
type Transmitter struct {
	levels *Levels

	mu     sync.Mutex
	target string
	status Status

	// loop-owned, never touched outside the transmit goroutine
	port       serial.Port
	openedPath string
	frame      [frameSize]byte

	sendNow  chan chan error
	stopChan chan struct{}

	// Debounce delays publication of edits; set before Start.
	Debounce time.Duration

	// Open opens the serial endpoint. Tests swap in a fake.
	Open func(path string) (serial.Port, error)
}

func NewTransmitter(levels *Levels) *Transmitter {
	return &Transmitter{
		levels:   levels,
		sendNow:  make(chan chan error),
		stopChan: make(chan struct{}),
		Debounce: DefaultDebounce,
		Open:     openDMXPort,
	}
}

// openDMXPort opens path with the DMX-512 line settings: 250k baud,
// 8 data bits, no parity, 2 stop bits, no flow control.
func openDMXPort(path string) (serial.Port, error) {
	port, err := serial.Open(path, &serial.Mode{
		BaudRate: 250000,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.TwoStopBits,
	})
	if err != nil {
		return nil, err
	}
	port.SetReadTimeout(100 * time.Millisecond)
	return port, nil
}

// Start launches the transmit loop.
func (t *Transmitter) Start() {
	go t.loop()
}

// Stop terminates the loop and closes any open port.
func (t *Transmitter) Stop() {
	close(t.stopChan)
}

// SelectPort switches the target endpoint; "" deselects. The loop
// drains and closes the old handle before opening the new one.
func (t *Transmitter) SelectPort(path string) {
	t.mu.Lock()
	t.target = path
	t.mu.Unlock()
}

// Port returns the selected endpoint path.
func (t *Transmitter) Port() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.target
}

// Status returns a snapshot for the UI.
func (t *Transmitter) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// SendNow publishes the live levels and writes one frame immediately,
// reporting the result. Scene recalls and blackouts use it so the look
// lands without waiting out the debounce.
func (t *Transmitter) SendNow() error {
	reply := make(chan error, 1)
	select {
	case t.sendNow <- reply:
		return <-reply
	case <-t.stopChan:
		return ErrStopped
	}
}

func (t *Transmitter) loop() {
	ticker := time.NewTicker(framePeriod)
	defer ticker.Stop()
	defer t.closePort()

	var deadline time.Time // pending debounce, zero if none

	for {
		select {
		case <-t.stopChan:
			return

		case <-t.levels.Changed():
			// restart the coalescing window
			deadline = time.Now().Add(t.Debounce)

		case reply := <-t.sendNow:
			deadline = time.Time{}
			t.publish()
			reply <- t.transmit()

		case <-ticker.C:
			if !deadline.IsZero() && !time.Now().Before(deadline) {
				deadline = time.Time{}
				t.publish()
			}
			t.transmit()
		}
	}
}

// publish snapshots the live levels into the outgoing frame. Byte 0
// stays the DMX start code (0).
func (t *Transmitter) publish() {
	levels := t.levels.Snapshot()
	copy(t.frame[1:], levels[:])
}

// transmit writes the published frame to the selected endpoint,
// opening it lazily. Errors are reported in the status; the loop
// itself never stops on one.
func (t *Transmitter) transmit() error {
	target := t.Port()

	if target != t.openedPath {
		// endpoint switch: drain the old line first
		t.closePort()
		t.openedPath = target
		t.publish()
	}

	if target == "" {
		t.mu.Lock()
		t.status = Status{State: StateWaiting, FramesSent: t.status.FramesSent}
		t.mu.Unlock()
		return ErrNoPort
	}

	if t.port == nil {
		port, err := t.Open(target)
		if err != nil {
			t.fail("open", target, err)
			return err
		}
		t.port = port
		debug.Log("dmx", "opened %s", target)
	}

	if err := t.writeFrame(); err != nil {
		// drop the handle; next cycle reopens
		t.port.Close()
		t.port = nil
		t.fail("write", target, err)
		return err
	}

	t.mu.Lock()
	t.status.State = StateStreaming
	t.status.Port = target
	t.status.FramesSent++
	t.status.LastError = ""
	t.mu.Unlock()
	return nil
}

// writeFrame sends break, mark-after-break, then the 513-byte frame.
func (t *Transmitter) writeFrame() error {
	if err := t.port.Break(breakPeriod); err != nil {
		return err
	}
	time.Sleep(markAfterBreak)
	_, err := t.port.Write(t.frame[:])
	return err
}

// closePort drains pending output before closing so no partial frame
// is left on the wire.
func (t *Transmitter) closePort() {
	if t.port != nil {
		t.port.Drain()
		t.port.Close()
		t.port = nil
	}
}

func (t *Transmitter) fail(op, target string, err error) {
	t.mu.Lock()
	t.status.State = StateError
	t.status.Port = target
	t.status.LastError = err.Error()
	t.mu.Unlock()
	debug.LogEvery(40, "dmx", "%s %s: %v", op, target, err)
}
