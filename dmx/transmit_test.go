package dmx

import (
	"errors"
	"sync"
	"testing"
	"time"

	"go.bug.st/serial"
)

// fakePort records frames instead of touching hardware.
type fakePort struct {
	mu         sync.Mutex
	writes     [][]byte
	breaks     int
	drains     int
	closed     bool
	failWrites int // fail this many writes before succeeding
}

func (f *fakePort) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return 0, errors.New("write on closed port")
	}
	if f.failWrites > 0 {
		f.failWrites--
		return 0, errors.New("device unplugged")
	}
	buf := make([]byte, len(p))
	copy(buf, p)
	f.writes = append(f.writes, buf)
	return len(p), nil
}

func (f *fakePort) Break(time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.breaks++
	return nil
}

func (f *fakePort) Drain() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drains++
	return nil
}

func (f *fakePort) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakePort) Read(p []byte) (int, error)         { return 0, nil }
func (f *fakePort) SetMode(*serial.Mode) error         { return nil }
func (f *fakePort) ResetInputBuffer() error            { return nil }
func (f *fakePort) ResetOutputBuffer() error           { return nil }
func (f *fakePort) SetDTR(bool) error                  { return nil }
func (f *fakePort) SetRTS(bool) error                  { return nil }
func (f *fakePort) SetReadTimeout(time.Duration) error { return nil }

func (f *fakePort) GetModemStatusBits() (*serial.ModemStatusBits, error) {
	return &serial.ModemStatusBits{}, nil
}

func (f *fakePort) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.writes)
}

func (f *fakePort) lastWrite() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.writes) == 0 {
		return nil
	}
	return f.writes[len(f.writes)-1]
}

func waitFor(t *testing.T, d time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestIdleUntilPortSelected(t *testing.T) {
	var opens int
	var mu sync.Mutex

	tr := NewTransmitter(NewLevels())
	tr.Open = func(path string) (serial.Port, error) {
		mu.Lock()
		opens++
		mu.Unlock()
		return &fakePort{}, nil
	}
	tr.Start()
	defer tr.Stop()

	time.Sleep(80 * time.Millisecond)

	mu.Lock()
	n := opens
	mu.Unlock()
	if n != 0 {
		t.Errorf("opened %d ports with nothing selected, want 0", n)
	}
	if got := tr.Status().State; got != StateWaiting {
		t.Errorf("state = %v, want waiting", got)
	}
}

func TestStreamsFramesAfterSelect(t *testing.T) {
	fp := &fakePort{}
	tr := NewTransmitter(NewLevels())
	tr.Open = func(path string) (serial.Port, error) { return fp, nil }
	tr.Start()
	defer tr.Stop()

	tr.SelectPort("/dev/ttyUSB0")
	waitFor(t, 2*time.Second, "two frames", func() bool { return fp.writeCount() >= 2 })

	frame := fp.lastWrite()
	if len(frame) != 1+ChannelCount {
		t.Fatalf("frame length = %d, want %d", len(frame), 1+ChannelCount)
	}
	if frame[0] != 0 {
		t.Errorf("start code = %d, want 0", frame[0])
	}

	st := tr.Status()
	if st.State != StateStreaming {
		t.Errorf("state = %v, want streaming", st.State)
	}
	if st.Port != "/dev/ttyUSB0" {
		t.Errorf("status port = %q, want /dev/ttyUSB0", st.Port)
	}

	fp.mu.Lock()
	breaks, writes := fp.breaks, len(fp.writes)
	fp.mu.Unlock()
	if breaks < writes {
		t.Errorf("breaks = %d < writes = %d; want a break before every frame", breaks, writes)
	}
}

func TestDebounceHoldsEditsAndSendNowFlushes(t *testing.T) {
	levels := NewLevels()
	fp := &fakePort{}
	tr := NewTransmitter(levels)
	tr.Debounce = 10 * time.Second // hold edits for the whole test
	tr.Open = func(path string) (serial.Port, error) { return fp, nil }
	tr.Start()
	defer tr.Stop()

	tr.SelectPort("/dev/ttyUSB0")
	waitFor(t, 2*time.Second, "first frame", func() bool { return fp.writeCount() >= 1 })

	levels.Set(5, 200)
	time.Sleep(100 * time.Millisecond)
	if got := fp.lastWrite()[6]; got != 0 {
		t.Errorf("channel 5 = %d on the wire before debounce fired, want 0", got)
	}

	if err := tr.SendNow(); err != nil {
		t.Fatalf("SendNow: %v", err)
	}
	if got := fp.lastWrite()[6]; got != 200 {
		t.Errorf("channel 5 = %d after SendNow, want 200", got)
	}
}

func TestEditReachesWireAfterDebounce(t *testing.T) {
	levels := NewLevels()
	fp := &fakePort{}
	tr := NewTransmitter(levels)
	tr.Debounce = 30 * time.Millisecond
	tr.Open = func(path string) (serial.Port, error) { return fp, nil }
	tr.Start()
	defer tr.Stop()

	tr.SelectPort("/dev/ttyUSB0")
	waitFor(t, 2*time.Second, "first frame", func() bool { return fp.writeCount() >= 1 })

	levels.Set(10, 64)
	waitFor(t, 2*time.Second, "edit on the wire", func() bool {
		last := fp.lastWrite()
		return last != nil && last[11] == 64
	})
}

func TestWriteFailureReportsAndRecovers(t *testing.T) {
	fp := &fakePort{failWrites: 2}
	var opens int
	var mu sync.Mutex

	tr := NewTransmitter(NewLevels())
	tr.Open = func(path string) (serial.Port, error) {
		mu.Lock()
		opens++
		mu.Unlock()
		fp.mu.Lock()
		fp.closed = false
		fp.mu.Unlock()
		return fp, nil
	}
	tr.Start()
	defer tr.Stop()

	tr.SelectPort("/dev/ttyACM0")

	// Capture the error status inside the poll: the loop recovers on
	// its own and clears it.
	var sawError string
	waitFor(t, 2*time.Second, "error status", func() bool {
		if st := tr.Status(); st.State == StateError {
			sawError = st.LastError
			return true
		}
		return false
	})
	if sawError == "" {
		t.Error("LastError empty while in error state")
	}

	// Loop keeps retrying and comes back once the device behaves.
	waitFor(t, 2*time.Second, "recovery", func() bool {
		st := tr.Status()
		return st.State == StateStreaming && st.FramesSent >= 1
	})
	mu.Lock()
	n := opens
	mu.Unlock()
	if n < 2 {
		t.Errorf("opens = %d, want at least 2 (handle dropped and reopened)", n)
	}
}

func TestSelectPortTearsDownCleanly(t *testing.T) {
	a := &fakePort{}
	b := &fakePort{}
	tr := NewTransmitter(NewLevels())
	tr.Open = func(path string) (serial.Port, error) {
		if path == "/dev/a" {
			return a, nil
		}
		return b, nil
	}
	tr.Start()
	defer tr.Stop()

	tr.SelectPort("/dev/a")
	waitFor(t, 2*time.Second, "frames on a", func() bool { return a.writeCount() >= 1 })

	tr.SelectPort("/dev/b")
	waitFor(t, 2*time.Second, "frames on b", func() bool { return b.writeCount() >= 1 })

	a.mu.Lock()
	drained, closed := a.drains >= 1, a.closed
	a.mu.Unlock()
	if !drained {
		t.Error("old port was not drained before the switch")
	}
	if !closed {
		t.Error("old port was not closed after the switch")
	}
	if got := tr.Status().Port; got != "/dev/b" {
		t.Errorf("status port = %q, want /dev/b", got)
	}
}

func TestSendNowWithoutPort(t *testing.T) {
	tr := NewTransmitter(NewLevels())
	tr.Open = func(path string) (serial.Port, error) { return &fakePort{}, nil }
	tr.Start()
	defer tr.Stop()

	if err := tr.SendNow(); !errors.Is(err, ErrNoPort) {
		t.Errorf("SendNow with no selection = %v, want ErrNoPort", err)
	}
}

func TestPublishKeepsStartCode(t *testing.T) {
	levels := NewLevels()
	levels.Set(0, 255)
	tr := NewTransmitter(levels)

	tr.publish()
	if tr.frame[0] != 0 {
		t.Errorf("frame[0] = %d, want start code 0", tr.frame[0])
	}
	if tr.frame[1] != 255 {
		t.Errorf("frame[1] = %d, want 255", tr.frame[1])
	}
}
