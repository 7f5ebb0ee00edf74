package audio

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestQueueBoundsConcurrency(t *testing.T) {
	q := NewQueue(2)

	started := make(chan string, 16)
	release := make(chan struct{})
	orig := DecodeFunc
	DecodeFunc = func(name string, _ []byte) (*Asset, error) {
		started <- name
		<-release
		return &Asset{SampleRate: 44100, Channels: 2}, nil
	}
	defer func() { DecodeFunc = orig }()

	var mu sync.Mutex
	doneCount := make(map[string]int)
	for i := 0; i < 5; i++ {
		name := fmt.Sprintf("clip-%d", i)
		q.Submit(name, nil, func(_ *Asset, _ error) {
			mu.Lock()
			doneCount[name]++
			mu.Unlock()
		})
	}

	// Exactly the first two are admitted.
	first := map[string]bool{readName(t, started): true, readName(t, started): true}
	if !first["clip-0"] || !first["clip-1"] {
		t.Errorf("first admissions = %v, want clip-0 and clip-1", first)
	}
	select {
	case name := <-started:
		t.Fatalf("%s started with both slots busy", name)
	case <-time.After(50 * time.Millisecond):
	}
	if got := q.Active(); got != 2 {
		t.Errorf("Active() = %d, want 2", got)
	}
	if got := q.Backlog(); got != 3 {
		t.Errorf("Backlog() = %d, want 3", got)
	}

	// Each completion admits exactly the next waiter, in submit order.
	for _, want := range []string{"clip-2", "clip-3", "clip-4"} {
		release <- struct{}{}
		if got := readName(t, started); got != want {
			t.Errorf("admitted %s, want %s", got, want)
		}
	}

	// Drain the last two running decodes.
	release <- struct{}{}
	release <- struct{}{}

	// Callbacks run before the slot is released, so wait for both.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(doneCount)
		mu.Unlock()
		if n == 5 && q.Active() == 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(doneCount) != 5 {
		t.Fatalf("completions = %d, want 5", len(doneCount))
	}
	for name, n := range doneCount {
		if n != 1 {
			t.Errorf("%s completed %d times, want exactly once", name, n)
		}
	}
	if got := q.Active(); got != 0 {
		t.Errorf("Active() = %d after drain, want 0", got)
	}
}

func readName(t *testing.T, ch chan string) string {
	t.Helper()
	select {
	case name := <-ch:
		return name
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a decode to start")
		return ""
	}
}

func TestQueueFailureIsolation(t *testing.T) {
	q := NewQueue(1)
	orig := DecodeFunc
	DecodeFunc = func(name string, _ []byte) (*Asset, error) {
		if name == "bad" {
			return nil, errors.New("corrupt stream")
		}
		return &Asset{SampleRate: 44100, Channels: 2}, nil
	}
	defer func() { DecodeFunc = orig }()

	type result struct {
		name string
		err  error
	}
	results := make(chan result, 2)
	q.Submit("bad", nil, func(_ *Asset, err error) { results <- result{"bad", err} })
	q.Submit("good", nil, func(_ *Asset, err error) { results <- result{"good", err} })

	for i := 0; i < 2; i++ {
		select {
		case r := <-results:
			switch r.name {
			case "bad":
				if r.err == nil {
					t.Error("bad decode completed without error")
				}
			case "good":
				if r.err != nil {
					t.Errorf("good decode failed: %v (sibling failure leaked)", r.err)
				}
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for completions")
		}
	}
}

func TestQueueDefaultSlots(t *testing.T) {
	if got := NewQueue(0).slots; got != DefaultDecodeSlots {
		t.Errorf("slots = %d, want %d", got, DefaultDecodeSlots)
	}
	if got := NewQueue(-3).slots; got != DefaultDecodeSlots {
		t.Errorf("slots = %d for negative input, want %d", got, DefaultDecodeSlots)
	}
}
