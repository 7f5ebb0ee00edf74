package audio

import "sync"

// DefaultDecodeSlots bounds concurrent decodes. Decoding is CPU-heavy;
// more than two at once makes bulk imports stall the UI.
const DefaultDecodeSlots = 2

type task struct {
	name string
	data []byte
	done func(*Asset, error)
}

// DecodeFunc does the actual decoding; tests swap it out.
var DecodeFunc = Decode

// Queue admits at most slots decodes at a time; the rest wait in FIFO
// order. Each completion, success or failure, admits exactly the next
// waiting task. A failure reaches only its own callback.
type Queue struct {
	mu      sync.Mutex
	slots   int
	active  int
	waiting []task
}

func NewQueue(slots int) *Queue {
	if slots <= 0 {
		slots = DefaultDecodeSlots
	}
	return &Queue{slots: slots}
}

// Submit enqueues one decode. done runs on a worker goroutine.
func (q *Queue) Submit(name string, data []byte, done func(*Asset, error)) {
	t := task{name: name, data: data, done: done}

	q.mu.Lock()
	if q.active < q.slots {
		q.active++
		q.mu.Unlock()
		go q.run(t)
		return
	}
	q.waiting = append(q.waiting, t)
	q.mu.Unlock()
}

// run decodes t, then keeps draining the wait list until it is empty.
func (q *Queue) run(t task) {
	for {
		asset, err := DecodeFunc(t.name, t.data)
		t.done(asset, err)

		q.mu.Lock()
		if len(q.waiting) == 0 {
			q.active--
			q.mu.Unlock()
			return
		}
		t = q.waiting[0]
		q.waiting = q.waiting[1:]
		q.mu.Unlock()
	}
}

// Active returns the number of running decodes.
func (q *Queue) Active() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.active
}

// Backlog returns the number of tasks still waiting for a slot.
func (q *Queue) Backlog() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.waiting)
}
