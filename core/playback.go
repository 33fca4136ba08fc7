package turntaking

import (
	"sync"

	"github.com/google/uuid"
)

// playbackBuffer is one decoded agent audio frame waiting to render, tagged
// with its arrival order. Owned by the scheduler from enqueue until its
// rendering completes or a clear discards it.
type playbackBuffer struct {
	id    string
	seq   uint64
	frame []float32
}

// playbackScheduler renders enqueued buffers strictly in arrival order, one
// at a time, and reports when the whole queue has drained.
//
// Completion notifications come from the audio device asynchronously; a
// monotonically increasing generation token stamped into every in-flight
// completion lets Clear discard late notifications belonging to a cleared
// batch instead of trying to cancel the device callback itself.
type playbackScheduler struct {
	mu sync.Mutex

	out *playbackOutput

	queue     []playbackBuffer
	rendering bool

	generation uint64
	nextSeq    uint64

	// onDrained fires exactly once per drain, natural or cleared, stamped
	// with the generation of the batch that drained. Never invoked with mu
	// held.
	onDrained func(generation uint64)
}

func newPlaybackScheduler(out *playbackOutput, onDrained func(generation uint64)) *playbackScheduler {
	if onDrained == nil {
		onDrained = func(uint64) {}
	}

	return &playbackScheduler{out: out, onDrained: onDrained}
}

// Enqueue appends a frame and, if nothing is currently rendering, begins
// rendering the head of the queue.
func (s *playbackScheduler) Enqueue(frame []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queue = append(s.queue, playbackBuffer{
		id:    uuid.NewString(),
		seq:   s.nextSeq,
		frame: frame,
	})
	s.nextSeq++

	if !s.rendering {
		s.startNextLocked()
	}
}

// startNextLocked hands the queue head to the device and arms its completion
// mark. The completion closure captures the current generation; completions
// from an older generation are ignored.
func (s *playbackScheduler) startNextLocked() {
	buffer := s.queue[0]
	s.queue = s.queue[1:]
	s.rendering = true

	generation := s.generation
	s.out.SendAudio(buffer.frame)
	s.out.Mark(buffer.id, func(string) {
		s.completeBuffer(generation)
	})
}

func (s *playbackScheduler) completeBuffer(generation uint64) {
	s.mu.Lock()

	if generation != s.generation {
		// Late completion from a cleared batch; the clear already signalled.
		s.mu.Unlock()
		return
	}

	s.rendering = false
	if len(s.queue) > 0 {
		s.startNextLocked()
		s.mu.Unlock()
		return
	}

	s.mu.Unlock()
	s.onDrained(generation)
}

// Clear immediately drops every buffered and in-flight buffer, invalidates
// outstanding completion notifications, and signals one drain. The drain
// carries the superseded generation so it cannot be mistaken for a drain of
// buffers enqueued after the clear.
func (s *playbackScheduler) Clear() {
	s.mu.Lock()
	cleared := s.generation
	s.generation++
	s.queue = nil
	s.rendering = false
	s.out.Clear()
	s.mu.Unlock()

	// The coordinator loop itself issues clears; signalling asynchronously
	// keeps the drain notification from re-entering the loop that caused it.
	go s.onDrained(cleared)
}

// Generation reports the token identifying the current buffer batch.
func (s *playbackScheduler) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.generation
}

// Pending reports how many buffers are queued or rendering.
func (s *playbackScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := len(s.queue)
	if s.rendering {
		pending++
	}
	return pending
}
