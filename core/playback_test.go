package turntaking

import (
	"sync"
	"testing"
	"time"
)

type armedMark struct {
	mark     string
	callback func(string)
}

// fakePlaybackDevice is a callback-mark device whose mark completions are
// driven manually by the test.
type fakePlaybackDevice struct {
	mu     sync.Mutex
	frames [][]float32
	clears int

	markCh chan armedMark
}

func newFakePlaybackDevice() *fakePlaybackDevice {
	return &fakePlaybackDevice{markCh: make(chan armedMark, 16)}
}

func (f *fakePlaybackDevice) SendAudio(frame []float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, frame)
	return nil
}

func (f *fakePlaybackDevice) Mark(mark string, callback func(string)) error {
	f.markCh <- armedMark{mark: mark, callback: callback}
	return nil
}

func (f *fakePlaybackDevice) ClearBuffer() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
}

func (f *fakePlaybackDevice) Close() error { return nil }

func (f *fakePlaybackDevice) sentFrames() [][]float32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]float32(nil), f.frames...)
}

func (f *fakePlaybackDevice) clearCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clears
}

// awaitMark returns the next armed mark or fails the test.
func (f *fakePlaybackDevice) awaitMark(t *testing.T) armedMark {
	t.Helper()
	select {
	case m := <-f.markCh:
		return m
	case <-time.After(time.Second):
		t.Fatalf("expected a mark to be armed")
		return armedMark{}
	}
}

func (f *fakePlaybackDevice) expectNoMark(t *testing.T) {
	t.Helper()
	select {
	case m := <-f.markCh:
		t.Fatalf("expected no armed mark, got %q", m.mark)
	case <-time.After(50 * time.Millisecond):
	}
}

func newTestScheduler(device *fakePlaybackDevice) (*playbackScheduler, chan uint64) {
	output := newPlaybackOutput(device)
	drained := make(chan uint64, 16)
	scheduler := newPlaybackScheduler(output, func(generation uint64) {
		drained <- generation
	})
	return scheduler, drained
}

// awaitDrain returns the generation carried by the next drain signal.
func awaitDrain(t *testing.T, drained chan uint64) uint64 {
	t.Helper()
	select {
	case generation := <-drained:
		return generation
	case <-time.After(time.Second):
		t.Fatalf("expected a drain signal")
		return 0
	}
}

func expectNoDrain(t *testing.T, drained chan uint64) {
	t.Helper()
	select {
	case <-drained:
		t.Fatalf("expected no drain signal")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPlaybackSchedulerRendersBuffersInArrivalOrder(t *testing.T) {
	device := newFakePlaybackDevice()
	scheduler, drained := newTestScheduler(device)

	first := []float32{0.1}
	second := []float32{0.2}
	third := []float32{0.3}

	scheduler.Enqueue(first)
	scheduler.Enqueue(second)
	scheduler.Enqueue(third)

	if got := scheduler.Pending(); got != 3 {
		t.Fatalf("expected 3 pending buffers, got %d", got)
	}

	mark := device.awaitMark(t)
	device.expectNoMark(t)
	expectNoDrain(t, drained)
	mark.callback(mark.mark)

	mark = device.awaitMark(t)
	mark.callback(mark.mark)

	mark = device.awaitMark(t)
	expectNoDrain(t, drained)
	mark.callback(mark.mark)

	if generation := awaitDrain(t, drained); generation != scheduler.Generation() {
		t.Fatalf("expected natural drain to carry the current generation, got %d", generation)
	}

	frames := device.sentFrames()
	if len(frames) != 3 {
		t.Fatalf("expected 3 rendered frames, got %d", len(frames))
	}
	if frames[0][0] != first[0] || frames[1][0] != second[0] || frames[2][0] != third[0] {
		t.Fatalf("expected frames rendered in arrival order, got %v", frames)
	}
	if got := scheduler.Pending(); got != 0 {
		t.Fatalf("expected no pending buffers after drain, got %d", got)
	}
}

func TestPlaybackSchedulerRendersOneBufferAtATime(t *testing.T) {
	device := newFakePlaybackDevice()
	scheduler, _ := newTestScheduler(device)

	scheduler.Enqueue([]float32{0.1})
	scheduler.Enqueue([]float32{0.2})

	device.awaitMark(t)
	if got := len(device.sentFrames()); got != 1 {
		t.Fatalf("expected only the head buffer to be written, got %d writes", got)
	}
	device.expectNoMark(t)
}

func TestPlaybackSchedulerClearDropsQueueAndSignalsOnce(t *testing.T) {
	device := newFakePlaybackDevice()
	scheduler, drained := newTestScheduler(device)

	scheduler.Enqueue([]float32{0.1})
	scheduler.Enqueue([]float32{0.2})
	mark := device.awaitMark(t)

	scheduler.Clear()

	if generation := awaitDrain(t, drained); generation == scheduler.Generation() {
		t.Fatalf("expected clear drain to carry the superseded generation, got current %d", generation)
	}
	if got := scheduler.Pending(); got != 0 {
		t.Fatalf("expected no pending buffers after clear, got %d", got)
	}
	if got := device.clearCalls(); got != 1 {
		t.Fatalf("expected device buffer cleared once, got %d", got)
	}

	// A completion from the cleared batch must not restart rendering or
	// signal a second drain.
	mark.callback(mark.mark)
	device.expectNoMark(t)
	expectNoDrain(t, drained)
}

func TestPlaybackSchedulerAcceptsNewBuffersAfterClear(t *testing.T) {
	device := newFakePlaybackDevice()
	scheduler, drained := newTestScheduler(device)

	scheduler.Enqueue([]float32{0.1})
	stale := device.awaitMark(t)
	scheduler.Clear()
	awaitDrain(t, drained)
	stale.callback(stale.mark)

	fresh := []float32{0.9}
	scheduler.Enqueue(fresh)

	mark := device.awaitMark(t)
	mark.callback(mark.mark)
	if generation := awaitDrain(t, drained); generation != scheduler.Generation() {
		t.Fatalf("expected post-clear drain to carry the current generation, got %d", generation)
	}

	frames := device.sentFrames()
	if got := frames[len(frames)-1][0]; got != fresh[0] {
		t.Fatalf("expected fresh frame rendered after clear, got %v", got)
	}
}

func TestPlaybackSchedulerPendingCountsRenderingBuffer(t *testing.T) {
	device := newFakePlaybackDevice()
	scheduler, drained := newTestScheduler(device)

	scheduler.Enqueue([]float32{0.1})
	mark := device.awaitMark(t)

	if got := scheduler.Pending(); got != 1 {
		t.Fatalf("expected rendering buffer to count as pending, got %d", got)
	}

	mark.callback(mark.mark)
	awaitDrain(t, drained)

	if got := scheduler.Pending(); got != 0 {
		t.Fatalf("expected no pending buffers, got %d", got)
	}
}
