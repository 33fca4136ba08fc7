package events

const (
	// KindPlaybackDrained identifies the playback queue emptying.
	KindPlaybackDrained Kind = "playback.drained"
	// KindCaptureFailed identifies a capture device failure.
	KindCaptureFailed Kind = "capture.failed"
)

// PlaybackDrained marks the playback queue emptying, naturally or by a clear.
// Generation identifies the batch the drain belongs to; a drain whose
// generation has been superseded by a clear must not complete a handover.
type PlaybackDrained struct {
	Base
	Generation uint64
}

// NewPlaybackDrained creates a playback drained event for one batch.
func NewPlaybackDrained(generation uint64) PlaybackDrained {
	return PlaybackDrained{Base: NewBase(KindPlaybackDrained), Generation: generation}
}

// CaptureFailed marks a capture device failure. Fatal to voice mode only;
// the session continues in text-only mode.
type CaptureFailed struct {
	Base
	Err error
}

// NewCaptureFailed creates a capture failed event.
func NewCaptureFailed(err error) CaptureFailed {
	return CaptureFailed{Base: NewBase(KindCaptureFailed), Err: err}
}
