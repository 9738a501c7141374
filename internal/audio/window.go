// Package audio provides the bounded rolling sample window and PCM/WAV
// conversion helpers used by streaming transcription sessions.
package audio

// Window is a bounded, append-only buffer holding the most recent audio
// samples, normalized to float32 in [-1.0, 1.0]. When capacity is
// exceeded the oldest samples are evicted first, so the buffer always
// represents the trailing span of the stream.
//
// Window is not safe for concurrent use; it is owned and serialized by
// a single streaming session.
type Window struct {
	buf      []float32
	capacity int
}

// NewWindow creates a window holding at most capacity samples.
// A non-positive capacity is treated as 1.
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = 1
	}
	return &Window{
		buf:      make([]float32, 0, capacity),
		capacity: capacity,
	}
}

// Append pushes samples onto the window, evicting the oldest samples
// beyond capacity. Appending an empty slice is a no-op. Append never
// fails.
func (w *Window) Append(samples []float32) {
	if len(samples) == 0 {
		return
	}

	// A single oversized append reduces to keeping its tail.
	if len(samples) >= w.capacity {
		w.buf = w.buf[:w.capacity]
		copy(w.buf, samples[len(samples)-w.capacity:])
		return
	}

	overflow := len(w.buf) + len(samples) - w.capacity
	if overflow > 0 {
		copy(w.buf, w.buf[overflow:])
		w.buf = w.buf[:len(w.buf)-overflow]
	}
	w.buf = append(w.buf, samples...)
}

// Snapshot returns a copy of the most recent n samples, or fewer if the
// window holds fewer. The copy is safe to hand to a transcription task
// while new audio keeps arriving.
func (w *Window) Snapshot(n int) []float32 {
	if n <= 0 || len(w.buf) == 0 {
		return nil
	}
	if n > len(w.buf) {
		n = len(w.buf)
	}
	out := make([]float32, n)
	copy(out, w.buf[len(w.buf)-n:])
	return out
}

// Len returns the current number of samples in the window.
func (w *Window) Len() int {
	return len(w.buf)
}

// Capacity returns the maximum number of samples the window retains.
func (w *Window) Capacity() int {
	return w.capacity
}
