package vision

// History is a fixed-capacity ring that keeps the most recent values.
// Appending to a full ring overwrites the oldest value.
type History[T any] struct {
	buf   []T
	start int
	size  int
}

// NewHistory creates a ring holding up to capacity values. A capacity below
// one is raised to one.
func NewHistory[T any](capacity int) *History[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &History[T]{buf: make([]T, capacity)}
}

// Append adds v as the newest value.
func (h *History[T]) Append(v T) {
	if h.size < len(h.buf) {
		h.buf[(h.start+h.size)%len(h.buf)] = v
		h.size++
		return
	}
	h.buf[h.start] = v
	h.start = (h.start + 1) % len(h.buf)
}

// Latest returns the newest value, or false when empty.
func (h *History[T]) Latest() (T, bool) {
	var zero T
	if h.size == 0 {
		return zero, false
	}
	return h.buf[(h.start+h.size-1)%len(h.buf)], true
}

// Len returns the number of stored values.
func (h *History[T]) Len() int { return h.size }

// Cap returns the ring capacity.
func (h *History[T]) Cap() int { return len(h.buf) }

// All returns the stored values oldest first.
func (h *History[T]) All() []T {
	out := make([]T, h.size)
	for i := range out {
		out[i] = h.buf[(h.start+i)%len(h.buf)]
	}
	return out
}
