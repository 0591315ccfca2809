package engine

// History is a bounded series kept newest first.
type History struct {
	buf   []float64
	start int
	count int
}

// NewHistory returns a History holding at most capacity values.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{buf: make([]float64, capacity)}
}

// Push records v as the newest value, evicting the oldest when full.
func (h *History) Push(v float64) {
	h.start = (h.start - 1 + len(h.buf)) % len(h.buf)
	h.buf[h.start] = v
	if h.count < len(h.buf) {
		h.count++
	}
}

// Len is the number of stored values.
func (h *History) Len() int { return h.count }

// Values copies the series out, newest first.
func (h *History) Values() []float64 {
	out := make([]float64, h.count)
	for i := range out {
		out[i] = h.buf[(h.start+i)%len(h.buf)]
	}
	return out
}
