package pipeline

import "sync"

// Turn is one prior exchange shown to the classifier.
type Turn struct {
	Query string
	Reply string
}

// History is a bounded ring of recent turns, shared by every run of a
// Controller. The oldest turn is evicted first.
type History struct {
	mu    sync.Mutex
	turns []Turn
	size  int
}

// NewHistory creates a ring holding at most size turns.
func NewHistory(size int) *History {
	if size < 0 {
		size = 0
	}
	return &History{size: size, turns: make([]Turn, 0, size)}
}

// Add appends t, evicting the oldest turn when full.
func (h *History) Add(t Turn) {
	if h == nil || h.size == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.turns) == h.size {
		copy(h.turns, h.turns[1:])
		h.turns = h.turns[:h.size-1]
	}
	h.turns = append(h.turns, t)
}

// Snapshot returns the turns oldest first.
func (h *History) Snapshot() []Turn {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}
