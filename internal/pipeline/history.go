package pipeline

// historyRing keeps the most recent observation summaries for one
// camera. Only the worker goroutine touches it, so no locking.
type historyRing struct {
	capacity int
	items    []string
}

func newHistoryRing(capacity int) *historyRing {
	if capacity <= 0 {
		capacity = 10
	}
	return &historyRing{capacity: capacity}
}

// add appends a summary, evicting the oldest when full.
func (h *historyRing) add(summary string) {
	h.items = append(h.items, summary)
	if len(h.items) > h.capacity {
		h.items = h.items[len(h.items)-h.capacity:]
	}
}

// last returns up to n of the most recent summaries, oldest first.
func (h *historyRing) last(n int) []string {
	if n <= 0 || len(h.items) == 0 {
		return nil
	}
	if n > len(h.items) {
		n = len(h.items)
	}
	out := make([]string, n)
	copy(out, h.items[len(h.items)-n:])
	return out
}
