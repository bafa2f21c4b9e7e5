package session

import "github.com/aki/runpad/internal/runtime"

// DefaultMaxHistory bounds a session's command history.
const DefaultMaxHistory = 100

// history is a bounded ring of executed commands, oldest evicted first.
// Not safe for concurrent use; the owning session guards it.
type history struct {
	max     int
	entries []runtime.HistoryEntry
}

func newHistory(max int) *history {
	if max <= 0 {
		max = DefaultMaxHistory
	}
	return &history{max: max}
}

func (h *history) append(e runtime.HistoryEntry) {
	if len(h.entries) >= h.max {
		overflow := len(h.entries) - h.max + 1
		h.entries = append(h.entries[:0], h.entries[overflow:]...)
	}
	h.entries = append(h.entries, e)
}

// last returns up to n entries, most recent last. n <= 0 returns everything.
func (h *history) last(n int) []runtime.HistoryEntry {
	if n <= 0 || n > len(h.entries) {
		n = len(h.entries)
	}
	out := make([]runtime.HistoryEntry, n)
	copy(out, h.entries[len(h.entries)-n:])
	return out
}

func (h *history) clear() {
	h.entries = h.entries[:0]
}

func (h *history) len() int {
	return len(h.entries)
}
