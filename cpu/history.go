package cpu

import (
	"errors"
)

// History is a bounded FIFO of recently executed instructions.
type History struct {
	items   []string
	size    int // Current number of elements in the queue
	maxSize int
}

// NewHistory creates an empty history keeping at most maxSize entries.
func NewHistory(maxSize int) *History {
	h := &History{}
	h.maxSize = maxSize
	return h
}

// Enqueue adds an item, dropping the oldest one when full.
func (h *History) Enqueue(item string) {
	if h.maxSize <= 0 {
		return
	}
	if h.size == h.maxSize {
		h.Dequeue()
	}

	h.items = append(h.items, item)
	h.size++
}

// Dequeue removes and returns the oldest item.
func (h *History) Dequeue() (string, error) {
	if h.size == 0 {
		return "", errors.New("history is empty")
	}
	frontItem := h.items[0]
	h.items = h.items[1:]
	h.size--
	return frontItem, nil
}

// IsEmpty checks if the history is empty.
func (h *History) IsEmpty() bool {
	return h.size == 0
}

// Items returns the entries, oldest first.
func (h *History) Items() []string {
	return append([]string(nil), h.items...)
}
