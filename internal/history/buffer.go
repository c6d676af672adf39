// Package history keeps the last few delivered messages per chat in memory.
// When a message is blocked or flagged, the surrounding conversation is
// attached to the audit entry so moderators see the exchange in context.
package history

import "sync"

// DefaultCapacity is the number of recent messages retained per chat.
const DefaultCapacity = 5

// Message is a single delivered message retained for context.
type Message struct {
	From string `json:"from"` // sender's account fingerprint
	Text string `json:"text"`
	Ts   int64  `json:"ts"`
}

// Buffer stores the last N messages per chat. It is goroutine-safe and uses
// a fixed-size ring per chat internally.
type Buffer struct {
	mu       sync.RWMutex
	capacity int
	rings    map[string]*ring // chatID -> ring
}

type ring struct {
	items []Message
	pos   int
	count int
}

// NewBuffer creates an empty Buffer retaining capacity messages per chat.
// A non-positive capacity falls back to DefaultCapacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		capacity: capacity,
		rings:    make(map[string]*ring),
	}
}

// Add appends a message to the chat's ring. When the ring is full, the
// oldest message is overwritten.
func (b *Buffer) Add(chatID string, msg Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	r, ok := b.rings[chatID]
	if !ok {
		r = &ring{items: make([]Message, b.capacity)}
		b.rings[chatID] = r
	}

	r.items[r.pos] = msg
	r.pos = (r.pos + 1) % b.capacity
	if r.count < b.capacity {
		r.count++
	}
}

// Recent returns the retained messages for a chat in chronological order
// (oldest first). Returns an empty slice if the chat has no history.
func (b *Buffer) Recent(chatID string) []Message {
	b.mu.RLock()
	defer b.mu.RUnlock()

	r, ok := b.rings[chatID]
	if !ok {
		return []Message{}
	}

	result := make([]Message, r.count)
	// The oldest message sits at (pos - count) mod capacity.
	start := (r.pos - r.count + b.capacity) % b.capacity
	for i := 0; i < r.count; i++ {
		result[i] = r.items[(start+i)%b.capacity]
	}
	return result
}

// Drop deletes the history for a chat (called when a chat ends).
func (b *Buffer) Drop(chatID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.rings, chatID)
}
