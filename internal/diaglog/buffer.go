package diaglog

import "github.com/valter-silva-au/sitekit/pkg/models"

// ringBuffer is a fixed-capacity FIFO of entries. Pushing onto a full buffer
// overwrites the oldest entry.
type ringBuffer struct {
	entries []models.LogEntry
	head    int // index of the oldest entry
	size    int
}

func newRingBuffer(capacity int) *ringBuffer {
	return &ringBuffer{entries: make([]models.LogEntry, capacity)}
}

func (b *ringBuffer) capacity() int {
	return len(b.entries)
}

func (b *ringBuffer) len() int {
	return b.size
}

func (b *ringBuffer) push(e models.LogEntry) {
	if b.size < len(b.entries) {
		b.entries[(b.head+b.size)%len(b.entries)] = e
		b.size++
		return
	}
	b.entries[b.head] = e
	b.head = (b.head + 1) % len(b.entries)
}

// snapshot returns a copy of the entries, oldest first.
func (b *ringBuffer) snapshot() []models.LogEntry {
	out := make([]models.LogEntry, b.size)
	for i := 0; i < b.size; i++ {
		out[i] = b.entries[(b.head+i)%len(b.entries)]
	}
	return out
}

func (b *ringBuffer) reset() {
	clear(b.entries)
	b.head = 0
	b.size = 0
}
