package logger

import (
	"sync"
	"time"
)

const outputBufferCapacity = 2000

type OutputRecord struct {
	Time    time.Time              `json:"time"`
	Level   string                 `json:"level"`
	Message string                 `json:"message"`
	Attrs   map[string]interface{} `json:"attrs,omitempty"`
}

// OutputBuffer keeps the most recent log records in memory so callers
// (e.g. the operations UI) can poll live output without tailing files.
type OutputBuffer struct {
	mu      sync.RWMutex
	records []OutputRecord
	next    int
	full    bool
}

var (
	outputBufferOnce sync.Once
	outputBuffer     *OutputBuffer
)

func GetOutputBuffer() *OutputBuffer {
	outputBufferOnce.Do(func() {
		outputBuffer = &OutputBuffer{
			records: make([]OutputRecord, outputBufferCapacity),
		}
	})

	return outputBuffer
}

func (b *OutputBuffer) Write(level, message string, attrs map[string]interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.records[b.next] = OutputRecord{
		Time:    time.Now().UTC(),
		Level:   level,
		Message: message,
		Attrs:   attrs,
	}

	b.next++
	if b.next == len(b.records) {
		b.next = 0
		b.full = true
	}
}

// Recent returns up to limit records, oldest first.
func (b *OutputBuffer) Recent(limit int) []OutputRecord {
	b.mu.RLock()
	defer b.mu.RUnlock()

	size := b.next
	if b.full {
		size = len(b.records)
	}

	if limit <= 0 || limit > size {
		limit = size
	}

	result := make([]OutputRecord, 0, limit)
	start := b.next - limit
	if start < 0 {
		start += len(b.records)
	}

	for i := 0; i < limit; i++ {
		result = append(result, b.records[(start+i)%len(b.records)])
	}

	return result
}
