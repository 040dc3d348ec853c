package provider

import (
	"sort"
	"sync"

	"github.com/RobBrazier/calibre-plugins/internal/metadata"
)

// Sink receives records from concurrent workers
type Sink interface {
	Put(record metadata.Record)
}

// Queue is a Sink that keeps every record in memory. Safe for concurrent use.
type Queue struct {
	mu      sync.Mutex
	records []metadata.Record
}

// Put appends a record
func (q *Queue) Put(record metadata.Record) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.records = append(q.records, record)
}

// Len returns the number of queued records
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.records)
}

// Drain removes and returns all records ordered by relevance
func (q *Queue) Drain() []metadata.Record {
	q.mu.Lock()
	out := q.records
	q.records = nil
	q.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Relevance < out[j].Relevance
	})
	return out
}
