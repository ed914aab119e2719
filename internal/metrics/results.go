package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
)

// OutcomeSuccess is the label recorded for operations that completed without error.
const OutcomeSuccess = "success"

// ResultTable maps outcome labels to counts.
type ResultTable map[string]int64

// Total sums every label.
func (t ResultTable) Total() int64 {
	var total int64
	for _, v := range t {
		total += v
	}
	return total
}

// Failures sums every label except success.
func (t ResultTable) Failures() int64 {
	return t.Total() - t[OutcomeSuccess]
}

// OutcomeCount is one row of a sorted ResultTable.
type OutcomeCount struct {
	Label string `json:"label" yaml:"label"`
	Count int64  `json:"count" yaml:"count"`
}

// Sorted returns rows ordered by descending count, then label.
func (t ResultTable) Sorted() []OutcomeCount {
	rows := make([]OutcomeCount, 0, len(t))
	for label, count := range t {
		rows = append(rows, OutcomeCount{Label: label, Count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count == rows[j].Count {
			return rows[i].Label < rows[j].Label
		}
		return rows[i].Count > rows[j].Count
	})
	return rows
}

// Results is a concurrency-safe counter keyed by outcome label.
type Results struct {
	mu     sync.RWMutex
	counts map[string]*int64
}

func NewResults() *Results {
	return &Results{counts: make(map[string]*int64)}
}

// Increment adds one to label.
func (r *Results) Increment(label string) {
	r.Add(label, 1)
}

// Add adds n to label, creating the entry if absent.
func (r *Results) Add(label string, n int64) {
	r.mu.RLock()
	counter, ok := r.counts[label]
	r.mu.RUnlock()
	if ok {
		atomic.AddInt64(counter, n)
		return
	}

	r.mu.Lock()
	counter, ok = r.counts[label]
	if !ok {
		counter = new(int64)
		r.counts[label] = counter
	}
	r.mu.Unlock()
	atomic.AddInt64(counter, n)
}

// Get returns the current count for label.
func (r *Results) Get(label string) int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if counter, ok := r.counts[label]; ok {
		return atomic.LoadInt64(counter)
	}
	return 0
}

// Snapshot returns a point-in-time copy of the table.
func (r *Results) Snapshot() ResultTable {
	r.mu.RLock()
	defer r.mu.RUnlock()
	table := make(ResultTable, len(r.counts))
	for label, counter := range r.counts {
		table[label] = atomic.LoadInt64(counter)
	}
	return table
}

// Total returns the sum of all counts.
func (r *Results) Total() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var total int64
	for _, counter := range r.counts {
		total += atomic.LoadInt64(counter)
	}
	return total
}
