// Package memory provides an in-process store backend used for dry runs and tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"github.com/torosent/docloader/internal/store"
)

// Table is an in-memory target holding JSON-encoded documents.
type Table struct {
	name    string
	latency time.Duration

	mu   sync.RWMutex
	docs map[string][]byte
}

// NewTable creates an empty table. A non-zero latency delays every operation.
func NewTable(name string, latency time.Duration) *Table {
	return &Table{
		name:    name,
		latency: latency,
		docs:    make(map[string][]byte),
	}
}

// NewTargets creates one table per name.
func NewTargets(latency time.Duration, names ...string) []store.Target {
	targets := make([]store.Target, len(names))
	for i, name := range names {
		targets[i] = NewTable(name, latency)
	}
	return targets
}

func (t *Table) Name() string {
	return t.name
}

func (t *Table) Insert(ctx context.Context, key string, doc interface{}) error {
	if err := t.wait(ctx); err != nil {
		return err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.docs[key]; ok {
		return fmt.Errorf("insert %s: %w", key, store.ErrDocumentExists)
	}
	t.docs[key] = data
	return nil
}

func (t *Table) Upsert(ctx context.Context, key string, doc interface{}) error {
	if err := t.wait(ctx); err != nil {
		return err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	t.mu.Lock()
	t.docs[key] = data
	t.mu.Unlock()
	return nil
}

func (t *Table) Get(ctx context.Context, key string) error {
	if err := t.wait(ctx); err != nil {
		return err
	}
	t.mu.RLock()
	_, ok := t.docs[key]
	t.mu.RUnlock()
	if !ok {
		return fmt.Errorf("get %s: %w", key, store.ErrDocumentNotFound)
	}
	return nil
}

func (t *Table) Remove(ctx context.Context, key string) error {
	if err := t.wait(ctx); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.docs[key]; !ok {
		return fmt.Errorf("remove %s: %w", key, store.ErrDocumentNotFound)
	}
	delete(t.docs, key)
	return nil
}

// Len returns the number of stored documents.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.docs)
}

// Document returns the stored JSON for key.
func (t *Table) Document(key string) ([]byte, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	data, ok := t.docs[key]
	return data, ok
}

func (t *Table) wait(ctx context.Context) error {
	if t.latency <= 0 {
		return nil
	}
	timer := time.NewTimer(t.latency)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", t.name, store.ErrTimeout)
	}
}

// Querier answers statements against a group of tables. It understands a single
// form, "SELECT <path> FROM <table>", returning one row per stored document whose
// JSON has <path>; any other statement returns every document of every table.
type Querier struct {
	tables map[string]*Table
}

// NewQuerier builds a Querier over the given targets; non-Table targets are ignored.
func NewQuerier(targets ...store.Target) *Querier {
	q := &Querier{tables: make(map[string]*Table)}
	for _, t := range targets {
		if table, ok := t.(*Table); ok {
			q.tables[strings.ToLower(table.Name())] = table
		}
	}
	return q
}

func (q *Querier) Query(ctx context.Context, statement string) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, from := parseSelect(statement)
	var rows [][]byte
	for name, table := range q.tables {
		if from != "" && name != from {
			continue
		}
		table.mu.RLock()
		for _, doc := range table.docs {
			if path == "" || path == "*" {
				rows = append(rows, doc)
				continue
			}
			if value := gjson.GetBytes(doc, path); value.Exists() {
				rows = append(rows, []byte(value.Raw))
			}
		}
		table.mu.RUnlock()
	}
	if from != "" {
		if _, ok := q.tables[from]; !ok {
			return nil, fmt.Errorf("query %q: unknown table %s", statement, from)
		}
	}
	return rows, nil
}

func parseSelect(statement string) (path, from string) {
	fields := strings.Fields(statement)
	if len(fields) != 4 || !strings.EqualFold(fields[0], "select") || !strings.EqualFold(fields[2], "from") {
		return "", ""
	}
	return fields[1], strings.ToLower(strings.TrimSuffix(fields[3], ";"))
}
