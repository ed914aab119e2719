package runner

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/torosent/docloader/internal/store"
)

// Operation is the key-value operation a KV workload issues.
type Operation int

const (
	OperationInsert Operation = iota
	OperationUpdate
	OperationGet
	OperationDelete
)

func (o Operation) String() string {
	switch o {
	case OperationInsert:
		return "insert"
	case OperationUpdate:
		return "update"
	case OperationGet:
		return "get"
	case OperationDelete:
		return "delete"
	default:
		return fmt.Sprintf("operation(%d)", int(o))
	}
}

// NeedsDocument reports whether the operation carries a payload.
func (o Operation) NeedsDocument() bool {
	return o == OperationInsert || o == OperationUpdate
}

// ParseOperation accepts the operation names used in settings files.
func ParseOperation(s string) (Operation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "insert", "create":
		return OperationInsert, nil
	case "update", "upsert":
		return OperationUpdate, nil
	case "get", "read":
		return OperationGet, nil
	case "delete", "remove":
		return OperationDelete, nil
	default:
		return 0, fmt.Errorf("unknown operation %q", s)
	}
}

// WorkItem is one dispatched operation.
type WorkItem struct {
	Seq int
	Key string
	Op  Operation
	Doc interface{}
}

// Key derives the document key for sequence number seq.
func Key(prefix string, seq int) string {
	return prefix + strconv.Itoa(seq)
}

// Execute issues the item's operation against target.
func (w WorkItem) Execute(ctx context.Context, target store.Target) error {
	switch w.Op {
	case OperationInsert:
		return target.Insert(ctx, w.Key, w.Doc)
	case OperationUpdate:
		return target.Upsert(ctx, w.Key, w.Doc)
	case OperationGet:
		return target.Get(ctx, w.Key)
	case OperationDelete:
		return target.Remove(ctx, w.Key)
	default:
		return fmt.Errorf("%w: %s", store.ErrUnsupported, w.Op)
	}
}
