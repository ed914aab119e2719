package output

import (
	"fmt"
	"io"
	"time"

	log "github.com/sirupsen/logrus"
)

// TextSink writes each snapshot as "label: count" lines, largest count first.
type TextSink struct {
	w io.Writer
}

func NewTextSink(w io.Writer) *TextSink {
	if w == nil {
		w = io.Discard
	}
	return &TextSink{w: w}
}

func (t *TextSink) Emit(s Snapshot) {
	fmt.Fprintf(t.w, "--- %s ---\n", s.Elapsed.Truncate(time.Second))
	for _, row := range s.Outcomes.Sorted() {
		fmt.Fprintf(t.w, "%s: %d\n", row.Label, row.Count)
	}
}

// LogSink logs each snapshot as one structured line.
type LogSink struct {
	logger log.FieldLogger
}

func NewLogSink(logger log.FieldLogger) *LogSink {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &LogSink{logger: logger}
}

func (l *LogSink) Emit(s Snapshot) {
	fields := log.Fields{
		"elapsed": s.Elapsed.Truncate(time.Millisecond).String(),
		"total":   s.Outcomes.Total(),
	}
	for label, count := range s.Outcomes {
		fields["outcome_"+label] = count
	}
	l.logger.WithFields(fields).Info("progress")
}
