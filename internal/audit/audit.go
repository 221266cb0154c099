// Package audit emits one JSON line per search or tool call.
package audit

import (
	"encoding/json"
	"io"
	"log"
	"sync"
	"time"
)

// Entry describes a single audited query.
type Entry struct {
	Source   string        `json:"source"`
	Tool     string        `json:"tool,omitempty"`
	Query    string        `json:"query"`
	Limit    int           `json:"limit"`
	Results  int           `json:"results"`
	Cached   bool          `json:"cached"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
	Time     time.Time     `json:"time"`
}

// Logger emits audit entries in JSON format.
type Logger struct {
	enabled bool
	mu      sync.Mutex
	out     io.Writer
}

// New creates a new audit logger writing to the provided writer.
func New(enabled bool, out io.Writer) *Logger {
	if out == nil {
		out = log.Writer()
	}
	return &Logger{enabled: enabled, out: out}
}

// Log writes an audit entry if enabled. A zero Time is stamped with now.
func (l *Logger) Log(entry Entry) {
	if l == nil || !l.enabled {
		return
	}
	if entry.Time.IsZero() {
		entry.Time = time.Now()
	}
	entry.Time = entry.Time.UTC()
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out.Write(append(data, '\n'))
}
