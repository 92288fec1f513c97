package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// LogEntry is one captured record with its attributes flattened by key.
// Attributes added through With are included.
type LogEntry struct {
	Level   slog.Level
	Message string
	Attrs   map[string]slog.Value
}

// Int returns the integer attribute stored under key
func (e LogEntry) Int(key string) (int64, bool) {
	v, ok := e.Attrs[key]
	if !ok || v.Kind() != slog.KindInt64 {
		return 0, false
	}
	return v.Int64(), true
}

// String returns the string form of the attribute stored under key
func (e LogEntry) String(key string) (string, bool) {
	v, ok := e.Attrs[key]
	if !ok {
		return "", false
	}
	return v.String(), true
}

type logSink struct {
	mu      sync.Mutex
	entries []LogEntry
}

// LogCapture is a slog.Handler that keeps every record in memory
type LogCapture struct {
	sink   *logSink
	attrs  []slog.Attr
	prefix string
	t      testing.TB
}

// NewLogCapture returns a logger writing into a fresh capture.
// Records are echoed through t.Logf so they show up with -v.
func NewLogCapture(t testing.TB) (*slog.Logger, *LogCapture) {
	c := &LogCapture{sink: &logSink{}, t: t}
	return slog.New(c), c
}

func (c *LogCapture) Enabled(context.Context, slog.Level) bool { return true }

func (c *LogCapture) Handle(_ context.Context, r slog.Record) error {
	entry := LogEntry{
		Level:   r.Level,
		Message: r.Message,
		Attrs:   make(map[string]slog.Value, len(c.attrs)+r.NumAttrs()),
	}
	for _, a := range c.attrs {
		addAttr(entry.Attrs, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		addAttr(entry.Attrs, c.prefix, a)
		return true
	})

	c.sink.mu.Lock()
	c.sink.entries = append(c.sink.entries, entry)
	c.sink.mu.Unlock()

	if c.t != nil {
		c.t.Logf("[%s] %s", r.Level, r.Message)
	}
	return nil
}

func (c *LogCapture) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *c
	next.attrs = make([]slog.Attr, 0, len(c.attrs)+len(attrs))
	next.attrs = append(next.attrs, c.attrs...)
	for _, a := range attrs {
		next.attrs = append(next.attrs, slog.Attr{Key: c.prefix + a.Key, Value: a.Value})
	}
	return &next
}

func (c *LogCapture) WithGroup(name string) slog.Handler {
	if name == "" {
		return c
	}
	next := *c
	next.prefix = c.prefix + name + "."
	return &next
}

func addAttr(dst map[string]slog.Value, prefix string, a slog.Attr) {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p += a.Key + "."
		}
		for _, ga := range v.Group() {
			addAttr(dst, p, ga)
		}
		return
	}
	dst[prefix+a.Key] = v
}

// Entries returns a snapshot of everything captured so far
func (c *LogCapture) Entries() []LogEntry {
	c.sink.mu.Lock()
	defer c.sink.mu.Unlock()
	out := make([]LogEntry, len(c.sink.entries))
	copy(out, c.sink.entries)
	return out
}

// Find returns the first entry whose message contains msg
func (c *LogCapture) Find(msg string) (LogEntry, bool) {
	for _, e := range c.Entries() {
		if strings.Contains(e.Message, msg) {
			return e, true
		}
	}
	return LogEntry{}, false
}

// AtLevel returns the entries logged at exactly level
func (c *LogCapture) AtLevel(level slog.Level) []LogEntry {
	var out []LogEntry
	for _, e := range c.Entries() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

// Reset drops all captured entries, including those of derived loggers
func (c *LogCapture) Reset() {
	c.sink.mu.Lock()
	c.sink.entries = nil
	c.sink.mu.Unlock()
}

// RequireEntry fails the test unless a record containing msg was logged
func RequireEntry(t testing.TB, c *LogCapture, msg string) LogEntry {
	t.Helper()
	e, ok := c.Find(msg)
	if !ok {
		for _, got := range c.Entries() {
			t.Logf("  captured: [%s] %s", got.Level, got.Message)
		}
		t.Fatalf("no log entry containing %q", msg)
	}
	return e
}

// AssertNoErrors fails the test if anything was logged at error level
func AssertNoErrors(t testing.TB, c *LogCapture) {
	t.Helper()
	for _, e := range c.AtLevel(slog.LevelError) {
		t.Errorf("unexpected error log: %s", e.Message)
	}
}
