// Package id generates the identifiers docbridge hands out.
//
// Media entries, traces and spans use ULIDs so they sort by creation time.
// Completion handles use random UUIDs since they are only compared for equality.
package id

import (
	"crypto/rand"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// EntryID identifies a media index entry. It is a bare ULID because it appears in URIs.
type EntryID string

// TraceID identifies a trace
type TraceID string

// SpanID identifies a span within a trace
type SpanID string

// HandleID identifies a completion handle awaiting a delivery
type HandleID string

const (
	TracePrefix  = "trc"
	SpanPrefix   = "spn"
	HandlePrefix = "hdl"
)

// Generator produces ULIDs that increase strictly within one millisecond,
// so entries inserted back to back list in insertion order.
type Generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the process-wide generator
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator(rand.Reader, time.Now)
	})
	return defaultGenerator
}

// NewGenerator creates a generator. Tests pass fixed entropy and clock.
func NewGenerator(entropy io.Reader, now func() time.Time) *Generator {
	return &Generator{
		entropy: ulid.Monotonic(entropy, 0),
		now:     now,
	}
}

// Next returns a new ULID
func (g *Generator) Next() ulid.ULID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(g.now()), g.entropy)
}

func (g *Generator) prefixed(prefix string) string {
	return prefix + "_" + g.Next().String()
}

// NewEntryID generates a media entry ID
func NewEntryID() EntryID {
	return EntryID(Default().Next().String())
}

// NewTraceID generates a new trace ID
func NewTraceID() TraceID {
	return TraceID(Default().prefixed(TracePrefix))
}

// NewSpanID generates a new span ID
func NewSpanID() SpanID {
	return SpanID(Default().prefixed(SpanPrefix))
}

// NewHandleID generates a completion handle ID
func NewHandleID() HandleID {
	return HandleID(HandlePrefix + "_" + uuid.NewString())
}

func (id EntryID) String() string  { return string(id) }
func (id TraceID) String() string  { return string(id) }
func (id SpanID) String() string   { return string(id) }
func (id HandleID) String() string { return string(id) }

// Created returns the creation time encoded in a media entry ID
func (id EntryID) Created() (time.Time, error) {
	parsed, err := ulid.Parse(string(id))
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}

// IsHandle reports whether s is a well-formed completion handle
func IsHandle(s string) bool {
	rest, ok := strings.CutPrefix(s, HandlePrefix+"_")
	if !ok {
		return false
	}
	_, err := uuid.Parse(rest)
	return err == nil
}
