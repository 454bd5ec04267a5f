package correlator

import (
	"fmt"
	"math"

	"github.com/GriffinCanCode/docbridge/internal/shared/failure"
)

// Kind is the interactive action a token was issued for. It occupies the high 16 bits.
type Kind uint16

const (
	SelectFolder Kind = 0x5162
	SelectFile   Kind = 0x5163
	SaveFile     Kind = 0x5164
)

// Valid reports whether k is one of the known kinds
func (k Kind) Valid() bool {
	return k == SelectFolder || k == SelectFile || k == SaveFile
}

// String returns the action name
func (k Kind) String() string {
	switch k {
	case SelectFolder:
		return "selectFolder"
	case SelectFile:
		return "selectFile"
	case SaveFile:
		return "saveFile"
	default:
		return fmt.Sprintf("kind(%#04x)", uint16(k))
	}
}

// Token is kind<<16 | sequence. It travels through the picker as an opaque request code.
type Token uint32

// NewToken packs kind and seq
func NewToken(kind Kind, seq uint16) Token {
	return Token(uint32(kind)<<16 | uint32(seq))
}

// Kind returns the high 16 bits
func (t Token) Kind() Kind { return Kind(t >> 16) }

// Seq returns the low 16 bits
func (t Token) Seq() uint16 { return uint16(t) }

// Int64 is the wire form of the token
func (t Token) Int64() int64 { return int64(t) }

// String formats the token for logs
func (t Token) String() string {
	return fmt.Sprintf("%s#%d", t.Kind(), t.Seq())
}

// Decode validates a raw request code.
func Decode(raw int64) (Token, error) {
	if raw < 0 || raw > math.MaxUint32 {
		return 0, failure.New(failure.UnknownToken, "decode", "request code %d out of range", raw)
	}
	t := Token(raw)
	if !t.Kind().Valid() {
		return 0, failure.New(failure.UnknownToken, "decode", "request code %d carries unknown action %s", raw, t.Kind())
	}
	return t, nil
}

// SequenceSource yields the low 16 bits of successive tokens. Calls are serialized by the
// correlator, implementations need no locking.
type SequenceSource interface {
	Next() uint16
}

// Counter counts up from 1 and wraps from 65535 to 0.
type Counter struct {
	n uint16
}

// NewCounter starts a counter so that the next value is start+1
func NewCounter(start uint16) *Counter {
	return &Counter{n: start}
}

// Next implements SequenceSource
func (c *Counter) Next() uint16 {
	c.n++
	return c.n
}
