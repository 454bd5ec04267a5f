package correlator

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GriffinCanCode/docbridge/internal/shared/failure"
)

type fakeCompletion struct {
	id       string
	mu       sync.Mutex
	rejected []error
}

func (f *fakeCompletion) ID() string { return f.id }

func (f *fakeCompletion) Reject(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejected = append(f.rejected, err)
}

func TestTokenLayout(t *testing.T) {
	tok := NewToken(SelectFile, 7)
	assert.Equal(t, Token(0x51630007), tok)
	assert.Equal(t, SelectFile, tok.Kind())
	assert.Equal(t, uint16(7), tok.Seq())

	for _, kind := range []Kind{SelectFolder, SelectFile, SaveFile} {
		for _, seq := range []uint16{0, 1, 0x7fff, 0xffff} {
			tok := NewToken(kind, seq)
			assert.Equal(t, kind, tok.Kind(), "kind bits must not be disturbed by seq %d", seq)
			assert.Equal(t, seq, tok.Seq())
		}
	}
}

func TestDecode(t *testing.T) {
	tok, err := Decode(int64(NewToken(SaveFile, 3)))
	require.NoError(t, err)
	assert.Equal(t, SaveFile, tok.Kind())

	for _, raw := range []int64{-1, 0, 1 << 33, int64(NewToken(Kind(0x1234), 1))} {
		_, err := Decode(raw)
		assert.ErrorIs(t, err, failure.ErrUnknownToken, "raw %d", raw)
	}
}

func TestCounterWraps(t *testing.T) {
	c := NewCounter(0)
	assert.Equal(t, uint16(1), c.Next())

	c = NewCounter(65534)
	assert.Equal(t, uint16(65535), c.Next())
	assert.Equal(t, uint16(0), c.Next())
	assert.Equal(t, uint16(1), c.Next())
}

func TestBeginComplete(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c := New(WithClock(func() time.Time { return created }))
	done := &fakeCompletion{id: "h1"}

	tok, err := c.Begin(SelectFolder, done)
	require.NoError(t, err)
	assert.Equal(t, NewToken(SelectFolder, 1), tok, "first token carries sequence 1")
	assert.Equal(t, 1, c.Outstanding())

	p, err := c.Complete(tok.Int64())
	require.NoError(t, err)
	assert.Equal(t, tok, p.Token)
	assert.Equal(t, SelectFolder, p.Kind)
	assert.Same(t, done, p.Completion)
	assert.Equal(t, created, p.Created)
	assert.Equal(t, 0, c.Outstanding())

	_, err = c.Complete(tok.Int64())
	assert.ErrorIs(t, err, failure.ErrUnknownToken, "second completion must be rejected")
}

func TestBeginRejectsUnknownKind(t *testing.T) {
	c := New()
	_, err := c.Begin(Kind(1), &fakeCompletion{})
	assert.ErrorIs(t, err, failure.ErrValidation)
	assert.Equal(t, 0, c.Outstanding())
}

func TestCancel(t *testing.T) {
	c := New()
	tok, err := c.Begin(SelectFile, &fakeCompletion{})
	require.NoError(t, err)

	assert.True(t, c.Cancel(tok))
	assert.False(t, c.Cancel(tok))

	_, err = c.Complete(tok.Int64())
	assert.ErrorIs(t, err, failure.ErrUnknownToken)
}

func TestWrapDisplacesOutstanding(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	var collisions []Token

	c := New(
		WithSequence(NewCounter(65535)),
		WithLogger(zap.New(core)),
		WithCollisionHook(func(tok Token) { collisions = append(collisions, tok) }),
	)

	old := &fakeCompletion{id: "old"}
	first, err := c.Begin(SaveFile, old)
	require.NoError(t, err)
	assert.Equal(t, uint16(0), first.Seq(), "65535 wraps to 0")

	// walk the counter all the way around
	for i := 0; i < 65535; i++ {
		c.seq.Next()
	}

	fresh := &fakeCompletion{id: "new"}
	second, err := c.Begin(SaveFile, fresh)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.Equal(t, 1, c.Outstanding())
	require.Len(t, old.rejected, 1)
	assert.ErrorIs(t, old.rejected[0], failure.ErrUnknownToken)
	assert.Empty(t, fresh.rejected)
	assert.Equal(t, []Token{first}, collisions)
	assert.Equal(t, 1, logs.Len())

	p, err := c.Complete(second.Int64())
	require.NoError(t, err)
	assert.Same(t, fresh, p.Completion)
}

func TestStash(t *testing.T) {
	c := New()

	c.Stash("h1", "payload")
	assert.Equal(t, 1, c.Stashed())

	v, ok := c.Take("h1")
	require.True(t, ok)
	assert.Equal(t, "payload", v)

	_, ok = c.Take("h1")
	assert.False(t, ok, "payload is removed exactly once")

	c.Stash("h2", 42)
	assert.True(t, c.Discard("h2"))
	assert.False(t, c.Discard("h2"))
	assert.Equal(t, 0, c.Stashed())
}

func TestConcurrentBeginIssuesDistinctTokens(t *testing.T) {
	c := New()
	const n = 500

	var wg sync.WaitGroup
	tokens := make(chan Token, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := c.Begin(SelectFile, &fakeCompletion{})
			if err == nil {
				tokens <- tok
			}
		}()
	}
	wg.Wait()
	close(tokens)

	seen := make(map[Token]bool)
	for tok := range tokens {
		assert.False(t, seen[tok], "duplicate token %s", tok)
		seen[tok] = true
	}
	assert.Len(t, seen, n)
	assert.Equal(t, n, c.Outstanding())
}
