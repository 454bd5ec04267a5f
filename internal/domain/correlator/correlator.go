package correlator

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/docbridge/internal/shared/failure"
)

// Completion is the handle a pending request is resolved through.
type Completion interface {
	ID() string
	// Reject is called when the pending entry is displaced before its result arrives.
	Reject(err error)
}

// Pending is an interactive request awaiting its external result.
type Pending struct {
	Token      Token
	Kind       Kind
	Completion Completion
	Created    time.Time
}

// Correlator matches asynchronous picker results to the requests that launched them.
// Every entry is removed exactly once: by Complete, Cancel or displacement.
type Correlator struct {
	mu      sync.Mutex
	seq     SequenceSource
	now     func() time.Time
	logger  *zap.Logger
	pending map[Token]*Pending
	stash   map[string]interface{}

	onCollision func(Token)
}

// Option configures a Correlator
type Option func(*Correlator)

// WithSequence injects the sequence source
func WithSequence(s SequenceSource) Option {
	return func(c *Correlator) { c.seq = s }
}

// WithClock injects the clock used for Pending.Created
func WithClock(now func() time.Time) Option {
	return func(c *Correlator) { c.now = now }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Correlator) { c.logger = l.Named("correlator") }
}

// WithCollisionHook is called, under no lock, whenever a wrapped token displaces a live entry
func WithCollisionHook(fn func(Token)) Option {
	return func(c *Correlator) { c.onCollision = fn }
}

// New creates a correlator
func New(opts ...Option) *Correlator {
	c := &Correlator{
		seq:     NewCounter(0),
		now:     time.Now,
		logger:  zap.NewNop(),
		pending: make(map[Token]*Pending),
		stash:   make(map[string]interface{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Begin registers a pending request and returns its token. If the 16-bit sequence has
// wrapped onto a token that is still outstanding, the older entry is displaced and its
// completion rejected with failure.UnknownToken.
func (c *Correlator) Begin(kind Kind, completion Completion) (Token, error) {
	if !kind.Valid() {
		return 0, failure.New(failure.Validation, "begin", "unknown action %s", kind)
	}

	c.mu.Lock()
	token := NewToken(kind, c.seq.Next())
	displaced := c.pending[token]
	c.pending[token] = &Pending{
		Token:      token,
		Kind:       kind,
		Completion: completion,
		Created:    c.now(),
	}
	c.mu.Unlock()

	if displaced != nil {
		c.logger.Warn("request token wrapped onto an outstanding request",
			zap.Stringer("token", token),
			zap.Time("displaced_created", displaced.Created),
		)
		if c.onCollision != nil {
			c.onCollision(token)
		}
		displaced.Completion.Reject(failure.New(failure.UnknownToken, "begin", "request %s was superseded", token))
	}
	return token, nil
}

// Complete removes and returns the entry for raw. Unknown, stale and duplicate codes fail
// with failure.UnknownToken.
func (c *Correlator) Complete(raw int64) (*Pending, error) {
	token, err := Decode(raw)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	p, ok := c.pending[token]
	delete(c.pending, token)
	c.mu.Unlock()

	if !ok {
		return nil, failure.New(failure.UnknownToken, "complete", "no pending request for %s", token)
	}
	return p, nil
}

// Cancel drops the entry for token, used when the launch itself fails.
func (c *Correlator) Cancel(token Token) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.pending[token]
	delete(c.pending, token)
	return ok
}

// Stash stores a payload under a completion handle until Take or Discard.
func (c *Correlator) Stash(handle string, payload interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stash[handle] = payload
}

// Take removes and returns the payload stashed under handle.
func (c *Correlator) Take(handle string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.stash[handle]
	delete(c.stash, handle)
	return p, ok
}

// Discard drops the payload stashed under handle.
func (c *Correlator) Discard(handle string) bool {
	_, ok := c.Take(handle)
	return ok
}

// Outstanding is the number of pending requests
func (c *Correlator) Outstanding() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Stashed is the number of stashed payloads
func (c *Correlator) Stashed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.stash)
}
