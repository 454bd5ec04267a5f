package resilience

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrCircuitOpen     = errors.New("circuit breaker is open")
	ErrTooManyRequests = errors.New("too many requests in half-open state")
)

// State represents the circuit breaker state
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

var stateNames = [...]string{
	StateClosed:   "closed",
	StateHalfOpen: "half-open",
	StateOpen:     "open",
}

// String returns the string representation of the state
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Settings configures the circuit breaker behavior
type Settings struct {
	// MaxRequests is both the admission limit and the success count that closes a half-open breaker
	MaxRequests uint32
	// Interval clears the counts of a closed breaker periodically; zero keeps them
	Interval time.Duration
	// Timeout is how long the breaker stays open before probing
	Timeout time.Duration
	// ReadyToTrip is called with counts when a request fails in closed state
	ReadyToTrip func(counts Counts) bool
	// IsSuccessful decides whether an error counts against the breaker
	IsSuccessful func(err error) bool
	// OnStateChange is called outside the breaker lock whenever the state changes
	OnStateChange func(name string, from State, to State)
	// Now overrides the clock
	Now func() time.Time
}

// Counts holds the request statistics of the current generation
type Counts struct {
	Requests             uint32
	TotalSuccesses       uint32
	TotalFailures        uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

func (c *Counts) success() {
	c.TotalSuccesses++
	c.ConsecutiveSuccesses++
	c.ConsecutiveFailures = 0
}

func (c *Counts) failure() {
	c.TotalFailures++
	c.ConsecutiveFailures++
	c.ConsecutiveSuccesses = 0
}

type transition struct {
	from, to State
}

// Breaker is a three-state circuit breaker. Each state change starts a new generation;
// results of requests admitted in an older generation are dropped.
type Breaker struct {
	name     string
	settings Settings

	mu         sync.Mutex
	state      State
	generation uint64
	counts     Counts
	expiry     time.Time // zero: no deadline
}

// New creates a circuit breaker; zero settings get defaults
func New(name string, settings Settings) *Breaker {
	if settings.MaxRequests == 0 {
		settings.MaxRequests = 1
	}
	if settings.Timeout <= 0 {
		settings.Timeout = time.Minute
	}
	if settings.ReadyToTrip == nil {
		settings.ReadyToTrip = func(counts Counts) bool {
			return counts.ConsecutiveFailures > 5
		}
	}
	if settings.IsSuccessful == nil {
		settings.IsSuccessful = func(err error) bool { return err == nil }
	}
	if settings.Now == nil {
		settings.Now = time.Now
	}

	b := &Breaker{name: name, settings: settings, state: StateClosed}
	b.expiry = b.closedExpiry(settings.Now())
	return b
}

// Name returns the name of the circuit breaker
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current state, advancing it if a deadline has passed
func (b *Breaker) State() State {
	b.mu.Lock()
	state, _, changed := b.current(b.settings.Now())
	b.mu.Unlock()

	b.notify(changed)
	return state
}

// Counts returns a copy of the current generation's counts
func (b *Breaker) Counts() Counts {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts
}

// Execute runs req if the breaker admits it. A panic in req counts as a failure and is re-raised.
func (b *Breaker) Execute(req func() error) error {
	generation, err := b.admit()
	if err != nil {
		return err
	}

	defer func() {
		if e := recover(); e != nil {
			b.record(generation, false)
			panic(e)
		}
	}()

	err = req()
	b.record(generation, b.settings.IsSuccessful(err))
	return err
}

func (b *Breaker) admit() (uint64, error) {
	b.mu.Lock()
	state, generation, changed := b.current(b.settings.Now())

	var err error
	switch {
	case state == StateOpen:
		err = ErrCircuitOpen
	case state == StateHalfOpen && b.counts.Requests >= b.settings.MaxRequests:
		err = ErrTooManyRequests
	default:
		b.counts.Requests++
	}
	b.mu.Unlock()

	b.notify(changed)
	return generation, err
}

func (b *Breaker) record(generation uint64, ok bool) {
	now := b.settings.Now()

	b.mu.Lock()
	state, current, changed := b.current(now)
	if current == generation {
		if ok {
			b.counts.success()
			if state == StateHalfOpen && b.counts.ConsecutiveSuccesses >= b.settings.MaxRequests {
				changed = append(changed, b.setState(StateClosed, now))
			}
		} else {
			b.counts.failure()
			if state == StateHalfOpen || b.settings.ReadyToTrip(b.counts) {
				changed = append(changed, b.setState(StateOpen, now))
			}
		}
	}
	b.mu.Unlock()

	b.notify(changed)
}

// current applies expired deadlines and returns the resulting state and generation
func (b *Breaker) current(now time.Time) (State, uint64, []transition) {
	var changed []transition
	switch b.state {
	case StateClosed:
		if !b.expiry.IsZero() && now.After(b.expiry) {
			b.newGeneration()
			b.expiry = b.closedExpiry(now)
		}
	case StateOpen:
		if now.After(b.expiry) {
			changed = append(changed, b.setState(StateHalfOpen, now))
		}
	}
	return b.state, b.generation, changed
}

func (b *Breaker) setState(state State, now time.Time) transition {
	t := transition{from: b.state, to: state}
	b.state = state
	b.newGeneration()

	switch state {
	case StateClosed:
		b.expiry = b.closedExpiry(now)
	case StateOpen:
		b.expiry = now.Add(b.settings.Timeout)
	default:
		b.expiry = time.Time{}
	}
	return t
}

func (b *Breaker) closedExpiry(now time.Time) time.Time {
	if b.settings.Interval <= 0 {
		return time.Time{}
	}
	return now.Add(b.settings.Interval)
}

func (b *Breaker) newGeneration() {
	b.generation++
	b.counts = Counts{}
}

func (b *Breaker) notify(changed []transition) {
	if b.settings.OnStateChange == nil {
		return
	}
	for _, t := range changed {
		b.settings.OnStateChange(b.name, t.from, t.to)
	}
}
