package bridge

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/docbridge/internal/shared/failure"
)

// Callback receives the outcome of one operation. Exactly one of Success or Error is
// invoked, always from the delivery goroutine.
type Callback interface {
	ID() string
	Success(payload map[string]interface{})
	Error(f *failure.Failure)
}

type delivery struct {
	target  *once
	payload map[string]interface{}
	failure *failure.Failure
}

// once guards a callback against a second delivery.
type once struct {
	Callback
	done atomic.Bool
}

func guard(cb Callback) *once {
	if g, ok := cb.(*once); ok {
		return g
	}
	return &once{Callback: cb}
}

// Deliverer invokes callbacks from a single goroutine, in submission order.
type Deliverer struct {
	queue  chan delivery
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewDeliverer starts the delivery goroutine
func NewDeliverer(buffer int, logger *zap.Logger) *Deliverer {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Deliverer{
		queue:  make(chan delivery, buffer),
		logger: logger.Named("deliverer"),
		done:   make(chan struct{}),
	}
	go d.loop()
	return d
}

// Success schedules a successful delivery to cb
func (d *Deliverer) Success(cb Callback, payload map[string]interface{}) {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	d.enqueue(delivery{target: guard(cb), payload: payload})
}

// Fail schedules an error delivery to cb
func (d *Deliverer) Fail(cb Callback, f *failure.Failure) {
	d.enqueue(delivery{target: guard(cb), failure: f})
}

// Close flushes pending deliveries and stops the goroutine
func (d *Deliverer) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	<-d.done
}

func (d *Deliverer) enqueue(item delivery) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warn("delivery after close dropped", zap.String("callback", item.target.ID()))
		return
	}
	d.queue <- item
}

func (d *Deliverer) loop() {
	defer close(d.done)
	for item := range d.queue {
		d.deliver(item)
	}
}

func (d *Deliverer) deliver(item delivery) {
	if !item.target.done.CompareAndSwap(false, true) {
		d.logger.Warn("duplicate delivery suppressed", zap.String("callback", item.target.ID()))
		return
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("callback panicked", zap.String("callback", item.target.ID()), zap.Any("panic", r))
		}
	}()

	if item.failure != nil {
		item.target.Error(item.failure)
		return
	}
	item.target.Success(item.payload)
}
