package bridge

import (
	"github.com/GriffinCanCode/docbridge/internal/shared/failure"
	"github.com/GriffinCanCode/docbridge/internal/shared/id"
)

// Outcome is what a blocking call receives.
type Outcome struct {
	Payload map[string]interface{}
	Failure *failure.Failure
}

// ChanCallback forwards its single outcome to a buffered channel.
type ChanCallback struct {
	id string
	ch chan Outcome
}

// NewChanCallback creates a callback with a fresh handle id
func NewChanCallback() *ChanCallback {
	return &ChanCallback{id: id.NewHandleID().String(), ch: make(chan Outcome, 1)}
}

// ID implements Callback
func (c *ChanCallback) ID() string { return c.id }

// Success implements Callback
func (c *ChanCallback) Success(payload map[string]interface{}) {
	c.ch <- Outcome{Payload: payload}
}

// Error implements Callback
func (c *ChanCallback) Error(f *failure.Failure) {
	c.ch <- Outcome{Failure: f}
}

// Done yields the outcome once delivered
func (c *ChanCallback) Done() <-chan Outcome { return c.ch }
