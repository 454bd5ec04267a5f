package bridge

import (
	"context"
	"time"

	"github.com/GriffinCanCode/docbridge/internal/domain/collection"
	"github.com/GriffinCanCode/docbridge/internal/domain/document"
	"github.com/GriffinCanCode/docbridge/internal/domain/picker"
	"github.com/GriffinCanCode/docbridge/internal/shared/failure"
)

// ContentIndex stores media writes routed by collection. Inserted entries are provisional
// until Finalize and are removed, bytes included, by Abort.
type ContentIndex interface {
	document.Provider
	Insert(ctx context.Context, req collection.InsertRequest) (*document.Node, error)
	Finalize(ctx context.Context, uri string) (*document.Node, error)
	Abort(ctx context.Context, uri string) error
}

// Grants records the access the user granted through a picker.
type Grants interface {
	Take(ctx context.Context, uri string, flags picker.Flags, persist bool) error
}

// Recorder receives operation metrics.
type Recorder interface {
	RecordOperation(action, status string, d time.Duration)
	RecordFailure(action string, kind failure.Kind)
	RecordBytes(direction string, n int64)
	SetPendingRequests(n int)
	IncTokenCollisions()
	IncStaleResults()
}

type nopRecorder struct{}

func (nopRecorder) RecordOperation(string, string, time.Duration) {}
func (nopRecorder) RecordFailure(string, failure.Kind)            {}
func (nopRecorder) RecordBytes(string, int64)                     {}
func (nopRecorder) SetPendingRequests(int)                        {}
func (nopRecorder) IncTokenCollisions()                           {}
func (nopRecorder) IncStaleResults()                              {}

type nopGrants struct{}

func (nopGrants) Take(context.Context, string, picker.Flags, bool) error { return nil }
