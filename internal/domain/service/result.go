package service

import (
	"github.com/GriffinCanCode/docbridge/internal/shared/failure"
	"github.com/GriffinCanCode/docbridge/internal/shared/types"
)

// Success wraps data in a successful result
func Success(data map[string]interface{}) *types.Result {
	if data == nil {
		data = map[string]interface{}{}
	}
	return &types.Result{Success: true, Data: data}
}

// Failed converts an error into a failed result carrying its kind
func Failed(err error) *types.Result {
	return FromFailure(failure.FromError(err))
}

// FromFailure renders a caller-facing failure as a result
func FromFailure(f *failure.Failure) *types.Result {
	msg := f.Message
	return &types.Result{
		Success: false,
		Error:   &msg,
		Kind:    f.Kind.String(),
		Trace:   f.Trace,
	}
}
