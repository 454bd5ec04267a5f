package bridge

import (
	"errors"

	"github.com/GriffinCanCode/docbridge/internal/shared/failure"
)

func asFailure(err error, target **failure.Error) bool {
	return errors.As(err, target)
}

// classified keeps an already classified error and tags anything else with kind.
func classified(kind failure.Kind, op, path string, err error) error {
	if err == nil {
		return nil
	}
	var fe *failure.Error
	if errors.As(err, &fe) {
		return err
	}
	return &failure.Error{Kind: kind, Op: op, Path: path, Err: err}
}

func invalid(op string, err error) error {
	return &failure.Error{Kind: failure.Validation, Op: op, Message: err.Error()}
}
