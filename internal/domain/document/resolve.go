package document

import (
	"context"
	"errors"

	"github.com/GriffinCanCode/docbridge/internal/shared/failure"
	"github.com/GriffinCanCode/docbridge/internal/shared/paths"
)

// Mode selects how Resolve treats missing nodes.
type Mode int

const (
	// Lookup fails on any missing segment and never creates anything.
	Lookup Mode = iota
	// Ensure creates missing directories and the leaf file.
	Ensure
	// Locate is Lookup that accepts a leaf of either kind.
	Locate
)

// String returns the mode name
func (m Mode) String() string {
	switch m {
	case Ensure:
		return "ensure"
	case Locate:
		return "locate"
	default:
		return "lookup"
	}
}

// Resolve walks path from root. All segments but the last must be directories; the last is
// the leaf. contentType is used only when Ensure creates the leaf.
func Resolve(ctx context.Context, tree Tree, root *Node, path string, mode Mode, contentType string) (*Node, error) {
	const op = "resolve"

	if !root.IsDirectory() {
		return nil, failure.New(failure.NotADirectory, op, "target is not a directory")
	}

	segments := paths.Segments(path)
	if err := paths.ValidateSegments(segments); err != nil {
		return nil, &failure.Error{Kind: failure.Validation, Op: op, Path: path, Message: "invalid path", Err: err}
	}

	dirs, leaf := segments[:len(segments)-1], segments[len(segments)-1]

	current := root
	consumed := ""
	for _, name := range dirs {
		if err := ctx.Err(); err != nil {
			return nil, failure.Wrap(failure.Unknown, op, err)
		}
		consumed = paths.Join(consumed, name)

		child, err := tree.FindChild(ctx, current, name)
		if err != nil {
			return nil, passthrough(op, consumed, err)
		}

		switch {
		case child == nil && mode != Ensure:
			return nil, failure.New(failure.NotFound, op, "could not find folder").WithPath(consumed)
		case child == nil:
			child, err = tree.CreateDirectory(ctx, current, name)
			if err != nil {
				return nil, &failure.Error{Kind: failure.CreateFailed, Op: op, Path: consumed, Message: "could not create sub-folder", Err: err}
			}
		case !child.IsDirectory():
			return nil, failure.New(failure.NotADirectory, op, "target is not a directory").WithPath(consumed)
		}
		current = child
	}

	consumed = paths.Join(consumed, leaf)
	child, err := tree.FindChild(ctx, current, leaf)
	if err != nil {
		return nil, passthrough(op, consumed, err)
	}

	if child == nil {
		if mode != Ensure {
			return nil, failure.New(failure.NotFound, op, "could not find file").WithPath(consumed)
		}
		child, err = tree.CreateFile(ctx, current, contentType, leaf)
		if err != nil {
			return nil, &failure.Error{Kind: failure.CreateFailed, Op: op, Path: consumed, Message: "could not create file", Err: err}
		}
		return child, nil
	}

	if mode != Locate && !child.IsFile() {
		return nil, failure.New(failure.NotAFile, op, "target is not a file").WithPath(consumed)
	}
	return child, nil
}

func passthrough(op, path string, err error) error {
	var fe *failure.Error
	if errors.As(err, &fe) {
		return err
	}
	return &failure.Error{Kind: failure.Unknown, Op: op, Path: path, Err: err}
}
