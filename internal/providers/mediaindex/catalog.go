package mediaindex

import (
	"context"
	"time"

	"github.com/GriffinCanCode/docbridge/internal/domain/collection"
	"github.com/GriffinCanCode/docbridge/internal/shared/paths"
)

// Entry is one media item.
type Entry struct {
	ID           string                `json:"id"`
	Collection   collection.Collection `json:"collection"`
	RelativePath string                `json:"relative_path"`
	DisplayName  string                `json:"display_name"`
	ContentType  string                `json:"content_type"`
	Size         int64                 `json:"size"`
	Pending      bool                  `json:"pending"`
	Created      time.Time             `json:"created"`
	Modified     time.Time             `json:"modified"`
}

// Path is the entry's location relative to the media root
func (e Entry) Path() string {
	return paths.Join(e.RelativePath, e.DisplayName)
}

// Filter narrows List. A nil Collection matches all collections.
type Filter struct {
	Collection     *collection.Collection
	IncludePending bool
}

func (f Filter) match(e Entry) bool {
	if e.Pending && !f.IncludePending {
		return false
	}
	return f.Collection == nil || *f.Collection == e.Collection
}

// Catalog persists entries.
type Catalog interface {
	Insert(ctx context.Context, e Entry) error
	Update(ctx context.Context, e Entry) error
	// Get returns nil, nil for an unknown id.
	Get(ctx context.Context, id string) (*Entry, error)
	Delete(ctx context.Context, id string) (bool, error)
	// List returns matching entries ordered bytewise by relative path, then display name, then id.
	List(ctx context.Context, f Filter) ([]Entry, error)
	Close() error
}
