package picker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlags(t *testing.T) {
	f := Read | Write | Persistable
	assert.True(t, f.Has(Read|Write))
	assert.Equal(t, Read|Write, f.Access())
	assert.Equal(t, "read|write|persistable", f.String())

	assert.False(t, Read.Has(Write))
	assert.Equal(t, "none", Flags(0).String())
	assert.Equal(t, Read, (Read | Persistable).Access())
}
