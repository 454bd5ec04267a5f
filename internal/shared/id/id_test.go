package id

import (
	"bytes"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonotonicWithinMillisecond(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	gen := NewGenerator(bytes.NewReader(bytes.Repeat([]byte{0x42}, 1024)), func() time.Time { return fixed })

	ids := make([]string, 50)
	for i := range ids {
		ids[i] = gen.Next().String()
	}
	assert.True(t, sort.StringsAreSorted(ids), "ids minted in one millisecond must sort in order")
	assert.Len(t, ids[0], 26)
}

func TestTypedPrefixes(t *testing.T) {
	assert.True(t, strings.HasPrefix(NewTraceID().String(), TracePrefix+"_"))
	assert.True(t, strings.HasPrefix(NewSpanID().String(), SpanPrefix+"_"))
	assert.True(t, strings.HasPrefix(NewHandleID().String(), HandlePrefix+"_"))
	assert.NotContains(t, NewEntryID().String(), "_")
}

func TestEntryCreated(t *testing.T) {
	before := time.Now().Add(-time.Second)
	created, err := NewEntryID().Created()
	require.NoError(t, err)
	assert.True(t, created.After(before))

	_, err = EntryID("01HZX").Created()
	assert.Error(t, err)
}

func TestIsHandle(t *testing.T) {
	assert.True(t, IsHandle(NewHandleID().String()))
	assert.False(t, IsHandle("hdl_"))
	assert.False(t, IsHandle("hdl_not-a-uuid"))
	assert.False(t, IsHandle(NewTraceID().String()))
}

func TestConcurrentUnique(t *testing.T) {
	const workers, perWorker = 8, 200

	var (
		mu   sync.Mutex
		seen = make(map[EntryID]bool, workers*perWorker)
		wg   sync.WaitGroup
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]EntryID, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				local = append(local, NewEntryID())
			}
			mu.Lock()
			defer mu.Unlock()
			for _, id := range local {
				seen[id] = true
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, workers*perWorker)
}
