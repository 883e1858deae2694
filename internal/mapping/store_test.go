package mapping

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSnapshotIsStable(t *testing.T) {
	first, err := NewTable([]RuleConfig{{BaseLabel: "a", FieldKey: "a"}})
	require.NoError(t, err)
	second, err := NewTable([]RuleConfig{{BaseLabel: "b", FieldKey: "b"}})
	require.NoError(t, err)

	store := NewStore(first)
	snap := store.Snapshot()
	store.Replace(second)

	// The earlier snapshot still sees the old rules.
	assert.Equal(t, []string{"a"}, snap.FieldKeys())
	assert.Equal(t, []string{"b"}, store.Snapshot().FieldKeys())
}

func TestStoreNilHandling(t *testing.T) {
	store := NewStore(nil)
	require.NotNil(t, store.Snapshot())
	assert.Equal(t, 0, store.Snapshot().Len())

	store.Replace(nil)
	assert.NotNil(t, store.Snapshot())
}

func TestStoreConcurrentAccess(t *testing.T) {
	table, err := NewTable([]RuleConfig{{BaseLabel: "a", FieldKey: "a"}})
	require.NoError(t, err)
	store := NewStore(table)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range 100 {
				_ = store.Snapshot().FieldKeys()
			}
		}()
		go func() {
			defer wg.Done()
			for range 100 {
				next, _ := NewTable([]RuleConfig{{BaseLabel: "b", FieldKey: "b"}})
				store.Replace(next)
			}
		}()
	}
	wg.Wait()
}
