package mapping

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDocument = `fields:
  - base_label: "平均速度 (rpm)"
    field_key: avg_speed
  - base_label: "位置波动"
    qualifier: max
    field_key: position_deviation_max
  - base_label: "位置波动"
    qualifier: min
    field_key: position_deviation_min
    patterns:
      - '位置波动.*?min.*?(-?\d+\.?\d*)'
`

func TestParseDocument(t *testing.T) {
	table, err := ParseDocument([]byte(sampleDocument))
	require.NoError(t, err)
	assert.Equal(t, []string{"avg_speed", "position_deviation_max", "position_deviation_min"},
		table.FieldKeys())

	r, ok := table.LookupLabel("位置波动(min)")
	require.True(t, ok)
	require.Len(t, r.Patterns, 1)
}

func TestParseDocument_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing fields key", "rules: []"},
		{"missing base label", "fields:\n  - field_key: k"},
		{"missing field key", "fields:\n  - base_label: label"},
		{"bad field key characters", "fields:\n  - base_label: l\n    field_key: \"no spaces\""},
		{"unknown property", "fields:\n  - base_label: l\n    field_key: k\n    extra: 1"},
		{"bad kind", "fields:\n  - base_label: l\n    field_key: k\n    kind: boolean"},
		{"not yaml", ": : :"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocument([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestSaveAndLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mappings.yaml")
	table, err := ParseDocument([]byte(sampleDocument))
	require.NoError(t, err)

	require.NoError(t, SaveFile(path, DocumentFromTable(table)))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, table.FieldKeys(), loaded.FieldKeys())

	r, ok := loaded.LookupLabel("位置波动(min)")
	require.True(t, ok)
	assert.Len(t, r.Patterns, 1)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestWatchFile_PublishesNewSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mappings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleDocument), 0o600))

	table, err := LoadFile(path)
	require.NoError(t, err)
	store := NewStore(table)

	w, err := WatchFile(path, store)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	updated := "fields:\n  - base_label: 速度偏差\n    field_key: speed_deviation\n"
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o600))

	require.Eventually(t, func() bool {
		keys := store.Snapshot().FieldKeys()
		return len(keys) == 1 && keys[0] == "speed_deviation"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatchFile_KeepsOldSnapshotOnBadDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mappings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleDocument), 0o600))

	table, err := LoadFile(path)
	require.NoError(t, err)
	store := NewStore(table)

	w, err := WatchFile(path, store)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	require.NoError(t, os.WriteFile(path, []byte("fields:\n  - field_key: broken\n"), 0o600))

	// Give the watcher a moment to observe the event, then confirm the
	// previous table is still being served.
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, []string{"avg_speed", "position_deviation_max", "position_deviation_min"},
		store.Snapshot().FieldKeys())
}
