package migrations

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAll(t *testing.T) {
	all, err := All()
	require.NoError(t, err)

	require.Len(t, all, 2)
	assert.Equal(t, 1, all[0].Version)
	assert.Equal(t, "001_chunks", all[0].Name)
	assert.Contains(t, all[0].SQL, "CREATE TABLE IF NOT EXISTS chunks")
	assert.Equal(t, 2, all[1].Version)
	assert.Equal(t, "002_index_runs", all[1].Name)
}

func TestLoad_SortsByVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"010_later.up.sql": {Data: []byte("SELECT 10;")},
		"002_first.up.sql": {Data: []byte("SELECT 2;")},
		"notes.txt":        {Data: []byte("ignored")},
	}

	got, err := load(fsys)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].Version)
	assert.Equal(t, 10, got[1].Version)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		fsys fstest.MapFS
	}{
		{"no version", fstest.MapFS{"chunks.up.sql": {Data: []byte("")}}},
		{"zero version", fstest.MapFS{"000_init.up.sql": {Data: []byte("")}}},
		{"duplicate", fstest.MapFS{
			"001_a.up.sql": {Data: []byte("")},
			"1_b.up.sql":   {Data: []byte("")},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(tt.fsys)
			assert.Error(t, err)
		})
	}
}
