package postgres

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionOf(t *testing.T) {
	assert.Equal(t, "001", versionOf("001_core.sql"))
	assert.Equal(t, "20240101", versionOf("20240101.sql"))
}

func TestMigratorLoad_OrderAndChecksum(t *testing.T) {
	m := &Migrator{files: fstest.MapFS{
		"migrations/002_b.sql":  {Data: []byte("SELECT 2;")},
		"migrations/001_a.sql":  {Data: []byte("SELECT 1;")},
		"migrations/README.txt": {Data: []byte("ignored")},
	}}

	migs, err := m.load()

	require.NoError(t, err)
	require.Len(t, migs, 2)
	assert.Equal(t, "001", migs[0].version)
	assert.Equal(t, "002", migs[1].version)
	assert.Len(t, migs[0].checksum, 64)
	assert.NotEqual(t, migs[0].checksum, migs[1].checksum)
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	migs, err := NewMigrator(nil).load()

	require.NoError(t, err)
	require.NotEmpty(t, migs)
	assert.Equal(t, "001", migs[0].version)
}
