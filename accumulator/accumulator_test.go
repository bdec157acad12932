package accumulator_test

import (
	"path/filepath"
	"testing"

	"github.com/rpcpool/rill/accumulator"
	"github.com/rpcpool/rill/store"
	"github.com/stretchr/testify/require"
)

func TestIngestAndDrainNoLoss(t *testing.T) {
	dir := t.TempDir()
	acc, err := accumulator.Open(filepath.Join(dir, "acc"), 32)
	require.NoError(t, err)
	defer acc.Close()

	require.Equal(t, 64, acc.Capacity())

	for i := 1; i <= 10; i++ {
		require.NoError(t, acc.Ingest(uint64(i), uint64(i*100)))
	}
	require.Equal(t, 10, acc.Len())

	out := filepath.Join(dir, "0.rill")
	result, err := acc.Drain(out, 1000)
	require.NoError(t, err)
	require.Equal(t, 10, result.Rows)
	require.Equal(t, uint64(0), result.Lost)

	s, err := store.Open(out)
	require.NoError(t, err)
	defer s.Close()
	require.Equal(t, uint64(10), s.Rows())
}

func TestDrainIsIdempotentWhenEmpty(t *testing.T) {
	dir := t.TempDir()
	acc, err := accumulator.Open(filepath.Join(dir, "acc"), 32)
	require.NoError(t, err)
	defer acc.Close()

	result, err := acc.Drain(filepath.Join(dir, "0.rill"), 1)
	require.NoError(t, err)
	require.Equal(t, 0, result.Rows)
}

func TestOverflowReportsLoss(t *testing.T) {
	dir := t.TempDir()
	acc, err := accumulator.Open(filepath.Join(dir, "acc"), 32)
	require.NoError(t, err)
	defer acc.Close()
	require.Equal(t, 64, acc.Capacity())

	for i := 1; i <= 200; i++ {
		require.NoError(t, acc.Ingest(uint64(i), uint64(i)))
	}

	result, err := acc.Drain(filepath.Join(dir, "0.rill"), 1)
	require.Error(t, err)
	require.Equal(t, uint64(136), result.Lost)
	require.Equal(t, 64, result.Rows)
}

func TestIngestRejectsZero(t *testing.T) {
	dir := t.TempDir()
	acc, err := accumulator.Open(filepath.Join(dir, "acc"), 32)
	require.NoError(t, err)
	defer acc.Close()

	require.Error(t, acc.Ingest(0, 1))
	require.Error(t, acc.Ingest(1, 0))
}

func TestReopenValidatesMagicAndVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "acc")
	acc, err := accumulator.Open(path, 32)
	require.NoError(t, err)
	require.NoError(t, acc.Ingest(1, 2))
	require.NoError(t, acc.Close())

	reopened, err := accumulator.Open(path, 32)
	require.NoError(t, err)
	defer reopened.Close()
	require.Equal(t, 1, reopened.Len())
}
