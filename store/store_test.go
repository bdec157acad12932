package store_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpcpool/rill/internal/rowset"
	"github.com/rpcpool/rill/store"
)

func newRows(pairs ...[2]uint64) *rowset.Set {
	s := rowset.New(len(pairs))
	for _, p := range pairs {
		s.Append(rowset.Row{A: p[0], B: p[1]})
	}
	return s
}

func TestWriteReadRoundTripColumnA(t *testing.T) {
	dir := t.TempDir()
	rows := newRows([2]uint64{1, 10}, [2]uint64{1, 20}, [2]uint64{2, 10}, [2]uint64{3, 30})

	s, err := store.Write(filepath.Join(dir, "0.rill"), 1000, 3600, rows)
	require.NoError(t, err)
	defer s.Close()

	require.Equal(t, uint64(4), s.Rows())
	require.Equal(t, uint64(1000), s.TS())
	require.Equal(t, uint64(3600), s.Quant())

	it := s.Iterate(store.ColumnA)
	var got [][2]uint64
	for {
		r, err := it.Next()
		if err != nil {
			break
		}
		got = append(got, [2]uint64{r.A, r.B})
	}
	require.Equal(t, [][2]uint64{{1, 10}, {1, 20}, {2, 10}, {3, 30}}, got)
}

func TestWriteReadRoundTripColumnBIsInverted(t *testing.T) {
	dir := t.TempDir()
	rows := newRows([2]uint64{1, 10}, [2]uint64{2, 10}, [2]uint64{2, 20}, [2]uint64{3, 30})

	s, err := store.Write(filepath.Join(dir, "0.rill"), 1, 1, rows)
	require.NoError(t, err)
	defer s.Close()

	it := s.Iterate(store.ColumnB)
	var got [][2]uint64
	for {
		r, err := it.Next()
		if err != nil {
			break
		}
		got = append(got, [2]uint64{r.A, r.B})
	}
	require.Equal(t, [][2]uint64{{10, 1}, {10, 2}, {20, 2}, {30, 3}}, got)
}

func TestWriteCompactsDuplicates(t *testing.T) {
	dir := t.TempDir()
	rows := newRows([2]uint64{1, 10}, [2]uint64{1, 10}, [2]uint64{1, 10})

	s, err := store.Write(filepath.Join(dir, "0.rill"), 1, 1, rows)
	require.NoError(t, err)
	defer s.Close()

	require.Equal(t, uint64(1), s.Rows())
}

func TestQueryByColumnA(t *testing.T) {
	dir := t.TempDir()
	rows := newRows([2]uint64{1, 10}, [2]uint64{1, 20}, [2]uint64{2, 30})

	s, err := store.Write(filepath.Join(dir, "0.rill"), 1, 1, rows)
	require.NoError(t, err)
	defer s.Close()

	out := rowset.New(0)
	require.NoError(t, s.Query(store.ColumnA, 1, out))
	require.ElementsMatch(t, []rowset.Row{{A: 1, B: 10}, {A: 1, B: 20}}, out.Rows())
}

func TestQueryMissingKeyReturnsNoRows(t *testing.T) {
	dir := t.TempDir()
	rows := newRows([2]uint64{1, 10})

	s, err := store.Write(filepath.Join(dir, "0.rill"), 1, 1, rows)
	require.NoError(t, err)
	defer s.Close()

	out := rowset.New(0)
	require.NoError(t, s.Query(store.ColumnA, 99, out))
	require.Equal(t, 0, out.Len())
}

func TestReopenAfterClose(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "0.rill")
	rows := newRows([2]uint64{1, 10}, [2]uint64{2, 20})

	s, err := store.Write(path, 5, 60, rows)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := store.Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	require.Equal(t, uint64(2), reopened.Rows())
	require.Equal(t, uint64(5), reopened.TS())
}

func TestOpenRejectsUnstampedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.rill")
	require.NoError(t, os.WriteFile(path, make([]byte, 200), 0o644))

	_, err := store.Open(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	rows := newRows([2]uint64{1, 10}, [2]uint64{2, 20}, [2]uint64{3, 30})

	s, err := store.Write(filepath.Join(dir, "0.rill"), 1, 1, rows)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Validate())
}

func TestDump(t *testing.T) {
	dir := t.TempDir()
	rows := newRows([2]uint64{1, 10})

	s, err := store.Write(filepath.Join(dir, "0.rill"), 42, 1, rows)
	require.NoError(t, err)
	defer s.Close()

	var buf bytes.Buffer
	require.NoError(t, s.Dump(&buf))
	require.Contains(t, buf.String(), "ts=42")
	require.Contains(t, buf.String(), "rows=1")
}

func TestNearest(t *testing.T) {
	dir := t.TempDir()
	rows := newRows([2]uint64{2, 10}, [2]uint64{5, 20}, [2]uint64{9, 30})

	s, err := store.Write(filepath.Join(dir, "0.rill"), 1, 1, rows)
	require.NoError(t, err)
	defer s.Close()

	value, exact, ok := s.Nearest(store.ColumnA, 5)
	require.True(t, ok)
	require.True(t, exact)
	require.Equal(t, uint64(5), value)

	value, exact, ok = s.Nearest(store.ColumnA, 6)
	require.True(t, ok)
	require.False(t, exact)
	require.Equal(t, uint64(9), value)

	_, _, ok = s.Nearest(store.ColumnA, 100)
	require.False(t, ok)
}

func TestPrefetchAndRelease(t *testing.T) {
	dir := t.TempDir()
	rows := newRows([2]uint64{1, 10})

	s, err := store.Write(filepath.Join(dir, "0.rill"), 1, 1, rows)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Prefetch())
	require.NoError(t, s.Release())
}
