package store_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpcpool/rill/internal/rowset"
	"github.com/rpcpool/rill/store"
)

func TestMergeUnionsRowsAndDropsDuplicates(t *testing.T) {
	dir := t.TempDir()

	s1, err := store.Write(filepath.Join(dir, "1.rill"), 10, 1,
		newRows([2]uint64{1, 10}, [2]uint64{2, 20}))
	require.NoError(t, err)
	defer s1.Close()

	s2, err := store.Write(filepath.Join(dir, "2.rill"), 20, 1,
		newRows([2]uint64{2, 20}, [2]uint64{3, 30}))
	require.NoError(t, err)
	defer s2.Close()

	merged, err := store.Merge([]*store.Store{s1, s2}, filepath.Join(dir, "merged.rill"), 20, 1)
	require.NoError(t, err)
	defer merged.Close()

	require.Equal(t, uint64(3), merged.Rows())

	out := rowset.New(0)
	require.NoError(t, merged.Query(store.ColumnA, 2, out))
	require.Equal(t, 1, out.Len())
	require.Equal(t, uint64(20), out.Rows()[0].B)
}

func TestMergeIsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := store.Write(filepath.Join(dir, "1.rill"), 10, 1,
		newRows([2]uint64{1, 10}, [2]uint64{2, 20}))
	require.NoError(t, err)
	defer s1.Close()

	merged, err := store.Merge([]*store.Store{s1}, filepath.Join(dir, "merged.rill"), 10, 1)
	require.NoError(t, err)
	defer merged.Close()
	require.Equal(t, uint64(2), merged.Rows())

	mergedAgain, err := store.Merge([]*store.Store{merged}, filepath.Join(dir, "merged2.rill"), 10, 1)
	require.NoError(t, err)
	defer mergedAgain.Close()
	require.Equal(t, uint64(2), mergedAgain.Rows())
}

func TestMergeOfThreeStoresKWay(t *testing.T) {
	dir := t.TempDir()

	s1, err := store.Write(filepath.Join(dir, "1.rill"), 1, 1, newRows([2]uint64{5, 1}))
	require.NoError(t, err)
	defer s1.Close()
	s2, err := store.Write(filepath.Join(dir, "2.rill"), 2, 1, newRows([2]uint64{3, 1}))
	require.NoError(t, err)
	defer s2.Close()
	s3, err := store.Write(filepath.Join(dir, "3.rill"), 3, 1, newRows([2]uint64{4, 1}))
	require.NoError(t, err)
	defer s3.Close()

	merged, err := store.Merge([]*store.Store{s1, s2, s3}, filepath.Join(dir, "m.rill"), 3, 1)
	require.NoError(t, err)
	defer merged.Close()

	it := merged.Iterate(store.ColumnA)
	var keys []uint64
	for {
		r, err := it.Next()
		if err != nil {
			break
		}
		keys = append(keys, r.A)
	}
	require.Equal(t, []uint64{3, 4, 5}, keys)
}
