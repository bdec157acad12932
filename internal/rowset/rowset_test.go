package rowset_test

import (
	"math/rand/v2"
	"testing"

	"github.com/rpcpool/rill/internal/rowset"
	"github.com/stretchr/testify/require"
)

func TestPushRejectsZeroSide(t *testing.T) {
	s := rowset.New(0)
	require.Error(t, s.Push(0, 1))
	require.Error(t, s.Push(1, 0))
	require.NoError(t, s.Push(1, 2))
	require.Equal(t, 1, s.Len())
}

func TestCompactSortsAndDedups(t *testing.T) {
	s := rowset.New(0)
	for _, r := range []rowset.Row{{A: 3, B: 1}, {A: 1, B: 2}, {A: 1, B: 2}, {A: 1, B: 1}, {A: 2, B: 5}} {
		s.Append(r)
	}
	s.Compact()

	want := []rowset.Row{{A: 1, B: 1}, {A: 1, B: 2}, {A: 2, B: 5}, {A: 3, B: 1}}
	require.Equal(t, want, s.Rows())
}

func TestCompactIsIdempotent(t *testing.T) {
	r := rand.New(rand.NewPCG(5, 6))
	s := rowset.New(0)
	for i := 0; i < 500; i++ {
		s.Push(uint64(r.IntN(50)+1), uint64(r.IntN(50)+1))
	}
	s.Compact()
	first := append([]rowset.Row(nil), s.Rows()...)

	s.Compact()
	require.Equal(t, first, s.Rows())
}

func TestInvertSwapsColumns(t *testing.T) {
	s := rowset.New(0)
	s.Append(rowset.Row{A: 1, B: 2})
	s.Append(rowset.Row{A: 3, B: 4})
	s.Invert()
	require.Equal(t, []rowset.Row{{A: 2, B: 1}, {A: 4, B: 3}}, s.Rows())
}

func TestTotalOrder(t *testing.T) {
	require.True(t, (rowset.Row{A: 1, B: 2}).Less(rowset.Row{A: 1, B: 3}))
	require.True(t, (rowset.Row{A: 1, B: 9}).Less(rowset.Row{A: 2, B: 0}))
	require.False(t, (rowset.Row{A: 2, B: 0}).Less(rowset.Row{A: 1, B: 9}))
	require.Equal(t, 0, (rowset.Row{A: 5, B: 5}).Cmp(rowset.Row{A: 5, B: 5}))
}

func TestAppendSet(t *testing.T) {
	a := rowset.New(0)
	a.Append(rowset.Row{A: 1, B: 1})
	b := rowset.New(0)
	b.Append(rowset.Row{A: 2, B: 2})

	a.AppendSet(b)
	require.Equal(t, 2, a.Len())
}

func TestNilRow(t *testing.T) {
	require.True(t, rowset.Row{}.Nil())
	require.False(t, (rowset.Row{A: 1}).Nil())
}
