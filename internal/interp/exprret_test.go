package interp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sabnock01/pyrometer/internal/errs"
	"github.com/Sabnock01/pyrometer/internal/graph"
)

func leaf(i int) Single { return Single{Idx: graph.NodeIdx(i)} }

func leafIdx(r ExprRet) []graph.NodeIdx {
	var out []graph.NodeIdx
	for _, s := range Singles(r) {
		out = append(out, s.Idx)
	}
	return out
}

func TestMatchSides(t *testing.T) {
	var calls int
	pair := func(l, r Single) (ExprRet, error) {
		calls++
		return leaf(int(l.Idx)*10 + int(r.Idx)), nil
	}

	tests := []struct {
		name  string
		lhs   ExprRet
		rhs   ExprRet
		want  []graph.NodeIdx
		calls int
	}{
		{"single single", leaf(1), leaf(2), []graph.NodeIdx{12}, 1},
		{"single multi", leaf(1), Multi{leaf(2), leaf(3)}, []graph.NodeIdx{12, 13}, 2},
		{"multi single", Multi{leaf(1), leaf(2)}, leaf(3), []graph.NodeIdx{13, 23}, 2},
		{"multi multi zips", Multi{leaf(1), leaf(2)}, Multi{leaf(3), leaf(4)}, []graph.NodeIdx{13, 24}, 2},
		{"multi multi unequal", Multi{leaf(1), leaf(2)}, Multi{leaf(3), leaf(4), leaf(5)}, []graph.NodeIdx{13, 23, 14, 24, 15, 25}, 6},
		{"fork fork", Fork{leaf(1), leaf(2)}, Fork{leaf(3), leaf(4)}, []graph.NodeIdx{13, 14, 23, 24}, 4},
		{"single fork", leaf(1), Fork{leaf(2), leaf(3)}, []graph.NodeIdx{12, 13}, 2},
		{"fork multi", Fork{leaf(1), leaf(2)}, Multi{leaf(3)}, []graph.NodeIdx{13, 23}, 2},
		{"killed lhs", Killed{}, leaf(1), nil, 0},
		{"killed rhs", Multi{leaf(1)}, Killed{}, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls = 0
			got, err := matchSides(tt.lhs, tt.rhs, pair)
			require.NoError(t, err)
			assert.Equal(t, tt.want, leafIdx(got))
			assert.Equal(t, tt.calls, calls)
		})
	}

	t.Run("Fork fork keeps the side of each world", func(t *testing.T) {
		got, err := matchSides(Fork{leaf(1), leaf(2)}, Fork{leaf(3), leaf(4)}, pair)
		require.NoError(t, err)
		assert.Equal(t, Fork{
			World1: Fork{leaf(13), leaf(14)},
			World2: Fork{leaf(23), leaf(24)},
		}, got)
	})

	t.Run("Errors stop the walk", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := matchSides(Multi{leaf(1), leaf(2)}, leaf(3), func(Single, Single) (ExprRet, error) { return nil, boom })
		assert.ErrorIs(t, err, boom)
	})
}

func TestCombineWorlds(t *testing.T) {
	assert.Equal(t, Killed{}, combineWorlds(nil))
	assert.Equal(t, leaf(1), combineWorlds([]ExprRet{leaf(1)}))
	assert.Equal(t, Fork{leaf(1), Fork{leaf(2), leaf(3)}}, combineWorlds([]ExprRet{leaf(1), leaf(2), leaf(3)}))
}

func TestExpect(t *testing.T) {
	s, err := ExpectSingle(leaf(4))
	require.NoError(t, err)
	assert.Equal(t, graph.NodeIdx(4), s.Idx)

	_, err = ExpectSingle(Multi{})
	assert.True(t, errs.IsInternal(err))

	m, err := ExpectMulti(Multi{leaf(1)})
	require.NoError(t, err)
	assert.Len(t, m, 1)

	_, err = ExpectMulti(Killed{})
	assert.True(t, errs.IsInternal(err))
}
