package board

import (
	"encoding/json"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alice = "alice"
	bob   = "bob"
)

func dropAll(t *testing.T, b *Board, player string, cols ...int) {
	t.Helper()
	for _, c := range cols {
		_, err := b.Drop(c, player)
		require.NoError(t, err)
	}
}

func rotate(b Board) Board {
	var out Board
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			out[Rows-1-r][Cols-1-c] = b[r][c]
		}
	}
	return out
}

func randomBoard(rng *rand.Rand) Board {
	b := New()
	moves := rng.Intn(Cells)
	players := []string{alice, bob}
	for i := 0; i < moves; i++ {
		col := rng.Intn(Cols)
		if !b.Playable(col) {
			continue
		}
		b.Drop(col, players[i%2])
	}
	return b
}

func TestDrop(t *testing.T) {
	t.Run("gravity stacks tokens from the bottom", func(t *testing.T) {
		b := New()
		row, err := b.Drop(3, alice)
		require.NoError(t, err)
		assert.Equal(t, Rows-1, row)

		row, err = b.Drop(3, bob)
		require.NoError(t, err)
		assert.Equal(t, Rows-2, row)
		assert.Equal(t, alice, b[Rows-1][3])
		assert.Equal(t, bob, b[Rows-2][3])
	})

	t.Run("full column fails without changing the board", func(t *testing.T) {
		b := New()
		for i := 0; i < Rows; i++ {
			dropAll(t, &b, alice, 0)
		}
		before := b

		row, err := b.Drop(0, bob)
		assert.True(t, errors.Is(err, ErrColumnFull))
		assert.Equal(t, -1, row)
		assert.Equal(t, before, b)
	})

	t.Run("out of range column is rejected", func(t *testing.T) {
		b := New()
		_, err := b.Drop(-1, alice)
		assert.ErrorIs(t, err, ErrInvalidColumn)
		_, err = b.Drop(Cols, alice)
		assert.ErrorIs(t, err, ErrInvalidColumn)
		assert.Equal(t, 0, b.Count())
	})
}

func TestHasFourInRow(t *testing.T) {
	t.Run("empty board", func(t *testing.T) {
		b := New()
		assert.False(t, b.HasFourInRow(alice))
		assert.False(t, b.HasFourInRow(""))
	})

	t.Run("horizontal on the bottom row", func(t *testing.T) {
		b := New()
		dropAll(t, &b, alice, 0, 1, 2)
		assert.False(t, b.HasFourInRow(alice))
		dropAll(t, &b, alice, 3)
		assert.True(t, b.HasFourInRow(alice))
		assert.False(t, b.HasFourInRow(bob))
	})

	t.Run("vertical", func(t *testing.T) {
		b := New()
		dropAll(t, &b, bob, 6, 6, 6, 6)
		assert.True(t, b.HasFourInRow(bob))
	})

	t.Run("rising diagonal", func(t *testing.T) {
		b := New()
		dropAll(t, &b, bob, 1, 2, 2, 3, 3, 3)
		dropAll(t, &b, alice, 0)
		b[Rows-2][1] = alice
		b[Rows-3][2] = alice
		b[Rows-4][3] = alice
		assert.True(t, b.HasFourInRow(alice))
	})

	t.Run("falling diagonal", func(t *testing.T) {
		var b Board
		b[2][0] = alice
		b[3][1] = alice
		b[4][2] = alice
		b[5][3] = alice
		assert.True(t, b.HasFourInRow(alice))
	})

	t.Run("three with a gap is not a win", func(t *testing.T) {
		b := New()
		dropAll(t, &b, alice, 0, 1, 3, 4)
		assert.False(t, b.HasFourInRow(alice))
	})

	t.Run("symmetric under 180 degree rotation", func(t *testing.T) {
		rng := rand.New(rand.NewSource(42))
		for i := 0; i < 500; i++ {
			b := randomBoard(rng)
			r := rotate(b)
			assert.Equal(t, b.HasFourInRow(alice), r.HasFourInRow(alice))
			assert.Equal(t, b.HasFourInRow(bob), r.HasFourInRow(bob))
		}
	})
}

func TestWouldWin(t *testing.T) {
	t.Run("detects the winning column", func(t *testing.T) {
		b := New()
		dropAll(t, &b, alice, 0, 1, 2)
		assert.True(t, b.WouldWin(3, alice))
		assert.False(t, b.WouldWin(4, alice))
		assert.False(t, b.WouldWin(3, bob))
	})

	t.Run("never mutates the board", func(t *testing.T) {
		rng := rand.New(rand.NewSource(7))
		for i := 0; i < 200; i++ {
			b := randomBoard(rng)
			before := b
			for c := 0; c < Cols; c++ {
				b.WouldWin(c, alice)
				b.WouldWin(c, bob)
			}
			assert.Equal(t, before, b)
		}
	})

	t.Run("full column fails closed", func(t *testing.T) {
		b := New()
		dropAll(t, &b, alice, 0, 0, 0)
		dropAll(t, &b, bob, 0, 0, 0)
		assert.False(t, b.WouldWin(0, alice))
		assert.False(t, b.WouldWin(-3, alice))
	})
}

func TestPlayableColumnsAndFull(t *testing.T) {
	b := New()
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6}, b.PlayableColumns())
	assert.False(t, b.Full())

	for c := 0; c < Cols; c++ {
		for r := 0; r < Rows; r++ {
			player := alice
			if (c/2+r)%2 == 1 {
				player = bob
			}
			dropAll(t, &b, player, c)
		}
		assert.False(t, b.Playable(c))
	}
	assert.Empty(t, b.PlayableColumns())
	assert.True(t, b.Full())
	assert.Equal(t, Cells, b.Count())
}

func TestBoardJSON(t *testing.T) {
	b := New()
	dropAll(t, &b, alice, 2)

	data, err := json.Marshal(b)
	require.NoError(t, err)

	var grid [][]*string
	require.NoError(t, json.Unmarshal(data, &grid))
	require.Len(t, grid, Rows)
	assert.Nil(t, grid[0][0])
	require.NotNil(t, grid[Rows-1][2])
	assert.Equal(t, alice, *grid[Rows-1][2])

	var decoded Board
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, b, decoded)

	assert.Error(t, json.Unmarshal([]byte(`[[null]]`), &decoded))
}

func TestString(t *testing.T) {
	b := New()
	dropAll(t, &b, alice, 0)
	dropAll(t, &b, bob, 1)
	out := b.String(alice, bob)
	assert.Contains(t, out, "|X|O|.|.|.|.|.|")
	assert.Contains(t, out, " 0 1 2 3 4 5 6")
}
