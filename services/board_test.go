package services

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateBoardHasNoRunOfThree(t *testing.T) {
	for seed := int64(0); seed < 200; seed++ {
		rng := rand.New(rand.NewSource(seed))
		for _, width := range []int{3, 5, 8, 10} {
			b := GenerateBoard(rng, width, 3+int(seed%4))
			require.Len(t, b.Cells, width*width)
			for r := 0; r < width; r++ {
				for c := 0; c < width; c++ {
					v := b.At(r, c)
					if c >= 2 {
						assert.False(t, b.At(r, c-1) == v && b.At(r, c-2) == v, "horizontal run seed=%d at %d,%d", seed, r, c)
					}
					if r >= 2 {
						assert.False(t, b.At(r-1, c) == v && b.At(r-2, c) == v, "vertical run seed=%d at %d,%d", seed, r, c)
					}
				}
			}
		}
	}
}

func TestGenerateBoardTypesInRange(t *testing.T) {
	b := GenerateBoard(rand.New(rand.NewSource(42)), 8, 5)
	assert.Equal(t, 8, b.Width)
	for _, v := range b.Cells {
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 5)
	}
}
