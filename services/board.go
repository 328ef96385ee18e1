package services

import "math/rand"

// Board is a width x width grid of candy types stored row-major.
type Board struct {
	Width int   `json:"width"`
	Cells []int `json:"cells"`
}

// At returns the candy type at row r, column c.
func (b Board) At(r, c int) int { return b.Cells[r*b.Width+c] }

// GenerateBoard deals a board left-to-right, top-to-bottom, resampling each
// cell until it would not complete a run of three to its left or above.
// types must be at least 3 so a free value always exists.
func GenerateBoard(rng *rand.Rand, width, types int) Board {
	cells := make([]int, width*width)
	for i := range cells {
		row, col := i/width, i%width
		for {
			t := rng.Intn(types)
			if col >= 2 && cells[i-1] == t && cells[i-2] == t {
				continue
			}
			if row >= 2 && cells[i-width] == t && cells[i-2*width] == t {
				continue
			}
			cells[i] = t
			break
		}
	}
	return Board{Width: width, Cells: cells}
}
