package entity

import (
	"errors"
	"fmt"
)

// BoardSize is the number of cells on a 3x3 board.
const BoardSize = 9

var (
	ErrInvalidCell = errors.New("invalid cell index")

	// WinCombos lists the rows, columns and diagonals in evaluation order.
	WinCombos = [8][3]int{
		{0, 1, 2},
		{3, 4, 5},
		{6, 7, 8},
		{0, 3, 6},
		{1, 4, 7},
		{2, 5, 8},
		{0, 4, 8},
		{2, 4, 6},
	}
)

// Board is a 3x3 grid addressed by index 0..8 in row-major order.
type Board struct {
	cells [BoardSize]Cell
}

func NewBoard() *Board {
	return &Board{}
}

// Cells returns a copy of the grid.
func (that *Board) Cells() [BoardSize]Cell {
	return that.cells
}

func (that *Board) Reset() {
	that.cells = [BoardSize]Cell{}
}

func (that *Board) IsEmpty(index int) (bool, error) {
	if err := validateIndex(index); err != nil {
		return false, err
	}

	return that.cells[index] == Empty, nil
}

// Place puts mark on an empty cell. An occupied cell is left untouched and false is returned.
func (that *Board) Place(index int, mark Cell) (bool, error) {
	if !mark.IsMark() {
		return false, fmt.Errorf("%w: %d", ErrInvalidMark, mark)
	}

	empty, err := that.IsEmpty(index)
	if err != nil {
		return false, err
	}

	if !empty {
		return false, nil
	}

	that.cells[index] = mark

	return true, nil
}

// CheckOutcome evaluates the grid. The first winning line in WinCombos order decides the mark.
func (that *Board) CheckOutcome() Outcome {
	for _, combo := range WinCombos {
		a, b, c := that.cells[combo[0]], that.cells[combo[1]], that.cells[combo[2]]
		if a != Empty && a == b && b == c {
			return Outcome{Kind: OutcomeWin, Mark: a}
		}
	}

	// the game continues until every cell is taken
	for _, cell := range that.cells {
		if cell == Empty {
			return Outcome{Kind: OutcomeInProgress}
		}
	}

	return Outcome{Kind: OutcomeTie}
}

func validateIndex(index int) error {
	if index < 0 || index >= BoardSize {
		return fmt.Errorf("%w: cell %d", ErrInvalidCell, index)
	}

	return nil
}
