package entity

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrInvalidMark = errors.New("invalid mark")

// Cell is the content of one board position.
type Cell int

const (
	Empty Cell = iota
	MarkX
	MarkO
)

const (
	markXSymbol = "X"
	markOSymbol = "O"
)

func (that Cell) String() string {
	switch that {
	case MarkX:
		return markXSymbol
	case MarkO:
		return markOSymbol
	default:
		return ""
	}
}

// IsMark reports whether the cell holds a player's mark.
func (that Cell) IsMark() bool {
	return that == MarkX || that == MarkO
}

// Opposite returns the other player's mark.
func (that Cell) Opposite() Cell {
	switch that {
	case MarkX:
		return MarkO
	case MarkO:
		return MarkX
	default:
		return Empty
	}
}

func ParseCell(symbol string) (Cell, error) {
	switch symbol {
	case "":
		return Empty, nil
	case markXSymbol:
		return MarkX, nil
	case markOSymbol:
		return MarkO, nil
	default:
		return Empty, fmt.Errorf("%w: %q", ErrInvalidMark, symbol)
	}
}

func (that Cell) MarshalJSON() ([]byte, error) {
	return json.Marshal(that.String())
}

func (that *Cell) UnmarshalJSON(data []byte) error {
	var symbol string
	if err := json.Unmarshal(data, &symbol); err != nil {
		return fmt.Errorf("failed to unmarshal cell: %w", err)
	}

	cell, err := ParseCell(symbol)
	if err != nil {
		return err
	}

	*that = cell

	return nil
}
