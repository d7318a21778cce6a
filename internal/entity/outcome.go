package entity

// OutcomeKind tells whether a match is still running, won or tied.
type OutcomeKind int

const (
	OutcomeInProgress OutcomeKind = iota
	OutcomeWin
	OutcomeTie
)

func (that OutcomeKind) String() string {
	switch that {
	case OutcomeWin:
		return "win"
	case OutcomeTie:
		return "tie"
	default:
		return "in_progress"
	}
}

// Outcome is the evaluated result of a board.
// Mark is set for a win; Winner is set only once a Match resolved the mark to a player.
type Outcome struct {
	Kind   OutcomeKind
	Mark   Cell
	Winner *Player
}

func (that Outcome) IsTerminal() bool {
	return that.Kind != OutcomeInProgress
}

func (that Outcome) IsWin() bool {
	return that.Kind == OutcomeWin
}

func (that Outcome) IsTie() bool {
	return that.Kind == OutcomeTie
}
