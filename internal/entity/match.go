package entity

import (
	"fmt"
	"time"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/apperror"
)

// Match is one game between two players on a board it owns exclusively.
// It is not safe for concurrent use.
type Match struct {
	ID        string
	StartedAt time.Time
	UpdatedAt time.Time

	board   *Board
	players [2]Player
	current int
	started bool
	outcome Outcome
}

// MatchState is the serialisable form of a Match.
type MatchState struct {
	ID        string          `json:"id"`
	Board     [BoardSize]Cell `json:"board"`
	Players   [2]Player       `json:"players"`
	Turn      int             `json:"turn"`
	StartedAt time.Time       `json:"started_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func NewMatch(id string, first, second Player) (*Match, error) {
	match := &Match{
		ID:    id,
		board: NewBoard(),
	}

	if err := match.StartGame(first, second); err != nil {
		return nil, err
	}

	return match, nil
}

// StartGame clears the board and hands the first turn to first.
func (that *Match) StartGame(first, second Player) error {
	if err := validatePlayers(first, second); err != nil {
		return err
	}

	if that.board == nil {
		that.board = NewBoard()
	}

	that.board.Reset()
	that.players = [2]Player{first, second}
	that.current = 0
	that.started = true
	that.outcome = Outcome{Kind: OutcomeInProgress}

	return nil
}

// Restart begins a fresh game with the same two players.
func (that *Match) Restart() error {
	if !that.started {
		return apperror.ErrMatchIsNotStarted
	}

	return that.StartGame(that.players[0], that.players[1])
}

// MakeMove places the current player's mark on index.
// It reports false without changing anything when the match is over or the cell is taken.
func (that *Match) MakeMove(index int) (bool, error) {
	if !that.started {
		return false, apperror.ErrMatchIsNotStarted
	}

	if that.outcome.IsTerminal() {
		return false, nil
	}

	placed, err := that.board.Place(index, that.players[that.current].Mark)
	if err != nil {
		return false, fmt.Errorf("failed to place mark: %w", err)
	}

	if !placed {
		return false, nil
	}

	that.outcome = that.resolve(that.board.CheckOutcome())

	// the turn passes even after the final move
	that.current = 1 - that.current

	return true, nil
}

func (that *Match) CurrentPlayer() Player {
	return that.players[that.current]
}

func (that *Match) CurrentPlayerName() string {
	return that.players[that.current].Name
}

func (that *Match) Outcome() Outcome {
	return that.outcome
}

func (that *Match) Board() [BoardSize]Cell {
	if that.board == nil {
		return [BoardSize]Cell{}
	}

	return that.board.Cells()
}

func (that *Match) Players() [2]Player {
	return that.players
}

func (that *Match) IsStarted() bool {
	return that.started
}

// Moves counts the marks placed since the last start.
func (that *Match) Moves() int {
	moves := 0
	for _, cell := range that.Board() {
		if cell != Empty {
			moves++
		}
	}

	return moves
}

// StatusMessage is the one-line status shown under the board.
func (that *Match) StatusMessage() string {
	switch {
	case that.outcome.IsTie():
		return "It's a tie!"
	case that.outcome.IsWin() && that.outcome.Winner != nil:
		return that.outcome.Winner.Name + " wins!"
	case that.outcome.IsWin():
		return that.outcome.Mark.String() + " wins!"
	default:
		return that.CurrentPlayerName() + "'s turn"
	}
}

func (that *Match) Snapshot() MatchState {
	return MatchState{
		ID:        that.ID,
		Board:     that.Board(),
		Players:   that.players,
		Turn:      that.current,
		StartedAt: that.StartedAt,
		UpdatedAt: that.UpdatedAt,
	}
}

// RestoreMatch rebuilds a match from its state. The outcome is derived from the board.
func RestoreMatch(state MatchState) (*Match, error) {
	if err := validatePlayers(state.Players[0], state.Players[1]); err != nil {
		return nil, err
	}

	if state.Turn != 0 && state.Turn != 1 {
		return nil, fmt.Errorf("invalid turn index %d", state.Turn)
	}

	board := NewBoard()
	board.cells = state.Board

	match := &Match{
		ID:        state.ID,
		StartedAt: state.StartedAt,
		UpdatedAt: state.UpdatedAt,
		board:     board,
		players:   state.Players,
		current:   state.Turn,
		started:   true,
	}
	match.outcome = match.resolve(board.CheckOutcome())

	return match, nil
}

// resolve maps a winning mark to the player who owns it.
func (that *Match) resolve(outcome Outcome) Outcome {
	if !outcome.IsWin() {
		return outcome
	}

	for _, player := range that.players {
		if player.Mark == outcome.Mark {
			winner := player
			outcome.Winner = &winner
			break
		}
	}

	return outcome
}

func validatePlayers(first, second Player) error {
	if !first.Mark.IsMark() || !second.Mark.IsMark() || first.Mark == second.Mark {
		return fmt.Errorf("%w: %q and %q", apperror.ErrInvalidPlayers, first.Mark, second.Mark)
	}

	return nil
}
