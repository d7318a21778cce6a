package presenter

import (
	"time"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/entity"
)

// MatchView is what clients render: nine cells and a status line.
type MatchView struct {
	ID            string                   `json:"id"`
	Board         [entity.BoardSize]string `json:"board"`
	Players       []PlayerView             `json:"players"`
	CurrentPlayer string                   `json:"current_player"`
	Outcome       OutcomeView              `json:"outcome"`
	Status        string                   `json:"status"`
	Moves         int                      `json:"moves"`
	StartedAt     time.Time                `json:"started_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
}

type PlayerView struct {
	Name string `json:"name"`
	Mark string `json:"mark"`
}

type OutcomeView struct {
	Status string `json:"status"`
	Winner string `json:"winner,omitempty"`
	Mark   string `json:"mark,omitempty"`
}

func NewMatchView(match *entity.Match) *MatchView {
	view := &MatchView{
		ID:            match.ID,
		CurrentPlayer: match.CurrentPlayerName(),
		Status:        match.StatusMessage(),
		Moves:         match.Moves(),
		StartedAt:     match.StartedAt,
		UpdatedAt:     match.UpdatedAt,
	}

	for i, cell := range match.Board() {
		view.Board[i] = cell.String()
	}

	for _, player := range match.Players() {
		view.Players = append(view.Players, PlayerView{Name: player.Name, Mark: player.Mark.String()})
	}

	outcome := match.Outcome()
	view.Outcome = OutcomeView{Status: outcome.Kind.String()}
	if outcome.IsWin() {
		view.Outcome.Mark = outcome.Mark.String()
		if outcome.Winner != nil {
			view.Outcome.Winner = outcome.Winner.Name
		}
	}

	return view
}
