package console

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/entity"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	markXStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	markOStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4ECDC4"))
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	gridStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700"))
	winStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	tieStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
)

const helpLine = "0-8 move, r restart, q quit"

// Render draws the board with empty cells showing their index.
func Render(match *entity.Match) string {
	cells := match.Board()

	rows := make([]string, 0, 5)
	for row := 0; row < 3; row++ {
		if row > 0 {
			rows = append(rows, gridStyle.Render("───┼───┼───"))
		}

		line := make([]string, 0, 3)
		for col := 0; col < 3; col++ {
			index := row*3 + col
			line = append(line, " "+renderCell(cells[index], index)+" ")
		}

		rows = append(rows, strings.Join(line, gridStyle.Render("│")))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Tic-Tac-Toe"),
		"",
		strings.Join(rows, "\n"),
		"",
		renderStatus(match),
		hintStyle.Render(helpLine),
	)
}

func renderCell(cell entity.Cell, index int) string {
	switch cell {
	case entity.MarkX:
		return markXStyle.Render(cell.String())
	case entity.MarkO:
		return markOStyle.Render(cell.String())
	default:
		return hintStyle.Render(strconv.Itoa(index))
	}
}

func renderStatus(match *entity.Match) string {
	outcome := match.Outcome()

	switch {
	case outcome.IsWin():
		return winStyle.Render(match.StatusMessage())
	case outcome.IsTie():
		return tieStyle.Render(match.StatusMessage())
	default:
		return statusStyle.Render(match.StatusMessage())
	}
}
