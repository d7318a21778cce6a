package console

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/coder/quartz"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/entity"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/repository"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/usecase"
)

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

func newSession(t *testing.T) (*Session, *usecase.MatchManager, *bytes.Buffer) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := usecase.NewMatchManager(logger, quartz.NewMock(t), repository.NewMemoryMatchRepository(), usecase.DefaultNames{})

	out := &bytes.Buffer{}
	session := NewSession(logger, manager, out)
	require.NoError(t, session.Start(context.Background(), "Alice", "Bob"))

	return session, manager, out
}

func play(t *testing.T, session *Session, lines ...string) {
	t.Helper()

	for _, line := range lines {
		quit, err := session.Handle(context.Background(), line)
		require.NoError(t, err)
		require.False(t, quit)
	}
}

func TestRender(t *testing.T) {
	t.Run("Empty cells show their index", func(t *testing.T) {
		session, _, out := newSession(t)

		view := Render(session.Match())

		assert.Contains(t, out.String(), "Alice's turn")
		assert.Contains(t, view, " 0 │ 1 │ 2 ")
		assert.Contains(t, view, "───┼───┼───")
		assert.Contains(t, view, " 6 │ 7 │ 8 ")
		assert.Contains(t, view, helpLine)
	})

	t.Run("Marks and winner", func(t *testing.T) {
		session, _, _ := newSession(t)
		play(t, session, "0", "3", "1", "4", "2")

		view := Render(session.Match())

		assert.Contains(t, view, " X │ X │ X ")
		assert.Contains(t, view, " O │ O │ 5 ")
		assert.Contains(t, view, "Alice wins!")
	})
}

func TestHandle(t *testing.T) {
	t.Run("Move passes the turn", func(t *testing.T) {
		// Given: a fresh session
		session, _, out := newSession(t)
		out.Reset()

		// When: Alice plays the center
		play(t, session, "4")

		// Then: the board is redrawn for Bob
		assert.Equal(t, entity.MarkX, session.Match().Board()[4])
		assert.Contains(t, out.String(), "Bob's turn")
	})

	t.Run("Taken cell prints a hint", func(t *testing.T) {
		session, _, out := newSession(t)
		play(t, session, "4")
		out.Reset()

		play(t, session, "4")

		assert.Contains(t, out.String(), "Cell 4 is taken.")
		assert.Equal(t, "Bob", session.Match().CurrentPlayerName())
	})

	t.Run("Out of range and garbage input", func(t *testing.T) {
		session, _, out := newSession(t)
		out.Reset()

		play(t, session, "9", "hello", "")

		assert.Contains(t, out.String(), "Pick a cell from 0 to 8.")
		assert.Contains(t, out.String(), "Unknown command.")
		assert.Equal(t, 0, session.Match().Moves())
	})

	t.Run("Move after the end", func(t *testing.T) {
		session, _, out := newSession(t)
		play(t, session, "0", "3", "1", "4", "2")
		out.Reset()

		play(t, session, "5")

		assert.Contains(t, out.String(), "The game is over.")
	})

	t.Run("Restart", func(t *testing.T) {
		session, _, _ := newSession(t)
		play(t, session, "0", "3", "1", "4", "2", "r")

		assert.Equal(t, 0, session.Match().Moves())
		assert.Equal(t, "Alice", session.Match().CurrentPlayerName())
		assert.False(t, session.Match().Outcome().IsTerminal())
	})

	t.Run("Quit ends the match", func(t *testing.T) {
		session, manager, out := newSession(t)
		id := session.Match().ID

		quit, err := session.Handle(context.Background(), "q")

		require.NoError(t, err)
		assert.True(t, quit)
		assert.Contains(t, out.String(), "Bye!")
		_, err = manager.GetMatch(context.Background(), id)
		assert.ErrorIs(t, err, apperror.ErrMatchNotFound)
	})
}

// scriptedInput serves lines and then blocks like a terminal waiting for input.
type scriptedInput struct {
	lines     chan string
	closed    chan struct{}
	closeOnce sync.Once
}

func newScriptedInput(lines ...string) *scriptedInput {
	input := &scriptedInput{
		lines:  make(chan string, len(lines)),
		closed: make(chan struct{}),
	}
	for _, line := range lines {
		input.lines <- line
	}

	return input
}

func (that *scriptedInput) Readline() (string, error) {
	select {
	case line := <-that.lines:
		return line, nil
	case <-that.closed:
		return "", io.EOF
	}
}

func (that *scriptedInput) Close() error {
	that.closeOnce.Do(func() { close(that.closed) })
	return nil
}

func TestLoop(t *testing.T) {
	t.Run("Cancellation unblocks a pending read", func(t *testing.T) {
		// Given: a session waiting for input that never comes
		session, manager, _ := newSession(t)
		id := session.Match().ID
		input := newScriptedInput("4")

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- session.Loop(ctx, input)
		}()

		// When: the context is cancelled
		require.Eventually(t, func() bool {
			stored, err := manager.GetMatch(context.Background(), id)
			return err == nil && stored.Moves() == 1
		}, time.Second, 10*time.Millisecond)
		cancel()

		// Then: the loop returns and the match is ended
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("loop did not return after cancellation")
		}

		_, err := manager.GetMatch(context.Background(), id)
		assert.ErrorIs(t, err, apperror.ErrMatchNotFound)
	})

	t.Run("Quit stops the loop", func(t *testing.T) {
		session, _, out := newSession(t)

		err := session.Loop(context.Background(), newScriptedInput("0", "q"))

		require.NoError(t, err)
		assert.Contains(t, out.String(), "Bye!")
	})
}
