package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/entity"
)

type matchUseCase interface {
	StartMatch(ctx context.Context, first, second string) (*entity.Match, error)
	MakeMove(ctx context.Context, id string, cell int) (*entity.Match, bool, error)
	RestartMatch(ctx context.Context, id string) (*entity.Match, error)
	EndMatch(ctx context.Context, id string) error
}

// Session is one hot-seat match played at a terminal.
type Session struct {
	logger       *slog.Logger
	matchUseCase matchUseCase
	out          io.Writer

	match *entity.Match
}

func NewSession(logger *slog.Logger, matchUseCase matchUseCase, out io.Writer) *Session {
	return &Session{
		logger:       logger.With("component", "console"),
		matchUseCase: matchUseCase,
		out:          out,
	}
}

func (that *Session) Match() *entity.Match {
	return that.match
}

// Start creates the match and draws the empty board.
func (that *Session) Start(ctx context.Context, first, second string) error {
	match, err := that.matchUseCase.StartMatch(ctx, first, second)
	if err != nil {
		return fmt.Errorf("failed to start match: %w", err)
	}

	that.match = match
	that.draw()

	return nil
}

// Handle applies one input line. It reports true when the player quit.
func (that *Session) Handle(ctx context.Context, line string) (bool, error) {
	if that.match == nil {
		return false, errors.New("session is not started")
	}

	command := strings.ToLower(strings.TrimSpace(line))

	switch command {
	case "":
		return false, nil
	case "q", "quit", "exit":
		if err := that.matchUseCase.EndMatch(ctx, that.match.ID); err != nil {
			return true, fmt.Errorf("failed to end match: %w", err)
		}
		that.println("Bye!")
		return true, nil
	case "r", "restart":
		match, err := that.matchUseCase.RestartMatch(ctx, that.match.ID)
		if err != nil {
			return false, fmt.Errorf("failed to restart match: %w", err)
		}
		that.match = match
		that.draw()
		return false, nil
	}

	cell, err := strconv.Atoi(command)
	if err != nil {
		that.println(hintStyle.Render("Unknown command. " + helpLine))
		return false, nil
	}

	match, moved, err := that.matchUseCase.MakeMove(ctx, that.match.ID, cell)
	if errors.Is(err, entity.ErrInvalidCell) {
		that.println(hintStyle.Render("Pick a cell from 0 to 8."))
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to make move: %w", err)
	}

	that.match = match

	if !moved {
		if match.Outcome().IsTerminal() {
			that.println(hintStyle.Render("The game is over. Press r to play again."))
		} else {
			that.println(hintStyle.Render(fmt.Sprintf("Cell %d is taken.", cell)))
		}
		return false, nil
	}

	that.draw()

	return false, nil
}

func (that *Session) draw() {
	that.println(Render(that.match))
}

func (that *Session) println(text string) {
	if _, err := fmt.Fprintln(that.out, text); err != nil {
		that.logger.Error("failed to write output", "error", err)
	}
}

// Run plays one match reading commands from in until quit, EOF or Ctrl-C.
func Run(ctx context.Context, logger *slog.Logger, matchUseCase matchUseCase, in io.ReadCloser, out io.Writer, first, second string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		Stdin:           in,
		Stdout:          out,
		InterruptPrompt: "^C",
		EOFPrompt:       "q",
	})
	if err != nil {
		return fmt.Errorf("failed to init readline: %w", err)
	}
	defer rl.Close()

	session := NewSession(logger, matchUseCase, rl.Stdout())
	if err = session.Start(ctx, first, second); err != nil {
		return err
	}

	return session.Loop(ctx, rl)
}

type lineReader interface {
	Readline() (string, error)
	Close() error
}

// Loop handles lines from reader until quit, EOF, Ctrl-C or ctx cancellation.
// The reader is closed on cancellation so a pending Readline returns.
func (that *Session) Loop(ctx context.Context, reader lineReader) error {
	stop := make(chan struct{})
	defer close(stop)

	go func() {
		select {
		case <-ctx.Done():
			if err := reader.Close(); err != nil {
				that.logger.Error("failed to close input", "error", err)
			}
		case <-stop:
		}
	}()

	for {
		line, readErr := reader.Readline()
		if ctx.Err() != nil {
			return that.end(ctx)
		}
		if errors.Is(readErr, io.EOF) || errors.Is(readErr, readline.ErrInterrupt) {
			return that.end(ctx)
		}
		if readErr != nil {
			return fmt.Errorf("failed to read input: %w", readErr)
		}

		quit, handleErr := that.Handle(ctx, line)
		if handleErr != nil {
			return handleErr
		}
		if quit {
			return nil
		}
	}
}

func (that *Session) end(ctx context.Context) error {
	if err := that.matchUseCase.EndMatch(context.WithoutCancel(ctx), that.match.ID); err != nil {
		return fmt.Errorf("failed to end match: %w", err)
	}

	return nil
}
