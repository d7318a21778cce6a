package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/coder/quartz"
	"github.com/google/uuid"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/entity"
)

type matchRepo interface {
	CreateOrUpdate(ctx context.Context, match *entity.Match) error
	GetByID(ctx context.Context, id string) (*entity.Match, error)
	DeleteByID(ctx context.Context, id string) error
}

// DefaultNames are used when a player joins without a name.
type DefaultNames struct {
	PlayerOne string
	PlayerTwo string
}

// MatchManager runs matches stored in a repository. Mutations of one match are serialized.
type MatchManager struct {
	logger *slog.Logger
	clock  quartz.Clock

	matchRepo matchRepo
	names     DefaultNames
	locks     *matchLocks
}

func NewMatchManager(logger *slog.Logger, clock quartz.Clock, matchRepo matchRepo, names DefaultNames) *MatchManager {
	if names.PlayerOne == "" {
		names.PlayerOne = entity.DefaultPlayerOne
	}

	if names.PlayerTwo == "" {
		names.PlayerTwo = entity.DefaultPlayerTwo
	}

	return &MatchManager{
		logger: logger.With("component", "match_manager"),
		clock:  clock,

		matchRepo: matchRepo,
		names:     names,
		locks:     newMatchLocks(),
	}
}

// StartMatch creates a match where first plays X and moves first.
func (that *MatchManager) StartMatch(ctx context.Context, first, second string) (*entity.Match, error) {
	first = strings.TrimSpace(first)
	if first == "" {
		first = that.names.PlayerOne
	}

	second = strings.TrimSpace(second)
	if second == "" {
		second = that.names.PlayerTwo
	}

	match, err := entity.NewMatch(uuid.NewString(),
		entity.NewPlayer(first, entity.MarkX),
		entity.NewPlayer(second, entity.MarkO),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	now := that.clock.Now()
	match.StartedAt = now
	match.UpdatedAt = now

	if err = that.matchRepo.CreateOrUpdate(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to save match: %w", err)
	}

	that.logger.Info("match started", "matchID", match.ID, "playerOne", first, "playerTwo", second)

	return match, nil
}

func (that *MatchManager) GetMatch(ctx context.Context, id string) (*entity.Match, error) {
	match, err := that.matchRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}

	return match, nil
}

// MakeMove plays cell for whoever's turn it is. moved is false when the move was ignored.
func (that *MatchManager) MakeMove(ctx context.Context, id string, cell int) (*entity.Match, bool, error) {
	log := that.logger.With("method", "MakeMove", "matchID", id, "cell", cell)

	unlock := that.locks.lock(id)
	defer unlock()

	match, err := that.GetMatch(ctx, id)
	if err != nil {
		return nil, false, err
	}

	moved, err := match.MakeMove(cell)
	if err != nil {
		return match, false, fmt.Errorf("failed to make move: %w", err)
	}

	if !moved {
		log.Debug("move ignored", "outcome", match.Outcome().Kind.String())
		return match, false, nil
	}

	match.UpdatedAt = that.clock.Now()

	if err = that.matchRepo.CreateOrUpdate(ctx, match); err != nil {
		return nil, false, fmt.Errorf("failed to update match: %w", err)
	}

	if outcome := match.Outcome(); outcome.IsTerminal() {
		log.Info("match finished", "outcome", outcome.Kind.String(), "status", match.StatusMessage())
	}

	return match, true, nil
}

// RestartMatch clears the board and gives the first turn back to the first player.
func (that *MatchManager) RestartMatch(ctx context.Context, id string) (*entity.Match, error) {
	unlock := that.locks.lock(id)
	defer unlock()

	match, err := that.GetMatch(ctx, id)
	if err != nil {
		return nil, err
	}

	if err = match.Restart(); err != nil {
		return nil, fmt.Errorf("failed to restart match: %w", err)
	}

	now := that.clock.Now()
	match.StartedAt = now
	match.UpdatedAt = now

	if err = that.matchRepo.CreateOrUpdate(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to update match: %w", err)
	}

	that.logger.Info("match restarted", "matchID", id)

	return match, nil
}

func (that *MatchManager) EndMatch(ctx context.Context, id string) error {
	unlock := that.locks.lock(id)
	defer unlock()

	if err := that.matchRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete match: %w", err)
	}

	that.logger.Info("match ended", "matchID", id)

	return nil
}

