package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/entity"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/repository"
)

var errRedisDown = errors.New("redis down")

type mockMatchRepo struct {
	mock.Mock
}

func (that *mockMatchRepo) CreateOrUpdate(ctx context.Context, match *entity.Match) error {
	args := that.Called(ctx, match)
	return args.Error(0)
}

func (that *mockMatchRepo) GetByID(ctx context.Context, id string) (*entity.Match, error) {
	args := that.Called(ctx, id)
	match, _ := args.Get(0).(*entity.Match)
	return match, args.Error(1)
}

func (that *mockMatchRepo) DeleteByID(ctx context.Context, id string) error {
	args := that.Called(ctx, id)
	return args.Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newManager(t *testing.T) (*MatchManager, *quartz.Mock) {
	t.Helper()

	clock := quartz.NewMock(t)
	clock.Set(time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC))
	manager := NewMatchManager(discardLogger(), clock, repository.NewMemoryMatchRepository(), DefaultNames{})

	return manager, clock
}

func TestMatchManager_StartMatch(t *testing.T) {
	ctx := context.Background()

	t.Run("Creates a stored match with named players", func(t *testing.T) {
		// Given: a manager with a mocked clock
		manager, clock := newManager(t)

		// When: a match is started
		match, err := manager.StartMatch(ctx, " Alice ", "Bob")

		// Then: the first player has X and moves first
		require.NoError(t, err)
		assert.NotEmpty(t, match.ID)
		assert.Equal(t, [2]entity.Player{
			entity.NewPlayer("Alice", entity.MarkX),
			entity.NewPlayer("Bob", entity.MarkO),
		}, match.Players())
		assert.Equal(t, "Alice", match.CurrentPlayerName())
		assert.Equal(t, clock.Now(), match.StartedAt)

		// Then: the match can be loaded back
		stored, err := manager.GetMatch(ctx, match.ID)
		require.NoError(t, err)
		assert.Equal(t, match.Snapshot(), stored.Snapshot())
	})

	t.Run("Blank names fall back to defaults", func(t *testing.T) {
		clock := quartz.NewMock(t)
		manager := NewMatchManager(discardLogger(), clock, repository.NewMemoryMatchRepository(), DefaultNames{PlayerTwo: "Guest"})

		match, err := manager.StartMatch(ctx, "", "  ")

		require.NoError(t, err)
		players := match.Players()
		assert.Equal(t, entity.DefaultPlayerOne, players[0].Name)
		assert.Equal(t, "Guest", players[1].Name)
	})

	t.Run("Returns error if the repository fails", func(t *testing.T) {
		// Given: a repository that cannot store matches
		repo := &mockMatchRepo{}
		repo.On("CreateOrUpdate", mock.Anything, mock.AnythingOfType("*entity.Match")).Return(errRedisDown).Once()
		manager := NewMatchManager(discardLogger(), quartz.NewMock(t), repo, DefaultNames{})

		// When: a match is started
		match, err := manager.StartMatch(ctx, "Alice", "Bob")

		// Then: the error is returned
		require.ErrorIs(t, err, errRedisDown)
		assert.Nil(t, match)
		repo.AssertExpectations(t)
	})
}

func TestMatchManager_MakeMove(t *testing.T) {
	ctx := context.Background()

	t.Run("Stores a successful move", func(t *testing.T) {
		// Given: a started match
		manager, clock := newManager(t)
		match, err := manager.StartMatch(ctx, "Alice", "Bob")
		require.NoError(t, err)
		clock.Advance(time.Minute)

		// When: Alice plays the centre
		updated, moved, err := manager.MakeMove(ctx, match.ID, 4)

		// Then: the move is stored and the turn passes
		require.NoError(t, err)
		assert.True(t, moved)
		assert.Equal(t, "Bob", updated.CurrentPlayerName())
		assert.Equal(t, match.StartedAt.Add(time.Minute), updated.UpdatedAt)

		stored, err := manager.GetMatch(ctx, match.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.MarkX, stored.Board()[4])
	})

	t.Run("Occupied cell is not stored", func(t *testing.T) {
		// Given: a match where cell 0 is taken and a repository that fails on further writes
		source := &mockMatchRepo{}
		match, err := entity.NewMatch("m1", entity.NewPlayer("Alice", entity.MarkX), entity.NewPlayer("Bob", entity.MarkO))
		require.NoError(t, err)
		_, err = match.MakeMove(0)
		require.NoError(t, err)
		source.On("GetByID", mock.Anything, "m1").Return(match, nil).Once()
		manager := NewMatchManager(discardLogger(), quartz.NewMock(t), source, DefaultNames{})

		// When: Bob clicks cell 0
		updated, moved, err := manager.MakeMove(ctx, "m1", 0)

		// Then: nothing is written
		require.NoError(t, err)
		assert.False(t, moved)
		assert.Equal(t, "Bob", updated.CurrentPlayerName())
		source.AssertNotCalled(t, "CreateOrUpdate", mock.Anything, mock.Anything)
	})

	t.Run("Finished match ignores moves", func(t *testing.T) {
		// Given: a match X won on the diagonal
		manager, _ := newManager(t)
		match, err := manager.StartMatch(ctx, "Alice", "Bob")
		require.NoError(t, err)
		for _, cell := range []int{0, 1, 4, 2, 8} {
			_, moved, err := manager.MakeMove(ctx, match.ID, cell)
			require.NoError(t, err)
			require.True(t, moved)
		}

		// When: Bob keeps playing
		updated, moved, err := manager.MakeMove(ctx, match.ID, 3)

		// Then: the move is ignored and Alice stays the winner
		require.NoError(t, err)
		assert.False(t, moved)
		require.True(t, updated.Outcome().IsWin())
		assert.Equal(t, "Alice", updated.Outcome().Winner.Name)
		assert.Equal(t, entity.Empty, updated.Board()[3])
	})

	t.Run("Error on Invalid Cell Index", func(t *testing.T) {
		manager, _ := newManager(t)
		match, err := manager.StartMatch(ctx, "Alice", "Bob")
		require.NoError(t, err)

		_, moved, err := manager.MakeMove(ctx, match.ID, 9)

		require.ErrorIs(t, err, entity.ErrInvalidCell)
		assert.False(t, moved)
	})

	t.Run("Error on unknown match", func(t *testing.T) {
		manager, _ := newManager(t)

		_, _, err := manager.MakeMove(ctx, "missing", 0)

		require.ErrorIs(t, err, apperror.ErrMatchNotFound)
	})

	t.Run("Concurrent moves are serialized", func(t *testing.T) {
		// Given: a started match
		manager, _ := newManager(t)
		match, err := manager.StartMatch(ctx, "Alice", "Bob")
		require.NoError(t, err)

		// When: every cell is clicked at the same time
		var (
			wg    sync.WaitGroup
			mu    sync.Mutex
			moves int
		)
		for cell := range entity.BoardSize {
			wg.Add(1)
			go func() {
				defer wg.Done()

				_, moved, err := manager.MakeMove(ctx, match.ID, cell)
				assert.NoError(t, err)

				if moved {
					mu.Lock()
					moves++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		// Then: every accepted move is on the stored board
		stored, err := manager.GetMatch(ctx, match.ID)
		require.NoError(t, err)
		assert.Equal(t, moves, stored.Moves())
		assert.Positive(t, moves)
	})
}

func TestMatchManager_RestartMatch(t *testing.T) {
	ctx := context.Background()

	// Given: a match Alice won
	manager, clock := newManager(t)
	match, err := manager.StartMatch(ctx, "Alice", "Bob")
	require.NoError(t, err)
	for _, cell := range []int{0, 1, 4, 2, 8} {
		_, _, err = manager.MakeMove(ctx, match.ID, cell)
		require.NoError(t, err)
	}
	clock.Advance(time.Hour)

	// When: the match is restarted
	restarted, err := manager.RestartMatch(ctx, match.ID)

	// Then: the board is empty and Alice moves first again
	require.NoError(t, err)
	assert.Equal(t, [entity.BoardSize]entity.Cell{}, restarted.Board())
	assert.Equal(t, "Alice", restarted.CurrentPlayerName())
	assert.False(t, restarted.Outcome().IsTerminal())
	assert.Equal(t, clock.Now(), restarted.StartedAt)

	stored, err := manager.GetMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Moves())
}

func TestMatchManager_EndMatch(t *testing.T) {
	ctx := context.Background()

	t.Run("Deletes the match", func(t *testing.T) {
		manager, _ := newManager(t)
		match, err := manager.StartMatch(ctx, "Alice", "Bob")
		require.NoError(t, err)

		require.NoError(t, manager.EndMatch(ctx, match.ID))

		_, err = manager.GetMatch(ctx, match.ID)
		require.ErrorIs(t, err, apperror.ErrMatchNotFound)
	})

	t.Run("Error on unknown match", func(t *testing.T) {
		manager, _ := newManager(t)

		err := manager.EndMatch(ctx, "missing")

		require.ErrorIs(t, err, apperror.ErrMatchNotFound)
	})
}
