package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/config"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/console"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/repository"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-hotseat/transport/rest"
	"github.com/rocketscienceinc/tictactoe-hotseat/transport/websocket"
)

// RunApp - runs the REST and WebSocket servers until a signal arrives or one of them fails.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := notifyContext(log)
	defer cancel()

	matchRepo, closeRepo, err := newMatchRepository(ctx, conf)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := closeRepo(); closeErr != nil {
			log.Error("could not close storage", "error", closeErr)
		}
	}()

	matchUseCase := newMatchManager(logger, conf, matchRepo)

	group, groupCtx := errgroup.WithContext(ctx)

	// run HTTP server
	group.Go(func() error {
		if httpErr := rest.New(logger, matchUseCase).Start(groupCtx, conf.HTTPPort); httpErr != nil {
			return fmt.Errorf("HTTP server error: %w", httpErr)
		}
		return nil
	})

	// run Websocket server
	group.Go(func() error {
		if wsErr := websocket.New(logger, matchUseCase).Start(groupCtx, conf.SocketPort); wsErr != nil {
			return fmt.Errorf("WebSocket server error: %w", wsErr)
		}
		return nil
	})

	if err = group.Wait(); err != nil {
		return err
	}

	log.Info("Application context canceled, shutting down")

	return nil
}

// RunConsole - plays one hot-seat match in the terminal. Matches live in memory.
func RunConsole(logger *slog.Logger, conf *config.Config, first, second string) error {
	ctx, cancel := notifyContext(logger.With("component", "app"))
	defer cancel()

	matchUseCase := newMatchManager(logger, conf, repository.NewMemoryMatchRepository())

	if err := console.Run(ctx, logger, matchUseCase, os.Stdin, os.Stdout, first, second); err != nil {
		return fmt.Errorf("console session failed: %w", err)
	}

	return nil
}

func notifyContext(log *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigs:
			log.Info("Received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigs)
	}()

	return ctx, cancel
}

func newMatchRepository(ctx context.Context, conf *config.Config) (repository.MatchRepository, func() error, error) {
	if conf.Storage == config.StorageMemory {
		return repository.NewMemoryMatchRepository(), func() error { return nil }, nil
	}

	redisStorage, err := storage.New(ctx, conf.Redis.GetRedisAddr())
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
	}

	return repository.NewMatchRepository(redisStorage, conf.Match.TTL), redisStorage.Close, nil
}

func newMatchManager(logger *slog.Logger, conf *config.Config, matchRepo repository.MatchRepository) *usecase.MatchManager {
	return usecase.NewMatchManager(logger, quartz.NewReal(), matchRepo, usecase.DefaultNames{
		PlayerOne: conf.Match.PlayerOne,
		PlayerTwo: conf.Match.PlayerTwo,
	})
}
