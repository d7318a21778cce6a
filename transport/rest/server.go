package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	logger *slog.Logger
	app    *fiber.App
}

func New(logger *slog.Logger, match matchUseCase) *Server {
	return &Server{
		logger: logger.With("component", "rest"),
		app:    NewApp(logger, match),
	}
}

// NewApp builds the routes without binding a port.
func NewApp(logger *slog.Logger, match matchUseCase) *fiber.App {
	handler := newHandlers(logger.With("component", "rest"), match)

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		Immutable:             true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		IdleTimeout:           30 * time.Second,
	})

	app.Use(recover.New())

	app.Get("/ping", handler.Ping)

	matches := app.Group("/matches")
	matches.Post("/", handler.NewMatch)
	matches.Get("/:id", handler.GetMatch)
	matches.Post("/:id/moves", handler.MakeMove)
	matches.Post("/:id/restart", handler.RestartMatch)
	matches.Delete("/:id", handler.EndMatch)

	return app
}

// Start serves until ctx is cancelled.
func (that *Server) Start(ctx context.Context, port string) error {
	log := that.logger.With("method", "Start")

	errCh := make(chan error, 1)
	go func() {
		log.Info("REST server started", "port", port)
		errCh <- that.app.Listen(":" + port)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	if err := that.app.ShutdownWithTimeout(shutdownTimeout); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	log.Info("REST server stopped")

	return nil
}
