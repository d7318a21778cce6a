package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/entity"
	"github.com/rocketscienceinc/tictactoe-hotseat/transport/presenter"
)

type matchUseCase interface {
	StartMatch(ctx context.Context, first, second string) (*entity.Match, error)
	GetMatch(ctx context.Context, id string) (*entity.Match, error)
	MakeMove(ctx context.Context, id string, cell int) (*entity.Match, bool, error)
	RestartMatch(ctx context.Context, id string) (*entity.Match, error)
	EndMatch(ctx context.Context, id string) error
}

type NewMatchRequest struct {
	PlayerOne string `json:"player1" validate:"omitempty,max=32"`
	PlayerTwo string `json:"player2" validate:"omitempty,max=32"`
}

type MoveRequest struct {
	Cell *int `json:"cell" validate:"required"`
}

type MoveResponse struct {
	Moved bool                 `json:"moved"`
	Match *presenter.MatchView `json:"match"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type handlers struct {
	logger   *slog.Logger
	validate *validator.Validate
	match    matchUseCase
}

func newHandlers(logger *slog.Logger, match matchUseCase) *handlers {
	return &handlers{
		logger:   logger,
		validate: validator.New(),
		match:    match,
	}
}

func (that *handlers) NewMatch(ctx *fiber.Ctx) error {
	var req NewMatchRequest
	if resp := that.parseBody(ctx, &req); resp != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(resp)
	}

	match, err := that.match.StartMatch(ctx.UserContext(), req.PlayerOne, req.PlayerTwo)
	if err != nil {
		return that.sendError(ctx, "NewMatch", err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(presenter.NewMatchView(match))
}

func (that *handlers) GetMatch(ctx *fiber.Ctx) error {
	match, err := that.match.GetMatch(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return that.sendError(ctx, "GetMatch", err)
	}

	return ctx.JSON(presenter.NewMatchView(match))
}

func (that *handlers) MakeMove(ctx *fiber.Ctx) error {
	var req MoveRequest
	if resp := that.parseBody(ctx, &req); resp != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(resp)
	}

	match, moved, err := that.match.MakeMove(ctx.UserContext(), ctx.Params("id"), *req.Cell)
	if err != nil {
		return that.sendError(ctx, "MakeMove", err)
	}

	return ctx.JSON(MoveResponse{Moved: moved, Match: presenter.NewMatchView(match)})
}

func (that *handlers) RestartMatch(ctx *fiber.Ctx) error {
	match, err := that.match.RestartMatch(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return that.sendError(ctx, "RestartMatch", err)
	}

	return ctx.JSON(presenter.NewMatchView(match))
}

func (that *handlers) EndMatch(ctx *fiber.Ctx) error {
	if err := that.match.EndMatch(ctx.UserContext(), ctx.Params("id")); err != nil {
		return that.sendError(ctx, "EndMatch", err)
	}

	return ctx.SendStatus(fiber.StatusNoContent)
}

func (that *handlers) parseBody(ctx *fiber.Ctx, req any) *ErrorResponse {
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(req); err != nil {
			return &ErrorResponse{Error: "invalid request body", Details: err.Error()}
		}
	}

	if err := that.validate.Struct(req); err != nil {
		return &ErrorResponse{Error: "validation failed", Details: validationDetails(err)}
	}

	return nil
}

func (that *handlers) sendError(ctx *fiber.Ctx, method string, err error) error {
	switch {
	case errors.Is(err, apperror.ErrMatchNotFound):
		return ctx.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: apperror.ErrMatchNotFound.Error()})
	case errors.Is(err, entity.ErrInvalidCell):
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{Error: entity.ErrInvalidCell.Error()})
	case errors.Is(err, apperror.ErrInvalidPlayers):
		return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: apperror.ErrInvalidPlayers.Error()})
	}

	that.logger.Error("request failed", "method", method, "error", err)

	return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "internal server error"})
}

func validationDetails(err error) string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err.Error()
	}

	details := make([]string, 0, len(errs))
	for _, fieldErr := range errs {
		switch fieldErr.Tag() {
		case "required":
			details = append(details, fmt.Sprintf("%s is required", fieldErr.Field()))
		case "max":
			details = append(details, fmt.Sprintf("%s must be at most %s characters", fieldErr.Field(), fieldErr.Param()))
		default:
			details = append(details, fmt.Sprintf("%s failed %s validation", fieldErr.Field(), fieldErr.Tag()))
		}
	}

	return strings.Join(details, "; ")
}
