package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/entity"
	"github.com/rocketscienceinc/tictactoe-hotseat/transport/presenter"
)

const (
	actionMatchNew     = "match:new"
	actionMatchState   = "match:state"
	actionMatchTurn    = "match:turn"
	actionMatchRestart = "match:restart"
	actionMatchLeave   = "match:leave"
)

var (
	errInvalidMessage = errors.New("invalid message")
	errUnknownAction  = errors.New("unknown action")
	errMissingMatchID = errors.New("match_id is required")
	errMissingCell    = errors.New("cell is required")
)

// publicError hides anything that is not a client mistake.
func publicError(err error) string {
	for _, known := range []error{
		apperror.ErrMatchNotFound,
		apperror.ErrInvalidPlayers,
		entity.ErrInvalidCell,
		errInvalidMessage,
		errUnknownAction,
		errMissingMatchID,
		errMissingCell,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}

	return "internal error"
}

func decodePayload(message *Message) (Payload, error) {
	var payload Payload
	if len(message.Payload) == 0 {
		return payload, nil
	}

	if err := json.Unmarshal(message.Payload, &payload); err != nil {
		return payload, fmt.Errorf("%w: %w", errInvalidMessage, err)
	}

	return payload, nil
}

func decodeMatchPayload(message *Message) (Payload, error) {
	payload, err := decodePayload(message)
	if err != nil {
		return payload, err
	}

	if payload.MatchID == "" {
		return payload, errMissingMatchID
	}

	return payload, nil
}

func (that *Server) handleNewMatch(ctx context.Context, conn *connection, message *Message) error {
	payload, err := decodePayload(message)
	if err != nil {
		return err
	}

	match, err := that.matchUseCase.StartMatch(ctx, payload.PlayerOne, payload.PlayerTwo)
	if err != nil {
		return fmt.Errorf("failed to start match: %w", err)
	}

	that.subscribe(conn, match.ID)

	return conn.sendMessage(message.Action, Payload{MatchID: match.ID, Match: presenter.NewMatchView(match)})
}

func (that *Server) handleMatchState(ctx context.Context, conn *connection, message *Message) error {
	payload, err := decodeMatchPayload(message)
	if err != nil {
		return err
	}

	match, err := that.matchUseCase.GetMatch(ctx, payload.MatchID)
	if err != nil {
		return fmt.Errorf("failed to get match: %w", err)
	}

	that.subscribe(conn, match.ID)

	return conn.sendMessage(message.Action, Payload{MatchID: match.ID, Match: presenter.NewMatchView(match)})
}

func (that *Server) handleMatchTurn(ctx context.Context, conn *connection, message *Message) error {
	payload, err := decodeMatchPayload(message)
	if err != nil {
		return err
	}

	if payload.Cell == nil {
		return errMissingCell
	}

	match, moved, err := that.matchUseCase.MakeMove(ctx, payload.MatchID, *payload.Cell)
	if err != nil {
		return fmt.Errorf("failed to make move: %w", err)
	}

	that.subscribe(conn, match.ID)

	that.broadcast(that.subscribersOf(match.ID), message.Action, Payload{
		MatchID: match.ID,
		Cell:    payload.Cell,
		Moved:   &moved,
		Match:   presenter.NewMatchView(match),
	})

	return nil
}

func (that *Server) handleMatchRestart(ctx context.Context, conn *connection, message *Message) error {
	payload, err := decodeMatchPayload(message)
	if err != nil {
		return err
	}

	match, err := that.matchUseCase.RestartMatch(ctx, payload.MatchID)
	if err != nil {
		return fmt.Errorf("failed to restart match: %w", err)
	}

	that.subscribe(conn, match.ID)

	that.broadcast(that.subscribersOf(match.ID), message.Action, Payload{
		MatchID: match.ID,
		Match:   presenter.NewMatchView(match),
	})

	return nil
}

func (that *Server) handleMatchLeave(ctx context.Context, conn *connection, message *Message) error {
	payload, err := decodeMatchPayload(message)
	if err != nil {
		return err
	}

	if err = that.matchUseCase.EndMatch(ctx, payload.MatchID); err != nil {
		return fmt.Errorf("failed to end match: %w", err)
	}

	conns := that.dropSubscribers(payload.MatchID)

	if !slices.Contains(conns, conn) {
		conns = append(conns, conn)
	}

	that.broadcast(conns, message.Action, Payload{MatchID: payload.MatchID})

	return nil
}
