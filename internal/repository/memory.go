package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rocketscienceinc/tictactoe-hotseat/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/entity"
)

type memoryMatch struct {
	mu      sync.RWMutex
	matches map[string][]byte
}

// NewMemoryMatchRepository keeps matches in process memory, encoded the same way as the Redis store.
func NewMemoryMatchRepository() MatchRepository {
	return &memoryMatch{
		matches: make(map[string][]byte),
	}
}

func (that *memoryMatch) CreateOrUpdate(_ context.Context, match *entity.Match) error {
	matchJSON, err := json.Marshal(match.Snapshot())
	if err != nil {
		return fmt.Errorf("could not marshal match: %w", err)
	}

	that.mu.Lock()
	that.matches[match.ID] = matchJSON
	that.mu.Unlock()

	return nil
}

func (that *memoryMatch) GetByID(_ context.Context, id string) (*entity.Match, error) {
	that.mu.RLock()
	data, ok := that.matches[id]
	that.mu.RUnlock()

	if !ok {
		return nil, apperror.ErrMatchNotFound
	}

	return decodeMatch(data)
}

func (that *memoryMatch) DeleteByID(_ context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.matches[id]; !ok {
		return apperror.ErrMatchNotFound
	}

	delete(that.matches, id)

	return nil
}
