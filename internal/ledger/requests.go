package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// IsProcessed reports whether a request has already been handled.
func (s *Store) IsProcessed(ctx context.Context, requestID uuid.UUID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM processed_requests WHERE request_id = $1)
	`, requestID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query processed request: %w", err)
	}
	return exists, nil
}

// MarkProcessed records a request as handled so restarts never replay it.
func (s *Store) MarkProcessed(ctx context.Context, requestID uuid.UUID, gameID int64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO processed_requests (request_id, game_id)
		VALUES ($1, $2)
		ON CONFLICT (request_id) DO NOTHING
	`, requestID, gameID)
	if err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	return nil
}
