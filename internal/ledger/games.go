package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mlowery/crypto-game/internal/model"
)

// CreateGame persists a new game and returns its id.
func (s *Store) CreateGame(ctx context.Context, g model.Game) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO games (thread_ref, begin_at, end_at, complete)
		VALUES ($1, $2, $3, FALSE)
		RETURNING game_id
	`, g.ThreadRef, g.BeginAt, g.EndAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert game: %w", err)
	}
	return id, nil
}

// Game returns a game by id.
func (s *Store) Game(ctx context.Context, gameID int64) (model.Game, error) {
	var g model.Game
	err := s.pool.QueryRow(ctx, `
		SELECT game_id, thread_ref, begin_at, end_at, complete
		FROM games WHERE game_id = $1
	`, gameID).Scan(&g.ID, &g.ThreadRef, &g.BeginAt, &g.EndAt, &g.Complete)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Game{}, fmt.Errorf("game %d not found", gameID)
	}
	if err != nil {
		return model.Game{}, fmt.Errorf("query game: %w", err)
	}
	return g, nil
}

// OpenGames returns every game that has not been closed yet.
func (s *Store) OpenGames(ctx context.Context) ([]model.Game, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT game_id, thread_ref, begin_at, end_at, complete
		FROM games WHERE NOT complete
		ORDER BY game_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query open games: %w", err)
	}
	defer rows.Close()

	var games []model.Game
	for rows.Next() {
		var g model.Game
		if err := rows.Scan(&g.ID, &g.ThreadRef, &g.BeginAt, &g.EndAt, &g.Complete); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// CloseGame marks a game complete. Closing an already-closed game is a
// no-op.
func (s *Store) CloseGame(ctx context.Context, gameID int64) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE games SET complete = TRUE WHERE game_id = $1 AND NOT complete
	`, gameID)
	if err != nil {
		return fmt.Errorf("close game: %w", err)
	}
	return nil
}

// ExpiredOpenGames returns open games whose end time has passed.
func (s *Store) ExpiredOpenGames(ctx context.Context, now time.Time) ([]model.Game, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT game_id, thread_ref, begin_at, end_at, complete
		FROM games WHERE NOT complete AND end_at <= $1
		ORDER BY game_id ASC
	`, now)
	if err != nil {
		return nil, fmt.Errorf("query expired games: %w", err)
	}
	defer rows.Close()

	var games []model.Game
	for rows.Next() {
		var g model.Game
		if err := rows.Scan(&g.ID, &g.ThreadRef, &g.BeginAt, &g.EndAt, &g.Complete); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}
