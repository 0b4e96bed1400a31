package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mlowery/crypto-game/internal/model"
)

// ReplaceStandings swaps out a game's leaderboard snapshot wholesale:
// delete-all-then-insert inside one transaction.
func (s *Store) ReplaceStandings(ctx context.Context, gameID int64, standings []model.Standing) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM standings WHERE game_id = $1`, gameID); err != nil {
			return fmt.Errorf("delete standings: %w", err)
		}

		batch := &pgx.Batch{}
		for _, st := range standings {
			batch.Queue(`
				INSERT INTO standings (game_id, owner, portfolio_value, rank)
				VALUES ($1, $2, $3::numeric, $4)
			`, gameID, st.Owner, st.Value.String(), st.Rank)
		}

		results := tx.SendBatch(ctx, batch)
		defer results.Close()

		for range standings {
			if _, err := results.Exec(); err != nil {
				return fmt.Errorf("insert standing: %w", err)
			}
		}
		return results.Close()
	})
}

// Standings returns a game's current leaderboard snapshot in rank order.
func (s *Store) Standings(ctx context.Context, gameID int64) ([]model.Standing, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT game_id, owner, portfolio_value::text, rank
		FROM standings
		WHERE game_id = $1
		ORDER BY rank ASC
	`, gameID)
	if err != nil {
		return nil, fmt.Errorf("query standings: %w", err)
	}
	defer rows.Close()

	var standings []model.Standing
	for rows.Next() {
		var (
			st  model.Standing
			raw string
		)
		if err := rows.Scan(&st.GameID, &st.Owner, &raw, &st.Rank); err != nil {
			return nil, fmt.Errorf("scan standing: %w", err)
		}
		if st.Value, err = scanAmount(raw); err != nil {
			return nil, err
		}
		standings = append(standings, st)
	}
	return standings, rows.Err()
}
