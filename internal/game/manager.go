package game

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mlowery/crypto-game/internal/model"
)

// Ledger is the store subset the manager needs.
type Ledger interface {
	CreateGame(ctx context.Context, g model.Game) (int64, error)
	ExpiredOpenGames(ctx context.Context, now time.Time) ([]model.Game, error)
	CloseGame(ctx context.Context, gameID int64) error
}

// Standings freezes a game's leaderboard as of a point in time.
type Standings interface {
	Refresh(ctx context.Context, game model.Game, asOf time.Time) ([]model.Standing, error)
}

// Manager creates and closes games.
type Manager struct {
	ledger    Ledger
	standings Standings
	logger    *slog.Logger
}

// New creates a game manager.
func New(ledger Ledger, standings Standings, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{ledger: ledger, standings: standings, logger: logger}
}

// Create starts a new game running for length units from now.
func (m *Manager) Create(ctx context.Context, cmd model.NewGame, now time.Time) (model.Game, error) {
	if cmd.Length <= 0 {
		return model.Game{}, fmt.Errorf("game length must be positive, got %d", cmd.Length)
	}
	if !cmd.Unit.Valid() {
		return model.Game{}, fmt.Errorf("unknown game unit %q", cmd.Unit)
	}

	g := model.Game{
		ThreadRef: cmd.ThreadRef,
		BeginAt:   now,
		EndAt:     EndTime(now, cmd.Length, cmd.Unit),
	}
	id, err := m.ledger.CreateGame(ctx, g)
	if err != nil {
		return model.Game{}, fmt.Errorf("create game: %w", err)
	}
	g.ID = id

	m.logger.Info("game created",
		"game_id", id, "thread", g.ThreadRef,
		"begin_at", g.BeginAt, "end_at", g.EndAt)
	return g, nil
}

// CloseExpired closes every open game whose end time has passed. Each
// game's final standings are computed at its exact end time before the
// game is marked complete, so the frozen leaderboard reflects the moment
// the contest ended. A failure on one game never blocks the others.
// Returns how many games were closed.
func (m *Manager) CloseExpired(ctx context.Context, now time.Time) (int, error) {
	expired, err := m.ledger.ExpiredOpenGames(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("expired games: %w", err)
	}

	closed := 0
	for _, g := range expired {
		if _, err := m.standings.Refresh(ctx, g, g.EndAt); err != nil {
			m.logger.Error("final standings failed, leaving game open",
				"game_id", g.ID, "error", err)
			continue
		}
		if err := m.ledger.CloseGame(ctx, g.ID); err != nil {
			m.logger.Error("close game failed", "game_id", g.ID, "error", err)
			continue
		}
		m.logger.Info("game closed", "game_id", g.ID, "end_at", g.EndAt)
		closed++
	}
	return closed, nil
}

// EndTime computes a game's end from its begin time. Day units add whole
// days. Month units add calendar months, clamping to the last day of the
// target month when the begin day does not exist there (Jan 31 plus one
// month ends Feb 28, or Feb 29 in a leap year).
func EndTime(begin time.Time, length int, unit model.GameUnit) time.Time {
	if !unit.Monthly() {
		return begin.AddDate(0, 0, length)
	}

	firstOfTarget := time.Date(begin.Year(), begin.Month()+time.Month(length), 1,
		0, 0, 0, 0, begin.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	day := begin.Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day,
		begin.Hour(), begin.Minute(), begin.Second(), begin.Nanosecond(), begin.Location())
}
