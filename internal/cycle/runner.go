package cycle

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mlowery/crypto-game/internal/model"
)

// Games lists the contests the cycle maintains.
type Games interface {
	OpenGames(ctx context.Context) ([]model.Game, error)
}

// Standings refreshes a game's leaderboard snapshot.
type Standings interface {
	Refresh(ctx context.Context, game model.Game, asOf time.Time) ([]model.Standing, error)
}

// Sweeper settles due limit orders in a game.
type Sweeper interface {
	Sweep(ctx context.Context, gameID int64) (int, error)
}

// Closer closes games whose end time has passed.
type Closer interface {
	CloseExpired(ctx context.Context, now time.Time) (int, error)
}

// Config holds cycle configuration.
type Config struct {
	Interval time.Duration // Time between maintenance cycles (default: 30s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval: 30 * time.Second,
	}
}

// Runner runs the maintenance cycle on a fixed interval.
type Runner struct {
	cfg       Config
	games     Games
	standings Standings
	sweeper   Sweeper
	closer    Closer
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Runner.
func New(cfg Config, games Games, standings Standings, sweeper Sweeper, closer Closer, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	return &Runner{
		cfg:       cfg,
		games:     games,
		standings: standings,
		sweeper:   sweeper,
		closer:    closer,
		logger:    logger,
	}
}

// Start begins the maintenance loop.
func (r *Runner) Start(ctx context.Context) error {
	r.ctx, r.cancel = context.WithCancel(ctx)

	r.wg.Add(1)
	go r.run()

	r.logger.Info("maintenance cycle started", "interval", r.cfg.Interval)
	return nil
}

// Stop gracefully shuts down the runner.
func (r *Runner) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("maintenance cycle stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the main loop.
func (r *Runner) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	// Run immediately on start.
	r.RunOnce(r.ctx)

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.RunOnce(r.ctx)
		}
	}
}

// RunOnce executes one maintenance cycle: refresh every open game's
// leaderboard, sweep its due limit orders, then close expired games.
// Each unit of work fails independently so one bad game or one flaky
// price lookup never stalls the rest.
func (r *Runner) RunOnce(ctx context.Context) {
	start := time.Now()
	now := start.UTC()

	games, err := r.games.OpenGames(ctx)
	if err != nil {
		r.logger.Error("listing open games failed", "error", err)
		return
	}

	var settled int
	for _, g := range games {
		// An expired game is valued at its end time, never later. The
		// close step re-runs the same end-time valuation before marking
		// the game complete.
		asOf := now
		if g.EndAt.Before(now) {
			asOf = g.EndAt
		}
		if _, err := r.standings.Refresh(ctx, g, asOf); err != nil {
			r.logger.Error("leaderboard refresh failed", "game_id", g.ID, "error", err)
		}
		n, err := r.sweeper.Sweep(ctx, g.ID)
		if err != nil {
			r.logger.Error("limit order sweep failed", "game_id", g.ID, "error", err)
		}
		settled += n
	}

	closed, err := r.closer.CloseExpired(ctx, now)
	if err != nil {
		r.logger.Error("closing expired games failed", "error", err)
	}

	r.logger.Info("maintenance cycle complete",
		"games", len(games),
		"orders_settled", settled,
		"games_closed", closed,
		"duration", time.Since(start),
	)
}
