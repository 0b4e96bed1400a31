package cycle

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mlowery/crypto-game/internal/model"
)

type fakeGames struct {
	games []model.Game
	err   error
	calls atomic.Int32
}

func (f *fakeGames) OpenGames(context.Context) ([]model.Game, error) {
	f.calls.Add(1)
	return f.games, f.err
}

type fakeStandings struct {
	mu        sync.Mutex
	refreshed []int64
	asOf      map[int64]time.Time
	err       error
}

func (f *fakeStandings) Refresh(_ context.Context, g model.Game, asOf time.Time) ([]model.Standing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshed = append(f.refreshed, g.ID)
	if f.asOf == nil {
		f.asOf = make(map[int64]time.Time)
	}
	f.asOf[g.ID] = asOf
	return nil, f.err
}

type fakeSweeper struct {
	mu    sync.Mutex
	swept []int64
	err   error
}

func (f *fakeSweeper) Sweep(_ context.Context, gameID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.swept = append(f.swept, gameID)
	if f.err != nil {
		return 0, f.err
	}
	return 1, nil
}

type fakeCloser struct {
	calls atomic.Int32
	err   error
}

func (f *fakeCloser) CloseExpired(context.Context, time.Time) (int, error) {
	f.calls.Add(1)
	return 0, f.err
}

func TestRunOnce(t *testing.T) {
	future := time.Now().Add(time.Hour)

	t.Run("visits every open game then closes expired", func(t *testing.T) {
		games := &fakeGames{games: []model.Game{{ID: 1, EndAt: future}, {ID: 2, EndAt: future}}}
		standings := &fakeStandings{}
		sweeper := &fakeSweeper{}
		closer := &fakeCloser{}
		r := New(Config{Interval: time.Hour}, games, standings, sweeper, closer, nil)

		r.RunOnce(context.Background())

		if len(standings.refreshed) != 2 {
			t.Errorf("refreshed %v, want both games", standings.refreshed)
		}
		if len(sweeper.swept) != 2 {
			t.Errorf("swept %v, want both games", sweeper.swept)
		}
		if closer.calls.Load() != 1 {
			t.Errorf("closer called %d times, want 1", closer.calls.Load())
		}
	})

	t.Run("running game valued at now, expired game at its end time", func(t *testing.T) {
		endAt := time.Now().Add(-2 * time.Hour)
		games := &fakeGames{games: []model.Game{
			{ID: 1, EndAt: future},
			{ID: 2, EndAt: endAt},
		}}
		standings := &fakeStandings{}
		r := New(Config{Interval: time.Hour}, games, standings, &fakeSweeper{}, &fakeCloser{}, nil)

		before := time.Now()
		r.RunOnce(context.Background())

		if got := standings.asOf[1]; got.Before(before) {
			t.Errorf("running game valued at %v, want now or later", got)
		}
		if got := standings.asOf[2]; !got.Equal(endAt) {
			t.Errorf("expired game valued at %v, want its end time %v", got, endAt)
		}
	})

	t.Run("one game's failures never block the rest", func(t *testing.T) {
		games := &fakeGames{games: []model.Game{{ID: 1, EndAt: future}, {ID: 2, EndAt: future}}}
		standings := &fakeStandings{err: errors.New("oracle down")}
		sweeper := &fakeSweeper{err: errors.New("db down")}
		closer := &fakeCloser{}
		r := New(Config{Interval: time.Hour}, games, standings, sweeper, closer, nil)

		r.RunOnce(context.Background())

		if len(standings.refreshed) != 2 || len(sweeper.swept) != 2 {
			t.Errorf("refreshed %v swept %v, want both games despite failures",
				standings.refreshed, sweeper.swept)
		}
		if closer.calls.Load() != 1 {
			t.Errorf("closer called %d times, want 1", closer.calls.Load())
		}
	})

	t.Run("listing failure skips the cycle body", func(t *testing.T) {
		games := &fakeGames{err: errors.New("db down")}
		standings := &fakeStandings{}
		closer := &fakeCloser{}
		r := New(Config{Interval: time.Hour}, games, standings, &fakeSweeper{}, closer, nil)

		r.RunOnce(context.Background())

		if len(standings.refreshed) != 0 {
			t.Errorf("refreshed %v, want none", standings.refreshed)
		}
		if closer.calls.Load() != 0 {
			t.Errorf("closer called %d times, want 0", closer.calls.Load())
		}
	})
}

func TestStartStop(t *testing.T) {
	games := &fakeGames{}
	r := New(Config{Interval: time.Hour}, games, &fakeStandings{}, &fakeSweeper{}, &fakeCloser{}, nil)

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// The first cycle runs immediately, not after the first tick.
	deadline := time.After(2 * time.Second)
	for games.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("first cycle did not run")
		case <-time.After(10 * time.Millisecond):
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
}
