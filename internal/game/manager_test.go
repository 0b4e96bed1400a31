package game

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mlowery/crypto-game/internal/model"
)

func TestEndTime(t *testing.T) {
	loc := time.UTC
	at := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 9, 30, 0, 0, loc)
	}

	tests := []struct {
		name   string
		begin  time.Time
		length int
		unit   model.GameUnit
		want   time.Time
	}{
		{name: "one day", begin: at(2026, time.March, 15), length: 1, unit: model.UnitDay, want: at(2026, time.March, 16)},
		{name: "ten days across month", begin: at(2026, time.March, 25), length: 10, unit: model.UnitDays, want: at(2026, time.April, 4)},
		{name: "one month plain", begin: at(2026, time.March, 15), length: 1, unit: model.UnitMonth, want: at(2026, time.April, 15)},
		{name: "jan 31 plus one month clamps to feb 28", begin: at(2026, time.January, 31), length: 1, unit: model.UnitMonth, want: at(2026, time.February, 28)},
		{name: "jan 31 plus one month in leap year clamps to feb 29", begin: at(2028, time.January, 31), length: 1, unit: model.UnitMonth, want: at(2028, time.February, 29)},
		{name: "oct 31 plus one month clamps to nov 30", begin: at(2026, time.October, 31), length: 1, unit: model.UnitMonths, want: at(2026, time.November, 30)},
		{name: "three months across year end", begin: at(2026, time.November, 30), length: 3, unit: model.UnitMonths, want: at(2027, time.February, 28)},
		{name: "twelve months", begin: at(2026, time.March, 15), length: 12, unit: model.UnitMonths, want: at(2027, time.March, 15)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EndTime(tt.begin, tt.length, tt.unit)
			if !got.Equal(tt.want) {
				t.Errorf("EndTime(%v, %d, %s) = %v, want %v", tt.begin, tt.length, tt.unit, got, tt.want)
			}
		})
	}
}

// fakeLedger records lifecycle calls.
type fakeLedger struct {
	nextID  int64
	created []model.Game
	expired []model.Game
	closed  []int64
}

func (f *fakeLedger) CreateGame(_ context.Context, g model.Game) (int64, error) {
	f.nextID++
	f.created = append(f.created, g)
	return f.nextID, nil
}

func (f *fakeLedger) ExpiredOpenGames(context.Context, time.Time) ([]model.Game, error) {
	return f.expired, nil
}

func (f *fakeLedger) CloseGame(_ context.Context, gameID int64) error {
	f.closed = append(f.closed, gameID)
	return nil
}

// fakeStandings records refresh calls and can fail per game.
type fakeStandings struct {
	refreshed map[int64]time.Time
	failFor   map[int64]error
}

func newFakeStandings() *fakeStandings {
	return &fakeStandings{
		refreshed: make(map[int64]time.Time),
		failFor:   make(map[int64]error),
	}
}

func (f *fakeStandings) Refresh(_ context.Context, g model.Game, asOf time.Time) ([]model.Standing, error) {
	if err := f.failFor[g.ID]; err != nil {
		return nil, err
	}
	f.refreshed[g.ID] = asOf
	return nil, nil
}

func TestCreate(t *testing.T) {
	l := &fakeLedger{}
	m := New(l, newFakeStandings(), nil)
	now := time.Date(2026, time.January, 31, 12, 0, 0, 0, time.UTC)

	g, err := m.Create(context.Background(), model.NewGame{
		Length: 1, Unit: model.UnitMonth, ThreadRef: "t3_abc123",
	}, now)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if g.ID != 1 {
		t.Errorf("ID = %d, want 1", g.ID)
	}
	if !g.BeginAt.Equal(now) {
		t.Errorf("BeginAt = %v, want %v", g.BeginAt, now)
	}
	want := time.Date(2026, time.February, 28, 12, 0, 0, 0, time.UTC)
	if !g.EndAt.Equal(want) {
		t.Errorf("EndAt = %v, want %v", g.EndAt, want)
	}

	t.Run("rejects bad length", func(t *testing.T) {
		if _, err := m.Create(context.Background(), model.NewGame{Length: 0, Unit: model.UnitDay}, now); err == nil {
			t.Error("zero length accepted")
		}
	})

	t.Run("rejects bad unit", func(t *testing.T) {
		if _, err := m.Create(context.Background(), model.NewGame{Length: 1, Unit: "fortnight"}, now); err == nil {
			t.Error("unknown unit accepted")
		}
	})
}

func TestCloseExpired(t *testing.T) {
	now := time.Now().UTC()
	endA := now.Add(-time.Hour)
	endB := now.Add(-2 * time.Hour)

	t.Run("freezes standings at end time then closes", func(t *testing.T) {
		l := &fakeLedger{expired: []model.Game{
			{ID: 1, EndAt: endA},
			{ID: 2, EndAt: endB},
		}}
		s := newFakeStandings()
		m := New(l, s, nil)

		closed, err := m.CloseExpired(context.Background(), now)
		if err != nil {
			t.Fatalf("CloseExpired() error = %v", err)
		}
		if closed != 2 {
			t.Fatalf("closed = %d, want 2", closed)
		}
		if !s.refreshed[1].Equal(endA) || !s.refreshed[2].Equal(endB) {
			t.Errorf("standings frozen at %v and %v, want end times %v and %v",
				s.refreshed[1], s.refreshed[2], endA, endB)
		}
		if len(l.closed) != 2 {
			t.Errorf("closed games = %v, want both", l.closed)
		}
	})

	t.Run("failed final standings leaves the game open", func(t *testing.T) {
		l := &fakeLedger{expired: []model.Game{
			{ID: 1, EndAt: endA},
			{ID: 2, EndAt: endB},
		}}
		s := newFakeStandings()
		s.failFor[1] = errors.New("oracle down")
		m := New(l, s, nil)

		closed, err := m.CloseExpired(context.Background(), now)
		if err != nil {
			t.Fatalf("CloseExpired() error = %v", err)
		}
		if closed != 1 {
			t.Fatalf("closed = %d, want 1", closed)
		}
		if len(l.closed) != 1 || l.closed[0] != 2 {
			t.Errorf("closed games = %v, want [2]", l.closed)
		}
	})

	t.Run("nothing expired", func(t *testing.T) {
		l := &fakeLedger{}
		m := New(l, newFakeStandings(), nil)

		closed, err := m.CloseExpired(context.Background(), now)
		if err != nil {
			t.Fatalf("CloseExpired() error = %v", err)
		}
		if closed != 0 {
			t.Errorf("closed = %d, want 0", closed)
		}
	})
}
