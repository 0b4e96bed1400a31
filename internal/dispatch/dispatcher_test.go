package dispatch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mlowery/crypto-game/internal/model"
)

type fakeOrders struct {
	marketCalls int
	limitCalls  int
	cancelCalls int
	result      model.Result
	err         error
	panicWith   any
}

func (f *fakeOrders) ExecuteMarket(context.Context, model.Request, model.MarketOrder) (model.Result, error) {
	f.marketCalls++
	if f.panicWith != nil {
		panic(f.panicWith)
	}
	return f.result, f.err
}

func (f *fakeOrders) CreateLimit(context.Context, model.Request, model.NewLimitOrder) (model.Result, error) {
	f.limitCalls++
	return f.result, f.err
}

func (f *fakeOrders) Cancel(context.Context, model.Request, model.CancelLimit) (model.Result, error) {
	f.cancelCalls++
	return f.result, f.err
}

func (f *fakeOrders) Portfolio(context.Context, int64, string) (*model.PortfolioSummary, error) {
	return &model.PortfolioSummary{BaseCurrency: "USD"}, f.err
}

type fakeGames struct {
	created []model.NewGame
	err     error
}

func (f *fakeGames) Create(_ context.Context, cmd model.NewGame, now time.Time) (model.Game, error) {
	if f.err != nil {
		return model.Game{}, f.err
	}
	f.created = append(f.created, cmd)
	return model.Game{ID: 7, EndAt: now.AddDate(0, 1, 0)}, nil
}

type fakeRequests struct {
	processed map[uuid.UUID]bool
	endowed   int
	checkErr  error
}

func newFakeRequests() *fakeRequests {
	return &fakeRequests{processed: make(map[uuid.UUID]bool)}
}

func (f *fakeRequests) IsProcessed(_ context.Context, id uuid.UUID) (bool, error) {
	if f.checkErr != nil {
		return false, f.checkErr
	}
	return f.processed[id], nil
}

func (f *fakeRequests) MarkProcessed(_ context.Context, id uuid.UUID, _ int64) error {
	f.processed[id] = true
	return nil
}

func (f *fakeRequests) EnsureEndowment(context.Context, int64, string) error {
	f.endowed++
	return nil
}

type fakeNotifier struct {
	calls atomic.Int32
}

func (f *fakeNotifier) Notify(context.Context, string, string) {
	f.calls.Add(1)
}

func request(owner string) model.Request {
	return model.Request{ID: uuid.New(), GameID: 1, Owner: owner, At: time.Now()}
}

func TestHandleMarketOrder(t *testing.T) {
	orders := &fakeOrders{result: model.Success("filled")}
	reqs := newFakeRequests()
	d := New(orders, &fakeGames{}, reqs, nil, "admin", nil)

	req := request("alice")
	res := d.Handle(context.Background(), req, model.MarketOrder{Quantity: "1", BuySymbol: "BTC", SellSymbol: "USD"})
	if !res.OK || res.Detail != "filled" {
		t.Fatalf("result = %+v, want success", res)
	}
	if reqs.endowed != 1 {
		t.Errorf("endowment ensured %d times, want 1", reqs.endowed)
	}
	if orders.marketCalls != 1 {
		t.Errorf("market called %d times, want 1", orders.marketCalls)
	}
	if !reqs.processed[req.ID] {
		t.Error("request not marked processed")
	}
}

func TestHandleDuplicateRequest(t *testing.T) {
	orders := &fakeOrders{result: model.Success("filled")}
	reqs := newFakeRequests()
	d := New(orders, &fakeGames{}, reqs, nil, "admin", nil)

	req := request("alice")
	cmd := model.MarketOrder{Quantity: "1", BuySymbol: "BTC", SellSymbol: "USD"}

	if res := d.Handle(context.Background(), req, cmd); !res.OK {
		t.Fatalf("first handle failed: %+v", res)
	}
	res := d.Handle(context.Background(), req, cmd)
	if res.OK {
		t.Fatal("replayed request succeeded")
	}
	if orders.marketCalls != 1 {
		t.Errorf("market called %d times, want 1 (replay must not execute)", orders.marketCalls)
	}
}

func TestHandleNewGame(t *testing.T) {
	t.Run("admin may create", func(t *testing.T) {
		games := &fakeGames{}
		d := New(&fakeOrders{}, games, newFakeRequests(), nil, "admin", nil)

		res := d.Handle(context.Background(), request("admin"), model.NewGame{Length: 1, Unit: model.UnitMonth})
		if !res.OK {
			t.Fatalf("result = %+v, want success", res)
		}
		if len(games.created) != 1 {
			t.Errorf("created %d games, want 1", len(games.created))
		}
	})

	t.Run("non-admin is refused", func(t *testing.T) {
		games := &fakeGames{}
		d := New(&fakeOrders{}, games, newFakeRequests(), nil, "admin", nil)

		res := d.Handle(context.Background(), request("mallory"), model.NewGame{Length: 1, Unit: model.UnitMonth})
		if res.OK {
			t.Fatal("non-admin created a game")
		}
		if len(games.created) != 0 {
			t.Errorf("created %d games, want 0", len(games.created))
		}
	})
}

func TestHandlePortfolio(t *testing.T) {
	d := New(&fakeOrders{}, &fakeGames{}, newFakeRequests(), nil, "admin", nil)

	res := d.Handle(context.Background(), request("alice"), model.PortfolioQuery{})
	if !res.OK {
		t.Fatalf("result = %+v, want success", res)
	}
	if res.Portfolio == nil || res.Portfolio.BaseCurrency != "USD" {
		t.Errorf("portfolio = %+v, want attached summary", res.Portfolio)
	}
}

func TestHandlePanicContained(t *testing.T) {
	orders := &fakeOrders{panicWith: "boom"}
	notes := &fakeNotifier{}
	d := New(orders, &fakeGames{}, newFakeRequests(), notes, "admin", nil)

	res := d.Handle(context.Background(), request("alice"), model.MarketOrder{Quantity: "1", BuySymbol: "BTC", SellSymbol: "USD"})
	if res.OK {
		t.Fatal("panicking handler reported success")
	}
	if res.Detail == "" {
		t.Error("caller left without an explanation")
	}
	if notes.calls.Load() != 1 {
		t.Errorf("notifier called %d times, want 1", notes.calls.Load())
	}
}

func TestHandleErrorAlertsOncePerRequest(t *testing.T) {
	orders := &fakeOrders{err: errors.New("db down")}
	notes := &fakeNotifier{}
	d := New(orders, &fakeGames{}, newFakeRequests(), notes, "admin", nil)

	req := request("alice")
	cmd := model.CancelLimit{OrderID: 3}

	res := d.Handle(context.Background(), req, cmd)
	if res.OK {
		t.Fatal("failed handler reported success")
	}
	// Force a second pass with the same request ID past the replay guard.
	d.alert(context.Background(), req.ID, "again")
	d.alert(context.Background(), req.ID, "and again")

	if notes.calls.Load() != 1 {
		t.Errorf("notifier called %d times, want 1 per request id", notes.calls.Load())
	}
}

func TestHandleErrorLeavesRequestRetryable(t *testing.T) {
	orders := &fakeOrders{err: errors.New("db down")}
	reqs := newFakeRequests()
	notes := &fakeNotifier{}
	d := New(orders, &fakeGames{}, reqs, notes, "admin", nil)

	req := request("alice")
	cmd := model.MarketOrder{Quantity: "1", BuySymbol: "BTC", SellSymbol: "USD"}

	res := d.Handle(context.Background(), req, cmd)
	if res.OK {
		t.Fatal("failed handler reported success")
	}
	if reqs.processed[req.ID] {
		t.Fatal("errored request marked processed; it can never retry")
	}

	// The fault clears and the intake replays the same request.
	orders.err = nil
	orders.result = model.Success("filled")

	res = d.Handle(context.Background(), req, cmd)
	if !res.OK {
		t.Fatalf("retry after fault cleared failed: %+v", res)
	}
	if orders.marketCalls != 2 {
		t.Errorf("market called %d times, want 2", orders.marketCalls)
	}
	if !reqs.processed[req.ID] {
		t.Error("successful retry not marked processed")
	}
	if notes.calls.Load() != 1 {
		t.Errorf("notifier called %d times, want 1 across the retry", notes.calls.Load())
	}
}

func TestAlertOnce(t *testing.T) {
	a := newAlertOnce()
	id := uuid.New()

	if !a.first(id) {
		t.Error("first sighting reported as repeat")
	}
	if a.first(id) {
		t.Error("repeat sighting reported as first")
	}
	if !a.first(uuid.New()) {
		t.Error("different id reported as repeat")
	}
}

func TestAlertOncePrunes(t *testing.T) {
	a := newAlertOnce()
	a.maxTracked = 8

	for i := 0; i < 20; i++ {
		a.first(uuid.New())
	}
	if len(a.seen) > 9 {
		t.Errorf("tracked %d ids, want pruning around %d", len(a.seen), 8)
	}
}
