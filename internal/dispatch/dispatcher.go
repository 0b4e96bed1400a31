package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mlowery/crypto-game/internal/model"
)

// Orders is the engine surface the dispatcher routes trading commands to.
type Orders interface {
	ExecuteMarket(ctx context.Context, req model.Request, cmd model.MarketOrder) (model.Result, error)
	CreateLimit(ctx context.Context, req model.Request, cmd model.NewLimitOrder) (model.Result, error)
	Cancel(ctx context.Context, req model.Request, cmd model.CancelLimit) (model.Result, error)
	Portfolio(ctx context.Context, gameID int64, owner string) (*model.PortfolioSummary, error)
}

// Games creates new contests.
type Games interface {
	Create(ctx context.Context, cmd model.NewGame, now time.Time) (model.Game, error)
}

// Requests is the store subset backing replay protection and endowments.
type Requests interface {
	IsProcessed(ctx context.Context, requestID uuid.UUID) (bool, error)
	MarkProcessed(ctx context.Context, requestID uuid.UUID, gameID int64) error
	EnsureEndowment(ctx context.Context, gameID int64, owner string) error
}

// Notifier delivers operator alerts.
type Notifier interface {
	Notify(ctx context.Context, subject, body string)
}

const (
	msgInternal  = "something went wrong handling that command; the operator has been notified"
	msgDuplicate = "this request was already processed"
	msgNotAdmin  = "only the game operator can start a new game"
	msgUnknown   = "unrecognized command"
)

// Dispatcher executes one command per request with replay protection.
type Dispatcher struct {
	orders     Orders
	games      Games
	requests   Requests
	notifier   Notifier
	logger     *slog.Logger
	adminOwner string
	alerted    *alertOnce
}

// New creates a dispatcher. adminOwner is the only owner allowed to
// start new games.
func New(orders Orders, games Games, requests Requests, notifier Notifier, adminOwner string, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		orders:     orders,
		games:      games,
		requests:   requests,
		notifier:   notifier,
		logger:     logger,
		adminOwner: adminOwner,
		alerted:    newAlertOnce(),
	}
}

// Handle runs one command to completion and returns its result. A request
// ID that was already handled is rejected without side effects. Panics
// and unexpected errors are contained: the caller always gets a result,
// and the operator is alerted at most once per request ID.
func (d *Dispatcher) Handle(ctx context.Context, req model.Request, cmd model.Command) (res model.Result) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("panic handling command", "request_id", req.ID, "panic", r)
			d.alert(ctx, req.ID, fmt.Sprintf("panic handling request %s: %v", req.ID, r))
			res = model.Failure(msgInternal)
		}
	}()

	processed, err := d.requests.IsProcessed(ctx, req.ID)
	if err != nil {
		d.logger.Error("replay check failed", "request_id", req.ID, "error", err)
		d.alert(ctx, req.ID, fmt.Sprintf("replay check failed for request %s: %v", req.ID, err))
		return model.Failure(msgInternal)
	}
	if processed {
		return model.Failure(msgDuplicate)
	}

	res, err = d.route(ctx, req, cmd)
	if err != nil {
		d.logger.Error("command failed", "request_id", req.ID,
			"game_id", req.GameID, "owner", req.Owner, "error", err)
		d.alert(ctx, req.ID, fmt.Sprintf("request %s (game %d, owner %s): %v",
			req.ID, req.GameID, req.Owner, err))
		// Internal errors leave the request unprocessed so the intake can
		// retry it once the fault clears. The alert dedup keeps the
		// retries from re-paging the operator.
		return model.Failure(msgInternal)
	}

	if err := d.requests.MarkProcessed(ctx, req.ID, req.GameID); err != nil {
		d.logger.Error("mark processed failed", "request_id", req.ID, "error", err)
	}
	return res
}

func (d *Dispatcher) route(ctx context.Context, req model.Request, cmd model.Command) (model.Result, error) {
	switch c := cmd.(type) {
	case model.NewGame:
		return d.newGame(ctx, req, c)
	case model.MarketOrder:
		if err := d.requests.EnsureEndowment(ctx, req.GameID, req.Owner); err != nil {
			return model.Result{}, fmt.Errorf("ensure endowment: %w", err)
		}
		return d.orders.ExecuteMarket(ctx, req, c)
	case model.NewLimitOrder:
		if err := d.requests.EnsureEndowment(ctx, req.GameID, req.Owner); err != nil {
			return model.Result{}, fmt.Errorf("ensure endowment: %w", err)
		}
		return d.orders.CreateLimit(ctx, req, c)
	case model.CancelLimit:
		if err := d.requests.EnsureEndowment(ctx, req.GameID, req.Owner); err != nil {
			return model.Result{}, fmt.Errorf("ensure endowment: %w", err)
		}
		return d.orders.Cancel(ctx, req, c)
	case model.PortfolioQuery:
		if err := d.requests.EnsureEndowment(ctx, req.GameID, req.Owner); err != nil {
			return model.Result{}, fmt.Errorf("ensure endowment: %w", err)
		}
		summary, err := d.orders.Portfolio(ctx, req.GameID, req.Owner)
		if err != nil {
			return model.Result{}, err
		}
		return model.Success("here is your portfolio").WithPortfolio(summary), nil
	default:
		return model.Failure(msgUnknown), nil
	}
}

func (d *Dispatcher) newGame(ctx context.Context, req model.Request, cmd model.NewGame) (model.Result, error) {
	if req.Owner != d.adminOwner {
		d.logger.Warn("non-admin attempted to start a game",
			"request_id", req.ID, "owner", req.Owner)
		return model.Failure(msgNotAdmin), nil
	}

	g, err := d.games.Create(ctx, cmd, req.At)
	if err != nil {
		return model.Result{}, err
	}
	detail := fmt.Sprintf("game %d created, running until %s",
		g.ID, g.EndAt.UTC().Format(time.RFC3339))
	return model.Success(detail), nil
}

// alert notifies the operator about a failed request, at most once per
// request ID no matter how many handlers trip over it.
func (d *Dispatcher) alert(ctx context.Context, requestID uuid.UUID, body string) {
	if d.notifier == nil || !d.alerted.first(requestID) {
		return
	}
	d.notifier.Notify(ctx, "Error handling command", body)
}
