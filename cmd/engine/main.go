package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mlowery/crypto-game/internal/alert"
	"github.com/mlowery/crypto-game/internal/config"
	"github.com/mlowery/crypto-game/internal/cycle"
	"github.com/mlowery/crypto-game/internal/database"
	"github.com/mlowery/crypto-game/internal/dispatch"
	"github.com/mlowery/crypto-game/internal/engine"
	"github.com/mlowery/crypto-game/internal/game"
	"github.com/mlowery/crypto-game/internal/leaderboard"
	"github.com/mlowery/crypto-game/internal/ledger"
	"github.com/mlowery/crypto-game/internal/model"
	"github.com/mlowery/crypto-game/internal/oracle"
	"github.com/mlowery/crypto-game/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/engine.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting engine",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"base_currency", cfg.Game.BaseCurrency,
		"oracle_url", cfg.Oracle.BaseURL,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to database
	logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.EnsureSchema(ctx, pool); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}

	logger.Info("database connected")

	// Operator alerting: webhook when configured, log otherwise
	var notifier alert.Notifier
	if cfg.Alert.WebhookURL != "" {
		notifier = alert.NewWebhookNotifier(cfg.Alert.WebhookURL, cfg.Alert.Timeout, logger)
	} else {
		notifier = &alert.LogNotifier{Logger: logger}
	}

	// Price oracle client
	prices := oracle.NewClient(
		cfg.Oracle.BaseURL,
		cfg.Game.BaseCurrency,
		oracle.WithAPIKey(cfg.Oracle.APIKey),
		oracle.WithTimeout(cfg.Oracle.Timeout),
		oracle.WithRetries(cfg.Oracle.MaxRetries, cfg.Oracle.RetryDelay),
		oracle.WithCacheTTL(cfg.Oracle.CacheTTL),
		oracle.WithFanout(cfg.Cycle.PriceConcurrency),
		oracle.WithLogger(logger),
		oracle.WithNotifier(notifier),
	)

	// Core components
	store := ledger.NewStore(pool, cfg.Game.BaseCurrency, cfg.StartingBalance(), logger)
	eng := engine.New(engine.Config{
		SweepConcurrency: cfg.Cycle.SweepConcurrency,
	}, store, prices, notifier, logger)
	standings := leaderboard.New(store, prices, logger)
	games := game.New(store, standings, logger)
	dispatcher := dispatch.New(eng, games, store, notifier, cfg.Game.AdminOwner, logger)

	// HTTP surface: health plus the typed command intake
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Health.Port),
		Handler: createHandler(pool, store, dispatcher, logger),
	}

	go func() {
		logger.Info("starting http server", "port", cfg.Health.Port)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start the maintenance cycle
	runner := cycle.New(cycle.Config{
		Interval: cfg.Cycle.Interval,
	}, store, standings, eng, games, logger)

	if err := runner.Start(ctx); err != nil {
		logger.Error("failed to start maintenance cycle", "error", err)
		os.Exit(1)
	}

	logger.Info("engine running",
		"instance_id", cfg.Instance.ID,
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Health.Port),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := runner.Stop(shutdownCtx); err != nil {
		logger.Error("maintenance cycle shutdown error", "error", err)
	}
	httpServer.Shutdown(shutdownCtx)

	logger.Info("engine stopped")
}

// commandRequest is the intake wire format. Type selects the command;
// the other fields are read per type.
type commandRequest struct {
	RequestID uuid.UUID `json:"request_id"`
	GameID    int64     `json:"game_id"`
	Owner     string    `json:"owner"`
	At        time.Time `json:"at"`

	Type string `json:"type"`

	Quantity   string `json:"quantity,omitempty"`
	BuySymbol  string `json:"buy_symbol,omitempty"`
	SellSymbol string `json:"sell_symbol,omitempty"`
	LimitPrice string `json:"limit_price,omitempty"`
	OrderID    int64  `json:"order_id,omitempty"`

	Length    int    `json:"length,omitempty"`
	Unit      string `json:"unit,omitempty"`
	ThreadRef string `json:"thread_ref,omitempty"`
}

// command converts the wire format into a typed command.
func (cr *commandRequest) command() (model.Command, error) {
	switch cr.Type {
	case "new_game":
		return model.NewGame{
			Length:    cr.Length,
			Unit:      model.GameUnit(cr.Unit),
			ThreadRef: cr.ThreadRef,
		}, nil
	case "market_order":
		return model.MarketOrder{
			Quantity:   cr.Quantity,
			BuySymbol:  cr.BuySymbol,
			SellSymbol: cr.SellSymbol,
		}, nil
	case "limit_order":
		price, err := decimal.NewFromString(cr.LimitPrice)
		if err != nil {
			return nil, fmt.Errorf("invalid limit_price %q", cr.LimitPrice)
		}
		return model.NewLimitOrder{
			Quantity:   cr.Quantity,
			BuySymbol:  cr.BuySymbol,
			SellSymbol: cr.SellSymbol,
			LimitPrice: price,
		}, nil
	case "cancel_limit":
		return model.CancelLimit{OrderID: cr.OrderID}, nil
	case "portfolio":
		return model.PortfolioQuery{}, nil
	default:
		return nil, fmt.Errorf("unknown command type %q", cr.Type)
	}
}

// createHandler builds the HTTP mux: health check plus command intake.
func createHandler(pool *pgxpool.Pool, store *ledger.Store, dispatcher *dispatch.Dispatcher, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string                 `json:"status"`
			Components map[string]interface{} `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]interface{}),
		}

		// Check database
		if err := pool.Ping(ctx); err != nil {
			health.Status = "unhealthy"
			health.Components["postgres"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		} else {
			health.Components["postgres"] = "connected"

			games, err := store.OpenGames(ctx)
			if err != nil {
				health.Status = "degraded"
				health.Components["games"] = map[string]string{"error": err.Error()}
			} else {
				health.Components["games"] = map[string]interface{}{"open": len(games)}
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	mux.HandleFunc("/v1/command", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var cr commandRequest
		if err := json.NewDecoder(r.Body).Decode(&cr); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if cr.RequestID == uuid.Nil || cr.Owner == "" {
			http.Error(w, "request_id and owner are required", http.StatusBadRequest)
			return
		}
		if cr.At.IsZero() {
			cr.At = time.Now().UTC()
		}

		cmd, err := cr.command()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		req := model.Request{
			ID:     cr.RequestID,
			GameID: cr.GameID,
			Owner:  cr.Owner,
			At:     cr.At,
		}
		res := dispatcher.Handle(r.Context(), req, cmd)

		logger.Debug("command handled",
			"request_id", req.ID, "type", cr.Type, "ok", res.OK)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(struct {
			OK        bool                    `json:"ok"`
			Detail    string                  `json:"detail"`
			Portfolio *model.PortfolioSummary `json:"portfolio,omitempty"`
		}{
			OK:        res.OK,
			Detail:    res.Detail,
			Portfolio: res.Portfolio,
		})
	})

	return mux
}
