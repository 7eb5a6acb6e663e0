package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raghav/banknifty_flip/internal/config"
	"github.com/raghav/banknifty_flip/internal/domain"
	"github.com/raghav/banknifty_flip/internal/infrastructure/broker"
	"github.com/raghav/banknifty_flip/internal/infrastructure/logger"
	"github.com/raghav/banknifty_flip/internal/infrastructure/storage"
	"github.com/raghav/banknifty_flip/internal/usecase"
	"github.com/raghav/banknifty_flip/internal/web"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	// 1. Load Config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Init Logger
	log, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// 3. Init Journal
	journal, err := storage.NewSQLiteJournal(cfg.Journal.Path)
	if err != nil {
		log.Fatal("Failed to init sqlite journal", zap.Error(err))
	}
	defer journal.Close()

	// 4. Init Broker + Position Store
	var (
		brk      domain.Broker
		store    usecase.PositionStore
		simStore *usecase.SimPositionStore
		ticker   *broker.Ticker
	)
	if cfg.Mode == config.ModeLive {
		kite := broker.NewKiteAdapter(cfg.Broker.APIKey, cfg.Broker.AccessToken, cfg.Broker.RESTEndpoint, log)
		ticker = broker.NewTicker(kite, cfg.Broker.WSEndpoint, broker.BankNiftyToken, cfg.Trading.SpotInstrument, log)
		if err := ticker.Connect(); err != nil {
			// REST fallback covers the spot price; the stream is an optimization.
			log.Warn("ticker connect failed, relying on REST quotes", zap.Error(err))
		}
		brk = kite
		store = usecase.NewLivePositionStore(kite, log)
	} else {
		brk = broker.NewSimBroker(cfg.Trading.SimSpotPrice, log)
		simStore = usecase.NewSimPositionStore()
		store = simStore
	}

	// 5. Init Engine
	resolver := usecase.NewSymbolResolver(cfg.Trading.Underlying, cfg.Trading.StrikeStep)
	clock := usecase.NewMarketClock()
	retryer := usecase.NewRetryer(
		cfg.Retry.MaxAttempts,
		usecase.LinearBackoff(time.Duration(cfg.Retry.BackoffMs)*time.Millisecond),
		log,
	)
	engine := usecase.NewFlipEngine(clock, resolver, store, brk, retryer, journal, usecase.FlipEngineConfig{
		SpotInstrument: cfg.Trading.SpotInstrument,
		Rehearsal:      cfg.Mode == config.ModeRehearsal,
		Cooldown:       time.Duration(cfg.Trading.CooldownMs) * time.Millisecond,
		LegPause:       time.Duration(cfg.Trading.LegPauseMs) * time.Millisecond,
	}, log)

	// 6. Init Web Server
	server := web.NewServer(
		cfg.Server.Port,
		engine,
		store,
		simStore,
		journal,
		cfg.Trading.DefaultQty,
		string(cfg.Mode),
		log,
	)

	// 7. Start Server
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	// 8. Wait for Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down...")
	if ticker != nil {
		ticker.Close()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	server.Shutdown(ctx)
}
