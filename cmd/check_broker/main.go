// Verifies broker connectivity: prints the spot LTP and the current
// open positions using the configured credentials.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/raghav/banknifty_flip/internal/config"
	"github.com/raghav/banknifty_flip/internal/infrastructure/broker"
	"github.com/raghav/banknifty_flip/internal/infrastructure/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Broker.APIKey == "" || cfg.Broker.AccessToken == "" {
		fmt.Println("Broker credentials are not configured")
		os.Exit(1)
	}

	log, err := logger.NewLogger("warn")
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	kite := broker.NewKiteAdapter(cfg.Broker.APIKey, cfg.Broker.AccessToken, cfg.Broker.RESTEndpoint, log)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	spot, err := kite.GetLastPrice(ctx, cfg.Trading.SpotInstrument)
	if err != nil {
		fmt.Printf("LTP query failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s: %.2f\n", cfg.Trading.SpotInstrument, spot)

	positions, err := kite.GetOpenPositions(ctx)
	if err != nil {
		fmt.Printf("Positions query failed: %v\n", err)
		os.Exit(1)
	}
	if len(positions) == 0 {
		fmt.Println("No positions")
		return
	}
	for _, p := range positions {
		fmt.Printf("%-30s qty=%d\n", p.Symbol, p.Quantity)
	}
}
