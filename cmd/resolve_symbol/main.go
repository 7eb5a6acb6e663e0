// Resolves a contract symbol offline from a spot price, side, and date.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/raghav/banknifty_flip/internal/domain"
	"github.com/raghav/banknifty_flip/internal/usecase"
)

func main() {
	spot := flag.Float64("spot", 0, "spot price of the underlying")
	side := flag.String("side", "CE", "option side: CE or PE")
	date := flag.String("date", "", "as-of date (2006-01-02), default today")
	underlying := flag.String("underlying", "BANKNIFTY", "underlying name")
	flag.Parse()

	asOf := time.Now()
	if *date != "" {
		parsed, err := time.Parse("2006-01-02", *date)
		if err != nil {
			fmt.Printf("Invalid date: %v\n", err)
			os.Exit(1)
		}
		asOf = parsed
	}

	resolver := usecase.NewSymbolResolver(*underlying, 100)
	symbol, err := resolver.Resolve(*spot, domain.OptionSide(*side), asOf)
	if err != nil {
		fmt.Printf("Resolve failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("symbol: %s\n", symbol)
	fmt.Printf("expiry: %s\n", resolver.Expiry(asOf).Format("2006-01-02"))
}
