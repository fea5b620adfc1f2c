package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/dmarkov/spot_sentiment/internal/config"
	"github.com/dmarkov/spot_sentiment/internal/infrastructure/exchange"
)

// Smoke check for the exchange adapter: fetches tickers, an orderbook and
// a candle series for one pair and prints what came back.
func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	pair := flag.String("pair", "BTCUSDT", "trading pair to query")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		cfg = config.Default()
	}

	fmt.Printf("Testing Bybit spot endpoints...\n")
	fmt.Printf("Endpoint: %s\n", cfg.Exchange.RESTEndpoint)

	adapter := exchange.NewBybitAdapter(cfg.Exchange.RESTEndpoint, cfg.Exchange.WSEndpoint, zap.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tickers, err := adapter.GetTickers(ctx)
	if err != nil {
		fmt.Printf("❌ Failed to get tickers: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ Tickers: %d pairs\n", len(tickers))

	tick, ok := tickers[*pair]
	if !ok {
		fmt.Printf("❌ Pair %s not listed\n", *pair)
		os.Exit(1)
	}
	fmt.Printf("✅ %s last=%.2f high24h=%.2f low24h=%.2f volume24h=%.0f\n",
		*pair, tick.LastPrice, tick.HighPrice24h, tick.LowPrice24h, tick.Volume24h)

	book, err := adapter.GetOrderbook(ctx, *pair, 5)
	if err != nil {
		fmt.Printf("❌ Failed to get orderbook: %v\n", err)
	} else if bid, ok := book.BestBid(); ok {
		ask, _ := book.BestAsk()
		fmt.Printf("✅ Orderbook: best bid %.2f / best ask %.2f (%d/%d levels)\n",
			bid.Price, ask.Price, len(book.Bids), len(book.Asks))
	}

	series, err := adapter.GetCandles(ctx, *pair, "60", 20)
	if err != nil || len(series.Closes) == 0 {
		fmt.Printf("❌ Failed to get candles: %v\n", err)
	} else {
		fmt.Printf("✅ Candles (1h): %d closes, latest %.2f\n",
			len(series.Closes), series.Closes[len(series.Closes)-1])
	}
}
