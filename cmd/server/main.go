package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/dmarkov/spot_sentiment/internal/config"
	"github.com/dmarkov/spot_sentiment/internal/infrastructure/exchange"
	"github.com/dmarkov/spot_sentiment/internal/infrastructure/logger"
	"github.com/dmarkov/spot_sentiment/internal/infrastructure/sentiment"
	"github.com/dmarkov/spot_sentiment/internal/infrastructure/storage"
	"github.com/dmarkov/spot_sentiment/internal/metrics"
	"github.com/dmarkov/spot_sentiment/internal/usecase"
	"github.com/dmarkov/spot_sentiment/internal/web"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	// Optional .env for API keys; ignore when the file is absent.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Printf("Failed to load config: %v\n", err)
			os.Exit(1)
		}
		cfg = config.Default()
	}
	if key := os.Getenv("WHALE_ALERT_API_KEY"); key != "" {
		cfg.Sources.WhaleAlertAPIKey = key
	}
	if key := os.Getenv("CRYPTOPANIC_API_KEY"); key != "" {
		cfg.Sources.CryptoPanicAPIKey = key
	}
	if key := os.Getenv("SANTIMENT_API_KEY"); key != "" {
		cfg.Sources.SantimentAPIKey = key
	}

	log, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cache, err := storage.NewSQLiteCache(cfg.Cache.Path)
	if err != nil {
		log.Fatal("Failed to init metrics cache", zap.Error(err))
	}
	defer cache.Close()

	bybit := exchange.NewBybitAdapter(cfg.Exchange.RESTEndpoint, cfg.Exchange.WSEndpoint, log)
	coingecko := sentiment.NewCoinGeckoClient(
		cfg.Sources.CoinGeckoEndpoint,
		cfg.Sources.CoinGeckoRatePerSec,
		cache,
		cfg.Cache.SlugListTTL.Std(),
		cfg.Cache.CoinDetailTTL.Std(),
		log,
	)

	registry := prometheus.NewRegistry()
	met := metrics.New(registry)

	analyzer := usecase.NewAnalyzer(
		cfg.Analysis.Zones,
		cfg.Analysis.BreakoutWeights,
		cfg.Analysis.BuyScore,
		cfg.Analysis.ThinBookLevels,
		cfg.Analysis.ThinBookMinUSD,
	)
	store := usecase.NewSnapshotStore()

	scheduler := usecase.NewUpdateScheduler(
		usecase.SchedulerSources{
			Market:    bybit,
			Trending:  coingecko,
			Metrics:   coingecko,
			FearGreed: sentiment.NewFearGreedClient(cfg.Sources.FearGreedEndpoint),
			Mentions:  sentiment.NewRedditClient(cfg.Sources.RedditEndpoint),
			News:      sentiment.NewCryptoPanicClient(cfg.Sources.CryptoPanicEndpoint, cfg.Sources.CryptoPanicAPIKey),
			Inflow:    sentiment.NewWhaleAlertClient(cfg.Sources.WhaleAlertEndpoint, cfg.Sources.WhaleAlertAPIKey, cfg.Sources.WhaleMinValueUSD),
			Social:    sentiment.NewSantimentClient(cfg.Sources.SantimentEndpoint, cfg.Sources.SantimentAPIKey),
		},
		analyzer,
		store,
		usecase.SchedulerConfig{
			BasicInterval:  cfg.Scheduler.BasicInterval.Std(),
			FullInterval:   cfg.Scheduler.FullInterval.Std(),
			SymbolTimeout:  cfg.Scheduler.SymbolTimeout.Std(),
			RetryBackoff:   cfg.Scheduler.RetryBackoff.Std(),
			MaxRetries:     cfg.Scheduler.MaxRetries,
			ExtraSymbols:   cfg.Scheduler.ExtraSymbols,
			Timeframes:     cfg.Analysis.Timeframes,
			CandleLimit:    cfg.Analysis.CandleLimit,
			OrderbookDepth: cfg.Analysis.OrderbookDepth,
		},
		met,
		log,
	)

	server := web.NewServer(
		cfg.Server.Host,
		cfg.Server.Port,
		store,
		usecase.NewScalpFilter(cfg.Scalp.MaxSpreadPercent, cfg.Scalp.MinVolume24h),
		usecase.NewHealthMonitor(cfg.Scheduler.BasicStaleAfter.Std(), cfg.Scheduler.FullStaleAfter.Std()),
		registry,
		log,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	scheduler.Run(ctx)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Shutdown error", zap.Error(err))
	}
}
