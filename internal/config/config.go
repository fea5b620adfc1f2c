package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dmarkov/spot_sentiment/internal/indicator"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "30s" or "2m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Exchange  ExchangeConfig  `yaml:"exchange"`
	Sources   SourcesConfig   `yaml:"sources"`
	Cache     CacheConfig     `yaml:"cache"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Scalp     ScalpConfig     `yaml:"scalp"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type ExchangeConfig struct {
	RESTEndpoint string `yaml:"rest_endpoint"`
	WSEndpoint   string `yaml:"ws_endpoint"`
}

type SourcesConfig struct {
	CoinGeckoEndpoint   string  `yaml:"coingecko_endpoint"`
	CoinGeckoRatePerSec float64 `yaml:"coingecko_rate_per_sec"`
	FearGreedEndpoint   string  `yaml:"fear_greed_endpoint"`
	RedditEndpoint      string  `yaml:"reddit_endpoint"`
	CryptoPanicEndpoint string  `yaml:"cryptopanic_endpoint"`
	CryptoPanicAPIKey   string  `yaml:"cryptopanic_api_key"`
	WhaleAlertEndpoint  string  `yaml:"whale_alert_endpoint"`
	WhaleAlertAPIKey    string  `yaml:"whale_alert_api_key"`
	WhaleMinValueUSD    float64 `yaml:"whale_min_value_usd"`
	SantimentEndpoint   string  `yaml:"santiment_endpoint"`
	SantimentAPIKey     string  `yaml:"santiment_api_key"`
}

type CacheConfig struct {
	Path          string   `yaml:"path"`
	SlugListTTL   Duration `yaml:"slug_list_ttl"`
	CoinDetailTTL Duration `yaml:"coin_detail_ttl"`
}

type SchedulerConfig struct {
	BasicInterval Duration `yaml:"basic_interval"`
	FullInterval  Duration `yaml:"full_interval"`
	SymbolTimeout Duration `yaml:"symbol_timeout"`
	RetryBackoff  Duration `yaml:"retry_backoff"`
	MaxRetries    int      `yaml:"max_retries"`

	// Extra symbols always tracked on top of the trending universe.
	ExtraSymbols []string `yaml:"extra_symbols"`

	BasicStaleAfter Duration `yaml:"basic_stale_after"`
	FullStaleAfter  Duration `yaml:"full_stale_after"`
}

type AnalysisConfig struct {
	Timeframes      map[string]string         `yaml:"timeframes"` // label -> exchange interval
	CandleLimit     int                       `yaml:"candle_limit"`
	OrderbookDepth  int                       `yaml:"orderbook_depth"`
	ThinBookLevels  int                       `yaml:"thin_book_levels"`
	ThinBookMinUSD  float64                   `yaml:"thin_book_min_usd"`
	BuyScore        int                       `yaml:"buy_score"`
	Zones           indicator.ZoneThresholds  `yaml:"volatility_zones"`
	BreakoutWeights indicator.BreakoutWeights `yaml:"breakout_weights"`
}

type ScalpConfig struct {
	MaxSpreadPercent float64 `yaml:"max_spread_percent"`
	MinVolume24h     float64 `yaml:"min_volume_24h"`
}

// Load reads the YAML config at path and applies defaults for anything
// left unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Default returns a config usable without any file at all.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	if c.Exchange.RESTEndpoint == "" {
		c.Exchange.RESTEndpoint = "https://api.bybit.com"
	}
	if c.Exchange.WSEndpoint == "" {
		c.Exchange.WSEndpoint = "wss://stream.bybit.com/v5/public/spot"
	}

	if c.Sources.CoinGeckoEndpoint == "" {
		c.Sources.CoinGeckoEndpoint = "https://api.coingecko.com/api/v3"
	}
	if c.Sources.CoinGeckoRatePerSec == 0 {
		// Free tier allows roughly 10-30 calls per minute.
		c.Sources.CoinGeckoRatePerSec = 0.166
	}
	if c.Sources.FearGreedEndpoint == "" {
		c.Sources.FearGreedEndpoint = "https://api.alternative.me/fng/"
	}
	if c.Sources.RedditEndpoint == "" {
		c.Sources.RedditEndpoint = "https://www.reddit.com/r/CryptoCurrency/top/?t=day"
	}
	if c.Sources.CryptoPanicEndpoint == "" {
		c.Sources.CryptoPanicEndpoint = "https://cryptopanic.com/api/v1/posts/"
	}
	if c.Sources.WhaleAlertEndpoint == "" {
		c.Sources.WhaleAlertEndpoint = "https://api.whale-alert.io/v1/transactions"
	}
	if c.Sources.WhaleMinValueUSD == 0 {
		c.Sources.WhaleMinValueUSD = 500000
	}
	if c.Sources.SantimentEndpoint == "" {
		c.Sources.SantimentEndpoint = "https://api.santiment.net/v1/assets"
	}

	if c.Cache.Path == "" {
		c.Cache.Path = "metrics_cache.db"
	}
	if c.Cache.SlugListTTL == 0 {
		c.Cache.SlugListTTL = Duration(6 * time.Hour)
	}
	if c.Cache.CoinDetailTTL == 0 {
		c.Cache.CoinDetailTTL = Duration(2 * time.Hour)
	}

	if c.Scheduler.BasicInterval == 0 {
		c.Scheduler.BasicInterval = Duration(2 * time.Minute)
	}
	if c.Scheduler.FullInterval == 0 {
		c.Scheduler.FullInterval = Duration(30 * time.Minute)
	}
	if c.Scheduler.SymbolTimeout == 0 {
		c.Scheduler.SymbolTimeout = Duration(15 * time.Second)
	}
	if c.Scheduler.RetryBackoff == 0 {
		c.Scheduler.RetryBackoff = Duration(30 * time.Second)
	}
	if c.Scheduler.MaxRetries == 0 {
		c.Scheduler.MaxRetries = 3
	}
	if c.Scheduler.BasicStaleAfter == 0 {
		c.Scheduler.BasicStaleAfter = Duration(10 * time.Minute)
	}
	if c.Scheduler.FullStaleAfter == 0 {
		c.Scheduler.FullStaleAfter = Duration(90 * time.Minute)
	}

	if len(c.Analysis.Timeframes) == 0 {
		c.Analysis.Timeframes = map[string]string{
			"15m": "15",
			"1h":  "60",
			"4h":  "240",
		}
	}
	if c.Analysis.CandleLimit == 0 {
		c.Analysis.CandleLimit = 20
	}
	if c.Analysis.OrderbookDepth == 0 {
		c.Analysis.OrderbookDepth = 5
	}
	if c.Analysis.ThinBookLevels == 0 {
		c.Analysis.ThinBookLevels = 5
	}
	if c.Analysis.ThinBookMinUSD == 0 {
		c.Analysis.ThinBookMinUSD = 50000
	}
	if c.Analysis.BuyScore == 0 {
		c.Analysis.BuyScore = 70
	}
	if c.Analysis.Zones == (indicator.ZoneThresholds{}) {
		c.Analysis.Zones = indicator.DefaultZoneThresholds()
	}
	if c.Analysis.BreakoutWeights == (indicator.BreakoutWeights{}) {
		c.Analysis.BreakoutWeights = indicator.DefaultBreakoutWeights()
	}

	if c.Scalp.MaxSpreadPercent == 0 {
		c.Scalp.MaxSpreadPercent = 0.5
	}
	if c.Scalp.MinVolume24h == 0 {
		c.Scalp.MinVolume24h = 1000000
	}
}
