package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/dmarkov/spot_sentiment/internal/domain"
)

const (
	BybitBaseURL = "https://api.bybit.com"
	BybitWSURL   = "wss://stream.bybit.com/v5/public/spot"
)

// BybitAdapter implements domain.MarketDataSource against the Bybit V5
// public spot endpoints: REST for tickers/orderbook/kline, websocket for
// streamed last-price updates.
type BybitAdapter struct {
	baseURL string
	wsURL   string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger

	wsConn    *websocket.Conn
	callbacks []func(symbol string, price float64)
	mu        sync.Mutex
}

func NewBybitAdapter(baseURL, wsURL string, logger *zap.Logger) *BybitAdapter {
	return &BybitAdapter{
		baseURL: baseURL,
		wsURL:   wsURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "bybit",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
		logger: logger,
	}
}

// --- REST API ---

func (b *BybitAdapter) get(ctx context.Context, path string) ([]byte, error) {
	resp, err := b.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+path, nil)
		if err != nil {
			return nil, err
		}
		httpResp, err := b.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer httpResp.Body.Close()

		body, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return nil, err
		}
		if httpResp.StatusCode >= 400 {
			return nil, fmt.Errorf("bybit http %d: %s", httpResp.StatusCode, string(body))
		}
		return body, nil
	})
	if err != nil {
		return nil, err
	}
	return resp.([]byte), nil
}

func (b *BybitAdapter) GetTickers(ctx context.Context) (map[string]domain.MarketTick, error) {
	body, err := b.get(ctx, "/v5/market/tickers?category=spot")
	if err != nil {
		return nil, err
	}

	var result struct {
		RetCode int    `json:"retCode"`
		RetMsg  string `json:"retMsg"`
		Result  struct {
			List []struct {
				Symbol       string `json:"symbol"`
				LastPrice    string `json:"lastPrice"`
				HighPrice24h string `json:"highPrice24h"`
				LowPrice24h  string `json:"lowPrice24h"`
				PrevPrice24h string `json:"prevPrice24h"`
				Volume24h    string `json:"volume24h"`
				Turnover24h  string `json:"turnover24h"`
				Price24hPcnt string `json:"price24hPcnt"`
			} `json:"list"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, err
	}
	if result.RetCode != 0 {
		return nil, fmt.Errorf("bybit tickers error: %s", result.RetMsg)
	}

	ticks := make(map[string]domain.MarketTick, len(result.Result.List))
	for _, raw := range result.Result.List {
		last, _ := strconv.ParseFloat(raw.LastPrice, 64)
		high, _ := strconv.ParseFloat(raw.HighPrice24h, 64)
		low, _ := strconv.ParseFloat(raw.LowPrice24h, 64)
		prev, _ := strconv.ParseFloat(raw.PrevPrice24h, 64)
		volume, _ := strconv.ParseFloat(raw.Volume24h, 64)
		turnover, _ := strconv.ParseFloat(raw.Turnover24h, 64)
		pcnt, _ := strconv.ParseFloat(raw.Price24hPcnt, 64)

		ticks[raw.Symbol] = domain.MarketTick{
			Symbol:       raw.Symbol,
			LastPrice:    last,
			HighPrice24h: high,
			LowPrice24h:  low,
			PrevPrice24h: prev,
			Volume24h:    volume,
			Turnover24h:  turnover,
			Change24hPct: pcnt * 100,
		}
	}
	return ticks, nil
}

func (b *BybitAdapter) GetOrderbook(ctx context.Context, symbol string, depth int) (*domain.OrderbookSnapshot, error) {
	path := fmt.Sprintf("/v5/market/orderbook?category=spot&symbol=%s&limit=%d", symbol, depth)
	body, err := b.get(ctx, path)
	if err != nil {
		return nil, err
	}

	var result struct {
		RetCode int    `json:"retCode"`
		RetMsg  string `json:"retMsg"`
		Result  struct {
			S string     `json:"s"`
			B [][]string `json:"b"`
			A [][]string `json:"a"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, err
	}
	if result.RetCode != 0 {
		return nil, fmt.Errorf("bybit orderbook error: %s", result.RetMsg)
	}

	ob := &domain.OrderbookSnapshot{
		Symbol: result.Result.S,
		Bids:   make([]domain.OrderbookLevel, 0, len(result.Result.B)),
		Asks:   make([]domain.OrderbookLevel, 0, len(result.Result.A)),
	}
	for _, bid := range result.Result.B {
		if len(bid) < 2 {
			continue
		}
		price, _ := strconv.ParseFloat(bid[0], 64)
		size, _ := strconv.ParseFloat(bid[1], 64)
		ob.Bids = append(ob.Bids, domain.OrderbookLevel{Price: price, Size: size})
	}
	for _, ask := range result.Result.A {
		if len(ask) < 2 {
			continue
		}
		price, _ := strconv.ParseFloat(ask[0], 64)
		size, _ := strconv.ParseFloat(ask[1], 64)
		ob.Asks = append(ob.Asks, domain.OrderbookLevel{Price: price, Size: size})
	}
	return ob, nil
}

func (b *BybitAdapter) GetCandles(ctx context.Context, symbol, interval string, limit int) (*domain.CandleSeries, error) {
	path := fmt.Sprintf("/v5/market/kline?category=spot&symbol=%s&interval=%s&limit=%d", symbol, interval, limit)
	body, err := b.get(ctx, path)
	if err != nil {
		return nil, err
	}

	var result struct {
		RetCode int    `json:"retCode"`
		RetMsg  string `json:"retMsg"`
		Result  struct {
			List [][]string `json:"list"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, err
	}
	if result.RetCode != 0 {
		return nil, fmt.Errorf("bybit kline error: %s", result.RetMsg)
	}

	series := &domain.CandleSeries{
		Symbol:   symbol,
		Interval: interval,
		Closes:   make([]float64, 0, len(result.Result.List)),
		Volumes:  make([]float64, 0, len(result.Result.List)),
	}
	// Format: [startTime, open, high, low, close, volume, turnover],
	// newest candle first. Reverse into chronological order.
	for i := len(result.Result.List) - 1; i >= 0; i-- {
		raw := result.Result.List[i]
		if len(raw) < 6 {
			continue
		}
		closePrice, _ := strconv.ParseFloat(raw[4], 64)
		volume, _ := strconv.ParseFloat(raw[5], 64)
		series.Closes = append(series.Closes, closePrice)
		series.Volumes = append(series.Volumes, volume)
	}
	return series, nil
}

// --- WebSocket ---

func (b *BybitAdapter) OnTickerUpdate(callback func(symbol string, price float64)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.callbacks = append(b.callbacks, callback)
}

// Subscribe connects the ticker stream (if needed) and subscribes the
// given symbols. Safe to call again with an updated universe.
func (b *BybitAdapter) Subscribe(symbols []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.wsConn == nil {
		c, _, err := websocket.DefaultDialer.Dial(b.wsURL, nil)
		if err != nil {
			return err
		}
		b.wsConn = c
		go b.readLoop(c)
	}
	return b.subscribe(symbols)
}

func (b *BybitAdapter) subscribe(symbols []string) error {
	if len(symbols) == 0 {
		return nil
	}
	args := make([]interface{}, len(symbols))
	for i, s := range symbols {
		args[i] = "tickers." + s
	}
	return b.wsConn.WriteJSON(map[string]interface{}{
		"op":   "subscribe",
		"args": args,
	})
}

func (b *BybitAdapter) readLoop(conn *websocket.Conn) {
	defer func() {
		conn.Close()
		b.mu.Lock()
		if b.wsConn == conn {
			b.wsConn = nil
		}
		b.mu.Unlock()
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			b.logger.Warn("ticker stream closed", zap.Error(err))
			return
		}

		var event struct {
			Topic string `json:"topic"`
			Data  struct {
				Symbol    string `json:"symbol"`
				LastPrice string `json:"lastPrice"`
			} `json:"data"`
		}
		if err := json.Unmarshal(message, &event); err != nil {
			continue
		}
		if !strings.HasPrefix(event.Topic, "tickers.") || event.Data.LastPrice == "" {
			continue
		}
		price, err := strconv.ParseFloat(event.Data.LastPrice, 64)
		if err != nil || price <= 0 {
			continue
		}

		b.mu.Lock()
		callbacks := make([]func(string, float64), len(b.callbacks))
		copy(callbacks, b.callbacks)
		b.mu.Unlock()

		for _, cb := range callbacks {
			cb(event.Data.Symbol, price)
		}
	}
}
