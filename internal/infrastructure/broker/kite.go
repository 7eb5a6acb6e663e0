package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/raghav/banknifty_flip/internal/domain"
	"go.uber.org/zap"
)

const (
	KiteBaseURL = "https://api.kite.trade"
	KiteWSURL   = "wss://ws.kite.trade"

	// How long a streamed tick may serve GetLastPrice before falling
	// back to REST.
	tickTTL = 5 * time.Second
)

// KiteAdapter talks to the Zerodha Kite Connect REST API and optionally
// keeps a streamed last-price cache fed by the websocket ticker.
type KiteAdapter struct {
	apiKey      string
	accessToken string
	baseURL     string
	client      *http.Client
	logger      *zap.Logger

	mu         sync.Mutex
	lastTick   map[string]float64
	lastTickAt map[string]time.Time
}

func NewKiteAdapter(apiKey, accessToken, baseURL string, logger *zap.Logger) *KiteAdapter {
	if baseURL == "" {
		baseURL = KiteBaseURL
	}
	return &KiteAdapter{
		apiKey:      apiKey,
		accessToken: accessToken,
		baseURL:     baseURL,
		client:      &http.Client{Timeout: 10 * time.Second},
		logger:      logger,
		lastTick:    make(map[string]float64),
		lastTickAt:  make(map[string]time.Time),
	}
}

func (k *KiteAdapter) sendRequest(ctx context.Context, method, path string, form url.Values) ([]byte, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, k.baseURL+path, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("X-Kite-Version", "3")
	req.Header.Set("Authorization", fmt.Sprintf("token %s:%s", k.apiKey, k.accessToken))
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := k.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Message   string `json:"message"`
			ErrorType string `json:"error_type"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("kite %s: %s", apiErr.ErrorType, apiErr.Message)
		}
		return nil, fmt.Errorf("kite API error: %s", string(respBody))
	}

	return respBody, nil
}

// GetLastPrice returns the last traded price for an instrument key like
// "NSE:NIFTY BANK". A fresh streamed tick is preferred over a REST
// round trip.
func (k *KiteAdapter) GetLastPrice(ctx context.Context, instrument string) (float64, error) {
	k.mu.Lock()
	price, ok := k.lastTick[instrument]
	at := k.lastTickAt[instrument]
	k.mu.Unlock()
	if ok && time.Since(at) < tickTTL {
		return price, nil
	}

	path := "/quote/ltp?i=" + url.QueryEscape(instrument)
	resp, err := k.sendRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return 0, err
	}

	var result struct {
		Data map[string]struct {
			LastPrice float64 `json:"last_price"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return 0, err
	}

	quote, ok := result.Data[instrument]
	if !ok {
		return 0, fmt.Errorf("instrument not found: %s", instrument)
	}
	return quote.LastPrice, nil
}

// PlaceOrder submits a regular-variety MIS market order on NFO and
// returns the exchange order ID.
func (k *KiteAdapter) PlaceOrder(ctx context.Context, symbol string, side domain.OrderSide, quantity int) (string, error) {
	form := url.Values{}
	form.Set("tradingsymbol", symbol)
	form.Set("exchange", "NFO")
	form.Set("transaction_type", string(side))
	form.Set("order_type", "MARKET")
	form.Set("quantity", fmt.Sprintf("%d", quantity))
	form.Set("product", "MIS")
	form.Set("validity", "DAY")

	resp, err := k.sendRequest(ctx, http.MethodPost, "/orders/regular", form)
	if err != nil {
		return "", err
	}

	var result struct {
		Data struct {
			OrderID string `json:"order_id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return "", err
	}
	if result.Data.OrderID == "" {
		return "", fmt.Errorf("kite order rejected: %s", string(resp))
	}

	k.logger.Info("order placed",
		zap.String("order_id", result.Data.OrderID),
		zap.String("symbol", symbol),
		zap.String("side", string(side)),
		zap.Int("qty", quantity))

	return result.Data.OrderID, nil
}

// GetOpenPositions returns the net positions from the broker's books.
func (k *KiteAdapter) GetOpenPositions(ctx context.Context) ([]domain.Position, error) {
	resp, err := k.sendRequest(ctx, http.MethodGet, "/portfolio/positions", nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Data struct {
			Net []struct {
				Tradingsymbol string `json:"tradingsymbol"`
				Quantity      int    `json:"quantity"`
			} `json:"net"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, err
	}

	positions := make([]domain.Position, 0, len(result.Data.Net))
	for _, p := range result.Data.Net {
		positions = append(positions, domain.Position{
			Symbol:   p.Tradingsymbol,
			Quantity: p.Quantity,
		})
	}
	return positions, nil
}

func (k *KiteAdapter) recordTick(instrument string, price float64) {
	k.mu.Lock()
	k.lastTick[instrument] = price
	k.lastTickAt[instrument] = time.Now()
	k.mu.Unlock()
}
