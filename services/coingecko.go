package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"trade-tracker/observability"

	"github.com/shopspring/decimal"
)

// coinIDs maps ticker symbols to CoinGecko feed identifiers. Tickers
// outside this table never touch the network and always quote as
// unavailable.
var coinIDs = map[string]string{
	"BTC":  "bitcoin",
	"ETH":  "ethereum",
	"SOL":  "solana",
	"BNB":  "binancecoin",
	"XRP":  "ripple",
	"DOGE": "dogecoin",
}

// CoinGeckoService fetches current USD prices from the CoinGecko simple
// price API.
type CoinGeckoService struct {
	baseURL    string
	httpClient *http.Client
	retry      RetryConfig
}

// NewCoinGeckoService creates a new CoinGeckoService instance. The timeout
// bounds each HTTP attempt so a quote always resolves, one way or the
// other, bounded by the retry limit.
func NewCoinGeckoService(baseURL string, timeout time.Duration, maxRetries int) *CoinGeckoService {
	retry := DefaultRetryConfig
	retry.MaxRetries = maxRetries

	return &CoinGeckoService{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		retry:      retry,
	}
}

// Quote returns the current USD price for a ticker. ok is false when the
// feed cannot produce a quote: unknown ticker, network or parse failure,
// or an open circuit breaker. Callers must treat an unavailable quote as an
// expected outcome, never as a failure to propagate.
func (s *CoinGeckoService) Quote(ctx context.Context, ticker string) (price decimal.Decimal, ok bool) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()

	id, known := coinIDs[ticker]
	if !known {
		timer.ObserveOracle(ticker, "unknown")
		return decimal.Zero, false
	}

	price, err := WithCircuitBreaker(ctx, BreakerCoinGecko, func() (decimal.Decimal, error) {
		var p decimal.Decimal
		retryErr := WithRetry(ctx, s.retry, func() error {
			var err error
			p, err = s.fetchPrice(ctx, id)
			return err
		})
		return p, retryErr
	})
	if err != nil {
		observability.WithTicker(ticker).Warn("price quote unavailable", "error", err)
		timer.ObserveOracle(ticker, "unavailable")
		return decimal.Zero, false
	}

	timer.ObserveOracle(ticker, "ok")
	return price, true
}

// fetchPrice performs one GET against /simple/price for the given feed id.
func (s *CoinGeckoService) fetchPrice(ctx context.Context, id string) (decimal.Decimal, error) {
	params := url.Values{}
	params.Set("ids", id)
	params.Set("vs_currencies", "usd")

	reqURL := fmt.Sprintf("%s/simple/price?%s", s.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	// Success body maps feed id -> {"usd": price}.
	var body map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode response: %w", err)
	}

	usd, found := body[id]["usd"]
	if !found {
		return decimal.Zero, fmt.Errorf("no usd price for %s in response", id)
	}

	return decimal.NewFromFloat(usd), nil
}
