package data

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/contactkeval/marginrisk/internal/logger"
	"github.com/contactkeval/marginrisk/internal/position"
)

// MassiveQuoteOverlay wraps a Provider and refreshes close_price/udl_price
// on futures and options rows with a live quote immediately before margin
// calculation, when an API key is configured. Every other method delegates
// unchanged, mirroring the reference codebase's secondary-provider chain.
// Absent a reachable quote for a given code, the underlying table's value
// is kept: the overlay only ever refreshes freshness, never availability.
type MassiveQuoteOverlay struct {
	Provider
	APIKey  string
	BaseURL string
	Client  *http.Client
}

// NewMassiveQuoteOverlay constructs an overlay with the same HTTP client
// defaults the reference codebase's Massive provider uses.
func NewMassiveQuoteOverlay(base Provider, apiKey string) *MassiveQuoteOverlay {
	logger.Infof("initializing Massive quote overlay")
	return &MassiveQuoteOverlay{
		Provider: base,
		APIKey:   apiKey,
		BaseURL:  "https://api.massive.com",
		Client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 15 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
				ForceAttemptHTTP2:     true,
				MaxIdleConns:          50,
				IdleConnTimeout:       90 * time.Second,
			},
		},
	}
}

type massiveQuoteResp struct {
	Ticker string  `json:"ticker"`
	Price  float64 `json:"price"`
}

func (o *MassiveQuoteOverlay) LoadFutureQuotes(ctx context.Context, class AssetClass) ([]position.FutureQuote, error) {
	quotes, err := o.Provider.LoadFutureQuotes(ctx, class)
	if err != nil {
		return nil, err
	}
	for i := range quotes {
		if px, ok := o.fetchQuote(quotes[i].Code); ok {
			logger.Tracef("overlay refreshed future %s: %.4f -> %.4f", quotes[i].Code, quotes[i].ClosePrice, px)
			quotes[i].ClosePrice = px
		}
	}
	return quotes, nil
}

func (o *MassiveQuoteOverlay) LoadOptionQuotes(ctx context.Context, class AssetClass) ([]position.OptionQuote, error) {
	quotes, err := o.Provider.LoadOptionQuotes(ctx, class)
	if err != nil {
		return nil, err
	}
	for i := range quotes {
		if px, ok := o.fetchQuote(quotes[i].Code); ok {
			quotes[i].ClosePrice = px
		}
		if px, ok := o.fetchQuote(quotes[i].UnderlyingCode); ok {
			logger.Tracef("overlay refreshed underlying %s: %.4f -> %.4f", quotes[i].UnderlyingCode, quotes[i].UnderlyingPrice, px)
			quotes[i].UnderlyingPrice = px
		}
	}
	return quotes, nil
}

// fetchQuote returns the latest trade price for code, or ok=false if the
// request fails or the code isn't found. A lookup failure is logged, not
// fatal: the canonical table value is always a valid fallback.
func (o *MassiveQuoteOverlay) fetchQuote(code string) (float64, bool) {
	u, err := url.Parse(o.BaseURL + "/v2/last/trade/" + code)
	if err != nil {
		return 0, false
	}
	q := u.Query()
	q.Set("apiKey", o.APIKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequest("GET", u.String(), nil)
	if err != nil {
		return 0, false
	}
	req.Header.Set("Authorization", "Bearer "+o.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := o.processGetRequest(req)
	if err != nil {
		logger.Errorf("overlay quote fetch failed for %s: %v", code, err)
		return 0, false
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil || len(body) == 0 {
		return 0, false
	}
	var parsed massiveQuoteResp
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, false
	}
	if parsed.Price <= 0 {
		return 0, false
	}
	return parsed.Price, true
}

// processGetRequest retries indefinitely on HTTP 429 by sleeping until
// the next minute boundary, the same rate-limit handling the reference
// codebase's Massive provider uses.
func (o *MassiveQuoteOverlay) processGetRequest(req *http.Request) (*http.Response, error) {
	for {
		resp, err := o.Client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 400 {
			return resp, nil
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			sleepDuration := time.Until(time.Now().Truncate(time.Minute).Add(time.Minute))
			logger.Infof("rate limit hit, sleeping for %s", sleepDuration)
			time.Sleep(sleepDuration)
			continue
		}
		return resp, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
}
