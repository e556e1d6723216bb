package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

const (
	DefaultBaseURL  = "https://www.alphavantage.co"
	DefaultInterval = "5min"
	DefaultTimeout  = 10 * time.Second

	// maxBodyBytes bounds how much of a response is read. Intraday compact
	// responses are roughly 10 KB.
	maxBodyBytes = 4 << 20

	closeField = "4. close"
)

// AlphaVantageProvider implements Provider against the Alpha Vantage
// TIME_SERIES_INTRADAY endpoint.
type AlphaVantageProvider struct {
	baseURL    string
	apiKey     string
	interval   string
	httpClient *http.Client
}

type Option func(*AlphaVantageProvider)

func WithBaseURL(baseURL string) Option {
	return func(p *AlphaVantageProvider) {
		if baseURL != "" {
			p.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

func WithInterval(interval string) Option {
	return func(p *AlphaVantageProvider) {
		if interval != "" {
			p.interval = interval
		}
	}
}

// WithTimeout sets the timeout of the default HTTP client. It has no effect
// after WithHTTPClient.
func WithTimeout(d time.Duration) Option {
	return func(p *AlphaVantageProvider) {
		if d > 0 {
			p.httpClient.Timeout = d
		}
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(p *AlphaVantageProvider) {
		if c != nil {
			p.httpClient = c
		}
	}
}

// NewAlphaVantageProvider creates a provider with a 10s default timeout.
func NewAlphaVantageProvider(apiKey string, opts ...Option) *AlphaVantageProvider {
	p := &AlphaVantageProvider{
		baseURL:  DefaultBaseURL,
		apiKey:   apiKey,
		interval: DefaultInterval,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Interval is the bar width requested from the provider.
func (p *AlphaVantageProvider) Interval() string {
	return p.interval
}

// Fetch calls GET /query?function=TIME_SERIES_INTRADAY and returns the close
// of the most recent bar. The symbol is trimmed and otherwise sent and
// echoed as given.
func (p *AlphaVantageProvider) Fetch(ctx context.Context, symbol string) (*StockQuote, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("%w: empty symbol", ErrSymbolNotFound)
	}

	body, err := p.doGet(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return parseIntraday(body, symbol, p.interval)
}

// doGet performs the request and returns the body of a 2xx response.
// Errors never include the request URL, which carries the API key.
func (p *AlphaVantageProvider) doGet(ctx context.Context, symbol string) ([]byte, error) {
	q := url.Values{}
	q.Set("function", "TIME_SERIES_INTRADAY")
	q.Set("symbol", symbol)
	q.Set("interval", p.interval)
	q.Set("apikey", p.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/query?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrProviderUnavailable, redact(err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, redact(err))
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrProviderUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrProviderUnavailable, redact(err))
	}
	return body, nil
}

// redact strips the *url.Error wrapper, whose message embeds the full URL.
func redact(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s /query: %w", uerr.Op, uerr.Err)
	}
	return err
}

// parseIntraday only reports ErrProviderUnavailable for a body that is not
// JSON. Well-formed JSON without a usable time series is ErrSymbolNotFound.
func parseIntraday(body []byte, symbol, interval string) (*StockQuote, error) {
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: response is not valid JSON", ErrProviderUnavailable)
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %s: unexpected response: %s", ErrSymbolNotFound, symbol, abbreviate(body))
	}

	raw, ok := payload["Time Series ("+interval+")"]
	if !ok {
		if note := providerNote(payload); note != "" {
			return nil, fmt.Errorf("%w: %s: %s", ErrSymbolNotFound, symbol, note)
		}
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}

	var series map[string]json.RawMessage
	if err := json.Unmarshal(raw, &series); err != nil || len(series) == 0 {
		return nil, fmt.Errorf("%w: %s: empty time series", ErrSymbolNotFound, symbol)
	}

	// Keys are "YYYY-MM-DD HH:MM:SS", so the lexical maximum is the latest bar.
	stamps := make([]string, 0, len(series))
	for ts := range series {
		stamps = append(stamps, ts)
	}
	sort.Strings(stamps)
	latest := stamps[len(stamps)-1]

	price, ok := closePrice(series[latest])
	if !ok {
		return nil, fmt.Errorf("%w: %s: bar %s has no close", ErrSymbolNotFound, symbol, latest)
	}

	return &StockQuote{Symbol: symbol, Price: price, Timestamp: latest}, nil
}

// closePrice returns the close field of a bar verbatim: the text of a JSON
// string, or the literal of a JSON number.
func closePrice(bar json.RawMessage) (string, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(bar, &fields); err != nil {
		return "", false
	}
	raw, ok := fields[closeField]
	if !ok {
		return "", false
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, text != ""
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		return num.String(), true
	}
	return "", false
}

func abbreviate(body []byte) string {
	const limit = 80
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}

// providerNote returns the explanatory text Alpha Vantage sends instead of
// data (invalid symbol, rate limit, premium endpoint).
func providerNote(payload map[string]json.RawMessage) string {
	for _, key := range []string{"Error Message", "Note", "Information"} {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		var text string
		if err := json.Unmarshal(raw, &text); err == nil && text != "" {
			return text
		}
	}
	return ""
}
