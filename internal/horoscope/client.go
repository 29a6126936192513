package horoscope

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/m3rciful/horoscopebot/core/telegram/netutil"
)

const (
	// DefaultBaseURL is the public horoscope provider.
	DefaultBaseURL = "https://horoscope-app-api.vercel.app"
	dailyPath      = "/api/v1/get-horoscope/daily"

	// NoData replaces a missing horoscope text.
	NoData = "No data returned."

	maxBodyBytes = 1 << 20
)

// Result is a fetched daily horoscope.
type Result struct {
	Text string
	Date string
	Sign Sign
}

// Provider fetches a daily horoscope for a validated sign and day.
type Provider interface {
	Daily(ctx context.Context, sign Sign, day Day, requestID string) (Result, error)
}

// Client implements Provider over the horoscope-app HTTP API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient builds a Client. The http.Client carries the request timeout.
func NewClient(httpClient *http.Client, baseURL string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

type dailyResponse struct {
	Data *struct {
		HoroscopeData *string `json:"horoscope_data"`
		Date          *string `json:"date"`
	} `json:"data"`
}

// DailyURL returns the request URL for sign and day.
func (c *Client) DailyURL(sign Sign, day Day) string {
	q := url.Values{}
	q.Set("sign", string(sign))
	q.Set("day", string(day))
	return c.baseURL + dailyPath + "?" + q.Encode()
}

// Daily performs a single GET and decodes the payload. Missing fields fall
// back to NoData and the requested day.
func (c *Client) Daily(ctx context.Context, sign Sign, day Day, requestID string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.DailyURL(sign, day), nil)
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, classifyTransport(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Result{}, classifyTransport(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, &ProviderError{
			Kind:       KindStatus,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("status %s", resp.Status),
		}
	}

	var payload dailyResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return Result{}, &ProviderError{Kind: KindDecode, Err: err}
	}

	res := Result{Text: NoData, Date: string(day), Sign: sign}
	if payload.Data != nil {
		res.Text = valueOr(payload.Data.HoroscopeData, NoData)
		res.Date = valueOr(payload.Data.Date, string(day))
	}
	return res, nil
}

// valueOr reads an optional JSON field; an explicit empty string is kept.
func valueOr(p *string, fallback string) string {
	if p == nil {
		return fallback
	}
	return *p
}

func classifyTransport(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || netutil.IsTimeout(err) {
		return &ProviderError{Kind: KindTimeout, Err: err}
	}
	return &ProviderError{Kind: KindTransport, Err: err}
}
