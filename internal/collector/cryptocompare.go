package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"AHRSentinel/internal/model"
)

// CryptoCompareFetcher implements Fetcher using the CryptoCompare histoday API.
type CryptoCompareFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewCryptoCompareFetcher creates a fetcher with optional proxy support.
func NewCryptoCompareFetcher(baseURL, apiKey, proxyURL string) *CryptoCompareFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &CryptoCompareFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   60 * time.Second,
			Transport: transport,
		},
	}
}

func (f *CryptoCompareFetcher) Name() string { return "cryptocompare" }

// histodayResponse is the response structure of /data/v2/histoday.
type histodayResponse struct {
	Response string `json:"Response"`
	Message  string `json:"Message"`
	Data     struct {
		Data []struct {
			Time       int64   `json:"time"`
			Open       float64 `json:"open"`
			High       float64 `json:"high"`
			Low        float64 `json:"low"`
			Close      float64 `json:"close"`
			VolumeFrom float64 `json:"volumefrom"`
		} `json:"Data"`
	} `json:"Data"`
}

// FetchDailyHistory downloads every available daily bar.
func (f *CryptoCompareFetcher) FetchDailyHistory(ctx context.Context, symbol, currency string) ([]model.OHLCV, error) {
	q := url.Values{}
	q.Set("fsym", symbol)
	q.Set("tsym", currency)
	q.Set("allData", "true")
	if f.APIKey != "" {
		q.Set("api_key", f.APIKey)
	}
	u := f.BaseURL + "/data/v2/histoday?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cryptocompare fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("cryptocompare read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cryptocompare: status %d, body: %s", resp.StatusCode, string(body))
	}

	var hist histodayResponse
	if err := json.Unmarshal(body, &hist); err != nil {
		return nil, fmt.Errorf("cryptocompare decode: %w", err)
	}
	if hist.Response != "Success" {
		return nil, fmt.Errorf("cryptocompare api error: %s", hist.Message)
	}
	if len(hist.Data.Data) == 0 {
		return nil, fmt.Errorf("cryptocompare: no data returned")
	}

	bars := make([]model.OHLCV, 0, len(hist.Data.Data))
	for _, d := range hist.Data.Data {
		if d.Open == 0 && d.High == 0 && d.Low == 0 && d.Close == 0 {
			continue // no trading recorded yet
		}
		bars = append(bars, model.OHLCV{
			Time:   time.Unix(d.Time, 0).UTC(),
			Open:   d.Open,
			High:   d.High,
			Low:    d.Low,
			Close:  d.Close,
			Volume: d.VolumeFrom,
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}
