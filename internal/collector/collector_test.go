package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AHRSentinel/internal/calculator"
	"AHRSentinel/internal/model"
)

func TestCollector_CollectCleansBars(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	f := &MockFetcher{Bars: []model.OHLCV{
		{Time: day, Open: 10, High: 12, Low: 8, Close: 30},
		{Time: day.AddDate(0, 0, 1), Open: 10, High: 12, Low: 8, Close: 10},
	}}
	c := NewCollector(f, "BTC", "USD", zerolog.Nop())

	s, err := c.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, s, 2)
	assert.Equal(t, 12.0, s[0].Close)
	assert.Equal(t, 10.0, s[1].Close)
}

func TestCollector_RejectsMalformedHistory(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	f := &MockFetcher{Bars: []model.OHLCV{
		{Time: day, Open: 10, High: 12, Low: 8, Close: 11},
		{Time: day.AddDate(0, 0, 1), Open: 10, High: 0, Low: 8, Close: 10},
	}}
	_, err := NewCollector(f, "BTC", "USD", zerolog.Nop()).Collect(context.Background())
	assert.ErrorIs(t, err, calculator.ErrInvalidBar)
}

func TestCollector_PropagatesFetchError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewCollector(&MockFetcher{Err: boom}, "BTC", "USD", zerolog.Nop()).Collect(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestMockFetcher_Generated(t *testing.T) {
	bars, err := (&MockFetcher{Price: 100, Days: 30}).FetchDailyHistory(context.Background(), "", "")
	require.NoError(t, err)
	require.Len(t, bars, 30)
	require.NoError(t, calculator.ValidateBars(bars))
}

func TestCryptoCompareFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/v2/histoday", r.URL.Path)
		assert.Equal(t, "BTC", r.URL.Query().Get("fsym"))
		assert.Equal(t, "USD", r.URL.Query().Get("tsym"))
		assert.Equal(t, "true", r.URL.Query().Get("allData"))
		assert.Equal(t, "k", r.URL.Query().Get("api_key"))
		fmt.Fprint(w, `{"Response":"Success","Message":"","Data":{"Data":[
			{"time":1279324800,"open":0,"high":0,"low":0,"close":0,"volumefrom":0},
			{"time":1279497600,"open":0.0858,"high":0.0931,"low":0.0772,"close":0.0808,"volumefrom":2500},
			{"time":1279411200,"open":0.0495,"high":0.0858,"low":0.0495,"close":0.0858,"volumefrom":5},
			{"time":1279584000,"open":0.0808,"high":0.0818,"low":0.0743,"close":0.0747,"volumefrom":500}
		]}}`)
	}))
	defer srv.Close()

	f := NewCryptoCompareFetcher(srv.URL+"/", "k", "")
	bars, err := f.FetchDailyHistory(context.Background(), "BTC", "USD")
	require.NoError(t, err)
	require.Len(t, bars, 3, "all-zero bar is skipped")
	assert.Equal(t, time.Date(2010, 7, 18, 0, 0, 0, 0, time.UTC), bars[0].Time)
	assert.True(t, bars[1].Time.Before(bars[2].Time))
	assert.Equal(t, 0.0808, bars[1].Close)
}

func TestCryptoCompareFetcher_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Response":"Error","Message":"rate limit","Data":{}}`)
	}))
	defer srv.Close()

	_, err := NewCryptoCompareFetcher(srv.URL, "", "").FetchDailyHistory(context.Background(), "BTC", "USD")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}

func TestReadCSV(t *testing.T) {
	in := "time,high,low,open,volumefrom,volumeto,close\n" +
		"2024-01-01,110,90,100,5,500,105\n" +
		"2024-01-02,120,100,105,6,600,\n"
	bars, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 105.0, bars[0].Close)
	assert.Equal(t, 5.0, bars[0].Volume)
	// missing close surfaces as a validation failure
	assert.ErrorIs(t, calculator.ValidateBars(bars), calculator.ErrInvalidBar)

	_, err = ReadCSV(strings.NewReader("time,open,high,low\n2024-01-01,1,2,1\n"))
	assert.ErrorIs(t, err, calculator.ErrInvalidBar)

	_, err = ReadCSV(strings.NewReader("time,open,high,low,close\nyesterday,1,2,1,1\n"))
	assert.ErrorIs(t, err, calculator.ErrInvalidBar)
}

func TestSyncAndCSVFetcherRoundTrip(t *testing.T) {
	src := &MockFetcher{Price: 30000, Days: 10}
	path := filepath.Join(t.TempDir(), "hist", "btc.csv")

	n, err := Sync(context.Background(), src, "BTC", "USD", path)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	c := NewCollector(NewCSVFetcher(path), "BTC", "USD", zerolog.Nop())
	s, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.Len(t, s, 10)
}
