package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"time"

	"FinCast/internal/domain/errs"
	"FinCast/internal/domain/models"
	drepo "FinCast/internal/domain/repository"
	xhttp "FinCast/pkg/http"
	"FinCast/pkg/util"

	"github.com/tidwall/gjson"
)

// Client implements MarketData on top of the public Yahoo Finance chart and
// quoteSummary endpoints.
type Client struct {
	chartURL   string
	summaryURL string
	http       *xhttp.Client
}

// Config holds endpoint roots and the HTTP settings for the client.
type Config struct {
	ChartURL   string // e.g. https://query1.finance.yahoo.com
	SummaryURL string // e.g. https://query2.finance.yahoo.com
	UserAgent  string
	Timeout    time.Duration
}

func New(cfg Config) *Client {
	opts := []xhttp.ClientOption{xhttp.WithTimeout(cfg.Timeout)}
	if cfg.UserAgent != "" {
		opts = append(opts, xhttp.WithHeader("User-Agent", cfg.UserAgent))
	}
	return &Client{
		chartURL:   cfg.ChartURL,
		summaryURL: cfg.SummaryURL,
		http:       xhttp.NewClient(opts...),
	}
}

// FetchSeries returns daily bars for ticker in ascending date order. Bars
// whose OHLC values are null (holidays, halted sessions) are skipped.
func (c *Client) FetchSeries(ctx context.Context, ticker, period, interval string) ([]models.PriceBar, error) {
	var body []byte
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.chartURL + "/v8/finance/chart/" + url.PathEscape(ticker),
		QueryParams: map[string][]string{
			"range":    {period},
			"interval": {interval},
		},
	}, &body)
	if err != nil {
		return nil, providerErr("chart", ticker, err)
	}
	return parseChart(ticker, body)
}

func parseChart(ticker string, body []byte) ([]models.PriceBar, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: chart %s: invalid json", errs.ErrDataProvider, ticker)
	}
	root := gjson.ParseBytes(body)
	if e := root.Get("chart.error.description"); e.Exists() && e.String() != "" {
		return nil, fmt.Errorf("%w: chart %s: %s", errs.ErrDataProvider, ticker, e.String())
	}
	result := root.Get("chart.result.0")
	stamps := result.Get("timestamp").Array()
	if len(stamps) == 0 {
		return nil, fmt.Errorf("%w: chart %s: no data returned", errs.ErrDataProvider, ticker)
	}

	loc := time.FixedZone(result.Get("meta.exchangeTimezoneName").String(), int(result.Get("meta.gmtoffset").Int()))
	quote := result.Get("indicators.quote.0")
	opens := quote.Get("open").Array()
	highs := quote.Get("high").Array()
	lows := quote.Get("low").Array()
	closes := quote.Get("close").Array()
	volumes := quote.Get("volume").Array()

	byDay := make(map[time.Time]models.PriceBar, len(stamps))
	for i, ts := range stamps {
		o, h, l, cl := at(opens, i), at(highs, i), at(lows, i), at(closes, i)
		if o.Type == gjson.Null || h.Type == gjson.Null || l.Type == gjson.Null || cl.Type == gjson.Null {
			continue
		}
		day := util.TradingDay(ts.Int(), loc)
		// a later bar for the same day (the live session bar) wins
		byDay[day] = models.PriceBar{
			Date:   day,
			Open:   o.Float(),
			High:   h.Float(),
			Low:    l.Float(),
			Close:  cl.Float(),
			Volume: at(volumes, i).Float(),
		}
	}

	bars := make([]models.PriceBar, 0, len(byDay))
	for _, b := range byDay {
		bars = append(bars, b)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

func at(arr []gjson.Result, i int) gjson.Result {
	if i < len(arr) {
		return arr[i]
	}
	return gjson.Result{}
}

// FetchInfo returns market cap, volume, sector and the analyst recommendation key.
func (c *Client) FetchInfo(ctx context.Context, ticker string) (models.CompanyInfo, error) {
	var body []byte
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.summaryURL + "/v10/finance/quoteSummary/" + url.PathEscape(ticker),
		QueryParams: map[string][]string{
			"modules": {"price,summaryDetail,assetProfile,financialData"},
		},
	}, &body)
	if err != nil {
		return models.CompanyInfo{}, providerErr("quoteSummary", ticker, err)
	}
	return parseSummary(ticker, body)
}

func parseSummary(ticker string, body []byte) (models.CompanyInfo, error) {
	var info models.CompanyInfo
	if !gjson.ValidBytes(body) {
		return info, fmt.Errorf("%w: quoteSummary %s: invalid json", errs.ErrDataProvider, ticker)
	}
	res := gjson.GetBytes(body, "quoteSummary.result.0")
	if !res.Exists() {
		desc := gjson.GetBytes(body, "quoteSummary.error.description").String()
		return info, fmt.Errorf("%w: quoteSummary %s: %s", errs.ErrDataProvider, ticker, desc)
	}
	info.MarketCap = firstFloat(res, "price.marketCap.raw", "summaryDetail.marketCap.raw")
	info.Volume = firstFloat(res, "summaryDetail.volume.raw", "price.regularMarketVolume.raw")
	info.Sector = res.Get("assetProfile.sector").String()
	info.Recommendation = res.Get("financialData.recommendationKey").String()
	return info, nil
}

func firstFloat(res gjson.Result, paths ...string) float64 {
	for _, p := range paths {
		if v := res.Get(p); v.Exists() && v.Type == gjson.Number {
			return v.Float()
		}
	}
	return 0
}

func providerErr(op, ticker string, err error) error {
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		return fmt.Errorf("%w: %s %s: status %d", errs.ErrDataProvider, op, ticker, se.Code)
	}
	return fmt.Errorf("%w: %s %s: %w", errs.ErrDataProvider, op, ticker, err)
}

var _ drepo.MarketData = (*Client)(nil)
