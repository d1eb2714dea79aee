package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"FinCast/internal/domain/errs"
	"FinCast/internal/domain/models"
	"FinCast/internal/service/cache"
	"FinCast/internal/service/snapshot"
	applogger "FinCast/pkg/logger"

	"github.com/guregu/null/v6"
)

func newCompanies(market *fakeMarket, store *snapshot.Store, mode string) *CompaniesUseCase {
	return NewCompaniesUseCase(roster("1111", "2222"), newTestPredictor(market, fakeEngine{out: 0.5}), market,
		cache.NewInfoCache(cache.NewTTLCache(), time.Minute), store, applogger.Nop(), DetailConfig{Mode: mode, HistoryDays: 30})
}

func testInfo() models.CompanyInfo {
	return models.CompanyInfo{MarketCap: 1_500_000_000, Volume: 2_345_678, Sector: "Energy", Recommendation: "buy"}
}

func TestListEmptyBeforeRefresh(t *testing.T) {
	uc := newCompanies(&fakeMarket{bars: 70}, snapshot.New(), DetailModeCache)
	if got := uc.List(); got == nil || len(got) != 0 {
		t.Fatalf("List() = %#v, want empty slice", got)
	}
}

func TestDetailUnknownID(t *testing.T) {
	uc := newCompanies(&fakeMarket{bars: 70}, snapshot.New(), DetailModeCache)
	if _, err := uc.Detail(context.Background(), 99); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDetailLiveOnCacheMiss(t *testing.T) {
	market := &fakeMarket{bars: 70, info: testInfo()}
	uc := newCompanies(market, snapshot.New(), DetailModeCache)

	d, err := uc.Detail(context.Background(), 1)
	if err != nil {
		t.Fatalf("Detail: %v", err)
	}
	if d.Freshness.Source != models.SourceLive {
		t.Fatalf("source = %q, want live", d.Freshness.Source)
	}
	if d.CurrentPrice.Float64 != 169 || d.LastDayPrice.Float64 != 168 || d.PredictedPrice.Float64 != 139.5 {
		t.Fatalf("unexpected prices %+v", d)
	}
	if d.MarketCap != "1.5B" || d.Volume != "2.3M" {
		t.Fatalf("market cap %q volume %q", d.MarketCap, d.Volume)
	}
	if d.Sector != "Energy" || d.Recommendation != "buy" {
		t.Fatalf("metadata %q %q", d.Sector, d.Recommendation)
	}
	if d.Signal != null.StringFrom(models.SignalSell) {
		t.Fatalf("signal = %v", d.Signal)
	}
	if len(d.Historical.Dates) != 30 || len(d.Historical.Prices) != 30 {
		t.Fatalf("historical has %d points", len(d.Historical.Dates))
	}
	if d.Historical.Prices[29].Float64 != 169 || d.Historical.Dates[29] != "2024-03-10" {
		t.Fatalf("last historical point %s %v", d.Historical.Dates[29], d.Historical.Prices[29])
	}
	wantDates := []string{"2024-03-10", "2024-03-11"}
	for i, want := range wantDates {
		if d.Forecast.Dates[i] != want {
			t.Fatalf("forecast dates = %v", d.Forecast.Dates)
		}
	}
	if d.Forecast.Prices[0].Float64 != 169 || d.Forecast.Prices[1].Float64 != 139.5 {
		t.Fatalf("forecast prices = %v", d.Forecast.Prices)
	}
	assertForecastJoinsHistory(t, d)
}

func publishRecord(store *snapshot.Store, current, predicted float64, computed time.Time) {
	store.Publish(&models.Snapshot{CycleID: "c1", Records: []models.PredictionRecord{{
		ID: 1, Name: "Company 1111", Symbol: "1111",
		LastDayPrice:   null.FloatFrom(current - 1),
		CurrentPrice:   null.FloatFrom(current),
		PredictedPrice: null.FloatFrom(predicted),
		ComputedAt:     computed,
	}}})
}

func assertForecastJoinsHistory(t *testing.T, d *models.CompanyDetail) {
	t.Helper()
	last := d.Historical.Prices[len(d.Historical.Prices)-1]
	if d.Forecast.Prices[0] != last || d.CurrentPrice != last {
		t.Fatalf("forecast starts at %v, current %v, last historical close %v", d.Forecast.Prices[0], d.CurrentPrice, last)
	}
	if d.Forecast.Dates[0] != d.Historical.Dates[len(d.Historical.Dates)-1] {
		t.Fatalf("forecast date %s, last historical date %s", d.Forecast.Dates[0], d.Historical.Dates[len(d.Historical.Dates)-1])
	}
}

func TestDetailPrefersCachedRecord(t *testing.T) {
	store := snapshot.New()
	computed := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	publishRecord(store, 169, 155.25, computed)
	market := &fakeMarket{bars: 70, info: testInfo()}

	d, err := newCompanies(market, store, DetailModeCache).Detail(context.Background(), 1)
	if err != nil {
		t.Fatalf("Detail: %v", err)
	}
	if d.Freshness.Source != models.SourceCache || !d.Freshness.ComputedAt.Equal(computed) {
		t.Fatalf("freshness = %+v", d.Freshness)
	}
	if d.CurrentPrice.Float64 != 169 || d.PredictedPrice.Float64 != 155.25 {
		t.Fatalf("prices not taken from cache: %+v", d)
	}
	if d.Forecast.Prices[1].Float64 != 155.25 {
		t.Fatalf("forecast prices = %v", d.Forecast.Prices)
	}
	if d.Signal.String != models.SignalSell {
		t.Fatalf("signal = %v", d.Signal)
	}
	assertForecastJoinsHistory(t, d)

	d, err = newCompanies(market, store, DetailModeLive).Detail(context.Background(), 1)
	if err != nil {
		t.Fatalf("Detail live: %v", err)
	}
	if d.Freshness.Source != models.SourceLive || d.PredictedPrice.Float64 != 139.5 {
		t.Fatalf("live mode served %+v", d)
	}
	assertForecastJoinsHistory(t, d)
}

func TestDetailStaleCachedRecordFallsBackToLive(t *testing.T) {
	store := snapshot.New()
	publishRecord(store, 151, 155.25, time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC))
	market := &fakeMarket{bars: 70, info: testInfo()}

	d, err := newCompanies(market, store, DetailModeCache).Detail(context.Background(), 1)
	if err != nil {
		t.Fatalf("Detail: %v", err)
	}
	if d.Freshness.Source != models.SourceLive {
		t.Fatalf("source = %q, want live for a record behind the series", d.Freshness.Source)
	}
	if d.CurrentPrice.Float64 != 169 || d.PredictedPrice.Float64 != 139.5 {
		t.Fatalf("unexpected prices %+v", d)
	}
	assertForecastJoinsHistory(t, d)
}

func TestDetailCachesInfo(t *testing.T) {
	market := &fakeMarket{bars: 70, info: testInfo()}
	uc := newCompanies(market, snapshot.New(), DetailModeCache)
	for i := 0; i < 3; i++ {
		if _, err := uc.Detail(context.Background(), 2); err != nil {
			t.Fatalf("Detail: %v", err)
		}
	}
	if market.infoCalls != 1 {
		t.Fatalf("FetchInfo called %d times, want 1", market.infoCalls)
	}
}

func TestDetailProviderFailure(t *testing.T) {
	market := &fakeMarket{bars: 70, fail: map[string]bool{"2222.SR": true}}
	_, err := newCompanies(market, snapshot.New(), DetailModeCache).Detail(context.Background(), 2)
	if !errors.Is(err, errs.ErrDataProvider) {
		t.Fatalf("expected data provider error, got %v", err)
	}
}
