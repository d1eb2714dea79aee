package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"FinCast/internal/domain/errs"
	"FinCast/internal/domain/models"
)

type fakeRoster []models.Company

func (r fakeRoster) All() []models.Company { return r }

func (r fakeRoster) ByID(id int) (models.Company, bool) {
	for _, c := range r {
		if c.ID == id {
			return c, true
		}
	}
	return models.Company{}, false
}

func roster(symbols ...string) fakeRoster {
	r := make(fakeRoster, len(symbols))
	for i, s := range symbols {
		r[i] = models.Company{ID: i + 1, Name: "Company " + s, Symbol: s}
	}
	return r
}

// fakeMarket serves rising closes starting at 100 for every ticker unless
// the ticker is listed in fail. Tickers in hang block until ctx is done.
type fakeMarket struct {
	mu        sync.Mutex
	bars      int
	fail      map[string]bool
	hang      map[string]bool
	info      models.CompanyInfo
	infoCalls int
}

func (m *fakeMarket) FetchSeries(ctx context.Context, ticker, _, _ string) ([]models.PriceBar, error) {
	if m.hang[ticker] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.fail[ticker] {
		return nil, fmt.Errorf("%w: status 404", errs.ErrDataProvider)
	}
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.PriceBar, m.bars)
	for i := range out {
		c := 100 + float64(i)
		out[i] = models.PriceBar{Date: day.AddDate(0, 0, i), Open: c - 1, High: c + 1, Low: c - 2, Close: c, Volume: 1000}
	}
	return out, nil
}

func (m *fakeMarket) FetchInfo(_ context.Context, ticker string) (models.CompanyInfo, error) {
	m.mu.Lock()
	m.infoCalls++
	m.mu.Unlock()
	if m.fail[ticker] {
		return models.CompanyInfo{}, fmt.Errorf("%w: status 404", errs.ErrDataProvider)
	}
	return m.info, nil
}

type fakeEngine struct {
	out float64
	err error
}

func (e fakeEngine) Infer(_ context.Context, window [][models.NumFeatures]float64) (float64, error) {
	if e.err != nil {
		return 0, e.err
	}
	for _, row := range window {
		for _, v := range row {
			if v < 0 || v > 1 {
				return 0, fmt.Errorf("value %v outside [0,1]", v)
			}
		}
	}
	return e.out, nil
}

type fakeMetrics struct {
	mu        sync.Mutex
	refreshes []string
	errKinds  []string
	predicted int
}

func (m *fakeMetrics) RecordRefresh(status string, _ float64, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshes = append(m.refreshes, status)
}

func (m *fakeMetrics) RecordPredictionError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errKinds = append(m.errKinds, kind)
}

func (m *fakeMetrics) RecordPrediction(string, float64, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predicted++
}

func (m *fakeMetrics) RecordLatency(string, float64) {}

type recordingHistory struct {
	snaps []*models.Snapshot
}

func (h *recordingHistory) Init(context.Context) error { return nil }
func (h *recordingHistory) RecordSnapshot(_ context.Context, s *models.Snapshot) error {
	h.snaps = append(h.snaps, s)
	return nil
}
func (h *recordingHistory) Close() error { return nil }
