package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"FinCast/internal/domain/errs"
	"FinCast/internal/domain/models"
	domrepo "FinCast/internal/domain/repository"
	"FinCast/internal/service/cache"
	"FinCast/internal/service/snapshot"
	applogger "FinCast/pkg/logger"
	"FinCast/pkg/util"

	"github.com/guregu/null/v6"
)

// Detail modes.
const (
	DetailModeCache = "cache"
	DetailModeLive  = "live"
)

type DetailConfig struct {
	Mode        string
	HistoryDays int
}

// CompaniesUseCase backs the read-only query surface.
type CompaniesUseCase struct {
	roster    domrepo.Roster
	predictor *Predictor
	market    domrepo.MarketData
	info      *cache.InfoCache
	store     *snapshot.Store
	log       *applogger.Logger
	cfg       DetailConfig
	now       func() time.Time
}

func NewCompaniesUseCase(roster domrepo.Roster, predictor *Predictor, market domrepo.MarketData, info *cache.InfoCache, store *snapshot.Store, l *applogger.Logger, cfg DetailConfig) *CompaniesUseCase {
	if cfg.Mode == "" {
		cfg.Mode = DetailModeCache
	}
	if cfg.HistoryDays <= 0 {
		cfg.HistoryDays = 30
	}
	return &CompaniesUseCase{
		roster:    roster,
		predictor: predictor,
		market:    market,
		info:      info,
		store:     store,
		log:       l,
		cfg:       cfg,
		now:       time.Now,
	}
}

// List returns the records of the current snapshot, empty before the first refresh.
func (uc *CompaniesUseCase) List() []models.PredictionRecord {
	return uc.store.Records()
}

// Detail builds the full view of one company. Prices come from the cached
// record when it was computed from the same last close as the live series,
// otherwise they are recomputed from the live series.
func (uc *CompaniesUseCase) Detail(ctx context.Context, id int) (*models.CompanyDetail, error) {
	company, ok := uc.roster.ByID(id)
	if !ok {
		return nil, fmt.Errorf("company %d: %w", id, errs.ErrNotFound)
	}

	var (
		wg      sync.WaitGroup
		info    models.CompanyInfo
		infoErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		info, infoErr = uc.companyInfo(ctx, company.Symbol)
	}()

	rows, err := uc.predictor.Features(ctx, company.Symbol)
	wg.Wait()
	if err != nil {
		return nil, err
	}
	if infoErr != nil {
		return nil, infoErr
	}

	pred, fresh, err := uc.prices(ctx, company.ID, rows)
	if err != nil {
		return nil, err
	}

	detail := &models.CompanyDetail{
		ID:             company.ID,
		Name:           company.Name,
		Symbol:         company.Symbol,
		CurrentPrice:   pred.CurrentPrice,
		PredictedPrice: pred.PredictedPrice,
		LastDayPrice:   pred.LastDayPrice,
		MarketCap:      util.FormatCompact(info.MarketCap),
		Volume:         util.FormatCompact(info.Volume),
		Sector:         info.Sector,
		Recommendation: info.Recommendation,
		Historical:     historical(rows, uc.cfg.HistoryDays),
		Forecast:       forecast(rows, pred),
		Freshness:      fresh,
	}
	if s := pred.Signal(); s != "" {
		detail.Signal = null.StringFrom(s)
	}
	return detail, nil
}

func (uc *CompaniesUseCase) prices(ctx context.Context, id int, rows []models.FeatureRow) (models.Prediction, models.Freshness, error) {
	if uc.cfg.Mode == DetailModeCache {
		if rec, ok := uc.store.Lookup(id); ok && rec.Prediction().Available() && sameLastClose(rec, rows) {
			return rec.Prediction(), models.Freshness{Source: models.SourceCache, ComputedAt: rec.ComputedAt}, nil
		}
	}
	pred, err := uc.predictor.PredictRows(ctx, rows)
	if err != nil {
		return pred, models.Freshness{}, err
	}
	pred.CurrentPrice = round2(pred.CurrentPrice)
	pred.PredictedPrice = round2(pred.PredictedPrice)
	return pred, models.Freshness{Source: models.SourceLive, ComputedAt: uc.now()}, nil
}

// sameLastClose reports whether a cached record still describes the newest
// bar of the live series.
func sameLastClose(rec models.PredictionRecord, rows []models.FeatureRow) bool {
	if len(rows) == 0 || !rec.CurrentPrice.Valid {
		return false
	}
	return round2(null.FloatFrom(rows[len(rows)-1].Close)) == rec.CurrentPrice
}

func (uc *CompaniesUseCase) companyInfo(ctx context.Context, symbol string) (models.CompanyInfo, error) {
	ticker := uc.predictor.Ticker(symbol)
	if uc.info != nil {
		info, ok, err := uc.info.Get(ctx, ticker)
		if err != nil {
			uc.log.Warn("info cache read failed", applogger.String("ticker", ticker), applogger.Error(err))
		} else if ok {
			return info, nil
		}
	}

	info, err := uc.market.FetchInfo(ctx, ticker)
	if err != nil {
		return info, fmt.Errorf("info %s: %w", symbol, err)
	}
	if uc.info != nil {
		if err := uc.info.Set(ctx, ticker, info); err != nil {
			uc.log.Warn("info cache write failed", applogger.String("ticker", ticker), applogger.Error(err))
		}
	}
	return info, nil
}

func historical(rows []models.FeatureRow, days int) models.Series {
	if len(rows) > days {
		rows = rows[len(rows)-days:]
	}
	s := models.Series{
		Dates:  make([]string, 0, len(rows)),
		Prices: make([]null.Float, 0, len(rows)),
	}
	for _, r := range rows {
		s.Dates = append(s.Dates, util.FormatDay(r.Date))
		s.Prices = append(s.Prices, round2(null.FloatFrom(r.Close)))
	}
	return s
}

// forecast joins the last observed day to the predicted next day.
func forecast(rows []models.FeatureRow, pred models.Prediction) models.Series {
	if len(rows) == 0 {
		return models.Series{Dates: []string{}, Prices: []null.Float{}}
	}
	last := rows[len(rows)-1].Date
	return models.Series{
		Dates:  []string{util.FormatDay(last), util.FormatDay(util.NextDay(last))},
		Prices: []null.Float{pred.CurrentPrice, round2(pred.PredictedPrice)},
	}
}
