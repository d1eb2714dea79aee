package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"FinCast/internal/domain/models"
	domrepo "FinCast/internal/domain/repository"
	pkgch "FinCast/pkg/clickhouse"
	applogger "FinCast/pkg/logger"
)

// CHHistory records every published snapshot into a ClickHouse MergeTree table.
type CHHistory struct {
	client *pkgch.Client
	db     *sql.DB
	table  string
	l      *applogger.Logger
}

var _ domrepo.HistoryRecorder = (*CHHistory)(nil)

func NewCHHistory(ch *pkgch.Client, l *applogger.Logger) *CHHistory {
	return &CHHistory{client: ch, db: ch.DB(), table: ch.Database() + ".predictions", l: l}
}

func (h *CHHistory) Init(ctx context.Context) error {
	return h.client.InitSchema(ctx, []string{
		fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            cycle_id        String,
            published_at    DateTime64(3, 'UTC'),
            company_id      UInt32,
            symbol          LowCardinality(String),
            name            String,
            last_day_price  Nullable(Float64),
            current_price   Nullable(Float64),
            predicted_price Nullable(Float64),
            computed_at     DateTime64(3, 'UTC')
        )
        ENGINE = MergeTree
        PARTITION BY toYYYYMM(published_at)
        ORDER BY (symbol, published_at)
    `, h.table),
	})
}

func (h *CHHistory) RecordSnapshot(ctx context.Context, snap *models.Snapshot) error {
	if snap == nil || len(snap.Records) == 0 {
		return nil
	}
	start := time.Now()

	values := make([]string, 0, len(snap.Records))
	args := make([]interface{}, 0, len(snap.Records)*9)
	for _, r := range snap.Records {
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			snap.CycleID,
			snap.PublishedAt.UTC(),
			uint32(r.ID),
			r.Symbol,
			r.Name,
			r.LastDayPrice.Ptr(),
			r.CurrentPrice.Ptr(),
			r.PredictedPrice.Ptr(),
			r.ComputedAt.UTC(),
		)
	}
	q := fmt.Sprintf(`INSERT INTO %s (cycle_id, published_at, company_id, symbol, name, last_day_price, current_price, predicted_price, computed_at) VALUES %s`,
		h.table, strings.Join(values, ","))
	if _, err := h.db.ExecContext(ctx, q, args...); err != nil {
		h.l.Error("clickhouse record_snapshot error",
			applogger.String("table", h.table),
			applogger.String("cycle_id", snap.CycleID),
			applogger.Error(err),
		)
		return fmt.Errorf("insert snapshot: %w", err)
	}
	h.l.Debug("clickhouse record_snapshot ok",
		applogger.String("table", h.table),
		applogger.Int("rows", len(snap.Records)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

func (h *CHHistory) Close() error {
	return h.client.Close()
}
