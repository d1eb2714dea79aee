package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"FinCast/internal/domain/errs"
	models "FinCast/internal/domain/models"
	"FinCast/internal/service/ratelimit"
	xlogger "FinCast/pkg/logger"

	"github.com/guregu/null/v6"
	"github.com/labstack/echo/v4"
)

type fakeCompanies struct {
	records []models.PredictionRecord
	detail  map[int]*models.CompanyDetail
	err     error
}

func (f *fakeCompanies) List() []models.PredictionRecord { return f.records }

func (f *fakeCompanies) Detail(_ context.Context, id int) (*models.CompanyDetail, error) {
	if f.err != nil {
		return nil, f.err
	}
	d, ok := f.detail[id]
	if !ok {
		return nil, fmt.Errorf("company %d: %w", id, errs.ErrNotFound)
	}
	return d, nil
}

type fixedAge struct {
	age time.Duration
	ok  bool
}

func (f fixedAge) Age(time.Time) (time.Duration, bool) { return f.age, f.ok }

func newTestEcho(svc CompaniesService, limit RateLimit) *echo.Echo {
	e := echo.New()
	NewCompaniesEchoHandler(xlogger.Nop(), svc, fixedAge{}, ratelimit.New(), limit).RegisterRoutes(e)
	return e
}

func do(e *echo.Echo, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestListEmptyIsArray(t *testing.T) {
	e := newTestEcho(&fakeCompanies{records: []models.PredictionRecord{}}, RateLimit{})
	for _, path := range []string{"/api/companies", "/companies"} {
		rec := do(e, path)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status %d", path, rec.Code)
		}
		if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
			t.Fatalf("%s: body %q, want []", path, body)
		}
	}
}

func TestListRecords(t *testing.T) {
	e := newTestEcho(&fakeCompanies{records: []models.PredictionRecord{
		{ID: 1, Name: "Aramco", Symbol: "2222", CurrentPrice: null.FloatFrom(28.1), PredictedPrice: null.FloatFrom(28.4)},
		{ID: 2, Name: "SABIC", Symbol: "2010"},
	}}, RateLimit{})
	rec := do(e, "/api/companies")
	var got []map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || got[0]["current_price"] != 28.1 || got[1]["predicted_price"] != nil {
		t.Fatalf("body = %v", got)
	}
}

func TestDetailNotFound(t *testing.T) {
	e := newTestEcho(&fakeCompanies{}, RateLimit{})
	for _, path := range []string{"/api/company/42", "/company/42"} {
		rec := do(e, path)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s: status %d", path, rec.Code)
		}
		var body map[string]interface{}
		_ = json.Unmarshal(rec.Body.Bytes(), &body)
		if body["error"] != "Company not found" {
			t.Fatalf("%s: body %v", path, body)
		}
	}
}

func TestDetailOK(t *testing.T) {
	e := newTestEcho(&fakeCompanies{detail: map[int]*models.CompanyDetail{
		1: {ID: 1, Name: "Aramco", Symbol: "2222", CurrentPrice: null.FloatFrom(28.1), Freshness: models.Freshness{Source: models.SourceCache}},
	}}, RateLimit{})
	rec := do(e, "/api/company/1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var got models.CompanyDetail
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Symbol != "2222" || got.Freshness.Source != "cache" {
		t.Fatalf("detail = %+v", got)
	}
}

func TestDetailFailureIs500(t *testing.T) {
	e := newTestEcho(&fakeCompanies{err: fmt.Errorf("fetch 2222: %w", errs.ErrDataProvider)}, RateLimit{})
	rec := do(e, "/api/company/1")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d", rec.Code)
	}
	var body map[string]interface{}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	msg, _ := body["error"].(string)
	if !strings.Contains(msg, "data provider") {
		t.Fatalf("error message %q", msg)
	}
}

func TestDetailBadID(t *testing.T) {
	e := newTestEcho(&fakeCompanies{}, RateLimit{})
	for _, path := range []string{"/api/company/abc", "/api/company/-1"} {
		if rec := do(e, path); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status %d", path, rec.Code)
		}
	}
}

func TestDetailZeroIDNotFound(t *testing.T) {
	e := newTestEcho(&fakeCompanies{}, RateLimit{})
	for _, path := range []string{"/api/company/0", "/company/0"} {
		rec := do(e, path)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s: status %d, want 404", path, rec.Code)
		}
		var body map[string]interface{}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body["error"] != "Company not found" {
			t.Fatalf("%s: body %v", path, body)
		}
	}
}

func TestDetailRateLimited(t *testing.T) {
	e := newTestEcho(&fakeCompanies{err: errors.New("boom")}, RateLimit{Capacity: 1, RefillPerSec: 0.001})
	if rec := do(e, "/api/company/1"); rec.Code != http.StatusInternalServerError {
		t.Fatalf("first request status %d", rec.Code)
	}
	if rec := do(e, "/api/company/1"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	e := echo.New()
	NewCompaniesEchoHandler(xlogger.Nop(), &fakeCompanies{}, fixedAge{age: 90 * time.Second, ok: true}, nil, RateLimit{}).RegisterRoutes(e)
	rec := do(e, "/healthz")
	var body healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Code != http.StatusOK || body.Cache != "populated" || body.AgeSeconds != 90 {
		t.Fatalf("health = %d %+v", rec.Code, body)
	}
}
