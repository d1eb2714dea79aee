package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"FinCast/internal/domain/errs"
	models "FinCast/internal/domain/models"
	qmetrics "FinCast/internal/service/metrics"
	"FinCast/internal/service/ratelimit"
	xhttp "FinCast/pkg/http"
	xlogger "FinCast/pkg/logger"

	"github.com/labstack/echo/v4"
)

// CompaniesService is the query usecase behind the handler.
type CompaniesService interface {
	List() []models.PredictionRecord
	Detail(ctx context.Context, id int) (*models.CompanyDetail, error)
}

// SnapshotAge reports how old the published snapshot is.
type SnapshotAge interface {
	Age(now time.Time) (time.Duration, bool)
}

type RateLimit struct {
	Capacity     float64
	RefillPerSec float64
}

// CompaniesEchoHandler serves the read-only company endpoints.
type CompaniesEchoHandler struct {
	logger  *xlogger.Logger
	svc     CompaniesService
	age     SnapshotAge
	limiter *ratelimit.Limiter
	limit   RateLimit
}

func NewCompaniesEchoHandler(logger *xlogger.Logger, svc CompaniesService, age SnapshotAge, limiter *ratelimit.Limiter, limit RateLimit) *CompaniesEchoHandler {
	return &CompaniesEchoHandler{logger: logger, svc: svc, age: age, limiter: limiter, limit: limit}
}

func (h *CompaniesEchoHandler) RegisterRoutes(e *echo.Echo) {
	for _, prefix := range []string{"/api", ""} {
		e.GET(prefix+"/companies", h.List)
		e.GET(prefix+"/company/:id", h.Detail)
	}
	e.GET("/healthz", h.Health)
}

func (h *CompaniesEchoHandler) List(c echo.Context) error {
	start := time.Now()
	defer observe("list", start)

	return xhttp.SuccessResponse(c, h.svc.List())
}

func (h *CompaniesEchoHandler) Detail(c echo.Context) error {
	start := time.Now()
	defer observe("detail", start)

	req := &models.CompanyDetailRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		qmetrics.QueryErrors.WithLabelValues("detail", "bad_request").Inc()
		return xhttp.ValidationErrorResponse(c, verr)
	}

	if h.limiter != nil && !h.limiter.Allow(c.RealIP(), h.limit.Capacity, h.limit.RefillPerSec) {
		qmetrics.QueryErrors.WithLabelValues("detail", "rate_limited").Inc()
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limit exceeded"))
	}

	detail, err := h.svc.Detail(c.Request().Context(), req.ID)
	if err != nil {
		qmetrics.QueryErrors.WithLabelValues("detail", errs.Kind(err)).Inc()
		if errors.Is(err, errs.ErrNotFound) {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundError("Company not found").WithError(err))
		}
		h.logger.Error("company detail error", xlogger.Int("id", req.ID), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError(err.Error()).WithError(err))
	}
	qmetrics.DetailSource.WithLabelValues(detail.Freshness.Source).Inc()
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, detail)
}

type healthResponse struct {
	Status     string  `json:"status"`
	Cache      string  `json:"cache"`
	AgeSeconds float64 `json:"age_seconds,omitempty"`
}

// Health reports whether a snapshot has been published yet. The service is
// healthy either way; an empty cache only means the first cycle is running.
func (h *CompaniesEchoHandler) Health(c echo.Context) error {
	resp := healthResponse{Status: "ok", Cache: "empty"}
	if age, ok := h.age.Age(time.Now()); ok {
		resp.Cache = "populated"
		resp.AgeSeconds = age.Seconds()
	}
	return c.JSON(http.StatusOK, resp)
}

func observe(endpoint string, start time.Time) {
	qmetrics.QueryLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}
