package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestAppErrorResponse(t *testing.T) {
	cases := []struct {
		err        error
		wantStatus int
		wantMsg    string
	}{
		{NotFoundError("Company not found"), http.StatusNotFound, "Company not found"},
		{TooManyRequestsError("slow down"), http.StatusTooManyRequests, "slow down"},
		{InternalError("inference error: timeout").WithError(errors.New("timeout")), http.StatusInternalServerError, "inference error: timeout"},
		{errors.New("model server unavailable"), http.StatusInternalServerError, "model server unavailable"},
	}
	e := echo.New()
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		if err := AppErrorResponse(c, tc.err); err != nil {
			t.Fatalf("AppErrorResponse: %v", err)
		}
		if rec.Code != tc.wantStatus {
			t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
		}
		var body ErrorBody
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Error != tc.wantMsg {
			t.Fatalf("error = %q, want %q", body.Error, tc.wantMsg)
		}
	}
}

type idRequest struct {
	ID int `param:"id" validate:"required,gte=1"`
}

func TestReadAndValidateRequest(t *testing.T) {
	e := echo.New()
	bind := func(id string) []ValidationError {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/company/"+id, nil), httptest.NewRecorder())
		c.SetPath("/company/:id")
		c.SetParamNames("id")
		c.SetParamValues(id)
		var req idRequest
		return ReadAndValidateRequest(c, &req)
	}
	if errs := bind("3"); errs != nil {
		t.Fatalf("unexpected errors %+v", errs)
	}
	if errs := bind("0"); len(errs) == 0 {
		t.Fatalf("expected validation error for id 0")
	}
	if errs := bind("abc"); len(errs) == 0 {
		t.Fatalf("expected bind error for non-numeric id")
	}
}
