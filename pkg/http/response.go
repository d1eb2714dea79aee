package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// SuccessResponse writes data as the JSON body with status 200.
func SuccessResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, data)
}

// ErrorResponse writes {"error": message} with the given status.
func ErrorResponse(c echo.Context, status int, message string) error {
	return c.JSON(status, ErrorBody{Error: message})
}

// ValidationErrorResponse writes a 400 with the first failure as the message.
func ValidationErrorResponse(c echo.Context, errs []ValidationError) error {
	msg := http.StatusText(http.StatusBadRequest)
	if len(errs) > 0 && errs[0].Message != "" {
		msg = errs[0].Message
	}
	return c.JSON(http.StatusBadRequest, ErrorBody{Error: msg, Details: errs})
}

// AppErrorResponse writes application error response. Errors that are not
// *AppError become a 500 carrying err's message.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return ErrorResponse(c, appErr.Status, appErr.Message)
	}
	return ErrorResponse(c, http.StatusInternalServerError, err.Error())
}
