package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/todo-api/internal/database"
	"github.com/iliyamo/todo-api/internal/repository"
)

// ErrInvalidBody marks a request body that is not valid JSON or lacks a
// required field.
var ErrInvalidBody = errors.New("invalid body")

// ErrorResponse is the JSON body of every error answer.
type ErrorResponse struct {
	Message string `json:"message"`
}

// ErrorMapper is installed as the echo.HTTPErrorHandler and is the only
// place that turns errors into HTTP responses.
func ErrorMapper(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code, msg := StatusFor(err)
		if code >= http.StatusInternalServerError {
			logger.Error("request failed",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", code,
				"err", err,
			)
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(code)
		} else {
			werr = c.JSON(code, ErrorResponse{Message: msg})
		}
		if werr != nil {
			logger.Error("write error response", "err", werr)
		}
	}
}

// StatusFor maps an error to its status code and client facing message.
func StatusFor(err error) (int, string) {
	var (
		dbErr   *database.Error
		httpErr *echo.HTTPError
	)
	switch {
	case errors.Is(err, ErrInvalidBody):
		return http.StatusBadRequest, "Invalid Body"
	case errors.Is(err, repository.ErrTodoNotFound):
		return http.StatusNotFound, http.StatusText(http.StatusNotFound)
	case errors.As(err, &dbErr):
		return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
	case errors.As(err, &httpErr):
		if httpErr.Code >= 400 && httpErr.Code < 500 {
			if s, ok := httpErr.Message.(string); ok && s != "" {
				return httpErr.Code, s
			}
			return httpErr.Code, http.StatusText(httpErr.Code)
		}
	}
	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}
