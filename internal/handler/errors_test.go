package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/todo-api/internal/database"
	"github.com/iliyamo/todo-api/internal/repository"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"invalid body", fmt.Errorf("%w: unexpected EOF", ErrInvalidBody), 400, "Invalid Body"},
		{"not found", repository.ErrTodoNotFound, 404, "Not Found"},
		{"pool", &database.Error{Kind: database.KindPool, Op: "acquire", Err: errors.New("timeout")}, 500, "Internal Server Error"},
		{"query", &database.Error{Kind: database.KindQuery, Op: "fetch_todos", Err: errors.New("syntax")}, 500, "Internal Server Error"},
		{"route not found", echo.ErrNotFound, 404, "Not Found"},
		{"method not allowed", echo.ErrMethodNotAllowed, 405, "Method Not Allowed"},
		{"rate limited", echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded"), 429, "rate limit exceeded"},
		{"echo 5xx", echo.NewHTTPError(http.StatusServiceUnavailable, "down"), 500, "Internal Server Error"},
		{"unknown", errors.New("kaboom"), 500, "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, msg := StatusFor(tt.err)
			if code != tt.code || msg != tt.msg {
				t.Errorf("StatusFor() = (%d, %q), want (%d, %q)", code, msg, tt.code, tt.msg)
			}
		})
	}
}

func TestErrorMapperWritesJSON(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/todo", nil), rec)

	ErrorMapper(slog.New(slog.NewTextHandler(io.Discard, nil)))(ErrInvalidBody, c)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("code = %d, want 400", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"message":"Invalid Body"}` {
		t.Errorf("body = %s", got)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, echo.MIMEApplicationJSON) {
		t.Errorf("content type = %q", ct)
	}
}

func TestErrorMapperSkipsCommitted(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/todo", nil), rec)
	_ = c.String(http.StatusOK, "partial")

	ErrorMapper(slog.New(slog.NewTextHandler(io.Discard, nil)))(errors.New("late"), c)

	if rec.Code != http.StatusOK || rec.Body.String() != "partial" {
		t.Errorf("committed response was rewritten: %d %q", rec.Code, rec.Body.String())
	}
}
