package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/todo-api/internal/config"
)

// fakeScripter answers every script call with a fixed result.
type fakeScripter struct {
	val   interface{}
	err   error
	calls int
}

func (f *fakeScripter) result(ctx context.Context) *redis.Cmd {
	f.calls++
	cmd := redis.NewCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal(f.val)
	}
	return cmd
}

func (f *fakeScripter) Eval(ctx context.Context, _ string, _ []string, _ ...interface{}) *redis.Cmd {
	return f.result(ctx)
}

func (f *fakeScripter) EvalSha(ctx context.Context, _ string, _ []string, _ ...interface{}) *redis.Cmd {
	return f.result(ctx)
}

func (f *fakeScripter) EvalRO(ctx context.Context, _ string, _ []string, _ ...interface{}) *redis.Cmd {
	return f.result(ctx)
}

func (f *fakeScripter) EvalShaRO(ctx context.Context, _ string, _ []string, _ ...interface{}) *redis.Cmd {
	return f.result(ctx)
}

func (f *fakeScripter) ScriptExists(ctx context.Context, _ ...string) *redis.BoolSliceCmd {
	return redis.NewBoolSliceCmd(ctx)
}

func (f *fakeScripter) ScriptLoad(ctx context.Context, _ string) *redis.StringCmd {
	return redis.NewStringCmd(ctx)
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func enabledConfig() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:        true,
		Capacity:       10,
		RefillTokens:   1,
		RefillInterval: time.Second,
		TTL:            time.Minute,
		KeyStrategy:    "ip_route",
		Prefix:         "rl",
	}
}

func run(t *testing.T, mw echo.MiddlewareFunc) (*httptest.ResponseRecorder, bool, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/todo", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/todo")

	called := false
	err := mw(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})(c)
	return rec, called, err
}

func TestTokenBucketAllows(t *testing.T) {
	rdb := &fakeScripter{val: []interface{}{int64(1), int64(9), int64(0)}}
	rec, called, err := run(t, NewTokenBucket(enabledConfig(), rdb, discard))
	if err != nil || !called {
		t.Fatalf("err = %v, called = %v", err, called)
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "9" {
		t.Errorf("X-RateLimit-Remaining = %q, want 9", got)
	}
	if got := rec.Header().Get("X-RateLimit-Limit"); got != "10" {
		t.Errorf("X-RateLimit-Limit = %q, want 10", got)
	}
}

func TestTokenBucketBlocks(t *testing.T) {
	rdb := &fakeScripter{val: []interface{}{int64(0), int64(0), int64(1500)}}
	rec, called, err := run(t, NewTokenBucket(enabledConfig(), rdb, discard))
	if called {
		t.Fatal("next handler ran for a blocked request")
	}
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusTooManyRequests {
		t.Fatalf("err = %v, want 429", err)
	}
	if got := rec.Header().Get("Retry-After"); got != "2" {
		t.Errorf("Retry-After = %q, want 2", got)
	}
}

func TestTokenBucketFailsOpen(t *testing.T) {
	rdb := &fakeScripter{err: errors.New("connection refused")}
	_, called, err := run(t, NewTokenBucket(enabledConfig(), rdb, discard))
	if err != nil || !called {
		t.Fatalf("err = %v, called = %v; want pass-through", err, called)
	}
}

func TestTokenBucketDisabled(t *testing.T) {
	rdb := &fakeScripter{}
	cfg := enabledConfig()
	cfg.Enabled = false
	_, called, err := run(t, NewTokenBucket(cfg, rdb, discard))
	if err != nil || !called || rdb.calls != 0 {
		t.Fatalf("err = %v, called = %v, redis calls = %d", err, called, rdb.calls)
	}
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPut, "/todo/7", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/todo/:id")

	tests := []struct {
		strategy string
		want     string
	}{
		{"ip", "rl:ip:10.0.0.1"},
		{"route", "rl:route:PUT /todo/:id"},
		{"ip_route", "rl:ip:10.0.0.1:route:PUT /todo/:id"},
		{"", "rl:ip:10.0.0.1:route:PUT /todo/:id"},
	}
	for _, tt := range tests {
		cfg := enabledConfig()
		cfg.KeyStrategy = tt.strategy
		if got := buildRateKey(cfg, c); got != tt.want {
			t.Errorf("strategy %q: key = %q, want %q", tt.strategy, got, tt.want)
		}
	}
}
