package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func newTestRateLimiter(t *testing.T, cfg RateLimiterConfig) *RateLimiter {
	t.Helper()
	var buf bytes.Buffer
	rl := NewRateLimiter(cfg, slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(rl.Stop)
	return rl
}

func requestFrom(ip string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/papers", nil)
	req.RemoteAddr = ip + ":40000"
	return req
}

func okHandler(count *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*count++
		w.WriteHeader(http.StatusOK)
	})
}

// --- GeneralMiddleware のテスト ---

func TestRateLimitMiddleware_AllowsRequestsWithinLimit(t *testing.T) {
	rl := newTestRateLimiter(t, RateLimiterConfig{
		GeneralRate:     2,
		GeneralBurst:    5,
		RefreshRate:     1,
		RefreshBurst:    1,
		CleanupInterval: time.Minute,
	})

	calls := 0
	handler := rl.GeneralMiddleware()(okHandler(&calls))

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestFrom("198.51.100.1"))
		if w.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i, w.Code, http.StatusOK)
		}
	}
	if calls != 5 {
		t.Errorf("handler call count = %d, want 5", calls)
	}
}

func TestRateLimitMiddleware_Returns429WhenLimitExceeded(t *testing.T) {
	rl := newTestRateLimiter(t, RateLimiterConfig{
		GeneralRate:     1,
		GeneralBurst:    2,
		RefreshRate:     1,
		RefreshBurst:    1,
		CleanupInterval: time.Minute,
	})

	calls := 0
	handler := rl.GeneralMiddleware()(okHandler(&calls))

	for i := 0; i < 2; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), requestFrom("198.51.100.2"))
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestFrom("198.51.100.2"))

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	if got := w.Header().Get("Retry-After"); got != "1" {
		t.Errorf("Retry-After = %q, want %q", got, "1")
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Code != "RATE_LIMIT_EXCEEDED" {
		t.Errorf("code = %q", body.Code)
	}
	if calls != 2 {
		t.Errorf("handler call count = %d, want 2", calls)
	}
}

func TestRateLimitMiddleware_SeparatesClients(t *testing.T) {
	rl := newTestRateLimiter(t, RateLimiterConfig{
		GeneralRate:     rate.Limit(0.01),
		GeneralBurst:    1,
		RefreshRate:     1,
		RefreshBurst:    1,
		CleanupInterval: time.Minute,
	})

	calls := 0
	handler := rl.GeneralMiddleware()(okHandler(&calls))

	for _, ip := range []string{"192.0.2.1", "192.0.2.2", "192.0.2.1"} {
		handler.ServeHTTP(httptest.NewRecorder(), requestFrom(ip))
	}

	if calls != 2 {
		t.Errorf("handler call count = %d, want 2", calls)
	}
	if rl.GeneralLimiterCount() != 2 {
		t.Errorf("GeneralLimiterCount = %d, want 2", rl.GeneralLimiterCount())
	}
}

// --- RefreshMiddleware のテスト ---

func TestRefreshMiddleware_IndependentOfGeneral(t *testing.T) {
	rl := newTestRateLimiter(t, RateLimiterConfig{
		GeneralRate:     100,
		GeneralBurst:    100,
		RefreshRate:     rate.Limit(6.0 / 60.0),
		RefreshBurst:    1,
		CleanupInterval: time.Minute,
	})

	calls := 0
	handler := rl.GeneralMiddleware()(rl.RefreshMiddleware()(okHandler(&calls)))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, requestFrom("192.0.2.9"))
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, requestFrom("192.0.2.9"))

	if first.Code != http.StatusOK || second.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, %d; want 200, 429", first.Code, second.Code)
	}
	if got := second.Header().Get("Retry-After"); got != "10" {
		t.Errorf("Retry-After = %q, want 10", got)
	}
	if rl.RefreshLimiterCount() != 1 || rl.GeneralLimiterCount() != 1 {
		t.Errorf("counts = %d/%d", rl.GeneralLimiterCount(), rl.RefreshLimiterCount())
	}
}

// --- クリーンアップのテスト ---

func TestRateLimiter_CleanupEvictsIdleEntries(t *testing.T) {
	rl := newTestRateLimiter(t, RateLimiterConfig{
		GeneralRate:     1,
		GeneralBurst:    1,
		RefreshRate:     1,
		RefreshBurst:    1,
		CleanupInterval: time.Hour,
	})

	calls := 0
	rl.GeneralMiddleware()(okHandler(&calls)).ServeHTTP(httptest.NewRecorder(), requestFrom("192.0.2.3"))
	if rl.GeneralLimiterCount() != 1 {
		t.Fatalf("GeneralLimiterCount = %d, want 1", rl.GeneralLimiterCount())
	}

	rl.cleanup(time.Now().Add(3 * time.Hour))
	if rl.GeneralLimiterCount() != 0 {
		t.Errorf("GeneralLimiterCount = %d, want 0", rl.GeneralLimiterCount())
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "[2001:db8::1]:8080"
	if got := ClientIP(req); got != "2001:db8::1" {
		t.Errorf("ClientIP = %q", got)
	}
	req.RemoteAddr = "10.0.0.1"
	if got := ClientIP(req); got != "10.0.0.1" {
		t.Errorf("ClientIP = %q", got)
	}
}
