package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/trackline/internal/shared"
	"golang.org/x/time/rate"
)

func TestMiddleware(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("RateLimit", func(t *testing.T) {
		t.Run("Allows Under Limit", func(t *testing.T) {
			limiter := rate.NewLimiter(rate.Limit(100), 1)
			handler := RateLimit(limiter)(okHandler)

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest("GET", "/list", nil))

			if rec.Code != http.StatusOK {
				t.Errorf("expected 200, got %d", rec.Code)
			}
		})

		t.Run("Rejects Over Limit", func(t *testing.T) {
			limiter := rate.NewLimiter(rate.Limit(0.001), 1)
			handler := RateLimit(limiter)(okHandler)

			first := httptest.NewRecorder()
			handler.ServeHTTP(first, httptest.NewRequest("GET", "/list", nil))
			if first.Code != http.StatusOK {
				t.Fatalf("expected first request to pass, got %d", first.Code)
			}

			second := httptest.NewRecorder()
			handler.ServeHTTP(second, httptest.NewRequest("GET", "/list", nil))
			if second.Code != http.StatusTooManyRequests {
				t.Errorf("expected 429, got %d", second.Code)
			}
		})
	})

	t.Run("Logging Passes Through", func(t *testing.T) {
		handler := Logging(shared.NewLogger(nil))(okHandler)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/list", nil))

		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("Router Applies Middleware In Order", func(t *testing.T) {
		router := NewBasicRouter()

		var order []string
		tag := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router.Use(tag("first"), tag("second"))
		router.Handle("GET", "/ping", okHandler)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", "/ping", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if len(order) != 2 || order[0] != "first" || order[1] != "second" {
			t.Errorf("expected middleware in registration order, got %v", order)
		}
	})

	t.Run("Router Rejects Wrong Method", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle("GET", "/ping", okHandler)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("POST", "/ping", nil))

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})
}
