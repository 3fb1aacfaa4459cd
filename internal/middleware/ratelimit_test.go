package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitEnforcesPerIPLimit(t *testing.T) {
	handler := RateLimit(2, time.Minute)(okHandler())

	do := func(remoteAddr string) int {
		req := httptest.NewRequest("GET", "/api/generate/text", nil)
		req.RemoteAddr = remoteAddr
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	if code := do("10.0.0.1:1234"); code != 200 {
		t.Fatalf("first request: %d", code)
	}
	if code := do("10.0.0.1:1234"); code != 200 {
		t.Fatalf("second request: %d", code)
	}
	if code := do("10.0.0.1:1234"); code != 429 {
		t.Fatalf("third request: %d, want 429", code)
	}
	// Another client is tracked separately.
	if code := do("10.0.0.2:1234"); code != 200 {
		t.Fatalf("other client: %d", code)
	}
}

func TestRateLimitWindowResets(t *testing.T) {
	handler := RateLimit(1, 20*time.Millisecond)(okHandler())

	req := httptest.NewRequest("GET", "/api/credits/u1", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != 200 {
		t.Fatalf("first request: %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != 429 {
		t.Fatalf("within window: %d, want 429", rr.Code)
	}

	time.Sleep(30 * time.Millisecond)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != 200 {
		t.Fatalf("after window: %d, want 200", rr.Code)
	}
}

func TestRateLimitExemptions(t *testing.T) {
	handler := RateLimit(1, time.Minute)(okHandler())

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest("POST", "/api/webhooks/stripe", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != 200 {
			t.Fatalf("webhook delivery %d throttled: %d", i, rr.Code)
		}
	}

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest("OPTIONS", "/api/generate/text", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != 200 {
			t.Fatalf("preflight %d throttled: %d", i, rr.Code)
		}
	}
}
