// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// clock is a manually advanced time source.
type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newBudget(t *testing.T, limit int, window time.Duration) (*RenderBudget, *clock) {
	t.Helper()
	b := NewRenderBudget(limit, window)
	c := &clock{t: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
	b.now = c.now
	return b, c
}

func TestRenderBudgetTake(t *testing.T) {
	b, _ := newBudget(t, 3, time.Minute)

	for i := 0; i < 3; i++ {
		if ok, _ := b.take("10.0.0.1"); !ok {
			t.Fatalf("render %d should be allowed", i+1)
		}
	}
	ok, wait := b.take("10.0.0.1")
	if ok {
		t.Error("4th render should be refused")
	}
	if wait != time.Minute {
		t.Errorf("wait = %v, want the full window", wait)
	}
	if ok, _ := b.take("10.0.0.2"); !ok {
		t.Error("another client has its own budget")
	}
}

func TestRenderBudgetWindowReset(t *testing.T) {
	b, c := newBudget(t, 2, time.Minute)
	b.take("ip")
	b.take("ip")

	c.advance(40 * time.Second)
	ok, wait := b.take("ip")
	if ok || wait != 20*time.Second {
		t.Errorf("take = %v, %v; want refused with 20s left", ok, wait)
	}

	c.advance(20 * time.Second)
	if ok, _ := b.take("ip"); !ok {
		t.Error("a new window should allow renders again")
	}
}

func TestRenderBudgetSweep(t *testing.T) {
	b, c := newBudget(t, 5, time.Minute)
	b.take("old")
	c.advance(30 * time.Second)
	b.take("fresh")

	// The next take after a full window sweeps clients whose window ended.
	c.advance(45 * time.Second)
	b.take("fresh")

	b.mu.Lock()
	_, oldExists := b.clients["old"]
	_, freshExists := b.clients["fresh"]
	b.mu.Unlock()
	if oldExists {
		t.Error("old client should have been swept")
	}
	if !freshExists {
		t.Error("fresh client should remain")
	}
}

func TestRenderBudgetMiddleware(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		// allowed is how many of 5 requests pass a budget of 2.
		allowed int
	}{
		{
			name:    "renders count",
			handler: func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("page")) },
			allowed: 2,
		},
		{
			name:    "404 page renders count",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) },
			allowed: 2,
		},
		{
			name: "redirects are free",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Redirect(w, r, "/blog/", http.StatusMovedPermanently)
			},
			allowed: 5,
		},
		{
			name: "page cache hits are free",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set(CacheHeader, "HIT")
				w.Write([]byte("cached"))
			},
			allowed: 5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := newBudget(t, 2, time.Minute)
			handler := b.Middleware(tt.handler)

			allowed := 0
			var last *httptest.ResponseRecorder
			for i := 0; i < 5; i++ {
				req := httptest.NewRequest(http.MethodGet, "/blog/page-2/", nil)
				req.RemoteAddr = "192.168.1.1:12345"
				last = httptest.NewRecorder()
				handler.ServeHTTP(last, req)
				if last.Code != http.StatusTooManyRequests {
					allowed++
				}
			}
			if allowed != tt.allowed {
				t.Fatalf("allowed %d of 5, want %d", allowed, tt.allowed)
			}
			if tt.allowed < 5 {
				if got := last.Header().Get("Retry-After"); got != "60" {
					t.Errorf("Retry-After: got %q, want 60", got)
				}
				if got := last.Header().Get("Cache-Control"); got != "no-store" {
					t.Errorf("Cache-Control: got %q, want no-store", got)
				}
			}
		})
	}
}

func TestRenderBudgetDisabled(t *testing.T) {
	b := NewRenderBudget(0, time.Minute)
	if b != nil {
		t.Fatal("zero limit should disable the budget")
	}
	handler := b.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	for i := 0; i < 10; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: got status %d, want 200", i+1, rr.Code)
		}
	}
}

func TestRenderBudgetDefaultWindow(t *testing.T) {
	if b := NewRenderBudget(1, 0); b.window != DefaultBudgetWindow {
		t.Errorf("window = %v, want %v", b.window, DefaultBudgetWindow)
	}
}

func TestRetryAfter(t *testing.T) {
	tests := map[time.Duration]string{
		0:                       "1",
		300 * time.Millisecond:  "1",
		time.Second:             "1",
		1500 * time.Millisecond: "2",
		time.Minute:             "60",
	}
	for wait, want := range tests {
		if got := retryAfter(wait); got != want {
			t.Errorf("retryAfter(%v) = %q, want %q", wait, got, want)
		}
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		xri        string
		remoteAddr string
		want       string
	}{
		{
			name:       "x-forwarded-for single",
			xff:        "10.0.0.1",
			remoteAddr: "192.168.1.1:1234",
			want:       "10.0.0.1",
		},
		{
			name:       "x-forwarded-for multiple",
			xff:        "10.0.0.1, 172.16.0.1, 192.168.1.1",
			remoteAddr: "192.168.1.1:1234",
			want:       "10.0.0.1",
		},
		{
			name:       "x-real-ip",
			xri:        "10.0.0.2",
			remoteAddr: "192.168.1.1:1234",
			want:       "10.0.0.2",
		},
		{
			name:       "remote addr only",
			remoteAddr: "192.168.1.1:1234",
			want:       "192.168.1.1",
		},
		{
			name:       "remote addr no port",
			remoteAddr: "192.168.1.1",
			want:       "192.168.1.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			got := clientIP(req)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
