// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultBudgetWindow is used when a budget is created without a window.
const DefaultBudgetWindow = time.Minute

// allowance is one client's spending in its current window.
type allowance struct {
	start time.Time
	used  int
}

// RenderBudget caps how many pages a client can make the server render per
// window. Published files never reach it, and responses that cost no
// render (redirects, page cache hits) are refunded once they are known, so
// only real renders count against a crawler.
type RenderBudget struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu        sync.Mutex
	clients   map[string]*allowance
	lastSweep time.Time
}

// NewRenderBudget allows limit renders per window and client. A limit of
// zero or less returns nil, which Middleware treats as unlimited.
func NewRenderBudget(limit int, window time.Duration) *RenderBudget {
	if limit <= 0 {
		return nil
	}
	if window <= 0 {
		window = DefaultBudgetWindow
	}
	return &RenderBudget{
		limit:   limit,
		window:  window,
		now:     time.Now,
		clients: make(map[string]*allowance),
	}
}

// take spends one render for key. When the budget is exhausted it reports
// how long until the client's window resets.
func (b *RenderBudget) take(key string) (bool, time.Duration) {
	now := b.now()

	b.mu.Lock()
	defer b.mu.Unlock()

	if now.Sub(b.lastSweep) >= b.window {
		b.sweep(now)
	}

	a := b.clients[key]
	if a == nil || now.Sub(a.start) >= b.window {
		a = &allowance{start: now}
		b.clients[key] = a
	}
	if a.used >= b.limit {
		return false, a.start.Add(b.window).Sub(now)
	}
	a.used++
	return true, 0
}

// refund gives back a render that turned out free.
func (b *RenderBudget) refund(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if a := b.clients[key]; a != nil && a.used > 0 {
		a.used--
	}
}

// sweep drops clients whose window has ended. Callers hold b.mu.
func (b *RenderBudget) sweep(now time.Time) {
	for key, a := range b.clients {
		if now.Sub(a.start) >= b.window {
			delete(b.clients, key)
		}
	}
	b.lastSweep = now
}

// Middleware enforces the budget per client IP.
func (b *RenderBudget) Middleware(next http.Handler) http.Handler {
	if b == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		ok, wait := b.take(ip)
		if !ok {
			w.Header().Set("Retry-After", retryAfter(wait))
			w.Header().Set("Cache-Control", "no-store")
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		if rendered := rw.statusCode < 300 || rw.statusCode >= 400; !rendered || w.Header().Get(CacheHeader) == "HIT" {
			b.refund(ip)
		}
	})
}

// retryAfter rounds wait up to whole seconds, at least one.
func retryAfter(wait time.Duration) string {
	secs := int((wait + time.Second - 1) / time.Second)
	return strconv.Itoa(max(secs, 1))
}

// clientIP extracts the client's IP address. The front web server proxies
// the dynamic path, so X-Forwarded-For and X-Real-IP win over RemoteAddr.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// The leftmost address is the original client.
		if idx := strings.IndexByte(xff, ','); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}
