// cache.go holds compiled templates between renders. A publish run renders
// the same few templates hundreds of times; parsing once per template
// version keeps that cheap. Keys include the partial set signature, so an
// edited partial produces a miss for every page template that embeds it.
package engine

import (
	"html/template"
	"log/slog"
	"sync"
)

// cacheKey uniquely identifies a compiled template version together with
// the partials it was compiled against.
type cacheKey struct {
	name     string
	version  int
	partials string
}

// templateCache is a concurrency-safe in-memory cache of compiled templates.
type templateCache struct {
	mu      sync.RWMutex
	entries map[cacheKey]*template.Template
}

func newTemplateCache() *templateCache {
	return &templateCache{
		entries: make(map[cacheKey]*template.Template),
	}
}

// get retrieves a compiled template. Returns nil on miss.
func (c *templateCache) get(k cacheKey) *template.Template {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[k]
}

func (c *templateCache) put(k cacheKey, tmpl *template.Template) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[k] = tmpl
	slog.Debug("template cached", "name", k.name, "version", k.version, "size", len(c.entries))
}

func (c *templateCache) invalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[cacheKey]*template.Template)
	slog.Debug("template cache fully cleared")
}

func (c *templateCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
