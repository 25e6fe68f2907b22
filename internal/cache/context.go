// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import "log/slog"

// SettingsKey is the memo key of the site settings, shared by every stage
// of a publish run.
const SettingsKey = "settings"

// Context memoizes values that are expensive to compute but constant for
// the duration of one publish run (settings, navigation tree, default
// pages). It is not safe for concurrent use; create one per run or per
// request.
type Context struct {
	values map[string]any
}

// NewContext creates an empty memo.
func NewContext() *Context {
	return &Context{values: make(map[string]any)}
}

// Cached returns the value stored under key, calling producer to compute it
// on the first request. Errors are not memoized.
func (c *Context) Cached(key string, producer func() (any, error)) (any, error) {
	if v, ok := c.values[key]; ok {
		return v, nil
	}
	v, err := producer()
	if err != nil {
		return nil, err
	}
	c.values[key] = v
	slog.Debug("cache context filled", "key", key)
	return v, nil
}

// Forget drops a single key.
func (c *Context) Forget(key string) {
	delete(c.values, key)
}

// Reset drops every memoized value.
func (c *Context) Reset() {
	c.values = make(map[string]any)
}

// Len returns the number of memoized values.
func (c *Context) Len() int {
	return len(c.values)
}

// Memo is the typed form of Context.Cached.
func Memo[T any](c *Context, key string, producer func() (T, error)) (T, error) {
	v, err := c.Cached(key, func() (any, error) { return producer() })
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
