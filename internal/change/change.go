// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package change decides whether a cached file is stale. A file is fresh
// when its mtime equals the effective mtime of everything it was rendered
// from; any difference, in either direction, means it must be rendered
// again.
package change

import (
	"time"
)

// Resolution is the granularity at which mtimes are compared and stamped.
// Filesystems disagree on sub-second precision.
const Resolution = time.Second

// Decision is the outcome of a staleness check.
type Decision struct {
	Render bool
	Stamp  time.Time
}

// Decide compares the mtime of the cached copy (nil when there is none)
// with the effective mtime of its inputs.
func Decide(current *time.Time, effective time.Time) Decision {
	stamp := effective.Truncate(Resolution)
	if current == nil {
		return Decision{Render: true, Stamp: stamp}
	}
	return Decision{Render: !current.Truncate(Resolution).Equal(stamp), Stamp: stamp}
}

// Inputs are the timestamps a rendered file depends on. Zero values are
// ignored.
type Inputs struct {
	Current    time.Time
	Parent     time.Time
	Settings   time.Time
	Deleted    time.Time
	Navigation time.Time
	Media      []time.Time
	Links      []time.Time
}

// epoch stands in for an effective mtime when no input carries one, so the
// stamp stays stable across runs.
var epoch = time.Unix(0, 0)

// Effective returns the latest of all inputs.
func Effective(in Inputs) time.Time {
	latest := Latest(in.Current, in.Parent, in.Settings, in.Deleted, in.Navigation)
	latest = Latest(latest, Latest(in.Media...), Latest(in.Links...))
	if latest.IsZero() {
		return epoch
	}
	return latest
}

// Latest returns the maximum of ts, or the zero time.
func Latest(ts ...time.Time) time.Time {
	var out time.Time
	for _, t := range ts {
		if t.After(out) {
			out = t
		}
	}
	return out
}

// MtimeReader reports the mtime of the cached copy of a relpath, live or
// shadow.
type MtimeReader interface {
	GetMtime(relpath string) *time.Time
}

// Policy applies Decide against a cache.
type Policy struct {
	cache MtimeReader
}

// NewPolicy creates a policy reading mtimes from cache.
func NewPolicy(cache MtimeReader) *Policy {
	return &Policy{cache: cache}
}

// Check decides whether relpath must be rendered for the given effective
// mtime.
func (p *Policy) Check(relpath string, effective time.Time) Decision {
	return Decide(p.cache.GetMtime(relpath), effective)
}
