// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// store.go owns the on-disk mirror of the published site under the cache
// root. Every published file is recorded in memory during a run and the
// list is written to the index file (.cache) once the run completes. An
// invalidated file keeps its bytes and mtime under a "shadow" name (the
// basename prefixed with a dot) so the front web server stops serving it
// while a later publish can restore it by rename instead of re-rendering.

package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// IndexFile is the name of the index file at the cache root. Its presence
// means the cache holds a complete publish.
const IndexFile = ".cache"

var (
	// ErrCacheIO wraps unrecoverable filesystem errors while adding a file.
	ErrCacheIO = errors.New("cache io")

	// ErrReservedName is returned for relpaths whose basename starts with a
	// dot. Those names are reserved for shadows and the index.
	ErrReservedName = errors.New("reserved cache file name")
)

// Changed tells Add whether the content must be written.
type Changed int

const (
	// ChangedAuto compares the requested mtime with the one on disk.
	ChangedAuto Changed = iota
	// ChangedYes always writes the content.
	ChangedYes
	// ChangedNo never writes; a shadow is restored to its live name.
	ChangedNo
)

// Minifier transforms rendered content before it is written. Failures are
// logged and the original content is written instead.
type Minifier func(content string) (string, error)

// Store manages the static file mirror under a cache root.
type Store struct {
	root     string
	minifier Minifier

	mu        sync.Mutex
	relpaths  []string
	written   []string
	totalSize int64
}

// NewStore creates a store rooted at root. The directory is created on the
// first write.
func NewStore(root string) *Store {
	return &Store{root: filepath.Clean(root)}
}

// SetMinifier configures the minifier hook used by Add.
func (s *Store) SetMinifier(m Minifier) {
	s.minifier = m
}

// Root returns the cache root directory.
func (s *Store) Root() string {
	return s.root
}

// Add records relpath as part of the current publish and writes content
// when it changed. A nil mtime means now. It returns the size of the live
// file and whether bytes were written.
func (s *Store) Add(relpath string, mtime *time.Time, changed Changed, content []byte, minify bool) (int64, bool, error) {
	relpath, err := cleanRelPath(relpath)
	if err != nil {
		return 0, false, err
	}

	stamp := time.Now()
	if mtime != nil {
		stamp = *mtime
	}

	live := s.abs(relpath)
	shadow := s.abs(ShadowPath(relpath))

	write := changed == ChangedYes
	if changed == ChangedAuto {
		current := s.GetMtime(relpath)
		write = current == nil || !current.Equal(stamp)
	}

	if write {
		if err := s.writeFile(live, relpath, content, minify, stamp); err != nil {
			return 0, false, err
		}
		if err := os.Remove(shadow); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return 0, false, fmt.Errorf("%w: remove shadow %s: %v", ErrCacheIO, relpath, err)
		}
	} else if !exists(live) {
		if !exists(shadow) {
			return 0, false, fmt.Errorf("%w: %s has no cached copy", ErrCacheIO, relpath)
		}
		if err := os.Rename(shadow, live); err != nil {
			return 0, false, fmt.Errorf("%w: restore %s: %v", ErrCacheIO, relpath, err)
		}
		slog.Debug("cache file restored from shadow", "path", relpath)
	}

	info, err := os.Stat(live)
	if err != nil {
		return 0, false, fmt.Errorf("%w: stat %s: %v", ErrCacheIO, relpath, err)
	}

	s.mu.Lock()
	s.relpaths = append(s.relpaths, relpath)
	s.totalSize += info.Size()
	if write {
		s.written = append(s.written, relpath)
	}
	s.mu.Unlock()

	return info.Size(), write, nil
}

// writeFile writes content through a temporary file in the target
// directory and renames it into place, then stamps the mtime.
func (s *Store) writeFile(live, relpath string, content []byte, minify bool, stamp time.Time) error {
	if minify && s.minifier != nil {
		out, err := s.minifier(string(content))
		if err != nil {
			slog.Warn("minifier failed, writing original content", "path", relpath, "error", err)
		} else {
			content = []byte(out)
		}
	}

	dir := filepath.Dir(live)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: mkdir %s: %v", ErrCacheIO, relpath, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrCacheIO, relpath, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write %s: %v", ErrCacheIO, relpath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", ErrCacheIO, relpath, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("%w: chmod %s: %v", ErrCacheIO, relpath, err)
	}
	if err := os.Rename(tmpName, live); err != nil {
		return fmt.Errorf("%w: rename %s: %v", ErrCacheIO, relpath, err)
	}
	if err := os.Chtimes(live, stamp, stamp); err != nil {
		return fmt.Errorf("%w: chtimes %s: %v", ErrCacheIO, relpath, err)
	}
	return nil
}

// GetMtime returns the mtime of the live file, else of its shadow, else nil.
func (s *Store) GetMtime(relpath string) *time.Time {
	relpath, err := cleanRelPath(relpath)
	if err != nil {
		return nil
	}
	for _, p := range []string{relpath, ShadowPath(relpath)} {
		if info, err := os.Stat(s.abs(p)); err == nil && info.Mode().IsRegular() {
			t := info.ModTime()
			return &t
		}
	}
	return nil
}

// Read returns the cached bytes of relpath from the live file, else from
// its shadow. A relpath with no cached copy yields an error wrapping
// fs.ErrNotExist.
func (s *Store) Read(relpath string) ([]byte, error) {
	relpath, err := cleanRelPath(relpath)
	if err != nil {
		return nil, err
	}
	body, err := os.ReadFile(s.abs(relpath))
	if errors.Is(err, fs.ErrNotExist) {
		body, err = os.ReadFile(s.abs(ShadowPath(relpath)))
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", relpath, err)
	}
	return body, nil
}

// Index returns the relpaths recorded so far, deduplicated and sorted by
// descending length. Ties keep insertion order.
func (s *Store) Index() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SortIndex(s.relpaths)
}

// Written returns the relpaths whose bytes were written in this run.
func (s *Store) Written() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.written))
	copy(out, s.written)
	return out
}

// Items returns the number of distinct relpaths recorded.
func (s *Store) Items() int {
	return len(s.Index())
}

// TotalSize returns the sum of the sizes of all added files.
func (s *Store) TotalSize() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalSize
}

// Reset forgets everything recorded in memory. Call at the start of a run.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.relpaths = nil
	s.written = nil
	s.totalSize = 0
}

// SetIndex replaces the recorded relpaths with list and writes the index.
func (s *Store) SetIndex(list []string) {
	s.mu.Lock()
	s.relpaths = append([]string(nil), list...)
	s.mu.Unlock()
	s.WriteIndex()
}

// WriteIndex writes the recorded relpaths to the index file. Failures are
// logged and leave the cache in the "publish required" state.
func (s *Store) WriteIndex() {
	paths := s.Index()
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		slog.Warn("cache index write failed", "root", s.root, "error", err)
		return
	}

	tmp, err := os.CreateTemp(s.root, ".cache-*")
	if err != nil {
		slog.Warn("cache index write failed", "root", s.root, "error", err)
		return
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(strings.Join(paths, "\n")); err != nil {
		tmp.Close()
		slog.Warn("cache index write failed", "root", s.root, "error", err)
		return
	}
	if err := tmp.Close(); err != nil {
		slog.Warn("cache index write failed", "root", s.root, "error", err)
		return
	}
	if err := os.Rename(tmpName, s.indexPath()); err != nil {
		slog.Warn("cache index write failed", "root", s.root, "error", err)
		return
	}
	slog.Debug("cache index written", "entries", len(paths))
}

// ReadIndex returns the relpaths stored in the index file. A missing or
// unreadable index yields an empty list.
func (s *Store) ReadIndex() []string {
	data, err := os.ReadFile(s.indexPath())
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("cache index read failed", "root", s.root, "error", err)
		}
		return nil
	}
	var out []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// ClearIndex removes the index file. It is idempotent.
func (s *Store) ClearIndex() {
	if err := os.Remove(s.indexPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("cache index remove failed", "root", s.root, "error", err)
	}
}

// PublishRequired reports whether no complete publish is on disk.
func (s *Store) PublishRequired() bool {
	return !exists(s.indexPath())
}

// Invalidate renames every indexed live file to its shadow and removes the
// index. Cached bytes survive under the shadow names.
func (s *Store) Invalidate() (int, error) {
	var (
		renamed int
		errs    []error
	)
	for _, relpath := range s.ReadIndex() {
		relpath, err := cleanRelPath(relpath)
		if err != nil {
			continue
		}
		live := s.abs(relpath)
		if !exists(live) {
			continue
		}
		if err := os.Rename(live, s.abs(ShadowPath(relpath))); err != nil {
			slog.Warn("cache invalidate rename failed", "path", relpath, "error", err)
			errs = append(errs, err)
			continue
		}
		renamed++
	}
	s.ClearIndex()
	slog.Info("cache invalidated", "files", renamed)
	return renamed, errors.Join(errs...)
}

// Clear deletes every cached file and the index, then prunes empty
// directories.
func (s *Store) Clear() (int, error) {
	removed, err := s.removeUnless(func(string) bool { return false })
	s.ClearIndex()
	slog.Info("cache cleared", "files", len(removed))
	return len(removed), err
}

// Cleanup deletes every file that is not in retain, then prunes empty
// directories. It returns the logical relpaths that left the cache, with
// shadows reported under their live name, sorted and deduplicated.
// Removal failures are logged and returned joined; the files that could be
// removed are gone regardless.
func (s *Store) Cleanup(retain []string) ([]string, error) {
	keep := make(map[string]bool, len(retain))
	for _, p := range retain {
		keep[p] = true
	}
	removed, err := s.removeUnless(func(rel string) bool { return keep[rel] })
	seen := make(map[string]bool, len(removed))
	var gone []string
	for _, rel := range removed {
		rel = LivePath(rel)
		if keep[rel] || seen[rel] {
			continue
		}
		seen[rel] = true
		gone = append(gone, rel)
	}
	sort.Strings(gone)
	if len(removed) > 0 {
		slog.Info("cache cleanup removed obsolete files", "files", len(removed), "entries", len(gone))
	}
	return gone, err
}

func (s *Store) removeUnless(keep func(rel string) bool) ([]string, error) {
	var (
		removed []string
		errs    []error
		dirs    []string
	)
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			if p != s.root {
				dirs = append(dirs, p)
			}
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == IndexFile || keep(rel) {
			return nil
		}
		if err := os.Remove(p); err != nil {
			slog.Warn("cache file remove failed", "path", rel, "error", err)
			errs = append(errs, err)
			return nil
		}
		removed = append(removed, rel)
		return nil
	})
	if err != nil {
		errs = append(errs, err)
	}
	pruneEmptyDirs(dirs)
	return removed, errors.Join(errs...)
}

// pruneEmptyDirs removes empty directories deepest first.
func pruneEmptyDirs(dirs []string) {
	sort.SliceStable(dirs, func(i, j int) bool { return len(dirs[i]) > len(dirs[j]) })
	for _, d := range dirs {
		entries, err := os.ReadDir(d)
		if err != nil || len(entries) > 0 {
			continue
		}
		if err := os.Remove(d); err != nil {
			slog.Warn("cache directory remove failed", "dir", d, "error", err)
		}
	}
}

// Path returns the absolute path of the live file for relpath.
func (s *Store) Path(relpath string) string {
	return s.abs(relpath)
}

func (s *Store) abs(relpath string) string {
	return filepath.Join(s.root, filepath.FromSlash(relpath))
}

func (s *Store) indexPath() string {
	return filepath.Join(s.root, IndexFile)
}

// ShadowPath returns the invalidated shadow relpath for relpath:
// "d/name" becomes "d/.name".
func ShadowPath(relpath string) string {
	dir, name := path.Split(relpath)
	return dir + "." + name
}

// LivePath is the inverse of ShadowPath: "d/.name" becomes "d/name". Other
// relpaths are returned unchanged.
func LivePath(relpath string) string {
	dir, name := path.Split(relpath)
	if len(name) < 2 || name[0] != '.' {
		return relpath
	}
	return dir + name[1:]
}

// SortIndex deduplicates list and sorts it by descending length, keeping
// insertion order for equal lengths.
func SortIndex(list []string) []string {
	seen := make(map[string]bool, len(list))
	out := make([]string, 0, len(list))
	for _, p := range list {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}

// cleanRelPath normalizes a relpath to forward slashes without a leading
// slash and rejects escapes and reserved basenames.
func cleanRelPath(relpath string) (string, error) {
	p := path.Clean("/" + strings.ReplaceAll(relpath, "\\", "/"))
	p = strings.TrimPrefix(p, "/")
	if p == "" || p == "." {
		return "", fmt.Errorf("%w: empty path", ErrReservedName)
	}
	if strings.HasPrefix(path.Base(p), ".") {
		return "", fmt.Errorf("%w: %s", ErrReservedName, relpath)
	}
	return p, nil
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
