// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package storage

import (
	"bytes"
	"context"
	"errors"
	"mime"
	"path"
)

// ErrNoSiteBucket is returned by Mirror when no site bucket is configured.
var ErrNoSiteBucket = errors.New("storage: no site bucket configured")

// Mirror copies published files into the site bucket, keyed by their
// relpath under the cache root.
type Mirror struct {
	c *Client
}

// Mirror returns the published-file mirror of the client.
func (c *Client) Mirror() (*Mirror, error) {
	if c == nil || c.siteBucket == "" {
		return nil, ErrNoSiteBucket
	}
	return &Mirror{c: c}, nil
}

// Key returns the object key of a relpath.
func (m *Mirror) Key(relpath string) string {
	return m.c.sitePrefix + relpath
}

// PutFile uploads one published file.
func (m *Mirror) PutFile(ctx context.Context, relpath string, body []byte) error {
	return m.c.Upload(ctx, m.c.siteBucket, m.Key(relpath), ContentType(relpath), bytes.NewReader(body), int64(len(body)))
}

// DeleteFile removes a file that left the published set.
func (m *Mirror) DeleteFile(ctx context.Context, relpath string) error {
	return m.c.Delete(ctx, m.c.siteBucket, m.Key(relpath))
}

// ContentType guesses the content type of a published file from its
// extension.
func ContentType(relpath string) string {
	switch ext := path.Ext(relpath); ext {
	case ".html", "":
		return "text/html; charset=utf-8"
	case ".xml":
		return "application/xml"
	default:
		if t := mime.TypeByExtension(ext); t != "" {
			return t
		}
		return "application/octet-stream"
	}
}
