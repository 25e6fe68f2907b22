// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package linkrewrite

import (
	"context"
	"strings"
	"testing"

	"staticpress/internal/hooks"
)

func TestRewrite(t *testing.T) {
	r := New("https://example.com")
	env := hooks.PublishEnvironment("/about/")

	tests := []struct {
		name     string
		in       string
		contains []string
		absent   []string
	}{
		{
			name:     "current page link",
			in:       `<nav><a href="/about/">About</a><a href="/blog/">Blog</a></nav>`,
			contains: []string{`<a href="/about/" aria-current="page">About</a>`, `<a href="/blog/">Blog</a>`},
		},
		{
			name:     "current page without slash",
			in:       `<a href="/about#team">Team</a>`,
			contains: []string{`aria-current="page"`},
		},
		{
			name:     "external link",
			in:       `<a href="https://other.org/x">x</a>`,
			contains: []string{`rel="noopener noreferrer"`},
		},
		{
			name:   "own host is internal",
			in:     `<a href="https://example.com/blog/">blog</a>`,
			absent: []string{"rel="},
		},
		{
			name:     "existing rel kept",
			in:       `<a href="https://other.org/" rel="me">me</a>`,
			contains: []string{`rel="me"`},
			absent:   []string{"noopener"},
		},
		{
			name:     "mailto untouched",
			in:       `<a href="mailto:hi@example.com">mail</a>`,
			absent:   []string{"rel=", "aria-current"},
			contains: []string{"mailto:hi@example.com"},
		},
		{
			name:     "content images lazy",
			in:       `<main><img src="/a.png"><img src="/b.png" loading="eager"></main><header><img src="/logo.png"></header>`,
			contains: []string{`<img src="/a.png" loading="lazy"/>`, `loading="eager"`, `<img src="/logo.png"/>`},
		},
		{
			name:     "full document kept",
			in:       "<!doctype html><html><head><title>t</title></head><body><a href=\"/about/\">a</a></body></html>",
			contains: []string{"<!DOCTYPE html>", "<title>t</title>", `aria-current="page"`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := r.Rewrite(context.Background(), env, []byte(tt.in))
			if err != nil {
				t.Fatalf("Rewrite: %v", err)
			}
			got := string(out)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("output %q missing %q", got, want)
				}
			}
			for _, bad := range tt.absent {
				if strings.Contains(got, bad) {
					t.Errorf("output %q contains %q", got, bad)
				}
			}
			if strings.Contains(got, "<body>") && !strings.Contains(tt.in, "<body>") {
				t.Errorf("fragment wrapped in body: %q", got)
			}
		})
	}
}

func TestRewritePlainText(t *testing.T) {
	r := New("")
	in := []byte("just text")
	out, _ := r.Rewrite(context.Background(), hooks.PublishEnvironment("/"), in)
	if string(out) != "just text" {
		t.Errorf("plain text changed: %q", out)
	}
}

func TestRegister(t *testing.T) {
	reg := hooks.NewRegistry()
	New("https://example.com").Register(reg)
	out, err := reg.RenderContent(context.Background(), hooks.PublishEnvironment("/x/"), []byte(`<a href="/x/">x</a>`))
	if err != nil || !strings.Contains(string(out), "aria-current") {
		t.Errorf("RenderContent = %q, %v", out, err)
	}
}
