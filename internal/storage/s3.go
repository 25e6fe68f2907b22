// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage provides an S3-compatible object storage client. Media
// referenced from content slots live in the media bucket and are served
// from their public URL; published files can be mirrored into a site
// bucket behind a CDN. Path-style access is used (required by CEPH/Hetzner).
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// Options configures a Client.
type Options struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	// MediaBucket holds uploaded media. Its objects are public.
	MediaBucket string
	// PublicURL is an optional CDN or direct URL for the media bucket.
	PublicURL string
	// SiteBucket receives mirrored published files. Empty disables the mirror.
	SiteBucket string
	// SitePrefix is prepended to mirrored object keys.
	SitePrefix string
}

// Client wraps an S3 client for media URLs and the published-file mirror.
type Client struct {
	s3          *s3.Client
	endpoint    string
	mediaBucket string
	publicURL   string
	siteBucket  string
	sitePrefix  string
}

// New creates an S3 storage client with path-style addressing. Returns
// (nil, nil) if endpoint or credentials are empty, allowing the app to
// start without storage.
func New(opts Options) (*Client, error) {
	if opts.Endpoint == "" || opts.AccessKey == "" || opts.SecretKey == "" {
		return nil, nil
	}
	if opts.MediaBucket == "" && opts.SiteBucket == "" {
		return nil, fmt.Errorf("storage: no bucket configured")
	}

	endpoint := strings.TrimRight(opts.Endpoint, "/")
	s3Client := s3.New(s3.Options{
		Region:       opts.Region,
		BaseEndpoint: aws.String(endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		UsePathStyle: true,
		// CEPH rejects the default streaming checksums.
		RequestChecksumCalculation: aws.RequestChecksumCalculationWhenRequired,
		ResponseChecksumValidation: aws.ResponseChecksumValidationWhenRequired,
	})

	prefix := strings.Trim(opts.SitePrefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &Client{
		s3:          s3Client,
		endpoint:    endpoint,
		mediaBucket: opts.MediaBucket,
		publicURL:   strings.TrimRight(opts.PublicURL, "/"),
		siteBucket:  opts.SiteBucket,
		sitePrefix:  prefix,
	}, nil
}

// Upload stores a public-read object in the specified bucket.
func (c *Client) Upload(ctx context.Context, bucket, key, contentType string, body io.Reader, size int64) error {
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		ACL:           s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return fmt.Errorf("s3 upload %s/%s: %w", bucket, key, err)
	}
	return nil
}

// Delete removes an object from the specified bucket.
func (c *Client) Delete(ctx context.Context, bucket, key string) error {
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s/%s: %w", bucket, key, err)
	}
	return nil
}

// FileURL returns the public URL of a media object. Uses the configured
// public URL if set, otherwise builds a path-style URL.
func (c *Client) FileURL(key string) string {
	key = strings.TrimLeft(key, "/")
	if c.publicURL != "" {
		return c.publicURL + "/" + key
	}
	return c.endpoint + "/" + c.mediaBucket + "/" + key
}

// ExtractS3Key extracts the media object key from a public file URL.
// Returns ("", false) if the URL doesn't belong to this storage.
func (c *Client) ExtractS3Key(rawURL string) (string, bool) {
	if c.publicURL != "" {
		if key, ok := strings.CutPrefix(rawURL, c.publicURL+"/"); ok {
			return key, true
		}
	}
	if key, ok := strings.CutPrefix(rawURL, c.endpoint+"/"+c.mediaBucket+"/"); ok {
		return key, true
	}
	return "", false
}

// MediaBucket returns the name of the media bucket.
func (c *Client) MediaBucket() string {
	return c.mediaBucket
}
