// Package proof turns stored proof-of-payment references into links a
// dashboard can open.
package proof

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// Signer resolves a proof reference to a URL.
type Signer interface {
	URL(ctx context.Context, ref string) (string, error)
}

// Passthrough returns references unchanged. It is used when no proof bucket
// is configured.
type Passthrough struct{}

func (Passthrough) URL(_ context.Context, ref string) (string, error) {
	return ref, nil
}

// GCSSigner issues short-lived V4 signed GET URLs for objects in one bucket.
type GCSSigner struct {
	client *storage.Client
	bucket string
	ttl    time.Duration
	now    func() time.Time
}

func NewGCSSigner(ctx context.Context, bucket string, ttl time.Duration, credentialsFile string) (*GCSSigner, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	return &GCSSigner{client: client, bucket: bucket, ttl: ttl, now: time.Now}, nil
}

func (s *GCSSigner) Close() error {
	return s.client.Close()
}

// URL signs ref when it names an object in the configured bucket. Absolute
// http(s) references and empty references are returned as they are.
func (s *GCSSigner) URL(_ context.Context, ref string) (string, error) {
	object, ok := ObjectName(ref, s.bucket)
	if !ok {
		return ref, nil
	}
	u, err := s.client.Bucket(s.bucket).SignedURL(object, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: s.now().Add(s.ttl),
	})
	if err != nil {
		return "", fmt.Errorf("sign %s: %w", object, err)
	}
	return u, nil
}

// ObjectName extracts the object path of ref inside bucket. It accepts
// "gs://bucket/path" and bare "path" references.
func ObjectName(ref, bucket string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return "", false
	}
	if strings.HasPrefix(ref, "gs://") {
		rest := strings.TrimPrefix(ref, "gs://")
		b, obj, ok := strings.Cut(rest, "/")
		if !ok || b != bucket || obj == "" {
			return "", false
		}
		return obj, true
	}
	return strings.TrimPrefix(ref, "/"), true
}
