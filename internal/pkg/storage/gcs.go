package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	gcs "cloud.google.com/go/storage"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// GCSOptions points at a service account key file. An empty path uses
// application default credentials and disables PresignGet.
type GCSOptions struct {
	CredentialsFile string
}

type GCS struct {
	client *gcs.Client

	accessID   string
	privateKey []byte
}

func NewGCS(ctx context.Context, opts GCSOptions) (*GCS, error) {
	if opts.CredentialsFile == "" {
		client, err := gcs.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("storage: gcs client: %w", err)
		}
		return &GCS{client: client}, nil
	}

	raw, err := os.ReadFile(opts.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("storage: read gcs credentials: %w", err)
	}

	creds, err := google.CredentialsFromJSON(ctx, raw, gcs.ScopeReadWrite)
	if err != nil {
		return nil, fmt.Errorf("storage: parse gcs credentials: %w", err)
	}

	// the JWT config exposes the service account email and key used for URL signing
	jwtCfg, err := google.JWTConfigFromJSON(raw, gcs.ScopeReadWrite)
	if err != nil {
		return nil, fmt.Errorf("storage: parse gcs signer: %w", err)
	}

	client, err := gcs.NewClient(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("storage: gcs client: %w", err)
	}

	return &GCS{client: client, accessID: jwtCfg.Email, privateKey: jwtCfg.PrivateKey}, nil
}

func (g *GCS) Put(ctx context.Context, bucket, key string, r io.Reader, opts PutOptions) (ObjectInfo, error) {
	if bucket == "" {
		return ObjectInfo{}, ErrBucketRequired
	}

	w := g.client.Bucket(bucket).Object(key).NewWriter(ctx)
	w.ContentType = opts.ContentType
	w.Metadata = opts.Metadata

	n, err := io.Copy(w, r)
	if err != nil {
		_ = w.Close()
		return ObjectInfo{}, err
	}
	if err := w.Close(); err != nil {
		return ObjectInfo{}, err
	}

	return ObjectInfo{Bucket: bucket, Key: key, Size: n, ETag: w.Attrs().Etag}, nil
}

func (g *GCS) Delete(ctx context.Context, bucket, key string) error {
	return g.client.Bucket(bucket).Object(key).Delete(ctx)
}

func (g *GCS) PresignGet(_ context.Context, bucket, key string, expiry time.Duration) (string, error) {
	if g.accessID == "" || len(g.privateKey) == 0 {
		return "", ErrMissingSigner
	}

	return gcs.SignedURL(bucket, key, &gcs.SignedURLOptions{
		GoogleAccessID: g.accessID,
		PrivateKey:     g.privateKey,
		Method:         http.MethodGet,
		Expires:        time.Now().Add(expiry),
		Scheme:         gcs.SigningSchemeV4,
	})
}

func (g *GCS) Close() error { return g.client.Close() }
