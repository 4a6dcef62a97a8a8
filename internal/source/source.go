// Package source fetches raw statement bytes for the importer. Exports live
// either on local disk or in a Cloud Storage bucket (gs:// URIs).
package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
)

// Resolver fetches statement bytes from a local path or a gs:// URI.
type Resolver struct{}

// New creates a statement resolver.
func New() *Resolver {
	return &Resolver{}
}

// Fetch returns the statement bytes behind path.
func (r *Resolver) Fetch(ctx context.Context, path string) ([]byte, error) {
	if strings.HasPrefix(path, "gs://") {
		return fetchFromGCS(ctx, path)
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("csv file not found: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("Fetch: reading file %q: %w", path, err)
	}
	return data, nil
}

// splitGCSURI splits "gs://bucket/path/to/file.csv" into bucket and object.
func splitGCSURI(uri string) (bucket, object string, err error) {
	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}
	return parts[0], parts[1], nil
}

// fetchFromGCS downloads the object bytes behind a gs:// URI. It assumes
// Application Default Credentials are configured.
func fetchFromGCS(ctx context.Context, uri string) ([]byte, error) {
	bucket, object, err := splitGCSURI(uri)
	if err != nil {
		return nil, err
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetchFromGCS: creating storage client: %w", err)
	}
	defer client.Close()

	rc, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetchFromGCS: reading object %s/%s: %w", bucket, object, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("fetchFromGCS: reading bytes: %w", err)
	}
	return data, nil
}
