package docs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// Result describes one finished download
type Result struct {
	Document Document
	Path     string
	Bytes    int64
}

// Download fetches doc from baseURL into dir. The file is written under a
// temporary name and renamed once complete.
func Download(ctx context.Context, client *http.Client, baseURL string, doc Document, dir string) (*Result, error) {
	if client == nil {
		client = http.DefaultClient
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, doc.URL(baseURL), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", doc.FileName(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading %s: server returned status %d", doc.FileName(), resp.StatusCode)
	}

	tmp, err := os.CreateTemp(dir, "."+doc.FileName()+"-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, resp.Body)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("downloading %s: %w", doc.FileName(), err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to close temporary file: %w", err)
	}

	dest := filepath.Join(dir, doc.FileName())
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return nil, fmt.Errorf("failed to move download into place: %w", err)
	}

	return &Result{Document: doc, Path: dest, Bytes: n}, nil
}

// DownloadAll downloads documents concurrently. Results keep the order of
// documents; the first error cancels the remaining downloads.
func DownloadAll(ctx context.Context, client *http.Client, baseURL string, documents []Document, dir string) ([]Result, error) {
	results := make([]Result, len(documents))

	g, ctx := errgroup.WithContext(ctx)
	for i, doc := range documents {
		i, doc := i, doc
		g.Go(func() error {
			res, err := Download(ctx, client, baseURL, doc, dir)
			if err != nil {
				return err
			}
			results[i] = *res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
