package content

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// Source fetches one static default-content file by name. A failed fetch for
// one file never affects the others; the loader falls back to the zero value
// for that section.
type Source interface {
	Fetch(ctx context.Context, filename string) ([]byte, error)
}

// FileSource reads default content from a directory on disk. This is the
// deployment default: the shipped data files sit next to the binary.
type FileSource struct {
	Dir string
}

func (s FileSource) Fetch(_ context.Context, filename string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.Dir, filename))
}

// HTTPSource pulls default content from a remote base URL, for setups where
// the static files live on a CDN or a separate asset host.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

func (s HTTPSource) Fetch(ctx context.Context, filename string) ([]byte, error) {
	target, err := url.JoinPath(s.BaseURL, filename)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}

	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", filename, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
