package content

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "profile.json"), []byte(`{"name":"Ada"}`), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	src := FileSource{Dir: dir}
	raw, err := src.Fetch(context.Background(), "profile.json")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if string(raw) != `{"name":"Ada"}` {
		t.Fatalf("unexpected content: %s", raw)
	}

	if _, err := src.Fetch(context.Background(), "missing.json"); err == nil {
		t.Fatal("expected error for a missing file")
	}
}

func TestHTTPSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/data/profile.json" {
			w.Write([]byte(`{"name":"Ada"}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	src := HTTPSource{BaseURL: server.URL + "/data"}

	raw, err := src.Fetch(context.Background(), "profile.json")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if string(raw) != `{"name":"Ada"}` {
		t.Fatalf("unexpected content: %s", raw)
	}

	if _, err := src.Fetch(context.Background(), "projects.json"); err == nil {
		t.Fatal("a non-2xx response must be an error")
	}
}
