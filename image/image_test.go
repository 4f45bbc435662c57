package image

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/webgrab/webgrab/fetch"
	"github.com/webgrab/webgrab/store"
)

func TestFilename(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{"https://example.com/image.jpg", "image.jpg"},
		{"https://example.com/path/to/image.jpg", "image.jpg"},
		{"https://example.com/many/dir/path/to/image.jpg?size=large", "image.jpg"},
		{"https://example.com", "image"},
	}

	for _, test := range tests {
		t.Run(test.url, func(t *testing.T) {
			img := Image{URL: test.url}
			if name := img.Filename(); name != test.expected {
				t.Errorf("Filename() = %q, want %q", name, test.expected)
			}
		})
	}
}

func TestFilepath(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{"https://example.com/image.jpg", "image.jpg"},
		{"https://example.com/path/to/image.jpg", "path/to/image.jpg"},
		{"https://example.com/many/dir/path/to/image.jpg?size=large", "many/dir/path/to/image.jpg"},
	}

	for _, test := range tests {
		t.Run(test.url, func(t *testing.T) {
			img := Image{URL: test.url}
			if p := img.Filepath(); p != test.expected {
				t.Errorf("Filepath() = %q, want %q", p, test.expected)
			}
		})
	}
}

func TestSave(t *testing.T) {
	payload := []byte{0xFF, 0xD8, 0xFF, 0xE0}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(payload)
	}))
	defer server.Close()

	dir := t.TempDir()
	f := fetch.NewFetcher(fetch.Options{})
	fs := store.NewFileStore(dir)

	img := Image{Alt: "a", URL: server.URL + "/path/to/pic.jpg"}

	savedPath, err := img.Save(f, fs, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if savedPath != filepath.Join(dir, "path", "to", "pic.jpg") {
		t.Errorf("unexpected path: %s", savedPath)
	}
	if img.LocalPath != savedPath {
		t.Errorf("LocalPath not recorded: %s", img.LocalPath)
	}

	content, err := os.ReadFile(savedPath)
	if err != nil {
		t.Fatalf("failed to read saved image: %v", err)
	}
	if string(content) != string(payload) {
		t.Error("saved content does not match the downloaded bytes")
	}
}

func TestSaveFlatten(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("img"))
	}))
	defer server.Close()

	dir := t.TempDir()
	f := fetch.NewFetcher(fetch.Options{})
	fs := store.NewFileStore(dir)

	img := Image{URL: server.URL + "/deep/nested/pic.png"}

	savedPath, err := img.Save(f, fs, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if savedPath != filepath.Join(dir, "pic.png") {
		t.Errorf("unexpected path: %s", savedPath)
	}
}

func TestSaveSkipsExisting(t *testing.T) {
	var requests int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte("fresh"))
	}))
	defer server.Close()

	dir := t.TempDir()
	f := fetch.NewFetcher(fetch.Options{})
	fs := store.NewFileStore(dir)

	if _, err := fs.WriteBinary("img/pic.png", []byte("existing")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	img := Image{URL: server.URL + "/img/pic.png"}

	savedPath, err := img.Save(f, fs, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if requests != 0 {
		t.Errorf("expected no download for an existing file, got %d requests", requests)
	}
	if savedPath != filepath.Join(dir, "img", "pic.png") {
		t.Errorf("unexpected path: %s", savedPath)
	}
	if img.LocalPath != savedPath {
		t.Errorf("LocalPath not recorded: %s", img.LocalPath)
	}

	content, err := os.ReadFile(savedPath)
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}
	if string(content) != "existing" {
		t.Error("existing file should not have been overwritten")
	}
}

func TestSaveDownloadFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	f := fetch.NewFetcher(fetch.Options{})
	fs := store.NewFileStore(t.TempDir())

	img := Image{URL: server.URL + "/missing.png"}

	if _, err := img.Save(f, fs, false); err == nil {
		t.Fatal("expected an error for a 404 image")
	}
	if img.LocalPath != "" {
		t.Errorf("LocalPath should stay empty on failure, got %s", img.LocalPath)
	}
}
