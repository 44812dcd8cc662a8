package blob

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestContentType(t *testing.T) {
	cases := map[string]string{
		"cert.pdf":     "application/pdf",
		"scan.jpg":     "image/jpeg",
		"scan.jpeg":    "image/jpeg",
		"photo.PNG":    "image/png",
		"fax.tiff":     "image/tiff",
		"unknown.xyz":  "application/octet-stream",
		"noextension":  "application/octet-stream",
	}
	for name, want := range cases {
		if got := ContentType(name); got != want {
			t.Errorf("ContentType(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestLocalPortUploadDownloadDelete(t *testing.T) {
	dir := t.TempDir()
	port, err := NewLocalPort(dir)
	if err != nil {
		t.Fatalf("NewLocalPort: %v", err)
	}
	ctx := context.Background()

	key := "documents/job-1/job-1.pdf"
	url, err := port.Upload(ctx, key, []byte("hello"), "application/pdf")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if url == "" {
		t.Error("expected non-empty URL")
	}

	downloadPath := filepath.Join(t.TempDir(), "out.pdf")
	ok, err := port.Download(ctx, key, downloadPath)
	if err != nil || !ok {
		t.Fatalf("Download: ok=%v err=%v", ok, err)
	}
	data, err := os.ReadFile(downloadPath)
	if err != nil || string(data) != "hello" {
		t.Fatalf("downloaded content = %q, err=%v", data, err)
	}

	ok, err = port.Delete(ctx, key)
	if err != nil || !ok {
		t.Fatalf("Delete: ok=%v err=%v", ok, err)
	}

	ok, err = port.Download(ctx, key, downloadPath)
	if err != nil || ok {
		t.Fatalf("expected download of deleted key to report not-found, got ok=%v err=%v", ok, err)
	}
}

func TestLocalPortDownloadMissingKey(t *testing.T) {
	dir := t.TempDir()
	port, _ := NewLocalPort(dir)
	ok, err := port.Download(context.Background(), "nope", filepath.Join(t.TempDir(), "out"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected not-found for missing key")
	}
}
