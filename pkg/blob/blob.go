// Package blob defines the Blob Port (§6) and a local-filesystem
// implementation, the only backend in this module; cmd/docverify-service
// wires it in when BLOB_ENABLED is true and runs with no blob port
// otherwise. Durable archival proper is an external collaborator out of
// this engine's scope.
package blob

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	sharederrors "github.com/merchantiq/docverify/pkg/shared/errors"
)

// Port is the Job Intake and pipeline's binary-object dependency.
type Port interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Download(ctx context.Context, key, localPath string) (bool, error)
	Delete(ctx context.Context, key string) (bool, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// ContentType derives a MIME type from filename's extension per §6.
func ContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".tif", ".tiff":
		return "image/tiff"
	default:
		return "application/octet-stream"
	}
}

// LocalPort implements Port against a directory on the local filesystem.
// It is the default backend when no durable object store is configured.
type LocalPort struct {
	rootDir string
}

// NewLocalPort builds a LocalPort rooted at rootDir, creating it if absent.
func NewLocalPort(rootDir string) (*LocalPort, error) {
	if err := os.MkdirAll(rootDir, 0o755); err != nil {
		return nil, sharederrors.FailedToWithDetails("create blob root directory", "blob", rootDir, err)
	}
	return &LocalPort{rootDir: rootDir}, nil
}

func (p *LocalPort) path(key string) string {
	return filepath.Join(p.rootDir, filepath.FromSlash(key))
}

// Upload writes data under key, returning a file:// URL.
func (p *LocalPort) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	dest := p.path(key)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", sharederrors.FailedToWithDetails("create blob parent directory", "blob", key, err)
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return "", sharederrors.FailedToWithDetails("upload blob", "blob", key, err)
	}
	return "file://" + dest, nil
}

// Download copies key's contents to localPath. A missing key returns
// (false, nil), matching the Blob Port's "not found" boolean contract.
func (p *LocalPort) Download(ctx context.Context, key, localPath string) (bool, error) {
	src, err := os.Open(p.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, sharederrors.FailedToWithDetails("download blob", "blob", key, err)
	}
	defer src.Close()

	dst, err := os.Create(localPath)
	if err != nil {
		return false, sharederrors.FailedToWithDetails("create download destination", "blob", localPath, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return false, sharederrors.FailedToWithDetails("copy blob", "blob", key, err)
	}
	return true, nil
}

// Delete removes key. A missing key is treated as a successful delete.
func (p *LocalPort) Delete(ctx context.Context, key string) (bool, error) {
	if err := os.Remove(p.path(key)); err != nil && !os.IsNotExist(err) {
		return false, sharederrors.FailedToWithDetails("delete blob", "blob", key, err)
	}
	return true, nil
}

// PresignedURL returns a local file:// reference; ttl is unused since the
// local backend has no expiring-link concept.
func (p *LocalPort) PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if _, err := os.Stat(p.path(key)); err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", sharederrors.FailedToWithDetails("stat blob", "blob", key, err)
	}
	return "file://" + p.path(key), nil
}
