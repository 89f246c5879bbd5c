package storage

import (
	"errors"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"
)

func newTestBucket(t *testing.T) *Bucket {
	t.Helper()
	b, err := NewBucket(t.TempDir(), []byte("test-secret"))
	if err != nil {
		t.Fatalf("NewBucket failed: %v", err)
	}
	return b
}

func TestUploadAndOpen(t *testing.T) {
	b := newTestBucket(t)

	stored, size, err := b.Upload("chat/att1/scan.png", strings.NewReader("binary stuff"))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if stored != "chat/att1/scan.png" {
		t.Errorf("Expected normalized path, got %q", stored)
	}
	if size != int64(len("binary stuff")) {
		t.Errorf("Expected size %d, got %d", len("binary stuff"), size)
	}

	r, err := b.Open(stored)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()
	data, _ := io.ReadAll(r)
	if string(data) != "binary stuff" {
		t.Errorf("Expected round-tripped content, got %q", data)
	}
}

func TestUploadRejectsEmptyPath(t *testing.T) {
	b := newTestBucket(t)

	for _, p := range []string{"", "/", "."} {
		if _, _, err := b.Upload(p, strings.NewReader("x")); !errors.Is(err, ErrBadPath) {
			t.Errorf("Expected ErrBadPath for %q, got %v", p, err)
		}
	}
}

func TestUploadClampsTraversalToRoot(t *testing.T) {
	b := newTestBucket(t)

	// Dot-dot segments cannot climb out of the bucket; the path is
	// resolved against the root.
	stored, _, err := b.Upload("../../outside.txt", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if stored != "outside.txt" {
		t.Errorf("Expected clamped path outside.txt, got %q", stored)
	}
	r, err := b.Open(stored)
	if err != nil {
		t.Fatalf("Expected the object inside the bucket: %v", err)
	}
	r.Close()
}

func TestDelete(t *testing.T) {
	b := newTestBucket(t)

	stored, _, err := b.Upload("docs/report.pdf", strings.NewReader("pdf"))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if err := b.Delete(stored); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := b.Open(stored); err == nil {
		t.Error("Expected Open to fail after Delete")
	}
}

func TestSignedURLRoundTrip(t *testing.T) {
	b := newTestBucket(t)

	signed, err := b.SignedURL("docs/report.pdf", time.Minute)
	if err != nil {
		t.Fatalf("SignedURL failed: %v", err)
	}

	u, err := url.Parse(signed)
	if err != nil {
		t.Fatalf("Signed URL does not parse: %v", err)
	}
	objectPath := strings.TrimPrefix(u.Path, "/files/")
	if objectPath != "docs/report.pdf" {
		t.Errorf("Expected object path in URL, got %q", objectPath)
	}

	q := u.Query()
	if err := b.Verify(objectPath, q.Get("expires"), q.Get("sig")); err != nil {
		t.Errorf("Expected valid signature, got %v", err)
	}
}

func TestSignedURLTamperedPath(t *testing.T) {
	b := newTestBucket(t)

	signed, _ := b.SignedURL("docs/report.pdf", time.Minute)
	u, _ := url.Parse(signed)
	q := u.Query()

	if err := b.Verify("docs/other.pdf", q.Get("expires"), q.Get("sig")); !errors.Is(err, ErrBadSig) {
		t.Errorf("Expected ErrBadSig for a different path, got %v", err)
	}
}

func TestSignedURLExpired(t *testing.T) {
	b := newTestBucket(t)

	signed, _ := b.SignedURL("docs/report.pdf", -time.Minute)
	u, _ := url.Parse(signed)
	q := u.Query()

	if err := b.Verify("docs/report.pdf", q.Get("expires"), q.Get("sig")); !errors.Is(err, ErrExpiredURL) {
		t.Errorf("Expected ErrExpiredURL, got %v", err)
	}
}

func TestSignedURLWrongSecret(t *testing.T) {
	b := newTestBucket(t)
	other, err := NewBucket(t.TempDir(), []byte("other-secret"))
	if err != nil {
		t.Fatalf("NewBucket failed: %v", err)
	}

	signed, _ := b.SignedURL("docs/report.pdf", time.Minute)
	u, _ := url.Parse(signed)
	q := u.Query()

	if err := other.Verify("docs/report.pdf", q.Get("expires"), q.Get("sig")); !errors.Is(err, ErrBadSig) {
		t.Errorf("Expected ErrBadSig with a different secret, got %v", err)
	}
}
