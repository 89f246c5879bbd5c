// Package storage is the object store for chat attachments and
// documents: a disk-backed bucket addressed by relative path, with
// time-limited HMAC-signed download URLs.
package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var (
	ErrBadPath    = errors.New("invalid object path")
	ErrBadSig     = errors.New("invalid signature")
	ErrExpiredURL = errors.New("signed url expired")
)

type Bucket struct {
	root   string
	secret []byte
}

func NewBucket(root string, secret []byte) (*Bucket, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Bucket{root: root, secret: secret}, nil
}

// clean rejects traversal outside the bucket root.
func (b *Bucket) clean(objectPath string) (string, error) {
	p := path.Clean("/" + objectPath)
	if p == "/" || strings.Contains(p, "..") {
		return "", ErrBadPath
	}
	return filepath.Join(b.root, filepath.FromSlash(p)), nil
}

// Upload writes the object and returns its stored path.
func (b *Bucket) Upload(objectPath string, r io.Reader) (string, int64, error) {
	full, err := b.clean(objectPath)
	if err != nil {
		return "", 0, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", 0, err
	}
	f, err := os.Create(full)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()
	n, err := io.Copy(f, r)
	if err != nil {
		os.Remove(full)
		return "", 0, err
	}
	return strings.TrimPrefix(path.Clean("/"+objectPath), "/"), n, nil
}

// Open returns a reader over a stored object.
func (b *Bucket) Open(objectPath string) (io.ReadCloser, error) {
	full, err := b.clean(objectPath)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

func (b *Bucket) Delete(objectPath string) error {
	full, err := b.clean(objectPath)
	if err != nil {
		return err
	}
	return os.Remove(full)
}

// SignedURL returns a relative download URL valid until now+ttl.
func (b *Bucket) SignedURL(objectPath string, ttl time.Duration) (string, error) {
	p := strings.TrimPrefix(path.Clean("/"+objectPath), "/")
	if p == "" || strings.Contains(p, "..") {
		return "", ErrBadPath
	}
	expires := time.Now().Add(ttl).Unix()
	sig := b.sign(p, expires)
	return fmt.Sprintf("/files/%s?expires=%d&sig=%s", p, expires, url.QueryEscape(sig)), nil
}

// Verify checks a signed URL's path, expiry and signature.
func (b *Bucket) Verify(objectPath, expiresStr, sig string) error {
	expires, err := strconv.ParseInt(expiresStr, 10, 64)
	if err != nil {
		return ErrBadSig
	}
	if time.Now().Unix() > expires {
		return ErrExpiredURL
	}
	expected := b.sign(objectPath, expires)
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return ErrBadSig
	}
	return nil
}

func (b *Bucket) sign(objectPath string, expires int64) string {
	mac := hmac.New(sha256.New, b.secret)
	fmt.Fprintf(mac, "%s|%d", objectPath, expires)
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
