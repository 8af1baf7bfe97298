// Package assets stores uploaded images (note icons, profile pictures) in a
// local directory and hands back paths relative to that directory.
package assets

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"notebookService/internal/apperr"
)

// MaxImageBytes is the largest accepted upload.
const MaxImageBytes = 2_000_000

// Directories under the store root.
const (
	NoteIconDir       = "note-icon"
	ProfilePictureDir = "profile-picture"
)

const nameAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

var allowedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
}

// Image is an uploaded file. Size is -1 when unknown.
type Image struct {
	Filename string
	Size     int64
	Body     io.Reader
}

// Store is a directory-backed asset store.
type Store struct {
	root string
	now  func() time.Time
}

// NewStore creates root if needed.
func NewStore(root string) (*Store, error) {
	if root == "" {
		root = "uploads"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{root: root, now: time.Now}, nil
}

// SaveImage validates img and stores it under dir with a fresh name.
func (s *Store) SaveImage(dir string, img Image) (string, error) {
	if img.Size > MaxImageBytes {
		return "", apperr.PayloadTooLarge("File larger than 2MB")
	}
	ext, err := ImageExtension(img.Filename)
	if err != nil {
		return "", err
	}
	return s.Save(dir, ext, img.Body)
}

// ImageExtension returns the lower-cased extension of filename when it is an
// accepted image type.
func ImageExtension(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return "", apperr.UnsupportedMediaType("File type not supported")
	}
	return ext, nil
}

// Save streams r into dir under a generated name and returns the relative path.
// Bodies over MaxImageBytes are rejected and nothing is kept.
func (s *Store) Save(dir, ext string, r io.Reader) (string, error) {
	name, err := s.newName(ext)
	if err != nil {
		return "", apperr.Internal(err, "generate file name")
	}
	rel := path.Join(dir, name)
	full, err := s.resolve(rel)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", apperr.Internal(err, "create asset dir")
	}
	f, err := os.OpenFile(full, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", apperr.Internal(err, "create asset")
	}
	n, err := io.Copy(f, io.LimitReader(r, MaxImageBytes+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(full)
		return "", apperr.Internal(err, "write asset")
	}
	if n > MaxImageBytes {
		_ = os.Remove(full)
		return "", apperr.PayloadTooLarge("File larger than 2MB")
	}
	return rel, nil
}

// Delete removes the asset at rel. A missing file is not an error.
func (s *Store) Delete(rel string) error {
	if rel == "" {
		return nil
	}
	full, err := s.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return apperr.Internal(err, "delete asset")
	}
	return nil
}

// Open opens the asset at rel for reading.
func (s *Store) Open(rel string) (*os.File, error) {
	full, err := s.resolve(rel)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil, apperr.NotFound("File not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "open asset")
	}
	return f, nil
}

// resolve maps a relative asset path into the root, refusing escapes.
func (s *Store) resolve(rel string) (string, error) {
	clean := path.Clean("/" + filepath.ToSlash(rel))
	if clean == "/" {
		return "", apperr.Validation("Invalid file path")
	}
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

// newName returns <24 random alphanumerics>-<unix millis><ext>.
func (s *Store) newName(ext string) (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = nameAlphabet[int(b)%len(nameAlphabet)]
	}
	return string(buf) + "-" + strconv.FormatInt(s.now().UnixMilli(), 10) + ext, nil
}
