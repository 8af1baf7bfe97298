package assets

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notebookService/internal/apperr"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	s.now = func() time.Time { return time.UnixMilli(1700000000123) }
	return s
}

func countFiles(t *testing.T, root string) int {
	t.Helper()
	n := 0
	err := filepath.Walk(root, func(_ string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			n++
		}
		return err
	})
	require.NoError(t, err)
	return n
}

func TestSaveImage_SizeBoundary(t *testing.T) {
	s := newTestStore(t)

	rel, err := s.SaveImage(NoteIconDir, Image{Filename: "a.png", Size: -1, Body: bytes.NewReader(make([]byte, MaxImageBytes))})
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^note-icon/[A-Za-z0-9]{24}-1700000000123\.png$`), rel)

	_, err = s.SaveImage(NoteIconDir, Image{Filename: "b.png", Size: -1, Body: bytes.NewReader(make([]byte, MaxImageBytes+1))})
	assert.True(t, apperr.Is(err, apperr.KindPayloadTooLarge), "got %v", err)

	_, err = s.SaveImage(NoteIconDir, Image{Filename: "c.png", Size: MaxImageBytes + 1, Body: strings.NewReader("")})
	assert.True(t, apperr.Is(err, apperr.KindPayloadTooLarge), "got %v", err)

	// Only the accepted upload remains on disk.
	assert.Equal(t, 1, countFiles(t, s.root))
}

func TestSaveImage_Extensions(t *testing.T) {
	s := newTestStore(t)

	_, err := s.SaveImage(NoteIconDir, Image{Filename: "x.bmp", Size: 3, Body: strings.NewReader("bmp")})
	assert.True(t, apperr.Is(err, apperr.KindUnsupportedMediaType), "got %v", err)

	rel, err := s.SaveImage(ProfilePictureDir, Image{Filename: "ME.PNG", Size: 3, Body: strings.NewReader("png")})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rel, ProfilePictureDir+"/"))
	assert.True(t, strings.HasSuffix(rel, ".png"))

	for _, name := range []string{"a.jpg", "a.JPEG", "a.gif"} {
		_, err := ImageExtension(name)
		assert.NoError(t, err, name)
	}
	_, err = ImageExtension("noext")
	assert.Error(t, err)
}

func TestOpenDelete(t *testing.T) {
	s := newTestStore(t)
	rel, err := s.Save(NoteIconDir, ".gif", strings.NewReader("GIF89a"))
	require.NoError(t, err)

	f, err := s.Open(rel)
	require.NoError(t, err)
	body, err := io.ReadAll(f)
	require.NoError(t, f.Close())
	require.NoError(t, err)
	assert.Equal(t, "GIF89a", string(body))

	require.NoError(t, s.Delete(rel))
	require.NoError(t, s.Delete(rel), "deleting a missing file is tolerated")
	require.NoError(t, s.Delete(""))

	_, err = s.Open(rel)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestResolveStaysInsideRoot(t *testing.T) {
	s := newTestStore(t)
	full, err := s.resolve("../../etc/passwd")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(full, s.root))

	_, err = s.resolve("..")
	assert.Error(t, err)
}

func TestNamesAreUnique(t *testing.T) {
	s := newTestStore(t)
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		n, err := s.newName(".png")
		require.NoError(t, err)
		require.False(t, seen[n], "duplicate name %s", n)
		seen[n] = true
	}
}
