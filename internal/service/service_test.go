package service

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"notebookService/internal/apperr"
	"notebookService/internal/assets"
	"notebookService/internal/auth"
	"notebookService/internal/cache"
	"notebookService/internal/testutil"
	"notebookService/models"
	"notebookService/repository"
)

// countingNotes records store reads so tests can tell cache hits from misses.
type countingNotes struct {
	repository.NoteRepositoryI
	gets int
}

func (c *countingNotes) GetByID(ctx context.Context, id string) (*models.Note, error) {
	c.gets++
	return c.NoteRepositoryI.GetByID(ctx, id)
}

type fixture struct {
	svc       *Services
	mr        *miniredis.Miniredis
	cache     cache.Cache
	notes     *countingNotes
	users     *repository.UserRepository
	uploadDir string
	alice     *models.User
	bob       *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	c := cache.NewRedisFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = c.Close() })
	f := newFixtureWithCache(t, c)
	f.mr = mr
	return f
}

// newFixtureWithCache builds the services over c; f.mr stays nil.
func newFixtureWithCache(t *testing.T, c cache.Cache) *fixture {
	t.Helper()
	d := testutil.OpenInMemoryDB(t, "")
	dir := t.TempDir()
	store, err := assets.NewStore(dir)
	require.NoError(t, err)

	f := &fixture{
		cache:     c,
		notes:     &countingNotes{NoteRepositoryI: repository.NewNoteRepository(d)},
		users:     repository.NewUserRepository(d),
		uploadDir: dir,
	}
	f.svc = New(Deps{
		Users:      f.users,
		Notes:      f.notes,
		Sections:   repository.NewSectionRepository(d),
		Pages:      repository.NewPageRepository(d),
		Cache:      c,
		Assets:     store,
		Issuer:     auth.NewIssuer("service-secret", time.Hour),
		BcryptCost: bcrypt.MinCost,
		Logger:     zerolog.Nop(),
	})

	ctx := context.Background()
	f.alice, err = f.users.Create(ctx, &models.User{Username: "alice1", Email: "alice@example.com", PasswordHash: "x"})
	require.NoError(t, err)
	f.bob, err = f.users.Create(ctx, &models.User{Username: "bobby1", Email: "bob@example.com", PasswordHash: "x"})
	require.NoError(t, err)
	return f
}

func as(u *models.User) context.Context {
	return auth.WithPrincipal(context.Background(), &auth.Principal{Name: u.Username})
}

func str(s string) *string { return &s }

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func countFiles(t *testing.T, root string) int {
	t.Helper()
	n := 0
	require.NoError(t, filepath.Walk(root, func(_ string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			n++
		}
		return err
	}))
	return n
}

func TestNote_GroceriesScenario(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.Notes.Create(as(f.alice), NoteInput{Name: str("Groceries")})
	require.NoError(t, err)
	assert.Equal(t, f.alice.ID, created.User)
	assert.Equal(t, []string{}, created.Sections)

	first, err := f.svc.Notes.Get(as(f.alice), created.ID)
	require.NoError(t, err)
	second, err := f.svc.Notes.Get(as(f.alice), created.ID)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
	assert.Equal(t, 0, f.notes.gets, "both reads should be served from the cache")

	_, err = f.svc.Notes.Update(as(f.bob), created.ID, NoteInput{Name: str("Shopping")})
	assert.True(t, apperr.Is(err, apperr.KindForbidden), "got %v", err)

	require.NoError(t, f.svc.Notes.Delete(as(f.alice), created.ID))
	_, err = f.svc.Notes.Get(as(f.alice), created.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "got %v", err)
}

func TestNote_ColdReadMatchesCreated(t *testing.T) {
	f := newFixture(t)
	ctx := as(f.alice)

	created, err := f.svc.Notes.Create(ctx, NoteInput{
		Name:    str("Trip"),
		Content: str("pack light"),
		Tags:    []string{"travel", "todo", "travel"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"travel", "todo"}, created.Tags)

	require.NoError(t, f.cache.Del(context.Background(), cache.NoteKey(created.ID)))
	cold, err := f.svc.Notes.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.notes.gets)
	assert.Equal(t, string(mustJSON(t, created)), string(cold))

	// Repeated reads stay identical.
	again, err := f.svc.Notes.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, string(cold), string(again))
	assert.Equal(t, 1, f.notes.gets)

	ttl := f.mr.TTL(cache.NoteKey(created.ID))
	assert.Equal(t, cache.DefaultTTL, ttl)
}

func TestNote_ReadByIDNeedsOnlyAuthentication(t *testing.T) {
	f := newFixture(t)
	created, err := f.svc.Notes.Create(as(f.alice), NoteInput{Name: str("Shared")})
	require.NoError(t, err)

	_, err = f.svc.Notes.Get(as(f.bob), created.ID)
	assert.NoError(t, err)

	_, err = f.svc.Notes.Get(context.Background(), created.ID)
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated), "got %v", err)
}

func TestNote_UpdateKeepsCacheCoherent(t *testing.T) {
	f := newFixture(t)
	ctx := as(f.alice)
	created, err := f.svc.Notes.Create(ctx, NoteInput{Name: str("Draft"), Content: str("v1")})
	require.NoError(t, err)

	updated, err := f.svc.Notes.Update(ctx, created.ID, NoteInput{Name: str("Final"), Tags: []string{"done"}})
	require.NoError(t, err)
	assert.Equal(t, "Final", updated.Name)
	assert.Equal(t, "v1", updated.Content, "unsupplied fields are kept")
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

	cached, ok, err := f.cache.Get(context.Background(), cache.NoteKey(created.ID))
	require.NoError(t, err)
	require.True(t, ok)
	stored, err := f.notes.NoteRepositoryI.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, string(mustJSON(t, stored)), string(cached))

	_, err = f.svc.Notes.Update(ctx, created.ID, NoteInput{Name: str("   ")})
	assert.True(t, apperr.Is(err, apperr.KindValidation), "got %v", err)

	_, err = f.svc.Notes.Update(ctx, "missing", NoteInput{Name: str("x")})
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "got %v", err)
}

func TestNote_CreateValidation(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Notes.Create(as(f.alice), NoteInput{})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, err = f.svc.Notes.Create(as(f.alice), NoteInput{Name: str(strings.Repeat("n", 101))})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	ghost := auth.WithPrincipal(context.Background(), &auth.Principal{Name: "ghost1"})
	_, err = f.svc.Notes.Create(ghost, NoteInput{Name: str("x")})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestNote_ListMine(t *testing.T) {
	f := newFixture(t)
	ctx := as(f.alice)

	_, err := f.svc.Notes.ListMine(ctx)
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "got %v", err)

	a, err := f.svc.Notes.Create(ctx, NoteInput{Name: str("A")})
	require.NoError(t, err)
	b, err := f.svc.Notes.Create(ctx, NoteInput{Name: str("B")})
	require.NoError(t, err)
	_, err = f.svc.Notes.Create(as(f.bob), NoteInput{Name: str("not mine")})
	require.NoError(t, err)

	raw, err := f.svc.Notes.ListMine(ctx)
	require.NoError(t, err)
	var list []models.NoteSummary
	require.NoError(t, json.Unmarshal(raw, &list))
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, b.ID, list[1].ID)

	items, err := f.cache.ListRange(context.Background(), cache.NotesByUserKey(f.alice.Username))
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, cache.DefaultTTL, f.mr.TTL(cache.NotesByUserKey(f.alice.Username)))

	cached, err := f.svc.Notes.ListMine(ctx)
	require.NoError(t, err)
	assert.Equal(t, string(raw), string(cached))

	// Creating another note drops the stale list.
	_, err = f.svc.Notes.Create(ctx, NoteInput{Name: str("C")})
	require.NoError(t, err)
	raw, err = f.svc.Notes.ListMine(ctx)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &list))
	assert.Len(t, list, 3)
}

func TestNote_DeleteInvalidatesEverything(t *testing.T) {
	f := newFixture(t)
	ctx := as(f.alice)
	n, err := f.svc.Notes.Create(ctx, NoteInput{Name: str("Temp")})
	require.NoError(t, err)
	_, err = f.svc.Sections.Create(ctx, n.ID, "S")
	require.NoError(t, err)
	_, err = f.svc.Sections.List(ctx, n.ID)
	require.NoError(t, err)
	_, err = f.svc.Notes.ListMine(ctx)
	require.NoError(t, err)

	assert.True(t, apperr.Is(f.svc.Notes.Delete(as(f.bob), n.ID), apperr.KindForbidden))
	require.NoError(t, f.svc.Notes.Delete(ctx, n.ID))

	for _, key := range []string{cache.NoteKey(n.ID), cache.NotesByUserKey("alice1"), cache.SectionsByNoteKey(n.ID)} {
		assert.False(t, f.mr.Exists(key), key)
	}
	assert.True(t, apperr.Is(f.svc.Notes.Delete(ctx, n.ID), apperr.KindNotFound))
}

func TestNote_IconLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := as(f.alice)

	_, err := f.svc.Notes.Create(ctx, NoteInput{Name: str("Big"), Icon: &assets.Image{
		Filename: "big.png", Size: -1, Body: bytes.NewReader(make([]byte, assets.MaxImageBytes+1)),
	}})
	assert.True(t, apperr.Is(err, apperr.KindPayloadTooLarge), "got %v", err)
	_, err = f.svc.Notes.Create(ctx, NoteInput{Name: str("Bmp"), Icon: &assets.Image{
		Filename: "pic.bmp", Size: 3, Body: strings.NewReader("bmp"),
	}})
	assert.True(t, apperr.Is(err, apperr.KindUnsupportedMediaType), "got %v", err)
	assert.Equal(t, 0, countFiles(t, f.uploadDir))
	_, err = f.svc.Notes.ListMine(ctx)
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "rejected uploads must not create notes")

	n, err := f.svc.Notes.Create(ctx, NoteInput{Name: str("Icon"), Icon: &assets.Image{
		Filename: "ok.PNG", Size: -1, Body: bytes.NewReader(make([]byte, assets.MaxImageBytes)),
	}})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(n.Icon, assets.NoteIconDir+"/"))
	assert.True(t, strings.HasSuffix(n.Icon, ".png"))
	assert.FileExists(t, filepath.Join(f.uploadDir, n.Icon))

	updated, err := f.svc.Notes.Update(ctx, n.ID, NoteInput{Icon: &assets.Image{
		Filename: "new.gif", Size: 6, Body: strings.NewReader("GIF89a"),
	}})
	require.NoError(t, err)
	assert.NotEqual(t, n.Icon, updated.Icon)
	assert.NoFileExists(t, filepath.Join(f.uploadDir, n.Icon))
	assert.FileExists(t, filepath.Join(f.uploadDir, updated.Icon))

	// A missing icon file does not block deletion.
	require.NoError(t, os.Remove(filepath.Join(f.uploadDir, updated.Icon)))
	require.NoError(t, f.svc.Notes.Delete(ctx, n.ID))
	assert.Equal(t, 0, countFiles(t, f.uploadDir))
}

func TestCacheFailureIsInternal(t *testing.T) {
	f := newFixture(t)
	n, err := f.svc.Notes.Create(as(f.alice), NoteInput{Name: str("x")})
	require.NoError(t, err)

	f.mr.Close()
	_, err = f.svc.Notes.Get(as(f.alice), n.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	assert.Equal(t, "Internal Server Error", apperr.Message(err))
}
