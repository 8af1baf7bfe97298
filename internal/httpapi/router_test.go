package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"notebookService/internal/assets"
	"notebookService/internal/auth"
	"notebookService/internal/cache"
	"notebookService/internal/service"
	"notebookService/internal/testutil"
	"notebookService/models"
	"notebookService/repository"
)

const testSecret = "http-secret"

type apiFixture struct {
	h http.Handler
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	d := testutil.OpenInMemoryDB(t, "")
	c, err := cache.OpenBadger("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	store, err := assets.NewStore(t.TempDir())
	require.NoError(t, err)

	svc := service.New(service.Deps{
		Users:      repository.NewUserRepository(d),
		Notes:      repository.NewNoteRepository(d),
		Sections:   repository.NewSectionRepository(d),
		Pages:      repository.NewPageRepository(d),
		Cache:      c,
		Assets:     store,
		Issuer:     auth.NewIssuer(testSecret, time.Hour),
		BcryptCost: bcrypt.MinCost,
		Logger:     zerolog.Nop(),
	})
	return &apiFixture{h: NewRouter(svc, auth.NewVerifier(testSecret), zerolog.Nop())}
}

func (a *apiFixture) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.h.ServeHTTP(rec, req)
	return rec
}

func (a *apiFixture) doJSON(t *testing.T, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}
	return a.do(t, method, path, token, body, "application/json")
}

// signup registers a user and returns a login token.
func (a *apiFixture) signup(t *testing.T, username string) string {
	t.Helper()
	email := username + "@example.com"
	rec := a.doJSON(t, http.MethodPost, "/api/v1/users/register", "", map[string]string{
		"username": username, "email": email, "password": "password1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.doJSON(t, http.MethodPost, "/api/v1/users/login", "", map[string]string{
		"email": email, "password": "password1",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res struct {
		Message string       `json:"message"`
		Token   string       `json:"token"`
		User    *models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "Login successful", res.Message)
	require.NotEmpty(t, res.Token)
	return res.Token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func multipartBody(t *testing.T, fields map[string]string, fileField, filename string, content []byte) (io.Reader, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

func TestGroceriesScenario(t *testing.T) {
	api := newAPI(t)
	alice := api.signup(t, "alice1")
	bob := api.signup(t, "bobby1")

	me := decode[models.User](t, api.doJSON(t, http.MethodGet, "/api/v1/users/details", alice, nil))

	rec := api.doJSON(t, http.MethodPost, "/api/v1/notes", alice, map[string]string{"name": "Groceries"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.Note](t, rec)
	assert.Equal(t, me.ID, created.User)
	assert.Equal(t, []string{}, created.Sections)

	first := api.doJSON(t, http.MethodGet, "/api/v1/notes/"+created.ID, alice, nil)
	require.Equal(t, http.StatusOK, first.Code)
	second := api.doJSON(t, http.MethodGet, "/api/v1/notes/"+created.ID, alice, nil)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.JSONEq(t, rec.Body.String(), first.Body.String())

	rec = api.doJSON(t, http.MethodPut, "/api/v1/notes/"+created.ID, bob, map[string]string{"name": "Shopping"})
	assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())

	rec = api.doJSON(t, http.MethodDelete, "/api/v1/notes/"+created.ID, alice, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"message":"Note successfully deleted"}`, rec.Body.String())

	rec = api.doJSON(t, http.MethodGet, "/api/v1/notes/"+created.ID, alice, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"Note not found"}`, rec.Body.String())
}

func TestRecipesScenario(t *testing.T) {
	api := newAPI(t)
	alice := api.signup(t, "alice1")

	note := decode[models.Note](t, api.doJSON(t, http.MethodPost, "/api/v1/notes", alice, map[string]string{"name": "Kitchen"}))

	rec := api.doJSON(t, http.MethodPost, "/api/v1/notes/"+note.ID+"/sections", alice, map[string]string{"name": "Recipes"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	added := decode[struct {
		Message string      `json:"message"`
		Note    models.Note `json:"note"`
	}](t, rec)
	assert.Equal(t, "Section added successfully", added.Message)
	require.Len(t, added.Note.Sections, len(note.Sections)+1)
	sectionID := added.Note.Sections[0]

	sections := decode[[]models.Section](t, api.doJSON(t, http.MethodGet, "/api/v1/notes/"+note.ID+"/sections", alice, nil))
	require.Len(t, sections, 1)
	assert.Equal(t, "Recipes", sections[0].Name)

	rec = api.doJSON(t, http.MethodPost, "/api/v1/sections/"+sectionID+"/pages", alice, map[string]string{"title": "Pancakes", "content": "flour, eggs"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	pages := decode[[]models.Page](t, api.doJSON(t, http.MethodGet, "/api/v1/sections/"+sectionID+"/pages", alice, nil))
	require.Len(t, pages, 1)

	rec = api.doJSON(t, http.MethodPut, "/api/v1/pages/"+pages[0].ID, alice, map[string]string{"title": "Crepes"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	page := decode[models.Page](t, api.doJSON(t, http.MethodGet, "/api/v1/pages/"+pages[0].ID, alice, nil))
	assert.Equal(t, "Crepes", page.Title)
	assert.Equal(t, "flour, eggs", page.Content)

	rec = api.doJSON(t, http.MethodDelete, "/api/v1/sections/"+sectionID, alice, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	fetched := decode[models.Note](t, api.doJSON(t, http.MethodGet, "/api/v1/notes/"+note.ID, alice, nil))
	assert.Empty(t, fetched.Sections)
	rec = api.doJSON(t, http.MethodGet, "/api/v1/notes/"+note.ID+"/sections", alice, nil)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestIconUploads(t *testing.T) {
	api := newAPI(t)
	alice := api.signup(t, "alice1")

	cases := []struct {
		filename string
		size     int
		want     int
	}{
		{"exact.png", assets.MaxImageBytes, http.StatusCreated},
		{"over.png", assets.MaxImageBytes + 1, http.StatusRequestEntityTooLarge},
		{"picture.bmp", 10, http.StatusUnsupportedMediaType},
		{"UPPER.PNG", 10, http.StatusCreated},
	}
	for _, c := range cases {
		body, ct := multipartBody(t, map[string]string{"name": "With icon"}, "icon", c.filename, make([]byte, c.size))
		rec := api.do(t, http.MethodPost, "/api/v1/notes", alice, body, ct)
		assert.Equal(t, c.want, rec.Code, "%s: %s", c.filename, rec.Body.String())
	}

	notes := decode[[]models.NoteSummary](t, api.doJSON(t, http.MethodGet, "/api/v1/notes", alice, nil))
	assert.Len(t, notes, 2)
}

func TestMultiValuedFieldsTakeFirst(t *testing.T) {
	api := newAPI(t)
	alice := api.signup(t, "alice1")

	rec := api.doJSON(t, http.MethodPost, "/api/v1/notes", alice, map[string]any{
		"name": []string{"First", "Second"},
		"tags": []string{"a", "b", "a"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	n := decode[models.Note](t, rec)
	assert.Equal(t, "First", n.Name)
	assert.Equal(t, []string{"a", "b"}, n.Tags)

	rec = api.doJSON(t, http.MethodPost, "/api/v1/notes", alice, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Missing required fields: name"}`, rec.Body.String())
}

func TestAuthAndRouting(t *testing.T) {
	api := newAPI(t)

	rec := api.doJSON(t, http.MethodGet, "/api/v1/notes", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.doJSON(t, http.MethodGet, "/api/v1/notes", testutil.GenerateJWTHS256(t, testSecret, "alice1", -time.Minute), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// A valid token for an unknown user resolves to NotFound.
	rec = api.doJSON(t, http.MethodGet, "/api/v1/users/details", testutil.GenerateJWTHS256(t, testSecret, "ghost1", time.Hour), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.doJSON(t, http.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"Route not found"}`, rec.Body.String())

	rec = api.doJSON(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUserEndpoints(t *testing.T) {
	api := newAPI(t)
	alice := api.signup(t, "alice1")

	rec := api.doJSON(t, http.MethodPost, "/api/v1/users/register", "", map[string]string{
		"username": "alice2", "email": "alice1@example.com", "password": "password1",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.doJSON(t, http.MethodPost, "/api/v1/users/login", "", map[string]string{
		"email": "alice1@example.com", "password": "nope-nope",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"Invalid email or password"}`, rec.Body.String())

	body, ct := multipartBody(t, map[string]string{"email": "alice@changed.example.com"}, "picture", "me.png", []byte("png-bytes"))
	rec = api.do(t, http.MethodPut, "/api/v1/users", alice, body, ct)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.doJSON(t, http.MethodGet, "/api/v1/users/photo", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png-bytes", rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
}
