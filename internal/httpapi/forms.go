package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"notebookService/internal/apperr"
	"notebookService/internal/assets"
)

const (
	maxBodyBytes     = 8 << 20
	maxMemoryBytes   = 4 << 20
	errorParsingForm = "Error parsing form data"
)

// form is a request body reduced to named string values and uploaded files.
// JSON, urlencoded and multipart bodies all decode into it.
type form struct {
	values map[string][]string
	files  map[string][]*multipart.FileHeader
	open   []io.Closer
	mp     *multipart.Form
}

// readForm decodes the request body. Close must be called to release any
// temporary upload files.
func readForm(w http.ResponseWriter, r *http.Request) (*form, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	f := &form{values: map[string][]string{}, files: map[string][]*multipart.FileHeader{}}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxMemoryBytes); err != nil {
			f.Close()
			return nil, formError(err)
		}
		f.mp = r.MultipartForm
		f.values = r.MultipartForm.Value
		f.files = r.MultipartForm.File
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, formError(err)
		}
		f.values = r.PostForm
	default:
		if err := decodeJSONValues(r.Body, f.values); err != nil {
			return nil, formError(err)
		}
	}
	return f, nil
}

func formError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperr.PayloadTooLarge("File larger than 2MB")
	}
	return apperr.Wrap(apperr.KindValidation, err, errorParsingForm)
}

// decodeJSONValues accepts an object whose members are strings or arrays of
// strings. An empty body is an empty form.
func decodeJSONValues(body io.Reader, into map[string][]string) error {
	raw := map[string]json.RawMessage{}
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	for k, v := range raw {
		var one string
		if err := json.Unmarshal(v, &one); err == nil {
			into[k] = []string{one}
			continue
		}
		var many []string
		if err := json.Unmarshal(v, &many); err != nil {
			return err
		}
		into[k] = many
	}
	return nil
}

// first returns the first value of a field; multi-valued fields collapse to
// their first element.
func (f *form) first(name string) (string, bool) {
	vs, ok := f.values[name]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

func (f *form) optional(name string) *string {
	v, ok := f.first(name)
	if !ok {
		return nil
	}
	return &v
}

// list returns every value of a field, splitting comma-separated entries.
// Nil means the field was absent.
func (f *form) list(name string) []string {
	vs, ok := f.values[name]
	if !ok {
		return nil
	}
	out := []string{}
	for _, v := range vs {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// image opens the first file uploaded under name, or returns nil.
func (f *form) image(name string) (*assets.Image, error) {
	fhs := f.files[name]
	if len(fhs) == 0 {
		return nil, nil
	}
	fh := fhs[0]
	if fh.Filename == "" {
		return nil, apperr.Validation("No valid file uploaded")
	}
	file, err := fh.Open()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, err, "Error reading form data")
	}
	f.open = append(f.open, file)
	return &assets.Image{Filename: fh.Filename, Size: fh.Size, Body: file}, nil
}

// Close releases opened uploads and removes multipart temporary files.
func (f *form) Close() {
	for _, c := range f.open {
		_ = c.Close()
	}
	if f.mp != nil {
		_ = f.mp.RemoveAll()
	}
}
