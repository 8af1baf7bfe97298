package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"notebookService/internal/service"
)

func (h *Handlers) createNote(w http.ResponseWriter, r *http.Request) {
	in, f, err := readNoteInput(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer f.Close()

	n, err := h.svc.Notes.Create(r.Context(), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, n)
}

func (h *Handlers) getNote(w http.ResponseWriter, r *http.Request) {
	body, err := h.svc.Notes.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondRaw(w, http.StatusOK, body)
}

func (h *Handlers) listNotes(w http.ResponseWriter, r *http.Request) {
	body, err := h.svc.Notes.ListMine(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondRaw(w, http.StatusOK, body)
}

func (h *Handlers) updateNote(w http.ResponseWriter, r *http.Request) {
	in, f, err := readNoteInput(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer f.Close()

	n, err := h.svc.Notes.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, n)
}

func (h *Handlers) deleteNote(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Notes.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "Note successfully deleted")
}

func readNoteInput(w http.ResponseWriter, r *http.Request) (service.NoteInput, *form, error) {
	f, err := readForm(w, r)
	if err != nil {
		return service.NoteInput{}, nil, err
	}
	icon, err := f.image("icon")
	if err != nil {
		f.Close()
		return service.NoteInput{}, nil, err
	}
	return service.NoteInput{
		Name:    f.optional("name"),
		Content: f.optional("content"),
		Tags:    f.list("tags"),
		Icon:    icon,
	}, f, nil
}
