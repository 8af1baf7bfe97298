package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"notebookService/internal/service"
)

func (h *Handlers) createSection(w http.ResponseWriter, r *http.Request) {
	f, err := readForm(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer f.Close()
	name, _ := f.first("name")

	n, err := h.svc.Sections.Create(r.Context(), chi.URLParam(r, "id"), name)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"message": "Section added successfully", "note": n})
}

func (h *Handlers) listSections(w http.ResponseWriter, r *http.Request) {
	body, err := h.svc.Sections.List(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondRaw(w, http.StatusOK, body)
}

func (h *Handlers) getSection(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.Sections.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, s)
}

func (h *Handlers) renameSection(w http.ResponseWriter, r *http.Request) {
	f, err := readForm(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer f.Close()
	name, _ := f.first("name")

	s, err := h.svc.Sections.Rename(r.Context(), chi.URLParam(r, "id"), name)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"message": "Section updated successfully", "section": s})
}

func (h *Handlers) deleteSection(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Sections.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "Section deleted successfully")
}

func (h *Handlers) createPage(w http.ResponseWriter, r *http.Request) {
	in, err := readPageInput(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s, err := h.svc.Pages.Create(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"message": "Page added successfully", "section": s})
}

func (h *Handlers) listPages(w http.ResponseWriter, r *http.Request) {
	body, err := h.svc.Pages.List(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondRaw(w, http.StatusOK, body)
}

func (h *Handlers) getPage(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Pages.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handlers) updatePage(w http.ResponseWriter, r *http.Request) {
	in, err := readPageInput(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	p, err := h.svc.Pages.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"message": "Page updated successfully", "page": p})
}

func (h *Handlers) deletePage(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Pages.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "Page deleted successfully")
}

func readPageInput(w http.ResponseWriter, r *http.Request) (service.PageInput, error) {
	f, err := readForm(w, r)
	if err != nil {
		return service.PageInput{}, err
	}
	defer f.Close()
	title, _ := f.first("title")
	content, _ := f.first("content")
	return service.PageInput{Title: title, Content: content}, nil
}
