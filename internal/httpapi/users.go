package httpapi

import (
	"net/http"
	"path/filepath"
	"time"

	"notebookService/internal/service"
)

func (h *Handlers) register(w http.ResponseWriter, r *http.Request) {
	f, err := readForm(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer f.Close()
	username, _ := f.first("username")
	email, _ := f.first("email")
	password, _ := f.first("password")

	u, err := h.svc.Users.Register(r.Context(), service.RegisterInput{Username: username, Email: email, Password: password})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"message": "User registered successfully", "user": u})
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	f, err := readForm(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer f.Close()
	email, _ := f.first("email")
	password, _ := f.first("password")

	res, err := h.svc.Users.Login(r.Context(), email, password)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"message": "Login successful", "token": res.Token, "user": res.User})
}

func (h *Handlers) userDetails(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.Users.Details(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}

func (h *Handlers) userPhoto(w http.ResponseWriter, r *http.Request) {
	file, err := h.svc.Users.Picture(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer file.Close()

	modTime := time.Time{}
	if info, err := file.Stat(); err == nil {
		modTime = info.ModTime()
	}
	http.ServeContent(w, r, filepath.Base(file.Name()), modTime, file)
}

func (h *Handlers) updateUser(w http.ResponseWriter, r *http.Request) {
	f, err := readForm(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer f.Close()
	picture, err := f.image("picture")
	if err != nil {
		respondError(w, r, err)
		return
	}

	u, err := h.svc.Users.Update(r.Context(), service.UserUpdate{
		Email:    f.optional("email"),
		Password: f.optional("password"),
		Picture:  picture,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"message": "User updated successfully", "user": u})
}
