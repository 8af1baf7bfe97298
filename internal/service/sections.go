package service

import (
	"context"
	"encoding/json"
	"strings"

	"notebookService/internal/apperr"
	"notebookService/internal/auth"
	"notebookService/internal/cache"
	"notebookService/internal/hierarchy"
	"notebookService/models"
)

// SectionService serves sections nested under notes.
type SectionService struct {
	base
}

// Create adds a section to the end of a note the caller owns and returns the
// updated note.
func (s *SectionService) Create(ctx context.Context, noteID, name string) (*models.Note, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperr.Validation("Section name is required")
	}
	user, err := auth.ResolveUser(ctx, s.Users)
	if err != nil {
		return nil, err
	}
	n, err := s.Notes.GetByID(ctx, noteID)
	if err != nil {
		return nil, apperr.Internal(err, "get note")
	}
	if err := hierarchy.AuthorizeNote(n, user.ID); err != nil {
		return nil, err
	}

	err = s.gate.invalidate(ctx,
		cache.NoteKey(n.ID),
		cache.SectionsByNoteKey(n.ID),
		cache.NotesByUserKey(user.Username),
	)
	if err != nil {
		return nil, err
	}

	sec, err := s.Sections.Create(ctx, &models.Section{Name: name})
	if err != nil {
		return nil, apperr.Internal(err, "create section")
	}
	n.Sections = append(n.Sections, sec.ID)
	n.UpdatedAt = models.Now()
	if err := s.Notes.Save(ctx, n); err != nil {
		return nil, apperr.Internal(err, "save note")
	}
	if _, err := s.gate.populate(ctx, cache.NoteKey(n.ID), n); err != nil {
		return nil, err
	}
	return n, nil
}

// List returns the sections of a note the caller owns as a JSON array, in
// note order.
func (s *SectionService) List(ctx context.Context, noteID string) (json.RawMessage, error) {
	user, err := auth.ResolveUser(ctx, s.Users)
	if err != nil {
		return nil, err
	}
	n, err := s.Notes.GetByID(ctx, noteID)
	if err != nil {
		return nil, apperr.Internal(err, "get note")
	}
	if err := hierarchy.AuthorizeNote(n, user.ID); err != nil {
		return nil, err
	}

	key := cache.SectionsByNoteKey(n.ID)
	if v, ok, err := s.gate.lookupList(ctx, key); err != nil || ok {
		return v, err
	}
	sections, err := s.Sections.ListByNote(ctx, n.ID)
	if err != nil {
		return nil, apperr.Internal(err, "list sections")
	}
	return rebuildList(ctx, s.gate, key, sections)
}

// Get returns a section whose note the caller owns.
func (s *SectionService) Get(ctx context.Context, sectionID string) (*models.Section, error) {
	sec, _, err := s.authorized(ctx, sectionID)
	return sec, err
}

// Rename changes the name of a section.
func (s *SectionService) Rename(ctx context.Context, sectionID, name string) (*models.Section, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperr.Validation("Section name is required")
	}
	sec, n, err := s.authorized(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.invalidate(ctx, cache.SectionsByNoteKey(n.ID)); err != nil {
		return nil, err
	}
	sec.Name = name
	sec.UpdatedAt = models.Now()
	if err := s.Sections.Save(ctx, sec); err != nil {
		return nil, apperr.Internal(err, "save section")
	}
	return sec, nil
}

// Delete removes a section and its reference from every note holding it.
func (s *SectionService) Delete(ctx context.Context, sectionID string) error {
	sec, n, err := s.authorized(ctx, sectionID)
	if err != nil {
		return err
	}
	err = s.gate.invalidate(ctx,
		cache.PagesBySectionKey(sec.ID),
		cache.NoteKey(n.ID),
		cache.SectionsByNoteKey(n.ID),
	)
	if err != nil {
		return err
	}
	noteIDs, err := s.Notes.PullSection(ctx, sec.ID)
	if err != nil {
		return apperr.Internal(err, "pull section")
	}
	if err := s.Sections.Delete(ctx, sec.ID); err != nil {
		return apperr.Internal(err, "delete section")
	}
	// Other notes can only hold the section through a dangling reference.
	var keys []string
	for _, id := range noteIDs {
		if id != n.ID {
			keys = append(keys, cache.NoteKey(id), cache.SectionsByNoteKey(id))
		}
	}
	return s.gate.invalidate(ctx, keys...)
}

// authorized loads a section and verifies the caller owns its note.
func (s *SectionService) authorized(ctx context.Context, sectionID string) (*models.Section, *models.Note, error) {
	user, err := auth.ResolveUser(ctx, s.Users)
	if err != nil {
		return nil, nil, err
	}
	sec, err := s.Sections.GetByID(ctx, sectionID)
	if err != nil {
		return nil, nil, apperr.Internal(err, "get section")
	}
	if sec == nil {
		return nil, nil, apperr.NotFound("Section not found")
	}
	chain, err := s.walk.FromSection(ctx, sec.ID)
	if err != nil {
		return nil, nil, err
	}
	if err := hierarchy.Authorize(chain, user.ID); err != nil {
		return nil, nil, err
	}
	return sec, chain.Note, nil
}
