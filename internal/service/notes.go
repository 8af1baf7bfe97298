package service

import (
	"context"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"notebookService/internal/apperr"
	"notebookService/internal/assets"
	"notebookService/internal/auth"
	"notebookService/internal/cache"
	"notebookService/internal/hierarchy"
	"notebookService/models"
)

const maxNoteNameLen = 100

// NoteInput carries the client-supplied note fields. Nil pointers and a nil
// Tags slice mean "not supplied".
type NoteInput struct {
	Name    *string
	Content *string
	Tags    []string
	Icon    *assets.Image
}

// NoteService serves notes and the per-owner note list.
type NoteService struct {
	base
}

// Create stores a note owned by the caller.
func (s *NoteService) Create(ctx context.Context, in NoteInput) (*models.Note, error) {
	user, err := auth.ResolveUser(ctx, s.Users)
	if err != nil {
		return nil, err
	}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, apperr.Validation("Missing required fields: name")
	}
	if err := validateNoteName(*in.Name); err != nil {
		return nil, err
	}

	n := &models.Note{
		Name: *in.Name,
		Tags: uniqueTags(in.Tags),
		User: user.ID,
	}
	if in.Content != nil {
		n.Content = *in.Content
	}
	if in.Icon != nil {
		if n.Icon, err = s.Assets.SaveImage(assets.NoteIconDir, *in.Icon); err != nil {
			return nil, err
		}
	}

	if err := s.gate.invalidate(ctx, cache.NotesByUserKey(user.Username)); err != nil {
		s.discardAsset(n.Icon)
		return nil, err
	}
	created, err := s.Notes.Create(ctx, n)
	if err != nil {
		s.discardAsset(n.Icon)
		return nil, apperr.Internal(err, "create note")
	}
	if _, err := s.gate.populate(ctx, cache.NoteKey(created.ID), created); err != nil {
		return nil, err
	}
	return created, nil
}

// Get returns the serialized note, from the cache when present. Any
// authenticated caller may read a note by id.
func (s *NoteService) Get(ctx context.Context, id string) (json.RawMessage, error) {
	if _, err := auth.RequirePrincipal(ctx); err != nil {
		return nil, err
	}
	key := cache.NoteKey(id)
	if v, ok, err := s.gate.lookup(ctx, key); err != nil || ok {
		return v, err
	}

	n, err := s.Notes.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err, "get note")
	}
	if n == nil {
		return nil, apperr.NotFound("Note not found")
	}
	return s.gate.populate(ctx, key, n)
}

// ListMine returns the summaries of the caller's notes as a JSON array.
func (s *NoteService) ListMine(ctx context.Context) (json.RawMessage, error) {
	user, err := auth.ResolveUser(ctx, s.Users)
	if err != nil {
		return nil, err
	}
	key := cache.NotesByUserKey(user.Username)
	if v, ok, err := s.gate.lookupList(ctx, key); err != nil || ok {
		return v, err
	}

	summaries, err := s.Notes.ListSummariesByOwner(ctx, user.ID)
	if err != nil {
		return nil, apperr.Internal(err, "list notes")
	}
	if len(summaries) == 0 {
		return nil, apperr.NotFound("Note not found")
	}
	return rebuildList(ctx, s.gate, key, summaries)
}

// Update applies the supplied fields to a note the caller owns. A new icon
// replaces the old one, which is removed once the note is saved.
func (s *NoteService) Update(ctx context.Context, id string, in NoteInput) (*models.Note, error) {
	user, err := auth.ResolveUser(ctx, s.Users)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, apperr.Validation("Missing required fields: name")
		}
		if err := validateNoteName(*in.Name); err != nil {
			return nil, err
		}
	}
	n, err := s.Notes.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err, "get note")
	}
	if err := hierarchy.AuthorizeNote(n, user.ID); err != nil {
		return nil, err
	}
	if err := s.gate.invalidate(ctx, cache.NoteKey(n.ID), cache.NotesByUserKey(user.Username)); err != nil {
		return nil, err
	}

	oldIcon := n.Icon
	newIcon := ""
	if in.Icon != nil {
		if newIcon, err = s.Assets.SaveImage(assets.NoteIconDir, *in.Icon); err != nil {
			return nil, err
		}
		n.Icon = newIcon
	}
	if in.Name != nil {
		n.Name = *in.Name
	}
	if in.Content != nil {
		n.Content = *in.Content
	}
	if in.Tags != nil {
		n.Tags = uniqueTags(in.Tags)
	}
	n.UpdatedAt = models.Now()

	if err := s.Notes.Save(ctx, n); err != nil {
		s.discardAsset(newIcon)
		return nil, apperr.Internal(err, "save note")
	}
	if newIcon != "" && oldIcon != "" {
		s.discardAsset(oldIcon)
	}
	if _, err := s.gate.populate(ctx, cache.NoteKey(n.ID), n); err != nil {
		return nil, err
	}
	return n, nil
}

// Delete removes a note the caller owns together with its icon. Sections it
// referenced are left in place and become unreachable.
func (s *NoteService) Delete(ctx context.Context, id string) error {
	user, err := auth.ResolveUser(ctx, s.Users)
	if err != nil {
		return err
	}
	n, err := s.Notes.GetByID(ctx, id)
	if err != nil {
		return apperr.Internal(err, "get note")
	}
	if err := hierarchy.AuthorizeNote(n, user.ID); err != nil {
		return err
	}
	err = s.gate.invalidate(ctx,
		cache.NoteKey(n.ID),
		cache.NotesByUserKey(user.Username),
		cache.SectionsByNoteKey(n.ID),
	)
	if err != nil {
		return err
	}
	if err := s.Notes.Delete(ctx, n.ID); err != nil {
		return apperr.Internal(err, "delete note")
	}
	if err := s.Assets.Delete(n.Icon); err != nil {
		return err
	}
	return nil
}

// discardAsset removes a file that is no longer referenced. Failures are only
// logged; the owning write has already been decided.
func (b *base) discardAsset(rel string) {
	if rel == "" {
		return
	}
	if err := b.Assets.Delete(rel); err != nil {
		b.Logger.Warn().Err(err).Str("path", rel).Msg("remove asset")
	}
}

func validateNoteName(name string) error {
	if utf8.RuneCountInString(name) > maxNoteNameLen {
		return apperr.Validation("name should be less than %d characters", maxNoteNameLen)
	}
	return nil
}

// uniqueTags drops blank and repeated tags, keeping first occurrences in order.
func uniqueTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
