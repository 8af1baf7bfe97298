// Package hierarchy walks the Page -> Section -> Note ownership chain upward
// and decides whether a user may act on an entity.
package hierarchy

import (
	"context"

	"notebookService/internal/apperr"
	"notebookService/models"
)

// NoteFinder finds the note whose section list holds a section.
type NoteFinder interface {
	FindBySection(ctx context.Context, sectionID string) (*models.Note, error)
}

// SectionFinder finds the section whose page list holds a page.
type SectionFinder interface {
	FindByPage(ctx context.Context, pageID string) (*models.Section, error)
}

// Link names the level at which a chain walk stopped.
type Link string

const (
	LinkNone    Link = ""
	LinkSection Link = "section"
	LinkNote    Link = "note"
)

// Chain is the outcome of a walk: either the owning note was found, or the
// chain is broken at Missing.
type Chain struct {
	Section *models.Section
	Note    *models.Note
	Missing Link
}

// Found reports whether the walk reached a note.
func (c Chain) Found() bool { return c.Missing == LinkNone && c.Note != nil }

// Err returns the NotFound error describing a broken chain, nil otherwise.
func (c Chain) Err() error {
	switch {
	case c.Missing == LinkSection:
		return apperr.NotFound("Section not found")
	case !c.Found():
		return apperr.NotFound("Note not found")
	}
	return nil
}

// Walker resolves owning ancestors through the store.
type Walker struct {
	notes    NoteFinder
	sections SectionFinder
}

func NewWalker(notes NoteFinder, sections SectionFinder) *Walker {
	return &Walker{notes: notes, sections: sections}
}

// FromSection resolves the note holding sectionID.
func (w *Walker) FromSection(ctx context.Context, sectionID string) (Chain, error) {
	n, err := w.notes.FindBySection(ctx, sectionID)
	if err != nil {
		return Chain{}, apperr.Internal(err, "find note by section")
	}
	if n == nil {
		return Chain{Missing: LinkNote}, nil
	}
	return Chain{Note: n}, nil
}

// FromPage resolves the section holding pageID and then its note.
func (w *Walker) FromPage(ctx context.Context, pageID string) (Chain, error) {
	s, err := w.sections.FindByPage(ctx, pageID)
	if err != nil {
		return Chain{}, apperr.Internal(err, "find section by page")
	}
	if s == nil {
		return Chain{Missing: LinkSection}, nil
	}
	c, err := w.FromSection(ctx, s.ID)
	if err != nil {
		return Chain{}, err
	}
	c.Section = s
	return c, nil
}

// Authorize fails with NotFound for a broken chain and Forbidden when the
// note is not owned by userID.
func Authorize(c Chain, userID string) error {
	if err := c.Err(); err != nil {
		return err
	}
	return AuthorizeNote(c.Note, userID)
}

// AuthorizeNote checks direct ownership of a note.
func AuthorizeNote(n *models.Note, userID string) error {
	if n == nil {
		return apperr.NotFound("Note not found")
	}
	if n.User != userID {
		return apperr.Forbidden("Authenticated user does not own the note")
	}
	return nil
}
