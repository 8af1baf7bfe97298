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

// PageInput carries page fields. For updates a blank field is left unchanged.
type PageInput struct {
	Title   string
	Content string
}

// PageService serves pages nested under sections.
type PageService struct {
	base
}

// Create appends a page to a section whose note the caller owns and returns
// the updated section.
func (s *PageService) Create(ctx context.Context, sectionID string, in PageInput) (*models.Section, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, apperr.Validation("Page title is required")
	}
	user, err := auth.ResolveUser(ctx, s.Users)
	if err != nil {
		return nil, err
	}
	sec, err := s.Sections.GetByID(ctx, sectionID)
	if err != nil {
		return nil, apperr.Internal(err, "get section")
	}
	if sec == nil {
		return nil, apperr.NotFound("Section not found")
	}
	chain, err := s.walk.FromSection(ctx, sec.ID)
	if err != nil {
		return nil, err
	}
	if err := hierarchy.Authorize(chain, user.ID); err != nil {
		return nil, err
	}

	err = s.gate.invalidate(ctx, cache.PagesBySectionKey(sec.ID), cache.SectionsByNoteKey(chain.Note.ID))
	if err != nil {
		return nil, err
	}

	p, err := s.Pages.Create(ctx, &models.Page{Title: in.Title, Content: in.Content})
	if err != nil {
		return nil, apperr.Internal(err, "create page")
	}
	sec.Pages = append(sec.Pages, p.ID)
	sec.UpdatedAt = models.Now()
	if err := s.Sections.Save(ctx, sec); err != nil {
		return nil, apperr.Internal(err, "save section")
	}
	return sec, nil
}

// List returns the pages of a section as a JSON array, in section order.
func (s *PageService) List(ctx context.Context, sectionID string) (json.RawMessage, error) {
	user, err := auth.ResolveUser(ctx, s.Users)
	if err != nil {
		return nil, err
	}
	sec, err := s.Sections.GetByID(ctx, sectionID)
	if err != nil {
		return nil, apperr.Internal(err, "get section")
	}
	if sec == nil {
		return nil, apperr.NotFound("Section not found")
	}
	chain, err := s.walk.FromSection(ctx, sec.ID)
	if err != nil {
		return nil, err
	}
	if err := hierarchy.Authorize(chain, user.ID); err != nil {
		return nil, err
	}

	key := cache.PagesBySectionKey(sec.ID)
	if v, ok, err := s.gate.lookupList(ctx, key); err != nil || ok {
		return v, err
	}
	pages, err := s.Pages.ListBySection(ctx, sec.ID)
	if err != nil {
		return nil, apperr.Internal(err, "list pages")
	}
	return rebuildList(ctx, s.gate, key, pages)
}

// Get returns a page after verifying the whole ownership chain.
func (s *PageService) Get(ctx context.Context, pageID string) (*models.Page, error) {
	p, _, err := s.authorized(ctx, pageID)
	return p, err
}

// Update changes the title and/or content of a page. At least one must be
// non-blank.
func (s *PageService) Update(ctx context.Context, pageID string, in PageInput) (*models.Page, error) {
	if strings.TrimSpace(in.Title) == "" && strings.TrimSpace(in.Content) == "" {
		return nil, apperr.Validation("At least title or content must not be empty")
	}
	p, chain, err := s.authorized(ctx, pageID)
	if err != nil {
		return nil, err
	}
	err = s.gate.invalidate(ctx, cache.PagesBySectionKey(chain.Section.ID), cache.SectionsByNoteKey(chain.Note.ID))
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Title) != "" {
		p.Title = in.Title
	}
	if strings.TrimSpace(in.Content) != "" {
		p.Content = in.Content
	}
	p.UpdatedAt = models.Now()
	if err := s.Pages.Save(ctx, p); err != nil {
		return nil, apperr.Internal(err, "save page")
	}
	return p, nil
}

// Delete removes a page and its reference from its section.
func (s *PageService) Delete(ctx context.Context, pageID string) error {
	p, chain, err := s.authorized(ctx, pageID)
	if err != nil {
		return err
	}
	err = s.gate.invalidate(ctx, cache.PagesBySectionKey(chain.Section.ID), cache.SectionsByNoteKey(chain.Note.ID))
	if err != nil {
		return err
	}
	sectionIDs, err := s.Sections.PullPage(ctx, p.ID)
	if err != nil {
		return apperr.Internal(err, "pull page")
	}
	if err := s.Pages.Delete(ctx, p.ID); err != nil {
		return apperr.Internal(err, "delete page")
	}
	var keys []string
	for _, id := range sectionIDs {
		if id != chain.Section.ID {
			keys = append(keys, cache.PagesBySectionKey(id))
		}
	}
	return s.gate.invalidate(ctx, keys...)
}

// authorized loads a page and walks Page -> Section -> Note to the caller.
func (s *PageService) authorized(ctx context.Context, pageID string) (*models.Page, hierarchy.Chain, error) {
	user, err := auth.ResolveUser(ctx, s.Users)
	if err != nil {
		return nil, hierarchy.Chain{}, err
	}
	p, err := s.Pages.GetByID(ctx, pageID)
	if err != nil {
		return nil, hierarchy.Chain{}, apperr.Internal(err, "get page")
	}
	if p == nil {
		return nil, hierarchy.Chain{}, apperr.NotFound("Page not found")
	}
	chain, err := s.walk.FromPage(ctx, p.ID)
	if err != nil {
		return nil, hierarchy.Chain{}, err
	}
	if err := hierarchy.Authorize(chain, user.ID); err != nil {
		return nil, hierarchy.Chain{}, err
	}
	return p, chain, nil
}
