package repository

import (
	"context"

	"notebookService/models"
)

// UserRepositoryI defines operations on User entities.
type UserRepositoryI interface {
	Create(ctx context.Context, u *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, u *models.User) error
}

// NoteRepositoryI defines operations on Note entities.
type NoteRepositoryI interface {
	Create(ctx context.Context, n *models.Note) (*models.Note, error)
	GetByID(ctx context.Context, id string) (*models.Note, error)
	FindBySection(ctx context.Context, sectionID string) (*models.Note, error)
	ListSummariesByOwner(ctx context.Context, userID string) ([]models.NoteSummary, error)
	Save(ctx context.Context, n *models.Note) error
	Delete(ctx context.Context, id string) error
	PullSection(ctx context.Context, sectionID string) ([]string, error)
}

// SectionRepositoryI defines operations on Section entities.
type SectionRepositoryI interface {
	Create(ctx context.Context, s *models.Section) (*models.Section, error)
	GetByID(ctx context.Context, id string) (*models.Section, error)
	FindByPage(ctx context.Context, pageID string) (*models.Section, error)
	ListByNote(ctx context.Context, noteID string) ([]models.Section, error)
	Save(ctx context.Context, s *models.Section) error
	Delete(ctx context.Context, id string) error
	PullPage(ctx context.Context, pageID string) ([]string, error)
}

// PageRepositoryI defines operations on Page entities.
type PageRepositoryI interface {
	Create(ctx context.Context, p *models.Page) (*models.Page, error)
	GetByID(ctx context.Context, id string) (*models.Page, error)
	ListBySection(ctx context.Context, sectionID string) ([]models.Page, error)
	Save(ctx context.Context, p *models.Page) error
	Delete(ctx context.Context, id string) error
}

var (
	_ UserRepositoryI    = (*UserRepository)(nil)
	_ NoteRepositoryI    = (*NoteRepository)(nil)
	_ SectionRepositoryI = (*SectionRepository)(nil)
	_ PageRepositoryI    = (*PageRepository)(nil)
)
