package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"notebookService/models"
)

// SectionRepository stores sections and their ordered page references.
type SectionRepository struct {
	db *sql.DB
}

// NewSectionRepository creates a new SectionRepository.
func NewSectionRepository(db *sql.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

const sectionColumns = `id, name, created_at, updated_at`

// Create inserts a section with its page references.
func (r *SectionRepository) Create(ctx context.Context, s *models.Section) (*models.Section, error) {
	if s == nil {
		return nil, errors.New("section is nil")
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = models.Now()
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = s.CreatedAt
	}
	if s.Pages == nil {
		s.Pages = []string{}
	}

	ctx, cancel := context.WithTimeout(ctx, shortTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO sections (`+sectionColumns+`) VALUES (?,?,?,?)`,
		s.ID, s.Name, formatTime(s.CreatedAt), formatTime(s.UpdatedAt))
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := writeReferences(ctx, tx, `section_pages`, `section_id`, `page_id`, s.ID, s.Pages); err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s, nil
}

// GetByID fetches a section with its ordered page ids, or nil when absent.
func (r *SectionRepository) GetByID(ctx context.Context, id string) (*models.Section, error) {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout)
	defer cancel()

	s, err := scanSection(r.db.QueryRowContext(ctx, `SELECT `+sectionColumns+` FROM sections WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	s.Pages, err = readReferences(ctx, r.db, `SELECT page_id FROM section_pages WHERE section_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// FindByPage returns the section whose page list contains pageID, or nil.
func (r *SectionRepository) FindByPage(ctx context.Context, pageID string) (*models.Section, error) {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout)
	defer cancel()

	var sectionID string
	err := r.db.QueryRowContext(ctx, `SELECT section_id FROM section_pages WHERE page_id = ? LIMIT 1`, pageID).Scan(&sectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return r.GetByID(ctx, sectionID)
}

// ListByNote returns the sections referenced by noteID, populated, in list order.
func (r *SectionRepository) ListByNote(ctx context.Context, noteID string) ([]models.Section, error) {
	ctx, cancel := context.WithTimeout(ctx, longTimeout)
	defer cancel()

	ids, err := readReferences(ctx, r.db, `SELECT section_id FROM note_sections WHERE note_id = ? ORDER BY position`, noteID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Section, 0, len(ids))
	for _, id := range ids {
		s, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if s != nil {
			out = append(out, *s)
		}
	}
	return out, nil
}

// Save persists the section name and rewrites its page list.
func (r *SectionRepository) Save(ctx context.Context, s *models.Section) error {
	if s == nil {
		return errors.New("section is nil")
	}

	ctx, cancel := context.WithTimeout(ctx, shortTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `UPDATE sections SET name = ?, updated_at = ? WHERE id = ?`, s.Name, formatTime(s.UpdatedAt), s.ID)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		_ = tx.Rollback()
		return fmt.Errorf("save section %s: %w", s.ID, sql.ErrNoRows)
	}
	if err := writeReferences(ctx, tx, `section_pages`, `section_id`, `page_id`, s.ID, s.Pages); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Delete removes a section record.
func (r *SectionRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout)
	defer cancel()
	_, err := r.db.ExecContext(ctx, `DELETE FROM sections WHERE id = ?`, id)
	return err
}

// PullPage removes pageID from every section page list and returns the ids of
// the sections that held it.
func (r *SectionRepository) PullPage(ctx context.Context, pageID string) ([]string, error) {
	return pullReference(ctx, r.db, `section_pages`, `section_id`, `page_id`, pageID)
}

func scanSection(row rowScanner) (*models.Section, error) {
	var s models.Section
	var created, updated string
	if err := row.Scan(&s.ID, &s.Name, &created, &updated); err != nil {
		return nil, err
	}
	var err error
	if s.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if s.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	s.Pages = []string{}
	return &s, nil
}
