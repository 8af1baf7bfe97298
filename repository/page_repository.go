package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"notebookService/models"
)

// PageRepository stores pages. Membership in a section is kept by SectionRepository.
type PageRepository struct {
	db *sql.DB
}

// NewPageRepository creates a new PageRepository.
func NewPageRepository(db *sql.DB) *PageRepository {
	return &PageRepository{db: db}
}

const pageColumns = `id, title, content, created_at, updated_at`

func (r *PageRepository) Create(ctx context.Context, p *models.Page) (*models.Page, error) {
	if p == nil {
		return nil, errors.New("page is nil")
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = models.Now()
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}

	ctx, cancel := context.WithTimeout(ctx, shortTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `INSERT INTO pages (`+pageColumns+`) VALUES (?,?,?,?,?)`,
		p.ID, p.Title, p.Content, formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PageRepository) GetByID(ctx context.Context, id string) (*models.Page, error) {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout)
	defer cancel()

	p, err := scanPage(r.db.QueryRowContext(ctx, `SELECT `+pageColumns+` FROM pages WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// ListBySection returns the pages of sectionID in list order.
func (r *PageRepository) ListBySection(ctx context.Context, sectionID string) ([]models.Page, error) {
	ctx, cancel := context.WithTimeout(ctx, longTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
SELECT p.id, p.title, p.content, p.created_at, p.updated_at
FROM section_pages sp
JOIN pages p ON p.id = sp.page_id
WHERE sp.section_id = ?
ORDER BY sp.position`, sectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Page{}
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *PageRepository) Save(ctx context.Context, p *models.Page) error {
	if p == nil {
		return errors.New("page is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, shortTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `UPDATE pages SET title = ?, content = ?, updated_at = ? WHERE id = ?`,
		p.Title, p.Content, formatTime(p.UpdatedAt), p.ID)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("save page %s: %w", p.ID, sql.ErrNoRows)
	}
	return nil
}

func (r *PageRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout)
	defer cancel()
	_, err := r.db.ExecContext(ctx, `DELETE FROM pages WHERE id = ?`, id)
	return err
}

func scanPage(row rowScanner) (*models.Page, error) {
	var p models.Page
	var created, updated string
	if err := row.Scan(&p.ID, &p.Title, &p.Content, &created, &updated); err != nil {
		return nil, err
	}
	var err error
	if p.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &p, nil
}
