package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"notebookService/models"
)

// NoteRepository stores notes together with their tags and ordered section references.
type NoteRepository struct {
	db *sql.DB
}

// NewNoteRepository creates a new NoteRepository.
func NewNoteRepository(db *sql.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

const noteColumns = `id, user_id, name, content, icon, tags, created_at, updated_at`

// Create inserts n and its section references and returns the stored note.
func (r *NoteRepository) Create(ctx context.Context, n *models.Note) (*models.Note, error) {
	if n == nil {
		return nil, errors.New("note is nil")
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = models.Now()
	}
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = n.CreatedAt
	}
	tags, err := encodeList(n.Tags)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, shortTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO notes (`+noteColumns+`) VALUES (?,?,?,?,?,?,?,?)`,
		n.ID, n.User, n.Name, n.Content, n.Icon, tags, formatTime(n.CreatedAt), formatTime(n.UpdatedAt))
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := writeReferences(ctx, tx, `note_sections`, `note_id`, `section_id`, n.ID, n.Sections); err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	n2, err := r.GetByID(ctx, n.ID)
	if err != nil {
		return nil, err
	}
	if n2 == nil {
		return nil, fmt.Errorf("created note not found: id=%s", n.ID)
	}
	return n2, nil
}

// GetByID fetches a note with its ordered section ids. It returns nil when absent.
func (r *NoteRepository) GetByID(ctx context.Context, id string) (*models.Note, error) {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout)
	defer cancel()

	n, err := scanNote(r.db.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	n.Sections, err = readReferences(ctx, r.db, `SELECT section_id FROM note_sections WHERE note_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// FindBySection returns the note whose section list contains sectionID, or nil.
func (r *NoteRepository) FindBySection(ctx context.Context, sectionID string) (*models.Note, error) {
	noteID, err := r.lookupParent(ctx, `SELECT note_id FROM note_sections WHERE section_id = ? LIMIT 1`, sectionID)
	if err != nil || noteID == "" {
		return nil, err
	}
	return r.GetByID(ctx, noteID)
}

func (r *NoteRepository) lookupParent(ctx context.Context, query, childID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout)
	defer cancel()

	var parentID string
	err := r.db.QueryRowContext(ctx, query, childID).Scan(&parentID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return parentID, err
}

// ListSummariesByOwner returns the display projection of every note owned by
// userID, in insertion order.
func (r *NoteRepository) ListSummariesByOwner(ctx context.Context, userID string) ([]models.NoteSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, longTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE user_id = ? ORDER BY rowid`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.NoteSummary
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n.Summary())
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Save persists the mutable fields of n and rewrites its section list.
func (r *NoteRepository) Save(ctx context.Context, n *models.Note) error {
	if n == nil {
		return errors.New("note is nil")
	}
	tags, err := encodeList(n.Tags)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, shortTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `UPDATE notes SET name = ?, content = ?, icon = ?, tags = ?, updated_at = ? WHERE id = ?`,
		n.Name, n.Content, n.Icon, tags, formatTime(n.UpdatedAt), n.ID)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		_ = tx.Rollback()
		return fmt.Errorf("save note %s: %w", n.ID, sql.ErrNoRows)
	}
	if err := writeReferences(ctx, tx, `note_sections`, `note_id`, `section_id`, n.ID, n.Sections); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Delete removes a note. Its section references go with it; the sections stay.
func (r *NoteRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout)
	defer cancel()
	_, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	return err
}

// PullSection removes sectionID from every note section list and returns the ids
// of the notes that held it.
func (r *NoteRepository) PullSection(ctx context.Context, sectionID string) ([]string, error) {
	return pullReference(ctx, r.db, `note_sections`, `note_id`, `section_id`, sectionID)
}

func scanNote(row rowScanner) (*models.Note, error) {
	var n models.Note
	var tags, created, updated string
	if err := row.Scan(&n.ID, &n.User, &n.Name, &n.Content, &n.Icon, &tags, &created, &updated); err != nil {
		return nil, err
	}
	var err error
	if n.Tags, err = decodeList(tags); err != nil {
		return nil, err
	}
	if n.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if n.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	n.Sections = []string{}
	return &n, nil
}
