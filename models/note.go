package models

import "time"

// Note is the root of the hierarchy. Sections holds section ids in display order
// and User the id of the owning user.
type Note struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Content   string    `db:"content" json:"content"`
	Icon      string    `db:"icon" json:"icon"`
	Tags      []string  `db:"tags" json:"tags"`
	Sections  []string  `json:"sections"`
	User      string    `db:"user_id" json:"user"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NoteSummary is the display projection served by the per-owner note list.
type NoteSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	Icon      string    `json:"icon"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Summary projects the note onto its display fields.
func (n *Note) Summary() NoteSummary {
	return NoteSummary{
		ID:        n.ID,
		Name:      n.Name,
		Content:   n.Content,
		Icon:      n.Icon,
		Tags:      n.Tags,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

// Section groups pages inside a note. The owning note is found by reverse lookup
// on the note's section list; it is not stored on the section.
type Section struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Pages     []string  `json:"pages"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Page is a leaf of the hierarchy and belongs to exactly one section.
type Page struct {
	ID        string    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
