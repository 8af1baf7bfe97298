package cache

// Key names are shared with other clients of the same cache and must not change.

// NoteKey holds the serialized note.
func NoteKey(noteID string) string { return "note:" + noteID }

// NotesByUserKey holds the list of note summaries owned by username.
func NotesByUserKey(username string) string { return "note:user:" + username }

// SectionsByNoteKey holds the list of sections of a note.
func SectionsByNoteKey(noteID string) string { return "section:note:" + noteID }

// PagesBySectionKey holds the list of pages of a section.
func PagesBySectionKey(sectionID string) string { return "section:" + sectionID + ":pages" }
