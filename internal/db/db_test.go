package db

import "testing"

func TestOpen_AppliesMigrations(t *testing.T) {
	d, err := Open("file:dbtest_open?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	for _, table := range []string{"users", "notes", "sections", "pages", "note_sections", "section_pages"} {
		var name string
		err := d.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Fatalf("table %s missing: %v", table, err)
		}
	}

	var fk int
	if err := d.QueryRow(`PRAGMA foreign_keys`).Scan(&fk); err != nil || fk != 1 {
		t.Fatalf("foreign keys not enabled: fk=%d err=%v", fk, err)
	}
}

func TestRollbackLast(t *testing.T) {
	d, err := Open("file:dbtest_rollback?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	if err := RollbackLast(d); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	var n int
	if err := d.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='notes'`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("notes table still present after rollback")
	}
	// Nothing left to roll back.
	if err := RollbackLast(d); err != nil {
		t.Fatalf("second rollback: %v", err)
	}
}

func TestWithForeignKeys(t *testing.T) {
	cases := [][2]string{
		{"app.db", "app.db?_foreign_keys=on"},
		{"file:x?mode=memory", "file:x?mode=memory&_foreign_keys=on"},
		{"file:x", "file:x?_foreign_keys=on"},
		{"file:x?_foreign_keys=off", "file:x?_foreign_keys=off"},
	}
	for _, c := range cases {
		if got := withForeignKeys(c[0]); got != c[1] {
			t.Errorf("withForeignKeys(%q) = %q, want %q", c[0], got, c[1])
		}
	}
}
