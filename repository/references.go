package repository

import (
	"context"
	"database/sql"
)

// Ordered reference lists (note→sections, section→pages) live in join tables
// keyed by (parent, child) with an explicit position column.

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func readReferences(ctx context.Context, q queryer, query, parentID string) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// writeReferences replaces the child list of parentID inside tx.
func writeReferences(ctx context.Context, tx *sql.Tx, table, parentCol, childCol, parentID string, children []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE `+parentCol+` = ?`, parentID); err != nil {
		return err
	}
	for i, child := range children {
		_, err := tx.ExecContext(ctx, `INSERT INTO `+table+` (`+parentCol+`, `+childCol+`, position) VALUES (?,?,?)`, parentID, child, i)
		if err != nil {
			return err
		}
	}
	return nil
}

// pullReference removes childID from every list in table and reports the parents
// that referenced it.
func pullReference(ctx context.Context, d *sql.DB, table, parentCol, childCol, childID string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout)
	defer cancel()

	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	parents, err := readReferences(ctx, tx, `SELECT `+parentCol+` FROM `+table+` WHERE `+childCol+` = ? ORDER BY `+parentCol, childID)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE `+childCol+` = ?`, childID); err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return parents, nil
}
