package store

import (
	"context"
	"fmt"

	"github.com/erazemk/oprema/internal/db"
	"github.com/erazemk/oprema/internal/model"
)

// lookupByName returns the id of the active row in table whose name matches
// name ignoring case, or 0 when there is none. table is one of the name-keyed
// reference tables and never user input.
func lookupByName(ctx context.Context, q db.DBTX, table, name string) (int64, error) {
	name = model.NormalizeName(name)
	if name == "" {
		return 0, nil
	}

	rows, err := q.QueryContext(ctx,
		`SELECT id, name FROM `+table+` WHERE deleted_at IS NULL ORDER BY id`,
	)
	if err != nil {
		return 0, fmt.Errorf("looking up %s name: %w", table, err)
	}
	defer rows.Close()

	want := model.FoldName(name)
	for rows.Next() {
		var id int64
		var existing string
		if err := rows.Scan(&id, &existing); err != nil {
			return 0, fmt.Errorf("scanning %s name: %w", table, err)
		}
		if model.FoldName(existing) == want {
			return id, nil
		}
	}
	return 0, rows.Err()
}

// ensureNamed returns the id of the active row named name, inserting a new
// row when no case-insensitive match exists.
func ensureNamed(ctx context.Context, q db.DBTX, table, name string) (int64, error) {
	name = model.NormalizeName(name)
	if name == "" {
		return 0, ErrNameRequired
	}

	id, err := lookupByName(ctx, q, table, name)
	if err != nil || id > 0 {
		return id, err
	}

	result, err := q.ExecContext(ctx, `INSERT INTO `+table+` (name) VALUES (?)`, name)
	if err != nil {
		return 0, fmt.Errorf("creating %s row: %w", table, err)
	}
	return result.LastInsertId()
}

// renameNamed renames an active row, refusing a name already used by another
// active row.
func renameNamed(ctx context.Context, q db.DBTX, table string, id int64, name string) error {
	name = model.NormalizeName(name)
	if name == "" {
		return ErrNameRequired
	}

	existing, err := lookupByName(ctx, q, table, name)
	if err != nil {
		return err
	}
	if existing > 0 && existing != id {
		return fmt.Errorf("renaming %s row: %w", table, ErrNameTaken)
	}

	return execAffectingOne(ctx, q, "renaming "+table+" row",
		`UPDATE `+table+` SET name = ? WHERE id = ? AND deleted_at IS NULL`, name, id)
}

func softDelete(ctx context.Context, q db.DBTX, table string, id int64) error {
	return execAffectingOne(ctx, q, "deleting "+table+" row",
		`UPDATE `+table+` SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`, id)
}
