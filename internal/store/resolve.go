package store

import (
	"context"
	"fmt"

	"github.com/erazemk/oprema/internal/db"
	"github.com/erazemk/oprema/internal/model"
)

// Reference resolution runs inside the caller's transaction so rows created
// here commit or roll back together with the ledger rows that use them.
// Precedence is always: existing id, then case-insensitive name match, then
// create.

// ResolveMarathon returns the marathon id ref points at. A zero ref resolves
// to nil (unassigned). An id that does not name an active marathon returns
// ErrNotFound.
func ResolveMarathon(ctx context.Context, q db.DBTX, ref model.Ref) (*int64, error) {
	return resolveRef(ctx, q, "marathons", ref)
}

// ResolveStation returns the station id ref points at, with the same rules as
// ResolveMarathon.
func ResolveStation(ctx context.Context, q db.DBTX, ref model.Ref) (*int64, error) {
	return resolveRef(ctx, q, "stations", ref)
}

func resolveRef(ctx context.Context, q db.DBTX, table string, ref model.Ref) (*int64, error) {
	if ref.IsZero() {
		return nil, nil
	}

	if ref.ID > 0 {
		ok, err := activeRow(ctx, q, table, ref.ID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("resolving %s id %d: %w", table, ref.ID, ErrNotFound)
		}
		id := ref.ID
		return &id, nil
	}

	id, err := ensureNamed(ctx, q, table, ref.Name)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// ResolveEquipment returns the equipment id a grid row selects, creating new
// equipment for an unmatched name. It returns 0 when the row resolves to
// nothing usable, such as an id of deleted or unknown equipment.
func ResolveEquipment(ctx context.Context, q db.DBTX, sel model.EquipmentSelector) (int64, error) {
	if sel.ID > 0 {
		ok, err := activeRow(ctx, q, "equipment", sel.ID)
		if err != nil || !ok {
			return 0, err
		}
		return sel.ID, nil
	}
	if model.NormalizeName(sel.NewName) == "" {
		return 0, nil
	}
	return ensureNamed(ctx, q, "equipment", sel.NewName)
}

// ResolvePerson returns the stored name for a person, creating the person on
// first use. Names match exactly, case included. An empty name records the
// unknown person.
func ResolvePerson(ctx context.Context, q db.DBTX, name string) (string, error) {
	name = model.NormalizeName(name)
	if name == "" {
		name = model.UnknownPerson
	}

	p, err := GetPersonByName(ctx, q, name)
	if err != nil {
		return "", err
	}
	if p == nil {
		if _, err := CreatePerson(ctx, q, name); err != nil {
			return "", err
		}
	}
	return name, nil
}

func activeRow(ctx context.Context, q db.DBTX, table string, id int64) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM `+table+` WHERE id = ? AND deleted_at IS NULL`, id,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking %s row: %w", table, err)
	}
	return n > 0, nil
}
