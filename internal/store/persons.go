package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/oprema/internal/db"
	"github.com/erazemk/oprema/internal/model"
)

// GetPersonByName returns the person with exactly this name, or nil.
func GetPersonByName(ctx context.Context, q db.DBTX, name string) (*model.Person, error) {
	p := &model.Person{}
	err := q.QueryRowContext(ctx,
		`SELECT id, name FROM persons WHERE name = ?`, name,
	).Scan(&p.ID, &p.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting person: %w", err)
	}
	return p, nil
}

// CreatePerson inserts a person.
func CreatePerson(ctx context.Context, q db.DBTX, name string) (*model.Person, error) {
	result, err := q.ExecContext(ctx, `INSERT INTO persons (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("creating person: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting person id: %w", err)
	}
	return &model.Person{ID: id, Name: name}, nil
}

// ListPersonNames returns every known person name in alphabetical order.
func ListPersonNames(ctx context.Context, q db.DBTX) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT name FROM persons ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing persons: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning person: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
