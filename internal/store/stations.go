package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/oprema/internal/db"
	"github.com/erazemk/oprema/internal/model"
)

// CreateStation returns the active station named name, creating it when no
// station matches case-insensitively.
func CreateStation(ctx context.Context, q db.DBTX, name string) (*model.Station, error) {
	id, err := ensureNamed(ctx, q, "stations", name)
	if err != nil {
		return nil, fmt.Errorf("creating station: %w", err)
	}
	return GetStation(ctx, q, id)
}

// GetStation returns a station by ID, including soft-deleted ones.
func GetStation(ctx context.Context, q db.DBTX, id int64) (*model.Station, error) {
	s := &model.Station{}
	err := q.QueryRowContext(ctx,
		`SELECT id, name, created_at, deleted_at FROM stations WHERE id = ?`, id,
	).Scan(&s.ID, &s.Name, &s.CreatedAt, &s.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting station: %w", err)
	}
	return s, nil
}

// ListStations returns all active stations.
func ListStations(ctx context.Context, q db.DBTX) ([]model.Station, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, name, created_at, deleted_at FROM stations WHERE deleted_at IS NULL ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing stations: %w", err)
	}
	defer rows.Close()

	var stations []model.Station
	for rows.Next() {
		var s model.Station
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt, &s.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning station: %w", err)
		}
		stations = append(stations, s)
	}
	return stations, rows.Err()
}

// UpdateStation renames a station.
func UpdateStation(ctx context.Context, q db.DBTX, id int64, name string) error {
	return renameNamed(ctx, q, "stations", id, name)
}

// DeleteStation soft-deletes a station.
func DeleteStation(ctx context.Context, q db.DBTX, id int64) error {
	return softDelete(ctx, q, "stations", id)
}
