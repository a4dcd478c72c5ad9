package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/oprema/internal/db"
	"github.com/erazemk/oprema/internal/model"
)

const equipmentColumns = `id, name, available_quantity, image_mime, created_at, deleted_at`

// CreateEquipment returns the active equipment named name, creating it with
// no stock when no equipment matches case-insensitively.
func CreateEquipment(ctx context.Context, q db.DBTX, name string) (*model.Equipment, error) {
	id, err := ensureNamed(ctx, q, "equipment", name)
	if err != nil {
		return nil, fmt.Errorf("creating equipment: %w", err)
	}
	return GetEquipment(ctx, q, id)
}

// GetEquipment returns an equipment type by ID, including soft-deleted ones.
func GetEquipment(ctx context.Context, q db.DBTX, id int64) (*model.Equipment, error) {
	e, err := scanEquipment(q.QueryRowContext(ctx,
		`SELECT `+equipmentColumns+` FROM equipment WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting equipment: %w", err)
	}
	return e, nil
}

// ListEquipment returns all active equipment types.
func ListEquipment(ctx context.Context, q db.DBTX) ([]model.Equipment, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+equipmentColumns+` FROM equipment WHERE deleted_at IS NULL ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing equipment: %w", err)
	}
	defer rows.Close()

	var list []model.Equipment
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning equipment: %w", err)
		}
		list = append(list, *e)
	}
	return list, rows.Err()
}

func scanEquipment(row rowScanner) (*model.Equipment, error) {
	e := &model.Equipment{}
	var imageMime sql.NullString
	if err := row.Scan(&e.ID, &e.Name, &e.AvailableQuantity, &imageMime, &e.CreatedAt, &e.DeletedAt); err != nil {
		return nil, err
	}
	e.ImageMime = imageMime.String
	return e, nil
}

// UpdateEquipment renames an equipment type.
func UpdateEquipment(ctx context.Context, q db.DBTX, id int64, name string) error {
	return renameNamed(ctx, q, "equipment", id, name)
}

// DeleteEquipment soft-deletes an equipment type.
func DeleteEquipment(ctx context.Context, q db.DBTX, id int64) error {
	return softDelete(ctx, q, "equipment", id)
}

// SetAvailableQuantity sets the storeroom stock of one equipment type. Stock
// is kept by hand and is not derived from the ledgers.
func SetAvailableQuantity(ctx context.Context, q db.DBTX, id int64, quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("setting available quantity: %w", ErrInvalidQuantity)
	}
	return execAffectingOne(ctx, q, "setting available quantity",
		`UPDATE equipment SET available_quantity = ? WHERE id = ? AND deleted_at IS NULL`, quantity, id)
}

// SetAllAvailableQuantity sets the stock of every active equipment type and
// returns how many were updated.
func SetAllAvailableQuantity(ctx context.Context, q db.DBTX, quantity int) (int64, error) {
	if quantity < 0 {
		return 0, fmt.Errorf("setting available quantity: %w", ErrInvalidQuantity)
	}
	result, err := q.ExecContext(ctx,
		`UPDATE equipment SET available_quantity = ? WHERE deleted_at IS NULL`, quantity,
	)
	if err != nil {
		return 0, fmt.Errorf("setting available quantity: %w", err)
	}
	return result.RowsAffected()
}

// SetEquipmentImage stores a photo for an equipment type.
func SetEquipmentImage(ctx context.Context, q db.DBTX, id int64, image []byte, mime string) error {
	return execAffectingOne(ctx, q, "setting equipment image",
		`UPDATE equipment SET image = ?, image_mime = ? WHERE id = ? AND deleted_at IS NULL`, image, mime, id)
}

// GetEquipmentImage returns the photo of an equipment type and its MIME type.
// It returns nil data when the equipment has no photo.
func GetEquipmentImage(ctx context.Context, q db.DBTX, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := q.QueryRowContext(ctx,
		`SELECT image, image_mime FROM equipment WHERE id = ? AND deleted_at IS NULL`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting equipment image: %w", err)
	}
	return image, mime.String, nil
}
