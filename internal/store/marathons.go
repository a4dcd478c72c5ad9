package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/oprema/internal/db"
	"github.com/erazemk/oprema/internal/model"
)

const marathonColumns = `id, name, created_at, deleted_at`

// CreateMarathon returns the active marathon named name, creating it when no
// marathon matches case-insensitively.
func CreateMarathon(ctx context.Context, q db.DBTX, name string) (*model.Marathon, error) {
	id, err := ensureNamed(ctx, q, "marathons", name)
	if err != nil {
		return nil, fmt.Errorf("creating marathon: %w", err)
	}
	return GetMarathon(ctx, q, id)
}

// GetMarathon returns a marathon by ID, including soft-deleted ones.
func GetMarathon(ctx context.Context, q db.DBTX, id int64) (*model.Marathon, error) {
	m := &model.Marathon{}
	err := q.QueryRowContext(ctx,
		`SELECT `+marathonColumns+` FROM marathons WHERE id = ?`, id,
	).Scan(&m.ID, &m.Name, &m.CreatedAt, &m.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting marathon: %w", err)
	}
	return m, nil
}

// ListMarathons returns all active marathons.
func ListMarathons(ctx context.Context, q db.DBTX) ([]model.Marathon, error) {
	return queryMarathons(ctx, q,
		`SELECT `+marathonColumns+` FROM marathons WHERE deleted_at IS NULL ORDER BY name`)
}

// ListMarathonsForActor returns the marathons the actor may work on.
func ListMarathonsForActor(ctx context.Context, q db.DBTX, actor model.Actor) ([]model.Marathon, error) {
	if actor.SeesAllMarathons() {
		return ListMarathons(ctx, q)
	}
	return queryMarathons(ctx, q,
		`SELECT m.id, m.name, m.created_at, m.deleted_at
		 FROM marathons m
		 JOIN user_marathons um ON um.marathon_id = m.id
		 WHERE um.user_id = ? AND m.deleted_at IS NULL
		 ORDER BY m.name`, actor.UserID)
}

func queryMarathons(ctx context.Context, q db.DBTX, query string, args ...any) ([]model.Marathon, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing marathons: %w", err)
	}
	defer rows.Close()

	var marathons []model.Marathon
	for rows.Next() {
		var m model.Marathon
		if err := rows.Scan(&m.ID, &m.Name, &m.CreatedAt, &m.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning marathon: %w", err)
		}
		marathons = append(marathons, m)
	}
	return marathons, rows.Err()
}

// UpdateMarathon renames a marathon.
func UpdateMarathon(ctx context.Context, q db.DBTX, id int64, name string) error {
	return renameNamed(ctx, q, "marathons", id, name)
}

// DeleteMarathon soft-deletes a marathon. Its ledger rows are kept.
func DeleteMarathon(ctx context.Context, q db.DBTX, id int64) error {
	return softDelete(ctx, q, "marathons", id)
}

// AssignMarathon gives a user access to a marathon.
func AssignMarathon(ctx context.Context, q db.DBTX, userID, marathonID int64) error {
	_, err := q.ExecContext(ctx,
		`INSERT OR IGNORE INTO user_marathons (user_id, marathon_id) VALUES (?, ?)`,
		userID, marathonID,
	)
	if err != nil {
		return fmt.Errorf("assigning marathon: %w", err)
	}
	return nil
}

// UnassignMarathon removes a user's access to a marathon.
func UnassignMarathon(ctx context.Context, q db.DBTX, userID, marathonID int64) error {
	_, err := q.ExecContext(ctx,
		`DELETE FROM user_marathons WHERE user_id = ? AND marathon_id = ?`,
		userID, marathonID,
	)
	if err != nil {
		return fmt.Errorf("unassigning marathon: %w", err)
	}
	return nil
}

// SetUserMarathons replaces the set of marathons assigned to a user.
func SetUserMarathons(ctx context.Context, conn *sql.DB, userID int64, marathonIDs []int64) error {
	return db.RunInTx(ctx, conn, func(tx db.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM user_marathons WHERE user_id = ?`, userID); err != nil {
			return fmt.Errorf("clearing marathon assignments: %w", err)
		}
		for _, id := range marathonIDs {
			if err := AssignMarathon(ctx, tx, userID, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListUserMarathonIDs returns the ids of the marathons assigned to a user.
func ListUserMarathonIDs(ctx context.Context, q db.DBTX, userID int64) ([]int64, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT marathon_id FROM user_marathons WHERE user_id = ? ORDER BY marathon_id`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing marathon assignments: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning marathon assignment: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CanAccessMarathon reports whether the actor may read or write ledger rows of
// the given marathon.
func CanAccessMarathon(ctx context.Context, q db.DBTX, actor model.Actor, marathonID int64) (bool, error) {
	if actor.SeesAllMarathons() {
		return true, nil
	}

	var one int
	err := q.QueryRowContext(ctx,
		`SELECT 1 FROM user_marathons WHERE user_id = ? AND marathon_id = ?`,
		actor.UserID, marathonID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking marathon access: %w", err)
	}
	return true, nil
}
