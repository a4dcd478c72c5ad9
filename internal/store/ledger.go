package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/oprema/internal/db"
	"github.com/erazemk/oprema/internal/model"
)

var ledgerTables = map[model.Kind]string{
	model.KindIssue:       "issue_records",
	model.KindReturn:      "return_records",
	model.KindStoreIssue:  "store_issue_records",
	model.KindStoreReturn: "store_return_records",
}

func ledgerTable(kind model.Kind) (string, error) {
	table, ok := ledgerTables[kind]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return table, nil
}

// recordColumns selects a ledger row in Record field order. Store ledgers have
// no station column.
func recordColumns(kind model.Kind) string {
	station := "station_id"
	if !kind.HasStation() {
		station = "NULL"
	}
	return `id, marathon_id, ` + station + `, equipment_id, person_name, quantity, recorded_at, created_by`
}

// AppendResult reports the outcome of one ledger submission.
type AppendResult struct {
	Records []model.Record `json:"records"`
	Skipped int            `json:"skipped"`
}

// AppendLedger records one submission. Marathon, station, person and new
// equipment are resolved or created, and every valid line becomes one ledger
// row. Lines with a non-positive quantity or no usable equipment are skipped.
// Everything commits together, and nothing is written when the actor may not
// use the marathon.
func AppendLedger(ctx context.Context, conn *sql.DB, actor model.Actor, sub model.LedgerSubmission) (*AppendResult, error) {
	table, err := ledgerTable(sub.Kind)
	if err != nil {
		return nil, err
	}
	if sub.Kind.IsStore() && !model.RoleAtLeast(actor.Role, model.RoleStorekeeper) {
		return nil, fmt.Errorf("recording %s: %w", sub.Kind, ErrForbidden)
	}

	result := &AppendResult{}
	err = db.RunInTx(ctx, conn, func(tx db.DBTX) error {
		marathonID, err := authorizeMarathon(ctx, tx, actor, sub.Marathon)
		if err != nil {
			return err
		}

		var stationID *int64
		if sub.Kind.HasStation() {
			if stationID, err = ResolveStation(ctx, tx, sub.Station); err != nil {
				return err
			}
		}

		person, err := ResolvePerson(ctx, tx, sub.Person)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		var createdBy *int64
		if actor.UserID > 0 {
			createdBy = &actor.UserID
		}
		for _, line := range sub.Lines {
			if line.Quantity <= 0 {
				result.Skipped++
				continue
			}
			equipmentID, err := ResolveEquipment(ctx, tx, line.Equipment)
			if err != nil {
				return err
			}
			if equipmentID == 0 {
				result.Skipped++
				continue
			}

			rec := model.Record{
				Kind:        sub.Kind,
				MarathonID:  marathonID,
				StationID:   stationID,
				EquipmentID: equipmentID,
				PersonName:  person,
				Quantity:    line.Quantity,
				RecordedAt:  &now,
				CreatedBy:   createdBy,
			}
			if rec.ID, err = insertRecord(ctx, tx, table, rec); err != nil {
				return err
			}
			result.Records = append(result.Records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// authorizeMarathon resolves the submission's marathon and checks the actor
// may use it. Only privileged roles may submit without a marathon or create
// one by name.
func authorizeMarathon(ctx context.Context, q db.DBTX, actor model.Actor, ref model.Ref) (*int64, error) {
	if ref.IsZero() {
		if !actor.SeesAllMarathons() {
			return nil, fmt.Errorf("recording without marathon: %w", ErrForbidden)
		}
		return nil, nil
	}

	id := ref.ID
	if id <= 0 {
		existing, err := lookupByName(ctx, q, "marathons", ref.Name)
		if err != nil {
			return nil, err
		}
		if existing == 0 {
			if !actor.SeesAllMarathons() {
				return nil, fmt.Errorf("creating marathon: %w", ErrForbidden)
			}
			return ResolveMarathon(ctx, q, ref)
		}
		id = existing
	}

	resolved, err := ResolveMarathon(ctx, q, model.Ref{ID: id})
	if err != nil {
		return nil, err
	}
	ok, err := CanAccessMarathon(ctx, q, actor, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("recording for marathon %d: %w", id, ErrForbidden)
	}
	return resolved, nil
}

func insertRecord(ctx context.Context, q db.DBTX, table string, rec model.Record) (int64, error) {
	var result sql.Result
	var err error
	if rec.Kind.HasStation() {
		result, err = q.ExecContext(ctx,
			`INSERT INTO `+table+` (marathon_id, station_id, equipment_id, person_name, quantity, recorded_at, created_by)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rec.MarathonID, rec.StationID, rec.EquipmentID, rec.PersonName, rec.Quantity, rec.RecordedAt, rec.CreatedBy,
		)
	} else {
		result, err = q.ExecContext(ctx,
			`INSERT INTO `+table+` (marathon_id, equipment_id, person_name, quantity, recorded_at, created_by)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			rec.MarathonID, rec.EquipmentID, rec.PersonName, rec.Quantity, rec.RecordedAt, rec.CreatedBy,
		)
	}
	if err != nil {
		return 0, fmt.Errorf("inserting %s record: %w", rec.Kind, err)
	}
	return result.LastInsertId()
}

// GetRecord returns one ledger row, or nil when it does not exist.
func GetRecord(ctx context.Context, q db.DBTX, kind model.Kind, id int64) (*model.Record, error) {
	table, err := ledgerTable(kind)
	if err != nil {
		return nil, err
	}

	rec := &model.Record{Kind: kind}
	var recordedAt sql.NullTime
	err = q.QueryRowContext(ctx,
		`SELECT `+recordColumns(kind)+` FROM `+table+` WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.MarathonID, &rec.StationID, &rec.EquipmentID, &rec.PersonName, &rec.Quantity, &recordedAt, &rec.CreatedBy)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting %s record: %w", kind, err)
	}
	if recordedAt.Valid {
		rec.RecordedAt = &recordedAt.Time
	}
	return rec, nil
}

// RecordUpdate holds the editable fields of a ledger row. StationID is
// ignored for store ledgers.
type RecordUpdate struct {
	MarathonID  *int64 `json:"marathon_id"`
	StationID   *int64 `json:"station_id"`
	EquipmentID int64  `json:"equipment_id"`
	PersonName  string `json:"person_name"`
	Quantity    int    `json:"quantity"`
}

// UpdateRecord overwrites the fields of a ledger row.
func UpdateRecord(ctx context.Context, q db.DBTX, kind model.Kind, id int64, u RecordUpdate) error {
	table, err := ledgerTable(kind)
	if err != nil {
		return err
	}
	if u.Quantity <= 0 {
		return fmt.Errorf("updating %s record: %w", kind, ErrInvalidQuantity)
	}
	if u.EquipmentID <= 0 {
		return fmt.Errorf("updating %s record: %w", kind, ErrNoEquipment)
	}
	person := model.NormalizeName(u.PersonName)
	if person == "" {
		person = model.UnknownPerson
	}

	if kind.HasStation() {
		return execAffectingOne(ctx, q, "updating "+string(kind)+" record",
			`UPDATE `+table+` SET marathon_id = ?, station_id = ?, equipment_id = ?, person_name = ?, quantity = ?
			 WHERE id = ?`,
			u.MarathonID, u.StationID, u.EquipmentID, person, u.Quantity, id)
	}
	return execAffectingOne(ctx, q, "updating "+string(kind)+" record",
		`UPDATE `+table+` SET marathon_id = ?, equipment_id = ?, person_name = ?, quantity = ?
		 WHERE id = ?`,
		u.MarathonID, u.EquipmentID, person, u.Quantity, id)
}

// DeleteRecord removes a ledger row permanently.
func DeleteRecord(ctx context.Context, q db.DBTX, kind model.Kind, id int64) error {
	table, err := ledgerTable(kind)
	if err != nil {
		return err
	}
	return execAffectingOne(ctx, q, "deleting "+string(kind)+" record",
		`DELETE FROM `+table+` WHERE id = ?`, id)
}
