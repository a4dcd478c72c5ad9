package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/oprema/internal/db"
	"github.com/erazemk/oprema/internal/model"
)

// All report figures are summed from the ledger tables on every read.

// ListOutstanding returns, per station and equipment of a marathon, the
// quantity issued but not yet returned. Only positive balances are listed.
// A stationID of 0 covers every station, including unassigned rows.
func ListOutstanding(ctx context.Context, q db.DBTX, marathonID, stationID int64) ([]model.Outstanding, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT i.station_id, s.name, i.equipment_id, e.name, i.qty - COALESCE(r.qty, 0)
		FROM (
			SELECT station_id, equipment_id, SUM(quantity) AS qty
			FROM issue_records
			WHERE marathon_id = ? AND (? = 0 OR station_id = ?)
			GROUP BY station_id, equipment_id
		) i
		LEFT JOIN (
			SELECT station_id, equipment_id, SUM(quantity) AS qty
			FROM return_records
			WHERE marathon_id = ? AND (? = 0 OR station_id = ?)
			GROUP BY station_id, equipment_id
		) r ON r.equipment_id = i.equipment_id AND r.station_id IS i.station_id
		LEFT JOIN stations s ON s.id = i.station_id AND s.deleted_at IS NULL
		LEFT JOIN equipment e ON e.id = i.equipment_id AND e.deleted_at IS NULL
		WHERE i.qty - COALESCE(r.qty, 0) > 0
		ORDER BY i.station_id IS NULL, s.name, i.station_id, e.name, i.equipment_id`,
		marathonID, stationID, stationID,
		marathonID, stationID, stationID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing outstanding equipment: %w", err)
	}
	defer rows.Close()

	var list []model.Outstanding
	for rows.Next() {
		var o model.Outstanding
		var stationID sql.NullInt64
		var stationName, equipmentName sql.NullString
		if err := rows.Scan(&stationID, &stationName, &o.EquipmentID, &equipmentName, &o.Missing); err != nil {
			return nil, fmt.Errorf("scanning outstanding equipment: %w", err)
		}
		if stationID.Valid {
			id := stationID.Int64
			o.StationID = &id
		}
		o.StationName = displayName(stationName)
		o.EquipmentName = displayName(equipmentName)
		list = append(list, o)
	}
	return list, rows.Err()
}

// sumByEquipment is a per-equipment quantity total of one ledger for one
// marathon, for use as a joined subquery.
func sumByEquipment(table string) string {
	return `(SELECT equipment_id, SUM(quantity) AS qty FROM ` + table +
		` WHERE marathon_id = ? GROUP BY equipment_id)`
}

// EquipmentSummary returns the four ledger totals of a marathon for every
// active equipment type, with the derived differences filled in. Equipment
// without activity is listed with zeros. Deleted equipment stays listed under
// the placeholder name while the marathon has ledger rows for it.
func EquipmentSummary(ctx context.Context, q db.DBTX, marathonID int64) ([]model.EquipmentSummary, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT e.id, e.name, e.deleted_at IS NOT NULL,
			COALESCE(i.qty, 0), COALESCE(r.qty, 0), COALESCE(si.qty, 0), COALESCE(sr.qty, 0)
		FROM equipment e
		LEFT JOIN `+sumByEquipment("issue_records")+` i ON i.equipment_id = e.id
		LEFT JOIN `+sumByEquipment("return_records")+` r ON r.equipment_id = e.id
		LEFT JOIN `+sumByEquipment("store_issue_records")+` si ON si.equipment_id = e.id
		LEFT JOIN `+sumByEquipment("store_return_records")+` sr ON sr.equipment_id = e.id
		WHERE e.deleted_at IS NULL
			OR i.qty IS NOT NULL OR r.qty IS NOT NULL OR si.qty IS NOT NULL OR sr.qty IS NOT NULL
		ORDER BY e.deleted_at IS NOT NULL, e.name, e.id`,
		marathonID, marathonID, marathonID, marathonID,
	)
	if err != nil {
		return nil, fmt.Errorf("summarising equipment: %w", err)
	}
	defer rows.Close()

	var list []model.EquipmentSummary
	for rows.Next() {
		var s model.EquipmentSummary
		var deleted bool
		if err := rows.Scan(&s.EquipmentID, &s.EquipmentName, &deleted, &s.Issued, &s.Returned, &s.StoreIssued, &s.StoreReturned); err != nil {
			return nil, fmt.Errorf("scanning equipment summary: %w", err)
		}
		if deleted {
			s.EquipmentName = model.UnknownLabel
		}
		s.Derive()
		list = append(list, s)
	}
	return list, rows.Err()
}

// ListStoreOutstanding returns equipment returned from stations but not yet
// checked back into the store. Only positive quantities are listed.
func ListStoreOutstanding(ctx context.Context, q db.DBTX, marathonID int64) ([]model.StoreOutstanding, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT r.equipment_id, e.name, r.qty, COALESCE(sr.qty, 0), r.qty - COALESCE(sr.qty, 0)
		FROM `+sumByEquipment("return_records")+` r
		LEFT JOIN `+sumByEquipment("store_return_records")+` sr ON sr.equipment_id = r.equipment_id
		LEFT JOIN equipment e ON e.id = r.equipment_id AND e.deleted_at IS NULL
		WHERE r.qty - COALESCE(sr.qty, 0) > 0
		ORDER BY e.name, r.equipment_id`,
		marathonID, marathonID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing store outstanding: %w", err)
	}
	defer rows.Close()

	var list []model.StoreOutstanding
	for rows.Next() {
		var s model.StoreOutstanding
		var name sql.NullString
		if err := rows.Scan(&s.EquipmentID, &name, &s.Returned, &s.StoreReturned, &s.Available); err != nil {
			return nil, fmt.Errorf("scanning store outstanding: %w", err)
		}
		s.EquipmentName = displayName(name)
		list = append(list, s)
	}
	return list, rows.Err()
}

// TransactionHistory returns the ledger rows of a marathon in scope, newest
// first. Rows without a timestamp come last.
func TransactionHistory(ctx context.Context, q db.DBTX, marathonID int64, scope model.TransactionScope) ([]model.Transaction, error) {
	var txs []model.Transaction
	for _, kind := range scope.Kinds() {
		list, err := kindTransactions(ctx, q, kind, marathonID)
		if err != nil {
			return nil, err
		}
		txs = append(txs, list...)
	}
	model.SortTransactions(txs)
	return txs, nil
}

func kindTransactions(ctx context.Context, q db.DBTX, kind model.Kind, marathonID int64) ([]model.Transaction, error) {
	table, err := ledgerTable(kind)
	if err != nil {
		return nil, err
	}

	stationName, stationJoin := "NULL", ""
	if kind.HasStation() {
		stationName = "s.name"
		stationJoin = `LEFT JOIN stations s ON s.id = t.station_id AND s.deleted_at IS NULL`
	}

	rows, err := q.QueryContext(ctx, `
		SELECT t.id, t.recorded_at, m.name, `+stationName+`, e.name, t.quantity, t.person_name
		FROM `+table+` t
		LEFT JOIN marathons m ON m.id = t.marathon_id AND m.deleted_at IS NULL
		`+stationJoin+`
		LEFT JOIN equipment e ON e.id = t.equipment_id AND e.deleted_at IS NULL
		WHERE t.marathon_id = ?
		ORDER BY t.id`,
		marathonID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing %s transactions: %w", kind, err)
	}
	defer rows.Close()

	var list []model.Transaction
	for rows.Next() {
		t := model.Transaction{Kind: kind}
		var recordedAt sql.NullTime
		var marathon, station, equipment sql.NullString
		if err := rows.Scan(&t.ID, &recordedAt, &marathon, &station, &equipment, &t.Quantity, &t.PersonName); err != nil {
			return nil, fmt.Errorf("scanning %s transaction: %w", kind, err)
		}
		if recordedAt.Valid {
			ts := recordedAt.Time
			t.RecordedAt = &ts
		}
		t.MarathonName = displayName(marathon)
		if kind.HasStation() {
			t.StationName = displayName(station)
		}
		t.EquipmentName = displayName(equipment)
		list = append(list, t)
	}
	return list, rows.Err()
}

// MarathonReport assembles the event report of a marathon from one consistent
// snapshot of the ledgers.
func MarathonReport(ctx context.Context, conn *sql.DB, marathonID int64) (*model.MarathonReport, error) {
	report := &model.MarathonReport{}
	err := db.RunInTx(ctx, conn, func(tx db.DBTX) error {
		m, err := GetMarathon(ctx, tx, marathonID)
		if err != nil {
			return err
		}
		if m == nil {
			return fmt.Errorf("marathon %d: %w", marathonID, ErrNotFound)
		}
		report.Marathon = m

		if report.Summary, err = EquipmentSummary(ctx, tx, marathonID); err != nil {
			return err
		}
		outstanding, err := ListOutstanding(ctx, tx, marathonID, 0)
		if err != nil {
			return err
		}
		report.StationDetails = model.GroupByStation(outstanding)
		report.Transactions, err = TransactionHistory(ctx, tx, marathonID, model.ScopeStation)
		return err
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// StoreReport assembles the store reconciliation of a marathon from one
// consistent snapshot of the ledgers.
func StoreReport(ctx context.Context, conn *sql.DB, marathonID int64) (*model.StoreReport, error) {
	report := &model.StoreReport{}
	err := db.RunInTx(ctx, conn, func(tx db.DBTX) error {
		m, err := GetMarathon(ctx, tx, marathonID)
		if err != nil {
			return err
		}
		if m == nil {
			return fmt.Errorf("marathon %d: %w", marathonID, ErrNotFound)
		}
		report.Marathon = m

		if report.Reconciliation, err = EquipmentSummary(ctx, tx, marathonID); err != nil {
			return err
		}
		if report.StoreOutstanding, err = ListStoreOutstanding(ctx, tx, marathonID); err != nil {
			return err
		}
		report.Transactions, err = TransactionHistory(ctx, tx, marathonID, model.ScopeStore)
		return err
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func displayName(name sql.NullString) string {
	if !name.Valid || name.String == "" {
		return model.UnknownLabel
	}
	return name.String
}
