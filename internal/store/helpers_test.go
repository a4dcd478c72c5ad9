package store

import (
	"context"
	"database/sql"
	"strconv"
	"testing"

	"github.com/erazemk/oprema/internal/model"
)

func newActor(t *testing.T, database *sql.DB, username, role string) model.Actor {
	t.Helper()
	u, err := CreateUser(context.Background(), database, username, "hash", role)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return model.Actor{UserID: u.ID, Username: u.Username, Role: u.Role}
}

func mustMarathon(t *testing.T, database *sql.DB, name string) *model.Marathon {
	t.Helper()
	m, err := CreateMarathon(context.Background(), database, name)
	if err != nil {
		t.Fatalf("CreateMarathon: %v", err)
	}
	return m
}

func mustStation(t *testing.T, database *sql.DB, name string) *model.Station {
	t.Helper()
	s, err := CreateStation(context.Background(), database, name)
	if err != nil {
		t.Fatalf("CreateStation: %v", err)
	}
	return s
}

func mustEquipment(t *testing.T, database *sql.DB, name string) *model.Equipment {
	t.Helper()
	e, err := CreateEquipment(context.Background(), database, name)
	if err != nil {
		t.Fatalf("CreateEquipment: %v", err)
	}
	return e
}

// record appends one single-line submission and fails the test on error.
func record(t *testing.T, database *sql.DB, actor model.Actor, kind model.Kind, marathonID, stationID, equipmentID int64, qty int) {
	t.Helper()
	sub := model.LedgerSubmission{
		Kind:     kind,
		Marathon: model.Ref{ID: marathonID},
		Station:  model.Ref{ID: stationID},
		Person:   "Ana",
		Lines:    []model.LedgerLine{{Equipment: model.EquipmentSelector{ID: equipmentID}, Quantity: qty}},
	}
	if _, err := AppendLedger(context.Background(), database, actor, sub); err != nil {
		t.Fatalf("AppendLedger(%s): %v", kind, err)
	}
}

func countRows(t *testing.T, database *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := database.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n); err != nil {
		t.Fatalf("counting %s: %v", table, err)
	}
	return n
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
