package store

import (
	"context"
	"reflect"
	"testing"

	"github.com/erazemk/oprema/internal/db"
	"github.com/erazemk/oprema/internal/model"
)

func TestEquipmentSummaryWithoutActivity(t *testing.T) {
	database := db.NewTestDB(t)
	m := mustMarathon(t, database, "Spring10k")
	mustEquipment(t, database, "Cones")
	mustEquipment(t, database, "Cups")

	summary, err := EquipmentSummary(context.Background(), database, m.ID)
	if err != nil {
		t.Fatalf("EquipmentSummary: %v", err)
	}
	if len(summary) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(summary))
	}
	for _, s := range summary {
		if s.Issued != 0 || s.Returned != 0 || s.StoreIssued != 0 || s.StoreReturned != 0 || s.Remaining != 0 {
			t.Errorf("expected zeros for %s, got %+v", s.EquipmentName, s)
		}
	}
}

func TestOutstandingIssueThenReturn(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	admin := newActor(t, database, "admin", model.RoleAdmin)
	m := mustMarathon(t, database, "Spring10k")
	st := mustStation(t, database, "Station A")
	cones := mustEquipment(t, database, "Cones")

	record(t, database, admin, model.KindIssue, m.ID, st.ID, cones.ID, 5)
	record(t, database, admin, model.KindReturn, m.ID, st.ID, cones.ID, 2)

	outstanding, err := ListOutstanding(ctx, database, m.ID, 0)
	if err != nil {
		t.Fatalf("ListOutstanding: %v", err)
	}
	want := []model.Outstanding{{
		StationID: &st.ID, StationName: "Station A",
		EquipmentID: cones.ID, EquipmentName: "Cones", Missing: 3,
	}}
	if !reflect.DeepEqual(outstanding, want) {
		t.Errorf("unexpected outstanding:\n got %+v\nwant %+v", outstanding, want)
	}

	summary, _ := EquipmentSummary(ctx, database, m.ID)
	if len(summary) != 1 || summary[0].Issued != 5 || summary[0].Returned != 2 || summary[0].Remaining != 3 {
		t.Errorf("unexpected summary: %+v", summary)
	}

	again, _ := ListOutstanding(ctx, database, m.ID, 0)
	if !reflect.DeepEqual(outstanding, again) {
		t.Errorf("repeated read differs: %+v vs %+v", outstanding, again)
	}
}

func TestOutstandingMatchesUnassignedStations(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	admin := newActor(t, database, "admin", model.RoleAdmin)
	m := mustMarathon(t, database, "Spring10k")
	st := mustStation(t, database, "Station A")
	cones := mustEquipment(t, database, "Cones")

	record(t, database, admin, model.KindIssue, m.ID, 0, cones.ID, 4)
	record(t, database, admin, model.KindReturn, m.ID, 0, cones.ID, 1)
	record(t, database, admin, model.KindIssue, m.ID, st.ID, cones.ID, 2)
	record(t, database, admin, model.KindReturn, m.ID, st.ID, cones.ID, 2)

	outstanding, err := ListOutstanding(ctx, database, m.ID, 0)
	if err != nil {
		t.Fatalf("ListOutstanding: %v", err)
	}
	if len(outstanding) != 1 {
		t.Fatalf("expected only the unassigned row, got %+v", outstanding)
	}
	o := outstanding[0]
	if o.StationID != nil || o.StationName != model.UnknownLabel || o.Missing != 3 {
		t.Errorf("unexpected row: %+v", o)
	}

	filtered, _ := ListOutstanding(ctx, database, m.ID, st.ID)
	if len(filtered) != 0 {
		t.Errorf("expected balanced station, got %+v", filtered)
	}
}

func TestOutstandingScopedToMarathon(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	admin := newActor(t, database, "admin", model.RoleAdmin)
	a := mustMarathon(t, database, "A")
	b := mustMarathon(t, database, "B")
	cones := mustEquipment(t, database, "Cones")

	record(t, database, admin, model.KindIssue, a.ID, 0, cones.ID, 5)
	record(t, database, admin, model.KindReturn, b.ID, 0, cones.ID, 5)

	outstanding, _ := ListOutstanding(ctx, database, a.ID, 0)
	if len(outstanding) != 1 || outstanding[0].Missing != 5 {
		t.Errorf("returns of another marathon must not count: %+v", outstanding)
	}
}

func TestDeletingIssueRecordLowersIssued(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	admin := newActor(t, database, "admin", model.RoleAdmin)
	m := mustMarathon(t, database, "Spring10k")
	cones := mustEquipment(t, database, "Cones")

	record(t, database, admin, model.KindIssue, m.ID, 0, cones.ID, 5)
	record(t, database, admin, model.KindIssue, m.ID, 0, cones.ID, 3)

	var id int64
	database.QueryRow(`SELECT id FROM issue_records WHERE quantity = 3`).Scan(&id)
	if err := DeleteRecord(ctx, database, model.KindIssue, id); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}

	summary, _ := EquipmentSummary(ctx, database, m.ID)
	if summary[0].Issued != 5 || summary[0].Remaining != 5 {
		t.Errorf("expected issued=remaining=5, got %+v", summary[0])
	}
}

func TestStoreReconciliation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	admin := newActor(t, database, "admin", model.RoleAdmin)
	m := mustMarathon(t, database, "X")
	north := mustStation(t, database, "North")
	south := mustStation(t, database, "South")
	tents := mustEquipment(t, database, "Tents")

	record(t, database, admin, model.KindStoreIssue, m.ID, 0, tents.ID, 10)
	record(t, database, admin, model.KindIssue, m.ID, north.ID, tents.ID, 6)
	record(t, database, admin, model.KindIssue, m.ID, south.ID, tents.ID, 4)
	record(t, database, admin, model.KindReturn, m.ID, north.ID, tents.ID, 6)
	record(t, database, admin, model.KindReturn, m.ID, south.ID, tents.ID, 4)
	record(t, database, admin, model.KindStoreReturn, m.ID, 0, tents.ID, 7)

	storeOutstanding, err := ListStoreOutstanding(ctx, database, m.ID)
	if err != nil {
		t.Fatalf("ListStoreOutstanding: %v", err)
	}
	if len(storeOutstanding) != 1 || storeOutstanding[0].Available != 3 {
		t.Fatalf("expected available=3, got %+v", storeOutstanding)
	}

	summary, _ := EquipmentSummary(ctx, database, m.ID)
	s := summary[0]
	if s.StoreVsIssuedDiff != 0 || s.ReturnedVsStoreDiff != 3 {
		t.Errorf("expected diffs 0 and 3, got %d and %d", s.StoreVsIssuedDiff, s.ReturnedVsStoreDiff)
	}
	if s.Balanced() {
		t.Error("expected unbalanced reconciliation")
	}
}

func TestDeletedEquipmentStaysInSummary(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	admin := newActor(t, database, "admin", model.RoleAdmin)
	m := mustMarathon(t, database, "X")
	st := mustStation(t, database, "North")
	tents := mustEquipment(t, database, "Tents")
	unused := mustEquipment(t, database, "Unused")

	record(t, database, admin, model.KindStoreIssue, m.ID, 0, tents.ID, 10)
	record(t, database, admin, model.KindIssue, m.ID, st.ID, tents.ID, 10)
	record(t, database, admin, model.KindReturn, m.ID, st.ID, tents.ID, 4)
	if err := DeleteEquipment(ctx, database, tents.ID); err != nil {
		t.Fatalf("DeleteEquipment: %v", err)
	}
	if err := DeleteEquipment(ctx, database, unused.ID); err != nil {
		t.Fatalf("DeleteEquipment: %v", err)
	}

	summary, err := EquipmentSummary(ctx, database, m.ID)
	if err != nil {
		t.Fatalf("EquipmentSummary: %v", err)
	}
	if len(summary) != 1 {
		t.Fatalf("expected only the deleted equipment with activity, got %+v", summary)
	}
	s := summary[0]
	if s.EquipmentID != tents.ID || s.EquipmentName != model.UnknownLabel {
		t.Errorf("expected placeholder row for %d, got %+v", tents.ID, s)
	}
	if s.StoreIssued != 10 || s.Issued != 10 || s.Returned != 4 || s.Remaining != 6 {
		t.Errorf("expected totals to survive deletion, got %+v", s)
	}

	outstanding, _ := ListOutstanding(ctx, database, m.ID, 0)
	if len(outstanding) != 1 || outstanding[0].Missing != s.Remaining {
		t.Errorf("outstanding disagrees with summary: %+v", outstanding)
	}
}

func TestTransactionHistory(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	admin := newActor(t, database, "admin", model.RoleAdmin)
	m := mustMarathon(t, database, "Spring10k")
	st := mustStation(t, database, "Station A")
	cones := mustEquipment(t, database, "Cones")

	record(t, database, admin, model.KindIssue, m.ID, st.ID, cones.ID, 5)
	record(t, database, admin, model.KindReturn, m.ID, st.ID, cones.ID, 2)
	record(t, database, admin, model.KindStoreIssue, m.ID, 0, cones.ID, 5)
	database.Exec(`INSERT INTO issue_records (marathon_id, equipment_id, quantity) VALUES (?, ?, 1)`, m.ID, cones.ID)
	DeleteStation(ctx, database, st.ID)

	history, err := TransactionHistory(ctx, database, m.ID, model.ScopeStation)
	if err != nil {
		t.Fatalf("TransactionHistory: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 station transactions, got %d", len(history))
	}
	last := history[len(history)-1]
	if last.RecordedAt != nil || last.Quantity != 1 {
		t.Errorf("expected untimestamped row last, got %+v", last)
	}
	for _, tx := range history[:2] {
		if tx.StationName != model.UnknownLabel {
			t.Errorf("expected deleted station placeholder, got %q", tx.StationName)
		}
		if tx.MarathonName != "Spring10k" || tx.EquipmentName != "Cones" {
			t.Errorf("unexpected names: %+v", tx)
		}
	}

	store, _ := TransactionHistory(ctx, database, m.ID, model.ScopeStore)
	if len(store) != 1 || store[0].Kind != model.KindStoreIssue || store[0].StationName != "" {
		t.Errorf("unexpected store history: %+v", store)
	}
}

func TestMarathonReport(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	admin := newActor(t, database, "admin", model.RoleAdmin)
	m := mustMarathon(t, database, "Spring10k")
	st := mustStation(t, database, "Station A")
	cones := mustEquipment(t, database, "Cones")
	record(t, database, admin, model.KindIssue, m.ID, st.ID, cones.ID, 5)

	report, err := MarathonReport(ctx, database, m.ID)
	if err != nil {
		t.Fatalf("MarathonReport: %v", err)
	}
	if report.Marathon.Name != "Spring10k" || len(report.Summary) != 1 ||
		len(report.StationDetails) != 1 || len(report.Transactions) != 1 {
		t.Errorf("unexpected report: %+v", report)
	}

	storeReport, err := StoreReport(ctx, database, m.ID)
	if err != nil {
		t.Fatalf("StoreReport: %v", err)
	}
	if len(storeReport.Transactions) != 0 || len(storeReport.StoreOutstanding) != 0 {
		t.Errorf("unexpected store report: %+v", storeReport)
	}

	if _, err := MarathonReport(ctx, database, 999); err == nil {
		t.Error("expected error for missing marathon")
	}
}
