package store

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/erazemk/oprema/internal/db"
	"github.com/erazemk/oprema/internal/model"
)

func TestAppendLedgerSkipsMalformedGridRows(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	admin := newActor(t, database, "admin", model.RoleAdmin)
	m := mustMarathon(t, database, "Spring10k")
	cones := mustEquipment(t, database, "Cones")
	cups := mustEquipment(t, database, "Cups")
	tents := mustEquipment(t, database, "Tents")

	lines, _ := model.ParseGrid(
		[]string{itoa(cones.ID), itoa(cups.ID), itoa(tents.ID)},
		nil,
		[]string{"abc", "0", "4"},
	)
	result, err := AppendLedger(ctx, database, admin, model.LedgerSubmission{
		Kind:     model.KindIssue,
		Marathon: model.Ref{ID: m.ID},
		Station:  model.Ref{Name: "Station A"},
		Lines:    lines,
	})
	if err != nil {
		t.Fatalf("AppendLedger: %v", err)
	}
	if len(result.Records) != 1 || result.Records[0].EquipmentID != tents.ID {
		t.Fatalf("expected one Tents row, got %+v", result.Records)
	}
	if n := countRows(t, database, "issue_records"); n != 1 {
		t.Errorf("expected 1 issue row, got %d", n)
	}
}

func TestAppendLedgerSkipsInvalidLines(t *testing.T) {
	database := db.NewTestDB(t)
	admin := newActor(t, database, "admin", model.RoleAdmin)
	m := mustMarathon(t, database, "Spring10k")
	cones := mustEquipment(t, database, "Cones")

	result, err := AppendLedger(context.Background(), database, admin, model.LedgerSubmission{
		Kind:     model.KindReturn,
		Marathon: model.Ref{ID: m.ID},
		Lines: []model.LedgerLine{
			{Equipment: model.EquipmentSelector{ID: cones.ID}, Quantity: -1},
			{Equipment: model.EquipmentSelector{ID: 9999}, Quantity: 3},
			{Equipment: model.EquipmentSelector{ID: cones.ID}, Quantity: 2},
		},
	})
	if err != nil {
		t.Fatalf("AppendLedger: %v", err)
	}
	if result.Skipped != 2 || len(result.Records) != 1 {
		t.Errorf("expected 1 record and 2 skipped, got %d and %d", len(result.Records), result.Skipped)
	}
}

func TestAppendLedgerReusesEquipmentIgnoringCase(t *testing.T) {
	database := db.NewTestDB(t)
	admin := newActor(t, database, "admin", model.RoleAdmin)
	m := mustMarathon(t, database, "Spring10k")
	cones := mustEquipment(t, database, "Cones")

	result, err := AppendLedger(context.Background(), database, admin, model.LedgerSubmission{
		Kind:     model.KindIssue,
		Marathon: model.Ref{ID: m.ID},
		Lines:    []model.LedgerLine{{Equipment: model.EquipmentSelector{NewName: "cones"}, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("AppendLedger: %v", err)
	}
	if result.Records[0].EquipmentID != cones.ID {
		t.Errorf("expected equipment %d, got %d", cones.ID, result.Records[0].EquipmentID)
	}
	if n := countRows(t, database, "equipment"); n != 1 {
		t.Errorf("expected no duplicate equipment, got %d rows", n)
	}
}

func TestConcurrentSubmissionsShareNewEquipment(t *testing.T) {
	database, err := db.Open(filepath.Join(t.TempDir(), "ledger.sqlite3"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	ctx := context.Background()
	if _, err := db.Migrate(ctx, database); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	admin := newActor(t, database, "admin", model.RoleAdmin)
	m := mustMarathon(t, database, "Spring10k")

	names := []string{"Cones", "cones", "CONES", "Cones", "cones", "CONES"}
	var wg sync.WaitGroup
	errs := make(chan error, len(names))
	for _, name := range names {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := AppendLedger(ctx, database, admin, model.LedgerSubmission{
				Kind:     model.KindIssue,
				Marathon: model.Ref{ID: m.ID},
				Lines:    []model.LedgerLine{{Equipment: model.EquipmentSelector{NewName: name}, Quantity: 1}},
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("AppendLedger: %v", err)
		}
	}
	if n := countRows(t, database, "equipment"); n != 1 {
		t.Errorf("expected one equipment row, got %d", n)
	}
	if n := countRows(t, database, "issue_records"); n != len(names) {
		t.Errorf("expected %d issue rows, got %d", len(names), n)
	}
}

func TestAppendLedgerStampsRecords(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	keeper := newActor(t, database, "keeper", model.RoleStorekeeper)

	result, err := AppendLedger(ctx, database, keeper, model.LedgerSubmission{
		Kind:     model.KindStoreIssue,
		Marathon: model.Ref{Name: "Autumn21k"},
		Station:  model.Ref{Name: "Ignored for store"},
		Person:   "Boris",
		Lines:    []model.LedgerLine{{Equipment: model.EquipmentSelector{NewName: "Tents"}, Quantity: 10}},
	})
	if err != nil {
		t.Fatalf("AppendLedger: %v", err)
	}

	got, err := GetRecord(ctx, database, model.KindStoreIssue, result.Records[0].ID)
	if err != nil || got == nil {
		t.Fatalf("GetRecord: %v, %v", got, err)
	}
	if got.RecordedAt == nil {
		t.Error("expected a timestamp")
	}
	if got.CreatedBy == nil || *got.CreatedBy != keeper.UserID {
		t.Errorf("expected created_by %d, got %v", keeper.UserID, got.CreatedBy)
	}
	if got.StationID != nil {
		t.Errorf("store record must have no station, got %d", *got.StationID)
	}
	if got.PersonName != "Boris" {
		t.Errorf("expected person Boris, got %q", got.PersonName)
	}
	if n := countRows(t, database, "stations"); n != 0 {
		t.Errorf("store submission created %d stations", n)
	}
}

func TestAppendLedgerRejectsUnassignedMarathon(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	user := newActor(t, database, "volunteer", model.RoleUser)
	a := mustMarathon(t, database, "A")
	b := mustMarathon(t, database, "B")
	cones := mustEquipment(t, database, "Cones")
	AssignMarathon(ctx, database, user.UserID, a.ID)

	_, err := AppendLedger(ctx, database, user, model.LedgerSubmission{
		Kind:     model.KindIssue,
		Marathon: model.Ref{ID: b.ID},
		Station:  model.Ref{Name: "New station"},
		Person:   "New person",
		Lines: []model.LedgerLine{
			{Equipment: model.EquipmentSelector{ID: cones.ID}, Quantity: 1},
			{Equipment: model.EquipmentSelector{NewName: "Flags"}, Quantity: 1},
		},
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	for table, want := range map[string]int{
		"issue_records": 0,
		"stations":      0,
		"persons":       0,
		"equipment":     1,
	} {
		if n := countRows(t, database, table); n != want {
			t.Errorf("%s: expected %d rows, got %d", table, want, n)
		}
	}

	// The assigned marathon works.
	record(t, database, user, model.KindIssue, a.ID, 0, cones.ID, 1)
}

func TestAppendLedgerUserRestrictions(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	user := newActor(t, database, "volunteer", model.RoleUser)
	m := mustMarathon(t, database, "Spring10k")
	AssignMarathon(ctx, database, user.UserID, m.ID)
	line := []model.LedgerLine{{Equipment: model.EquipmentSelector{NewName: "Cones"}, Quantity: 1}}

	tests := []struct {
		name string
		sub  model.LedgerSubmission
	}{
		{"no marathon", model.LedgerSubmission{Kind: model.KindIssue, Lines: line}},
		{"new marathon", model.LedgerSubmission{Kind: model.KindIssue, Marathon: model.Ref{Name: "Other"}, Lines: line}},
		{"store ledger", model.LedgerSubmission{Kind: model.KindStoreIssue, Marathon: model.Ref{ID: m.ID}, Lines: line}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := AppendLedger(ctx, database, user, tt.sub); !errors.Is(err, ErrForbidden) {
				t.Errorf("expected ErrForbidden, got %v", err)
			}
		})
	}

	// Naming an assigned marathon with different case is allowed.
	sub := model.LedgerSubmission{Kind: model.KindIssue, Marathon: model.Ref{Name: "spring10K"}, Lines: line}
	result, err := AppendLedger(ctx, database, user, sub)
	if err != nil {
		t.Fatalf("AppendLedger: %v", err)
	}
	if *result.Records[0].MarathonID != m.ID {
		t.Errorf("expected marathon %d, got %d", m.ID, *result.Records[0].MarathonID)
	}
	if n := countRows(t, database, "marathons"); n != 1 {
		t.Errorf("expected 1 marathon, got %d", n)
	}
}

func TestAppendLedgerUnknownKind(t *testing.T) {
	database := db.NewTestDB(t)
	admin := newActor(t, database, "admin", model.RoleAdmin)

	_, err := AppendLedger(context.Background(), database, admin, model.LedgerSubmission{Kind: "transfer"})
	if !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestUpdateAndDeleteRecord(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	admin := newActor(t, database, "admin", model.RoleAdmin)
	m := mustMarathon(t, database, "Spring10k")
	st := mustStation(t, database, "Station A")
	cones := mustEquipment(t, database, "Cones")
	cups := mustEquipment(t, database, "Cups")
	record(t, database, admin, model.KindIssue, m.ID, st.ID, cones.ID, 5)

	var id int64
	database.QueryRow(`SELECT id FROM issue_records`).Scan(&id)

	err := UpdateRecord(ctx, database, model.KindIssue, id, RecordUpdate{
		MarathonID: &m.ID, EquipmentID: cups.ID, PersonName: "Boris", Quantity: 7,
	})
	if err != nil {
		t.Fatalf("UpdateRecord: %v", err)
	}

	got, _ := GetRecord(ctx, database, model.KindIssue, id)
	want := &model.Record{
		ID: id, Kind: model.KindIssue, MarathonID: &m.ID, EquipmentID: cups.ID,
		PersonName: "Boris", Quantity: 7, RecordedAt: got.RecordedAt, CreatedBy: got.CreatedBy,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("unexpected record after update:\n got %+v\nwant %+v", got, want)
	}

	if err := UpdateRecord(ctx, database, model.KindIssue, id, RecordUpdate{EquipmentID: cups.ID}); !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("expected ErrInvalidQuantity, got %v", err)
	}

	if err := DeleteRecord(ctx, database, model.KindIssue, id); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}
	if err := DeleteRecord(ctx, database, model.KindIssue, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
