package export

import (
	"bytes"
	"reflect"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/erazemk/oprema/internal/model"
)

func sampleReports() (*model.MarathonReport, *model.StoreReport) {
	m := &model.Marathon{ID: 3, Name: "Spring10k"}
	stationID := int64(1)
	ts := time.Date(2026, 4, 12, 9, 30, 0, 0, time.UTC)

	summary := []model.EquipmentSummary{{
		EquipmentID: 1, EquipmentName: "Tents",
		Issued: 10, Returned: 10, StoreIssued: 10, StoreReturned: 7,
	}}
	summary[0].Derive()

	report := &model.MarathonReport{
		Marathon: m,
		Summary:  summary,
		StationDetails: model.GroupByStation([]model.Outstanding{{
			StationID: &stationID, StationName: "Station A", EquipmentID: 2, EquipmentName: "Cones", Missing: 3,
		}}),
		Transactions: []model.Transaction{
			{ID: 1, Kind: model.KindIssue, RecordedAt: &ts, StationName: "Station A", EquipmentName: "Cones", Quantity: 5, PersonName: "Ana"},
			{ID: 2, Kind: model.KindReturn, StationName: model.UnknownLabel, EquipmentName: "Cones", Quantity: 2, PersonName: "Ana"},
		},
	}
	storeReport := &model.StoreReport{
		Marathon:         m,
		Reconciliation:   summary,
		StoreOutstanding: []model.StoreOutstanding{{EquipmentID: 1, EquipmentName: "Tents", Returned: 10, StoreReturned: 7, Available: 3}},
	}
	return report, storeReport
}

func TestWriteMarathon(t *testing.T) {
	report, storeReport := sampleReports()

	var buf bytes.Buffer
	if err := WriteMarathon(&buf, report, storeReport); err != nil {
		t.Fatalf("WriteMarathon: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("opening workbook: %v", err)
	}
	defer f.Close()

	want := []string{SheetSummary, SheetStations, SheetTransactions, SheetReconciliation, SheetStoreTransactions}
	if got := f.GetSheetList(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected sheets %v, got %v", want, got)
	}

	rows, err := f.GetRows(SheetReconciliation)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header and one row, got %d rows", len(rows))
	}
	wantRow := []string{"Tents", "10", "10", "0", "10", "7", "3", "3"}
	if !reflect.DeepEqual(rows[1], wantRow) {
		t.Errorf("expected %v, got %v", wantRow, rows[1])
	}

	rows, _ = f.GetRows(SheetTransactions)
	if len(rows) != 3 || rows[1][0] != "2026-04-12 09:30:00" || rows[2][0] != "" {
		t.Errorf("unexpected transaction rows: %v", rows)
	}

	rows, _ = f.GetRows(SheetStoreTransactions)
	if len(rows) != 1 {
		t.Errorf("expected header only, got %v", rows)
	}
}

func TestFilename(t *testing.T) {
	if got := Filename(&model.Marathon{ID: 3}); got != "marathon-3-report.xlsx" {
		t.Errorf("unexpected filename %q", got)
	}
}
