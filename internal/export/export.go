// Package export renders marathon reports as XLSX workbooks.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/erazemk/oprema/internal/model"
)

// Sheet names, in workbook order.
const (
	SheetSummary           = "Summary"
	SheetStations          = "Stations"
	SheetTransactions      = "Transactions"
	SheetReconciliation    = "Reconciliation"
	SheetStoreTransactions = "Store transactions"
)

const timestampLayout = "2006-01-02 15:04:05"

// sheet is one table of a workbook: a header row followed by data rows.
type sheet struct {
	name   string
	header []any
	rows   [][]any
}

// MarathonWorkbook builds a workbook holding the event report and the store
// reconciliation of one marathon.
func MarathonWorkbook(report *model.MarathonReport, storeReport *model.StoreReport) (*excelize.File, error) {
	sheets := []sheet{
		summarySheet(report.Summary),
		stationsSheet(report.StationDetails),
		transactionsSheet(SheetTransactions, report.Transactions, true),
		reconciliationSheet(storeReport.Reconciliation, storeReport.StoreOutstanding),
		transactionsSheet(SheetStoreTransactions, storeReport.Transactions, false),
	}

	f := excelize.NewFile()
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("creating header style: %w", err)
	}

	for i, s := range sheets {
		if err := writeSheet(f, i, s, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("writing sheet %q: %w", s.name, err)
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

// WriteMarathon writes the workbook of one marathon to w.
func WriteMarathon(w io.Writer, report *model.MarathonReport, storeReport *model.StoreReport) error {
	f, err := MarathonWorkbook(report, storeReport)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// Filename returns the download name for a marathon's workbook.
func Filename(m *model.Marathon) string {
	return fmt.Sprintf("marathon-%d-report.xlsx", m.ID)
}

func writeSheet(f *excelize.File, index int, s sheet, headerStyle int) error {
	if index == 0 {
		// A new file starts with one default sheet.
		if err := f.SetSheetName(f.GetSheetName(0), s.name); err != nil {
			return err
		}
	} else if _, err := f.NewSheet(s.name); err != nil {
		return err
	}

	header := s.header
	if err := f.SetSheetRow(s.name, "A1", &header); err != nil {
		return err
	}
	if err := f.SetRowStyle(s.name, 1, 1, headerStyle); err != nil {
		return err
	}

	for i, row := range s.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(s.name, cell, &row); err != nil {
			return err
		}
	}

	last, err := excelize.ColumnNumberToName(len(s.header))
	if err != nil {
		return err
	}
	return f.SetColWidth(s.name, "A", last, 18)
}

func summarySheet(summary []model.EquipmentSummary) sheet {
	s := sheet{
		name:   SheetSummary,
		header: []any{"Equipment", "Issued", "Returned", "Remaining"},
	}
	for _, e := range summary {
		s.rows = append(s.rows, []any{e.EquipmentName, e.Issued, e.Returned, e.Remaining})
	}
	return s
}

func stationsSheet(details []model.StationDetail) sheet {
	s := sheet{
		name:   SheetStations,
		header: []any{"Station", "Equipment", "Missing"},
	}
	for _, d := range details {
		for _, item := range d.Items {
			s.rows = append(s.rows, []any{d.StationName, item.EquipmentName, item.Missing})
		}
	}
	return s
}

func reconciliationSheet(summary []model.EquipmentSummary, outstanding []model.StoreOutstanding) sheet {
	available := make(map[int64]int, len(outstanding))
	for _, o := range outstanding {
		available[o.EquipmentID] = o.Available
	}

	s := sheet{
		name: SheetReconciliation,
		header: []any{
			"Equipment", "Store issued", "Issued", "Store vs issued",
			"Returned", "Store returned", "Returned vs store", "Awaiting store",
		},
	}
	for _, e := range summary {
		s.rows = append(s.rows, []any{
			e.EquipmentName, e.StoreIssued, e.Issued, e.StoreVsIssuedDiff,
			e.Returned, e.StoreReturned, e.ReturnedVsStoreDiff, available[e.EquipmentID],
		})
	}
	return s
}

func transactionsSheet(name string, txs []model.Transaction, withStation bool) sheet {
	s := sheet{name: name}
	if withStation {
		s.header = []any{"Time", "Kind", "Station", "Equipment", "Quantity", "Person"}
	} else {
		s.header = []any{"Time", "Kind", "Equipment", "Quantity", "Person"}
	}

	for _, tx := range txs {
		row := []any{formatTime(tx.RecordedAt), string(tx.Kind)}
		if withStation {
			row = append(row, tx.StationName)
		}
		row = append(row, tx.EquipmentName, tx.Quantity, tx.PersonName)
		s.rows = append(s.rows, row)
	}
	return s
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(timestampLayout)
}
