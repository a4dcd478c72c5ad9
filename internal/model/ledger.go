package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind identifies one of the four ledgers.
type Kind string

// Ledger kinds.
const (
	KindIssue       Kind = "issue"
	KindReturn      Kind = "return"
	KindStoreIssue  Kind = "store_issue"
	KindStoreReturn Kind = "store_return"
)

// Kinds lists every ledger kind.
var Kinds = []Kind{KindIssue, KindReturn, KindStoreIssue, KindStoreReturn}

// ParseKind converts a string into a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown ledger kind %q", s)
}

// IsStore reports whether the kind is a store-level (station-agnostic) ledger.
func (k Kind) IsStore() bool {
	return k == KindStoreIssue || k == KindStoreReturn
}

// HasStation reports whether records of this kind carry a station.
func (k Kind) HasStation() bool {
	return k == KindIssue || k == KindReturn
}

// Record is one ledger row. StationID is always nil for store kinds.
type Record struct {
	ID          int64      `json:"id"`
	Kind        Kind       `json:"kind"`
	MarathonID  *int64     `json:"marathon_id,omitempty"`
	StationID   *int64     `json:"station_id,omitempty"`
	EquipmentID int64      `json:"equipment_id"`
	PersonName  string     `json:"person_name"`
	Quantity    int        `json:"quantity"`
	RecordedAt  *time.Time `json:"recorded_at,omitempty"`
	CreatedBy   *int64     `json:"created_by,omitempty"`
}

// Ref points at an existing row by ID, or names a new one to resolve or create.
// A zero Ref means "unassigned".
type Ref struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// IsZero reports whether the reference names nothing.
func (r Ref) IsZero() bool {
	return r.ID <= 0 && NormalizeName(r.Name) == ""
}

// EquipmentSelector picks an existing equipment by ID or names a new one.
type EquipmentSelector struct {
	ID      int64  `json:"equipment_id,omitempty"`
	NewName string `json:"equipment_name,omitempty"`
}

// IsZero reports whether the selector resolves to nothing.
func (s EquipmentSelector) IsZero() bool {
	return s.ID <= 0 && NormalizeName(s.NewName) == ""
}

// LedgerLine is one (equipment, quantity) row of a submission.
type LedgerLine struct {
	Equipment EquipmentSelector `json:"equipment"`
	Quantity  int               `json:"quantity"`
}

// LedgerSubmission is one form submission against a single marathon/station pair.
type LedgerSubmission struct {
	Kind     Kind         `json:"kind"`
	Marathon Ref          `json:"marathon"`
	Station  Ref          `json:"station"`
	Person   string       `json:"person"`
	Lines    []LedgerLine `json:"lines"`
}

// ParseGrid converts the parallel equipment[], new_equipment[] and quantity[]
// form lists into typed lines. A row is dropped without error when its
// quantity is not a positive integer or it names no equipment. Dropped counts
// such rows; fully blank rows are ignored.
//
// An existing equipment id takes precedence over a new name in the same row.
func ParseGrid(equipmentIDs, newNames, quantities []string) (lines []LedgerLine, dropped int) {
	for i, raw := range quantities {
		rawID, rawName := gridCell(equipmentIDs, i), gridCell(newNames, i)
		raw = strings.TrimSpace(raw)
		if raw == "" && rawID == "" && rawName == "" {
			continue
		}

		qty, err := strconv.Atoi(raw)
		if err != nil || qty <= 0 {
			dropped++
			continue
		}

		var sel EquipmentSelector
		if id, err := strconv.ParseInt(rawID, 10, 64); err == nil && id > 0 {
			sel.ID = id
		}
		if sel.ID == 0 {
			sel.NewName = NormalizeName(rawName)
		}
		if sel.IsZero() {
			dropped++
			continue
		}

		lines = append(lines, LedgerLine{Equipment: sel, Quantity: qty})
	}
	return lines, dropped
}

func gridCell(list []string, i int) string {
	if i < len(list) {
		return strings.TrimSpace(list[i])
	}
	return ""
}
