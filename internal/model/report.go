package model

import (
	"sort"
	"time"
)

// Outstanding is the issued-minus-returned quantity of one equipment at one station.
type Outstanding struct {
	StationID     *int64 `json:"station_id,omitempty"`
	StationName   string `json:"station"`
	EquipmentID   int64  `json:"equipment_id"`
	EquipmentName string `json:"equipment"`
	Missing       int    `json:"missing"`
}

// StationDetail groups the outstanding equipment of a single station.
type StationDetail struct {
	StationID   *int64        `json:"station_id,omitempty"`
	StationName string        `json:"station"`
	Items       []Outstanding `json:"items"`
}

// GroupByStation groups outstanding rows by station, keeping first-seen order.
func GroupByStation(rows []Outstanding) []StationDetail {
	var details []StationDetail
	index := make(map[int64]int)
	const unassigned = int64(-1)

	for _, row := range rows {
		key := unassigned
		if row.StationID != nil {
			key = *row.StationID
		}
		i, ok := index[key]
		if !ok {
			i = len(details)
			index[key] = i
			details = append(details, StationDetail{StationID: row.StationID, StationName: row.StationName})
		}
		details[i].Items = append(details[i].Items, row)
	}
	return details
}

// EquipmentSummary holds the four per-equipment sums for one marathon and the
// differences derived from them.
type EquipmentSummary struct {
	EquipmentID   int64  `json:"equipment_id"`
	EquipmentName string `json:"equipment"`
	Issued        int    `json:"issued"`
	Returned      int    `json:"returned"`
	StoreIssued   int    `json:"store_issued"`
	StoreReturned int    `json:"store_returned"`

	Remaining           int `json:"remaining"`
	StoreVsIssuedDiff   int `json:"store_vs_issued_diff"`
	ReturnedVsStoreDiff int `json:"returned_vs_store_diff"`
}

// Derive fills the derived differences from the base sums.
func (s *EquipmentSummary) Derive() {
	s.Remaining = s.Issued - s.Returned
	s.StoreVsIssuedDiff = s.StoreIssued - s.Issued
	s.ReturnedVsStoreDiff = s.Returned - s.StoreReturned
}

// Balanced reports whether the store and station ledgers agree for this equipment.
func (s EquipmentSummary) Balanced() bool {
	return s.StoreVsIssuedDiff == 0 && s.ReturnedVsStoreDiff == 0
}

// StoreOutstanding is equipment back from the field but not yet checked into the store.
type StoreOutstanding struct {
	EquipmentID   int64  `json:"equipment_id"`
	EquipmentName string `json:"equipment"`
	Returned      int    `json:"returned"`
	StoreReturned int    `json:"store_returned"`
	Available     int    `json:"available"`
}

// Transaction is a ledger record tagged with its kind and display names.
type Transaction struct {
	ID            int64      `json:"id"`
	Kind          Kind       `json:"kind"`
	RecordedAt    *time.Time `json:"timestamp,omitempty"`
	MarathonName  string     `json:"marathon"`
	StationName   string     `json:"station,omitempty"`
	EquipmentName string     `json:"equipment"`
	Quantity      int        `json:"quantity"`
	PersonName    string     `json:"person"`
}

// SortTransactions orders transactions newest first. Transactions without a
// timestamp sort last.
func SortTransactions(txs []Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		a, b := txs[i].RecordedAt, txs[j].RecordedAt
		switch {
		case a == nil && b == nil:
			return false
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
}

// TransactionScope selects which pair of ledgers a history covers.
type TransactionScope string

// Transaction scopes.
const (
	ScopeStation TransactionScope = "station"
	ScopeStore   TransactionScope = "store"
)

// Kinds returns the ledger kinds covered by the scope.
func (s TransactionScope) Kinds() []Kind {
	if s == ScopeStore {
		return []Kind{KindStoreIssue, KindStoreReturn}
	}
	return []Kind{KindIssue, KindReturn}
}

// MarathonReport is the event-level report for one marathon.
type MarathonReport struct {
	Marathon       *Marathon          `json:"marathon"`
	Summary        []EquipmentSummary `json:"summary"`
	StationDetails []StationDetail    `json:"station_details"`
	Transactions   []Transaction      `json:"transactions"`
}

// StoreReport is the store reconciliation view for one marathon.
type StoreReport struct {
	Marathon         *Marathon          `json:"marathon"`
	Reconciliation   []EquipmentSummary `json:"reconciliation"`
	StoreOutstanding []StoreOutstanding `json:"store_outstanding"`
	Transactions     []Transaction      `json:"transactions"`
}
