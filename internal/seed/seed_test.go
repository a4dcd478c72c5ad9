package seed

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/erazemk/oprema/internal/db"
	"github.com/erazemk/oprema/internal/store"
)

const sample = `
marathons: [Spring 10k]
stations: [Water 1, Finish, ""]
persons: [Ana, Bor]
equipment:
  - name: Cones
    quantity: 40
  - name: tents
    quantity: 10
  - name: Tape
`

func TestParse(t *testing.T) {
	file, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(file.Marathons) != 1 || len(file.Stations) != 3 || len(file.Equipment) != 3 {
		t.Errorf("unexpected file: %+v", file)
	}
	if file.Equipment[2].Quantity != nil {
		t.Error("expected Tape to have no quantity")
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"negative quantity", "equipment:\n  - name: Cones\n    quantity: -1\n", store.ErrInvalidQuantity},
		{"blank equipment", "equipment:\n  - name: \"  \"\n", store.ErrNameRequired},
		{"unknown key", "trucks: [A]\n", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.doc))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestParseEmpty(t *testing.T) {
	file, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(file.Equipment) != 0 {
		t.Errorf("expected empty file, got %+v", file)
	}
}

func TestApply(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	// Existing equipment with a different case is reused, not duplicated.
	if _, err := store.CreateEquipment(ctx, database, "Tents"); err != nil {
		t.Fatalf("CreateEquipment: %v", err)
	}

	file, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	res, err := Apply(ctx, database, file)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res.Marathons != 1 || res.Stations != 2 || res.Persons != 2 || res.Equipment != 3 {
		t.Errorf("unexpected result: %+v", res)
	}

	equipment, _ := store.ListEquipment(ctx, database)
	if len(equipment) != 3 {
		t.Fatalf("expected 3 equipment, got %d", len(equipment))
	}
	stock := map[string]int{}
	for _, e := range equipment {
		stock[e.Name] = e.AvailableQuantity
	}
	if stock["Cones"] != 40 || stock["Tents"] != 10 || stock["Tape"] != 0 {
		t.Errorf("unexpected stock: %v", stock)
	}

	// Applying again is a no-op on row counts.
	if _, err := Apply(ctx, database, file); err != nil {
		t.Fatalf("second Apply: %v", err)
	}
	stations, _ := store.ListStations(ctx, database)
	if len(stations) != 2 {
		t.Errorf("expected 2 stations after reapplying, got %d", len(stations))
	}
	persons, _ := store.ListPersonNames(ctx, database)
	if len(persons) != 2 {
		t.Errorf("expected 2 persons, got %v", persons)
	}
}
