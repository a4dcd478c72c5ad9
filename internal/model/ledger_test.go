package model

import "testing"

func TestParseKind(t *testing.T) {
	for _, k := range Kinds {
		got, err := ParseKind(string(k))
		if err != nil || got != k {
			t.Errorf("ParseKind(%q) = %q, %v", k, got, err)
		}
	}
	if _, err := ParseKind("transfer"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestKindStation(t *testing.T) {
	if !KindIssue.HasStation() || !KindReturn.HasStation() {
		t.Error("station kinds should carry a station")
	}
	if KindStoreIssue.HasStation() || KindStoreReturn.HasStation() {
		t.Error("store kinds should not carry a station")
	}
	if !KindStoreReturn.IsStore() || KindIssue.IsStore() {
		t.Error("IsStore mismatch")
	}
}

func TestParseGridDropsMalformedRows(t *testing.T) {
	lines, dropped := ParseGrid(
		[]string{"1", "2", "3", "", "", "4", ""},
		[]string{"", "", "", "Tents", "   ", "", ""},
		[]string{"5", "abc", "0", "2", "3", "-1", ""},
	)

	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %+v", len(lines), lines)
	}
	// The trailing blank row is not counted.
	if dropped != 4 {
		t.Errorf("expected 4 dropped rows, got %d", dropped)
	}
	if lines[0].Equipment.ID != 1 || lines[0].Quantity != 5 {
		t.Errorf("unexpected first line: %+v", lines[0])
	}
	if lines[1].Equipment.NewName != "Tents" || lines[1].Quantity != 2 {
		t.Errorf("unexpected second line: %+v", lines[1])
	}
}

func TestParseGridExistingIDWins(t *testing.T) {
	lines, _ := ParseGrid([]string{"7"}, []string{"Cones"}, []string{"1"})
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0].Equipment.ID != 7 || lines[0].Equipment.NewName != "" {
		t.Errorf("expected existing id to win, got %+v", lines[0].Equipment)
	}
}

func TestParseGridShortLists(t *testing.T) {
	// More quantities than selectors: extra rows name no equipment.
	lines, dropped := ParseGrid([]string{"1"}, nil, []string{"2", "3"})
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if dropped != 1 {
		t.Errorf("expected 1 dropped row, got %d", dropped)
	}
	if lines[0].Quantity != 2 {
		t.Errorf("expected quantity 2, got %d", lines[0].Quantity)
	}
}

func TestRefIsZero(t *testing.T) {
	if !(Ref{}).IsZero() {
		t.Error("empty ref should be zero")
	}
	if !(Ref{Name: "  "}).IsZero() {
		t.Error("blank name ref should be zero")
	}
	if (Ref{ID: 3}).IsZero() || (Ref{Name: "Spring10k"}).IsZero() {
		t.Error("populated ref should not be zero")
	}
}
