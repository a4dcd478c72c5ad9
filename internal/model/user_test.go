package model

import "testing"

func TestRoleAtLeast(t *testing.T) {
	tests := []struct {
		role     string
		minimum  string
		expected bool
	}{
		{RoleAdmin, RoleAdmin, true},
		{RoleAdmin, RoleStorekeeper, true},
		{RoleAdmin, RoleUser, true},
		{RoleStorekeeper, RoleAdmin, false},
		{RoleStorekeeper, RoleStorekeeper, true},
		{RoleStorekeeper, RoleUser, true},
		{RoleUser, RoleAdmin, false},
		{RoleUser, RoleStorekeeper, false},
		{RoleUser, RoleUser, true},
		// Unknown roles fail-closed.
		{"unknown", RoleUser, false},
		{RoleAdmin, "unknown", false},
		{"", "", false},
		{"", RoleUser, false},
	}

	for _, tt := range tests {
		got := RoleAtLeast(tt.role, tt.minimum)
		if got != tt.expected {
			t.Errorf("RoleAtLeast(%q, %q) = %v, want %v", tt.role, tt.minimum, got, tt.expected)
		}
	}
}

func TestSeesAllMarathons(t *testing.T) {
	tests := []struct {
		role string
		want bool
	}{
		{RoleAdmin, true},
		{RoleStorekeeper, true},
		{RoleUser, false},
		{"", false},
	}

	for _, tt := range tests {
		if got := (Actor{Role: tt.role}).SeesAllMarathons(); got != tt.want {
			t.Errorf("SeesAllMarathons(%q) = %v, want %v", tt.role, got, tt.want)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		wantErr  bool
	}{
		{"", true},
		{"short", true},
		{"1234567", true},
		{"12345678", false},
		{"a-valid-password", false},
	}

	for _, tt := range tests {
		err := ValidatePassword(tt.password)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidatePassword(%q) error = %v, wantErr %v", tt.password, err, tt.wantErr)
		}
	}
}
