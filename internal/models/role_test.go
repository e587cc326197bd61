package models

import "testing"

func TestRoleRank(t *testing.T) {
	tests := []struct {
		role     string
		expected int
	}{
		{RoleOwner, 4},
		{RoleAdmin, 3},
		{RoleMember, 2},
		{RoleViewer, 1},
		{"", 0},
		{"superuser", 0},
	}

	for _, tt := range tests {
		if got := RoleRank(tt.role); got != tt.expected {
			t.Errorf("RoleRank(%q) = %d, expected %d", tt.role, got, tt.expected)
		}
	}
}

func TestRoleAtLeast(t *testing.T) {
	tests := []struct {
		name      string
		effective string
		required  string
		expected  bool
	}{
		{"owner covers admin", RoleOwner, RoleAdmin, true},
		{"owner covers viewer", RoleOwner, RoleViewer, true},
		{"admin covers member", RoleAdmin, RoleMember, true},
		{"member covers itself", RoleMember, RoleMember, true},
		{"viewer does not cover member", RoleViewer, RoleMember, false},
		{"member does not cover admin", RoleMember, RoleAdmin, false},
		{"unknown role fails closed", "manager", RoleViewer, false},
		{"empty role fails closed", "", RoleViewer, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RoleAtLeast(tt.effective, tt.required); got != tt.expected {
				t.Errorf("RoleAtLeast(%q, %q) = %v, expected %v", tt.effective, tt.required, got, tt.expected)
			}
		})
	}
}

func TestValidRole(t *testing.T) {
	for _, role := range []string{RoleOwner, RoleAdmin, RoleMember, RoleViewer} {
		if !ValidRole(role) {
			t.Errorf("ValidRole(%q) = false, expected true", role)
		}
	}
	for _, role := range []string{"", "user", "OWNER"} {
		if ValidRole(role) {
			t.Errorf("ValidRole(%q) = true, expected false", role)
		}
	}
}
