package enums

import "testing"

func TestParseRole(t *testing.T) {
	t.Parallel()

	role, err := ParseRole("admin")
	if err != nil {
		t.Fatalf("ParseRole: %v", err)
	}
	if !role.IsAdmin() {
		t.Fatal("expected admin role")
	}

	if _, err := ParseRole("superuser"); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestGuestIsNotAdmin(t *testing.T) {
	t.Parallel()

	if RoleGuest.IsAdmin() {
		t.Fatal("guest must not be admin")
	}
	if !RoleGuest.IsValid() {
		t.Fatal("guest is a valid role")
	}
}
