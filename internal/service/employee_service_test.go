package service

import (
	"errors"
	"testing"

	"github.com/teampulse/internal/db"
)

func TestEmployeeCreateAndAuthenticate(t *testing.T) {
	cleanup := setupEngineTestDB(t)
	defer cleanup()

	svc := NewEmployeeService(db.DB)

	employee, err := svc.Create(EmployeeInput{Username: "alice", Password: "secret1", Name: "Alice", Role: "Manager", Department: "Eng"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if employee.Role != db.RoleManager || employee.Password == "secret1" {
		t.Fatalf("unexpected employee: %#v", employee)
	}

	if _, err := svc.Create(EmployeeInput{Username: "alice", Password: "another1"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for duplicate username, got %v", err)
	}
	if _, err := svc.Create(EmployeeInput{Username: "bob", Password: "123"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for short password, got %v", err)
	}
	if _, err := svc.Create(EmployeeInput{Username: "bob", Password: "secret1", Role: "ceo"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for unknown role, got %v", err)
	}

	authed, err := svc.Authenticate("alice", "secret1")
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if authed.ID != employee.ID {
		t.Fatalf("expected employee %d, got %d", employee.ID, authed.ID)
	}

	if _, err := svc.Authenticate("alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := svc.Authenticate("nobody", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown user, got %v", err)
	}

	if err := db.DB.Model(employee).Update("status", db.EmployeeInactive).Error; err != nil {
		t.Fatalf("failed to deactivate: %v", err)
	}
	if _, err := svc.Authenticate("alice", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected inactive account to be rejected, got %v", err)
	}
}

func TestEmployeeListFilters(t *testing.T) {
	cleanup := setupEngineTestDB(t)
	defer cleanup()

	svc := NewEmployeeService(db.DB)
	for _, input := range []EmployeeInput{
		{Username: "carl", Password: "secret1", Name: "Carl", Department: "Ops"},
		{Username: "dina", Password: "secret1", Name: "Dina", Department: "Eng", Role: db.RoleManager},
		{Username: "eli", Password: "secret1", Name: "Eli", Department: "Eng"},
	} {
		if _, err := svc.Create(input); err != nil {
			t.Fatalf("Create(%s) returned error: %v", input.Username, err)
		}
	}

	eng, err := svc.List(EmployeeFilter{Department: "Eng"})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(eng) != 2 || eng[0].Name != "Dina" {
		t.Fatalf("unexpected engineering list: %#v", eng)
	}

	managers, err := svc.List(EmployeeFilter{Role: db.RoleManager})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(managers) != 1 {
		t.Fatalf("expected one manager, got %d", len(managers))
	}

	found, err := svc.List(EmployeeFilter{Search: "ca"})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(found) != 1 || found[0].Username != "carl" {
		t.Fatalf("unexpected search result: %#v", found)
	}

	if _, err := svc.Get(999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
