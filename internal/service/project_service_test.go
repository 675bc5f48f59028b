package service

import (
	"errors"
	"testing"
	"time"

	"github.com/teampulse/internal/db"
)

func newTestProjectService(clock *testClock) *ProjectService {
	svc := NewProjectService(db.DB, newTestPointsService(clock))
	svc.SetClock(clock.Now)
	return svc
}

func TestProjectCreateRequiresManager(t *testing.T) {
	cleanup := setupEngineTestDB(t)
	defer cleanup()

	clock := &testClock{now: time.Date(2024, 5, 8, 9, 0, 0, 0, time.UTC)}
	svc := newTestProjectService(clock)
	employee := seedEmployee(t, "Vera", db.RoleEmployee)
	manager := seedEmployee(t, "Walt", db.RoleManager)

	if _, err := svc.Create(Principal{EmployeeID: employee.ID, Role: db.RoleEmployee}, ProjectInput{Title: "Apollo"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden for employee, got %v", err)
	}
	if _, err := svc.Create(Principal{EmployeeID: manager.ID, Role: db.RoleManager}, ProjectInput{Title: "  "}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for blank title, got %v", err)
	}

	project, err := svc.Create(Principal{EmployeeID: manager.ID, Role: db.RoleManager}, ProjectInput{Title: " Apollo ", Description: "launch"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if project.Title != "Apollo" || project.Status != db.ProjectActive {
		t.Fatalf("unexpected project: %#v", project)
	}

	active, err := svc.List(db.ProjectActive)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("expected one active project, got %d", len(active))
	}
}

func TestProjectCompleteAwardsMembers(t *testing.T) {
	cleanup := setupEngineTestDB(t)
	defer cleanup()

	clock := &testClock{now: time.Date(2024, 5, 8, 9, 0, 0, 0, time.UTC)}
	svc := newTestProjectService(clock)
	manager := seedEmployee(t, "Xena", db.RoleManager)
	first := seedEmployee(t, "Yuri", db.RoleEmployee)
	second := seedEmployee(t, "Zack", db.RoleEmployee)
	lead := Principal{EmployeeID: manager.ID, Role: db.RoleManager}

	deadline := clock.now.AddDate(0, 0, 7)
	project, err := svc.Create(lead, ProjectInput{Title: "Apollo", Deadline: &deadline})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	completion, err := svc.Complete(lead, project.ID, []uint{first.ID, second.ID, first.ID}, nil)
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if !completion.WasEarly {
		t.Fatalf("expected completion before deadline to count as early")
	}
	if len(completion.Accruals) != 2 {
		t.Fatalf("expected accruals for two members, got %d", len(completion.Accruals))
	}
	for _, id := range []uint{first.ID, second.ID} {
		if got := sumTransactions(t, id); got != 20 {
			t.Fatalf("expected 20 points for employee %d, got %d", id, got)
		}
	}

	stored, err := svc.Get(project.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if stored.Status != db.ProjectCompleted || stored.CompletedAt == nil {
		t.Fatalf("expected project to be completed, got %#v", stored)
	}

	if _, err := svc.Complete(lead, project.ID, []uint{first.ID}, nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error on second completion, got %v", err)
	}
}

func TestProjectCompleteRollsBackOnUnknownMember(t *testing.T) {
	cleanup := setupEngineTestDB(t)
	defer cleanup()

	clock := &testClock{now: time.Date(2024, 5, 8, 9, 0, 0, 0, time.UTC)}
	svc := newTestProjectService(clock)
	manager := seedEmployee(t, "Abby", db.RoleManager)
	member := seedEmployee(t, "Ben", db.RoleEmployee)
	lead := Principal{EmployeeID: manager.ID, Role: db.RoleManager}

	project, err := svc.Create(lead, ProjectInput{Title: "Hermes"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	onTime := false
	if _, err := svc.Complete(lead, project.ID, []uint{member.ID, 999}, &onTime); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for unknown member, got %v", err)
	}
	if got := countTransactions(t, member.ID); got != 0 {
		t.Fatalf("expected rollback of member accrual, got %d rows", got)
	}

	stored, err := svc.Get(project.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if stored.Status != db.ProjectActive {
		t.Fatalf("expected project to remain active, got %s", stored.Status)
	}

	completion, err := svc.Complete(lead, project.ID, []uint{member.ID}, &onTime)
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if completion.WasEarly || completion.Accruals[member.ID].Awarded != 10 {
		t.Fatalf("expected plain +10 completion, got %#v", completion.Accruals[member.ID])
	}

	if _, err := svc.Complete(Principal{EmployeeID: member.ID, Role: db.RoleEmployee}, project.ID, []uint{member.ID}, nil); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden for employee, got %v", err)
	}
}
