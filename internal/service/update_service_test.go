package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teampulse/internal/db"
)

func newTestUpdateService(clock *testClock) *UpdateService {
	svc := NewUpdateService(db.DB, newTestPointsService(clock))
	svc.SetClock(clock.Now)
	return svc
}

func TestSubmitUpdateAccruesPoints(t *testing.T) {
	cleanup := setupEngineTestDB(t)
	defer cleanup()

	clock := &testClock{now: time.Date(2024, 5, 8, 18, 0, 0, 0, time.UTC)}
	svc := newTestUpdateService(clock)
	author := seedEmployee(t, "Olive", db.RoleEmployee)
	self := Principal{EmployeeID: author.ID, Role: db.RoleEmployee}

	plain, accrual, err := svc.Submit(self, SubmitUpdateInput{Summary: "Fixed login bug"})
	require.NoError(t, err)
	assert.Equal(t, author.ID, plain.AuthorID)
	assert.NotEmpty(t, plain.PublicID)
	assert.Equal(t, 1, accrual.Awarded)

	rich, accrual, err := svc.Submit(self, SubmitUpdateInput{
		Summary:   "Shipped reports",
		Checklist: []db.ChecklistItem{{Label: " weekly csv ", Completed: true}},
		NextPlan:  "monthly xlsx",
	})
	require.NoError(t, err)
	assert.Equal(t, "weekly csv", rich.Checklist[0].Label)
	assert.Equal(t, 3, accrual.Awarded)

	_, accrual, err = svc.Submit(self, SubmitUpdateInput{Summary: "Demo", VideoURL: "https://videos.example.com/demo"})
	require.NoError(t, err)
	assert.Equal(t, 3, accrual.Awarded)

	assert.Equal(t, 7, sumTransactions(t, author.ID))

	list, err := svc.ListByAuthor(author.ID, 0)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestSubmitUpdateValidation(t *testing.T) {
	cleanup := setupEngineTestDB(t)
	defer cleanup()

	clock := &testClock{now: time.Date(2024, 5, 8, 18, 0, 0, 0, time.UTC)}
	svc := newTestUpdateService(clock)
	author := seedEmployee(t, "Pete", db.RoleEmployee)
	other := seedEmployee(t, "Quinn", db.RoleEmployee)
	self := Principal{EmployeeID: author.ID, Role: db.RoleEmployee}

	tests := []struct {
		name  string
		input SubmitUpdateInput
	}{
		{name: "empty summary", input: SubmitUpdateInput{Summary: "   "}},
		{name: "blank checklist label", input: SubmitUpdateInput{Summary: "x", Checklist: []db.ChecklistItem{{Label: " "}}}},
		{name: "hours out of range", input: SubmitUpdateInput{Summary: "x", HoursWorked: ptr(25.0)}},
		{name: "bad video link", input: SubmitUpdateInput{Summary: "x", VideoURL: "ftp://files"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Submit(self, tt.input)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	_, _, err := svc.Submit(self, SubmitUpdateInput{AuthorID: other.ID, Summary: "impersonation"})
	assert.ErrorIs(t, err, ErrForbidden)

	assert.Equal(t, int64(0), countTransactions(t, author.ID))
	assert.Equal(t, int64(0), countTransactions(t, other.ID))
}

func TestEditWindowBoundaries(t *testing.T) {
	cleanup := setupEngineTestDB(t)
	defer cleanup()

	created := time.Date(2024, 5, 8, 9, 0, 0, 0, time.UTC)
	clock := &testClock{now: created}
	svc := newTestUpdateService(clock)
	author := seedEmployee(t, "Rita", db.RoleEmployee)
	other := seedEmployee(t, "Sam", db.RoleEmployee)
	self := Principal{EmployeeID: author.ID, Role: db.RoleEmployee}

	update, _, err := svc.Submit(self, SubmitUpdateInput{Summary: "first draft"})
	require.NoError(t, err)
	assert.Equal(t, UpdateStateCreated, svc.State(update))

	clock.now = created.Add(23*time.Hour + 59*time.Minute + 59*time.Second)
	assert.True(t, svc.CanEdit(update, author.ID))
	assert.False(t, svc.CanEdit(update, other.ID))

	edited, err := svc.Edit(self, update.PublicID, UpdatePatch{Summary: ptr("second draft")})
	require.NoError(t, err)
	assert.Equal(t, "second draft", edited.Summary)
	assert.Equal(t, 1, edited.EditCount)
	assert.Equal(t, UpdateStateEdited, svc.State(edited))

	stored, err := svc.Get(update.PublicID)
	require.NoError(t, err)
	assert.True(t, stored.CreatedAt.Equal(created), "created_at must not move on edit, got %v", stored.CreatedAt)
	assert.Equal(t, "second draft", stored.Summary)

	clock.now = created.Add(24 * time.Hour)
	assert.False(t, svc.CanEdit(update, author.ID))

	clock.now = created.Add(24*time.Hour + time.Second)
	_, err = svc.Edit(self, update.PublicID, UpdatePatch{Summary: ptr("too late")})
	var expired *EditWindowExpiredError
	require.True(t, errors.As(err, &expired), "expected EditWindowExpiredError, got %v", err)
	assert.ErrorIs(t, err, ErrEditWindowExpired)
	assert.InDelta(t, 24.0003, expired.HoursElapsed, 0.001)
	assert.Equal(t, UpdateStateLocked, svc.State(stored))

	// 非作者即使在时限外也返回 Forbidden
	_, err = svc.Edit(Principal{EmployeeID: other.ID, Role: db.RoleManager}, update.PublicID, UpdatePatch{Summary: ptr("hijack")})
	assert.ErrorIs(t, err, ErrForbidden)

	stored, err = svc.Get(update.PublicID)
	require.NoError(t, err)
	assert.Equal(t, "second draft", stored.Summary)
	assert.Equal(t, 1, stored.EditCount)
}

func TestEditForbiddenInsideWindow(t *testing.T) {
	cleanup := setupEngineTestDB(t)
	defer cleanup()

	clock := &testClock{now: time.Date(2024, 5, 8, 9, 0, 0, 0, time.UTC)}
	svc := newTestUpdateService(clock)
	author := seedEmployee(t, "Tina", db.RoleEmployee)
	other := seedEmployee(t, "Uma", db.RoleAdmin)

	update, _, err := svc.Submit(Principal{EmployeeID: author.ID, Role: db.RoleEmployee}, SubmitUpdateInput{Summary: "notes"})
	require.NoError(t, err)

	clock.Advance(time.Minute)
	_, err = svc.Edit(Principal{EmployeeID: other.ID, Role: db.RoleAdmin}, update.PublicID, UpdatePatch{Summary: ptr("admin edit")})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Edit(Principal{EmployeeID: author.ID, Role: db.RoleEmployee}, "missing-id", UpdatePatch{})
	assert.ErrorIs(t, err, ErrNotFound)
}
