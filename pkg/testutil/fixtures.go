package testutil

import (
	"time"

	"github.com/google/uuid"
)

// StaffFixture represents test staff identity data
type StaffFixture struct {
	ID    string
	Name  string
	Email string
	Role  string
}

// NewStaffFixture creates a staff fixture with sensible defaults
func NewStaffFixture() *StaffFixture {
	return &StaffFixture{
		ID:    uuid.New().String(),
		Name:  "Dana Kitchen",
		Email: "dana@forkpoint.test",
		Role:  "staff",
	}
}

// NewManagerFixture creates a staff fixture with the manager role
func NewManagerFixture() *StaffFixture {
	f := NewStaffFixture()
	f.Name = "Morgan Shift"
	f.Email = "morgan@forkpoint.test"
	f.Role = "manager"
	return f
}

// DaysFromNow returns midnight UTC the given number of days from today.
// Negative values give past dates. Useful for expiration fixtures.
func DaysFromNow(days int) time.Time {
	now := time.Now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return midnight.AddDate(0, 0, days)
}
