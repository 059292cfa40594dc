package models

import (
	"time"

	"github.com/lib/pq"
)

// Class is an enrollment cohort tied to one tutor and a recurring weekly pattern.
// Classes are created externally when an order is paid; this service reads them
// to generate lesson sequences and to resolve participants.
type Class struct {
	ID            string         `db:"id" json:"id"`
	OrderID       string         `db:"order_id" json:"order_id"`
	Name          string         `db:"name" json:"name"`
	TutorID       *string        `db:"tutor_id" json:"tutor_id,omitempty"`
	TotalMeetings int            `db:"total_meetings" json:"total_meetings"`
	Price         float64        `db:"price" json:"price"`
	Weekdays      pq.StringArray `db:"weekdays" json:"weekdays"`
	TimeOfDay     string         `db:"time_of_day" json:"time_of_day"`
	StartDate     *time.Time     `db:"start_date" json:"start_date,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// HasTutor reports whether a tutor is assigned.
func (c *Class) HasTutor() bool {
	return c.TutorID != nil && *c.TutorID != ""
}

// ClassContext bundles a class with its enrolled student ids.
type ClassContext struct {
	Class
	StudentIDs []string `json:"student_ids"`
}

// IsTutor reports whether the given user is the class tutor.
func (c *ClassContext) IsTutor(userID string) bool {
	return c.HasTutor() && *c.TutorID == userID
}

// IsStudent reports whether the given user is enrolled in the class.
func (c *ClassContext) IsStudent(userID string) bool {
	for _, id := range c.StudentIDs {
		if id == userID {
			return true
		}
	}
	return false
}
