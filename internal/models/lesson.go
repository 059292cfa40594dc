package models

import "time"

// LessonStatus represents the lifecycle state of a lesson occurrence.
type LessonStatus string

const (
	LessonStatusScheduled   LessonStatus = "scheduled"
	LessonStatusRescheduled LessonStatus = "rescheduled"
)

// Lesson is one scheduled occurrence of a class meeting. All lessons for a
// class are created together at class start; a lesson may be rescheduled at
// most once and is never deleted.
type Lesson struct {
	ID        string       `db:"id" json:"id"`
	ClassID   string       `db:"class_id" json:"class_id"`
	Meet      int          `db:"meet" json:"meet"`
	Date      time.Time    `db:"date" json:"date"`
	Status    LessonStatus `db:"status" json:"status"`
	Slug      string       `db:"slug" json:"slug"`
	Info      *string      `db:"info" json:"info,omitempty"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt time.Time    `db:"updated_at" json:"updated_at"`
}

// LessonDetail extends a lesson with the class context needed by the ledger.
type LessonDetail struct {
	Lesson
	OrderID       string  `db:"order_id" json:"order_id"`
	TutorID       *string `db:"tutor_id" json:"tutor_id,omitempty"`
	TotalMeetings int     `db:"total_meetings" json:"total_meetings"`
	Price         float64 `db:"price" json:"price"`
}

// IsLast reports whether this lesson closes the class sequence.
func (d *LessonDetail) IsLast() bool {
	return d.Meet == d.TotalMeetings
}

// LessonFilter scopes lesson listing queries.
type LessonFilter struct {
	ClassID   string
	Status    *LessonStatus
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
	SortOrder string
}
