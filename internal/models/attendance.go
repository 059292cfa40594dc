package models

import "time"

// ParticipantRole distinguishes the two actor roles on a lesson.
type ParticipantRole string

const (
	ParticipantTutor   ParticipantRole = "tutor"
	ParticipantStudent ParticipantRole = "student"
)

// AttendanceStatus classifies a check-in outcome.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusExcused AttendanceStatus = "excused"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusExcused, AttendanceStatusAbsent:
		return true
	default:
		return false
	}
}

// AttendanceRecord is a single check-in outcome for one participant on one
// lesson. Records are write-once: at most one row per (lesson, participant),
// never edited or deleted.
type AttendanceRecord struct {
	ID            string           `db:"id" json:"id"`
	LessonID      string           `db:"lesson_id" json:"lesson_id"`
	ParticipantID string           `db:"participant_id" json:"participant_id"`
	Role          ParticipantRole  `db:"role" json:"role"`
	Status        AttendanceStatus `db:"status" json:"status"`
	Reason        *string          `db:"reason" json:"reason,omitempty"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
}

// AttendanceRecordDetail adds participant metadata for listings.
type AttendanceRecordDetail struct {
	AttendanceRecord
	ParticipantName string    `db:"participant_name" json:"participant_name"`
	Meet            int       `db:"meet" json:"meet"`
	LessonDate      time.Time `db:"lesson_date" json:"lesson_date"`
}

// AttendanceSummary aggregates check-in counts for one participant.
type AttendanceSummary struct {
	Present int     `json:"present"`
	Excused int     `json:"excused"`
	Absent  int     `json:"absent"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
}

// AttendanceStatusCount is a grouped count row from the ledger.
type AttendanceStatusCount struct {
	ParticipantID string           `db:"participant_id"`
	Role          ParticipantRole  `db:"role"`
	Status        AttendanceStatus `db:"status"`
	Count         int              `db:"cnt"`
}
