package models

import "time"

// NotificationCategory groups in-app notifications per feature.
type NotificationCategory string

const (
	NotificationAttendance NotificationCategory = "attendance"
	NotificationSchedule   NotificationCategory = "schedule"
	NotificationPayroll    NotificationCategory = "payroll"
)

// Notification is a queued in-app message. Delivery to push/email channels
// is handled by an external collaborator; this service only records rows.
type Notification struct {
	ID        string               `db:"id" json:"id"`
	UserID    string               `db:"user_id" json:"user_id"`
	Category  NotificationCategory `db:"category" json:"category"`
	Body      string               `db:"body" json:"body"`
	PhotoRef  *string              `db:"photo_ref" json:"photo_ref,omitempty"`
	CreatedAt time.Time            `db:"created_at" json:"created_at"`
}
