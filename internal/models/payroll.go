package models

import "time"

// PayrollStatus tracks the payout lifecycle of a payroll record. The
// pending -> paid transition is owned by the finance collaborator, not
// by this service.
type PayrollStatus string

const (
	PayrollStatusPending PayrollStatus = "pending"
	PayrollStatusPaid    PayrollStatus = "paid"
)

// PayrollRecord is a computed compensation entry for a tutor, created at most
// once per (tutor, order) pair when a class completes.
type PayrollRecord struct {
	ID        string        `db:"id" json:"id"`
	TutorID   string        `db:"tutor_id" json:"tutor_id"`
	OrderID   string        `db:"order_id" json:"order_id"`
	Amount    float64       `db:"amount" json:"amount"`
	Status    PayrollStatus `db:"status" json:"status"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
}

// ClassCompleted is published by the attendance ledger when the tutor checks
// in present on the final lesson of a class.
type ClassCompleted struct {
	ClassID string `json:"class_id"`
	TutorID string `json:"tutor_id"`
}
