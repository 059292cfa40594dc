package models

import "time"

// OrderStatus tracks the payment lifecycle of a package order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order is a course-package purchase. Payment intake is external; this
// service only cancels orders that stay pending past their TTL.
type Order struct {
	ID        string      `db:"id" json:"id"`
	StudentID string      `db:"student_id" json:"student_id"`
	Amount    float64     `db:"amount" json:"amount"`
	Status    OrderStatus `db:"status" json:"status"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at"`
}
