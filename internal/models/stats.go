package models

// ParticipantRecap is one row of a class recap.
type ParticipantRecap struct {
	ParticipantID   string            `json:"participant_id"`
	ParticipantName string            `json:"participant_name"`
	Role            ParticipantRole   `json:"role"`
	Summary         AttendanceSummary `json:"summary"`
}

// ClassRecap aggregates attendance for an entire class.
type ClassRecap struct {
	ClassID       string             `json:"class_id"`
	ClassName     string             `json:"class_name"`
	TotalMeetings int                `json:"total_meetings"`
	Participants  []ParticipantRecap `json:"participants"`
}

// TutorClassPayroll projects payroll for one class taught by a tutor.
type TutorClassPayroll struct {
	ClassID         string            `json:"class_id"`
	ClassName       string            `json:"class_name"`
	OrderID         string            `json:"order_id"`
	Attendance      AttendanceSummary `json:"attendance"`
	ProjectedAmount float64           `json:"projected_amount"`
	ActualAmount    *float64          `json:"actual_amount,omitempty"`
	PayrollStatus   *PayrollStatus    `json:"payroll_status,omitempty"`
}

// TutorSummary aggregates attendance and payroll across a tutor's classes.
type TutorSummary struct {
	TutorID      string              `json:"tutor_id"`
	Classes      []TutorClassPayroll `json:"classes"`
	TotalPending float64             `json:"total_pending"`
	TotalPaid    float64             `json:"total_paid"`
}

// StudentClassProgress reports a student's progress within one class.
type StudentClassProgress struct {
	ClassID       string            `json:"class_id"`
	ClassName     string            `json:"class_name"`
	TotalMeetings int               `json:"total_meetings"`
	Summary       AttendanceSummary `json:"summary"`
}

// StudentSummary aggregates progress across a student's classes.
type StudentSummary struct {
	StudentID string                 `json:"student_id"`
	Classes   []StudentClassProgress `json:"classes"`
}
