// Package academic holds the university records managed through the console.
package academic

import (
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/campus/core"
)

// Statuses
const (
	StudentActive    = "active"
	StudentSuspended = "suspended"
	StudentGraduated = "graduated"

	AppealOpen     = "open"
	AppealApproved = "approved"
	AppealRejected = "rejected"
)

type Guardian struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type Student struct {
	core.Model
	MatricNo  string   `json:"matric_no"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Email     string   `json:"email"`
	ProgramID string   `json:"program_id"`
	Level     int      `json:"level"`
	Guardian  Guardian `json:"guardian"`
	Status    string   `json:"status"`
}

func (s Student) FullName() string { return s.FirstName + " " + s.LastName }

type Course struct {
	core.Model
	Code        string   `json:"code"`
	Title       string   `json:"title"`
	Units       int      `json:"units"`
	Department  string   `json:"department"`
	LecturerIDs []string `json:"lecturer_ids"`
}

type Program struct {
	core.Model
	Code          string `json:"code"`
	Name          string `json:"name"`
	Faculty       string `json:"faculty"`
	DurationYears int    `json:"duration_years"`
}

type Appeal struct {
	core.Model
	StudentID  string    `json:"student_id"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	Status     string    `json:"status"`
	ResolvedAt null.Time `json:"resolved_at"` // UTC
}

type FeePayment struct {
	core.Model
	StudentID string    `json:"student_id"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	Reference string    `json:"reference"`
	Session   string    `json:"session"` // eg. 2023/2024
	PaidAt    null.Time `json:"paid_at"` // UTC
}
