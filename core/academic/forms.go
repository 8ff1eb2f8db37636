package academic

import "github.com/trezcool/campus/core/user"

// Typed form states. Fields left empty are omitted from the payload, which keeps
// updates partial: only what the form sets is changed server-side.

type GuardianForm struct {
	Name  string `json:"name,omitempty" validate:"required_with=Phone"`
	Phone string `json:"phone,omitempty" validate:"omitempty,e164"`
}

type StudentForm struct {
	MatricNo  string        `json:"matric_no,omitempty" validate:"required,matricno"`
	FirstName string        `json:"first_name,omitempty" validate:"required,max=100"`
	LastName  string        `json:"last_name,omitempty" validate:"required,max=100"`
	Email     string        `json:"email,omitempty" validate:"required,email"`
	ProgramID string        `json:"program_id,omitempty" validate:"required"`
	Level     int           `json:"level,omitempty" validate:"omitempty,oneof=100 200 300 400 500 600"`
	Guardian  *GuardianForm `json:"guardian,omitempty" validate:"omitempty"`
	Status    string        `json:"status,omitempty" validate:"omitempty,oneof=active suspended graduated"`
}

func NewStudentForm() StudentForm {
	return StudentForm{Level: 100, Status: StudentActive}
}

func StudentFormFrom(s Student) StudentForm {
	f := StudentForm{
		MatricNo:  s.MatricNo,
		FirstName: s.FirstName,
		LastName:  s.LastName,
		Email:     s.Email,
		ProgramID: s.ProgramID,
		Level:     s.Level,
		Status:    s.Status,
	}
	if s.Guardian != (Guardian{}) {
		f.Guardian = &GuardianForm{Name: s.Guardian.Name, Phone: s.Guardian.Phone}
	}
	return f
}

type CourseForm struct {
	Code        string   `json:"code,omitempty" validate:"required,alphanum_,max=12"`
	Title       string   `json:"title,omitempty" validate:"required"`
	Units       int      `json:"units,omitempty" validate:"required,min=1,max=6"`
	Department  string   `json:"department,omitempty"`
	LecturerIDs []string `json:"lecturer_ids,omitempty" validate:"omitempty,dive,required"`
}

func NewCourseForm() CourseForm { return CourseForm{Units: 3} }

func CourseFormFrom(c Course) CourseForm {
	return CourseForm{
		Code:        c.Code,
		Title:       c.Title,
		Units:       c.Units,
		Department:  c.Department,
		LecturerIDs: c.LecturerIDs,
	}
}

type ProgramForm struct {
	Code          string `json:"code,omitempty" validate:"required,alphanum_"`
	Name          string `json:"name,omitempty" validate:"required"`
	Faculty       string `json:"faculty,omitempty" validate:"required"`
	DurationYears int    `json:"duration_years,omitempty" validate:"required,min=1,max=7"`
}

func NewProgramForm() ProgramForm { return ProgramForm{DurationYears: 4} }

func ProgramFormFrom(p Program) ProgramForm {
	return ProgramForm{Code: p.Code, Name: p.Name, Faculty: p.Faculty, DurationYears: p.DurationYears}
}

type AppealForm struct {
	StudentID string `json:"student_id,omitempty" validate:"required"`
	Subject   string `json:"subject,omitempty" validate:"required,max=200"`
	Body      string `json:"body,omitempty" validate:"required"`
	Status    string `json:"status,omitempty" validate:"omitempty,oneof=open approved rejected"`
}

func NewAppealForm() AppealForm { return AppealForm{Status: AppealOpen} }

func AppealFormFrom(a Appeal) AppealForm {
	return AppealForm{StudentID: a.StudentID, Subject: a.Subject, Body: a.Body, Status: a.Status}
}

type FeePaymentForm struct {
	StudentID string  `json:"student_id,omitempty" validate:"required"`
	Amount    float64 `json:"amount,omitempty" validate:"required,gt=0"`
	Currency  string  `json:"currency,omitempty" validate:"required,iso4217"`
	Reference string  `json:"reference,omitempty" validate:"required"`
	Session   string  `json:"session,omitempty" validate:"omitempty,len=9"`
}

func NewFeePaymentForm() FeePaymentForm { return FeePaymentForm{Currency: "NGN"} }

func FeePaymentFormFrom(p FeePayment) FeePaymentForm {
	return FeePaymentForm{
		StudentID: p.StudentID,
		Amount:    p.Amount,
		Currency:  p.Currency,
		Reference: p.Reference,
		Session:   p.Session,
	}
}

// Forms returns a new empty form per resource, used to validate stored documents.
var Forms = map[string]func() interface{}{
	ResStudent:    func() interface{} { return new(StudentForm) },
	ResCourse:     func() interface{} { return new(CourseForm) },
	ResProgram:    func() interface{} { return new(ProgramForm) },
	ResAppeal:     func() interface{} { return new(AppealForm) },
	ResFeePayment: func() interface{} { return new(FeePaymentForm) },
	ResRole:       func() interface{} { return new(user.RoleForm) },
}
