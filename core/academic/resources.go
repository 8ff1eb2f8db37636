package academic

import (
	"sort"

	"github.com/trezcool/campus/core/crud"
)

// Resource names, also used as permission keys.
const (
	ResStudent    = "student"
	ResCourse     = "course"
	ResProgram    = "program"
	ResAppeal     = "appeal"
	ResFeePayment = "fee-payment"
	ResRole       = "role"
)

// Resources describes every resource served by the API and managed by the console.
var Resources = map[string]crud.Resource{
	ResStudent: {
		Name:  ResStudent,
		Path:  "students",
		Label: "student",
		Columns: []crud.Column{
			{Header: "Matric No", Path: "matric_no"},
			{Header: "First Name", Path: "first_name"},
			{Header: "Last Name", Path: "last_name"},
			{Header: "Email", Path: "email"},
			{Header: "Level", Path: "level"},
			{Header: "Guardian", Path: "guardian.name"},
			{Header: "Status", Path: "status"},
		},
		SearchFields: []string{"matric_no", "first_name", "last_name", "email", "guardian.name"},
		Required:     []string{"matric_no", "first_name", "last_name", "email", "program_id"},
	},
	ResCourse: {
		Name:  ResCourse,
		Path:  "courses",
		Label: "course",
		Columns: []crud.Column{
			{Header: "Code", Path: "code"},
			{Header: "Title", Path: "title"},
			{Header: "Units", Path: "units"},
			{Header: "Department", Path: "department"},
		},
		SearchFields: []string{"code", "title", "department"},
		Required:     []string{"code", "title", "units"},
		Relations:    []string{"lecturer_ids"},
	},
	ResProgram: {
		Name:  ResProgram,
		Path:  "programs",
		Label: "program",
		Columns: []crud.Column{
			{Header: "Code", Path: "code"},
			{Header: "Name", Path: "name"},
			{Header: "Faculty", Path: "faculty"},
			{Header: "Duration (years)", Path: "duration_years"},
		},
		SearchFields: []string{"code", "name", "faculty"},
		Required:     []string{"code", "name", "faculty", "duration_years"},
	},
	ResAppeal: {
		Name:  ResAppeal,
		Path:  "appeals",
		Label: "appeal",
		Columns: []crud.Column{
			{Header: "Student", Path: "student_id"},
			{Header: "Subject", Path: "subject"},
			{Header: "Status", Path: "status"},
			{Header: "Resolved At", Path: "resolved_at"},
		},
		SearchFields: []string{"subject", "body", "status"},
		Required:     []string{"student_id", "subject", "body"},
	},
	ResFeePayment: {
		Name:  ResFeePayment,
		Path:  "fee-payments",
		Label: "fee payment",
		Columns: []crud.Column{
			{Header: "Student", Path: "student_id"},
			{Header: "Amount", Path: "amount"},
			{Header: "Currency", Path: "currency"},
			{Header: "Reference", Path: "reference"},
			{Header: "Session", Path: "session"},
			{Header: "Paid At", Path: "paid_at"},
		},
		SearchFields: []string{"reference", "student_id", "session"},
		Required:     []string{"student_id", "amount", "currency", "reference"},
	},
	ResRole: {
		Name:  ResRole,
		Path:  "roles",
		Label: "role",
		Columns: []crud.Column{
			{Header: "Name", Path: "name"},
			{Header: "Description", Path: "description"},
		},
		SearchFields: []string{"name", "description"},
		Required:     []string{"name"},
		Relations:    []string{"permissions"},
	},
}

// Lookup finds a resource by name or by REST path segment.
func Lookup(nameOrPath string) (crud.Resource, bool) {
	if res, ok := Resources[nameOrPath]; ok {
		return res, true
	}
	for _, res := range Resources {
		if res.Path == nameOrPath {
			return res, true
		}
	}
	return crud.Resource{}, false
}

// Names returns the resource names, sorted.
func Names() []string {
	names := make([]string, 0, len(Resources))
	for name := range Resources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
