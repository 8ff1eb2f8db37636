package crud

import "strings"

type (
	// Column is one column of a list view or a spreadsheet: a header and a dot path
	// into the entity's JSON document ("guardian.name").
	Column struct {
		Header string
		Path   string
	}

	// Resource describes one entity type: its permission key, REST path segment,
	// the columns shown for it and which fields are searched or required.
	Resource struct {
		Name         string // permission key, eg. "fee-payment"
		Path         string // REST path segment, eg. "fee-payments"
		Label        string // human name, eg. "Fee payment"
		Columns      []Column
		SearchFields []string
		Required     []string
		Relations    []string // sub-routes: /{path}/{id}/{relation}
	}
)

// HasRelation reports whether name is a declared sub-route of the resource.
func (r Resource) HasRelation(name string) bool {
	for _, rel := range r.Relations {
		if rel == name {
			return true
		}
	}
	return false
}

// Title returns the label with a capital first letter.
func (r Resource) Title() string {
	if r.Label == "" {
		return r.Name
	}
	return strings.ToUpper(r.Label[:1]) + r.Label[1:]
}
