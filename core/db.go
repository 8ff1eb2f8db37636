package core

// DBOrdering orders query results by one field.
type DBOrdering struct {
	Field     string
	Ascending bool
}

// Direction returns the SQL keyword of the ordering.
func (ord DBOrdering) Direction() string {
	if ord.Ascending {
		return "ASC"
	}
	return "DESC"
}
