package core

// Entity is any uniquely identified domain record.
type Entity interface {
	EntityID() string
}

// Model is embedded by domain records to satisfy Entity.
type Model struct {
	ID string `json:"id"`
}

func (m Model) EntityID() string { return m.ID }
