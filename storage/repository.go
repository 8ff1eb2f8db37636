// Package storage defines the document repository behind the reference API.
package storage

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/trezcool/campus/core"
)

var (
	NowFunc = time.Now // mockable

	ErrNotFound = errors.New("document not found")
	ErrConflict = errors.New("document already exists")
)

// Document is one stored item of a resource. Data is the item's JSON, its "id" included.
type Document struct {
	Resource  string
	ID        string
	Data      json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Query selects documents: all filters must match, and the search term (when set) must
// appear in one of the search fields, ignoring case. Fields are dot paths.
type Query struct {
	Search       string
	SearchFields []string
	Filters      map[string]string
	Ordering     []core.DBOrdering
}

type Repository interface {
	List(ctx context.Context, resource string, q Query) ([]Document, error)
	Get(ctx context.Context, resource, id string) (Document, error)
	Create(ctx context.Context, doc Document) (Document, error)
	Update(ctx context.Context, doc Document) (Document, error)
	Delete(ctx context.Context, resource, id string) error
}

// Matches evaluates the query against a JSON document. A filter on an array field matches
// when any element equals the value.
func (q Query) Matches(data []byte) bool {
	for path, want := range q.Filters {
		res := gjson.GetBytes(data, path)
		if !res.Exists() {
			return false
		}
		if !res.IsArray() {
			if res.String() != want {
				return false
			}
			continue
		}
		found := false
		for _, el := range res.Array() {
			if el.String() == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	term := core.CleanString(q.Search, true)
	if term == "" {
		return true
	}
	for _, path := range q.SearchFields {
		if strings.Contains(strings.ToLower(gjson.GetBytes(data, path).String()), term) {
			return true
		}
	}
	return false
}

// Sort orders documents in place by the given fields, then by creation time.
func Sort(docs []Document, ordering []core.DBOrdering) {
	sort.SliceStable(docs, func(i, j int) bool {
		for _, ord := range ordering {
			a, b := gjson.GetBytes(docs[i].Data, ord.Field), gjson.GetBytes(docs[j].Data, ord.Field)
			if !ord.Ascending {
				a, b = b, a
			}
			if a.Less(b, false) {
				return true
			}
			if b.Less(a, false) {
				return false
			}
		}
		return docs[i].CreatedAt.Before(docs[j].CreatedAt)
	})
}
