package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/campus/core"
)

func TestQuery_Matches(t *testing.T) {
	doc := []byte(`{"id":"1","code":"CSC101","title":"Intro to Computing","units":3,"lecturer_ids":["u1","u2"],"meta":{"dept":"Computer Science"}}`)

	tests := []struct {
		name string
		q    Query
		want bool
	}{
		{"empty", Query{}, true},
		{"search", Query{Search: "COMPUTING", SearchFields: []string{"code", "title"}}, true},
		{"search nested", Query{Search: "science", SearchFields: []string{"meta.dept"}}, true},
		{"search miss", Query{Search: "physics", SearchFields: []string{"code", "title"}}, false},
		{"search outside fields", Query{Search: "science", SearchFields: []string{"title"}}, false},
		{"filter", Query{Filters: map[string]string{"units": "3", "code": "CSC101"}}, true},
		{"filter miss", Query{Filters: map[string]string{"units": "2"}}, false},
		{"filter missing field", Query{Filters: map[string]string{"level": "100"}}, false},
		{"filter array", Query{Filters: map[string]string{"lecturer_ids": "u2"}}, true},
		{"filter array miss", Query{Filters: map[string]string{"lecturer_ids": "u3"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.q.Matches(doc))
		})
	}
}

func TestSort(t *testing.T) {
	base := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	doc := func(id, data string, n int) Document {
		return Document{ID: id, Data: []byte(data), CreatedAt: base.Add(time.Duration(n) * time.Minute)}
	}
	docs := []Document{
		doc("a", `{"units":3,"code":"MTH"}`, 0),
		doc("b", `{"units":2,"code":"CSC"}`, 1),
		doc("c", `{"units":3,"code":"bio"}`, 2),
		doc("d", `{"units":2,"code":"CSC"}`, 3),
	}
	ids := func() []string {
		var out []string
		for _, d := range docs {
			out = append(out, d.ID)
		}
		return out
	}

	Sort(docs, []core.DBOrdering{{Field: "units", Ascending: false}, {Field: "code", Ascending: true}})
	assert.Equal(t, []string{"c", "a", "b", "d"}, ids())

	Sort(docs, nil)
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids())
}
