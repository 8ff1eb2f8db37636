package page

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/crud"
	"github.com/trezcool/campus/core/store"
)

// MinHeaderRatio is the lowest similarity at which a spreadsheet header is taken for a column.
var MinHeaderRatio = 0.7

// MatchHeaders maps spreadsheet headers to column paths. A header matches a column when it
// equals the column's header or path (ignoring case and separators), otherwise when it is
// similar enough to one of them. Each column is matched at most once; unmatched headers
// are left out.
func MatchHeaders(columns []crud.Column, headers []string) map[string]string {
	matched := make(map[string]string, len(headers))
	taken := make(map[string]bool, len(columns))

	var rest []string
	for _, h := range headers {
		norm := normalizeHeader(h)
		found := false
		for _, col := range columns {
			if taken[col.Path] {
				continue
			}
			if norm == normalizeHeader(col.Header) || norm == normalizeHeader(col.Path) {
				matched[h] = col.Path
				taken[col.Path] = true
				found = true
				break
			}
		}
		if !found {
			rest = append(rest, h)
		}
	}

	for _, h := range rest {
		norm := normalizeHeader(h)
		best, bestRatio := "", MinHeaderRatio
		for _, col := range columns {
			if taken[col.Path] {
				continue
			}
			for _, name := range []string{col.Header, col.Path} {
				if r := similarity(norm, normalizeHeader(name)); r >= bestRatio {
					best, bestRatio = col.Path, r
				}
			}
		}
		if best != "" {
			matched[h] = best
			taken[best] = true
		}
	}
	return matched
}

// MatchRows re-keys rows by column path, dropping the cells of unmatched headers.
func MatchRows(columns []crud.Column, rows []Row) []Row {
	if len(rows) == 0 {
		return nil
	}
	seen := make(map[string]bool)
	var headers []string
	for _, row := range rows {
		for h := range row {
			if !seen[h] {
				seen[h] = true
				headers = append(headers, h)
			}
		}
	}
	mapping := MatchHeaders(columns, headers)

	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		r := make(Row, len(mapping))
		for h, val := range row {
			if path, ok := mapping[h]; ok {
				r[path] = val
			}
		}
		out = append(out, r)
	}
	return out
}

func similarity(a, b string) float64 {
	m := difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, ""))
	return m.Ratio()
}

// CreateEach returns an ImportFunc creating one item per row. Each row is decoded into a
// new form F (a struct type), validated, then created through the collection. Failing rows
// are skipped and reported together.
func CreateEach[T core.Entity, F any](coll *store.Collection[T], deps Deps, res crud.Resource) ImportFunc {
	return func(ctx context.Context, rows []Row) error {
		if !deps.Gate.CanCreate(res.Name) {
			return ErrAccessDenied
		}

		var failed []string
		for i, row := range rows {
			if err := createRow[T, F](ctx, coll, deps, row); err != nil {
				// the header is row 1
				failed = append(failed, fmt.Sprintf("row %d: %s", i+2, core.ErrorMessage(err)))
			}
		}

		label := core.Pluralize(res.Label)
		created := len(rows) - len(failed)
		if len(failed) > 0 {
			err := errors.Errorf("%d of %d rows failed: %s", len(failed), len(rows), strings.Join(failed, "; "))
			deps.notify(KindError, fmt.Sprintf("Imported %d of %d %s", created, len(rows), label), err.Error())
			return err
		}
		deps.notify(KindSuccess, fmt.Sprintf("Imported %d %s", created, label), "")
		return nil
	}
}

func createRow[T core.Entity, F any](ctx context.Context, coll *store.Collection[T], deps Deps, row Row) error {
	var form F
	if err := crud.Decode(row, &form); err != nil {
		return core.NewValidationError(err)
	}
	if deps.Validate != nil {
		if err := core.ValidateStruct(deps.Validate, deps.Translator, form); err != nil {
			return err
		}
	}
	data, err := crud.PayloadOf(form)
	if err != nil {
		return err
	}
	_, err = coll.Create(ctx, data)
	return err
}
