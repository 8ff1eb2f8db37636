package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/crud"
	"github.com/trezcool/campus/storage"
)

const (
	orderingParam = "ordering"
	searchParam   = "search"
)

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind reads the `ordering` param: comma-separated fields, "-" prefixed when descending.
func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}
	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// bindQuery builds the storage query of a list request. Params other than `search` and
// `ordering` filter on equality.
func bindQuery(ctx echo.Context, res crud.Resource) storage.Query {
	var ord Ordering
	ord.Bind(ctx)

	q := storage.Query{
		Search:       ctx.QueryParam(searchParam),
		SearchFields: res.SearchFields,
		Ordering:     ord.Orderings,
	}
	for key, vals := range ctx.QueryParams() {
		if key == searchParam || key == orderingParam || len(vals) == 0 {
			continue
		}
		if q.Filters == nil {
			q.Filters = make(map[string]string)
		}
		q.Filters[key] = vals[0]
	}
	return q
}
