package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/academic"
	"github.com/trezcool/campus/core/crud"
	"github.com/trezcool/campus/core/page"
	"github.com/trezcool/campus/core/store"
	"github.com/trezcool/campus/core/user"
)

// record is any item of any resource, as sent by the API.
type record map[string]interface{}

func (r record) EntityID() string {
	if id, ok := r["id"].(string); ok {
		return id
	}
	return ""
}

type (
	submitFunc func(ctx context.Context, coll *store.Collection[record], deps page.Deps, res crud.Resource, id string, values map[string]string) (record, error)
	importFunc func(coll *store.Collection[record], deps page.Deps, res crud.Resource) page.ImportFunc

	// formKit binds the console's generic records to the typed form of a resource.
	formKit struct {
		submit   submitFunc
		onImport importFunc
	}
)

var formKits = map[string]formKit{
	academic.ResStudent:    kitOf(academic.NewStudentForm),
	academic.ResCourse:     kitOf(academic.NewCourseForm),
	academic.ResProgram:    kitOf(academic.NewProgramForm),
	academic.ResAppeal:     kitOf(academic.NewAppealForm),
	academic.ResFeePayment: kitOf(academic.NewFeePaymentForm),
	academic.ResRole:       kitOf(user.NewRoleForm),
}

func kitOf[F any](defaults func() F) formKit {
	return formKit{
		submit:   submitForm(defaults),
		onImport: page.CreateEach[record, F],
	}
}

// submitForm returns a submitFunc setting values (dot paths) on the form of a new item,
// or of the item id when set.
func submitForm[F any](defaults func() F) submitFunc {
	return func(ctx context.Context, coll *store.Collection[record], deps page.Deps, res crud.Resource, id string, values map[string]string) (record, error) {
		fp := page.NewFormPage(coll, deps, page.FormConfig[record, F]{
			Resource:   res,
			Defaults:   defaults,
			FromEntity: formFrom[F],
		}, id)
		if err := fp.Mount(ctx); err != nil {
			return nil, err
		}

		form := fp.View().Form
		if err := crud.Decode(values, &form); err != nil {
			return nil, core.NewValidationError(err)
		}
		return fp.Submit(ctx, form)
	}
}

func formFrom[F any](r record) F {
	var form F
	if data, err := json.Marshal(r); err == nil {
		_ = json.Unmarshal(data, &form)
	}
	return form
}

// tableExporter prints tables as aligned text columns.
type tableExporter struct{}

var _ page.Exporter = tableExporter{}

func (tableExporter) Write(w io.Writer, t page.Table) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.Header, "\t"))
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return errors.Wrap(tw.Flush(), "writing table")
}

func printFields(w io.Writer, fields []page.Field) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, f := range fields {
		fmt.Fprintf(tw, "%s:\t%s\n", f.Header, f.Value)
	}
	return errors.Wrap(tw.Flush(), "writing fields")
}
