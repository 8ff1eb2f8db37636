// Package page holds the headless list, form and detail page controllers shared by
// every resource. A page binds a store.Collection to a permission gate and to the
// notification, navigation and spreadsheet boundaries.
package page

import (
	"encoding/json"
	"io"
	"strings"

	ut "github.com/go-playground/universal-translator"
	validator "github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/user"
)

// ErrAccessDenied is returned by page operations the current user is not allowed to perform.
var ErrAccessDenied = errors.New("access denied")

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

type Notification struct {
	Kind        Kind
	Title       string
	Description string
}

// Notifier shows transient messages to the user.
type Notifier interface {
	Notify(n Notification)
}

// Navigator moves the user to another page.
type Navigator interface {
	Navigate(path string)
}

type (
	// Row is one spreadsheet row keyed by column header (or by dot path once matched).
	Row map[string]string

	// Table is what an Exporter writes: a header line and rows of cells.
	Table struct {
		Name   string
		Header []string
		Rows   [][]string
	}

	Exporter interface {
		Write(w io.Writer, t Table) error
	}

	Importer interface {
		Read(r io.Reader) ([]Row, error)
	}
)

// Deps are the collaborators shared by every page.
type Deps struct {
	Gate       user.Gate
	Notifier   Notifier
	Navigator  Navigator
	Exporter   Exporter
	Importer   Importer
	Validate   *validator.Validate
	Translator ut.Translator
	Logger     core.Logger
}

func (d Deps) notify(kind Kind, title, desc string) {
	if d.Notifier != nil {
		d.Notifier.Notify(Notification{Kind: kind, Title: title, Description: desc})
	}
}

func (d Deps) navigate(path string) {
	if d.Navigator != nil && path != "" {
		d.Navigator.Navigate(path)
	}
}

func (d Deps) notifyFailure(title string, err error) {
	msg := core.ErrorMessage(err)
	if msg == "" {
		msg = core.GenericErrorMessage
	}
	d.notify(KindError, title, msg)
}

// document is an entity encoded once for repeated dot-path lookups.
type document []byte

func newDocument(item interface{}) document {
	data, err := json.Marshal(item)
	if err != nil {
		return nil
	}
	return data
}

func (d document) get(path string) gjson.Result {
	return gjson.GetBytes(d, path)
}

// text renders the value at path as a cell: arrays are joined with ", ", missing values are empty.
func (d document) text(path string) string {
	res := d.get(path)
	if !res.Exists() || res.Type == gjson.Null {
		return ""
	}
	if res.IsArray() {
		vals := res.Array()
		parts := make([]string, 0, len(vals))
		for _, v := range vals {
			parts = append(parts, v.String())
		}
		return strings.Join(parts, ", ")
	}
	return res.String()
}

// contains reports whether any of the paths holds term, ignoring case. term must be lower case.
func (d document) contains(paths []string, term string) bool {
	for _, p := range paths {
		if strings.Contains(strings.ToLower(d.text(p)), term) {
			return true
		}
	}
	return false
}
