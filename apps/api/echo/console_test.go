package echoapi

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/academic"
	"github.com/trezcool/campus/core/page"
	"github.com/trezcool/campus/core/store"
	"github.com/trezcool/campus/core/user"
	"github.com/trezcool/campus/services/excel"
	"github.com/trezcool/campus/services/notify"
	"github.com/trezcool/campus/services/rest"
)

type navigator struct {
	paths []string
}

func (n *navigator) Navigate(path string) { n.paths = append(n.paths, path) }

// The console pages, driven through the REST client against a live server.
func TestConsole_RoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	ctx := context.Background()
	roles := []string{user.RoleAdminRegistrar}
	client := restsvc.NewClient(core.APIConfig{
		BaseURL: ts.URL + "/v1",
		Token:   getToken(t, roles...),
		Timeout: 5 * time.Second,
	}, nil, nil)

	courses := academic.Resources[academic.ResCourse]
	coll := store.NewCollection[academic.Course](restsvc.NewService[academic.Course](client, courses.Path), nil)

	toaster := notify.NewToaster(time.Minute)
	nav := &navigator{}
	validate, translator := core.NewValidator()
	deps := page.Deps{
		Gate:       user.NewGate(&user.User{Roles: roles}),
		Notifier:   toaster,
		Navigator:  nav,
		Exporter:   excel.Writer{},
		Importer:   excel.Reader{},
		Validate:   validate,
		Translator: translator,
	}

	// create through the form
	fp := page.NewFormPage(coll, deps, page.FormConfig[academic.Course, academic.CourseForm]{
		Resource: courses,
		BasePath: "/courses",
		Defaults: academic.NewCourseForm,
	}, "")
	require.NoError(t, fp.Mount(ctx))
	form := fp.View().Form
	form.Code = "CSC101"
	form.Title = "Intro to Computing"
	created, err := fp.Submit(ctx, form)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 3, created.Units)
	assert.Equal(t, []page.Notification{{Kind: page.KindSuccess, Title: "Course created"}}, toaster.Drain())
	assert.Equal(t, []string{"/courses"}, nav.paths)

	// server-side validation
	_, err = coll.Create(ctx, map[string]interface{}{"code": "CSC102"})
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr), "%v", err)
	assert.Equal(t, []core.FieldError{
		{Field: "title", Error: "this field is required"},
		{Field: "units", Error: "this field is required"},
	}, vErr.Fields)
	assert.Equal(t, "title: this field is required; units: this field is required", coll.Snapshot().Error)

	// import a spreadsheet
	var sheet bytes.Buffer
	require.NoError(t, excel.Writer{}.Write(&sheet, page.Table{
		Name:   "Courses",
		Header: []string{"Code", "Titel", "Unit"},
		Rows:   [][]string{{"MTH101", "Algebra", "2"}},
	}))
	lp := page.NewListPage(coll, deps, page.ListConfig{
		Resource: courses,
		OnImport: page.CreateEach[academic.Course, academic.CourseForm](coll, deps, courses),
	})
	require.NoError(t, lp.Import(ctx, &sheet))
	assert.Equal(t, "Imported 1 courses", toaster.Drain()[0].Title)

	// list, search, export
	require.NoError(t, lp.Mount(ctx))
	v := lp.View()
	assert.Equal(t, 2, v.Total)
	lp.SetSearch("algebra")
	require.Len(t, lp.View().Rows, 1)
	assert.Equal(t, 2, lp.View().Rows[0].Units)

	var out bytes.Buffer
	require.NoError(t, lp.Export(&out))
	rows, err := excel.Reader{}.Read(&out)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "MTH101", rows[0]["Code"])

	// relations
	lecturers := restsvc.NewRelation[string](client, courses.Path, "lecturer_ids")
	ids, err := lecturers.Add(ctx, created.ID, "l1")
	require.NoError(t, err)
	assert.Equal(t, []string{"l1"}, ids)
	require.NoError(t, lecturers.Remove(ctx, created.ID, "l1"))
	ids, err = lecturers.List(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)

	// delete from the detail page
	dp := page.NewDetailPage(coll, deps, page.DetailConfig{Resource: courses, BasePath: "/courses"}, created.ID)
	require.NoError(t, dp.Mount(ctx))
	require.NotNil(t, dp.View().Item)
	require.NoError(t, dp.Delete(ctx))
	assert.Equal(t, "Course deleted", toaster.Drain()[0].Title)

	_, err = coll.FetchByID(ctx, created.ID)
	assert.True(t, core.IsNotFound(err), "%v", err)
}

func TestConsole_Unauthorized(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := restsvc.NewClient(core.APIConfig{BaseURL: ts.URL + "/v1", Timeout: time.Second}, nil, nil)
	_, err := restsvc.NewService[academic.Course](client, "courses").GetAll(context.Background(), nil)

	var sErr *core.ServerError
	require.True(t, errors.As(err, &sErr), "%v", err)
	assert.Equal(t, 401, sErr.Status)
	assert.Equal(t, "missing or malformed jwt", sErr.Message)
}
