package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/crud"
	"github.com/trezcool/campus/core/user"
	"github.com/trezcool/campus/storage"
)

const requiredText = "this field is required"

var errInvalidBody = errors.New("invalid JSON body")

type (
	document map[string]interface{}

	// resourceAPI serves the documents of one resource, stored under its REST path.
	resourceAPI struct {
		res  crud.Resource
		deps ServerDeps

		// merges guards the handlers that load, merge then save a document.
		// It only holds within one process.
		merges *sync.Mutex
	}

	writeFunc func(context.Context, storage.Document) (storage.Document, error)
)

func registerResourceAPI(g *echo.Group, res crud.Resource, deps ServerDeps) {
	api := resourceAPI{res: res, deps: deps, merges: new(sync.Mutex)}
	can := func(action string) echo.MiddlewareFunc {
		return permissionMiddleware(res.Name, action)
	}

	base := "/" + res.Path
	g.GET(base, api.list, can(user.ActionView))
	g.POST(base, api.create, can(user.ActionCreate))
	g.GET(base+"/:id", api.retrieve, can(user.ActionView))
	g.PUT(base+"/:id", api.exclusive(api.update), can(user.ActionEdit))
	g.DELETE(base+"/:id", api.delete, can(user.ActionDelete))

	g.GET(base+"/:id/:relation", api.listRelation, can(user.ActionView))
	g.PUT(base+"/:id/:relation", api.exclusive(api.replaceRelation), can(user.ActionEdit))
	g.POST(base+"/:id/:relation", api.exclusive(api.addRelation), can(user.ActionEdit))
	g.DELETE(base+"/:id/:relation/:relID", api.exclusive(api.removeRelation), can(user.ActionEdit))
}

// exclusive runs h while holding the merge lock, so that concurrent edits of a document
// do not drop each other's changes.
func (api resourceAPI) exclusive(h echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		api.merges.Lock()
		defer api.merges.Unlock()
		return h(ctx)
	}
}

func (api resourceAPI) list(ctx echo.Context) error {
	docs, err := api.deps.Repo.List(ctx.Request().Context(), api.res.Path, bindQuery(ctx, api.res))
	if err != nil {
		return errors.Wrapf(err, "listing %s", api.res.Path)
	}
	items := make([]json.RawMessage, 0, len(docs))
	for _, doc := range docs {
		items = append(items, doc.Data)
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api resourceAPI) create(ctx echo.Context) error {
	data, err := api.decodeBody(ctx)
	if err != nil {
		return err
	}
	if data == nil {
		data = make(document)
	}

	id, _ := data["id"].(string)
	if id = strings.TrimSpace(id); id == "" {
		id = uuid.NewString()
	}
	data["id"] = id

	doc, err := api.save(ctx, id, data, api.deps.Repo.Create)
	if err != nil {
		return errors.Wrapf(err, "creating %s", api.res.Name)
	}
	return ctx.JSONBlob(http.StatusCreated, doc.Data)
}

func (api resourceAPI) retrieve(ctx echo.Context) error {
	doc, err := api.deps.Repo.Get(ctx.Request().Context(), api.res.Path, ctx.Param("id"))
	if err != nil {
		return errors.Wrapf(err, "getting %s", api.res.Name)
	}
	return ctx.JSONBlob(http.StatusOK, doc.Data)
}

// update merges the body into the stored document: a null value removes the field.
func (api resourceAPI) update(ctx echo.Context) error {
	data, err := api.load(ctx)
	if err != nil {
		return err
	}
	patch, err := api.decodeBody(ctx)
	if err != nil {
		return err
	}
	for key, val := range patch {
		if val == nil {
			delete(data, key)
			continue
		}
		data[key] = val
	}
	data["id"] = ctx.Param("id")

	doc, err := api.save(ctx, ctx.Param("id"), data, api.deps.Repo.Update)
	if err != nil {
		return errors.Wrapf(err, "updating %s", api.res.Name)
	}
	return ctx.JSONBlob(http.StatusOK, doc.Data)
}

func (api resourceAPI) delete(ctx echo.Context) error {
	if err := api.deps.Repo.Delete(ctx.Request().Context(), api.res.Path, ctx.Param("id")); err != nil {
		return errors.Wrapf(err, "deleting %s", api.res.Name)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Relations are lists held by the document under the relation name. Their elements are
// either plain ids or objects carrying an "id".

func (api resourceAPI) listRelation(ctx echo.Context) error {
	name, err := api.relation(ctx)
	if err != nil {
		return err
	}
	data, err := api.load(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, relationItems(data, name))
}

func (api resourceAPI) replaceRelation(ctx echo.Context) error {
	name, err := api.relation(ctx)
	if err != nil {
		return err
	}
	data, err := api.load(ctx)
	if err != nil {
		return err
	}
	var items []interface{}
	if err = decodeJSON(ctx.Request().Body, &items); err != nil {
		return err
	}
	if items == nil {
		items = []interface{}{}
	}
	data[name] = items
	return api.saveRelation(ctx, name, data)
}

// addRelation appends the element unless one with the same id is already there.
func (api resourceAPI) addRelation(ctx echo.Context) error {
	name, err := api.relation(ctx)
	if err != nil {
		return err
	}
	data, err := api.load(ctx)
	if err != nil {
		return err
	}
	var item interface{}
	if err = decodeJSON(ctx.Request().Body, &item); err != nil {
		return err
	}
	if item == nil {
		return core.NewValidationError(errInvalidBody)
	}

	items := relationItems(data, name)
	for _, it := range items {
		if elementID(it) == elementID(item) {
			return ctx.JSON(http.StatusOK, items)
		}
	}
	data[name] = append(items, item)
	return api.saveRelation(ctx, name, data)
}

func (api resourceAPI) removeRelation(ctx echo.Context) error {
	name, err := api.relation(ctx)
	if err != nil {
		return err
	}
	data, err := api.load(ctx)
	if err != nil {
		return err
	}

	relID := ctx.Param("relID")
	items := relationItems(data, name)
	kept := make([]interface{}, 0, len(items))
	for _, it := range items {
		if elementID(it) != relID {
			kept = append(kept, it)
		}
	}
	if len(kept) == len(items) {
		return errHttpNotFound
	}
	data[name] = kept
	if _, err = api.save(ctx, ctx.Param("id"), data, api.deps.Repo.Update); err != nil {
		return errors.Wrapf(err, "removing %s %s", name, relID)
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api resourceAPI) relation(ctx echo.Context) (string, error) {
	name := ctx.Param("relation")
	if !api.res.HasRelation(name) {
		return "", errHttpNotFound
	}
	return name, nil
}

func (api resourceAPI) saveRelation(ctx echo.Context, name string, data document) error {
	if _, err := api.save(ctx, ctx.Param("id"), data, api.deps.Repo.Update); err != nil {
		return errors.Wrapf(err, "saving %s of %s", name, api.res.Name)
	}
	return ctx.JSON(http.StatusOK, data[name])
}

func (api resourceAPI) load(ctx echo.Context) (document, error) {
	doc, err := api.deps.Repo.Get(ctx.Request().Context(), api.res.Path, ctx.Param("id"))
	if err != nil {
		return nil, errors.Wrapf(err, "getting %s", api.res.Name)
	}
	data := make(document)
	if err = decodeJSON(bytes.NewReader(doc.Data), &data); err != nil {
		return nil, errors.Wrapf(err, "decoding %s %s", api.res.Name, doc.ID)
	}
	return data, nil
}

// save validates the document then writes it.
func (api resourceAPI) save(ctx echo.Context, id string, data document, write writeFunc) (storage.Document, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return storage.Document{}, errors.Wrap(err, "marshalling document")
	}
	if err = api.validate(raw); err != nil {
		return storage.Document{}, err
	}
	return write(ctx.Request().Context(), storage.Document{Resource: api.res.Path, ID: id, Data: raw})
}

// validate decodes the document into the resource's typed form and validates it.
// Resources without a form only get their required fields checked.
func (api resourceAPI) validate(raw []byte) error {
	newForm, ok := api.deps.Forms[api.res.Name]
	if !ok || api.deps.Validate == nil {
		return requiredFields(api.res, raw)
	}

	form := newForm()
	if err := json.Unmarshal(raw, form); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return core.NewValidationError(nil, core.FieldError{
				Field: typeErr.Field,
				Error: "invalid value",
			})
		}
		return core.NewValidationError(errInvalidBody)
	}
	return core.ValidateStruct(api.deps.Validate, api.deps.Translator, form)
}

func requiredFields(res crud.Resource, raw []byte) error {
	var flds []core.FieldError
	for _, path := range res.Required {
		val := gjson.GetBytes(raw, path)
		if !val.Exists() || val.Type == gjson.Null || val.String() == "" {
			flds = append(flds, core.FieldError{Field: path, Error: requiredText})
		}
	}
	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}

func relationItems(data document, name string) []interface{} {
	items, _ := data[name].([]interface{})
	if items == nil {
		items = []interface{}{}
	}
	return items
}

func elementID(item interface{}) string {
	if obj, ok := item.(map[string]interface{}); ok {
		item = obj["id"]
	}
	if item == nil {
		return ""
	}
	return fmt.Sprint(item)
}

// decodeBody reads a JSON or a form-encoded document.
func (api resourceAPI) decodeBody(ctx echo.Context) (document, error) {
	req := ctx.Request()
	if !strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationForm) {
		var data document
		if err := decodeJSON(req.Body, &data); err != nil {
			return nil, err
		}
		return data, nil
	}

	values, err := ctx.FormParams()
	if err != nil {
		return nil, core.NewValidationError(errInvalidBody)
	}
	return api.typed(crud.PayloadFromValues(values).Expand())
}

// typed converts the submitted fields of p to the field types of the resource form.
func (api resourceAPI) typed(p crud.Payload) (document, error) {
	data := document(p)
	newForm, ok := api.deps.Forms[api.res.Name]
	if !ok {
		return data, nil
	}

	form := newForm()
	if err := p.Decode(form); err != nil {
		return nil, core.NewValidationError(err)
	}
	raw, err := json.Marshal(form)
	if err != nil {
		return nil, errors.Wrap(err, "marshalling form")
	}
	var conv document
	if err = decodeJSON(bytes.NewReader(raw), &conv); err != nil {
		return nil, err
	}
	for key := range data {
		if val, ok := conv[key]; ok {
			data[key] = val
		}
	}
	return data, nil
}

// decodeJSON keeps numbers as written (json.Number) so that stored documents round-trip.
func decodeJSON(r io.Reader, dst interface{}) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return core.NewValidationError(errInvalidBody)
	}
	return nil
}
