package page

import (
	"context"
	"sync"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/crud"
	"github.com/trezcool/campus/core/store"
)

type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// FormConfig describes a form page. F is the typed form state: a struct whose JSON tags
// name the payload fields and whose validate tags hold the field rules.
type FormConfig[T core.Entity, F any] struct {
	Resource   crud.Resource
	EntityName string // used in notifications, defaults to the resource label
	BasePath   string // where to go after a successful submit
	Defaults   func() F
	FromEntity func(T) F
}

type FormView[F any] struct {
	Mode    Mode
	Denied  bool
	Loading bool
	Ready   bool // the form holds defaults or the fetched entity
	Error   string
	Form    F
}

// FormPage creates a new item (empty id) or edits an existing one.
type FormPage[T core.Entity, F any] struct {
	cfg  FormConfig[T, F]
	coll *store.Collection[T]
	deps Deps
	id   string

	mu    sync.Mutex
	form  F
	ready bool
}

func NewFormPage[T core.Entity, F any](coll *store.Collection[T], deps Deps, cfg FormConfig[T, F], id string) *FormPage[T, F] {
	if cfg.EntityName == "" {
		cfg.EntityName = cfg.Resource.Title()
	}
	return &FormPage[T, F]{cfg: cfg, coll: coll, deps: deps, id: id}
}

func (p *FormPage[T, F]) Mode() Mode {
	if p.id == "" {
		return ModeCreate
	}
	return ModeEdit
}

func (p *FormPage[T, F]) allowed() bool {
	if p.Mode() == ModeEdit {
		return p.deps.Gate.CanEdit(p.cfg.Resource.Name)
	}
	return p.deps.Gate.CanCreate(p.cfg.Resource.Name)
}

// Mount fills the form: with defaults in create mode, with the fetched entity in edit mode.
func (p *FormPage[T, F]) Mount(ctx context.Context) error {
	if !p.allowed() {
		return ErrAccessDenied
	}

	if p.Mode() == ModeCreate {
		var form F
		if p.cfg.Defaults != nil {
			form = p.cfg.Defaults()
		}
		p.setForm(form)
		return nil
	}

	ent, err := p.coll.FetchByID(ctx, p.id)
	if err != nil {
		return err
	}
	var form F
	if p.cfg.FromEntity != nil {
		form = p.cfg.FromEntity(ent)
	}
	p.setForm(form)
	return nil
}

func (p *FormPage[T, F]) setForm(form F) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.form = form
	p.ready = true
}

func (p *FormPage[T, F]) View() FormView[F] {
	v := FormView[F]{Mode: p.Mode()}
	if !p.allowed() {
		v.Denied = true
		return v
	}
	p.mu.Lock()
	v.Form, v.Ready = p.form, p.ready
	p.mu.Unlock()

	st := p.coll.Snapshot()
	v.Loading = st.Loading
	v.Error = st.Error
	return v
}

// Submit validates the form and creates or updates the item. On success the user is
// notified and sent to the base path. On failure an error notification is shown and the
// form keeps the submitted values.
func (p *FormPage[T, F]) Submit(ctx context.Context, form F) (T, error) {
	var zero T
	if !p.allowed() {
		return zero, ErrAccessDenied
	}
	p.setForm(form)

	verb, failTitle := "created", "Could not create "+p.cfg.Resource.Label
	if p.Mode() == ModeEdit {
		verb, failTitle = "updated", "Could not update "+p.cfg.Resource.Label
	}

	if p.deps.Validate != nil {
		if err := core.ValidateStruct(p.deps.Validate, p.deps.Translator, form); err != nil {
			p.deps.notifyFailure(failTitle, err)
			return zero, err
		}
	}
	payloadOf := crud.PayloadOf
	if p.Mode() == ModeEdit {
		payloadOf = crud.FullPayloadOf
	}
	data, err := payloadOf(form)
	if err != nil {
		p.deps.notifyFailure(failTitle, err)
		return zero, err
	}

	var ent T
	if p.Mode() == ModeEdit {
		ent, err = p.coll.Update(ctx, p.id, data)
	} else {
		ent, err = p.coll.Create(ctx, data)
	}
	if err != nil {
		p.deps.notifyFailure(failTitle, err)
		return zero, err
	}

	p.deps.notify(KindSuccess, p.cfg.EntityName+" "+verb, "")
	p.deps.navigate(p.cfg.BasePath)
	return ent, nil
}
