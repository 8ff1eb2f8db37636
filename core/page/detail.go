package page

import (
	"context"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/crud"
	"github.com/trezcool/campus/core/store"
)

type DetailConfig struct {
	Resource crud.Resource
	Columns  []crud.Column // defaults to Resource.Columns
	BasePath string        // where to go after a delete
}

// Field is one labelled value of the shown item.
type Field struct {
	Header string
	Value  string
}

type DetailView[T core.Entity] struct {
	Denied  bool
	Loading bool
	Error   string
	Item    *T
	Fields  []Field
}

// DetailPage shows a single item.
type DetailPage[T core.Entity] struct {
	cfg  DetailConfig
	coll *store.Collection[T]
	deps Deps
	id   string
}

func NewDetailPage[T core.Entity](coll *store.Collection[T], deps Deps, cfg DetailConfig, id string) *DetailPage[T] {
	if cfg.Columns == nil {
		cfg.Columns = cfg.Resource.Columns
	}
	return &DetailPage[T]{cfg: cfg, coll: coll, deps: deps, id: id}
}

func (p *DetailPage[T]) Mount(ctx context.Context) error {
	if !p.deps.Gate.CanView(p.cfg.Resource.Name) {
		return ErrAccessDenied
	}
	_, err := p.coll.FetchByID(ctx, p.id)
	return err
}

func (p *DetailPage[T]) View() DetailView[T] {
	if !p.deps.Gate.CanView(p.cfg.Resource.Name) {
		return DetailView[T]{Denied: true}
	}
	st := p.coll.Snapshot()
	v := DetailView[T]{Loading: st.Loading, Error: st.Error}
	if st.Selected == nil || (*st.Selected).EntityID() != p.id {
		return v
	}
	v.Item = st.Selected
	doc := newDocument(*st.Selected)
	for _, col := range p.cfg.Columns {
		v.Fields = append(v.Fields, Field{Header: col.Header, Value: doc.text(col.Path)})
	}
	return v
}

// Delete removes the shown item, then notifies and sends the user to the base path.
func (p *DetailPage[T]) Delete(ctx context.Context) error {
	if !p.deps.Gate.CanDelete(p.cfg.Resource.Name) {
		return ErrAccessDenied
	}
	if err := p.coll.Delete(ctx, p.id); err != nil {
		p.deps.notifyFailure("Could not delete "+p.cfg.Resource.Label, err)
		return err
	}
	p.deps.notify(KindSuccess, p.cfg.Resource.Title()+" deleted", "")
	p.deps.navigate(p.cfg.BasePath)
	return nil
}
