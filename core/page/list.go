package page

import (
	"context"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/crud"
	"github.com/trezcool/campus/core/store"
	"github.com/trezcool/campus/core/user"
)

// ImportFunc receives imported rows keyed by column path. It decides what to do with
// them: nothing is merged into the collection automatically.
type ImportFunc func(ctx context.Context, rows []Row) error

type ListConfig struct {
	Resource     crud.Resource
	Title        string        // defaults to the pluralized resource label
	Columns      []crud.Column // defaults to Resource.Columns
	SearchFields []string      // dot paths, defaults to Resource.SearchFields
	BasePath     string
	Params       crud.Params // sent with every fetch
	OnImport     ImportFunc
}

type ListView[T core.Entity] struct {
	Title   string
	Columns []crud.Column
	Denied  bool
	Loading bool
	Error   string
	Search  string
	Rows    []T
	Total   int // items held by the collection, before filtering
}

// ListPage shows every item of a resource, filtered by a search term and optionally sorted.
type ListPage[T core.Entity] struct {
	cfg  ListConfig
	coll *store.Collection[T]

	mu       sync.Mutex
	deps     Deps
	search   string
	sortPath string
	sortAsc  bool
}

func NewListPage[T core.Entity](coll *store.Collection[T], deps Deps, cfg ListConfig) *ListPage[T] {
	if cfg.Title == "" {
		cfg.Title = core.Pluralize(cfg.Resource.Title())
	}
	if cfg.Columns == nil {
		cfg.Columns = cfg.Resource.Columns
	}
	if cfg.SearchFields == nil {
		cfg.SearchFields = cfg.Resource.SearchFields
	}
	return &ListPage[T]{cfg: cfg, coll: coll, deps: deps}
}

func (p *ListPage[T]) Config() ListConfig { return p.cfg }

// Mount fetches every item, unless the user may not view the resource.
func (p *ListPage[T]) Mount(ctx context.Context) error {
	if !p.canView() {
		return ErrAccessDenied
	}
	_, err := p.coll.FetchAll(ctx, p.cfg.Params)
	return err
}

// SetGate replaces the permission gate and mounts the page if viewing became allowed.
func (p *ListPage[T]) SetGate(ctx context.Context, gate user.Gate) error {
	p.mu.Lock()
	allowedBefore := p.deps.Gate.CanView(p.cfg.Resource.Name)
	p.deps.Gate = gate
	p.mu.Unlock()

	if allowedBefore || !gate.CanView(p.cfg.Resource.Name) {
		return nil
	}
	return p.Mount(ctx)
}

func (p *ListPage[T]) Refresh(ctx context.Context) error {
	return p.Mount(ctx)
}

// SetSearch filters the rows to items holding term in any search field, ignoring case.
func (p *ListPage[T]) SetSearch(term string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.search = term
}

// SortBy orders the rows on the value at a dot path. An empty path restores server order.
func (p *ListPage[T]) SortBy(path string, ascending bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sortPath = path
	p.sortAsc = ascending
}

func (p *ListPage[T]) View() ListView[T] {
	p.mu.Lock()
	search, sortPath, sortAsc := p.search, p.sortPath, p.sortAsc
	p.mu.Unlock()

	v := ListView[T]{Title: p.cfg.Title, Columns: p.cfg.Columns, Search: search}
	if !p.canView() {
		v.Denied = true
		return v
	}
	st := p.coll.Snapshot()
	v.Loading = st.Loading
	v.Error = st.Error
	v.Total = len(st.Items)
	v.Rows = filterRows(st.Items, p.cfg.SearchFields, search, sortPath, sortAsc)
	return v
}

// Export writes the filtered rows, one per item, with one cell per configured column.
func (p *ListPage[T]) Export(w io.Writer) error {
	if !p.canView() {
		return ErrAccessDenied
	}
	if p.deps.Exporter == nil {
		return errors.New("no exporter configured")
	}
	v := p.View()
	tbl := Table{Name: v.Title, Header: make([]string, 0, len(v.Columns)), Rows: make([][]string, 0, len(v.Rows))}
	for _, col := range v.Columns {
		tbl.Header = append(tbl.Header, col.Header)
	}
	for _, item := range v.Rows {
		doc := newDocument(item)
		cells := make([]string, 0, len(v.Columns))
		for _, col := range v.Columns {
			cells = append(cells, doc.text(col.Path))
		}
		tbl.Rows = append(tbl.Rows, cells)
	}
	if err := p.deps.Exporter.Write(w, tbl); err != nil {
		return errors.Wrap(err, "exporting "+p.cfg.Resource.Name)
	}
	return nil
}

func (p *ListPage[T]) ExportFile(filename string) (err error) {
	f, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "creating export file")
	}
	defer func() {
		if cErr := f.Close(); err == nil && cErr != nil {
			err = errors.Wrap(cErr, "closing export file")
		}
	}()
	return p.Export(f)
}

// Import reads rows from r, maps their headers onto the configured columns and hands
// them to the configured ImportFunc.
func (p *ListPage[T]) Import(ctx context.Context, r io.Reader) error {
	if !p.canView() {
		return ErrAccessDenied
	}
	if p.deps.Importer == nil {
		return errors.New("no importer configured")
	}
	if p.cfg.OnImport == nil {
		return errors.New("no import handler configured")
	}
	rows, err := p.deps.Importer.Read(r)
	if err != nil {
		return errors.Wrap(err, "reading import")
	}
	return p.cfg.OnImport(ctx, MatchRows(p.cfg.Columns, rows))
}

func (p *ListPage[T]) canView() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.deps.Gate.CanView(p.cfg.Resource.Name)
}

func filterRows[T core.Entity](items []T, fields []string, search, sortPath string, asc bool) []T {
	term := core.CleanString(search, true)
	if term == "" && sortPath == "" {
		return append([]T(nil), items...)
	}

	type entry struct {
		item T
		doc  document
	}
	entries := make([]entry, 0, len(items))
	for _, item := range items {
		doc := newDocument(item)
		if term != "" && !doc.contains(fields, term) {
			continue
		}
		entries = append(entries, entry{item, doc})
	}
	if sortPath != "" {
		sort.SliceStable(entries, func(i, j int) bool {
			a, b := entries[i].doc.get(sortPath), entries[j].doc.get(sortPath)
			if asc {
				return a.Less(b, false)
			}
			return b.Less(a, false)
		})
	}

	rows := make([]T, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, e.item)
	}
	return rows
}

func normalizeHeader(s string) string {
	s = core.CleanString(s, true)
	return strings.NewReplacer("_", " ", ".", " ", "-", " ").Replace(s)
}
