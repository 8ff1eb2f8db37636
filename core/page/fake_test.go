package page

import (
	"context"
	"encoding/json"
	"io"
	"strconv"
	"sync"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/crud"
	"github.com/trezcool/campus/core/user"
)

// memService keeps JSON documents in memory and decodes them into T.
type memService[T core.Entity] struct {
	mu       sync.Mutex
	resource string
	docs     []map[string]interface{}
	nextID   int
	err      error
	calls    map[string]int
}

func newMemService[T core.Entity](resource string, items ...T) *memService[T] {
	svc := &memService[T]{resource: resource, calls: make(map[string]int)}
	for _, item := range items {
		svc.docs = append(svc.docs, toDoc(item))
	}
	svc.nextID = len(items)
	return svc
}

func toDoc(v interface{}) map[string]interface{} {
	data, _ := json.Marshal(v)
	doc := make(map[string]interface{})
	_ = json.Unmarshal(data, &doc)
	return doc
}

func fromDoc[T core.Entity](doc map[string]interface{}) (T, error) {
	var ent T
	data, err := json.Marshal(doc)
	if err != nil {
		return ent, err
	}
	err = json.Unmarshal(data, &ent)
	return ent, err
}

func (svc *memService[T]) count(op string) int {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return svc.calls[op]
}

func (svc *memService[T]) begin(op string) error {
	svc.calls[op]++
	return svc.err
}

func (svc *memService[T]) Resource() string { return svc.resource }

func (svc *memService[T]) GetAll(_ context.Context, _ crud.Params) ([]T, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	if err := svc.begin("GetAll"); err != nil {
		return nil, err
	}
	items := make([]T, 0, len(svc.docs))
	for _, doc := range svc.docs {
		ent, err := fromDoc[T](doc)
		if err != nil {
			return nil, err
		}
		items = append(items, ent)
	}
	return items, nil
}

func (svc *memService[T]) GetByID(_ context.Context, id string) (T, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	var zero T
	if err := svc.begin("GetByID"); err != nil {
		return zero, err
	}
	for _, doc := range svc.docs {
		if doc["id"] == id {
			return fromDoc[T](doc)
		}
	}
	return zero, core.NewNotFoundError(svc.resource, id)
}

func (svc *memService[T]) Create(_ context.Context, data crud.Payload) (T, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	var zero T
	if err := svc.begin("Create"); err != nil {
		return zero, err
	}
	svc.nextID++
	doc := toDoc(data)
	doc["id"] = strconv.Itoa(svc.nextID)
	svc.docs = append(svc.docs, doc)
	return fromDoc[T](doc)
}

func (svc *memService[T]) Update(_ context.Context, id string, data crud.Payload) (T, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	var zero T
	if err := svc.begin("Update"); err != nil {
		return zero, err
	}
	for _, doc := range svc.docs {
		if doc["id"] == id {
			for k, v := range toDoc(data) {
				if v == nil {
					delete(doc, k)
					continue
				}
				doc[k] = v
			}
			return fromDoc[T](doc)
		}
	}
	return zero, core.NewNotFoundError(svc.resource, id)
}

func (svc *memService[T]) Delete(_ context.Context, id string) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	if err := svc.begin("Delete"); err != nil {
		return err
	}
	for i, doc := range svc.docs {
		if doc["id"] == id {
			svc.docs = append(svc.docs[:i], svc.docs[i+1:]...)
			return nil
		}
	}
	return core.NewNotFoundError(svc.resource, id)
}

type recorder struct {
	mu    sync.Mutex
	notes []Notification
	paths []string
}

func (r *recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

func (r *recorder) Navigate(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func (r *recorder) last() Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notes) == 0 {
		return Notification{}
	}
	return r.notes[len(r.notes)-1]
}

type tableSheet struct {
	written Table
	rows    []Row
}

func (s *tableSheet) Write(_ io.Writer, t Table) error {
	s.written = t
	return nil
}

func (s *tableSheet) Read(io.Reader) ([]Row, error) {
	return s.rows, nil
}

func gateFor(perms ...string) user.Gate {
	return user.NewGate(&user.User{Permissions: perms})
}

func newDeps(gate user.Gate, rec *recorder) Deps {
	validate, translator := core.NewValidator()
	return Deps{
		Gate:       gate,
		Notifier:   rec,
		Navigator:  rec,
		Validate:   validate,
		Translator: translator,
	}
}
