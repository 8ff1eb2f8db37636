package store

import (
	"context"
	"strconv"
	"sync"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/crud"
)

type course struct {
	core.Model
	Name string `json:"name"`
}

func newCourse(id, name string) course {
	return course{Model: core.Model{ID: id}, Name: name}
}

type answer struct {
	items []course
	err   error
}

// fakeService is an in-memory crud.Service. Setting err makes every call fail.
// When gates are set, the n-th GetAll call answers with what gates[n] receives.
type fakeService struct {
	mu     sync.Mutex
	items  []course
	nextID int
	err    error
	gates  []chan answer
	calls  int
}

func (svc *fakeService) getAllCalls() int {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return svc.calls
}

var _ crud.Service[course] = (*fakeService)(nil)

func (svc *fakeService) Resource() string { return "course" }

func (svc *fakeService) GetAll(ctx context.Context, _ crud.Params) ([]course, error) {
	svc.mu.Lock()
	n := svc.calls
	svc.calls++
	var gate chan answer
	if n < len(svc.gates) {
		gate = svc.gates[n]
	}
	svc.mu.Unlock()

	if gate != nil {
		select {
		case ans := <-gate:
			return ans.items, ans.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()
	if svc.err != nil {
		return nil, svc.err
	}
	return append([]course(nil), svc.items...), nil
}

func (svc *fakeService) GetByID(_ context.Context, id string) (course, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	if svc.err != nil {
		return course{}, svc.err
	}
	for _, c := range svc.items {
		if c.ID == id {
			return c, nil
		}
	}
	return course{}, core.NewNotFoundError("course", id)
}

func (svc *fakeService) Create(_ context.Context, data crud.Payload) (course, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	if svc.err != nil {
		return course{}, svc.err
	}
	name, _ := data["name"].(string)
	id, ok := data["id"].(string)
	if !ok {
		svc.nextID++
		id = strconv.Itoa(svc.nextID)
	}
	c := newCourse(id, name)
	svc.items = append(svc.items, c)
	return c, nil
}

func (svc *fakeService) Update(_ context.Context, id string, data crud.Payload) (course, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	if svc.err != nil {
		return course{}, svc.err
	}
	for i, c := range svc.items {
		if c.ID == id {
			if name, ok := data["name"].(string); ok {
				c.Name = name
			}
			svc.items[i] = c
			return c, nil
		}
	}
	// the server knows ids the list view may not: answer as if it did
	name, _ := data["name"].(string)
	return newCourse(id, name), nil
}

func (svc *fakeService) Delete(_ context.Context, id string) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	if svc.err != nil {
		return svc.err
	}
	for i, c := range svc.items {
		if c.ID == id {
			svc.items = append(svc.items[:i], svc.items[i+1:]...)
			return nil
		}
	}
	return core.NewNotFoundError("course", id)
}
