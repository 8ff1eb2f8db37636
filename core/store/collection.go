// Package store holds the client-side state of REST resources: one Collection per resource,
// registered in a Store handle passed down to the pages.
package store

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/crud"
)

// Phase of an operation, as seen by subscribers.
type Phase int

const (
	Idle Phase = iota
	Pending
	Fulfilled
	Rejected
)

func (p Phase) String() string {
	switch p {
	case Pending:
		return "pending"
	case Fulfilled:
		return "fulfilled"
	case Rejected:
		return "rejected"
	default:
		return "idle"
	}
}

// State is a copy of a Collection's state.
type State[T core.Entity] struct {
	Items    []T
	Selected *T
	Loading  bool
	Error    string

	// Op and Phase describe the change that produced this state.
	Op    string
	Phase Phase
}

// Collection mediates between the pages and a crud.Service, tracking items, selection,
// loading and error state.
//
// Operations may overlap. Each one takes a generation number when issued, and results
// are applied by recency of issue rather than of settlement:
//   - Loading and Error only reflect the most recently issued operation;
//   - FetchAll replaces items only if no other FetchAll was issued after it, and no more
//     recently issued result was already applied;
//   - mutations always apply their change to items;
//   - FetchByID sets the selection unless a more recent one was applied.
type Collection[T core.Entity] struct {
	svc    crud.Service[T]
	logger core.Logger

	mu          sync.Mutex
	state       State[T]
	issued      uint64 // last generation handed out
	fetchIssued uint64 // last generation handed out to FetchAll
	itemsGen    uint64 // generation of the last change applied to items
	selectedGen uint64 // generation of the last change applied to the selection
	subs        map[int]func(State[T])
	nextSub     int
}

func NewCollection[T core.Entity](svc crud.Service[T], logger core.Logger) *Collection[T] {
	return &Collection[T]{
		svc:    svc,
		logger: logger,
		subs:   make(map[int]func(State[T])),
	}
}

// Resource returns the name of the underlying REST resource.
func (c *Collection[T]) Resource() string { return c.svc.Resource() }

// Snapshot returns a copy of the current state.
func (c *Collection[T]) Snapshot() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyState()
}

// Subscribe registers fn to be called, outside the lock, after every state change.
func (c *Collection[T]) Subscribe(fn func(State[T])) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// FetchAll replaces the items with the result of the service's GetAll.
// Items are left untouched on failure.
func (c *Collection[T]) FetchAll(ctx context.Context, params crud.Params) ([]T, error) {
	gen := c.begin("fetchAll", true)
	items, err := c.svc.GetAll(ctx, params)
	if err != nil {
		c.fail("fetchAll", gen, err)
		return nil, errors.Wrapf(err, "fetching %s", c.Resource())
	}

	c.settle("fetchAll", gen, func() {
		if gen == c.fetchIssued && gen > c.itemsGen {
			c.state.Items = make([]T, len(items))
			copy(c.state.Items, items)
			c.itemsGen = gen
		} else {
			c.debug("discarding stale fetchAll result", gen)
		}
	})
	return items, nil
}

// FetchByID loads one entity into the selection.
func (c *Collection[T]) FetchByID(ctx context.Context, id string) (T, error) {
	gen := c.begin("fetchById", false)
	item, err := c.svc.GetByID(ctx, id)
	if err != nil {
		c.fail("fetchById", gen, err)
		return item, errors.Wrapf(err, "fetching %s %s", c.Resource(), id)
	}

	c.settle("fetchById", gen, func() {
		if gen > c.selectedGen {
			c.state.Selected = &item
			c.selectedGen = gen
		} else {
			c.debug("discarding stale fetchById result", gen)
		}
	})
	return item, nil
}

// Create appends the entity returned by the server to the items.
// Should the id already be listed (a concurrent fetch got it first), it is replaced in place.
func (c *Collection[T]) Create(ctx context.Context, data crud.Payload) (T, error) {
	gen := c.begin("create", false)
	item, err := c.svc.Create(ctx, data)
	if err != nil {
		c.fail("create", gen, err)
		return item, errors.Wrapf(err, "creating %s", c.Resource())
	}

	c.settle("create", gen, func() {
		if i := c.indexOf(item.EntityID()); i >= 0 {
			c.state.Items[i] = item
		} else {
			c.state.Items = append(c.state.Items, item)
		}
		c.bumpItems(gen)
	})
	return item, nil
}

// Update replaces the matching item, and the selection if it matches.
// An id that is not listed leaves the items unchanged.
func (c *Collection[T]) Update(ctx context.Context, id string, data crud.Payload) (T, error) {
	gen := c.begin("update", false)
	item, err := c.svc.Update(ctx, id, data)
	if err != nil {
		c.fail("update", gen, err)
		return item, errors.Wrapf(err, "updating %s %s", c.Resource(), id)
	}

	c.settle("update", gen, func() {
		if i := c.indexOf(item.EntityID()); i >= 0 {
			items := make([]T, len(c.state.Items))
			copy(items, c.state.Items)
			items[i] = item
			c.state.Items = items
			c.bumpItems(gen)
		}
		if c.state.Selected != nil && (*c.state.Selected).EntityID() == item.EntityID() {
			c.state.Selected = &item
			c.bumpSelected(gen)
		}
	})
	return item, nil
}

// Delete removes the matching item, and clears the selection if it matches.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	gen := c.begin("delete", false)
	if err := c.svc.Delete(ctx, id); err != nil {
		c.fail("delete", gen, err)
		return errors.Wrapf(err, "deleting %s %s", c.Resource(), id)
	}

	c.settle("delete", gen, func() {
		if i := c.indexOf(id); i >= 0 {
			items := make([]T, 0, len(c.state.Items)-1)
			items = append(items, c.state.Items[:i]...)
			items = append(items, c.state.Items[i+1:]...)
			c.state.Items = items
			c.bumpItems(gen)
		}
		if c.state.Selected != nil && (*c.state.Selected).EntityID() == id {
			c.state.Selected = nil
			c.bumpSelected(gen)
		}
	})
	return nil
}

func (c *Collection[T]) ClearItems() {
	c.reset("clearItems", func() { c.state.Items = nil })
}

func (c *Collection[T]) ClearSelected() {
	c.reset("clearSelected", func() { c.state.Selected = nil })
}

func (c *Collection[T]) ClearError() {
	c.reset("clearError", func() { c.state.Error = "" })
}

// begin issues a new generation and enters the pending phase.
func (c *Collection[T]) begin(op string, fetch bool) uint64 {
	c.mu.Lock()
	c.issued++
	gen := c.issued
	if fetch {
		c.fetchIssued = gen
	}
	c.state.Loading = true
	c.state.Error = ""
	c.state.Op, c.state.Phase = op, Pending
	c.unlockAndPublish()
	return gen
}

// settle applies a successful result, then releases loading if gen is the latest issued.
func (c *Collection[T]) settle(op string, gen uint64, apply func()) {
	c.mu.Lock()
	apply()
	if gen == c.issued {
		c.state.Loading = false
		c.state.Op, c.state.Phase = op, Fulfilled
	}
	c.unlockAndPublish()
}

// fail stores the error message if gen is the latest issued.
func (c *Collection[T]) fail(op string, gen uint64, err error) {
	c.mu.Lock()
	if gen != c.issued {
		c.mu.Unlock()
		c.debug("discarding stale "+op+" error", gen)
		return
	}
	c.state.Loading = false
	c.state.Error = core.ErrorMessage(err)
	c.state.Op, c.state.Phase = op, Rejected
	c.unlockAndPublish()
}

func (c *Collection[T]) reset(op string, apply func()) {
	c.mu.Lock()
	apply()
	c.state.Op, c.state.Phase = op, Idle
	c.unlockAndPublish()
}

// indexOf must be called with the lock held.
func (c *Collection[T]) indexOf(id string) int {
	for i, item := range c.state.Items {
		if item.EntityID() == id {
			return i
		}
	}
	return -1
}

func (c *Collection[T]) bumpItems(gen uint64) {
	if gen > c.itemsGen {
		c.itemsGen = gen
	}
}

func (c *Collection[T]) bumpSelected(gen uint64) {
	if gen > c.selectedGen {
		c.selectedGen = gen
	}
}

// copyState must be called with the lock held.
func (c *Collection[T]) copyState() State[T] {
	st := c.state
	if c.state.Items != nil {
		st.Items = make([]T, len(c.state.Items))
		copy(st.Items, c.state.Items)
	}
	if c.state.Selected != nil {
		sel := *c.state.Selected
		st.Selected = &sel
	}
	return st
}

// unlockAndPublish releases the lock held by the caller, then hands the state it left
// behind to the subscribers.
func (c *Collection[T]) unlockAndPublish() {
	st := c.copyState()
	subs := make([]func(State[T]), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(st)
	}
}

func (c *Collection[T]) debug(msg string, gen uint64) {
	if c.logger != nil {
		c.logger.Debug(msg, map[string]interface{}{"resource": c.Resource(), "generation": gen})
	}
}
