package store

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/crud"
)

func setup(t *testing.T, items ...course) (*Collection[course], *fakeService) {
	t.Helper()
	svc := &fakeService{items: items, nextID: len(items)}
	coll := NewCollection[course](svc, nil)
	_, err := coll.FetchAll(context.Background(), nil)
	require.NoError(t, err)
	return coll, svc
}

func ids(items []course) []string {
	out := make([]string, 0, len(items))
	for _, c := range items {
		out = append(out, c.ID)
	}
	return out
}

func TestCollection_FetchAll(t *testing.T) {
	coll, svc := setup(t, newCourse("1", "Algebra"), newCourse("2", "CS101"))

	st := coll.Snapshot()
	assert.Equal(t, []string{"1", "2"}, ids(st.Items))
	assert.False(t, st.Loading)
	assert.Empty(t, st.Error)
	assert.Equal(t, Fulfilled, st.Phase)

	// rejected: items untouched
	svc.err = errors.New("network down")
	_, err := coll.FetchAll(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, "network down", errors.Cause(err).Error())

	st = coll.Snapshot()
	assert.False(t, st.Loading)
	assert.Equal(t, "network down", st.Error)
	assert.Equal(t, []string{"1", "2"}, ids(st.Items))
	assert.Equal(t, Rejected, st.Phase)

	// next operation clears the error when pending
	svc.err = nil
	_, err = coll.FetchAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, coll.Snapshot().Error)
}

func TestCollection_Phases(t *testing.T) {
	coll, svc := setup(t, newCourse("1", "Algebra"))

	var phases []Phase
	var loading []bool
	unsubscribe := coll.Subscribe(func(st State[course]) {
		phases = append(phases, st.Phase)
		loading = append(loading, st.Loading)
	})

	_, err := coll.FetchAll(context.Background(), nil)
	require.NoError(t, err)
	svc.err = errors.New("boom")
	_, err = coll.FetchByID(context.Background(), "1")
	require.Error(t, err)

	assert.Equal(t, []Phase{Pending, Fulfilled, Pending, Rejected}, phases)
	assert.Equal(t, []bool{true, false, true, false}, loading)

	unsubscribe()
	coll.ClearError()
	assert.Len(t, phases, 4)
}

func TestCollection_CreateThenFetch(t *testing.T) {
	coll, svc := setup(t, newCourse("1", "Algebra"))
	svc.nextID = 8

	created, err := coll.Create(context.Background(), crud.Payload{"name": "X"})
	require.NoError(t, err)
	assert.Equal(t, newCourse("9", "X"), created)

	st := coll.Snapshot()
	require.Len(t, st.Items, 2)
	assert.Equal(t, newCourse("9", "X"), st.Items[1], "appended at the end")

	_, err = coll.FetchAll(context.Background(), nil)
	require.NoError(t, err)
	var found []course
	for _, c := range coll.Snapshot().Items {
		if c.ID == created.ID {
			found = append(found, c)
		}
	}
	assert.Equal(t, []course{created}, found)
}

func TestCollection_Update(t *testing.T) {
	tests := []struct {
		name      string
		id        string
		wantIDs   []string
		wantNames []string
	}{
		{name: "listed id is replaced", id: "2", wantIDs: []string{"1", "2", "3"}, wantNames: []string{"Algebra", "Renamed", "Physics"}},
		// the update reaches the server but the list view is not touched
		{name: "unlisted id is dropped", id: "42", wantIDs: []string{"1", "2", "3"}, wantNames: []string{"Algebra", "CS101", "Physics"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coll, _ := setup(t, newCourse("1", "Algebra"), newCourse("2", "CS101"), newCourse("3", "Physics"))

			got, err := coll.Update(context.Background(), tt.id, crud.Payload{"name": "Renamed"})
			require.NoError(t, err)
			assert.Equal(t, tt.id, got.ID)

			st := coll.Snapshot()
			assert.Equal(t, tt.wantIDs, ids(st.Items))
			names := make([]string, 0, len(st.Items))
			for _, c := range st.Items {
				names = append(names, c.Name)
			}
			assert.Equal(t, tt.wantNames, names)
		})
	}
}

func TestCollection_UpdateRefreshesSelected(t *testing.T) {
	coll, _ := setup(t, newCourse("1", "Algebra"), newCourse("2", "CS101"))

	_, err := coll.FetchByID(context.Background(), "2")
	require.NoError(t, err)
	_, err = coll.Update(context.Background(), "2", crud.Payload{"name": "CS102"})
	require.NoError(t, err)
	assert.Equal(t, "CS102", coll.Snapshot().Selected.Name)

	// another id leaves the selection alone
	_, err = coll.Update(context.Background(), "1", crud.Payload{"name": "Geometry"})
	require.NoError(t, err)
	assert.Equal(t, "2", coll.Snapshot().Selected.ID)
}

func TestCollection_Delete(t *testing.T) {
	tests := []struct {
		name         string
		selected     string
		id           string
		wantSelected string
	}{
		{name: "selected is cleared", selected: "2", id: "2"},
		{name: "other selection kept", selected: "1", id: "2", wantSelected: "1"},
		{name: "no selection", id: "3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coll, _ := setup(t, newCourse("1", "Algebra"), newCourse("2", "CS101"), newCourse("3", "Physics"))
			if tt.selected != "" {
				_, err := coll.FetchByID(context.Background(), tt.selected)
				require.NoError(t, err)
			}
			before := coll.Snapshot().Items

			require.NoError(t, coll.Delete(context.Background(), tt.id))

			st := coll.Snapshot()
			assert.Len(t, st.Items, len(before)-1)
			assert.NotContains(t, ids(st.Items), tt.id)
			if tt.wantSelected == "" {
				assert.Nil(t, st.Selected)
			} else {
				require.NotNil(t, st.Selected)
				assert.Equal(t, tt.wantSelected, st.Selected.ID)
			}
		})
	}
}

func TestCollection_DeleteMissing(t *testing.T) {
	coll, _ := setup(t, newCourse("1", "Algebra"))

	err := coll.Delete(context.Background(), "404")
	require.Error(t, err)
	assert.True(t, core.IsNotFound(err))

	st := coll.Snapshot()
	assert.Len(t, st.Items, 1)
	assert.Equal(t, `course "404" not found`, st.Error)
}

func TestCollection_Clear(t *testing.T) {
	coll, svc := setup(t, newCourse("1", "Algebra"))
	_, err := coll.FetchByID(context.Background(), "1")
	require.NoError(t, err)

	svc.err = errors.New("boom")
	_, _ = coll.FetchAll(context.Background(), nil)
	require.Equal(t, "boom", coll.Snapshot().Error)

	coll.ClearError()
	assert.Empty(t, coll.Snapshot().Error)
	coll.ClearError()
	assert.Empty(t, coll.Snapshot().Error)

	coll.ClearSelected()
	assert.Nil(t, coll.Snapshot().Selected)
	coll.ClearItems()
	assert.Empty(t, coll.Snapshot().Items)
}

func TestCollection_SnapshotIsACopy(t *testing.T) {
	coll, _ := setup(t, newCourse("1", "Algebra"))

	st := coll.Snapshot()
	st.Items[0].Name = "Tampered"
	assert.Equal(t, "Algebra", coll.Snapshot().Items[0].Name)
}

// run starts a FetchAll and waits until it reached the service.
func run(t *testing.T, coll *Collection[course], svc *fakeService) <-chan error {
	t.Helper()
	calls := svc.getAllCalls()
	done := make(chan error, 1)
	go func() {
		_, err := coll.FetchAll(context.Background(), nil)
		done <- err
	}()
	require.Eventually(t, func() bool { return svc.getAllCalls() == calls+1 }, time.Second, time.Millisecond)
	return done
}

func TestCollection_StaleFetchAllIsDiscarded(t *testing.T) {
	svc := &fakeService{gates: []chan answer{make(chan answer), make(chan answer)}}
	coll := NewCollection[course](svc, nil)

	first := run(t, coll, svc)
	second := run(t, coll, svc)
	assert.True(t, coll.Snapshot().Loading)

	// the second request settles first...
	svc.gates[1] <- answer{items: []course{newCourse("2", "fresh")}}
	require.NoError(t, <-second)
	assert.False(t, coll.Snapshot().Loading)

	// ...then the first one: its result is stale
	svc.gates[0] <- answer{items: []course{newCourse("1", "stale")}}
	require.NoError(t, <-first)

	st := coll.Snapshot()
	assert.Equal(t, []string{"2"}, ids(st.Items))
	assert.False(t, st.Loading)
}

func TestCollection_StaleErrorIsDiscarded(t *testing.T) {
	svc := &fakeService{gates: []chan answer{make(chan answer), make(chan answer)}}
	coll := NewCollection[course](svc, nil)

	first := run(t, coll, svc)
	second := run(t, coll, svc)

	svc.gates[1] <- answer{items: []course{newCourse("1", "Algebra")}}
	require.NoError(t, <-second)
	svc.gates[0] <- answer{err: errors.New("network down")}
	require.Error(t, <-first, "the caller still gets its error")

	st := coll.Snapshot()
	assert.Empty(t, st.Error)
	assert.Equal(t, []string{"1"}, ids(st.Items))
}

func TestCollection_LatestSettlesLast(t *testing.T) {
	svc := &fakeService{gates: []chan answer{make(chan answer), make(chan answer)}}
	coll := NewCollection[course](svc, nil)

	first := run(t, coll, svc)
	second := run(t, coll, svc)

	svc.gates[0] <- answer{items: []course{newCourse("1", "older")}}
	require.NoError(t, <-first)
	assert.True(t, coll.Snapshot().Loading, "the latest request is still in flight")
	assert.Empty(t, coll.Snapshot().Items, "a superseded fetch is never applied")

	svc.gates[1] <- answer{items: []course{newCourse("2", "newer")}}
	require.NoError(t, <-second)

	st := coll.Snapshot()
	assert.Equal(t, []string{"2"}, ids(st.Items))
	assert.False(t, st.Loading)
}

func TestCollection_StaleFetchAfterLatestRejected(t *testing.T) {
	svc := &fakeService{gates: []chan answer{make(chan answer), make(chan answer)}}
	coll := NewCollection[course](svc, nil)

	first := run(t, coll, svc)
	second := run(t, coll, svc)

	svc.gates[1] <- answer{err: errors.New("network down")}
	require.Error(t, <-second)
	svc.gates[0] <- answer{items: []course{newCourse("1", "stale")}}
	require.NoError(t, <-first, "the caller still gets its result")

	st := coll.Snapshot()
	assert.Empty(t, st.Items)
	assert.Equal(t, "network down", st.Error)
	assert.False(t, st.Loading)
}

func TestCollection_FetchAfterOtherOperationsApplies(t *testing.T) {
	svc := &fakeService{gates: []chan answer{make(chan answer)}}
	coll := NewCollection[course](svc, nil)

	fetch := run(t, coll, svc)
	// a later lookup does not supersede the list
	_, err := coll.FetchByID(context.Background(), "9")
	require.Error(t, err)

	svc.gates[0] <- answer{items: []course{newCourse("1", "Algebra")}}
	require.NoError(t, <-fetch)
	assert.Equal(t, []string{"1"}, ids(coll.Snapshot().Items))
}

func TestCollection_FetchIssuedBeforeCreateIsStale(t *testing.T) {
	svc := &fakeService{gates: []chan answer{make(chan answer)}}
	coll := NewCollection[course](svc, nil)

	fetch := run(t, coll, svc)
	_, err := coll.Create(context.Background(), crud.Payload{"name": "New"})
	require.NoError(t, err)

	// the snapshot was taken before the create reached the server
	svc.gates[0] <- answer{items: []course{}}
	require.NoError(t, <-fetch)

	assert.Equal(t, []string{"1"}, ids(coll.Snapshot().Items))
}

func TestCollection_CreateKeepsIDsUnique(t *testing.T) {
	coll, _ := setup(t, newCourse("1", "Algebra"))

	// a server echoing back an id the list already holds
	created, err := coll.Create(context.Background(), crud.Payload{"id": "1", "name": "Algebra II"})
	require.NoError(t, err)
	assert.Equal(t, "1", created.ID)

	st := coll.Snapshot()
	assert.Equal(t, []string{"1"}, ids(st.Items))
	assert.Equal(t, "Algebra II", st.Items[0].Name)
}
