package store

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/crud"
)

type room struct {
	core.Model
}

type roomService struct {
	crud.Service[room]
}

func (roomService) Resource() string { return "course" }

func TestStore(t *testing.T) {
	s := New(nil)

	coll, err := Register[course](s, &fakeService{})
	require.NoError(t, err)

	again, err := Register[course](s, &fakeService{})
	require.NoError(t, err)
	assert.Same(t, coll, again, "registering twice returns the same collection")

	_, err = Register[room](s, roomService{})
	assert.Equal(t, ErrTypeMismatch, errors.Cause(err))

	found, err := Lookup[course](s, "course")
	require.NoError(t, err)
	assert.Same(t, coll, found)

	_, err = Lookup[room](s, "course")
	assert.Equal(t, ErrTypeMismatch, errors.Cause(err))

	_, err = Lookup[course](s, "student")
	assert.Equal(t, ErrNotRegistered, errors.Cause(err))

	assert.Equal(t, []string{"course"}, s.Resources())
}

func TestStore_Context(t *testing.T) {
	s := New(nil)

	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	got, ok := FromContext(NewContext(context.Background(), s))
	require.True(t, ok)
	assert.Same(t, s, got)
}
