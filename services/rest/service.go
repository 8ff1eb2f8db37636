package restsvc

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/crud"
)

// Service is the crud.Service of one resource, served under /{resource}.
type Service[T core.Entity] struct {
	client   *Client
	resource string
}

func NewService[T core.Entity](client *Client, resource string) *Service[T] {
	return &Service[T]{client: client, resource: resource}
}

func (svc *Service[T]) Resource() string { return svc.resource }

func (svc *Service[T]) GetAll(ctx context.Context, params crud.Params) ([]T, error) {
	var items []T
	err := svc.client.send(ctx, call{
		method:   rest.Get,
		resource: svc.resource,
		segments: []string{svc.resource},
		params:   params,
	}, &items)
	if err != nil {
		return nil, errors.Wrapf(err, "listing %s", svc.resource)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (svc *Service[T]) GetByID(ctx context.Context, id string) (T, error) {
	var ent T
	err := svc.client.send(ctx, call{
		method:   rest.Get,
		resource: svc.resource,
		id:       id,
		segments: []string{svc.resource, id},
	}, &ent)
	return ent, errors.Wrapf(err, "getting %s %s", svc.resource, id)
}

func (svc *Service[T]) Create(ctx context.Context, data crud.Payload) (T, error) {
	var ent T
	err := svc.client.send(ctx, call{
		method:   rest.Post,
		resource: svc.resource,
		segments: []string{svc.resource},
		body:     data,
	}, &ent)
	return ent, errors.Wrapf(err, "creating %s", svc.resource)
}

func (svc *Service[T]) Update(ctx context.Context, id string, data crud.Payload) (T, error) {
	var ent T
	err := svc.client.send(ctx, call{
		method:   rest.Put,
		resource: svc.resource,
		id:       id,
		segments: []string{svc.resource, id},
		body:     data,
	}, &ent)
	return ent, errors.Wrapf(err, "updating %s %s", svc.resource, id)
}

func (svc *Service[T]) Delete(ctx context.Context, id string) error {
	err := svc.client.send(ctx, call{
		method:   rest.Delete,
		resource: svc.resource,
		id:       id,
		segments: []string{svc.resource, id},
	}, nil)
	return errors.Wrapf(err, "deleting %s %s", svc.resource, id)
}

// Relation reaches the sub-route /{resource}/{id}/{name}, a list of R held by each item.
type Relation[R any] struct {
	client   *Client
	resource string
	name     string
}

func NewRelation[R any](client *Client, resource, name string) *Relation[R] {
	return &Relation[R]{client: client, resource: resource, name: name}
}

func (rel *Relation[R]) List(ctx context.Context, id string) ([]R, error) {
	return rel.send(ctx, rest.Get, id, nil)
}

// Replace sets the whole list.
func (rel *Relation[R]) Replace(ctx context.Context, id string, items []R) ([]R, error) {
	if items == nil {
		items = []R{}
	}
	return rel.send(ctx, rest.Put, id, items)
}

// Add appends one element to the list.
func (rel *Relation[R]) Add(ctx context.Context, id string, item R) ([]R, error) {
	return rel.send(ctx, rest.Post, id, item)
}

// Remove drops the element identified by relID.
func (rel *Relation[R]) Remove(ctx context.Context, id, relID string) error {
	err := rel.client.send(ctx, call{
		method:   rest.Delete,
		resource: rel.resource,
		id:       id,
		segments: []string{rel.resource, id, rel.name, relID},
	}, nil)
	return errors.Wrapf(err, "removing %s from %s %s", relID, rel.resource, id)
}

func (rel *Relation[R]) send(ctx context.Context, method rest.Method, id string, body interface{}) ([]R, error) {
	var items []R
	err := rel.client.send(ctx, call{
		method:   method,
		resource: rel.resource,
		id:       id,
		segments: []string{rel.resource, id, rel.name},
		body:     body,
	}, &items)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s of %s %s", method, rel.name, rel.resource, id)
	}
	return items, nil
}
