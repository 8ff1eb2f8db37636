// Package crud defines the uniform remote-access contract for one REST resource.
package crud

import (
	"context"

	"github.com/trezcool/campus/core"
)

type (
	// Params are query parameters passed through to the server unmodified.
	Params map[string]string

	// Service exposes the CRUD operations of one resource.
	// Implementations don't cache nor retry; errors are returned as is:
	// *core.NetworkError, *core.ServerError, *core.NotFoundError or *core.ValidationError.
	Service[T core.Entity] interface {
		Resource() string
		GetAll(ctx context.Context, params Params) ([]T, error)
		GetByID(ctx context.Context, id string) (T, error)
		// Create lets the server assign the id.
		Create(ctx context.Context, data Payload) (T, error)
		// Update only changes the fields present in data.
		Update(ctx context.Context, id string, data Payload) (T, error)
		// Delete fails with *core.NotFoundError when id doesn't exist.
		Delete(ctx context.Context, id string) error
	}
)
