package recipe

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Store.Get for unknown IDs.
var ErrNotFound = errors.New("recipe not found")

// Store persists finished results. The pipeline never calls it; the service does.
type Store interface {
	Save(ctx context.Context, r *RecipeResult) error
	Get(ctx context.Context, id string) (*RecipeResult, error)
	List(ctx context.Context, filter ListFilter) ([]*RecipeResult, error)
	Close() error
}

// ListFilter narrows Store.List. Zero values mean "any".
type ListFilter struct {
	Status  Status
	Cuisine CuisineLabel
	Limit   int
}

const (
	defaultListLimit = 20
	maxListLimit     = 200
)

func (f ListFilter) limit() int {
	switch {
	case f.Limit <= 0:
		return defaultListLimit
	case f.Limit > maxListLimit:
		return maxListLimit
	}
	return f.Limit
}

func cuisineColumn(r *RecipeResult) string {
	if r.Cuisine == nil {
		return ""
	}
	return string(r.Cuisine.Label)
}
