package contestant

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("contestant not found")

// Contestant ids are externally assigned; the import path remaps collisions
// instead of rejecting them.
type Contestant struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Photo     string    `json:"photo"`
	CreatedAt time.Time `json:"created_at"`
}

type Repository interface {
	Create(ctx context.Context, c *Contestant) error
	GetByID(ctx context.Context, id int64) (*Contestant, error)
	GetCategory(ctx context.Context, id int64) (string, error)
	List(ctx context.Context) ([]Contestant, error)
	ListIDs(ctx context.Context) ([]int64, error)
}
