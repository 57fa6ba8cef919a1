package contestant

import (
	"context"
	"errors"
)

const (
	defaultName     = "Unnamed"
	defaultCategory = "unknown"
	defaultPhoto    = "default.png"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetCategory satisfies the roster lookup the vote synchronizer depends on.
func (s *Service) GetCategory(ctx context.Context, id int64) (string, error) {
	return s.repo.GetCategory(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*Contestant, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Contestant, error) {
	return s.repo.List(ctx)
}

// Create registers one contestant. ID 0 lets the repository assign the next
// free id.
func (s *Service) Create(ctx context.Context, c *Contestant) error {
	if c.Name == "" {
		return errors.New("name required")
	}
	if c.Category == "" {
		return errors.New("category required")
	}
	if c.Photo == "" {
		c.Photo = defaultPhoto
	}
	return s.repo.Create(ctx, c)
}

// ImportItem is one raw roster entry from a bulk upload. Fields may be
// missing or garbage; Import sanitizes instead of rejecting the batch.
type ImportItem struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Photo    string `json:"photo"`
}

type ImportResult struct {
	Inserted int `json:"inserted"`
	Remapped int `json:"remapped"`
	Errors   int `json:"errors"`
}

// Import loads a roster batch. Provided positive ids are kept when free;
// anything else is remapped past the current maximum. Individual insert
// failures are counted, not fatal.
func (s *Service) Import(ctx context.Context, items []ImportItem) (ImportResult, error) {
	var res ImportResult

	existing, err := s.repo.ListIDs(ctx)
	if err != nil {
		return res, err
	}

	taken := make(map[int64]bool, len(existing))
	var next int64 = 1
	for _, id := range existing {
		taken[id] = true
		if id >= next {
			next = id + 1
		}
	}

	for _, item := range items {
		c := Contestant{
			ID:       item.ID,
			Name:     item.Name,
			Category: item.Category,
			Photo:    item.Photo,
		}
		if c.Name == "" {
			c.Name = defaultName
		}
		if c.Category == "" {
			c.Category = defaultCategory
		}
		if c.Photo == "" {
			c.Photo = defaultPhoto
		}

		if c.ID <= 0 || taken[c.ID] {
			for taken[next] {
				next++
			}
			c.ID = next
			next++
			res.Remapped++
		}

		if err := s.repo.Create(ctx, &c); err != nil {
			res.Errors++
			continue
		}
		taken[c.ID] = true
		res.Inserted++
	}

	return res, nil
}
