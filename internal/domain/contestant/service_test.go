package contestant

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
)

type memoryContestantRepo struct {
	mu       sync.Mutex
	byID     map[int64]*Contestant
	failNext bool
}

func newMemoryContestantRepo() *memoryContestantRepo {
	return &memoryContestantRepo{byID: make(map[int64]*Contestant)}
}

func (r *memoryContestantRepo) Create(ctx context.Context, c *Contestant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNext {
		r.failNext = false
		return errors.New("insert failed")
	}
	if c.ID == 0 {
		var max int64
		for id := range r.byID {
			if id > max {
				max = id
			}
		}
		c.ID = max + 1
	}
	if _, exists := r.byID[c.ID]; exists {
		return errors.New("duplicate id")
	}
	copyC := *c
	r.byID[c.ID] = &copyC
	return nil
}

func (r *memoryContestantRepo) GetByID(ctx context.Context, id int64) (*Contestant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	copyC := *c
	return &copyC, nil
}

func (r *memoryContestantRepo) GetCategory(ctx context.Context, id int64) (string, error) {
	c, err := r.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return c.Category, nil
}

func (r *memoryContestantRepo) List(ctx context.Context) ([]Contestant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]Contestant, 0, len(r.byID))
	for _, c := range r.byID {
		res = append(res, *c)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (r *memoryContestantRepo) ListIDs(ctx context.Context) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int64, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	return ids, nil
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMemoryContestantRepo())
	ctx := context.Background()

	if err := svc.Create(ctx, &Contestant{Category: "Music"}); err == nil {
		t.Fatal("expected name validation error")
	}
	if err := svc.Create(ctx, &Contestant{Name: "Ana"}); err == nil {
		t.Fatal("expected category validation error")
	}

	c := &Contestant{Name: "Ana", Category: "Music"}
	if err := svc.Create(ctx, c); err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Photo != defaultPhoto {
		t.Fatalf("photo default not applied: %q", c.Photo)
	}
}

func TestImportRemapsCollidingIDs(t *testing.T) {
	repo := newMemoryContestantRepo()
	svc := NewService(repo)
	ctx := context.Background()

	if err := svc.Create(ctx, &Contestant{ID: 3, Name: "Seed", Category: "Music"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	res, err := svc.Import(ctx, []ImportItem{
		{ID: 3, Name: "Collides", Category: "Dance"}, // taken, remapped
		{ID: 7, Name: "Keeps", Category: "Dance"},    // free, kept
		{Name: "NoID", Category: "Music"},            // missing id, remapped
		{ID: -2, Category: "Music"},                  // bad id and no name
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Inserted != 4 || res.Remapped != 3 || res.Errors != 0 {
		t.Fatalf("result = %+v, want inserted=4 remapped=3 errors=0", res)
	}

	all, _ := repo.List(ctx)
	if len(all) != 5 {
		t.Fatalf("roster size = %d, want 5", len(all))
	}

	kept, err := repo.GetByID(ctx, 7)
	if err != nil || kept.Name != "Keeps" {
		t.Fatalf("provided free id not kept: %v %v", kept, err)
	}

	seen := make(map[int64]bool)
	for _, c := range all {
		if seen[c.ID] {
			t.Fatalf("duplicate id %d after import", c.ID)
		}
		seen[c.ID] = true
		if c.Name == "" || c.Category == "" || c.Photo == "" {
			t.Fatalf("defaults not applied: %+v", c)
		}
	}
}

func TestImportCountsPerItemFailures(t *testing.T) {
	repo := newMemoryContestantRepo()
	svc := NewService(repo)
	ctx := context.Background()

	repo.failNext = true
	res, err := svc.Import(ctx, []ImportItem{
		{ID: 1, Name: "Fails", Category: "Music"},
		{ID: 2, Name: "Lands", Category: "Music"},
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Inserted != 1 || res.Errors != 1 {
		t.Fatalf("result = %+v, want inserted=1 errors=1", res)
	}
}
