// Package articles persists index articles as Redis hashes so the vector
// index survives restarts. Persistence is best-effort: the in-memory index
// is the source of truth for the running process.
package articles

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/newslens-cloud/newslens/internal/db"
	"github.com/newslens-cloud/newslens/internal/domain"
)

var keyPrefix = domain.KeyPrefix + "article:"

// store is the consumer interface for article persistence (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements article snapshot persistence.
type Repo struct {
	store store
}

// New creates an article repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Save writes articles in a single pipelined round-trip.
func (r *Repo) Save(ctx context.Context, arts []domain.Article) error {
	if len(arts) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, len(arts))
	for i := range arts {
		items[i] = db.HashSetItem{
			Key:    articleKey(arts[i].ID),
			Fields: buildHashFields(&arts[i]),
		}
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("save articles: %w", err)
	}
	return nil
}

// LoadAll returns every persisted article ordered by id, which restores the
// original insertion order (ids are assigned sequentially and never reused).
func (r *Repo) LoadAll(ctx context.Context) ([]domain.Article, error) {
	keys, err := r.store.Scan(ctx, keyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan articles: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load articles: %w", err)
	}

	arts := make([]domain.Article, 0, len(hashes))
	for i, m := range hashes {
		a, err := parseHashFields(m)
		if err != nil {
			return nil, fmt.Errorf("parse article %s: %w", keys[i], err)
		}
		arts = append(arts, a)
	}

	sort.Slice(arts, func(i, j int) bool { return arts[i].ID < arts[j].ID })
	return arts, nil
}

func articleKey(id int) string {
	return keyPrefix + strconv.Itoa(id)
}
