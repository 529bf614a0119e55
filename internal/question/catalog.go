package question

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia-quiz/internal/question/external"
)

// CategoryCache stores the last live category list (implemented by Redis-backed Cache).
type CategoryCache interface {
	Get(ctx context.Context) ([]Category, error)
	Set(ctx context.Context, cats []Category) error
}

type categoryLister interface {
	Categories(ctx context.Context) ([]external.Category, error)
}

// Catalog resolves the category list: cache, then live API, then the static list.
type Catalog struct {
	client categoryLister
	cache  CategoryCache
	logger zerolog.Logger
}

// NewCatalog accepts a nil client or cache; without both it serves StaticCategories.
func NewCatalog(client categoryLister, cache CategoryCache, logger zerolog.Logger) *Catalog {
	return &Catalog{client: client, cache: cache, logger: logger}
}

// Categories never fails; "Any" is always the first entry.
func (c *Catalog) Categories(ctx context.Context) []Category {
	if c.cache != nil {
		cats, err := c.cache.Get(ctx)
		if err != nil {
			c.logger.Warn().Err(err).Msg("category cache read failed")
		} else if len(cats) > 0 {
			return cats
		}
	}

	cats, err := c.Refresh(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("serving static categories")
		return copyCategories(StaticCategories)
	}
	return cats
}

// Refresh loads the live list and stores it in the cache.
func (c *Catalog) Refresh(ctx context.Context) ([]Category, error) {
	if c.client == nil {
		return nil, fmt.Errorf("no category source configured")
	}
	live, err := c.client.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch categories: %w", err)
	}
	if len(live) == 0 {
		return nil, fmt.Errorf("fetch categories: empty list")
	}

	sort.Slice(live, func(i, j int) bool { return live[i].ID < live[j].ID })
	cats := make([]Category, 0, len(live)+1)
	cats = append(cats, AnyCategory)
	for _, lc := range live {
		cats = append(cats, Category{ID: strconv.Itoa(lc.ID), Name: lc.Name})
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, cats); err != nil {
			c.logger.Warn().Err(err).Msg("category cache write failed")
		}
	}
	return cats, nil
}

// Lookup finds a category by ID in the resolved list.
func (c *Catalog) Lookup(ctx context.Context, id string) (Category, bool) {
	for _, cat := range c.Categories(ctx) {
		if cat.ID == id {
			return cat, true
		}
	}
	return Category{}, false
}

func copyCategories(in []Category) []Category {
	out := make([]Category, len(in))
	copy(out, in)
	return out
}
