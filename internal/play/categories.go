package play

import (
	"context"

	"github.com/gokatarajesh/trivia-quiz/internal/question"
)

// CategoryLookup resolves a category ID against the known list.
type CategoryLookup interface {
	Lookup(ctx context.Context, id string) (question.Category, bool)
}

// knownCategory accepts "any category" and every ID the lookup knows. A nil
// lookup accepts everything.
func knownCategory(ctx context.Context, lookup CategoryLookup, id string) bool {
	if id == "" || lookup == nil {
		return true
	}
	_, ok := lookup.Lookup(ctx, id)
	return ok
}
