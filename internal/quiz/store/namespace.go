package store

import (
	"context"

	"github.com/gokatarajesh/trivia-quiz/internal/quiz"
)

// Namespaced prefixes every key, giving each profile its own pair of slots
// inside a shared store.
type Namespaced struct {
	inner  quiz.Store
	prefix string
}

var _ quiz.Store = (*Namespaced)(nil)

// Namespace returns a view of inner whose keys are "<prefix>:<key>".
func Namespace(inner quiz.Store, prefix string) quiz.Store {
	ns := &Namespaced{inner: inner, prefix: prefix + ":"}
	if _, ok := inner.(quiz.Swapper); ok {
		return &namespacedSwapper{ns}
	}
	return ns
}

func (n *Namespaced) Get(ctx context.Context, key string) ([]byte, error) {
	return n.inner.Get(ctx, n.prefix+key)
}

func (n *Namespaced) Set(ctx context.Context, key string, value []byte) error {
	return n.inner.Set(ctx, n.prefix+key, value)
}

func (n *Namespaced) Delete(ctx context.Context, key string) error {
	return n.inner.Delete(ctx, n.prefix+key)
}

type namespacedSwapper struct {
	*Namespaced
}

func (n *namespacedSwapper) Swap(ctx context.Context, deleteKey, setKey string, value []byte) error {
	return n.inner.(quiz.Swapper).Swap(ctx, n.prefix+deleteKey, n.prefix+setKey, value)
}

// ProfilePrefix is the namespace used for a profile's slots.
func ProfilePrefix(profileID string) string {
	return "profile:" + profileID
}
