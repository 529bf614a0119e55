package quiz

import "context"

// Store is a durable key-value slot store. Writes are whole-value overwrites.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Swapper is implemented by stores that can delete one key and write another
// as a single step. The lifecycle uses it for the completion transition.
type Swapper interface {
	Swap(ctx context.Context, deleteKey, setKey string, value []byte) error
}

// QuestionSource fetches a batch of questions matching the filters.
// Implementations return errors wrapping ErrNoQuestionsAvailable or ErrTransport.
type QuestionSource interface {
	Fetch(ctx context.Context, cfg Configuration) ([]Question, error)
}
