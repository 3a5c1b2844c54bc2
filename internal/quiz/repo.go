package quiz

import "context"

type Store interface {
	Create(ctx context.Context, q Quiz) (Quiz, error)
	Get(ctx context.Context, id int64) (Quiz, error)
	Update(ctx context.Context, q Quiz) (Quiz, error)
	Delete(ctx context.Context, id int64) error

	Count(ctx context.Context, q Query) (int, error)
	Find(ctx context.Context, q Query) ([]Quiz, error)
}
