package store

import "context"

// Storer is the common interface for all counter backends (Redis, In-Memory)
type Storer interface {
	Increment(ctx context.Context, key string) (int64, error)
	GetCounter(ctx context.Context, key string) (int64, error)
	Counters(ctx context.Context) (map[string]int64, error)
}
