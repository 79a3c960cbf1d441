package domain

import "context"

// Store is the uniform CRUD + attribute-lookup contract over a single
// entity type, backend-agnostic. Absence is never an error: Get reports
// ok=false and GetByAttribute returns an empty slice; callers decide
// whether absence is an error for their context.
type Store[E Record[E]] interface {
	Add(ctx context.Context, e E) error
	Get(ctx context.Context, id string) (E, bool, error)
	GetAll(ctx context.Context) ([]E, error)
	// Update rewrites the stored record from the given entity, including
	// its denormalized lists.
	Update(ctx context.Context, e E) error
	Delete(ctx context.Context, id string) error
	GetByAttribute(ctx context.Context, name, value string) ([]E, error)
}

// ListStore adds the membership-mutation capability the relation manager
// needs. Whole-object backends implement it as read-modify-rewrite of the
// full record; the relational backend mutates the column in place inside
// a transaction. Append is idempotent: an already-present value is not
// added twice. Remove of an absent value is a no-op.
type ListStore[E Record[E]] interface {
	Store[E]
	ListAppend(ctx context.Context, id string, field ListField, value string) error
	ListRemove(ctx context.Context, id string, field ListField, value string) error
}

// Cache is the read-side cache port. Implementations must tolerate being
// absent (callers hold it nil-safely).
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
