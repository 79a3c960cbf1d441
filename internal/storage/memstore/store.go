// Package memstore implements the whole-object storage backend: an
// in-process map of full records, optionally snapshotted to a JSON file
// that is rewritten in full on every mutating call. There is no
// field-level update and no transactional grouping; a read-modify-write
// sequence on a record is not atomic with respect to concurrent callers.
package memstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"sync"
	"time"

	"hbnb/internal/adapters/observability"
	"hbnb/internal/domain"
)

// Store holds one entity type. The mutex guards map access only; it does
// not serialize read-modify-write sequences spanning Get and Update, so
// concurrent list mutations on the same record can lose a write
// (last-write-wins on the whole record).
type Store[E domain.Record[E]] struct {
	mu   sync.RWMutex
	recs map[string]E
	path string // empty for the pure in-memory flavor
}

func New[E domain.Record[E]]() *Store[E] {
	return &Store[E]{recs: map[string]E{}}
}

// NewWithFile loads an existing snapshot from path, or creates an empty
// one. Records are persisted keyed by id, timestamps as ISO-8601 strings.
func NewWithFile[E domain.Record[E]](path string) (*Store[E], error) {
	s := &Store[E]{recs: map[string]E{}, path: path}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, s.save()
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	if len(b) > 0 {
		if err := json.Unmarshal(b, &s.recs); err != nil {
			return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
		}
	}
	return s, nil
}

// save rewrites the whole snapshot. Callers hold the write lock.
func (s *Store[E]) save() error {
	if s.path == "" {
		return nil
	}
	b, err := json.MarshalIndent(s.recs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.WriteFile(s.path, b, 0o644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", s.path, err)
	}
	return nil
}

// detach clones the denormalized lists so a returned record never aliases
// the stored one.
func detach[E domain.Record[E]](e E) E {
	for _, f := range []domain.ListField{domain.FieldPlaces, domain.FieldAmenities, domain.FieldReviews} {
		if l, ok := e.List(f); ok {
			e = e.WithList(f, slices.Clone(l))
		}
	}
	return e
}

func (s *Store[E]) Add(_ context.Context, e E) error {
	observability.ObserveStorage("memstore", "add")
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[e.EntityID()] = detach(e)
	return s.save()
}

func (s *Store[E]) Get(_ context.Context, id string) (E, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.recs[id]
	if !ok {
		var zero E
		return zero, false, nil
	}
	return detach(e), true, nil
}

func (s *Store[E]) GetAll(_ context.Context) ([]E, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]E, 0, len(s.recs))
	for _, e := range s.recs {
		out = append(out, detach(e))
	}
	slices.SortFunc(out, func(a, b E) int {
		switch {
		case a.EntityID() < b.EntityID():
			return -1
		case a.EntityID() > b.EntityID():
			return 1
		}
		return 0
	})
	return out, nil
}

func (s *Store[E]) Update(_ context.Context, e E) error {
	observability.ObserveStorage("memstore", "update")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recs[e.EntityID()]; !ok {
		return nil // absence is not an error; nothing to rewrite
	}
	s.recs[e.EntityID()] = detach(e)
	return s.save()
}

func (s *Store[E]) Delete(_ context.Context, id string) error {
	observability.ObserveStorage("memstore", "delete")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recs[id]; !ok {
		return nil
	}
	delete(s.recs, id)
	return s.save()
}

// GetByAttribute is a linear scan over all held entities.
func (s *Store[E]) GetByAttribute(_ context.Context, name, value string) ([]E, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []E
	for _, e := range s.recs {
		if v, ok := e.Attribute(name); ok && v == value {
			out = append(out, detach(e))
		}
	}
	return out, nil
}

// ListAppend implements the membership mutation as read-modify-rewrite of
// the whole record. Already-present values are not appended twice.
func (s *Store[E]) ListAppend(_ context.Context, id string, field domain.ListField, value string) error {
	observability.ObserveStorage("memstore", "list_append")
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.recs[id]
	if !ok {
		return domain.NotFoundf("%s not found", id)
	}
	l, ok := e.List(field)
	if !ok {
		return domain.Invalidf("%s has no %s list", e.Kind(), field)
	}
	if slices.Contains(l, value) {
		return nil
	}
	e = e.WithList(field, append(slices.Clone(l), value)).Touch(time.Now())
	s.recs[id] = e
	return s.save()
}

// ListRemove removes value from the named list; removing an absent value
// is a no-op.
func (s *Store[E]) ListRemove(_ context.Context, id string, field domain.ListField, value string) error {
	observability.ObserveStorage("memstore", "list_remove")
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.recs[id]
	if !ok {
		return domain.NotFoundf("%s not found", id)
	}
	l, ok := e.List(field)
	if !ok {
		return domain.Invalidf("%s has no %s list", e.Kind(), field)
	}
	i := slices.Index(l, value)
	if i < 0 {
		return nil
	}
	e = e.WithList(field, slices.Delete(slices.Clone(l), i, i+1)).Touch(time.Now())
	s.recs[id] = e
	return s.save()
}
