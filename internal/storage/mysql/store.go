// Package mysql implements the transactional storage backend on
// database/sql. Each entity type maps to one table; denormalized lists
// are JSON columns. GetByAttribute is an indexed filter, and list
// mutations happen in place under a row lock inside one transaction.
package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"

	"hbnb/internal/adapters/observability"
	"hbnb/internal/domain"
)

type scanner interface {
	Scan(dest ...any) error
}

// Codec describes the table mapping for one entity type.
type Codec[E domain.Record[E]] struct {
	Table   string
	Columns []string                 // every column except id, in insert order
	Args    func(E) []any            // values matching Columns
	Scan    func(scanner) (E, error) // scans id followed by Columns
	Attrs   map[string]string        // attribute name -> column
	Lists   map[domain.ListField]string
}

type Store[E domain.Record[E]] struct {
	db *sql.DB
	c  Codec[E]

	insertSQL string
	selectSQL string
	updateSQL string
}

func NewStore[E domain.Record[E]](db *sql.DB, c Codec[E]) *Store[E] {
	cols := strings.Join(c.Columns, ", ")
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(c.Columns)+1), ", ")
	sets := make([]string, len(c.Columns))
	for i, col := range c.Columns {
		sets[i] = col + " = ?"
	}
	return &Store[E]{
		db:        db,
		c:         c,
		insertSQL: fmt.Sprintf("INSERT INTO %s (id, %s) VALUES (%s)", c.Table, cols, marks),
		selectSQL: fmt.Sprintf("SELECT id, %s FROM %s", cols, c.Table),
		updateSQL: fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", c.Table, strings.Join(sets, ", ")),
	}
}

// isDuplicate reports a unique-key violation (MySQL error 1062).
func isDuplicate(err error) bool {
	var me *mysqldrv.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

func (s *Store[E]) Add(ctx context.Context, e E) error {
	observability.ObserveStorage("mysql", "add")
	args := append([]any{e.EntityID()}, s.c.Args(e)...)
	if _, err := s.db.ExecContext(ctx, s.insertSQL, args...); err != nil {
		if isDuplicate(err) {
			return domain.Conflictf("%s already exists", e.Kind())
		}
		return fmt.Errorf("insert %s: %w", s.c.Table, err)
	}
	return nil
}

func (s *Store[E]) Get(ctx context.Context, id string) (E, bool, error) {
	row := s.db.QueryRowContext(ctx, s.selectSQL+" WHERE id = ?", id)
	e, err := s.c.Scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		var zero E
		return zero, false, nil
	}
	if err != nil {
		var zero E
		return zero, false, fmt.Errorf("select %s: %w", s.c.Table, err)
	}
	return e, true, nil
}

func (s *Store[E]) GetAll(ctx context.Context) ([]E, error) {
	return s.query(ctx, s.selectSQL+" ORDER BY created_at, id")
}

func (s *Store[E]) Update(ctx context.Context, e E) error {
	observability.ObserveStorage("mysql", "update")
	args := append(s.c.Args(e), e.EntityID())
	if _, err := s.db.ExecContext(ctx, s.updateSQL, args...); err != nil {
		if isDuplicate(err) {
			return domain.Conflictf("%s already exists", e.Kind())
		}
		return fmt.Errorf("update %s: %w", s.c.Table, err)
	}
	return nil
}

func (s *Store[E]) Delete(ctx context.Context, id string) error {
	observability.ObserveStorage("mysql", "delete")
	if _, err := s.db.ExecContext(ctx, "DELETE FROM "+s.c.Table+" WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete %s: %w", s.c.Table, err)
	}
	return nil
}

// GetByAttribute filters on an indexed column; no match yields an empty
// slice, never an error.
func (s *Store[E]) GetByAttribute(ctx context.Context, name, value string) ([]E, error) {
	col, ok := s.c.Attrs[name]
	if !ok {
		return nil, domain.Invalidf("%s has no attribute %s", s.c.Table, name)
	}
	return s.query(ctx, s.selectSQL+" WHERE "+col+" = ?", value)
}

func (s *Store[E]) query(ctx context.Context, q string, args ...any) ([]E, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.c.Table, err)
	}
	defer rows.Close()
	var out []E
	for rows.Next() {
		e, err := s.c.Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.c.Table, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows %s: %w", s.c.Table, err)
	}
	return out, nil
}

// ListAppend mutates the JSON list column in place: row lock, modify,
// commit. Already-present values are not appended twice.
func (s *Store[E]) ListAppend(ctx context.Context, id string, field domain.ListField, value string) error {
	return s.mutateList(ctx, id, field, func(l []string) ([]string, bool) {
		if slices.Contains(l, value) {
			return l, false
		}
		return append(l, value), true
	})
}

// ListRemove removes value from the JSON list column; removing an absent
// value is a no-op.
func (s *Store[E]) ListRemove(ctx context.Context, id string, field domain.ListField, value string) error {
	return s.mutateList(ctx, id, field, func(l []string) ([]string, bool) {
		i := slices.Index(l, value)
		if i < 0 {
			return l, false
		}
		return slices.Delete(l, i, i+1), true
	})
}

func (s *Store[E]) mutateList(ctx context.Context, id string, field domain.ListField, mutate func([]string) ([]string, bool)) error {
	col, ok := s.c.Lists[field]
	if !ok {
		return domain.Invalidf("%s has no %s list", s.c.Table, field)
	}
	observability.ObserveStorage("mysql", "list_mutate")
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var raw []byte
	q := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? FOR UPDATE", col, s.c.Table)
	if err := tx.QueryRowContext(ctx, q, id).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFoundf("%s not found", id)
		}
		return fmt.Errorf("lock %s row: %w", s.c.Table, err)
	}
	var list []string
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &list); err != nil {
			return fmt.Errorf("decode %s.%s: %w", s.c.Table, col, err)
		}
	}
	list, changed := mutate(list)
	if !changed {
		return tx.Commit()
	}
	b, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode %s.%s: %w", s.c.Table, col, err)
	}
	u := fmt.Sprintf("UPDATE %s SET %s = ?, updated_at = ? WHERE id = ?", s.c.Table, col)
	if _, err := tx.ExecContext(ctx, u, b, time.Now().UTC().Truncate(time.Microsecond), id); err != nil {
		return fmt.Errorf("update %s.%s: %w", s.c.Table, col, err)
	}
	return tx.Commit()
}
