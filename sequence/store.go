// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package sequence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/servo-sync-project/servo-sync-api/db"
	"github.com/servo-sync-project/servo-sync-api/models"
)

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Table describes a table whose rows carry a sequence ranked within a group.
type Table[K comparable] struct {
	// Name of the table. Rows must have TEXT id and INTEGER sequence columns.
	Name string
	// GroupColumns identify the group, in the order GroupArgs returns values.
	GroupColumns []string
	GroupArgs    func(K) []any
	// Parent selects the row that anchors the group lock, with $1.. bound
	// to ParentArgs. No row means the group does not exist.
	Parent     string
	ParentArgs func(K) []any
	// LockKey names the in-process lock for a group. Groups that share
	// constraints (all columns of one robot) must share a key.
	LockKey  func(K) string
	Describe func(K) string
}

func (t *Table[K]) groupWhere(start int) string {
	parts := make([]string, len(t.GroupColumns))
	for i, col := range t.GroupColumns {
		parts[i] = fmt.Sprintf("%s = $%d", col, start+i)
	}
	return strings.Join(parts, " AND ")
}

// Store keeps the sequence column of one table dense within each group.
// Every mutation runs in a single transaction under the group lock.
type Store[K comparable] struct {
	db      *sql.DB
	dialect db.Dialect
	locks   *Locker
	table   Table[K]
}

func NewStore[K comparable](conn *sql.DB, dialect db.Dialect, locks *Locker, table Table[K]) *Store[K] {
	return &Store[K]{db: conn, dialect: dialect, locks: locks, table: table}
}

func (s *Store[K]) DB() *sql.DB { return s.db }

func (s *Store[K]) Describe(key K) string { return s.table.Describe(key) }

// Atomic runs fn inside one transaction holding the lock of key's group.
// The transaction commits only if fn returns nil.
func (s *Store[K]) Atomic(ctx context.Context, key K, fn func(g *Group[K]) error) error {
	unlock, err := s.locks.Lock(ctx, s.table.LockKey(key))
	if err != nil {
		return fmt.Errorf("%w: waiting for group lock: %w", models.ErrStorage, err)
	}
	defer unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", models.ErrStorage, err)
	}
	defer tx.Rollback()

	var parentID string
	err = tx.QueryRowContext(ctx, s.table.Parent+s.dialect.ForUpdate, s.table.ParentArgs(key)...).Scan(&parentID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", models.ErrNotFound, s.table.Describe(key))
	}
	if err != nil {
		return fmt.Errorf("%w: lock group: %w", models.ErrStorage, err)
	}

	if err := fn(&Group[K]{tx: tx, table: &s.table, key: key}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", models.ErrStorage, err)
	}
	return nil
}

// Check runs inside a mutation's transaction before anything is written.
// seq is the current sequence of the item the mutation targets.
type Check[K comparable] func(g *Group[K], seq int) error

// Append assigns the next sequence of key's group and lets insert persist
// the row with it.
func (s *Store[K]) Append(ctx context.Context, key K, insert func(g *Group[K], seq int) error) (int, error) {
	seq, err := s.append(ctx, key, insert)
	if err != nil {
		return 0, models.Wrap(s.table.Name+".append", s.table.Describe(key), "", err)
	}
	return seq, nil
}

func (s *Store[K]) append(ctx context.Context, key K, insert func(g *Group[K], seq int) error) (int, error) {
	var seq int
	err := s.Atomic(ctx, key, func(g *Group[K]) error {
		last, err := g.MaxSequence(ctx)
		if err != nil {
			return err
		}
		seq = last + 1
		return insert(g, seq)
	})
	return seq, err
}

// MaxSequence returns the highest sequence in key's group, 0 when empty.
func (s *Store[K]) MaxSequence(ctx context.Context, key K) (int, error) {
	seq, err := maxSequence(ctx, s.db, &s.table, key)
	if err != nil {
		return 0, models.Wrap(s.table.Name+".max_sequence", s.table.Describe(key), "", err)
	}
	return seq, nil
}

// SwapWithNext exchanges id's sequence with the item right after it and
// returns id's new sequence. Without a next item nothing changes. Any
// check failing aborts the swap.
func (s *Store[K]) SwapWithNext(ctx context.Context, key K, id string, checks ...Check[K]) (int, error) {
	seq, err := s.swap(ctx, key, id, +1, checks)
	if err != nil {
		return 0, models.Wrap(s.table.Name+".swap_next", s.table.Describe(key), id, err)
	}
	return seq, nil
}

// SwapWithPrev is SwapWithNext towards sequence 1.
func (s *Store[K]) SwapWithPrev(ctx context.Context, key K, id string, checks ...Check[K]) (int, error) {
	seq, err := s.swap(ctx, key, id, -1, checks)
	if err != nil {
		return 0, models.Wrap(s.table.Name+".swap_prev", s.table.Describe(key), id, err)
	}
	return seq, nil
}

func (s *Store[K]) swap(ctx context.Context, key K, id string, delta int, checks []Check[K]) (int, error) {
	var seq int
	err := s.Atomic(ctx, key, func(g *Group[K]) error {
		current, err := g.SequenceOf(ctx, id)
		if err != nil {
			return err
		}
		if err := runChecks(g, current, checks); err != nil {
			return err
		}
		seq, err = g.swap(ctx, id, delta)
		return err
	})
	return seq, err
}

// DeleteAndCompact removes id and closes the gap it leaves.
func (s *Store[K]) DeleteAndCompact(ctx context.Context, key K, id string, checks ...Check[K]) error {
	return models.Wrap(s.table.Name+".delete", s.table.Describe(key), id, s.deleteAndCompact(ctx, key, id, checks))
}

func (s *Store[K]) deleteAndCompact(ctx context.Context, key K, id string, checks []Check[K]) error {
	return s.Atomic(ctx, key, func(g *Group[K]) error {
		current, err := g.SequenceOf(ctx, id)
		if err != nil {
			return err
		}
		if err := runChecks(g, current, checks); err != nil {
			return err
		}
		return g.DeleteAndCompact(ctx, id)
	})
}

func runChecks[K comparable](g *Group[K], seq int, checks []Check[K]) error {
	for _, check := range checks {
		if err := check(g, seq); err != nil {
			return err
		}
	}
	return nil
}

// Group is one locked group inside a running transaction.
type Group[K comparable] struct {
	tx    *sql.Tx
	table *Table[K]
	key   K
}

// Tx is the transaction holding the group lock. Everything read or written
// while the lock is held must go through it.
func (g *Group[K]) Tx() *sql.Tx { return g.tx }

func (g *Group[K]) Key() K { return g.key }

func (g *Group[K]) MaxSequence(ctx context.Context) (int, error) {
	return maxSequence(ctx, g.tx, g.table, g.key)
}

// Count returns the number of items in the group.
func (g *Group[K]) Count(ctx context.Context) (int, error) {
	var n int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", g.table.Name, g.table.groupWhere(1))
	if err := g.tx.QueryRowContext(ctx, query, g.table.GroupArgs(g.key)...).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count: %w", models.ErrStorage, err)
	}
	return n, nil
}

// SequenceOf reads id's current sequence. Items outside the group are
// reported as not found.
func (g *Group[K]) SequenceOf(ctx context.Context, id string) (int, error) {
	var seq int
	query := fmt.Sprintf("SELECT sequence FROM %s WHERE id = $1 AND %s", g.table.Name, g.table.groupWhere(2))
	args := append([]any{id}, g.table.GroupArgs(g.key)...)
	err := g.tx.QueryRowContext(ctx, query, args...).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s %s", models.ErrNotFound, g.table.Name, id)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: read sequence: %w", models.ErrStorage, err)
	}
	return seq, nil
}

func (g *Group[K]) SwapWithNext(ctx context.Context, id string) (int, error) {
	return g.swap(ctx, id, +1)
}

func (g *Group[K]) SwapWithPrev(ctx context.Context, id string) (int, error) {
	return g.swap(ctx, id, -1)
}

func (g *Group[K]) swap(ctx context.Context, id string, delta int) (int, error) {
	seq, err := g.SequenceOf(ctx, id)
	if err != nil {
		return 0, err
	}

	var otherID string
	query := fmt.Sprintf("SELECT id FROM %s WHERE sequence = $1 AND %s", g.table.Name, g.table.groupWhere(2))
	args := append([]any{seq + delta}, g.table.GroupArgs(g.key)...)
	err = g.tx.QueryRowContext(ctx, query, args...).Scan(&otherID)
	if errors.Is(err, sql.ErrNoRows) {
		return seq, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: find neighbour: %w", models.ErrStorage, err)
	}

	if err := g.setSequence(ctx, otherID, seq); err != nil {
		return 0, err
	}
	if err := g.setSequence(ctx, id, seq+delta); err != nil {
		return 0, err
	}
	return seq + delta, nil
}

func (g *Group[K]) setSequence(ctx context.Context, id string, seq int) error {
	query := fmt.Sprintf("UPDATE %s SET sequence = $1 WHERE id = $2", g.table.Name)
	if _, err := g.tx.ExecContext(ctx, query, seq, id); err != nil {
		return fmt.Errorf("%w: update sequence: %w", models.ErrStorage, err)
	}
	return nil
}

// DeleteAndCompact deletes id and shifts every later item down by one.
func (g *Group[K]) DeleteAndCompact(ctx context.Context, id string) error {
	seq, err := g.SequenceOf(ctx, id)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", g.table.Name)
	if _, err := g.tx.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("%w: delete: %w", models.ErrStorage, err)
	}

	query = fmt.Sprintf("UPDATE %s SET sequence = sequence - 1 WHERE sequence > $1 AND %s",
		g.table.Name, g.table.groupWhere(2))
	args := append([]any{seq}, g.table.GroupArgs(g.key)...)
	if _, err := g.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: compact: %w", models.ErrStorage, err)
	}
	return nil
}

func maxSequence[K comparable](ctx context.Context, q Querier, t *Table[K], key K) (int, error) {
	var seq int
	query := fmt.Sprintf("SELECT sequence FROM %s WHERE %s ORDER BY sequence DESC LIMIT 1", t.Name, t.groupWhere(1))
	err := q.QueryRowContext(ctx, query, t.GroupArgs(key)...).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: max sequence: %w", models.ErrStorage, err)
	}
	return seq, nil
}
