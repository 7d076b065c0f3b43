// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package sequence

import (
	"context"
	"fmt"

	"github.com/servo-sync-project/servo-sync-api/models"
)

// Kind adapts one item type to a Collection. Methods receiving a Group run
// under its lock and must only use g.Tx().
type Kind[K comparable, T any] interface {
	// Key returns the group an item belongs to.
	Key(item T) K
	Get(ctx context.Context, q Querier, id string) (T, error)
	List(ctx context.Context, q Querier, key K) ([]T, error)
	// Validate enforces group constraints (uniqueness, capacity) for item.
	// excludeID is the id of the item being updated, empty on create.
	Validate(ctx context.Context, g *Group[K], item T, excludeID string) error
	Insert(ctx context.Context, g *Group[K], item T, seq int) (T, error)
	// Update rewrites every field of id except its group and sequence.
	Update(ctx context.Context, g *Group[K], id string, item T) (T, error)
}

// DeleteValidator is implemented by kinds whose items cannot always be
// removed. item is read inside the delete's transaction.
type DeleteValidator[K comparable, T any] interface {
	ValidateDelete(ctx context.Context, g *Group[K], item T) error
}

// Collection is an ordered set of items per group: append at the end,
// move by one, delete with compaction.
type Collection[K comparable, T any] struct {
	name  string
	store *Store[K]
	kind  Kind[K, T]
}

func NewCollection[K comparable, T any](name string, store *Store[K], kind Kind[K, T]) *Collection[K, T] {
	return &Collection[K, T]{name: name, store: store, kind: kind}
}

func (c *Collection[K, T]) Get(ctx context.Context, id string) (T, error) {
	item, err := c.kind.Get(ctx, c.store.DB(), id)
	if err != nil {
		return item, models.Wrap(c.name+".get", "", id, err)
	}
	return item, nil
}

// List returns the group's items ordered by sequence.
func (c *Collection[K, T]) List(ctx context.Context, key K) ([]T, error) {
	items, err := c.kind.List(ctx, c.store.DB(), key)
	if err != nil {
		return nil, models.Wrap(c.name+".list", c.store.Describe(key), "", err)
	}
	return items, nil
}

// Create validates item against its group and appends it.
func (c *Collection[K, T]) Create(ctx context.Context, item T) (T, error) {
	key := c.kind.Key(item)
	var created T
	_, err := c.store.append(ctx, key, func(g *Group[K], seq int) error {
		if err := c.kind.Validate(ctx, g, item, ""); err != nil {
			return err
		}
		var err error
		created, err = c.kind.Insert(ctx, g, item, seq)
		return err
	})
	if err != nil {
		return created, models.Wrap(c.name+".create", c.store.Describe(key), "", err)
	}
	return created, nil
}

// MoveUp swaps id with the item after it.
func (c *Collection[K, T]) MoveUp(ctx context.Context, id string) (T, error) {
	return c.move(ctx, id, "move_up", +1, func(g *Group[K], seq int) error {
		last, err := g.MaxSequence(ctx)
		if err != nil {
			return err
		}
		if seq == last {
			return fmt.Errorf("%w: %s is already at the maximum sequence", models.ErrInvalidState, c.name)
		}
		return nil
	})
}

// MoveDown swaps id with the item before it.
func (c *Collection[K, T]) MoveDown(ctx context.Context, id string) (T, error) {
	return c.move(ctx, id, "move_down", -1, func(g *Group[K], seq int) error {
		if seq == 1 {
			return fmt.Errorf("%w: %s is already at the minimum sequence", models.ErrInvalidState, c.name)
		}
		return nil
	})
}

// move runs the bound check and the swap in one transaction, so the check
// sees the sequence the swap acts on.
func (c *Collection[K, T]) move(ctx context.Context, id, op string, delta int, bound Check[K]) (T, error) {
	item, err := c.kind.Get(ctx, c.store.DB(), id)
	if err != nil {
		return item, models.Wrap(c.name+"."+op, "", id, err)
	}

	key := c.kind.Key(item)
	if _, err := c.store.swap(ctx, key, id, delta, []Check[K]{bound}); err != nil {
		return item, models.Wrap(c.name+"."+op, c.store.Describe(key), id, err)
	}

	moved, err := c.kind.Get(ctx, c.store.DB(), id)
	if err != nil {
		return moved, models.Wrap(c.name+"."+op, c.store.Describe(key), id, err)
	}
	return moved, nil
}

// Update rewrites the non-sequence fields of id after re-validating the
// group constraints with id itself excluded.
func (c *Collection[K, T]) Update(ctx context.Context, id string, fields T) (T, error) {
	current, err := c.kind.Get(ctx, c.store.DB(), id)
	if err != nil {
		return current, models.Wrap(c.name+".update", "", id, err)
	}

	key := c.kind.Key(current)
	var updated T
	err = c.store.Atomic(ctx, key, func(g *Group[K]) error {
		if _, err := g.SequenceOf(ctx, id); err != nil {
			return err
		}
		if err := c.kind.Validate(ctx, g, fields, id); err != nil {
			return err
		}
		updated, err = c.kind.Update(ctx, g, id, fields)
		return err
	})
	if err != nil {
		return updated, models.Wrap(c.name+".update", c.store.Describe(key), id, err)
	}
	return updated, nil
}

// Delete removes id and compacts its group.
func (c *Collection[K, T]) Delete(ctx context.Context, id string) (bool, error) {
	item, err := c.kind.Get(ctx, c.store.DB(), id)
	if err != nil {
		return false, models.Wrap(c.name+".delete", "", id, err)
	}

	var checks []Check[K]
	if v, ok := c.kind.(DeleteValidator[K, T]); ok {
		checks = append(checks, func(g *Group[K], _ int) error {
			current, err := c.kind.Get(ctx, g.Tx(), id)
			if err != nil {
				return err
			}
			return v.ValidateDelete(ctx, g, current)
		})
	}

	key := c.kind.Key(item)
	if err := c.store.deleteAndCompact(ctx, key, id, checks); err != nil {
		return false, models.Wrap(c.name+".delete", c.store.Describe(key), id, err)
	}
	return true, nil
}
