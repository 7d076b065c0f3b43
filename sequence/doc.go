// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package sequence keeps ordered child collections dense.

Items of a group (the positions of a movement, the servo groups in one
column of a robot) carry a 1-based sequence. After every operation the
sequences of a group are exactly 1..N.

# Store

Store works on one table. Each mutation takes the group lock, opens a
transaction, locks the parent row (SELECT ... FOR UPDATE on PostgreSQL)
and commits only when everything succeeded:

	seq, err := store.Append(ctx, key, insertRow)
	seq, err = store.SwapWithNext(ctx, key, id)
	err = store.DeleteAndCompact(ctx, key, id)

Swaps and deletes accept Checks that run in the same transaction before
anything is written. Atomic exposes the steps on a Group for callers that
need more than that.

# Collection

Collection adds the domain rules on top of a Store through a Kind:

	positions := sequence.NewCollection("position", store, kind)
	p, err := positions.Create(ctx, p)   // validate, append
	p, err = positions.MoveUp(ctx, id)   // ErrInvalidState at the end
	p, err = positions.MoveDown(ctx, id) // ErrInvalidState at 1
	ok, err := positions.Delete(ctx, id) // compacts

Collection goes through the Store for every sequence change. A Kind that
also implements DeleteValidator can veto a delete.

Groups that share a constraint must share a lock key: servo groups are
ranked per column but their servo budget is per robot, so every column of
a robot locks the same key.
*/
package sequence
