// Package database provides SurrealDB connectivity for the Ludoteca API.
//
// The Database interface abstracts the three query shapes used by the
// repositories:
//
//   - Query: one {status, result} entry per statement
//   - QueryOne: first record of the first statement (ErrNotFound when empty)
//   - Execute: mutations with no result
//
// # Transactions
//
// Multi-statement writes go through AtomicBatch, which sends every statement
// in one BEGIN/COMMIT block. Guard adds a precondition that aborts the batch
// with ErrConflict:
//
//	err := database.NewAtomicBatch().
//	    Guard("(SELECT VALUE status FROM ONLY type::record($id)) != 'pending'", vars, "rental not pending").
//	    Add("UPDATE type::record($id) SET status = 'active'", vars).
//	    Execute(ctx, db)
//
// # Errors
//
// Statement failures are classified into ErrDuplicate (unique index),
// ErrConflict (failed guard) and ErrQuery; connection problems are
// ErrConnection. Use errors.Is to check them.
//
// # Migrations
//
// Migrate applies the embedded *.surql schema files once each, recording them
// in the migration table.
package database
