// Package repository implements the data access layer for the Ludoteca API.
//
// Each repository wraps a database.Database and owns the SurrealQL for one
// entity: users, refresh tokens, centers, catalog games, game instances and
// rentals.
//
// # Conventions
//
//   - NewXxxRepository accepts the database connection
//   - Lookups return (nil, nil) when the record does not exist
//   - Record links are passed as "table:id" strings and bound with type::record()
//   - Timestamps are set server side with time::now()
//
// # Transactional Writes
//
// Writes that must check state first (approving a rental, deleting a center
// with open rentals, assigning a coordinator) use database.AtomicBatch. A
// failed guard aborts the whole batch and surfaces as database.ErrConflict
// carrying one of the model.ConflictXxx reasons:
//
//	err := repo.Approve(ctx, rental, approverID, due)
//	if errors.Is(err, database.ErrConflict) {
//	    switch database.ConflictReason(err) {
//	    case model.ConflictInstanceUnavailable:
//	        ...
//	    }
//	}
package repository
