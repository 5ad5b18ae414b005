// Package service implements the business logic of the Ludoteca API.
//
// Services sit between the HTTP handlers and the repositories. Each one
// declares the repository interface it needs, so unit tests run against
// in-memory fakes.
//
//   - AuthService, TokenService: login, refresh token rotation, logout, password changes
//   - AdminUsersService: user listing, role changes, activation and deletion
//   - CenterService: centers and the coordinators that run them
//   - CatalogService: the shared game catalog and per-center availability
//   - InventoryService: game instances held by a coordinator's center
//   - RentalService: the rental lifecycle and pending request expiry
//   - StatsService: dashboard counts for admins and super coordinators
//
// # Scoping
//
// Operations acting on behalf of staff take an Actor. Coordinators are
// limited to their own center and super coordinators to the centers they
// supervise; admins are unrestricted.
//
// # Errors
//
// Services return the sentinel errors in errors.go, or *model.ProblemDetails
// for validation failures. Conflicts raised inside repository transactions
// are translated by mapConflict:
//
//	rental, err := rentals.Request(ctx, userID, &model.CreateRentalRequest{
//	    GameInstanceID: "game_instance:abc",
//	})
//	if errors.Is(err, service.ErrRentalLimitReached) {
//	    ...
//	}
package service
