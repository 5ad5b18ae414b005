package model

// Guard reasons raised by transactional writes in the repositories. Services
// match them with database.ConflictReason.
const (
	ConflictCenterInactive      = "center is not active"
	ConflictInstanceUnavailable = "instance is not available"
	ConflictDuplicateRequest    = "open request for this instance already exists"
	ConflictRentalLimit         = "rental limit reached"
	ConflictNotPending          = "rental is not pending"
	ConflictNotActive           = "rental is not active"
	ConflictNoCoordinator       = "center has no coordinator"
	ConflictNotCoordinator      = "user is not a coordinator"
	ConflictNotSuperCoordinator = "user is not a super coordinator"
	ConflictCoordinatorAssigned = "coordinator already assigned to another center"
	ConflictCenterOpenRentals   = "center has open rentals"
	ConflictGameHasInstances    = "game has instances"
	ConflictInstanceRented      = "instance is rented"
	ConflictInstanceOpenRentals = "instance has open rentals"
	ConflictUserOpenRentals     = "user has open rentals"
)
