package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/forgo/ludoteca/api/internal/database"
	"github.com/forgo/ludoteca/api/internal/model"
)

// RentalRepository handles rental data access. Every status change runs as
// one guarded transaction together with the instance update it implies.
type RentalRepository struct {
	db database.Database
}

// NewRentalRepository creates a new rental repository
func NewRentalRepository(db database.Database) *RentalRepository {
	return &RentalRepository{db: db}
}

const rentalSelect = `SELECT *, game_id.* AS game, center_id.* AS center`

// Create stores a pending rental request. The transaction re-checks, at write
// time, that the center is active, the instance is available, the user has no
// open request for the same instance and holds fewer than maxOpen pending or
// active rentals; any failure aborts with database.ErrConflict.
func (r *RentalRepository) Create(ctx context.Context, rental *model.Rental, maxOpen int) error {
	key := newRecordKey("r")
	vars := map[string]interface{}{
		"key":      key,
		"user":     rental.UserID,
		"instance": rental.GameInstanceID,
		"game":     rental.GameID,
		"center":   rental.CenterID,
		"notes":    ptrToNone(rental.Notes),
		"max":      maxOpen,
	}

	err := database.NewAtomicBatch().
		Guard(`(SELECT VALUE is_active FROM ONLY type::record($center)) != true`,
			vars, model.ConflictCenterInactive).
		Guard(`(SELECT VALUE status FROM ONLY type::record($instance)) != 'available'`,
			vars, model.ConflictInstanceUnavailable).
		Guard(`count(SELECT VALUE id FROM rental WHERE user_id = type::record($user)
			AND game_instance_id = type::record($instance) AND status IN ['pending', 'active']) > 0`,
			vars, model.ConflictDuplicateRequest).
		Guard(`count(SELECT VALUE id FROM rental WHERE user_id = type::record($user)
			AND status IN ['pending', 'active']) >= $max`,
			vars, model.ConflictRentalLimit).
		Add(`CREATE type::thing('rental', $key) CONTENT {
			user_id: type::record($user),
			game_instance_id: type::record($instance),
			game_id: type::record($game),
			center_id: type::record($center),
			status: 'pending',
			notes: IF $notes IS NOT NULL THEN $notes ELSE NONE END,
			requested_on: time::now(),
			created_on: time::now(),
			updated_on: time::now()
		}`, vars).
		Execute(ctx, r.db)
	if err != nil {
		return err
	}

	created, err := r.GetByID(ctx, "rental:"+key)
	if err != nil {
		return err
	}
	if created == nil {
		return database.ErrNotFound
	}
	*rental = *created
	return nil
}

// GetByID retrieves a rental with its game and center
func (r *RentalRepository) GetByID(ctx context.Context, id string) (*model.Rental, error) {
	result, err := r.db.QueryOne(ctx, rentalSelect+` FROM type::record($id)`, map[string]interface{}{"id": id})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	rental, err := decodeRecord[model.Rental](result)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return rental, nil
}

// List returns one page of rentals matching the filter, newest first
func (r *RentalRepository) List(ctx context.Context, filter model.RentalFilter) ([]*model.Rental, int, error) {
	where, vars := rentalWhere(filter)
	query := fmt.Sprintf(`
		%[1]s FROM rental %[2]s ORDER BY requested_on DESC LIMIT $limit START $start;
		SELECT count() AS count FROM rental %[2]s GROUP ALL;
	`, rentalSelect, where)

	results, err := r.db.Query(ctx, query, pageVars(filter.Page, vars))
	if err != nil {
		return nil, 0, err
	}

	rentals, err := decodeRecords[model.Rental](results, 0)
	if err != nil {
		return nil, 0, err
	}
	return rentals, extractCount(results, 1), nil
}

func rentalWhere(filter model.RentalFilter) (string, map[string]interface{}) {
	var conds []string
	vars := map[string]interface{}{}

	if filter.UserID != "" {
		conds = append(conds, "user_id = type::record($user)")
		vars["user"] = filter.UserID
	}
	if filter.CenterID != "" {
		conds = append(conds, "center_id = type::record($center)")
		vars["center"] = filter.CenterID
	}
	if filter.Status != "" {
		conds = append(conds, "status = $status")
		vars["status"] = filter.Status
	}

	if len(conds) == 0 {
		return "", vars
	}
	return "WHERE " + strings.Join(conds, " AND "), vars
}

// ListOverdue returns active rentals past their due date, oldest due first.
// An empty centerID lists every center.
func (r *RentalRepository) ListOverdue(ctx context.Context, centerID string, now time.Time) ([]*model.Rental, error) {
	vars := map[string]interface{}{"now": timeVar(now)}
	centerCond := ""
	if centerID != "" {
		centerCond = "AND center_id = type::record($center)"
		vars["center"] = centerID
	}

	query := fmt.Sprintf(`%s FROM rental
		WHERE status = 'active' AND due_date < <datetime>$now %s
		ORDER BY due_date`, rentalSelect, centerCond)

	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return decodeRecords[model.Rental](results, 0)
}

// CountOpenByUser counts the user's pending and active rentals
func (r *RentalRepository) CountOpenByUser(ctx context.Context, userID string) (int, error) {
	query := `SELECT count() AS count FROM rental
		WHERE user_id = type::record($user) AND status IN ['pending', 'active'] GROUP ALL`
	results, err := r.db.Query(ctx, query, map[string]interface{}{"user": userID})
	if err != nil {
		return 0, err
	}
	return extractCount(results, 0), nil
}

// HasOpenForInstance reports whether the user already has a pending or
// active rental of the instance
func (r *RentalRepository) HasOpenForInstance(ctx context.Context, userID, instanceID string) (bool, error) {
	query := `SELECT count() AS count FROM rental
		WHERE user_id = type::record($user) AND game_instance_id = type::record($instance)
		AND status IN ['pending', 'active'] GROUP ALL`
	results, err := r.db.Query(ctx, query, map[string]interface{}{"user": userID, "instance": instanceID})
	if err != nil {
		return false, err
	}
	return extractCount(results, 0) > 0, nil
}

// Approve activates a pending rental: the instance becomes rented, approval
// fields and due date are set, and every other pending request for the same
// instance is cancelled, all in one transaction.
func (r *RentalRepository) Approve(ctx context.Context, rental *model.Rental, approverID string, due time.Time) error {
	vars := map[string]interface{}{
		"rental":   rental.ID,
		"instance": rental.GameInstanceID,
		"approver": approverID,
		"due":      timeVar(due),
		"reason":   model.CancelReasonInstanceAssigned,
	}

	return database.NewAtomicBatch().
		Guard(`(SELECT VALUE status FROM ONLY type::record($rental)) != 'pending'`, vars, model.ConflictNotPending).
		Guard(`(SELECT VALUE status FROM ONLY type::record($instance)) != 'available'`, vars, model.ConflictInstanceUnavailable).
		Add(`UPDATE type::record($instance) SET status = 'rented', updated_on = time::now()`, vars).
		Add(`UPDATE type::record($rental) SET
			status = 'active',
			approved_on = time::now(),
			approved_by = type::record($approver),
			due_date = <datetime>$due,
			updated_on = time::now()`, vars).
		Add(`UPDATE rental SET
			status = 'cancelled',
			cancelled_on = time::now(),
			cancel_reason = $reason,
			updated_on = time::now()
		WHERE game_instance_id = type::record($instance) AND status = 'pending' AND id != type::record($rental)`, vars).
		Execute(ctx, r.db)
}

// Cancel moves a pending rental to cancelled with the given reason
func (r *RentalRepository) Cancel(ctx context.Context, rentalID, reason string) error {
	vars := map[string]interface{}{"rental": rentalID, "reason": reason}

	return database.NewAtomicBatch().
		Guard(`(SELECT VALUE status FROM ONLY type::record($rental)) != 'pending'`, vars, model.ConflictNotPending).
		Add(`UPDATE type::record($rental) SET
			status = 'cancelled',
			cancelled_on = time::now(),
			cancel_reason = $reason,
			updated_on = time::now()`, vars).
		Execute(ctx, r.db)
}

// Return closes an active rental and releases the instance: back to
// available, or to maintenance when returned damaged.
func (r *RentalRepository) Return(ctx context.Context, rental *model.Rental, condition *model.InstanceCondition, notes *string) error {
	vars := map[string]interface{}{
		"rental":    rental.ID,
		"instance":  rental.GameInstanceID,
		"condition": ptrToNone(condition),
		"notes":     ptrToNone(notes),
	}

	return database.NewAtomicBatch().
		Guard(`(SELECT VALUE status FROM ONLY type::record($rental)) != 'active'`, vars, model.ConflictNotActive).
		Add(`UPDATE type::record($rental) SET
			status = 'returned',
			returned_on = time::now(),
			returned_condition = IF $condition IS NOT NULL THEN $condition ELSE NONE END,
			notes = IF $notes IS NOT NULL THEN $notes ELSE notes END,
			updated_on = time::now()`, vars).
		Add(`UPDATE type::record($instance) SET
			condition = IF $condition IS NOT NULL THEN $condition ELSE condition END,
			status = IF $condition = 'damaged' THEN 'maintenance' ELSE 'available' END,
			updated_on = time::now()`, vars).
		Execute(ctx, r.db)
}

// ExpirePending cancels pending rentals requested before cutoff and returns
// how many were cancelled
func (r *RentalRepository) ExpirePending(ctx context.Context, cutoff time.Time) (int, error) {
	query := `
		UPDATE rental SET
			status = 'cancelled',
			cancelled_on = time::now(),
			cancel_reason = $reason,
			updated_on = time::now()
		WHERE status = 'pending' AND requested_on < <datetime>$cutoff
		RETURN id
	`
	vars := map[string]interface{}{
		"cutoff": timeVar(cutoff),
		"reason": model.CancelReasonExpired,
	}

	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return 0, err
	}
	return len(statementResult(results, 0)), nil
}

// CountByStatus returns rental counts keyed by status. An empty centerID
// counts every center.
func (r *RentalRepository) CountByStatus(ctx context.Context, centerID string) (map[model.RentalStatus]int, error) {
	vars := map[string]interface{}{}
	where := ""
	if centerID != "" {
		where = "WHERE center_id = type::record($center)"
		vars["center"] = centerID
	}

	query := fmt.Sprintf(`SELECT status, count() AS count FROM rental %s GROUP BY status`, where)
	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	counts := map[model.RentalStatus]int{}
	for _, item := range statementResult(results, 0) {
		if data, ok := item.(map[string]interface{}); ok {
			if status, ok := data["status"].(string); ok {
				counts[model.RentalStatus(status)] = extractCountValue(data["count"])
			}
		}
	}
	return counts, nil
}
