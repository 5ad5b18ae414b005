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

// CenterRepository handles center data access. Coordinator changes and
// activation go through guarded transactions so the "active only with a
// coordinator" and "one center per coordinator" rules hold under concurrent
// writes.
type CenterRepository struct {
	db database.Database
}

// NewCenterRepository creates a new center repository
func NewCenterRepository(db database.Database) *CenterRepository {
	return &CenterRepository{db: db}
}

// Create creates a new, inactive center together with its optional
// coordinator and super coordinator. The role checks and the insert run in
// one transaction, so a failed assignment leaves no center behind.
func (r *CenterRepository) Create(ctx context.Context, center *model.Center) error {
	key := newRecordKey("c")
	vars := map[string]interface{}{
		"key":         key,
		"name":        center.Name,
		"address":     ptrToNone(center.Address),
		"city":        ptrToNone(center.City),
		"phone":       ptrToNone(center.Phone),
		"email":       ptrToNone(center.Email),
		"description": ptrToNone(center.Description),
		"coordinator": ptrToNone(center.CoordinatorID),
		"super":       ptrToNone(center.SuperCoordinatorID),
	}

	batch := database.NewAtomicBatch()
	if center.CoordinatorID != nil {
		batch.
			Guard(`(SELECT VALUE role FROM ONLY type::record($coordinator)) != 'coordinator'`,
				vars, model.ConflictNotCoordinator).
			Guard(`count(SELECT VALUE id FROM center WHERE coordinator_id = type::record($coordinator)) > 0`,
				vars, model.ConflictCoordinatorAssigned)
	}
	if center.SuperCoordinatorID != nil {
		batch.Guard(`(SELECT VALUE role FROM ONLY type::record($super)) != 'super_coordinator'`,
			vars, model.ConflictNotSuperCoordinator)
	}
	batch.Add(`CREATE type::thing('center', $key) CONTENT {
			name: $name,
			address: IF $address IS NOT NULL THEN $address ELSE NONE END,
			city: IF $city IS NOT NULL THEN $city ELSE NONE END,
			phone: IF $phone IS NOT NULL THEN $phone ELSE NONE END,
			email: IF $email IS NOT NULL THEN $email ELSE NONE END,
			description: IF $description IS NOT NULL THEN $description ELSE NONE END,
			coordinator_id: IF $coordinator IS NOT NULL THEN type::record($coordinator) ELSE NONE END,
			super_coordinator_id: IF $super IS NOT NULL THEN type::record($super) ELSE NONE END,
			is_active: false,
			created_on: time::now(),
			updated_on: time::now()
		}`, vars)

	if err := batch.Execute(ctx, r.db); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return fmt.Errorf("%w: center name already exists", database.ErrDuplicate)
		}
		return err
	}

	created, err := r.GetByID(ctx, "center:"+key)
	if err != nil {
		return err
	}
	if created == nil {
		return database.ErrNotFound
	}
	*center = *created
	return nil
}

// GetByID retrieves a center by ID
func (r *CenterRepository) GetByID(ctx context.Context, id string) (*model.Center, error) {
	return r.getOne(ctx, `SELECT * FROM type::record($id)`, map[string]interface{}{"id": id})
}

// GetByCoordinator returns the center assigned to a coordinator, or nil
func (r *CenterRepository) GetByCoordinator(ctx context.Context, userID string) (*model.Center, error) {
	query := `SELECT * FROM center WHERE coordinator_id = type::record($user) LIMIT 1`
	return r.getOne(ctx, query, map[string]interface{}{"user": userID})
}

func (r *CenterRepository) getOne(ctx context.Context, query string, vars map[string]interface{}) (*model.Center, error) {
	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	center, err := decodeRecord[model.Center](result)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return center, nil
}

// List returns one page of centers matching the filter
func (r *CenterRepository) List(ctx context.Context, filter model.CenterFilter) ([]*model.Center, int, error) {
	where, vars := centerWhere(filter)
	query := fmt.Sprintf(`
		SELECT * FROM center %[1]s ORDER BY name LIMIT $limit START $start;
		SELECT count() AS count FROM center %[1]s GROUP ALL;
	`, where)

	results, err := r.db.Query(ctx, query, pageVars(filter.Page, vars))
	if err != nil {
		return nil, 0, err
	}

	centers, err := decodeRecords[model.Center](results, 0)
	if err != nil {
		return nil, 0, err
	}
	return centers, extractCount(results, 1), nil
}

func centerWhere(filter model.CenterFilter) (string, map[string]interface{}) {
	var conds []string
	vars := map[string]interface{}{}

	if filter.ActiveOnly {
		conds = append(conds, "is_active = true")
	}
	if filter.SuperCoordinatorID != "" {
		conds = append(conds, "super_coordinator_id = type::record($super)")
		vars["super"] = filter.SuperCoordinatorID
	}
	if c := strings.TrimSpace(filter.City); c != "" {
		conds = append(conds, "string::lowercase(city ?? '') = $city")
		vars["city"] = strings.ToLower(c)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		conds = append(conds, "(string::lowercase(name) CONTAINS $search OR string::lowercase(city ?? '') CONTAINS $search)")
		vars["search"] = strings.ToLower(s)
	}

	if len(conds) == 0 {
		return "", vars
	}
	return "WHERE " + strings.Join(conds, " AND "), vars
}

// Update updates a center's descriptive fields
func (r *CenterRepository) Update(ctx context.Context, center *model.Center) error {
	query := `
		UPDATE type::record($id) SET
			name = $name,
			address = IF $address IS NOT NULL THEN $address ELSE NONE END,
			city = IF $city IS NOT NULL THEN $city ELSE NONE END,
			phone = IF $phone IS NOT NULL THEN $phone ELSE NONE END,
			email = IF $email IS NOT NULL THEN $email ELSE NONE END,
			description = IF $description IS NOT NULL THEN $description ELSE NONE END,
			updated_on = time::now()
	`

	vars := map[string]interface{}{
		"id":          center.ID,
		"name":        center.Name,
		"address":     ptrToNone(center.Address),
		"city":        ptrToNone(center.City),
		"phone":       ptrToNone(center.Phone),
		"email":       ptrToNone(center.Email),
		"description": ptrToNone(center.Description),
	}

	err := r.db.Execute(ctx, query, vars)
	if errors.Is(err, database.ErrDuplicate) {
		return fmt.Errorf("%w: center name already exists", database.ErrDuplicate)
	}
	return err
}

// AssignCoordinator makes userID the center's coordinator. The transaction
// fails with database.ErrConflict when the user is not a coordinator or
// already runs another center.
func (r *CenterRepository) AssignCoordinator(ctx context.Context, centerID, userID string) error {
	vars := map[string]interface{}{"center": centerID, "user": userID}

	return database.NewAtomicBatch().
		Guard(`(SELECT VALUE role FROM ONLY type::record($user)) != 'coordinator'`,
			vars, model.ConflictNotCoordinator).
		Guard(`count(SELECT VALUE id FROM center
			WHERE coordinator_id = type::record($user) AND id != type::record($center)) > 0`,
			vars, model.ConflictCoordinatorAssigned).
		Add(`UPDATE type::record($center) SET coordinator_id = type::record($user), updated_on = time::now()`, vars).
		Execute(ctx, r.db)
}

// RemoveCoordinator detaches the coordinator and deactivates the center
func (r *CenterRepository) RemoveCoordinator(ctx context.Context, centerID string) error {
	query := `UPDATE type::record($center) SET coordinator_id = NONE, is_active = false, updated_on = time::now()`
	return r.db.Execute(ctx, query, map[string]interface{}{"center": centerID})
}

// AssignSuperCoordinator makes userID the center's super coordinator
func (r *CenterRepository) AssignSuperCoordinator(ctx context.Context, centerID, userID string) error {
	vars := map[string]interface{}{"center": centerID, "user": userID}

	return database.NewAtomicBatch().
		Guard(`(SELECT VALUE role FROM ONLY type::record($user)) != 'super_coordinator'`,
			vars, model.ConflictNotSuperCoordinator).
		Add(`UPDATE type::record($center) SET super_coordinator_id = type::record($user), updated_on = time::now()`, vars).
		Execute(ctx, r.db)
}

// RemoveSuperCoordinator detaches the center's super coordinator
func (r *CenterRepository) RemoveSuperCoordinator(ctx context.Context, centerID string) error {
	query := `UPDATE type::record($center) SET super_coordinator_id = NONE, updated_on = time::now()`
	return r.db.Execute(ctx, query, map[string]interface{}{"center": centerID})
}

// SetActive activates or deactivates a center. Activation fails with
// database.ErrConflict when no coordinator is assigned.
func (r *CenterRepository) SetActive(ctx context.Context, centerID string, active bool) error {
	vars := map[string]interface{}{"center": centerID, "active": active}

	batch := database.NewAtomicBatch()
	if active {
		batch.Guard(`(SELECT VALUE coordinator_id FROM ONLY type::record($center)) IS NONE`,
			map[string]interface{}{"center": centerID}, model.ConflictNoCoordinator)
	}
	batch.Add(`UPDATE type::record($center) SET is_active = $active, updated_on = time::now()`, vars)
	return batch.Execute(ctx, r.db)
}

// Delete removes a center and its inventory. It fails with
// database.ErrConflict while the center has pending or active rentals.
func (r *CenterRepository) Delete(ctx context.Context, centerID string) error {
	vars := map[string]interface{}{"center": centerID}

	return database.NewAtomicBatch().
		Guard(openRentalsExist("center_id", "center"), vars, model.ConflictCenterOpenRentals).
		Add(`DELETE game_instance WHERE center_id = type::record($center)`, vars).
		Add(`DELETE type::record($center)`, vars).
		Execute(ctx, r.db)
}

// Count returns the number of centers and how many are active
func (r *CenterRepository) Count(ctx context.Context) (total, active int, err error) {
	query := `
		SELECT count() AS count FROM center GROUP ALL;
		SELECT count() AS count FROM center WHERE is_active = true GROUP ALL;
	`
	results, err := r.db.Query(ctx, query, nil)
	if err != nil {
		return 0, 0, err
	}
	return extractCount(results, 0), extractCount(results, 1), nil
}

// Stats returns inventory and rental counts per center, limited to the
// centers overseen by superCoordinatorID when it is set.
func (r *CenterRepository) Stats(ctx context.Context, superCoordinatorID string, now time.Time) ([]*model.CenterStats, error) {
	vars := map[string]interface{}{"now": timeVar(now)}
	where := ""
	if superCoordinatorID != "" {
		where = "WHERE super_coordinator_id = type::record($super)"
		vars["super"] = superCoordinatorID
	}

	query := fmt.Sprintf(`
		SELECT id AS center_id, name AS center_name, is_active,
			count(SELECT VALUE id FROM game_instance
				WHERE center_id = $parent.id AND status != 'retired') AS instances,
			count(SELECT VALUE id FROM game_instance
				WHERE center_id = $parent.id AND status = 'available') AS available_instances,
			count(SELECT VALUE id FROM rental
				WHERE center_id = $parent.id AND status = 'pending') AS pending_rentals,
			count(SELECT VALUE id FROM rental
				WHERE center_id = $parent.id AND status = 'active') AS active_rentals,
			count(SELECT VALUE id FROM rental
				WHERE center_id = $parent.id AND status = 'active' AND due_date < <datetime>$now) AS overdue_rentals
		FROM center %s ORDER BY center_name
	`, where)

	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return decodeRecords[model.CenterStats](results, 0)
}
