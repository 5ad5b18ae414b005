package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/forgo/ludoteca/api/internal/database"
	"github.com/forgo/ludoteca/api/internal/model"
)

// InstanceRepository handles game instance (inventory) data access
type InstanceRepository struct {
	db database.Database
}

// NewInstanceRepository creates a new instance repository
func NewInstanceRepository(db database.Database) *InstanceRepository {
	return &InstanceRepository{db: db}
}

// Create adds a copy of a game to a center's inventory
func (r *InstanceRepository) Create(ctx context.Context, inst *model.GameInstance) error {
	status := inst.Status
	if status == "" {
		status = model.InstanceStatusAvailable
	}
	condition := inst.Condition
	if condition == "" {
		condition = model.ConditionGood
	}

	query := `
		CREATE game_instance CONTENT {
			game_id: type::record($game),
			center_id: type::record($center),
			status: $status,
			condition: $condition,
			notes: IF $notes IS NOT NULL THEN $notes ELSE NONE END,
			created_on: time::now(),
			updated_on: time::now()
		}
	`

	vars := map[string]interface{}{
		"game":      inst.GameID,
		"center":    inst.CenterID,
		"status":    status,
		"condition": condition,
		"notes":     ptrToNone(inst.Notes),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return err
	}

	created, err := decodeRecords[model.GameInstance](result, 0)
	if err != nil {
		return err
	}
	if len(created) == 0 {
		return errors.New("no result returned")
	}
	game := inst.Game
	*inst = *created[0]
	inst.Game = game
	return nil
}

// GetByID retrieves an instance with its catalog entry
func (r *InstanceRepository) GetByID(ctx context.Context, id string) (*model.GameInstance, error) {
	query := `SELECT *, game_id.* AS game FROM type::record($id)`

	result, err := r.db.QueryOne(ctx, query, map[string]interface{}{"id": id})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	inst, err := decodeRecord[model.GameInstance](result)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return inst, nil
}

// List returns one page of instances matching the filter
func (r *InstanceRepository) List(ctx context.Context, filter model.InstanceFilter) ([]*model.GameInstance, int, error) {
	var conds []string
	vars := map[string]interface{}{}
	if filter.CenterID != "" {
		conds = append(conds, "center_id = type::record($center)")
		vars["center"] = filter.CenterID
	}
	if filter.GameID != "" {
		conds = append(conds, "game_id = type::record($game)")
		vars["game"] = filter.GameID
	}
	if filter.Status != "" {
		conds = append(conds, "status = $status")
		vars["status"] = filter.Status
	}
	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT *, game_id.* AS game FROM game_instance %[1]s ORDER BY created_on DESC LIMIT $limit START $start;
		SELECT count() AS count FROM game_instance %[1]s GROUP ALL;
	`, where)

	results, err := r.db.Query(ctx, query, pageVars(filter.Page, vars))
	if err != nil {
		return nil, 0, err
	}

	items, err := decodeRecords[model.GameInstance](results, 0)
	if err != nil {
		return nil, 0, err
	}
	return items, extractCount(results, 1), nil
}

// Update writes status, condition and notes. It fails with
// database.ErrConflict when the copy is currently rented, since only rental
// approval and return move an instance in or out of that state.
func (r *InstanceRepository) Update(ctx context.Context, inst *model.GameInstance) error {
	vars := map[string]interface{}{
		"id":        inst.ID,
		"status":    inst.Status,
		"condition": inst.Condition,
		"notes":     ptrToNone(inst.Notes),
	}

	return database.NewAtomicBatch().
		Guard(`(SELECT VALUE status FROM ONLY type::record($id)) = 'rented'`,
			map[string]interface{}{"id": inst.ID}, model.ConflictInstanceRented).
		Add(`UPDATE type::record($id) SET
			status = $status,
			condition = $condition,
			notes = IF $notes IS NOT NULL THEN $notes ELSE NONE END,
			updated_on = time::now()`, vars).
		Execute(ctx, r.db)
}

// Delete removes an instance. It fails with database.ErrConflict while the
// copy is rented or has pending requests.
func (r *InstanceRepository) Delete(ctx context.Context, id string) error {
	vars := map[string]interface{}{"instance": id}

	return database.NewAtomicBatch().
		Guard(`(SELECT VALUE status FROM ONLY type::record($instance)) = 'rented'`, vars, model.ConflictInstanceRented).
		Guard(openRentalsExist("game_instance_id", "instance"), vars, model.ConflictInstanceOpenRentals).
		Add(`DELETE type::record($instance)`, vars).
		Execute(ctx, r.db)
}

// Count returns the number of instances, optionally limited to one center
func (r *InstanceRepository) Count(ctx context.Context, centerID string) (total, available int, err error) {
	where := ""
	vars := map[string]interface{}{}
	if centerID != "" {
		where = "AND center_id = type::record($center)"
		vars["center"] = centerID
	}

	query := fmt.Sprintf(`
		SELECT count() AS count FROM game_instance WHERE status != 'retired' %[1]s GROUP ALL;
		SELECT count() AS count FROM game_instance WHERE status = 'available' %[1]s GROUP ALL;
	`, where)

	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return 0, 0, err
	}
	return extractCount(results, 0), extractCount(results, 1), nil
}
