package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/forgo/ludoteca/api/internal/database"
	"github.com/forgo/ludoteca/api/internal/model"
)

// GameRepository handles catalog data access
type GameRepository struct {
	db database.Database
}

// NewGameRepository creates a new game repository
func NewGameRepository(db database.Database) *GameRepository {
	return &GameRepository{db: db}
}

const gameFields = `
	name: $name,
	description: IF $description IS NOT NULL THEN $description ELSE NONE END,
	category: IF $category IS NOT NULL THEN $category ELSE NONE END,
	min_players: IF $min_players IS NOT NULL THEN $min_players ELSE NONE END,
	max_players: IF $max_players IS NOT NULL THEN $max_players ELSE NONE END,
	min_age: IF $min_age IS NOT NULL THEN $min_age ELSE NONE END,
	duration_mins: IF $duration_mins IS NOT NULL THEN $duration_mins ELSE NONE END,
	image_url: IF $image_url IS NOT NULL THEN $image_url ELSE NONE END,
`

func gameVars(g *model.Game) map[string]interface{} {
	return map[string]interface{}{
		"name":          g.Name,
		"description":   ptrToNone(g.Description),
		"category":      ptrToNone(g.Category),
		"min_players":   ptrToNone(g.MinPlayers),
		"max_players":   ptrToNone(g.MaxPlayers),
		"min_age":       ptrToNone(g.MinAge),
		"duration_mins": ptrToNone(g.DurationMins),
		"image_url":     ptrToNone(g.ImageURL),
	}
}

// Create adds a catalog entry
func (r *GameRepository) Create(ctx context.Context, game *model.Game) error {
	query := `CREATE game CONTENT {` + gameFields + `
		created_on: time::now(),
		updated_on: time::now()
	}`

	result, err := r.db.Query(ctx, query, gameVars(game))
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return fmt.Errorf("%w: game name already exists", database.ErrDuplicate)
		}
		return err
	}

	created, err := decodeRecords[model.Game](result, 0)
	if err != nil {
		return err
	}
	if len(created) == 0 {
		return errors.New("no result returned")
	}
	*game = *created[0]
	return nil
}

// GetByID retrieves a game by ID
func (r *GameRepository) GetByID(ctx context.Context, id string) (*model.Game, error) {
	result, err := r.db.QueryOne(ctx, `SELECT * FROM type::record($id)`, map[string]interface{}{"id": id})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	game, err := decodeRecord[model.Game](result)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return game, nil
}

// List returns one page of catalog entries
func (r *GameRepository) List(ctx context.Context, filter model.GameFilter) ([]*model.Game, int, error) {
	var conds []string
	vars := map[string]interface{}{}
	if c := strings.TrimSpace(filter.Category); c != "" {
		conds = append(conds, "string::lowercase(category ?? '') = $category")
		vars["category"] = strings.ToLower(c)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		conds = append(conds, "(string::lowercase(name) CONTAINS $search OR string::lowercase(description ?? '') CONTAINS $search)")
		vars["search"] = strings.ToLower(s)
	}
	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT * FROM game %[1]s ORDER BY name LIMIT $limit START $start;
		SELECT count() AS count FROM game %[1]s GROUP ALL;
	`, where)

	results, err := r.db.Query(ctx, query, pageVars(filter.Page, vars))
	if err != nil {
		return nil, 0, err
	}

	games, err := decodeRecords[model.Game](results, 0)
	if err != nil {
		return nil, 0, err
	}
	return games, extractCount(results, 1), nil
}

// Update replaces a catalog entry's fields
func (r *GameRepository) Update(ctx context.Context, game *model.Game) error {
	query := `UPDATE type::record($id) MERGE {` + gameFields + `
		updated_on: time::now()
	}`

	vars := gameVars(game)
	vars["id"] = game.ID

	err := r.db.Execute(ctx, query, vars)
	if errors.Is(err, database.ErrDuplicate) {
		return fmt.Errorf("%w: game name already exists", database.ErrDuplicate)
	}
	return err
}

// Delete removes a game. It fails with database.ErrConflict while any center
// still holds an instance of it.
func (r *GameRepository) Delete(ctx context.Context, id string) error {
	vars := map[string]interface{}{"game": id}

	return database.NewAtomicBatch().
		Guard(`count(SELECT VALUE id FROM game_instance WHERE game_id = type::record($game)) > 0`,
			vars, model.ConflictGameHasInstances).
		Add(`DELETE type::record($game)`, vars).
		Execute(ctx, r.db)
}

// centerGameRow is a game row with per-center stock counts
type centerGameRow struct {
	model.Game
	Total     int `json:"total"`
	Available int `json:"available"`
}

// ListByCenter returns the games stocked at a center with total and
// available copy counts. Retired copies are not counted.
func (r *GameRepository) ListByCenter(ctx context.Context, centerID string) ([]*model.CenterGame, error) {
	query := `
		SELECT *,
			count(SELECT VALUE id FROM game_instance
				WHERE game_id = $parent.id AND center_id = type::record($center) AND status != 'retired') AS total,
			count(SELECT VALUE id FROM game_instance
				WHERE game_id = $parent.id AND center_id = type::record($center) AND status = 'available') AS available
		FROM game
		WHERE id IN (SELECT VALUE game_id FROM game_instance
			WHERE center_id = type::record($center) AND status != 'retired')
		ORDER BY name
	`

	results, err := r.db.Query(ctx, query, map[string]interface{}{"center": centerID})
	if err != nil {
		return nil, err
	}

	rows, err := decodeRecords[centerGameRow](results, 0)
	if err != nil {
		return nil, err
	}

	out := make([]*model.CenterGame, 0, len(rows))
	for _, row := range rows {
		game := row.Game
		out = append(out, &model.CenterGame{Game: &game, Total: row.Total, Available: row.Available})
	}
	return out, nil
}

// Availability returns the stock of a game at every active center holding it
func (r *GameRepository) Availability(ctx context.Context, gameID string) ([]*model.GameAvailability, error) {
	query := `
		SELECT id AS center_id, name AS center_name, city,
			count(SELECT VALUE id FROM game_instance
				WHERE center_id = $parent.id AND game_id = type::record($game) AND status != 'retired') AS total,
			count(SELECT VALUE id FROM game_instance
				WHERE center_id = $parent.id AND game_id = type::record($game) AND status = 'available') AS available
		FROM center
		WHERE is_active = true AND id IN (SELECT VALUE center_id FROM game_instance
			WHERE game_id = type::record($game) AND status != 'retired')
		ORDER BY center_name
	`

	results, err := r.db.Query(ctx, query, map[string]interface{}{"game": gameID})
	if err != nil {
		return nil, err
	}
	return decodeRecords[model.GameAvailability](results, 0)
}

// Count returns the number of catalog entries
func (r *GameRepository) Count(ctx context.Context) (int, error) {
	results, err := r.db.Query(ctx, `SELECT count() AS count FROM game GROUP ALL`, nil)
	if err != nil {
		return 0, err
	}
	return extractCount(results, 0), nil
}
