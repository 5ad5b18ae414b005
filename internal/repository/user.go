package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/forgo/ludoteca/api/internal/database"
	"github.com/forgo/ludoteca/api/internal/model"
)

// UserRepository handles user data access
type UserRepository struct {
	db database.Database
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.Database) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	// Default to user role if not specified
	role := user.Role
	if role == "" {
		role = model.UserRoleUser
	}

	query := `
		CREATE user CONTENT {
			email: $email,
			hash: $hash,
			firstname: IF $firstname IS NOT NULL THEN $firstname ELSE NONE END,
			lastname: IF $lastname IS NOT NULL THEN $lastname ELSE NONE END,
			phone: IF $phone IS NOT NULL THEN $phone ELSE NONE END,
			role: $role,
			is_active: true,
			created_on: time::now(),
			updated_on: time::now()
		}
	`

	vars := map[string]interface{}{
		"email":     user.Email,
		"hash":      ptrToNone(user.Hash),
		"firstname": ptrToNone(user.Firstname),
		"lastname":  ptrToNone(user.Lastname),
		"phone":     ptrToNone(user.Phone),
		"role":      role,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return fmt.Errorf("%w: email already exists", database.ErrDuplicate)
		}
		return err
	}

	created, err := decodeRecords[model.User](result, 0)
	if err != nil {
		return err
	}
	if len(created) == 0 {
		return errors.New("no result returned")
	}

	user.ID = created[0].ID
	user.Role = role
	user.IsActive = true
	user.CreatedOn = created[0].CreatedOn
	user.UpdatedOn = created[0].UpdatedOn
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT * FROM type::record($id)`
	return r.getOne(ctx, query, map[string]interface{}{"id": id})
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT * FROM user WHERE email = $email LIMIT 1`
	return r.getOne(ctx, query, map[string]interface{}{"email": email})
}

func (r *UserRepository) getOne(ctx context.Context, query string, vars map[string]interface{}) (*model.User, error) {
	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	user, err := parseUserResult(result)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// List returns one page of users matching the filter
func (r *UserRepository) List(ctx context.Context, filter model.UserFilter) ([]*model.User, int, error) {
	where, vars := userWhere(filter)
	query := fmt.Sprintf(`
		SELECT * FROM user %[1]s ORDER BY created_on DESC LIMIT $limit START $start;
		SELECT count() AS count FROM user %[1]s GROUP ALL;
	`, where)

	results, err := r.db.Query(ctx, query, pageVars(filter.Page, vars))
	if err != nil {
		return nil, 0, err
	}

	users, err := decodeRecords[model.User](results, 0)
	if err != nil {
		return nil, 0, err
	}
	return users, extractCount(results, 1), nil
}

func userWhere(filter model.UserFilter) (string, map[string]interface{}) {
	var conds []string
	vars := map[string]interface{}{}

	if filter.Role != "" {
		conds = append(conds, "role = $role")
		vars["role"] = filter.Role
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		conds = append(conds, `(string::lowercase(email) CONTAINS $search
			OR string::lowercase(firstname ?? '') CONTAINS $search
			OR string::lowercase(lastname ?? '') CONTAINS $search)`)
		vars["search"] = strings.ToLower(s)
	}

	if len(conds) == 0 {
		return "", vars
	}
	return "WHERE " + strings.Join(conds, " AND "), vars
}

// ListByRole returns every user with the given role
func (r *UserRepository) ListByRole(ctx context.Context, role model.UserRole) ([]*model.User, error) {
	query := `SELECT * FROM user WHERE role = $role ORDER BY email`
	results, err := r.db.Query(ctx, query, map[string]interface{}{"role": role})
	if err != nil {
		return nil, err
	}
	return decodeRecords[model.User](results, 0)
}

// UpdateProfile updates the user's names and phone
func (r *UserRepository) UpdateProfile(ctx context.Context, user *model.User) error {
	query := `
		UPDATE type::record($id) SET
			firstname = IF $firstname IS NOT NULL THEN $firstname ELSE NONE END,
			lastname = IF $lastname IS NOT NULL THEN $lastname ELSE NONE END,
			phone = IF $phone IS NOT NULL THEN $phone ELSE NONE END,
			updated_on = time::now()
	`

	vars := map[string]interface{}{
		"id":        user.ID,
		"firstname": ptrToNone(user.Firstname),
		"lastname":  ptrToNone(user.Lastname),
		"phone":     ptrToNone(user.Phone),
	}

	return r.db.Execute(ctx, query, vars)
}

// UpdatePassword updates a user's password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, userID, hash string) error {
	query := `UPDATE type::record($id) SET hash = $hash, updated_on = time::now()`
	vars := map[string]interface{}{
		"id":   userID,
		"hash": hash,
	}

	return r.db.Execute(ctx, query, vars)
}

// TouchLogin records a successful login
func (r *UserRepository) TouchLogin(ctx context.Context, userID string) error {
	query := `UPDATE type::record($id) SET login_on = time::now()`
	return r.db.Execute(ctx, query, map[string]interface{}{"id": userID})
}

// SetActive activates or deactivates an account. Deactivation revokes every
// refresh token of the user in the same transaction.
func (r *UserRepository) SetActive(ctx context.Context, userID string, active bool) error {
	vars := map[string]interface{}{"id": userID, "active": active}

	batch := database.NewAtomicBatch().
		Add(`UPDATE type::record($id) SET is_active = $active, updated_on = time::now()`, vars)
	if !active {
		batch.Add(`UPDATE refresh_token SET revoked = true WHERE user = type::record($id)`,
			map[string]interface{}{"id": userID})
	}
	return batch.Execute(ctx, r.db)
}

// SetRole changes a user's role. Centers the user no longer qualifies for
// are detached in the same transaction; a center losing its coordinator is
// deactivated.
func (r *UserRepository) SetRole(ctx context.Context, userID string, role model.UserRole) error {
	batch := database.NewAtomicBatch().
		Add(`UPDATE type::record($id) SET role = $role, updated_on = time::now()`,
			map[string]interface{}{"id": userID, "role": role})

	if role != model.UserRoleCoordinator {
		batch.Add(detachCoordinatorQuery, map[string]interface{}{"user": userID})
	}
	if role != model.UserRoleSuperCoordinator {
		batch.Add(detachSuperCoordinatorQuery, map[string]interface{}{"user": userID})
	}

	return batch.Execute(ctx, r.db)
}

// Delete removes a user. It fails with database.ErrConflict while the user
// holds pending or active rentals. Centers are detached (and deactivated if
// they lose their coordinator) and refresh tokens removed in the same
// transaction.
func (r *UserRepository) Delete(ctx context.Context, userID string) error {
	vars := map[string]interface{}{"user": userID}

	return database.NewAtomicBatch().
		Guard(openRentalsExist("user_id", "user"), vars, model.ConflictUserOpenRentals).
		Add(detachCoordinatorQuery, vars).
		Add(detachSuperCoordinatorQuery, vars).
		Add(`DELETE refresh_token WHERE user = type::record($user)`, vars).
		Add(`DELETE type::record($user)`, vars).
		Execute(ctx, r.db)
}

// CountByRole returns user counts keyed by role
func (r *UserRepository) CountByRole(ctx context.Context) (map[model.UserRole]int, error) {
	query := `SELECT role, count() AS count FROM user GROUP BY role`
	results, err := r.db.Query(ctx, query, nil)
	if err != nil {
		return nil, err
	}

	counts := map[model.UserRole]int{}
	for _, item := range statementResult(results, 0) {
		if data, ok := item.(map[string]interface{}); ok {
			if role, ok := data["role"].(string); ok {
				counts[model.UserRole(role)] = extractCountValue(data["count"])
			}
		}
	}
	return counts, nil
}

const (
	detachCoordinatorQuery = `
		UPDATE center SET coordinator_id = NONE, is_active = false, updated_on = time::now()
		WHERE coordinator_id = type::record($user)`
	detachSuperCoordinatorQuery = `
		UPDATE center SET super_coordinator_id = NONE, updated_on = time::now()
		WHERE super_coordinator_id = type::record($user)`
)

func parseUserResult(result interface{}) (*model.User, error) {
	data, err := unwrapRecord(result)
	if err != nil {
		return nil, err
	}

	// Extract hash before decoding (User.Hash has json:"-")
	var hash *string
	if h, ok := data["hash"].(string); ok {
		hash = &h
	}

	user, err := decodeMap[model.User](data)
	if err != nil {
		return nil, err
	}
	user.Hash = hash
	return user, nil
}
