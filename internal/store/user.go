package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jjudge-oj/usersvc/types"
)

const userColumns = `id, name, email, password_hash`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) List(ctx context.Context) ([]types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY id`
	return r.queryUsers(ctx, query)
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1`
	return r.queryUser(ctx, query, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1`
	return r.queryUser(ctx, query, email)
}

// SearchByName returns users whose name contains text, ignoring case.
// Both sides are lowercased by the database; LIKE wildcards in text match
// literally.
func (r *UserRepository) SearchByName(ctx context.Context, text string) ([]types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE LOWER(name) LIKE LOWER($1) ESCAPE '\'
		ORDER BY id`
	pattern := "%" + likeEscaper.Replace(text) + "%"
	return r.queryUsers(ctx, query, pattern)
}

func (r *UserRepository) Create(ctx context.Context, name, email, passwordHash string) (types.User, error) {
	const query = `
		INSERT INTO users (name, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id`
	user := types.User{Name: name, Email: email, PasswordHash: passwordHash}
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, query, name, email, passwordHash).Scan(&user.ID)
	})
	if err != nil {
		return types.User{}, err
	}
	return user, nil
}

// Update applies the non-nil fields of patch in a single statement.
// An empty patch changes nothing and returns the current row.
func (r *UserRepository) Update(ctx context.Context, id int, patch types.UserPatch) (types.User, error) {
	if patch.Empty() {
		return r.GetByID(ctx, id)
	}

	sets := make([]string, 0, 3)
	args := make([]any, 0, 4)
	add := func(column string, value *string) {
		if value == nil {
			return
		}
		args = append(args, *value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("name", patch.Name)
	add("email", patch.Email)
	add("password_hash", patch.PasswordHash)
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE users
		SET %s
		WHERE id = $%d
		RETURNING `+userColumns, strings.Join(sets, ", "), len(args))

	var user types.User
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, query, args...).Scan(
			&user.ID,
			&user.Name,
			&user.Email,
			&user.PasswordHash,
		)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	})
	if err != nil {
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM users WHERE id = $1`
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, query, id)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// Seed inserts users that are not already present, matching on email.
// It returns the number of rows inserted.
func (r *UserRepository) Seed(ctx context.Context, users []types.User) (int, error) {
	const query = `
		INSERT INTO users (name, email, password_hash)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO NOTHING`
	inserted := 0
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, user := range users {
			result, err := tx.ExecContext(ctx, query, user.Name, user.Email, user.PasswordHash)
			if err != nil {
				return err
			}
			affected, err := result.RowsAffected()
			if err != nil {
				return err
			}
			inserted += int(affected)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func (r *UserRepository) queryUser(ctx context.Context, query string, args ...any) (types.User, error) {
	var user types.User
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, classifyError(err)
	}
	return user, nil
}

func (r *UserRepository) queryUsers(ctx context.Context, query string, args ...any) ([]types.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classifyError(err)
	}
	defer rows.Close()

	users := make([]types.User, 0)
	for rows.Next() {
		var user types.User
		if err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.Email,
			&user.PasswordHash,
		); err != nil {
			return nil, classifyError(err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError(err)
	}
	return users, nil
}
