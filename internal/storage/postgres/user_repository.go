package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/cartsvc/internal/domain"
)

type userRepository struct {
	db *sql.DB
}

// NewUserRepository создаёт PostgreSQL-реализацию UserRepository.
func NewUserRepository(store *Store) domain.UserRepository {
	return &userRepository{db: store.DB()}
}

func (r *userRepository) Create(user domain.User) (domain.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var created domain.User
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (external_id, email, full_name)
		VALUES ($1, $2, $3)
		RETURNING id, external_id, email, full_name, created_at, updated_at
	`, user.ExternalID, user.Email, user.FullName).Scan(
		&created.ID, &created.ExternalID, &created.Email,
		&created.FullName, &created.CreatedAt, &created.UpdatedAt,
	)
	if err != nil {
		if isPgError(err, pgUniqueViolation) {
			return domain.User{}, domain.ErrUserExists
		}
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}

	return created, nil
}

func (r *userRepository) GetByID(id int64) (domain.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return r.getUser(ctx, `WHERE id = $1`, id)
}

func (r *userRepository) GetByExternalID(externalID string) (domain.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return r.getUser(ctx, `WHERE external_id = $1`, externalID)
}

func (r *userRepository) getUser(ctx context.Context, where string, arg any) (domain.User, error) {
	var user domain.User
	err := r.db.QueryRowContext(ctx, `
		SELECT id, external_id, email, full_name, created_at, updated_at
		FROM users
	`+where, arg).Scan(
		&user.ID, &user.ExternalID, &user.Email,
		&user.FullName, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("select user: %w", err)
	}

	return user, nil
}

func (r *userRepository) Update(user domain.User) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET email = $1,
		    full_name = $2,
		    updated_at = NOW()
		WHERE id = $3
	`, user.Email, user.FullName, user.ID)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}

var _ domain.UserRepository = (*userRepository)(nil)
