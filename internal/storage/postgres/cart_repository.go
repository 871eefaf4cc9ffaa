package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/cartsvc/internal/domain"
)

const (
	opTimeout = 5 * time.Second

	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type cartRepository struct {
	db *sql.DB
}

// NewCartRepository создаёт PostgreSQL-реализацию CartRepository.
func NewCartRepository(store *Store) domain.CartRepository {
	return &cartRepository{db: store.DB()}
}

// CreateCart создаёт корзину; "одна корзина на пользователя" обеспечивается
// уникальным ограничением carts(user_id), а не проверкой read-then-insert.
func (r *cartRepository) CreateCart(userID int64) (domain.Cart, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var cart domain.Cart
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO carts (user_id)
		VALUES ($1)
		RETURNING id, user_id, created_at, updated_at
	`, userID).Scan(&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if isPgError(err, pgUniqueViolation) {
			return domain.Cart{}, domain.ErrCartExists
		}
		if isPgError(err, pgForeignKeyViolation) {
			return domain.Cart{}, domain.ErrUserNotFound
		}
		return domain.Cart{}, fmt.Errorf("insert cart: %w", err)
	}

	return cart, nil
}

func (r *cartRepository) GetCart(id int64) (domain.Cart, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var cart domain.Cart
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, created_at, updated_at
		FROM carts
		WHERE id = $1
	`, id).Scan(&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Cart{}, domain.ErrCartNotFound
		}
		return domain.Cart{}, fmt.Errorf("select cart: %w", err)
	}

	return cart, nil
}

func (r *cartRepository) GetCartByUser(userID int64) (domain.Cart, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var cart domain.Cart
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, created_at, updated_at
		FROM carts
		WHERE user_id = $1
	`, userID).Scan(&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Cart{}, domain.ErrCartNotFound
		}
		return domain.Cart{}, fmt.Errorf("select cart by user: %w", err)
	}

	return cart, nil
}

func (r *cartRepository) ListItems(cartID int64) ([]domain.CartItem, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, cart_id, product_id, quantity, version, created_at, updated_at
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY id ASC
	`, cartID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.CartItem, 0)
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(
			&item.ID, &item.CartID, &item.ProductID,
			&item.Quantity, &item.Version, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart items: %w", err)
	}

	return items, nil
}

func (r *cartRepository) GetItem(id int64) (domain.CartItem, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return r.getItem(ctx, `WHERE id = $1`, id)
}

func (r *cartRepository) GetItemByProduct(cartID, productID int64) (domain.CartItem, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return r.getItem(ctx, `WHERE cart_id = $1 AND product_id = $2`, cartID, productID)
}

func (r *cartRepository) getItem(ctx context.Context, where string, args ...any) (domain.CartItem, error) {
	var item domain.CartItem
	err := r.db.QueryRowContext(ctx, `
		SELECT id, cart_id, product_id, quantity, version, created_at, updated_at
		FROM cart_items
	`+where, args...).Scan(
		&item.ID, &item.CartID, &item.ProductID,
		&item.Quantity, &item.Version, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.CartItem{}, domain.ErrCartItemNotFound
		}
		return domain.CartItem{}, fmt.Errorf("select cart item: %w", err)
	}

	return item, nil
}

func (r *cartRepository) InsertItem(item domain.CartItem) (domain.CartItem, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var inserted domain.CartItem
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO cart_items (cart_id, product_id, quantity)
		VALUES ($1, $2, $3)
		RETURNING id, cart_id, product_id, quantity, version, created_at, updated_at
	`, item.CartID, item.ProductID, item.Quantity).Scan(
		&inserted.ID, &inserted.CartID, &inserted.ProductID,
		&inserted.Quantity, &inserted.Version, &inserted.CreatedAt, &inserted.UpdatedAt,
	)
	if err != nil {
		if isPgError(err, pgUniqueViolation) {
			return domain.CartItem{}, domain.ErrCartItemExists
		}
		if isPgError(err, pgForeignKeyViolation) {
			return domain.CartItem{}, domain.ErrCartNotFound
		}
		return domain.CartItem{}, fmt.Errorf("insert cart item: %w", err)
	}

	return inserted, nil
}

// UpdateItem применяет условную запись "version == $N". Ноль затронутых строк
// различается перечитыванием: позиции нет — ErrCartItemNotFound, позиция с
// другой версией — ErrItemVersionConflict.
func (r *cartRepository) UpdateItem(item domain.CartItem) (domain.CartItem, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var updated domain.CartItem
	err := r.db.QueryRowContext(ctx, `
		UPDATE cart_items
		SET quantity = $1,
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $2
		  AND version = $3
		RETURNING id, cart_id, product_id, quantity, version, created_at, updated_at
	`, item.Quantity, item.ID, item.Version).Scan(
		&updated.ID, &updated.CartID, &updated.ProductID,
		&updated.Quantity, &updated.Version, &updated.CreatedAt, &updated.UpdatedAt,
	)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.CartItem{}, fmt.Errorf("update cart item: %w", err)
	}

	exists, err := r.itemExists(ctx, item.ID)
	if err != nil {
		return domain.CartItem{}, err
	}
	if !exists {
		return domain.CartItem{}, domain.ErrCartItemNotFound
	}
	return domain.CartItem{}, domain.ErrItemVersionConflict
}

func (r *cartRepository) DeleteItem(id int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrCartItemNotFound
	}

	return nil
}

func (r *cartRepository) itemExists(ctx context.Context, id int64) (bool, error) {
	var found int64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM cart_items WHERE id = $1`, id).Scan(&found)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check cart item exists: %w", err)
}

func isPgError(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}

var _ domain.CartRepository = (*cartRepository)(nil)
