package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
	pgUniqueCode = "23505"
)

// PostgresStore is the durable backend. Check-then-act operations run
// inside a transaction so the invariants hold under concurrent writers.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *PostgresStore) GetUser(ctx context.Context, id int) (User, bool, error) {
	var u User
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `
			SELECT id, username, password
			FROM users
			WHERE id = $1
		`, id).Scan(&u.ID, &u.Username, &u.Password)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, false, nil
	}
	if err != nil {
		return User{}, false, err
	}
	return u, true, nil
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (User, bool, error) {
	var u User
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `
			SELECT id, username, password
			FROM users
			WHERE username = $1
		`, username).Scan(&u.ID, &u.Username, &u.Password)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, false, nil
	}
	if err != nil {
		return User{}, false, err
	}
	return u, true, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, username, passwordHash string) (User, error) {
	u := User{Username: username, Password: passwordHash}

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `
			INSERT INTO users (username, password)
			VALUES ($1, $2)
			RETURNING id
		`, username, passwordHash).Scan(&u.ID)
	})
	if isUniqueViolation(err) {
		return User{}, ErrUsernameTaken
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *PostgresStore) GetProducts(ctx context.Context) ([]Product, error) {
	var out []Product

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, name, description, price, image_url,
			       category_id, vendor_id, stock,
			       make, model, year, engine, transmission
			FROM products
			ORDER BY id
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]Product, 0, 16)
		for rows.Next() {
			var p Product
			if err := rows.Scan(
				&p.ID, &p.Name, &p.Description, &p.Price, &p.ImageURL,
				&p.CategoryID, &p.VendorID, &p.Stock,
				&p.Make, &p.Model, &p.Year, &p.Engine, &p.Transmission,
			); err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) GetCategories(ctx context.Context) ([]Category, error) {
	var out []Category

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, name, description, image_url
			FROM categories
			ORDER BY id
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]Category, 0, 16)
		for rows.Next() {
			var c Category
			if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.ImageURL); err != nil {
				return err
			}
			out = append(out, c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) GetCartItems(ctx context.Context, userID int) ([]CartItem, error) {
	var out []CartItem

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, user_id, product_id, quantity
			FROM cart_items
			WHERE user_id = $1
			ORDER BY id
		`, userID)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]CartItem, 0, 4)
		for rows.Next() {
			var it CartItem
			if err := rows.Scan(&it.ID, &it.UserID, &it.ProductID, &it.Quantity); err != nil {
				return err
			}
			out = append(out, it)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) AddToCart(ctx context.Context, userID, productID, quantity int) (CartItem, error) {
	if quantity < 1 {
		return CartItem{}, ErrInvalidQuantity
	}

	it := CartItem{UserID: userID, ProductID: productID, Quantity: quantity}

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return inTx(ctx, s.db, func(tx *sql.Tx) error {
			if err := productExistsTx(ctx, tx, productID); err != nil {
				return err
			}
			return tx.QueryRowContext(ctx, `
				INSERT INTO cart_items (user_id, product_id, quantity)
				VALUES ($1, $2, $3)
				RETURNING id
			`, userID, productID, quantity).Scan(&it.ID)
		})
	})
	if err != nil {
		return CartItem{}, err
	}
	return it, nil
}

func (s *PostgresStore) RemoveCartItem(ctx context.Context, itemID, userID int) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return inTx(ctx, s.db, func(tx *sql.Tx) error {
			var owner int
			err := tx.QueryRowContext(ctx, `
				SELECT user_id
				FROM cart_items
				WHERE id = $1
				FOR UPDATE
			`, itemID).Scan(&owner)
			if errors.Is(err, sql.ErrNoRows) {
				return ErrCartItemNotFound
			}
			if err != nil {
				return err
			}
			if owner != userID {
				return ErrNotOwner
			}

			_, err = tx.ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1`, itemID)
			return err
		})
	})
}

func (s *PostgresStore) GetFavorites(ctx context.Context, userID int) ([]Favorite, error) {
	var out []Favorite

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, user_id, product_id
			FROM favorites
			WHERE user_id = $1
			ORDER BY id
		`, userID)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]Favorite, 0, 4)
		for rows.Next() {
			var f Favorite
			if err := rows.Scan(&f.ID, &f.UserID, &f.ProductID); err != nil {
				return err
			}
			out = append(out, f)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ToggleFavorite deletes the pair if present, otherwise inserts it. The
// unique index on (user_id, product_id) plus ON CONFLICT DO NOTHING keeps
// the at-most-one-row invariant even when two toggles race past the
// delete step.
func (s *PostgresStore) ToggleFavorite(ctx context.Context, userID, productID int) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return inTx(ctx, s.db, func(tx *sql.Tx) error {
			if err := productExistsTx(ctx, tx, productID); err != nil {
				return err
			}

			res, err := tx.ExecContext(ctx, `
				DELETE FROM favorites
				WHERE user_id = $1 AND product_id = $2
			`, userID, productID)
			if err != nil {
				return err
			}
			deleted, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if deleted > 0 {
				return nil
			}

			_, err = tx.ExecContext(ctx, `
				INSERT INTO favorites (user_id, product_id)
				VALUES ($1, $2)
				ON CONFLICT (user_id, product_id) DO NOTHING
			`, userID, productID)
			return err
		})
	})
}

// SeedIfEmpty loads the catalog once; an already-populated products table
// leaves everything untouched.
func (s *PostgresStore) SeedIfEmpty(ctx context.Context, seed Seed) error {
	if err := seed.Validate(); err != nil {
		return err
	}

	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return inTx(ctx, s.db, func(tx *sql.Tx) error {
			var n int
			if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
				return err
			}
			if n > 0 {
				return nil
			}

			for _, c := range seed.Categories {
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO categories (id, name, description, image_url)
					VALUES ($1, $2, $3, $4)
				`, c.ID, c.Name, c.Description, c.ImageURL); err != nil {
					return err
				}
			}
			for _, v := range seed.Vendors {
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO vendors (id, name, description)
					VALUES ($1, $2, $3)
				`, v.ID, v.Name, v.Description); err != nil {
					return err
				}
			}
			for _, p := range seed.Products {
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO products (
						id, name, description, price, image_url,
						category_id, vendor_id, stock,
						make, model, year, engine, transmission
					)
					VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
				`, p.ID, p.Name, p.Description, p.Price, p.ImageURL,
					p.CategoryID, p.VendorID, p.Stock,
					p.Make, p.Model, p.Year, p.Engine, p.Transmission); err != nil {
					return err
				}
			}

			// explicit ids bypass the sequences; move them past the seed
			for _, table := range []string{"categories", "vendors", "products"} {
				if _, err := tx.ExecContext(ctx, `
					SELECT setval(pg_get_serial_sequence($1, 'id'),
					              (SELECT COALESCE(MAX(id), 1) FROM `+table+`))
				`, table); err != nil {
					return err
				}
			}
			return nil
		})
	})
}

func inTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func productExistsTx(ctx context.Context, tx *sql.Tx, productID int) error {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM products WHERE id = $1`, productID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrProductNotFound
	}
	return err
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueCode
}
