package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewPostgresStore(db), mock
}

func TestPostgresCreateUser_MapsUniqueViolation(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("a", "hash").
		WillReturnError(&pgconn.PgError{Code: pgUniqueCode})

	_, err := s.CreateUser(context.Background(), "a", "hash")
	assert.ErrorIs(t, err, ErrUsernameTaken)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateUser_ReturnsAssignedID(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("a", "hash").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))

	u, err := s.CreateUser(context.Background(), "a", "hash")
	require.NoError(t, err)
	assert.Equal(t, User{ID: 5, Username: "a", Password: "hash"}, u)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetUserByUsername_Absent(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id, username, password`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, ok, err := s.GetUserByUsername(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetCartItems(t *testing.T) {
	s, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "user_id", "product_id", "quantity"}).
		AddRow(1, 7, 1, 2).
		AddRow(3, 7, 2, 1)
	mock.ExpectQuery(`SELECT id, user_id, product_id, quantity`).
		WithArgs(7).
		WillReturnRows(rows)

	items, err := s.GetCartItems(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, CartItem{ID: 1, UserID: 7, ProductID: 1, Quantity: 2}, items[0])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAddToCart_InvalidQuantitySkipsDB(t *testing.T) {
	s, _ := newMockStore(t)

	_, err := s.AddToCart(context.Background(), 7, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestPostgresAddToCart_UnknownProduct(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT 1 FROM products`).
		WithArgs(999).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := s.AddToCart(context.Background(), 7, 999, 1)
	assert.ErrorIs(t, err, ErrProductNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAddToCart_Success(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT 1 FROM products`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery(`INSERT INTO cart_items`).
		WithArgs(7, 1, 2).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
	mock.ExpectCommit()

	item, err := s.AddToCart(context.Background(), 7, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, CartItem{ID: 42, UserID: 7, ProductID: 1, Quantity: 2}, item)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRemoveCartItem_WrongOwner(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT user_id`).
		WithArgs(42).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(1))
	mock.ExpectRollback()

	err := s.RemoveCartItem(context.Background(), 42, 2)
	assert.ErrorIs(t, err, ErrNotOwner)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRemoveCartItem_NotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT user_id`).
		WithArgs(42).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := s.RemoveCartItem(context.Background(), 42, 1)
	assert.ErrorIs(t, err, ErrCartItemNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRemoveCartItem_Success(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT user_id`).
		WithArgs(42).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(7))
	mock.ExpectExec(`DELETE FROM cart_items`).
		WithArgs(42).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.RemoveCartItem(context.Background(), 42, 7))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresToggleFavorite_DeletesExisting(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT 1 FROM products`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectExec(`DELETE FROM favorites`).
		WithArgs(7, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.ToggleFavorite(context.Background(), 7, 1))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresToggleFavorite_InsertsWhenAbsent(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT 1 FROM products`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectExec(`DELETE FROM favorites`).
		WithArgs(7, 1).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO favorites`).
		WithArgs(7, 1).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, s.ToggleFavorite(context.Background(), 7, 1))
	require.NoError(t, mock.ExpectationsWereMet())
}
