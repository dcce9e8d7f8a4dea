package store

import (
	"context"
	"errors"
)

var (
	ErrUsernameTaken    = errors.New("username already taken")
	ErrProductNotFound  = errors.New("product not found")
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrNotOwner         = errors.New("cart item belongs to another user")
	ErrInvalidQuantity  = errors.New("quantity must be a positive integer")
)

type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Password string `json:"-"`
}

// Product fitment fields (make/model/year/engine/transmission) are
// free-text, stored lowercase, compared case-insensitively by callers.
type Product struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Price        string `json:"price"`
	ImageURL     string `json:"imageUrl"`
	CategoryID   int    `json:"categoryId"`
	VendorID     int    `json:"vendorId"`
	Stock        int    `json:"stock"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	Year         string `json:"year"`
	Engine       string `json:"engine"`
	Transmission string `json:"transmission"`
}

type Category struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
}

type Vendor struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type CartItem struct {
	ID        int `json:"id"`
	UserID    int `json:"userId"`
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

// Favorite existence is the whole state: a row means the product is
// favorited by the user, at most one row per (UserID, ProductID).
type Favorite struct {
	ID        int `json:"id"`
	UserID    int `json:"userId"`
	ProductID int `json:"productId"`
}

// Store is the single authority over catalog, user, cart and favorite
// state. Passwords arrive already hashed; the store keeps them verbatim.
type Store interface {
	GetUser(ctx context.Context, id int) (User, bool, error)
	GetUserByUsername(ctx context.Context, username string) (User, bool, error)
	CreateUser(ctx context.Context, username, passwordHash string) (User, error)

	GetProducts(ctx context.Context) ([]Product, error)
	GetCategories(ctx context.Context) ([]Category, error)

	GetCartItems(ctx context.Context, userID int) ([]CartItem, error)
	AddToCart(ctx context.Context, userID, productID, quantity int) (CartItem, error)
	RemoveCartItem(ctx context.Context, itemID, userID int) error

	GetFavorites(ctx context.Context, userID int) ([]Favorite, error)
	ToggleFavorite(ctx context.Context, userID, productID int) error

	Ping(ctx context.Context) error
}
