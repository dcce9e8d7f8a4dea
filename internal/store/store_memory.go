package store

import (
	"context"
	"sync"
)

// MemStore keeps everything in process memory. Products and categories
// are immutable after seeding, so reads of them take no lock; users,
// cart items and favorites each sit behind their own mutex so writes to
// disjoint collections do not serialize.
type MemStore struct {
	products   []Product
	categories []Category
	vendors    []Vendor

	userMu     sync.RWMutex
	users      map[int]User
	byUsername map[string]int
	nextUserID int

	cartMu     sync.RWMutex
	cartItems  []CartItem
	nextCartID int

	favMu      sync.RWMutex
	favorites  []Favorite
	nextFavID  int
}

func NewMemStore(seed Seed) (*MemStore, error) {
	if err := seed.Validate(); err != nil {
		return nil, err
	}

	s := &MemStore{
		products:   make([]Product, len(seed.Products)),
		categories: make([]Category, len(seed.Categories)),
		vendors:    make([]Vendor, len(seed.Vendors)),
		users:      make(map[int]User),
		byUsername: make(map[string]int),
		nextUserID: 1,
		nextCartID: 1,
		nextFavID:  1,
	}
	copy(s.products, seed.Products)
	copy(s.categories, seed.Categories)
	copy(s.vendors, seed.Vendors)
	return s, nil
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) GetUser(ctx context.Context, id int) (User, bool, error) {
	s.userMu.RLock()
	defer s.userMu.RUnlock()

	u, ok := s.users[id]
	return u, ok, nil
}

// GetUserByUsername is a case-sensitive exact match, the same comparison
// CreateUser uses for uniqueness.
func (s *MemStore) GetUserByUsername(ctx context.Context, username string) (User, bool, error) {
	s.userMu.RLock()
	defer s.userMu.RUnlock()

	id, ok := s.byUsername[username]
	if !ok {
		return User{}, false, nil
	}
	return s.users[id], true, nil
}

func (s *MemStore) CreateUser(ctx context.Context, username, passwordHash string) (User, error) {
	s.userMu.Lock()
	defer s.userMu.Unlock()

	if _, ok := s.byUsername[username]; ok {
		return User{}, ErrUsernameTaken
	}

	u := User{ID: s.nextUserID, Username: username, Password: passwordHash}
	s.nextUserID++
	s.users[u.ID] = u
	s.byUsername[username] = u.ID
	return u, nil
}

func (s *MemStore) GetProducts(ctx context.Context) ([]Product, error) {
	out := make([]Product, len(s.products))
	copy(out, s.products)
	return out, nil
}

func (s *MemStore) GetCategories(ctx context.Context) ([]Category, error) {
	out := make([]Category, len(s.categories))
	copy(out, s.categories)
	return out, nil
}

func (s *MemStore) GetCartItems(ctx context.Context, userID int) ([]CartItem, error) {
	s.cartMu.RLock()
	defer s.cartMu.RUnlock()

	out := make([]CartItem, 0, 4)
	for _, it := range s.cartItems {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	return out, nil
}

// AddToCart always appends a new row; adding the same product twice
// yields two rows, never a merged quantity.
func (s *MemStore) AddToCart(ctx context.Context, userID, productID, quantity int) (CartItem, error) {
	if quantity < 1 {
		return CartItem{}, ErrInvalidQuantity
	}
	if !s.productExists(productID) {
		return CartItem{}, ErrProductNotFound
	}

	s.cartMu.Lock()
	defer s.cartMu.Unlock()

	it := CartItem{ID: s.nextCartID, UserID: userID, ProductID: productID, Quantity: quantity}
	s.nextCartID++
	s.cartItems = append(s.cartItems, it)
	return it, nil
}

func (s *MemStore) RemoveCartItem(ctx context.Context, itemID, userID int) error {
	s.cartMu.Lock()
	defer s.cartMu.Unlock()

	for i, it := range s.cartItems {
		if it.ID != itemID {
			continue
		}
		if it.UserID != userID {
			return ErrNotOwner
		}
		s.cartItems = append(s.cartItems[:i], s.cartItems[i+1:]...)
		return nil
	}
	return ErrCartItemNotFound
}

func (s *MemStore) GetFavorites(ctx context.Context, userID int) ([]Favorite, error) {
	s.favMu.RLock()
	defer s.favMu.RUnlock()

	out := make([]Favorite, 0, 4)
	for _, f := range s.favorites {
		if f.UserID == userID {
			out = append(out, f)
		}
	}
	return out, nil
}

// ToggleFavorite flips the (userID, productID) pair between absent and
// present under one lock, so concurrent toggles cannot double-insert.
func (s *MemStore) ToggleFavorite(ctx context.Context, userID, productID int) error {
	if !s.productExists(productID) {
		return ErrProductNotFound
	}

	s.favMu.Lock()
	defer s.favMu.Unlock()

	for i, f := range s.favorites {
		if f.UserID == userID && f.ProductID == productID {
			s.favorites = append(s.favorites[:i], s.favorites[i+1:]...)
			return nil
		}
	}

	f := Favorite{ID: s.nextFavID, UserID: userID, ProductID: productID}
	s.nextFavID++
	s.favorites = append(s.favorites, f)
	return nil
}

func (s *MemStore) productExists(id int) bool {
	for _, p := range s.products {
		if p.ID == id {
			return true
		}
	}
	return false
}
