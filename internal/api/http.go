package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"PartsHub/internal/session"
	"PartsHub/internal/store"
	"PartsHub/pkg/kit"
)

const maxBodyBytes = 1 << 20

type Server struct {
	Store    store.Store
	Sessions session.Store
	Log      *zap.Logger

	SessionTTL   time.Duration
	CookieSecure bool
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.Store.GetProducts(r.Context())
	if err != nil {
		s.Log.Error("list products failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.Store.GetCategories(r.Context())
	if err != nil {
		s.Log.Error("list categories failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, categories)
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	u, _ := userFromContext(r.Context())

	items, err := s.Store.GetCartItems(r.Context(), u.ID)
	if err != nil {
		s.Log.Error("get cart failed", zap.Error(err), zap.Int("user_id", u.ID))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, items)
}

type addToCartReq struct {
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

func (s *Server) addToCart(w http.ResponseWriter, r *http.Request) {
	u, _ := userFromContext(r.Context())

	var req addToCartReq
	if err := decodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	item, err := s.Store.AddToCart(r.Context(), u.ID, req.ProductID, req.Quantity)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, item)
}

func (s *Server) removeCartItem(w http.ResponseWriter, r *http.Request) {
	u, _ := userFromContext(r.Context())

	itemID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad cart item id", nil)
		return
	}

	if err := s.Store.RemoveCartItem(r.Context(), itemID, u.ID); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// cartSubtotal sums quantity x price over the caller's cart as exact
// decimals; prices never touch a float.
func (s *Server) cartSubtotal(w http.ResponseWriter, r *http.Request) {
	u, _ := userFromContext(r.Context())

	items, err := s.Store.GetCartItems(r.Context(), u.ID)
	if err != nil {
		s.Log.Error("get cart failed", zap.Error(err), zap.Int("user_id", u.ID))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	products, err := s.Store.GetProducts(r.Context())
	if err != nil {
		s.Log.Error("list products failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	prices := make(map[int]decimal.Decimal, len(products))
	for _, p := range products {
		d, err := decimal.NewFromString(p.Price)
		if err != nil {
			s.Log.Error("bad stored price", zap.Int("product_id", p.ID), zap.String("price", p.Price))
			kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
			return
		}
		prices[p.ID] = d
	}

	subtotal := decimal.Zero
	for _, it := range items {
		price, ok := prices[it.ProductID]
		if !ok {
			// product vanished under the cart row; skip rather than fail
			continue
		}
		subtotal = subtotal.Add(price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	kit.WriteJSON(w, http.StatusOK, map[string]string{"subtotal": subtotal.StringFixed(2)})
}

func (s *Server) listFavorites(w http.ResponseWriter, r *http.Request) {
	u, _ := userFromContext(r.Context())

	favorites, err := s.Store.GetFavorites(r.Context(), u.ID)
	if err != nil {
		s.Log.Error("get favorites failed", zap.Error(err), zap.Int("user_id", u.ID))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, favorites)
}

type toggleFavoriteReq struct {
	ProductID int `json:"productId"`
}

func (s *Server) toggleFavorite(w http.ResponseWriter, r *http.Request) {
	u, _ := userFromContext(r.Context())

	var req toggleFavoriteReq
	if err := decodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	if err := s.Store.ToggleFavorite(r.Context(), u.ID, req.ProductID); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrInvalidQuantity):
		kit.WriteError(w, r, http.StatusBadRequest, "quantity must be a positive integer", nil)
	case errors.Is(err, store.ErrProductNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "product not found", nil)
	case errors.Is(err, store.ErrCartItemNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "cart item not found", nil)
	case errors.Is(err, store.ErrNotOwner):
		kit.WriteError(w, r, http.StatusForbidden, "forbidden", nil)
	case errors.Is(err, store.ErrUsernameTaken):
		kit.WriteError(w, r, http.StatusConflict, "username already taken", nil)
	default:
		s.Log.Error("store error", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("extra data after json object")
	}
	return nil
}
