package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"go.uber.org/zap"

	"PartsHub/internal/api"
	"PartsHub/internal/session"
	"PartsHub/internal/store"
)

func newAPITS(t *testing.T) *httptest.Server {
	t.Helper()

	catalog, err := store.NewMemStore(store.DefaultSeed())
	if err != nil {
		t.Fatalf("seed store: %v", err)
	}

	sessions := session.NewMemStore()
	t.Cleanup(func() { _ = sessions.Close() })

	s := &api.Server{
		Store:      catalog,
		Sessions:   sessions,
		Log:        zap.NewNop(),
		SessionTTL: time.Hour,
	}

	h := api.NewHandler(s, api.HTTPDeps{
		Log:     zap.NewNop(),
		Service: "partshub",
	})

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts
}

func newClient(t *testing.T) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{Jar: jar}
}

func doJSON(t *testing.T, c *http.Client, method, url string, body any) (*http.Response, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, raw
}

func register(t *testing.T, c *http.Client, baseURL, username, password string) store.User {
	t.Helper()

	resp, raw := doJSON(t, c, http.MethodPost, baseURL+"/api/register", map[string]any{
		"username": username,
		"password": password,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status=%d body=%s", resp.StatusCode, string(raw))
	}

	var u store.User
	if err := json.Unmarshal(raw, &u); err != nil {
		t.Fatalf("decode user: %v body=%s", err, string(raw))
	}
	if u.ID == 0 {
		t.Fatalf("empty user id")
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("decode fields: %v", err)
	}
	if _, leaked := fields["password"]; leaked {
		t.Fatalf("password leaked in response: %s", string(raw))
	}

	return u
}

func TestAPI_HappyPath(t *testing.T) {
	ts := newAPITS(t)
	c := newClient(t)

	register(t, c, ts.URL, "driver", "password123")

	{
		resp, raw := doJSON(t, c, http.MethodGet, ts.URL+"/api/user", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("current user status=%d body=%s", resp.StatusCode, string(raw))
		}
	}

	{
		resp, raw := doJSON(t, c, http.MethodGet, ts.URL+"/api/products", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("products status=%d", resp.StatusCode)
		}
		var products []store.Product
		if err := json.Unmarshal(raw, &products); err != nil {
			t.Fatalf("decode products: %v", err)
		}
		if len(products) != 4 {
			t.Fatalf("products len=%d", len(products))
		}
	}

	var item store.CartItem
	{
		resp, raw := doJSON(t, c, http.MethodPost, ts.URL+"/api/cart", map[string]any{
			"productId": 1,
			"quantity":  2,
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("add to cart status=%d body=%s", resp.StatusCode, string(raw))
		}
		if err := json.Unmarshal(raw, &item); err != nil {
			t.Fatalf("decode cart item: %v", err)
		}
		if item.Quantity != 2 || item.ProductID != 1 {
			t.Fatalf("unexpected cart item: %+v", item)
		}
	}

	{
		resp, raw := doJSON(t, c, http.MethodGet, ts.URL+"/api/cart/subtotal", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("subtotal status=%d body=%s", resp.StatusCode, string(raw))
		}
		var got map[string]string
		if err := json.Unmarshal(raw, &got); err != nil {
			t.Fatalf("decode subtotal: %v", err)
		}
		if got["subtotal"] != "25.98" {
			t.Fatalf("subtotal=%q want 25.98", got["subtotal"])
		}
	}

	{
		resp, _ := doJSON(t, c, http.MethodPost, ts.URL+"/api/favorites/toggle", map[string]any{"productId": 1})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("toggle status=%d", resp.StatusCode)
		}

		resp, raw := doJSON(t, c, http.MethodGet, ts.URL+"/api/favorites", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("favorites status=%d", resp.StatusCode)
		}
		var favs []store.Favorite
		if err := json.Unmarshal(raw, &favs); err != nil {
			t.Fatalf("decode favorites: %v", err)
		}
		if len(favs) != 1 || favs[0].ProductID != 1 {
			t.Fatalf("unexpected favorites: %+v", favs)
		}

		resp, _ = doJSON(t, c, http.MethodPost, ts.URL+"/api/favorites/toggle", map[string]any{"productId": 1})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("second toggle status=%d", resp.StatusCode)
		}

		_, raw = doJSON(t, c, http.MethodGet, ts.URL+"/api/favorites", nil)
		favs = nil
		if err := json.Unmarshal(raw, &favs); err != nil {
			t.Fatalf("decode favorites: %v", err)
		}
		if len(favs) != 0 {
			t.Fatalf("favorites not cleared: %+v", favs)
		}
	}

	{
		resp, raw := doJSON(t, c, http.MethodDelete, ts.URL+"/api/cart/"+itoa(item.ID), nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("delete cart item status=%d body=%s", resp.StatusCode, string(raw))
		}

		_, raw = doJSON(t, c, http.MethodGet, ts.URL+"/api/cart", nil)
		var items []store.CartItem
		if err := json.Unmarshal(raw, &items); err != nil {
			t.Fatalf("decode cart: %v", err)
		}
		if len(items) != 0 {
			t.Fatalf("cart not emptied: %+v", items)
		}
	}
}

func TestAPI_RequiresAuth(t *testing.T) {
	ts := newAPITS(t)
	c := &http.Client{} // no cookie jar, no session

	checks := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodGet, "/api/user", nil},
		{http.MethodGet, "/api/cart", nil},
		{http.MethodPost, "/api/cart", map[string]any{"productId": 1, "quantity": 1}},
		{http.MethodGet, "/api/cart/subtotal", nil},
		{http.MethodDelete, "/api/cart/1", nil},
		{http.MethodGet, "/api/favorites", nil},
		{http.MethodPost, "/api/favorites/toggle", map[string]any{"productId": 1}},
	}

	for _, tc := range checks {
		resp, _ := doJSON(t, c, tc.method, ts.URL+tc.path, tc.body)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s %s status=%d want 401", tc.method, tc.path, resp.StatusCode)
		}
	}
}

func TestAPI_RegisterConflict(t *testing.T) {
	ts := newAPITS(t)

	register(t, newClient(t), ts.URL, "dup", "password123")

	resp, raw := doJSON(t, newClient(t), http.MethodPost, ts.URL+"/api/register", map[string]any{
		"username": "dup",
		"password": "password123",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status=%d body=%s want 409", resp.StatusCode, string(raw))
	}
}

func TestAPI_LoginWrongPassword(t *testing.T) {
	ts := newAPITS(t)

	register(t, newClient(t), ts.URL, "driver", "password123")

	resp, _ := doJSON(t, newClient(t), http.MethodPost, ts.URL+"/api/login", map[string]any{
		"username": "driver",
		"password": "wrong-password",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status=%d want 401", resp.StatusCode)
	}
}

func TestAPI_CrossUserCartDelete(t *testing.T) {
	ts := newAPITS(t)

	c1 := newClient(t)
	c2 := newClient(t)
	register(t, c1, ts.URL, "owner", "password123")
	register(t, c2, ts.URL, "intruder", "password123")

	var item store.CartItem
	{
		resp, raw := doJSON(t, c1, http.MethodPost, ts.URL+"/api/cart", map[string]any{
			"productId": 2,
			"quantity":  1,
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("add to cart status=%d", resp.StatusCode)
		}
		if err := json.Unmarshal(raw, &item); err != nil {
			t.Fatalf("decode item: %v", err)
		}
	}

	{
		resp, _ := doJSON(t, c2, http.MethodDelete, ts.URL+"/api/cart/"+itoa(item.ID), nil)
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("cross-user delete status=%d want 403", resp.StatusCode)
		}
	}

	{
		resp, _ := doJSON(t, c2, http.MethodDelete, ts.URL+"/api/cart/9999", nil)
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("unknown item delete status=%d want 404", resp.StatusCode)
		}
	}

	// owner's cart survived the attempts
	_, raw := doJSON(t, c1, http.MethodGet, ts.URL+"/api/cart", nil)
	var items []store.CartItem
	if err := json.Unmarshal(raw, &items); err != nil {
		t.Fatalf("decode cart: %v", err)
	}
	if len(items) != 1 || items[0].ID != item.ID {
		t.Fatalf("owner cart changed: %+v", items)
	}
}

func TestAPI_AddToCartValidation(t *testing.T) {
	ts := newAPITS(t)
	c := newClient(t)
	register(t, c, ts.URL, "driver", "password123")

	resp, _ := doJSON(t, c, http.MethodPost, ts.URL+"/api/cart", map[string]any{
		"productId": 1,
		"quantity":  0,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("zero quantity status=%d want 400", resp.StatusCode)
	}

	resp, _ = doJSON(t, c, http.MethodPost, ts.URL+"/api/cart", map[string]any{
		"productId": 999,
		"quantity":  1,
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown product status=%d want 404", resp.StatusCode)
	}
}

func TestAPI_LogoutEndsSession(t *testing.T) {
	ts := newAPITS(t)
	c := newClient(t)
	register(t, c, ts.URL, "driver", "password123")

	resp, _ := doJSON(t, c, http.MethodPost, ts.URL+"/api/logout", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout status=%d", resp.StatusCode)
	}

	resp, _ = doJSON(t, c, http.MethodGet, ts.URL+"/api/user", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("post-logout status=%d want 401", resp.StatusCode)
	}
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
