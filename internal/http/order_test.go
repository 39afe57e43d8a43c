package handlers_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutRequiresSignIn(t *testing.T) {
	app, _ := newTestApp(t)
	r := call(t, app, http.MethodPost, "/api/orders", checkoutBody(), guest(guestA))
	assert.Equal(t, http.StatusUnauthorized, r.Status)
	assert.NotEmpty(t, r.Body["error"])
}

func TestCheckoutHappyPath(t *testing.T) {
	app, _ := newTestApp(t)
	logs := observeLogs(t)
	alice := bearer(login(t, app, "alice@dormstore.test"))

	r := call(t, app, http.MethodPost, "/cart", map[string]any{"product_id": "sheets-txl", "quantity": 2}, alice)
	require.Equal(t, http.StatusCreated, r.Status)

	body := checkoutBody()
	body["subtotal"] = 69.98
	body["tax"] = 9.10
	body["shipping"] = 9.99
	body["total"] = 89.07
	r = call(t, app, http.MethodPost, "/api/orders", body, alice)
	require.Equal(t, http.StatusCreated, r.Status, r.Raw)
	assert.NotEmpty(t, r.Body["message"])

	order := obj(t, r.Body["order"])
	number, _ := order["orderNumber"].(string)
	assert.True(t, strings.HasPrefix(number, "ORD-"), number)
	assert.NotZero(t, order["id"])
	assert.InDelta(t, 89.07, order["total"], 0.001)

	bal := obj(t, r.Body["balance"])
	assert.InDelta(t, 910.93, bal["remaining"], 0.001)
	assert.InDelta(t, 89.07, bal["totalSpent"], 0.001)

	r = call(t, app, http.MethodGet, "/cart", nil, alice)
	assert.Empty(t, list(t, r.Body["cartItems"]))

	r = call(t, app, http.MethodGet, "/api/user/balance", nil, alice)
	assert.InDelta(t, 910.93, r.Body["balance"], 0.001)

	r = call(t, app, http.MethodGet, "/api/orders", nil, alice)
	require.Equal(t, http.StatusOK, r.Status)
	assert.Len(t, list(t, r.Body["orders"]), 1)

	r = call(t, app, http.MethodGet, "/api/orders/"+number, nil, alice)
	require.Equal(t, http.StatusOK, r.Status)
	detail := obj(t, r.Body["order"])
	assert.Len(t, list(t, detail["items"]), 1)

	var audit bool
	for _, e := range logs.FilterMessage("order.place").All() {
		fields := e.ContextMap()["fields"].(map[string]any)
		audit = fields["mismatch"] == false
	}
	assert.True(t, audit, "order.place audit entry missing: %v", actions(logs))
}

func TestCheckoutMismatchIsLoggedNotCharged(t *testing.T) {
	app, _ := newTestApp(t)
	logs := observeLogs(t)
	alice := bearer(login(t, app, "alice@dormstore.test"))
	call(t, app, http.MethodPost, "/cart", map[string]any{"product_id": "lamp-clip", "quantity": 1}, alice)

	body := checkoutBody()
	body["total"] = 0.01
	r := call(t, app, http.MethodPost, "/api/orders", body, alice)
	require.Equal(t, http.StatusCreated, r.Status, r.Raw)
	assert.InDelta(t, 32.03, obj(t, r.Body["order"])["total"], 0.001)
	assert.Equal(t, 1, logs.FilterMessage("order.totals.mismatch").Len())
}

func TestCheckoutInsufficientBalance(t *testing.T) {
	app, db := newTestApp(t)
	alice := bearer(login(t, app, "alice@dormstore.test"))

	r := call(t, app, http.MethodGet, "/api/user/balance", nil, alice)
	require.Equal(t, http.StatusOK, r.Status)
	db.MustExec(`UPDATE user_balances SET balance=50 WHERE user_id='u-alice'`)
	call(t, app, http.MethodPost, "/cart", map[string]any{"product_id": "fridge-mini", "quantity": 1}, alice)

	body := checkoutBody()
	body["total"] = 9999
	r = call(t, app, http.MethodPost, "/api/orders", body, alice)
	require.Equal(t, http.StatusBadRequest, r.Status, r.Raw)
	assert.Contains(t, strings.ToLower(r.Body["error"].(string)), "insufficient")
	assert.InDelta(t, 50, r.Body["balance"], 0.001)
	assert.InDelta(t, 213.57, r.Body["required"], 0.001)
	assert.InDelta(t, 163.57, r.Body["shortfall"], 0.001)

	r = call(t, app, http.MethodGet, "/api/user/balance", nil, alice)
	assert.InDelta(t, 50, r.Body["balance"], 0.001)
	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM orders`))
	assert.Zero(t, n)
}

func TestCheckoutMissingFields(t *testing.T) {
	app, _ := newTestApp(t)
	alice := bearer(login(t, app, "alice@dormstore.test"))
	call(t, app, http.MethodPost, "/cart", map[string]any{"product_id": "lamp-clip", "quantity": 1}, alice)

	body := checkoutBody()
	delete(body, "city")
	r := call(t, app, http.MethodPost, "/api/orders", body, alice)
	require.Equal(t, http.StatusBadRequest, r.Status)
	assert.Contains(t, r.Body["error"], "city")
}

func TestOrderVisibility(t *testing.T) {
	app, _ := newTestApp(t)
	alice := bearer(login(t, app, "alice@dormstore.test"))
	bob := bearer(login(t, app, "bob@dormstore.test"))
	admin := bearer(login(t, app, "admin@dormstore.test"))

	call(t, app, http.MethodPost, "/cart", map[string]any{"product_id": "lamp-clip", "quantity": 1}, alice)
	r := call(t, app, http.MethodPost, "/api/orders", checkoutBody(), alice)
	require.Equal(t, http.StatusCreated, r.Status, r.Raw)
	number := obj(t, r.Body["order"])["orderNumber"].(string)

	r = call(t, app, http.MethodGet, "/api/orders/"+number, nil, bob)
	assert.Equal(t, http.StatusNotFound, r.Status)
	r = call(t, app, http.MethodGet, "/api/orders/"+number, nil, admin)
	assert.Equal(t, http.StatusOK, r.Status)

	r = call(t, app, http.MethodGet, "/orders/"+number+"/receipt", nil, alice)
	require.Equal(t, http.StatusOK, r.Status, r.Raw)
	assert.Contains(t, r.Resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, r.Raw, number)
	assert.Contains(t, r.Raw, "Clip-On Desk Lamp")
	assert.Contains(t, r.Raw, "32.03")

	r = call(t, app, http.MethodGet, "/orders/"+number+"/receipt", nil, bob)
	assert.Equal(t, http.StatusNotFound, r.Status)
}
