package handlers_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dormstore/internal/http/handlers"
)

func TestErrorHandlerHidesInternals(t *testing.T) {
	logs := observeLogs(t)
	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("sqlite: disk I/O error at /var/lib/dormstore.db")
	})

	r := call(t, app, http.MethodGet, "/boom", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, r.Status)
	assert.Equal(t, handlers.GenericError, r.Body["error"])
	assert.NotContains(t, r.Raw, "sqlite")

	entries := logs.FilterMessage("server.error").All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap()["err"], "disk I/O")
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	app, _ := newTestApp(t)
	r := call(t, app, http.MethodGet, "/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, r.Status)
	assert.NotEmpty(t, r.Body["error"])
}

func TestMalformedJSONIs400(t *testing.T) {
	app, _ := newTestApp(t)
	r := call(t, app, http.MethodPost, "/cart", `{"product_id":`, guest(guestA))
	assert.Equal(t, http.StatusBadRequest, r.Status)
	assert.NotEmpty(t, r.Body["error"])
}

func TestHealthz(t *testing.T) {
	app, _ := newTestApp(t)
	r := call(t, app, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, r.Status)
	assert.Equal(t, true, r.Body["ok"])
}

func TestBodyLimit(t *testing.T) {
	app, _ := newTestApp(t)
	big := `{"product_id":"` + strings.Repeat("a", 2<<20) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/cart", strings.NewReader(big))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		// fasthttp may drop the connection instead of answering
		return
	}
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestLoginThrottle(t *testing.T) {
	app, _ := newTestApp(t)
	logs := observeLogs(t)
	bad := map[string]string{"email": "alice@dormstore.test", "password": "wrong-pass"}

	for i := 0; i < 5; i++ {
		r := call(t, app, http.MethodPost, "/api/auth/login", bad, nil)
		require.Equal(t, http.StatusUnauthorized, r.Status)
	}
	r := call(t, app, http.MethodPost, "/api/auth/login", bad, nil)
	assert.Equal(t, http.StatusTooManyRequests, r.Status)
	assert.Equal(t, 1, logs.FilterMessage("rate.login.hit").Len())
}
