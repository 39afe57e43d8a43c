package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"dormstore/internal/config"
	"dormstore/internal/http/handlers"
	applog "dormstore/internal/log"
	"dormstore/internal/repos"
)

const (
	guestA = "aaaaaaaa-0000-4000-8000-000000000001"
	guestB = "bbbbbbbb-0000-4000-8000-000000000002"
)

func newTestApp(t *testing.T) (*fiber.App, *sqlx.DB) {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return handlers.NewApp(db, config.Default()), db
}

// observeLogs routes the process logger into memory for the test.
func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	old := applog.SetLogger(zap.New(core))
	t.Cleanup(func() { applog.SetLogger(old) })
	return logs
}

type reply struct {
	Status int
	Body   map[string]any
	Raw    string
	Resp   *http.Response
}

func call(t *testing.T, app *fiber.App, method, path string, body any, headers map[string]string) reply {
	t.Helper()
	var rd io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			rd = bytes.NewBufferString(b)
		default:
			buf, err := json.Marshal(b)
			require.NoError(t, err)
			rd = bytes.NewReader(buf)
		}
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()

	r := reply{Status: resp.StatusCode, Raw: string(raw), Resp: resp}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &r.Body), string(raw))
	}
	return r
}

func login(t *testing.T, app *fiber.App, email string) string {
	t.Helper()
	r := call(t, app, http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": "Passw0rd!"}, nil)
	require.Equal(t, http.StatusOK, r.Status, r.Raw)
	tok, _ := r.Body["token"].(string)
	require.NotEmpty(t, tok)
	return tok
}

func bearer(tok string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + tok}
}

func guest(tok string) map[string]string {
	return map[string]string{"X-Guest-Token": tok}
}

func obj(t *testing.T, v any) map[string]any {
	t.Helper()
	m, ok := v.(map[string]any)
	require.True(t, ok, "not an object: %#v", v)
	return m
}

func list(t *testing.T, v any) []any {
	t.Helper()
	l, ok := v.([]any)
	require.True(t, ok, "not an array: %#v", v)
	return l
}

func checkoutBody() map[string]any {
	return map[string]any{
		"email":      "alice@dormstore.test",
		"firstName":  "Alice",
		"lastName":   "Nguyen",
		"address":    "12 College Ave",
		"city":       "Toronto",
		"province":   "ON",
		"postalCode": "M5S 1A1",
	}
}

func actions(logs *observer.ObservedLogs) []string {
	var out []string
	for _, e := range logs.All() {
		out = append(out, e.Message)
	}
	return out
}

func jsonInt(v any) string {
	f, _ := v.(float64)
	return strconv.Itoa(int(f))
}
