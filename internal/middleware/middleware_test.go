package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"kh-travel-backend/internal/application/auth"
	"kh-travel-backend/internal/application/health"
	"kh-travel-backend/internal/application/ratelimit"
	"kh-travel-backend/internal/pkg/apperrors"
	"kh-travel-backend/internal/pkg/constants"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticProvider struct {
	user *auth.SessionUser
	err  error
}

func (p staticProvider) Session(context.Context, auth.SessionRequest) (*auth.SessionUser, error) {
	return p.user, p.err
}

func decode(t *testing.T, body io.Reader) map[string]interface{} {
	t.Helper()
	b, err := io.ReadAll(body)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &out))
	return out
}

func ok(c *fiber.Ctx) error { return c.SendString("ok") }

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRequireAuth(t *testing.T) {
	user := &auth.SessionUser{UserID: uuid.New(), Role: constants.User}

	anon := fiber.New()
	anon.Use(Session(staticProvider{}))
	anon.Get("/private", RequireAuth(), ok)
	resp, err := anon.Test(httptest.NewRequest("GET", "/private", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	out := decode(t, resp.Body)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, apperrors.CodeUnauthorized, out["error"])

	signedIn := fiber.New()
	signedIn.Use(Session(staticProvider{user: user}))
	signedIn.Get("/private", RequireAuth(), func(c *fiber.Ctx) error {
		return c.SendString(GetUser(c).UserID.String())
	})
	resp, err = signedIn.Test(httptest.NewRequest("GET", "/private", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	b, _ := io.ReadAll(resp.Body)
	assert.Equal(t, user.UserID.String(), string(b))
}

func TestSession_ProviderErrorIsAnonymous(t *testing.T) {
	app := fiber.New()
	app.Use(Session(staticProvider{err: errors.New("redis down")}))
	app.Get("/private", RequireAuth(), ok)
	resp, err := app.Test(httptest.NewRequest("GET", "/private", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthorizePermission(t *testing.T) {
	cases := []struct {
		name   string
		user   *auth.SessionUser
		status int
		code   string
	}{
		{"anonymous", nil, fiber.StatusUnauthorized, apperrors.CodeUnauthorized},
		{"user", &auth.SessionUser{UserID: uuid.New(), Role: constants.User}, fiber.StatusForbidden, apperrors.CodeAdminRequired},
		{"admin", &auth.SessionUser{UserID: uuid.New(), Role: constants.Admin}, fiber.StatusOK, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(Session(staticProvider{user: tc.user}))
			app.Post("/admin", AuthorizePermission(constants.ManageListings), ok)
			resp, err := app.Test(httptest.NewRequest("POST", "/admin", nil))
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
			if tc.code != "" {
				assert.Equal(t, tc.code, decode(t, resp.Body)["error"])
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	_, rdb := newRedis(t)
	limiter := &ratelimit.RedisSlidingWindow{Rdb: rdb, Scope: "test", Requests: 2, Window: time.Minute}
	app := fiber.New()
	app.Get("/nearby", RateLimit(limiter, ByIP), ok)

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/nearby", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "2", resp.Header.Get("X-RateLimit-Limit"))
	}
	resp, err := app.Test(httptest.NewRequest("GET", "/nearby", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))
	assert.Equal(t, apperrors.CodeRateLimited, decode(t, resp.Body)["error"])
}

func TestRateLimit_FailsOpen(t *testing.T) {
	mr, rdb := newRedis(t)
	mr.Close()
	limiter := &ratelimit.RedisSlidingWindow{Rdb: rdb, Scope: "test", Requests: 1, Window: time.Minute}
	app := fiber.New()
	app.Get("/nearby", RateLimit(limiter, ByIP), ok)
	resp, err := app.Test(httptest.NewRequest("GET", "/nearby", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestErrorHandler(t *testing.T) {
	mr, rdb := newRedis(t)
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(rdb)})
	app.Use(Tracing())
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("db exploded") })
	app.Get("/missing", func(c *fiber.Ctx) error { return apperrors.ErrNotFound })

	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	out := decode(t, resp.Body)
	assert.Equal(t, apperrors.CodeInternal, out["error"])
	assert.Equal(t, "Internal Server Error", out["message"])

	entries, err := mr.List(health.KeyErrorLog)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0], "db exploded")

	resp, err = app.Test(httptest.NewRequest("GET", "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, apperrors.CodeNotFound, decode(t, resp.Body)["error"])

	resp, err = app.Test(httptest.NewRequest("GET", "/no-such-route", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, apperrors.CodeNotFound, decode(t, resp.Body)["error"])
}

func TestHealthMarker(t *testing.T) {
	mr, rdb := newRedis(t)
	app := fiber.New()
	app.Use(HealthMarker(rdb))
	app.Get("/api/v1/listings", ok)
	app.Get("/health/json", ok)

	for _, path := range []string{"/api/v1/listings", "/api/v1/listings", "/health/json"} {
		_, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
	}
	total, err := mr.Get(health.KeyReqTotal)
	require.NoError(t, err)
	assert.Equal(t, "2", total)
	assert.False(t, mr.Exists(health.KeyReqErrors))
}

func TestCORS(t *testing.T) {
	app := fiber.New()
	app.Use(CORS(CORSConfig{AllowedSuffix: ".khtravel.app", DevPassword: "letmein"}))
	app.Get("/x", ok)

	req := httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("Origin", "https://www.khtravel.app")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "https://www.khtravel.app", resp.Header.Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("Origin", "https://evil.example")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("dev-password", "letmein")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestTracing(t *testing.T) {
	app := fiber.New()
	app.Use(Tracing())
	app.Get("/x", func(c *fiber.Ctx) error { return c.SendString(GetTraceID(c)) })

	resp, err := app.Test(httptest.NewRequest("GET", "/x", nil))
	require.NoError(t, err)
	generated := resp.Header.Get("X-Trace-Id")
	_, err = uuid.Parse(generated)
	assert.NoError(t, err)

	incoming := uuid.NewString()
	req := httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("X-Trace-Id", incoming)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, incoming, resp.Header.Get("X-Trace-Id"))
}
