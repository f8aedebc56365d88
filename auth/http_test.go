package auth_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-provider-api/auth"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer() router.Server[*fiber.App] {
	return router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			DisableStartupMessage: true,
		}))
	})
}

func doRequest(t *testing.T, app *fiber.App, method, path, body string, headers map[string]string) (*http.Response, string) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
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

	return resp, string(raw)
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestRouteAuthenticator(t *testing.T) {
	ts, err := auth.NewTokenServiceFromConfig(testConfig(), nil)
	require.NoError(t, err)

	ra := auth.NewHTTPAuthenticator(ts, testConfig())

	srv := newTestServer()
	srv.Router().Get("/private", func(ctx router.Context) error {
		claims, ok := auth.GetRouterClaims(ctx, "")
		if !ok {
			return ctx.SendString("no claims")
		}
		std, ok := auth.GetClaims(ctx.Context())
		if !ok || std.UserID() != claims.UserID() {
			return ctx.SendString("no context claims")
		}
		return ctx.SendString(claims.UserID())
	}, ra.ProtectedRoute())

	srv.Router().Delete("/guarded", func(ctx router.Context) error {
		return ctx.NoContent(http.StatusNoContent)
	}, ra.RequirePolicy(auth.PolicyDeleteProvider))

	app := srv.WrappedRouter()

	guest, err := ts.Generate(stubIdentity{id: "u-1", email: "guest@example.com", role: "guest"}, nil)
	require.NoError(t, err)

	admin, err := ts.Generate(stubIdentity{id: "u-2", email: "admin@example.com", role: "guest"},
		[]auth.Claim{{Type: auth.PolicyDeleteProvider, Value: "true"}})
	require.NoError(t, err)

	t.Run("missing header", func(t *testing.T) {
		resp, _ := doRequest(t, app, http.MethodGet, "/private", "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))
	})

	t.Run("wrong scheme", func(t *testing.T) {
		resp, _ := doRequest(t, app, http.MethodGet, "/private", "", map[string]string{"Authorization": "Basic " + guest})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("invalid token", func(t *testing.T) {
		resp, _ := doRequest(t, app, http.MethodGet, "/private", "", bearer("abc.def.ghi"))
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("valid token", func(t *testing.T) {
		resp, body := doRequest(t, app, http.MethodGet, "/private", "", bearer(guest))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "u-1", body)
	})

	t.Run("policy denied", func(t *testing.T) {
		resp, body := doRequest(t, app, http.MethodDelete, "/guarded", "", bearer(guest))
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Empty(t, body)
	})

	t.Run("policy anonymous", func(t *testing.T) {
		resp, _ := doRequest(t, app, http.MethodDelete, "/guarded", "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("policy granted", func(t *testing.T) {
		resp, _ := doRequest(t, app, http.MethodDelete, "/guarded", "", bearer(admin))
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})
}

func TestRouteAuthenticator_MinimumRolePolicy(t *testing.T) {
	ts, err := auth.NewTokenServiceFromConfig(testConfig(), nil)
	require.NoError(t, err)

	ra := auth.NewHTTPAuthenticator(ts, testConfig(),
		auth.Policy{Name: "ManageProviders", MinimumRole: string(auth.RoleAdmin)},
		auth.Policy{Name: "PurgeProviders", ClaimType: "Purge", MinimumRole: string(auth.RoleOwner)},
	)

	srv := newTestServer()
	srv.Router().Post("/manage", func(ctx router.Context) error {
		return ctx.NoContent(http.StatusNoContent)
	}, ra.RequirePolicy("ManageProviders"))
	srv.Router().Post("/purge", func(ctx router.Context) error {
		return ctx.NoContent(http.StatusNoContent)
	}, ra.RequirePolicy("PurgeProviders"))
	app := srv.WrappedRouter()

	token := func(role string, claims ...auth.Claim) string {
		raw, err := ts.Generate(stubIdentity{id: "u-" + role, email: role + "@example.com", role: role}, claims)
		require.NoError(t, err)
		return raw
	}

	for _, tc := range []struct {
		name, path, token string
		status            int
	}{
		{"member below admin", "/manage", token("member"), http.StatusForbidden},
		{"admin", "/manage", token("admin"), http.StatusNoContent},
		{"owner above admin", "/manage", token("owner"), http.StatusNoContent},
		{"owner without claim", "/purge", token("owner"), http.StatusForbidden},
		{"admin with claim", "/purge", token("admin", auth.Claim{Type: "Purge", Value: "true"}), http.StatusForbidden},
		{"owner with claim", "/purge", token("owner", auth.Claim{Type: "Purge", Value: "true"}), http.StatusNoContent},
	} {
		t.Run(tc.name, func(t *testing.T) {
			resp, _ := doRequest(t, app, http.MethodPost, tc.path, "", bearer(tc.token))
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestRouteAuthenticator_DefaultLogger(t *testing.T) {
	ts, err := auth.NewTokenServiceFromConfig(testConfig(), nil)
	require.NoError(t, err)

	ra := auth.NewHTTPAuthenticator(ts, testConfig())
	assert.Same(t, glog.Nop(), ra.Logger)
}

func TestRouteAuthenticator_UnknownPolicyPanics(t *testing.T) {
	ts := auth.NewTokenService([]byte("k"), 1, "", nil, nil)
	ra := auth.NewHTTPAuthenticator(ts, testConfig())

	assert.ElementsMatch(t, []string{auth.PolicyDeleteProvider}, ra.Policies())
	assert.Panics(t, func() { ra.RequirePolicy("Nope") })
}

func TestPolicy_Allows(t *testing.T) {
	claims := &auth.JWTClaims{
		UserRole:   "member",
		UserClaims: []auth.Claim{{Type: "Scope", Value: "write"}},
	}

	assert.True(t, auth.Policy{Name: "w", ClaimType: "Scope"}.Allows(claims))
	assert.True(t, auth.Policy{Name: "w", ClaimType: "Scope", Values: []string{"read", "write"}}.Allows(claims))
	assert.False(t, auth.Policy{Name: "w", ClaimType: "Scope", Values: []string{"read"}}.Allows(claims))
	assert.True(t, auth.Policy{Name: "m", ClaimType: auth.ClaimTypeRole, Values: []string{"member"}}.Allows(claims))
	assert.False(t, auth.Policy{Name: "x", ClaimType: "Scope"}.Allows(nil))
	assert.True(t, auth.Policy{Name: "r", MinimumRole: "guest"}.Allows(claims))
	assert.False(t, auth.Policy{Name: "r", MinimumRole: "admin"}.Allows(claims))
	assert.False(t, auth.Policy{Name: "r", ClaimType: "Scope", MinimumRole: "owner"}.Allows(claims))

	set := auth.NewPolicySet(auth.Policy{Name: "Edit"}, auth.Policy{}, auth.Policy{Name: "Admin", MinimumRole: "admin"})
	p, ok := set.Get("Edit")
	require.True(t, ok)
	assert.Equal(t, "Edit", p.ClaimType)
	p, ok = set.Get("Admin")
	require.True(t, ok)
	assert.Empty(t, p.ClaimType)
	assert.Equal(t, "Admin(role>=admin)", p.String())
	assert.Len(t, set, 2)
}

func TestAuthController(t *testing.T) {
	accounts := new(MockAccountService)
	srv := newTestServer()
	auth.RegisterAuthRoutes(srv.Router(), auth.WithAccountService(accounts))
	app := srv.WrappedRouter()

	token := &auth.TokenResponse{
		AccessToken: "signed",
		TokenType:   "Bearer",
		ExpiresIn:   3600,
		UserToken:   auth.UserToken{ID: "u-1", Email: "jane@example.com", Claims: []auth.Claim{{Type: "role", Value: "guest"}}},
	}

	t.Run("register without body", func(t *testing.T) {
		for _, body := range []string{"", "null"} {
			resp, raw := doRequest(t, app, http.MethodPost, "/register", body, nil)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.JSONEq(t, `"User not provided"`, raw)
		}
	})

	t.Run("register validation", func(t *testing.T) {
		resp, raw := doRequest(t, app, http.MethodPost, "/register",
			`{"email":"not-an-email","password":"Passw0rd!","confirm_password":"other"}`, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body map[string]any
		require.NoError(t, json.Unmarshal([]byte(raw), &body))
		assert.Equal(t, "One or more validation errors occurred.", body["title"])
		errs := body["errors"].(map[string]any)
		assert.Contains(t, errs, "email")
		assert.Contains(t, errs, "confirm_password")
		assert.NotContains(t, errs, "password")
	})

	t.Run("register identity errors", func(t *testing.T) {
		idErrs := auth.IdentityErrors{
			{Code: auth.CodeDuplicateUserName, Description: "Username 'dup@example.com' is already taken."},
			{Code: auth.CodeDuplicateEmail, Description: "Email 'dup@example.com' is already taken."},
		}
		accounts.On("Register", anyCtx, auth.RegisterUserMessage{Email: "dup@example.com", Password: "Passw0rd!"}).
			Return(nil, idErrs).Once()

		resp, raw := doRequest(t, app, http.MethodPost, "/register",
			`{"email":"dup@example.com","password":"Passw0rd!","confirm_password":"Passw0rd!"}`, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.JSONEq(t, `[
			{"code":"DuplicateUserName","description":"Username 'dup@example.com' is already taken."},
			{"code":"DuplicateEmail","description":"Email 'dup@example.com' is already taken."}
		]`, raw)
	})

	t.Run("register ok", func(t *testing.T) {
		accounts.On("Register", anyCtx, auth.RegisterUserMessage{Email: "jane@example.com", Password: "Passw0rd!"}).
			Return(token, nil).Once()

		resp, raw := doRequest(t, app, http.MethodPost, "/register",
			`{"email":"jane@example.com","password":"Passw0rd!","confirm_password":"Passw0rd!"}`, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{
			"access_token":"signed","token_type":"Bearer","expires_in":3600,
			"user_token":{"id":"u-1","email":"jane@example.com","claims":[{"type":"role","value":"guest"}]}
		}`, raw)
	})

	t.Run("login without body", func(t *testing.T) {
		resp, raw := doRequest(t, app, http.MethodPost, "/login", "null", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.JSONEq(t, `"User not provided"`, raw)
	})

	t.Run("login validation", func(t *testing.T) {
		resp, raw := doRequest(t, app, http.MethodPost, "/login", `{"email":"jane@example.com","password":""}`, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, raw, `"password"`)
	})

	t.Run("login locked out", func(t *testing.T) {
		accounts.On("Login", anyCtx, "locked@example.com", "Passw0rd!").
			Return(nil, auth.ErrTooManyLoginAttempts).Once()

		resp, raw := doRequest(t, app, http.MethodPost, "/login", `{"email":"locked@example.com","password":"Passw0rd!"}`, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.JSONEq(t, `"User temporarily locked out due to invalid attempts"`, raw)
	})

	t.Run("login wrong password", func(t *testing.T) {
		accounts.On("Login", anyCtx, "jane@example.com", "wrong-pass").
			Return(nil, auth.ErrMismatchedHashAndPassword).Once()

		resp, raw := doRequest(t, app, http.MethodPost, "/login", `{"email":"jane@example.com","password":"wrong-pass"}`, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.JSONEq(t, `"Invalid username or password"`, raw)
	})

	t.Run("login ok", func(t *testing.T) {
		accounts.On("Login", anyCtx, "jane@example.com", "Passw0rd!").Return(token, nil).Once()

		resp, raw := doRequest(t, app, http.MethodPost, "/login", `{"email":"jane@example.com","password":"Passw0rd!"}`, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, raw, `"access_token":"signed"`)
	})

	accounts.AssertExpectations(t)
}
