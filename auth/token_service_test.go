package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-provider-api/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_GenerateAndValidate(t *testing.T) {
	ts, err := auth.NewTokenServiceFromConfig(testConfig(), nil)
	require.NoError(t, err)

	identity := stubIdentity{
		id:    "0b7e2c7e-8d7a-4b1e-9a51-3f7d0e9a2c11",
		email: "user@example.com",
		role:  "guest",
	}

	token, err := ts.Generate(identity, []auth.Claim{{Type: "DeleteProvider", Value: "true"}})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ts.Validate(token)
	require.NoError(t, err)

	assert.Equal(t, identity.id, claims.Subject())
	assert.Equal(t, identity.id, claims.UserID())
	assert.Equal(t, "user@example.com", claims.Email())
	assert.Equal(t, "guest", claims.Role())
	assert.True(t, claims.HasClaim("DeleteProvider"))
	assert.True(t, claims.HasClaim("DeleteProvider", "true"))
	assert.False(t, claims.HasClaim("DeleteProvider", "false"))
	assert.True(t, claims.HasClaim(auth.ClaimTypeRole, "guest"))
	assert.WithinDuration(t, claims.IssuedAt().Add(time.Hour), claims.Expires(), time.Second)
	assert.Equal(t, time.Hour, ts.TTL())
}

func TestTokenService_Validate_Failures(t *testing.T) {
	cfg := testConfig()
	ts, err := auth.NewTokenServiceFromConfig(cfg, nil)
	require.NoError(t, err)

	identity := stubIdentity{id: "42", email: "user@example.com", role: "guest"}

	t.Run("expired", func(t *testing.T) {
		restore := auth.SetNow(func() time.Time { return time.Now().Add(-2 * time.Hour) })
		token, err := ts.Generate(identity, nil)
		restore()
		require.NoError(t, err)

		_, err = ts.Validate(token)
		assert.True(t, auth.IsTokenExpiredError(err))
	})

	t.Run("wrong key", func(t *testing.T) {
		other := auth.NewTokenService([]byte("another-key"), 1, cfg.issuer, cfg.audience, nil)
		token, err := other.Generate(identity, nil)
		require.NoError(t, err)

		_, err = ts.Validate(token)
		assert.True(t, auth.IsMalformedError(err))
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := auth.NewTokenService([]byte(cfg.key), 1, "someone-else", cfg.audience, nil)
		token, err := other.Generate(identity, nil)
		require.NoError(t, err)

		_, err = ts.Validate(token)
		assert.True(t, auth.IsMalformedError(err))
	})

	t.Run("alg none", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "42"})
		raw, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = ts.Validate(raw)
		assert.True(t, auth.IsMalformedError(err))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ts.Validate("not.a.token")
		assert.True(t, auth.IsMalformedError(err))
	})
}

func TestNewTokenServiceFromConfig_RejectsNonHMAC(t *testing.T) {
	cfg := testConfig()
	cfg.method = "RS256"

	_, err := auth.NewTokenServiceFromConfig(cfg, nil)
	assert.Error(t, err)
}

func TestTokenService_Validate_AnyConfiguredAudience(t *testing.T) {
	cfg := testConfig()
	ts := auth.NewTokenService([]byte(cfg.key), 1, cfg.issuer, jwt.ClaimStrings{"web", "mobile"}, nil)
	identity := stubIdentity{id: "42", email: "user@example.com", role: "guest"}

	for _, tc := range []struct {
		name     string
		audience jwt.ClaimStrings
		ok       bool
	}{
		{"first", jwt.ClaimStrings{"web"}, true},
		{"second", jwt.ClaimStrings{"mobile"}, true},
		{"both", jwt.ClaimStrings{"web", "mobile"}, true},
		{"other", jwt.ClaimStrings{"partner"}, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			issuer := auth.NewTokenService([]byte(cfg.key), 1, cfg.issuer, tc.audience, nil)
			token, err := issuer.Generate(identity, nil)
			require.NoError(t, err)

			_, err = ts.Validate(token)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, auth.IsMalformedError(err))
			}
		})
	}
}
