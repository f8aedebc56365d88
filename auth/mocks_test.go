package auth_test

import (
	"context"

	"github.com/goliatone/go-provider-api/auth"
	"github.com/stretchr/testify/mock"
)

// MockUserTracker implements auth.UserTracker
type MockUserTracker struct {
	mock.Mock
}

func (m *MockUserTracker) FindByIdentifier(ctx context.Context, identifier string) (*auth.User, error) {
	args := m.Called(ctx, identifier)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockUserTracker) TrackAttemptedLogin(ctx context.Context, user *auth.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserTracker) TrackSucccessfulLogin(ctx context.Context, user *auth.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockAccountService implements auth.AccountService
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) Login(ctx context.Context, identifier, password string) (*auth.TokenResponse, error) {
	args := m.Called(ctx, identifier, password)
	res, _ := args.Get(0).(*auth.TokenResponse)
	return res, args.Error(1)
}

func (m *MockAccountService) Register(ctx context.Context, msg auth.RegisterUserMessage) (*auth.TokenResponse, error) {
	args := m.Called(ctx, msg)
	res, _ := args.Get(0).(*auth.TokenResponse)
	return res, args.Error(1)
}

var anyCtx = mock.Anything

type stubIdentity struct {
	id, username, email, role string
}

func (s stubIdentity) ID() string { return s.id }
func (s stubIdentity) Username() string { return s.username }
func (s stubIdentity) Email() string { return s.email }
func (s stubIdentity) Role() string { return s.role }

type stubConfig struct {
	key        string
	method     string
	hours      int
	issuer     string
	audience   []string
	contextKey string
}

func (c stubConfig) GetSigningKey() string { return c.key }
func (c stubConfig) GetSigningMethod() string { return c.method }
func (c stubConfig) GetContextKey() string { return c.contextKey }
func (c stubConfig) GetTokenExpiration() int { return c.hours }
func (c stubConfig) GetTokenLookup() string { return "header:Authorization" }
func (c stubConfig) GetAuthScheme() string { return "Bearer" }
func (c stubConfig) GetIssuer() string { return c.issuer }
func (c stubConfig) GetAudience() []string { return c.audience }

func testConfig() stubConfig {
	return stubConfig{
		key:      "test-signing-key",
		method:   "HS256",
		hours:    1,
		issuer:   "provider-api",
		audience: []string{"provider-api"},
	}
}

// fastHasher keeps bcrypt cheap in tests
var fastHasher = auth.NewBcryptHasher(4)

func mustHash(password string) string {
	h, err := fastHasher.HashPassword(password)
	if err != nil {
		panic(err)
	}
	return h
}
