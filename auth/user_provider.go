package auth

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-repository-bun"
)

// UserTracker is a store we can use to retrieve users
type UserTracker interface {
	FindByIdentifier(ctx context.Context, identifier string) (*User, error)
	TrackAttemptedLogin(ctx context.Context, user *User) error
	TrackSucccessfulLogin(ctx context.Context, user *User) error
}

// DefaultMaxLoginAttempts is the number of consecutive failures
// that lock an account
const DefaultMaxLoginAttempts = 5

// DefaultLockoutPeriod is how long an account stays locked,
// measured from the last failed attempt
const DefaultLockoutPeriod = "5m"

// LockoutOptions configures sign in lockout
type LockoutOptions struct {
	MaxAttempts int
	Period      string
}

// UserProvider handles users
type UserProvider struct {
	store   UserTracker
	hasher  PasswordAuthenticator
	lockout LockoutOptions
	logger  Logger
}

// UserProviderOption configures a UserProvider
type UserProviderOption func(*UserProvider)

// WithLockout overrides lockout defaults, zero values keep the default
func WithLockout(opts LockoutOptions) UserProviderOption {
	return func(u *UserProvider) {
		if opts.MaxAttempts > 0 {
			u.lockout.MaxAttempts = opts.MaxAttempts
		}
		if opts.Period != "" {
			u.lockout.Period = opts.Period
		}
	}
}

// WithPasswordHasher sets the hasher used to compare passwords
func WithPasswordHasher(h PasswordAuthenticator) UserProviderOption {
	return func(u *UserProvider) {
		if h != nil {
			u.hasher = h
		}
	}
}

// NewUserProvider will create a new UserProvider
func NewUserProvider(store UserTracker, opts ...UserProviderOption) *UserProvider {
	u := &UserProvider{
		store:  store,
		hasher: NewBcryptHasher(DefaultPasswordCost),
		lockout: LockoutOptions{
			MaxAttempts: DefaultMaxLoginAttempts,
			Period:      DefaultLockoutPeriod,
		},
		logger: glog.Nop(),
	}

	for _, opt := range opts {
		opt(u)
	}

	return u
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	if l != nil {
		u.logger = l
	}
	return u
}

// VerifyIdentity will find the user, compare to the password, and return identity.
// A locked out account is refused before the password is checked, so even
// the right password fails until the lockout window passes.
func (u *UserProvider) VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error) {
	user, err := u.store.FindByIdentifier(ctx, identifier)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrMismatchedHashAndPassword
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during verification")
	}

	if user.LoginAttemptAt != nil {
		expired, err := IsOutsideThresholdPeriod(*user.LoginAttemptAt, u.lockout.Period)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to calculate login attempt cooldown")
		}

		if expired {
			user.LoginAttempts = 0
		}
	}

	if user.LoginAttempts >= u.lockout.MaxAttempts {
		u.logger.Warn("sign in refused, account locked out", "user_id", user.ID.String(), "attempts", user.LoginAttempts)
		return nil, ErrTooManyLoginAttempts
	}

	if err := u.hasher.ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if !IsInvalidCredentialsError(err) {
			return nil, err
		}

		if err2 := u.store.TrackAttemptedLogin(ctx, user); err2 != nil {
			return nil, errors.Wrap(err2, errors.CategoryInternal, "failed to track login attempt")
		}

		return nil, ErrMismatchedHashAndPassword
	}

	if err := u.store.TrackSucccessfulLogin(ctx, user); err != nil {
		u.logger.Error("failed to track successful login", "error", err)
	}

	return newIdentity(user), nil
}

func (u *UserProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error) {
	user, err := u.store.FindByIdentifier(ctx, identifier)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}

	return newIdentity(user), nil
}

type authIdentity struct {
	id       string
	username string
	email    string
	role     string
}

func newIdentity(user *User) authIdentity {
	return authIdentity{
		id:       user.ID.String(),
		email:    user.Email,
		username: user.Username,
		role:     string(user.Role),
	}
}

func (a authIdentity) ID() string {
	return a.id
}

func (a authIdentity) Username() string {
	return a.username
}

func (a authIdentity) Email() string {
	return a.email
}

func (a authIdentity) Role() string {
	return a.role
}

var _ Identity = authIdentity{}
