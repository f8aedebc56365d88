package auth

import (
	"context"
	"sort"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"
)

// Auther signs users in and issues token responses
type Auther struct {
	provider   IdentityProvider
	repo       RepositoryManager
	tokens     TokenService
	registerer *RegisterUserHandler
	activity   ActivitySink
	logger     Logger
	useHashid  bool
}

// AutherOption configures an Auther
type AutherOption func(*Auther)

// WithActivitySink sets where sign in and registration events go
func WithActivitySink(sink ActivitySink) AutherOption {
	return func(a *Auther) {
		a.activity = normalizeActivitySink(sink)
	}
}

// WithAutherLogger sets the logger
func WithAutherLogger(l Logger) AutherOption {
	return func(a *Auther) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithHashidUserIDs derives new user ids from their email
func WithHashidUserIDs(enabled bool) AutherOption {
	return func(a *Auther) {
		a.useHashid = enabled
	}
}

// NewAuthenticator wires the identity provider, token service and
// registration handler together
func NewAuthenticator(provider IdentityProvider, repo RepositoryManager, tokens TokenService, registerer *RegisterUserHandler, opts ...AutherOption) *Auther {
	a := &Auther{
		provider:   provider,
		repo:       repo,
		tokens:     tokens,
		registerer: registerer,
		activity:   noopActivitySink{},
		logger:     glog.Nop(),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Login verifies credentials and returns a signed token response.
// Errors are ErrTooManyLoginAttempts, ErrMismatchedHashAndPassword
// or an internal error.
func (a *Auther) Login(ctx context.Context, identifier, password string) (*TokenResponse, error) {
	identity, err := a.provider.VerifyIdentity(ctx, identifier, password)
	if err != nil {
		switch {
		case IsLockedOutError(err):
			a.record(ctx, ActivityEvent{EventType: ActivityEventLoginLockedOut, Identifier: identifier})
		case IsInvalidCredentialsError(err):
			a.record(ctx, ActivityEvent{EventType: ActivityEventLoginFailure, Identifier: identifier})
		default:
			a.logger.Error("login verification failed", "error", err)
		}
		return nil, err
	}

	res, err := a.TokenFor(ctx, identity)
	if err != nil {
		return nil, err
	}

	a.record(ctx, ActivityEvent{
		EventType:  ActivityEventLoginSuccess,
		UserID:     identity.ID(),
		Identifier: identifier,
	})

	return res, nil
}

// Register creates the account and returns a token response for it.
// Account store rejections are returned as IdentityErrors.
func (a *Auther) Register(ctx context.Context, msg RegisterUserMessage) (*TokenResponse, error) {
	msg.UseHashid = msg.UseHashid || a.useHashid

	user, err := a.registerer.Execute(ctx, msg)
	if err != nil {
		var idErrs IdentityErrors
		meta := map[string]any{}
		if errors.As(err, &idErrs) {
			meta["codes"] = identityErrorCodes(idErrs)
		}
		a.record(ctx, ActivityEvent{
			EventType:  ActivityEventRegistrationFailure,
			Identifier: msg.Email,
			Metadata:   meta,
		})
		return nil, err
	}

	identity := newIdentity(user)
	res, err := a.TokenFor(ctx, identity)
	if err != nil {
		return nil, err
	}

	a.record(ctx, ActivityEvent{
		EventType:  ActivityEventRegistrationSuccess,
		UserID:     identity.ID(),
		Identifier: msg.Email,
	})

	return res, nil
}

// TokenFor mints a token for the identity with its stored claims
func (a *Auther) TokenFor(ctx context.Context, identity Identity) (*TokenResponse, error) {
	userID, err := uuid.Parse(identity.ID())
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "identity has an invalid id")
	}

	records, err := a.repo.Claims().ListForUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load user claims")
	}

	claims := make([]Claim, 0, len(records))
	for _, r := range records {
		claims = append(claims, r.ToClaim())
	}

	token, err := a.tokens.Generate(identity, claims)
	if err != nil {
		return nil, err
	}

	wire := make([]Claim, 0, len(claims)+1)
	if identity.Role() != "" {
		wire = append(wire, Claim{Type: ClaimTypeRole, Value: identity.Role()})
	}
	wire = append(wire, claims...)

	return &TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(a.tokens.TTL().Seconds()),
		UserToken: UserToken{
			ID:     identity.ID(),
			Email:  identity.Email(),
			Claims: wire,
		},
	}, nil
}

func (a *Auther) record(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = now()
	}
	if err := a.activity.Record(ctx, event); err != nil {
		a.logger.Warn("activity sink failed", "event", string(event.EventType), "error", err)
	}
}

func identityErrorCodes(errs IdentityErrors) []string {
	codes := make([]string, 0, len(errs))
	for _, e := range errs {
		codes = append(codes, e.Code)
	}
	sort.Strings(codes)
	return codes
}
