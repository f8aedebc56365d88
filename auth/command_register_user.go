package auth

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	UseHashid bool   `json:"-"`
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// ClaimGrant assigns a claim to the account with the given email
type ClaimGrant struct {
	Email string `koanf:"email" yaml:"email" json:"email"`
	Type  string `koanf:"type" yaml:"type" json:"type"`
	Value string `koanf:"value" yaml:"value" json:"value"`
}

// Claim returns the wire form of the grant
func (g ClaimGrant) Claim() Claim {
	return Claim{Type: g.Type, Value: g.Value}
}

// RegisterUserHandler creates accounts. Duplicates and password policy
// failures come back as IdentityErrors.
type RegisterUserHandler struct {
	repo   RepositoryManager
	hasher PasswordAuthenticator
	policy PasswordPolicy
	grants []ClaimGrant
}

func NewRegisterUserHandler(repo RepositoryManager, hasher PasswordAuthenticator, policy PasswordPolicy, grants ...ClaimGrant) *RegisterUserHandler {
	if hasher == nil {
		hasher = NewBcryptHasher(DefaultPasswordCost)
	}
	return &RegisterUserHandler{
		repo:   repo,
		hasher: hasher,
		policy: policy,
		grants: grants,
	}
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) (*User, error) {
	select {
	case <-ctx.Done():
		return nil, errors.Wrap(
			ctx.Err(),
			errors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) (*User, error) {
	email := normalizeEmail(event.Email)

	if _, err := h.repo.Users().FindByIdentifier(ctx, email); err == nil {
		return nil, duplicateUserErrors(email, email)
	} else if !isNotFound(err) {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to check existing users")
	}

	if errs := h.policy.Check(event.Password); len(errs) > 0 {
		return nil, errs
	}

	hash, err := h.hasher.HashPassword(event.Password)
	if err != nil {
		return nil, err
	}

	role := RoleGuest
	if r, ok := ParseRole(event.Role); ok {
		role = r
	}

	user := &User{
		Role:           role,
		Username:       email,
		Email:          email,
		PasswordHash:   hash,
		EmailValidated: true,
	}

	if event.UseHashid {
		if id, err := hashid.NewUUID(email); err == nil {
			user.ID = id
		}
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		created, err := h.repo.Users().RegisterTx(ctx, tx, user)
		if err != nil {
			return errors.Wrap(err, errors.CategoryConflict, "could not create user")
		}
		user = created

		for _, grant := range h.grants {
			if !strings.EqualFold(grant.Email, email) {
				continue
			}
			if _, err := h.repo.Claims().GrantTx(ctx, tx, user.ID, grant.Claim()); err != nil {
				return errors.Wrap(err, errors.CategoryInternal, "could not grant claim")
			}
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return user, nil
}

// ApplyClaimGrants grants configured claims to accounts that already
// exist. Grants for unknown emails are skipped.
func ApplyClaimGrants(ctx context.Context, repo RepositoryManager, grants []ClaimGrant, logger Logger) error {
	if logger == nil {
		logger = glog.Nop()
	}

	for _, grant := range grants {
		user, err := repo.Users().FindByIdentifier(ctx, normalizeEmail(grant.Email))
		if err != nil {
			if isNotFound(err) {
				logger.Debug("claim grant skipped, user not registered", "email", grant.Email, "claim", grant.Type)
				continue
			}
			return errors.Wrap(err, errors.CategoryInternal, "failed to resolve claim grant user")
		}

		if _, err := repo.Claims().Grant(ctx, user.ID, grant.Claim()); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to apply claim grant")
		}

		logger.Info("claim granted", "user_id", user.ID.String(), "claim", grant.Type)
	}

	return nil
}
