package auth

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserClaims stores the claims granted to users
type UserClaims interface {
	repository.Repository[*UserClaim]

	ListForUser(ctx context.Context, userID uuid.UUID) ([]*UserClaim, error)
	ListForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) ([]*UserClaim, error)
	Grant(ctx context.Context, userID uuid.UUID, claim Claim) (*UserClaim, error)
	GrantTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, claim Claim) (*UserClaim, error)
}

type userClaims struct {
	repository.Repository[*UserClaim]
	db *bun.DB
}

var _ UserClaims = (*userClaims)(nil)

func NewUserClaimsRepository(db *bun.DB) UserClaims {
	repo := repository.NewRepository[*UserClaim](db, repository.ModelHandlers[*UserClaim]{
		NewRecord: func() *UserClaim { return &UserClaim{} },
		GetID: func(c *UserClaim) uuid.UUID {
			if c == nil {
				return uuid.Nil
			}
			return c.ID
		},
		SetID: func(c *UserClaim, id uuid.UUID) {
			if c != nil {
				c.ID = id
			}
		},
		GetIdentifier: func() string {
			return "claim_type"
		},
	})

	return &userClaims{
		Repository: repo,
		db:         db,
	}
}

func (r *userClaims) ListForUser(ctx context.Context, userID uuid.UUID) ([]*UserClaim, error) {
	return r.ListForUserTx(ctx, r.db, userID)
}

func (r *userClaims) ListForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) ([]*UserClaim, error) {
	records := make([]*UserClaim, 0)
	err := tx.NewSelect().
		Model(&records).
		Where("?TableAlias.user_id = ?", userID).
		Order("claim_type ASC", "claim_value ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *userClaims) Grant(ctx context.Context, userID uuid.UUID, claim Claim) (*UserClaim, error) {
	return r.GrantTx(ctx, r.db, userID, claim)
}

// GrantTx is idempotent, granting an existing claim returns the stored row
func (r *userClaims) GrantTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, claim Claim) (*UserClaim, error) {
	existing := &UserClaim{}
	err := tx.NewSelect().
		Model(existing).
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.claim_type = ?", claim.Type).
		Where("?TableAlias.claim_value = ?", claim.Value).
		Limit(1).
		Scan(ctx)
	if err == nil {
		return existing, nil
	}

	if !isNotFound(err) {
		return nil, err
	}

	record := &UserClaim{
		ID:     uuid.New(),
		UserID: userID,
		Type:   claim.Type,
		Value:  claim.Value,
	}

	return r.Repository.CreateTx(ctx, tx, record)
}
