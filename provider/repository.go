package provider

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ErrNotFound is returned by GetProvider for unknown ids
var ErrNotFound = errors.New("provider not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound)

// Providers stores providers. Write methods report rows affected so
// callers can tell a no-op from a change.
type Providers interface {
	repository.Repository[*Provider]

	ListProviders(ctx context.Context) ([]*Provider, error)
	GetProvider(ctx context.Context, id uuid.UUID) (*Provider, error)
	InsertProvider(ctx context.Context, p *Provider) (int64, error)
	ReplaceProvider(ctx context.Context, p *Provider) (int64, error)
	RemoveProvider(ctx context.Context, id uuid.UUID) (int64, error)
}

type providers struct {
	repository.Repository[*Provider]
	db bun.IDB
}

var _ Providers = (*providers)(nil)

func NewProvidersRepository(db *bun.DB) Providers {
	repo := repository.NewRepository[*Provider](db, repository.ModelHandlers[*Provider]{
		NewRecord: func() *Provider { return &Provider{} },
		GetID: func(p *Provider) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Provider, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
		GetIdentifier: func() string {
			return "document"
		},
	})

	return &providers{
		Repository: repo,
		db:         db,
	}
}

func (r *providers) ListProviders(ctx context.Context) ([]*Provider, error) {
	records := make([]*Provider, 0)
	if err := r.db.NewSelect().Model(&records).Scan(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to list providers")
	}
	return records, nil
}

func (r *providers) GetProvider(ctx context.Context, id uuid.UUID) (*Provider, error) {
	record, err := r.Repository.GetByID(ctx, id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) || errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load provider")
	}
	return record, nil
}

func (r *providers) InsertProvider(ctx context.Context, p *Provider) (int64, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	res, err := r.db.NewInsert().Model(p).Exec(ctx)
	if err != nil {
		return 0, errors.Wrap(err, errors.CategoryOperation, "failed to insert provider")
	}
	return res.RowsAffected()
}

// ReplaceProvider overwrites every mutable column of the row with p.ID
func (r *providers) ReplaceProvider(ctx context.Context, p *Provider) (int64, error) {
	res, err := r.db.NewUpdate().
		Model(p).
		Column("name", "document", "active", "address").
		WherePK().
		Exec(ctx)
	if err != nil {
		return 0, errors.Wrap(err, errors.CategoryOperation, "failed to update provider")
	}
	return res.RowsAffected()
}

func (r *providers) RemoveProvider(ctx context.Context, id uuid.UUID) (int64, error) {
	res, err := r.db.NewDelete().
		Model((*Provider)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return 0, errors.Wrap(err, errors.CategoryOperation, "failed to remove provider")
	}
	return res.RowsAffected()
}
