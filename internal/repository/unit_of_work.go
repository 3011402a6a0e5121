package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TxRepos bundles the repositories that participate in one workflow
// advancement transaction: stage update, agreement insert and audit
// append commit or roll back together.
type TxRepos struct {
	Referrals  ReferralRepository
	Agreements AgreementRepository
	Audit      AuditRepository
}

// UnitOfWork runs a function within a single database transaction.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(tx TxRepos) error) error
}

type pgUnitOfWork struct {
	pool *pgxpool.Pool
}

// NewUnitOfWork creates a pgx-backed unit of work.
func NewUnitOfWork(pool *pgxpool.Pool) UnitOfWork {
	return &pgUnitOfWork{pool: pool}
}

func (u *pgUnitOfWork) WithinTx(ctx context.Context, fn func(tx TxRepos) error) error {
	tx, err := u.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	repos := TxRepos{
		Referrals:  NewReferralRepository(tx),
		Agreements: NewAgreementRepository(tx),
		Audit:      NewAuditRepository(tx),
	}
	if err := fn(repos); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
