package memory

import (
	"context"
	"fmt"
	"sync"

	"feature-store-be/internal/repository/contract"
	"feature-store-be/internal/repository/unitofwork"
)

type RepositoryFactory struct {
	store *Store
}

func NewRepositoryFactory(store *Store) unitofwork.RepositoryFactory {
	return &RepositoryFactory{store: store}
}

func (f *RepositoryFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &UnitOfWork{store: f.store}
}

// UnitOfWork stages writes made between Begin and Commit and applies them to
// the store in one locked step, re-checking uniqueness at that point. Reads
// inside a transaction see committed data only.
type UnitOfWork struct {
	store *Store

	mu     sync.Mutex
	inTx   bool
	staged []op
}

func (u *UnitOfWork) Begin(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.inTx {
		return fmt.Errorf("transaction already started")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	u.inTx = true
	u.staged = nil
	return nil
}

func (u *UnitOfWork) Commit() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.inTx {
		return fmt.Errorf("no transaction to commit")
	}
	staged := u.staged
	u.inTx = false
	u.staged = nil
	return u.store.commit(staged)
}

func (u *UnitOfWork) Rollback() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.inTx {
		return fmt.Errorf("no transaction to rollback")
	}
	u.inTx = false
	u.staged = nil
	return nil
}

// exec applies ops immediately outside a transaction and stages them inside one.
func (u *UnitOfWork) exec(ops ...op) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.inTx {
		u.staged = append(u.staged, ops...)
		return nil
	}
	return u.store.commit(ops)
}

func (u *UnitOfWork) FeatureRepository() contract.FeatureRepository {
	return &FeatureRepository{uow: u}
}

func (u *UnitOfWork) FeatureValueRepository() contract.FeatureValueRepository {
	return &FeatureValueRepository{uow: u}
}
