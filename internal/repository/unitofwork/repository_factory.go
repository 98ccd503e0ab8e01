package unitofwork

import "context"

// RepositoryFactory hands out units of work for one storage backend,
// either PostgreSQL through gorm or the in-memory store.
type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}
