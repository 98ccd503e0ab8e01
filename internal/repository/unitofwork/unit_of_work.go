package unitofwork

import (
	"context"

	"feature-store-be/internal/repository/contract"
)

// UnitOfWork groups repository calls into one transaction. Outside Begin and
// Commit/Rollback every repository call runs on its own.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	FeatureRepository() contract.FeatureRepository
	FeatureValueRepository() contract.FeatureValueRepository
}
