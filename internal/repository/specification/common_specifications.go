package specification

import (
	"fmt"

	"feature-store-be/internal/entity"
	"feature-store-be/internal/repository/scope"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByID filters by ID
type ByID struct {
	ID uuid.UUID
}

func (s ByID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("id = ?", s.ID)
}

func (s ByID) MatchFeature(f *entity.Feature) bool           { return f.Id == s.ID }
func (s ByID) MatchFeatureValue(v *entity.FeatureValue) bool { return v.Id == s.ID }

// ByIDs filters by a list of IDs
type ByIDs struct {
	IDs []uuid.UUID
}

func (s ByIDs) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("id IN ?", s.IDs)
}

func (s ByIDs) MatchFeature(f *entity.Feature) bool           { return containsID(s.IDs, f.Id) }
func (s ByIDs) MatchFeatureValue(v *entity.FeatureValue) bool { return containsID(s.IDs, v.Id) }

// ByOrganization scopes a query to one tenant. Every read of tenant data
// carries it.
type ByOrganization struct {
	OrganizationID uuid.UUID
}

func (s ByOrganization) Apply(db *gorm.DB) *gorm.DB {
	return db.Scopes(scope.ForOrganization(s.OrganizationID))
}

func (s ByOrganization) MatchFeature(f *entity.Feature) bool {
	return f.OrganizationId == s.OrganizationID
}

func (s ByOrganization) MatchFeatureValue(v *entity.FeatureValue) bool {
	return v.OrganizationId == s.OrganizationID
}

// OrderBy applies ordering
type OrderBy struct {
	Field string
	Desc  bool
}

func (s OrderBy) Apply(db *gorm.DB) *gorm.DB {
	direction := "ASC"
	if s.Desc {
		direction = "DESC"
	}
	return db.Order(fmt.Sprintf("%s %s", s.Field, direction))
}

// Pagination
type Pagination struct {
	Limit  int
	Offset int
}

func (s Pagination) Apply(db *gorm.DB) *gorm.DB {
	return db.Scopes(scope.Paginate(s.Limit, s.Offset))
}

// Page converts a 1-based page number and page size into a Pagination.
func Page(page, size int) Pagination {
	if page < 1 {
		page = 1
	}
	return Pagination{Limit: size, Offset: (page - 1) * size}
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
