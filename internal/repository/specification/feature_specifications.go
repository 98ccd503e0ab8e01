package specification

import (
	"strings"

	"feature-store-be/internal/entity"
	"feature-store-be/internal/repository/scope"

	"gorm.io/gorm"
)

type ByName struct {
	Name string
}

func (s ByName) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("name = ?", s.Name)
}

func (s ByName) MatchFeature(f *entity.Feature) bool { return f.Name == s.Name }

// NameContains is a case-insensitive substring search on the feature name.
type NameContains struct {
	Query string
}

func (s NameContains) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("name ILIKE ?", "%"+s.Query+"%")
}

func (s NameContains) MatchFeature(f *entity.Feature) bool {
	return strings.Contains(strings.ToLower(f.Name), strings.ToLower(s.Query))
}

type ByStatus struct {
	Status entity.FeatureStatus
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", string(s.Status))
}

func (s ByStatus) MatchFeature(f *entity.Feature) bool { return f.Status == s.Status }

type ByDataType struct {
	DataType entity.DataType
}

func (s ByDataType) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("data_type = ?", string(s.DataType))
}

func (s ByDataType) MatchFeature(f *entity.Feature) bool { return f.DataType == s.DataType }

type ByServingType struct {
	ServingType entity.ServingType
}

func (s ByServingType) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("serving_type = ?", string(s.ServingType))
}

func (s ByServingType) MatchFeature(f *entity.Feature) bool { return f.ServingType == s.ServingType }

type ByOwner struct {
	Owner string
}

func (s ByOwner) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("owner = ?", s.Owner)
}

func (s ByOwner) MatchFeature(f *entity.Feature) bool { return f.Owner == s.Owner }

// IncludeDeleted lifts the soft-delete filter.
type IncludeDeleted struct{}

func (s IncludeDeleted) Apply(db *gorm.DB) *gorm.DB {
	return db.Scopes(scope.WithSoftDeleted)
}
