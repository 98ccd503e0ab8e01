package specification

import (
	"feature-store-be/internal/entity"

	"gorm.io/gorm"
)

// Specification defines the interface for query specifications
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}

// FeatureMatcher is implemented by specifications that can also be evaluated
// against an in-memory feature.
type FeatureMatcher interface {
	MatchFeature(f *entity.Feature) bool
}

// FeatureValueMatcher is the feature value counterpart of FeatureMatcher.
type FeatureValueMatcher interface {
	MatchFeatureValue(v *entity.FeatureValue) bool
}
