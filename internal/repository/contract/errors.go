package contract

import "errors"

// ErrDuplicateKey is returned by repositories when a write violates a
// uniqueness constraint: a (feature, entity, timestamp) triple for values or
// a per-organization name for features.
var ErrDuplicateKey = errors.New("duplicate key")

// ErrNotFound is returned by writes that target a row which no longer exists
// in the caller's organization.
var ErrNotFound = errors.New("record not found")
