package store

import "errors"

var (
	ErrNotFound         = errors.New("record not found")
	ErrMissingTenant    = errors.New("tenant id is required")
	ErrMissingUser      = errors.New("user id is required")
	ErrInvalidPolicy    = errors.New("policy name must be Strict, Balanced or Lenient")
	ErrInvalidScanLevel = errors.New("scan level must be quick, full or deep")
	ErrInvalidStatus    = errors.New("alert status must be Quarantined or Resolved")
)
