// Package store defines the storage interfaces consumed by the review and
// export pipeline. Concrete implementations live in the gorm subpackage;
// tests substitute mocks.
package store
