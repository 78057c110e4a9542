package store

import "github.com/google/uuid"

// Permission is a model-scoped privilege
type Permission string

const (
	PermissionRead   Permission = "read"
	PermissionWrite  Permission = "write"
	PermissionReview Permission = "review"
)

// AuthzStore is the authorization collaborator. The permission model itself
// is owned elsewhere; the review workflow only asks yes/no questions.
type AuthzStore interface {
	// HasPermissionsForModel reports whether user holds permission on a model.
	HasPermissionsForModel(user string, permission Permission, modelID uuid.UUID) bool
}
