package gorm

import (
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/castellan-sec/castellan/pkg/server/store"
)

// Ensure AuthzStore implements store.AuthzStore
var _ store.AuthzStore = (*AuthzStore)(nil)

// AuthzStore implements store.AuthzStore using GORM. Permission grants live
// in the model_permissions table, written by the permission system that owns
// them; this store only reads.
type AuthzStore struct {
	db *gorm.DB
}

// NewAuthzStore creates a new AuthzStore
func NewAuthzStore(db *gorm.DB) *AuthzStore {
	return &AuthzStore{db: db}
}

// HasPermissionsForModel reports whether user holds permission on a model.
// A lookup failure denies, and is logged so an outage can be told apart from
// a plain denial.
func (s *AuthzStore) HasPermissionsForModel(user string, permission store.Permission, modelID uuid.UUID) bool {
	var count int64
	err := s.db.Table("model_permissions").
		Where("model_id = ? AND user_email = ? AND permission = ?", modelID, user, string(permission)).
		Count(&count).Error
	if err != nil {
		log.Printf("authz: permission lookup for model %s: %v", modelID, err)
		return false
	}
	return count > 0
}
