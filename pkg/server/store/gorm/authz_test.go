package gorm

import (
	"bytes"
	"errors"
	"log"
	"os"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/castellan-sec/castellan/pkg/server/store"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open gorm: %v", err)
	}
	return db, mock
}

func TestAuthzStoreHasPermissionsForModel(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewAuthzStore(db)
	modelID := uuid.New()

	mock.ExpectQuery(`SELECT count\(.+\) FROM "model_permissions"`).
		WithArgs(modelID, "reviewer@example.com", "review").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	if !s.HasPermissionsForModel("reviewer@example.com", store.PermissionReview, modelID) {
		t.Error("expected the grant to be found")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestAuthzStoreLookupFailureDeniesAndLogs(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewAuthzStore(db)

	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	mock.ExpectQuery(`SELECT count\(.+\) FROM "model_permissions"`).
		WillReturnError(errors.New("connection refused"))

	if s.HasPermissionsForModel("reviewer@example.com", store.PermissionReview, uuid.New()) {
		t.Error("expected a failed lookup to deny")
	}
	if !strings.Contains(buf.String(), "permission lookup") {
		t.Errorf("expected the lookup failure to be logged, got %q", buf.String())
	}
}
