package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/cashback-next/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openRepositoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repository_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.PromoCode{},
		&models.UserAccount{},
		&models.AuditEntry{},
		&models.PartnerOverride{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}
