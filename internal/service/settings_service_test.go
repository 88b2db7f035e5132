package service

import (
	"context"
	"fmt"
	"testing"

	"lustre-backend/internal/model"
	"lustre-backend/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newSettingsTestEnv(t *testing.T) (SettingsService, model.Organisation) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&model.Organisation{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	org := model.Organisation{Name: "Sparkle & Shine", VatRegistered: true, VatRate: decimal.NewFromInt(20), VatNumber: "GB123456789"}
	if err := db.Create(&org).Error; err != nil {
		t.Fatalf("failed to seed organisation: %v", err)
	}

	return NewSettingsService(repository.NewOrganisationRepository(db)), org
}

func TestUpdateSettingsValidatesVatNumber(t *testing.T) {
	svc, org := newSettingsTestEnv(t)

	_, err := svc.UpdateSettings(context.Background(), org.ID, UpdateSettingsRequest{
		Name:          org.Name,
		VatRegistered: true,
		VatNumber:     "12345",
	})
	if err == nil {
		t.Error("malformed VAT number should be rejected")
	}

	updated, err := svc.UpdateSettings(context.Background(), org.ID, UpdateSettingsRequest{
		Name:          org.Name,
		VatRegistered: true,
		VatNumber:     "GB987654321",
	})
	if err != nil {
		t.Fatalf("valid VAT number rejected: %v", err)
	}
	if updated.VatNumber != "GB987654321" {
		t.Errorf("expected VAT number to update, got %s", updated.VatNumber)
	}
}

func TestUpdateSettingsVatRateBounds(t *testing.T) {
	svc, org := newSettingsTestEnv(t)

	rate := "101"
	if _, err := svc.UpdateSettings(context.Background(), org.ID, UpdateSettingsRequest{
		Name: org.Name, VatRegistered: true, VatRate: &rate,
	}); err == nil {
		t.Error("rate above 100 should be rejected")
	}

	rate = "5"
	updated, err := svc.UpdateSettings(context.Background(), org.ID, UpdateSettingsRequest{
		Name: org.Name, VatRegistered: true, VatRate: &rate,
	})
	if err != nil {
		t.Fatalf("valid rate rejected: %v", err)
	}
	if updated.VatRate != "5.00" {
		t.Errorf("expected rate 5.00, got %s", updated.VatRate)
	}
}

func TestDeregisteringResetsVat(t *testing.T) {
	svc, org := newSettingsTestEnv(t)

	updated, err := svc.UpdateSettings(context.Background(), org.ID, UpdateSettingsRequest{
		Name:          org.Name,
		VatRegistered: false,
	})
	if err != nil {
		t.Fatalf("failed to deregister: %v", err)
	}
	if updated.VatRegistered {
		t.Error("organisation should be deregistered")
	}
	if updated.VatRate != "20.00" {
		t.Errorf("deregistering should reset the rate to 20.00, got %s", updated.VatRate)
	}
	if updated.VatNumber != "" {
		t.Errorf("deregistering should clear the VAT number, got %s", updated.VatNumber)
	}
}
