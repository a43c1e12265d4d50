package main

import (
	"time"

	"github.com/cashback-next/internal/config"
	"github.com/cashback-next/internal/logger"
	"github.com/cashback-next/internal/models"

	"github.com/shopspring/decimal"
)

// 演示数据：本地联调用的促销码与用户账户
func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}
	if err := models.InitDefaultOverrides(cfg.Commission.Overrides); err != nil {
		stdLog.Printf("Failed to seed partner overrides: %v", err)
	}

	now := time.Now()
	promos := []models.PromoCode{
		{Code: "SAVE10", PercentageBoost: models.NewPercent(decimal.NewFromInt(10)), ExpirationDate: now.AddDate(0, 1, 0), MaxUses: 100},
		{Code: "WELCOME5", PercentageBoost: models.NewPercent(decimal.NewFromInt(5)), ExpirationDate: now.AddDate(1, 0, 0), MaxUses: 1000},
		{Code: "LASTCALL", PercentageBoost: models.NewPercent(decimal.NewFromInt(15)), ExpirationDate: now.Add(time.Hour), MaxUses: 1},
		{Code: "OLDDEAL", PercentageBoost: models.NewPercent(decimal.NewFromInt(20)), ExpirationDate: now.AddDate(0, 0, -7), MaxUses: 50},
	}
	for _, promo := range promos {
		var existing models.PromoCode
		if err := models.DB.Where("code = ?", promo.Code).First(&existing).Error; err == nil {
			stdLog.Printf("Promo code already exists: %s", promo.Code)
			continue
		}
		if err := models.DB.Create(&promo).Error; err != nil {
			stdLog.Printf("Failed to create promo code %s: %v", promo.Code, err)
			continue
		}
		stdLog.Printf("Created promo code: %s", promo.Code)
	}

	users := []models.UserAccount{
		{Email: "alice@example.com", Balance: models.NewMoneyFromDecimal(decimal.NewFromInt(25)), PendingCredits: models.NewMoneyFromDecimal(decimal.NewFromFloat(3.5))},
		{Email: "bob@example.com"},
	}
	for _, user := range users {
		var existing models.UserAccount
		if err := models.DB.Where("email = ?", user.Email).First(&existing).Error; err == nil {
			stdLog.Printf("User account already exists: %s", user.Email)
			continue
		}
		if err := models.DB.Create(&user).Error; err != nil {
			stdLog.Printf("Failed to create user account %s: %v", user.Email, err)
			continue
		}
		stdLog.Printf("Created user account: %s", user.Email)
	}

	stdLog.Printf("Seed completed")
}
