// Package migration applies the database schema on startup.
package migration

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	clientdomain "github.com/keiridesk/keiridesk/internal/client/domain"
	orderdomain "github.com/keiridesk/keiridesk/internal/order/domain"
	supplierdomain "github.com/keiridesk/keiridesk/internal/supplier/domain"
)

// Run migrates all registered models.
func Run(db *gorm.DB, log *zap.Logger) error {
	err := db.AutoMigrate(
		&clientdomain.Client{},
		&supplierdomain.Supplier{},
		&orderdomain.Order{},
		&orderdomain.OrderItem{},
	)
	if err != nil {
		log.Error("migration failed", zap.Error(err))
		return err
	}
	log.Info("database schema up to date")
	return nil
}

// Module runs schema migration during application start.
var Module = fx.Module("migration",
	fx.Invoke(Run),
)
