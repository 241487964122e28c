package mysql

import (
	"order-dashboard/internal/config"
	"order-dashboard/internal/domain"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// NewMySQL opens the journal database and migrates its table.
func NewMySQL(cfg config.MySQL) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			SingularTable: false,
		},
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&domain.StatusChange{}); err != nil {
		return nil, err
	}

	return db, nil
}
