package models

import (
	"context"
	"fmt"

	"github.com/GrainArc/DropMap/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Dialector 按配置选择数据库驱动
func Dialector(cfg config.Config) gorm.Dialector {
	switch cfg.Driver {
	case config.DriverMySQL:
		return mysql.Open(cfg.DSN())
	case config.DriverSQLite:
		return sqlite.Open(cfg.DSN())
	default:
		return postgres.Open(cfg.DSN())
	}
}

// Opener 返回一个按需打开连接的函数，交给存储网关延迟调用
func Opener(cfg config.Config) func() (*gorm.DB, error) {
	level := logger.Silent
	if cfg.Debug {
		level = logger.Info
	}
	return func() (*gorm.DB, error) {
		db, err := gorm.Open(Dialector(cfg), &gorm.Config{
			Logger: logger.Default.LogMode(level),
		})
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
		}
		return db, nil
	}
}

// EnsureSchema 建表（已存在时不做任何事，不改已有列）
func EnsureSchema(ctx context.Context, db *gorm.DB) error {
	m := db.WithContext(ctx).Migrator()
	if m.HasTable(&FoundItem{}) {
		return nil
	}
	return m.CreateTable(&FoundItem{})
}
