package storage

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"

	"github.com/Hossam1104/pos-admin-tool/internal/config"
)

var (
	once sync.Once
	db   *gorm.DB
)

// GetDb returns the handle to the local history database, creating the
// data directory and the file on first use.
func GetDb() *gorm.DB {
	once.Do(func() {
		env := config.GetEnv()

		if err := os.MkdirAll(env.DataDir, 0o700); err != nil {
			panic(err)
		}

		dbPath := filepath.Join(env.DataDir, "history.db")

		opened, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
			Logger: gorm_logger.Default.LogMode(gorm_logger.Silent),
		})
		if err != nil {
			panic(err)
		}

		db = opened
	})

	return db
}

// Migrate applies the schema for the given models. Called once from main
// before any repository is used.
func Migrate(models ...interface{}) error {
	return GetDb().AutoMigrate(models...)
}
