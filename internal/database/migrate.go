package database

import (
	"ripple/internal/models"

	"gorm.io/gorm"
)

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Post{},
		&models.Like{},
		&models.Follow{},
		&models.Interaction{},
		&models.Notification{},
	}
}

// Migrate runs AutoMigrate over the model registry.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(PersistentModels()...)
}
