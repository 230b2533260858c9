package repository

import (
	"testing"
	"time"

	"ripple/internal/database"
	"ripple/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	u := models.User{Username: username, Email: username + "@example.com", Password: "pw"}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func createPost(t *testing.T, db *gorm.DB, userID uint, age time.Duration, mutate ...func(*models.Post)) models.Post {
	t.Helper()
	p := models.Post{
		UserID:     userID,
		Content:    "post content",
		Visibility: models.VisibilityPublic,
		CreatedAt:  time.Now().Add(-age),
	}
	for _, m := range mutate {
		m(&p)
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}
