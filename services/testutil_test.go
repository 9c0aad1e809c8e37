package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/plumekit/plume/models"
)

// newTestDB opens an isolated in-memory database with the full schema. Each
// test gets its own named database so parallel tests cannot see each other.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Category{}, &models.Post{}, &models.PostCategory{},
		&models.Comment{}, &models.Favorite{}, &models.Subscription{},
		&models.Reaction{}, &models.SearchEntry{},
	))
	return db
}

func newTestPostService(t *testing.T, db *gorm.DB) *PostService {
	t.Helper()
	cache, err := NewLRUResultCache(64, testCacheTTL)
	require.NoError(t, err)
	return NewPostService(db, cache, NewSearchIndex(db))
}

func makeUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Email:        username + "@example.com",
		Username:     username,
		PasswordHash: "x",
		Role:         models.RoleUser,
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}
