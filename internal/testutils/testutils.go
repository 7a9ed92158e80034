package testutils

import (
	"io"
	"log"
	"testing"

	"blogapi/internal/db"
	"blogapi/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB returns a postgres-dialect gorm backed by sqlmock.
func SetupTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("create sqlmock connection: %s", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	dialector := postgres.New(postgres.Config{
		Conn:       sqlDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger:         silentLogger(),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open gorm over sqlmock: %s", err)
	}
	return gormDB, mock
}

// NewSQLiteDB returns a migrated in-memory database private to the test.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.Open("file:" + uuid.NewString() + "?mode=memory")
	if err != nil {
		t.Fatalf("open sqlite: %s", err)
	}
	gdb.Logger = silentLogger()
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate sqlite: %s", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

// CreateUser inserts a user whose password is "password".
func CreateUser(t *testing.T, gdb *gorm.DB, name, email, role string) models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %s", err)
	}
	if role == "" {
		role = models.RoleUser
	}
	user := models.User{Name: name, Email: email, Password: string(hash), Role: role}
	if err := gdb.Create(&user).Error; err != nil {
		t.Fatalf("create user: %s", err)
	}
	return user
}

func CreatePost(t *testing.T, gdb *gorm.DB, userID uint, title, body string) models.Post {
	t.Helper()
	post := models.Post{UserID: userID, Title: title, Body: body}
	if err := gdb.Create(&post).Error; err != nil {
		t.Fatalf("create post: %s", err)
	}
	return post
}

func CreateCategory(t *testing.T, gdb *gorm.DB, name string) models.Category {
	t.Helper()
	category := models.Category{Name: name}
	if err := gdb.Create(&category).Error; err != nil {
		t.Fatalf("create category: %s", err)
	}
	return category
}

func InitTestMain() {
	gin.SetMode(gin.TestMode)
}

func silentLogger() logger.Interface {
	return logger.New(
		log.New(io.Discard, "", log.LstdFlags),
		logger.Config{LogLevel: logger.Silent},
	)
}
