package db

import (
	"context"
	"fmt"
	"strings"

	"blogapi/internal/config"
	"blogapi/internal/models"
	"blogapi/internal/utils"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Init opens DATABASE_URL, migrates the schema and promotes configured admins.
func Init(cfg config.Config) (*gorm.DB, error) {
	gdb, err := Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	utils.LogInfo("Database connection established")

	if err := Migrate(gdb); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	utils.LogInfo("Database migration completed")

	if n, err := PromoteAdmins(context.Background(), gdb, cfg.AdminEmails); err != nil {
		return nil, fmt.Errorf("promote admins: %w", err)
	} else if n > 0 {
		utils.LogInfo(fmt.Sprintf("Promoted %d existing account(s) to admin", n))
	}

	return gdb, nil
}

// Open picks the driver from the DSN: sqlite for "sqlite://" and "file:"
// prefixes, postgres otherwise.
func Open(dsn string) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		Logger:         utils.GetGormLogger(),
		TranslateError: true,
	}

	if path, ok := sqlitePath(dsn); ok {
		gdb, err := gorm.Open(sqlite.Open(path), gcfg)
		if err != nil {
			return nil, err
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, err
		}
		// sqlite serialises writers; one connection avoids SQLITE_BUSY
		sqlDB.SetMaxOpenConns(1)
		return gdb, nil
	}

	return gorm.Open(postgres.Open(dsn), gcfg)
}

func sqlitePath(dsn string) (string, bool) {
	var path string
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		path = strings.TrimPrefix(dsn, "sqlite://")
	case strings.HasPrefix(dsn, "file:"):
		path = dsn
	default:
		return "", false
	}
	if !strings.Contains(path, "_pragma=foreign_keys") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		path += sep + "_pragma=foreign_keys(1)"
	}
	return path, true
}

func Migrate(gdb *gorm.DB) error {
	if err := gdb.SetupJoinTable(&models.Post{}, "Categories", &models.PostCategory{}); err != nil {
		return err
	}
	return gdb.AutoMigrate(
		&models.User{},
		&models.AccessToken{},
		&models.Post{},
		&models.Category{},
		&models.PostCategory{},
		&models.Comment{},
		&models.Like{},
	)
}

// PromoteAdmins 将配置中的邮箱对应账号提升为管理员
func PromoteAdmins(ctx context.Context, gdb *gorm.DB, emails []string) (int64, error) {
	if len(emails) == 0 {
		return 0, nil
	}
	normalized := make([]string, 0, len(emails))
	for _, e := range emails {
		normalized = append(normalized, strings.ToLower(strings.TrimSpace(e)))
	}
	res := gdb.WithContext(ctx).Model(&models.User{}).
		Where("email IN ? AND role <> ?", normalized, models.RoleAdmin).
		Update("role", models.RoleAdmin)
	return res.RowsAffected, res.Error
}
