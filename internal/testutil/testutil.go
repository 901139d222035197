// Package testutil 为各包测试提供内存 SQLite 数据库。
package testutil

import (
	"fmt"
	"spur-chat-go/internal/config"
	"spur-chat-go/pkg/database"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DB 打开一个独立的内存 SQLite 库并完成迁移，测试结束时自动关闭。
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", DSN: dsn})
	if err != nil {
		tb.Fatalf("open test db: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		tb.Fatalf("migrate test db: %v", err)
	}
	tb.Cleanup(func() {
		_ = database.Close(db)
	})
	return db
}
