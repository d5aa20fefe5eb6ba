package sql

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"privateinbox/backend/internal/domain"
)

// Dialector 返回指定方言的 GORM dialector
func Dialector(d Dialect, dsn string) (gorm.Dialector, error) {
	switch d {
	case Postgres:
		return postgres.Open(dsn), nil
	case MySQL:
		return mysql.Open(dsn), nil
	}
	return nil, fmt.Errorf("unsupported database driver: %s (supported: mysql, postgres)", d)
}

// Migrate 使用 GORM AutoMigrate 创建 temp_emails 与 received_emails，
// 并补充存储层依赖的列默认值（id、created_at）。
func Migrate(d Dialect, dsn string) error {
	dialector, err := Dialector(d, dsn)
	if err != nil {
		return err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	defer sqlDB.Close()

	if err := db.AutoMigrate(&domain.TempEmail{}, &domain.ReceivedEmailRecord{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	for _, stmt := range ColumnDefaults(d) {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to set column default: %w", err)
		}
	}

	return nil
}

// ColumnDefaults 返回设置列默认值的语句。
//
// PostgreSQL 的 INSERT ... RETURNING 依赖数据库生成 id；
// MySQL 的 id 由存储层生成，只需要 created_at 默认值。
func ColumnDefaults(d Dialect) []string {
	tables := []string{domain.TableTempEmails, domain.TableReceivedEmails}
	stmts := make([]string, 0, len(tables)*2)

	for _, table := range tables {
		switch d {
		case Postgres:
			stmts = append(stmts,
				fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT gen_random_uuid()::text",
					d.Quote(table), d.Quote(domain.FieldID)),
				fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT now()",
					d.Quote(table), d.Quote(domain.FieldCreatedAt)),
			)
		case MySQL:
			stmts = append(stmts,
				fmt.Sprintf("ALTER TABLE %s MODIFY %s DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3)",
					d.Quote(table), d.Quote(domain.FieldCreatedAt)),
			)
		}
	}

	return stmts
}
