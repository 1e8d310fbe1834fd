package db

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"landedcost/internal/config"
	"landedcost/internal/repository"
	gormrepository "landedcost/internal/repository/gorm"
	memdbrepository "landedcost/internal/repository/memdb"
)

type DB struct {
	Gorm *gorm.DB
	SQL  *sql.DB
}

func Open(cfg config.DBConfig, log *zap.Logger) (*DB, error) {
	gcfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	}
	if log != nil {
		gcfg.Logger = gormlogger.New(zap.NewStdLog(log.Named("gorm")), gormlogger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		})
	}

	gdb, err := gorm.Open(postgres.Open(cfg.DSN), gcfg)
	if err != nil {
		return nil, err
	}

	sqldb, err := gdb.DB()
	if err != nil {
		return nil, err
	}

	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqldb.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return &DB{Gorm: gdb, SQL: sqldb}, nil
}

// OpenStore returns the postgres-backed store when a DSN is configured and the in-memory store
// otherwise. The returned DB is nil for the in-memory store.
func OpenStore(cfg config.DBConfig, log *zap.Logger) (repository.Repository, *DB, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		store, err := memdbrepository.New()
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	}
	conn, err := Open(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	if err := SetTimezone(conn, cfg.Timezone); err != nil {
		_ = Close(conn)
		return nil, nil, err
	}
	if err := AutoMigrate(conn); err != nil {
		_ = Close(conn)
		return nil, nil, err
	}
	return gormrepository.New(conn.Gorm), conn, nil
}

func Close(db *DB) error {
	if db == nil || db.SQL == nil {
		return nil
	}
	return db.SQL.Close()
}

// Ping is nil-safe: the in-memory store has no connection and is always reachable.
func (d *DB) Ping(ctx context.Context) error {
	if d == nil || d.SQL == nil {
		return nil
	}
	return d.SQL.PingContext(ctx)
}

func SetTimezone(db *DB, tz string) error {
	if db == nil || db.SQL == nil || tz == "" {
		return nil
	}
	_, err := db.SQL.Exec("SET TIME ZONE '" + strings.ReplaceAll(tz, "'", "''") + "'")
	return err
}
