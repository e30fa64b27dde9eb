package data

import (
	"context"
	"fmt"
	"time"

	"cinescope/internal/biz"
	"cinescope/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ProviderSet is data providers.
var ProviderSet = wire.NewSet(
	NewData,
	NewTransaction,
	NewUserRepo,
	NewMovieRepo,
	NewReviewRepo,
	NewWatchlistRepo,
	NewCatalogClient,
)

// Data encapsulates database and cache connections
type Data struct {
	db  *gorm.DB
	rdb *redis.Client
	log *log.Helper
}

type contextTxKey struct{}

// NewData creates Data instance with database and Redis connections
func NewData(c *conf.Data, logger log.Logger) (*Data, func(), error) {
	l := log.NewHelper(logger)

	db, err := gorm.Open(dialector(c.Database), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		l.Errorf("failed to connect to database: %v", err)
		return nil, nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		l.Errorf("failed to get database instance: %v", err)
		return nil, nil, err
	}

	// Configure connection pool
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	l.Info("database connected successfully")

	var rdb *redis.Client
	if c.Redis != nil && c.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:         c.Redis.Addr,
			Password:     c.Redis.Password,
			DB:           c.Redis.Db,
			ReadTimeout:  c.Redis.ReadTimeout.AsDuration(),
			WriteTimeout: c.Redis.WriteTimeout.AsDuration(),
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := rdb.Ping(ctx).Err(); err != nil {
			l.Warnf("failed to connect to redis: %v", err)
			// Redis is optional, continue without it
			_ = rdb.Close()
			rdb = nil
		} else {
			l.Info("redis connected successfully")
		}
	}

	data := NewDataFromClients(db, rdb, logger)

	if c.Database.AutoMigrate {
		if err := data.Migrate(); err != nil {
			l.Errorf("failed to migrate database: %v", err)
			_ = sqlDB.Close()
			return nil, nil, err
		}
	}

	cleanup := func() {
		l.Info("closing data resources")
		if data.rdb != nil {
			if err := data.rdb.Close(); err != nil {
				l.Errorf("failed to close redis: %v", err)
			}
		}
		if err := sqlDB.Close(); err != nil {
			l.Errorf("failed to close database: %v", err)
		}
	}

	return data, cleanup, nil
}

// NewDataFromClients wraps already opened clients. rdb may be nil.
func NewDataFromClients(db *gorm.DB, rdb *redis.Client, logger log.Logger) *Data {
	return &Data{
		db:  db,
		rdb: rdb,
		log: log.NewHelper(logger),
	}
}

// Migrate creates or updates the schema
func (d *Data) Migrate() error {
	if err := d.db.AutoMigrate(&User{}, &Movie{}, &Review{}, &WatchlistEntry{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// DB returns the transaction carried by ctx, or the root handle bound to ctx
func (d *Data) DB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(contextTxKey{}).(*gorm.DB); ok {
		return tx
	}
	return d.db.WithContext(ctx)
}

// InTx runs fn in a transaction. Nested calls reuse the outer transaction
// through a savepoint.
func (d *Data) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return d.DB(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, contextTxKey{}, tx))
	})
}

// NewTransaction exposes Data as the biz transaction manager
func NewTransaction(d *Data) biz.Transaction {
	return d
}

func dialector(c *conf.Data_Database) gorm.Dialector {
	switch c.Driver {
	case "sqlite", "sqlite3":
		return sqlite.Open(c.Source)
	default:
		return postgres.Open(c.Source)
	}
}
