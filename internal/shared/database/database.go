package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"ticketly/internal/shared/config"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB holds database connections. LockNodes are the independent Redis nodes
// backing the quorum lock; they are deliberately kept as separate clients
// rather than a cluster client.
type DB struct {
	PostgreSQL *gorm.DB
	LockNodes  []*redis.Client
}

// InitDB initializes the database connections
func InitDB(cfg *config.Config) (*DB, error) {
	pg, err := initPostgreSQL(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	if err := Migrate(pg); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := MigrateConstraints(pg); err != nil {
		return nil, fmt.Errorf("failed to apply constraints: %w", err)
	}

	// Lock nodes are optional infrastructure: a node that cannot be reached at
	// startup is still registered, since the lock coordinator degrades at
	// acquire time rather than at boot.
	nodes := initLockNodes(cfg)

	return &DB{
		PostgreSQL: pg,
		LockNodes:  nodes,
	}, nil
}

// initPostgreSQL initializes PostgreSQL connection with GORM
func initPostgreSQL(cfg *config.Config) (*gorm.DB, error) {
	var gormLogger logger.Interface
	if cfg.IsDevelopment() {
		gormLogger = logger.Default.LogMode(logger.Info)
	} else {
		gormLogger = logger.Default.LogMode(logger.Silent)
	}

	gormConfig := &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		PrepareStmt:                              true,
		DisableForeignKeyConstraintWhenMigrating: true,
		// Surface unique violations as gorm.ErrDuplicatedKey so controllers
		// can map them to 409
		TranslateError: true,
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("✅ PostgreSQL connected successfully")
	return db, nil
}

// initLockNodes creates one Redis client per configured lock node
func initLockNodes(cfg *config.Config) []*redis.Client {
	nodes := make([]*redis.Client, 0, len(cfg.Lock.NodeAddrs))

	for _, addr := range cfg.Lock.NodeAddrs {
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: cfg.Lock.Password,
			DB:       cfg.Lock.DB,

			PoolSize:     10,
			MinIdleConns: 5,

			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("⚠️ Lock node %s unreachable at startup: %v", addr, err)
		} else {
			log.Printf("✅ Lock node %s connected", addr)
		}
		cancel()

		nodes = append(nodes, client)
	}

	return nodes
}

// Close closes all database connections
func (db *DB) Close() error {
	var errs []error

	if db.PostgreSQL != nil {
		if sqlDB, err := db.PostgreSQL.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close PostgreSQL: %w", err))
			}
		}
	}

	for _, node := range db.LockNodes {
		if err := node.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close lock node: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing databases: %v", errs)
	}

	log.Println("✅ All database connections closed")
	return nil
}

// HealthCheck performs health checks on all database connections.
// Unreachable lock nodes are not a health failure: the reservation path
// degrades without them.
func (db *DB) HealthCheck(ctx context.Context) error {
	if db.PostgreSQL != nil {
		sqlDB, err := db.PostgreSQL.DB()
		if err != nil {
			return fmt.Errorf("PostgreSQL health check failed: %w", err)
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("PostgreSQL ping failed: %w", err)
		}
	}

	return nil
}

// LockNodesReachable reports how many lock nodes currently answer a ping
func (db *DB) LockNodesReachable(ctx context.Context) int {
	reachable := 0
	for _, node := range db.LockNodes {
		if err := node.Ping(ctx).Err(); err == nil {
			reachable++
		}
	}
	return reachable
}

// GetPostgreSQL returns the PostgreSQL GORM instance
func (db *DB) GetPostgreSQL() *gorm.DB {
	return db.PostgreSQL
}

// GetLockNodes returns the Redis clients backing the lock coordinator
func (db *DB) GetLockNodes() []*redis.Client {
	return db.LockNodes
}
