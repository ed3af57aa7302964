package postgres

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"pricefeed_api/config"
)

const maxRetries = 10
const dbMaxOpenConns = 20
const retryDelay = 5 * time.Second

type PostgresDatabase struct {
	config.DbConfig
	logger *zap.Logger
	db     *sql.DB
	mu     sync.Mutex
	// retries and delay are overridable in tests
	retries int
	delay   time.Duration
}

func NewPgConnector(dbConfig config.DbConfig, logger *zap.Logger) *PostgresDatabase {
	return &PostgresDatabase{
		DbConfig: dbConfig,
		logger:   logger.Named("postgres"),
		retries:  maxRetries,
		delay:    retryDelay,
	}
}

func (pg *PostgresDatabase) Connect() (*sql.DB, error) {
	pg.mu.Lock()
	defer pg.mu.Unlock()

	if pg.db != nil {
		return pg.db, nil
	}

	var err error
	conStr := pg.GetConnectionString()

	for i := 0; i < pg.retries; i++ {
		var db *sql.DB
		db, err = sql.Open("postgres", conStr)
		if err != nil {
			pg.logger.Warn("failed to open postgres",
				zap.Int("attempt", i+1), zap.Int("max", pg.retries), zap.Error(err))
			time.Sleep(pg.delay)
			continue
		}

		db.SetMaxOpenConns(dbMaxOpenConns)

		if err = db.Ping(); err != nil {
			pg.logger.Warn("failed to ping postgres",
				zap.Int("attempt", i+1), zap.Int("max", pg.retries), zap.Error(err))
			db.Close()
			time.Sleep(pg.delay)
			continue
		}

		pg.logger.Info("connected to postgres")
		pg.db = db
		return pg.db, nil
	}
	return nil, fmt.Errorf("postgres unreachable after %d attempts: %w", pg.retries, err)
}

func (pg *PostgresDatabase) Ping() error {
	pg.mu.Lock()
	defer pg.mu.Unlock()

	if pg.db == nil {
		return fmt.Errorf("database connection is not established")
	}

	if err := pg.db.Ping(); err != nil {
		pg.db.Close()
		pg.db = nil
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

func (pg *PostgresDatabase) Close() error {
	pg.mu.Lock()
	defer pg.mu.Unlock()

	if pg.db == nil {
		return nil
	}
	err := pg.db.Close()
	pg.db = nil
	return err
}
