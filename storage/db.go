// storage/db.go

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/tin-auppati/boardgame-backend/config"
	"github.com/tin-auppati/boardgame-backend/game"
)

// retryDelay is the pause between connection attempts while the database starts.
var retryDelay = 2 * time.Second

// Connect opens driver/dsn and pings it, retrying up to attempts times.
func Connect(ctx context.Context, driver, dsn string, attempts int, log *zap.Logger) (*sql.DB, error) {
	var err error
	for i := 0; i < attempts; i++ {
		var db *sql.DB
		db, err = sql.Open(driver, dsn)
		if err == nil {
			err = db.PingContext(ctx)
			if err == nil {
				if driver == config.DriverSQLite {
					// one writer at a time; the file lock would serialize us anyway
					db.SetMaxOpenConns(1)
				}
				log.Info("connected to database", zap.String("driver", driver))
				return db, nil
			}
			db.Close()
		}

		log.Warn("failed to connect to database",
			zap.String("driver", driver),
			zap.Int("attempt", i+1),
			zap.Int("attempts", attempts),
			zap.Error(err))

		if i+1 < attempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay):
			}
		}
	}
	return nil, fmt.Errorf("could not connect to database after %d attempts: %w", attempts, err)
}

// Open builds the Store selected by cfg, migrating SQL databases on the way.
// The returned close function releases the connection pool.
func Open(ctx context.Context, cfg config.Config, log *zap.Logger) (game.Store, func() error, error) {
	if cfg.DBDriver == config.DriverMemory {
		log.Info("using in-memory store")
		return NewMemory(), func() error { return nil }, nil
	}

	db, err := Connect(ctx, cfg.DBDriver, cfg.DSN(), cfg.DBConnectAttempts, log)
	if err != nil {
		return nil, nil, err
	}
	if err := Migrate(ctx, db, cfg.DBDriver); err != nil {
		db.Close()
		return nil, nil, err
	}
	return NewSQLStore(db, cfg.DBDriver), db.Close, nil
}
