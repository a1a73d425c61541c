// internal/storage/mysql.go
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/Annany2002/nebula-query-gateway/internal/domain"
)

// MySQLOptions are driver-native limits applied to every connection.
// Zero values keep the driver defaults.
type MySQLOptions struct {
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewMySQLConfig builds the driver configuration for one request.
// Multi-statement support stays disabled.
func NewMySQLConfig(params domain.ConnParams, opts MySQLOptions) *mysql.Config {
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = params.Addr()
	cfg.DBName = params.Database
	cfg.User = params.User
	cfg.Passwd = params.Password
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.MultiStatements = false
	cfg.Timeout = opts.DialTimeout
	cfg.ReadTimeout = opts.ReadTimeout
	cfg.WriteTimeout = opts.WriteTimeout
	return cfg
}

// MySQLOpener returns an Opener that dials a fresh MySQL connection for
// every call and verifies it with a ping. The pinged connection stays idle
// and is reused by Execute.
func MySQLOpener(opts MySQLOptions) Opener {
	return func(ctx context.Context, params domain.ConnParams) (*sql.DB, error) {
		connector, err := mysql.NewConnector(NewMySQLConfig(params, opts))
		if err != nil {
			return nil, fmt.Errorf("invalid connection parameters: %w", err)
		}

		db := sql.OpenDB(connector)
		singleConn(db)
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	}
}
