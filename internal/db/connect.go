package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/microsoft/go-mssqldb"

	"pm-functions/internal/config"
)

const driverSQLServer = "sqlserver"

type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
}

func DefaultOptions() Options {
	return Options{
		MaxOpenConns:    10,
		MaxIdleConns:    10,
		ConnMaxLifetime: 30 * time.Minute,
		PingTimeout:     5 * time.Second,
	}
}

// OptionsFrom takes pool settings from cfg, falling back to defaults for
// unset values.
func OptionsFrom(cfg config.DBConfig) Options {
	opt := DefaultOptions()
	if cfg.MaxOpenConns > 0 {
		opt.MaxOpenConns = cfg.MaxOpenConns
	}
	if cfg.MaxIdleConns > 0 {
		opt.MaxIdleConns = cfg.MaxIdleConns
	}
	if cfg.ConnMaxLifetime > 0 {
		opt.ConnMaxLifetime = cfg.ConnMaxLifetime
	}
	if cfg.PingTimeout > 0 {
		opt.PingTimeout = cfg.PingTimeout
	}
	return opt
}

func Open(cfg config.DBConfig, password string, opt Options) (*sql.DB, error) {
	driverName, dsn, err := buildDSN(cfg, password)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}

	if opt.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opt.MaxOpenConns)
	}
	if opt.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opt.MaxIdleConns)
	}
	if opt.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opt.ConnMaxLifetime)
	}

	if opt.PingTimeout <= 0 {
		opt.PingTimeout = 5 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), opt.PingTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// buildDSN prefers an explicit connection string, which go-mssqldb accepts
// in ADO (server=...;user id=...), ODBC and URL forms.
func buildDSN(cfg config.DBConfig, password string) (driverName string, dsn string, err error) {
	switch cfg.Driver {
	case config.DBDriverMSSQL, "":
	default:
		return "", "", fmt.Errorf("unsupported driver: %q", cfg.Driver)
	}

	if cs := strings.TrimSpace(cfg.ConnectionString); cs != "" {
		return driverSQLServer, cs, nil
	}

	host := strings.TrimSpace(cfg.Host)
	port := cfg.Port
	user := cfg.User
	dbName := cfg.Database

	if host == "" {
		return "", "", errors.New("db.host is required")
	}
	if port <= 0 || port > 65535 {
		return "", "", errors.New("db.port is invalid")
	}
	if user == "" {
		return "", "", errors.New("db.user is required")
	}

	u := &url.URL{
		Scheme: driverSQLServer,
		User:   url.UserPassword(user, password),
		Host:   fmt.Sprintf("%s:%d", host, port),
	}
	q := url.Values{}
	if dbName != "" {
		q.Set("database", dbName)
	}
	u.RawQuery = q.Encode()

	return driverSQLServer, u.String(), nil
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

func TestConnection(ctx context.Context, p Pinger) error {
	if p == nil {
		return errors.New("db connection is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return p.PingContext(ctx)
}
