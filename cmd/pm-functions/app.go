package main

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"pm-functions/internal/config"
	"pm-functions/internal/db"
	"pm-functions/internal/gateway"
	"pm-functions/internal/logger"
	"pm-functions/internal/secrets"
)

// openDB is replaced in tests.
var openDB = db.Open

type app struct {
	cfg    config.Config
	logSvc logger.LoggerService
	dbConn *sql.DB
	gw     *gateway.Gateway
}

func openApp(configPath string, flags *pflag.FlagSet) (*app, error) {
	bootstrapLog := logger.NewStderr()

	cfg, err := config.Load(configPath, flags)
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			return nil, fmt.Errorf("config %s not found; run `pm-functions config init` to create it", configPath)
		}
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	a := &app{cfg: cfg}

	logSvc, err := logger.New(cfg)
	if err != nil {
		bootstrapLog.Error("logger init failed; using stderr", err)
		logSvc = bootstrapLog
	}
	a.logSvc = logSvc

	password, err := dbPassword(cfg.DB)
	if err != nil {
		a.Close()
		return nil, err
	}

	dbConn, err := openDB(cfg.DB, password, db.OptionsFrom(cfg.DB))
	if err != nil {
		logSvc.Error("db connection failed", err)
		a.Close()
		return nil, fmt.Errorf("db connection failed: %w", err)
	}
	a.dbConn = dbConn

	a.gw = gateway.New(dbConn,
		gateway.WithLogger(logSvc.With("component", "gateway")),
		gateway.WithTimeout(cfg.DB.QueryTimeout),
	)
	return a, nil
}

func (a *app) Close() {
	if a.dbConn != nil {
		_ = a.dbConn.Close()
	}
	if a.logSvc != nil {
		_ = a.logSvc.Close()
	}
}

// dbPassword prefers an inline password, then the password file. A
// connection string carries its own credentials.
func dbPassword(cfg config.DBConfig) (string, error) {
	if cfg.Password != "" || strings.TrimSpace(cfg.ConnectionString) != "" {
		return cfg.Password, nil
	}
	if strings.TrimSpace(cfg.PasswordFile) == "" {
		return "", nil
	}
	b, err := secrets.ReadFile(cfg.PasswordFile)
	if err != nil {
		return "", fmt.Errorf("read db password: %w", err)
	}
	return string(b), nil
}
