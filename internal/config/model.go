package config

import (
	"strings"
	"time"
)

type DBDriver string

const (
	DBDriverMSSQL DBDriver = "mssql"
)

const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

type DBConfig struct {
	Driver           DBDriver      `yaml:"driver"`
	ConnectionString string        `yaml:"connectionString,omitempty"`
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	User             string        `yaml:"user"`
	Password         string        `yaml:"password,omitempty"`
	PasswordFile     string        `yaml:"passwordFile,omitempty"`
	Database         string        `yaml:"database"`
	MaxOpenConns     int           `yaml:"maxOpenConns"`
	MaxIdleConns     int           `yaml:"maxIdleConns"`
	ConnMaxLifetime  time.Duration `yaml:"connMaxLifetime"`
	PingTimeout      time.Duration `yaml:"pingTimeout"`
	QueryTimeout     time.Duration `yaml:"queryTimeout"`
}

type LogConfig struct {
	File   string `yaml:"file,omitempty"`
	Format string `yaml:"format"`
}

type Config struct {
	APIListen string    `yaml:"apiListen"`
	Debug     bool      `yaml:"debug"`
	DB        DBConfig  `yaml:"db"`
	Log       LogConfig `yaml:"log"`
}

func DBDriverValues() []DBDriver {
	return []DBDriver{DBDriverMSSQL}
}

func DBDriverOptions() []string {
	vals := DBDriverValues()
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		out = append(out, string(v))
	}
	return out
}

func Default() Config {
	return Config{
		APIListen: "0.0.0.0:7071",
		DB: DBConfig{
			Driver:          DBDriverMSSQL,
			Host:            "localhost",
			Port:            1433,
			MaxOpenConns:    10,
			MaxIdleConns:    10,
			ConnMaxLifetime: 30 * time.Minute,
			PingTimeout:     5 * time.Second,
			QueryTimeout:    30 * time.Second,
		},
		Log: LogConfig{
			Format: LogFormatText,
		},
	}
}

// defaultMap is Default flattened to koanf keys.
func defaultMap() map[string]any {
	d := Default()
	return map[string]any{
		"apiListen":          d.APIListen,
		"debug":              d.Debug,
		"db.driver":          string(d.DB.Driver),
		"db.host":            d.DB.Host,
		"db.port":            d.DB.Port,
		"db.maxOpenConns":    d.DB.MaxOpenConns,
		"db.maxIdleConns":    d.DB.MaxIdleConns,
		"db.connMaxLifetime": d.DB.ConnMaxLifetime.String(),
		"db.pingTimeout":     d.DB.PingTimeout.String(),
		"db.queryTimeout":    d.DB.QueryTimeout.String(),
		"log.format":         d.Log.Format,
	}
}

// knownKeys maps lower-cased keys to their canonical form so env variables
// and flags land on the same key as the YAML file.
var knownKeys = func() map[string]string {
	keys := []string{
		"apiListen", "debug",
		"db.driver", "db.connectionString", "db.host", "db.port", "db.user",
		"db.password", "db.passwordFile", "db.database", "db.maxOpenConns",
		"db.maxIdleConns", "db.connMaxLifetime", "db.pingTimeout", "db.queryTimeout",
		"log.file", "log.format",
	}
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		out[strings.ToLower(k)] = k
	}
	return out
}()
