package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"pm-functions/internal/platform/paths"
)

var ErrNotFound = errors.New("config not found")

const (
	FileName  = "pm-functions.yaml"
	EnvPrefix = "PM_"

	// ConnectionStringEnv is the variable the function host provides.
	ConnectionStringEnv = "SqlConnectionString"
)

// Load merges, lowest priority first: defaults, the YAML file, PM_*
// environment variables, explicitly set flags, and SqlConnectionString.
//
// An explicit path must exist. Without one, pm-functions.yaml in the working
// directory and then the machine-wide path are tried; finding neither is
// not an error.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultMap(), "."), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	cfgPath, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}
	if cfgPath != "" {
		if err := k.Load(file.Provider(cfgPath), kyaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", cfgPath, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return Config{}, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if cs := strings.TrimSpace(os.Getenv(ConnectionStringEnv)); cs != "" {
		cfg.DB.ConnectionString = cs
	}

	return cfg, nil
}

// flagKeys maps CLI flag names to config keys.
var flagKeys = map[string]string{
	"listen":     "apiListen",
	"debug":      "debug",
	"log-format": "log.format",
	"log-file":   "log.file",
}

// envKey turns PM_DB__CONNECTIONSTRING into db.connectionString. Unknown
// variables are skipped.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	key = strings.ReplaceAll(key, "__", ".")
	return knownKeys[key]
}

func resolvePath(explicit string) (string, error) {
	explicit = strings.TrimSpace(explicit)
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", ErrNotFound
			}
			return "", err
		}
		return explicit, nil
	}

	if _, err := os.Stat(FileName); err == nil {
		return FileName, nil
	}

	p, err := paths.ConfigFilePath()
	if err != nil {
		return "", nil
	}
	if _, err := os.Stat(p); err == nil {
		return p, nil
	}
	return "", nil
}

func (c Config) Validate() error {
	if !slices.Contains(DBDriverValues(), c.DB.Driver) {
		return fmt.Errorf("unsupported driver: %q (supported: %s)", c.DB.Driver, strings.Join(DBDriverOptions(), ", "))
	}

	if strings.TrimSpace(c.DB.ConnectionString) == "" {
		if strings.TrimSpace(c.DB.Host) == "" {
			return errors.New("db.host or db.connectionString is required")
		}
		if c.DB.Port <= 0 || c.DB.Port > 65535 {
			return errors.New("db.port is invalid")
		}
	}

	return validateListenAddr(strings.TrimSpace(c.APIListen))
}

func validateListenAddr(addr string) error {
	if addr == "" {
		return errors.New("apiListen is required")
	}

	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return errors.New("apiListen must be in host:port format")
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return errors.New("apiListen port is invalid")
	}

	return nil
}

// Save writes cfg as YAML, replacing path atomically.
func Save(path string, cfg Config) error {
	if strings.TrimSpace(path) == "" {
		p, err := paths.ConfigFilePath()
		if err != nil {
			return err
		}
		path = p
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "config-*.tmp")
	if err != nil {
		return err
	}

	tmpName := tmp.Name()

	_ = tmp.Chmod(0o600)

	_, writeErr := tmp.Write(out)

	syncErr := tmp.Sync()

	closeErr := tmp.Close()

	if writeErr != nil || syncErr != nil || closeErr != nil {
		_ = os.Remove(tmpName)
		if writeErr != nil {
			return writeErr
		}
		if syncErr != nil {
			return syncErr
		}
		return closeErr
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}

	return nil
}
