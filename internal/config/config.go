package config

import (
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/krarar/debt-manager/pkg/logger"
	"github.com/pkg/errors"
)

const ConfigTagName = "env"
const ConfigDefaultTagName = "default"

var config *Config

// Config holds every tunable of the ledger binaries. Only this struct
// must be used to read configuration; no direct access to env or files.
type Config struct {
	AppEnv   string `env:"APP_ENV,default=dev"`
	AppName  string `env:"APP_NAME,default=debt_manager"`
	AppDebug bool   `env:"APP_DEBUG,default=true"`

	HttpListenAddr string `env:"HTTP_LISTEN_ADDR,default=:8080"`
	MetricsAddr    string `env:"METRICS_ADDR,default=:9100"`
	MetricsURI     string `env:"METRICS_URI,default=/metrics"`

	StorePath  string `env:"STORE_PATH,default=debts.db"`
	StoreDebug bool   `env:"STORE_DEBUG,default=false"`

	RedisAddr               string `env:"REDIS_ADDR,default=localhost:6379"`
	RedisUsername           string `env:"REDIS_USER"`
	RedisPassword           string `env:"REDIS_PASS"`
	RedisDatabase           int    `env:"REDIS_DATABASE,default=0"`
	RedisUniversalKeyPrefix string `env:"REDIS_UNIVERSAL_KEY_PREFIX"`

	PromNamespace string `env:"PROM_NAMESPACE,default=debt_manager"`

	SyncMaxRetries    int           `env:"SYNC_MAX_RETRIES,default=3"`
	SyncDebounce      time.Duration `env:"SYNC_DEBOUNCE,default=1s"`
	SyncProbeInterval time.Duration `env:"SYNC_PROBE_INTERVAL,default=30s"`
	SyncLockTTL       time.Duration `env:"SYNC_LOCK_TTL,default=30s"`
	// SyncInterval drives periodic cycles in cmd/syncer; zero disables them.
	SyncInterval time.Duration `env:"SYNC_INTERVAL,default=5m"`
}

func Load(path string) error {
	logger.Info("loading configs..", "path", path)
	c := &Config{}
	var err error
	if path != "" {
		logger.Info("trying to publish env from file", "path", path)
		err = godotenv.Load(path)
		if err != nil {
			return errors.Wrapf(err, "failed to load configuration file %s", path)
		}
	}

	_, err = env.UnmarshalFromEnviron(c)
	if err != nil {
		return errors.Wrap(err, "failed to map env variables to Configuration object")
	}

	config = c
	return nil
}

func Get() *Config {
	if config == nil {
		logger.Panic("Config is not initialized")
	}
	return config
}

// Set installs c as the active configuration; used by tests and tools
// that build the config in code.
func Set(c *Config) {
	config = c
}
