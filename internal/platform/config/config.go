package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	id "inheritx/pkg/domain"
)

// Store kinds accepted by Registry.Store.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

const devSigningKey = "dev-secret-key-change-in-production"

// Config is the full process configuration.
type Config struct {
	Server   Server   `yaml:"server"`
	Log      Log      `yaml:"log"`
	Registry Registry `yaml:"registry"`
	Postgres Postgres `yaml:"postgres"`
	Redis    Redis    `yaml:"redis"`
	JWT      JWT      `yaml:"jwt"`
	Audit    Audit    `yaml:"audit"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr           string        `yaml:"addr"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	ShutdownGrace  time.Duration `yaml:"shutdown_grace"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Registry selects the registry instance and its backing store.
type Registry struct {
	ID        string        `yaml:"id"`
	Owner     string        `yaml:"owner"`
	Store     string        `yaml:"store"`
	TxTimeout time.Duration `yaml:"tx_timeout"`
}

type Postgres struct {
	URL string `yaml:"url"`
}

type Redis struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type JWT struct {
	SigningKey string        `yaml:"signing_key"`
	Issuer     string        `yaml:"issuer"`
	Audience   string        `yaml:"audience"`
	TTL        time.Duration `yaml:"ttl"`
}

// Audit controls how audit events leave the request path.
type Audit struct {
	Async     bool `yaml:"async"`
	QueueSize int  `yaml:"queue_size"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Server: Server{
			Addr:           ":8080",
			RequestTimeout: 10 * time.Second,
			ShutdownGrace:  10 * time.Second,
		},
		Log:      Log{Level: "info", Format: "json"},
		Registry: Registry{Store: StoreMemory, TxTimeout: 5 * time.Second},
		Redis: Redis{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		JWT: JWT{
			SigningKey: devSigningKey,
			Issuer:     "inheritx",
			Audience:   "inheritx-registry",
			TTL:        time.Hour,
		},
		Audit: Audit{Async: true, QueueSize: 256},
	}
}

// Load applies defaults, then the YAML file at path (if non-empty), then
// INHERITX_* environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	dur := func(key string, dst *time.Duration) {
		v, ok := lookup(key)
		if !ok || v == "" {
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = d
	}

	str("INHERITX_ADDR", &c.Server.Addr)
	str("INHERITX_LOG_LEVEL", &c.Log.Level)
	str("INHERITX_LOG_FORMAT", &c.Log.Format)
	str("INHERITX_REGISTRY_ID", &c.Registry.ID)
	str("INHERITX_REGISTRY_OWNER", &c.Registry.Owner)
	str("INHERITX_STORE", &c.Registry.Store)
	str("INHERITX_DATABASE_URL", &c.Postgres.URL)
	str("INHERITX_REDIS_URL", &c.Redis.URL)
	str("INHERITX_JWT_SIGNING_KEY", &c.JWT.SigningKey)
	str("INHERITX_JWT_ISSUER", &c.JWT.Issuer)
	str("INHERITX_JWT_AUDIENCE", &c.JWT.Audience)
	dur("INHERITX_JWT_TTL", &c.JWT.TTL)
	dur("INHERITX_TX_TIMEOUT", &c.Registry.TxTimeout)
	return errors.Join(errs...)
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error
	if _, err := c.OwnerAddress(); err != nil {
		errs = append(errs, err)
	}
	if c.Registry.ID != "" {
		if _, err := id.ParseRegistryID(c.Registry.ID); err != nil {
			errs = append(errs, fmt.Errorf("registry.id: %w", err))
		}
	}
	switch c.Registry.Store {
	case StoreMemory:
	case StorePostgres:
		if c.Postgres.URL == "" {
			errs = append(errs, errors.New("postgres.url is required for the postgres store"))
		}
	case StoreRedis:
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("redis.url is required for the redis store"))
		}
	default:
		errs = append(errs, fmt.Errorf("registry.store: unknown store %q", c.Registry.Store))
	}
	if strings.TrimSpace(c.JWT.SigningKey) == "" {
		errs = append(errs, errors.New("jwt.signing_key is required"))
	}
	if c.Registry.TxTimeout <= 0 {
		errs = append(errs, errors.New("registry.tx_timeout must be positive"))
	}
	return errors.Join(errs...)
}

// OwnerAddress parses the configured owner. The zero address is rejected.
func (c Config) OwnerAddress() (id.Address, error) {
	owner, err := id.ParseAddress(c.Registry.Owner)
	if err != nil {
		return id.Address{}, fmt.Errorf("registry.owner: %w", err)
	}
	if owner.IsZero() {
		return id.Address{}, errors.New("registry.owner: zero address cannot own a registry")
	}
	return owner, nil
}

// ResolvedRegistryID returns the configured ID or derives one from the owner.
func (c Config) ResolvedRegistryID() (id.RegistryID, error) {
	if c.Registry.ID != "" {
		return id.ParseRegistryID(c.Registry.ID)
	}
	owner, err := c.OwnerAddress()
	if err != nil {
		return id.RegistryID{}, err
	}
	return id.RegistryIDForOwner(owner), nil
}

// UsesDevSigningKey reports whether the built-in development key is active.
func (c Config) UsesDevSigningKey() bool {
	return c.JWT.SigningKey == devSigningKey
}
