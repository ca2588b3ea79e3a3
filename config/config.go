// Package config loads sortnet settings. Values are layered: built-in
// defaults, then an optional TOML file, then a .env file and SORTNET_*
// environment variables. Command line arguments are applied last by the
// caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/cyberinferno/sortnet/logger"
)

const EnvPrefix = "SORTNET_"

// Admission policy names.
const (
	AdmissionUnbounded = "unbounded"
	AdmissionBounded   = "bounded"
	AdmissionRate      = "rate"
)

// Cache backend names.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

type Server struct {
	Host           string
	Port           int
	Admission      string
	MaxConnections int64
	AcceptRate     float64
	Burst          int
}

type Client struct {
	Host    string
	Port    int
	Timeout time.Duration
}

type Log struct {
	Level   string
	Dir     string
	Service string
}

type Cache struct {
	Backend       string
	TTL           time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

type Metrics struct {
	// Addr is where /metrics is served; empty disables the endpoint.
	Addr string
}

type Config struct {
	Server  Server
	Client  Client
	Log     Log
	Cache   Cache
	Metrics Metrics
}

// Default returns the settings used when nothing else is configured.
func Default() Config {
	return Config{
		Server: Server{
			Host:           "localhost",
			Port:           8080,
			Admission:      AdmissionUnbounded,
			MaxConnections: 64,
			AcceptRate:     100,
			Burst:          10,
		},
		Client: Client{
			Host:    "localhost",
			Port:    8080,
			Timeout: 5 * time.Second,
		},
		Log: Log{
			Level:   "info",
			Service: "sortnet",
		},
		Cache: Cache{
			Backend:   CacheNone,
			TTL:       5 * time.Minute,
			RedisAddr: "localhost:6379",
		},
	}
}

// Load builds a Config from defaults, the TOML file at path (skipped when
// path is empty), the .env file at envFile (skipped when missing) and the
// process environment, then validates the result.
//
// Parameters:
//   - path: Optional TOML config file
//   - envFile: Optional dotenv file, usually ".env"
//
// Returns:
//   - The merged Config, or an error naming the first layer that failed
func Load(path, envFile string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.LoadEnv(envFile); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

type fileConfig struct {
	Server struct {
		Host           string  `toml:"host"`
		Port           int     `toml:"port"`
		Admission      string  `toml:"admission"`
		MaxConnections int64   `toml:"max_connections"`
		AcceptRate     float64 `toml:"accept_rate"`
		Burst          int     `toml:"burst"`
	} `toml:"server"`
	Client struct {
		Host    string `toml:"host"`
		Port    int    `toml:"port"`
		Timeout string `toml:"timeout"`
	} `toml:"client"`
	Log struct {
		Level   string `toml:"level"`
		Dir     string `toml:"dir"`
		Service string `toml:"service"`
	} `toml:"log"`
	Cache struct {
		Backend       string `toml:"backend"`
		TTL           string `toml:"ttl"`
		RedisAddr     string `toml:"redis_addr"`
		RedisPassword string `toml:"redis_password"`
		RedisDB       int    `toml:"redis_db"`
	} `toml:"cache"`
	Metrics struct {
		Addr string `toml:"addr"`
	} `toml:"metrics"`
}

// LoadFile overlays the keys present in the TOML file at path. Keys that
// are absent leave the current values untouched.
func (c *Config) LoadFile(path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("load config %s: unknown key %q", path, undecoded[0].String())
	}

	if meta.IsDefined("server", "host") {
		c.Server.Host = strings.TrimSpace(raw.Server.Host)
	}
	if meta.IsDefined("server", "port") {
		c.Server.Port = raw.Server.Port
	}
	if meta.IsDefined("server", "admission") {
		c.Server.Admission = strings.TrimSpace(raw.Server.Admission)
	}
	if meta.IsDefined("server", "max_connections") {
		c.Server.MaxConnections = raw.Server.MaxConnections
	}
	if meta.IsDefined("server", "accept_rate") {
		c.Server.AcceptRate = raw.Server.AcceptRate
	}
	if meta.IsDefined("server", "burst") {
		c.Server.Burst = raw.Server.Burst
	}

	if meta.IsDefined("client", "host") {
		c.Client.Host = strings.TrimSpace(raw.Client.Host)
	}
	if meta.IsDefined("client", "port") {
		c.Client.Port = raw.Client.Port
	}
	if meta.IsDefined("client", "timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Client.Timeout))
		if err != nil {
			return fmt.Errorf("parse client.timeout: %w", err)
		}
		c.Client.Timeout = d
	}

	if meta.IsDefined("log", "level") {
		c.Log.Level = strings.TrimSpace(raw.Log.Level)
	}
	if meta.IsDefined("log", "dir") {
		c.Log.Dir = strings.TrimSpace(raw.Log.Dir)
	}
	if meta.IsDefined("log", "service") {
		c.Log.Service = strings.TrimSpace(raw.Log.Service)
	}

	if meta.IsDefined("cache", "backend") {
		c.Cache.Backend = strings.TrimSpace(raw.Cache.Backend)
	}
	if meta.IsDefined("cache", "ttl") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Cache.TTL))
		if err != nil {
			return fmt.Errorf("parse cache.ttl: %w", err)
		}
		c.Cache.TTL = d
	}
	if meta.IsDefined("cache", "redis_addr") {
		c.Cache.RedisAddr = strings.TrimSpace(raw.Cache.RedisAddr)
	}
	if meta.IsDefined("cache", "redis_password") {
		c.Cache.RedisPassword = raw.Cache.RedisPassword
	}
	if meta.IsDefined("cache", "redis_db") {
		c.Cache.RedisDB = raw.Cache.RedisDB
	}

	if meta.IsDefined("metrics", "addr") {
		c.Metrics.Addr = strings.TrimSpace(raw.Metrics.Addr)
	}

	return nil
}

// LoadEnv loads envFile into the process environment without overriding
// variables that are already set, then applies every SORTNET_* variable.
// A missing envFile is not an error.
func (c *Config) LoadEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	loaders := []func() error{
		func() error { return loadEnvString(&c.Server.Host, "SERVER_HOST") },
		func() error { return loadEnvInt(&c.Server.Port, "SERVER_PORT") },
		func() error { return loadEnvString(&c.Server.Admission, "ADMISSION") },
		func() error { return loadEnvInt64(&c.Server.MaxConnections, "MAX_CONNECTIONS") },
		func() error { return loadEnvFloat(&c.Server.AcceptRate, "ACCEPT_RATE") },
		func() error { return loadEnvInt(&c.Server.Burst, "BURST") },
		func() error { return loadEnvString(&c.Client.Host, "CLIENT_HOST") },
		func() error { return loadEnvInt(&c.Client.Port, "CLIENT_PORT") },
		func() error { return loadEnvDuration(&c.Client.Timeout, "CLIENT_TIMEOUT") },
		func() error { return loadEnvString(&c.Log.Level, "LOG_LEVEL") },
		func() error { return loadEnvString(&c.Log.Dir, "LOG_DIR") },
		func() error { return loadEnvString(&c.Log.Service, "LOG_SERVICE") },
		func() error { return loadEnvString(&c.Cache.Backend, "CACHE_BACKEND") },
		func() error { return loadEnvDuration(&c.Cache.TTL, "CACHE_TTL") },
		func() error { return loadEnvString(&c.Cache.RedisAddr, "REDIS_ADDR") },
		func() error { return loadEnvString(&c.Cache.RedisPassword, "REDIS_PASSWORD") },
		func() error { return loadEnvInt(&c.Cache.RedisDB, "REDIS_DB") },
		func() error { return loadEnvString(&c.Metrics.Addr, "METRICS_ADDR") },
	}

	for _, load := range loaders {
		if err := load(); err != nil {
			return err
		}
	}

	return nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error

	if c.Server.Host == "" {
		errs = append(errs, errors.New("server.host must not be empty"))
	}
	if err := validatePort("server.port", c.Server.Port); err != nil {
		errs = append(errs, err)
	}

	switch c.Server.Admission {
	case AdmissionUnbounded:
	case AdmissionBounded:
		if c.Server.MaxConnections <= 0 {
			errs = append(errs, fmt.Errorf("server.max_connections must be positive, got %d", c.Server.MaxConnections))
		}
	case AdmissionRate:
		if c.Server.AcceptRate <= 0 {
			errs = append(errs, fmt.Errorf("server.accept_rate must be positive, got %v", c.Server.AcceptRate))
		}
		if c.Server.Burst <= 0 {
			errs = append(errs, fmt.Errorf("server.burst must be positive, got %d", c.Server.Burst))
		}
	default:
		errs = append(errs, fmt.Errorf("server.admission %q is not one of %s, %s, %s",
			c.Server.Admission, AdmissionUnbounded, AdmissionBounded, AdmissionRate))
	}

	if c.Client.Host == "" {
		errs = append(errs, errors.New("client.host must not be empty"))
	}
	if err := validatePort("client.port", c.Client.Port); err != nil {
		errs = append(errs, err)
	}
	if c.Client.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("client.timeout must be positive, got %s", c.Client.Timeout))
	}

	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	switch c.Cache.Backend {
	case CacheNone, "":
	case CacheMemory:
		if c.Cache.TTL <= 0 {
			errs = append(errs, fmt.Errorf("cache.ttl must be positive for the memory backend, got %s", c.Cache.TTL))
		}
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			errs = append(errs, errors.New("cache.redis_addr must be set for the redis backend"))
		}
		if c.Cache.TTL < 0 {
			errs = append(errs, fmt.Errorf("cache.ttl must not be negative, got %s", c.Cache.TTL))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.backend %q is not one of %s, %s, %s",
			c.Cache.Backend, CacheNone, CacheMemory, CacheRedis))
	}

	return errors.Join(errs...)
}

func validatePort(name string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s must be between 1 and 65535, got %d", name, port)
	}
	return nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func loadEnvString(target *string, key string) error {
	if v, ok := lookup(key); ok {
		*target = v
	}
	return nil
}

func loadEnvInt(target *int, key string) error {
	v, ok := lookup(key)
	if !ok || v == "" {
		return nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
	}
	*target = n
	return nil
}

func loadEnvInt64(target *int64, key string) error {
	v, ok := lookup(key)
	if !ok || v == "" {
		return nil
	}

	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
	}
	*target = n
	return nil
}

func loadEnvFloat(target *float64, key string) error {
	v, ok := lookup(key)
	if !ok || v == "" {
		return nil
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
	}
	*target = f
	return nil
}

func loadEnvDuration(target *time.Duration, key string) error {
	v, ok := lookup(key)
	if !ok || v == "" {
		return nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
	}
	*target = d
	return nil
}
