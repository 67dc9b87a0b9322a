package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFile is read when no --config flag is given and the file exists.
const DefaultFile = "flowdeck.yaml"

// Store drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
	DriverNeo4j  = "neo4j"
	DriverLoam   = "loam"
	DriverREST   = "rest"
)

// Config is the root of flowdeck.yaml.
type Config struct {
	Server     Server     `yaml:"server"`
	Store      Store      `yaml:"store"`
	Backend    Backend    `yaml:"backend"`
	Socket     Socket     `yaml:"socket"`
	Log        Log        `yaml:"log"`
	Encryption Encryption `yaml:"encryption"`
}

// Server configures the HTTP API.
type Server struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Store selects and configures the flow store.
type Store struct {
	Driver string `yaml:"driver"`
	// Directory of the file and loam drivers; the sqlite driver keeps its database in it.
	Path    string        `yaml:"path"`
	Redis   Redis         `yaml:"redis"`
	Neo4j   Neo4j         `yaml:"neo4j"`
	Loam    Loam          `yaml:"loam"`
	LockTTL time.Duration `yaml:"lock_ttl"`
	// Masks e-mail addresses and phone numbers before saving.
	MaskPII bool `yaml:"mask_pii"`
}

// Redis configures the redis driver and the distributed locker.
type Redis struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
	Lock     bool          `yaml:"lock"`
}

// Neo4j configures the neo4j driver.
type Neo4j struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// Loam configures the loam driver.
type Loam struct {
	// Commits every save to a git repository in store.path.
	Versioning bool `yaml:"versioning"`
}

// Backend locates the platform REST API.
type Backend struct {
	URL          string `yaml:"url"`
	Token        string `yaml:"token"`
	FlowPath     string `yaml:"flow_path"`
	MediaPath    string `yaml:"media_path"`
	MessagesPath string `yaml:"messages_path"`
}

// Socket locates the conversation websocket.
type Socket struct {
	URL       string        `yaml:"url"`
	Reconnect time.Duration `yaml:"reconnect"`
}

// Log configures logging.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Encryption configures encryption at rest. The first key encrypts;
// the others only decrypt.
type Encryption struct {
	Keys []string `yaml:"keys"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Server: Server{Addr: ":8080", ShutdownTimeout: 10 * time.Second},
		Store: Store{
			Driver:  DriverMemory,
			Path:    ".flowdeck/flows",
			LockTTL: 30 * time.Second,
			Redis:   Redis{Addr: "localhost:6379", Prefix: "flowdeck:flow:"},
			Neo4j:   Neo4j{URI: "neo4j://localhost:7687", Username: "neo4j", Database: "neo4j"},
		},
		Socket: Socket{Reconnect: 5 * time.Second},
		Log:    Log{Level: "info", Format: "text"},
	}
}

// Load reads path over the defaults, then applies FLOWDECK_* environment overrides.
// An empty path reads DefaultFile if present.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	case err != nil:
		return Config{}, fmt.Errorf("read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overrides cfg with FLOWDECK_* variables found by lookup.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok {
			*dst = v
		}
	}
	var errs []error
	dur := func(name string, dst *time.Duration) {
		if v, ok := lookup(name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = d
		}
	}
	num := func(name string, dst *int) {
		if v, ok := lookup(name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = n
		}
	}
	flag := func(name string, dst *bool) {
		if v, ok := lookup(name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = b
		}
	}

	str("FLOWDECK_ADDR", &cfg.Server.Addr)
	dur("FLOWDECK_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)

	str("FLOWDECK_STORE", &cfg.Store.Driver)
	str("FLOWDECK_STORE_PATH", &cfg.Store.Path)
	dur("FLOWDECK_LOCK_TTL", &cfg.Store.LockTTL)
	flag("FLOWDECK_MASK_PII", &cfg.Store.MaskPII)

	str("FLOWDECK_REDIS_ADDR", &cfg.Store.Redis.Addr)
	str("FLOWDECK_REDIS_PASSWORD", &cfg.Store.Redis.Password)
	num("FLOWDECK_REDIS_DB", &cfg.Store.Redis.DB)
	str("FLOWDECK_REDIS_PREFIX", &cfg.Store.Redis.Prefix)
	dur("FLOWDECK_REDIS_TTL", &cfg.Store.Redis.TTL)
	flag("FLOWDECK_REDIS_LOCK", &cfg.Store.Redis.Lock)

	flag("FLOWDECK_LOAM_VERSIONING", &cfg.Store.Loam.Versioning)

	str("FLOWDECK_NEO4J_URI", &cfg.Store.Neo4j.URI)
	str("FLOWDECK_NEO4J_USERNAME", &cfg.Store.Neo4j.Username)
	str("FLOWDECK_NEO4J_PASSWORD", &cfg.Store.Neo4j.Password)
	str("FLOWDECK_NEO4J_DATABASE", &cfg.Store.Neo4j.Database)

	str("FLOWDECK_BACKEND_URL", &cfg.Backend.URL)
	str("FLOWDECK_BACKEND_TOKEN", &cfg.Backend.Token)
	str("FLOWDECK_SOCKET_URL", &cfg.Socket.URL)
	dur("FLOWDECK_SOCKET_RECONNECT", &cfg.Socket.Reconnect)

	str("FLOWDECK_LOG_LEVEL", &cfg.Log.Level)
	str("FLOWDECK_LOG_FORMAT", &cfg.Log.Format)

	if v, ok := lookup("FLOWDECK_ENCRYPTION_KEYS"); ok {
		cfg.Encryption.Keys = splitList(v)
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory, DriverFile, DriverRedis, DriverSQLite, DriverNeo4j, DriverLoam:
	case DriverREST:
		if c.Backend.URL == "" {
			return errors.New("store driver rest requires backend.url")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Store.Redis.Lock && c.Store.Redis.Addr == "" {
		return errors.New("redis lock requires store.redis.addr")
	}
	return nil
}
