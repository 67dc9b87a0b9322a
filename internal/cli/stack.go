package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/flowdeck"
	"github.com/aretw0/flowdeck/internal/config"
	"github.com/aretw0/flowdeck/pkg/adapters/file"
	"github.com/aretw0/flowdeck/pkg/adapters/loam"
	"github.com/aretw0/flowdeck/pkg/adapters/memory"
	"github.com/aretw0/flowdeck/pkg/adapters/neo4j"
	"github.com/aretw0/flowdeck/pkg/adapters/redis"
	"github.com/aretw0/flowdeck/pkg/adapters/rest"
	"github.com/aretw0/flowdeck/pkg/adapters/socket"
	"github.com/aretw0/flowdeck/pkg/adapters/sqlite"
	"github.com/aretw0/flowdeck/pkg/conversation"
	"github.com/aretw0/flowdeck/pkg/domain"
	"github.com/aretw0/flowdeck/pkg/persistence/middleware"
	"github.com/aretw0/flowdeck/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
)

// SQLiteFile is the database name created under store.path by the sqlite driver.
const SQLiteFile = "flowdeck.db"

// Stack holds the adapters selected by a Config.
type Stack struct {
	Store   ports.FlowStore
	Media   ports.MediaLibrary
	History ports.MessageHistory
	Locker  ports.DistributedLocker
	Logger  *slog.Logger

	cfg     config.Config
	backend *rest.Client
	redis   *goredis.Client
	closers []func() error
}

// StackOption configures Build.
type StackOption func(*stackOptions)

type stackOptions struct {
	registerer prometheus.Registerer
	logger     *slog.Logger
}

// WithRegisterer instruments the store with Prometheus collectors.
func WithRegisterer(reg prometheus.Registerer) StackOption {
	return func(o *stackOptions) {
		o.registerer = reg
	}
}

// WithLogger overrides the logger derived from cfg.Log.
func WithLogger(logger *slog.Logger) StackOption {
	return func(o *stackOptions) {
		o.logger = logger
	}
}

// Build opens the store, media library, history and locker described by cfg.
// The returned Stack must be closed.
func Build(ctx context.Context, cfg config.Config, opts ...StackOption) (*Stack, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := stackOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		logger, err := NewLogger(cfg.Log)
		if err != nil {
			return nil, err
		}
		o.logger = logger
	}

	s := &Stack{cfg: cfg, Logger: o.logger}
	if cfg.Backend.URL != "" {
		client, err := rest.New(rest.Config{
			BaseURL:      cfg.Backend.URL,
			Token:        cfg.Backend.Token,
			FlowPath:     cfg.Backend.FlowPath,
			MediaPath:    cfg.Backend.MediaPath,
			MessagesPath: cfg.Backend.MessagesPath,
		}, rest.WithLogger(o.logger))
		if err != nil {
			return nil, err
		}
		s.backend = client
		s.Media = client
		s.History = client
	} else {
		s.Media = memory.NewMediaLibrary()
	}

	store, err := s.openStore(ctx)
	if err != nil {
		s.Close()
		return nil, err
	}

	var mws []middleware.Middleware
	if o.registerer != nil {
		mws = append(mws, middleware.NewMetricsMiddleware(middleware.NewStoreMetrics(o.registerer)))
	}
	if cfg.Store.MaskPII {
		mws = append(mws, middleware.NewPIIMiddleware(middleware.DefaultPIIPatterns))
	}
	if len(cfg.Encryption.Keys) > 0 {
		enc, err := middleware.ParseKeys(cfg.Encryption.Keys)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("encryption: %w", err)
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(enc))
	}
	s.Store = middleware.Chain(store, mws...)

	if cfg.Store.Redis.Lock {
		s.Locker = redis.NewLocker(s.redisClient(), cfg.Store.Redis.Prefix)
	}

	o.logger.Debug("store ready", "driver", cfg.Store.Driver, "middlewares", len(mws), "locker", s.Locker != nil)
	return s, nil
}

func (s *Stack) redisClient() *goredis.Client {
	if s.redis == nil {
		r := s.cfg.Store.Redis
		s.redis = goredis.NewClient(&goredis.Options{
			Addr:     r.Addr,
			Password: r.Password,
			DB:       r.DB,
		})
		s.closers = append(s.closers, s.redis.Close)
	}
	return s.redis
}

func (s *Stack) openStore(ctx context.Context) (ports.FlowStore, error) {
	sc := s.cfg.Store
	switch sc.Driver {
	case config.DriverMemory:
		return memory.NewStore(), nil
	case config.DriverFile:
		return file.New(sc.Path), nil
	case config.DriverRedis:
		opts := []redis.Option{redis.WithTTL(sc.Redis.TTL)}
		if sc.Redis.Prefix != "" {
			opts = append(opts, redis.WithPrefix(sc.Redis.Prefix))
		}
		return redis.NewFromClient(s.redisClient(), opts...), nil
	case config.DriverSQLite:
		if err := os.MkdirAll(sc.Path, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
		db, err := sqlite.Open(filepath.Join(sc.Path, SQLiteFile))
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, db.Close)
		return db, nil
	case config.DriverNeo4j:
		exec, err := neo4j.NewExecutor(sc.Neo4j.URI, sc.Neo4j.Username, sc.Neo4j.Password, sc.Neo4j.Database)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() error { return exec.Close(context.Background()) })
		if err := exec.Verify(ctx); err != nil {
			return nil, fmt.Errorf("neo4j unreachable: %w", err)
		}
		return neo4j.NewStore(exec), nil
	case config.DriverLoam:
		return loam.Open(sc.Path, loam.WithVersioning(sc.Loam.Versioning))
	case config.DriverREST:
		return s.backend, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", sc.Driver)
}

// EditorOptions wires the stack into a flowdeck.Editor.
func (s *Stack) EditorOptions() []flowdeck.Option {
	opts := []flowdeck.Option{
		flowdeck.WithStore(s.Store),
		flowdeck.WithMediaLibrary(s.Media),
		flowdeck.WithLogger(s.Logger),
	}
	if s.Locker != nil {
		opts = append(opts, flowdeck.WithLocker(s.Locker, s.cfg.Store.LockTTL))
	}
	return opts
}

// Feed returns the conversation websocket feed, or nil when none is configured.
// Nil options are skipped.
func (s *Stack) Feed(extra ...socket.Option) ports.MessageFeed {
	sc := s.cfg.Socket
	if sc.URL == "" {
		return nil
	}
	opts := []socket.Option{
		socket.WithReconnect(sc.Reconnect),
		socket.WithLogger(s.Logger),
	}
	if s.cfg.Backend.Token != "" {
		opts = append(opts, socket.WithToken(s.cfg.Backend.Token))
	}
	for _, opt := range extra {
		if opt != nil {
			opts = append(opts, opt)
		}
	}
	return socket.NewFeed(sc.URL, opts...)
}

// Resync returns a feed option that pulls the messages missed while the socket
// was down into inbox, passing each one to handle when it is set. Without ids
// every conversation of inbox is resynced. It returns nil when the backend
// serves no message history.
func (s *Stack) Resync(inbox *conversation.Inbox, handle func(domain.Message), ids ...string) socket.Option {
	if s.History == nil {
		return nil
	}
	return socket.WithOnReconnect(func(ctx context.Context) {
		missing, err := inbox.Resync(ctx, s.History, ids...)
		if err != nil {
			s.Logger.Warn("conversation resync failed", "err", err)
		}
		if handle != nil {
			for _, m := range missing {
				handle(m)
			}
		}
	})
}

// Close releases every connection opened by Build.
func (s *Stack) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	s.closers = nil
	return errors.Join(errs...)
}
