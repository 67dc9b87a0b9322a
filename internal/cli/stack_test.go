package cli

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/flowdeck"
	"github.com/aretw0/flowdeck/internal/config"
	"github.com/aretw0/flowdeck/pkg/adapters/file"
	"github.com/aretw0/flowdeck/pkg/conversation"
	"github.com/aretw0/flowdeck/pkg/domain"
	"github.com/aretw0/flowdeck/pkg/dsl"
	"github.com/aretw0/flowdeck/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, cfg config.Config, opts ...StackOption) *Stack {
	t.Helper()
	s, err := Build(context.Background(), cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, s.Close()) })
	return s
}

func sample(t *testing.T) *domain.Graph {
	t.Helper()
	b := dsl.New()
	b.Start().Go(b.Text("Call me at support@example.com"))
	g, err := b.Build()
	require.NoError(t, err)
	return g
}

func TestBuild_Drivers(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name   string
		driver string
		setup  func(cfg *config.Config)
	}{
		{"Memory", config.DriverMemory, nil},
		{"File", config.DriverFile, nil},
		{"SQLite", config.DriverSQLite, nil},
		{"Loam", config.DriverLoam, nil},
		{"Redis", config.DriverRedis, func(cfg *config.Config) { cfg.Store.Redis.Addr = mr.Addr() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Store.Driver = tt.driver
			cfg.Store.Path = t.TempDir()
			if tt.setup != nil {
				tt.setup(&cfg)
			}
			s := build(t, cfg)
			ports.RunFlowStoreContract(t, s.Store)
			assert.Nil(t, s.Locker)
			assert.Nil(t, s.History)
			assert.Nil(t, s.Feed())
			assert.Nil(t, s.Resync(conversation.NewInbox(), nil))
		})
	}
}

func TestBuild_SQLiteFile(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Driver = config.DriverSQLite
	cfg.Store.Path = filepath.Join(t.TempDir(), "nested")
	build(t, cfg)
	assert.FileExists(t, filepath.Join(cfg.Store.Path, SQLiteFile))
}

func TestBuild_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Driver = "cassandra"
	_, err := Build(context.Background(), cfg)
	assert.Error(t, err)

	cfg = config.Default()
	cfg.Encryption.Keys = []string{"not-a-key"}
	_, err = Build(context.Background(), cfg)
	assert.ErrorContains(t, err, "encryption")

	cfg = config.Default()
	cfg.Log.Level = "loud"
	_, err = Build(context.Background(), cfg)
	assert.Error(t, err)
}

func TestBuild_Middlewares(t *testing.T) {
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Store.Driver = config.DriverFile
	cfg.Store.Path = t.TempDir()
	cfg.Store.MaskPII = true
	cfg.Encryption.Keys = []string{base64.StdEncoding.EncodeToString(key)}

	reg := prometheus.NewRegistry()
	s := build(t, cfg, WithRegisterer(reg))
	ctx := context.Background()

	require.NoError(t, s.Store.Save(ctx, "F1", sample(t)))

	raw, err := file.New(cfg.Store.Path).Load(ctx, "F1")
	require.NoError(t, err)
	assert.NotEmpty(t, raw.Envelope)
	assert.Empty(t, raw.Nodes)

	got, err := s.Store.Load(ctx, "F1")
	require.NoError(t, err)
	require.Len(t, got.Nodes, 2)
	assert.Equal(t, &domain.TextData{Label: "Call me at ***"}, got.Nodes[1].Data)

	assert.Equal(t, 2, testutil.CollectAndCount(reg, "flowdeck_store_operations_total"))
}

func TestBuild_RedisLocker(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Default()
	cfg.Store.Driver = config.DriverRedis
	cfg.Store.Redis.Addr = mr.Addr()
	cfg.Store.Redis.Lock = true

	s := build(t, cfg)
	require.NotNil(t, s.Locker)

	ctx := context.Background()
	unlock, err := s.Locker.Lock(ctx, "F1", time.Second)
	require.NoError(t, err)
	assert.NotEmpty(t, mr.Keys())
	require.NoError(t, unlock(ctx))

	e := flowdeck.New(s.EditorOptions()...)
	sess, err := e.Mount(ctx, "F1")
	require.NoError(t, err)
	require.NoError(t, sess.Save(ctx))

	ids, err := s.Store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"F1"}, ids)
}

func TestBuild_Backend(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Driver = config.DriverREST
	cfg.Backend.URL = "http://127.0.0.1:1"
	cfg.Backend.Token = "secret"
	cfg.Socket.URL = "ws://127.0.0.1:1/ws"

	s := build(t, cfg)
	assert.NotNil(t, s.History)
	assert.Same(t, s.Media, s.History)
	assert.NotNil(t, s.Feed(s.Resync(conversation.NewInbox(), nil)))
	assert.NotNil(t, s.Resync(conversation.NewInbox(), nil))

	err := s.Store.Save(context.Background(), "F1", domain.NewGraph())
	assert.ErrorIs(t, err, domain.ErrSaveUnsupported)
}

func TestNewLogger(t *testing.T) {
	_, err := NewLogger(config.Log{Level: "debug", Format: "json"})
	assert.NoError(t, err)

	_, err = NewLogger(config.Log{Level: "off", Format: "xml"})
	assert.NoError(t, err, "the format is ignored when logging is off")

	_, err = NewLogger(config.Log{Level: "info", Format: "xml"})
	assert.Error(t, err)
}
