package flowdeck

import (
	"context"
	_ "embed"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/flowdeck/internal/editor"
	"github.com/aretw0/flowdeck/internal/logging"
	"github.com/aretw0/flowdeck/pkg/adapters/memory"
	"github.com/aretw0/flowdeck/pkg/domain"
	"github.com/aretw0/flowdeck/pkg/persistence"
	"github.com/aretw0/flowdeck/pkg/ports"
	"github.com/aretw0/flowdeck/pkg/registry"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Version is the release of the library and its binaries.
//
//go:embed VERSION
var Version string

// Editor is the high-level entry point for the flowdeck library.
// It owns the persistence bridge and hands out one Session per flow.
type Editor struct {
	store    ports.FlowStore
	media    ports.MediaLibrary
	registry *registry.Registry
	hooks    domain.LifecycleHooks
	logger   *slog.Logger

	bridgeOpts []persistence.Option
	bridge     *persistence.Bridge

	mountTimeout time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
	mounts   singleflight.Group
}

// DefaultMountTimeout bounds a shared mount started by Session.
const DefaultMountTimeout = 30 * time.Second

// Option defines a functional option for configuring the Editor.
type Option func(*Editor)

// WithStore sets the flow store. The default is an in-memory store.
func WithStore(store ports.FlowStore) Option {
	return func(e *Editor) {
		e.store = store
	}
}

// WithMediaLibrary sets the source of the attachment selector.
func WithMediaLibrary(lib ports.MediaLibrary) Option {
	return func(e *Editor) {
		e.media = lib
	}
}

// WithRegistry overrides the node templates.
func WithRegistry(r *registry.Registry) Option {
	return func(e *Editor) {
		e.registry = r
	}
}

// WithLifecycleHooks registers observability hooks on every session and on saves.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Editor) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger for the editor.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		e.logger = logger
	}
}

// WithLocker serializes persistence across replicas.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(e *Editor) {
		e.bridgeOpts = append(e.bridgeOpts, persistence.WithLocker(locker))
		if ttl > 0 {
			e.bridgeOpts = append(e.bridgeOpts, persistence.WithLockTTL(ttl))
		}
	}
}

// WithMountTimeout bounds the shared mount run by Session.
func WithMountTimeout(d time.Duration) Option {
	return func(e *Editor) {
		if d > 0 {
			e.mountTimeout = d
		}
	}
}

// WithTracerProvider overrides the global OTel tracer provider of the bridge.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Editor) {
		e.bridgeOpts = append(e.bridgeOpts, persistence.WithTracerProvider(tp))
	}
}

// New creates an Editor.
func New(opts ...Option) *Editor {
	e := &Editor{
		store:    memory.NewStore(),
		media:    memory.NewMediaLibrary(),
		registry: registry.Default(),
		logger:   logging.NewNop(),
		sessions: make(map[string]*Session),

		mountTimeout: DefaultMountTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}

	bopts := append([]persistence.Option{
		persistence.WithLogger(e.logger),
		persistence.WithLifecycleHooks(e.hooks),
	}, e.bridgeOpts...)
	e.bridge = persistence.NewBridge(e.store, bopts...)
	return e
}

// Bridge returns the persistence bridge shared by all sessions.
func (e *Editor) Bridge() *persistence.Bridge {
	return e.bridge
}

// Media returns the attachment source shared by all sessions.
func (e *Editor) Media() ports.MediaLibrary {
	return e.media
}

// Registry returns the node templates.
func (e *Editor) Registry() *registry.Registry {
	return e.registry
}

// Mount creates a fresh session for the flow.
// The stored graph and the media listings are fetched concurrently; a failed
// media prefetch only costs a later round trip, a failed load fails the mount.
func (e *Editor) Mount(ctx context.Context, flowID string) (*Session, error) {
	if flowID == "" {
		return nil, ErrMissingFlowID
	}

	s := newSession(e, flowID)
	var loaded *domain.Graph

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		loaded, err = e.bridge.Load(gctx, flowID)
		return err
	})
	for _, kind := range mediaKinds {
		g.Go(func() error {
			if err := s.media.prefetch(gctx, kind); err != nil {
				e.logger.Warn("media prefetch failed", "flow_id", flowID, "kind", kind, "err", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if _, err := s.dispatch(ctx, editor.Replace{Graph: loaded}); err != nil {
		return nil, err
	}
	e.logger.Debug("flow mounted", "flow_id", flowID, "found", loaded != nil)
	return s, nil
}

// Session returns the mounted session of the flow, mounting it on first use.
// Concurrent first uses share a single mount.
func (e *Editor) Session(ctx context.Context, flowID string) (*Session, error) {
	e.mu.Lock()
	s, ok := e.sessions[flowID]
	e.mu.Unlock()
	if ok {
		return s, nil
	}

	// The shared mount ignores the cancellation of the caller that started it.
	ch := e.mounts.DoChan(flowID, func() (any, error) {
		e.mu.Lock()
		if s, ok := e.sessions[flowID]; ok {
			e.mu.Unlock()
			return s, nil
		}
		e.mu.Unlock()

		mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.mountTimeout)
		defer cancel()
		s, err := e.Mount(mctx, flowID)
		if err != nil {
			return nil, err
		}
		e.mu.Lock()
		e.sessions[flowID] = s
		e.mu.Unlock()
		return s, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Session), nil
	}
}

// Sessions lists the flow ids with a mounted session, sorted.
func (e *Editor) Sessions() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]string, 0, len(e.sessions))
	for id := range e.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Drop forgets the mounted session of a flow and closes its subscribers.
func (e *Editor) Drop(flowID string) {
	e.mu.Lock()
	s, ok := e.sessions[flowID]
	delete(e.sessions, flowID)
	e.mu.Unlock()
	if ok {
		s.diffs.close()
	}
}

// List returns the ids of the stored flows.
func (e *Editor) List(ctx context.Context) ([]string, error) {
	return e.bridge.List(ctx)
}

// Delete removes the stored flow and drops its session.
func (e *Editor) Delete(ctx context.Context, flowID string) error {
	if err := e.bridge.Delete(ctx, flowID); err != nil {
		return err
	}
	e.Drop(flowID)
	return nil
}
