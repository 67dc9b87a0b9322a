package persistence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/flowdeck/internal/logging"
	"github.com/aretw0/flowdeck/pkg/domain"
	"github.com/aretw0/flowdeck/pkg/ports"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of persistence spans.
const TracerName = "flowdeck.persistence"

// DefaultLockTTL bounds how long a distributed lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Bridge orchestrates flow persistence, serializing access per flow ID.
// It uses Reference Counting to garbage collect unused locks.
type Bridge struct {
	store ports.FlowStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
	tracer  trace.Tracer
	hooks   domain.LifecycleHooks
	now     func() time.Time
}

// Option configures the Bridge.
type Option func(*Bridge)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(b *Bridge) {
		b.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(b *Bridge) {
		b.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Bridge.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) {
		b.logger = logger
	}
}

// WithTracerProvider overrides the global OTel tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(b *Bridge) {
		b.tracer = tp.Tracer(TracerName)
	}
}

// WithLifecycleHooks registers the OnGraphSaved callback.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(b *Bridge) {
		b.hooks = b.hooks.Merge(hooks)
	}
}

// NewBridge creates a persistence bridge over the given store.
func NewBridge(store ports.FlowStore, opts ...Option) *Bridge {
	b := &Bridge{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
		tracer:  otel.Tracer(TracerName),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(flowID) after unlocking.
func (b *Bridge) acquire(flowID string) *lockEntry {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, exists := b.locks[flowID]
	if !exists {
		entry = &lockEntry{}
		b.locks[flowID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (b *Bridge) release(flowID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, exists := b.locks[flowID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(b.locks, flowID)
	}
}

func (b *Bridge) startSpan(ctx context.Context, op, flowID string) (context.Context, trace.Span) {
	return b.tracer.Start(ctx, TracerName+"."+op,
		trace.WithAttributes(attribute.String("flow.id", flowID)),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// Load fetches the graph of a flow.
// A flow with no data yields (nil, nil): the editor stays empty.
func (b *Bridge) Load(ctx context.Context, flowID string) (graph *domain.Graph, err error) {
	ctx, span := b.startSpan(ctx, "load", flowID)
	defer func() { endSpan(span, err) }()

	err = b.WithLock(ctx, flowID, func(ctx context.Context) error {
		var err error
		graph, err = b.store.Load(ctx, flowID)
		return err
	})
	if errors.Is(err, domain.ErrFlowNotFound) {
		span.SetAttributes(attribute.Bool("flow.found", false))
		b.logger.Debug("flow has no data", "flow_id", flowID)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load flow %s: %w", flowID, err)
	}
	if graph == nil {
		return nil, nil
	}

	span.SetAttributes(
		attribute.Bool("flow.found", true),
		attribute.Int("flow.nodes", len(graph.Nodes)),
		attribute.Int("flow.edges", len(graph.Edges)),
	)
	return graph, nil
}

// Save pushes the graph under the flow ID.
func (b *Bridge) Save(ctx context.Context, flowID string, graph *domain.Graph) (err error) {
	ctx, span := b.startSpan(ctx, "save", flowID)
	defer func() { endSpan(span, err) }()

	if graph == nil {
		graph = domain.NewGraph()
	}
	err = b.WithLock(ctx, flowID, func(ctx context.Context) error {
		return b.store.Save(ctx, flowID, graph)
	})
	if err != nil {
		return fmt.Errorf("failed to save flow %s: %w", flowID, err)
	}

	if b.hooks.OnGraphSaved != nil {
		b.hooks.OnGraphSaved(ctx, &domain.GraphEvent{
			EventBase: domain.EventBase{Timestamp: b.now(), Type: domain.EventGraphSaved, FlowID: flowID},
			Nodes:     len(graph.Nodes),
			Edges:     len(graph.Edges),
			Found:     true,
		})
	}
	return nil
}

// Delete removes the flow from the store.
func (b *Bridge) Delete(ctx context.Context, flowID string) (err error) {
	ctx, span := b.startSpan(ctx, "delete", flowID)
	defer func() { endSpan(span, err) }()

	return b.WithLock(ctx, flowID, func(ctx context.Context) error {
		return b.store.Delete(ctx, flowID)
	})
}

// List delegates to the store.
func (b *Bridge) List(ctx context.Context) (ids []string, err error) {
	ctx, span := b.tracer.Start(ctx, TracerName+".list", trace.WithSpanKind(trace.SpanKindInternal))
	defer func() { endSpan(span, err) }()

	return b.store.List(ctx)
}

// Store returns the underlying flow store.
func (b *Bridge) Store() ports.FlowStore {
	return b.store
}

// WithLock executes a function while holding the lock for the flow.
func (b *Bridge) WithLock(ctx context.Context, flowID string, fn func(context.Context) error) error {
	entry := b.acquire(flowID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		b.release(flowID)
	}()

	if b.locker != nil {
		unlock, err := b.locker.Lock(ctx, flowID, b.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				b.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"flow_id", flowID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
