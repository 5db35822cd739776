// Package app wires the rules engine to ordinance storage: composing,
// saving, listing, exporting and rolling ordinances.
package app

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/louisbranch/arcana/internal/platform/logging"
	"github.com/louisbranch/arcana/internal/services/arcana/catalog"
	"github.com/louisbranch/arcana/internal/services/arcana/rules"
	"github.com/louisbranch/arcana/internal/services/arcana/storage"
)

const tracerName = "github.com/louisbranch/arcana/internal/services/arcana/app"

// DefaultCacheSize bounds the composition cache when no size is configured.
const DefaultCacheSize = 256

// Service is the application layer shared by the CLI and the MCP server.
// Stores are assumed to have a single writer.
type Service struct {
	engine *rules.Engine
	store  storage.OrdinanceStore
	cache  *lru.Cache[string, Composed]
	logger *zap.Logger
	tracer trace.Tracer
}

type serviceOptions struct {
	cacheSize int
	logger    *zap.Logger
}

// Option configures a Service.
type Option func(*serviceOptions)

// WithCacheSize sets how many compositions are memoized.
func WithCacheSize(size int) Option {
	return func(o *serviceOptions) {
		o.cacheSize = size
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *serviceOptions) {
		o.logger = logger
	}
}

// NewService builds a Service.
func NewService(engine *rules.Engine, store storage.OrdinanceStore, opts ...Option) (*Service, error) {
	if engine == nil {
		return nil, fmt.Errorf("rules engine is required")
	}
	if store == nil {
		return nil, fmt.Errorf("ordinance store is required")
	}
	options := serviceOptions{cacheSize: DefaultCacheSize}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	if options.cacheSize <= 0 {
		options.cacheSize = DefaultCacheSize
	}

	cache, err := lru.New[string, Composed](options.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create composition cache: %w", err)
	}
	return &Service{
		engine: engine,
		store:  store,
		cache:  cache,
		logger: logging.OrNop(options.logger),
		tracer: otel.Tracer(tracerName),
	}, nil
}

// Engine returns the rules engine.
func (s *Service) Engine() *rules.Engine {
	return s.engine
}

// Catalog returns the reference tables the engine uses.
func (s *Service) Catalog() *catalog.Catalog {
	return s.engine.Catalog()
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func tierAttributes(key string, complexity, tier int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("arcana.canonical_key", key),
		attribute.Int("arcana.complexity", complexity),
		attribute.Int("arcana.tier", tier),
	}
}
