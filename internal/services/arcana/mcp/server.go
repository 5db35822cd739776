// Package mcp exposes the arcana service as MCP tools.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/louisbranch/arcana/internal/platform/logging"
	"github.com/louisbranch/arcana/internal/platform/timeouts"
	"github.com/louisbranch/arcana/internal/services/arcana/app"
)

const (
	// serverName identifies this MCP server to clients.
	serverName = "Arcana MCP"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"

	defaultHTTPAddr = "localhost:8085"
)

// TransportKind identifies the MCP transport implementation.
type TransportKind string

const (
	// TransportStdio uses standard input/output for MCP.
	TransportStdio TransportKind = "stdio"
	// TransportHTTP serves the streamable HTTP transport.
	TransportHTTP TransportKind = "http"
)

// Config configures the MCP server.
type Config struct {
	Transport TransportKind `env:"ARCANA_MCP_TRANSPORT" envDefault:"stdio"`
	HTTPAddr  string        `env:"ARCANA_MCP_HTTP_ADDR" envDefault:"localhost:8085"`
	// Locale renders tool error messages.
	Locale string `env:"ARCANA_LOCALE" envDefault:"en-US"`
}

// Server hosts the MCP server.
type Server struct {
	mcpServer *mcp.Server
	logger    *zap.Logger
}

// New creates an MCP server whose tools call svc.
func New(svc *app.Service, locale string, logger *zap.Logger) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("arcana service is required")
	}
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)

	mcp.AddTool(mcpServer, ComposeTool(), ComposeHandler(svc, locale))
	mcp.AddTool(mcpServer, SaveTool(), SaveHandler(svc, locale))
	mcp.AddTool(mcpServer, ListTool(), ListHandler(svc, locale))
	mcp.AddTool(mcpServer, RollTool(), RollHandler(svc, locale))
	mcp.AddTool(mcpServer, CatalogListTool(), CatalogListHandler(svc.Catalog()))

	return &Server{mcpServer: mcpServer, logger: logging.OrNop(logger)}, nil
}

// Run serves the configured transport until ctx ends.
func Run(ctx context.Context, svc *app.Service, cfg Config, logger *zap.Logger) error {
	if cfg.Transport == "" {
		cfg.Transport = TransportStdio
	}
	server, err := New(svc, cfg.Locale, logger)
	if err != nil {
		return err
	}

	switch cfg.Transport {
	case TransportStdio:
		return server.Serve(ctx)
	case TransportHTTP:
		return server.ServeHTTP(ctx, cfg.HTTPAddr)
	default:
		return fmt.Errorf("transport %q is not supported", cfg.Transport)
	}
}

// Serve starts the MCP server on stdio and blocks until it stops or the context ends.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("serving MCP", zap.String("transport", string(TransportStdio)))
	return s.serveWithTransport(ctx, &mcp.StdioTransport{})
}

// serveWithTransport runs the MCP session over transport. Cancellation is a
// clean stop.
func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}

// Handler returns the streamable HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcpServer
	}, nil)
}

// ServeHTTP listens on addr until ctx ends, then shuts the listener down.
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if addr == "" {
		addr = defaultHTTPAddr
	}
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: timeouts.ReadHeader,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("serving MCP", zap.String("transport", string(TransportHTTP)), zap.String("addr", addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve MCP over HTTP: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown MCP HTTP server: %w", err)
		}
		return nil
	})
	return g.Wait()
}
