package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-indexsync/internal/logger"
)

// serverName is reported to clients during initialisation.
const serverName = "sercha-indexsync"

// shutdownTimeout bounds how long in-flight HTTP sessions get on exit.
const shutdownTimeout = 5 * time.Second

// Server exposes index status, search, reindexing and deletion as MCP
// tools and resources.
type Server struct {
	ports  *Ports
	server *mcp.Server
}

// NewServer registers the tools and resources backed by ports.
// version is reported to clients.
func NewServer(ports *Ports, version string) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	s := &Server{
		ports:  ports,
		server: mcp.NewServer(&mcp.Implementation{Name: serverName, Version: version}, nil),
	}
	s.registerTools()
	s.registerResources()
	return s, nil
}

// Run serves one client over stdio until ctx is cancelled or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves streamable HTTP sessions on addr until ctx is cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("MCP HTTP shutdown: %v", err)
		}
	}()

	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		<-stopped
		return nil
	}
	return err
}
