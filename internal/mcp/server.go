package mcp

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/aki/runpad/internal/config"
	"github.com/aki/runpad/internal/logger"
	"github.com/aki/runpad/internal/session"
)

// Server hosts the runtime session tools over stdio or HTTP/SSE.
type Server struct {
	mcpServer *server.MCPServer
	manager   *session.Manager
	log       logger.Logger
	transport string
	httpCfg   config.HTTPConfig
}

// NewServer creates an MCP server bound to a session manager.
func NewServer(manager *session.Manager, transport config.TransportConfig, log logger.Logger) (*Server, error) {
	if log == nil {
		log = logger.Nop()
	}

	mcpServer := server.NewMCPServer(
		"runpad",
		"1.0.0",
		server.WithLogging(),
	)

	s := &Server{
		mcpServer: mcpServer,
		manager:   manager,
		log:       log,
		transport: transport.Type,
		httpCfg:   transport.HTTP,
	}

	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	return s, nil
}

// Start serves until the transport fails or, for HTTP, the context is
// cancelled. Stdio serving ends when the peer closes the stream.
func (s *Server) Start(ctx context.Context) error {
	switch s.transport {
	case config.TransportStdio:
		s.log.Info("serving MCP over stdio")
		return server.ServeStdio(s.mcpServer)
	case config.TransportHTTP:
		return s.startHTTPServer(ctx)
	default:
		return fmt.Errorf("unsupported transport: %s", s.transport)
	}
}

func (s *Server) startHTTPServer(ctx context.Context) error {
	sseServer := server.NewSSEServer(s.mcpServer)

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.httpCfg.Port),
		Handler: s.corsMiddleware(mux),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.Warn("http server shutdown failed", "error", err)
		}
	}()

	s.log.Info("serving MCP over http", "port", s.httpCfg.Port)
	err := httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
