package mcp

import (
	"context"

	"epic-metrics/internal/analysis"
	"epic-metrics/internal/history"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// ServerName is reported to MCP clients during initialization.
const ServerName = "epic-metrics"

// Server exposes the analyzer as MCP tools.
type Server struct {
	analyzer *analysis.Analyzer
	history  *history.Store
	mermaid  bool
	version  string
}

// NewServer creates a new MCP server. store may be nil when run history is disabled.
func NewServer(analyzer *analysis.Analyzer, store *history.Store, mermaid bool, version string) *Server {
	return &Server{
		analyzer: analyzer,
		history:  store,
		mermaid:  mermaid,
		version:  version,
	}
}

// MCPServer builds the protocol server with every tool registered.
func (s *Server) MCPServer() *sdk.Server {
	server := sdk.NewServer(&sdk.Implementation{Name: ServerName, Version: s.version}, nil)
	s.registerTools(server)
	return server
}

// Serve runs the MCP protocol over stdio until the client disconnects or ctx ends.
func (s *Server) Serve(ctx context.Context) error {
	log.Info().Str("version", s.version).Msg("Starting MCP server on stdio")
	return s.MCPServer().Run(ctx, &sdk.StdioTransport{})
}
