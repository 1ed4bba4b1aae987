// Package mcp exposes the documentation engine as MCP tools over stdio.
package mcp

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/dcdpr/bookworm/internal/docset"
	"github.com/dcdpr/bookworm/internal/engine"
	"github.com/dcdpr/bookworm/internal/markdown"
)

//go:embed instructions.md
var instructions string

// maxResponseBytes bounds tool responses. The protocol defines no limit,
// but clients have shown issues handling larger payloads.
const maxResponseBytes = 256 * 1024

type Server struct {
	mcpServer *server.MCPServer
	engine    *engine.Engine
	converter *markdown.Converter
}

func NewServer(eng *engine.Engine) *Server {
	s := &Server{
		engine:    eng,
		converter: markdown.NewConverter(),
	}

	mcpServer := server.NewMCPServer(
		"bookworm",
		"1.0.0",
		server.WithInstructions(instructions),
		server.WithToolCapabilities(true),
	)
	s.registerTools(mcpServer)

	s.mcpServer = mcpServer
	return s
}

// Serve runs the server over stdio until the client disconnects.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(
		mcp.NewTool("search_crates",
			mcp.WithDescription("Search crates.io for Rust crates by name or keyword."),
			mcp.WithString("query",
				mcp.Description("Search query (crate name or keyword)"),
				mcp.Required(),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of results (default 10)"),
			),
		),
		s.handleSearchCrates,
	)

	mcpServer.AddTool(
		mcp.NewTool("crate_search_items",
			mcp.WithDescription("Search for item definitions within a crate's documentation. "+
				"The query does case-insensitive partial matching against the fully qualified "+
				"item path, e.g. \"Value\" in serde_json matches value::Value and Value::is_object. "+
				"Results carry crate:// resource URIs readable with crate_item."),
			mcp.WithString("crate_name",
				mcp.Description("Exact name of the crate"),
				mcp.Required(),
			),
			mcp.WithString("crate_version",
				mcp.Description("Semantic version or \"latest\" (default)"),
			),
			mcp.WithString("query",
				mcp.Description("Search query, matched against fully qualified paths"),
				mcp.Required(),
			),
			mcp.WithArray("kinds",
				mcp.Description("Optional item kind filter: Module, Struct, Enum, Trait, Function, Method, Macro, Constant, Type, Variant, Attribute"),
				mcp.Items(map[string]interface{}{"type": "string"}),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of results (default unbounded)"),
			),
		),
		s.handleSearchItems,
	)

	mcpServer.AddTool(
		mcp.NewTool("crate_item",
			mcp.WithDescription("Read one documentation item by its crate://{name}/{version}/items/{path} URI."),
			mcp.WithString("uri",
				mcp.Description("Item resource URI returned by crate_search_items"),
				mcp.Required(),
			),
		),
		s.handleItem,
	)

	mcpServer.AddTool(
		mcp.NewTool("crate_versions",
			mcp.WithDescription("List the published versions of a crate, newest first."),
			mcp.WithString("crate_name",
				mcp.Description("Exact name of the crate"),
				mcp.Required(),
			),
		),
		s.handleVersions,
	)

	mcpServer.AddTool(
		mcp.NewTool("crate_readme",
			mcp.WithDescription("Get a crate's readme as markdown."),
			mcp.WithString("crate_name",
				mcp.Description("Exact name of the crate"),
				mcp.Required(),
			),
			mcp.WithString("crate_version",
				mcp.Description("Semantic version or \"latest\" (default)"),
			),
		),
		s.handleReadme,
	)
}

func (s *Server) handleSearchCrates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := req.GetInt("limit", 10)

	infos, err := s.engine.SearchCrates(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("searching crates: %v", err)), nil
	}
	if len(infos) == 0 {
		return mcp.NewToolResultText("No crates found matching the query."), nil
	}

	return jsonResult(infos)
}

func (s *Server) handleSearchItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	crateName, err := req.RequireString("crate_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	version := req.GetString("crate_version", "latest")
	limit := req.GetInt("limit", 0)

	var kinds []docset.Kind
	for _, token := range req.GetStringSlice("kinds", nil) {
		kind, err := docset.ParseKind(token)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		kinds = append(kinds, kind)
	}

	definitions, err := s.engine.SearchItems(ctx, crateName, version, query, kinds, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("searching items: %v", err)), nil
	}
	if len(definitions) == 0 {
		return mcp.NewToolResultText("No crate items found matching the query. Try broadening your search query."), nil
	}

	return jsonResult(definitions)
}

func (s *Server) handleItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uri, err := req.RequireString("uri")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	ref, err := engine.ParseItemURI(uri)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	item, err := s.engine.Item(ctx, ref.Crate, ref.Version, ref.Location)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("resolving item: %v", err)), nil
	}

	// HTML fragments are noisy for model consumption; ship markdown.
	out := *item
	if md, err := s.converter.Convert(item.TypeInfo); err == nil {
		out.TypeInfo = md
	}
	if md, err := s.converter.Convert(item.Documentation); err == nil {
		out.Documentation = md
	}

	return jsonResult(out)
}

func (s *Server) handleVersions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	crateName, err := req.RequireString("crate_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	versions, err := s.engine.Versions(ctx, crateName)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing versions: %v", err)), nil
	}

	return jsonResult(versions)
}

func (s *Server) handleReadme(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	crateName, err := req.RequireString("crate_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	version := req.GetString("crate_version", "latest")

	html, err := s.engine.Readme(ctx, crateName, version)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("fetching readme: %v", err)), nil
	}

	md, err := s.converter.Convert(html)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("converting readme: %v", err)), nil
	}

	return mcp.NewToolResultText(truncate(md)), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding response: %v", err)), nil
	}
	return mcp.NewToolResultText(truncate(string(data))), nil
}

func truncate(s string) string {
	if len(s) <= maxResponseBytes {
		return s
	}
	return s[:maxResponseBytes] + "\n... (truncated)"
}
