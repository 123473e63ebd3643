// Package mcp exposes the documentation index to coding agents over the
// Model Context Protocol.
package mcp

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jcdickinson/snakedoc/internal/db"
)

//go:embed instructions.md
var instructions string

type Server struct {
	mcpServer *server.MCPServer
	db        *db.DB
}

func NewServer(database *db.DB) *Server {
	s := &Server{db: database}

	mcpServer := server.NewMCPServer(
		"snakedoc",
		"0.1.0",
		server.WithInstructions(instructions),
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.mcpServer = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(
		mcp.NewTool("list_packages",
			mcp.WithDescription("List Python packages whose documentation is indexed locally, with entity counts and the Python version they were indexed under."),
		),
		s.handleListPackages,
	)

	mcpServer.AddTool(
		mcp.NewTool("search_docs",
			mcp.WithDescription("Search indexed Python documentation by name or docstring text. Results carry pydoc:// URIs that can be read as resources. Use `packages` to filter; omit to search everything."),
			mcp.WithString("query",
				mcp.Description("Name fragment or docstring text to search for"),
				mcp.Required(),
			),
			mcp.WithArray("packages",
				mcp.Description("Optional list of package names to search within"),
				mcp.Items(map[string]interface{}{"type": "string"}),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of results (default 20)"),
			),
		),
		s.handleSearchDocs,
	)

	mcpServer.AddTool(
		mcp.NewTool("get_doc",
			mcp.WithDescription("Read the full documentation for one entity by its qualified name, e.g. \"requests.sessions.Session\"."),
			mcp.WithString("qualname",
				mcp.Description("Fully qualified dotted name of the module, class, function, or variable"),
				mcp.Required(),
			),
		),
		s.handleGetDoc,
	)
}

func (s *Server) registerResources(mcpServer *server.MCPServer) {
	mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"pydoc://{qualname}",
			"Python documentation entity",
			mcp.WithTemplateDescription("Read a documented Python entity by qualified name. Search results return these URIs."),
			mcp.WithTemplateMIMEType("text/markdown"),
		),
		s.handleReadResource,
	)
}

type packageSummary struct {
	Name      string `json:"name"`
	Python    string `json:"python"`
	IndexedAt string `json:"indexed_at,omitempty"`
	Entities  int    `json:"entities"`
}

func (s *Server) handleListPackages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	packages, err := s.db.ListPackages()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing packages: %v", err)), nil
	}

	summaries := make([]packageSummary, 0, len(packages))
	for _, p := range packages {
		summary := packageSummary{Name: p.Name, Python: p.Python, Entities: p.Entities}
		if p.IndexedAt != nil {
			summary.IndexedAt = p.IndexedAt.Format(time.RFC3339)
		}
		summaries = append(summaries, summary)
	}

	resultJSON, _ := json.MarshalIndent(summaries, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

type searchHit struct {
	Qualname  string `json:"qualname"`
	Package   string `json:"package"`
	Kind      string `json:"kind"`
	Signature string `json:"signature,omitempty"`
	Summary   string `json:"summary,omitempty"`
	URI       string `json:"uri"`
}

func (s *Server) handleSearchDocs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	query, _ := args["query"].(string)
	if query == "" {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	var packages []string
	if packagesRaw, ok := args["packages"]; ok {
		packagesJSON, _ := json.Marshal(packagesRaw)
		json.Unmarshal(packagesJSON, &packages)
	}

	limit := 20
	if v, ok := args["limit"].(float64); ok && v > 0 {
		limit = int(v)
	}

	results, err := s.db.SearchEntities(query, packages, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	hits := make([]searchHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, searchHit{
			Qualname:  r.Qualname,
			Package:   r.Package,
			Kind:      r.Kind,
			Signature: r.Signature,
			Summary:   r.Summary,
			URI:       "pydoc://" + r.Qualname,
		})
	}

	resultJSON, _ := json.MarshalIndent(hits, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleGetDoc(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	qualname, _ := args["qualname"].(string)
	if qualname == "" {
		return mcp.NewToolResultError("missing required parameter: qualname"), nil
	}

	text, err := s.readEntity(qualname)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleReadResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	qualname := strings.TrimPrefix(uri, "pydoc://")
	if qualname == "" || qualname == uri {
		return nil, fmt.Errorf("invalid resource URI: %s", uri)
	}

	text, err := s.readEntity(qualname)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/markdown",
			Text:     text,
		},
	}, nil
}

// readEntity fetches one entity and renders it as Markdown. Reads bump the
// owning package's last-used timestamp.
func (s *Server) readEntity(qualname string) (string, error) {
	entity, err := s.db.GetEntityByQualname(qualname)
	if err != nil {
		return "", fmt.Errorf("looking up %s: %w", qualname, err)
	}
	if entity == nil {
		return "", fmt.Errorf("no documentation indexed for %s; index its package with `snakedoc add`", qualname)
	}
	s.db.TouchPackage(entity.PackageID)

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n**Kind:** %s\n\n", entity.Qualname, entity.Kind)
	if entity.Signature != "" {
		name := entity.Qualname
		if i := strings.LastIndex(name, "."); i >= 0 {
			name = name[i+1:]
		}
		fmt.Fprintf(&b, "```python\n%s%s\n```\n\n", name, entity.Signature)
	}
	if entity.Doc != "" {
		b.WriteString(entity.Doc)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}
