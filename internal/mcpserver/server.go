// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the scoring, link-resolution, inventory, and messaging-audit
// engines for editor/LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/dreamfactorysoftware/df-wiki/internal/audit"
	"github.com/dreamfactorysoftware/df-wiki/internal/ledger"
	"github.com/dreamfactorysoftware/df-wiki/internal/models"
	"github.com/dreamfactorysoftware/df-wiki/internal/score"
	"github.com/dreamfactorysoftware/df-wiki/internal/storage"
)

// Server wraps the MCP server with df-wiki tools.
type Server struct {
	mcp    *server.MCPServer
	store  *storage.FS
	scorer *score.Scorer
	index  *ledger.LinkIndex
	ledger *ledger.Ledger
}

// New creates a new MCP server with all df-wiki tools registered.
func New(store *storage.FS, scorer *score.Scorer, ix *ledger.LinkIndex, led *ledger.Ledger) *Server {
	s := &Server{store: store, scorer: scorer, index: ix, ledger: led}

	s.mcp = server.NewMCPServer(
		"df-wiki",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("score_page",
		mcp.WithDescription("Evaluate one document under the docs root against the "+
			"seven-criterion quality rubric. Returns the full JSON result with ranked "+
			"fix suggestions. Read the rubric first via the get_scoring_rubric tool or "+
			"the dfwiki://scoring-rubric resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document (e.g. security/api-keys.md)")),
	), s.scorePage)

	s.mcp.AddTool(mcp.NewTool("resolve_link",
		mcp.WithDescription("Resolve a source-relative path to its wiki page through the "+
			"migration ledger. Unmapped paths fall back to the deterministic title transform."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Source path or link candidate (e.g. guides/quick-start)")),
	), s.resolveLink)

	s.mcp.AddTool(mcp.NewTool("lookup_page",
		mcp.WithDescription("Look up a migration inventory record by source path suffix "+
			"or by target wiki page."),
		mcp.WithString("source", mcp.Description("Source path (suffix match, e.g. docs/faq.md)")),
		mcp.WithString("target", mcp.Description("Target wiki page (exact match, e.g. Security/API_Keys)")),
	), s.lookupPage)

	s.mcp.AddTool(mcp.NewTool("audit_text",
		mcp.WithDescription("Classify product-positioning statements in a text against "+
			"current messaging (OUTDATED / MIXED / ALIGNED / REVIEW) with matched evidence."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to audit")),
	), s.auditText)

	s.mcp.AddTool(mcp.NewTool("get_scoring_rubric",
		mcp.WithDescription("Returns the content scoring rubric: criteria, weights, and "+
			"thresholds. Call this before interpreting score_page output."),
	), s.getScoringRubric)

	// Resource: scoring rubric contract.
	s.mcp.AddResource(
		mcp.NewResource("dfwiki://scoring-rubric", "Content Scoring Rubric",
			mcp.WithResourceDescription("Criteria, weights, and thresholds of the content quality score."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readRubricResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) scorePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.store.Read(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}

	result := s.scorer.Score(models.NewDocument(path, string(data)))
	payload := struct {
		Result score.ContentScore      `json:"result"`
		Fixes  []score.CriterionResult `json:"fixes,omitempty"`
	}{Result: result, Fixes: score.RankedFixes(result)}

	out, _ := json.MarshalIndent(payload, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) resolveLink(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	target, resolved := s.index.ResolveOrFallback(path)
	out, _ := json.MarshalIndent(map[string]any{
		"path":     path,
		"target":   target,
		"resolved": resolved,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) lookupPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var source, target string
	if v, err := req.RequireString("source"); err == nil {
		source = v
	}
	if v, err := req.RequireString("target"); err == nil {
		target = v
	}
	if source == "" && target == "" {
		return mcp.NewToolResultError("source or target is required"), nil
	}

	var rec ledger.Record
	found := false
	switch {
	case target != "":
		rec, found = s.ledger.FindByTarget(target)
	default:
		for _, r := range s.ledger.Records {
			if strings.HasSuffix(r.SourcePath, source) {
				rec, found = r, true
				break
			}
		}
	}
	if !found {
		return mcp.NewToolResultText("no inventory record found"), nil
	}
	out, _ := json.MarshalIndent(map[string]any{
		"source_path": rec.SourcePath,
		"source_type": rec.SourceType,
		"title":       rec.Title,
		"target_page": rec.TargetPage,
		"priority":    rec.Priority,
		"status":      string(rec.Status),
		"word_count":  rec.WordCount,
		"keywords":    rec.Keywords,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) auditText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	findings := audit.AuditPage("input", text)
	if len(findings) == 0 {
		return mcp.NewToolResultText("no positioning statements found"), nil
	}
	out, _ := json.MarshalIndent(findings, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getScoringRubric(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ScoringRubricContract), nil
}

func (s *Server) readRubricResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "dfwiki://scoring-rubric",
			MIMEType: "text/markdown",
			Text:     ScoringRubricContract,
		},
	}, nil
}
