package storecheck

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/storecheck/storecheck/internal/config"
)

// RegisterMCP registers storecheck tools on an MCP server. st may be nil,
// in which case storecheck_history reports that history is unavailable.
func (c *Checker) RegisterMCP(srv *mcp.Server, st *Store) {
	c.registerCheckTool(srv)
	c.registerHistoryTool(srv, st)
	c.registerProfilesTool(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

type toolFunc func(ctx context.Context, args json.RawMessage) (any, error)

// registerTool wraps fn so that argument and handler errors become tool
// errors and results are returned as JSON text.
func registerTool(srv *mcp.Server, tool *mcp.Tool, fn toolFunc) {
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		resp, err := fn(ctx, req.Params.Arguments)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(err)
			return &res, nil
		}
		data, err := json.Marshal(resp)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(fmt.Errorf("marshal: %w", err))
			return &res, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}

func decodeArgs(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// --- check ---

func (c *Checker) registerCheckTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "storecheck_check",
		Description: "Load a storefront product page in the browser and return its production-readiness verdict with structural, image and console/network findings.",
		InputSchema: inputSchema(map[string]any{
			"url": map[string]any{"type": "string", "description": "Absolute http(s) URL of the product page"},
		}, []string{"url"}),
	}
	registerTool(srv, tool, func(ctx context.Context, args json.RawMessage) (any, error) {
		var req checkReq
		if err := decodeArgs(args, &req); err != nil {
			return nil, err
		}
		if err := config.CheckURL(req.URL); err != nil {
			return nil, err
		}
		return c.CheckPage(ctx, req.URL), nil
	})
}

// --- history ---

type historyReq struct {
	URL        string `json:"url"`
	FailedOnly bool   `json:"failed_only"`
	Limit      int    `json:"limit"`
}

func (c *Checker) registerHistoryTool(srv *mcp.Server, st *Store) {
	tool := &mcp.Tool{
		Name:        "storecheck_history",
		Description: "List previous page results, newest first.",
		InputSchema: inputSchema(map[string]any{
			"url":         map[string]any{"type": "string", "description": "Only results for this URL"},
			"failed_only": map[string]any{"type": "boolean", "description": "Only failing results"},
			"limit":       map[string]any{"type": "integer", "description": "Maximum results (default 20)"},
		}, nil),
	}
	registerTool(srv, tool, func(ctx context.Context, args json.RawMessage) (any, error) {
		if st == nil {
			return nil, errNoStore
		}
		var req historyReq
		if err := decodeArgs(args, &req); err != nil {
			return nil, err
		}
		if req.Limit <= 0 {
			req.Limit = 20
		}
		list, err := st.Recent(ctx, HistoryQuery{URL: req.URL, FailedOnly: req.FailedOnly, Limit: req.Limit})
		if err != nil {
			return nil, err
		}
		return map[string]any{"results": list}, nil
	})
}

// --- profiles ---

func (c *Checker) registerProfilesTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "storecheck_profiles",
		Description: "Show the effective selector catalog: candidate selectors per platform and logical element.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}
	registerTool(srv, tool, func(context.Context, json.RawMessage) (any, error) {
		out := make(map[string]any)
		for _, p := range c.catalog.Platforms() {
			prof, _ := c.catalog.Get(p)
			out[p] = prof.Elements
		}
		return map[string]any{"profiles": out}, nil
	})
}
