package mcp

import (
	"context"
	"encoding/json"

	"github.com/halcyonlabs/mnemo/pkg/model"
	"github.com/halcyonlabs/mnemo/pkg/usecase/recall"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type recallParams struct {
	Query     string `json:"query" jsonschema:"Natural-language query to recall memories for"`
	SessionID string `json:"session_id" jsonschema:"Active session id"`
	UserID    string `json:"user_id" jsonschema:"Owner of the memories"`
	Limit     int    `json:"limit,omitempty" jsonschema:"Optional cap on returned memories"`
}

// Server exposes the recall engine as an MCP tool so the conversational
// orchestrator can call it over stdio.
type Server struct {
	uc     *recall.UseCase
	server *mcp.Server
}

func NewServer(uc *recall.UseCase, version string) *Server {
	s := &Server{uc: uc}

	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    "mnemo",
		Version: version,
	}, nil)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "recall_memories",
		Description: "Retrieve the most relevant memories for a query, ranked and clustered with themes and an emotional-journey summary",
	}, s.recallTool)

	return s
}

// Run serves MCP over stdio until the context ends.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) recallTool(ctx context.Context, req *mcp.CallToolRequest, params *recallParams) (*mcp.CallToolResult, any, error) {
	result, err := s.uc.Recall(ctx, recall.Input{
		Query:     params.Query,
		SessionID: model.SessionID(params.SessionID),
		UserID:    model.UserID(params.UserID),
	})
	if err != nil {
		return nil, nil, err
	}

	if params.Limit > 0 && len(result.Memories) > params.Limit {
		result.Memories = result.Memories[:params.Limit]
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return nil, nil, err
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(payload)},
		},
	}, nil, nil
}
