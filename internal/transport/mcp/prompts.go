package mcp

import (
	"context"
	"fmt"
	"strings"

	mcpmcp "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	promptsvc "github.com/alanyang/prompt-mesh/internal/service/prompt"
)

// RegisterPrompts registers the expanded_prompt MCP prompt, which serves any
// stored prompt with its inclusions resolved.
func RegisterPrompts(s *mcpserver.MCPServer, promptSvc *promptsvc.Service) {
	s.AddPrompt(
		mcpmcp.NewPrompt("expanded_prompt",
			mcpmcp.WithPromptDescription("A stored prompt with every [[name]] inclusion expanded."),
			mcpmcp.WithArgument("id",
				mcpmcp.ArgumentDescription("Prompt id, e.g. general/restart"),
				mcpmcp.RequiredArgument(),
			),
		),
		expandedPromptHandler(promptSvc),
	)
}

func expandedPromptHandler(promptSvc *promptsvc.Service) mcpserver.PromptHandlerFunc {
	return func(ctx context.Context, req mcpmcp.GetPromptRequest) (*mcpmcp.GetPromptResult, error) {
		id := req.Params.Arguments["id"]
		if id == "" {
			return nil, fmt.Errorf("id is required")
		}

		p, err := promptSvc.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get prompt %s: %w", id, err)
		}
		res, err := promptSvc.Expand(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("expand prompt %s: %w", id, err)
		}

		description := p.Description
		if description == "" {
			description = "Prompt " + id
		}
		if msgs := res.WarningMessages(); len(msgs) > 0 {
			description += " (warnings: " + strings.Join(msgs, "; ") + ")"
		}

		return mcpmcp.NewGetPromptResult(
			description,
			[]mcpmcp.PromptMessage{
				mcpmcp.NewPromptMessage(
					mcpmcp.RoleUser,
					mcpmcp.TextContent{
						Type: "text",
						Text: res.Expanded,
					},
				),
			},
		), nil
	}
}
