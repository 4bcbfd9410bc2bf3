package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcpmcp "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	domainprompt "github.com/alanyang/prompt-mesh/internal/domain/prompt"
	promptsvc "github.com/alanyang/prompt-mesh/internal/service/prompt"
)

// RegisterTools registers all MCP tools on the server.
// [SRP] Tool registration only.
// [OCP] Add a new tool by adding a new AddTool call; server.go never changes.
func RegisterTools(s *mcpserver.MCPServer, promptSvc *promptsvc.Service) {
	s.AddTool(mcpmcp.NewTool("list_prompts",
		mcpmcp.WithDescription("List prompts with their display names. All filters are optional and combine."),
		mcpmcp.WithString("directory", mcpmcp.Description("Only prompts stored directly in this directory")),
		mcpmcp.WithString("tag", mcpmcp.Description("Only prompts carrying this tag")),
		mcpmcp.WithBoolean("composite", mcpmcp.Description("Only prompts that include other prompts")),
	), listPromptsHandler(promptSvc))

	s.AddTool(mcpmcp.NewTool("search_prompts",
		mcpmcp.WithDescription("Case-insensitive search over prompt ids, descriptions and content."),
		mcpmcp.WithString("query", mcpmcp.Required(), mcpmcp.Description("Text to look for")),
	), searchPromptsHandler(promptSvc))

	s.AddTool(mcpmcp.NewTool("get_prompt",
		mcpmcp.WithDescription("Return one prompt with its raw content (inclusion markers not expanded)."),
		mcpmcp.WithString("id", mcpmcp.Required(), mcpmcp.Description("Prompt id, e.g. general/restart")),
	), getPromptHandler(promptSvc))

	s.AddTool(mcpmcp.NewTool("expand_prompt",
		mcpmcp.WithDescription("Expand [[name]] inclusion markers. Pass id to expand a stored prompt, or content to expand ad-hoc text. Returns expanded text, dependencies and warnings."),
		mcpmcp.WithString("id", mcpmcp.Description("Prompt id to expand")),
		mcpmcp.WithString("content", mcpmcp.Description("Ad-hoc content to expand instead of a stored prompt")),
		mcpmcp.WithString("directory", mcpmcp.Description("Directory whose prompts win ambiguous references in ad-hoc content")),
	), expandPromptHandler(promptSvc))

	s.AddTool(mcpmcp.NewTool("create_prompt",
		mcpmcp.WithDescription("Create a prompt file in a prompt directory. Returns the new prompt."),
		mcpmcp.WithString("directory", mcpmcp.Required(), mcpmcp.Description("Prompt directory path")),
		mcpmcp.WithString("name", mcpmcp.Required(), mcpmcp.Description("Prompt name: letters, digits, '-' and '_'")),
		mcpmcp.WithString("content", mcpmcp.Description("Initial content")),
		mcpmcp.WithString("description", mcpmcp.Description("Short description")),
		mcpmcp.WithArray("tags", mcpmcp.WithStringItems(), mcpmcp.Description("Tags")),
	), createPromptHandler(promptSvc))

	s.AddTool(mcpmcp.NewTool("update_prompt",
		mcpmcp.WithDescription("Update a prompt's content and/or metadata. Open editing sessions see the change immediately."),
		mcpmcp.WithString("id", mcpmcp.Required(), mcpmcp.Description("Prompt id")),
		mcpmcp.WithString("content", mcpmcp.Description("New content")),
		mcpmcp.WithString("description", mcpmcp.Description("New description")),
		mcpmcp.WithArray("tags", mcpmcp.WithStringItems(), mcpmcp.Description("New tags, replacing the old ones")),
	), updatePromptHandler(promptSvc))

	s.AddTool(mcpmcp.NewTool("delete_prompt",
		mcpmcp.WithDescription("Delete a prompt and its file. Open editing sessions are closed."),
		mcpmcp.WithString("id", mcpmcp.Required(), mcpmcp.Description("Prompt id")),
	), deletePromptHandler(promptSvc))
}

// ── Tool handlers ─────────────────────────────────────────────────────────

type promptSummary struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	IsComposite bool     `json:"is_composite"`
}

func summarize(ps []domainprompt.Prompt, names map[string]string) []promptSummary {
	out := make([]promptSummary, len(ps))
	for i, p := range ps {
		out[i] = promptSummary{
			ID:          p.ID,
			DisplayName: names[p.ID],
			Description: p.Description,
			Tags:        p.Tags,
			IsComposite: p.IsComposite(),
		}
	}
	return out
}

func jsonResult(v any) (*mcpmcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcpmcp.NewToolResultText(fmt.Sprintf("error: %s", err)), nil
	}
	return mcpmcp.NewToolResultText(string(data)), nil
}

func errorResult(err error) (*mcpmcp.CallToolResult, error) {
	return mcpmcp.NewToolResultText(fmt.Sprintf("error: %s", err)), nil
}

func listWith(ctx context.Context, promptSvc *promptsvc.Service, filters domainprompt.ListFilters) (*mcpmcp.CallToolResult, error) {
	ps, err := promptSvc.List(ctx, filters)
	if err != nil {
		return errorResult(err)
	}
	names, err := promptSvc.DisplayNames(ctx)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(summarize(ps, names))
}

func listPromptsHandler(promptSvc *promptsvc.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		return listWith(ctx, promptSvc, domainprompt.ListFilters{
			Directory:     req.GetString("directory", ""),
			Tag:           req.GetString("tag", ""),
			CompositeOnly: req.GetBool("composite", false),
		})
	}
}

func searchPromptsHandler(promptSvc *promptsvc.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		query := req.GetString("query", "")
		if query == "" {
			return mcpmcp.NewToolResultText("error: query required"), nil
		}
		return listWith(ctx, promptSvc, domainprompt.ListFilters{Search: query})
	}
}

func getPromptHandler(promptSvc *promptsvc.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		p, err := promptSvc.Get(ctx, req.GetString("id", ""))
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(p)
	}
}

func expandPromptHandler(promptSvc *promptsvc.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		id := req.GetString("id", "")
		args := req.GetArguments()

		var result any
		if content, ok := args["content"].(string); ok {
			res, err := promptSvc.ExpandContent(ctx, content, req.GetString("directory", ""), id)
			if err != nil {
				return errorResult(err)
			}
			result = res
		} else if id != "" {
			res, err := promptSvc.Expand(ctx, id)
			if err != nil {
				return errorResult(err)
			}
			result = res
		} else {
			return mcpmcp.NewToolResultText("error: id or content required"), nil
		}
		return jsonResult(result)
	}
}

func createPromptHandler(promptSvc *promptsvc.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		p, err := promptSvc.Create(ctx, promptsvc.CreateInput{
			Directory:   req.GetString("directory", ""),
			Name:        req.GetString("name", ""),
			Content:     req.GetString("content", ""),
			Description: req.GetString("description", ""),
			Tags:        req.GetStringSlice("tags", nil),
		})
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(p)
	}
}

func updatePromptHandler(promptSvc *promptsvc.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		id := req.GetString("id", "")
		args := req.GetArguments()

		var (
			description *string
			tags        *[]string
		)
		if d, ok := args["description"].(string); ok {
			description = &d
		}
		if _, ok := args["tags"]; ok {
			t := req.GetStringSlice("tags", []string{})
			tags = &t
		}
		content, hasContent := args["content"].(string)
		if !hasContent && description == nil && tags == nil {
			return mcpmcp.NewToolResultText("error: nothing to update"), nil
		}

		var (
			p   domainprompt.Prompt
			err error
		)
		if hasContent {
			if p, err = promptSvc.UpdateContent(ctx, id, content); err != nil {
				return errorResult(err)
			}
		}
		if description != nil || tags != nil {
			if p, err = promptSvc.UpdateMetadata(ctx, id, description, tags); err != nil {
				return errorResult(err)
			}
		}
		return jsonResult(p)
	}
}

func deletePromptHandler(promptSvc *promptsvc.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		if err := promptSvc.Delete(ctx, req.GetString("id", "")); err != nil {
			return errorResult(err)
		}
		return mcpmcp.NewToolResultText(`{"ok":true}`), nil
	}
}
