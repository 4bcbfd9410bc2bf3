package prompt

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/alanyang/prompt-mesh/internal/domain/inclusion"
	domainprompt "github.com/alanyang/prompt-mesh/internal/domain/prompt"
	"github.com/alanyang/prompt-mesh/internal/service/expansion"
	promptsvc "github.com/alanyang/prompt-mesh/internal/service/prompt"
	"github.com/alanyang/prompt-mesh/internal/transport/ws"
)

// Register mounts the prompt REST endpoints on the given router group.
// [SRP] HTTP handler only; business logic lives in promptSvc.
// Single-segment routes address legacy bare ids.
func Register(rg *gin.RouterGroup, svc *promptsvc.Service) {
	rg.GET("", listPrompts(svc))
	rg.POST("", createPrompt(svc))
	for _, path := range []string{"/:namespace", "/:namespace/:name"} {
		rg.GET(path, getPrompt(svc))
		rg.PUT(path, updatePrompt(svc))
		rg.DELETE(path, deletePrompt(svc))
	}
}

// RegisterExpand mounts POST /expand.
func RegisterExpand(rg *gin.RouterGroup, svc *promptsvc.Service) {
	rg.POST("/expand", expand(svc))
}

// StatusFor maps service errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case domainprompt.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, domainprompt.ErrNotFound), errors.Is(err, expansion.ErrUnknownRoot):
		return http.StatusNotFound
	case errors.Is(err, domainprompt.ErrAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	c.JSON(StatusFor(err), gin.H{"error": err.Error()})
}

type promptView struct {
	domainprompt.Prompt
	DisplayName string `json:"display_name,omitempty"`
	IsComposite bool   `json:"is_composite"`
}

func view(p domainprompt.Prompt, displayName string) promptView {
	return promptView{Prompt: p, DisplayName: displayName, IsComposite: p.IsComposite()}
}

func listPrompts(svc *promptsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		filters := domainprompt.ListFilters{
			Directory: c.Query("directory"),
			Tag:       c.Query("tag"),
			Search:    c.Query("search"),
		}
		if s := c.Query("composite"); s != "" {
			b, err := strconv.ParseBool(s)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid composite"})
				return
			}
			filters.CompositeOnly = b
		}

		ps, err := svc.List(c.Request.Context(), filters)
		if err != nil {
			writeError(c, err)
			return
		}
		names, err := svc.DisplayNames(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}

		out := make([]promptView, len(ps))
		for i, p := range ps {
			out[i] = view(p, names[p.ID])
		}
		c.JSON(http.StatusOK, out)
	}
}

func getPrompt(svc *promptsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := svc.Get(c.Request.Context(), ws.PromptID(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, view(p, ""))
	}
}

type createPromptReq struct {
	Directory   string   `json:"directory" binding:"required"`
	Name        string   `json:"name" binding:"required"`
	Content     string   `json:"content"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

func createPrompt(svc *promptsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createPromptReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		p, err := svc.Create(c.Request.Context(), promptsvc.CreateInput{
			Directory:   req.Directory,
			Name:        req.Name,
			Content:     req.Content,
			Description: req.Description,
			Tags:        req.Tags,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, view(p, ""))
	}
}

type updatePromptReq struct {
	Content     *string   `json:"content"`
	Description *string   `json:"description"`
	Tags        *[]string `json:"tags"`
}

func updatePrompt(svc *promptsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updatePromptReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.Content == nil && req.Description == nil && req.Tags == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
			return
		}

		id := ws.PromptID(c)
		var (
			p   domainprompt.Prompt
			err error
		)
		if req.Content != nil {
			if p, err = svc.UpdateContent(c.Request.Context(), id, *req.Content); err != nil {
				writeError(c, err)
				return
			}
		}
		if req.Description != nil || req.Tags != nil {
			if p, err = svc.UpdateMetadata(c.Request.Context(), id, req.Description, req.Tags); err != nil {
				writeError(c, err)
				return
			}
		}
		c.JSON(http.StatusOK, view(p, ""))
	}
}

func deletePrompt(svc *promptsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), ws.PromptID(c)); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// expandReq expands a stored prompt by ID, or ad-hoc Content as though it
// lived in Directory and belonged to OwnID.
type expandReq struct {
	ID        string  `json:"id"`
	Content   *string `json:"content"`
	Directory string  `json:"directory"`
	OwnID     string  `json:"own_id"`
}

func expand(svc *promptsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req expandReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var (
			res inclusion.Result
			err error
		)
		switch {
		case req.Content != nil:
			res, err = svc.ExpandContent(c.Request.Context(), *req.Content, req.Directory, req.OwnID)
		case req.ID != "":
			res, err = svc.Expand(c.Request.Context(), req.ID)
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "id or content is required"})
			return
		}
		if err != nil {
			writeError(c, err)
			return
		}

		if res.Dependencies == nil {
			res.Dependencies = []string{}
		}
		if res.Warnings == nil {
			res.Warnings = []inclusion.Warning{}
		}
		c.JSON(http.StatusOK, res)
	}
}
