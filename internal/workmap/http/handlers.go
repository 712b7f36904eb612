package http

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/requestdesk/intake-backend/internal/api/http/respond"
	"github.com/requestdesk/intake-backend/internal/workmap/domain"
)

// Source builds the workspace-wide views.
type Source interface {
	Build(ctx context.Context) (*domain.WorkMap, error)
	Workspaces(ctx context.Context) ([]domain.Workspace, error)
	WorkspaceTasks(ctx context.Context) ([]domain.WorkspaceTasks, error)
}

type Handler struct {
	src Source
}

func New(src Source) *Handler {
	return &Handler{src: src}
}

// Register attaches the work map routes. All of them call ClickUp.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/work-map", h.workMap)
	rg.GET("/clickup/workspaces", h.workspaces)
	rg.GET("/clickup/workspace-tasks", h.workspaceTasks)
}

func (h *Handler) workMap(c *gin.Context) {
	wm, err := h.src.Build(c.Request.Context())
	if err != nil {
		respond.Error(c, err, "İş haritası oluşturulamadı.")
		return
	}
	respond.OK(c, wm, gin.H{"count": len(wm.Tasks)})
}

func (h *Handler) workspaces(c *gin.Context) {
	items, err := h.src.Workspaces(c.Request.Context())
	if err != nil {
		respond.Error(c, err, "ClickUp workspace'leri alınamadı.")
		return
	}
	respond.OK(c, items, gin.H{"count": len(items)})
}

func (h *Handler) workspaceTasks(c *gin.Context) {
	items, err := h.src.WorkspaceTasks(c.Request.Context())
	if err != nil {
		respond.Error(c, err, "ClickUp workspace task'ları alınamadı.")
		return
	}
	respond.OK(c, items, gin.H{"count": len(items)})
}
