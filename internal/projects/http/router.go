package http

import "github.com/gin-gonic/gin"

// RegisterGeneral attaches routes that only touch local state.
func (h *Handler) RegisterGeneral(rg *gin.RouterGroup) {
	rg.POST("/projects/refresh", h.refresh)
	rg.GET("/projects/:id/analyses", h.analyses)
	rg.POST("/db/init", h.initDB)
}

// RegisterClickUp attaches routes that call ClickUp.
func (h *Handler) RegisterClickUp(rg *gin.RouterGroup) {
	rg.GET("/projects", h.listProjects)
	rg.GET("/clickup/lists", h.rawLists)
	rg.GET("/clickup/tasks", h.listTasks)
	rg.POST("/clickup/tasks", h.createTask)
}

// RegisterAI attaches routes that call the language model.
func (h *Handler) RegisterAI(rg *gin.RouterGroup) {
	rg.POST("/analyze-project-type", h.analyzeType)
}
