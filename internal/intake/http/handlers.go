package http

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/requestdesk/intake-backend/internal/api/http/respond"
	"github.com/requestdesk/intake-backend/internal/intake/domain"
)

// RequestAnalyzer turns requests into work items and refines them.
type RequestAnalyzer interface {
	Analyze(ctx context.Context, req domain.RequestData, project domain.ProjectContext) (*domain.AnalysisResult, error)
	Refine(ctx context.Context, current domain.AnalysisResult, feedback string, project domain.ProjectContext) (*domain.AnalysisResult, error)
}

type analyzeReq struct {
	Request domain.RequestData    `json:"request"`
	Project domain.ProjectContext `json:"project"`
}

type refineReq struct {
	Analysis domain.AnalysisResult `json:"analysis"`
	Feedback string                `json:"feedback" binding:"required"`
	Project  domain.ProjectContext `json:"project"`
}

type Handler struct {
	analyzer RequestAnalyzer
}

func New(analyzer RequestAnalyzer) *Handler {
	return &Handler{analyzer: analyzer}
}

// Register attaches the analysis routes. They all call the language model.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/analyze", h.analyze)
	rg.POST("/refine", h.refine)
}

func (h *Handler) analyze(c *gin.Context) {
	var req analyzeReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Request.Text) == "" {
		respond.BadRequest(c, "Talep metni ve proje bilgisi gerekli.")
		return
	}

	res, err := h.analyzer.Analyze(c.Request.Context(), req.Request, req.Project)
	if err != nil {
		respond.Error(c, err, "Analiz yapılamadı.")
		return
	}
	respond.OK(c, res, nil)
}

func (h *Handler) refine(c *gin.Context) {
	var req refineReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Feedback) == "" {
		respond.BadRequest(c, "Analiz, geri bildirim ve proje bilgisi gerekli.")
		return
	}

	res, err := h.analyzer.Refine(c.Request.Context(), req.Analysis, req.Feedback, req.Project)
	if err != nil {
		respond.Error(c, err, "Analiz güncellenemedi.")
		return
	}
	respond.OK(c, res, nil)
}
