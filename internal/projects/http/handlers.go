package http

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/requestdesk/intake-backend/internal/api/http/respond"
	"github.com/requestdesk/intake-backend/internal/projects/domain"
)

const (
	defaultTaskLimit    = 10
	defaultHistoryLimit = 10
)

type Handler struct {
	projects ProjectSource
	store    ProjectStore
	tasks    TaskClient
	types    TypeAnalyzer
}

func New(projects ProjectSource, store ProjectStore, tasks TaskClient, types TypeAnalyzer) *Handler {
	return &Handler{projects: projects, store: store, tasks: tasks, types: types}
}

func (h *Handler) listProjects(c *gin.Context) {
	items, err := h.projects.GetProjects(c.Request.Context())
	if err != nil {
		respond.Error(c, err, "Projeler yüklenemedi.")
		return
	}
	respond.OK(c, items, gin.H{"count": len(items)})
}

func (h *Handler) refresh(c *gin.Context) {
	h.projects.ClearCache()
	respond.OK(c, refreshResponse{
		Message:   "Proje önbelleği temizlendi.",
		Timestamp: time.Now().UTC(),
	}, nil)
}

func (h *Handler) analyses(c *gin.Context) {
	id := c.Param("id")
	limit := queryInt(c, "limit", defaultHistoryLimit)

	if _, err := h.store.GetByID(c.Request.Context(), id); err != nil {
		respond.Error(c, err, "Proje geçmişi yüklenemedi.")
		return
	}
	items, err := h.store.ListAnalyses(c.Request.Context(), id, limit)
	if err != nil {
		respond.Error(c, err, "Proje geçmişi yüklenemedi.")
		return
	}
	respond.OK(c, items, gin.H{"count": len(items)})
}

func (h *Handler) initDB(c *gin.Context) {
	if err := h.store.EnsureSchema(c.Request.Context()); err != nil {
		respond.Error(c, err, "Veritabanı başlatılamadı.")
		return
	}
	respond.OK(c, messageResponse{Message: "Veritabanı başarıyla başlatıldı."}, nil)
}

func (h *Handler) rawLists(c *gin.Context) {
	lists, err := h.projects.FetchRawLists(c.Request.Context())
	if err != nil {
		respond.Error(c, err, "ClickUp listeleri alınamadı.")
		return
	}
	if lists == nil {
		lists = []domain.ListRecord{}
	}
	respond.OK(c, lists, gin.H{"count": len(lists), "teamId": h.tasks.TeamID()})
}

func (h *Handler) listTasks(c *gin.Context) {
	listID := strings.TrimSpace(c.Query("listId"))
	if listID == "" {
		respond.BadRequest(c, "listId parametresi gerekli.")
		return
	}
	limit := queryInt(c, "limit", defaultTaskLimit)

	tasks, err := h.tasks.FetchTasks(c.Request.Context(), listID, domain.RecentTasksFilter(limit))
	if err != nil {
		respond.Error(c, err, "ClickUp task'ları alınamadı.")
		return
	}
	respond.OK(c, tasks, gin.H{"count": len(tasks), "listId": listID})
}

func (h *Handler) createTask(c *gin.Context) {
	var req createTaskReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "analysis ve project bilgileri gerekli.")
		return
	}
	listID := req.Project.ClickUpListID
	if listID == "" {
		listID = req.Project.ID
	}
	if strings.TrimSpace(req.Analysis.Title) == "" || listID == "" {
		respond.BadRequest(c, "analysis ve project bilgileri gerekli.")
		return
	}

	created, err := h.tasks.CreateTask(c.Request.Context(), listID, toNewTask(req.Analysis))
	if err != nil {
		respond.Error(c, err, "ClickUp task oluşturulamadı.")
		return
	}
	respond.OK(c, created, nil)
}

func (h *Handler) analyzeType(c *gin.Context) {
	var req analyzeTypeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "projectName ve tasks bilgileri gerekli")
		return
	}

	samples := make([]domain.TaskSample, 0, len(req.Tasks))
	for _, t := range req.Tasks {
		rec := domain.TaskRecord{ID: t.ID, Name: t.Name, Description: t.Description, Tags: t.Tags}
		samples = append(samples, rec.Sample())
	}

	res, err := h.types.AnalyzeProjectType(c.Request.Context(), req.ProjectName, samples)
	if err != nil {
		respond.Error(c, err, "Proje türü analizi yapılamadı.")
		return
	}
	respond.OK(c, res, nil)
}

func queryInt(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
