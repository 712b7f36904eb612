package respond

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/requestdesk/intake-backend/internal/classifier"
	"github.com/requestdesk/intake-backend/internal/clickup"
	intakedomain "github.com/requestdesk/intake-backend/internal/intake/domain"
	"github.com/requestdesk/intake-backend/internal/logging"
	"github.com/requestdesk/intake-backend/internal/projects/domain"
)

const (
	MsgUnexpected   = "Beklenmeyen bir hata oluştu."
	MsgBadRequest   = "Geçersiz istek."
	MsgAborted      = "İstek iptal edildi."
	MsgNotAllowed   = "Method not allowed"
	MsgNotFound     = "Kaynak bulunamadı."
	MsgRateLimited  = "Çok fazla istek gönderildi. Lütfen biraz bekleyip tekrar deneyin."
	msgClickUpSetup = "ClickUp API yapılandırması eksik. Lütfen CLICKUP_API_TOKEN ve CLICKUP_TEAM_ID değerlerini kontrol edin."
	msgOpenAISetup  = "OpenAI API key yapılandırması eksik."
)

// OK writes {data: ...} plus any extra top-level fields.
func OK(c *gin.Context, data any, extra gin.H) {
	body := gin.H{"data": data}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// BadRequest writes a 400 with the given user message.
func BadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}

// Error translates err into a status and a localized message. fallback is
// used when err carries nothing more specific.
func Error(c *gin.Context, err error, fallback string) {
	status, msg := Translate(err)
	if msg == "" {
		msg = fallback
	}
	if msg == "" {
		msg = MsgUnexpected
	}

	log := logging.FromContext(c.Request.Context())
	switch {
	case errors.Is(err, domain.ErrAborted):
		log.Debug("request aborted by client", slog.String("path", c.Request.URL.Path))
	case status >= 500:
		log.Error("request failed", slog.String("path", c.Request.URL.Path), slog.Any("error", err))
	}

	body := gin.H{"error": msg}
	if gin.IsDebugging() {
		body["debug"] = err.Error()
	}
	c.AbortWithStatusJSON(status, body)
}

// Translate maps known errors onto an HTTP status and a user-facing message.
// An empty message means the caller's fallback applies.
func Translate(err error) (int, string) {
	var (
		cfgErr *clickup.ConfigError
		apiErr *clickup.APIError
	)
	switch {
	case errors.Is(err, domain.ErrAborted):
		return http.StatusServiceUnavailable, MsgAborted
	case errors.As(err, &cfgErr), errors.Is(err, clickup.ErrNotConfigured):
		return http.StatusInternalServerError, msgClickUpSetup
	case errors.As(err, &apiErr):
		return http.StatusInternalServerError, clickUpMessage(apiErr)
	case errors.Is(err, classifier.ErrNotConfigured):
		return http.StatusInternalServerError, msgOpenAISetup
	case errors.Is(err, domain.ErrProjectNotFound):
		return http.StatusNotFound, "Proje bulunamadı."
	case errors.Is(err, domain.ErrBackendUnreachable):
		return http.StatusInternalServerError, "ClickUp'a ulaşılamadı ve kayıtlı proje bulunamadı."
	case errors.Is(err, intakedomain.ErrInvalidAnalysis):
		return http.StatusInternalServerError, "AI yanıtı anlaşılamadı. Lütfen tekrar deneyin."
	}

	if classifier.QuotaExceeded(err) {
		return http.StatusInternalServerError, "OpenAI API kotası aşıldı."
	}
	switch classifier.StatusOf(err) {
	case http.StatusUnauthorized:
		return http.StatusInternalServerError, "OpenAI API anahtarı geçersiz."
	case http.StatusTooManyRequests:
		return http.StatusInternalServerError, "Çok fazla istek gönderildi."
	}
	return http.StatusInternalServerError, ""
}

func clickUpMessage(e *clickup.APIError) string {
	switch e.Status {
	case http.StatusUnauthorized:
		return "ClickUp API anahtarı geçersiz."
	case http.StatusForbidden:
		return "ClickUp erişim izni reddedildi."
	case http.StatusNotFound:
		return "ClickUp kaynağı bulunamadı."
	case http.StatusTooManyRequests:
		return "ClickUp istek limiti aşıldı. Lütfen biraz bekleyin."
	default:
		return "ClickUp API hatası."
	}
}

// MethodNotAllowed is the gin NoMethod handler.
func MethodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, gin.H{"error": MsgNotAllowed})
}

// NotFound is the gin NoRoute handler.
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": MsgNotFound})
}
