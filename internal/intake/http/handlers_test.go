package http

import (
	"context"
	"encoding/json"
	"errors"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/requestdesk/intake-backend/internal/classifier"
	"github.com/requestdesk/intake-backend/internal/intake/domain"
)

type fakeAnalyzer struct {
	err         error
	gotReq      domain.RequestData
	gotProject  domain.ProjectContext
	gotFeedback string
	gotCurrent  domain.AnalysisResult
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, req domain.RequestData, p domain.ProjectContext) (*domain.AnalysisResult, error) {
	f.gotReq, f.gotProject = req, p
	if f.err != nil {
		return nil, f.err
	}
	return &domain.AnalysisResult{Title: "Başlık", Description: "d", Priority: "high"}, nil
}

func (f *fakeAnalyzer) Refine(ctx context.Context, cur domain.AnalysisResult, feedback string, p domain.ProjectContext) (*domain.AnalysisResult, error) {
	f.gotCurrent, f.gotFeedback, f.gotProject = cur, feedback, p
	if f.err != nil {
		return nil, f.err
	}
	cur.Title = "Kısa"
	return &cur, nil
}

func serve(t *testing.T, a *fakeAnalyzer, path, body string) (int, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	New(a).Register(r.Group("/api/v1"))

	req := httptest.NewRequest(stdhttp.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return w.Code, out
}

func TestAnalyze(t *testing.T) {
	a := &fakeAnalyzer{}
	code, body := serve(t, a, "/api/v1/analyze",
		`{"request":{"text":"Sepet boşalıyor","type":"bug","priority":"high"},"project":{"id":"L1","name":"Shop","techStack":["Go"]}}`)

	require.Equal(t, stdhttp.StatusOK, code)
	assert.Equal(t, "Sepet boşalıyor", a.gotReq.Text)
	assert.Equal(t, "Shop", a.gotProject.Name)
	assert.Equal(t, "Başlık", body["data"].(map[string]any)["title"])
}

func TestAnalyze_BadInput(t *testing.T) {
	for name, payload := range map[string]string{
		"empty text":   `{"request":{"text":"  "},"project":{"name":"Shop"}}`,
		"no project":   `{"request":{"text":"x"}}`,
		"bad priority": `{"request":{"text":"x","priority":"asap"},"project":{"name":"Shop"}}`,
		"bad type":     `{"request":{"text":"x","type":"chore"},"project":{"name":"Shop"}}`,
	} {
		t.Run(name, func(t *testing.T) {
			code, body := serve(t, &fakeAnalyzer{}, "/api/v1/analyze", payload)
			assert.Equal(t, stdhttp.StatusBadRequest, code)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestAnalyze_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{"no key", classifier.ErrNotConfigured, "OpenAI API key"},
		{"unparseable", domain.ErrInvalidAnalysis, "AI yanıtı anlaşılamadı"},
		{"other", errors.New("dial tcp: timeout"), "Analiz yapılamadı."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := serve(t, &fakeAnalyzer{err: tt.err}, "/api/v1/analyze",
				`{"request":{"text":"x"},"project":{"name":"Shop"}}`)
			assert.Equal(t, stdhttp.StatusInternalServerError, code)
			assert.Contains(t, body["error"], tt.msg)
		})
	}
}

func TestRefine(t *testing.T) {
	a := &fakeAnalyzer{}
	code, body := serve(t, a, "/api/v1/refine",
		`{"analysis":{"title":"Uzun","description":"d","priority":"low"},"feedback":"kısalt","project":{"name":"Shop"}}`)

	require.Equal(t, stdhttp.StatusOK, code)
	assert.Equal(t, "kısalt", a.gotFeedback)
	assert.Equal(t, "Uzun", a.gotCurrent.Title)
	assert.Equal(t, "Kısa", body["data"].(map[string]any)["title"])
}

func TestRefine_RequiresFeedback(t *testing.T) {
	code, _ := serve(t, &fakeAnalyzer{}, "/api/v1/refine",
		`{"analysis":{"title":"Uzun"},"feedback":"","project":{"name":"Shop"}}`)
	assert.Equal(t, stdhttp.StatusBadRequest, code)
}
