package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/requestdesk/intake-backend/internal/projects/domain"
)

type fakeOpenAI struct {
	calls   atomic.Int64
	reply   string
	status  int
	lastReq map[string]any
}

func newFakeOpenAI(t *testing.T, reply string) (*fakeOpenAI, *Classifier) {
	f := &fakeOpenAI{reply: reply, status: http.StatusOK}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.lastReq = body

		w.Header().Set("Content-Type", "application/json")
		if f.status != http.StatusOK {
			w.WriteHeader(f.status)
			fmt.Fprintf(w, `{"error":{"message":"upstream says no","type":"insufficient_quota","code":"insufficient_quota"}}`)
			return
		}
		content, _ := json.Marshal(f.reply)
		fmt.Fprintf(w, `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4",
			"choices":[{"index":0,"message":{"role":"assistant","content":%s},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":10,"completion_tokens":2,"total_tokens":12}}`, content)
	}))
	t.Cleanup(srv.Close)

	c := New(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1", Timeout: 2 * time.Second})
	return f, c
}

var someSamples = []domain.TaskSample{
	{Name: "Sepet sayfası", Description: "Ürünleri sepete ekleme", Tags: []string{"frontend"}},
	{Name: "Ödeme entegrasyonu", Description: "iyzico", Tags: []string{"backend", "payment"}},
}

func TestInferFromName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Mobile App Redesign", "Mobil Uygulama"},
		{"Android Client", "Mobil Uygulama"},
		{"Pet Shop", "E-ticaret"},
		{"E-Commerce Revamp", "E-ticaret"},
		{"Oyun Projesi", "Oyun"},
		{"Payment Backend", "API/Backend"},
		{"Internal CRM", "CRM/ERP"},
		{"Company Blog", "Kurumsal Website"},
		{"Quarterly Planning", domain.DefaultCategory},
		{"", domain.DefaultCategory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InferFromName(tt.name)
			assert.Equal(t, tt.want, got)
			assert.True(t, domain.IsCategory(got))
		})
	}
}

func TestClassifyProject_ModelAnswer(t *testing.T) {
	f, c := newFakeOpenAI(t, "\"E-ticaret\".")

	res := c.ClassifyProject(context.Background(), "Acme", someSamples)
	assert.Equal(t, "E-ticaret", res.Category)
	assert.Equal(t, 0.8, res.Confidence)
	assert.False(t, res.FallbackUsed)

	require.Equal(t, int64(1), f.calls.Load())
	assert.Equal(t, "gpt-4", f.lastReq["model"])
	assert.InDelta(t, 0.3, f.lastReq["temperature"], 0.0001)
	assert.Equal(t, float64(50), f.lastReq["max_tokens"])

	msgs := f.lastReq["messages"].([]any)
	require.Len(t, msgs, 2)
	user := msgs[1].(map[string]any)["content"].(string)
	assert.Contains(t, user, "Proje Adı: Acme")
	assert.Contains(t, user, "2. Ödeme entegrasyonu")
	assert.Contains(t, user, "Etiketler: backend, payment")
	assert.Contains(t, user, `"Lojistik"`)
}

func TestClassifyProject_ZeroSamplesNeverCallsModel(t *testing.T) {
	f, c := newFakeOpenAI(t, "Fintech")

	res := c.ClassifyProject(context.Background(), "Mobile App Redesign", nil)
	assert.Equal(t, "Mobil Uygulama", res.Category)
	assert.Equal(t, 0.5, res.Confidence)
	assert.True(t, res.FallbackUsed)
	assert.Equal(t, int64(0), f.calls.Load())
}

func TestClassifyProject_NoKey(t *testing.T) {
	c := New(Config{})
	assert.False(t, c.Enabled())

	res := c.ClassifyProject(context.Background(), "Game Night", someSamples)
	assert.Equal(t, "Oyun", res.Category)
	assert.True(t, res.FallbackUsed)
}

func TestClassifyProject_FallsBack(t *testing.T) {
	t.Run("unknown category", func(t *testing.T) {
		_, c := newFakeOpenAI(t, "Bilmiyorum")
		res := c.ClassifyProject(context.Background(), "Store Front", someSamples)
		assert.Equal(t, "E-ticaret", res.Category)
		assert.True(t, res.FallbackUsed)
	})

	t.Run("upstream error", func(t *testing.T) {
		f, c := newFakeOpenAI(t, "")
		f.status = http.StatusInternalServerError
		res := c.ClassifyProject(context.Background(), "Quarterly Planning", someSamples)
		assert.Equal(t, domain.DefaultCategory, res.Category)
		assert.True(t, res.FallbackUsed)
	})

	t.Run("cancelled", func(t *testing.T) {
		_, c := newFakeOpenAI(t, "Fintech")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		res := c.ClassifyProject(ctx, "Bank API", someSamples)
		assert.Equal(t, "API/Backend", res.Category)
		assert.True(t, res.FallbackUsed)
	})
}

func TestAnalyzeProjectType(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		_, err := New(Config{}).AnalyzeProjectType(context.Background(), "X", someSamples)
		require.ErrorIs(t, err, ErrNotConfigured)
	})

	t.Run("model answer", func(t *testing.T) {
		_, c := newFakeOpenAI(t, "Sağlık")
		res, err := c.AnalyzeProjectType(context.Background(), "Klinik", someSamples)
		require.NoError(t, err)
		assert.Equal(t, "Sağlık", res.ProjectType)
		assert.Equal(t, "Klinik", res.ProjectName)
		assert.Equal(t, 2, res.TasksAnalyzed)
		assert.Equal(t, 0.8, res.Confidence)
	})

	t.Run("caps samples", func(t *testing.T) {
		_, c := newFakeOpenAI(t, "Fintech")
		many := make([]domain.TaskSample, 25)
		for i := range many {
			many[i] = domain.TaskSample{Name: fmt.Sprintf("t%d", i)}
		}
		res, err := c.AnalyzeProjectType(context.Background(), "Wallet", many)
		require.NoError(t, err)
		assert.Equal(t, MaxSamples, res.TasksAnalyzed)
	})

	t.Run("upstream error surfaces", func(t *testing.T) {
		f, c := newFakeOpenAI(t, "")
		f.status = http.StatusTooManyRequests
		_, err := c.AnalyzeProjectType(context.Background(), "Wallet", someSamples)
		require.Error(t, err)
		assert.Equal(t, http.StatusTooManyRequests, StatusOf(err))
		assert.True(t, QuotaExceeded(err))
		assert.False(t, errors.Is(err, ErrNotConfigured))
	})
}
