package service

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/requestdesk/intake-backend/internal/classifier"
	"github.com/requestdesk/intake-backend/internal/intake/domain"
)

// Completer runs one chat completion.
type Completer interface {
	Complete(ctx context.Context, p classifier.Prompt) (string, error)
}

var jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

const (
	analyzeSystemPrompt = "Sen bir yazılım proje yöneticisi ve teknik analiz uzmanısın. " +
		"Müşteri taleplerini analiz edip ClickUp task'larına dönüştürüyorsun."
	refineSystemPrompt = "Sen bir yazılım proje yöneticisi ve teknik analiz uzmanısın. " +
		"Kullanıcı geri bildirimlerine göre analiz sonuçlarını düzenliyorsun."
	analysisTemperature = 0.7
	analysisMaxTokens   = 1000
)

// Analyzer turns free-text requests into structured work items.
type Analyzer struct {
	llm      Completer
	validate *validator.Validate
}

func NewAnalyzer(llm Completer) *Analyzer {
	return &Analyzer{llm: llm, validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Analyze expands a request into an AnalysisResult.
func (a *Analyzer) Analyze(ctx context.Context, req domain.RequestData, project domain.ProjectContext) (*domain.AnalysisResult, error) {
	reply, err := a.llm.Complete(ctx, classifier.Prompt{
		Purpose:     "analyze",
		System:      analyzeSystemPrompt,
		User:        buildAnalyzePrompt(req, project),
		Temperature: analysisTemperature,
		MaxTokens:   analysisMaxTokens,
	})
	if err != nil {
		return nil, err
	}
	return a.parse(reply)
}

// Refine rewrites an existing analysis according to user feedback.
func (a *Analyzer) Refine(ctx context.Context, current domain.AnalysisResult, feedback string, project domain.ProjectContext) (*domain.AnalysisResult, error) {
	currentJSON, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal current analysis: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Mevcut analiz:\n%s\n\n", currentJSON)
	fmt.Fprintf(&b, "Kullanıcı geri bildirimi:\n%s\n\n", feedback)
	fmt.Fprintf(&b, "Proje: %s\nTeknoloji Stack: %s\n\n", project.Name, strings.Join(project.TechStack, ", "))
	b.WriteString("Lütfen analizi geri bildirime göre düzenle ve aynı JSON formatında yanıtla.\n")

	reply, err := a.llm.Complete(ctx, classifier.Prompt{
		Purpose:     "refine",
		System:      refineSystemPrompt,
		User:        b.String(),
		Temperature: analysisTemperature,
		MaxTokens:   analysisMaxTokens,
	})
	if err != nil {
		return nil, err
	}
	return a.parse(reply)
}

// parse pulls the first JSON object out of the reply and validates it.
func (a *Analyzer) parse(reply string) (*domain.AnalysisResult, error) {
	raw := jsonObject.FindString(reply)
	if raw == "" {
		return nil, fmt.Errorf("%w: no JSON object in reply", domain.ErrInvalidAnalysis)
	}

	var res domain.AnalysisResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidAnalysis, err)
	}
	res.Normalize()

	if err := a.validate.Struct(res); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidAnalysis, err)
	}
	return &res, nil
}

func buildAnalyzePrompt(req domain.RequestData, project domain.ProjectContext) string {
	var b strings.Builder
	b.WriteString("Bir müşteri talep yönetim sistemi için AI analiz yapıyorsun.\n\n")
	b.WriteString("Proje Bilgileri:\n")
	fmt.Fprintf(&b, "- Proje: %s\n", project.Name)
	fmt.Fprintf(&b, "- Açıklama: %s\n", project.Description)
	fmt.Fprintf(&b, "- Teknoloji Stack: %s\n", strings.Join(project.TechStack, ", "))
	if project.ProjectType != "" {
		fmt.Fprintf(&b, "- Proje Türü: %s\n", project.ProjectType)
	}
	fmt.Fprintf(&b, "- AI Context: %s\n\n", project.AIContext)

	b.WriteString("Müşteri Talebi:\n")
	fmt.Fprintf(&b, "- Metin: %s\n", req.Text)
	fmt.Fprintf(&b, "- Tip: %s\n", req.Type)
	fmt.Fprintf(&b, "- Öncelik: %s\n\n", req.Priority)

	b.WriteString(`Lütfen bu talebi analiz et ve aşağıdaki JSON formatında yanıtla:

{
  "title": "Kısa ve açıklayıcı başlık",
  "description": "Detaylı açıklama",
  "category": "Frontend/Backend/Database/DevOps/UI-UX",
  "priority": "low/medium/high/urgent",
  "estimatedTime": "1-2 gün",
  "technicalRequirements": ["Gereksinim 1", "Gereksinim 2"],
  "acceptanceCriteria": ["Kriter 1", "Kriter 2"],
  "tags": ["tag1", "tag2"],
  "assignee": "Opsiyonel atanan kişi",
  "dueDate": "Opsiyonel tarih (YYYY-MM-DD)"
}

Türkçe yanıtla ve projenin teknik bağlamına uygun analiz yap.
`)
	return b.String()
}
