package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/requestdesk/intake-backend/internal/projects/domain"
)

const (
	MaxSamples         = 10
	modelConfidence    = 0.8
	fallbackConfidence = 0.5
)

const classifySystemPrompt = "Sen bir yazılım proje kategorilendirme uzmanısın. " +
	"Proje adı ve task'larına bakarak projenin türünü doğru şekilde belirleyebilirsin."

var categoryHints = map[string]string{
	"E-ticaret":        "online mağaza, ürün yönetimi, sipariş, ödeme",
	"Mobil Uygulama":   "iOS/Android uygulama, native, react native",
	"Web Uygulaması":   "web tabanlı sistem, SaaS, dashboard",
	"Kurumsal Website": "tanıtım sitesi, blog, şirket web sitesi",
	"CRM/ERP":          "müşteri yönetimi, iş süreçleri, enterprise",
	"Oyun":             "game development, unity, oyun mekanikleri",
	"API/Backend":      "microservices, API, database, server",
	"Mobil Oyun":       "mobile game, casual game, puzzle",
	"E-öğrenme":        "education, course, learning management",
	"Fintech":          "banking, payment, financial services",
	"Sağlık":           "healthcare, medical, hospital management",
	"Emlak":            "real estate, property management",
	"Sosyal Medya":     "social platform, community, messaging",
	"İçerik Yönetimi":  "CMS, blog platform, publishing",
	"Lojistik":         "shipping, delivery, warehouse management",
}

// ProjectTypeResult is the answer of the explicit project-type endpoint.
type ProjectTypeResult struct {
	ProjectType   string  `json:"projectType"`
	ProjectName   string  `json:"projectName"`
	TasksAnalyzed int     `json:"tasksAnalyzed"`
	Confidence    float64 `json:"confidence"`
	FallbackUsed  bool    `json:"fallbackUsed"`
}

// ClassifyProject picks a category for a project. It never fails: without a
// key, without samples, or when the model answer is unusable, the name-based
// fallback decides.
func (c *Classifier) ClassifyProject(ctx context.Context, name string, samples []domain.TaskSample) domain.Classification {
	if !c.Enabled() || len(samples) == 0 {
		return fallback(name)
	}

	category, err := c.classifyWithModel(ctx, name, samples)
	if err != nil {
		if ctx.Err() == nil {
			slog.Warn("project classification fell back to name heuristics",
				slog.String("project", name),
				slog.Any("error", err))
		}
		return fallback(name)
	}
	return domain.Classification{Category: category, Confidence: modelConfidence}
}

// AnalyzeProjectType classifies on demand and, unlike ClassifyProject,
// reports a missing key or a failed call to the caller.
func (c *Classifier) AnalyzeProjectType(ctx context.Context, name string, samples []domain.TaskSample) (*ProjectTypeResult, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}
	samples = capSamples(samples)

	res := &ProjectTypeResult{
		ProjectName:   name,
		TasksAnalyzed: len(samples),
		ProjectType:   domain.DefaultCategory,
		Confidence:    modelConfidence,
	}

	category, err := c.classifyWithModel(ctx, name, samples)
	switch {
	case err == nil:
		res.ProjectType = category
	case isUnrecognized(err):
		fb := fallback(name)
		res.ProjectType = fb.Category
		res.Confidence = fb.Confidence
		res.FallbackUsed = true
	default:
		return nil, err
	}
	return res, nil
}

type unrecognizedError struct{ reply string }

func (e *unrecognizedError) Error() string {
	return fmt.Sprintf("reply %q is not a known category", e.reply)
}

func isUnrecognized(err error) bool {
	_, ok := err.(*unrecognizedError)
	return ok
}

func (c *Classifier) classifyWithModel(ctx context.Context, name string, samples []domain.TaskSample) (string, error) {
	reply, err := c.Complete(ctx, Prompt{
		Purpose:     "classify",
		System:      classifySystemPrompt,
		User:        buildClassifyPrompt(name, capSamples(samples)),
		Temperature: 0.3,
		MaxTokens:   50,
	})
	if err != nil {
		return "", err
	}
	category, ok := domain.NormalizeCategory(reply)
	if !ok {
		return "", &unrecognizedError{reply: reply}
	}
	return category, nil
}

func fallback(name string) domain.Classification {
	return domain.Classification{
		Category:     InferFromName(name),
		Confidence:   fallbackConfidence,
		FallbackUsed: true,
	}
}

func capSamples(samples []domain.TaskSample) []domain.TaskSample {
	if len(samples) > MaxSamples {
		return samples[:MaxSamples]
	}
	return samples
}

func buildClassifyPrompt(name string, samples []domain.TaskSample) string {
	var b strings.Builder
	b.WriteString("Bir yazılım projesinin türünü belirlemek için proje adı ve task'larını analiz et.\n\n")
	fmt.Fprintf(&b, "Proje Adı: %s\n\nTask'lar:\n", name)
	for i, s := range samples {
		fmt.Fprintf(&b, "%d. %s\n   Açıklama: %s\n   Etiketler: %s\n",
			i+1, s.Name, s.Description, strings.Join(s.Tags, ", "))
	}
	b.WriteString("\nBu proje verilerine bakarak, projenin hangi kategoride olduğunu belirle:\n\nKategoriler:\n")
	for _, cat := range domain.Categories {
		fmt.Fprintf(&b, "- %q (%s)\n", cat, categoryHints[cat])
	}
	b.WriteString("\nSadece en uygun kategori adını döndür, başka açıklama yapma.\n")
	return b.String()
}
