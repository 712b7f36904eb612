package domain

import "strings"

const DefaultCategory = "Web Uygulaması"

// Categories is the closed vocabulary a project can be classified into.
var Categories = []string{
	"E-ticaret",
	"Mobil Uygulama",
	"Web Uygulaması",
	"Kurumsal Website",
	"CRM/ERP",
	"Oyun",
	"API/Backend",
	"Mobil Oyun",
	"E-öğrenme",
	"Fintech",
	"Sağlık",
	"Emlak",
	"Sosyal Medya",
	"İçerik Yönetimi",
	"Lojistik",
}

// DefaultTechStack is assigned to projects that have not been given one.
var DefaultTechStack = []string{"Next.js", "React", "TypeScript"}

// IsCategory reports whether c is part of the vocabulary.
func IsCategory(c string) bool {
	for _, known := range Categories {
		if known == c {
			return true
		}
	}
	return false
}

// NormalizeCategory maps free text onto the vocabulary, or returns ("", false).
// Exact case-insensitive matches win over containment.
func NormalizeCategory(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, "\"'`*-•. \t\n")
	if s == "" {
		return "", false
	}
	lower := strings.ToLower(s)
	for _, known := range Categories {
		if strings.ToLower(known) == lower {
			return known, true
		}
	}
	// Longest label first so "Mobil Oyun" beats "Oyun".
	best := ""
	for _, known := range Categories {
		if strings.Contains(lower, strings.ToLower(known)) && len(known) > len(best) {
			best = known
		}
	}
	if best != "" {
		return best, true
	}
	return "", false
}

// DefaultStack returns a fresh copy of DefaultTechStack.
func DefaultStack() []string {
	out := make([]string, len(DefaultTechStack))
	copy(out, DefaultTechStack)
	return out
}
