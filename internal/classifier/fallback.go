package classifier

import (
	"strings"

	"github.com/requestdesk/intake-backend/internal/projects/domain"
)

type keywordRule struct {
	keywords []string
	category string
}

// Checked in order; the first rule with a matching keyword wins.
var nameRules = []keywordRule{
	{[]string{"app", "mobile", "ios", "android"}, "Mobil Uygulama"},
	{[]string{"shop", "store", "ecommerce", "e-commerce"}, "E-ticaret"},
	{[]string{"game", "oyun"}, "Oyun"},
	{[]string{"api", "backend", "service"}, "API/Backend"},
	{[]string{"crm", "erp"}, "CRM/ERP"},
	{[]string{"blog", "website", "site"}, "Kurumsal Website"},
}

// InferFromName guesses a category from the project name alone. It always
// returns a category from the vocabulary.
func InferFromName(name string) string {
	lower := strings.ToLower(name)
	for _, rule := range nameRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.category
			}
		}
	}
	return domain.DefaultCategory
}
