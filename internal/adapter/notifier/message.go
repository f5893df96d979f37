package notifier

import (
	"fmt"
	"strings"
)

var templates = map[string]string{
	"en": "Hey, here's your virtual classifieds assistant.\nThere is a new item in an observed search!\nTitle: %s\nURL: %s",
	"pl": "Cześć, tu twój wirtualny asystent ogłoszeń.\nPojawiło się nowe ogłoszenie w obserwowanym wyszukiwaniu!\nTytuł: %s\nLink: %s",
}

// FormatMessage renders the new-item message in language ("en" or "pl").
// Unknown languages fall back to English.
func FormatMessage(language, title, url string) string {
	tmpl, ok := templates[strings.ToLower(language)]
	if !ok {
		tmpl = templates["en"]
	}
	return fmt.Sprintf(tmpl, title, url)
}
