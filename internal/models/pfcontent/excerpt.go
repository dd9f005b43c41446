package pfcontent

import (
	"regexp"
	"strings"
	"unicode/utf8"

	stripmd "github.com/writeas/go-strip-markdown"
)

var reImage = regexp.MustCompile(`!\[.*?\]\(.*?\)`)

// Excerpt génère un résumé texte brut depuis le contenu Markdown
func Excerpt(content string, maxLength int) string {
	text := stripmd.Strip(reImage.ReplaceAllString(content, ""))
	text = strings.Join(strings.Fields(text), " ")

	// Si le texte est déjà assez court
	if utf8.RuneCountInString(text) <= maxLength {
		return text
	}

	runes := []rune(text)

	// D'abord, chercher une fin de phrase (. ! ?)
	cutPoint := maxLength
	for i := maxLength - 1; i >= maxLength-100 && i >= 0; i-- {
		if runes[i] == '.' || runes[i] == '!' || runes[i] == '?' {
			cutPoint = i + 1
			break
		}
	}

	// Si aucune fin de phrase trouvée, chercher un espace
	if cutPoint == maxLength {
		for i := maxLength - 1; i >= maxLength-50 && i >= 0; i-- {
			if runes[i] == ' ' {
				cutPoint = i
				break
			}
		}
	}

	result := strings.TrimSpace(string(runes[:cutPoint]))

	lastChar := runes[cutPoint-1]
	if lastChar != '.' && lastChar != '!' && lastChar != '?' {
		result += "..."
	}

	return result
}

// MetaDescription produit la description courte pour les balises meta
func MetaDescription(content string) string {
	return Excerpt(content, 160)
}
