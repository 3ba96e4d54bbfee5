package collection

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MakeSlug lowercases a title and joins its words with dashes.
// Example: "Red Fox" -> "red-fox"
func MakeSlug(title string) string {
	return strings.ReplaceAll(cases.Lower(language.Und).String(title), " ", "-")
}
