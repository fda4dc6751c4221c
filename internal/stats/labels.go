package stats

import (
	"strings"
	"unicode"
)

// categoryLabels maps the scanner's category keys to display labels. Keys
// outside the table fall back to humanized casing of the raw key.
var categoryLabels = map[string]string{
	"tagging":        "Tagging",
	"alt_text":       "Alternative Text",
	"altText":        "Alternative Text",
	"metadata":       "Metadata",
	"reading_order":  "Reading Order",
	"readingOrder":   "Reading Order",
	"contrast":       "Color Contrast",
	"color_contrast": "Color Contrast",
	"fonts":          "Fonts",
	"structure":      "Document Structure",
	"tables":         "Tables",
	"lists":          "Lists",
	"headings":       "Headings",
	"links":          "Links",
	"forms":          "Forms",
	"language":       "Language",
	"bookmarks":      "Bookmarks",
	"annotations":    "Annotations",
	"other":          "Other",
	"issues":         "Issues",
}

// labelFor resolves a category key to its display label.
func labelFor(key string) string {
	if label, ok := categoryLabels[key]; ok {
		return label
	}
	return humanize(key)
}

// humanize turns snake_case, kebab-case, or camelCase keys into title-cased
// words: "reading_order" and "readingOrder" both become "Reading Order".
func humanize(key string) string {
	if key == "" {
		return "Other"
	}

	var words []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}

	for _, r := range key {
		switch {
		case r == '_' || r == '-' || r == ' ' || r == '.':
			flush()
		case unicode.IsUpper(r):
			flush()
			current.WriteRune(unicode.ToLower(r))
		default:
			current.WriteRune(r)
		}
	}
	flush()

	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
