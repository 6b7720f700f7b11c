package synthesis

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxThemes is the exact length of the key-themes list in every report.
const maxThemes = 5

// themeLabels maps provider topic tags to reader-facing theme names. Tags
// outside the table get a generic snake_case to title-case conversion.
var themeLabels = map[string]string{
	"earnings":                 "Corporate Earnings",
	"mergers_and_acquisitions": "M&A Activity",
	"federal_reserve":          "Federal Reserve Policy",
	"energy":                   "Energy Markets",
	"technology":               "Technology Sector",
	"finance":                  "Financial Services",
	"manufacturing":            "Manufacturing Sector",
	"real_estate":              "Real Estate Markets",
	"retail_wholesale":         "Retail & Consumer",
	"life_sciences":            "Healthcare & Biotech",
}

// defaultThemes pad the list when fewer than five distinct themes came back.
var defaultThemes = []string{
	"Market Sentiment Analysis",
	"Economic Policy Updates",
	"Corporate Earnings Focus",
	"Global Market Dynamics",
	"Financial Sector Trends",
}

// NormalizeThemes converts raw provider topic tags into exactly five distinct
// display themes, preserving first-seen order and padding from the default
// list.
func NormalizeThemes(raw []string) []string {
	themes := make([]string, 0, maxThemes)
	seen := make(map[string]bool, maxThemes)

	add := func(theme string) {
		if theme == "" || seen[theme] || len(themes) >= maxThemes {
			return
		}
		seen[theme] = true
		themes = append(themes, theme)
	}

	for _, tag := range raw {
		add(normalizeTheme(tag))
	}
	for _, theme := range defaultThemes {
		add(theme)
	}
	return themes
}

func normalizeTheme(tag string) string {
	if tag == "" {
		return ""
	}
	if label, ok := themeLabels[strings.ToLower(tag)]; ok {
		return label
	}
	words := strings.Fields(strings.ReplaceAll(tag, "_", " "))
	for i, w := range words {
		first, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(first)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}
