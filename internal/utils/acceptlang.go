package utils

import (
	"strings"

	"golang.org/x/text/language"
)

// DetermineLocale resolves the locale to use from an explicit query param, then the
// Accept-Language header, then def. Supported values are base tags like "en", "zh".
func DetermineLocale(queryLang, acceptLang string, supported []string, def string) string {
	names := make([]string, 0, len(supported))
	tags := make([]language.Tag, 0, len(supported))
	add := func(name string) {
		name = strings.ToLower(strings.TrimSpace(name))
		tag, err := language.Parse(name)
		if err != nil {
			return
		}
		for _, n := range names {
			if n == name {
				return
			}
		}
		names = append(names, name)
		tags = append(tags, tag)
	}
	// the matcher treats its first tag as the fallback
	for _, s := range supported {
		if strings.EqualFold(strings.TrimSpace(s), def) {
			add(s)
		}
	}
	for _, s := range supported {
		add(s)
	}
	if len(names) == 0 {
		return "en"
	}
	matcher := language.NewMatcher(tags)

	if queryLang != "" {
		if tag, err := language.Parse(queryLang); err == nil {
			if _, idx, conf := matcher.Match(tag); conf != language.No {
				return names[idx]
			}
		}
	}
	if acceptLang != "" {
		if prefs, _, err := language.ParseAcceptLanguage(acceptLang); err == nil && len(prefs) > 0 {
			if _, idx, conf := matcher.Match(prefs...); conf != language.No {
				return names[idx]
			}
		}
	}
	return names[0]
}
