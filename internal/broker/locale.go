package broker

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// canonicalLocale parses a free-form locale tag, falling back to English
// for anything unparseable. The result is kept per connection
// (clientConn.locale) and passed to normalizePronouns, which does not
// branch on it; it is not sent to the shard.
func canonicalLocale(locale string) string {
	tag, err := language.Parse(locale)
	if err != nil {
		return language.English.String()
	}
	return tag.String()
}

// normalizePronouns resolves free-form pronoun input to a canonical key
// ("he" | "she" | "they"). Locale-specific aliases can go here; for now
// every locale shares the minimal English set, same as the system this is
// grounded on.
func normalizePronouns(locale, s string) (string, bool) {
	switch cases.Fold().String(strings.TrimSpace(s)) {
	case "he", "him":
		return "he", true
	case "she", "her":
		return "she", true
	case "they", "them":
		return "they", true
	default:
		return "", false
	}
}
