package validation

import (
	"net/url"
	"regexp"
	"strings"
)

// Lowercase words separated by single hyphens, e.g. "angkor-wat".
var slugRe = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const MaxSlugLength = 120

func IsValidSlug(slug string) bool {
	return len(slug) <= MaxSlugLength && slugRe.MatchString(slug)
}

func IsValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// IsValidPhotoURL accepts absolute http(s) URLs only.
func IsValidPhotoURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// NormalizeTags trims, lowercases and de-duplicates tags, keeping first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
