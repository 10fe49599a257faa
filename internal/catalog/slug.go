package catalog

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var slugStripRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns a product title into a URL-safe slug. Non-latin titles that
// strip to nothing fall back to a generated identifier.
func Slugify(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = slugStripRe.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return fmt.Sprintf("product-%s", uuid.NewString()[:8])
	}
	return slug
}

// WithSlugSuffix appends a short random suffix for collision retries.
func WithSlugSuffix(slug string) string {
	return fmt.Sprintf("%s-%s", slug, uuid.NewString()[:8])
}
