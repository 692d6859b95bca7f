// Package sanitizer cleans HTML produced from stored content before it reaches
// a theme.
package sanitizer

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy *bluemonday.Policy
	pagePolicy   *bluemonday.Policy
	initOnce     sync.Once
)

func initPolicies() {
	initOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()

		// Page bodies are editor-authored: allow document structure and media
		// on top of the user-generated-content baseline.
		pagePolicy = bluemonday.UGCPolicy()
		pagePolicy.AllowElements("figure", "figcaption", "section", "article")
		pagePolicy.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("a", "code", "pre", "span", "div")
		pagePolicy.RequireNoFollowOnLinks(true)
		pagePolicy.AddTargetBlankToFullyQualifiedLinks(true)
	})
}

// StripHTML removes every tag and returns plain text. Use for excerpts and
// titles.
func StripHTML(s string) string {
	initPolicies()
	return strictPolicy.Sanitize(s)
}

// SanitizePage keeps headings, lists, tables, links and images and removes
// scripts, event handlers and javascript: URLs.
func SanitizePage(s string) string {
	initPolicies()
	return pagePolicy.Sanitize(s)
}

// SanitizeHTMLCustom applies a custom bluemonday policy.
// Returns input unchanged if policy is nil.
func SanitizeHTMLCustom(s string, policy *bluemonday.Policy) string {
	if policy == nil {
		return s
	}
	return policy.Sanitize(s)
}
