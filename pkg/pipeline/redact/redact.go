// Package redact strips credentials from strings before they are logged or shown.
package redact

import (
	"regexp"
	"strings"
)

var (
	// Matches "Bearer <token>" (JWTs and opaque tokens).
	bearerTokenRe = regexp.MustCompile(`(?i)\bBearer\s+[^\s"']+`)

	// Common key=value formats that sometimes leak in error strings, including query strings
	// built by upstream SDKs.
	apiKeyKVRe = regexp.MustCompile(`(?i)\b(api[_-]?key|gemini[_-]?api[_-]?key|key|access[_-]?token|github[_-]?token)\b\s*[:=]\s*[^\s"'&]+`)

	// Google API keys and GitHub personal/fine-grained tokens appear bare in some errors.
	googleKeyRe = regexp.MustCompile(`\bAIza[0-9A-Za-z_\-]{20,}`)
	githubTokRe = regexp.MustCompile(`\b(gh[pousr]_[0-9A-Za-z]{20,}|github_pat_[0-9A-Za-z_]{20,})`)
)

// Secrets removes obvious secret-bearing substrings from error/log strings.
//
// Safe to call on any message, including user-provided URLs and upstream errors.
func Secrets(s string) string {
	if s == "" {
		return ""
	}
	out := s
	out = bearerTokenRe.ReplaceAllString(out, "Bearer <redacted>")
	out = apiKeyKVRe.ReplaceAllString(out, "<redacted_kv>")
	out = googleKeyRe.ReplaceAllString(out, "<redacted_key>")
	out = githubTokRe.ReplaceAllString(out, "<redacted_token>")
	return strings.TrimSpace(out)
}

// Truncate shortens s to at most max runes, appending "..." when it cut anything.
func Truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
