package service

import (
	"regexp"
	"strings"
)

// validateURLPattern matches bare or schemed domains against the TLD allow-set.
var validateURLPattern = regexp.MustCompile(`(?:https?://)?(?:www\.)?[a-zA-Z0-9.-]+\.(?:com|ai|org|net|edu|gov|mil|in|info|co\.uk)(?:/[a-zA-Z0-9./-]*)?`)

// plainLinkPattern is the narrower pattern used for scanning cleaned text.
var plainLinkPattern = regexp.MustCompile(`(?:https?://)?(?:www\.)?[a-zA-Z0-9.-]+\.(?:com|org|net|edu|gov|mil|in|info|co\.uk)(?:/[a-zA-Z0-9./-]*)?`)

var blockedURLFragments = []string{"mailto:", "tel:", "wikipedia.org", "gmail.com"}

// ValidateURL normalizes a candidate URL string. It returns a https://-prefixed
// URL, or the empty string when the candidate is blocked or matches no allowed TLD.
func ValidateURL(uri string) string {
	lower := strings.ToLower(uri)
	for _, fragment := range blockedURLFragments {
		if strings.Contains(lower, fragment) {
			return ""
		}
	}

	match := validateURLPattern.FindString(uri)
	if match == "" {
		return ""
	}

	if !strings.HasPrefix(match, "http://") && !strings.HasPrefix(match, "https://") {
		match = "https://" + match
	}
	return match
}

// nonWhitelistPattern matches every character outside the cleaned-text alphabet.
var nonWhitelistPattern = regexp.MustCompile(`[^a-zA-Z0-9 @+./:,_|-]`)

var multiSpacePattern = regexp.MustCompile(`\s+`)

// CleanText strips extracted text down to the ASCII whitelist used by the
// classifier and the plain-text link scanner. Newlines become spaces and
// whitespace runs collapse to a single space.
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\n", " ")
	text = nonWhitelistPattern.ReplaceAllString(text, " ")
	text = multiSpacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

var resumeKeywords = []string{
	"experience", "education", "skills", "qualification",
	"projects", "certification", "work", "employment",
	"job", "profile", "accomplishment", "achievement",
	"responsibility", "university", "college", "degree",
}

// minResumeKeywords is the number of distinct keywords required for a
// document to classify as a resume.
const minResumeKeywords = 4

// IsResumeContent reports whether cleaned text looks like a resume. Keyword
// presence counts, not frequency.
func IsResumeContent(text string) bool {
	lower := strings.ToLower(text)
	matches := 0
	for _, keyword := range resumeKeywords {
		if strings.Contains(lower, keyword) {
			matches++
		}
	}
	return matches >= minResumeKeywords
}

// ExtractPlainTextLinks finds valid URLs embedded in cleaned text.
// The result is deduplicated, preserving first-seen order.
func ExtractPlainTextLinks(text string) []string {
	matches := plainLinkPattern.FindAllString(text, -1)

	links := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, match := range matches {
		validURL := ValidateURL(strings.TrimRight(match, "/"))
		if validURL == "" {
			continue
		}
		if _, ok := seen[validURL]; ok {
			continue
		}
		seen[validURL] = struct{}{}
		links = append(links, validURL)
	}
	return links
}

// unionLinks merges link slices into one deduplicated, first-seen-ordered slice.
func unionLinks(linkSets ...[]string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, set := range linkSets {
		for _, link := range set {
			if _, ok := seen[link]; ok {
				continue
			}
			seen[link] = struct{}{}
			out = append(out, link)
		}
	}
	if out == nil {
		out = []string{}
	}
	return out
}
