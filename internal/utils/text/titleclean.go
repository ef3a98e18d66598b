package text

import (
	"regexp"
	"strings"
)

// bracketedTag matches a leading or trailing bracketed/parenthesized tag,
// e.g. "[Exclusive]", "(Video)", "【속보】".
var bracketedTag = regexp.MustCompile(`^\s*[\[(（【][^\])）】]{0,40}[\])）】]\s*|\s*[\[(（【][^\])）】]{0,40}[\])）】]\s*$`)

// htmlTag strips any remaining HTML markup from a title.
var htmlTag = regexp.MustCompile(`<[^>]+>`)

// brandSeparator matches a trailing " - Brand Name" / " | Brand Name" style
// suffix that search providers commonly append.
var brandSeparator = regexp.MustCompile(`\s*[-|–—]\s*[^-|–—]{1,40}$`)

// CleanTitle strips HTML markup, bracketed tags, and a trailing media-brand
// suffix from a raw search-result title, matching the reference
// implementation's news-title cleansing step. It is applied repeatedly to
// bracketed tags since a title may carry more than one.
func CleanTitle(raw string) string {
	cleaned := htmlTag.ReplaceAllString(raw, "")

	for {
		stripped := bracketedTag.ReplaceAllString(cleaned, "")
		if stripped == cleaned {
			break
		}
		cleaned = stripped
	}

	cleaned = brandSeparator.ReplaceAllString(cleaned, "")

	return strings.TrimSpace(cleaned)
}
