package entity

// SearchHit is a single raw search-provider result, transient per query.
type SearchHit struct {
	// RawTitle is the title exactly as returned by the search provider.
	RawTitle string

	// CleanedTitle has media brand prefixes/suffixes, bracketed tags, and
	// HTML stripped.
	CleanedTitle string

	// URL is the result's link.
	URL string

	// Provider tags which SearchProvider produced this hit: "primary" or
	// "secondary".
	Provider string

	// Position is the hit's 0-based rank in the original search-result
	// order; it is the primary ordering key during title k-NN matching.
	Position int
}

// EvidenceCandidate is a single article body matched to a claim, transient
// per claim until judged.
type EvidenceCandidate struct {
	// URL is the candidate article's source URL.
	URL string

	// BodySnippet is the concatenated page content for URL.
	BodySnippet string

	// MatchedTitle is the CSE title that matched this URL during k-NN
	// search, for traceability.
	MatchedTitle string

	// RawMatchedTitle is the uncleaned form of MatchedTitle.
	RawMatchedTitle string
}

// Verdict is the structured output of a Judge evaluation for one
// (claim, candidate) pair.
type Verdict struct {
	// Relevance is "yes" or "no".
	Relevance string

	// FactDescription is the Judge's free-text description of whether the
	// claim is factually supported.
	FactDescription string

	// Justification is the Judge's free-text reasoning.
	Justification string

	// Snippet is the Judge's quoted core supporting sentence, if any.
	Snippet string
}

// IsRelevant reports whether the verdict accepts the candidate as evidence.
func (v Verdict) IsRelevant() bool {
	return v.Relevance == "yes"
}

// Evidence is a Verdict retained because relevance was "yes" and its URL had
// not already been used for the same claim.
type Evidence struct {
	URL             string
	SourceTitle     string
	Relevance       string
	FactDescription string
	Justification   string
	Snippet         string
}

// FromVerdict builds an Evidence entry for the given URL and its matched
// source title from a verdict already known to be relevant.
func FromVerdict(url, sourceTitle string, v Verdict) Evidence {
	return Evidence{
		URL:             url,
		SourceTitle:     sourceTitle,
		Relevance:       v.Relevance,
		FactDescription: v.FactDescription,
		Justification:   v.Justification,
		Snippet:         v.Snippet,
	}
}
