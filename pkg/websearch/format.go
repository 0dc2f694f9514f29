// Copyright Web Search Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package websearch

import "strings"

// Formatter output constants.
const (
	NoResultsText      = "No relevant results found."
	UnknownTitleText   = "unknown title"
	NoContentText      = "no content"
	resultSeparator    = "\n\n"
	formatTitlePrefix  = "Title: "
	formatSnippetLabel = "Content: "
)

// FormatResults renders results as "Title:/Content:" blocks separated by a
// blank line. The engine name is accepted for per-engine formatting but not
// used yet.
func FormatResults(results []Result, engine string) string {
	_ = engine
	if len(results) == 0 {
		return NoResultsText
	}

	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString(resultSeparator)
		}
		title := strings.TrimSpace(r.Title)
		if title == "" {
			title = UnknownTitleText
		}
		snippet := strings.TrimSpace(r.Snippet)
		if snippet == "" {
			snippet = NoContentText
		}
		b.WriteString(formatTitlePrefix)
		b.WriteString(title)
		b.WriteByte('\n')
		b.WriteString(formatSnippetLabel)
		b.WriteString(snippet)
	}
	return b.String()
}
