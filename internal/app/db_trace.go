package app

import (
	"fmt"
	"regexp"
	"strings"
)

const maxTracedQueryLength = 512

var (
	queryWhitespaceRegex = regexp.MustCompile(`\s+`)
	queryValuesRegex     = regexp.MustCompile(`(?i)\bVALUES\s*\(`)
)

// formatDBQueryForTrace flattens whitespace and folds multi-row VALUES lists,
// so mirror batch inserts show up as one tuple plus a row count.
func formatDBQueryForTrace(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	normalized := foldValueTuples(queryWhitespaceRegex.ReplaceAllString(query, " "))
	if len(normalized) <= maxTracedQueryLength {
		return normalized
	}

	return normalized[:maxTracedQueryLength] + "..."
}

func foldValueTuples(query string) string {
	loc := queryValuesRegex.FindStringIndex(query)
	if loc == nil {
		return query
	}

	start := loc[1] - 1
	firstEnd, end, tuples := -1, len(query), 0
	depth := 0
scan:
	for i := start; i < len(query); i++ {
		switch c := query[i]; {
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				tuples++
				if firstEnd < 0 {
					firstEnd = i + 1
				}
				end = i + 1
			}
		case depth == 0 && c != ',' && c != ' ':
			break scan
		}
	}
	if tuples < 2 {
		return query
	}

	return query[:firstEnd] + fmt.Sprintf(" /* +%d rows */", tuples-1) + query[end:]
}
