// Package search finds described paths by key or description text.
package search

import (
	"regexp"
	"strings"

	"github.com/caffetsong/md-tree-updater/internal/descriptions"
	"github.com/caffetsong/md-tree-updater/internal/types"
)

// DefaultLimit caps the number of results when no limit is given.
const DefaultLimit = 15

// Service searches a description mapping.
type Service struct {
	descriptions descriptions.Mapping
}

// New creates a search Service over mapping. The map is read, never
// modified.
func New(mapping descriptions.Mapping) *Service {
	return &Service{descriptions: mapping}
}

// Search returns entries whose key or description matches the query, sorted
// by key. Matching is case-insensitive unless CaseSensitive is set, and the
// query is treated literally unless UseRegex is set.
func (s *Service) Search(params types.SearchParams) ([]types.SearchResult, error) {
	query := params.Query
	if strings.TrimSpace(query) == "" {
		return nil, &SearchError{Message: "Search query cannot be empty"}
	}

	limit := params.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	pattern, err := compile(query, params.UseRegex, params.CaseSensitive)
	if err != nil {
		return nil, err
	}

	results := []types.SearchResult{}
	for _, key := range s.descriptions.Keys() {
		if len(results) >= limit {
			break
		}
		desc := s.descriptions[key]

		matchedKey := pattern.MatchString(key)
		if !matchedKey && !pattern.MatchString(desc) {
			continue
		}
		results = append(results, types.SearchResult{
			Path:        key,
			Description: desc,
			MatchedKey:  matchedKey,
		})
	}

	return results, nil
}

func compile(query string, useRegex, caseSensitive bool) (*regexp.Regexp, error) {
	expr := query
	if !useRegex {
		// Escape regex special chars for literal search
		expr = regexp.QuoteMeta(query)
	}
	if !caseSensitive {
		expr = "(?i)" + expr
	}

	pattern, err := regexp.Compile(expr)
	if err != nil {
		if useRegex {
			return nil, &SearchError{Message: "Invalid regex pattern: " + err.Error()}
		}
		return nil, &SearchError{Message: "Search error: " + err.Error()}
	}
	return pattern, nil
}

// SearchError represents a search error.
type SearchError struct {
	Message string
}

func (e *SearchError) Error() string {
	return e.Message
}
