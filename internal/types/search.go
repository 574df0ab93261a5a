package types

type (
	// SearchParams contains parameters for searching descriptions.
	SearchParams struct {
		Query         string `json:"query"`
		UseRegex      bool   `json:"useRegex,omitempty"`
		CaseSensitive bool   `json:"caseSensitive,omitempty"`
		Limit         int    `json:"limit,omitempty"`
	}

	// SearchResult is one described path matching a query.
	SearchResult struct {
		Path        string `json:"path"`
		Description string `json:"description"`
		MatchedKey  bool   `json:"matchedKey,omitempty"`
	}
)
