package types

type (
	// SyncResult summarizes one synchronization run.
	SyncResult struct {
		Added         []string        `json:"added"`
		Archived      []ArchivedEntry `json:"archived"`
		Updated       bool            `json:"updated"`       // target document rewritten
		RerunRequired bool            `json:"rerunRequired"` // markers were appended, nothing rendered
		Tree          string          `json:"tree,omitempty"`
	}

	// CheckResult reports whether the target document and description file
	// are current, without changing either.
	CheckResult struct {
		MissingMarkers bool            `json:"missingMarkers"`
		TreeStale      bool            `json:"treeStale"`
		Added          []string        `json:"added,omitempty"`
		Archived       []ArchivedEntry `json:"archived,omitempty"`
	}

	// DescribeParams contains parameters for setting a single description.
	DescribeParams struct {
		Path        string `json:"path"`
		Description string `json:"description"`
	}
)

// UpToDate reports whether a sync would change nothing.
func (c CheckResult) UpToDate() bool {
	return !c.MissingMarkers && !c.TreeStale && len(c.Added) == 0 && len(c.Archived) == 0
}
