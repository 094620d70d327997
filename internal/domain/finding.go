package domain

// FindingKind names the rule a recommendation broke.
type FindingKind string

const (
	FindingStale          FindingKind = "stale"
	FindingOverCeiling    FindingKind = "over_ceiling"
	FindingUnreadableDate FindingKind = "unreadable_date"
)

// Finding is one instruction the model did not follow for a recommendation.
type Finding struct {
	Rank     int         `json:"rank"`
	RepoName string      `json:"repoName"`
	Kind     FindingKind `json:"kind"`
	Message  string      `json:"message"`
}
