package filter

import (
	"fmt"
	"time"

	"contribution-scout/internal/domain"
)

// FreshnessWindowMonths is how recently a recommended project must have been updated.
const FreshnessWindowMonths = 6

// ComplianceAuditor checks model output against the instructions it was
// given. It reports and never removes.
type ComplianceAuditor struct {
	nowFunc func() time.Time
}

func NewComplianceAuditor() *ComplianceAuditor {
	return &ComplianceAuditor{nowFunc: time.Now}
}

// Audit returns a finding for every recommendation last updated more than
// six months ago or harder than ceiling.
func (a *ComplianceAuditor) Audit(recs []domain.Recommendation, ceiling domain.SkillLevel) []domain.Finding {
	current := time.Now()
	if a != nil && a.nowFunc != nil {
		current = a.nowFunc()
	}
	y, m, d := current.Date()
	cutoff := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, -FreshnessWindowMonths, 0)

	var findings []domain.Finding
	for _, rec := range recs {
		updated, err := time.Parse("2006-01-02", rec.LatestUpdatedDate)
		switch {
		case err != nil:
			findings = append(findings, domain.Finding{
				Rank: rec.Rank, RepoName: rec.RepoName, Kind: domain.FindingUnreadableDate,
				Message: fmt.Sprintf("latest updated date %q is not YYYY-MM-DD", rec.LatestUpdatedDate),
			})
		case updated.Before(cutoff):
			findings = append(findings, domain.Finding{
				Rank: rec.Rank, RepoName: rec.RepoName, Kind: domain.FindingStale,
				Message: fmt.Sprintf("last updated %s, before %s", rec.LatestUpdatedDate, cutoff.Format("2006-01-02")),
			})
		}

		if ceiling.Valid() && rec.Difficulty.Rank() > ceiling.Rank() {
			findings = append(findings, domain.Finding{
				Rank: rec.Rank, RepoName: rec.RepoName, Kind: domain.FindingOverCeiling,
				Message: fmt.Sprintf("difficulty %s exceeds ceiling %s", rec.Difficulty, ceiling),
			})
		}
	}
	return findings
}
