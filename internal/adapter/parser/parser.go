package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"contribution-scout/internal/common"
	"contribution-scout/internal/domain"

	"gorm.io/datatypes"
)

const dateLayout = "2006-01-02"

// StripCodeFences removes a Markdown fence (```json ... ```) wrapped around
// model output.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if i := strings.Index(s, "\n"); i != -1 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	if i := strings.LastIndex(s, "```"); i != -1 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// SchemaError lists every way a decoded payload departs from the expected shape.
type SchemaError struct {
	Problems []string
}

func (e *SchemaError) Error() string {
	return strings.Join(e.Problems, "; ")
}

func (e *SchemaError) add(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

func (e *SchemaError) orNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return common.WrapError(common.ErrCodeSchemaViolation, "model output violated schema", e)
}

// decode unmarshals model output. Well-formed JSON whose values have the wrong
// type is a schema violation, not malformed output.
func decode(text, what string, v any) error {
	err := json.Unmarshal([]byte(StripCodeFences(text)), v)
	if err == nil {
		return nil
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "top level"
		}
		problems := SchemaError{}
		problems.add("%s: got JSON %s, want %s", field, typeErr.Value, typeErr.Type)
		return problems.orNil()
	}
	return common.WrapError(common.ErrCodeUpstreamMalformed, what, err)
}

type skillEntryWire struct {
	Name  string `json:"name"`
	Skill string `json:"skill"`
}

type profileWire struct {
	DevDirection      string           `json:"devDirection"`
	Languages         []skillEntryWire `json:"languages"`
	Frameworks        []skillEntryWire `json:"frameworks"`
	Packages          []skillEntryWire `json:"packages"`
	Habits            struct {
		Strengths    []string `json:"strengths"`
		Improvements []string `json:"improvements"`
	} `json:"habits"`
	OverallSkillLevel string `json:"overallSkillLevel"`
}

// DecodeProfile parses a repository analysis. The returned profile has no
// RepoURL; the caller attaches it.
func DecodeProfile(text string) (domain.RepositoryProfile, error) {
	var w profileWire
	if err := decode(text, "decode profile", &w); err != nil {
		return domain.RepositoryProfile{}, err
	}

	var problems SchemaError
	overall, ok := domain.ParseSkillLevel(w.OverallSkillLevel)
	if !ok {
		problems.add("overallSkillLevel %q is not a skill level", w.OverallSkillLevel)
	}
	profile := domain.RepositoryProfile{
		DevDirection:      w.DevDirection,
		Languages:         skillEntries("languages", w.Languages, &problems),
		Frameworks:        skillEntries("frameworks", w.Frameworks, &problems),
		Packages:          skillEntries("packages", w.Packages, &problems),
		Habits:            datatypes.NewJSONType(domain.Habits{Strengths: orEmpty(w.Habits.Strengths), Improvements: orEmpty(w.Habits.Improvements)}),
		OverallSkillLevel: overall,
	}
	if err := problems.orNil(); err != nil {
		return domain.RepositoryProfile{}, err
	}
	return profile, nil
}

func skillEntries(field string, in []skillEntryWire, problems *SchemaError) datatypes.JSONSlice[domain.SkillEntry] {
	out := make(datatypes.JSONSlice[domain.SkillEntry], 0, len(in))
	for i, e := range in {
		level, ok := domain.ParseSkillLevel(e.Skill)
		if !ok {
			problems.add("%s[%d].skill %q is not a skill level", field, i, e.Skill)
		}
		out = append(out, domain.SkillEntry{Name: e.Name, Skill: level})
	}
	return out
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// recommendationWire is the shape the model emits, with its human-readable keys.
type recommendationWire struct {
	Rank                              int             `json:"Rank"`
	SuitabilityScore                  string          `json:"Suitability Score"`
	RepoName                          string          `json:"Repo Name"`
	RepoURL                           string          `json:"Repo URL"`
	CreatedDate                       string          `json:"Created Date"`
	LatestUpdatedDate                 string          `json:"Latest Updated Date"`
	LanguagesFrameworks               []string        `json:"Languages/Frameworks"`
	Difficulties                      string          `json:"Difficulties"`
	ShortDescription                  string          `json:"Short Description"`
	ReasonForRecommendation           string          `json:"ReasonForRecommendation"`
	CurrentStatusDevelopmentDirection string          `json:"CurrentStatusDevelopmentDirection"`
	GoodFirstIssue                    bool            `json:"GoodFirstIssue"`
	ContributionDirections            []directionWire `json:"ContributionDirections"`
}

// directionWire accepts either a bare string or a {number,title,description} object.
type directionWire struct {
	Number      int    `json:"number"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (d *directionWire) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		d.Title = s
		return nil
	}
	type plain directionWire
	return json.Unmarshal(b, (*plain)(d))
}

// toDomain is the single translation from the model's wire shape to the
// stored shape.
func (w recommendationWire) toDomain() domain.Recommendation {
	return domain.Recommendation{
		Rank:                              w.Rank,
		SuitabilityScore:                  w.SuitabilityScore,
		RepoName:                          w.RepoName,
		RepoURL:                           w.RepoURL,
		CreatedDate:                       w.CreatedDate,
		LatestUpdatedDate:                 w.LatestUpdatedDate,
		LanguagesFrameworks:               orEmpty(w.LanguagesFrameworks),
		Difficulty:                        domain.SkillLevel(w.Difficulties),
		ShortDescription:                  w.ShortDescription,
		ReasonForRecommendation:           w.ReasonForRecommendation,
		CurrentStatusDevelopmentDirection: w.CurrentStatusDevelopmentDirection,
		GoodFirstIssue:                    w.GoodFirstIssue,
		ContributionDirections:            normalizeDirections(w.ContributionDirections),
	}
}

// normalizeDirections orders steps by their declared number (unnumbered ones
// keep their position after numbered ones) and renumbers them from 1.
func normalizeDirections(in []directionWire) datatypes.JSONSlice[domain.ContributionDirection] {
	sorted := make([]directionWire, len(in))
	copy(sorted, in)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Number, sorted[j].Number
		if a <= 0 || b <= 0 {
			return a > 0 && b <= 0
		}
		return a < b
	})

	out := make(datatypes.JSONSlice[domain.ContributionDirection], 0, len(sorted))
	for i, d := range sorted {
		out = append(out, domain.ContributionDirection{Number: i + 1, Title: d.Title, Description: d.Description})
	}
	return out
}

// DecodeRecommendations parses the model's recommendation array and validates
// every entry. Difficulty ceiling and update freshness are not checked here.
func DecodeRecommendations(text string) ([]domain.Recommendation, error) {
	var wires []recommendationWire
	if err := decode(text, "decode recommendations", &wires); err != nil {
		return nil, err
	}

	var problems SchemaError
	if len(wires) == 0 {
		problems.add("no recommendations")
	}

	recs := make([]domain.Recommendation, 0, len(wires))
	seen := make(map[int]bool, len(wires))
	for i, w := range wires {
		rec := w.toDomain()
		validateRecommendation(i, rec, &problems)
		if seen[rec.Rank] {
			problems.add("[%d] duplicate rank %d", i, rec.Rank)
		}
		seen[rec.Rank] = true
		recs = append(recs, rec)
	}

	if err := problems.orNil(); err != nil {
		return nil, err
	}
	return recs, nil
}

func validateRecommendation(i int, r domain.Recommendation, problems *SchemaError) {
	if r.Rank < 1 || r.Rank > 5 {
		problems.add("[%d] rank %d outside 1..5", i, r.Rank)
	}
	if strings.TrimSpace(r.RepoName) == "" {
		problems.add("[%d] missing Repo Name", i)
	}
	if strings.TrimSpace(r.RepoURL) == "" {
		problems.add("[%d] missing Repo URL", i)
	}
	if !r.Difficulty.Valid() {
		problems.add("[%d] difficulty %q is not a skill level", i, r.Difficulty)
	}
	if _, err := time.Parse(dateLayout, r.CreatedDate); err != nil {
		problems.add("[%d] Created Date %q is not YYYY-MM-DD", i, r.CreatedDate)
	}
	if _, err := time.Parse(dateLayout, r.LatestUpdatedDate); err != nil {
		problems.add("[%d] Latest Updated Date %q is not YYYY-MM-DD", i, r.LatestUpdatedDate)
	}
	if len(r.ContributionDirections) == 0 {
		problems.add("[%d] no contribution directions", i)
	}
}
