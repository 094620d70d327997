package domain

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// SurveyAnswers is the questionnaire a user submits. One row per user.
type SurveyAnswers struct {
	UserID          string         `json:"userId" gorm:"primaryKey"`
	Reason          string         `json:"reason" gorm:"type:text"`
	PublicRepos     pq.StringArray `json:"publicRepos" gorm:"type:text[]"`
	RepoTypes       pq.StringArray `json:"repoTypes" gorm:"type:text[]"` // parallel to PublicRepos
	Well            pq.StringArray `json:"well" gorm:"type:text[]"`
	Like            pq.StringArray `json:"like" gorm:"type:text[]"`
	WishToLearn     pq.StringArray `json:"wishToLearn" gorm:"type:text[]"`
	NumOfExperience int            `json:"numOfExperience"`
	ExperiencedURLs pq.StringArray `json:"experiencedUrls" gorm:"type:text[]"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// NewEmptySurvey is the placeholder created when a user id is issued.
func NewEmptySurvey(userID string) *SurveyAnswers {
	return &SurveyAnswers{
		UserID:          userID,
		PublicRepos:     pq.StringArray{},
		RepoTypes:       pq.StringArray{},
		Well:            pq.StringArray{},
		Like:            pq.StringArray{},
		WishToLearn:     pq.StringArray{},
		ExperiencedURLs: pq.StringArray{},
	}
}

// RepoTypeAt returns the declared type of the i-th public repo, or "N/A".
func (s *SurveyAnswers) RepoTypeAt(i int) string {
	if i < len(s.RepoTypes) && s.RepoTypes[i] != "" {
		return s.RepoTypes[i]
	}
	return "N/A"
}

// MaxExperiencedURLs bounds the prior-contribution links a survey may carry.
const MaxExperiencedURLs = 5

// InvalidFields names the fields whose values are out of range.
func (s *SurveyAnswers) InvalidFields() []string {
	var invalid []string
	if s.NumOfExperience < 0 {
		invalid = append(invalid, "numOfExperience")
	}
	if len(s.ExperiencedURLs) > MaxExperiencedURLs {
		invalid = append(invalid, "experiencedUrls")
	}
	return invalid
}

// SkillEntry pairs a language, framework or package with an inferred skill.
type SkillEntry struct {
	Name  string     `json:"name"`
	Skill SkillLevel `json:"skill"`
}

type Habits struct {
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
}

// RepositoryProfile is the AI-derived assessment of one public repository.
// Error, Detail and RawResponse are only set on the fallback variant.
type RepositoryProfile struct {
	ID                uint                              `json:"-" gorm:"primaryKey"`
	UserID            string                            `json:"userId,omitempty" gorm:"uniqueIndex:idx_profile_user_repo;not null"`
	RepoURL           string                            `json:"repoUrl" gorm:"uniqueIndex:idx_profile_user_repo;not null"`
	RepoType          string                            `json:"repoType,omitempty"`
	DevDirection      string                            `json:"devDirection"`
	Languages         datatypes.JSONSlice[SkillEntry]   `json:"languages"`
	Frameworks        datatypes.JSONSlice[SkillEntry]   `json:"frameworks"`
	Packages          datatypes.JSONSlice[SkillEntry]   `json:"packages"`
	Habits            datatypes.JSONType[Habits]        `json:"habits"`
	OverallSkillLevel SkillLevel                        `json:"overallSkillLevel"`
	Error             string                            `json:"error,omitempty"`
	Detail            string                            `json:"detail,omitempty" gorm:"type:text"`
	RawResponse       string                            `json:"rawResponse,omitempty" gorm:"type:text"`
	CreatedAt         time.Time                         `json:"-"`
	UpdatedAt         time.Time                         `json:"-"`
}

// NewFallbackProfile builds the fully populated error variant of a profile.
func NewFallbackProfile(repoURL, repoType, errMsg, detail, raw string) RepositoryProfile {
	return RepositoryProfile{
		RepoURL:           repoURL,
		RepoType:          repoType,
		DevDirection:      "N/A",
		Languages:         datatypes.JSONSlice[SkillEntry]{},
		Frameworks:        datatypes.JSONSlice[SkillEntry]{},
		Packages:          datatypes.JSONSlice[SkillEntry]{},
		Habits:            datatypes.NewJSONType(Habits{Strengths: []string{}, Improvements: []string{}}),
		OverallSkillLevel: Novice,
		Error:             errMsg,
		Detail:            detail,
		RawResponse:       raw,
	}
}

// Failed reports whether the profile is a fallback record.
func (p *RepositoryProfile) Failed() bool {
	return p.Error != ""
}

// ContributionDirection is one actionable step, numbered easiest first from 1.
type ContributionDirection struct {
	Number      int    `json:"number"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Recommendation is one suggested open-source project. Stored per (user, rank).
type Recommendation struct {
	ID                                uint                                       `json:"-" gorm:"primaryKey"`
	UserID                            string                                     `json:"userId,omitempty" gorm:"uniqueIndex:idx_recommendation_user_rank;not null"`
	Rank                              int                                        `json:"rank" gorm:"uniqueIndex:idx_recommendation_user_rank;not null"`
	SuitabilityScore                  string                                     `json:"suitabilityScore"`
	RepoName                          string                                     `json:"repoName"`
	RepoURL                           string                                     `json:"repoUrl"`
	CreatedDate                       string                                     `json:"createdDate"`
	LatestUpdatedDate                 string                                     `json:"latestUpdatedDate"`
	LanguagesFrameworks               pq.StringArray                             `json:"languagesFrameworks" gorm:"type:text[]"`
	Difficulty                        SkillLevel                                 `json:"difficulty"`
	ShortDescription                  string                                     `json:"shortDescription" gorm:"type:text"`
	ReasonForRecommendation           string                                     `json:"reasonForRecommendation" gorm:"type:text"`
	CurrentStatusDevelopmentDirection string                                     `json:"currentStatusDevelopmentDirection" gorm:"type:text"`
	GoodFirstIssue                    bool                                       `json:"goodFirstIssue"`
	ContributionDirections            datatypes.JSONSlice[ContributionDirection] `json:"contributionDirections"`
	CreatedAt                         time.Time                                  `json:"-"`
	UpdatedAt                         time.Time                                  `json:"-"`
}

// SessionTTL is how long an issued client id stays valid.
const SessionTTL = time.Hour

// ClientSession is a short-lived token authorizing API calls.
type ClientSession struct {
	ClientID  string `json:"clientId" gorm:"primaryKey"`
	ExpiresAt int64  `json:"expiresAt" gorm:"index"` // epoch ms
}

// Expired reports whether the session is no longer valid at now.
func (s *ClientSession) Expired(now time.Time) bool {
	return s.ExpiresAt < now.UnixMilli()
}
