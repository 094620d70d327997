package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSkillLevel(t *testing.T) {
	assert.Equal(t, 0, Novice.Rank())
	assert.Equal(t, 4, Expert.Rank())
	assert.Equal(t, -1, SkillLevel("Guru").Rank())

	assert.Equal(t, Novice, Novice.Lower())
	assert.Equal(t, Beginner, Intermediate.Lower())
	assert.Equal(t, Advanced, Expert.Lower())

	l, ok := ParseSkillLevel("Advanced")
	assert.True(t, ok)
	assert.Equal(t, Advanced, l)

	_, ok = ParseSkillLevel("advanced")
	assert.False(t, ok)
}

func TestMaxSkillLevel(t *testing.T) {
	assert.Equal(t, Novice, MaxSkillLevel())
	assert.Equal(t, Intermediate, MaxSkillLevel(Beginner, Intermediate, Novice))
	assert.Equal(t, Beginner, MaxSkillLevel(Beginner, "Wizard"))
}

func TestMaxRecommendedDifficulty(t *testing.T) {
	profiles := func(levels ...SkillLevel) []RepositoryProfile {
		var out []RepositoryProfile
		for _, l := range levels {
			out = append(out, RepositoryProfile{OverallSkillLevel: l})
		}
		return out
	}

	tests := []struct {
		name       string
		profiles   []RepositoryProfile
		experience int
		expected   SkillLevel
	}{
		{"first-timer steps down", profiles(Beginner, Intermediate), 0, Beginner},
		{"experienced keeps max", profiles(Beginner, Intermediate), 3, Intermediate},
		{"floor at novice", profiles(Novice, Novice), 0, Novice},
		{"no profiles", nil, 0, Novice},
		{"no profiles experienced", nil, 2, Novice},
		{"expert first-timer", profiles(Expert), 0, Advanced},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MaxRecommendedDifficulty(tt.profiles, tt.experience))
		})
	}
}

func TestNewFallbackProfile(t *testing.T) {
	p := NewFallbackProfile("https://github.com/a/b", "web", "Failed to analyze with Gemini", "boom", "")

	assert.True(t, p.Failed())
	assert.Equal(t, Novice, p.OverallSkillLevel)
	assert.Equal(t, "N/A", p.DevDirection)

	raw, err := json.Marshal(p)
	require.NoError(t, err)

	var shape map[string]any
	require.NoError(t, json.Unmarshal(raw, &shape))
	for _, key := range []string{"repoUrl", "devDirection", "languages", "frameworks", "packages", "habits", "overallSkillLevel", "error", "detail"} {
		assert.Contains(t, shape, key)
	}
	assert.Equal(t, []any{}, shape["languages"])
	habits := shape["habits"].(map[string]any)
	assert.Equal(t, []any{}, habits["strengths"])
	assert.Equal(t, []any{}, habits["improvements"])
}

func TestSurveyAnswers_InvalidFields(t *testing.T) {
	tests := []struct {
		name     string
		survey   SurveyAnswers
		expected []string
	}{
		{name: "within bounds", survey: SurveyAnswers{NumOfExperience: 0, ExperiencedURLs: make([]string, 5)}},
		{name: "negative experience", survey: SurveyAnswers{NumOfExperience: -1}, expected: []string{"numOfExperience"}},
		{name: "too many urls", survey: SurveyAnswers{NumOfExperience: 2, ExperiencedURLs: make([]string, 6)}, expected: []string{"experiencedUrls"}},
		{name: "both", survey: SurveyAnswers{NumOfExperience: -3, ExperiencedURLs: make([]string, 7)}, expected: []string{"numOfExperience", "experiencedUrls"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.survey.InvalidFields())
		})
	}
}

func TestSurveyAnswers_RepoTypeAt(t *testing.T) {
	s := &SurveyAnswers{RepoTypes: []string{"web", ""}}
	assert.Equal(t, "web", s.RepoTypeAt(0))
	assert.Equal(t, "N/A", s.RepoTypeAt(1))
	assert.Equal(t, "N/A", s.RepoTypeAt(5))
}

func TestClientSession_Expired(t *testing.T) {
	now := time.Now()
	s := ClientSession{ClientID: "c", ExpiresAt: now.Add(SessionTTL).UnixMilli()}
	assert.False(t, s.Expired(now))
	assert.True(t, s.Expired(now.Add(2*SessionTTL)))
}
