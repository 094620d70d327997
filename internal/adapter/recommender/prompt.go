package recommender

import (
	"encoding/json"
	"fmt"
	"strings"

	"contribution-scout/internal/domain"
)

const recommendationPromptTemplate = `
You are an AI assistant specialized in open-source contribution recommendations. You will analyze user survey responses, public Git repos (with types), and provided AI-based repo analysis (developer style, skills, strengths, weaknesses).

1. Analyze the user survey for motivation, preferred languages/frameworks, and learning interests.

2. Analyze the user's public Git repos using the provided AI-based analysis (languages, types, code quality, contribution patterns, strengths, weaknesses, development style). The AI analysis is a key basis.

3. Recommend 5 suitable open-source projects. Strict rules:
    - 'Difficulties' must NOT exceed the highest skill level in the AI-based repo analysis. The maximum allowed difficulty for recommendations is: %[1]s.
    - The project's 'Latest Updated Date' MUST be within the last 6 months from TODAY's date: %[2]s. This is a non-negotiable hard filter.
    - Prioritize projects with 'good first issue' or similar labels.
    - At least one recommended project must directly align with one of the user's 'wishToLearn' languages or frameworks, providing a clear path for learning that technology.
    - If 'numOfExperience' is 0, recommended projects should be one level easier than the user's highest measured skill level, for a smooth first contribution.

    Prioritization: 1) User survey, 2) Public repos/habits, 3) AI-based skill/habit analysis.

4. For each recommendation, provide:
    - Rank (1-5, 1 = most recommended)
    - Suitability Score (0-100%%, reflecting alignment with survey, repo skills, project activity and good first issues)
    - Repo Name
    - Repo URL
    - Created Date (YYYY-MM-DD)
    - Latest Updated Date (YYYY-MM-DD)
    - Languages/Frameworks
    - Difficulties (strictly one of: Novice | Beginner | Intermediate | Advanced | Expert)
    - Short Description
    - ReasonForRecommendation (one concise sentence referencing the user's skills, interests and repo analysis)
    - CurrentStatusDevelopmentDirection (recent activity and future plans)
    - GoodFirstIssue (true/false)
    - ContributionDirections (1 to 3 specific, actionable steps, numbered from 1 and ordered easiest first)

Survey Responses:
- Q1. Reason for contributing to open source: %[3]s
- Q2. Public Git repos and types:
%[4]s- Q3. Languages/Frameworks you are good at (well): %[5]s
- Q4. Languages/Frameworks you like: %[6]s
- Q5. Languages/Frameworks you want to learn: %[7]s
- Q6. Number of open source projects participated: %[8]d
- Q7. Previous open source experience URLs (up to 5):
%[9]s
AI-based Analysis of User's Public Git Repositories (one JSON object per repository):
%[10]s

You must provide exactly 5 recommendations. They should be diverse and cover different kinds of contribution such as documentation, code and testing.
Double-check that ALL recommended projects satisfy the 'Latest Updated Date' rule (within 6 months from today: %[2]s).
Output format (return only this JSON array):
[
  {
    "Rank": 1,
    "Suitability Score": "95%%",
    "Repo Name": "project_name_1",
    "Repo URL": "https://github.com/owner/project_name_1",
    "Created Date": "YYYY-MM-DD",
    "Latest Updated Date": "YYYY-MM-DD",
    "Languages/Frameworks": ["Lang1", "Framework1"],
    "Difficulties": "Novice | Beginner | Intermediate | Advanced | Expert",
    "Short Description": "A brief description of the project.",
    "ReasonForRecommendation": "One sentence.",
    "CurrentStatusDevelopmentDirection": "Recent activity and future plans.",
    "GoodFirstIssue": true,
    "ContributionDirections": [
      {"number": 1, "title": "Fix beginner-friendly bugs", "description": "..."},
      {"number": 2, "title": "Improve component documentation", "description": "..."}
    ]
  }
]
`

func buildRecommendationPrompt(answers *domain.SurveyAnswers, profiles []domain.RepositoryProfile, ceiling domain.SkillLevel, today string) (string, error) {
	summary, err := json.MarshalIndent(profiles, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal repository profiles: %w", err)
	}

	return fmt.Sprintf(recommendationPromptTemplate,
		ceiling,
		today,
		answers.Reason,
		repoListing(answers),
		strings.Join(answers.Well, ", "),
		strings.Join(answers.Like, ", "),
		strings.Join(answers.WishToLearn, ", "),
		answers.NumOfExperience,
		experienceListing(answers.ExperiencedURLs),
		summary,
	), nil
}

func repoListing(answers *domain.SurveyAnswers) string {
	var b strings.Builder
	for i, url := range answers.PublicRepos {
		if url == "" {
			url = "N/A"
		}
		fmt.Fprintf(&b, "    %d. URL: %s, Type: %s\n", i+1, url, answers.RepoTypeAt(i))
	}
	return b.String()
}

func experienceListing(urls []string) string {
	var b strings.Builder
	for _, u := range urls {
		if strings.TrimSpace(u) != "" {
			fmt.Fprintf(&b, "      - %s\n", u)
		}
	}
	if b.Len() == 0 {
		return "      N/A\n"
	}
	return b.String()
}
