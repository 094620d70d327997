package analyzer

import "fmt"

const profilePromptTemplate = `
You are an expert open-source code reviewer and developer profiler.
Given the following public GitHub repository URL and its type, analyze the repository and infer the primary development characteristics and the likely main developer's profile:

- Overall Development Direction/Focus: (e.g., Web Frontend, Backend API, Mobile Android, Data Science, DevOps)
- Identified Core Languages: (languages used, each with an inferred skill level)
- Identified Core Frameworks: (frameworks used, each with an inferred skill level)
- Key Packages/Libraries Used: (major packages or libraries, each with an inferred usage skill level. Focus on those that reveal specific domain knowledge.)
- Development Habits:
    - Strengths: (strong points in coding style, project structure, problem-solving)
    - Areas for Improvement: (e.g., testing, documentation, performance optimization, error handling)
- Overall Skill Level: (a single summarized skill level for the developer based on all findings)

Every skill level MUST be exactly one of: Novice | Beginner | Intermediate | Advanced | Expert

Repository URL: %s
Repository Type: %s (Use this type to guide your analysis focus)

Return only a JSON object with the following structure:
{
  "devDirection": "string",
  "languages": [{ "name": "string", "skill": "Novice | Beginner | Intermediate | Advanced | Expert" }],
  "frameworks": [{ "name": "string", "skill": "Novice | Beginner | Intermediate | Advanced | Expert" }],
  "packages": [{ "name": "string", "skill": "Novice | Beginner | Intermediate | Advanced | Expert" }],
  "habits": { "strengths": ["string"], "improvements": ["string"] },
  "overallSkillLevel": "Novice | Beginner | Intermediate | Advanced | Expert"
}
`

func buildProfilePrompt(repoURL, repoType string) string {
	return fmt.Sprintf(profilePromptTemplate, repoURL, repoType)
}
