package domain

// SkillLevel is the five-step scale used for both skill and difficulty.
type SkillLevel string

const (
	Novice       SkillLevel = "Novice"
	Beginner     SkillLevel = "Beginner"
	Intermediate SkillLevel = "Intermediate"
	Advanced     SkillLevel = "Advanced"
	Expert       SkillLevel = "Expert"
)

// SkillLevels lists the scale in ascending order.
var SkillLevels = []SkillLevel{Novice, Beginner, Intermediate, Advanced, Expert}

// ParseSkillLevel accepts only the exact enumeration values.
func ParseSkillLevel(s string) (SkillLevel, bool) {
	for _, l := range SkillLevels {
		if string(l) == s {
			return l, true
		}
	}
	return "", false
}

// Rank returns the position in the scale, or -1 for an unknown value.
func (l SkillLevel) Rank() int {
	for i, v := range SkillLevels {
		if v == l {
			return i
		}
	}
	return -1
}

func (l SkillLevel) Valid() bool {
	return l.Rank() >= 0
}

// Lower steps one level down, flooring at Novice.
func (l SkillLevel) Lower() SkillLevel {
	r := l.Rank()
	if r <= 0 {
		return Novice
	}
	return SkillLevels[r-1]
}

// MaxSkillLevel returns the highest known level; unknown values are ignored
// and the result is Novice when nothing qualifies.
func MaxSkillLevel(levels ...SkillLevel) SkillLevel {
	highest := Novice
	for _, l := range levels {
		if l.Rank() > highest.Rank() {
			highest = l
		}
	}
	return highest
}

// MaxRecommendedDifficulty is the ceiling handed to the recommendation prompt:
// the highest overall skill across profiles, one step lower for a first-time
// contributor.
func MaxRecommendedDifficulty(profiles []RepositoryProfile, numOfExperience int) SkillLevel {
	levels := make([]SkillLevel, 0, len(profiles))
	for _, p := range profiles {
		levels = append(levels, p.OverallSkillLevel)
	}
	highest := MaxSkillLevel(levels...)
	if numOfExperience == 0 {
		return highest.Lower()
	}
	return highest
}
