package gamification

import "palavraviva/pkg/domain"

// levelTitles maps level N to levelTitles[N-1]. Levels beyond the list
// saturate at the last entry; levels below 1 saturate at the first.
var levelTitles = []string{
	"Iniciante",
	"Aprendiz",
	"Leitor",
	"Leitor Fiel",
	"Estudioso",
	"Mestre",
	"Sábio",
	"Patriarca",
}

// Points derives the score: one point per chapter read, two per reflection.
func Points(stats domain.UserStats) int {
	return stats.ChaptersRead + 2*stats.TotalReflections
}

// Level derives the level from points, ten points per level, never below 1.
func Level(stats domain.UserStats) int {
	level := Points(stats)/10 + 1
	if level < 1 {
		level = 1
	}
	return level
}

// LevelTitle returns the display title for a level.
func LevelTitle(level int) string {
	if level < 1 {
		level = 1
	}
	if level > len(levelTitles) {
		level = len(levelTitles)
	}
	return levelTitles[level-1]
}

// counter selects the stat tracked by an achievement type.
func counter(t domain.AchievementType, stats domain.UserStats) int {
	switch t {
	case domain.AchievementReflection:
		return stats.TotalReflections
	case domain.AchievementStreak:
		return stats.ConsecutiveDays
	default:
		return stats.ChaptersRead
	}
}

// Progress returns completion of an achievement in percent, capped at 100.
// A non-positive RequiredCount counts as already satisfied.
func Progress(a domain.Achievement, stats domain.UserStats) int {
	if a.RequiredCount <= 0 {
		return 100
	}
	pct := 100 * counter(a.Type, stats) / a.RequiredCount
	if pct > 100 {
		pct = 100
	}
	return pct
}

// Unlocked reports whether the matching counter reached the threshold.
func Unlocked(a domain.Achievement, stats domain.UserStats) bool {
	if a.RequiredCount <= 0 {
		return true
	}
	return counter(a.Type, stats) >= a.RequiredCount
}

// Available filters the catalog by tier. Pro-only achievements are omitted
// entirely for free users, never shown as locked.
func Available(catalog []domain.Achievement, tier domain.Tier) []domain.Achievement {
	out := make([]domain.Achievement, 0, len(catalog))
	for _, a := range catalog {
		if a.ProOnly && tier != domain.TierPro {
			continue
		}
		out = append(out, a)
	}
	return out
}
