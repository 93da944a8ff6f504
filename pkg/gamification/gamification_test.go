package gamification

import (
	"testing"

	"palavraviva/pkg/domain"
)

func TestPointsAndLevelFormula(t *testing.T) {
	cases := []struct {
		chapters, reflections int
		wantPoints, wantLevel int
	}{
		{0, 0, 0, 1},
		{5, 3, 11, 2},
		{10, 0, 10, 2},
		{9, 0, 9, 1},
		{50, 25, 100, 11},
	}
	for _, c := range cases {
		stats := domain.UserStats{ChaptersRead: c.chapters, TotalReflections: c.reflections}
		if got := Points(stats); got != c.wantPoints {
			t.Errorf("Points(c=%d, r=%d) = %d, want %d", c.chapters, c.reflections, got, c.wantPoints)
		}
		if got := Level(stats); got != c.wantLevel {
			t.Errorf("Level(c=%d, r=%d) = %d, want %d", c.chapters, c.reflections, got, c.wantLevel)
		}
	}
}

func TestLevelNeverBelowOne(t *testing.T) {
	if got := Level(domain.UserStats{}); got != 1 {
		t.Fatalf("empty stats level = %d, want 1", got)
	}
}

func TestLevelTitleSaturation(t *testing.T) {
	if LevelTitle(0) != LevelTitle(1) {
		t.Errorf("LevelTitle(0) = %q, want %q", LevelTitle(0), LevelTitle(1))
	}
	if LevelTitle(100) != LevelTitle(8) {
		t.Errorf("LevelTitle(100) = %q, want %q", LevelTitle(100), LevelTitle(8))
	}
	if LevelTitle(1) != "Iniciante" {
		t.Errorf("LevelTitle(1) = %q, want Iniciante", LevelTitle(1))
	}
	if LevelTitle(-3) != "Iniciante" {
		t.Errorf("LevelTitle(-3) = %q, want Iniciante", LevelTitle(-3))
	}
}

func TestProgressMonotoneAndCapped(t *testing.T) {
	a := domain.Achievement{ID: "reader-7", RequiredCount: 7, Type: domain.AchievementReading}
	prev := -1
	for chapters := 0; chapters <= 20; chapters++ {
		got := Progress(a, domain.UserStats{ChaptersRead: chapters})
		if got < prev {
			t.Fatalf("progress decreased at chapters=%d: %d < %d", chapters, got, prev)
		}
		if got > 100 {
			t.Fatalf("progress exceeded 100 at chapters=%d: %d", chapters, got)
		}
		prev = got
	}
	if got := Progress(a, domain.UserStats{ChaptersRead: 7}); got != 100 {
		t.Errorf("progress at threshold = %d, want 100", got)
	}
}

func TestProgressGuardsZeroRequiredCount(t *testing.T) {
	a := domain.Achievement{ID: "broken", RequiredCount: 0, Type: domain.AchievementStreak}
	if got := Progress(a, domain.UserStats{}); got != 100 {
		t.Errorf("zero threshold progress = %d, want 100", got)
	}
	if !Unlocked(a, domain.UserStats{}) {
		t.Error("zero threshold achievement should count as unlocked")
	}
}

func TestCounterSelectionByType(t *testing.T) {
	stats := domain.UserStats{ChaptersRead: 4, TotalReflections: 2, ConsecutiveDays: 9}
	cases := []struct {
		typ  domain.AchievementType
		want int
	}{
		{domain.AchievementReading, 40},
		{domain.AchievementReflection, 20},
		{domain.AchievementStreak, 90},
	}
	for _, c := range cases {
		a := domain.Achievement{RequiredCount: 10, Type: c.typ}
		if got := Progress(a, stats); got != c.want {
			t.Errorf("Progress(type=%s) = %d, want %d", c.typ, got, c.want)
		}
	}
}

func TestUnlocked(t *testing.T) {
	a := domain.Achievement{RequiredCount: 3, Type: domain.AchievementStreak}
	if Unlocked(a, domain.UserStats{ConsecutiveDays: 2}) {
		t.Error("unlocked below threshold")
	}
	if !Unlocked(a, domain.UserStats{ConsecutiveDays: 3}) {
		t.Error("not unlocked at threshold")
	}
}

func TestAvailableOmitsProOnlyForFreeTier(t *testing.T) {
	free := Available(DefaultAchievements, domain.TierFree)
	for _, a := range free {
		if a.ProOnly {
			t.Errorf("pro-only achievement %q visible to free tier", a.ID)
		}
	}
	pro := Available(DefaultAchievements, domain.TierPro)
	if len(pro) != len(DefaultAchievements) {
		t.Errorf("pro tier sees %d achievements, want %d", len(pro), len(DefaultAchievements))
	}
	if len(free) >= len(pro) {
		t.Errorf("free tier should see fewer achievements: free=%d pro=%d", len(free), len(pro))
	}
}

// New-user and mid-progress end-to-end expectations.
func TestDerivedStateScenarios(t *testing.T) {
	fresh := domain.UserStats{}
	if Points(fresh) != 0 || Level(fresh) != 1 || LevelTitle(Level(fresh)) != "Iniciante" {
		t.Errorf("new user: points=%d level=%d title=%q", Points(fresh), Level(fresh), LevelTitle(Level(fresh)))
	}
	mid := domain.UserStats{ChaptersRead: 5, TotalReflections: 3}
	if Points(mid) != 11 {
		t.Errorf("mid user points = %d, want 11", Points(mid))
	}
	if Level(mid) != 2 {
		t.Errorf("mid user level = %d, want 2", Level(mid))
	}
}
