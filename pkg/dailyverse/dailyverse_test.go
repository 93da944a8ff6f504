package dailyverse

import (
	"fmt"
	"testing"
	"time"

	"palavraviva/pkg/domain"
)

func fixedCatalog(n int) []domain.Verse {
	verses := make([]domain.Verse, 0, n)
	for i := 0; i < n; i++ {
		verses = append(verses, domain.Verse{ID: fmt.Sprintf("v-%d", i), Order: i + 1})
	}
	return verses
}

func TestDateKeyPinnedToUTC(t *testing.T) {
	// 23:30 in São Paulo (UTC-3) is already the next day in UTC.
	sp := time.FixedZone("America/Sao_Paulo", -3*60*60)
	local := time.Date(2024, 4, 10, 23, 30, 0, 0, sp)
	if got := DateKey(local); got != "2024-04-11" {
		t.Fatalf("DateKey = %q, want 2024-04-11", got)
	}
}

func TestHashMatchesPolynomialRollingHash(t *testing.T) {
	// hash("2024-04-10") wraps negative in 32-bit arithmetic; the absolute
	// value is the regression-pinned constant below.
	if got := Hash("2024-04-10"); got != 613252229 {
		t.Fatalf("Hash(2024-04-10) = %d, want 613252229", got)
	}
	if got := Hash(""); got != 0 {
		t.Fatalf("Hash(\"\") = %d, want 0", got)
	}
}

func TestVerseOfDayGoldenIndex(t *testing.T) {
	verses := fixedCatalog(7)
	date := time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC)
	// 613252229 mod 7 == 2, fixed once as the regression value.
	want := verses[2]
	for i := 0; i < 5; i++ {
		got, ok := VerseOfDay(verses, date)
		if !ok {
			t.Fatal("expected a verse")
		}
		if got.ID != want.ID {
			t.Fatalf("call %d: got %s, want %s", i, got.ID, want.ID)
		}
	}
}

func TestVerseOfDayStableWithinDay(t *testing.T) {
	verses := fixedCatalog(7)
	morning := time.Date(2025, 12, 25, 0, 1, 0, 0, time.UTC)
	night := time.Date(2025, 12, 25, 23, 59, 0, 0, time.UTC)
	a, _ := VerseOfDay(verses, morning)
	b, _ := VerseOfDay(verses, night)
	if a.ID != b.ID {
		t.Fatalf("same day resolved different verses: %s vs %s", a.ID, b.ID)
	}
}

func TestVerseOfDaySpreadsAcrossDates(t *testing.T) {
	verses := fixedCatalog(7)
	seen := map[string]int{}
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 365; i++ {
		v, _ := VerseOfDay(verses, day.AddDate(0, 0, i))
		seen[v.ID]++
	}
	if len(seen) != 7 {
		t.Fatalf("only %d of 7 verses selected over a year", len(seen))
	}
	// Statistical spread: no verse should hog the year.
	for id, n := range seen {
		if n > 120 {
			t.Errorf("verse %s selected %d times in 365 days", id, n)
		}
	}
}

func TestEmptyCatalog(t *testing.T) {
	if _, ok := VerseOfDay(nil, time.Now()); ok {
		t.Error("VerseOfDay on empty catalog should report no verse")
	}
	if _, ok := RandomVerse(nil); ok {
		t.Error("RandomVerse on empty catalog should report no verse")
	}
}

func TestRandomVerseIsFromCatalog(t *testing.T) {
	verses := fixedCatalog(3)
	ids := map[string]bool{}
	for _, v := range verses {
		ids[v.ID] = true
	}
	for i := 0; i < 50; i++ {
		v, ok := RandomVerse(verses)
		if !ok || !ids[v.ID] {
			t.Fatalf("random verse %q not from catalog", v.ID)
		}
	}
}
