// Package dailyverse selects the global "verse of the day" without any
// persisted state: the calendar date is hashed onto an index into the
// ordered verse list, so every caller resolves the same verse all day.
package dailyverse

import (
	"math/rand"
	"time"

	"palavraviva/pkg/domain"
)

// DateKey formats a moment as the ISO calendar date in UTC. The timezone is
// pinned so "today's verse" is consistent across client timezones.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Hash computes a 32-bit signed polynomial rolling hash (factor 31) over s
// and returns its absolute value.
func Hash(s string) int {
	var h int32
	for _, c := range []byte(s) {
		h = h*31 + int32(c)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return int(v)
}

// VerseOfDay maps a moment to one verse of the list. Same date and same
// list always yield the same verse. Returns false when the list is empty.
func VerseOfDay(verses []domain.Verse, t time.Time) (domain.Verse, bool) {
	if len(verses) == 0 {
		return domain.Verse{}, false
	}
	idx := Hash(DateKey(t)) % len(verses)
	return verses[idx], true
}

// RandomVerse picks a uniformly random verse; unlike VerseOfDay it may
// differ between calls. Returns false when the list is empty.
func RandomVerse(verses []domain.Verse) (domain.Verse, bool) {
	if len(verses) == 0 {
		return domain.Verse{}, false
	}
	return verses[rand.Intn(len(verses))], true
}
