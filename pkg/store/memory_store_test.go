package store

import (
	"testing"
	"time"

	"palavraviva/pkg/domain"
)

func TestMemoryStoreReflectionUpsertPerVerse(t *testing.T) {
	s := NewMemoryStore()
	first := domain.Reflection{ID: "r-1", UserID: "u-1", VerseID: "v-1", Text: "primeira", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	if _, err := s.SaveReflection(first); err != nil {
		t.Fatalf("save reflection: %v", err)
	}
	edited := domain.Reflection{ID: "r-2", UserID: "u-1", VerseID: "v-1", Text: "editada", UpdatedAt: time.Now().Add(time.Minute)}
	saved, err := s.SaveReflection(edited)
	if err != nil {
		t.Fatalf("save edited reflection: %v", err)
	}
	if saved.ID != "r-1" {
		t.Fatalf("edit created a new row: id=%s", saved.ID)
	}
	if saved.Text != "editada" {
		t.Fatalf("edit did not replace text: %q", saved.Text)
	}
	if n, _ := s.CountReflections("u-1"); n != 1 {
		t.Fatalf("expected 1 reflection after edit, got %d", n)
	}
}

func TestMemoryStoreDeleteReflectionRemovesReadMark(t *testing.T) {
	s := NewMemoryStore()
	now := time.Now()
	if err := s.MarkRead(domain.ReadMark{UserID: "u-1", VerseID: "v-1", CreatedAt: now}); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if _, err := s.SaveReflection(domain.Reflection{ID: "r-1", UserID: "u-1", VerseID: "v-1", Text: "x", CreatedAt: now}); err != nil {
		t.Fatalf("save reflection: %v", err)
	}
	if err := s.DeleteReflection("r-1"); err != nil {
		t.Fatalf("delete reflection: %v", err)
	}
	read, _ := s.IsRead("u-1", "v-1")
	if read {
		t.Fatal("verse still marked read after reflection delete")
	}
}

func TestMemoryStoreMarkReadIdempotent(t *testing.T) {
	s := NewMemoryStore()
	mark := domain.ReadMark{UserID: "u-1", VerseID: "v-1", CreatedAt: time.Now()}
	if err := s.MarkRead(mark); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if err := s.MarkRead(mark); err != nil {
		t.Fatalf("second mark read: %v", err)
	}
	if n, _ := s.CountReadMarks("u-1"); n != 1 {
		t.Fatalf("double submission created %d marks", n)
	}
}

func TestMemoryStoreRankingDenseRank(t *testing.T) {
	s := NewMemoryStore()
	_ = s.SaveProfile(domain.Profile{ID: "a", Name: "Ana", Points: 30, Level: 4})
	_ = s.SaveProfile(domain.Profile{ID: "b", Name: "Bia", Points: 30, Level: 4})
	_ = s.SaveProfile(domain.Profile{ID: "c", Name: "Caio", Points: 10, Level: 2})

	entries, err := s.Ranking(10)
	if err != nil {
		t.Fatalf("ranking: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Rank != 1 || entries[1].Rank != 1 {
		t.Fatalf("tied profiles should share rank 1: %d %d", entries[0].Rank, entries[1].Rank)
	}
	if entries[2].Rank != 2 {
		t.Fatalf("dense rank after tie should be 2, got %d", entries[2].Rank)
	}
}

func TestMemoryStoreVerseImmutableAndOrdered(t *testing.T) {
	s := NewMemoryStore()
	_ = s.SaveVerse(domain.Verse{ID: "v-2", Text: "b", Order: 2})
	_ = s.SaveVerse(domain.Verse{ID: "v-1", Text: "a", Order: 1})
	_ = s.SaveVerse(domain.Verse{ID: "v-1", Text: "mutated", Order: 9})

	verses, err := s.ListVerses(true)
	if err != nil {
		t.Fatalf("list verses: %v", err)
	}
	if len(verses) != 2 {
		t.Fatalf("expected 2 verses, got %d", len(verses))
	}
	if verses[0].ID != "v-1" || verses[0].Text != "a" {
		t.Fatalf("verse mutated or misordered: %+v", verses[0])
	}
	next, _ := s.NextVerseOrder()
	if next != 3 {
		t.Fatalf("next order = %d, want 3", next)
	}
}

func TestMemoryStoreFiltersGeneratedVerses(t *testing.T) {
	s := NewMemoryStore()
	_ = s.SaveVerse(domain.Verse{ID: "v-1", Order: 1})
	_ = s.SaveVerse(domain.Verse{ID: "v-2", Order: 2, IsGenerated: true})

	static, _ := s.ListVerses(false)
	if len(static) != 1 || static[0].ID != "v-1" {
		t.Fatalf("static catalog wrong: %+v", static)
	}
	all, _ := s.ListVerses(true)
	if len(all) != 2 {
		t.Fatalf("full catalog wrong size: %d", len(all))
	}
}
