package store

import (
	"palavraviva/pkg/domain"
)

// Store defines persistence operations for users, profiles, verses,
// reading progress, reflections and subscribers.
type Store interface {
	// users
	SaveUser(domain.User) error
	HasUserEmail(email string) (bool, error)
	GetUserByEmail(email string) (domain.User, bool, error)
	GetUserByID(id string) (domain.User, bool, error)
	UserCount() (int, error)

	// profiles
	SaveProfile(domain.Profile) error
	GetProfile(userID string) (domain.Profile, bool, error)

	// verses
	SaveVerse(domain.Verse) error
	GetVerse(id string) (domain.Verse, bool, error)
	ListVerses(includeGenerated bool) ([]domain.Verse, error)
	NextVerseOrder() (int, error)
	VerseCount() (int, error)

	// read marks
	MarkRead(domain.ReadMark) error
	UnmarkRead(userID, verseID string) error
	IsRead(userID, verseID string) (bool, error)
	CountReadMarks(userID string) (int, error)

	// reflections
	SaveReflection(domain.Reflection) (domain.Reflection, error)
	GetReflection(id string) (domain.Reflection, bool, error)
	GetReflectionByVerse(userID, verseID string) (domain.Reflection, bool, error)
	DeleteReflection(id string) error
	ListReflections(userID string) ([]domain.Reflection, error)
	CountReflections(userID string) (int, error)
	TotalReflections() (int, error)
	TotalReadMarks() (int, error)

	// subscribers
	GetSubscriberByUserID(userID string) (domain.Subscriber, bool, error)
	SaveSubscriber(domain.Subscriber) error

	// ranking
	Ranking(limit int) ([]domain.RankingEntry, error)
}

// SessionStore persists session tokens.
type SessionStore interface {
	NewSession(userID string) (string, error)
	GetUserIDByToken(token string) (string, bool, error)
	DeleteSession(token string) error
}
