package domain

import (
	"encoding/json"
	"time"
)

// Tier is the entitlement level gating content volume and features.
type Tier string

const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
)

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

type UserStatus string

const (
	StatusActive   UserStatus = "active"
	StatusDisabled UserStatus = "disabled"
)

// User is the authentication identity. Display data lives in Profile.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         UserRole   `json:"role"`
	Status       UserStatus `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Verse is one devotional passage with accompanying commentary.
// Verses are immutable once created; generated verses are appended
// with a monotonically increasing Order.
type Verse struct {
	ID          string    `json:"id"`
	Book        string    `json:"book"`
	Chapter     int       `json:"chapter"`
	Verse       int       `json:"verse"`
	Text        string    `json:"text"`
	Summary     string    `json:"summary"`
	Order       int       `json:"order"`
	IsGenerated bool      `json:"isGenerated"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ReadMark records that a user completed a verse. Existence implies "read";
// unique per (UserID, VerseID).
type ReadMark struct {
	UserID    string    `json:"userId"`
	VerseID   string    `json:"verseId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Reflection is a user-authored free-text response tied to one verse.
// At most one current reflection per (user, verse); editing replaces
// text and timestamp rather than creating a new row.
type Reflection struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	VerseID   string    `json:"verseId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Profile carries display data plus denormalized gamification counters.
// Points, Level, ChaptersRead and TotalReflections are derived caches of
// the read-mark and reflection tables; RefreshStats repairs drift.
type Profile struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Nickname         string    `json:"nickname,omitempty"`
	Gender           string    `json:"gender,omitempty"`
	PhotoURL         string    `json:"photoUrl,omitempty"`
	Level            int       `json:"level"`
	Points           int       `json:"points"`
	TotalReflections int       `json:"totalReflections"`
	ChaptersRead     int       `json:"chaptersRead"`
	ConsecutiveDays  int       `json:"consecutiveDays"`
	LastAccessDate   time.Time `json:"lastAccessDate"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Subscriber is the per-user entitlement record, reconciled on demand
// against the payment provider. One per user, created lazily.
// ProviderData keeps the raw provider subscription snapshot from the
// last reconciliation for support/debugging.
type Subscriber struct {
	ID               string          `json:"id"`
	UserID           string          `json:"userId"`
	Email            string          `json:"email"`
	StripeCustomerID string          `json:"-"`
	Subscribed       bool            `json:"subscribed"`
	Tier             Tier            `json:"tier"`
	SubscriptionEnd  *time.Time      `json:"subscriptionEnd,omitempty"`
	ProviderData     json.RawMessage `json:"-"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// AchievementType selects which progress counter an achievement tracks.
type AchievementType string

const (
	AchievementReading    AchievementType = "reading"
	AchievementReflection AchievementType = "reflection"
	AchievementStreak     AchievementType = "streak"
)

// Achievement is a static milestone definition. "Unlocked" is derived,
// never stored.
type Achievement struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	RequiredCount int             `json:"requiredCount"`
	Type          AchievementType `json:"type"`
	ProOnly       bool            `json:"proOnly,omitempty"`
}

// UserStats holds the counters the gamification engine derives from.
type UserStats struct {
	TotalReflections int `json:"totalReflections"`
	ChaptersRead     int `json:"chaptersRead"`
	ConsecutiveDays  int `json:"consecutiveDays"`
}

// RankingEntry is one row of the points leaderboard (dense rank).
type RankingEntry struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Points int    `json:"points"`
	Level  int    `json:"level"`
	Rank   int    `json:"rank"`
}

// GeneratedBatch is the outcome of a verse-generation request. Verses holds
// whatever subset succeeded; Complete is false when generation stopped early
// (for example on provider quota exhaustion).
type GeneratedBatch struct {
	Verses   []Verse `json:"verses"`
	Complete bool    `json:"complete"`
}
