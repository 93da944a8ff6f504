package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type UserModel struct {
	ID           string `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"not null"`
	Status       string
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time
}

type ProfileModel struct {
	ID               string `gorm:"primaryKey"` // same as user id
	Name             string
	Email            string `gorm:"not null;index"`
	Nickname         string
	Gender           string
	PhotoURL         string
	Level            int `gorm:"not null;default:1"`
	Points           int `gorm:"not null;default:0;index"`
	TotalReflections int `gorm:"not null;default:0"`
	ChaptersRead     int `gorm:"not null;default:0"`
	ConsecutiveDays  int `gorm:"not null;default:0"`
	LastAccessDate   time.Time
	CreatedAt        time.Time `gorm:"not null"`
	UpdatedAt        time.Time
}

type BibleVerseModel struct {
	ID          string `gorm:"primaryKey"`
	Book        string `gorm:"not null"`
	Chapter     int    `gorm:"not null"`
	Verse       int    `gorm:"not null"`
	Text        string `gorm:"type:text;not null"`
	Summary     string `gorm:"type:text"`
	Order       int    `gorm:"column:display_order;not null;uniqueIndex"`
	IsGenerated bool   `gorm:"not null;default:false;index"`
	CreatedAt   time.Time `gorm:"not null"`
}

// ReadVerseModel is the join table behind "read" state. The composite
// unique index is the only concurrency control for double submissions.
type ReadVerseModel struct {
	UserID    string    `gorm:"primaryKey;index:idx_read_user_verse,unique"`
	VerseID   string    `gorm:"primaryKey;index:idx_read_user_verse,unique"`
	CreatedAt time.Time `gorm:"not null"`
}

type ReflectionModel struct {
	ID        string    `gorm:"primaryKey"`
	UserID    string    `gorm:"not null;index:idx_reflection_user_verse,unique"`
	VerseID   string    `gorm:"not null;index:idx_reflection_user_verse,unique"`
	Text      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time
}

type SubscriberModel struct {
	ID               string `gorm:"primaryKey"`
	UserID           string `gorm:"uniqueIndex;not null"`
	Email            string `gorm:"not null;index"`
	StripeCustomerID string
	Subscribed       bool   `gorm:"not null;default:false"`
	Tier             string `gorm:"not null;default:'free'"`
	SubscriptionEnd  *time.Time
	ProviderData     datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt        time.Time      `gorm:"not null"`
	UpdatedAt        time.Time
}
