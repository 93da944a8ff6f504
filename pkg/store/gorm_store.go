package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
	"palavraviva/pkg/domain"
)

const migrateLockID int64 = 52305230

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(
			&UserModel{},
			&ProfileModel{},
			&BibleVerseModel{},
			&ReadVerseModel{},
			&ReflectionModel{},
			&SubscriberModel{},
		); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

// SaveUser registers or updates a user.
func (s *GormStore) SaveUser(u domain.User) error {
	model := userToModel(u)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "password_hash", "role", "status", "updated_at"}),
	}).Create(&model).Error
}

// HasUserEmail checks if email exists.
func (s *GormStore) HasUserEmail(email string) (bool, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUserByEmail looks up a user by email.
func (s *GormStore) GetUserByEmail(email string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where("email = ?", email).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByID returns a user by ID.
func (s *GormStore) GetUserByID(id string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// UserCount returns number of users.
func (s *GormStore) UserCount() (int, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// SaveProfile stores or updates a profile.
func (s *GormStore) SaveProfile(p domain.Profile) error {
	model := profileToModel(p)
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "email", "nickname", "gender", "photo_url",
			"level", "points", "total_reflections", "chapters_read",
			"consecutive_days", "last_access_date", "updated_at",
		}),
	}).Create(&model).Error
}

// GetProfile returns the profile for a user.
func (s *GormStore) GetProfile(userID string) (domain.Profile, bool, error) {
	var model ProfileModel
	if err := s.db.First(&model, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Profile{}, false, nil
		}
		return domain.Profile{}, false, err
	}
	return profileFromModel(model), true, nil
}

// SaveVerse appends a verse. Verses are immutable, so conflicts are ignored.
func (s *GormStore) SaveVerse(v domain.Verse) error {
	model := verseToModel(v)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&model).Error
}

// GetVerse retrieves a verse.
func (s *GormStore) GetVerse(id string) (domain.Verse, bool, error) {
	var model BibleVerseModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Verse{}, false, nil
		}
		return domain.Verse{}, false, err
	}
	return verseFromModel(model), true, nil
}

// ListVerses returns verses in display order. With includeGenerated false
// only the static seed catalog is returned.
func (s *GormStore) ListVerses(includeGenerated bool) ([]domain.Verse, error) {
	tx := s.db.Order("display_order ASC")
	if !includeGenerated {
		tx = tx.Where("is_generated = ?", false)
	}
	var models []BibleVerseModel
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	verses := make([]domain.Verse, 0, len(models))
	for _, m := range models {
		verses = append(verses, verseFromModel(m))
	}
	return verses, nil
}

// NextVerseOrder returns the next display order for appended verses.
func (s *GormStore) NextVerseOrder() (int, error) {
	var max sql.NullInt64
	if err := s.db.Model(&BibleVerseModel{}).Select("MAX(display_order)").Scan(&max).Error; err != nil {
		return 0, err
	}
	return int(max.Int64) + 1, nil
}

// VerseCount returns the number of verses (static + generated).
func (s *GormStore) VerseCount() (int, error) {
	var count int64
	if err := s.db.Model(&BibleVerseModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// MarkRead upserts a read mark; re-marking the same verse is a no-op.
func (s *GormStore) MarkRead(mark domain.ReadMark) error {
	model := ReadVerseModel{
		UserID:    mark.UserID,
		VerseID:   mark.VerseID,
		CreatedAt: mark.CreatedAt,
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "verse_id"}},
		DoNothing: true,
	}).Create(&model).Error
}

// UnmarkRead removes a read mark.
func (s *GormStore) UnmarkRead(userID, verseID string) error {
	return s.db.Delete(&ReadVerseModel{}, "user_id = ? AND verse_id = ?", userID, verseID).Error
}

// IsRead reports whether the user has marked the verse as read.
func (s *GormStore) IsRead(userID, verseID string) (bool, error) {
	var count int64
	if err := s.db.Model(&ReadVerseModel{}).
		Where("user_id = ? AND verse_id = ?", userID, verseID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountReadMarks counts verses the user has read.
func (s *GormStore) CountReadMarks(userID string) (int, error) {
	var count int64
	if err := s.db.Model(&ReadVerseModel{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// SaveReflection upserts the single reflection per (user, verse): editing
// replaces text and timestamp instead of creating a new row.
func (s *GormStore) SaveReflection(r domain.Reflection) (domain.Reflection, error) {
	model := reflectionToModel(r)
	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "verse_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"text", "updated_at"}),
	}).Create(&model).Error; err != nil {
		return domain.Reflection{}, err
	}
	// The upsert may have kept the original row id.
	var saved ReflectionModel
	if err := s.db.Where("user_id = ? AND verse_id = ?", r.UserID, r.VerseID).First(&saved).Error; err != nil {
		return domain.Reflection{}, err
	}
	return reflectionFromModel(saved), nil
}

// GetReflection returns a reflection by id.
func (s *GormStore) GetReflection(id string) (domain.Reflection, bool, error) {
	var model ReflectionModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Reflection{}, false, nil
		}
		return domain.Reflection{}, false, err
	}
	return reflectionFromModel(model), true, nil
}

// GetReflectionByVerse returns the user's reflection for one verse.
func (s *GormStore) GetReflectionByVerse(userID, verseID string) (domain.Reflection, bool, error) {
	var model ReflectionModel
	if err := s.db.Where("user_id = ? AND verse_id = ?", userID, verseID).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Reflection{}, false, nil
		}
		return domain.Reflection{}, false, err
	}
	return reflectionFromModel(model), true, nil
}

// DeleteReflection removes a reflection and its paired read mark in one
// transaction, reverting the verse to unread.
func (s *GormStore) DeleteReflection(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var model ReflectionModel
		if err := tx.First(&model, "id = ?", id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			return err
		}
		if err := tx.Delete(&ReflectionModel{}, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&ReadVerseModel{}, "user_id = ? AND verse_id = ?", model.UserID, model.VerseID).Error
	})
}

// ListReflections returns the user's reflections newest first.
func (s *GormStore) ListReflections(userID string) ([]domain.Reflection, error) {
	var models []ReflectionModel
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Reflection, 0, len(models))
	for _, m := range models {
		out = append(out, reflectionFromModel(m))
	}
	return out, nil
}

// CountReflections counts the user's reflections.
func (s *GormStore) CountReflections(userID string) (int, error) {
	var count int64
	if err := s.db.Model(&ReflectionModel{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// TotalReflections counts reflections across all users.
func (s *GormStore) TotalReflections() (int, error) {
	var count int64
	if err := s.db.Model(&ReflectionModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// TotalReadMarks counts read marks across all users.
func (s *GormStore) TotalReadMarks() (int, error) {
	var count int64
	if err := s.db.Model(&ReadVerseModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// GetSubscriberByUserID returns the entitlement record for a user.
func (s *GormStore) GetSubscriberByUserID(userID string) (domain.Subscriber, bool, error) {
	var model SubscriberModel
	if err := s.db.Where("user_id = ?", userID).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Subscriber{}, false, nil
		}
		return domain.Subscriber{}, false, err
	}
	return subscriberFromModel(model), true, nil
}

// SaveSubscriber stores or updates the entitlement record.
func (s *GormStore) SaveSubscriber(sub domain.Subscriber) error {
	model := subscriberToModel(sub)
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"email", "stripe_customer_id", "subscribed", "tier",
			"subscription_end", "provider_data", "updated_at",
		}),
	}).Create(&model).Error
}

// Ranking returns the leaderboard sorted by points with dense rank.
func (s *GormStore) Ranking(limit int) ([]domain.RankingEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []domain.RankingEntry
	err := s.db.Raw(`
		SELECT id AS user_id,
		       name,
		       points,
		       level,
		       DENSE_RANK() OVER (ORDER BY points DESC) AS rank
		FROM profile_models
		ORDER BY points DESC, name ASC
		LIMIT ?`, limit).Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		Status:       string(u.Status),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	status := domain.UserStatus(m.Status)
	if status == "" {
		status = domain.StatusActive
	}
	return domain.User{
		ID:           m.ID,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Role:         domain.UserRole(m.Role),
		Status:       status,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func profileToModel(p domain.Profile) ProfileModel {
	return ProfileModel{
		ID:               p.ID,
		Name:             p.Name,
		Email:            p.Email,
		Nickname:         p.Nickname,
		Gender:           p.Gender,
		PhotoURL:         p.PhotoURL,
		Level:            p.Level,
		Points:           p.Points,
		TotalReflections: p.TotalReflections,
		ChaptersRead:     p.ChaptersRead,
		ConsecutiveDays:  p.ConsecutiveDays,
		LastAccessDate:   p.LastAccessDate,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func profileFromModel(m ProfileModel) domain.Profile {
	return domain.Profile{
		ID:               m.ID,
		Name:             m.Name,
		Email:            m.Email,
		Nickname:         m.Nickname,
		Gender:           m.Gender,
		PhotoURL:         m.PhotoURL,
		Level:            m.Level,
		Points:           m.Points,
		TotalReflections: m.TotalReflections,
		ChaptersRead:     m.ChaptersRead,
		ConsecutiveDays:  m.ConsecutiveDays,
		LastAccessDate:   m.LastAccessDate,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func verseToModel(v domain.Verse) BibleVerseModel {
	return BibleVerseModel{
		ID:          v.ID,
		Book:        v.Book,
		Chapter:     v.Chapter,
		Verse:       v.Verse,
		Text:        v.Text,
		Summary:     v.Summary,
		Order:       v.Order,
		IsGenerated: v.IsGenerated,
		CreatedAt:   v.CreatedAt,
	}
}

func verseFromModel(m BibleVerseModel) domain.Verse {
	return domain.Verse{
		ID:          m.ID,
		Book:        m.Book,
		Chapter:     m.Chapter,
		Verse:       m.Verse,
		Text:        m.Text,
		Summary:     m.Summary,
		Order:       m.Order,
		IsGenerated: m.IsGenerated,
		CreatedAt:   m.CreatedAt,
	}
}

func reflectionToModel(r domain.Reflection) ReflectionModel {
	return ReflectionModel{
		ID:        r.ID,
		UserID:    r.UserID,
		VerseID:   r.VerseID,
		Text:      r.Text,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func reflectionFromModel(m ReflectionModel) domain.Reflection {
	return domain.Reflection{
		ID:        m.ID,
		UserID:    m.UserID,
		VerseID:   m.VerseID,
		Text:      m.Text,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func subscriberToModel(s domain.Subscriber) SubscriberModel {
	return SubscriberModel{
		ID:               s.ID,
		UserID:           s.UserID,
		Email:            s.Email,
		StripeCustomerID: s.StripeCustomerID,
		Subscribed:       s.Subscribed,
		Tier:             string(s.Tier),
		SubscriptionEnd:  s.SubscriptionEnd,
		ProviderData:     datatypes.JSON(s.ProviderData),
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

func subscriberFromModel(m SubscriberModel) domain.Subscriber {
	tier := domain.Tier(m.Tier)
	if tier == "" {
		tier = domain.TierFree
	}
	return domain.Subscriber{
		ID:               m.ID,
		UserID:           m.UserID,
		Email:            m.Email,
		StripeCustomerID: m.StripeCustomerID,
		Subscribed:       m.Subscribed,
		Tier:             tier,
		SubscriptionEnd:  m.SubscriptionEnd,
		ProviderData:     []byte(m.ProviderData),
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}
