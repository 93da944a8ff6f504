package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"palavraviva/internal/util"
	"palavraviva/pkg/ai"
	"palavraviva/pkg/auth"
	"palavraviva/pkg/dailyverse"
	"palavraviva/pkg/domain"
	"palavraviva/pkg/gamification"
	"palavraviva/pkg/generation"
	"palavraviva/pkg/payments"
	"palavraviva/pkg/queue"
	"palavraviva/pkg/storage"
	"palavraviva/pkg/store"
	"palavraviva/pkg/subscription"
)

const defaultFreeReflectionLimit = 2

// JobQueue publishes verse-generation jobs for the worker.
type JobQueue interface {
	Enqueue(ctx context.Context, job queue.GenerationJob) error
}

// JobTracker records and reads generation job status.
type JobTracker interface {
	SetQueued(ctx context.Context, job queue.GenerationJob) error
	Get(ctx context.Context, jobID string) (queue.JobStatus, bool, error)
}

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	SessionTTL    time.Duration
	JWTSecret     string

	StripeAPIKey       string
	StripePriceID      string
	CheckoutSuccessURL string
	CheckoutCancelURL  string
	PortalReturnURL    string

	FreeReflectionLimit int

	Store        store.Store
	Sessions     store.SessionStore
	Provider     payments.Provider
	Generator    ai.TextGenerator
	Jobs         JobQueue
	Tracker      JobTracker
	Photos       storage.ObjectStore
	Achievements []domain.Achievement
	Logger       *slog.Logger
}

// App is the core application service wiring storage, sessions,
// payments, gamification and verse generation together.
type App struct {
	store        store.Store
	sessions     store.SessionStore
	provider     payments.Provider
	reconciler   *subscription.Reconciler
	generator    *generation.Service
	jobs         JobQueue
	tracker      JobTracker
	photos       storage.ObjectStore
	achievements []domain.Achievement
	logger       *slog.Logger

	priceID            string
	checkoutSuccessURL string
	checkoutCancelURL  string
	portalReturnURL    string

	freeReflectionLimit int
	now                 func() time.Time
}

// New constructs the application with database storage and session management.
func New(cfg Config) (*App, error) {
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.FreeReflectionLimit == 0 {
		cfg.FreeReflectionLimit = defaultFreeReflectionLimit
	}
	if len(cfg.Achievements) == 0 {
		cfg.Achievements = gamification.DefaultAchievements
	}

	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}

	sessionStore := cfg.Sessions
	if sessionStore == nil {
		if strings.TrimSpace(cfg.JWTSecret) == "" {
			return nil, fmt.Errorf("jwtSecret is required")
		}
		if strings.TrimSpace(cfg.RedisAddr) == "" {
			return nil, fmt.Errorf("redisAddr is required for jwt+redis session strategy")
		}
		revoker := store.NewRedisTokenRevoker(cfg.RedisAddr, cfg.RedisPassword)
		sessionStore = store.NewJWTSessionStore(cfg.JWTSecret, cfg.SessionTTL, revoker)
	}

	provider := cfg.Provider
	if provider == nil && strings.TrimSpace(cfg.StripeAPIKey) != "" {
		var err error
		provider, err = payments.NewStripeProvider(cfg.StripeAPIKey)
		if err != nil {
			return nil, fmt.Errorf("init stripe provider: %w", err)
		}
	}
	if provider == nil {
		return nil, fmt.Errorf("payment provider required (set STRIPE_API_KEY)")
	}

	var generator *generation.Service
	if cfg.Generator != nil {
		generator = generation.New(dataStore, cfg.Generator, cfg.Logger)
	}

	return &App{
		store:               dataStore,
		sessions:            sessionStore,
		provider:            provider,
		reconciler:          subscription.New(dataStore, provider, cfg.Logger),
		generator:           generator,
		jobs:                cfg.Jobs,
		tracker:             cfg.Tracker,
		photos:              cfg.Photos,
		achievements:        cfg.Achievements,
		logger:              cfg.Logger,
		priceID:             cfg.StripePriceID,
		checkoutSuccessURL:  cfg.CheckoutSuccessURL,
		checkoutCancelURL:   cfg.CheckoutCancelURL,
		portalReturnURL:     cfg.PortalReturnURL,
		freeReflectionLimit: cfg.FreeReflectionLimit,
		now:                 time.Now,
	}, nil
}

// --- auth ---

// SignUp registers a new user with an empty profile and issues a session.
func (a *App) SignUp(name, email, password string) (domain.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	name = strings.TrimSpace(name)
	if email == "" || password == "" {
		return domain.User{}, "", ErrEmailAndPasswordRequired
	}
	if name == "" {
		return domain.User{}, "", ErrNameRequired
	}
	if err := auth.ValidatePassword(password); err != nil {
		return domain.User{}, "", err
	}
	exists, err := a.store.HasUserEmail(email)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("check email: %w", err)
	}
	if exists {
		return domain.User{}, "", ErrEmailAlreadyExists
	}
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("hash password: %w", err)
	}
	role := domain.RoleUser
	count, err := a.store.UserCount()
	if err != nil {
		return domain.User{}, "", fmt.Errorf("count users: %w", err)
	}
	if count == 0 {
		role = domain.RoleAdmin
	}
	now := a.now().UTC()
	user := domain.User{
		ID:           util.NewID(),
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		Status:       domain.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.store.SaveUser(user); err != nil {
		return domain.User{}, "", fmt.Errorf("save user: %w", err)
	}
	profile := domain.Profile{
		ID:        user.ID,
		Name:      name,
		Email:     email,
		Level:     1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.store.SaveProfile(profile); err != nil {
		return domain.User{}, "", fmt.Errorf("save profile: %w", err)
	}
	token, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("issue session: %w", err)
	}
	return user, token, nil
}

// Login validates credentials and issues a session token.
func (a *App) Login(email, password string) (domain.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, ok, err := a.store.GetUserByEmail(email)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("fetch user: %w", err)
	}
	if !ok {
		return domain.User{}, "", ErrInvalidCredentials
	}
	if user.Status == domain.StatusDisabled {
		return domain.User{}, "", ErrUserDisabled
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return domain.User{}, "", ErrInvalidCredentials
	}
	token, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("issue session: %w", err)
	}
	return user, token, nil
}

// Logout invalidates the session token.
func (a *App) Logout(token string) error {
	return a.sessions.DeleteSession(token)
}

// UserFromToken resolves a user from a session token.
func (a *App) UserFromToken(token string) (domain.User, bool) {
	uid, ok, err := a.sessions.GetUserIDByToken(token)
	if err != nil || !ok {
		return domain.User{}, false
	}
	user, found, err := a.store.GetUserByID(uid)
	if err != nil || !found {
		return domain.User{}, false
	}
	if user.Status == domain.StatusDisabled {
		return domain.User{}, false
	}
	return user, true
}

// ChangePassword updates the user's password after verifying the current one.
func (a *App) ChangePassword(userID, currentPassword, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return ErrNewPasswordRequired
	}
	if strings.TrimSpace(currentPassword) == "" {
		return ErrCurrentPasswordRequired
	}
	if err := auth.ValidatePassword(newPassword); err != nil {
		return err
	}
	user, ok, err := a.store.GetUserByID(userID)
	if err != nil {
		return fmt.Errorf("fetch user: %w", err)
	}
	if !ok {
		return ErrInvalidCredentials
	}
	if !auth.CheckPassword(currentPassword, user.PasswordHash) {
		return ErrInvalidCredentials
	}
	passwordHash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = a.now().UTC()
	if err := a.store.SaveUser(user); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// --- profile ---

// Profile returns the user's profile.
func (a *App) Profile(userID string) (domain.Profile, error) {
	profile, ok, err := a.store.GetProfile(userID)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("fetch profile: %w", err)
	}
	if !ok {
		return domain.Profile{}, ErrProfileNotFound
	}
	return profile, nil
}

// UpdateProfile changes display fields. Counters are never writable here.
func (a *App) UpdateProfile(userID string, name, nickname, gender *string) (domain.Profile, error) {
	profile, err := a.Profile(userID)
	if err != nil {
		return domain.Profile{}, err
	}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return domain.Profile{}, ErrNameRequired
		}
		profile.Name = trimmed
	}
	if nickname != nil {
		profile.Nickname = strings.TrimSpace(*nickname)
	}
	if gender != nil {
		profile.Gender = strings.TrimSpace(*gender)
	}
	profile.UpdatedAt = a.now().UTC()
	if err := a.store.SaveProfile(profile); err != nil {
		return domain.Profile{}, fmt.Errorf("save profile: %w", err)
	}
	return profile, nil
}

// SetAvatar stores the profile photo and records its URL on the profile.
func (a *App) SetAvatar(ctx context.Context, userID string, r io.Reader, size int64, contentType string) (domain.Profile, error) {
	if a.photos == nil {
		return domain.Profile{}, ErrPhotosDisabled
	}
	profile, err := a.Profile(userID)
	if err != nil {
		return domain.Profile{}, err
	}
	key := storage.AvatarKey(userID)
	if err := a.photos.Put(ctx, key, r, size, contentType); err != nil {
		return domain.Profile{}, fmt.Errorf("store photo: %w", err)
	}
	url, err := a.photos.PresignGet(ctx, key, 7*24*time.Hour)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("presign photo: %w", err)
	}
	profile.PhotoURL = url
	profile.UpdatedAt = a.now().UTC()
	if err := a.store.SaveProfile(profile); err != nil {
		return domain.Profile{}, fmt.Errorf("save profile: %w", err)
	}
	return profile, nil
}

// --- tier gating ---

// tierOf reads the last reconciled entitlement. A missing record means
// free; reconciliation itself happens only in CheckSubscription so that
// content reads never block on the payment provider.
func (a *App) tierOf(userID string) (domain.Tier, error) {
	sub, found, err := a.store.GetSubscriberByUserID(userID)
	if err != nil {
		return domain.TierFree, fmt.Errorf("fetch subscriber: %w", err)
	}
	if !found || sub.Tier != domain.TierPro {
		return domain.TierFree, nil
	}
	return domain.TierPro, nil
}

// --- verses ---

// ListVerses returns the verse catalog visible at the user's tier.
// Free users see only the static catalog; pro users also see
// generated verses.
func (a *App) ListVerses(userID string) ([]domain.Verse, error) {
	tier, err := a.tierOf(userID)
	if err != nil {
		return nil, err
	}
	return a.store.ListVerses(tier == domain.TierPro)
}

// DailyVerse deterministically selects today's verse from the user's
// visible catalog. The UTC calendar date keys the selection so every
// user sees the same verse on the same day.
func (a *App) DailyVerse(userID string) (domain.Verse, error) {
	verses, err := a.ListVerses(userID)
	if err != nil {
		return domain.Verse{}, err
	}
	verse, ok := dailyverse.VerseOfDay(verses, a.now())
	if !ok {
		return domain.Verse{}, ErrVerseNotFound
	}
	return verse, nil
}

// RandomVerse picks a uniformly random verse from the visible catalog.
func (a *App) RandomVerse(userID string) (domain.Verse, error) {
	verses, err := a.ListVerses(userID)
	if err != nil {
		return domain.Verse{}, err
	}
	verse, ok := dailyverse.RandomVerse(verses)
	if !ok {
		return domain.Verse{}, ErrVerseNotFound
	}
	return verse, nil
}

// VerseDetail is a verse annotated with the caller's progress.
type VerseDetail struct {
	domain.Verse
	Read       bool               `json:"read"`
	Reflection *domain.Reflection `json:"reflection,omitempty"`
}

// GetVerse returns one verse with the user's read/reflection state.
func (a *App) GetVerse(userID, verseID string) (VerseDetail, error) {
	verse, ok, err := a.store.GetVerse(verseID)
	if err != nil {
		return VerseDetail{}, fmt.Errorf("fetch verse: %w", err)
	}
	if !ok {
		return VerseDetail{}, ErrVerseNotFound
	}
	detail := VerseDetail{Verse: verse}
	detail.Read, err = a.store.IsRead(userID, verseID)
	if err != nil {
		return VerseDetail{}, fmt.Errorf("check read mark: %w", err)
	}
	if reflection, found, err := a.store.GetReflectionByVerse(userID, verseID); err == nil && found {
		detail.Reflection = &reflection
	}
	return detail, nil
}

// MarkRead records a completed verse and updates streak and counters.
// Marking an already-read verse is a no-op for counters.
func (a *App) MarkRead(userID, verseID string) (domain.Profile, error) {
	if _, ok, err := a.store.GetVerse(verseID); err != nil {
		return domain.Profile{}, fmt.Errorf("fetch verse: %w", err)
	} else if !ok {
		return domain.Profile{}, ErrVerseNotFound
	}
	profile, err := a.Profile(userID)
	if err != nil {
		return domain.Profile{}, err
	}
	already, err := a.store.IsRead(userID, verseID)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("check read mark: %w", err)
	}
	if already {
		return profile, nil
	}
	now := a.now().UTC()
	if err := a.store.MarkRead(domain.ReadMark{UserID: userID, VerseID: verseID, CreatedAt: now}); err != nil {
		return domain.Profile{}, fmt.Errorf("mark read: %w", err)
	}
	profile.ChaptersRead++
	profile.ConsecutiveDays = nextStreak(profile.LastAccessDate, profile.ConsecutiveDays, now)
	profile.LastAccessDate = now
	a.applyScore(&profile, now)
	if err := a.store.SaveProfile(profile); err != nil {
		return domain.Profile{}, fmt.Errorf("save profile: %w", err)
	}
	return profile, nil
}

// UnmarkRead removes a read mark and rolls the chapter counter back.
func (a *App) UnmarkRead(userID, verseID string) (domain.Profile, error) {
	profile, err := a.Profile(userID)
	if err != nil {
		return domain.Profile{}, err
	}
	read, err := a.store.IsRead(userID, verseID)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("check read mark: %w", err)
	}
	if !read {
		return profile, nil
	}
	if err := a.store.UnmarkRead(userID, verseID); err != nil {
		return domain.Profile{}, fmt.Errorf("unmark read: %w", err)
	}
	if profile.ChaptersRead > 0 {
		profile.ChaptersRead--
	}
	a.applyScore(&profile, a.now().UTC())
	if err := a.store.SaveProfile(profile); err != nil {
		return domain.Profile{}, fmt.Errorf("save profile: %w", err)
	}
	return profile, nil
}

// nextStreak advances the consecutive-day counter: same UTC day keeps
// it, the day after the last access extends it, any gap resets to 1.
func nextStreak(lastAccess time.Time, streak int, now time.Time) int {
	if streak <= 0 || lastAccess.IsZero() {
		return 1
	}
	lastDay := dailyverse.DateKey(lastAccess)
	today := dailyverse.DateKey(now)
	if lastDay == today {
		return streak
	}
	if dailyverse.DateKey(lastAccess.AddDate(0, 0, 1)) == today {
		return streak + 1
	}
	return 1
}

func (a *App) applyScore(profile *domain.Profile, now time.Time) {
	stats := domain.UserStats{
		TotalReflections: profile.TotalReflections,
		ChaptersRead:     profile.ChaptersRead,
		ConsecutiveDays:  profile.ConsecutiveDays,
	}
	profile.Points = gamification.Points(stats)
	profile.Level = gamification.Level(stats)
	profile.UpdatedAt = now
}

// --- reflections ---

// SaveReflection creates or replaces the user's reflection on a verse.
// Writing a reflection also marks the verse as read.
func (a *App) SaveReflection(userID, verseID, text string) (domain.Reflection, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Reflection{}, ErrReflectionRequired
	}
	if _, ok, err := a.store.GetVerse(verseID); err != nil {
		return domain.Reflection{}, fmt.Errorf("fetch verse: %w", err)
	} else if !ok {
		return domain.Reflection{}, ErrVerseNotFound
	}
	_, existed, err := a.store.GetReflectionByVerse(userID, verseID)
	if err != nil {
		return domain.Reflection{}, fmt.Errorf("check reflection: %w", err)
	}

	// Read mark first so streak and chapter counters move with it.
	if _, err := a.MarkRead(userID, verseID); err != nil {
		return domain.Reflection{}, err
	}

	now := a.now().UTC()
	saved, err := a.store.SaveReflection(domain.Reflection{
		ID:        util.NewID(),
		UserID:    userID,
		VerseID:   verseID,
		Text:      text,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return domain.Reflection{}, fmt.Errorf("save reflection: %w", err)
	}
	if !existed {
		profile, err := a.Profile(userID)
		if err != nil {
			return domain.Reflection{}, err
		}
		profile.TotalReflections++
		a.applyScore(&profile, now)
		if err := a.store.SaveProfile(profile); err != nil {
			return domain.Reflection{}, fmt.Errorf("save profile: %w", err)
		}
	}
	return saved, nil
}

// DeleteReflection removes a reflection together with its paired read
// mark, rolling both counters back.
func (a *App) DeleteReflection(userID, reflectionID string) (domain.Profile, error) {
	reflection, ok, err := a.store.GetReflection(reflectionID)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("fetch reflection: %w", err)
	}
	if !ok || reflection.UserID != userID {
		return domain.Profile{}, ErrReflectionNotFound
	}
	profile, err := a.Profile(userID)
	if err != nil {
		return domain.Profile{}, err
	}
	wasRead, err := a.store.IsRead(userID, reflection.VerseID)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("check read mark: %w", err)
	}
	if err := a.store.DeleteReflection(reflectionID); err != nil {
		return domain.Profile{}, fmt.Errorf("delete reflection: %w", err)
	}
	if profile.TotalReflections > 0 {
		profile.TotalReflections--
	}
	if wasRead && profile.ChaptersRead > 0 {
		profile.ChaptersRead--
	}
	a.applyScore(&profile, a.now().UTC())
	if err := a.store.SaveProfile(profile); err != nil {
		return domain.Profile{}, fmt.Errorf("save profile: %w", err)
	}
	return profile, nil
}

// ReflectionList is the tier-gated reflection listing. Limited reports
// whether entries were cut off by the free-tier cap.
type ReflectionList struct {
	Items   []domain.Reflection `json:"items"`
	Total   int                 `json:"total"`
	Limited bool                `json:"limited"`
}

// ListReflections returns the user's reflections newest-first. Free
// users see at most the configured limit, with Limited set when more
// exist.
func (a *App) ListReflections(userID string) (ReflectionList, error) {
	reflections, err := a.store.ListReflections(userID)
	if err != nil {
		return ReflectionList{}, fmt.Errorf("list reflections: %w", err)
	}
	tier, err := a.tierOf(userID)
	if err != nil {
		return ReflectionList{}, err
	}
	list := ReflectionList{Items: reflections, Total: len(reflections)}
	if tier != domain.TierPro && len(reflections) > a.freeReflectionLimit {
		list.Items = reflections[:a.freeReflectionLimit]
		list.Limited = true
	}
	return list, nil
}

// --- gamification ---

// AchievementStatus is an achievement with the caller's progress.
type AchievementStatus struct {
	domain.Achievement
	Progress int  `json:"progress"`
	Unlocked bool `json:"unlocked"`
}

// Achievements returns the tier-visible catalog with progress derived
// from the profile counters.
func (a *App) Achievements(userID string) ([]AchievementStatus, error) {
	profile, err := a.Profile(userID)
	if err != nil {
		return nil, err
	}
	tier, err := a.tierOf(userID)
	if err != nil {
		return nil, err
	}
	stats := domain.UserStats{
		TotalReflections: profile.TotalReflections,
		ChaptersRead:     profile.ChaptersRead,
		ConsecutiveDays:  profile.ConsecutiveDays,
	}
	visible := gamification.Available(a.achievements, tier)
	out := make([]AchievementStatus, 0, len(visible))
	for _, achievement := range visible {
		out = append(out, AchievementStatus{
			Achievement: achievement,
			Progress:    gamification.Progress(achievement, stats),
			Unlocked:    gamification.Unlocked(achievement, stats),
		})
	}
	return out, nil
}

// StatsSummary is the profile scorecard.
type StatsSummary struct {
	domain.UserStats
	Points     int    `json:"points"`
	Level      int    `json:"level"`
	LevelTitle string `json:"levelTitle"`
}

// Stats returns the user's gamification scorecard.
func (a *App) Stats(userID string) (StatsSummary, error) {
	profile, err := a.Profile(userID)
	if err != nil {
		return StatsSummary{}, err
	}
	stats := domain.UserStats{
		TotalReflections: profile.TotalReflections,
		ChaptersRead:     profile.ChaptersRead,
		ConsecutiveDays:  profile.ConsecutiveDays,
	}
	return StatsSummary{
		UserStats:  stats,
		Points:     gamification.Points(stats),
		Level:      gamification.Level(stats),
		LevelTitle: gamification.LevelTitle(gamification.Level(stats)),
	}, nil
}

// RefreshStats recomputes the denormalized profile counters from the
// read-mark and reflection tables, repairing any drift.
func (a *App) RefreshStats(userID string) (domain.Profile, error) {
	profile, err := a.Profile(userID)
	if err != nil {
		return domain.Profile{}, err
	}
	chaptersRead, err := a.store.CountReadMarks(userID)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("count read marks: %w", err)
	}
	totalReflections, err := a.store.CountReflections(userID)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("count reflections: %w", err)
	}
	profile.ChaptersRead = chaptersRead
	profile.TotalReflections = totalReflections
	a.applyScore(&profile, a.now().UTC())
	if err := a.store.SaveProfile(profile); err != nil {
		return domain.Profile{}, fmt.Errorf("save profile: %w", err)
	}
	return profile, nil
}

// Ranking returns the points leaderboard with dense rank.
func (a *App) Ranking(limit int) ([]domain.RankingEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return a.store.Ranking(limit)
}

// PublicStats are aggregate counters safe to expose unauthenticated.
type PublicStats struct {
	Users       int `json:"users"`
	Verses      int `json:"verses"`
	Reflections int `json:"reflections"`
	ReadMarks   int `json:"readMarks"`
}

// AggregateStats gathers the public counters concurrently.
func (a *App) AggregateStats(ctx context.Context) (PublicStats, error) {
	var stats PublicStats
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := a.store.UserCount()
		stats.Users = n
		return err
	})
	g.Go(func() error {
		n, err := a.store.VerseCount()
		stats.Verses = n
		return err
	})
	g.Go(func() error {
		n, err := a.store.TotalReflections()
		stats.Reflections = n
		return err
	})
	g.Go(func() error {
		n, err := a.store.TotalReadMarks()
		stats.ReadMarks = n
		return err
	})
	if err := g.Wait(); err != nil {
		return PublicStats{}, fmt.Errorf("aggregate stats: %w", err)
	}
	return stats, nil
}

// --- subscriptions ---

// CheckSubscription reconciles the user's entitlement against the
// payment provider and returns the persisted record.
func (a *App) CheckSubscription(ctx context.Context, user domain.User) (domain.Subscriber, error) {
	return a.reconciler.Reconcile(ctx, user.ID, user.Email)
}

// CreateCheckout opens a checkout session for the pro tier, creating a
// provider customer when none exists yet.
func (a *App) CreateCheckout(ctx context.Context, user domain.User) (string, error) {
	customerID, err := a.ensureCustomer(ctx, user)
	if err != nil {
		return "", err
	}
	return a.provider.NewCheckoutSession(ctx, payments.CheckoutParams{
		CustomerID: customerID,
		PriceID:    a.priceID,
		SuccessURL: a.checkoutSuccessURL,
		CancelURL:  a.checkoutCancelURL,
	})
}

// CustomerPortal opens a billing portal session for an existing
// provider customer.
func (a *App) CustomerPortal(ctx context.Context, user domain.User) (string, error) {
	sub, found, err := a.store.GetSubscriberByUserID(user.ID)
	if err != nil {
		return "", fmt.Errorf("fetch subscriber: %w", err)
	}
	customerID := ""
	if found {
		customerID = sub.StripeCustomerID
	}
	if customerID == "" {
		customer, ok, err := a.provider.FindCustomerByEmail(ctx, user.Email)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", ErrNoCustomer
		}
		customerID = customer.ID
	}
	return a.provider.NewBillingPortalSession(ctx, customerID, a.portalReturnURL)
}

func (a *App) ensureCustomer(ctx context.Context, user domain.User) (string, error) {
	sub, found, err := a.store.GetSubscriberByUserID(user.ID)
	if err != nil {
		return "", fmt.Errorf("fetch subscriber: %w", err)
	}
	if found && sub.StripeCustomerID != "" {
		return sub.StripeCustomerID, nil
	}
	customer, ok, err := a.provider.FindCustomerByEmail(ctx, user.Email)
	if err != nil {
		return "", err
	}
	if !ok {
		customer, err = a.provider.CreateCustomer(ctx, user.Email)
		if err != nil {
			return "", err
		}
	}
	now := a.now().UTC()
	if !found {
		sub = domain.Subscriber{
			ID:        uuid.NewString(),
			UserID:    user.ID,
			Email:     user.Email,
			Tier:      domain.TierFree,
			CreatedAt: now,
		}
	}
	sub.StripeCustomerID = customer.ID
	sub.UpdatedAt = now
	if err := a.store.SaveSubscriber(sub); err != nil {
		return "", fmt.Errorf("save subscriber: %w", err)
	}
	return customer.ID, nil
}

// --- verse generation ---

// GenerateVerses synchronously tops up the catalog for a pro user.
// Whatever subset succeeds is appended and returned even when
// generation stops early; Complete reports whether the full count was
// produced.
func (a *App) GenerateVerses(ctx context.Context, userID string, count int) (domain.GeneratedBatch, error) {
	tier, err := a.tierOf(userID)
	if err != nil {
		return domain.GeneratedBatch{}, err
	}
	if tier != domain.TierPro {
		return domain.GeneratedBatch{}, ErrProRequired
	}
	return a.generateAndAppend(ctx, count)
}

// generateAndAppend delegates to the shared generation service the
// worker also runs, so both persist partial batches the same way.
func (a *App) generateAndAppend(ctx context.Context, count int) (domain.GeneratedBatch, error) {
	if a.generator == nil {
		return domain.GeneratedBatch{}, ErrGenerationDisabled
	}
	return a.generator.Append(ctx, count)
}

// GenerateVersesJob runs one queued generation job. Used by the worker.
func (a *App) GenerateVersesJob(ctx context.Context, count int) (domain.GeneratedBatch, error) {
	return a.generateAndAppend(ctx, count)
}

// EnqueueGeneration publishes an asynchronous generation job for a pro
// user and records its queued status.
func (a *App) EnqueueGeneration(ctx context.Context, userID string, count int) (queue.JobStatus, error) {
	tier, err := a.tierOf(userID)
	if err != nil {
		return queue.JobStatus{}, err
	}
	if tier != domain.TierPro {
		return queue.JobStatus{}, ErrProRequired
	}
	if a.jobs == nil || a.tracker == nil {
		return queue.JobStatus{}, ErrQueueDisabled
	}
	job := queue.GenerationJob{
		ID:          uuid.NewString(),
		Count:       count,
		RequestedBy: userID,
		EnqueuedAt:  a.now().UTC(),
	}
	if err := a.tracker.SetQueued(ctx, job); err != nil {
		return queue.JobStatus{}, fmt.Errorf("track job: %w", err)
	}
	if err := a.jobs.Enqueue(ctx, job); err != nil {
		return queue.JobStatus{}, fmt.Errorf("enqueue job: %w", err)
	}
	status, _, err := a.tracker.Get(ctx, job.ID)
	if err != nil {
		return queue.JobStatus{}, fmt.Errorf("read job status: %w", err)
	}
	return status, nil
}

// GenerationJobStatus reads the status of a queued job.
func (a *App) GenerationJobStatus(ctx context.Context, jobID string) (queue.JobStatus, bool, error) {
	if a.tracker == nil {
		return queue.JobStatus{}, false, ErrQueueDisabled
	}
	return a.tracker.Get(ctx, jobID)
}
