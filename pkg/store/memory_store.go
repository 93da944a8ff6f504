package store

import (
	"sort"
	"sync"

	"palavraviva/pkg/domain"
)

// MemoryStore is an in-memory Store used by tests and local development.
type MemoryStore struct {
	mu          sync.RWMutex
	users       map[string]domain.User
	profiles    map[string]domain.Profile
	verses      map[string]domain.Verse
	readMarks   map[string]map[string]domain.ReadMark // userID -> verseID
	reflections map[string]domain.Reflection          // reflection id
	subscribers map[string]domain.Subscriber          // userID
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[string]domain.User),
		profiles:    make(map[string]domain.Profile),
		verses:      make(map[string]domain.Verse),
		readMarks:   make(map[string]map[string]domain.ReadMark),
		reflections: make(map[string]domain.Reflection),
		subscribers: make(map[string]domain.Subscriber),
	}
}

func (s *MemoryStore) SaveUser(u domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return nil
}

func (s *MemoryStore) HasUserEmail(email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) GetUserByEmail(email string) (domain.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, true, nil
		}
	}
	return domain.User{}, false, nil
}

func (s *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok, nil
}

func (s *MemoryStore) UserCount() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

func (s *MemoryStore) SaveProfile(p domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ID] = p
	return nil
}

func (s *MemoryStore) GetProfile(userID string) (domain.Profile, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	return p, ok, nil
}

func (s *MemoryStore) SaveVerse(v domain.Verse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.verses[v.ID]; exists {
		return nil
	}
	s.verses[v.ID] = v
	return nil
}

func (s *MemoryStore) GetVerse(id string) (domain.Verse, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.verses[id]
	return v, ok, nil
}

func (s *MemoryStore) ListVerses(includeGenerated bool) ([]domain.Verse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Verse, 0, len(s.verses))
	for _, v := range s.verses {
		if !includeGenerated && v.IsGenerated {
			continue
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (s *MemoryStore) NextVerseOrder() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	max := 0
	for _, v := range s.verses {
		if v.Order > max {
			max = v.Order
		}
	}
	return max + 1, nil
}

func (s *MemoryStore) VerseCount() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.verses), nil
}

func (s *MemoryStore) MarkRead(mark domain.ReadMark) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	marks := s.readMarks[mark.UserID]
	if marks == nil {
		marks = make(map[string]domain.ReadMark)
		s.readMarks[mark.UserID] = marks
	}
	if _, exists := marks[mark.VerseID]; exists {
		return nil
	}
	marks[mark.VerseID] = mark
	return nil
}

func (s *MemoryStore) UnmarkRead(userID, verseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.readMarks[userID], verseID)
	return nil
}

func (s *MemoryStore) IsRead(userID, verseID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.readMarks[userID][verseID]
	return ok, nil
}

func (s *MemoryStore) CountReadMarks(userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.readMarks[userID]), nil
}

func (s *MemoryStore) SaveReflection(r domain.Reflection) (domain.Reflection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.reflections {
		if existing.UserID == r.UserID && existing.VerseID == r.VerseID {
			existing.Text = r.Text
			existing.UpdatedAt = r.UpdatedAt
			s.reflections[id] = existing
			return existing, nil
		}
	}
	s.reflections[r.ID] = r
	return r, nil
}

func (s *MemoryStore) GetReflection(id string) (domain.Reflection, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reflections[id]
	return r, ok, nil
}

func (s *MemoryStore) GetReflectionByVerse(userID, verseID string) (domain.Reflection, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.reflections {
		if r.UserID == userID && r.VerseID == verseID {
			return r, true, nil
		}
	}
	return domain.Reflection{}, false, nil
}

func (s *MemoryStore) DeleteReflection(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reflections[id]
	if !ok {
		return nil
	}
	delete(s.reflections, id)
	delete(s.readMarks[r.UserID], r.VerseID)
	return nil
}

func (s *MemoryStore) ListReflections(userID string) ([]domain.Reflection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Reflection, 0)
	for _, r := range s.reflections {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) CountReflections(userID string) (int, error) {
	list, _ := s.ListReflections(userID)
	return len(list), nil
}

func (s *MemoryStore) TotalReflections() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reflections), nil
}

func (s *MemoryStore) TotalReadMarks() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, marks := range s.readMarks {
		total += len(marks)
	}
	return total, nil
}

func (s *MemoryStore) GetSubscriberByUserID(userID string) (domain.Subscriber, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subscribers[userID]
	return sub, ok, nil
}

func (s *MemoryStore) SaveSubscriber(sub domain.Subscriber) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers[sub.UserID] = sub
	return nil
}

func (s *MemoryStore) Ranking(limit int) ([]domain.RankingEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 50
	}
	profiles := make([]domain.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		profiles = append(profiles, p)
	}
	sort.Slice(profiles, func(i, j int) bool {
		if profiles[i].Points != profiles[j].Points {
			return profiles[i].Points > profiles[j].Points
		}
		return profiles[i].Name < profiles[j].Name
	})
	entries := make([]domain.RankingEntry, 0, len(profiles))
	rank := 0
	lastPoints := -1
	for _, p := range profiles {
		if p.Points != lastPoints {
			rank++
			lastPoints = p.Points
		}
		entries = append(entries, domain.RankingEntry{
			UserID: p.ID,
			Name:   p.Name,
			Points: p.Points,
			Level:  p.Level,
			Rank:   rank,
		})
		if len(entries) == limit {
			break
		}
	}
	return entries, nil
}
