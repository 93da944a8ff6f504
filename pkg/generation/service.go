// Package generation appends AI-written verses to the catalog. It is
// the shared path behind the synchronous API endpoint and the queue
// worker, so both persist partial batches the same way.
package generation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"palavraviva/internal/util"
	"palavraviva/pkg/ai"
	"palavraviva/pkg/domain"
	"palavraviva/pkg/store"
)

// Service generates verses and appends them to the catalog in order.
type Service struct {
	store  store.Store
	writer *ai.VerseWriter
	logger *slog.Logger
	now    func() time.Time
}

// New builds a generation service on top of a text generator.
func New(st store.Store, gen ai.TextGenerator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  st,
		writer: ai.NewVerseWriter(gen),
		logger: logger,
		now:    time.Now,
	}
}

// Append generates up to count verses and persists each one as it
// arrives. When generation stops early the already-persisted subset is
// returned with Complete false; only persistence failures surface as
// errors.
func (s *Service) Append(ctx context.Context, count int) (domain.GeneratedBatch, error) {
	existing, err := s.store.ListVerses(true)
	if err != nil {
		return domain.GeneratedBatch{}, fmt.Errorf("list verses: %w", err)
	}
	excluded := make([]string, 0, len(existing))
	for _, v := range existing {
		excluded = append(excluded, fmt.Sprintf("%s %d:%d", v.Book, v.Chapter, v.Verse))
	}

	batch, genErr := s.writer.GenerateVerses(ctx, count, excluded)
	if genErr != nil {
		s.logger.Warn("verse generation stopped early",
			"requested", count,
			"generated", len(batch.Verses),
			"error", genErr,
		)
	}

	persisted := domain.GeneratedBatch{Complete: batch.Complete}
	now := s.now().UTC()
	for _, verse := range batch.Verses {
		order, err := s.store.NextVerseOrder()
		if err != nil {
			return persisted, fmt.Errorf("next verse order: %w", err)
		}
		verse.ID = util.NewID()
		verse.Order = order
		verse.CreatedAt = now
		if err := s.store.SaveVerse(verse); err != nil {
			return persisted, fmt.Errorf("save verse: %w", err)
		}
		persisted.Verses = append(persisted.Verses, verse)
	}
	return persisted, nil
}
