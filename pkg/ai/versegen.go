package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"palavraviva/pkg/domain"
)

const verseSystemPrompt = `Voce e um assistente devocional. Responda somente com JSON valido, sem markdown, no formato:
{"book": "...", "chapter": 1, "verse": 1, "text": "...", "summary": "..."}
O campo "text" e o texto biblico em portugues (traducao livre) e "summary" e uma reflexao devocional curta de ate tres frases.`

// VerseWriter turns a TextGenerator into a producer of devotional
// verse records.
type VerseWriter struct {
	generator TextGenerator
}

// NewVerseWriter builds a VerseWriter on top of any TextGenerator.
func NewVerseWriter(generator TextGenerator) *VerseWriter {
	return &VerseWriter{generator: generator}
}

// GenerateVerses requests count verse records one at a time. Generation
// stops on the first failure; the batch always carries whatever subset
// succeeded, with Complete=false and a non-nil error describing the
// failure when it stopped early. Callers must persist the partial batch
// rather than discard it.
func (w *VerseWriter) GenerateVerses(ctx context.Context, count int, excluded []string) (domain.GeneratedBatch, error) {
	batch := domain.GeneratedBatch{Complete: true}
	if count <= 0 {
		return batch, nil
	}
	seen := make([]string, 0, len(excluded)+count)
	seen = append(seen, excluded...)
	for i := 0; i < count; i++ {
		verse, err := w.generateOne(ctx, seen)
		if err != nil {
			batch.Complete = false
			return batch, fmt.Errorf("generate verse %d of %d: %w", i+1, count, err)
		}
		batch.Verses = append(batch.Verses, verse)
		seen = append(seen, verseRef(verse))
	}
	return batch, nil
}

func (w *VerseWriter) generateOne(ctx context.Context, seen []string) (domain.Verse, error) {
	prompt := "Gere um versiculo biblico devocional com sua reflexao."
	if len(seen) > 0 {
		prompt += " Nao repita nenhum destes: " + strings.Join(seen, "; ") + "."
	}
	raw, err := w.generator.GenerateText(ctx, verseSystemPrompt, prompt)
	if err != nil {
		return domain.Verse{}, err
	}
	return parseVerse(raw)
}

func parseVerse(raw string) (domain.Verse, error) {
	raw = stripFences(raw)
	var payload struct {
		Book    string `json:"book"`
		Chapter int    `json:"chapter"`
		Verse   int    `json:"verse"`
		Text    string `json:"text"`
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return domain.Verse{}, fmt.Errorf("parse generated verse: %w", err)
	}
	if strings.TrimSpace(payload.Book) == "" || strings.TrimSpace(payload.Text) == "" {
		return domain.Verse{}, fmt.Errorf("generated verse missing book or text")
	}
	return domain.Verse{
		Book:        strings.TrimSpace(payload.Book),
		Chapter:     payload.Chapter,
		Verse:       payload.Verse,
		Text:        strings.TrimSpace(payload.Text),
		Summary:     strings.TrimSpace(payload.Summary),
		IsGenerated: true,
	}, nil
}

// stripFences removes a markdown code fence some models wrap JSON in.
func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
	return strings.TrimSpace(raw)
}

func verseRef(v domain.Verse) string {
	return fmt.Sprintf("%s %d:%d", v.Book, v.Chapter, v.Verse)
}
