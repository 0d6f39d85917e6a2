// Package rag provides the embedding index lifecycle and semantic retrieval:
// chunking, index building, persistence, and similarity search.
package rag

import (
	"fmt"
	"strings"

	"github.com/ternarybob/wayfarer/internal/models"
)

// Chunker splits document text into embedding-sized pieces. Content at or
// under MaxChars passes through whole. Semantic mode splits on sentence
// boundaries with a trailing-word overlap; character mode falls back to
// punctuation-aware hard splitting with a fixed character overlap.
type Chunker struct {
	MaxChars int
	Overlap  int
	Semantic bool
}

// NewChunker creates a chunker with the given limits
func NewChunker(maxChars, overlap int, semantic bool) *Chunker {
	return &Chunker{
		MaxChars: maxChars,
		Overlap:  overlap,
		Semantic: semantic,
	}
}

// Split divides one source document into chunks. Lengths are measured in
// runes so multi-byte text does not split mid-character.
func (c *Chunker) Split(doc models.SourceDocument, index int) []models.Chunk {
	content := strings.TrimSpace(doc.Text)
	if content == "" {
		return nil
	}

	if len([]rune(content)) <= c.MaxChars {
		return []models.Chunk{{
			Source:  doc.Source,
			Name:    doc.Name,
			Text:    content,
			Path:    doc.Path,
			ChunkID: fmt.Sprintf("%s_%d", doc.Source, index),
			Split:   false,
		}}
	}

	if c.Semantic {
		if chunks := c.splitSemantic(doc, index, content); len(chunks) > 0 {
			return chunks
		}
		// No sentence boundaries found; fall through to character mode
	}

	return c.splitCharacter(doc, index, content)
}

// splitSemantic accumulates whole sentences up to the limit, carrying up to
// 20 trailing words of the previous chunk as overlap. Returns nil when the
// content yields no sentences.
func (c *Chunker) splitSemantic(doc models.SourceDocument, index int, content string) []models.Chunk {
	sentences := splitSentences(content)
	if len(sentences) <= 1 {
		// Content over the limit with no sentence boundaries; character
		// mode handles it
		return nil
	}

	var chunks []models.Chunk
	counter := 0
	current := ""

	emit := func(text string) {
		chunks = append(chunks, models.Chunk{
			Source:      doc.Source,
			Name:        fmt.Sprintf("%s - Part %d", doc.Name, counter+1),
			Text:        text,
			Path:        doc.Path,
			ChunkID:     fmt.Sprintf("%s_%d_part_%d", doc.Source, index, counter),
			Split:       true,
			SplitMethod: "semantic",
		})
		counter++
	}

	for _, sentence := range sentences {
		if len([]rune(current))+len([]rune(sentence)) > c.MaxChars && current != "" {
			emit(strings.TrimSpace(current))

			words := strings.Fields(current)
			if len(words) > 5 {
				take := len(words) / 3
				if take > 20 {
					take = 20
				}
				current = strings.Join(words[len(words)-take:], " ") + " "
			} else {
				current = ""
			}
		}
		current += sentence + " "
	}

	if strings.TrimSpace(current) != "" {
		emit(strings.TrimSpace(current))
	}

	return chunks
}

// splitCharacter hard-splits on the best boundary within each window,
// preferring '.' then '\n' then ',' then ' ', with a fixed overlap.
func (c *Chunker) splitCharacter(doc models.SourceDocument, index int, content string) []models.Chunk {
	runes := []rune(content)
	var chunks []models.Chunk
	counter := 0
	start := 0

	for start < len(runes) {
		end := start + c.MaxChars
		if end < len(runes) {
			end = findBoundary(runes, start, start+c.MaxChars)
		} else {
			end = len(runes)
		}

		text := strings.TrimSpace(string(runes[start:end]))
		if text != "" {
			chunks = append(chunks, models.Chunk{
				Source:      doc.Source,
				Name:        fmt.Sprintf("%s - Part %d", doc.Name, counter+1),
				Text:        text,
				Path:        doc.Path,
				ChunkID:     fmt.Sprintf("%s_%d_part_%d", doc.Source, index, counter),
				Split:       true,
				SplitMethod: "character",
			})
		}

		if end < len(runes) {
			next := start + c.MaxChars - c.Overlap
			if end-c.Overlap > next {
				next = end - c.Overlap
			}
			start = next
		} else {
			start = end
		}
		counter++
	}

	return chunks
}

// findBoundary searches backward from limit for the best split point
func findBoundary(runes []rune, start, limit int) int {
	for _, sep := range []rune{'.', '\n', ',', ' '} {
		for i := limit - 1; i > start; i-- {
			if runes[i] == sep {
				return i
			}
		}
	}
	return limit
}

// splitSentences divides text into sentences on terminal punctuation,
// normalizing full-width marks first. Each sentence keeps a trailing period.
func splitSentences(content string) []string {
	normalized := strings.NewReplacer("。", ".", "？", "?", "！", "!").Replace(content)

	var sentences []string
	for _, part := range strings.FieldsFunc(normalized, func(r rune) bool {
		return r == '.' || r == '?' || r == '!'
	}) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			sentences = append(sentences, trimmed+".")
		}
	}
	return sentences
}
