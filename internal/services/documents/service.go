// Package documents enumerates the knowledge directory, extracts plain text
// from supported formats, and maintains the document registry.
package documents

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/wayfarer/internal/common"
	"github.com/ternarybob/wayfarer/internal/interfaces"
	"github.com/ternarybob/wayfarer/internal/models"
)

// supportedExtensions lists the formats the provider can extract itself.
// PDF/Word/Excel extraction is out of scope; those files are skipped.
var supportedExtensions = map[string]bool{
	".md":   true,
	".html": true,
	".txt":  true,
	".json": true,
}

// Service implements the DocumentProvider interface over a directory of
// knowledge files, with registry records in badger storage.
type Service struct {
	dir      string
	storage  interfaces.DocumentStorage
	logger   arbor.ILogger
	htmlConv *md.Converter
}

// NewService creates a new document provider for the given directory
func NewService(dir string, storage interfaces.DocumentStorage, logger arbor.ILogger) *Service {
	return &Service{
		dir:      dir,
		storage:  storage,
		logger:   logger,
		htmlConv: md.NewConverter("", true, nil),
	}
}

// LoadDocuments enumerates the document directory and returns extracted
// plain text with source metadata. Structured JSON files expand to one
// document per record. Unsupported formats are skipped with a warning.
func (s *Service) LoadDocuments(ctx context.Context) ([]models.SourceDocument, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Warn().Str("dir", s.dir).Msg("Document directory does not exist")
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read document directory: %w", err)
	}

	var docs []models.SourceDocument
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !supportedExtensions[ext] {
			s.logger.Warn().Str("file", entry.Name()).Msg("Skipping unsupported document format")
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		extracted, err := s.extract(path, ext)
		if err != nil {
			s.logger.Error().Err(err).Str("file", entry.Name()).Msg("Failed to extract document text")
			continue
		}
		docs = append(docs, extracted...)

		if err := s.syncRegistry(ctx, entry, path, ext); err != nil {
			s.logger.Warn().Err(err).Str("file", entry.Name()).Msg("Failed to update document registry")
		}
	}

	sort.Slice(docs, func(i, j int) bool {
		if docs[i].Source != docs[j].Source {
			return docs[i].Source < docs[j].Source
		}
		return docs[i].Name < docs[j].Name
	})

	s.logger.Info().Int("documents", len(docs)).Str("dir", s.dir).Msg("Document enumeration completed")
	return docs, nil
}

// extract dispatches to the per-format text extraction
func (s *Service) extract(path, ext string) ([]models.SourceDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	name := filepath.Base(path)
	source := strings.TrimSuffix(name, filepath.Ext(name))

	switch ext {
	case ".md":
		text := ExtractMarkdownText(string(data))
		if strings.TrimSpace(text) == "" {
			return nil, nil
		}
		return []models.SourceDocument{{Source: source, Name: name, Path: path, Text: text}}, nil

	case ".html":
		markdown, err := s.htmlConv.ConvertString(string(data))
		if err != nil {
			return nil, fmt.Errorf("failed to convert HTML: %w", err)
		}
		text := ExtractMarkdownText(markdown)
		if strings.TrimSpace(text) == "" {
			return nil, nil
		}
		return []models.SourceDocument{{Source: source, Name: name, Path: path, Text: text}}, nil

	case ".txt":
		text := strings.TrimSpace(string(data))
		if text == "" {
			return nil, nil
		}
		return []models.SourceDocument{{Source: source, Name: name, Path: path, Text: text}}, nil

	case ".json":
		return extractJSON(data, source, name, path)

	default:
		return nil, fmt.Errorf("unsupported extension: %s", ext)
	}
}

// extractJSON expands a JSON file into one document per record. A top-level
// object with a "records" array is unwrapped; a bare array is used directly;
// anything else becomes a single document.
func extractJSON(data []byte, source, name, path string) ([]models.SourceDocument, error) {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	if obj, ok := raw.(map[string]interface{}); ok {
		if records, ok := obj["records"].([]interface{}); ok {
			raw = records
		}
	}

	records, ok := raw.([]interface{})
	if !ok {
		return []models.SourceDocument{{
			Source: source,
			Name:   name,
			Path:   path,
			Text:   formatJSONValue(raw),
		}}, nil
	}

	docs := make([]models.SourceDocument, 0, len(records))
	for i, record := range records {
		text := formatJSONValue(record)
		if strings.TrimSpace(text) == "" {
			continue
		}
		docs = append(docs, models.SourceDocument{
			Source: source,
			Name:   fmt.Sprintf("%s - record %d", name, i+1),
			Path:   path,
			Text:   text,
		})
	}
	return docs, nil
}

// formatJSONValue renders a decoded JSON value as "key: value" text
func formatJSONValue(value interface{}) string {
	switch v := value.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var sb strings.Builder
		for _, k := range keys {
			part := formatJSONValue(v[k])
			if part == "" {
				continue
			}
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(fmt.Sprintf("%s: %s", k, part))
		}
		return sb.String()
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if part := formatJSONValue(item); part != "" {
				parts = append(parts, part)
			}
		}
		return strings.Join(parts, ", ")
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	case bool:
		return fmt.Sprintf("%t", v)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

// syncRegistry upserts the registry record for a file, preserving the
// admin-edited description of an existing record.
func (s *Service) syncRegistry(ctx context.Context, entry os.DirEntry, path, ext string) error {
	if s.storage == nil {
		return nil
	}

	info, err := entry.Info()
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	doc := &models.Document{
		Name:       entry.Name(),
		Path:       path,
		Extension:  ext,
		SizeBytes:  info.Size(),
		ModifiedAt: info.ModTime(),
	}

	existing, err := s.storage.GetByName(ctx, entry.Name())
	if err == nil {
		doc.ID = existing.ID
		doc.Description = existing.Description
	} else {
		doc.ID = common.NewDocumentID()
	}

	return s.storage.Upsert(ctx, doc)
}

// List returns the document registry records
func (s *Service) List(ctx context.Context) ([]*models.Document, error) {
	if s.storage == nil {
		return nil, fmt.Errorf("document storage is not configured")
	}
	return s.storage.List(ctx)
}

// SetDescription updates the admin-editable description of a document
func (s *Service) SetDescription(ctx context.Context, name, description string) error {
	if s.storage == nil {
		return fmt.Errorf("document storage is not configured")
	}

	doc, err := s.storage.GetByName(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to find document %s: %w", name, err)
	}

	doc.Description = description
	return s.storage.Upsert(ctx, doc)
}
