package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"papergraph/application/ports"
	"papergraph/domain/core/entities"
	pkgerrors "papergraph/pkg/errors"
)

// record is one paper as written in a source file. Concepts, domain and
// methodology are optional; papers without them go through concept extraction.
type record struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Link        string   `json:"link" yaml:"link"`
	Concepts    []string `json:"concepts" yaml:"concepts"`
	Domain      string   `json:"domain" yaml:"domain"`
	Methodology string   `json:"methodology" yaml:"methodology"`
}

// document is the wrapped form {"papers": [...]}
type document struct {
	Papers []record `json:"papers" yaml:"papers"`
}

// FileSource loads papers from a JSON or YAML file.
// The file holds either a list of papers or an object with a "papers" list.
type FileSource struct {
	path   string
	logger *zap.Logger
}

var _ ports.PaperSource = (*FileSource)(nil)

// NewFileSource creates a new file source
func NewFileSource(path string, logger *zap.Logger) *FileSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSource{path: path, logger: logger}
}

// Describe names the source for logs
func (s *FileSource) Describe() string {
	return s.path
}

// Path returns the watched file path
func (s *FileSource) Path() string {
	return s.path
}

// Load reads and parses the file
func (s *FileSource) Load(ctx context.Context) ([]entities.Paper, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, pkgerrors.NewNotFoundError("paper file " + s.path)
		}
		return nil, fmt.Errorf("failed to read paper file: %w", err)
	}

	records, err := decode(data, filepath.Ext(s.path))
	if err != nil {
		return nil, pkgerrors.NewValidationError(fmt.Sprintf("invalid paper file %s: %v", s.path, err))
	}

	papers, skipped := toPapers(records)
	if skipped > 0 {
		s.logger.Warn("Skipped paper records without a title",
			zap.String("path", s.path),
			zap.Int("skipped", skipped),
		)
	}
	s.logger.Info("Loaded papers", zap.String("path", s.path), zap.Int("papers", len(papers)))
	return papers, nil
}

// ParsePapers decodes papers from raw bytes; format is "json" or "yaml"
func ParsePapers(data []byte, format string) ([]entities.Paper, error) {
	records, err := decode(data, "."+format)
	if err != nil {
		return nil, pkgerrors.NewValidationError(fmt.Sprintf("invalid paper list: %v", err))
	}
	papers, _ := toPapers(records)
	return papers, nil
}

func decode(data []byte, ext string) ([]record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []record{}, nil
	}

	switch strings.ToLower(ext) {
	case ".json":
		if trimmed[0] == '[' {
			var records []record
			if err := json.Unmarshal(trimmed, &records); err != nil {
				return nil, err
			}
			return records, nil
		}
		var doc document
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, err
		}
		return doc.Papers, nil

	case ".yaml", ".yml":
		var node yaml.Node
		if err := yaml.Unmarshal(trimmed, &node); err != nil {
			return nil, err
		}
		if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
			var records []record
			if err := node.Decode(&records); err != nil {
				return nil, err
			}
			return records, nil
		}
		var doc document
		if err := node.Decode(&doc); err != nil {
			return nil, err
		}
		return doc.Papers, nil

	default:
		return nil, fmt.Errorf("unsupported file extension %q", ext)
	}
}

// toPapers converts records in order. Missing ids become "paper-<n>" with n
// the 1-based record position; records without a title are skipped.
func toPapers(records []record) ([]entities.Paper, int) {
	papers := make([]entities.Paper, 0, len(records))
	skipped := 0
	for i, r := range records {
		if strings.TrimSpace(r.Title) == "" {
			skipped++
			continue
		}
		id := r.ID
		if strings.TrimSpace(id) == "" {
			id = fmt.Sprintf("paper-%d", i+1)
		}
		p, err := entities.NewPaper(id, r.Title, r.Link, r.Concepts, r.Domain, r.Methodology)
		if err != nil {
			skipped++
			continue
		}
		papers = append(papers, p)
	}
	return papers, skipped
}
