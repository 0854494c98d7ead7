package entities

import (
	"strings"

	pkgerrors "papergraph/pkg/errors"
)

// UnknownDomain is assigned when no domain could be derived for a paper
const UnknownDomain = "Unknown"

// MaxConceptsPerPaper bounds the concept list of a single paper
const MaxConceptsPerPaper = 7

// Paper is an analysed research paper record.
// Papers are value-like: once analysed they are never mutated, derived
// graph metrics live on Node instead.
type Paper struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Link        string   `json:"link,omitempty" yaml:"link,omitempty"`
	Concepts    []string `json:"concepts" yaml:"concepts"`
	Domain      string   `json:"domain" yaml:"domain"`
	Methodology string   `json:"methodology,omitempty" yaml:"methodology,omitempty"`
}

// NewPaper creates an analysed paper with normalised concepts and domain
func NewPaper(id, title, link string, concepts []string, domain, methodology string) (Paper, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Paper{}, pkgerrors.NewValidationError("paper id cannot be empty")
	}

	return Paper{
		ID:          id,
		Title:       strings.TrimSpace(title),
		Link:        strings.TrimSpace(link),
		Concepts:    NormalizeConcepts(concepts),
		Domain:      NormalizeDomain(domain),
		Methodology: strings.TrimSpace(methodology),
	}, nil
}

// WithAnalysis returns a copy of the paper carrying the given analysis
func (p Paper) WithAnalysis(concepts []string, domain, methodology string) Paper {
	p.Concepts = NormalizeConcepts(concepts)
	p.Domain = NormalizeDomain(domain)
	p.Methodology = strings.TrimSpace(methodology)
	return p
}

// IsAnalyzed reports whether concepts or a known domain are present
func (p Paper) IsAnalyzed() bool {
	return len(p.Concepts) > 0 || (p.Domain != "" && p.Domain != UnknownDomain)
}

// ConceptSet returns the lower-cased concept set
func (p Paper) ConceptSet() map[string]bool {
	set := make(map[string]bool, len(p.Concepts))
	for _, c := range p.Concepts {
		set[strings.ToLower(c)] = true
	}
	return set
}

// SearchText is the text used for embeddings and keyword matching
func (p Paper) SearchText() string {
	parts := make([]string, 0, 3)
	parts = append(parts, p.Title)
	if len(p.Concepts) > 0 {
		parts = append(parts, strings.Join(p.Concepts, " "))
	}
	if p.Domain != "" {
		parts = append(parts, p.Domain)
	}
	return strings.Join(parts, " ")
}

// NormalizeConcepts trims, drops empties, dedupes case-insensitively and
// caps the list at MaxConceptsPerPaper while keeping the original order.
func NormalizeConcepts(concepts []string) []string {
	seen := make(map[string]bool, len(concepts))
	out := make([]string, 0, len(concepts))
	for _, c := range concepts {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		key := strings.ToLower(c)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
		if len(out) == MaxConceptsPerPaper {
			break
		}
	}
	return out
}

// NormalizeDomain defaults an empty domain label to UnknownDomain
func NormalizeDomain(domain string) string {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return UnknownDomain
	}
	return domain
}
