package services

import (
	"context"
	"regexp"
	"strings"

	"papergraph/domain/core/entities"
	"papergraph/domain/core/valueobjects"
)

// scientificTermPattern matches words with typical scientific suffixes
var scientificTermPattern = regexp.MustCompile(
	`(?i)\b[a-z]{3,}(?:ology|ologies|osis|itis|genesis|gravity|ase|ases|cyte|cytes|some|somes|omics|ics|ium|ism|ity|plasm|trophy|tion|tions)\b`,
)

// acronymPattern matches upper-case acronyms such as DNA or ISS
var acronymPattern = regexp.MustCompile(`\b[A-Z][A-Z0-9]{1,5}\b`)

// knownBigrams are multi-word concepts recognised verbatim in titles
var knownBigrams = []string{
	"bone density", "bone loss", "muscle atrophy", "gene expression",
	"immune system", "immune response", "plant growth", "space radiation",
	"space flight", "spaceflight environment", "stem cells", "stem cell",
	"oxidative stress", "circadian rhythm", "cell cycle", "cell culture",
	"radiation exposure", "simulated microgravity", "cardiovascular system",
	"central nervous", "machine learning", "neural network", "climate change",
	"protein synthesis", "signal transduction", "root growth",
}

// HeuristicExtractor derives concepts from a title without any provider.
// It is deterministic: the same title always yields the same analysis.
type HeuristicExtractor struct {
	textAnalyzer TextAnalyzer
	minConcepts  int
}

// NewHeuristicExtractor creates a new heuristic concept extractor
func NewHeuristicExtractor(textAnalyzer TextAnalyzer) *HeuristicExtractor {
	if textAnalyzer == nil {
		textAnalyzer = NewDefaultTextAnalyzer()
	}
	return &HeuristicExtractor{
		textAnalyzer: textAnalyzer,
		minConcepts:  3,
	}
}

// Extract builds concepts from known bigrams, scientific terms and acronyms,
// topped up with remaining significant words. The domain is always Unknown.
func (h *HeuristicExtractor) Extract(title string) valueobjects.ConceptAnalysis {
	concepts := make([]string, 0, entities.MaxConceptsPerPaper)
	seen := make(map[string]bool)
	add := func(term string) {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" || seen[term] || h.textAnalyzer.IsStopWord(term) {
			return
		}
		seen[term] = true
		concepts = append(concepts, term)
	}

	lower := strings.ToLower(title)
	for _, bigram := range knownBigrams {
		if strings.Contains(lower, bigram) {
			add(bigram)
		}
	}
	for _, term := range scientificTermPattern.FindAllString(title, -1) {
		add(term)
	}
	for _, acronym := range acronymPattern.FindAllString(title, -1) {
		add(acronym)
	}

	// Top up with the remaining significant words in title order
	if len(concepts) < h.minConcepts {
		for _, token := range h.textAnalyzer.Tokenize(title) {
			if len(token) > 3 && !coveredByConcept(token, concepts) {
				add(token)
			}
			if len(concepts) >= h.minConcepts {
				break
			}
		}
	}

	return valueobjects.NewConceptAnalysis(concepts, entities.UnknownDomain, "", valueobjects.SourceHeuristic)
}

// AnalyzeBatch analyses each title locally. It never fails.
func (h *HeuristicExtractor) AnalyzeBatch(_ context.Context, titles []string) ([]valueobjects.ConceptAnalysis, error) {
	results := make([]valueobjects.ConceptAnalysis, len(titles))
	for i, title := range titles {
		results[i] = h.Extract(title)
	}
	return results, nil
}

// Name identifies the extractor in logs and metrics
func (h *HeuristicExtractor) Name() string {
	return "heuristic"
}

// coveredByConcept reports whether token is already part of a multi-word concept
func coveredByConcept(token string, concepts []string) bool {
	for _, c := range concepts {
		for _, word := range strings.Fields(c) {
			if word == token {
				return true
			}
		}
	}
	return false
}
