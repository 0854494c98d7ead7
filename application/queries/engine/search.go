package engine

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"papergraph/application/ports"
	"papergraph/domain/core/aggregates"
	"papergraph/domain/core/entities"
	"papergraph/domain/services"
)

const embeddingCacheNamespace = "embedding"

var errNoEmbeddingProvider = errors.New("no embedding provider configured")

// search runs semantic search when embeddings are available and falls back
// to keyword search on any embedding failure.
func (e *Engine) search(ctx context.Context, graph *aggregates.Graph, text string, opts QueryOptions, meta *Metadata) []ScoredPaper {
	limit := opts.MaxResults * 2
	nodes := graph.Nodes()

	if e.embeddings != nil {
		results, strong, err := e.semanticSearch(ctx, nodes, text, opts.SemanticThreshold)
		if err == nil {
			meta.SearchMode = SearchModeSemantic
			meta.StrongMatches = strong
			return truncate(results, limit)
		}
		e.logger.Warn("Semantic search failed, using keyword search", zap.Error(err))
		meta.Degraded = append(meta.Degraded, "semantic search unavailable: "+err.Error())
	}

	meta.SearchMode = SearchModeKeyword
	return truncate(e.keywordSearch(nodes, text), limit)
}

// semanticSearch scores every paper by cosine similarity to the query vector
// and keeps those above the semantic floor.
func (e *Engine) semanticSearch(ctx context.Context, nodes []entities.Node, text string, threshold float64) ([]ScoredPaper, int, error) {
	if e.embeddings == nil {
		return nil, 0, errNoEmbeddingProvider
	}

	queryVector, err := e.embed(ctx, text, false)
	if err != nil {
		return nil, 0, err
	}

	vectors := make([][]float32, len(nodes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.EmbeddingConcurrency)
	for i, node := range nodes {
		g.Go(func() error {
			v, err := e.embed(gctx, node.Paper().SearchText(), true)
			if err != nil {
				return err
			}
			vectors[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	results := make([]ScoredPaper, 0)
	strong := 0
	for i, node := range nodes {
		score := services.CosineVectors(queryVector, vectors[i])
		if score <= e.config.SemanticFloor {
			continue
		}
		if score >= threshold {
			strong++
		}
		results = append(results, ScoredPaper{Node: node, RelevanceScore: score, Source: SourceDirect})
	}

	sortByRelevance(results)
	return results, strong, nil
}

// embed returns a vector for text. Paper vectors go through the cache;
// query vectors are always fetched fresh.
func (e *Engine) embed(ctx context.Context, text string, cached bool) ([]float32, error) {
	key := ports.CacheKey(embeddingCacheNamespace, text)
	if cached {
		if v, ok := ports.GetJSON[[]float32](ctx, e.cache, key); ok {
			e.metrics.RecordCacheLookup(embeddingCacheNamespace, true)
			return v, nil
		}
		e.metrics.RecordCacheLookup(embeddingCacheNamespace, false)
	}

	callCtx, cancel := context.WithTimeout(ctx, e.config.ProviderTimeout)
	defer cancel()

	started := time.Now()
	v, err := e.embeddings.Embed(callCtx, text)
	e.metrics.RecordProviderCall("embedding", "embed", err, time.Since(started))
	if err != nil {
		return nil, err
	}
	if len(v) == 0 {
		return nil, errors.New("embedding provider returned an empty vector")
	}

	if cached {
		if err := ports.SetJSON(ctx, e.cache, key, v, 0); err != nil {
			e.logger.Warn("Failed to cache embedding", zap.Error(err))
		}
	}
	return v, nil
}

// keywordSearch scores 2 per matched term, plus 1 when anything matched,
// plus 3 when a term appears in a concept.
func (e *Engine) keywordSearch(nodes []entities.Node, text string) []ScoredPaper {
	terms := e.analyzer.Terms(text)
	results := make([]ScoredPaper, 0)
	if len(terms) == 0 {
		return results
	}

	for _, node := range nodes {
		score := KeywordScore(terms, node)
		if score <= 0 {
			continue
		}
		results = append(results, ScoredPaper{Node: node, RelevanceScore: score, Source: SourceDirect})
	}

	sortByRelevance(results)
	return results
}

// KeywordScore scores one paper against lower-cased query terms
func KeywordScore(terms []string, node entities.Node) float64 {
	haystack := strings.ToLower(node.Paper().SearchText())

	matches := 0
	conceptHit := false
	for _, term := range terms {
		if strings.Contains(haystack, term) {
			matches++
		}
		if !conceptHit {
			for _, c := range node.Concepts {
				if strings.Contains(strings.ToLower(c), term) {
					conceptHit = true
					break
				}
			}
		}
	}

	score := float64(2 * matches)
	if matches > 0 {
		score++
	}
	if conceptHit {
		score += 3
	}
	return score
}

func truncate(results []ScoredPaper, limit int) []ScoredPaper {
	if limit > 0 && len(results) > limit {
		return results[:limit]
	}
	return results
}
