package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papergraph/application/ports"
	"papergraph/domain/core/entities"
	"papergraph/domain/core/valueobjects"
	domainservices "papergraph/domain/services"
	"papergraph/infrastructure/cache"
)

// fakeConceptProvider answers every title with "<title> concept" unless the
// call number is listed in failOn.
type fakeConceptProvider struct {
	mu     sync.Mutex
	calls  int
	titles [][]string
	failOn map[int]bool
	short  bool
	blank  map[string]bool
}

func (f *fakeConceptProvider) Name() string { return "fake" }

func (f *fakeConceptProvider) AnalyzeBatch(_ context.Context, titles []string) ([]valueobjects.ConceptAnalysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.titles = append(f.titles, titles)
	if f.failOn[f.calls] {
		return nil, errors.New("provider unavailable")
	}

	results := make([]valueobjects.ConceptAnalysis, 0, len(titles))
	for _, title := range titles {
		concepts := []string{title + " concept"}
		if f.blank[title] {
			concepts = nil
		}
		results = append(results, valueobjects.NewConceptAnalysis(concepts, "Space Biology", "experimental", valueobjects.SourceProvider))
	}
	if f.short {
		return results[:len(results)-1], nil
	}
	return results, nil
}

func rawPapers(t *testing.T, n int) []entities.Paper {
	t.Helper()
	papers := make([]entities.Paper, n)
	for i := range papers {
		p, err := entities.NewPaper(fmt.Sprintf("p%d", i+1), fmt.Sprintf("Microgravity study number %d", i+1), "", nil, "", "")
		require.NoError(t, err)
		papers[i] = p
	}
	return papers
}

func newTestAnalysisService(t *testing.T, provider *fakeConceptProvider) *AnalysisService {
	t.Helper()
	c := cache.NewInMemoryCache()
	t.Cleanup(func() { _ = c.Close() })

	var p ports.ConceptProvider
	if provider != nil {
		p = provider
	}
	return NewAnalysisService(p, domainservices.NewHeuristicExtractor(nil), c,
		AnalysisConfig{BatchSize: 5}, nil, nil)
}

func TestAnalyzePapersWithProvider(t *testing.T) {
	provider := &fakeConceptProvider{}
	svc := newTestAnalysisService(t, provider)
	papers := rawPapers(t, 7)

	analysed, report, err := svc.AnalyzePapers(context.Background(), papers)
	require.NoError(t, err)

	require.Len(t, analysed, 7)
	for i, p := range analysed {
		assert.Equal(t, papers[i].ID, p.ID)
		assert.Equal(t, []string{papers[i].Title + " concept"}, p.Concepts)
		assert.Equal(t, "Space Biology", p.Domain)
	}

	assert.Equal(t, 2, provider.calls)
	assert.Len(t, provider.titles[0], 5)
	assert.Len(t, provider.titles[1], 2)
	assert.Equal(t, AnalysisReport{Papers: 7, ProviderBatches: 2}, report)

	// second run is served from the cache
	_, report, err = svc.AnalyzePapers(context.Background(), papers)
	require.NoError(t, err)
	assert.Equal(t, 7, report.CacheHits)
	assert.Equal(t, 2, provider.calls)

	require.NoError(t, svc.Reset(context.Background()))
	_, _, err = svc.AnalyzePapers(context.Background(), papers)
	require.NoError(t, err)
	assert.Equal(t, 4, provider.calls)
}

func TestAnalyzePapersBatchFallback(t *testing.T) {
	tests := []struct {
		name            string
		provider        *fakeConceptProvider
		wantProvider    int
		wantFallback    int
		wantHeuristic   int
		wantDegraded    bool
		heuristicPapers []int
	}{
		{
			name:            "second batch fails",
			provider:        &fakeConceptProvider{failOn: map[int]bool{2: true}},
			wantProvider:    1,
			wantFallback:    1,
			wantHeuristic:   2,
			wantDegraded:    true,
			heuristicPapers: []int{5, 6},
		},
		{
			name:            "response length mismatch",
			provider:        &fakeConceptProvider{short: true},
			wantProvider:    0,
			wantFallback:    2,
			wantHeuristic:   7,
			wantDegraded:    true,
			heuristicPapers: []int{0, 1, 2, 3, 4, 5, 6},
		},
		{
			name:          "heuristic only",
			provider:      nil,
			wantFallback:  2,
			wantHeuristic: 7,
			wantDegraded:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestAnalysisService(t, tt.provider)

			analysed, report, err := svc.AnalyzePapers(context.Background(), rawPapers(t, 7))
			require.NoError(t, err)
			require.Len(t, analysed, 7)

			assert.Equal(t, tt.wantProvider, report.ProviderBatches)
			assert.Equal(t, tt.wantFallback, report.FallbackBatches)
			assert.Equal(t, tt.wantHeuristic, report.HeuristicPapers)
			assert.Equal(t, tt.wantDegraded, report.Degraded)

			for _, i := range tt.heuristicPapers {
				assert.Equal(t, entities.UnknownDomain, analysed[i].Domain)
				assert.Contains(t, analysed[i].Concepts, "microgravity")
			}
		})
	}
}

func TestAnalyzePapersFillsBlankConcepts(t *testing.T) {
	papers := rawPapers(t, 2)
	provider := &fakeConceptProvider{blank: map[string]bool{papers[1].Title: true}}
	svc := newTestAnalysisService(t, provider)

	analysed, report, err := svc.AnalyzePapers(context.Background(), papers)
	require.NoError(t, err)

	assert.Equal(t, 1, report.HeuristicPapers)
	assert.Equal(t, 1, report.ProviderBatches)
	assert.Contains(t, analysed[1].Concepts, "microgravity")
	// provider domain survives the concept fill
	assert.Equal(t, "Space Biology", analysed[1].Domain)
}

func TestAnalyzePapersKeepsPreanalysed(t *testing.T) {
	provider := &fakeConceptProvider{}
	svc := newTestAnalysisService(t, provider)

	done, err := entities.NewPaper("done", "Bone loss in orbit", "", []string{"bone"}, "Bone Research", "")
	require.NoError(t, err)
	papers := append([]entities.Paper{done}, rawPapers(t, 1)...)

	analysed, report, err := svc.AnalyzePapers(context.Background(), papers)
	require.NoError(t, err)

	assert.Equal(t, done, analysed[0])
	assert.Equal(t, 1, report.Preanalyzed)
	require.Len(t, provider.titles, 1)
	assert.Equal(t, []string{papers[1].Title}, provider.titles[0])
}

func TestAnalyzePapersCancelled(t *testing.T) {
	svc := newTestAnalysisService(t, &fakeConceptProvider{failOn: map[int]bool{1: true}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := svc.AnalyzePapers(ctx, rawPapers(t, 3))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
