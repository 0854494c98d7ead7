package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"papergraph/application/ports"
	"papergraph/domain/services"
)

const (
	maxThemes          = 8
	summaryConcepts    = 3
	highThemeFrequency = 2
)

// synthesize builds structured insights locally and asks the insight
// provider for the narrative when one is configured.
func (e *Engine) synthesize(ctx context.Context, query string, results []ScoredPaper, meta *Metadata) Insights {
	insights := e.localInsights(query, results)
	if e.insights == nil || len(results) == 0 {
		return insights
	}

	top := results
	if len(top) > e.config.InsightPapers {
		top = top[:e.config.InsightPapers]
	}
	summaries := make([]ports.PaperSummary, len(top))
	for i, r := range top {
		concepts := r.Concepts
		if len(concepts) > summaryConcepts {
			concepts = concepts[:summaryConcepts]
		}
		summaries[i] = ports.PaperSummary{Title: r.Title, Domain: r.Domain, Concepts: concepts}
	}

	callCtx, cancel := context.WithTimeout(ctx, e.config.ProviderTimeout)
	defer cancel()

	started := time.Now()
	narrative, err := e.insights.Synthesize(callCtx, query, summaries)
	e.metrics.RecordProviderCall("insight", "synthesize", err, time.Since(started))

	if err != nil || strings.TrimSpace(narrative) == "" {
		if err == nil {
			err = fmt.Errorf("empty narrative")
		}
		e.logger.Warn("Insight synthesis failed, using local narrative", zap.Error(err))
		meta.Degraded = append(meta.Degraded, "insight synthesis unavailable: "+err.Error())
		return insights
	}

	insights.Narrative = strings.TrimSpace(narrative)
	insights.AIGenerated = true
	return insights
}

// localInsights derives themes, domain distribution and a templated narrative
func (e *Engine) localInsights(query string, results []ScoredPaper) Insights {
	conceptCounts := make(map[string]int)
	domainCounts := make(map[string]int)
	totalDegree := 0
	for _, r := range results {
		for _, c := range r.Concepts {
			conceptCounts[strings.ToLower(c)]++
		}
		domainCounts[r.Domain]++
		totalDegree += r.Degree
	}

	themes := make([]Theme, 0, maxThemes)
	for _, tc := range services.RankTerms(conceptCounts) {
		if len(themes) == maxThemes {
			break
		}
		relevance := "medium"
		if tc.Count > highThemeFrequency {
			relevance = "high"
		}
		themes = append(themes, Theme{Topic: tc.Term, Frequency: tc.Count, Relevance: relevance})
	}

	domains := make([]DomainCount, 0, len(domainCounts))
	for _, tc := range services.RankTerms(domainCounts) {
		domains = append(domains, DomainCount{Domain: tc.Term, Count: tc.Count})
	}

	insights := Insights{
		Themes:  themes,
		Domains: domains,
	}
	if len(results) == 0 {
		insights.Narrative = fmt.Sprintf("No papers matched %q.", query)
		return insights
	}

	insights.AverageDegree = float64(totalDegree) / float64(len(results))
	insights.Maturity = e.maturity(insights.AverageDegree)
	insights.Narrative = e.narrative(query, len(results), themes, domains, insights.AverageDegree, insights.Maturity)
	return insights
}

func (e *Engine) maturity(avgDegree float64) string {
	switch {
	case avgDegree > e.config.MatureDegreeThreshold:
		return "mature"
	case avgDegree < e.config.NicheDegreeThreshold:
		return "niche"
	default:
		return "developing"
	}
}

func (e *Engine) narrative(query string, count int, themes []Theme, domains []DomainCount, avgDegree float64, maturity string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d papers related to %q across %d research domains.", count, query, len(domains))

	if len(themes) > 0 {
		topics := make([]string, 0, 3)
		for _, t := range themes {
			if len(topics) == 3 {
				break
			}
			topics = append(topics, t.Topic)
		}
		fmt.Fprintf(&b, " Recurring themes: %s.", strings.Join(topics, ", "))
	}
	if len(domains) > 0 {
		fmt.Fprintf(&b, " Most results come from %s.", domains[0].Domain)
	}

	switch maturity {
	case "mature":
		fmt.Fprintf(&b, " This is a mature, densely connected area (%.1f connections per paper on average).", avgDegree)
	case "niche":
		fmt.Fprintf(&b, " This looks like a niche area with few cross-links (%.1f connections per paper on average).", avgDegree)
	default:
		fmt.Fprintf(&b, " This is a developing area with moderate cross-linking (%.1f connections per paper on average).", avgDegree)
	}
	return b.String()
}
