package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"papergraph/application/ports"
	"papergraph/domain/core/valueobjects"
	pkgerrors "papergraph/pkg/errors"
)

const providerName = "openai"

// Config holds the OpenAI-compatible endpoint settings
type Config struct {
	APIKey              string        `yaml:"api_key"`
	BaseURL             string        `yaml:"base_url"`
	ChatModel           string        `yaml:"chat_model" validate:"required"`
	EmbeddingModel      string        `yaml:"embedding_model" validate:"required"`
	EmbeddingDimensions int           `yaml:"embedding_dimensions" validate:"gte=0"`
	Breaker             BreakerConfig `yaml:"breaker"`
}

// DefaultConfig returns settings for the public OpenAI API
func DefaultConfig() Config {
	return Config{
		ChatModel:      openai.GPT4oMini,
		EmbeddingModel: string(openai.SmallEmbedding3),
		Breaker:        DefaultBreakerConfig(),
	}
}

// OpenAIProvider serves concept extraction, embeddings and insight synthesis
// from one OpenAI-compatible endpoint. Each capability has its own breaker so
// a failing embedding endpoint does not block concept extraction.
type OpenAIProvider struct {
	client   *openai.Client
	config   Config
	concepts *gobreaker.CircuitBreaker
	embed    *gobreaker.CircuitBreaker
	insight  *gobreaker.CircuitBreaker
	logger   *zap.Logger
}

var (
	_ ports.ConceptProvider   = (*OpenAIProvider)(nil)
	_ ports.EmbeddingProvider = (*OpenAIProvider)(nil)
	_ ports.InsightProvider   = (*OpenAIProvider)(nil)
)

// NewOpenAIProvider creates a provider. An empty API key is rejected so the
// caller can select the heuristic path instead.
func NewOpenAIProvider(config Config, logger *zap.Logger) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, pkgerrors.NewProviderUnavailableError(providerName)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIProvider{
		client:   openai.NewClientWithConfig(clientConfig),
		config:   config,
		concepts: newBreaker("openai-concepts", config.Breaker, logger),
		embed:    newBreaker("openai-embeddings", config.Breaker, logger),
		insight:  newBreaker("openai-insights", config.Breaker, logger),
		logger:   logger,
	}, nil
}

// Name identifies the provider in logs and metrics
func (p *OpenAIProvider) Name() string {
	return providerName
}

const conceptSystemPrompt = `You analyse research paper titles.
For every numbered title return an object with:
  "concepts": 3 to 7 short lower-case scientific concepts,
  "domain": the research domain in Title Case,
  "methodology": one of experimental, observational, computational, review, theoretical.
Respond with JSON only: {"papers": [ ... ]} with exactly one object per title, in order.`

type conceptResponse struct {
	Papers []struct {
		Concepts    []string `json:"concepts"`
		Domain      string   `json:"domain"`
		Methodology string   `json:"methodology"`
	} `json:"papers"`
}

// AnalyzeBatch extracts concepts for every title in one chat completion
func (p *OpenAIProvider) AnalyzeBatch(ctx context.Context, titles []string) ([]valueobjects.ConceptAnalysis, error) {
	if len(titles) == 0 {
		return []valueobjects.ConceptAnalysis{}, nil
	}

	var prompt strings.Builder
	for i, title := range titles {
		fmt.Fprintf(&prompt, "%d. %s\n", i+1, title)
	}

	content, err := p.chat(ctx, p.concepts, openai.ChatCompletionRequest{
		Model:       p.config.ChatModel,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: conceptSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt.String()},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, err
	}

	var parsed conceptResponse
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &parsed); err != nil {
		return nil, pkgerrors.NewResponseParseFailedError(providerName, err)
	}
	if len(parsed.Papers) != len(titles) {
		return nil, pkgerrors.NewResponseParseFailedError(providerName,
			fmt.Errorf("expected %d papers, got %d", len(titles), len(parsed.Papers)))
	}

	results := make([]valueobjects.ConceptAnalysis, len(parsed.Papers))
	for i, paper := range parsed.Papers {
		results[i] = valueobjects.NewConceptAnalysis(paper.Concepts, paper.Domain, paper.Methodology, valueobjects.SourceProvider)
	}
	return results, nil
}

// Embed returns the embedding vector for text
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := p.embed.Execute(func() (interface{}, error) {
		return p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input:      []string{text},
			Model:      openai.EmbeddingModel(p.config.EmbeddingModel),
			Dimensions: p.config.EmbeddingDimensions,
		})
	})
	if err != nil {
		return nil, p.classify("embed", err)
	}

	resp := out.(openai.EmbeddingResponse)
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, pkgerrors.NewResponseParseFailedError(providerName, errors.New("empty embedding response"))
	}
	return resp.Data[0].Embedding, nil
}

const insightSystemPrompt = `You are a research analyst. Given a research question and the most relevant papers,
write a short narrative (at most 150 words) describing the main themes, how the papers relate,
and where the gaps are. Plain prose, no lists, no headings.`

// Synthesize writes a narrative over the top papers of a query
func (p *OpenAIProvider) Synthesize(ctx context.Context, query string, papers []ports.PaperSummary) (string, error) {
	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Research question: %s\n\nPapers:\n", query)
	for i, paper := range papers {
		fmt.Fprintf(&prompt, "%d. %s [%s] concepts: %s\n", i+1, paper.Title, paper.Domain, strings.Join(paper.Concepts, ", "))
	}

	content, err := p.chat(ctx, p.insight, openai.ChatCompletionRequest{
		Model:       p.config.ChatModel,
		Temperature: 0.3,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: insightSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt.String()},
		},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

// chat runs one chat completion through a breaker and returns the first choice
func (p *OpenAIProvider) chat(ctx context.Context, cb *gobreaker.CircuitBreaker, req openai.ChatCompletionRequest) (string, error) {
	out, err := cb.Execute(func() (interface{}, error) {
		return p.client.CreateChatCompletion(ctx, req)
	})
	if err != nil {
		return "", p.classify(cb.Name(), err)
	}

	resp := out.(openai.ChatCompletionResponse)
	if len(resp.Choices) == 0 {
		return "", pkgerrors.NewResponseParseFailedError(providerName, errors.New("empty response"))
	}

	p.logger.Debug("Provider chat completion finished",
		zap.String("breaker", cb.Name()),
		zap.Int("tokens", resp.Usage.TotalTokens),
	)
	return resp.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) classify(operation string, err error) error {
	if isBreakerRejection(err) {
		return pkgerrors.NewProviderUnavailableError(providerName).WithCause(err)
	}
	p.logger.Warn("Provider call failed", zap.String("operation", operation), zap.Error(err))
	return pkgerrors.NewProviderCallFailedError(providerName, err)
}

// stripCodeFence removes a surrounding ``` fence some models add to JSON
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
