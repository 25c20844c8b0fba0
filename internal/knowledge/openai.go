package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/sync/singleflight"

	domerrors "github.com/nauhq/nau-assist-go/internal/errors"
	"github.com/nauhq/nau-assist-go/internal/logger"
	"github.com/nauhq/nau-assist-go/internal/metrics"
)

// OpenAIService answers no-match queries via OpenAI chat completions.
// Attempts are layered: the web-search model with full options, the same
// model with minimal options, then a plain model primed with the embedded
// campus knowledge base. Identical concurrent queries are collapsed by
// singleflight so a burst of the same question costs one API call.
type OpenAIService struct {
	client        openai.Client
	searchModel   string
	fallbackModel string
	retry         RetryConfig
	group         singleflight.Group
	metrics       *metrics.Metrics
	logger        *logger.Logger
}

var _ Service = (*OpenAIService)(nil)

// NewOpenAIService creates the OpenAI-backed fallback service.
// Returns nil if apiKey is empty (fallback disabled, degraded answers only).
func NewOpenAIService(apiKey, searchModel, fallbackModel string, m *metrics.Metrics, log *logger.Logger) (*OpenAIService, error) {
	if apiKey == "" {
		return nil, nil //nolint:nilnil // Intentional: fallback disabled when no API key
	}
	if searchModel == "" || fallbackModel == "" {
		return nil, errors.New("search and fallback models are required")
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
	)

	return &OpenAIService{
		client:        client,
		searchModel:   searchModel,
		fallbackModel: fallbackModel,
		retry:         DefaultRetryConfig(),
		metrics:       m,
		logger:        log.WithModule("knowledge"),
	}, nil
}

// IsEnabled returns true if the service is configured.
func (s *OpenAIService) IsEnabled() bool {
	return s != nil
}

// Close releases resources held by the service.
func (s *OpenAIService) Close() error {
	return nil
}

// Answer generates an answer for a query that matched no catalog entry.
func (s *OpenAIService) Answer(ctx context.Context, query string) (*Result, error) {
	if s == nil {
		return nil, domerrors.ErrFallbackUnavailable
	}

	v, err, shared := s.group.Do(query, func() (any, error) {
		return s.answer(ctx, query)
	})
	if shared {
		s.metrics.RecordFallbackDedup()
	}
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

// answer walks the attempt chain. Each layer recovers from the previous
// one's failure; only when all three fail does the caller see an error.
func (s *OpenAIService) answer(ctx context.Context, query string) (*Result, error) {
	var result *Result
	err := WithRetry(ctx, s.retry, func() error {
		r, searchErr := s.webSearch(ctx, query, true)
		if searchErr != nil {
			return searchErr
		}
		result = r
		return nil
	})
	if err == nil {
		return result, nil
	}
	s.logger.WithError(err).Warn("Web search attempt failed, trying minimal options")

	r, minErr := s.webSearch(ctx, query, false)
	if minErr == nil {
		return r, nil
	}
	s.logger.WithError(minErr).Warn("Minimal web search attempt failed, trying knowledge base")

	r, kbErr := s.knowledgeBaseAnswer(ctx, query)
	if kbErr != nil {
		s.logger.WithError(kbErr).Error("All fallback attempts failed")
		return nil, domerrors.NewFallbackError(s.fallbackModel, kbErr)
	}
	return r, nil
}

// webSearch queries the web-search capable model. With full options the
// search is biased towards the campus location; minimal options drop the
// bias and switch to the recovery prompt.
func (s *OpenAIService) webSearch(ctx context.Context, query string, fullOptions bool) (*Result, error) {
	params := openai.ChatCompletionNewParams{
		Model: s.searchModel,
	}

	if fullOptions {
		params.WebSearchOptions = openai.ChatCompletionNewParamsWebSearchOptions{
			SearchContextSize: "medium",
			UserLocation: openai.ChatCompletionNewParamsWebSearchOptionsUserLocation{
				Approximate: openai.ChatCompletionNewParamsWebSearchOptionsUserLocationApproximate{
					Country: openai.String("US"),
					City:    openai.String("Stafford"),
					Region:  openai.String("Texas"),
				},
			},
		}
		params.Messages = []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(webSearchSystemPrompt),
			openai.UserMessage(fmt.Sprintf("Question about North American University: %s", query)),
		}
	} else {
		params.WebSearchOptions = openai.ChatCompletionNewParamsWebSearchOptions{}
		params.Messages = []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(recoverySystemPrompt),
			openai.UserMessage(fmt.Sprintf("Please find information about North American University regarding this question: %s", query)),
		}
		params.Temperature = openai.Float(0)
	}

	start := time.Now()
	resp, err := s.client.Chat.Completions.New(ctx, params)
	duration := time.Since(start)

	if err != nil {
		s.metrics.RecordFallback(s.searchModel, "error", duration.Seconds())
		return nil, fmt.Errorf("web search completion failed: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		s.metrics.RecordFallback(s.searchModel, "error", duration.Seconds())
		return nil, errors.New("empty response from web search model")
	}

	s.metrics.RecordFallback(s.searchModel, "success", duration.Seconds())

	result := &Result{
		Answer:  resp.Choices[0].Message.Content,
		Sources: extractSources(&resp.Choices[0].Message),
	}
	s.logger.WithFields(map[string]any{
		"model":       s.searchModel,
		"sources":     len(result.Sources),
		"duration_ms": duration.Milliseconds(),
	}).Info("Web search response received")
	return result, nil
}

// knowledgeBaseAnswer is the last resort: a plain model grounded on the
// embedded campus snippets.
func (s *OpenAIService) knowledgeBaseAnswer(ctx context.Context, query string) (*Result, error) {
	contextJSON, err := json.Marshal(baseSnippets)
	if err != nil {
		return nil, fmt.Errorf("failed to encode knowledge base: %w", err)
	}

	params := openai.ChatCompletionNewParams{
		Model: s.fallbackModel,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(recoverySystemPrompt),
			openai.UserMessage(fmt.Sprintf("Context about North American University: %s\n\nUser Question: %s", contextJSON, query)),
		},
		Temperature: openai.Float(0),
	}

	start := time.Now()
	resp, err := s.client.Chat.Completions.New(ctx, params)
	duration := time.Since(start)

	if err != nil {
		s.metrics.RecordFallback(s.fallbackModel, "error", duration.Seconds())
		return nil, fmt.Errorf("knowledge base completion failed: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		s.metrics.RecordFallback(s.fallbackModel, "error", duration.Seconds())
		return nil, errors.New("empty response from fallback model")
	}

	s.metrics.RecordFallback(s.fallbackModel, "success", duration.Seconds())
	return &Result{
		Answer:  resp.Choices[0].Message.Content,
		Sources: []string{"https://www.na.edu"},
	}, nil
}

// extractSources collects url_citation annotation URLs from the message.
// Falls back to the site root when the model cited nothing.
func extractSources(msg *openai.ChatCompletionMessage) []string {
	var sources []string
	for _, annotation := range msg.Annotations {
		if annotation.Type == "url_citation" && annotation.URLCitation.URL != "" {
			sources = append(sources, annotation.URLCitation.URL)
		}
	}
	if len(sources) == 0 {
		sources = []string{"https://www.na.edu"}
	}
	return sources
}
