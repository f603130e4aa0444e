// Package synthesis turns ranked search content into structured study
// documents using a generative text model.
package synthesis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/jonesrussell/studysearch/internal/domain"
	"github.com/jonesrussell/studysearch/internal/httpx"
	"github.com/jonesrussell/studysearch/internal/logger"
)

// Completer is the generative text capability the synthesizer depends on.
// It takes a composed prompt and returns the model's free-text response.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config configures the Claude-backed completer.
type Config struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// ClaudeCompleter is a Completer backed by the Anthropic Messages API.
type ClaudeCompleter struct {
	client      anthropic.Client
	model       anthropic.Model
	maxTokens   int64
	temperature float64
}

// NewClaudeCompleter creates a Completer using the given model parameters.
func NewClaudeCompleter(cfg Config) *ClaudeCompleter {
	client := anthropic.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpx.NewClient(&httpx.ClientConfig{Timeout: cfg.Timeout})),
	)
	return &ClaudeCompleter{
		client:      client,
		model:       anthropic.Model(cfg.Model),
		maxTokens:   int64(cfg.MaxTokens),
		temperature: cfg.Temperature,
	}
}

// Complete sends the prompt to the model and returns its text response.
func (c *ClaudeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: anthropic.Float(c.temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrSynthesisFailed, err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("%w: empty model response", domain.ErrSynthesisFailed)
	}
	return sb.String(), nil
}

// Synthesizer composes prompts, invokes the model once per request, and
// extracts the structured document from its response.
type Synthesizer struct {
	completer Completer
	timeout   time.Duration
	logger    logger.Logger
}

// NewSynthesizer creates a Synthesizer on top of a Completer. The timeout
// bounds each model invocation.
func NewSynthesizer(completer Completer, timeout time.Duration, log logger.Logger) *Synthesizer {
	return &Synthesizer{
		completer: completer,
		timeout:   timeout,
		logger:    log,
	}
}

// CurateResources synthesizes a curated resource set from ranked results.
func (s *Synthesizer) CurateResources(ctx context.Context, subject string, sources []domain.SearchResult) (*domain.CuratedResourceSet, error) {
	prompt := buildCurationPrompt(subject, sources)
	raw, err := s.invoke(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var out struct {
		Resources []domain.CuratedResource `json:"resources"`
	}
	if err := DecodeJSON(raw, &out); err != nil {
		return nil, err
	}

	return &domain.CuratedResourceSet{
		Subject:     subject,
		Resources:   out.Resources,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// StudyPlan synthesizes a study plan from curriculum and study-tips content.
func (s *Synthesizer) StudyPlan(ctx context.Context, subject, examDate string, days int, curriculum, tips []domain.SearchResult) (*domain.StudyPlan, error) {
	prompt := buildPlanPrompt(subject, examDate, days, curriculum, tips)
	raw, err := s.invoke(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var plan domain.StudyPlan
	if err := DecodeJSON(raw, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// invoke runs a single bounded model call. There is no retry here: failures
// propagate and the caller decides on retry policy.
func (s *Synthesizer) invoke(ctx context.Context, prompt string) (string, error) {
	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := s.completer.Complete(callCtx, prompt)
	if err != nil {
		s.logger.Error("Synthesis invocation failed",
			logger.Error(err),
			logger.Duration("duration", time.Since(start)),
		)
		return "", err
	}

	s.logger.Debug("Synthesis completed",
		logger.Int("prompt_chars", len(prompt)),
		logger.Int("response_chars", len(raw)),
		logger.Duration("duration", time.Since(start)),
	)
	return raw, nil
}
