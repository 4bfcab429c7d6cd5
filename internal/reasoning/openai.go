package reasoning

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/sentinelops/triage/internal/config"
	"github.com/sentinelops/triage/internal/domain/alert"
	"github.com/sentinelops/triage/internal/pkg/errors"
	"github.com/sentinelops/triage/internal/pkg/logger"
)

// OpenAIInvestigator asks a chat model for a risk narrative on an alert.
// Every call is bounded by the configured timeout; a timeout or malformed
// answer surfaces as ReasoningUnavailable and degrades to no signal.
type OpenAIInvestigator struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *logger.Logger
}

// NewOpenAIInvestigator creates an investigator, or Noop when no API key
// is configured
func NewOpenAIInvestigator(cfg config.ReasoningConfig, log *logger.Logger) Investigator {
	if cfg.OpenAIAPIKey == "" {
		log.Info("No reasoning API key configured, external risk scoring disabled")
		return Noop{}
	}
	return &OpenAIInvestigator{
		client:  openai.NewClient(cfg.OpenAIAPIKey),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  log,
	}
}

func (i *OpenAIInvestigator) Investigate(ctx context.Context, a *alert.Alert) (*RiskAssessment, error) {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	signals := make([]string, 0, len(a.Signals))
	for _, s := range a.Signals {
		signals = append(signals, fmt.Sprintf("%s (weight %.0f)", s.Name, s.Weight))
	}

	prompt := fmt.Sprintf(
		`You are a security incident reviewer. Assess the following alert and answer with a JSON object {"risk_score": <0-100>, "narrative": "<short assessment>"}.
Threat type: %s
Entity: %s (%s)
Detection confidence: %.0f
Signals: %s`,
		a.ThreatType, a.EntityID, a.EntityKind, a.Confidence, strings.Join(signals, ", "))

	resp, err := i.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: i.model,
		Messages: []openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt,
		}},
		MaxTokens: 300,
	})
	if err != nil {
		return nil, errors.ReasoningUnavailable(err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.ReasoningUnavailable(fmt.Errorf("empty completion"))
	}

	assessment, err := parseAssessment(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, errors.ReasoningUnavailable(err)
	}
	return assessment, nil
}

// parseAssessment extracts the JSON object from the completion, tolerating
// surrounding prose and code fences
func parseAssessment(content string) (*RiskAssessment, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in completion")
	}

	var out RiskAssessment
	if err := json.Unmarshal([]byte(content[start:end+1]), &out); err != nil {
		return nil, fmt.Errorf("malformed assessment: %w", err)
	}
	if out.RiskScore < 0 || out.RiskScore > 100 {
		return nil, fmt.Errorf("risk score %.0f out of range", out.RiskScore)
	}
	return &out, nil
}
