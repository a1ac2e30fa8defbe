package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/fadilmartias/fasthire/internal/config"
	"github.com/fadilmartias/fasthire/internal/model"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

type GeminiServiceInterface interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

type GeminiService struct {
	Client         *genai.Client
	Model          string
	MaxRetries     int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	RequestTimeout time.Duration

	logger            *zap.Logger
	mu                sync.Mutex
	consecutiveErrors int
	circuitBreakerMax int
}

func NewGeminiService(ctx context.Context, cfg *config.GeminiConfig, log *zap.Logger) (*GeminiService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiService{
		Client:            client,
		Model:             cfg.Model,
		MaxRetries:        3,
		BaseDelay:         time.Second,
		MaxDelay:          90 * time.Second,
		RequestTimeout:    120 * time.Second,
		logger:            log,
		circuitBreakerMax: 5,
	}, nil
}

// GenerateJSON asks the model for a JSON document and returns its text.
func (s *GeminiService) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}
	if n, open := s.CircuitBreakerStatus(); open {
		return "", fmt.Errorf("circuit breaker open: too many consecutive errors (%d)", n)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.RequestTimeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt <= s.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := s.calculateBackoff(attempt)
			s.logger.Warn("retrying gemini request",
				zap.Int("attempt", attempt),
				zap.Int("max_retries", s.MaxRetries),
				zap.Duration("delay", delay),
				zap.Error(lastErr))

			select {
			case <-time.After(delay):
			case <-timeoutCtx.Done():
				return "", fmt.Errorf("context timeout during retry: %w", timeoutCtx.Err())
			}
		}

		result, err := s.Client.Models.GenerateContent(
			timeoutCtx,
			s.Model,
			genai.Text(prompt),
			&genai.GenerateContentConfig{
				Temperature:      genai.Ptr(float32(0.1)),
				ResponseMIMEType: "application/json",
			},
		)
		if err == nil {
			s.recordOutcome(true)
			if err := validateGenerateResponse(result); err != nil {
				return "", fmt.Errorf("invalid response: %w", err)
			}
			return result.Text(), nil
		}

		lastErr = err
		if !isRetryableGeminiError(err) {
			s.recordOutcome(false)
			return "", fmt.Errorf("generate content failed: %w: %w", ErrNonRetryable, err)
		}
	}

	s.recordOutcome(false)
	return "", fmt.Errorf("max retries (%d) exceeded for GenerateContent: %w", s.MaxRetries, lastErr)
}

func (s *GeminiService) calculateBackoff(attempt int) time.Duration {
	delay := s.BaseDelay * time.Duration(math.Pow(2, float64(attempt-1)))
	if delay > s.MaxDelay {
		delay = s.MaxDelay
	}
	return delay
}

func (s *GeminiService) recordOutcome(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ok {
		s.consecutiveErrors = 0
		return
	}
	s.consecutiveErrors++
}

func (s *GeminiService) CircuitBreakerStatus() (consecutiveErrors int, isOpen bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.consecutiveErrors, s.consecutiveErrors >= s.circuitBreakerMax
}

func (s *GeminiService) ResetCircuitBreaker() {
	s.mu.Lock()
	s.consecutiveErrors = 0
	s.mu.Unlock()
	s.logger.Info("gemini circuit breaker reset")
}

func isRetryableGeminiError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 429, 500, 502, 503, 504:
			return true
		default:
			return false
		}
	}

	msg := err.Error()
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "temporary failure") ||
		strings.Contains(msg, "EOF")
}

func validateGenerateResponse(resp *genai.GenerateContentResponse) error {
	if resp == nil {
		return fmt.Errorf("response is nil")
	}
	if len(resp.Candidates) == 0 {
		return fmt.Errorf("no candidates in response")
	}
	if resp.Candidates[0].Content == nil {
		return fmt.Errorf("candidate content is nil")
	}
	if len(resp.Candidates[0].Content.Parts) == 0 {
		return fmt.Errorf("no parts in content")
	}
	return nil
}

// GeminiJDParser extracts job keywords with an LLM instead of the parser service.
type GeminiJDParser struct {
	gemini GeminiServiceInterface
}

func NewGeminiJDParser(gemini GeminiServiceInterface) *GeminiJDParser {
	return &GeminiJDParser{gemini: gemini}
}

func (p *GeminiJDParser) ParseJD(ctx context.Context, job *model.Job) (map[string]json.RawMessage, error) {
	text, err := p.gemini.GenerateJSON(ctx, buildJDPrompt(job))
	if err != nil {
		return nil, err
	}
	return extractCategories("gemini", strings.TrimSpace(text))
}

func buildJDPrompt(job *model.Job) string {
	return fmt.Sprintf(`You extract structured hiring requirements from a job posting.
Return ONLY a JSON object with exactly these keys: %s.
"role_job" and "experience_years" are objects {"requirement_type": "must_have" | "nice_to_have", "value": string}.
Every other key is an array of objects {"requirement_type": "must_have" | "nice_to_have", "value": string}.
Use an empty array when the posting says nothing about a category.

Job title: %s
Location: %s
Experience (years): %d
Key responsibilities:
%s
Must have:
%s
Nice to have:
%s
Language skills:
%s
`,
		strings.Join(model.KeywordTaxonomy, ", "),
		job.JobTitle,
		job.Location,
		job.ExperienceYear,
		job.KeyResponsibility,
		job.MustHave,
		job.NiceToHave,
		job.LanguageSkills,
	)
}
