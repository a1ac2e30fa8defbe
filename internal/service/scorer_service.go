package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fadilmartias/fasthire/internal/config"
	"github.com/fadilmartias/fasthire/internal/model"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

const (
	defaultRawText  = "Nothing"
	defaultFeedback = "No feedback available"
)

type ScorerServiceInterface interface {
	Score(ctx context.Context, req ScoreRequest) (*ScoreResult, error)
}

type ScoreRequest struct {
	JobID   string
	CVFile  string
	Profile map[string][]json.RawMessage
}

type ScoreResult struct {
	RawText  string
	Scores   model.ScoreUpdate
	Keywords map[string]json.RawMessage
}

// ScorerService calls the CV/JD matching service. It never retries; callers
// decide what a failure means through IsRetryable.
type ScorerService struct {
	client *resty.Client
}

func NewScorerService(cfg *config.ScorerConfig) *ScorerService {
	return &ScorerService{
		client: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetTimeout(cfg.Timeout),
	}
}

func (s *ScorerService) Score(ctx context.Context, req ScoreRequest) (*ScoreResult, error) {
	if _, err := os.Stat(req.CVFile); err != nil {
		return nil, fmt.Errorf("cv file %q: %w: %w", req.CVFile, ErrNonRetryable, err)
	}

	profile := req.Profile
	if profile == nil {
		profile = map[string][]json.RawMessage{}
	}
	keywords, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("encode jd keywords: %w: %w", ErrNonRetryable, err)
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetFile("cv_file", req.CVFile).
		SetFormData(map[string]string{
			"job_id":      req.JobID,
			"jd_keywords": string(keywords),
		}).
		Post("/match-cv-jd")
	if err := classifyCall("scorer", resp, err); err != nil {
		return nil, err
	}

	body := resp.String()
	if !gjson.Valid(body) {
		return nil, fmt.Errorf("scorer returned malformed json: %s", truncate(body, 200))
	}
	return parseScoreResult(gjson.Parse(body)), nil
}

func parseScoreResult(r gjson.Result) *ScoreResult {
	res := &ScoreResult{
		RawText: r.Get("raw_text").String(),
		Scores: model.ScoreUpdate{
			Status:      model.ScoringScored,
			Matching:    r.Get("matching_score").Float(),
			Role:        r.Get("role_score").Float(),
			Exp:         r.Get("exp_score").Float(),
			Programming: r.Get("programming_score").Float(),
			Technical:   r.Get("technical_score").Float(),
			Soft:        r.Get("soft_score").Float(),
			Langs:       r.Get("langs_score").Float(),
			Key:         r.Get("key_score").Float(),
			Cert:        r.Get("cert_score").Float(),
			Feedback:    r.Get("missing_feedback").String(),
		},
		Keywords: make(map[string]json.RawMessage),
	}
	if res.RawText == "" {
		res.RawText = defaultRawText
	}
	if res.Scores.Feedback == "" {
		res.Scores.Feedback = defaultFeedback
	}
	r.Get("cv_keywords").ForEach(func(key, value gjson.Result) bool {
		res.Keywords[key.String()] = json.RawMessage(value.Raw)
		return true
	})
	return res
}
