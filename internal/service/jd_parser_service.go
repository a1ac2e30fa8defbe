package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/fadilmartias/fasthire/internal/config"
	"github.com/fadilmartias/fasthire/internal/model"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

// JDParserInterface turns a job posting into keyword categories. Categories
// the parser did not return are absent from the map.
type JDParserInterface interface {
	ParseJD(ctx context.Context, job *model.Job) (map[string]json.RawMessage, error)
}

type JDParserService struct {
	client *resty.Client
}

func NewJDParserService(cfg *config.ScorerConfig) *JDParserService {
	return &JDParserService{
		client: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetTimeout(cfg.ParserTimeout),
	}
}

func (s *JDParserService) ParseJD(ctx context.Context, job *model.Job) (map[string]json.RawMessage, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{
			"jobTitle":            job.JobTitle,
			"location":            job.Location,
			"experienceYears":     strconv.Itoa(job.ExperienceYear),
			"keyResponsibilities": job.KeyResponsibility,
			"mustHave":            job.MustHave,
			"niceToHave":          job.NiceToHave,
			"languageSkills":      job.LanguageSkills,
		}).
		Post("/parse-jd")
	if err := classifyCall("jd parser", resp, err); err != nil {
		return nil, err
	}
	return extractCategories("jd parser", resp.String())
}

func extractCategories(svc, body string) (map[string]json.RawMessage, error) {
	if !gjson.Valid(body) {
		return nil, fmt.Errorf("%s returned malformed json: %s", svc, truncate(body, 200))
	}
	doc := gjson.Parse(body)
	out := make(map[string]json.RawMessage, len(model.KeywordTaxonomy))
	for _, name := range model.KeywordTaxonomy {
		v := doc.Get(name)
		if !v.Exists() || v.Type == gjson.Null {
			continue
		}
		out[name] = json.RawMessage(v.Raw)
	}
	return out, nil
}
