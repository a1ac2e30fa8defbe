package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fadilmartias/fasthire/internal/config"
	"github.com/fadilmartias/fasthire/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cv.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o600))
	return path
}

func newScorer(url string) *ScorerService {
	return NewScorerService(&config.ScorerConfig{BaseURL: url, Timeout: 2 * time.Second})
}

func TestScorerService_Score(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/match-cv-jd", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "job-1", r.FormValue("job_id"))
		assert.JSONEq(t, `{"language":[{"value":"English"}]}`, r.FormValue("jd_keywords"))
		_, _, err := r.FormFile("cv_file")
		assert.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"raw_text": "Go developer",
			"matching_score": 81.5,
			"role_score": 90,
			"technical_score": 70,
			"missing_feedback": "needs kubernetes",
			"cv_keywords": {"language": ["English"], "technical_skill": ["Go", "SQL"]}
		}`))
	}))
	defer srv.Close()

	res, err := newScorer(srv.URL).Score(context.Background(), ScoreRequest{
		JobID:   "job-1",
		CVFile:  writeCV(t),
		Profile: map[string][]json.RawMessage{"language": {json.RawMessage(`{"value":"English"}`)}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Go developer", res.RawText)
	assert.Equal(t, model.ScoringScored, res.Scores.Status)
	assert.InDelta(t, 81.5, res.Scores.Matching, 0.001)
	assert.InDelta(t, 90, res.Scores.Role, 0.001)
	assert.Equal(t, "needs kubernetes", res.Scores.Feedback)
	assert.JSONEq(t, `["Go","SQL"]`, string(res.Keywords["technical_skill"]))
	assert.Len(t, res.Keywords, 2)
}

func TestScorerService_DefaultsForEmptyReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	res, err := newScorer(srv.URL).Score(context.Background(), ScoreRequest{JobID: "j", CVFile: writeCV(t)})
	require.NoError(t, err)
	assert.Equal(t, "Nothing", res.RawText)
	assert.Equal(t, "No feedback available", res.Scores.Feedback)
	assert.Empty(t, res.Keywords)
}

func TestScorerService_Classification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		retryable bool
	}{
		{"server error", http.StatusInternalServerError, true},
		{"bad gateway", http.StatusBadGateway, true},
		{"rate limited", http.StatusTooManyRequests, true},
		{"bad request", http.StatusBadRequest, false},
		{"not found", http.StatusNotFound, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, err := newScorer(srv.URL).Score(context.Background(), ScoreRequest{JobID: "j", CVFile: writeCV(t)})
			require.Error(t, err)
			assert.Equal(t, tt.retryable, IsRetryable(err))

			var statusErr *StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, tt.status, statusErr.Code)
		})
	}
}

func TestScorerService_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	s := NewScorerService(&config.ScorerConfig{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := s.Score(context.Background(), ScoreRequest{JobID: "j", CVFile: writeCV(t)})
	require.Error(t, err)
	assert.True(t, IsRetryable(err))
}

func TestScorerService_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newScorer(url).Score(context.Background(), ScoreRequest{JobID: "j", CVFile: writeCV(t)})
	require.Error(t, err)
	assert.False(t, IsRetryable(err))
}

func TestScorerService_MissingFile(t *testing.T) {
	_, err := newScorer("http://127.0.0.1:1").Score(context.Background(), ScoreRequest{
		JobID:  "j",
		CVFile: filepath.Join(t.TempDir(), "missing.pdf"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNonRetryable)
}
