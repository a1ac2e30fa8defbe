package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fadilmartias/fasthire/internal/model"
	"github.com/fadilmartias/fasthire/internal/queue"
	"github.com/fadilmartias/fasthire/internal/repository"
	"github.com/fadilmartias/fasthire/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

var t0 = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

// fakeDB is the shared in-memory state behind the repository fakes.
type fakeDB struct {
	mu         sync.Mutex
	apps       map[uuid.UUID]*model.Application
	applicants map[uuid.UUID]*model.Applicant
	jobs       map[uuid.UUID]*model.Job
	templates  map[uuid.UUID]*model.EmailTemplate
	logs       []model.MailLog
	locks      sync.Map

	logCreateErr error
	logFindErr   map[uuid.UUID]error
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		apps:       make(map[uuid.UUID]*model.Application),
		applicants: make(map[uuid.UUID]*model.Applicant),
		jobs:       make(map[uuid.UUID]*model.Job),
		templates:  make(map[uuid.UUID]*model.EmailTemplate),
		logFindErr: make(map[uuid.UUID]error),
	}
}

func (db *fakeDB) addApplicant(name, email string) *model.Applicant {
	db.mu.Lock()
	defer db.mu.Unlock()
	a := &model.Applicant{ID: uuid.New(), Name: name, Email: email}
	db.applicants[a.ID] = a
	return a
}

func (db *fakeDB) addJob(title string) *model.Job {
	db.mu.Lock()
	defer db.mu.Unlock()
	j := &model.Job{ID: uuid.New(), JobTitle: title, Location: "Jakarta"}
	db.jobs[j.ID] = j
	return j
}

func (db *fakeDB) addApplication(applicant *model.Applicant, job *model.Job, submittedAt time.Time) *model.Application {
	db.mu.Lock()
	defer db.mu.Unlock()
	a := &model.Application{
		ID:            uuid.New(),
		ApplicantID:   applicant.ID,
		JobID:         job.ID,
		CVFile:        "/uploads/cv.pdf",
		SubmittedAt:   submittedAt,
		ScoringStatus: model.ScoringUnscored,
	}
	db.apps[a.ID] = a
	return a
}

func (db *fakeDB) addTemplate(name string, kind model.TemplateKind) *model.EmailTemplate {
	db.mu.Lock()
	defer db.mu.Unlock()
	t := &model.EmailTemplate{
		ID:              uuid.New(),
		Name:            name,
		Kind:            kind,
		SubjectTemplate: name + " for {{position}}",
		BodyTemplate:    "<p>Dear {{candidate_name}}</p>",
	}
	db.templates[t.ID] = t
	return t
}

func (db *fakeDB) addLog(app *model.Application, tpl *model.EmailTemplate, sentAt time.Time) {
	db.mu.Lock()
	defer db.mu.Unlock()
	id := tpl.ID
	db.logs = append(db.logs, model.MailLog{ID: uuid.New(), ApplicationID: app.ID, EmailTemplateID: &id, SentAt: sentAt})
}

func (db *fakeDB) setNotified(app *model.Application, v bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.apps[app.ID].Notified = v
}

func (db *fakeDB) app(id uuid.UUID) model.Application {
	db.mu.Lock()
	defer db.mu.Unlock()
	return *db.apps[id]
}

// resultLogs counts logs of result templates for the pair.
func (db *fakeDB) resultLogs(applicantID, jobID uuid.UUID) []model.MailLog {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []model.MailLog
	for _, l := range db.logs {
		a := db.apps[l.ApplicationID]
		if a == nil || a.ApplicantID != applicantID || a.JobID != jobID {
			continue
		}
		if l.EmailTemplateID != nil && db.templates[*l.EmailTemplateID].IsAcknowledgement() {
			continue
		}
		out = append(out, l)
	}
	return out
}

func (db *fakeDB) logCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.logs)
}

type fakeApps struct{ db *fakeDB }

func (r fakeApps) FindByID(_ context.Context, id uuid.UUID) (*model.Application, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.apps[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *a
	cp.Applicant = r.db.applicants[a.ApplicantID]
	cp.Job = r.db.jobs[a.JobID]
	return &cp, nil
}

func (r fakeApps) FindSiblings(_ context.Context, applicantID, jobID uuid.UUID) ([]model.Application, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.Application
	for _, a := range r.db.apps {
		if a.ApplicantID == applicantID && a.JobID == jobID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out, nil
}

func (r fakeApps) ListDeliveryState(_ context.Context) ([]model.Application, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]model.Application, 0, len(r.db.apps))
	for _, a := range r.db.apps {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out, nil
}

func (r fakeApps) MarkPairNotified(_ context.Context, applicantID, jobID uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, a := range r.db.apps {
		if a.ApplicantID == applicantID && a.JobID == jobID {
			a.Notified = true
		}
	}
	return nil
}

func (r fakeApps) SetNotified(_ context.Context, ids []uuid.UUID, notified bool) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for _, id := range ids {
		if a, ok := r.db.apps[id]; ok {
			a.Notified = notified
			n++
		}
	}
	return n, nil
}

func (r fakeApps) SetScoringStatus(_ context.Context, id uuid.UUID, status model.ScoringStatus) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.apps[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.ScoringStatus = status
	return nil
}

func (r fakeApps) WithPairLock(ctx context.Context, applicantID, jobID uuid.UUID, fn func(ctx context.Context) error) error {
	m, _ := r.db.locks.LoadOrStore(pairKey{applicantID, jobID}, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()
	return fn(ctx)
}

type fakeLogs struct{ db *fakeDB }

func (r fakeLogs) Create(_ context.Context, l *model.MailLog) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.logCreateErr != nil {
		return r.db.logCreateErr
	}
	l.ID = uuid.New()
	r.db.logs = append(r.db.logs, *l)
	return nil
}

func (r fakeLogs) FindByApplicationIDs(_ context.Context, ids []uuid.UUID) ([]model.MailLog, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if err := r.db.logFindErr[id]; err != nil {
			return nil, err
		}
		want[id] = true
	}
	var out []model.MailLog
	for _, l := range r.db.logs {
		if !want[l.ApplicationID] {
			continue
		}
		if l.EmailTemplateID != nil {
			l.EmailTemplate = r.db.templates[*l.EmailTemplateID]
		}
		out = append(out, l)
	}
	return out, nil
}

func (r fakeLogs) List(_ context.Context, page, pageSize int) ([]model.MailLog, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	total := int64(len(r.db.logs))
	start := (page - 1) * pageSize
	if start >= len(r.db.logs) {
		return []model.MailLog{}, total, nil
	}
	end := min(start+pageSize, len(r.db.logs))
	return append([]model.MailLog(nil), r.db.logs[start:end]...), total, nil
}

type fakeTemplates struct{ db *fakeDB }

func (r fakeTemplates) FindByID(_ context.Context, id uuid.UUID) (*model.EmailTemplate, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.templates[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r fakeTemplates) FindByName(_ context.Context, name string) (*model.EmailTemplate, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, t := range r.db.templates {
		if t.Name == name {
			cp := *t
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

type recordingQueue[P any] struct {
	mu       sync.Mutex
	payloads []P
	err      error
}

func (q *recordingQueue[P]) Enqueue(_ context.Context, payload P, _ ...queue.Option) (uuid.UUID, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return uuid.Nil, q.err
	}
	q.payloads = append(q.payloads, payload)
	return uuid.New(), nil
}

func (q *recordingQueue[P]) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.payloads)
}

type fakeMailer struct {
	mu       sync.Mutex
	sent     []service.MailMessage
	err      error
	failures int
}

func (m *fakeMailer) Send(_ context.Context, msg service.MailMessage) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// failures < 0 fails every call
	if m.err != nil && m.failures != 0 {
		if m.failures > 0 {
			m.failures--
		}
		return "", m.err
	}
	m.sent = append(m.sent, msg)
	return "msg-" + uuid.NewString(), nil
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// runQueue processes q until its store has no pending jobs.
func runQueue[P any](t *testing.T, q *queue.Queue[P], store *queue.MemoryStore, handler queue.Handler[P]) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = q.Run(ctx, handler)
	}()
	require.Eventually(t, func() bool { return store.Pending(q.Name()) == 0 }, 5*time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func testQueueConfig(name string) queue.Config {
	return queue.Config{
		Name:         name,
		Concurrency:  4,
		PollInterval: 5 * time.Millisecond,
		Defaults: []queue.Option{
			queue.WithBackoff(queue.Backoff{Base: time.Millisecond, Max: 5 * time.Millisecond}),
		},
	}
}

type matchingState struct {
	text       string
	categories map[string]json.RawMessage
	scores     model.ScoreUpdate
}

// fakeMatching stages writes per transaction and applies them on commit.
type fakeMatching struct {
	mu          sync.Mutex
	records     map[uuid.UUID]*matchingState
	failCat     map[string]error
	missingApps map[uuid.UUID]bool
	txErr       error
}

func newFakeMatching() *fakeMatching {
	return &fakeMatching{
		records:     make(map[uuid.UUID]*matchingState),
		failCat:     make(map[string]error),
		missingApps: make(map[uuid.UUID]bool),
	}
}

func (m *fakeMatching) WithinTx(_ context.Context, fn func(w repository.MatchingWriter) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.txErr != nil {
		return m.txErr
	}
	w := &fakeWriter{m: m, staged: make(map[uuid.UUID]*matchingState), byRecord: make(map[uuid.UUID]uuid.UUID)}
	if err := fn(w); err != nil {
		return err
	}
	for id, st := range w.staged {
		m.records[id] = st
	}
	return nil
}

func (m *fakeMatching) record(appID uuid.UUID) (matchingState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.records[appID]
	if !ok {
		return matchingState{}, false
	}
	return *st, true
}

func (m *fakeMatching) FindByApplicationID(_ context.Context, appID uuid.UUID) (*model.MatchingRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.records[appID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	rec := &model.MatchingRecord{ID: uuid.New(), ApplicationID: appID, ExtractedText: st.text}
	for name, value := range st.categories {
		rec.Categories = append(rec.Categories, model.MatchingCategory{
			Category: &model.KeywordCategory{Name: name},
			Value:    datatypes.JSON(value),
		})
	}
	return rec, nil
}

type fakeWriter struct {
	m        *fakeMatching
	staged   map[uuid.UUID]*matchingState
	byRecord map[uuid.UUID]uuid.UUID
}

func (w *fakeWriter) ReplaceRecord(appID uuid.UUID, text string) (*model.MatchingRecord, error) {
	rec := &model.MatchingRecord{ID: uuid.New(), ApplicationID: appID, ExtractedText: text}
	w.staged[appID] = &matchingState{text: text, categories: make(map[string]json.RawMessage)}
	w.byRecord[rec.ID] = appID
	return rec, nil
}

func (w *fakeWriter) UpdateScores(appID uuid.UUID, s model.ScoreUpdate) error {
	if w.m.missingApps[appID] {
		return repository.ErrNotFound
	}
	st, ok := w.staged[appID]
	if !ok {
		return errors.New("no record staged")
	}
	st.scores = s
	return nil
}

func (w *fakeWriter) SaveCategory(recordID uuid.UUID, name string, value json.RawMessage) error {
	if err := w.m.failCat[name]; err != nil {
		return err
	}
	w.staged[w.byRecord[recordID]].categories[name] = value
	return nil
}

type fakeKeywords struct {
	mu       sync.Mutex
	profile  map[string][]json.RawMessage
	err      error
	replaced map[uuid.UUID]map[string]json.RawMessage
}

func (k *fakeKeywords) ReplaceForJob(_ context.Context, jobID uuid.UUID, categories map[string]json.RawMessage) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.replaced == nil {
		k.replaced = make(map[uuid.UUID]map[string]json.RawMessage)
	}
	k.replaced[jobID] = categories
	return nil
}

func (k *fakeKeywords) Profile(_ context.Context, _ uuid.UUID) (map[string][]json.RawMessage, error) {
	return k.profile, k.err
}

type fakeScorer struct {
	calls  atomic.Int32
	result *service.ScoreResult
	err    error
	last   atomic.Value
}

func (s *fakeScorer) Score(_ context.Context, req service.ScoreRequest) (*service.ScoreResult, error) {
	s.calls.Add(1)
	s.last.Store(req)
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}
