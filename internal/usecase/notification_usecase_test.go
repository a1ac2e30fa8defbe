package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fadilmartias/fasthire/internal/mailtemplate"
	"github.com/fadilmartias/fasthire/internal/model"
	"github.com/fadilmartias/fasthire/internal/queue"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notificationEnv struct {
	db       *fakeDB
	notify   *NotificationUsecase
	delivery *DeliveryUsecase
	mailer   *fakeMailer
	queue    *queue.Queue[NotificationPayload]
	store    *queue.MemoryStore

	applicant *model.Applicant
	job       *model.Job
	ack       *model.EmailTemplate
	accepted  *model.EmailTemplate
	rejected  *model.EmailTemplate
}

func newNotificationEnv(t *testing.T) *notificationEnv {
	t.Helper()
	db := newFakeDB()
	store := queue.NewMemoryStore()
	q := queue.New[NotificationPayload](store, testQueueConfig("notification"), nil)
	mailer := &fakeMailer{}

	env := &notificationEnv{
		db:        db,
		mailer:    mailer,
		queue:     q,
		store:     store,
		applicant: db.addApplicant("Rina", "rina@example.com"),
		job:       db.addJob("Backend Engineer"),
		ack:       db.addTemplate(model.TemplateApplicationReceived, model.TemplateAcknowledgement),
		accepted:  db.addTemplate("Application Accepted", model.TemplateResult),
		rejected:  db.addTemplate("Application Rejected", model.TemplateResult),
	}
	env.notify = NewNotificationUsecase(fakeApps{db}, fakeTemplates{db}, fakeLogs{db}, q, nil)
	env.delivery = NewDeliveryUsecase(fakeApps{db}, fakeLogs{db}, mailer, "hr@fasthire.com", nil)
	return env
}

func (e *notificationEnv) drain(t *testing.T) {
	t.Helper()
	runQueue(t, e.queue, e.store, e.delivery.Handle)
}

func TestHasQualifyingDelivery(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(e *notificationEnv, x, y *model.Application)
		received bool
		template string
		fromFlag bool
	}{
		{
			name:  "nothing sent",
			setup: func(e *notificationEnv, x, y *model.Application) {},
		},
		{
			name: "acknowledgement only",
			setup: func(e *notificationEnv, x, y *model.Application) {
				e.db.addLog(x, e.ack, t0)
			},
		},
		{
			name: "result on a sibling",
			setup: func(e *notificationEnv, x, y *model.Application) {
				e.db.addLog(x, e.ack, t0)
				e.db.addLog(x, e.accepted, t0.Add(time.Hour))
			},
			received: true,
			template: "Application Accepted",
		},
		{
			name: "newest result wins",
			setup: func(e *notificationEnv, x, y *model.Application) {
				e.db.addLog(x, e.accepted, t0)
				e.db.addLog(y, e.rejected, t0.Add(2*time.Hour))
			},
			received: true,
			template: "Application Rejected",
		},
		{
			name: "flagged sibling without any log",
			setup: func(e *notificationEnv, x, y *model.Application) {
				e.db.setNotified(y, true)
			},
			received: true,
			fromFlag: true,
		},
		{
			name: "flagged sibling whose latest log is an acknowledgement",
			setup: func(e *notificationEnv, x, y *model.Application) {
				e.db.setNotified(x, true)
				e.db.addLog(x, e.ack, t0)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newNotificationEnv(t)
			x := e.db.addApplication(e.applicant, e.job, t0)
			y := e.db.addApplication(e.applicant, e.job, t0.Add(24*time.Hour))
			tt.setup(e, x, y)

			got, err := e.notify.HasQualifyingDelivery(context.Background(), e.applicant.ID, e.job.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.received, got.Received)
			assert.Equal(t, tt.template, got.TemplateName)
			assert.Equal(t, tt.fromFlag, got.FromFlag)
		})
	}
}

func TestHasQualifyingDelivery_NoApplications(t *testing.T) {
	e := newNotificationEnv(t)
	got, err := e.notify.HasQualifyingDelivery(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.False(t, got.Received)
}

func TestSendSingleNotification_ResubmittedApplicationConflicts(t *testing.T) {
	ctx := context.Background()
	e := newNotificationEnv(t)
	sentAt := t0.Add(48 * time.Hour)
	e.delivery.now = func() time.Time { return sentAt }

	x := e.db.addApplication(e.applicant, e.job, t0)
	y := e.db.addApplication(e.applicant, e.job, t0.Add(24*time.Hour))

	receipt, err := e.notify.SendSingleNotification(ctx, x.ID, SendRequest{TemplateID: e.accepted.ID, MarkAsSent: true})
	require.NoError(t, err)
	assert.Equal(t, "Application Accepted", receipt.TemplateName)
	assert.Equal(t, "rina@example.com", receipt.Recipient)
	assert.True(t, e.db.app(x.ID).Notified)
	assert.True(t, e.db.app(y.ID).Notified)

	e.drain(t)
	logs := e.db.resultLogs(e.applicant.ID, e.job.ID)
	require.Len(t, logs, 1)
	assert.Equal(t, x.ID, logs[0].ApplicationID)
	assert.Equal(t, "Application Accepted for Backend Engineer", logs[0].Subject)

	_, err = e.notify.SendSingleNotification(ctx, y.ID, SendRequest{TemplateID: e.rejected.ID, MarkAsSent: true})
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "Application Accepted", conflict.TemplateName)
	assert.True(t, sentAt.Equal(conflict.SentAt))
	assert.Contains(t, err.Error(), "Application Accepted")
	assert.Contains(t, err.Error(), "2025-05-03")

	assert.Equal(t, 1, e.mailer.count())
	assert.Equal(t, 0, e.store.Pending("notification"))
}

func TestSendSingleNotification_ConflictBeforeDeliveryLog(t *testing.T) {
	ctx := context.Background()
	e := newNotificationEnv(t)
	x := e.db.addApplication(e.applicant, e.job, t0)
	y := e.db.addApplication(e.applicant, e.job, t0.Add(time.Hour))

	_, err := e.notify.SendSingleNotification(ctx, x.ID, SendRequest{TemplateID: e.accepted.ID, MarkAsSent: true})
	require.NoError(t, err)

	// the first email is still queued; the flags alone block the second
	_, err = e.notify.SendSingleNotification(ctx, y.ID, SendRequest{TemplateID: e.rejected.ID, MarkAsSent: true})
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Empty(t, conflict.TemplateName)
}

func TestSendSingleNotification_NotFound(t *testing.T) {
	ctx := context.Background()
	e := newNotificationEnv(t)
	x := e.db.addApplication(e.applicant, e.job, t0)

	_, err := e.notify.SendSingleNotification(ctx, uuid.New(), SendRequest{TemplateID: e.accepted.ID})
	assert.ErrorIs(t, err, ErrApplicationNotFound)

	_, err = e.notify.SendSingleNotification(ctx, x.ID, SendRequest{TemplateID: uuid.New()})
	assert.ErrorIs(t, err, ErrTemplateNotFound)

	assert.Equal(t, 0, e.store.Pending("notification"))
}

func TestSendSingleNotification_MissingRecipient(t *testing.T) {
	e := newNotificationEnv(t)
	nobody := e.db.addApplicant("No Mail", "")
	app := e.db.addApplication(nobody, e.job, t0)

	_, err := e.notify.SendSingleNotification(context.Background(), app.ID, SendRequest{TemplateID: e.accepted.ID})
	assert.ErrorIs(t, err, ErrRecipientMissing)
}

func TestSendSingleNotification_AcknowledgementBypassesDedup(t *testing.T) {
	ctx := context.Background()
	e := newNotificationEnv(t)
	x := e.db.addApplication(e.applicant, e.job, t0)
	e.db.addLog(x, e.accepted, t0)

	_, err := e.notify.SendSingleNotification(ctx, x.ID, SendRequest{TemplateID: e.ack.ID, MarkAsSent: true})
	require.NoError(t, err)
	assert.False(t, e.db.app(x.ID).Notified)

	e.drain(t)
	assert.Equal(t, 1, e.mailer.count())
	assert.Len(t, e.db.resultLogs(e.applicant.ID, e.job.ID), 1)
}

func TestSendBulkNotifications_DuplicateInBatch(t *testing.T) {
	ctx := context.Background()
	e := newNotificationEnv(t)
	app1 := e.db.addApplication(e.applicant, e.job, t0)
	app2 := e.db.addApplication(e.applicant, e.job, t0.Add(time.Hour))

	res, err := e.notify.SendBulkNotifications(ctx, []uuid.UUID{app1.ID, app2.ID}, SendRequest{TemplateID: e.accepted.ID, MarkAsSent: true})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Successful)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, app2.ID, res.Skipped[0].ApplicationID)
	assert.Equal(t, reasonDuplicateInBatch, res.Skipped[0].Reason)
	assert.Empty(t, res.Failed)

	e.drain(t)
	assert.Equal(t, 1, e.mailer.count())
	assert.Len(t, e.db.resultLogs(e.applicant.ID, e.job.ID), 1)
}

func TestSendBulkNotifications_ItemizedOutcomes(t *testing.T) {
	ctx := context.Background()
	e := newNotificationEnv(t)

	done := e.db.addApplication(e.applicant, e.job, t0)
	e.db.addLog(done, e.rejected, t0)

	other := e.db.addApplicant("Budi", "budi@example.com")
	fresh := e.db.addApplication(other, e.job, t0)
	nomail := e.db.addApplication(e.db.addApplicant("Silent", ""), e.job, t0)
	missing := uuid.New()

	res, err := e.notify.SendBulkNotifications(ctx, []uuid.UUID{done.ID, missing, fresh.ID, nomail.ID}, SendRequest{TemplateID: e.accepted.ID, MarkAsSent: true})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Successful)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, done.ID, res.Skipped[0].ApplicationID)
	assert.Contains(t, res.Skipped[0].Reason, "Application Rejected")

	require.Len(t, res.Failed, 2)
	assert.Equal(t, missing, res.Failed[0].ApplicationID)
	assert.Contains(t, res.Failed[0].Reason, ErrApplicationNotFound.Error())
	assert.Equal(t, nomail.ID, res.Failed[1].ApplicationID)

	assert.True(t, e.db.app(fresh.ID).Notified)
}

func TestSendBulkNotifications_UnknownTemplate(t *testing.T) {
	e := newNotificationEnv(t)
	app := e.db.addApplication(e.applicant, e.job, t0)

	_, err := e.notify.SendBulkNotifications(context.Background(), []uuid.UUID{app.ID}, SendRequest{TemplateID: uuid.New()})
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestSendBulkNotifications_QueueFailureIsItemized(t *testing.T) {
	db := newFakeDB()
	applicant := db.addApplicant("Rina", "rina@example.com")
	job := db.addJob("QA")
	tpl := db.addTemplate("Application Accepted", model.TemplateResult)
	app := db.addApplication(applicant, job, t0)

	q := &recordingQueue[NotificationPayload]{err: errors.New("queue down")}
	uc := NewNotificationUsecase(fakeApps{db}, fakeTemplates{db}, fakeLogs{db}, q, nil)

	res, err := uc.SendBulkNotifications(context.Background(), []uuid.UUID{app.ID}, SendRequest{TemplateID: tpl.ID, MarkAsSent: true})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Successful)
	require.Len(t, res.Failed, 1)
	assert.Contains(t, res.Failed[0].Reason, "queue down")
	assert.False(t, db.app(app.ID).Notified)
}

func TestResultEmailDeliveredAtMostOnce(t *testing.T) {
	for _, markAsSent := range []bool{true, false} {
		t.Run(map[bool]string{true: "flags on", false: "flags off"}[markAsSent], func(t *testing.T) {
			ctx := context.Background()
			e := newNotificationEnv(t)
			apps := []*model.Application{
				e.db.addApplication(e.applicant, e.job, t0),
				e.db.addApplication(e.applicant, e.job, t0.Add(time.Hour)),
				e.db.addApplication(e.applicant, e.job, t0.Add(2*time.Hour)),
			}
			ids := []uuid.UUID{apps[0].ID, apps[1].ID, apps[2].ID}
			templates := []uuid.UUID{e.accepted.ID, e.rejected.ID}

			var wg sync.WaitGroup
			for i := 0; i < 12; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					req := SendRequest{TemplateID: templates[i%2], MarkAsSent: markAsSent}
					if i%3 == 0 {
						_, _ = e.notify.SendBulkNotifications(ctx, ids, req)
						return
					}
					_, _ = e.notify.SendSingleNotification(ctx, ids[i%3], req)
				}(i)
			}
			wg.Wait()
			e.drain(t)

			assert.Len(t, e.db.resultLogs(e.applicant.ID, e.job.ID), 1)
			assert.Equal(t, 1, e.mailer.count())
		})
	}
}

func TestPreviewNotification(t *testing.T) {
	e := newNotificationEnv(t)
	invite := e.db.addTemplate("Interview Invitation", model.TemplateResult)
	e.db.mu.Lock()
	invite.BodyTemplate = "{{candidate_name}}: {{interview_date}} {{interview_time}}"
	e.db.mu.Unlock()
	app := e.db.addApplication(e.applicant, e.job, t0)

	msg, err := e.notify.PreviewNotification(context.Background(), app.ID, invite.ID, mailtemplate.Interview{Date: "12 May", Time: "10:00"})
	require.NoError(t, err)
	assert.Equal(t, "Interview Invitation for Backend Engineer", msg.Subject)
	assert.Equal(t, "Rina: 12 May 10:00", msg.HTML)
	assert.Equal(t, 0, e.store.Pending("notification"))
}

func TestDeliveryLogsForPair(t *testing.T) {
	e := newNotificationEnv(t)
	x := e.db.addApplication(e.applicant, e.job, t0)
	y := e.db.addApplication(e.applicant, e.job, t0.Add(time.Hour))
	e.db.addLog(x, e.ack, t0)
	e.db.addLog(y, e.accepted, t0.Add(3*time.Hour))
	e.db.addLog(y, e.ack, t0.Add(time.Hour))

	logs, err := e.notify.DeliveryLogsForPair(context.Background(), e.applicant.ID, e.job.ID)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, "Application Accepted", logs[0].EmailTemplate.Name)
	assert.True(t, logs[1].SentAt.After(logs[2].SentAt))

	page, total, err := e.notify.ListDeliveryLogs(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Len(t, page, 2)
	assert.EqualValues(t, 3, total)
}
