package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/fadilmartias/fasthire/internal/model"
	"github.com/google/uuid"
)

// DeliveryStatus describes the qualifying result email of an applicant and
// job pair, if any.
type DeliveryStatus struct {
	Received      bool      `json:"received"`
	TemplateName  string    `json:"template_name,omitempty"`
	SentAt        time.Time `json:"sent_at,omitempty"`
	ApplicationID uuid.UUID `json:"application_id,omitempty"`
	// FromFlag is set when only a sibling's delivery flag vouched for the send.
	FromFlag bool `json:"from_flag,omitempty"`
}

func (s DeliveryStatus) conflict() *ConflictError {
	return &ConflictError{TemplateName: s.TemplateName, SentAt: s.SentAt, ApplicationID: s.ApplicationID}
}

// deliveryChecker answers whether a pair already received a result email.
// The mail log is authoritative; the notified flag is consulted only when the
// log is inconclusive and the caller allows it.
type deliveryChecker struct {
	apps ApplicationRepository
	logs MailLogRepository
}

func (c *deliveryChecker) check(ctx context.Context, applicantID, jobID uuid.UUID, useFlag bool) (DeliveryStatus, error) {
	apps, err := c.apps.FindSiblings(ctx, applicantID, jobID)
	if err != nil {
		return DeliveryStatus{}, fmt.Errorf("load sibling applications: %w", err)
	}
	return c.checkSiblings(ctx, apps, useFlag)
}

func (c *deliveryChecker) checkSiblings(ctx context.Context, apps []model.Application, useFlag bool) (DeliveryStatus, error) {
	if len(apps) == 0 {
		return DeliveryStatus{}, nil
	}

	ids := make([]uuid.UUID, len(apps))
	for i, a := range apps {
		ids[i] = a.ID
	}
	logs, err := c.logs.FindByApplicationIDs(ctx, ids)
	if err != nil {
		return DeliveryStatus{}, fmt.Errorf("load mail logs: %w", err)
	}
	sortLogsNewestFirst(logs)

	for _, l := range logs {
		if l.EmailTemplate.IsAcknowledgement() {
			continue
		}
		return statusFromLog(l), nil
	}
	if !useFlag {
		return DeliveryStatus{}, nil
	}

	// Only acknowledgements are logged at this point. A flagged sibling with
	// no log at all is a send whose log write went missing.
	logged := make(map[uuid.UUID]bool, len(logs))
	for _, l := range logs {
		logged[l.ApplicationID] = true
	}
	for _, a := range apps {
		if a.Notified && !logged[a.ID] {
			return DeliveryStatus{Received: true, ApplicationID: a.ID, FromFlag: true}, nil
		}
	}
	return DeliveryStatus{}, nil
}

func statusFromLog(l model.MailLog) DeliveryStatus {
	s := DeliveryStatus{Received: true, SentAt: l.SentAt, ApplicationID: l.ApplicationID}
	if l.EmailTemplate != nil {
		s.TemplateName = l.EmailTemplate.Name
	}
	return s
}

func sortLogsNewestFirst(logs []model.MailLog) {
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].SentAt.After(logs[j].SentAt)
	})
}
