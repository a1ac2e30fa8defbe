package dto

import (
	"time"

	"github.com/fadilmartias/fasthire/internal/model"
	"github.com/google/uuid"
)

type InterviewDTO struct {
	Date string `json:"date" validate:"omitempty,max=64"`
	Time string `json:"time" validate:"omitempty,max=64"`
}

type SendSingleNotificationRequest struct {
	ApplicationID string       `json:"applicationId" validate:"required,uuid"`
	TemplateID    string       `json:"templateId" validate:"required,uuid"`
	CreatedBy     string       `json:"createdBy" validate:"omitempty,uuid"`
	MarkAsSent    *bool        `json:"markAsSent"`
	Interview     InterviewDTO `json:"interview"`
}

type SendBulkNotificationRequest struct {
	ApplicationIDs []string     `json:"applicationIds" validate:"required,min=1,max=500,dive,required,uuid"`
	TemplateID     string       `json:"templateId" validate:"required,uuid"`
	CreatedBy      string       `json:"createdBy" validate:"omitempty,uuid"`
	MarkAsSent     *bool        `json:"markAsSent"`
	Interview      InterviewDTO `json:"interview"`
}

type PaginationQuery struct {
	Page     int `query:"page" validate:"omitempty,min=1"`
	PageSize int `query:"page_size" validate:"omitempty,min=1,max=100"`
}

func (q *PaginationQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = 20
	}
}

type MailLogDTO struct {
	ID                uuid.UUID  `json:"id"`
	ApplicationID     uuid.UUID  `json:"application_id"`
	TemplateName      string     `json:"template_name,omitempty"`
	TemplateKind      string     `json:"template_kind,omitempty"`
	Subject           string     `json:"subject"`
	Recipient         string     `json:"recipient"`
	Sender            string     `json:"sender"`
	ProviderMessageID string     `json:"provider_message_id,omitempty"`
	SentAt            time.Time  `json:"sent_at"`
	CreatedBy         *uuid.UUID `json:"created_by,omitempty"`
}

func NewMailLogDTOs(logs []model.MailLog) []MailLogDTO {
	out := make([]MailLogDTO, 0, len(logs))
	for _, l := range logs {
		d := MailLogDTO{
			ID:                l.ID,
			ApplicationID:     l.ApplicationID,
			Subject:           l.Subject,
			Recipient:         l.Recipient,
			Sender:            l.Sender,
			ProviderMessageID: l.ProviderMessageID,
			SentAt:            l.SentAt,
			CreatedBy:         l.CreatedBy,
		}
		if l.EmailTemplate != nil {
			d.TemplateName = l.EmailTemplate.Name
			d.TemplateKind = string(l.EmailTemplate.Kind)
		}
		out = append(out, d)
	}
	return out
}

// ParseOptionalUUID returns nil for an empty string.
func ParseOptionalUUID(s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
