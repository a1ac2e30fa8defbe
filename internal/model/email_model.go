package model

import (
	"time"

	"github.com/google/uuid"
)

type TemplateKind string

const (
	// TemplateAcknowledgement is informational and never counts toward dedup.
	TemplateAcknowledgement TemplateKind = "acknowledgement"
	// TemplateResult carries a hiring decision or interview invite.
	TemplateResult TemplateKind = "result"
)

const TemplateApplicationReceived = "Application Received"

type EmailTemplate struct {
	ID              uuid.UUID    `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name            string       `gorm:"type:text;not null;uniqueIndex" json:"name"`
	Kind            TemplateKind `gorm:"type:varchar(32);not null;default:'result'" json:"kind"`
	SubjectTemplate string       `gorm:"type:text;not null" json:"subject_template"`
	BodyTemplate    string       `gorm:"type:text;not null" json:"body_template"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

func (t *EmailTemplate) IsAcknowledgement() bool {
	return t != nil && t.Kind == TemplateAcknowledgement
}

// MailLog is one notification that actually left the system. Rows are written
// only after the transport reported success.
type MailLog struct {
	ID                uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ApplicationID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"application_id"`
	EmailTemplateID   *uuid.UUID     `gorm:"type:uuid" json:"email_template_id"`
	EmailTemplate     *EmailTemplate `gorm:"foreignKey:EmailTemplateID" json:"email_template,omitempty"`
	Subject           string         `gorm:"type:text;not null" json:"subject"`
	Message           string         `gorm:"type:text;not null" json:"message"`
	Recipient         string         `gorm:"type:text;not null" json:"recipient"`
	Sender            string         `gorm:"type:text" json:"sender"`
	ProviderMessageID string         `gorm:"type:text" json:"provider_message_id"`
	SentAt            time.Time      `gorm:"not null;index" json:"sent_at"`
	CreatedBy         *uuid.UUID     `gorm:"type:uuid" json:"created_by"`
}

func (m *MailLog) TableName() string {
	return "mail_logs"
}
