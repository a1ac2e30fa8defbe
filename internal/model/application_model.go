package model

import (
	"time"

	"github.com/google/uuid"
)

type ScoringStatus string

const (
	ScoringUnscored ScoringStatus = "unscored"
	ScoringQueued   ScoringStatus = "scoring"
	ScoringScored   ScoringStatus = "scored"
	ScoringFallback ScoringStatus = "fallback-scored"
)

// Application is one submission of an applicant to a job. Several rows may
// share the same (ApplicantID, JobID) pair; Notified is an optimistic cache of
// the pair's delivery state and the mail log stays authoritative.
type Application struct {
	ID               uuid.UUID     `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ApplicantID      uuid.UUID     `gorm:"type:uuid;not null;index:idx_applications_pair,priority:1" json:"applicant_id"`
	JobID            uuid.UUID     `gorm:"type:uuid;not null;index:idx_applications_pair,priority:2" json:"job_id"`
	Applicant        *Applicant    `gorm:"foreignKey:ApplicantID" json:"applicant,omitempty"`
	Job              *Job          `gorm:"foreignKey:JobID" json:"job,omitempty"`
	CVFile           string        `gorm:"type:text" json:"cv_file"`
	SubmittedAt      time.Time     `gorm:"not null;default:now()" json:"submitted_at"`
	ScoringStatus    ScoringStatus `gorm:"type:varchar(32);not null;default:'unscored'" json:"scoring_status"`
	MatchingScore    *float64      `json:"matching_score"`
	RoleScore        *float64      `json:"role_score"`
	ExpScore         *float64      `json:"exp_score"`
	ProgrammingScore *float64      `json:"programming_score"`
	TechnicalScore   *float64      `json:"technical_score"`
	SoftScore        *float64      `json:"soft_score"`
	LangsScore       *float64      `json:"langs_score"`
	KeyScore         *float64      `json:"key_score"`
	CertScore        *float64      `json:"cert_score"`
	MissingFeedback  *string       `gorm:"type:text" json:"missing_feedback"`
	Note             *string       `gorm:"type:text" json:"note"`
	Result           *bool         `json:"result"`
	Notified         bool          `gorm:"column:email_sent;not null;default:false" json:"notified"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// ResultLabel renders the evaluator decision for templates.
func (a *Application) ResultLabel() string {
	switch {
	case a.Result == nil:
		return "Pending"
	case *a.Result:
		return "Accepted"
	default:
		return "Rejected"
	}
}

// ScoreUpdate is the scorer outcome written onto an application.
type ScoreUpdate struct {
	Status      ScoringStatus
	Matching    float64
	Role        float64
	Exp         float64
	Programming float64
	Technical   float64
	Soft        float64
	Langs       float64
	Key         float64
	Cert        float64
	Feedback    string
}
