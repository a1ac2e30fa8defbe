package usecase

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrApplicationNotFound = errors.New("application not found")
	ErrTemplateNotFound    = errors.New("email template not found")
	ErrJobNotFound         = errors.New("job not found")
	ErrRecipientMissing    = errors.New("applicant has no email address")
	ErrInvalidCV           = errors.New("cv file is not a readable pdf")
	ErrParserFailed        = errors.New("job description parser failed")
	ErrMatchingNotFound    = errors.New("application has not been scored yet")
)

// ConflictError reports that a result email already reached the applicant for
// the job. TemplateName and SentAt are empty when only the delivery flag
// recorded the earlier send.
type ConflictError struct {
	TemplateName  string
	SentAt        time.Time
	ApplicationID uuid.UUID
}

func (e *ConflictError) Error() string {
	if e.TemplateName == "" || e.SentAt.IsZero() {
		return "a result email was already sent to this applicant for this job"
	}
	return fmt.Sprintf("a result email (%q) was already sent to this applicant for this job on %s",
		e.TemplateName, e.SentAt.Format("2006-01-02 15:04 MST"))
}
