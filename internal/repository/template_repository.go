package repository

import (
	"context"
	"fmt"

	"github.com/fadilmartias/fasthire/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TemplateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db}
}

func (r *TemplateRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.EmailTemplate, error) {
	var t model.EmailTemplate
	if err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (r *TemplateRepository) FindByName(ctx context.Context, name string) (*model.EmailTemplate, error) {
	var t model.EmailTemplate
	if err := r.db.WithContext(ctx).First(&t, "name = ?", name).Error; err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

// SeedDefaults inserts the stock templates that are missing. Existing rows are
// left untouched so edited copies survive restarts.
func (r *TemplateRepository) SeedDefaults(ctx context.Context) error {
	for _, t := range DefaultTemplates() {
		var count int64
		if err := r.db.WithContext(ctx).Model(&model.EmailTemplate{}).Where("name = ?", t.Name).Count(&count).Error; err != nil {
			return fmt.Errorf("check template %q: %w", t.Name, err)
		}
		if count > 0 {
			continue
		}
		if err := r.db.WithContext(ctx).Create(&t).Error; err != nil && !IsUniqueViolation(err) {
			return fmt.Errorf("seed template %q: %w", t.Name, err)
		}
	}
	return nil
}

func DefaultTemplates() []model.EmailTemplate {
	return []model.EmailTemplate{
		{
			Name:            model.TemplateApplicationReceived,
			Kind:            model.TemplateAcknowledgement,
			SubjectTemplate: "Thank you for your application to {{position}}",
			BodyTemplate: `<p>Dear {{candidate_name}},</p>
<p>Thank you for applying to the {{position}} position at our company. We have received your application and our team will review it shortly.</p>
<p>We will contact you if your qualifications match our requirements for the role.</p>
<p>Best regards,<br>Recruitment Team</p>`,
		},
		{
			Name:            "Interview Invitation",
			Kind:            model.TemplateResult,
			SubjectTemplate: "Interview Invitation for {{position}}",
			BodyTemplate: `<p>Dear {{candidate_name}},</p>
<p>We are pleased to invite you for an interview for the {{position}} position. Your qualifications and experience have impressed our hiring team.</p>
<p>Your interview is scheduled for: {{interview_date}} at {{interview_time}}.</p>
<p>Please confirm your attendance by replying to this email.</p>
<p>Best regards,<br>Recruitment Team</p>`,
		},
		{
			Name:            "Application Accepted",
			Kind:            model.TemplateResult,
			SubjectTemplate: "Congratulations! Your application for {{position}} has been accepted",
			BodyTemplate: `<p>Dear {{candidate_name}},</p>
<p>We are delighted to inform you that your application for the {{position}} position has been accepted.</p>
<p>We would like to extend an offer to you to join our team. The details of the offer will be sent to you shortly.</p>
<p>Congratulations and welcome to our team!</p>
<p>Best regards,<br>Recruitment Team</p>`,
		},
		{
			Name:            "Application Rejected",
			Kind:            model.TemplateResult,
			SubjectTemplate: "Regarding your application for {{position}}",
			BodyTemplate: `<p>Dear {{candidate_name}},</p>
<p>Thank you for your interest in the {{position}} position and for taking the time to apply.</p>
<p>After careful consideration, we regret to inform you that we have decided to move forward with other candidates whose qualifications better match our current needs.</p>
<p>We appreciate your interest in our company and wish you the best in your job search.</p>
<p>Best regards,<br>Recruitment Team</p>`,
		},
	}
}
