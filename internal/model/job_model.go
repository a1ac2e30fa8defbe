package model

import (
	"time"

	"github.com/google/uuid"
)

type Job struct {
	ID                uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	JobTitle          string    `gorm:"type:text;not null" json:"job_title"`
	Location          string    `gorm:"type:text" json:"location"`
	ExperienceYear    int       `json:"experience_year"`
	KeyResponsibility string    `gorm:"type:text" json:"key_responsibility"`
	MustHave          string    `gorm:"type:text" json:"must_have"`
	NiceToHave        string    `gorm:"type:text" json:"nice_to_have"`
	LanguageSkills    string    `gorm:"type:text" json:"language_skills"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (j *Job) TableName() string {
	return "jobs"
}
