package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// KeywordTaxonomy is the category set produced by the job-description parser.
var KeywordTaxonomy = []string{
	"certificate",
	"education",
	"experience_years",
	"key_responsibilities",
	"language",
	"programming_language",
	"role_job",
	"soft_skill",
	"technical_skill",
}

type JDKeyword struct {
	ID         uuid.UUID           `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	JobID      uuid.UUID           `gorm:"type:uuid;not null;index" json:"job_id"`
	Categories []JDKeywordCategory `gorm:"foreignKey:JDKeywordID;constraint:OnDelete:CASCADE" json:"categories,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
}

func (j *JDKeyword) TableName() string {
	return "jd_keywords"
}

type JDKeywordCategory struct {
	ID          uuid.UUID        `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	JDKeywordID uuid.UUID        `gorm:"type:uuid;not null;index" json:"jd_keyword_id"`
	CategoryID  uuid.UUID        `gorm:"type:uuid;not null" json:"category_id"`
	Category    *KeywordCategory `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Value       datatypes.JSON   `gorm:"type:jsonb" json:"value"`
}

func (j *JDKeywordCategory) TableName() string {
	return "jd_keyword_categories"
}
