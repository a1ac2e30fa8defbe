package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// FallbackExtractedText marks a matching record written after scoring gave up.
const FallbackExtractedText = "Failed to extract text"

// MatchingRecord holds the scorer output for exactly one application.
type MatchingRecord struct {
	ID            uuid.UUID          `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ApplicationID uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex" json:"application_id"`
	ExtractedText string             `gorm:"type:text" json:"extracted_text"`
	Categories    []MatchingCategory `gorm:"foreignKey:MatchingRecordID;constraint:OnDelete:CASCADE" json:"categories,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

func (m *MatchingRecord) TableName() string {
	return "cv_keywords"
}

type MatchingCategory struct {
	ID               uuid.UUID        `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	MatchingRecordID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_cv_keyword_category,priority:1" json:"matching_record_id"`
	CategoryID       uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_cv_keyword_category,priority:2" json:"category_id"`
	Category         *KeywordCategory `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Value            datatypes.JSON   `gorm:"type:jsonb" json:"value"`
}

func (m *MatchingCategory) TableName() string {
	return "cv_keyword_categories"
}

// KeywordCategory is the shared taxonomy used by CV and job-description keywords.
type KeywordCategory struct {
	ID   uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name string    `gorm:"type:text;not null;uniqueIndex" json:"name"`
}

func (k *KeywordCategory) TableName() string {
	return "keyword_categories"
}
