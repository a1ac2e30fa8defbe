package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fadilmartias/fasthire/internal/model"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type JDKeywordRepository struct {
	db *gorm.DB
}

func NewJDKeywordRepository(db *gorm.DB) *JDKeywordRepository {
	return &JDKeywordRepository{db}
}

// ReplaceForJob swaps the job's keyword profile for the given categories in
// one transaction.
func (r *JDKeywordRepository) ReplaceForJob(ctx context.Context, jobID uuid.UUID, categories map[string]json.RawMessage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prior := tx.Model(&model.JDKeyword{}).Select("id").Where("job_id = ?", jobID)
		if err := tx.Where("jd_keyword_id IN (?)", prior).Delete(&model.JDKeywordCategory{}).Error; err != nil {
			return fmt.Errorf("delete prior categories: %w", err)
		}
		if err := tx.Where("job_id = ?", jobID).Delete(&model.JDKeyword{}).Error; err != nil {
			return fmt.Errorf("delete prior keywords: %w", err)
		}

		kw := model.JDKeyword{JobID: jobID}
		if err := tx.Create(&kw).Error; err != nil {
			return fmt.Errorf("create keywords: %w", err)
		}
		for name, value := range categories {
			cat, err := findOrCreateCategory(tx, name)
			if err != nil {
				return err
			}
			row := model.JDKeywordCategory{JDKeywordID: kw.ID, CategoryID: cat.ID, Value: datatypes.JSON(value)}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("save category %q: %w", name, err)
			}
		}
		return nil
	})
}

// Profile returns every stored category value of the job, keyed by category
// name. A job without keywords yields an empty map.
func (r *JDKeywordRepository) Profile(ctx context.Context, jobID uuid.UUID) (map[string][]json.RawMessage, error) {
	var rows []model.JDKeywordCategory
	err := r.db.WithContext(ctx).
		Preload("Category").
		Joins("JOIN jd_keywords ON jd_keywords.id = jd_keyword_categories.jd_keyword_id").
		Where("jd_keywords.job_id = ?", jobID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	profile := make(map[string][]json.RawMessage)
	for _, row := range rows {
		if row.Category == nil {
			continue
		}
		profile[row.Category.Name] = append(profile[row.Category.Name], json.RawMessage(row.Value))
	}
	return profile, nil
}
