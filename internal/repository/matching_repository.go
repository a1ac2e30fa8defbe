package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fadilmartias/fasthire/internal/model"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MatchingWriter is the set of writes available inside one matching transaction.
type MatchingWriter interface {
	ReplaceRecord(applicationID uuid.UUID, extractedText string) (*model.MatchingRecord, error)
	UpdateScores(applicationID uuid.UUID, scores model.ScoreUpdate) error
	// SaveCategory writes one keyword category. A failure is rolled back on its
	// own and leaves earlier categories of the transaction intact.
	SaveCategory(recordID uuid.UUID, category string, value json.RawMessage) error
}

type MatchingRepository struct {
	db *gorm.DB
}

func NewMatchingRepository(db *gorm.DB) *MatchingRepository {
	return &MatchingRepository{db}
}

// WithinTx runs fn in one transaction. Returning an error rolls back everything.
func (r *MatchingRepository) WithinTx(ctx context.Context, fn func(w MatchingWriter) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&matchingWriter{tx: tx})
	})
}

func (r *MatchingRepository) FindByApplicationID(ctx context.Context, applicationID uuid.UUID) (*model.MatchingRecord, error) {
	var rec model.MatchingRecord
	err := r.db.WithContext(ctx).
		Preload("Categories.Category").
		First(&rec, "application_id = ?", applicationID).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &rec, nil
}

type matchingWriter struct {
	tx         *gorm.DB
	savepoints int
}

func (w *matchingWriter) ReplaceRecord(applicationID uuid.UUID, extractedText string) (*model.MatchingRecord, error) {
	prior := w.tx.Model(&model.MatchingRecord{}).Select("id").Where("application_id = ?", applicationID)
	if err := w.tx.Where("matching_record_id IN (?)", prior).Delete(&model.MatchingCategory{}).Error; err != nil {
		return nil, fmt.Errorf("delete prior categories: %w", err)
	}
	if err := w.tx.Where("application_id = ?", applicationID).Delete(&model.MatchingRecord{}).Error; err != nil {
		return nil, fmt.Errorf("delete prior record: %w", err)
	}

	rec := &model.MatchingRecord{ApplicationID: applicationID, ExtractedText: extractedText}
	if err := w.tx.Create(rec).Error; err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}
	return rec, nil
}

func (w *matchingWriter) UpdateScores(applicationID uuid.UUID, s model.ScoreUpdate) error {
	res := w.tx.Model(&model.Application{}).Where("id = ?", applicationID).Updates(map[string]any{
		"scoring_status":    s.Status,
		"matching_score":    s.Matching,
		"role_score":        s.Role,
		"exp_score":         s.Exp,
		"programming_score": s.Programming,
		"technical_score":   s.Technical,
		"soft_score":        s.Soft,
		"langs_score":       s.Langs,
		"key_score":         s.Key,
		"cert_score":        s.Cert,
		"missing_feedback":  s.Feedback,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (w *matchingWriter) SaveCategory(recordID uuid.UUID, category string, value json.RawMessage) error {
	w.savepoints++
	sp := fmt.Sprintf("category_%d", w.savepoints)
	if err := w.tx.SavePoint(sp).Error; err != nil {
		return err
	}
	if err := saveCategory(w.tx, recordID, category, value); err != nil {
		if rbErr := w.tx.RollbackTo(sp).Error; rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return nil
}

func saveCategory(tx *gorm.DB, recordID uuid.UUID, name string, value json.RawMessage) error {
	cat, err := findOrCreateCategory(tx, name)
	if err != nil {
		return err
	}
	row := model.MatchingCategory{
		MatchingRecordID: recordID,
		CategoryID:       cat.ID,
		Value:            datatypes.JSON(value),
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "matching_record_id"}, {Name: "category_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&row).Error
}

func findOrCreateCategory(tx *gorm.DB, name string) (*model.KeywordCategory, error) {
	cat := model.KeywordCategory{Name: name}
	err := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).Create(&cat).Error
	if err != nil {
		return nil, fmt.Errorf("create category %q: %w", name, err)
	}
	if err := tx.Where("name = ?", name).First(&cat).Error; err != nil {
		return nil, fmt.Errorf("load category %q: %w", name, err)
	}
	return &cat, nil
}
