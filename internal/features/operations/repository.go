package operations

import (
	"time"

	"github.com/google/uuid"

	"github.com/Hossam1104/pos-admin-tool/internal/storage"
)

type OperationRepository struct{}

func (r *OperationRepository) Save(result *OperationResult) error {
	db := storage.GetDb()

	if result.ID == uuid.Nil {
		result.ID = uuid.New()
		return db.Create(result).Error
	}

	return db.Save(result).Error
}

func (r *OperationRepository) FindByID(id uuid.UUID) (*OperationResult, error) {
	var result OperationResult

	if err := storage.
		GetDb().
		Where("id = ?", id).
		First(&result).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *OperationRepository) FindRecent(limit int) ([]*OperationResult, error) {
	var results []*OperationResult

	if err := storage.
		GetDb().
		Order("started_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}

	return results, nil
}

func (r *OperationRepository) DeleteFinishedBefore(cutoff time.Time) (int64, error) {
	tx := storage.GetDb().
		Where("finished_at < ?", cutoff).
		Delete(&OperationResult{})

	return tx.RowsAffected, tx.Error
}
