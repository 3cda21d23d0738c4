package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/interview-analyzer/internal/domain/entities"
)

// CallRepository handles call data operations
type CallRepository struct {
	db *gorm.DB
}

// NewCallRepository creates a new call repository
func NewCallRepository(db *gorm.DB) *CallRepository {
	return &CallRepository{db: db}
}

// Create creates a new call
func (r *CallRepository) Create(ctx context.Context, call *entities.Call) error {
	if call == nil {
		return errors.New("call cannot be nil")
	}
	return r.db.WithContext(ctx).Create(call).Error
}

// FindByID retrieves a call by ID
func (r *CallRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Call, error) {
	var call entities.Call
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&call).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &call, nil
}

// ListByOwner retrieves calls owned by a user with pagination
func (r *CallRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*entities.Call, int64, error) {
	var (
		calls []*entities.Call
		total int64
	)

	query := r.db.WithContext(ctx).Model(&entities.Call{}).Where("owner_id = ?", ownerID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if limit <= 0 {
		limit = 20
	}
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&calls).Error; err != nil {
		return nil, 0, err
	}
	return calls, total, nil
}

// ClaimForAnalysis moves a call into processing if it is still in one of the given statuses
func (r *CallRepository) ClaimForAnalysis(ctx context.Context, id uuid.UUID, from ...entities.AnalysisStatus) (bool, error) {
	statuses := make([]string, 0, len(from))
	for _, s := range from {
		statuses = append(statuses, string(s))
	}

	result := r.db.WithContext(ctx).
		Model(&entities.Call{}).
		Where("id = ? AND report_id IS NULL AND analysis_status IN ?", id, statuses).
		Updates(map[string]interface{}{
			"analysis_status":   entities.AnalysisStatusProcessing,
			"analysis_attempts": gorm.Expr("analysis_attempts + 1"),
			"analysis_error":    nil,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// UpdateAnalysisStatus updates the analysis status and error of a call
func (r *CallRepository) UpdateAnalysisStatus(ctx context.Context, id uuid.UUID, status entities.AnalysisStatus, errMsg *string) error {
	return r.db.WithContext(ctx).
		Model(&entities.Call{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"analysis_status": status,
			"analysis_error":  errMsg,
		}).Error
}

// FindRetryable finds timed-out calls that the retry worker should pick up
func (r *CallRepository) FindRetryable(ctx context.Context, maxAttempts, limit int) ([]*entities.Call, error) {
	var calls []*entities.Call
	if err := r.db.WithContext(ctx).
		Where("analysis_status = ?", entities.AnalysisStatusTimeout).
		Where("report_id IS NULL").
		Where("analysis_attempts < ?", maxAttempts).
		Order("updated_at ASC").
		Limit(limit).
		Find(&calls).Error; err != nil {
		return nil, err
	}
	return calls, nil
}
