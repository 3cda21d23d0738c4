package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/johnquangdev/interview-analyzer/internal/domain/entities"
	usecaseErrors "github.com/johnquangdev/interview-analyzer/internal/usecase/errors"
)

// ReportRepository handles report data operations
type ReportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// CreateForCall inserts the report and sets calls.report_id in one transaction.
// The call row is locked first so concurrent analyses of the same call serialize
// here; the unique index on reports.call_id backs this up.
func (r *ReportRepository) CreateForCall(ctx context.Context, report *entities.Report) (*entities.Report, error) {
	if report == nil {
		return nil, errors.New("report cannot be nil")
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var call entities.Call
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", report.CallID).
			First(&call).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return usecaseErrors.ErrCallNotFound
			}
			return err
		}
		if call.HasReport() {
			return usecaseErrors.ErrReportAlreadyExists
		}

		if err := tx.Create(report).Error; err != nil {
			if isUniqueViolation(err) {
				return usecaseErrors.ErrReportAlreadyExists
			}
			return err
		}

		result := tx.Model(&entities.Call{}).
			Where("id = ? AND report_id IS NULL", report.CallID).
			Updates(map[string]interface{}{
				"report_id":       report.ID,
				"analysis_status": entities.AnalysisStatusCompleted,
				"analysis_error":  nil,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return usecaseErrors.ErrReportAlreadyExists
		}
		return nil
	})

	if errors.Is(err, usecaseErrors.ErrReportAlreadyExists) {
		// the transaction is rolled back by now, read the winner's report
		existing, findErr := r.FindByCallID(ctx, report.CallID)
		if findErr != nil {
			return nil, findErr
		}
		return existing, usecaseErrors.ErrReportAlreadyExists
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}

// FindByID retrieves a report by ID
func (r *ReportRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Report, error) {
	var report entities.Report
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&report).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &report, nil
}

// FindByCallID retrieves the report of a call
func (r *ReportRepository) FindByCallID(ctx context.Context, callID uuid.UUID) (*entities.Report, error) {
	var report entities.Report
	if err := r.db.WithContext(ctx).Where("call_id = ?", callID).First(&report).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &report, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
