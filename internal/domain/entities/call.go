package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AnalysisStatus represents the analysis progress of a call
type AnalysisStatus string

const (
	AnalysisStatusPending    AnalysisStatus = "pending"
	AnalysisStatusProcessing AnalysisStatus = "processing"
	AnalysisStatusCompleted  AnalysisStatus = "completed"
	AnalysisStatusTimeout    AnalysisStatus = "timeout" // retried by the worker
	AnalysisStatusFailed     AnalysisStatus = "failed"
)

// Call represents one recorded interview call
type Call struct {
	ID               uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	OwnerID          uuid.UUID      `json:"owner_id" gorm:"type:uuid;not null;index"`
	CandidateName    string         `json:"candidate_name" gorm:"type:varchar(255)"`
	Position         string         `json:"position" gorm:"type:varchar(255)"`
	ReportID         *uuid.UUID     `json:"report_id,omitempty" gorm:"type:uuid;uniqueIndex"`
	AnalysisStatus   AnalysisStatus `json:"analysis_status" gorm:"type:varchar(20);not null;default:'pending';index"`
	AnalysisError    *string        `json:"analysis_error,omitempty" gorm:"type:text"`
	AnalysisAttempts int            `json:"analysis_attempts" gorm:"not null;default:0"`
	Metadata         datatypes.JSON `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt        time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Call) TableName() string {
	return "calls"
}

// BeforeCreate assigns an ID when the caller did not
func (c *Call) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// NewCall creates a new call owned by the given user
func NewCall(ownerID uuid.UUID, candidateName, position string) *Call {
	return &Call{
		ID:             uuid.New(),
		OwnerID:        ownerID,
		CandidateName:  candidateName,
		Position:       position,
		AnalysisStatus: AnalysisStatusPending,
	}
}

// HasReport checks if the call has already been analyzed
func (c *Call) HasReport() bool {
	return c.ReportID != nil && *c.ReportID != uuid.Nil
}

// IsOwnedBy checks call ownership
func (c *Call) IsOwnedBy(userID uuid.UUID) bool {
	return c.OwnerID == userID
}

// CanBeAnalyzedBy applies the ownership rule, admins bypass it
func (c *Call) CanBeAnalyzedBy(userID uuid.UUID, role UserRole) bool {
	return role.CanAccessAllCalls() || c.IsOwnedBy(userID)
}
