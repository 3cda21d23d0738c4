package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RubricScore is one scored rubric dimension
type RubricScore struct {
	Score     float64 `json:"score"`
	Rationale string  `json:"rationale"`
}

// Validate checks the 1..5 score range
func (s RubricScore) Validate() error {
	if s.Score < 1 || s.Score > 5 {
		return fmt.Errorf("%w: got %v", ErrInvalidScore, s.Score)
	}
	return nil
}

// StarEvaluation scores one answer against the STAR method
type StarEvaluation struct {
	Score            float64 `json:"score"`
	Rationale        string  `json:"rationale"`
	SituationPresent bool    `json:"situation_present"`
	TaskPresent      bool    `json:"task_present"`
	ActionPresent    bool    `json:"action_present"`
	ResultPresent    bool    `json:"result_present"`
}

// AnswerEvaluation maps one mandatory question to the candidate's answer
type AnswerEvaluation struct {
	Question       string         `json:"question"`
	Answer         string         `json:"answer"`
	StarEvaluation StarEvaluation `json:"star_evaluation"`
}

// Report is the write-once analysis of a call
type Report struct {
	ID                  uuid.UUID          `json:"id" gorm:"type:uuid;primaryKey"`
	CallID              uuid.UUID          `json:"call_id" gorm:"type:uuid;not null;uniqueIndex"`
	Clarity             RubricScore        `json:"clarity" gorm:"type:jsonb;serializer:json"`
	Relevance           RubricScore        `json:"relevance" gorm:"type:jsonb;serializer:json"`
	Depth               RubricScore        `json:"depth" gorm:"type:jsonb;serializer:json"`
	CommStyle           RubricScore        `json:"comm_style" gorm:"type:jsonb;serializer:json"`
	CulturalFit         RubricScore        `json:"cultural_fit" gorm:"type:jsonb;serializer:json"`
	AttentionToDetail   RubricScore        `json:"attention_to_detail" gorm:"type:jsonb;serializer:json"`
	LanguageProficiency RubricScore        `json:"language_proficiency" gorm:"type:jsonb;serializer:json"`
	StarMethod          RubricScore        `json:"star_method" gorm:"type:jsonb;serializer:json"`
	Answers             []AnswerEvaluation `json:"answers" gorm:"type:jsonb;serializer:json"`
	Model               string             `json:"model,omitempty" gorm:"type:varchar(100)"`
	LatencyMs           int64              `json:"latency_ms,omitempty"`
	RawResponse         datatypes.JSON     `json:"-" gorm:"type:jsonb"`
	CreatedAt           time.Time          `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (Report) TableName() string {
	return "reports"
}

// BeforeCreate assigns an ID when the caller did not
func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// NewReport creates an empty report for a call
func NewReport(callID uuid.UUID) *Report {
	return &Report{
		ID:      uuid.New(),
		CallID:  callID,
		Answers: make([]AnswerEvaluation, 0),
	}
}

// Dimensions returns the seven rubric dimensions keyed by their wire name
func (r *Report) Dimensions() map[string]RubricScore {
	return map[string]RubricScore{
		"clarity":              r.Clarity,
		"relevance":            r.Relevance,
		"depth":                r.Depth,
		"comm_style":           r.CommStyle,
		"cultural_fit":         r.CulturalFit,
		"attention_to_detail":  r.AttentionToDetail,
		"language_proficiency": r.LanguageProficiency,
	}
}
