package model

import (
	"time"
)

// DefaultMinPassingGrade is the passing threshold applied when an assignment
// does not specify one.
const DefaultMinPassingGrade = 51.00

// GradeSubject binds one subject to one grade with ordering and
// grading-policy metadata. At most one assignment may exist per
// (grade, subject) pair.
type GradeSubject struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	GradeID          uint      `gorm:"not null;uniqueIndex:idx_grade_subject_pair" json:"grade_id"`
	SubjectID        uint      `gorm:"not null;uniqueIndex:idx_grade_subject_pair" json:"subject_id"`
	Position         int       `gorm:"column:position;default:0" json:"order"` // 1-based display/processing order within the grade
	Active           bool      `gorm:"default:true" json:"active"`
	MinPassingGrade  float64   `gorm:"type:decimal(5,2);default:51.00" json:"min_passing_grade"`
	WeightPercentage *float64  `gorm:"type:decimal(5,2)" json:"weight_percentage"`

	// Relationships
	Grade   Grade   `gorm:"foreignKey:GradeID;constraint:OnDelete:CASCADE" json:"grade,omitempty"`
	Subject Subject `gorm:"foreignKey:SubjectID;constraint:OnDelete:CASCADE" json:"subject,omitempty"`
}

// TableName specifies the table name for GradeSubject
func (GradeSubject) TableName() string {
	return "grade_subjects"
}
