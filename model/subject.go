package model

import (
	"time"

	"gorm.io/gorm"
)

// Subject represents an academic course entity, independent of any grade
type Subject struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Code        string         `gorm:"type:varchar(50);not null;index" json:"code"` // Immutable business key; uniqueness among non-deleted rows is enforced in the service
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	AreaID      *uint          `gorm:"index" json:"area_id"`
	WeeklyHours int            `gorm:"default:0" json:"weekly_hours"`
	Credits     int            `gorm:"default:0" json:"credits"`
	IsMandatory bool           `gorm:"default:true" json:"is_mandatory"`
	HasLab      bool           `gorm:"default:false" json:"has_lab"`
	Active      bool           `gorm:"default:true" json:"active"`

	// Relationships
	Area        *KnowledgeArea `gorm:"foreignKey:AreaID" json:"area,omitempty"`
	Assignments []GradeSubject `gorm:"foreignKey:SubjectID" json:"-"`
}

// TableName specifies the table name for Subject
func (Subject) TableName() string {
	return "subjects"
}

// SubjectPrerequisite is a directed "requires" edge between two subjects.
// The pair (SubjectID, PrerequisiteID) is the primary key; the edge set as a
// whole must stay acyclic, which the prerequisite service enforces at insert
// time.
type SubjectPrerequisite struct {
	SubjectID      uint      `gorm:"primaryKey;autoIncrement:false" json:"subject_id"`
	PrerequisiteID uint      `gorm:"primaryKey;autoIncrement:false" json:"prerequisite_id"`
	CreatedAt      time.Time `json:"created_at"`

	// Relationships
	Subject      Subject `gorm:"foreignKey:SubjectID;constraint:OnDelete:CASCADE" json:"-"`
	Prerequisite Subject `gorm:"foreignKey:PrerequisiteID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for SubjectPrerequisite
func (SubjectPrerequisite) TableName() string {
	return "subject_prerequisites"
}
